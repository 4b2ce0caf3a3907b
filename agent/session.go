package agent

import (
	"time"

	"github.com/querypilot/querypilot/core"
)

// State is the loop's position in the reason/act/observe cycle.
type State int

const (
	// StateThinking means the loop is waiting on the reasoning model.
	StateThinking State = iota
	// StateActing means the loop is parsing, validating and dispatching.
	StateActing
	// StateObserving means the loop is folding a tool result into the
	// scratchpad.
	StateObserving
	// StateFinished is terminal: a final answer was produced.
	StateFinished
	// StateFailed is terminal: the iteration budget, the reasoning engine
	// or an exhausted retry ended the session without an answer.
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateThinking:
		return "thinking"
	case StateActing:
		return "acting"
	case StateObserving:
		return "observing"
	case StateFinished:
		return "finished"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Status is the terminal disposition of a session.
type Status string

const (
	// StatusFinished means the session produced a final answer.
	StatusFinished Status = "finished"
	// StatusFailed means the session terminated without an answer.
	StatusFailed Status = "failed"
	// StatusCanceled means the caller canceled the session.
	StatusCanceled Status = "canceled"
)

// Result is what every session returns: the answer or the terminal failure,
// plus the full trace for audit. A failed session always carries its trace;
// callers never see a bare internal fault.
type Result struct {
	SessionID      string           `json:"session_id"`
	Agent          string           `json:"agent"`
	Status         Status           `json:"status"`
	Answer         string           `json:"answer,omitempty"`
	FailureKind    core.FailureKind `json:"failure_kind,omitempty"`
	FailureMessage string           `json:"failure_message,omitempty"`
	Trace          []core.Step      `json:"trace"`
	Iterations     int              `json:"iterations"`
	Duration       time.Duration    `json:"duration"`
}

// Failed reports whether the session terminated without an answer.
func (r *Result) Failed() bool { return r.Status != StatusFinished }

// session is the per-Run mutable state. Never shared between goroutines.
type session struct {
	id       string
	question string
	state    State
	pad      *core.Scratchpad
	started  time.Time
}

func newSession(question string) *session {
	return &session{
		id:       core.NewID(),
		question: question,
		state:    StateThinking,
		pad:      core.NewScratchpad(),
		started:  time.Now(),
	}
}

func (s *session) result(agentName string) *Result {
	return &Result{
		SessionID:  s.id,
		Agent:      agentName,
		Trace:      s.pad.Steps(),
		Iterations: s.pad.Len(),
		Duration:   time.Since(s.started),
	}
}
