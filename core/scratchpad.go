package core

// Step is one completed Thought/Action/Observation cycle of a session.
type Step struct {
	Thought     string `json:"thought,omitempty"`
	Action      Action `json:"action"`
	Observation string `json:"observation"`
}

// Scratchpad is the ordered, append-only trace of steps for one session. It
// is owned exclusively by a single agent loop instance and discarded when
// the session ends; the loop hands out copies for prompts and trace output.
type Scratchpad struct {
	steps []Step
}

// NewScratchpad constructs an empty scratchpad.
func NewScratchpad() *Scratchpad { return &Scratchpad{} }

// Append records a completed step.
func (s *Scratchpad) Append(step Step) { s.steps = append(s.steps, step) }

// Len returns the number of recorded steps. The agent loop compares this
// against the configured iteration budget.
func (s *Scratchpad) Len() int { return len(s.steps) }

// Steps returns a copy of the recorded steps for safe external consumption.
func (s *Scratchpad) Steps() []Step {
	out := make([]Step, len(s.steps))
	copy(out, s.steps)
	return out
}
