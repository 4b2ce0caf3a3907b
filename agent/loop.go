package agent

import (
	"context"
	"time"

	"github.com/querypilot/querypilot/core"
)

// Run serves one user request to completion. The loop executes at most
// MaxIterations reason/act/observe cycles; parsing errors and policy
// rejections consume an iteration slot exactly like a dispatched tool call.
// On cancellation the partial trace is returned together with the context's
// error so callers can diagnose how far the session got.
func (a *Agent) Run(ctx context.Context, question string) (*Result, error) {
	s := newSession(question)
	a.logger.Info("session.start", "agent", a.cfg.Name, "session_id", s.id)

	for iteration := 1; iteration <= a.cfg.MaxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return a.canceled(s, err)
		}

		s.state = StateThinking
		started := time.Now()
		resp, err := a.reasoner.Complete(ctx, a.buildRequest(s))
		if a.recorder != nil {
			a.recorder.LogModelCall(a.cfg.ReasoningModel, time.Since(started), err == nil, err)
		}
		if err != nil {
			if ctx.Err() != nil {
				return a.canceled(s, ctx.Err())
			}
			a.logger.Error("session.reasoner_error", "session_id", s.id, "error", err.Error())
			return a.failed(s, core.FailureReasoningEngine, err.Error()), nil
		}
		a.logger.Debug("session.reasoned", "session_id", s.id, "iteration", iteration,
			"duration_ms", time.Since(started).Milliseconds())

		s.state = StateActing
		action := a.parser.Parse(resp.Text)

		switch action.Type {
		case core.ActionFinalAnswer:
			s.pad.Append(core.Step{
				Thought:     action.Thought,
				Action:      action,
				Observation: "final answer delivered",
			})
			return a.finished(s, action.Answer), nil

		case core.ActionParsingError:
			observation := core.Failure(core.FailureParsing, false, "%s", action.Reason).Observation()
			s.pad.Append(core.Step{
				Thought:     action.Thought,
				Action:      action,
				Observation: observation,
			})
			a.logger.Warn("session.parse_error", "session_id", s.id, "iteration", iteration, "reason", action.Reason)

		case core.ActionToolInvocation:
			result := a.dispatch(ctx, *action.Invocation)
			if ctx.Err() != nil {
				s.pad.Append(core.Step{
					Thought:     action.Thought,
					Action:      action,
					Observation: "canceled before completion",
				})
				return a.canceled(s, ctx.Err())
			}

			s.state = StateObserving
			s.pad.Append(core.Step{
				Thought:     action.Thought,
				Action:      action,
				Observation: result.Observation(),
			})
			a.logger.Debug("session.observed", "session_id", s.id, "iteration", iteration,
				"tool", action.Invocation.Tool, "ok", result.OK)

			// An exhausted retry budget on the session's last action is
			// terminal; anywhere earlier the reasoner gets a chance to try
			// a different action.
			if result.Kind == core.FailureRetriesExhausted && iteration == a.cfg.MaxIterations {
				return a.failed(s, core.FailureRetriesExhausted, result.Message), nil
			}
		}
	}

	return a.failed(s, core.FailureIterationLimit,
		"no final answer after the configured maximum of iterations"), nil
}

func (a *Agent) finished(s *session, answer string) *Result {
	s.state = StateFinished
	r := s.result(a.cfg.Name)
	r.Status = StatusFinished
	r.Answer = answer
	a.logger.Info("session.finished", "session_id", s.id, "iterations", r.Iterations,
		"duration_ms", r.Duration.Milliseconds())
	a.recordSession(r)
	return r
}

func (a *Agent) failed(s *session, kind core.FailureKind, message string) *Result {
	s.state = StateFailed
	r := s.result(a.cfg.Name)
	r.Status = StatusFailed
	r.FailureKind = kind
	r.FailureMessage = message
	a.logger.Warn("session.failed", "session_id", s.id, "kind", string(kind),
		"iterations", r.Iterations, "message", message)
	a.recordSession(r)
	return r
}

func (a *Agent) canceled(s *session, err error) (*Result, error) {
	s.state = StateFailed
	r := s.result(a.cfg.Name)
	r.Status = StatusCanceled
	r.FailureMessage = err.Error()
	a.logger.Warn("session.canceled", "session_id", s.id, "iterations", r.Iterations)
	a.recordSession(r)
	return r, err
}

func (a *Agent) recordSession(r *Result) {
	if a.recorder != nil {
		a.recorder.LogSession(string(r.Status), len(r.Trace), r.Duration)
	}
}
