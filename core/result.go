package core

import "fmt"

// FailureKind classifies why a step or session failed. Kinds drive both the
// retry controller's transient/fatal decision and the terminal status a
// failed session reports.
type FailureKind string

const (
	// FailureNone marks a successful result.
	FailureNone FailureKind = ""
	// FailureParsing is malformed reasoner output, recovered via self-correction.
	FailureParsing FailureKind = "parsing"
	// FailureValidationRejected is a policy violation; the call never executes.
	FailureValidationRejected FailureKind = "validation_rejected"
	// FailureTransient is a recoverable fault (timeout, reset, rate limit,
	// pool exhaustion) eligible for retry.
	FailureTransient FailureKind = "transient"
	// FailureFatal is a fault retrying cannot help (permission denial,
	// malformed schema, bad input).
	FailureFatal FailureKind = "fatal"
	// FailureRetriesExhausted is surfaced after the retry budget is consumed.
	FailureRetriesExhausted FailureKind = "retries_exhausted"
	// FailureIterationLimit is the loop-level terminal failure when the
	// iteration budget runs out without a final answer.
	FailureIterationLimit FailureKind = "iteration_limit"
	// FailureReasoningEngine is a fault from the reasoning engine itself,
	// terminal for the session.
	FailureReasoningEngine FailureKind = "reasoning_engine"
)

// ToolResult is the tagged outcome of a tool or capability execution:
// Success(payload, side effects) or Failure(kind, message, retryable).
type ToolResult struct {
	OK bool

	// Payload holds the success output, already rendered for observation.
	Payload string
	// SideEffects reports whether the execution mutated external state.
	SideEffects bool

	// Kind, Message and Retryable describe a failure.
	Kind      FailureKind
	Message   string
	Retryable bool
}

// Success constructs a successful result.
func Success(payload string, sideEffects bool) ToolResult {
	return ToolResult{OK: true, Payload: payload, SideEffects: sideEffects}
}

// Failure constructs a failed result with explicit retryability.
func Failure(kind FailureKind, retryable bool, format string, args ...any) ToolResult {
	return ToolResult{
		OK:        false,
		Kind:      kind,
		Message:   fmt.Sprintf(format, args...),
		Retryable: retryable,
	}
}

// TransientFailure constructs a retryable failure.
func TransientFailure(format string, args ...any) ToolResult {
	return Failure(FailureTransient, true, format, args...)
}

// FatalFailure constructs a non-retryable failure.
func FatalFailure(format string, args ...any) ToolResult {
	return Failure(FailureFatal, false, format, args...)
}

// Observation renders the result as the observation string appended to the
// scratchpad and fed back to the reasoner.
func (r ToolResult) Observation() string {
	if r.OK {
		return r.Payload
	}
	return fmt.Sprintf("Error (%s): %s", r.Kind, r.Message)
}

// Verdict is the outcome of security validation for a tool invocation:
// Allowed, or Rejected with a specific reason. A verdict is never mutated
// after creation.
type Verdict struct {
	Allowed bool
	Reason  string
}

// Allow returns an allowing verdict.
func Allow() Verdict { return Verdict{Allowed: true} }

// Reject returns a rejecting verdict with a specific, non-generic reason the
// loop can feed back to the reasoner for self-correction.
func Reject(format string, args ...any) Verdict {
	return Verdict{Allowed: false, Reason: fmt.Sprintf(format, args...)}
}
