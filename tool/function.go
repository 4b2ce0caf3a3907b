package tool

import (
	"context"
	"errors"
	"time"

	"github.com/querypilot/querypilot/core"
	"github.com/querypilot/querypilot/logging"
)

// FunctionTool is a generic adapter that exposes a plain Go function as a
// tool.
//
// Responsibilities:
//   - Holds the declared parameter schema
//   - Validates supplied arguments against that schema before execution
//   - Normalizes error handling so the loop receives a core.ToolResult with
//     a consistent failure kind:
//     validation mismatch      -> fatal failure (retrying cannot help)
//     *ToolError TIMEOUT /
//     UNAVAILABLE              -> transient failure
//     other errors             -> fatal failure
//
// A FunctionTool has no internal mutable state after construction and is
// safe for concurrent use by multiple goroutines.
type FunctionTool struct {
	name        string
	description string
	schema      Schema
	sideEffects bool
	logger      logging.Logger
	fn          func(ctx context.Context, args map[string]any) (string, error)
}

// FunctionToolOption customizes a FunctionTool.
type FunctionToolOption func(*FunctionTool)

// WithSideEffects declares that the tool mutates external state, excluding
// its results from the cache.
func WithSideEffects() FunctionToolOption {
	return func(t *FunctionTool) { t.sideEffects = true }
}

// WithLogger attaches a structured logger.
func WithLogger(logger logging.Logger) FunctionToolOption {
	return func(t *FunctionTool) { t.logger = logger }
}

// NewFunctionTool constructs a FunctionTool from explicit schema and function.
//
// Example:
//
//	echo := NewFunctionTool(
//	  "echo",
//	  "Echo the input message",
//	  Schema{"message": {Type: "string", Required: true, Description: "Text to echo"}},
//	  func(_ context.Context, args map[string]any) (string, error) {
//	    return args["message"].(string), nil
//	  },
//	)
func NewFunctionTool(
	name, description string,
	schema Schema,
	fn func(ctx context.Context, args map[string]any) (string, error),
	opts ...FunctionToolOption,
) *FunctionTool {
	t := &FunctionTool{
		name:        name,
		description: description,
		schema:      schema,
		logger:      logging.NoOpLogger{},
		fn:          fn,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Name returns the unique tool name used in action parsing and routing.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the short natural language description exposed to the reasoner.
func (t *FunctionTool) Description() string { return t.description }

// Schema returns the declared argument specifications.
func (t *FunctionTool) Schema() Schema { return t.schema }

// SideEffectFree reports the declared side-effect flag.
func (t *FunctionTool) SideEffectFree() bool { return !t.sideEffects }

// Call validates the provided args against the declared schema then invokes
// the underlying function, folding validation and execution failures into a
// core.ToolResult for uniform downstream handling.
func (t *FunctionTool) Call(ctx context.Context, args map[string]any) core.ToolResult {
	start := time.Now()
	t.logger.Debug("tool.call.start", "tool", t.name)

	normalized, err := ValidateArgs(args, t.schema)
	if err != nil {
		t.logger.Warn("tool.call.validation_failed", "tool", t.name, "error", err.Error())
		return core.FatalFailure("parameter validation failed for tool %q: %v", t.name, err)
	}

	payload, err := t.fn(ctx, normalized)
	if err != nil {
		t.logger.Error("tool.call.error", "tool", t.name, "error", err.Error())
		return resultFromError(t.name, err)
	}

	t.logger.Info("tool.call.success", "tool", t.name, "duration_ms", time.Since(start).Milliseconds())
	return core.Success(payload, t.sideEffects)
}

// resultFromError maps an execution error onto the failure taxonomy. Context
// cancellation and deadline expiry are transient from the retry controller's
// point of view only when the tool's own deadline fired; session-level
// cancellation aborts the retry loop through its context instead.
func resultFromError(tool string, err error) core.ToolResult {
	var te *ToolError
	if errors.As(err, &te) {
		switch te.Code {
		case CodeTimeout, CodeUnavailable:
			return core.TransientFailure("%s", te.Message)
		default:
			return core.FatalFailure("%s", te.Message)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return core.TransientFailure("tool %q timed out: %v", tool, err)
	}
	return core.FatalFailure("tool %q failed: %v", tool, err)
}
