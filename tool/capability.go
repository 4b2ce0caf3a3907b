package tool

import (
	"context"
	"fmt"

	"github.com/querypilot/querypilot/core"
	"github.com/querypilot/querypilot/logging"
)

// Runtime carries the collaborators a capability needs while executing its
// steps: tool resolution through the shared registry and the security gate
// applied to invocations whose payload is derived from reasoner output.
// The agent loop constructs one Runtime per session.
type Runtime struct {
	// Resolve looks up a constituent tool by name.
	Resolve func(name string) (Tool, bool)
	// Gate validates a derived invocation before it executes. A nil Gate
	// permits everything; the agent loop always supplies one.
	Gate func(inv core.ToolInvocation) core.Verdict
	// Logger receives step-level execution logs.
	Logger logging.Logger
}

func (rt Runtime) logger() logging.Logger {
	if rt.Logger == nil {
		return logging.NoOpLogger{}
	}
	return rt.Logger
}

// CapabilityStep names one constituent tool of a capability and how its
// output feeds the following steps.
type CapabilityStep struct {
	// Tool is the registered name of the constituent tool.
	Tool string
	// OutputAs, when non-empty, stores the step's payload under this
	// argument name for all subsequent steps.
	OutputAs string
	// Gated re-runs the security gate on the constructed invocation before
	// executing. Steps consuming arguments derived from earlier model-backed
	// steps (a generated query, an extraction target) must be gated.
	Gated bool
}

// Capability composes tools into a single higher-level operation: an ordered
// list of tool names resolved through the registry at execution time, with
// each step's output threaded into the argument map of the steps after it.
// Capabilities are data, not subclasses; they hold no tool references.
type Capability struct {
	name        string
	description string
	schema      Schema
	steps       []CapabilityStep
}

// NewCapability declares a capability. Constituent tools are resolved by
// name at execution time through the registry, which verifies at freeze time
// that every name is registered.
func NewCapability(name, description string, schema Schema, steps ...CapabilityStep) *Capability {
	return &Capability{name: name, description: description, schema: schema, steps: steps}
}

// Name returns the capability's registered name.
func (c *Capability) Name() string { return c.name }

// Description returns the description rendered into the reasoner's prompt.
func (c *Capability) Description() string { return c.description }

// Schema returns the capability's declared input schema.
func (c *Capability) Schema() Schema { return c.schema }

// Steps returns the ordered constituent steps.
func (c *Capability) Steps() []CapabilityStep {
	out := make([]CapabilityStep, len(c.steps))
	copy(out, c.steps)
	return out
}

// Run executes the steps in order. The first failing step short-circuits the
// capability; a gated step whose invocation is rejected yields a
// validation_rejected failure without executing the step.
func (c *Capability) Run(ctx context.Context, rt Runtime, args map[string]any) core.ToolResult {
	log := rt.logger()

	current, err := ValidateArgs(args, c.schema)
	if err != nil {
		return core.FatalFailure("capability %q: %v", c.name, err)
	}

	var last core.ToolResult
	for i, step := range c.steps {
		impl, ok := rt.Resolve(step.Tool)
		if !ok {
			return core.FatalFailure("capability %q: step %d references unknown tool %q", c.name, i+1, step.Tool)
		}

		if step.Gated && rt.Gate != nil {
			verdict := rt.Gate(core.ToolInvocation{Tool: step.Tool, Args: current})
			if !verdict.Allowed {
				log.Warn("capability.step.rejected", "capability", c.name, "tool", step.Tool, "reason", verdict.Reason)
				return core.Failure(core.FailureValidationRejected, false, "%s", verdict.Reason)
			}
		}

		log.Debug("capability.step.start", "capability", c.name, "step", i+1, "tool", step.Tool)
		last = impl.Call(ctx, current)
		if !last.OK {
			return core.Failure(last.Kind, last.Retryable, "capability %q step %q: %s", c.name, step.Tool, last.Message)
		}
		if step.OutputAs != "" {
			current[step.OutputAs] = last.Payload
		}
	}

	if len(c.steps) == 0 {
		return core.FatalFailure("capability %q has no steps", c.name)
	}

	return last
}

// Validate checks the declaration is executable: at least one step, no
// output name colliding with a declared required input.
func (c *Capability) Validate() error {
	if c.name == "" {
		return fmt.Errorf("capability requires a name")
	}
	if len(c.steps) == 0 {
		return fmt.Errorf("capability %q requires at least one step", c.name)
	}
	for i, step := range c.steps {
		if step.Tool == "" {
			return fmt.Errorf("capability %q: step %d has no tool name", c.name, i+1)
		}
	}
	return nil
}
