package agent

import (
	"context"
	"errors"
	"time"

	"github.com/querypilot/querypilot/cache"
	"github.com/querypilot/querypilot/core"
	"github.com/querypilot/querypilot/registry"
	"github.com/querypilot/querypilot/tool"
)

// dispatch runs an already-parsed invocation through the execution pipeline:
// security validation, then the retry controller wrapping the result cache
// wrapping the registry-resolved execution. Rejections come back as
// validation_rejected failures so the loop folds them into observations like
// any other failure.
func (a *Agent) dispatch(ctx context.Context, inv core.ToolInvocation) core.ToolResult {
	verdict := a.validator.Validate(ctx, inv, a.cfg.Security)
	if !verdict.Allowed {
		return core.Failure(core.FailureValidationRejected, false, "%s", verdict.Reason)
	}

	entry, err := a.registry.Resolve(inv.Tool)
	if err != nil {
		// The parser resolves names before producing an invocation, so a
		// miss here means a registry/config mismatch, not reasoner error.
		return core.FatalFailure("%v", err)
	}

	execute := func(ctx context.Context) core.ToolResult {
		return a.execute(ctx, entry, inv.Args)
	}

	op := execute
	if entry.SideEffectFree && a.cfg.CacheTTL > 0 {
		key := cache.Fingerprint(inv.Tool, inv.Args, a.cfg.Security.Version)
		op = func(ctx context.Context) core.ToolResult {
			return a.results.GetOrCompute(key, func() core.ToolResult {
				return execute(ctx)
			})
		}
	}

	started := time.Now()
	result := a.retrier.Execute(ctx, inv.Tool, op)
	if a.recorder != nil {
		var execErr error
		if !result.OK {
			execErr = errors.New(result.Message)
		}
		a.recorder.LogToolCall(inv.Tool, time.Since(started), result.OK, execErr)
	}
	return result
}

// execute invokes a tool directly or runs a capability with a runtime whose
// gate re-validates derived invocations under the same policy.
func (a *Agent) execute(ctx context.Context, entry registry.Entry, args map[string]any) core.ToolResult {
	if entry.Tool != nil {
		return entry.Tool.Call(ctx, args)
	}

	rt := tool.Runtime{
		Resolve: a.registry.ResolveTool,
		Gate: func(inv core.ToolInvocation) core.Verdict {
			// Constituent tools execute under the capability's grant; the
			// gate enforces the payload rules (operations, tables, sensitive
			// columns), not the top-level name allowlist.
			policy := a.cfg.Security
			policy.AllowedTools = append([]string{inv.Tool}, policy.AllowedTools...)
			return a.validator.Validate(ctx, inv, policy)
		},
		Logger: a.logger,
	}
	return entry.Capability.Run(ctx, rt, args)
}
