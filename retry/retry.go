// Package retry implements the bounded retry controller wrapped around tool
// execution. Only failures marked retryable are retried; delays follow the
// policy's deterministic doubling sequence with no jitter, so a session's
// timing is reproducible.
package retry

import (
	"context"
	"time"

	"github.com/querypilot/querypilot/core"
	"github.com/querypilot/querypilot/logging"
)

// Controller runs an operation under a core.RetryPolicy. It is stateless
// across calls and safe for concurrent use.
type Controller struct {
	policy core.RetryPolicy
	logger logging.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// Options configures a Controller.
type Options struct {
	Logger logging.Logger
	// Sleep replaces the delay primitive, used by tests to observe the
	// delay sequence without waiting.
	Sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Controller for the given policy.
func New(policy core.RetryPolicy, optFns ...func(o *Options)) *Controller {
	opts := Options{Logger: logging.NoOpLogger{}, Sleep: sleepCtx}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Controller{policy: policy, logger: opts.Logger, sleep: opts.Sleep}
}

// Execute invokes op up to MaxAttempts times. A success or a non-retryable
// failure returns immediately with the operation's own result. When every
// attempt fails with a retryable failure, the result is a retries_exhausted
// failure carrying the last underlying message. Cancellation of ctx during
// a backoff wait aborts the remaining attempts.
func (c *Controller) Execute(ctx context.Context, name string, op func(ctx context.Context) core.ToolResult) core.ToolResult {
	var last core.ToolResult

	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		last = op(ctx)
		if last.OK || !last.Retryable {
			return last
		}

		if attempt == c.policy.MaxAttempts {
			break
		}

		delay := c.policy.Delay(attempt)
		c.logger.Warn("retry.backoff",
			"operation", name,
			"attempt", attempt,
			"max_attempts", c.policy.MaxAttempts,
			"delay", delay,
			"error", last.Message)
		if err := c.sleep(ctx, delay); err != nil {
			return core.FatalFailure("operation %q aborted while waiting to retry: %v", name, err)
		}
	}

	c.logger.Error("retry.exhausted", "operation", name, "attempts", c.policy.MaxAttempts, "error", last.Message)
	return core.Failure(core.FailureRetriesExhausted, false,
		"operation %q failed after %d attempts: %s", name, c.policy.MaxAttempts, last.Message)
}

// sleepCtx waits for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
