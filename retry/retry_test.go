package retry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querypilot/querypilot/core"
)

func recordingSleep(delays *[]time.Duration) func(o *Options) {
	return func(o *Options) {
		o.Sleep = func(_ context.Context, d time.Duration) error {
			*delays = append(*delays, d)
			return nil
		}
	}
}

func TestController_SucceedsFirstAttempt(t *testing.T) {
	var delays []time.Duration
	c := New(core.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}, recordingSleep(&delays))

	calls := 0
	result := c.Execute(context.Background(), "op", func(context.Context) core.ToolResult {
		calls++
		return core.Success("done", false)
	})

	assert.True(t, result.OK)
	assert.Equal(t, 1, calls)
	assert.Empty(t, delays)
}

func TestController_RetriesTransientThenSucceeds(t *testing.T) {
	var delays []time.Duration
	c := New(core.RetryPolicy{MaxAttempts: 4, BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second},
		recordingSleep(&delays))

	calls := 0
	result := c.Execute(context.Background(), "op", func(context.Context) core.ToolResult {
		calls++
		if calls < 3 {
			return core.TransientFailure("connection reset")
		}
		return core.Success("done", false)
	})

	assert.True(t, result.OK)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, delays)
}

func TestController_DelaySequenceCapped(t *testing.T) {
	var delays []time.Duration
	c := New(core.RetryPolicy{MaxAttempts: 5, BaseDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond},
		recordingSleep(&delays))

	result := c.Execute(context.Background(), "op", func(context.Context) core.ToolResult {
		return core.TransientFailure("still down")
	})

	require.False(t, result.OK)
	assert.Equal(t, core.FailureRetriesExhausted, result.Kind)
	assert.Equal(t, []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		300 * time.Millisecond,
		300 * time.Millisecond,
	}, delays)
}

func TestController_FatalNotRetried(t *testing.T) {
	var delays []time.Duration
	c := New(core.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}, recordingSleep(&delays))

	calls := 0
	result := c.Execute(context.Background(), "op", func(context.Context) core.ToolResult {
		calls++
		return core.FatalFailure("no such table")
	})

	require.False(t, result.OK)
	assert.Equal(t, core.FailureFatal, result.Kind)
	assert.Equal(t, 1, calls)
	assert.Empty(t, delays)
}

func TestController_ExhaustedCarriesLastMessage(t *testing.T) {
	var delays []time.Duration
	c := New(core.RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond}, recordingSleep(&delays))

	result := c.Execute(context.Background(), "fetch", func(context.Context) core.ToolResult {
		return core.TransientFailure("timeout talking to warehouse")
	})

	require.False(t, result.OK)
	assert.Equal(t, core.FailureRetriesExhausted, result.Kind)
	assert.False(t, result.Retryable)
	assert.Contains(t, result.Message, `operation "fetch" failed after 2 attempts`)
	assert.Contains(t, result.Message, "timeout talking to warehouse")
}

func TestController_CancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := New(core.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Minute})

	calls := 0
	result := c.Execute(ctx, "op", func(context.Context) core.ToolResult {
		calls++
		cancel()
		return core.TransientFailure("flaky")
	})

	require.False(t, result.OK)
	assert.Equal(t, 1, calls)
	assert.Equal(t, core.FailureFatal, result.Kind)
	assert.Contains(t, result.Message, "aborted while waiting to retry")
}
