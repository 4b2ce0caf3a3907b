package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// SecurityPolicy is the immutable rule set the security validator applies to
// every tool invocation derived from reasoner output.
type SecurityPolicy struct {
	// AllowedTools is the set of tool and capability names the agent may
	// invoke. Defaults to the agent's enabled sets when loaded from config.
	AllowedTools []string
	// AllowedOperations is the set of permitted query verbs, e.g. {SELECT}.
	AllowedOperations []string
	// AllowedTables is the set of tables a generated query may reference.
	AllowedTables []string
	// SensitiveColumns flags columns that require an explicit masking
	// directive before a query referencing them is allowed.
	SensitiveColumns []string
	// Version is an opaque token; changing it invalidates cached results
	// computed under the previous policy.
	Version string
}

// AllowsTool reports whether the named tool or capability is permitted.
func (p SecurityPolicy) AllowsTool(name string) bool {
	return containsFold(p.AllowedTools, name)
}

// AllowsOperation reports whether the query verb is permitted.
func (p SecurityPolicy) AllowsOperation(verb string) bool {
	return containsFold(p.AllowedOperations, verb)
}

// AllowsTable reports whether the table may be referenced.
func (p SecurityPolicy) AllowsTable(table string) bool {
	return containsFold(p.AllowedTables, table)
}

// IsSensitive reports whether the column is flagged as sensitive.
func (p SecurityPolicy) IsSensitive(column string) bool {
	return containsFold(p.SensitiveColumns, column)
}

func containsFold(set []string, name string) bool {
	for _, s := range set {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

// RetryPolicy bounds the retry controller. MaxAttempts is mandatory and
// finite; delays follow BaseDelay * 2^(attempt-1) capped at MaxDelay.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Validate checks the policy is finite and internally consistent.
func (p RetryPolicy) Validate() error {
	if p.MaxAttempts < 1 {
		return errors.New("retry policy: max_attempts must be at least 1")
	}
	if p.BaseDelay < 0 {
		return errors.New("retry policy: base_delay must not be negative")
	}
	if p.MaxDelay > 0 && p.MaxDelay < p.BaseDelay {
		return errors.New("retry policy: max_delay must not be below base_delay")
	}
	return nil
}

// Delay returns the backoff before the given retry (attempt is 1-based; the
// delay precedes attempt+1). The sequence is deterministic: no jitter.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// AgentConfig is the immutable configuration of one declarative agent:
// reasoning model, budgets, enabled tool surface, security policy, retry
// policy and cache TTL. It is loaded once and never mutated; the agent loop
// owns it for the duration of a session.
type AgentConfig struct {
	Name           string
	Description    string
	ReasoningModel string
	MaxIterations  int

	EnabledTools        []string
	EnabledCapabilities []string

	Security SecurityPolicy
	Retry    RetryPolicy
	CacheTTL time.Duration
}

// Validate checks structural invariants the loader and constructors rely on.
func (c AgentConfig) Validate() error {
	if c.Name == "" {
		return errors.New("agent config: name is required")
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("agent config %q: max_iterations must be positive", c.Name)
	}
	if len(c.EnabledTools)+len(c.EnabledCapabilities) == 0 {
		return fmt.Errorf("agent config %q: at least one tool or capability must be enabled", c.Name)
	}
	if err := c.Retry.Validate(); err != nil {
		return fmt.Errorf("agent config %q: %w", c.Name, err)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("agent config %q: cache_ttl must not be negative", c.Name)
	}
	return nil
}
