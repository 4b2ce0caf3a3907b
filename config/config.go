// Package config loads declarative agent manifests. A manifest is a YAML
// document describing one or more agents: model, iteration budget, enabled
// tool surface, security policy, retry policy and cache TTL. Loading
// validates every agent; a manifest that loads is ready to run.
package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/querypilot/querypilot/core"
)

// Manifest is the top-level YAML document.
type Manifest struct {
	Agents []AgentSpec `yaml:"agents"`
}

// AgentSpec is the YAML shape of one agent definition.
type AgentSpec struct {
	Name                string       `yaml:"name"`
	Description         string       `yaml:"description"`
	ReasoningModel      string       `yaml:"reasoning_model"`
	MaxIterations       int          `yaml:"max_iterations"`
	EnabledTools        []string     `yaml:"enabled_tools"`
	EnabledCapabilities []string     `yaml:"enabled_capabilities"`
	Security            SecuritySpec `yaml:"security"`
	Retry               RetrySpec    `yaml:"retry"`
	CacheTTLSeconds     int          `yaml:"cache_ttl_seconds"`
}

// SecuritySpec is the YAML shape of a security policy. An empty
// allowed_tools list defaults to the agent's enabled tools and
// capabilities.
type SecuritySpec struct {
	AllowedTools      []string `yaml:"allowed_tools"`
	AllowedOperations []string `yaml:"allowed_operations"`
	AllowedTables     []string `yaml:"allowed_tables"`
	SensitiveColumns  []string `yaml:"sensitive_columns"`
	PolicyVersion     string   `yaml:"policy_version"`
}

// RetrySpec is the YAML shape of a retry policy. Delays are milliseconds.
type RetrySpec struct {
	MaxAttempts int `yaml:"max_attempts"`
	BaseDelayMS int `yaml:"base_delay_ms"`
	MaxDelayMS  int `yaml:"max_delay_ms"`
}

// Defaults applied when a manifest omits optional fields.
const (
	DefaultMaxIterations = 8
	DefaultMaxAttempts   = 3
	DefaultBaseDelay     = 200 * time.Millisecond
	DefaultMaxDelay      = 5 * time.Second
	DefaultCacheTTL      = 5 * time.Minute
)

// Load parses and validates a manifest from r.
func Load(r io.Reader) ([]core.AgentConfig, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if len(manifest.Agents) == 0 {
		return nil, fmt.Errorf("manifest defines no agents")
	}

	configs := make([]core.AgentConfig, 0, len(manifest.Agents))
	seen := map[string]bool{}
	for i, spec := range manifest.Agents {
		cfg := spec.toConfig()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("agent %d: %w", i+1, err)
		}
		if seen[cfg.Name] {
			return nil, fmt.Errorf("duplicate agent name %q", cfg.Name)
		}
		seen[cfg.Name] = true
		configs = append(configs, cfg)
	}
	return configs, nil
}

// LoadFile loads a manifest from the named file.
func LoadFile(path string) ([]core.AgentConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest %q: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

func (s AgentSpec) toConfig() core.AgentConfig {
	cfg := core.AgentConfig{
		Name:                s.Name,
		Description:         s.Description,
		ReasoningModel:      s.ReasoningModel,
		MaxIterations:       s.MaxIterations,
		EnabledTools:        s.EnabledTools,
		EnabledCapabilities: s.EnabledCapabilities,
		Security: core.SecurityPolicy{
			AllowedTools:      s.Security.AllowedTools,
			AllowedOperations: s.Security.AllowedOperations,
			AllowedTables:     s.Security.AllowedTables,
			SensitiveColumns:  s.Security.SensitiveColumns,
			Version:           s.Security.PolicyVersion,
		},
		Retry: core.RetryPolicy{
			MaxAttempts: s.Retry.MaxAttempts,
			BaseDelay:   time.Duration(s.Retry.BaseDelayMS) * time.Millisecond,
			MaxDelay:    time.Duration(s.Retry.MaxDelayMS) * time.Millisecond,
		},
		CacheTTL: time.Duration(s.CacheTTLSeconds) * time.Second,
	}

	if cfg.MaxIterations == 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Retry.BaseDelay == 0 {
		cfg.Retry.BaseDelay = DefaultBaseDelay
	}
	if cfg.Retry.MaxDelay == 0 {
		cfg.Retry.MaxDelay = DefaultMaxDelay
	}
	if s.CacheTTLSeconds == 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if len(cfg.Security.AllowedTools) == 0 {
		cfg.Security.AllowedTools = append(append([]string{}, cfg.EnabledTools...), cfg.EnabledCapabilities...)
	}
	return cfg
}
