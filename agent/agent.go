package agent

import (
	"fmt"

	"github.com/querypilot/querypilot/cache"
	"github.com/querypilot/querypilot/core"
	"github.com/querypilot/querypilot/logging"
	"github.com/querypilot/querypilot/model"
	"github.com/querypilot/querypilot/parse"
	"github.com/querypilot/querypilot/registry"
	"github.com/querypilot/querypilot/retry"
	"github.com/querypilot/querypilot/security"
)

// Agent binds a reasoning model, a tool registry and a security policy into
// a runnable unit. Construction validates the configuration; after New
// returns, the Agent is immutable and safe for concurrent Run calls.
type Agent struct {
	cfg       core.AgentConfig
	reasoner  model.Model
	registry  *registry.Registry
	catalog   *scopedCatalog
	parser    *parse.Parser
	validator *security.Validator
	retrier   *retry.Controller
	results   *cache.Cache
	logger    logging.Logger
	recorder  logging.CallRecorder
}

// Options configures optional Agent collaborators.
type Options struct {
	Logger logging.Logger
	// Cache overrides the per-agent result cache, letting several agents
	// with the same policy version share one.
	Cache *cache.Cache
}

// New creates an Agent from a validated config. The registry must already be
// frozen; every enabled tool and capability name must resolve.
func New(cfg core.AgentConfig, reasoner model.Model, reg *registry.Registry, optFns ...func(o *Options)) (*Agent, error) {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if reasoner == nil {
		return nil, fmt.Errorf("agent %q: reasoning model is required", cfg.Name)
	}
	if !reg.Frozen() {
		return nil, fmt.Errorf("agent %q: registry must be frozen before use", cfg.Name)
	}

	enabled := append(append([]string{}, cfg.EnabledTools...), cfg.EnabledCapabilities...)
	for _, name := range enabled {
		if _, ok := reg.Lookup(name); !ok {
			return nil, fmt.Errorf("agent %q enables unknown tool %q", cfg.Name, name)
		}
	}

	results := opts.Cache
	if results == nil {
		results = cache.New(cfg.CacheTTL, func(o *cache.Options) { o.Logger = opts.Logger })
	}

	catalog := newScopedCatalog(reg, enabled)
	recorder, _ := opts.Logger.(logging.CallRecorder)
	return &Agent{
		cfg:       cfg,
		reasoner:  reasoner,
		registry:  reg,
		catalog:   catalog,
		parser:    parse.NewParser(catalog),
		validator: security.NewValidator(func(o *security.ValidatorOptions) { o.Logger = opts.Logger }),
		retrier:   retry.New(cfg.Retry, func(o *retry.Options) { o.Logger = opts.Logger }),
		results:   results,
		logger:    opts.Logger,
		recorder:  recorder,
	}, nil
}

// Name returns the configured agent name.
func (a *Agent) Name() string { return a.cfg.Name }

// Description returns the configured agent description.
func (a *Agent) Description() string { return a.cfg.Description }

// Config returns a copy of the agent's configuration.
func (a *Agent) Config() core.AgentConfig { return a.cfg }

// scopedCatalog restricts registry lookups to the agent's enabled names, so
// the parser and prompt builder only see what the policy exposes.
type scopedCatalog struct {
	reg     *registry.Registry
	enabled map[string]bool
	names   []string
}

func newScopedCatalog(reg *registry.Registry, enabled []string) *scopedCatalog {
	set := make(map[string]bool, len(enabled))
	for _, name := range enabled {
		set[name] = true
	}
	names := make([]string, 0, len(enabled))
	for _, name := range reg.Names() {
		if set[name] {
			names = append(names, name)
		}
	}
	return &scopedCatalog{reg: reg, enabled: set, names: names}
}

// Lookup implements parse.Catalog.
func (c *scopedCatalog) Lookup(name string) (registry.Entry, bool) {
	if !c.enabled[name] {
		return registry.Entry{}, false
	}
	return c.reg.Lookup(name)
}

// Names implements parse.Catalog, sorted.
func (c *scopedCatalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Entries returns the enabled entries in sorted name order.
func (c *scopedCatalog) Entries() []registry.Entry {
	entries := make([]registry.Entry, 0, len(c.names))
	for _, name := range c.names {
		if entry, ok := c.reg.Lookup(name); ok {
			entries = append(entries, entry)
		}
	}
	return entries
}
