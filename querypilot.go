// Package querypilot provides a high-level façade over the agent loop,
// registry and configuration loader, enabling rapid construction of
// declarative database agents. Most applications interact with this package
// by:
//  1. Creating a QueryPilot via New() (optionally supplying a logger and a
//     shared result cache)
//  2. Registering tools and capabilities, then calling Freeze()
//  3. Adding agents from code (AddAgent) or a YAML manifest (LoadManifest)
//  4. Asking questions (Ask / Route)
//
// The façade delegates session execution to agent.Agent while keeping setup
// ergonomics concise. Defaults are safe for local development; production
// deployments typically supply a structured logger and tune cache TTLs per
// agent.
package querypilot

import (
	"context"
	"fmt"

	"github.com/querypilot/querypilot/agent"
	"github.com/querypilot/querypilot/cache"
	"github.com/querypilot/querypilot/config"
	"github.com/querypilot/querypilot/core"
	"github.com/querypilot/querypilot/logging"
	"github.com/querypilot/querypilot/model"
	"github.com/querypilot/querypilot/registry"
	"github.com/querypilot/querypilot/tool"
)

// Options configures the QueryPilot instance.
type Options struct {
	// Logger receives structured logs from every component. Defaults to a
	// no-op logger.
	Logger logging.Logger
	// Cache, when set, is shared by all agents instead of one cache per
	// agent. Only agents sharing a policy version should share a cache.
	Cache *cache.Cache
}

// QueryPilot aggregates the tool registry and the agent orchestrator.
type QueryPilot struct {
	opts         Options
	registry     *registry.Registry
	orchestrator *agent.Orchestrator
}

// New creates a QueryPilot with an empty registry and no agents.
func New(optFns ...func(o *Options)) *QueryPilot {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &QueryPilot{
		opts:     opts,
		registry: registry.New(func(o *registry.Options) { o.Logger = opts.Logger }),
		orchestrator: agent.NewOrchestrator(func(o *agent.OrchestratorOptions) {
			o.Logger = opts.Logger
		}),
	}
}

// Registry exposes the underlying registry for advanced wiring.
func (qp *QueryPilot) Registry() *registry.Registry { return qp.registry }

// RegisterTool adds a tool before Freeze.
func (qp *QueryPilot) RegisterTool(t tool.Tool) error { return qp.registry.RegisterTool(t) }

// RegisterCapability adds a capability before Freeze.
func (qp *QueryPilot) RegisterCapability(c *tool.Capability) error {
	return qp.registry.RegisterCapability(c)
}

// Freeze finalizes the registry. Must be called before agents are added.
func (qp *QueryPilot) Freeze() error { return qp.registry.Freeze() }

// AddAgent builds an agent from a config and registers it for routing.
func (qp *QueryPilot) AddAgent(cfg core.AgentConfig, reasoner model.Model) error {
	a, err := agent.New(cfg, reasoner, qp.registry, func(o *agent.Options) {
		o.Logger = qp.opts.Logger
		o.Cache = qp.opts.Cache
	})
	if err != nil {
		return err
	}
	return qp.orchestrator.Register(a)
}

// LoadManifest loads every agent from a YAML manifest file, resolving each
// agent's reasoning_model identifier to a model through resolve.
func (qp *QueryPilot) LoadManifest(path string, resolve func(name string) (model.Model, error)) error {
	configs, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	for _, cfg := range configs {
		reasoner, err := resolve(cfg.ReasoningModel)
		if err != nil {
			return fmt.Errorf("agent %q: resolve model %q: %w", cfg.Name, cfg.ReasoningModel, err)
		}
		if err := qp.AddAgent(cfg, reasoner); err != nil {
			return err
		}
	}
	return nil
}

// Ask runs a question on the default agent.
func (qp *QueryPilot) Ask(ctx context.Context, question string) (*agent.Result, error) {
	return qp.orchestrator.Ask(ctx, question)
}

// Route runs a question on the named agent.
func (qp *QueryPilot) Route(ctx context.Context, agentName, question string) (*agent.Result, error) {
	return qp.orchestrator.Route(ctx, agentName, question)
}

// Agents returns the registered agent names.
func (qp *QueryPilot) Agents() []string { return qp.orchestrator.Names() }
