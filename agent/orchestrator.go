package agent

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/querypilot/querypilot/logging"
)

// Orchestrator fronts a set of named agents. Registration happens at
// startup; Route is safe for concurrent use and each routed request runs as
// an independent session on the chosen agent.
type Orchestrator struct {
	mu        sync.RWMutex
	agents    map[string]*Agent
	defaultTo string
	logger    logging.Logger
}

// OrchestratorOptions configures an Orchestrator.
type OrchestratorOptions struct {
	Logger logging.Logger
}

// NewOrchestrator creates an empty Orchestrator.
func NewOrchestrator(optFns ...func(o *OrchestratorOptions)) *Orchestrator {
	opts := OrchestratorOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Orchestrator{agents: make(map[string]*Agent), logger: opts.Logger}
}

// Register adds an agent under its configured name. The first registered
// agent becomes the default route.
func (o *Orchestrator) Register(a *Agent) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	name := a.Name()
	if _, exists := o.agents[name]; exists {
		return fmt.Errorf("agent %q already registered", name)
	}
	o.agents[name] = a
	if o.defaultTo == "" {
		o.defaultTo = name
	}
	o.logger.Info("orchestrator.registered", "agent", name)
	return nil
}

// SetDefault changes the default route.
func (o *Orchestrator) SetDefault(name string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, exists := o.agents[name]; !exists {
		return fmt.Errorf("unknown agent %q", name)
	}
	o.defaultTo = name
	return nil
}

// Route runs the question on the named agent.
func (o *Orchestrator) Route(ctx context.Context, agentName, question string) (*Result, error) {
	o.mu.RLock()
	a, ok := o.agents[agentName]
	o.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown agent %q, available: %v", agentName, o.Names())
	}
	o.logger.Info("orchestrator.route", "agent", agentName)
	return a.Run(ctx, question)
}

// Ask runs the question on the default agent.
func (o *Orchestrator) Ask(ctx context.Context, question string) (*Result, error) {
	o.mu.RLock()
	name := o.defaultTo
	o.mu.RUnlock()
	if name == "" {
		return nil, fmt.Errorf("no agents registered")
	}
	return o.Route(ctx, name, question)
}

// Names returns the registered agent names, sorted.
func (o *Orchestrator) Names() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	names := make([]string, 0, len(o.agents))
	for name := range o.agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
