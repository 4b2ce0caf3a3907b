// Package registry holds the immutable catalog of tools and capabilities an
// agent can invoke. Registration happens during construction; after Freeze
// the catalog is read-only and safe for concurrent lookups from any number
// of sessions.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/querypilot/querypilot/logging"
	"github.com/querypilot/querypilot/tool"
)

// NotFoundError reports a lookup for a name that was never registered. The
// available names are included so the dispatcher can build a corrective
// observation for the reasoner.
type NotFoundError struct {
	Name      string
	Available []string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("unknown tool %q, available: %v", e.Name, e.Available)
}

// Entry is the result of a registry lookup: exactly one of Tool or
// Capability is set. SideEffectFree is the declared flag for tools and the
// derived conjunction over constituents for capabilities.
type Entry struct {
	Tool           tool.Tool
	Capability     *tool.Capability
	SideEffectFree bool
}

// Name returns the registered name of the entry.
func (e Entry) Name() string {
	if e.Tool != nil {
		return e.Tool.Name()
	}
	return e.Capability.Name()
}

// Description returns the entry's prompt-facing description.
func (e Entry) Description() string {
	if e.Tool != nil {
		return e.Tool.Description()
	}
	return e.Capability.Description()
}

// Schema returns the entry's declared input schema.
func (e Entry) Schema() tool.Schema {
	if e.Tool != nil {
		return e.Tool.Schema()
	}
	return e.Capability.Schema()
}

// Registry maps names to tools and capabilities. Tools and capabilities
// share a single namespace; the reasoner addresses both the same way.
type Registry struct {
	mu           sync.RWMutex
	frozen       bool
	tools        map[string]tool.Tool
	capabilities map[string]*tool.Capability
	capPure      map[string]bool
	logger       logging.Logger
}

// Options configures a Registry.
type Options struct {
	Logger logging.Logger
}

// New creates an empty registry.
func New(optFns ...func(o *Options)) *Registry {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Registry{
		tools:        make(map[string]tool.Tool),
		capabilities: make(map[string]*tool.Capability),
		capPure:      make(map[string]bool),
		logger:       opts.Logger,
	}
}

// RegisterTool adds a tool under its own name. Duplicate names and
// registration after Freeze are errors.
func (r *Registry) RegisterTool(t tool.Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return fmt.Errorf("registry is frozen, cannot register tool %q", t.Name())
	}
	name := t.Name()
	if name == "" {
		return fmt.Errorf("tool has no name")
	}
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}
	if _, exists := r.capabilities[name]; exists {
		return fmt.Errorf("name %q already registered as a capability", name)
	}

	r.tools[name] = t
	r.logger.Debug("registry.tool.registered", "tool", name)
	return nil
}

// RegisterCapability adds a capability. Its constituent tools are only
// verified at Freeze time, so registration order does not matter.
func (r *Registry) RegisterCapability(c *tool.Capability) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return fmt.Errorf("registry is frozen, cannot register capability %q", c.Name())
	}
	if err := c.Validate(); err != nil {
		return err
	}
	name := c.Name()
	if _, exists := r.capabilities[name]; exists {
		return fmt.Errorf("capability %q already registered", name)
	}
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("name %q already registered as a tool", name)
	}

	r.capabilities[name] = c
	r.logger.Debug("registry.capability.registered", "capability", name)
	return nil
}

// Freeze verifies every capability references only registered tools, derives
// each capability's side-effect-freedom from its constituents, and makes the
// registry read-only. Freeze is idempotent.
func (r *Registry) Freeze() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return nil
	}

	for name, c := range r.capabilities {
		pure := true
		for _, step := range c.Steps() {
			impl, ok := r.tools[step.Tool]
			if !ok {
				return fmt.Errorf("capability %q references unregistered tool %q", name, step.Tool)
			}
			if !impl.SideEffectFree() {
				pure = false
			}
		}
		r.capPure[name] = pure
	}

	r.frozen = true
	r.logger.Info("registry.frozen", "tools", len(r.tools), "capabilities", len(r.capabilities))
	return nil
}

// Frozen reports whether the registry has been frozen.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Lookup resolves a name to its entry. The boolean reports whether the name
// exists; callers wanting a descriptive error use Resolve.
func (r *Registry) Lookup(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if t, ok := r.tools[name]; ok {
		return Entry{Tool: t, SideEffectFree: t.SideEffectFree()}, true
	}
	if c, ok := r.capabilities[name]; ok {
		return Entry{Capability: c, SideEffectFree: r.capPure[name]}, true
	}
	return Entry{}, false
}

// Resolve is Lookup with a *NotFoundError carrying the available names when
// the lookup misses.
func (r *Registry) Resolve(name string) (Entry, error) {
	if entry, ok := r.Lookup(name); ok {
		return entry, nil
	}
	return Entry{}, &NotFoundError{Name: name, Available: r.Names()}
}

// ResolveTool resolves a plain tool by name, used by capability execution to
// reach constituents without allowing capability-in-capability nesting.
func (r *Registry) ResolveTool(name string) (tool.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns all registered names, tools and capabilities alike, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools)+len(r.capabilities))
	for name := range r.tools {
		names = append(names, name)
	}
	for name := range r.capabilities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entries returns every entry sorted by name, for prompt rendering.
func (r *Registry) Entries() []Entry {
	names := r.Names()
	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		if entry, ok := r.Lookup(name); ok {
			entries = append(entries, entry)
		}
	}
	return entries
}
