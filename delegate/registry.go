package delegate

import (
	"fmt"
	"sync"

	"github.com/htafolla/strray/core"
)

// RegisterOptions configures one agent registration.
type RegisterOptions struct {
	// Priority breaks conflicts between disagreeing agents; higher wins.
	Priority int
	// Capabilities tag what the agent is good at; informational.
	Capabilities []string
}

// Registration pairs an agent with its delegation attributes.
type Registration struct {
	Agent        core.Agent
	Priority     int
	Capabilities []string
}

// Registry holds the agents available for delegation in insertion order.
// Insertion order matters: it seeds deterministic agent selection and breaks
// priority ties during conflict resolution. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]Registration
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: map[string]Registration{}}
}

// Register adds an agent. Registering a duplicate name is an error.
func (r *Registry) Register(agent core.Agent, optFns ...func(o *RegisterOptions)) error {
	opts := RegisterOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := agent.Name()
	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("agent %s already registered", name)
	}

	r.entries[name] = Registration{Agent: agent, Priority: opts.Priority, Capabilities: opts.Capabilities}
	r.order = append(r.order, name)

	return nil
}

// Get returns the registration for a name.
func (r *Registry) Get(name string) (Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.entries[name]
	return reg, ok
}

// Names returns agent names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Len returns the number of registered agents.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
