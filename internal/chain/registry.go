// ABOUTME: Registry mapping chain names to their adapters
// ABOUTME: Built once at startup and passed by reference, never ambient state

package chain

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the closed set of chain adapters. It is constructed at
// startup and passed by reference into the account manager; adding a chain
// means one adapter implementation and one Register call.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[string]Adapter),
	}
}

// Register adds an adapter under its own name. Registering the same name
// twice is a configuration error.
func (r *Registry) Register(a Adapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := a.Name()
	if _, exists := r.adapters[name]; exists {
		return fmt.Errorf("adapter %q already registered", name)
	}
	r.adapters[name] = a
	return nil
}

// Get returns the adapter for the given chain name.
// Returns ErrUnsupportedChain if none is registered.
func (r *Registry) Get(name string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, exists := r.adapters[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedChain, name)
	}
	return a, nil
}

// Names returns the registered chain names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
