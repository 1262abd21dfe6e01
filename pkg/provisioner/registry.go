package provisioner

import (
	"fmt"
	"sort"
	"sync"
)

// Factory creates a backend instance.
type Factory func() (Backend, error)

// Registry holds registered backend factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a backend factory under the given name.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Create instantiates the named backend.
func (r *Registry) Create(name string) (Backend, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown provisioner backend %q (available: %v)", name, r.Names())
	}
	return factory()
}

// Names returns the registered backend names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// defaultRegistry is the registry backends register into via init().
var defaultRegistry = NewRegistry()

// Register adds a backend factory to the default registry.
func Register(name string, factory Factory) {
	defaultRegistry.Register(name, factory)
}

// Create instantiates a backend from the default registry.
func Create(name string) (Backend, error) {
	return defaultRegistry.Create(name)
}

// Names returns the backend names in the default registry.
func Names() []string {
	return defaultRegistry.Names()
}
