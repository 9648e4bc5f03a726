package providers

import (
	"fmt"
	"sort"
	"sync"

	"github.com/BaSui01/imageflow/image"
)

// Registry is a thread-safe registry for managing image provider adapters.
// It supports registering, retrieving, and listing adapters, as well as
// designating a default adapter for convenience.
type Registry struct {
	adapters       map[string]image.Adapter
	defaultAdapter string
	mu             sync.RWMutex
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[string]image.Adapter),
	}
}

// Register adds an adapter to the registry under the given name.
// If an adapter with the same name already exists, it is replaced.
func (r *Registry) Register(name string, a image.Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[name] = a
}

// Get retrieves an adapter by name.
func (r *Registry) Get(name string) (image.Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[name]
	return a, ok
}

// Default returns the default adapter.
// Returns an error if no default has been set or the default name is not registered.
func (r *Registry) Default() (image.Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.defaultAdapter == "" {
		return nil, fmt.Errorf("no default adapter set")
	}
	a, ok := r.adapters[r.defaultAdapter]
	if !ok {
		return nil, fmt.Errorf("default adapter %q not found in registry", r.defaultAdapter)
	}
	return a, nil
}

// SetDefault designates an existing registered adapter as the default.
// Returns an error if the name is not registered.
func (r *Registry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.adapters[name]; !ok {
		return fmt.Errorf("adapter %q not registered", name)
	}
	r.defaultAdapter = name
	return nil
}

// List returns the sorted names of all registered adapters.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
