package analyzer

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownModule is returned by Get for an unregistered type.
var ErrUnknownModule = errors.New("unknown module type")

// Registry maps module type strings to their factories.
// It is safe for concurrent reads; Register should only be called at startup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory. Panics on duplicate type to surface misconfiguration early.
func (r *Registry) Register(f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[f.Type()]; exists {
		panic(fmt.Sprintf("analyzer registry: duplicate type %q", f.Type()))
	}
	r.factories[f.Type()] = f
}

// Get returns the factory for the given type.
func (r *Registry) Get(moduleType string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[moduleType]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownModule, moduleType)
	}
	return f, nil
}

// Has reports whether moduleType is registered.
func (r *Registry) Has(moduleType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[moduleType]
	return ok
}

// Dependencies returns the ids a type declares, or nil for unknown types.
func (r *Registry) Dependencies(moduleType string) []string {
	f, err := r.Get(moduleType)
	if err != nil {
		return nil
	}
	return f.Dependencies()
}

// Types returns all registered module types, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for k := range r.factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
