package pydapter

import (
	"sort"
	"sync/atomic"
)

// Adapter is a stateless conversion helper moving model instances to and from
// one external representation. Implementations consume only the generated
// model's boundary: construct-from-mapping, dump-to-mapping and the
// introspectable field list.
type Adapter interface {
	// Key identifies the representation, e.g. "json", "csv", "sqlite".
	Key() string
	// ToObj converts instances into the external representation.
	ToObj(insts []*Instance) (any, error)
	// FromObj parses the external representation into instances of model.
	FromObj(model *ModelType, obj any) ([]*Instance, error)
}

// AdapterRegistry holds adapters by key. The map is swapped atomically
// (copy-on-write), so steady-state lookups never contend with startup
// registration.
type AdapterRegistry struct {
	adapters atomic.Value // holds map[string]Adapter
}

// NewAdapterRegistry creates an empty registry.
func NewAdapterRegistry() *AdapterRegistry {
	r := &AdapterRegistry{}
	r.adapters.Store(map[string]Adapter{})
	return r
}

// NewDefaultAdapterRegistry creates a registry pre-seeded with the JSON and
// CSV adapters. Adapters needing external handles (SQLite) are registered by
// the caller.
func NewDefaultAdapterRegistry() *AdapterRegistry {
	r := NewAdapterRegistry()
	if err := r.Register(JSONAdapter{}); err != nil {
		panic(err)
	}
	if err := r.Register(CSVAdapter{}); err != nil {
		panic(err)
	}
	return r
}

// Register adds or replaces an adapter under its key.
func (r *AdapterRegistry) Register(a Adapter) error {
	if a == nil || a.Key() == "" {
		return compositionErrorf("AdapterRegistry.Register", "adapter must define a non-empty key")
	}
	old := r.adapters.Load().(map[string]Adapter)
	next := make(map[string]Adapter, len(old)+1)
	for k, v := range old {
		next[k] = v
	}
	next[a.Key()] = a
	r.adapters.Store(next)
	return nil
}

// Get returns the adapter registered under key.
func (r *AdapterRegistry) Get(key string) (Adapter, error) {
	if a, ok := r.adapters.Load().(map[string]Adapter)[key]; ok {
		return a, nil
	}
	return nil, &ResolutionError{Kind: "adapter", Name: key}
}

// Keys returns the registered adapter keys, sorted.
func (r *AdapterRegistry) Keys() []string {
	m := r.adapters.Load().(map[string]Adapter)
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AdaptTo converts instances through the adapter registered under key.
func (r *AdapterRegistry) AdaptTo(insts []*Instance, key string) (any, error) {
	a, err := r.Get(key)
	if err != nil {
		return nil, err
	}
	return a.ToObj(insts)
}

// AdaptFrom parses an external representation through the adapter registered
// under key.
func (r *AdapterRegistry) AdaptFrom(model *ModelType, obj any, key string) ([]*Instance, error) {
	a, err := r.Get(key)
	if err != nil {
		return nil, err
	}
	return a.FromObj(model, obj)
}
