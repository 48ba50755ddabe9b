package pydapter

import (
	"sort"
	"sync"
)

// Method is a behavior entry in a Mixin, dispatched by name through
// Instance.Call.
type Method func(inst *Instance, args ...any) (any, error)

// Mixin is a named bundle of methods providing runtime behavior consistent
// with a protocol's field contract: the methods assume the protocol's
// required fields exist with their declared shapes.
type Mixin struct {
	Name    string
	Methods map[string]Method
}

// Protocol bundles a behavioral contract: the fields a conforming model must
// expose plus an optional mixin implementing the contract's behavior.
type Protocol struct {
	Name   string
	Fields FieldFamily
	Mixin  *Mixin
}

// ProtocolRegistry is a queryable mapping from protocol name to its required
// fields and optional mixin. Registries are explicit objects created at
// application start and injected into the Factory; there is no package-global
// registry. Registration is expected at startup, but concurrent Register
// calls on the same name resolve cleanly to the last writer.
type ProtocolRegistry struct {
	mu        sync.RWMutex
	protocols map[string]Protocol
}

// NewProtocolRegistry creates an empty registry.
func NewProtocolRegistry() *ProtocolRegistry {
	return &ProtocolRegistry{protocols: make(map[string]Protocol)}
}

// NewDefaultProtocolRegistry creates a registry pre-seeded with the built-in
// protocols: identifiable, temporal, embeddable, auditable, soft_deletable,
// versionable and cryptographical.
func NewDefaultProtocolRegistry() *ProtocolRegistry {
	r := NewProtocolRegistry()
	r.Register(ProtocolIdentifiable, FamilyIdentifiable(), identifiableMixin)
	r.Register(ProtocolTemporal, FamilyTemporal(), temporalMixin)
	r.Register(ProtocolEmbeddable, FamilyEmbeddable(), embeddableMixin)
	r.Register(ProtocolAuditable, FamilyAudit(), auditableMixin)
	r.Register(ProtocolSoftDeletable, FamilySoftDelete(), softDeletableMixin)
	r.Register(ProtocolVersionable, FamilyVersioned(), versionableMixin)
	r.Register(ProtocolCryptographical, FamilyCryptographical(), cryptographicalMixin)
	return r
}

// Register adds or overwrites a protocol entry. Re-registration under an
// existing name replaces the whole entry, which deliberately allows
// overriding built-ins.
func (r *ProtocolRegistry) Register(name string, fields FieldFamily, mixin *Mixin) {
	entry := Protocol{Name: name, Fields: fields.Clone(), Mixin: mixin}
	r.mu.Lock()
	r.protocols[name] = entry
	r.mu.Unlock()
}

// Get returns the protocol registered under name.
func (r *ProtocolRegistry) Get(name string) (Protocol, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.protocols[name]
	return p, ok
}

// ResolveFields merges the required fields of the named protocols in argument
// order, last write wins on collisions. An unregistered name fails with a
// *ResolutionError carrying it.
func (r *ProtocolRegistry) ResolveFields(names ...string) (FieldFamily, error) {
	out := make(FieldFamily)
	for _, name := range names {
		p, ok := r.Get(name)
		if !ok {
			return nil, &ResolutionError{Kind: "protocol", Name: name}
		}
		for k, v := range p.Fields {
			out[k] = v
		}
	}
	return out, nil
}

// ResolveMixins returns the mixins of the named protocols in argument order.
// Protocols without behavior are skipped. Method dispatch scans mixins in
// this order, so callers control resolution of overlapping method names.
func (r *ProtocolRegistry) ResolveMixins(names ...string) ([]*Mixin, error) {
	var out []*Mixin
	for _, name := range names {
		p, ok := r.Get(name)
		if !ok {
			return nil, &ResolutionError{Kind: "protocol", Name: name}
		}
		if p.Mixin != nil {
			out = append(out, p.Mixin)
		}
	}
	return out, nil
}

// ListRegistered returns the registered protocol names, sorted.
func (r *ProtocolRegistry) ListRegistered() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.protocols))
	for name := range r.protocols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
