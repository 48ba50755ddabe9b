package pydapter

import (
	"sort"

	"github.com/goccy/go-json"
)

// ExtraPolicy controls how instantiation treats keys that match no declared
// field.
type ExtraPolicy int

const (
	// ExtraIgnore drops unknown keys silently (the default).
	ExtraIgnore ExtraPolicy = iota
	// ExtraAllow keeps unknown keys as untyped extra values.
	ExtraAllow
	// ExtraForbid rejects unknown keys with a validation error.
	ExtraForbid
)

// ModelConfig carries the behavioral knobs of a generated model.
type ModelConfig struct {
	// ValidateAssignment re-validates values on Instance.Set.
	ValidateAssignment bool
	// Strict disables the loose numeric conversion fallback.
	Strict bool
	// Extra selects the unknown-key policy.
	Extra ExtraPolicy
}

// DefaultModelConfig is the configuration applied when none is given:
// assignment validation on, loose numeric conversion allowed, unknown keys
// ignored.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{ValidateAssignment: true, Strict: false, Extra: ExtraIgnore}
}

// ModelType is the terminal artifact of model synthesis: a concrete,
// instantiable schema with a deterministic field order, mixed-in protocol
// behavior and a configuration. ModelTypes are immutable once built.
type ModelType struct {
	name   string
	fields []*Field
	byName map[string]*Field
	mixins []*Mixin
	config ModelConfig
}

// Name returns the model name.
func (m *ModelType) Name() string { return m.name }

// Config returns the model configuration.
func (m *ModelType) Config() ModelConfig { return m.config }

// Fields returns the model's fields in declaration order.
func (m *ModelType) Fields() []*Field {
	return append([]*Field(nil), m.fields...)
}

// FieldNames returns the field names in declaration order.
func (m *ModelType) FieldNames() []string {
	names := make([]string, len(m.fields))
	for i, f := range m.fields {
		names[i] = f.name
	}
	return names
}

// Field returns the named field.
func (m *ModelType) Field(name string) (*Field, bool) {
	f, ok := m.byName[name]
	return f, ok
}

// Mixins returns the model's behavior bundles in resolution order.
func (m *ModelType) Mixins() []*Mixin {
	return append([]*Mixin(nil), m.mixins...)
}

// lookupMethod scans mixins in order; the first mixin carrying the method
// wins.
func (m *ModelType) lookupMethod(name string) (Method, bool) {
	for _, mx := range m.mixins {
		if fn, ok := mx.Methods[name]; ok {
			return fn, true
		}
	}
	return nil, false
}

// New validates the given values against the schema and constructs an
// instance. Absent fields fall back to their defaults (factories invoked
// fresh per call); absent required fields and, under ExtraForbid, unknown
// keys fail with a *ValidationError.
func (m *ModelType) New(values map[string]any) (*Instance, error) {
	inst := &Instance{model: m, values: make(map[string]any, len(m.fields))}

	claimed := make(map[string]bool, len(values))
	for _, f := range m.fields {
		raw, ok := values[f.name]
		key := f.name
		if !ok && f.alias != "" {
			raw, ok = values[f.alias]
			key = f.alias
		}
		if ok {
			claimed[key] = true
			normalized, err := f.validate(raw, m.config.Strict)
			if err != nil {
				return nil, m.tagError(err)
			}
			inst.values[f.name] = normalized
			continue
		}
		if def, has := f.Default(); has {
			inst.values[f.name] = def
			continue
		}
		if f.annotation.Nullable {
			inst.values[f.name] = nil
			continue
		}
		return nil, &ValidationError{Model: m.name, Field: f.name, Reason: "missing required field"}
	}

	if m.config.Extra == ExtraIgnore {
		return inst, nil
	}
	extras := make([]string, 0)
	for k := range values {
		if !claimed[k] {
			if _, declared := m.byName[k]; !declared {
				extras = append(extras, k)
			}
		}
	}
	sort.Strings(extras)
	switch m.config.Extra {
	case ExtraForbid:
		if len(extras) > 0 {
			return nil, &ValidationError{Model: m.name, Field: extras[0], Reason: "unknown field forbidden by model config"}
		}
	case ExtraAllow:
		for _, k := range extras {
			inst.values[k] = values[k]
		}
	}
	return inst, nil
}

// MustNew is New for static model data; it panics on error.
func (m *ModelType) MustNew(values map[string]any) *Instance {
	inst, err := m.New(values)
	if err != nil {
		panic(err)
	}
	return inst
}

func (m *ModelType) tagError(err error) error {
	if ve, ok := err.(*ValidationError); ok && ve.Model == "" {
		ve.Model = m.name
		return ve
	}
	return err
}

// Instance is one validated value set of a ModelType. Instances are plain
// mutable values; they are not synchronized.
type Instance struct {
	model  *ModelType
	values map[string]any
}

// Model returns the instance's schema.
func (i *Instance) Model() *ModelType { return i.model }

// Get returns the value of a declared field or an extra value kept under
// ExtraAllow.
func (i *Instance) Get(name string) (any, error) {
	if v, ok := i.values[name]; ok {
		return v, nil
	}
	return nil, &ResolutionError{Kind: "field", Name: name}
}

// Set assigns a declared field. Frozen fields reject assignment; with
// ValidateAssignment on (the default) the value passes field validation
// first.
func (i *Instance) Set(name string, value any) error {
	f, ok := i.model.byName[name]
	if !ok {
		return &ResolutionError{Kind: "field", Name: name}
	}
	if f.frozen {
		return &ValidationError{Model: i.model.name, Field: name, Reason: "field is frozen"}
	}
	if i.model.config.ValidateAssignment {
		normalized, err := f.validate(value, i.model.config.Strict)
		if err != nil {
			return i.model.tagError(err)
		}
		value = normalized
	}
	i.values[name] = value
	return nil
}

// Call dispatches a mixin method by name, scanning mixins in resolution
// order; the first match wins.
func (i *Instance) Call(method string, args ...any) (any, error) {
	fn, ok := i.model.lookupMethod(method)
	if !ok {
		return nil, &ResolutionError{Kind: "method", Name: method}
	}
	return fn(i, args...)
}

// Dump returns the instance as a plain mapping keyed by external field names,
// skipping excluded fields and including extra values kept under ExtraAllow.
func (i *Instance) Dump() map[string]any {
	out := make(map[string]any, len(i.values))
	for _, f := range i.model.fields {
		if f.exclude {
			continue
		}
		out[f.ExternalName()] = i.values[f.name]
	}
	for k, v := range i.values {
		if _, declared := i.model.byName[k]; !declared {
			out[k] = v
		}
	}
	return out
}

// MarshalJSON serializes the Dump mapping.
func (i *Instance) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.Dump())
}
