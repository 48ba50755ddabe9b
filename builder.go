package pydapter

// ModelBuilder provides a fluent API for incremental model construction over
// the Factory. Unlike FieldTemplate, the builder is deliberately mutable:
// each call mutates and returns the receiver for chaining, since builders are
// single-use, linear construction pipelines, not shared values.
type ModelBuilder struct {
	factory *Factory
	name    string
	spec    modelSpec
}

// NewModelBuilder creates a builder targeting the given factory. A nil
// factory uses NewFactory defaults.
func NewModelBuilder(factory *Factory, name string) *ModelBuilder {
	if factory == nil {
		factory = NewFactory(nil, nil)
	}
	return &ModelBuilder{factory: factory, name: name}
}

// Builder is a convenience constructor on Factory.
func (f *Factory) Builder(name string) *ModelBuilder {
	return NewModelBuilder(f, name)
}

// WithProtocol appends a protocol reference.
func (b *ModelBuilder) WithProtocol(name string) *ModelBuilder {
	b.spec.refs = append(b.spec.refs, modelRef{protocol: name})
	return b
}

// WithFamily appends a structural field family reference.
func (b *ModelBuilder) WithFamily(family FieldFamily) *ModelBuilder {
	b.spec.refs = append(b.spec.refs, modelRef{family: family})
	return b
}

// AddField adds or replaces a field override. With replace false, an existing
// field name is a silent no-op rejection; with replace true the override
// wins. Adding a field clears an earlier removal of the same name.
func (b *ModelBuilder) AddField(name string, template *FieldTemplate, replace bool) *ModelBuilder {
	if !replace && b.has(name) {
		return b
	}
	for i := range b.spec.overrides {
		if b.spec.overrides[i].name == name {
			b.spec.overrides[i].template = template
			b.unremove(name)
			return b
		}
	}
	b.spec.overrides = append(b.spec.overrides, fieldOverride{name: name, template: template})
	b.unremove(name)
	return b
}

// RemoveField drops a field, whether contributed by a reference or an earlier
// AddField.
func (b *ModelBuilder) RemoveField(name string) *ModelBuilder {
	for i := range b.spec.overrides {
		if b.spec.overrides[i].name == name {
			b.spec.overrides = append(b.spec.overrides[:i], b.spec.overrides[i+1:]...)
			break
		}
	}
	b.spec.removed = append(b.spec.removed, name)
	return b
}

// RemoveFields drops several fields.
func (b *ModelBuilder) RemoveFields(names ...string) *ModelBuilder {
	for _, name := range names {
		b.RemoveField(name)
	}
	return b
}

// WithConfig sets the model configuration applied at Build.
func (b *ModelBuilder) WithConfig(config ModelConfig) *ModelBuilder {
	b.spec.config = &config
	return b
}

// Preview resolves the accumulated state and returns a read-only snapshot of
// the current field mapping.
func (b *ModelBuilder) Preview() (map[string]*FieldTemplate, error) {
	spec := b.spec
	templates, _, err := b.factory.resolveSpec(&spec)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*FieldTemplate, len(templates.names))
	for _, name := range templates.names {
		out[name] = templates.byName[name]
	}
	return out, nil
}

// Build synthesizes the model through the factory's resolution algorithm,
// using the accumulated references as the ordered ref list plus override
// map. Additional options (typically WithConfig) are applied on top.
func (b *ModelBuilder) Build(opts ...ModelOption) (*ModelType, error) {
	all := make([]ModelOption, 0, len(opts)+1)
	all = append(all, func(s *modelSpec) {
		s.refs = append(s.refs, b.spec.refs...)
		s.overrides = append(s.overrides, b.spec.overrides...)
		s.removed = append(s.removed, b.spec.removed...)
		s.config = b.spec.config
	})
	all = append(all, opts...)
	return b.factory.CreateModel(b.name, all...)
}

// has reports whether the name currently resolves to a field. Unresolvable
// protocol references are skipped here; Build reports them.
func (b *ModelBuilder) has(name string) bool {
	for _, ov := range b.spec.overrides {
		if ov.name == name {
			return true
		}
	}
	removed := false
	for _, r := range b.spec.removed {
		if r == name {
			removed = true
		}
	}
	if removed {
		return false
	}
	for _, ref := range b.spec.refs {
		fam := ref.family
		if ref.isProtocol() {
			p, ok := b.factory.registry.Get(ref.protocol)
			if !ok {
				continue
			}
			fam = p.Fields
		}
		if _, ok := fam[name]; ok {
			return true
		}
	}
	return false
}

func (b *ModelBuilder) unremove(name string) {
	for i := 0; i < len(b.spec.removed); i++ {
		if b.spec.removed[i] == name {
			b.spec.removed = append(b.spec.removed[:i], b.spec.removed[i+1:]...)
			i--
		}
	}
}
