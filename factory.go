package pydapter

// modelRef is one ordered protocol or family reference in a model spec.
type modelRef struct {
	protocol string
	family   FieldFamily
}

func (r modelRef) isProtocol() bool { return r.family == nil }

type fieldOverride struct {
	name     string
	template *FieldTemplate
}

type modelSpec struct {
	refs      []modelRef
	overrides []fieldOverride
	removed   []string
	config    *ModelConfig
}

// ModelOption configures one CreateModel call. Options are applied in the
// order given; protocol and family references merge in that order, while
// WithField overrides always win regardless of position.
type ModelOption func(*modelSpec)

// WithProtocols appends protocol references. Their required fields merge in
// order and their mixins compose into the generated model.
func WithProtocols(names ...string) ModelOption {
	return func(s *modelSpec) {
		for _, name := range names {
			s.refs = append(s.refs, modelRef{protocol: name})
		}
	}
}

// WithFamily appends a structural field family reference.
func WithFamily(family FieldFamily) ModelOption {
	return func(s *modelSpec) {
		s.refs = append(s.refs, modelRef{family: family})
	}
}

// WithField adds an explicit field override. Overrides are highest priority:
// they replace any same-named field contributed by protocol or family
// references, wherever the option appears in the argument list.
func WithField(name string, template *FieldTemplate) ModelOption {
	return func(s *modelSpec) {
		s.overrides = append(s.overrides, fieldOverride{name: name, template: template})
	}
}

// WithoutFields drops fields contributed by protocol or family references.
// Removal applies after reference merging and before overrides, so a
// WithField for the same name re-adds it.
func WithoutFields(names ...string) ModelOption {
	return func(s *modelSpec) {
		s.removed = append(s.removed, names...)
	}
}

// WithConfig sets the model configuration; without it DefaultModelConfig
// applies.
func WithConfig(config ModelConfig) ModelOption {
	return func(s *modelSpec) {
		s.config = &config
	}
}

// orderedTemplates is a field map with deterministic insertion order.
// Replacement keeps the original position, so merge order decides values
// while first mention decides placement.
type orderedTemplates struct {
	names  []string
	byName map[string]*FieldTemplate
}

func newOrderedTemplates() *orderedTemplates {
	return &orderedTemplates{byName: make(map[string]*FieldTemplate)}
}

func (o *orderedTemplates) set(name string, t *FieldTemplate) {
	if _, ok := o.byName[name]; !ok {
		o.names = append(o.names, name)
	}
	o.byName[name] = t
}

func (o *orderedTemplates) delete(name string) {
	if _, ok := o.byName[name]; !ok {
		return
	}
	delete(o.byName, name)
	for i, n := range o.names {
		if n == name {
			o.names = append(o.names[:i], o.names[i+1:]...)
			break
		}
	}
}

// Factory synthesizes concrete ModelTypes from protocol references, field
// families and ad hoc overrides. The type cache and protocol registry are
// injected explicitly: create them once at application start and share them.
type Factory struct {
	cache    *TypeCache
	registry *ProtocolRegistry
}

// NewFactory creates a factory. A nil cache uses a fresh cache sized from
// PYDAPTER_FIELD_CACHE_SIZE; a nil registry uses the default built-in
// protocol set.
func NewFactory(cache *TypeCache, registry *ProtocolRegistry) *Factory {
	if cache == nil {
		cache = NewTypeCache(0)
	}
	if registry == nil {
		registry = NewDefaultProtocolRegistry()
	}
	return &Factory{cache: cache, registry: registry}
}

// Cache returns the injected type cache.
func (f *Factory) Cache() *TypeCache { return f.cache }

// Registry returns the injected protocol registry.
func (f *Factory) Registry() *ProtocolRegistry { return f.registry }

// CreateModel resolves and merges fields from the given references in order,
// applies overrides, resolves mixins from the protocol references, and
// materializes each template into a concrete field. Identical argument lists
// always produce structurally identical models. Unknown protocol references
// fail with a *ResolutionError naming them.
func (f *Factory) CreateModel(name string, opts ...ModelOption) (*ModelType, error) {
	if name == "" {
		return nil, compositionErrorf("Factory.CreateModel", "model name must not be empty")
	}
	spec := &modelSpec{}
	for _, opt := range opts {
		opt(spec)
	}

	templates, mixins, err := f.resolveSpec(spec)
	if err != nil {
		return nil, err
	}

	fields := make([]*Field, 0, len(templates.names))
	byName := make(map[string]*Field, len(templates.names))
	for _, fieldName := range templates.names {
		field, err := templates.byName[fieldName].CreateFieldWith(f.cache, fieldName)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
		byName[fieldName] = field
	}

	config := DefaultModelConfig()
	if spec.config != nil {
		config = *spec.config
	}
	return &ModelType{name: name, fields: fields, byName: byName, mixins: mixins, config: config}, nil
}

// resolveSpec runs steps 1-3 of the resolution algorithm: reference merge,
// removals, overrides, mixin collection. Shared with ModelBuilder.Preview.
func (f *Factory) resolveSpec(spec *modelSpec) (*orderedTemplates, []*Mixin, error) {
	templates := newOrderedTemplates()
	var protocolNames []string

	for _, ref := range spec.refs {
		if ref.isProtocol() {
			fam, err := f.registry.ResolveFields(ref.protocol)
			if err != nil {
				return nil, nil, err
			}
			for _, fieldName := range fam.sortedNames() {
				templates.set(fieldName, fam[fieldName])
			}
			protocolNames = append(protocolNames, ref.protocol)
			continue
		}
		for _, fieldName := range ref.family.sortedNames() {
			templates.set(fieldName, ref.family[fieldName])
		}
	}

	for _, name := range spec.removed {
		templates.delete(name)
	}
	for _, ov := range spec.overrides {
		if ov.template == nil {
			return nil, nil, compositionErrorf("Factory.CreateModel", "override for field %q has nil template", ov.name)
		}
		templates.set(ov.name, ov.template)
	}

	mixins, err := f.registry.ResolveMixins(protocolNames...)
	if err != nil {
		return nil, nil, err
	}
	return templates, mixins, nil
}
