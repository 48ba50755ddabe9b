package pydapter

import (
	"reflect"
)

// ValidatorFunc normalizes a candidate field value. It returns the normalized
// value, or an error when the value is invalid.
type ValidatorFunc func(v any) (any, error)

// ComposeValidators chains multiple ValidatorFunc instances left-to-right.
// Each validator receives the previous validator's output; the first error
// aborts the chain.
func ComposeValidators(fns ...ValidatorFunc) ValidatorFunc {
	return func(v any) (any, error) {
		cur := v
		for _, fn := range fns {
			out, err := fn(cur)
			if err != nil {
				return nil, err
			}
			cur = out
		}
		return cur, nil
	}
}

type metaEntry struct {
	key   string
	value any
}

// FieldTemplate is an immutable, composable descriptor of a field's intended
// type and metadata, independent of any particular field name or model.
// Composition methods never mutate the receiver; each returns a new template,
// so one template is safely shared across many model definitions.
//
// Methods that receive an invalid argument (a nil validator, a callable
// default of the wrong shape, an incompatible fixed default for a frozen
// template) panic with a *CompositionError at the call site, in the manner of
// regexp.MustCompile: these are programmer errors and must not be deferred to
// model-build time.
type FieldTemplate struct {
	baseType    reflect.Type
	nullable    bool
	listable    bool
	hasDefault  bool
	defaultVal  any
	defaultFn   func() any
	description string
	title       string
	alias       string
	frozen      bool
	exclude     bool
	validators  []ValidatorFunc
	meta        []metaEntry // ordered; keys unique
}

// NewTemplate creates a template for the given base type.
func NewTemplate(base reflect.Type) *FieldTemplate {
	if base == nil {
		panic(compositionErrorf("NewTemplate", "base type must not be nil"))
	}
	return &FieldTemplate{baseType: base}
}

// Template creates a template whose base type is T.
func Template[T any]() *FieldTemplate {
	return NewTemplate(reflect.TypeOf((*T)(nil)).Elem())
}

func (t *FieldTemplate) clone() *FieldTemplate {
	n := *t
	n.validators = append([]ValidatorFunc(nil), t.validators...)
	n.meta = append([]metaEntry(nil), t.meta...)
	return &n
}

// AsNullable marks the template nullable. When no default has been set, the
// absent-value marker (nil) becomes the default, so nullable fields do not
// each need an explicit default. This is a documented convenience, applied
// here as an explicit branch rather than anywhere downstream.
func (t *FieldTemplate) AsNullable() *FieldTemplate {
	n := t.clone()
	n.nullable = true
	if !n.hasDefault {
		n.hasDefault = true
		n.defaultVal = nil
		n.defaultFn = nil
	}
	return n
}

// AsListable marks the template listable: the produced field accepts a slice
// of the base type in addition to a single value. Nullable and listable are
// kept as orthogonal flags and flatten to one canonical composite shape, so
// AsNullable().AsListable() and AsListable().AsNullable() are equivalent.
func (t *FieldTemplate) AsListable() *FieldTemplate {
	n := t.clone()
	n.listable = true
	return n
}

// WithDefault sets the default. A value of shape func() any is treated as a
// factory invoked fresh per materialization; this automatic distinction
// prevents shared-mutable-default bugs for slices and maps. Functions of any
// other shape are rejected: a fixed default that is itself a callable must
// use WithDefaultFactory wrapping instead. Fixed defaults incompatible with a
// frozen template fail immediately.
func (t *FieldTemplate) WithDefault(v any) *FieldTemplate {
	const op = "FieldTemplate.WithDefault"
	n := t.clone()
	if v != nil && reflect.TypeOf(v).Kind() == reflect.Func {
		fn, ok := v.(func() any)
		if !ok {
			panic(compositionErrorf(op, "callable default must have shape func() any, got %T", v))
		}
		n.defaultFn = fn
		n.defaultVal = nil
	} else {
		if n.frozen && !n.fixedDefaultCompatible(v) {
			panic(compositionErrorf(op, "fixed default %v (%T) is incompatible with frozen %s field", v, v, n.baseType))
		}
		n.defaultVal = v
		n.defaultFn = nil
	}
	n.hasDefault = true
	return n
}

// WithDefaultFactory sets a default factory explicitly, with no callability
// heuristics involved.
func (t *FieldTemplate) WithDefaultFactory(fn func() any) *FieldTemplate {
	if fn == nil {
		panic(compositionErrorf("FieldTemplate.WithDefaultFactory", "factory must not be nil"))
	}
	n := t.clone()
	n.defaultFn = fn
	n.defaultVal = nil
	n.hasDefault = true
	return n
}

// WithValidator sets the validator, replacing any validators attached before:
// last write wins. Use AppendValidator to chain several independent checks.
func (t *FieldTemplate) WithValidator(fn ValidatorFunc) *FieldTemplate {
	if fn == nil {
		panic(compositionErrorf("FieldTemplate.WithValidator", "validator must not be nil"))
	}
	n := t.clone()
	n.validators = []ValidatorFunc{fn}
	return n
}

// AppendValidator adds a validator to the end of the template's ordered
// validator list. Validators run in order at materialization; the first
// failure short-circuits.
func (t *FieldTemplate) AppendValidator(fn ValidatorFunc) *FieldTemplate {
	if fn == nil {
		panic(compositionErrorf("FieldTemplate.AppendValidator", "validator must not be nil"))
	}
	n := t.clone()
	n.validators = append(n.validators, fn)
	return n
}

// WithDescription sets the human-readable description.
func (t *FieldTemplate) WithDescription(description string) *FieldTemplate {
	n := t.clone()
	n.description = description
	return n
}

// WithTitle sets the presentation title.
func (t *FieldTemplate) WithTitle(title string) *FieldTemplate {
	n := t.clone()
	n.title = title
	return n
}

// WithAlias sets the external/serialized name of produced fields.
func (t *FieldTemplate) WithAlias(alias string) *FieldTemplate {
	n := t.clone()
	n.alias = alias
	return n
}

// WithFrozen marks produced fields immutable after instantiation. A fixed
// default already present must be compatible with the base type.
func (t *FieldTemplate) WithFrozen(frozen bool) *FieldTemplate {
	n := t.clone()
	n.frozen = frozen
	if frozen && n.hasDefault && n.defaultFn == nil && !n.fixedDefaultCompatible(n.defaultVal) {
		panic(compositionErrorf("FieldTemplate.WithFrozen",
			"existing fixed default %v (%T) is incompatible with frozen %s field", n.defaultVal, n.defaultVal, n.baseType))
	}
	return n
}

// WithExclude marks produced fields excluded from serialization.
func (t *FieldTemplate) WithExclude(exclude bool) *FieldTemplate {
	n := t.clone()
	n.exclude = exclude
	return n
}

// WithMetadata inserts into the open metadata map, replacing a same-keyed
// entry in place. Once the map exceeds the PYDAPTER_FIELD_META_LIMIT
// threshold a warning is logged; the template remains fully usable.
func (t *FieldTemplate) WithMetadata(key string, value any) *FieldTemplate {
	if key == "" {
		panic(compositionErrorf("FieldTemplate.WithMetadata", "metadata key must not be empty"))
	}
	n := t.clone()
	replaced := false
	for i := range n.meta {
		if n.meta[i].key == key {
			n.meta[i].value = value
			replaced = true
			break
		}
	}
	if !replaced {
		n.meta = append(n.meta, metaEntry{key: key, value: value})
	}
	if limit := FieldMetaLimit(); len(n.meta) > limit {
		pkgLogger().Warn().
			Str("template", n.String()).
			Int("items", len(n.meta)).
			Int("limit", limit).
			Msg("field template metadata exceeds recommended limit")
	}
	return n
}

// fixedDefaultCompatible reports whether a fixed default value fits the
// template's composite shape. nil is the absent-value marker and always fits.
func (t *FieldTemplate) fixedDefaultCompatible(v any) bool {
	if v == nil {
		return true
	}
	rt := reflect.TypeOf(v)
	if rt.AssignableTo(t.baseType) {
		return true
	}
	if t.listable && rt.AssignableTo(reflect.SliceOf(t.baseType)) {
		return true
	}
	return false
}

// ---- queries -----------------------------------------------------------

// BaseType returns the semantic value type.
func (t *FieldTemplate) BaseType() reflect.Type { return t.baseType }

// IsNullable reports whether produced fields accept nil.
func (t *FieldTemplate) IsNullable() bool { return t.nullable }

// IsListable reports whether produced fields accept a slice of the base type.
func (t *FieldTemplate) IsListable() bool { return t.listable }

// HasDefault reports whether a default (fixed or factory) is set.
func (t *FieldTemplate) HasDefault() bool { return t.hasDefault }

// DefaultValue returns the raw fixed default and whether the default is a
// fixed value (as opposed to absent or a factory).
func (t *FieldTemplate) DefaultValue() (any, bool) {
	if !t.hasDefault || t.defaultFn != nil {
		return nil, false
	}
	return t.defaultVal, true
}

// HasDefaultFactory reports whether the default is produced per-instantiation.
func (t *FieldTemplate) HasDefaultFactory() bool { return t.defaultFn != nil }

// Description returns the description metadata.
func (t *FieldTemplate) Description() string { return t.description }

// Title returns the title metadata.
func (t *FieldTemplate) Title() string { return t.title }

// Alias returns the alias metadata.
func (t *FieldTemplate) Alias() string { return t.alias }

// IsFrozen reports whether produced fields reject assignment.
func (t *FieldTemplate) IsFrozen() bool { return t.frozen }

// IsExcluded reports whether produced fields are skipped on serialization.
func (t *FieldTemplate) IsExcluded() bool { return t.exclude }

// HasValidator reports whether any validator is attached.
func (t *FieldTemplate) HasValidator() bool { return len(t.validators) > 0 }

// ValidatorCount returns the number of attached validators.
func (t *FieldTemplate) ValidatorCount() int { return len(t.validators) }

// MetadataKeys returns the custom metadata keys in insertion order.
func (t *FieldTemplate) MetadataKeys() []string {
	keys := make([]string, len(t.meta))
	for i, m := range t.meta {
		keys[i] = m.key
	}
	return keys
}

// ExtractMetadata returns the metadata value for key.
func (t *FieldTemplate) ExtractMetadata(key string) (any, bool) {
	for _, m := range t.meta {
		if m.key == key {
			return m.value, true
		}
	}
	return nil, false
}

func (t *FieldTemplate) String() string {
	s := "FieldTemplate(" + t.baseType.String()
	if t.nullable {
		s += ", nullable"
	}
	if t.listable {
		s += ", listable"
	}
	if len(t.validators) > 0 {
		s += ", validated"
	}
	return s + ")"
}

// ---- materialization ---------------------------------------------------

// CreateField materializes a concrete Field for the given name using the
// process-wide default TypeCache. Factories that carry their own cache use
// CreateFieldWith.
func (t *FieldTemplate) CreateField(name string) (*Field, error) {
	return t.CreateFieldWith(DefaultTypeCache(), name)
}

// CreateFieldWith materializes a concrete Field, resolving the composite
// annotation through the supplied cache. Materialization is idempotent: two
// calls for the same template and name produce fields with the same
// annotation identity, default behavior and metadata.
func (t *FieldTemplate) CreateFieldWith(cache *TypeCache, name string) (*Field, error) {
	if name == "" {
		return nil, compositionErrorf("FieldTemplate.CreateField", "field name must not be empty")
	}
	if cache == nil {
		cache = DefaultTypeCache()
	}
	metadata := make(map[string]any, len(t.meta))
	for _, m := range t.meta {
		metadata[m.key] = m.value
	}
	return &Field{
		name:        name,
		annotation:  cache.GetOrCreate(t.baseType, t.nullable, t.listable),
		hasDefault:  t.hasDefault,
		defaultVal:  t.defaultVal,
		defaultFn:   t.defaultFn,
		description: t.description,
		title:       t.title,
		alias:       t.alias,
		frozen:      t.frozen,
		exclude:     t.exclude,
		validators:  append([]ValidatorFunc(nil), t.validators...),
		metadata:    metadata,
	}, nil
}
