package pydapter

import "reflect"

// Field is a concrete, named materialization of a FieldTemplate, bound into a
// specific model. Many fields may derive from one template; the template is
// the stencil, the field the instance.
type Field struct {
	name        string
	annotation  *CompositeType
	hasDefault  bool
	defaultVal  any
	defaultFn   func() any
	description string
	title       string
	alias       string
	frozen      bool
	exclude     bool
	validators  []ValidatorFunc
	metadata    map[string]any
}

// Name returns the field's bound name.
func (f *Field) Name() string { return f.name }

// Annotation returns the resolved composite type. Annotation identity is
// stable through the TypeCache, so fields produced from equal templates via
// the same cache share the same pointer.
func (f *Field) Annotation() *CompositeType { return f.annotation }

// Description returns the field description.
func (f *Field) Description() string { return f.description }

// Title returns the field title.
func (f *Field) Title() string { return f.title }

// Alias returns the external name, or "" when the field serializes under its
// own name.
func (f *Field) Alias() string { return f.alias }

// ExternalName returns the key the field uses in serialized form.
func (f *Field) ExternalName() string {
	if f.alias != "" {
		return f.alias
	}
	return f.name
}

// IsFrozen reports whether assignment after instantiation is rejected.
func (f *Field) IsFrozen() bool { return f.frozen }

// IsExcluded reports whether the field is skipped on serialization.
func (f *Field) IsExcluded() bool { return f.exclude }

// HasDefault reports whether the field carries a default (fixed or factory).
func (f *Field) HasDefault() bool { return f.hasDefault }

// Required reports whether a value must be supplied at instantiation.
func (f *Field) Required() bool { return !f.hasDefault }

// Default resolves the field default. Factory defaults are invoked fresh on
// every call, so mutable defaults are never shared between instances.
func (f *Field) Default() (any, bool) {
	if f.defaultFn != nil {
		return f.defaultFn(), true
	}
	return f.defaultVal, f.hasDefault
}

// Metadata returns a copy of the materialized schema-extension payload.
func (f *Field) Metadata() map[string]any {
	out := make(map[string]any, len(f.metadata))
	for k, v := range f.metadata {
		out[k] = v
	}
	return out
}

// Validate normalizes and checks a candidate value: validators run first in
// order (each may rewrite the value), then the value must conform to the
// composite shape. Numeric kinds convert loosely; ValidateStrict disables
// that fallback.
func (f *Field) Validate(v any) (any, error) { return f.validate(v, false) }

// ValidateStrict behaves like Validate but requires assignable types.
func (f *Field) ValidateStrict(v any) (any, error) { return f.validate(v, true) }

func (f *Field) validate(v any, strict bool) (any, error) {
	if v == nil {
		if f.annotation.Nullable {
			return nil, nil
		}
		return nil, validationErrorf(f.name, nil, "field is not nullable")
	}
	var err error
	for _, fn := range f.validators {
		if v, err = fn(v); err != nil {
			return nil, &ValidationError{Field: f.name, Value: v, Reason: "validator rejected value", Err: err}
		}
		if v == nil {
			if f.annotation.Nullable {
				return nil, nil
			}
			return nil, validationErrorf(f.name, nil, "validator normalized value to nil but field is not nullable")
		}
	}
	return f.conform(v, strict)
}

func (f *Field) conform(v any, strict bool) (any, error) {
	base := f.annotation.Base
	rv := reflect.ValueOf(v)
	rt := rv.Type()

	if rt.AssignableTo(base) {
		return v, nil
	}
	if f.annotation.Listable && rt.Kind() == reflect.Slice {
		if rt.Elem().AssignableTo(base) {
			return v, nil
		}
		out := reflect.MakeSlice(reflect.SliceOf(base), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			ev := rv.Index(i)
			if ev.Kind() == reflect.Interface {
				ev = ev.Elem()
			}
			if !ev.IsValid() {
				return nil, validationErrorf(f.name, v, "list element %d is nil", i)
			}
			switch {
			case ev.Type().AssignableTo(base):
				out.Index(i).Set(ev)
			case !strict && numericConvertible(ev.Type(), base):
				out.Index(i).Set(ev.Convert(base))
			default:
				return nil, validationErrorf(f.name, v, "list element %d of type %s is not assignable to %s", i, ev.Type(), base)
			}
		}
		return out.Interface(), nil
	}
	if !strict && numericConvertible(rt, base) {
		return rv.Convert(base).Interface(), nil
	}
	return nil, validationErrorf(f.name, v, "value of type %s does not conform to %s", rt, f.annotation)
}

// numericConvertible restricts reflect's Convert fallback to numeric kinds,
// so string/int code-point conversions never slip through.
func numericConvertible(src, dst reflect.Type) bool {
	return isNumericKind(src.Kind()) && isNumericKind(dst.Kind()) && src.ConvertibleTo(dst)
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
