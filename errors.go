package pydapter

import "fmt"

// CompositionError reports an invalid argument to a FieldTemplate composition
// method or an invalid adapter/registry setup call. These are programmer
// errors and surface at the call site, never at model-build time.
type CompositionError struct {
	Op     string // the operation that rejected the argument, e.g. "FieldTemplate.WithValidator"
	Reason string
}

func (e *CompositionError) Error() string {
	return fmt.Sprintf("pydapter: %s: %s", e.Op, e.Reason)
}

func compositionErrorf(op, format string, args ...any) *CompositionError {
	return &CompositionError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// ResolutionError reports a lookup of a reference that was never registered:
// a protocol, adapter, field or mixin method name.
type ResolutionError struct {
	Kind string // "protocol", "adapter", "field" or "method"
	Name string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("pydapter: unknown %s %q", e.Kind, e.Name)
}

// ValidationError reports a value that failed a generated model's field
// constraints, either at instantiation or on assignment.
type ValidationError struct {
	Model  string
	Field  string
	Value  any
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("pydapter: validation failed for field %q", e.Field)
	if e.Model != "" {
		msg = fmt.Sprintf("pydapter: validation failed for field %q of model %q", e.Field, e.Model)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

func validationErrorf(field string, value any, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: fmt.Sprintf(format, args...)}
}
