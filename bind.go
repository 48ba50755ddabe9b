package pydapter

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Binding helpers as top-level functions (methods cannot have type parameters
// yet). They bridge dynamic instances and static structs with a JSON
// round-trip over external field names; for non-aligned structures, write an
// explicit mapper instead.

// As converts an instance into a strongly typed struct. Struct json tags must
// match the model's external field names.
func As[T any](inst *Instance) (T, error) {
	var out T
	data, err := json.Marshal(inst.Dump())
	if err != nil {
		return out, fmt.Errorf("pydapter: bind marshal failed: %w", err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("pydapter: bind unmarshal failed: %w", err)
	}
	return out, nil
}

// AsSlice converts several instances at once.
func AsSlice[T any](insts []*Instance) ([]T, error) {
	out := make([]T, 0, len(insts))
	for _, inst := range insts {
		v, err := As[T](inst)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// FromStruct validates a struct (or map) against the model and returns an
// instance. The value is flattened through JSON, so defaults and validators
// apply exactly as with ModelType.New.
func FromStruct(model *ModelType, v any) (*Instance, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("pydapter: bind marshal failed: %w", err)
	}
	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("pydapter: bind unmarshal failed: %w", err)
	}
	return model.New(values)
}
