package pydapter

import (
	"bytes"
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

// JSONAdapter converts model instances to and from JSON documents. A single
// instance serializes as an object, several as an array; FromObj accepts
// either shape.
type JSONAdapter struct {
	// Indent pretty-prints output with the given indent string when non-empty.
	Indent string
}

// Key returns "json".
func (JSONAdapter) Key() string { return "json" }

// ToObj serializes instances to JSON bytes.
func (a JSONAdapter) ToObj(insts []*Instance) (any, error) {
	var payload any
	if len(insts) == 1 {
		payload = insts[0].Dump()
	} else {
		dumps := make([]map[string]any, len(insts))
		for i, inst := range insts {
			dumps[i] = inst.Dump()
		}
		payload = dumps
	}
	if a.Indent != "" {
		return json.MarshalIndent(payload, "", a.Indent)
	}
	return json.Marshal(payload)
}

// FromObj parses JSON bytes, a string or a reader into validated instances of
// model.
func (a JSONAdapter) FromObj(model *ModelType, obj any) ([]*Instance, error) {
	data, err := readBytes(obj)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("pydapter: json adapter: empty input")
	}

	if trimmed[0] == '[' {
		var raw []map[string]any
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, fmt.Errorf("pydapter: json adapter: %w", err)
		}
		insts := make([]*Instance, 0, len(raw))
		for _, values := range raw {
			inst, err := model.New(values)
			if err != nil {
				return nil, err
			}
			insts = append(insts, inst)
		}
		return insts, nil
	}

	var values map[string]any
	if err := json.Unmarshal(trimmed, &values); err != nil {
		return nil, fmt.Errorf("pydapter: json adapter: %w", err)
	}
	inst, err := model.New(values)
	if err != nil {
		return nil, err
	}
	return []*Instance{inst}, nil
}

func readBytes(obj any) ([]byte, error) {
	switch v := obj.(type) {
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	case string:
		return []byte(v), nil
	case io.Reader:
		return io.ReadAll(v)
	}
	return nil, fmt.Errorf("pydapter: unsupported input type %T, want []byte, string or io.Reader", obj)
}
