package pydapter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// CSVAdapter converts model instances to and from CSV records. The header row
// carries the external field names in the model's declaration order; complex
// values travel as JSON-encoded cells.
type CSVAdapter struct {
	// Comma is the field delimiter; zero means ','.
	Comma rune
}

// Key returns "csv".
func (CSVAdapter) Key() string { return "csv" }

// ToObj serializes instances to CSV bytes, header row included. All
// instances must share one ModelType.
func (a CSVAdapter) ToObj(insts []*Instance) (any, error) {
	if len(insts) == 0 {
		return nil, fmt.Errorf("pydapter: csv adapter: no instances given")
	}
	model := insts[0].Model()
	var cols []*Field
	var header []string
	for _, f := range model.Fields() {
		if f.IsExcluded() {
			continue
		}
		cols = append(cols, f)
		header = append(header, f.ExternalName())
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if a.Comma != 0 {
		w.Comma = a.Comma
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, inst := range insts {
		if inst.Model() != model {
			return nil, fmt.Errorf("pydapter: csv adapter: mixed model types %q and %q", model.Name(), inst.Model().Name())
		}
		row := make([]string, len(cols))
		for i, f := range cols {
			v, err := inst.Get(f.Name())
			if err != nil {
				return nil, err
			}
			cell, err := formatCSVCell(v)
			if err != nil {
				return nil, err
			}
			row[i] = cell
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FromObj parses CSV bytes, a string or a reader into validated instances of
// model. Empty cells are treated as absent, so field defaults apply.
func (a CSVAdapter) FromObj(model *ModelType, obj any) ([]*Instance, error) {
	data, err := readBytes(obj)
	if err != nil {
		return nil, err
	}
	r := csv.NewReader(bytes.NewReader(data))
	if a.Comma != 0 {
		r.Comma = a.Comma
	}
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("pydapter: csv adapter: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("pydapter: csv adapter: missing header row")
	}

	header := records[0]
	fieldsByExternal := make(map[string]*Field, len(model.Fields()))
	for _, f := range model.Fields() {
		fieldsByExternal[f.ExternalName()] = f
		fieldsByExternal[f.Name()] = f
	}

	insts := make([]*Instance, 0, len(records)-1)
	for _, record := range records[1:] {
		values := make(map[string]any, len(header))
		for i, col := range header {
			if i >= len(record) || record[i] == "" {
				continue
			}
			if f, ok := fieldsByExternal[col]; ok {
				v, err := parseCSVCell(f, record[i])
				if err != nil {
					return nil, &ValidationError{Model: model.Name(), Field: f.Name(), Value: record[i], Reason: "invalid csv cell", Err: err}
				}
				values[f.Name()] = v
				continue
			}
			// Unknown column: surfaced to the model's extra-field policy.
			values[col] = record[i]
		}
		inst, err := model.New(values)
		if err != nil {
			return nil, err
		}
		insts = append(insts, inst)
	}
	return insts, nil
}

func formatCSVCell(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case bool:
		return strconv.FormatBool(val), nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64), nil
	case uuid.UUID:
		return val.String(), nil
	case time.Time:
		return val.Format(time.RFC3339Nano), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding csv cell: %w", err)
	}
	return string(data), nil
}

// parseCSVCell coerces a cell by the field's base kind. Fields carrying
// validators (UUID, timestamp, embedding) receive the raw string and let the
// validator normalize it.
func parseCSVCell(f *Field, cell string) (any, error) {
	base := f.Annotation().Base
	if f.Annotation().Listable || base.Kind() == reflect.Slice || base.Kind() == reflect.Map {
		var out any
		if err := json.Unmarshal([]byte(cell), &out); err == nil {
			return out, nil
		}
		return cell, nil
	}
	switch base.Kind() {
	case reflect.String:
		return cell, nil
	case reflect.Bool:
		return strconv.ParseBool(cell)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.ParseInt(cell, 10, 64)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.ParseUint(cell, 10, 64)
	case reflect.Float32, reflect.Float64:
		return strconv.ParseFloat(cell, 64)
	}
	// UUID, time.Time and other composite bases: hand the string to the
	// field's validators.
	return cell, nil
}
