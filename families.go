package pydapter

import (
	"fmt"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// FieldFamily is a named, purely structural grouping of field-name to
// FieldTemplate, with no associated behavior. Accessor functions below return
// fresh maps so the canonical definitions cannot be corrupted; the templates
// themselves are immutable and shared.
type FieldFamily map[string]*FieldTemplate

// Clone returns a shallow copy; templates are immutable so sharing them is
// safe.
func (f FieldFamily) Clone() FieldFamily {
	out := make(FieldFamily, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// sortedNames returns the family's field names in lexical order, giving
// family merges a deterministic iteration order.
func (f FieldFamily) sortedNames() []string {
	names := make([]string, 0, len(f))
	for k := range f {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// MergeFamilies merges families in argument order, last write wins on
// field-name collision.
func MergeFamilies(families ...FieldFamily) FieldFamily {
	out := make(FieldFamily)
	for _, fam := range families {
		for k, v := range fam {
			out[k] = v
		}
	}
	return out
}

// ---- stock validators --------------------------------------------------

// UUIDValidator normalizes uuid.UUID values and UUID strings.
func UUIDValidator(v any) (any, error) {
	switch val := v.(type) {
	case uuid.UUID:
		return val, nil
	case string:
		id, err := uuid.Parse(val)
		if err != nil {
			return nil, fmt.Errorf("value %q is not a valid UUID: %w", val, err)
		}
		return id, nil
	case []byte:
		id, err := uuid.ParseBytes(val)
		if err != nil {
			return nil, fmt.Errorf("value %q is not a valid UUID: %w", val, err)
		}
		return id, nil
	}
	return nil, fmt.Errorf("value of type %T is not a UUID or UUID string", v)
}

// DatetimeValidator normalizes time.Time values and RFC 3339 strings to UTC.
func DatetimeValidator(v any) (any, error) {
	switch val := v.(type) {
	case time.Time:
		return val.UTC(), nil
	case string:
		ts, err := time.Parse(time.RFC3339Nano, val)
		if err != nil {
			return nil, fmt.Errorf("value %q is not an RFC 3339 timestamp: %w", val, err)
		}
		return ts.UTC(), nil
	}
	return nil, fmt.Errorf("value of type %T is not a timestamp or RFC 3339 string", v)
}

// EmbeddingValidator normalizes embedding vectors: []float64 pass through,
// generic and float32 slices are coerced, JSON-encoded strings are decoded.
func EmbeddingValidator(v any) (any, error) {
	switch val := v.(type) {
	case []float64:
		return val, nil
	case []float32:
		out := make([]float64, len(val))
		for i, x := range val {
			out[i] = float64(x)
		}
		return out, nil
	case []any:
		out := make([]float64, len(val))
		for i, x := range val {
			f, ok := x.(float64)
			if !ok {
				return nil, fmt.Errorf("embedding element %d has type %T, want float64", i, x)
			}
			out[i] = f
		}
		return out, nil
	case string:
		var out []float64
		if err := json.Unmarshal([]byte(val), &out); err != nil {
			return nil, fmt.Errorf("invalid embedding string: %w", err)
		}
		return out, nil
	case []byte:
		var out []float64
		if err := json.Unmarshal(val, &out); err != nil {
			return nil, fmt.Errorf("invalid embedding bytes: %w", err)
		}
		return out, nil
	}
	return nil, fmt.Errorf("value of type %T is not an embedding vector", v)
}

// ---- stock templates ---------------------------------------------------

// Canonical template definitions. Each is built once; composition derives
// variants without mutating the originals.
var (
	idTemplate = Template[uuid.UUID]().
			WithDefault(func() any { return uuid.New() }).
			WithValidator(UUIDValidator).
			WithDescription("Unique identifier")

	idFrozenTemplate = idTemplate.WithFrozen(true).
				WithDescription("Frozen unique identifier")

	idNullableTemplate = Template[uuid.UUID]().
				AsNullable().
				WithValidator(UUIDValidator).
				WithDescription("Nullable unique identifier")

	createdAtTemplate = Template[time.Time]().
				WithDefault(func() any { return time.Now().UTC() }).
				WithValidator(DatetimeValidator).
				WithDescription("Creation timestamp")

	updatedAtTemplate = Template[time.Time]().
				WithDefault(func() any { return time.Now().UTC() }).
				WithValidator(DatetimeValidator).
				WithDescription("Last update timestamp")

	deletedAtTemplate = Template[time.Time]().
				AsNullable().
				WithValidator(DatetimeValidator).
				WithDescription("Soft-deletion timestamp")

	isDeletedTemplate = Template[bool]().
				WithDefault(false).
				WithDescription("Soft-deletion flag")

	versionTemplate = Template[int]().
			WithDefault(1).
			WithDescription("Version number for optimistic locking")

	embeddingTemplate = Template[float64]().
				AsListable().
				WithDefault(func() any { return []float64{} }).
				WithValidator(EmbeddingValidator).
				WithDescription("Embedding vector").
				WithMetadata("vector_dim", 1536)

	sha256Template = Template[string]().
			AsNullable().
			WithDescription("SHA-256 hash of the content")
)

// IDTemplate returns the mutable UUID identifier template (auto-generated
// default).
func IDTemplate() *FieldTemplate { return idTemplate }

// IDFrozenTemplate returns the frozen UUID identifier template.
func IDFrozenTemplate() *FieldTemplate { return idFrozenTemplate }

// IDNullableTemplate returns the nullable UUID template used for audit
// references.
func IDNullableTemplate() *FieldTemplate { return idNullableTemplate }

// CreatedAtTemplate returns the creation-timestamp template.
func CreatedAtTemplate() *FieldTemplate { return createdAtTemplate }

// UpdatedAtTemplate returns the update-timestamp template.
func UpdatedAtTemplate() *FieldTemplate { return updatedAtTemplate }

// DeletedAtTemplate returns the nullable soft-deletion timestamp template.
func DeletedAtTemplate() *FieldTemplate { return deletedAtTemplate }

// VersionTemplate returns the optimistic-locking version template.
func VersionTemplate() *FieldTemplate { return versionTemplate }

// EmbeddingTemplate returns the vector-embedding template.
func EmbeddingTemplate() *FieldTemplate { return embeddingTemplate }

// SHA256Template returns the nullable content-hash template.
func SHA256Template() *FieldTemplate { return sha256Template }

// ---- built-in families -------------------------------------------------
//
// One canonical definition exists per field name; composite families such as
// Entity are derived by merging the protocol-level families rather than
// maintained as an independently edited copy.

// FamilyIdentifiable groups the id field.
func FamilyIdentifiable() FieldFamily {
	return FieldFamily{"id": idTemplate}
}

// FamilyTemporal groups the created_at/updated_at timestamps.
func FamilyTemporal() FieldFamily {
	return FieldFamily{
		"created_at": createdAtTemplate,
		"updated_at": updatedAtTemplate,
	}
}

// FamilyEntity is the id + timestamps pattern, derived from
// FamilyIdentifiable and FamilyTemporal.
func FamilyEntity() FieldFamily {
	return MergeFamilies(FamilyIdentifiable(), FamilyTemporal())
}

// FamilySoftDelete groups the soft-deletion marker fields.
func FamilySoftDelete() FieldFamily {
	return FieldFamily{
		"deleted_at": deletedAtTemplate,
		"is_deleted": isDeletedTemplate,
	}
}

// FamilyAudit groups creator/updater references and the version counter.
func FamilyAudit() FieldFamily {
	return FieldFamily{
		"created_by": idNullableTemplate,
		"updated_by": idNullableTemplate,
		"version":    versionTemplate,
	}
}

// FamilyVersioned groups the version counter alone.
func FamilyVersioned() FieldFamily {
	return FieldFamily{"version": versionTemplate}
}

// FamilyEmbeddable groups the embedding vector.
func FamilyEmbeddable() FieldFamily {
	return FieldFamily{"embedding": embeddingTemplate}
}

// FamilyCryptographical groups the content hash.
func FamilyCryptographical() FieldFamily {
	return FieldFamily{"sha256": sha256Template}
}
