package pydapter

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Built-in protocol names.
const (
	ProtocolIdentifiable    = "identifiable"
	ProtocolTemporal        = "temporal"
	ProtocolEmbeddable      = "embeddable"
	ProtocolAuditable       = "auditable"
	ProtocolSoftDeletable   = "soft_deletable"
	ProtocolVersionable     = "versionable"
	ProtocolCryptographical = "cryptographical"
)

func instanceTime(inst *Instance, name string) (time.Time, error) {
	v, err := inst.Get(name)
	if err != nil {
		return time.Time{}, err
	}
	ts, ok := v.(time.Time)
	if !ok {
		return time.Time{}, fmt.Errorf("field %q holds %T, want time.Time", name, v)
	}
	return ts, nil
}

var identifiableMixin = &Mixin{
	Name: "IdentifiableMixin",
	Methods: map[string]Method{
		// GetID returns the instance's id field.
		"GetID": func(inst *Instance, _ ...any) (any, error) {
			return inst.Get("id")
		},
		// EqualsByID compares two instances by id.
		"EqualsByID": func(inst *Instance, args ...any) (any, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("EqualsByID expects one argument, got %d", len(args))
			}
			other, ok := args[0].(*Instance)
			if !ok {
				return false, nil
			}
			mine, err := inst.Get("id")
			if err != nil {
				return nil, err
			}
			theirs, err := other.Get("id")
			if err != nil {
				return false, nil
			}
			return mine == theirs, nil
		},
	},
}

var temporalMixin = &Mixin{
	Name: "TemporalMixin",
	Methods: map[string]Method{
		// Touch refreshes the updated_at timestamp.
		"Touch": func(inst *Instance, _ ...any) (any, error) {
			return nil, inst.Set("updated_at", time.Now().UTC())
		},
		// Age returns seconds elapsed since creation.
		"Age": func(inst *Instance, _ ...any) (any, error) {
			created, err := instanceTime(inst, "created_at")
			if err != nil {
				return nil, err
			}
			return time.Since(created).Seconds(), nil
		},
		// WasModified reports whether updated_at moved past created_at.
		"WasModified": func(inst *Instance, _ ...any) (any, error) {
			created, err := instanceTime(inst, "created_at")
			if err != nil {
				return nil, err
			}
			updated, err := instanceTime(inst, "updated_at")
			if err != nil {
				return nil, err
			}
			return updated.After(created), nil
		},
	},
}

var embeddableMixin = &Mixin{
	Name: "EmbeddableMixin",
	Methods: map[string]Method{
		// EmbeddingLen returns the embedding vector dimension.
		"EmbeddingLen": func(inst *Instance, _ ...any) (any, error) {
			v, err := inst.Get("embedding")
			if err != nil {
				return nil, err
			}
			if v == nil {
				return 0, nil
			}
			vec, ok := v.([]float64)
			if !ok {
				return nil, fmt.Errorf("field \"embedding\" holds %T, want []float64", v)
			}
			return len(vec), nil
		},
	},
}

var auditableMixin = &Mixin{
	Name: "AuditableMixin",
	Methods: map[string]Method{
		"SetCreatedBy": func(inst *Instance, args ...any) (any, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("SetCreatedBy expects one argument, got %d", len(args))
			}
			return nil, inst.Set("created_by", args[0])
		},
		// SetUpdatedBy records the updater and refreshes updated_at when the
		// model is also temporal.
		"SetUpdatedBy": func(inst *Instance, args ...any) (any, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("SetUpdatedBy expects one argument, got %d", len(args))
			}
			if err := inst.Set("updated_by", args[0]); err != nil {
				return nil, err
			}
			if _, ok := inst.model.lookupMethod("Touch"); ok {
				return inst.Call("Touch")
			}
			return nil, nil
		},
		"GetAuditInfo": func(inst *Instance, _ ...any) (any, error) {
			info := make(map[string]any)
			for _, name := range []string{"created_by", "updated_by", "version"} {
				if v, err := inst.Get(name); err == nil {
					info[name] = v
				}
			}
			return info, nil
		},
	},
}

var softDeletableMixin = &Mixin{
	Name: "SoftDeletableMixin",
	Methods: map[string]Method{
		"SoftDelete": func(inst *Instance, _ ...any) (any, error) {
			if err := inst.Set("deleted_at", time.Now().UTC()); err != nil {
				return nil, err
			}
			return nil, inst.Set("is_deleted", true)
		},
		"Restore": func(inst *Instance, _ ...any) (any, error) {
			if err := inst.Set("deleted_at", nil); err != nil {
				return nil, err
			}
			return nil, inst.Set("is_deleted", false)
		},
		"IsActive": func(inst *Instance, _ ...any) (any, error) {
			v, err := inst.Get("is_deleted")
			if err != nil {
				return nil, err
			}
			deleted, _ := v.(bool)
			return !deleted, nil
		},
	},
}

var versionableMixin = &Mixin{
	Name: "VersionableMixin",
	Methods: map[string]Method{
		"IncrementVersion": func(inst *Instance, _ ...any) (any, error) {
			v, err := inst.Get("version")
			if err != nil {
				return nil, err
			}
			current, ok := v.(int)
			if !ok {
				return nil, fmt.Errorf("field \"version\" holds %T, want int", v)
			}
			if err := inst.Set("version", current+1); err != nil {
				return nil, err
			}
			return current + 1, nil
		},
		"CheckVersion": func(inst *Instance, args ...any) (any, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("CheckVersion expects one argument, got %d", len(args))
			}
			expected, ok := args[0].(int)
			if !ok {
				return nil, fmt.Errorf("CheckVersion expects an int, got %T", args[0])
			}
			v, err := inst.Get("version")
			if err != nil {
				return nil, err
			}
			return v == expected, nil
		},
	},
}

var cryptographicalMixin = &Mixin{
	Name: "CryptographicalMixin",
	Methods: map[string]Method{
		// HashContent hashes the given content, stores the hex digest in the
		// sha256 field and returns it.
		"HashContent": func(inst *Instance, args ...any) (any, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("HashContent expects one argument, got %d", len(args))
			}
			var content []byte
			switch c := args[0].(type) {
			case string:
				content = []byte(c)
			case []byte:
				content = c
			default:
				return nil, fmt.Errorf("HashContent expects string or []byte, got %T", args[0])
			}
			sum := sha256.Sum256(content)
			digest := hex.EncodeToString(sum[:])
			if err := inst.Set("sha256", digest); err != nil {
				return nil, err
			}
			return digest, nil
		},
	},
}
