package pydapter

import (
	"os"
	"strconv"
	"sync"
)

// Environment variables controlling the two process-wide tunables. Both are
// read once at first use and are process-lifetime constants thereafter;
// constructors accept explicit values where test isolation is needed.
const (
	// EnvFieldCacheSize bounds the number of cached composite types.
	EnvFieldCacheSize = "PYDAPTER_FIELD_CACHE_SIZE"
	// EnvFieldMetaLimit sets the metadata item count past which a template
	// logs a warning.
	EnvFieldMetaLimit = "PYDAPTER_FIELD_META_LIMIT"

	DefaultFieldCacheSize = 10000
	DefaultFieldMetaLimit = 10
)

var (
	settingsOnce   sync.Once
	fieldCacheSize int
	fieldMetaLimit int
)

func loadSettings() {
	fieldCacheSize = envInt(EnvFieldCacheSize, DefaultFieldCacheSize)
	fieldMetaLimit = envInt(EnvFieldMetaLimit, DefaultFieldMetaLimit)
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		pkgLogger().Warn().Str("var", key).Str("value", raw).Int("fallback", fallback).
			Msg("ignoring invalid environment setting")
		return fallback
	}
	return v
}

// FieldCacheSize returns the configured TypeCache capacity.
func FieldCacheSize() int {
	settingsOnce.Do(loadSettings)
	return fieldCacheSize
}

// FieldMetaLimit returns the configured metadata warning threshold.
func FieldMetaLimit() int {
	settingsOnce.Do(loadSettings)
	return fieldMetaLimit
}
