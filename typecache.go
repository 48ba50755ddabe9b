package pydapter

import (
	"container/list"
	"reflect"
	"sync"
)

// CompositeType is the resolved annotation of a field: a base type plus the
// nullable/listable modifier flags, flattened to a canonical shape. Values
// handed out by a TypeCache are referentially stable for identical inputs
// while the entry survives eviction, so annotation identity can be compared
// by pointer.
type CompositeType struct {
	Base     reflect.Type
	Nullable bool
	Listable bool
}

func (c *CompositeType) String() string {
	s := c.Base.String()
	if c.Listable {
		s = "[]" + s
	}
	if c.Nullable {
		s = "?" + s
	}
	return s
}

// Equivalent reports whether two composites describe the same shape,
// regardless of which cache produced them.
func (c *CompositeType) Equivalent(other *CompositeType) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.Base == other.Base && c.Nullable == other.Nullable && c.Listable == other.Listable
}

type typeKey struct {
	base     reflect.Type
	nullable bool
	listable bool
}

type cacheEntry struct {
	key   typeKey
	value *CompositeType
}

// TypeCache memoizes composite types so that many fields across many models
// requesting the same (base, nullable, listable) combination share one
// annotation value. The cache is bounded with LRU eviction and safe for
// concurrent use.
type TypeCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[typeKey]*list.Element
	order    *list.List // front = most recently used
}

// NewTypeCache creates a cache bounded to capacity entries. A capacity of
// zero or less uses the PYDAPTER_FIELD_CACHE_SIZE setting.
func NewTypeCache(capacity int) *TypeCache {
	if capacity <= 0 {
		capacity = FieldCacheSize()
	}
	return &TypeCache{
		capacity: capacity,
		entries:  make(map[typeKey]*list.Element),
		order:    list.New(),
	}
}

var (
	defaultCacheOnce sync.Once
	defaultCache     *TypeCache
)

// DefaultTypeCache returns the process-wide cache used by
// FieldTemplate.CreateField when no explicit cache is injected.
func DefaultTypeCache() *TypeCache {
	defaultCacheOnce.Do(func() { defaultCache = NewTypeCache(0) })
	return defaultCache
}

// GetOrCreate looks up or constructs the composite type for the given triple.
// Lookups never fail for well-formed base types; a miss simply constructs the
// composite. Callers must not assume permanence of the returned value beyond
// referential stability while the entry is cached.
func (c *TypeCache) GetOrCreate(base reflect.Type, nullable, listable bool) *CompositeType {
	key := typeKey{base: base, nullable: nullable, listable: listable}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.order.MoveToFront(el)
		return el.Value.(*cacheEntry).value
	}

	ct := &CompositeType{Base: base, Nullable: nullable, Listable: listable}
	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, value: ct})

	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
	return ct
}

// Contains reports whether the triple is currently cached, without touching
// recency.
func (c *TypeCache) Contains(base reflect.Type, nullable, listable bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[typeKey{base: base, nullable: nullable, listable: listable}]
	return ok
}

// Len returns the current number of cached composites.
func (c *TypeCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Capacity returns the configured bound.
func (c *TypeCache) Capacity() int { return c.capacity }
