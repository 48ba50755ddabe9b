package pydapter

import (
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeCache_PointerStability(t *testing.T) {
	cache := NewTypeCache(16)

	first := cache.GetOrCreate(reflect.TypeOf(""), true, false)
	second := cache.GetOrCreate(reflect.TypeOf(""), true, false)

	assert.Same(t, first, second)
	assert.Equal(t, 1, cache.Len())
}

func TestTypeCache_DistinctTriples(t *testing.T) {
	cache := NewTypeCache(16)

	plain := cache.GetOrCreate(reflect.TypeOf(""), false, false)
	nullable := cache.GetOrCreate(reflect.TypeOf(""), true, false)
	listable := cache.GetOrCreate(reflect.TypeOf(""), false, true)

	assert.NotSame(t, plain, nullable)
	assert.NotSame(t, plain, listable)
	assert.Equal(t, 3, cache.Len())

	assert.Equal(t, "string", plain.String())
	assert.Equal(t, "?string", nullable.String())
	assert.Equal(t, "[]string", listable.String())

	both := cache.GetOrCreate(reflect.TypeOf(0.0), true, true)
	assert.Equal(t, "?[]float64", both.String())
}

func TestTypeCache_LRUEviction(t *testing.T) {
	cache := NewTypeCache(2)

	intType := reflect.TypeOf(0)
	strType := reflect.TypeOf("")
	boolType := reflect.TypeOf(false)

	cache.GetOrCreate(intType, false, false)
	cache.GetOrCreate(strType, false, false)

	// Touch int so string becomes the least recently used entry.
	cache.GetOrCreate(intType, false, false)
	cache.GetOrCreate(boolType, false, false)

	assert.True(t, cache.Contains(intType, false, false))
	assert.False(t, cache.Contains(strType, false, false))
	assert.True(t, cache.Contains(boolType, false, false))
	assert.Equal(t, 2, cache.Len())
}

func TestTypeCache_EquivalentAcrossCaches(t *testing.T) {
	a := NewTypeCache(4)
	b := NewTypeCache(4)

	ca := a.GetOrCreate(reflect.TypeOf(time.Time{}), true, false)
	cb := b.GetOrCreate(reflect.TypeOf(time.Time{}), true, false)

	assert.NotSame(t, ca, cb)
	assert.True(t, ca.Equivalent(cb))
	assert.False(t, ca.Equivalent(&CompositeType{Base: reflect.TypeOf("")}))
}

func TestTypeCache_DefaultCapacity(t *testing.T) {
	cache := NewTypeCache(0)
	assert.Equal(t, FieldCacheSize(), cache.Capacity())
}

func BenchmarkTypeCache_Hit(b *testing.B) {
	cache := NewTypeCache(64)
	strType := reflect.TypeOf("")
	cache.GetOrCreate(strType, true, false)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cache.GetOrCreate(strType, true, false)
	}
}

func BenchmarkFactory_CreateModel(b *testing.B) {
	factory := NewFactory(nil, nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := factory.CreateModel("Doc",
			WithProtocols("identifiable", "temporal"),
			WithField("title", Template[string]()),
		); err != nil {
			b.Fatal(err)
		}
	}
}

func TestTypeCache_ConcurrentGetOrCreate(t *testing.T) {
	cache := NewTypeCache(64)
	strType := reflect.TypeOf("")

	const workers = 32
	results := make([]*CompositeType, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				results[idx] = cache.GetOrCreate(strType, true, true)
			}
		}(i)
	}
	wg.Wait()

	require.NotNil(t, results[0])
	for _, r := range results[1:] {
		assert.Same(t, results[0], r)
	}
	assert.Equal(t, 1, cache.Len())
}
