package pydapter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopAdapter struct{ key string }

func (a nopAdapter) Key() string                                 { return a.key }
func (a nopAdapter) ToObj([]*Instance) (any, error)              { return nil, nil }
func (a nopAdapter) FromObj(*ModelType, any) ([]*Instance, error) { return nil, nil }

func TestAdapterRegistry_RegisterAndGet(t *testing.T) {
	r := NewAdapterRegistry()
	require.NoError(t, r.Register(nopAdapter{key: "x"}))

	a, err := r.Get("x")
	require.NoError(t, err)
	assert.Equal(t, "x", a.Key())

	_, err = r.Get("missing")
	require.Error(t, err)
	var re *ResolutionError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "adapter", re.Kind)
}

func TestAdapterRegistry_EmptyKeyRejected(t *testing.T) {
	r := NewAdapterRegistry()
	err := r.Register(nopAdapter{key: ""})
	require.Error(t, err)
	assert.IsType(t, &CompositionError{}, err)
}

func TestAdapterRegistry_ReplaceUnderSameKey(t *testing.T) {
	r := NewAdapterRegistry()
	require.NoError(t, r.Register(nopAdapter{key: "x"}))
	require.NoError(t, r.Register(JSONAdapter{}))
	require.NoError(t, r.Register(nopAdapter{key: "json"}))

	a, err := r.Get("json")
	require.NoError(t, err)
	assert.IsType(t, nopAdapter{}, a)
}

func TestAdapterRegistry_DefaultKeys(t *testing.T) {
	r := NewDefaultAdapterRegistry()
	assert.Equal(t, []string{"csv", "json"}, r.Keys())
}

func TestAdapterRegistry_AdaptRoundTrip(t *testing.T) {
	model := newTestModel(t,
		WithField("name", Template[string]()),
		WithField("count", Template[int]().WithDefault(0)),
	)
	inst, err := model.New(map[string]any{"name": "x", "count": 2})
	require.NoError(t, err)

	r := NewDefaultAdapterRegistry()
	out, err := r.AdaptTo([]*Instance{inst}, "json")
	require.NoError(t, err)

	back, err := r.AdaptFrom(model, out, "json")
	require.NoError(t, err)
	require.Len(t, back, 1)
	name, err := back[0].Get("name")
	require.NoError(t, err)
	assert.Equal(t, "x", name)

	_, err = r.AdaptTo([]*Instance{inst}, "missing")
	require.Error(t, err)
	_, err = r.AdaptFrom(model, out, "missing")
	require.Error(t, err)
}
