package pydapter

import (
	"errors"
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactory_CreateModelFromProtocols(t *testing.T) {
	factory := NewFactory(nil, nil)

	model, err := factory.CreateModel("Doc", WithProtocols("identifiable", "temporal"))
	require.NoError(t, err)

	assert.Equal(t, "Doc", model.Name())
	assert.Equal(t, []string{"id", "created_at", "updated_at"}, model.FieldNames())
	assert.Len(t, model.Mixins(), 2)
}

func TestFactory_CreateModelDeterministic(t *testing.T) {
	factory := NewFactory(nil, nil)

	build := func() *ModelType {
		m, err := factory.CreateModel("Doc",
			WithProtocols("temporal", "identifiable"),
			WithFamily(FamilySoftDelete()),
			WithField("title", Template[string]()),
		)
		require.NoError(t, err)
		return m
	}

	a, b := build(), build()
	assert.Equal(t, a.FieldNames(), b.FieldNames())
	for _, name := range a.FieldNames() {
		fa, _ := a.Field(name)
		fb, _ := b.Field(name)
		assert.Same(t, fa.Annotation(), fb.Annotation(), "annotation identity for %s", name)
	}
}

func TestFactory_OverrideWinsRegardlessOfPosition(t *testing.T) {
	factory := NewFactory(nil, nil)

	model, err := factory.CreateModel("Doc",
		WithField("id", Template[string]()),
		WithProtocols("identifiable"),
	)
	require.NoError(t, err)

	field, ok := model.Field("id")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeOf(""), field.Annotation().Base)
	// Overrides keep the position of first mention.
	assert.Equal(t, []string{"id"}, model.FieldNames())
}

func TestFactory_WithoutFieldsThenOverrideReAdds(t *testing.T) {
	factory := NewFactory(nil, nil)

	model, err := factory.CreateModel("Doc",
		WithProtocols("temporal"),
		WithoutFields("updated_at"),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"created_at"}, model.FieldNames())

	model, err = factory.CreateModel("Doc",
		WithProtocols("temporal"),
		WithoutFields("updated_at"),
		WithField("updated_at", Template[string]()),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"created_at", "updated_at"}, model.FieldNames())
}

func TestFactory_FamilyMergeLastDefaultWins(t *testing.T) {
	factory := NewFactory(nil, nil)
	famA := FieldFamily{"x": Template[int]().WithDefault(1)}
	famB := FieldFamily{"x": Template[int]().WithDefault(2)}

	model, err := factory.CreateModel("M", WithFamily(famA), WithFamily(famB))
	require.NoError(t, err)

	inst, err := model.New(nil)
	require.NoError(t, err)
	x, err := inst.Get("x")
	require.NoError(t, err)
	assert.Equal(t, 2, x)
}

func TestFactory_UnknownProtocolFails(t *testing.T) {
	factory := NewFactory(nil, nil)

	_, err := factory.CreateModel("Doc", WithProtocols("identifiable", "bogus"))
	require.Error(t, err)
	var re *ResolutionError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "bogus", re.Name)
}

func TestFactory_EmptyNameFails(t *testing.T) {
	factory := NewFactory(nil, nil)
	_, err := factory.CreateModel("")
	require.Error(t, err)
	assert.IsType(t, &CompositionError{}, err)
}

func TestFactory_NilOverrideTemplateFails(t *testing.T) {
	factory := NewFactory(nil, nil)
	_, err := factory.CreateModel("Doc", WithField("x", nil))
	require.Error(t, err)
	assert.IsType(t, &CompositionError{}, err)
}

func TestFactory_InjectedCacheAndRegistry(t *testing.T) {
	cache := NewTypeCache(32)
	registry := NewProtocolRegistry()
	registry.Register("named", FieldFamily{"name": Template[string]()}, nil)

	factory := NewFactory(cache, registry)
	assert.Same(t, cache, factory.Cache())
	assert.Same(t, registry, factory.Registry())

	model, err := factory.CreateModel("Thing", WithProtocols("named"))
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, model.FieldNames())

	// Built-ins live in the default registry, not this one.
	_, err = factory.CreateModel("Thing", WithProtocols("identifiable"))
	require.Error(t, err)

	// Materialization went through the injected cache.
	assert.True(t, cache.Contains(reflect.TypeOf(""), false, false))
}

func TestFactory_ModelConfigDefaultsAndOverride(t *testing.T) {
	factory := NewFactory(nil, nil)

	model, err := factory.CreateModel("Doc", WithField("a", Template[int]().WithDefault(0)))
	require.NoError(t, err)
	assert.Equal(t, DefaultModelConfig(), model.Config())

	strict := ModelConfig{ValidateAssignment: false, Strict: true, Extra: ExtraForbid}
	model, err = factory.CreateModel("Doc",
		WithField("a", Template[int]().WithDefault(0)),
		WithConfig(strict),
	)
	require.NoError(t, err)
	assert.Equal(t, strict, model.Config())
}

func TestFactory_EntityScenario(t *testing.T) {
	factory := NewFactory(nil, nil)

	model, err := factory.CreateModel("User",
		WithFamily(FamilyEntity()),
		WithField("email", Template[string]()),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"created_at", "id", "updated_at", "email"}, model.FieldNames())

	inst, err := model.New(map[string]any{"email": "a@b.c"})
	require.NoError(t, err)

	id, err := inst.Get("id")
	require.NoError(t, err)
	assert.IsType(t, uuid.UUID{}, id)
}
