package pydapter

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_FluentConstruction(t *testing.T) {
	factory := NewFactory(nil, nil)

	model, err := factory.Builder("Article").
		WithProtocol("identifiable").
		WithFamily(FamilyTemporal()).
		AddField("title", Template[string](), false).
		Build()
	require.NoError(t, err)

	assert.Equal(t, "Article", model.Name())
	assert.Equal(t, []string{"id", "created_at", "updated_at", "title"}, model.FieldNames())
}

func TestBuilder_AddFieldWithoutReplaceIsNoOp(t *testing.T) {
	factory := NewFactory(nil, nil)

	model, err := factory.Builder("Doc").
		WithProtocol("identifiable").
		AddField("id", Template[string](), false).
		Build()
	require.NoError(t, err)

	field, _ := model.Field("id")
	assert.NotEqual(t, reflect.TypeOf(""), field.Annotation().Base)
}

func TestBuilder_AddFieldWithReplaceWins(t *testing.T) {
	factory := NewFactory(nil, nil)

	model, err := factory.Builder("Doc").
		WithProtocol("identifiable").
		AddField("id", Template[string](), true).
		Build()
	require.NoError(t, err)

	field, _ := model.Field("id")
	assert.Equal(t, reflect.TypeOf(""), field.Annotation().Base)
}

func TestBuilder_RemoveField(t *testing.T) {
	factory := NewFactory(nil, nil)

	model, err := factory.Builder("Doc").
		WithFamily(FamilyEntity()).
		RemoveFields("updated_at", "created_at").
		Build()
	require.NoError(t, err)

	assert.Equal(t, []string{"id"}, model.FieldNames())
}

func TestBuilder_AddAfterRemoveRestores(t *testing.T) {
	factory := NewFactory(nil, nil)

	model, err := factory.Builder("Doc").
		WithFamily(FamilyTemporal()).
		RemoveField("updated_at").
		AddField("updated_at", Template[string](), true).
		Build()
	require.NoError(t, err)

	field, ok := model.Field("updated_at")
	require.True(t, ok)
	assert.Equal(t, reflect.TypeOf(""), field.Annotation().Base)
}

func TestBuilder_RemoveAfterAddDrops(t *testing.T) {
	factory := NewFactory(nil, nil)

	model, err := factory.Builder("Doc").
		AddField("a", Template[int]().WithDefault(0), false).
		AddField("b", Template[int]().WithDefault(0), false).
		RemoveField("a").
		Build()
	require.NoError(t, err)

	assert.Equal(t, []string{"b"}, model.FieldNames())
}

func TestBuilder_Preview(t *testing.T) {
	factory := NewFactory(nil, nil)

	b := factory.Builder("Doc").
		WithProtocol("identifiable").
		AddField("title", Template[string](), false)

	fields, err := b.Preview()
	require.NoError(t, err)
	assert.Len(t, fields, 2)
	assert.Contains(t, fields, "id")
	assert.Contains(t, fields, "title")

	// Preview does not consume the builder.
	model, err := b.Build()
	require.NoError(t, err)
	assert.Len(t, model.Fields(), 2)
}

func TestBuilder_BuildWithConfigOption(t *testing.T) {
	factory := NewFactory(nil, nil)

	model, err := factory.Builder("Doc").
		AddField("n", Template[int]().WithDefault(0), false).
		WithConfig(ModelConfig{Extra: ExtraAllow, ValidateAssignment: true}).
		Build()
	require.NoError(t, err)
	assert.Equal(t, ExtraAllow, model.Config().Extra)
}

func TestBuilder_NilFactoryUsesDefaults(t *testing.T) {
	model, err := NewModelBuilder(nil, "Doc").
		WithProtocol("identifiable").
		Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, model.FieldNames())
}
