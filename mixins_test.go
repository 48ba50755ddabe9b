package pydapter

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProtocolInstance(t *testing.T, protocols ...string) *Instance {
	t.Helper()
	model, err := NewFactory(nil, nil).CreateModel("Test", WithProtocols(protocols...))
	require.NoError(t, err)
	inst, err := model.New(nil)
	require.NoError(t, err)
	return inst
}

func TestIdentifiableMixin(t *testing.T) {
	inst := newProtocolInstance(t, ProtocolIdentifiable)

	id, err := inst.Call("GetID")
	require.NoError(t, err)
	assert.IsType(t, uuid.UUID{}, id)

	other := newProtocolInstance(t, ProtocolIdentifiable)
	eq, err := inst.Call("EqualsByID", other)
	require.NoError(t, err)
	assert.Equal(t, false, eq)

	require.NoError(t, other.Set("id", id))
	eq, err = inst.Call("EqualsByID", other)
	require.NoError(t, err)
	assert.Equal(t, true, eq)

	eq, err = inst.Call("EqualsByID", "not an instance")
	require.NoError(t, err)
	assert.Equal(t, false, eq)

	_, err = inst.Call("EqualsByID")
	require.Error(t, err)
}

func TestTemporalMixin(t *testing.T) {
	inst := newProtocolInstance(t, ProtocolTemporal)

	then := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, inst.Set("created_at", then))
	require.NoError(t, inst.Set("updated_at", then))

	modified, err := inst.Call("WasModified")
	require.NoError(t, err)
	assert.Equal(t, false, modified)

	_, err = inst.Call("Touch")
	require.NoError(t, err)

	modified, err = inst.Call("WasModified")
	require.NoError(t, err)
	assert.Equal(t, true, modified)

	age, err := inst.Call("Age")
	require.NoError(t, err)
	assert.InDelta(t, time.Hour.Seconds(), age.(float64), 5)
}

func TestEmbeddableMixin(t *testing.T) {
	inst := newProtocolInstance(t, ProtocolEmbeddable)

	n, err := inst.Call("EmbeddingLen")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, inst.Set("embedding", []float64{1, 2, 3}))
	n, err = inst.Call("EmbeddingLen")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestAuditableMixin(t *testing.T) {
	inst := newProtocolInstance(t, ProtocolAuditable)
	actor := uuid.New()

	_, err := inst.Call("SetCreatedBy", actor)
	require.NoError(t, err)
	_, err = inst.Call("SetUpdatedBy", actor.String())
	require.NoError(t, err)

	info, err := inst.Call("GetAuditInfo")
	require.NoError(t, err)
	audit := info.(map[string]any)
	assert.Equal(t, actor, audit["created_by"])
	assert.Equal(t, actor, audit["updated_by"])
	assert.Equal(t, 1, audit["version"])
}

func TestAuditableMixin_TouchesTemporalModels(t *testing.T) {
	inst := newProtocolInstance(t, ProtocolAuditable, ProtocolTemporal)
	require.NoError(t, inst.Set("created_at", time.Now().UTC().Add(-time.Hour)))

	_, err := inst.Call("SetUpdatedBy", uuid.New())
	require.NoError(t, err)

	modified, err := inst.Call("WasModified")
	require.NoError(t, err)
	assert.Equal(t, true, modified)
}

func TestSoftDeletableMixin(t *testing.T) {
	inst := newProtocolInstance(t, ProtocolSoftDeletable)

	active, err := inst.Call("IsActive")
	require.NoError(t, err)
	assert.Equal(t, true, active)

	_, err = inst.Call("SoftDelete")
	require.NoError(t, err)
	active, err = inst.Call("IsActive")
	require.NoError(t, err)
	assert.Equal(t, false, active)
	deletedAt, err := inst.Get("deleted_at")
	require.NoError(t, err)
	assert.NotNil(t, deletedAt)

	_, err = inst.Call("Restore")
	require.NoError(t, err)
	active, err = inst.Call("IsActive")
	require.NoError(t, err)
	assert.Equal(t, true, active)
	deletedAt, err = inst.Get("deleted_at")
	require.NoError(t, err)
	assert.Nil(t, deletedAt)
}

func TestVersionableMixin(t *testing.T) {
	inst := newProtocolInstance(t, ProtocolVersionable)

	ok, err := inst.Call("CheckVersion", 1)
	require.NoError(t, err)
	assert.Equal(t, true, ok)

	next, err := inst.Call("IncrementVersion")
	require.NoError(t, err)
	assert.Equal(t, 2, next)

	ok, err = inst.Call("CheckVersion", 1)
	require.NoError(t, err)
	assert.Equal(t, false, ok)

	_, err = inst.Call("CheckVersion", "1")
	require.Error(t, err)
}

func TestCryptographicalMixin(t *testing.T) {
	inst := newProtocolInstance(t, ProtocolCryptographical)

	digest, err := inst.Call("HashContent", "hello")
	require.NoError(t, err)

	sum := sha256.Sum256([]byte("hello"))
	assert.Equal(t, hex.EncodeToString(sum[:]), digest)

	stored, err := inst.Get("sha256")
	require.NoError(t, err)
	assert.Equal(t, digest, stored)

	_, err = inst.Call("HashContent", 42)
	require.Error(t, err)
}
