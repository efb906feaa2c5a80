package manager

import (
	"testing"

	"github.com/cuemby/pivot/pkg/storage"
	"github.com/cuemby/pivot/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVolumeManagerProvisionLocalOncePerAppliance(t *testing.T) {
	store := storage.NewMemStore()
	m := NewVolumeManager(store)

	v := &types.PersistentVolume{ID: "v1", Scope: types.ScopeLocal}
	require.NoError(t, m.Provision("app-a", v))

	got, err := store.GetVolume("v1")
	require.NoError(t, err)
	assert.Equal(t, "app-a", got.ApplianceID)
	assert.Equal(t, types.VolumeCreated, got.State)

	require.NoError(t, m.Provision("app-a", &types.PersistentVolume{ID: "v1", Scope: types.ScopeLocal}))
}

func TestVolumeManagerProvisionGlobalSubscribes(t *testing.T) {
	store := storage.NewMemStore()
	m := NewVolumeManager(store)

	v := &types.PersistentVolume{ID: "g1", Scope: types.ScopeGlobal}
	require.NoError(t, m.Provision("app-a", v))
	require.NoError(t, m.Provision("app-b", &types.PersistentVolume{ID: "g1", Scope: types.ScopeGlobal}))

	got, err := store.GetVolume("g1")
	require.NoError(t, err)
	assert.True(t, got.UsedBy["app-a"])
	assert.True(t, got.UsedBy["app-b"])
}

func TestVolumeManagerPurgeGlobalRequiresEmptyUsedBy(t *testing.T) {
	store := storage.NewMemStore()
	m := NewVolumeManager(store)

	require.NoError(t, m.Provision("app-a", &types.PersistentVolume{ID: "g1", Scope: types.ScopeGlobal}))

	err := m.Purge("g1", false)
	require.Error(t, err)

	require.NoError(t, m.Unsubscribe("app-a", "g1"))
	require.NoError(t, m.Purge("g1", false))

	_, err = store.GetVolume("g1")
	require.Error(t, err)
}

func TestVolumeManagerPurgeLocalRequiresUnmounted(t *testing.T) {
	store := storage.NewMemStore()
	m := NewVolumeManager(store)

	require.NoError(t, m.Provision("app-a", &types.PersistentVolume{ID: "v1", Scope: types.ScopeLocal}))

	require.Error(t, m.Purge("v1", true))
	require.NoError(t, m.Purge("v1", false))
}
