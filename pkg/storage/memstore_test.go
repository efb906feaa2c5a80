package storage

import (
	"testing"

	"github.com/cuemby/pivot/pkg/corerr"
	"github.com/cuemby/pivot/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStoreApplianceCRUD(t *testing.T) {
	s := NewMemStore()
	defer s.Close()

	a := &types.Appliance{ID: "web"}
	require.NoError(t, s.CreateAppliance(a))

	got, err := s.GetAppliance("web")
	require.NoError(t, err)
	assert.Equal(t, "web", got.ID)

	_, err = s.GetAppliance("missing")
	require.Error(t, err)
	assert.Equal(t, 404, corerr.StatusOf(err))

	all, err := s.ListAppliances()
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, s.DeleteAppliance("web"))
	all, err = s.ListAppliances()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestMemStoreFilterVolumes(t *testing.T) {
	s := NewMemStore()
	defer s.Close()

	require.NoError(t, s.CreateVolume(&types.PersistentVolume{ID: "v1", Scope: types.ScopeLocal}))
	require.NoError(t, s.CreateVolume(&types.PersistentVolume{ID: "v2", Scope: types.ScopeGlobal}))

	global, err := s.FilterVolumes(func(v *types.PersistentVolume) bool {
		return v.Scope == types.ScopeGlobal
	})
	require.NoError(t, err)
	require.Len(t, global, 1)
	assert.Equal(t, "v2", global[0].ID)
}
