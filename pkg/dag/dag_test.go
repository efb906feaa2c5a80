package dag

import (
	"testing"

	"github.com/cuemby/pivot/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func container(id string, deps ...string) *types.Container {
	return &types.Container{ID: id, Kind: types.KindService, Instances: 1, Dependencies: deps}
}

func TestBuildFreeFrontier(t *testing.T) {
	tests := []struct {
		name       string
		containers []*types.Container
		wantFree   []string
	}{
		{
			name: "linear chain",
			containers: []*types.Container{
				container("a"),
				container("b", "a"),
				container("c", "b"),
			},
			wantFree: []string{"a"},
		},
		{
			name: "diamond",
			containers: []*types.Container{
				container("a"),
				container("b", "a"),
				container("c", "a"),
				container("d", "b", "c"),
			},
			wantFree: []string{"a"},
		},
		{
			name: "all independent",
			containers: []*types.Container{
				container("a"),
				container("b"),
				container("c"),
			},
			wantFree: []string{"a", "b", "c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Build(tt.containers)
			require.NoError(t, err)
			var ids []string
			for _, c := range d.GetFree() {
				ids = append(ids, c.ID)
			}
			assert.ElementsMatch(t, tt.wantFree, ids)
		})
	}
}

func TestBuildRejectsCycle(t *testing.T) {
	containers := []*types.Container{
		container("a", "c"),
		container("b", "a"),
		container("c", "b"),
	}
	_, err := Build(containers)
	require.Error(t, err)
}

func TestBuildRejectsUnknownDependency(t *testing.T) {
	containers := []*types.Container{
		container("a", "ghost"),
	}
	_, err := Build(containers)
	require.Error(t, err)
}

func TestParentsAndChildren(t *testing.T) {
	d, err := Build([]*types.Container{
		container("a"),
		container("b", "a"),
		container("c", "a"),
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"a"}, d.Parents("b"))
	assert.ElementsMatch(t, []string{"b", "c"}, d.Children("a"))
	assert.Empty(t, d.Parents("a"))
}

func TestRemoveContainerFreesChildren(t *testing.T) {
	d, err := Build([]*types.Container{
		container("a"),
		container("b", "a"),
	})
	require.NoError(t, err)

	assert.Empty(t, d.Parents("a"))
	require.Len(t, d.Parents("b"), 1)

	d.RemoveContainer("a")
	assert.Empty(t, d.Parents("b"))

	var ids []string
	for _, c := range d.GetFree() {
		ids = append(ids, c.ID)
	}
	assert.ElementsMatch(t, []string{"b"}, ids)
}
