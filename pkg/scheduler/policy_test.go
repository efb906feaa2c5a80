package scheduler

import (
	"testing"
	"time"

	"github.com/cuemby/pivot/pkg/dag"
	"github.com/cuemby/pivot/pkg/ensemble"
	"github.com/cuemby/pivot/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestEnsemble(t *testing.T, containers []*types.Container) *ensemble.TaskEnsemble {
	t.Helper()
	d, err := dag.Build(containers)
	require.NoError(t, err)
	e, err := ensemble.Build(d)
	require.NoError(t, err)
	return e
}

func TestDefaultPolicyCopiesUserHintsToSysHints(t *testing.T) {
	hints := types.ScheduleHints{Placement: types.Placement{Cloud: "aws"}}
	c := &types.Container{ID: "c1", ApplianceID: "app-a", Kind: types.KindService, Instances: 1, UserHints: hints}
	e := buildTestEnsemble(t, []*types.Container{c})

	p := &DefaultPolicy{Volumes: func(string) *types.PersistentVolume { return nil }}
	plan := p.Plan("app-a", e, time.Now())

	require.Len(t, plan.Tasks, 1)
	assert.Equal(t, hints, plan.Tasks[0].SysHints)
}

func TestDefaultPolicyQueuesInactiveVolumes(t *testing.T) {
	c := &types.Container{
		ID: "c1", ApplianceID: "app-a", Kind: types.KindService, Instances: 1,
		Mounts: []types.VolumeMount{{Src: "vol-1", Dst: "/data"}},
	}
	e := buildTestEnsemble(t, []*types.Container{c})

	vol := &types.PersistentVolume{ID: "vol-1", State: types.VolumeCreated}
	p := &DefaultPolicy{Volumes: func(id string) *types.PersistentVolume {
		if id == "vol-1" {
			return vol
		}
		return nil
	}}
	plan := p.Plan("app-a", e, time.Now())

	require.Len(t, plan.Volumes, 1)
	assert.Equal(t, "vol-1", plan.Volumes[0].ID)
}

func TestDefaultPolicySkipsActiveVolumes(t *testing.T) {
	c := &types.Container{
		ID: "c1", ApplianceID: "app-a", Kind: types.KindService, Instances: 1,
		Mounts: []types.VolumeMount{{Src: "vol-1", Dst: "/data"}},
	}
	e := buildTestEnsemble(t, []*types.Container{c})

	vol := &types.PersistentVolume{ID: "vol-1", State: types.VolumeActive}
	p := &DefaultPolicy{Volumes: func(string) *types.PersistentVolume { return vol }}
	plan := p.Plan("app-a", e, time.Now())

	assert.Empty(t, plan.Volumes)
}
