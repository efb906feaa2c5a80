package reconciler

import (
	"context"
	"testing"
	"time"

	"github.com/cuemby/pivot/pkg/scheduler"
	"github.com/cuemby/pivot/pkg/storage"
	"github.com/cuemby/pivot/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	loops []*scheduler.ApplianceLoop
}

func (f *fakeLister) Loops() []*scheduler.ApplianceLoop { return f.loops }

// newTestLoop ticks a fresh ApplianceLoop once, which builds its ensemble
// from the store and queues the ready tasks on an idle global scheduler (no
// backend managers are touched on a first tick, since the loop only
// reconciles once an ensemble already exists).
func newTestLoop(t *testing.T, applianceID string, c *types.Container) *scheduler.ApplianceLoop {
	t.Helper()
	store := storage.NewMemStore()
	require.NoError(t, store.CreateAppliance(&types.Appliance{ID: applianceID, Containers: []*types.Container{c}}))

	global := scheduler.NewGlobalScheduler(nil, nil, nil, nil, nil, nil)
	loop := scheduler.NewApplianceLoop(applianceID, store, &scheduler.DefaultPolicy{
		Volumes: func(string) *types.PersistentVolume { return nil },
	}, global, nil, nil, nil)

	require.False(t, loop.Tick(context.Background()))
	require.NotNil(t, loop.Ensemble())
	return loop
}

func TestWatchdogResetsTaskStuckPastMaxLaunchDelay(t *testing.T) {
	c := &types.Container{ID: "web", ApplianceID: "app-a", Kind: types.KindService, Instances: 1}
	loop := newTestLoop(t, "app-a", c)

	ens := loop.Ensemble()
	task := ens.CurrentTasks()[0]
	task.State = types.TaskSubmitted
	task.MesosTaskID = "mesos-123"
	task.LaunchTime = time.Now().Add(-2 * time.Minute)
	ens.UpdateTask(task)

	w := NewWatchdog(&fakeLister{loops: []*scheduler.ApplianceLoop{loop}})
	now := time.Now()
	w.sweep(now)

	reset := ens.Task("web-0")
	assert.Empty(t, reset.MesosTaskID)
	assert.True(t, reset.LaunchTime.IsZero())
}

func TestWatchdogSweepIgnoresFreshSubmittedTasks(t *testing.T) {
	c := &types.Container{ID: "web", ApplianceID: "app-a", Kind: types.KindService, Instances: 1}
	loop := newTestLoop(t, "app-a", c)

	ens := loop.Ensemble()
	task := ens.CurrentTasks()[0]
	task.State = types.TaskSubmitted
	task.MesosTaskID = "mesos-123"
	task.LaunchTime = time.Now()
	ens.UpdateTask(task)

	w := NewWatchdog(&fakeLister{loops: []*scheduler.ApplianceLoop{loop}})
	w.sweep(time.Now())

	untouched := ens.Task("web-0")
	assert.Equal(t, "mesos-123", untouched.MesosTaskID)
}

func TestWatchdogSweepSkipsLoopWithNoEnsembleYet(t *testing.T) {
	store := storage.NewMemStore()
	loop := scheduler.NewApplianceLoop("app-b", store, &scheduler.DefaultPolicy{
		Volumes: func(string) *types.PersistentVolume { return nil },
	}, nil, nil, nil, nil)

	w := NewWatchdog(&fakeLister{loops: []*scheduler.ApplianceLoop{loop}})
	assert.NotPanics(t, func() { w.sweep(time.Now()) })
}
