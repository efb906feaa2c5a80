package scheduler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cuemby/pivot/pkg/backend"
	"github.com/cuemby/pivot/pkg/ensemble"
	"github.com/cuemby/pivot/pkg/manager"
	"github.com/cuemby/pivot/pkg/storage"
	"github.com/cuemby/pivot/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPolicy returns its fixed plan when one is set, and otherwise an empty
// plan whose Done mirrors the ensemble, so ApplianceLoop tests can assert
// on build/reconcile wiring without depending on DefaultPolicy's own
// behavior.
type stubPolicy struct {
	plan *types.SchedulePlan
}

func (s *stubPolicy) Plan(applianceID string, ens *ensemble.TaskEnsemble, now time.Time) *types.SchedulePlan {
	if s.plan != nil {
		return s.plan
	}
	return &types.SchedulePlan{ApplianceID: applianceID, Done: ens.Finished()}
}

func newTestManagers(t *testing.T, serviceHandler, jobHandler http.HandlerFunc) (*manager.ServiceTaskManager, *manager.JobTaskManager, *manager.GeneralTaskManager) {
	t.Helper()

	if serviceHandler == nil {
		serviceHandler = func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode([]map[string]string{})
		}
	}
	if jobHandler == nil {
		jobHandler = func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]string{"state": "idle"})
		}
	}

	serviceSrv := httptest.NewServer(serviceHandler)
	t.Cleanup(serviceSrv.Close)
	jobSrv := httptest.NewServer(jobHandler)
	t.Cleanup(jobSrv.Close)
	mesosSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"tasks": []interface{}{}})
	}))
	t.Cleanup(mesosSrv.Close)

	sb := backend.NewServiceBackend(serviceSrv.URL, "/v2/apps")
	jb := backend.NewJobBackend(jobSrv.URL, "/scheduler/jobs")
	mb := backend.NewMesosBackend(mesosSrv.URL, "/master")

	return manager.NewServiceTaskManager(sb), manager.NewJobTaskManager(jb, mb), manager.NewGeneralTaskManager(mb)
}

func testAppliance(id string) *types.Appliance {
	return &types.Appliance{
		ID: id,
		Containers: []*types.Container{
			{ID: "web", ApplianceID: id, Kind: types.KindService, Instances: 1},
		},
	}
}

func TestApplianceLoopTickBuildsEnsembleFromStore(t *testing.T) {
	store := storage.NewMemStore()
	require.NoError(t, store.CreateAppliance(testAppliance("app-a")))

	serviceTasks, jobTasks, general := newTestManagers(t, nil, nil)
	policy := &stubPolicy{}
	loop := NewApplianceLoop("app-a", store, policy, nil, serviceTasks, jobTasks, general)

	done := loop.Tick(context.Background())

	assert.False(t, done)
	require.NotNil(t, loop.Ensemble())
	assert.Len(t, loop.Ensemble().CurrentTasks(), 1)
}

func TestApplianceLoopTickStopsWhenApplianceGone(t *testing.T) {
	store := storage.NewMemStore()

	serviceTasks, jobTasks, general := newTestManagers(t, nil, nil)
	loop := NewApplianceLoop("missing", store, &stubPolicy{}, nil, serviceTasks, jobTasks, general)

	done := loop.Tick(context.Background())

	assert.True(t, done)
	assert.Nil(t, loop.Ensemble())
}

func TestApplianceLoopTickSubmitsPlanToGlobalScheduler(t *testing.T) {
	store := storage.NewMemStore()
	require.NoError(t, store.CreateAppliance(testAppliance("app-a")))

	serviceTasks, jobTasks, general := newTestManagers(t, nil, nil)

	global := NewGlobalScheduler(nil, nil, nil, serviceTasks, jobTasks, manager.NewTaskManagerCommon(store))
	loop := NewApplianceLoop("app-a", store, &DefaultPolicy{Volumes: func(string) *types.PersistentVolume { return nil }}, global, serviceTasks, jobTasks, general)
	global.Register("app-a", loop)

	loop.Tick(context.Background())

	tasks, _ := global.drain()
	require.Len(t, tasks, 1)
	assert.Equal(t, "web-0", tasks[0].ID)
}

func TestApplianceLoopTickReportsDoneWhenEnsembleFinished(t *testing.T) {
	store := storage.NewMemStore()
	require.NoError(t, store.CreateAppliance(testAppliance("app-a")))

	serviceTasks, jobTasks, general := newTestManagers(t, nil, nil)
	policy := &stubPolicy{plan: &types.SchedulePlan{ApplianceID: "app-a", Done: true}}
	loop := NewApplianceLoop("app-a", store, policy, nil, serviceTasks, jobTasks, general)

	done := loop.Tick(context.Background())
	assert.True(t, done)
}

func TestApplianceLoopReconcileDropsContainerOn404(t *testing.T) {
	store := storage.NewMemStore()
	a := testAppliance("app-a")
	require.NoError(t, store.CreateAppliance(a))

	serviceTasks, jobTasks, general := newTestManagers(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}, nil)

	loop := NewApplianceLoop("app-a", store, &stubPolicy{}, nil, serviceTasks, jobTasks, general)

	// First tick builds the ensemble.
	loop.Tick(context.Background())
	require.Len(t, loop.Ensemble().CurrentTasks(), 1)

	// Move web past SUBMITTED, so a 404 reads as an external deletion.
	loop.Ensemble().CurrentTasks()[0].State = types.TaskRunning

	// Second tick reconciles against the 404 service backend and drops web.
	loop.Tick(context.Background())

	updated, err := store.GetAppliance("app-a")
	require.NoError(t, err)
	assert.Empty(t, updated.Containers)
}
