package lifecycle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cuemby/pivot/pkg/backend"
	"github.com/cuemby/pivot/pkg/cluster"
	"github.com/cuemby/pivot/pkg/config"
	"github.com/cuemby/pivot/pkg/manager"
	"github.com/cuemby/pivot/pkg/scheduler"
	"github.com/cuemby/pivot/pkg/scheduler/policy"
	"github.com/cuemby/pivot/pkg/storage"
	"github.com/cuemby/pivot/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testManager wires a Manager against a MemStore and a global scheduler
// that is never ticked, since these tests only exercise Create/Delete's own
// sequencing, not a live scheduling cycle.
func testManager(t *testing.T, serviceHandler http.HandlerFunc) (*Manager, storage.Store, *backend.ServiceBackend) {
	t.Helper()

	if serviceHandler == nil {
		serviceHandler = func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }
	}
	server := httptest.NewServer(serviceHandler)
	t.Cleanup(server.Close)

	store := storage.NewMemStore()
	serviceBack := backend.NewServiceBackend(server.URL, "/v2/apps")
	serviceTasks := manager.NewServiceTaskManager(serviceBack)
	mesosBack := backend.NewMesosBackend(server.URL, "/master")
	jobTasks := manager.NewJobTaskManager(backend.NewJobBackend(server.URL, "/scheduler/jobs"), mesosBack)
	general := manager.NewGeneralTaskManager(mesosBack)
	volumes := manager.NewVolumeManager(store)

	endpoints := config.NewLiveEndpoints(config.Default())
	poller := cluster.New(mesosBack, backend.NewExhibitorBackend(server.URL, "/exhibitor/v1/cluster/status"), endpoints, time.Minute)
	global := scheduler.NewGlobalScheduler(poller, &policy.FirstFit{}, volumes, serviceTasks, jobTasks, manager.NewTaskManagerCommon(store))

	m := NewManager(store, volumes, serviceTasks, jobTasks, general, serviceBack, global)
	return m, store, serviceBack
}

func testAppliance(id string) *types.Appliance {
	return &types.Appliance{
		ID: id,
		Containers: []*types.Container{
			{ID: "web", ApplianceID: id, Kind: types.KindService, Instances: 1, Resources: types.Resources{CPUs: 1, Mem: 128}},
		},
	}
}

func TestManagerCreatePersistsApplianceAndRegistersLoop(t *testing.T) {
	m, store, _ := testManager(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	a := testAppliance("app-a")
	created, err := m.Create(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, "app-a", created.ID)

	stored, err := store.GetAppliance("app-a")
	require.NoError(t, err)
	assert.Equal(t, "app-a", stored.ID)

	assert.NotNil(t, m.global.Loop("app-a"))
}

func TestManagerCreateRejectsDuplicateApplianceID(t *testing.T) {
	m, _, _ := testManager(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	_, err := m.Create(ctx, testAppliance("app-a"))
	require.NoError(t, err)

	_, err = m.Create(ctx, testAppliance("app-a"))
	require.Error(t, err)
}

func TestManagerCreateRejectsInvalidAppliance(t *testing.T) {
	m, _, _ := testManager(t, nil)

	bad := &types.Appliance{
		ID: "app-bad",
		Containers: []*types.Container{
			{ID: "web", ApplianceID: "app-bad", Kind: types.KindService, Instances: 1, Cmd: []string{"run"}, Args: []string{"x"}},
		},
	}
	_, err := m.Create(context.Background(), bad)
	assert.Error(t, err)
}

func TestManagerCreateLeavesNoVolumeOnFailure(t *testing.T) {
	m, store, _ := testManager(t, nil)

	a := testAppliance("app-a")
	a.DataPersistence = &types.DataPersistence{
		Volumes: []*types.PersistentVolume{{ID: "vol-1", Scope: types.ScopeLocal}},
	}

	// Pre-create the appliance directly in the store so Create's own
	// uniqueness check fails; it runs before any volume is provisioned, so
	// no volume record may be left behind.
	require.NoError(t, store.CreateAppliance(&types.Appliance{ID: "app-a"}))

	_, err := m.Create(context.Background(), a)
	assert.Error(t, err)

	_, err = store.GetVolume("vol-1")
	assert.Error(t, err)
}

func TestManagerDeleteIsIdempotentForUnknownAppliance(t *testing.T) {
	m, _, _ := testManager(t, nil)
	err := m.Delete(context.Background(), "does-not-exist", true)
	assert.NoError(t, err)
}

func TestManagerDeleteStopsLoopAndRemovesContainers(t *testing.T) {
	var removed bool
	m, store, _ := testManager(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			removed = true
		}
		w.WriteHeader(http.StatusOK)
	})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	a := testAppliance("app-a")
	_, err := m.Create(ctx, a)
	require.NoError(t, err)
	require.NotNil(t, m.global.Loop("app-a"))

	require.NoError(t, m.Delete(ctx, "app-a", true))

	assert.Nil(t, m.global.Loop("app-a"))
	assert.True(t, removed)

	// The appliance record itself is only deleted once the deletion
	// enforcer's background poll confirms no deployments still reference
	// the group; Delete returning doesn't wait on that.
	_, err = store.GetAppliance("app-a")
	assert.NoError(t, err)
}
