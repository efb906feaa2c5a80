package manager

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cuemby/pivot/pkg/backend"
	"github.com/cuemby/pivot/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// jobAndMesosServers wires a fake job backend that always reports taskID
// for its one run, and a fake mesos master that reports wireState for that
// task id, reproducing the second-hop lookup Reconcile performs.
func jobAndMesosServers(t *testing.T, taskID, wireState string) (*backend.JobBackend, *backend.MesosBackend) {
	t.Helper()

	jobSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"name":   "app-a-first-job-0",
			"state":  "running",
			"taskId": taskID,
		})
	}))
	t.Cleanup(jobSrv.Close)

	mesosSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"tasks": []map[string]string{{"id": taskID, "state": wireState}},
		})
	}))
	t.Cleanup(mesosSrv.Close)

	return backend.NewJobBackend(jobSrv.URL, "/scheduler/jobs"), backend.NewMesosBackend(mesosSrv.URL, "/master")
}

func TestJobTaskManagerReconcileHoldsRunningWhileRepeatsRemain(t *testing.T) {
	jb, mb := jobAndMesosServers(t, "mesos-task-0", "TASK_FINISHED")
	m := NewJobTaskManager(jb, mb)

	c := &types.Container{ID: "first-job", ApplianceID: "app-a", Kind: types.KindJob, Job: &types.JobSpec{Repeats: 3}}
	task := &types.Task{ID: "first-job-0", ContainerID: "first-job", ApplianceID: "app-a"}

	require.NoError(t, m.Reconcile(context.Background(), c, task))
	assert.Equal(t, types.TaskRunning, task.State)
	assert.Equal(t, "mesos-task-0", task.MesosTaskID)
}

func TestJobTaskManagerReconcileFinishesWithNoRepeats(t *testing.T) {
	jb, mb := jobAndMesosServers(t, "mesos-task-0", "TASK_FINISHED")
	m := NewJobTaskManager(jb, mb)

	c := &types.Container{ID: "first-job", ApplianceID: "app-a", Kind: types.KindJob, Job: &types.JobSpec{Repeats: 0}}
	task := &types.Task{ID: "first-job-0", ContainerID: "first-job", ApplianceID: "app-a"}

	require.NoError(t, m.Reconcile(context.Background(), c, task))
	assert.Equal(t, types.TaskFinished, task.State)
}

func TestJobTaskManagerReconcileMapsMesosStateTable(t *testing.T) {
	cases := []struct {
		wire string
		want types.TaskState
	}{
		{"TASK_STAGING", types.TaskStaging},
		{"TASK_STARTING", types.TaskStarting},
		{"TASK_RUNNING", types.TaskRunning},
		{"TASK_KILLING", types.TaskKilling},
		{"TASK_KILLED", types.TaskKilled},
		{"TASK_LOST", types.TaskLost},
		{"TASK_ERROR", types.TaskError},
	}

	for _, tc := range cases {
		t.Run(tc.wire, func(t *testing.T) {
			jb, mb := jobAndMesosServers(t, "mesos-task-0", tc.wire)
			m := NewJobTaskManager(jb, mb)

			c := &types.Container{ID: "first-job", ApplianceID: "app-a", Kind: types.KindJob, Job: &types.JobSpec{Repeats: 0}}
			task := &types.Task{ID: "first-job-0", ContainerID: "first-job", ApplianceID: "app-a"}

			require.NoError(t, m.Reconcile(context.Background(), c, task))
			assert.Equal(t, tc.want, task.State)
			assert.Equal(t, "mesos-task-0", task.MesosTaskID)
		})
	}
}

func TestJobTaskManagerReconcileNoTaskIDYetLeavesStateUntouched(t *testing.T) {
	jobSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"name": "app-a-first-job-0", "state": "queued"})
	}))
	defer jobSrv.Close()

	b := backend.NewJobBackend(jobSrv.URL, "/scheduler/jobs")
	m := NewJobTaskManager(b, backend.NewMesosBackend("http://unused.invalid", "/master"))

	c := &types.Container{ID: "first-job", ApplianceID: "app-a", Kind: types.KindJob}
	task := &types.Task{ID: "first-job-0", ContainerID: "first-job", ApplianceID: "app-a", State: types.TaskSubmitted}

	require.NoError(t, m.Reconcile(context.Background(), c, task))
	assert.Equal(t, types.TaskSubmitted, task.State)
	assert.Empty(t, task.MesosTaskID)
}
