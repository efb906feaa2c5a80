package manager

import (
	"context"
	"time"

	"github.com/cuemby/pivot/pkg/backend"
	"github.com/cuemby/pivot/pkg/corerr"
	"github.com/cuemby/pivot/pkg/log"
	"github.com/cuemby/pivot/pkg/types"
	"github.com/rs/zerolog"
)

// JobTaskManager dispatches JOB containers to the job backend, one job
// definition per task instance, and reconciles each task's reported run
// state.
type JobTaskManager struct {
	backend *backend.JobBackend
	mesos   *backend.MesosBackend
	logger  zerolog.Logger
}

func NewJobTaskManager(b *backend.JobBackend, mesos *backend.MesosBackend) *JobTaskManager {
	return &JobTaskManager{backend: b, mesos: mesos, logger: log.WithComponent("job-task-manager")}
}

func jobName(applianceID, taskID string) string { return applianceID + "-" + taskID }

// Launch submits one job definition for task.
func (m *JobTaskManager) Launch(ctx context.Context, c *types.Container, task *types.Task) error {
	if err := m.backend.Submit(ctx, task.ApplianceID, c, task.ID, task.Env); err != nil && !corerr.IsConflict(err) {
		return err
	}
	task.State = types.TaskSubmitted
	task.MesosTaskID = ""
	task.LaunchTime = time.Now()
	return nil
}

// Reconcile pulls task's job status to learn its assigned mesos task id,
// then follows up with a second hop against the mesos master to learn the
// task's actual run state: the job backend tracks run bookkeeping
// (success/error counters, last run timestamps) but not live TASK_* state,
// which only the master reports. A FINISHED report is downgraded to
// RUNNING when the container's job schedule still has repeats remaining,
// since more runs are still ahead.
func (m *JobTaskManager) Reconcile(ctx context.Context, c *types.Container, task *types.Task) error {
	status, err := m.backend.Status(ctx, jobName(task.ApplianceID, task.ID))
	if err != nil {
		if corerr.IsNotFound(err) {
			return err
		}
		m.logger.Warn().Err(err).Str("task", task.ID).Msg("job reconciliation failed")
		return nil
	}
	if status.TaskID == "" {
		return nil
	}
	task.MesosTaskID = status.TaskID

	t, err := m.mesos.Task(ctx, status.TaskID)
	if err != nil {
		m.logger.Warn().Err(err).Str("task", task.ID).Msg("mesos task lookup failed")
		return nil
	}
	if t == nil {
		return nil
	}

	state := backend.TaskStateFromWire(t.State)
	if state == types.TaskFinished && c.Job != nil && c.Job.Repeats != 0 {
		state = types.TaskRunning
	}
	task.State = state
	return nil
}

// Remove deletes task's job definition. A 404 is treated as already gone.
func (m *JobTaskManager) Remove(ctx context.Context, task *types.Task) error {
	err := m.backend.Remove(ctx, jobName(task.ApplianceID, task.ID))
	if err != nil && corerr.IsNotFound(err) {
		return nil
	}
	return err
}
