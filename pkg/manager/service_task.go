package manager

import (
	"context"
	"strings"
	"time"

	"github.com/cuemby/pivot/pkg/backend"
	"github.com/cuemby/pivot/pkg/corerr"
	"github.com/cuemby/pivot/pkg/log"
	"github.com/cuemby/pivot/pkg/types"
	"github.com/rs/zerolog"
)

// ServiceTaskManager dispatches SERVICE containers to the service backend
// and reconciles their tasks' observed state.
type ServiceTaskManager struct {
	backend *backend.ServiceBackend
	logger  zerolog.Logger
}

func NewServiceTaskManager(b *backend.ServiceBackend) *ServiceTaskManager {
	return &ServiceTaskManager{backend: b, logger: log.WithComponent("service-task-manager")}
}

// Launch submits c's backend app once per container; the backend owns
// instance fan-out internally, so this is safe to call once regardless of
// c.Instances. A 409 from an already-running app is treated as success.
func (m *ServiceTaskManager) Launch(ctx context.Context, c *types.Container, task *types.Task) error {
	if err := m.backend.Submit(ctx, task.ApplianceID, c); err != nil && !corerr.IsConflict(err) {
		return err
	}
	task.State = types.TaskSubmitted
	task.MesosTaskID = ""
	task.LaunchTime = time.Now()
	return nil
}

// Reconcile pulls c's per-instance task entries from the service backend
// and writes observed state, host, and endpoints back onto tasks in order
// (the backend returns one entry per running instance, in the same order
// the app was submitted with). A 404 once the container's tasks are no
// longer all SUBMITTED means the app was deleted externally; the caller
// drops the container.
//
// It also derives c's own aggregate state from the per-instance states and
// the service's minimum capacity, cross-checked against the backend's
// reported health counters, and stamps both c.Tasks and c.State so the
// aggregate is visible to callers that only hold the container (the task
// metrics collector, the container API endpoint).
func (m *ServiceTaskManager) Reconcile(ctx context.Context, c *types.Container, tasks []*types.Task) error {
	status, err := m.backend.Status(ctx, c.ApplianceID, c.ID)
	if err != nil {
		if corerr.IsNotFound(err) {
			return err
		}
		m.logger.Warn().Err(err).Str("container", c.ID).Msg("service reconciliation failed")
		return nil
	}

	for i, task := range tasks {
		if i >= len(status.Tasks) {
			break
		}
		e := status.Tasks[i]
		task.MesosTaskID = e.ID
		task.State = backend.TaskStateFromWire(e.State)
		task.Placement.Host = e.Host
		task.Endpoints = endpointsFromHostPorts(c, e.Host, e.Ports)
	}

	wireStates := make([]string, len(status.Tasks))
	for i, e := range status.Tasks {
		wireStates[i] = e.State
	}

	c.Tasks = tasks

	var minCapacity float64
	var hasHealthCheck bool
	if c.Service != nil {
		minCapacity = c.Service.MinimumCapacity
		hasHealthCheck = c.Service.HealthCheck != nil
	}
	c.State = aggregateServiceState(wireStates, minCapacity, hasHealthCheck, status.TasksHealthy, status.TasksUnhealthy, status.Instances)
	return nil
}

// aggregateServiceState implements the service orchestrator's container
// state algorithm: any STAGING task makes the whole container STAGING; any
// STARTING task makes it PENDING; otherwise the container is RUNNING once
// the running/total task ratio reaches minCapacity, else FAILED. A
// nominally RUNNING container with a declared health check is then
// cross-checked against the backend's healthy/unhealthy instance counters:
// if the healthy ratio falls below minCapacity, the container is PENDING
// while spares are still launching, or FAILED once none are in flight.
func aggregateServiceState(wireStates []string, minCapacity float64, hasHealthCheck bool, healthy, unhealthy, instances int) types.TaskState {
	if len(wireStates) == 0 {
		return types.TaskSubmitted
	}

	var staging, starting, running int
	for _, s := range wireStates {
		switch strings.ToUpper(s) {
		case "TASK_STAGING":
			staging++
		case "TASK_STARTING":
			starting++
		case "TASK_RUNNING":
			running++
		}
	}

	var state types.TaskState
	switch {
	case staging > 0:
		state = types.TaskStaging
	case starting > 0:
		state = types.TaskPending
	case float64(running)/float64(len(wireStates)) >= minCapacity:
		state = types.TaskRunning
	default:
		state = types.TaskFailed
	}

	if state != types.TaskRunning || !hasHealthCheck || instances == 0 {
		return state
	}
	if float64(healthy)/float64(instances) >= minCapacity {
		return state
	}
	if healthy+unhealthy < instances {
		return types.TaskPending
	}
	return types.TaskFailed
}

// Remove deletes c's orchestrator-side app. A 404 is treated as already
// gone.
func (m *ServiceTaskManager) Remove(ctx context.Context, c *types.Container) error {
	err := m.backend.Remove(ctx, c.ApplianceID, c.ID)
	if err != nil && corerr.IsNotFound(err) {
		return nil
	}
	return err
}

func endpointsFromHostPorts(c *types.Container, host string, ports []int) []types.Endpoint {
	if len(ports) == 0 {
		return nil
	}
	eps := make([]types.Endpoint, 0, len(ports))
	for i, p := range ports {
		var def types.PortDef
		if i < len(c.Ports) {
			def = c.Ports[i]
		}
		eps = append(eps, types.Endpoint{
			Host:          host,
			HostPort:      p,
			ContainerPort: def.ContainerPort,
			Protocol:      def.Protocol,
			Name:          def.Name,
		})
	}
	return eps
}
