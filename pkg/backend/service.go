package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/cuemby/pivot/pkg/corerr"
	"github.com/cuemby/pivot/pkg/types"
)

// ServiceBackend submits and queries SERVICE-kind containers against the
// long-running service orchestrator.
type ServiceBackend struct {
	client   *Client
	endpoint string
}

func NewServiceBackend(baseURL, endpoint string) *ServiceBackend {
	return &ServiceBackend{client: NewClient("service", baseURL), endpoint: endpoint}
}

// Submit creates or updates the orchestrator-side app for a SERVICE
// container, one app per container (not per task): the orchestrator owns
// instance fan-out internally.
func (b *ServiceBackend) Submit(ctx context.Context, applianceID string, c *types.Container) error {
	app := &wireApp{
		ID:         fmt.Sprintf("/%s/%s", applianceID, c.ID),
		Cmd:        strings.Join(c.Cmd, " "),
		Args:       c.Args,
		CPUs:       c.Resources.CPUs,
		Mem:        c.Resources.Mem,
		Disk:       c.Resources.Disk,
		GPUs:       c.Resources.GPU,
		Instances:  c.Instances,
		Env:        c.Env,
		Network:    string(c.NetworkMode),
		ForcePull:  c.ForcePullImage,
		Privileged: c.IsPrivileged,
	}
	if c.Image != "" {
		app.Container = &wireContainer{
			Type:   "DOCKER",
			Docker: &wireDocker{Image: c.Image, Network: string(c.NetworkMode)},
		}
		for _, p := range c.Ports {
			app.Container.Docker.PortMaps = append(app.Container.Docker.PortMaps, wirePortMap{
				ContainerPort: p.ContainerPort,
				Protocol:      p.Protocol,
			})
		}
		app.Container.Docker.Parameters = VolumeDriverParams(c.VolumeType, c.Mounts)
	}
	if c.HealthCheck != nil {
		app.HealthChecks = []wireHealthCheck{translateHealthCheck(c.HealthCheck)}
	}

	var out wireApp
	return b.client.Do(ctx, "POST", b.endpoint, app, &out)
}

// Status returns the current per-instance task states for a container,
// plus the aggregate instance/health counters the reconciler needs to
// derive the container's overall state.
func (b *ServiceBackend) Status(ctx context.Context, applianceID string, containerID string) (*wireAppStatus, error) {
	var out wireAppStatus
	path := fmt.Sprintf("%s/%s/%s", b.endpoint, applianceID, containerID)
	if err := b.client.Do(ctx, "GET", path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Remove deletes the orchestrator-side app for a container.
func (b *ServiceBackend) Remove(ctx context.Context, applianceID, containerID string) error {
	path := fmt.Sprintf("%s/%s/%s", b.endpoint, applianceID, containerID)
	return b.client.Do(ctx, "DELETE", path, nil, nil)
}

// RemoveGroup deletes every app under an appliance's group path in one
// call. force=true skips the backend's own in-flight-deployment check, used
// for the first delete attempt; the deletion enforcer later issues a
// non-forced call once no deployment still affects the group.
func (b *ServiceBackend) RemoveGroup(ctx context.Context, applianceID string, force bool) error {
	path := fmt.Sprintf("/groups/%s", applianceID)
	if force {
		path += "?force=true"
	}
	err := b.client.Do(ctx, "DELETE", path, nil, nil)
	if err != nil && corerr.IsNotFound(err) {
		return nil
	}
	return err
}

// Deployments lists in-flight deployments still affecting an appliance's
// group path, used by the deletion enforcer to know when it's safe to
// issue the final non-forced group delete.
func (b *ServiceBackend) Deployments(ctx context.Context, applianceID string) ([]wireDeployment, error) {
	var out []wireDeployment
	if err := b.client.Do(ctx, "GET", "/deployments", nil, &out); err != nil {
		return nil, err
	}

	group := "/" + applianceID + "/"
	var affecting []wireDeployment
	for _, d := range out {
		for _, id := range d.AffectedIDs {
			if strings.HasPrefix(id, group) {
				affecting = append(affecting, d)
				break
			}
		}
	}
	return affecting, nil
}

// translateHealthCheck maps a container's declared health probe onto the
// wire shape the service orchestrator expects; it performs the probing
// itself, so PIVOT never dials the container directly.
func translateHealthCheck(hc *types.HealthCheck) wireHealthCheck {
	w := wireHealthCheck{
		Protocol:               string(hc.Type),
		IntervalSeconds:        int(hc.Interval.Seconds()),
		TimeoutSeconds:         int(hc.Timeout.Seconds()),
		MaxConsecutiveFailures: hc.Retries,
	}
	switch hc.Type {
	case types.HealthCheckHTTP, types.HealthCheckTCP:
		w.Path = hc.Endpoint
	case types.HealthCheckExec:
		w.Command = strings.Join(hc.Command, " ")
	}
	return w
}

// TaskStateFromWire maps the service orchestrator's task state vocabulary
// onto PIVOT's TaskState lattice.
func TaskStateFromWire(s string) types.TaskState {
	switch strings.ToUpper(s) {
	case "TASK_STAGING":
		return types.TaskStaging
	case "TASK_STARTING":
		return types.TaskStarting
	case "TASK_RUNNING":
		return types.TaskRunning
	case "TASK_FINISHED":
		return types.TaskFinished
	case "TASK_FAILED":
		return types.TaskFailed
	case "TASK_KILLED":
		return types.TaskKilled
	case "TASK_KILLING":
		return types.TaskKilling
	case "TASK_LOST":
		return types.TaskLost
	case "TASK_ERROR":
		return types.TaskError
	case "TASK_DROPPED":
		return types.TaskDropped
	case "TASK_UNREACHABLE":
		return types.TaskUnreachable
	case "TASK_GONE":
		return types.TaskGone
	default:
		return types.TaskUnknown
	}
}
