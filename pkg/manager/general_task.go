package manager

import (
	"context"

	"github.com/cuemby/pivot/pkg/backend"
	"github.com/cuemby/pivot/pkg/log"
	"github.com/cuemby/pivot/pkg/types"
	"github.com/rs/zerolog"
)

// GeneralTaskManager refreshes placement and endpoints for tasks that
// already carry a mesos task id, independent of which backend dispatched
// them. Appliance loops call it after job reconciliation, which learns a
// job task's run state from the master but not its placement or
// endpoints; service tasks get those from the service backend instead.
type GeneralTaskManager struct {
	mesos  *backend.MesosBackend
	logger zerolog.Logger
}

func NewGeneralTaskManager(mesos *backend.MesosBackend) *GeneralTaskManager {
	return &GeneralTaskManager{mesos: mesos, logger: log.WithComponent("general-task-manager")}
}

// UpdateTask looks up task.MesosTaskID on the cluster master and updates
// placement and endpoints in place. A task with no mesos task id yet, or
// one the master no longer knows about, is left untouched.
func (m *GeneralTaskManager) UpdateTask(ctx context.Context, c *types.Container, task *types.Task) error {
	if task.MesosTaskID == "" {
		return nil
	}
	t, err := m.mesos.Task(ctx, task.MesosTaskID)
	if err != nil {
		m.logger.Warn().Err(err).Str("task", task.ID).Msg("mesos task lookup failed")
		return nil
	}
	if t == nil {
		return nil
	}

	task.Placement.Host = t.SlaveID

	var eps []types.Endpoint
	for i, p := range t.Discovery.Ports.Ports {
		var def types.PortDef
		if i < len(c.Ports) {
			def = c.Ports[i]
		}
		eps = append(eps, types.Endpoint{ContainerPort: def.ContainerPort, HostPort: p.Number, Protocol: p.Protocol, Name: p.Name})
	}
	for _, pm := range t.Container.Docker.PortMappings {
		eps = append(eps, types.Endpoint{ContainerPort: pm.ContainerPort, HostPort: pm.HostPort, Protocol: pm.Protocol})
	}
	if len(eps) > 0 {
		task.Endpoints = eps
	}
	return nil
}
