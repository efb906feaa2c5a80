package lifecycle

import (
	"context"

	"github.com/cuemby/pivot/pkg/backend"
	"github.com/cuemby/pivot/pkg/corerr"
	"github.com/cuemby/pivot/pkg/dag"
	"github.com/cuemby/pivot/pkg/log"
	"github.com/cuemby/pivot/pkg/manager"
	"github.com/cuemby/pivot/pkg/scheduler"
	"github.com/cuemby/pivot/pkg/storage"
	"github.com/cuemby/pivot/pkg/types"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"
)

// Manager is the single entry point for bringing an appliance into
// existence and tearing it back down. It owns nothing an ApplianceLoop or
// manager already owns; it just sequences them: validate, provision
// volumes, persist, register a loop, and reverse all of that on delete.
type Manager struct {
	store   storage.Store
	volumes *manager.VolumeManager

	serviceTasks *manager.ServiceTaskManager
	jobTasks     *manager.JobTaskManager
	general      *manager.GeneralTaskManager
	serviceBack  *backend.ServiceBackend

	global *scheduler.GlobalScheduler

	logger zerolog.Logger
}

func NewManager(
	store storage.Store,
	volumes *manager.VolumeManager,
	serviceTasks *manager.ServiceTaskManager,
	jobTasks *manager.JobTaskManager,
	general *manager.GeneralTaskManager,
	serviceBack *backend.ServiceBackend,
	global *scheduler.GlobalScheduler,
) *Manager {
	return &Manager{
		store:        store,
		volumes:      volumes,
		serviceTasks: serviceTasks,
		jobTasks:     jobTasks,
		general:      general,
		serviceBack:  serviceBack,
		global:       global,
		logger:       log.WithComponent("lifecycle"),
	}
}

// Create validates a, provisions its declared volumes, persists it, and
// starts a per-appliance loop for it. Any failure after volume provisioning
// has begun rolls back every volume provisioned so far; the appliance
// record itself is never left half-written since CreateAppliance is the
// last step before the loop starts.
func (m *Manager) Create(ctx context.Context, a *types.Appliance) (*types.Appliance, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if _, err := dag.Build(a.Containers); err != nil {
		return nil, err
	}

	if _, err := m.store.GetAppliance(a.ID); err == nil {
		return nil, corerr.Conflict("appliance %s already exists", a.ID)
	} else if !corerr.IsNotFound(err) {
		return nil, err
	}

	var provisioned []*types.PersistentVolume
	if a.DataPersistence != nil {
		for _, v := range a.DataPersistence.Volumes {
			if err := m.volumes.Provision(a.ID, v); err != nil {
				m.rollbackVolumes(a.ID, provisioned)
				return nil, corerr.Internal(err, "failed to provision volume %s", v.ID)
			}
			provisioned = append(provisioned, v)
		}
	}

	if err := m.store.CreateAppliance(a); err != nil {
		m.rollbackVolumes(a.ID, provisioned)
		return nil, err
	}

	policy := &scheduler.DefaultPolicy{Volumes: m.lookupVolume}
	loop := scheduler.NewApplianceLoop(a.ID, m.store, policy, m.global, m.serviceTasks, m.jobTasks, m.general)
	m.global.Register(a.ID, loop)
	loop.Start(ctx)

	m.logger.Info().Str("appliance", a.ID).Int("containers", len(a.Containers)).Msg("appliance created")
	return a, nil
}

// rollbackVolumes undoes Provision for every volume already provisioned
// during a failed Create, accumulating per-volume errors rather than
// stopping at the first one so cleanup is attempted for all of them.
func (m *Manager) rollbackVolumes(applianceID string, provisioned []*types.PersistentVolume) {
	var errs error
	for _, v := range provisioned {
		if v.Scope == types.ScopeGlobal {
			errs = multierr.Append(errs, m.volumes.Unsubscribe(applianceID, v.ID))
			continue
		}
		errs = multierr.Append(errs, m.volumes.Purge(v.ID, false))
	}
	if errs != nil {
		m.logger.Warn().Err(errs).Str("appliance", applianceID).Msg("volume rollback encountered errors")
	}
}

// Global exposes the underlying scheduler registry so callers outside the
// package can inspect a specific appliance's loop state (used by the HTTP
// surface's tests and by operational tooling).
func (m *Manager) Global() *scheduler.GlobalScheduler {
	return m.global
}

func (m *Manager) lookupVolume(id string) *types.PersistentVolume {
	v, err := m.store.GetVolume(id)
	if err != nil {
		return nil
	}
	return v
}

// Delete stops a's loop, removes its containers from both backends,
// resolves its declared volumes, and issues a forced group delete against
// the service backend before handing off to a deletion enforcer that waits
// for in-flight deployments to clear. Deleting an already-deleted
// appliance is a no-op, not an error.
func (m *Manager) Delete(ctx context.Context, applianceID string, purgeData bool) error {
	a, err := m.store.GetAppliance(applianceID)
	if err != nil {
		if corerr.IsNotFound(err) {
			return nil
		}
		return err
	}

	if loop := m.global.Loop(applianceID); loop != nil {
		loop.Stop()
		m.global.Deregister(applianceID)
	}

	for _, c := range a.Containers {
		switch c.Kind {
		case types.KindService:
			if err := m.serviceTasks.Remove(ctx, c); err != nil {
				m.logger.Warn().Err(err).Str("container", c.ID).Msg("failed to remove service container")
			}
		case types.KindJob:
			for _, id := range types.SeqIDs(c) {
				task := &types.Task{ID: id, ContainerID: c.ID, ApplianceID: applianceID}
				if err := m.jobTasks.Remove(ctx, task); err != nil {
					m.logger.Warn().Err(err).Str("task", id).Msg("failed to remove job task")
				}
			}
		}
	}

	if a.DataPersistence != nil {
		for _, v := range a.DataPersistence.Volumes {
			m.resolveVolume(applianceID, v, purgeData)
		}
	}

	if err := m.serviceBack.RemoveGroup(ctx, applianceID, true); err != nil {
		m.logger.Warn().Err(err).Str("appliance", applianceID).Msg("forced group delete failed")
	}

	enforcer := newDeletionEnforcer(m.serviceBack, m.store, applianceID, m.logger)
	enforcer.Start(ctx)

	m.logger.Info().Str("appliance", applianceID).Bool("purge_data", purgeData).Msg("appliance deletion initiated")
	return nil
}

func (m *Manager) resolveVolume(applianceID string, v *types.PersistentVolume, purgeData bool) {
	if v.Scope == types.ScopeGlobal {
		if purgeData {
			if err := m.volumes.Unsubscribe(applianceID, v.ID); err != nil {
				m.logger.Warn().Err(err).Str("volume", v.ID).Msg("failed to unsubscribe from volume")
			}
		}
		return
	}

	if purgeData {
		if err := m.volumes.Purge(v.ID, false); err != nil {
			m.logger.Warn().Err(err).Str("volume", v.ID).Msg("failed to purge volume")
		}
		return
	}
	if err := m.volumes.Deprovision(v.ID); err != nil {
		m.logger.Warn().Err(err).Str("volume", v.ID).Msg("failed to deprovision volume")
	}
}
