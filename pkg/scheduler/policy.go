package scheduler

import (
	"time"

	"github.com/cuemby/pivot/pkg/ensemble"
	"github.com/cuemby/pivot/pkg/types"
)

// ApplianceScheduler decides, once per tick, what a single appliance's
// per-appliance loop should hand off to the global scheduler.
type ApplianceScheduler interface {
	Plan(applianceID string, ens *ensemble.TaskEnsemble, now time.Time) *types.SchedulePlan
}

// DefaultPolicy copies a ready task's container user hints onto its system
// hints, and queues provisioning for any volume a ready task's container
// mounts that is not yet ACTIVE. Volumes resolves a declared mount to its
// PersistentVolume record (nil if not found, e.g. not yet provisioned).
type DefaultPolicy struct {
	Volumes func(id string) *types.PersistentVolume
}

func (p *DefaultPolicy) Plan(applianceID string, ens *ensemble.TaskEnsemble, now time.Time) *types.SchedulePlan {
	ready := ens.ReadyTasks(now)

	plan := &types.SchedulePlan{ApplianceID: applianceID, Done: ens.Finished()}

	seen := map[string]bool{}
	for _, t := range ready {
		c := ens.ContainerOf(t.ID)
		if c == nil {
			continue
		}
		t.SysHints = c.UserHints
		plan.Tasks = append(plan.Tasks, t)

		for _, m := range c.Mounts {
			if seen[m.Src] {
				continue
			}
			seen[m.Src] = true

			v := p.Volumes(m.Src)
			if v != nil && v.State != types.VolumeActive {
				plan.Volumes = append(plan.Volumes, v)
			}
		}
	}

	return plan
}
