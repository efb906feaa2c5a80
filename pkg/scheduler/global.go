package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/cuemby/pivot/pkg/cluster"
	"github.com/cuemby/pivot/pkg/log"
	"github.com/cuemby/pivot/pkg/manager"
	"github.com/cuemby/pivot/pkg/metrics"
	"github.com/cuemby/pivot/pkg/scheduler/policy"
	"github.com/cuemby/pivot/pkg/types"
	"github.com/rs/zerolog"
)

const globalTick = 3 * time.Second

// queuedVolume pairs a pending volume with the appliance that declared it,
// since PersistentVolume itself only tracks owning appliance for LOCAL
// scope and referencing appliances for GLOBAL scope.
type queuedVolume struct {
	applianceID string
	volume      *types.PersistentVolume
}

// GlobalScheduler is the singleton consumer of every per-appliance loop's
// SchedulePlan output: it fetches the latest agent snapshot, enriches
// tasks with placement-derived environment variables, runs the
// configured placement policy, and dispatches winners through the task
// and volume managers. Unplaced tasks and volumes are re-enqueued for the
// next tick.
type GlobalScheduler struct {
	loopsMu sync.Mutex
	loops   map[string]*ApplianceLoop

	queueMu     sync.Mutex
	taskQueue   []*types.Task
	volumeQueue []queuedVolume

	poller *cluster.Poller
	policy policy.Policy

	volumes      *manager.VolumeManager
	serviceTasks *manager.ServiceTaskManager
	jobTasks     *manager.JobTaskManager
	common       *manager.TaskManagerCommon

	stopCh chan struct{}
	logger zerolog.Logger
}

func NewGlobalScheduler(
	poller *cluster.Poller,
	p policy.Policy,
	volumes *manager.VolumeManager,
	serviceTasks *manager.ServiceTaskManager,
	jobTasks *manager.JobTaskManager,
	common *manager.TaskManagerCommon,
) *GlobalScheduler {
	return &GlobalScheduler{
		loops:        make(map[string]*ApplianceLoop),
		poller:       poller,
		policy:       p,
		volumes:      volumes,
		serviceTasks: serviceTasks,
		jobTasks:     jobTasks,
		common:       common,
		stopCh:       make(chan struct{}),
		logger:       log.WithComponent("global-scheduler"),
	}
}

// Register adds an appliance loop to the registry the global scheduler
// consults when enriching tasks with predecessor placement data.
func (g *GlobalScheduler) Register(applianceID string, loop *ApplianceLoop) {
	g.loopsMu.Lock()
	defer g.loopsMu.Unlock()
	g.loops[applianceID] = loop
}

// Deregister removes an appliance loop once it has finished.
func (g *GlobalScheduler) Deregister(applianceID string) {
	g.loopsMu.Lock()
	defer g.loopsMu.Unlock()
	delete(g.loops, applianceID)
}

func (g *GlobalScheduler) loopFor(applianceID string) *ApplianceLoop {
	g.loopsMu.Lock()
	defer g.loopsMu.Unlock()
	return g.loops[applianceID]
}

// Loop returns the registered loop for applianceID, or nil if none is
// registered. Exported for pkg/lifecycle to stop a specific appliance's
// loop on deletion.
func (g *GlobalScheduler) Loop(applianceID string) *ApplianceLoop {
	return g.loopFor(applianceID)
}

// Loops returns a snapshot of every currently registered appliance loop,
// for the reconciliation watchdog (pkg/reconciler) to sweep.
func (g *GlobalScheduler) Loops() []*ApplianceLoop {
	g.loopsMu.Lock()
	defer g.loopsMu.Unlock()
	out := make([]*ApplianceLoop, 0, len(g.loops))
	for _, l := range g.loops {
		out = append(out, l)
	}
	return out
}

// Submit enqueues a per-appliance tick's plan for the next global tick.
func (g *GlobalScheduler) Submit(plan *types.SchedulePlan) {
	g.queueMu.Lock()
	defer g.queueMu.Unlock()
	g.taskQueue = append(g.taskQueue, plan.Tasks...)
	for _, v := range plan.Volumes {
		g.volumeQueue = append(g.volumeQueue, queuedVolume{applianceID: plan.ApplianceID, volume: v})
	}
}

// Start launches the tick loop in a new goroutine.
func (g *GlobalScheduler) Start(ctx context.Context) {
	go g.run(ctx)
}

// Stop terminates the tick loop.
func (g *GlobalScheduler) Stop() {
	close(g.stopCh)
}

func (g *GlobalScheduler) run(ctx context.Context) {
	ticker := time.NewTicker(globalTick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.tick(ctx)
		case <-g.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (g *GlobalScheduler) tick(ctx context.Context) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.GlobalSchedulingLatency)

	agents, ok := g.poller.Snapshot()
	if !ok || len(agents) == 0 {
		return
	}

	tasks, volumes := g.drain()
	if len(tasks) == 0 && len(volumes) == 0 {
		return
	}

	for _, t := range tasks {
		g.enrich(t)
	}

	pv := make([]*types.PersistentVolume, 0, len(volumes))
	for _, qv := range volumes {
		pv = append(pv, qv.volume)
	}

	result := g.policy.Schedule(tasks, pv, agents)

	for _, v := range result.PlacedVolumes {
		applianceID := volumeAppliance(volumes, v)
		if err := g.volumes.Provision(applianceID, v); err != nil {
			g.logger.Warn().Err(err).Str("volume", v.ID).Msg("volume provisioning failed")
			continue
		}
		if err := g.volumes.Activate(v.ID); err != nil {
			g.logger.Warn().Err(err).Str("volume", v.ID).Msg("volume activation failed")
		}
	}

	for _, t := range result.PlacedTasks {
		g.dispatch(ctx, t)
	}

	g.requeue(result.UnplacedTasks, result.UnplacedVolumes, volumes)
}

func (g *GlobalScheduler) drain() ([]*types.Task, []queuedVolume) {
	g.queueMu.Lock()
	defer g.queueMu.Unlock()
	tasks := g.taskQueue
	volumes := g.volumeQueue
	g.taskQueue = nil
	g.volumeQueue = nil
	return tasks, volumes
}

func (g *GlobalScheduler) requeue(tasks []*types.Task, volumes []*types.PersistentVolume, orig []queuedVolume) {
	if len(tasks) == 0 && len(volumes) == 0 {
		return
	}
	g.queueMu.Lock()
	defer g.queueMu.Unlock()
	g.taskQueue = append(g.taskQueue, tasks...)
	for _, v := range volumes {
		g.volumeQueue = append(g.volumeQueue, queuedVolume{applianceID: volumeAppliance(orig, v), volume: v})
	}
}

func volumeAppliance(volumes []queuedVolume, v *types.PersistentVolume) string {
	for _, qv := range volumes {
		if qv.volume.ID == v.ID {
			return qv.applianceID
		}
	}
	return ""
}

// enrich stamps DATA_SRC_CLOUD/REGION/ZONE/HOST onto t.Env, derived from
// the placement of its predecessors in the owning appliance's ensemble.
// When more than one predecessor is placed, the one visited last wins;
// t.Dependencies is built from map keys, so which one that is is not
// defined.
func (g *GlobalScheduler) enrich(t *types.Task) {
	loop := g.loopFor(t.ApplianceID)
	if loop == nil {
		return
	}
	ens := loop.Ensemble()
	if ens == nil {
		return
	}

	for _, depID := range t.Dependencies {
		pred := ens.Task(depID)
		if pred == nil || pred.Placement.Empty() {
			continue
		}
		if t.Env == nil {
			t.Env = map[string]string{}
		}
		setIfNotEmpty(t.Env, "DATA_SRC_CLOUD", pred.Placement.Cloud)
		setIfNotEmpty(t.Env, "DATA_SRC_REGION", pred.Placement.Region)
		setIfNotEmpty(t.Env, "DATA_SRC_ZONE", pred.Placement.Zone)
		setIfNotEmpty(t.Env, "DATA_SRC_HOST", pred.Placement.Host)
	}
}

func setIfNotEmpty(env map[string]string, key, value string) {
	if value != "" {
		env[key] = value
	}
}

func (g *GlobalScheduler) dispatch(ctx context.Context, t *types.Task) {
	loop := g.loopFor(t.ApplianceID)
	if loop == nil {
		return
	}
	ens := loop.Ensemble()
	if ens == nil {
		return
	}
	c := ens.ContainerOf(t.ID)
	if c == nil {
		return
	}

	var err error
	switch c.Kind {
	case types.KindService:
		err = g.serviceTasks.Launch(ctx, c, t)
	case types.KindJob:
		err = g.jobTasks.Launch(ctx, c, t)
	}
	if err != nil {
		g.logger.Warn().Err(err).Str("task", t.ID).Msg("task dispatch failed")
		return
	}
	metrics.TasksScheduled.Inc()
	ens.UpdateTask(t)

	if g.common == nil {
		return
	}
	hints := types.ScheduleHints{Placement: t.Placement, Preemptible: c.SysHints.Preemptible}
	if err := g.common.UpdateSysHints(c.ID, hints); err != nil {
		g.logger.Warn().Err(err).Str("container", c.ID).Msg("sys hint update failed")
	}
}
