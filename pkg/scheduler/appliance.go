package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cuemby/pivot/pkg/corerr"
	"github.com/cuemby/pivot/pkg/dag"
	"github.com/cuemby/pivot/pkg/ensemble"
	"github.com/cuemby/pivot/pkg/log"
	"github.com/cuemby/pivot/pkg/manager"
	"github.com/cuemby/pivot/pkg/metrics"
	"github.com/cuemby/pivot/pkg/storage"
	"github.com/cuemby/pivot/pkg/types"
	"github.com/rs/zerolog"
)

const applianceTick = 3 * time.Second

// ApplianceLoop drives one appliance's task ensemble to completion: build
// the ensemble once, reconcile live task state every tick, and hand
// whatever the policy produces to the global scheduler. It deregisters
// itself once the ensemble is finished.
type ApplianceLoop struct {
	applianceID string

	store  storage.Store
	policy ApplianceScheduler
	global *GlobalScheduler

	serviceTasks *manager.ServiceTaskManager
	jobTasks     *manager.JobTaskManager
	general      *manager.GeneralTaskManager

	mu   sync.Mutex
	ens  *ensemble.TaskEnsemble
	done bool

	stopCh chan struct{}
	logger zerolog.Logger
}

func NewApplianceLoop(
	applianceID string,
	store storage.Store,
	policy ApplianceScheduler,
	global *GlobalScheduler,
	serviceTasks *manager.ServiceTaskManager,
	jobTasks *manager.JobTaskManager,
	general *manager.GeneralTaskManager,
) *ApplianceLoop {
	return &ApplianceLoop{
		applianceID:  applianceID,
		store:        store,
		policy:       policy,
		global:       global,
		serviceTasks: serviceTasks,
		jobTasks:     jobTasks,
		general:      general,
		stopCh:       make(chan struct{}),
		logger:       log.WithApplianceID(applianceID),
	}
}

// Ensemble returns the live task ensemble, or nil before the first
// successful build.
func (l *ApplianceLoop) Ensemble() *ensemble.TaskEnsemble {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ens
}

// Start launches the tick loop in a new goroutine.
func (l *ApplianceLoop) Start(ctx context.Context) {
	go l.run(ctx)
}

// Stop terminates the loop. Idempotent: a tick already in flight still
// completes, but the loop will not schedule another.
func (l *ApplianceLoop) Stop() {
	select {
	case <-l.stopCh:
	default:
		close(l.stopCh)
	}
}

func (l *ApplianceLoop) run(ctx context.Context) {
	ticker := time.NewTicker(applianceTick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if l.Tick(ctx) {
				l.global.Deregister(l.applianceID)
				return
			}
		case <-l.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Tick runs one cycle: build-or-reconcile, ask the policy for a plan,
// submit it if non-empty, and report whether the ensemble has finished.
// Exported so tests can drive a single cycle synchronously instead of
// waiting on the ticker.
func (l *ApplianceLoop) Tick(ctx context.Context) bool {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.ApplianceSchedulingLatency)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ens == nil {
		if err := l.build(); err != nil {
			if corerr.IsNotFound(err) {
				return true
			}
			l.logger.Warn().Err(err).Msg("appliance ensemble build failed")
			return false
		}
	} else {
		l.reconcile(ctx)
	}

	plan := l.policy.Plan(l.applianceID, l.ens, time.Now())
	if len(plan.Tasks) > 0 || len(plan.Volumes) > 0 {
		l.global.Submit(plan)
	}
	return plan.Done
}

func (l *ApplianceLoop) build() error {
	a, err := l.store.GetAppliance(l.applianceID)
	if err != nil {
		return err
	}

	d, err := dag.Build(a.Containers)
	if err != nil {
		return err
	}

	ens, err := ensemble.Build(d)
	if err != nil {
		return err
	}

	l.ens = ens
	return nil
}

// reconcile refreshes state for every task in the live frontier, grouped
// by owning container so service tasks can be reconciled together (the
// service backend reports per-instance state in one call). Containers
// whose backend state has disappeared (404, past SUBMITTED) are dropped
// from the store.
func (l *ApplianceLoop) reconcile(ctx context.Context) {
	tasks := l.ens.CurrentTasks()
	if len(tasks) == 0 {
		return
	}

	byContainer := map[string][]*types.Task{}
	for _, t := range tasks {
		byContainer[t.ContainerID] = append(byContainer[t.ContainerID], t)
	}

	a, err := l.store.GetAppliance(l.applianceID)
	if err != nil {
		return
	}

	var dropped []string
	for containerID, group := range byContainer {
		c := l.ens.ContainerOf(group[0].ID)
		if c == nil {
			continue
		}

		sort.Slice(group, func(i, j int) bool { return group[i].SeqNo < group[j].SeqNo })

		var err error
		switch c.Kind {
		case types.KindService:
			err = l.serviceTasks.Reconcile(ctx, c, group)
		case types.KindJob:
			for _, t := range group {
				if jerr := l.jobTasks.Reconcile(ctx, c, t); jerr != nil {
					err = jerr
					break
				}
				if t.MesosTaskID != "" {
					_ = l.general.UpdateTask(ctx, c, t)
				}
			}
		}

		if err != nil && corerr.IsNotFound(err) {
			// While every task is still SUBMITTED a 404 only means the
			// backend has not created the app or job yet.
			for _, t := range group {
				if t.State != types.TaskSubmitted {
					dropped = append(dropped, containerID)
					break
				}
			}
			continue
		}

		for _, t := range group {
			l.ens.UpdateTask(t)
		}
	}

	if len(dropped) == 0 {
		return
	}

	keep := a.Containers[:0]
	for _, c := range a.Containers {
		drop := false
		for _, id := range dropped {
			if c.ID == id {
				drop = true
				break
			}
		}
		if !drop {
			keep = append(keep, c)
		}
	}
	a.Containers = keep
	if err := l.store.UpdateAppliance(a); err != nil {
		l.logger.Warn().Err(err).Msg("failed to persist containers dropped by reconciliation")
	}
}
