package reconciler

import (
	"context"
	"time"

	"github.com/cuemby/pivot/pkg/log"
	"github.com/cuemby/pivot/pkg/metrics"
	"github.com/cuemby/pivot/pkg/scheduler"
	"github.com/cuemby/pivot/pkg/types"
	"github.com/rs/zerolog"
)

const (
	sweepInterval  = 10 * time.Second
	maxLaunchDelay = 60 * time.Second
)

// LoopLister gives the watchdog read access to every live per-appliance
// loop without owning their lifecycle; GlobalScheduler is the only
// implementation.
type LoopLister interface {
	Loops() []*scheduler.ApplianceLoop
}

// Watchdog sweeps every live appliance's task ensemble for tasks stuck in
// SUBMITTED past maxLaunchDelay. A per-appliance loop's own reconcile step
// only reflects whatever the backend currently reports; it has no notion
// of "the backend has reported nothing at all for too long". This fills
// that gap as a separate cross-appliance tick, same as the global
// scheduler's own tick is separate from any one appliance's.
type Watchdog struct {
	loops  LoopLister
	stopCh chan struct{}
	logger zerolog.Logger
}

func NewWatchdog(loops LoopLister) *Watchdog {
	return &Watchdog{
		loops:  loops,
		stopCh: make(chan struct{}),
		logger: log.WithComponent("reconciler"),
	}
}

// Start launches the sweep loop in a new goroutine.
func (w *Watchdog) Start(ctx context.Context) {
	go w.run(ctx)
}

// Stop terminates the sweep loop.
func (w *Watchdog) Stop() {
	close(w.stopCh)
}

func (w *Watchdog) run(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.sweep(time.Now())
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// sweep resets any dispatched task still SUBMITTED past maxLaunchDelay,
// clearing its MesosTaskID and LaunchTime, so the owning appliance loop's
// policy treats it as never dispatched and re-emits it on its next tick.
// Clearing those fields here, not State, leaves the state lattice check
// untouched: a task only ever leaves SUBMITTED through reconcile.
func (w *Watchdog) sweep(now time.Time) {
	timer := metrics.NewTimer()
	defer func() {
		timer.ObserveDuration(metrics.ReconciliationDuration)
		metrics.ReconciliationCyclesTotal.Inc()
	}()

	for _, loop := range w.loops.Loops() {
		ens := loop.Ensemble()
		if ens == nil {
			continue
		}

		for _, t := range ens.CurrentTasks() {
			if t.State != types.TaskSubmitted {
				continue
			}
			if t.LaunchTime.IsZero() || now.Sub(t.LaunchTime) <= maxLaunchDelay {
				continue
			}

			w.logger.Warn().
				Str("task", t.ID).
				Dur("stuck_for", now.Sub(t.LaunchTime)).
				Msg("task stuck in SUBMITTED past max launch delay, resetting for relaunch")

			t.MesosTaskID = ""
			t.LaunchTime = time.Time{}
			ens.UpdateTask(t)
		}
	}
}
