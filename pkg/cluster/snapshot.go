// Package cluster maintains the control plane's point-in-time view of
// compute agents: a ticker-driven poller that refreshes agent resource and
// port inventory from the cluster master, rewrites the live job/master
// endpoints on a leader change, and exposes the latest snapshot through a
// short-TTL cache so concurrent schedulers never block on the network.
package cluster

import (
	"context"
	"sync"
	"time"

	"github.com/cuemby/pivot/pkg/backend"
	"github.com/cuemby/pivot/pkg/config"
	"github.com/cuemby/pivot/pkg/log"
	"github.com/cuemby/pivot/pkg/metrics"
	"github.com/cuemby/pivot/pkg/types"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
)

const snapshotKey = "agents"

// Poller refreshes the agent snapshot on a fixed interval and serves it
// from a TTL-bounded cache between refreshes.
type Poller struct {
	mesos     *backend.MesosBackend
	exhibitor *backend.ExhibitorBackend
	endpoints *config.LiveEndpoints

	cache    *gocache.Cache
	interval time.Duration

	mu         sync.Mutex
	lastLeader string

	stopCh chan struct{}
	logger zerolog.Logger
}

// New builds a Poller wired to the given cluster master and leader
// discovery backends, refreshing every interval with results cached for
// 2x interval (so a single missed poll doesn't blank the snapshot).
func New(mesos *backend.MesosBackend, exhibitor *backend.ExhibitorBackend, endpoints *config.LiveEndpoints, interval time.Duration) *Poller {
	return &Poller{
		mesos:     mesos,
		exhibitor: exhibitor,
		endpoints: endpoints,
		cache:     gocache.New(2*interval, interval),
		interval:  interval,
		stopCh:    make(chan struct{}),
		logger:    log.WithComponent("cluster"),
	}
}

// Start launches the polling loop in a new goroutine.
func (p *Poller) Start(ctx context.Context) {
	go p.run(ctx)
}

// Stop terminates the polling loop.
func (p *Poller) Stop() {
	close(p.stopCh)
}

func (p *Poller) run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ticker.C:
			p.poll(ctx)
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.ClusterSnapshotDuration)

	if p.exhibitor != nil {
		p.rewriteLeader(ctx)
	}

	agents, err := p.mesos.Agents(ctx)
	if err != nil {
		p.logger.Warn().Err(err).Msg("cluster snapshot refresh failed")
		return
	}

	p.cache.Set(snapshotKey, agents, gocache.DefaultExpiration)
	metrics.AgentsTotal.Set(float64(len(agents)))
	p.logger.Debug().Int("agents", len(agents)).Msg("cluster snapshot refreshed")
}

func (p *Poller) rewriteLeader(ctx context.Context) {
	leader, err := p.exhibitor.Leader(ctx)
	if err != nil {
		p.logger.Warn().Err(err).Msg("leader discovery failed, keeping last known endpoints")
		return
	}

	p.mu.Lock()
	changed := leader != p.lastLeader
	p.lastLeader = leader
	p.mu.Unlock()

	if !changed {
		return
	}

	job := p.endpoints.Job()
	job.Host = leader
	p.endpoints.SetJob(job)

	mesos := p.endpoints.Mesos()
	mesos.Host = leader
	p.endpoints.SetMesos(mesos)

	p.logger.Info().Str("leader", leader).Msg("rewrote live endpoints to new leader")
}

// Snapshot returns the most recently polled agent list. It returns false
// if no successful poll has completed yet.
func (p *Poller) Snapshot() ([]*types.Agent, bool) {
	v, ok := p.cache.Get(snapshotKey)
	if !ok {
		return nil, false
	}
	return v.([]*types.Agent), true
}
