package metrics

import (
	"time"

	"github.com/cuemby/pivot/pkg/storage"
	"github.com/cuemby/pivot/pkg/types"
)

// Collector periodically refreshes the gauge metrics that summarize
// everything currently in the store: appliance count, task counts by
// state, volume counts by scope.
type Collector struct {
	store  storage.Store
	stopCh chan struct{}
}

func NewCollector(store storage.Store) *Collector {
	return &Collector{store: store, stopCh: make(chan struct{})}
}

func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	c.collectApplianceMetrics()
	c.collectVolumeMetrics()
}

func (c *Collector) collectApplianceMetrics() {
	appliances, err := c.store.ListAppliances()
	if err != nil {
		return
	}
	AppliancesTotal.Set(float64(len(appliances)))

	taskCounts := make(map[types.TaskState]int)
	for _, a := range appliances {
		for _, container := range a.Containers {
			for _, t := range container.Tasks {
				taskCounts[t.State]++
			}
		}
	}
	for state, count := range taskCounts {
		TasksTotal.WithLabelValues(string(state)).Set(float64(count))
	}
}

func (c *Collector) collectVolumeMetrics() {
	volumes, err := c.store.ListVolumes()
	if err != nil {
		return
	}
	scopeCounts := make(map[types.VolumeScope]int)
	for _, v := range volumes {
		scopeCounts[v.Scope]++
	}
	for scope, count := range scopeCounts {
		VolumesTotal.WithLabelValues(string(scope)).Set(float64(count))
	}
}
