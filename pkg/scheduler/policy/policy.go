// Package policy implements the pluggable global-scheduler placement
// policies: pure functions over a tick's tasks, volumes, and agent
// snapshot that decide what gets placed this tick and stamp the chosen
// Placement onto each winner.
package policy

import "github.com/cuemby/pivot/pkg/types"

// Policy decides placement for one global-scheduler tick. Implementations
// must not mutate the agents slice; they return the subset of tasks and
// volumes that were placed (with Placement/SysHints.Placement stamped) and
// the subset left for the caller to re-enqueue.
type Policy interface {
	Name() string
	Schedule(tasks []*types.Task, volumes []*types.PersistentVolume, agents []*types.Agent) Result
}

// Result is one tick's placement outcome.
type Result struct {
	PlacedTasks     []*types.Task
	PlacedVolumes   []*types.PersistentVolume
	UnplacedTasks   []*types.Task
	UnplacedVolumes []*types.PersistentVolume
}

// cloneAvailable returns a fresh map of agent id -> available resources,
// so a policy can decrement it as it places tasks within one tick without
// mutating the snapshot shared with other readers.
func cloneAvailable(agents []*types.Agent) map[string]types.Resources {
	avail := make(map[string]types.Resources, len(agents))
	for _, a := range agents {
		avail[a.ID] = a.Available()
	}
	return avail
}

func fits(avail types.Resources, demand types.Resources) bool {
	return avail.CPUs >= demand.CPUs && avail.Mem >= demand.Mem &&
		avail.Disk >= demand.Disk && avail.GPU >= demand.GPU
}

func subtract(avail, demand types.Resources) types.Resources {
	return types.Resources{
		CPUs: avail.CPUs - demand.CPUs,
		Mem:  avail.Mem - demand.Mem,
		Disk: avail.Disk - demand.Disk,
		GPU:  avail.GPU - demand.GPU,
	}
}

func stampTask(t *types.Task, a *types.Agent) {
	t.SysHints.Placement = a.Placement
	t.SysHints.Placement.Host = a.Hostname
}

func stampVolume(v *types.PersistentVolume, a *types.Agent) {
	v.Placement = a.Placement
	v.Placement.Host = a.Hostname
}
