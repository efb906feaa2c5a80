package policy

import (
	"math"
	"sort"

	"github.com/cuemby/pivot/pkg/types"
)

// norm is the L2 norm of a resource vector, used to sort tasks by demand
// for the "decreasing" variants and to score remaining capacity in
// BestFit and CostAware.
func norm(r types.Resources) float64 {
	return math.Sqrt(r.CPUs*r.CPUs + r.Mem*r.Mem + r.Disk*r.Disk + r.GPU*r.GPU)
}

// FirstFit places each task on the first agent (in snapshot order) whose
// available resources cover its demand. Decreasing, when set, sorts tasks
// by descending L2 norm of demand before placing (FirstFitDecreasing).
type FirstFit struct {
	Decreasing bool
}

func (p *FirstFit) Name() string {
	if p.Decreasing {
		return "firstfit-decreasing"
	}
	return "firstfit"
}

func (p *FirstFit) Schedule(tasks []*types.Task, volumes []*types.PersistentVolume, agents []*types.Agent) Result {
	ordered := append([]*types.Task(nil), tasks...)
	if p.Decreasing {
		sort.SliceStable(ordered, func(i, j int) bool {
			return norm(ordered[i].Resources) > norm(ordered[j].Resources)
		})
	}

	avail := cloneAvailable(agents)
	var res Result

	for _, t := range ordered {
		agent := firstFitAgent(agents, avail, t.Resources)
		if agent == nil {
			res.UnplacedTasks = append(res.UnplacedTasks, t)
			continue
		}
		avail[agent.ID] = subtract(avail[agent.ID], t.Resources)
		stampTask(t, agent)
		res.PlacedTasks = append(res.PlacedTasks, t)
	}

	for _, v := range volumes {
		agent := firstFitAgent(agents, avail, types.Resources{})
		if agent == nil {
			res.UnplacedVolumes = append(res.UnplacedVolumes, v)
			continue
		}
		stampVolume(v, agent)
		res.PlacedVolumes = append(res.PlacedVolumes, v)
	}

	return res
}

func firstFitAgent(agents []*types.Agent, avail map[string]types.Resources, demand types.Resources) *types.Agent {
	for _, a := range agents {
		if fits(avail[a.ID], demand) {
			return a
		}
	}
	return nil
}
