package policy

import (
	"sort"

	"github.com/cuemby/pivot/pkg/types"
)

// BestFit places each task on the agent that minimizes the L2 norm of
// remaining resources after subtraction, packing tasks tightly instead of
// spreading them. Decreasing sorts tasks by descending demand norm first
// (BestFitDecreasing).
type BestFit struct {
	Decreasing bool
}

func (p *BestFit) Name() string {
	if p.Decreasing {
		return "bestfit-decreasing"
	}
	return "bestfit"
}

func (p *BestFit) Schedule(tasks []*types.Task, volumes []*types.PersistentVolume, agents []*types.Agent) Result {
	ordered := append([]*types.Task(nil), tasks...)
	if p.Decreasing {
		sort.SliceStable(ordered, func(i, j int) bool {
			return norm(ordered[i].Resources) > norm(ordered[j].Resources)
		})
	}

	avail := cloneAvailable(agents)
	var res Result

	for _, t := range ordered {
		agent := bestFitAgent(agents, avail, t.Resources)
		if agent == nil {
			res.UnplacedTasks = append(res.UnplacedTasks, t)
			continue
		}
		avail[agent.ID] = subtract(avail[agent.ID], t.Resources)
		stampTask(t, agent)
		res.PlacedTasks = append(res.PlacedTasks, t)
	}

	for _, v := range volumes {
		agent := bestFitAgent(agents, avail, types.Resources{})
		if agent == nil {
			res.UnplacedVolumes = append(res.UnplacedVolumes, v)
			continue
		}
		stampVolume(v, agent)
		res.PlacedVolumes = append(res.PlacedVolumes, v)
	}

	return res
}

func bestFitAgent(agents []*types.Agent, avail map[string]types.Resources, demand types.Resources) *types.Agent {
	var best *types.Agent
	bestNorm := -1.0
	for _, a := range agents {
		rem := avail[a.ID]
		if !fits(rem, demand) {
			continue
		}
		n := norm(subtract(rem, demand))
		if best == nil || n < bestNorm {
			best, bestNorm = a, n
		}
	}
	return best
}
