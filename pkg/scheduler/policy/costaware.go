package policy

import (
	"math/rand"

	"github.com/cuemby/pivot/pkg/types"
)

// LocalityEntry is one placement pair's relative cost and bandwidth.
type LocalityEntry struct {
	Cost      float64
	Bandwidth float64
}

// LocalityTable is a static cost/bandwidth table between (cloud, region)
// placement pairs. Entries absent from the table default to
// same-placement-is-free (cost 0, bandwidth 1) and cross-placement-costs-1
// (cost 1, bandwidth 1) otherwise.
type LocalityTable map[string]LocalityEntry

func placementKey(p types.Placement) string { return p.Cloud + "/" + p.Region }

func (lt LocalityTable) lookup(anchor, candidate types.Placement) LocalityEntry {
	if anchor == candidate {
		return LocalityEntry{Cost: 0, Bandwidth: 1}
	}
	if e, ok := lt[placementKey(anchor)+"|"+placementKey(candidate)]; ok {
		return e
	}
	return LocalityEntry{Cost: 1, Bandwidth: 1}
}

// CostAware groups tasks by their preferred placement (each task's
// SysHints.Placement, which the per-appliance policy copies from the
// container's user hints; predecessor placements are not consulted), picks
// a random anchor agent
// within that placement per group, then ranks remaining agents by
// cost(anchor,agent) / (remainingResourceNorm * bandwidth(anchor,agent));
// lower wins.
type CostAware struct {
	Locality LocalityTable
}

func (p *CostAware) Name() string { return "cost-aware" }

func (p *CostAware) Schedule(tasks []*types.Task, volumes []*types.PersistentVolume, agents []*types.Agent) Result {
	avail := cloneAvailable(agents)
	var res Result

	groups := map[types.Placement][]*types.Task{}
	for _, t := range tasks {
		groups[t.SysHints.Placement] = append(groups[t.SysHints.Placement], t)
	}

	for placement, group := range groups {
		anchor := pickAnchor(agents, placement)
		for _, t := range group {
			agent := p.rankedAgent(anchor, agents, avail, t.Resources)
			if agent == nil {
				res.UnplacedTasks = append(res.UnplacedTasks, t)
				continue
			}
			avail[agent.ID] = subtract(avail[agent.ID], t.Resources)
			stampTask(t, agent)
			res.PlacedTasks = append(res.PlacedTasks, t)
		}
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

func pickAnchor(agents []*types.Agent, placement types.Placement) *types.Agent {
	var candidates []*types.Agent
	for _, a := range agents {
		if a.Placement == placement {
			candidates = append(candidates, a)
		}
	}
	if len(candidates) == 0 {
		candidates = agents
	}
	if len(candidates) == 0 {
		return nil
	}
	return candidates[rand.Intn(len(candidates))]
}

func (p *CostAware) rankedAgent(anchor *types.Agent, agents []*types.Agent, avail map[string]types.Resources, demand types.Resources) *types.Agent {
	if anchor == nil {
		return firstFitAgent(agents, avail, demand)
	}

	var best *types.Agent
	bestScore := -1.0
	for _, a := range agents {
		rem := avail[a.ID]
		if !fits(rem, demand) {
			continue
		}
		entry := p.Locality.lookup(anchor.Placement, a.Placement)
		remNorm := norm(subtract(rem, demand))
		if remNorm <= 0 {
			remNorm = 1
		}
		if entry.Bandwidth <= 0 {
			entry.Bandwidth = 1
		}
		score := entry.Cost / (remNorm * entry.Bandwidth)
		if best == nil || score < bestScore {
			best, bestScore = a, score
		}
	}
	return best
}
