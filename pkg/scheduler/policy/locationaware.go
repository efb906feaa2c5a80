package policy

import (
	"context"
	"strings"

	"github.com/cuemby/pivot/pkg/backend"
	"github.com/cuemby/pivot/pkg/types"
)

// ObjectRegistry resolves the replica locations of named data objects, the
// optional collaborator LocationAware uses to score regions by how much of
// a task's input data they already hold.
type ObjectRegistry interface {
	DataObjects(ctx context.Context, filenames []string) ([]backend.DataObject, error)
	ResourceRegions(ctx context.Context, resourceNames []string) (map[string]string, error)
}

// LocationAware places each task in the region holding the largest share
// of its input data's replica bytes. With no registry configured, or no
// input objects declared, it falls back the same way a task with no
// region preference would: nearest same-cloud agent when Scale is set, any
// agent with capacity otherwise.
type LocationAware struct {
	Registry ObjectRegistry
	Scale    bool
}

func (p *LocationAware) Name() string { return "location-aware" }

func (p *LocationAware) Schedule(tasks []*types.Task, volumes []*types.PersistentVolume, agents []*types.Agent) Result {
	avail := cloneAvailable(agents)
	ctx := context.Background()
	var res Result

	for _, t := range tasks {
		agent := p.placeTask(ctx, t, agents, avail)
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

func (p *LocationAware) placeTask(ctx context.Context, t *types.Task, agents []*types.Agent, avail map[string]types.Resources) *types.Agent {
	region := p.bestRegion(ctx, t)
	if region != "" {
		for _, a := range agents {
			if a.Placement.Region == region && fits(avail[a.ID], t.Resources) {
				return a
			}
		}
	}

	if !p.Scale {
		return firstFitAgent(agents, avail, t.Resources)
	}

	var best *types.Agent
	bestShared := -1
	for _, a := range agents {
		if !fits(avail[a.ID], t.Resources) {
			continue
		}
		shared := sharedPrefixLen(a.Placement.Region, region)
		if shared > bestShared {
			best, bestShared = a, shared
		}
	}
	if best != nil {
		return best
	}
	return firstFitAgent(agents, avail, t.Resources)
}

// bestRegion queries the object registry for the region holding the
// largest share of bytes among a task's declared input objects. Returns ""
// if no registry is configured, the task declares no input objects, or the
// registry call fails.
func (p *LocationAware) bestRegion(ctx context.Context, t *types.Task) string {
	if p.Registry == nil {
		return ""
	}
	filenames := inputObjects(t)
	if len(filenames) == 0 {
		return ""
	}

	objects, err := p.Registry.DataObjects(ctx, filenames)
	if err != nil || len(objects) == 0 {
		return ""
	}

	var names []string
	for _, o := range objects {
		names = append(names, o.Replicas...)
	}
	regions, err := p.Registry.ResourceRegions(ctx, names)
	if err != nil {
		return ""
	}

	score := map[string]int64{}
	for _, o := range objects {
		for _, r := range o.Replicas {
			score[regions[r]] += o.Size
		}
	}

	var bestRegion string
	bestScore := int64(-1)
	for region, bytes := range score {
		if bytes > bestScore {
			bestRegion, bestScore = region, bytes
		}
	}
	return bestRegion
}

// inputObjects reads a task's declared input filenames from the
// comma-separated INPUT_OBJECTS entry of its Env. The global scheduler's
// enrichment step does not set this entry.
func inputObjects(t *types.Task) []string {
	raw := t.Env["INPUT_OBJECTS"]
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

func sharedPrefixLen(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}
