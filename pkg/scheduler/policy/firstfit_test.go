package policy

import (
	"testing"

	"github.com/cuemby/pivot/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func agent(id string, cpus float64) *types.Agent {
	return &types.Agent{ID: id, Hostname: id, Total: types.Resources{CPUs: cpus, Mem: 1024, Disk: 1024}}
}

func task(id string, cpus float64) *types.Task {
	return &types.Task{ID: id, Resources: types.Resources{CPUs: cpus, Mem: 128, Disk: 128}}
}

func TestFirstFitPicksFirstAgentWithCapacity(t *testing.T) {
	agents := []*types.Agent{agent("a1", 1), agent("a2", 4)}
	tasks := []*types.Task{task("t1", 2)}

	p := &FirstFit{}
	res := p.Schedule(tasks, nil, agents)

	require.Len(t, res.PlacedTasks, 1)
	assert.Empty(t, res.UnplacedTasks)
	assert.Equal(t, "a2", res.PlacedTasks[0].SysHints.Placement.Host)
}

func TestFirstFitLeavesOversizedTaskUnplaced(t *testing.T) {
	agents := []*types.Agent{agent("a1", 1)}
	tasks := []*types.Task{task("t1", 4)}

	p := &FirstFit{}
	res := p.Schedule(tasks, nil, agents)

	assert.Empty(t, res.PlacedTasks)
	require.Len(t, res.UnplacedTasks, 1)
}

func TestFirstFitDecreasingOrdersLargestFirst(t *testing.T) {
	agents := []*types.Agent{agent("a1", 3)}
	tasks := []*types.Task{task("small", 1), task("big", 3)}

	p := &FirstFit{Decreasing: true}
	res := p.Schedule(tasks, nil, agents)

	require.Len(t, res.PlacedTasks, 1)
	assert.Equal(t, "big", res.PlacedTasks[0].ID)
	require.Len(t, res.UnplacedTasks, 1)
	assert.Equal(t, "small", res.UnplacedTasks[0].ID)
}
