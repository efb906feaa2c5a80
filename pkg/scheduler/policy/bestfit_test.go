package policy

import (
	"testing"

	"github.com/cuemby/pivot/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBestFitPrefersTightestAgent(t *testing.T) {
	agents := []*types.Agent{agent("loose", 8), agent("tight", 2)}
	tasks := []*types.Task{task("t1", 2)}

	p := &BestFit{}
	res := p.Schedule(tasks, nil, agents)

	require.Len(t, res.PlacedTasks, 1)
	assert.Equal(t, "tight", res.PlacedTasks[0].SysHints.Placement.Host)
}

func TestBestFitDecreasingPacksLargestFirst(t *testing.T) {
	agents := []*types.Agent{agent("a1", 5)}
	tasks := []*types.Task{task("small", 1), task("big", 4)}

	p := &BestFit{Decreasing: true}
	res := p.Schedule(tasks, nil, agents)

	require.Len(t, res.PlacedTasks, 2)
	assert.Equal(t, "big", res.PlacedTasks[0].ID)
	assert.Equal(t, "small", res.PlacedTasks[1].ID)
}

func TestBestFitLeavesOversizedTaskUnplaced(t *testing.T) {
	agents := []*types.Agent{agent("a1", 1)}
	tasks := []*types.Task{task("t1", 4)}

	p := &BestFit{}
	res := p.Schedule(tasks, nil, agents)

	assert.Empty(t, res.PlacedTasks)
	require.Len(t, res.UnplacedTasks, 1)
}
