package policy

import (
	"testing"

	"github.com/cuemby/pivot/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCostAwarePrefersCheaperSamePlacementAgent(t *testing.T) {
	near := agent("near", 4)
	near.Placement = types.Placement{Cloud: "aws", Region: "us-east"}
	far := agent("far", 4)
	far.Placement = types.Placement{Cloud: "aws", Region: "us-west"}

	t1 := task("t1", 1)
	t1.SysHints.Placement = types.Placement{Cloud: "aws", Region: "us-east"}

	locality := LocalityTable{
		"aws/us-east|aws/us-west": {Cost: 5, Bandwidth: 1},
	}

	p := &CostAware{Locality: locality}
	res := p.Schedule([]*types.Task{t1}, nil, []*types.Agent{near, far})

	require.Len(t, res.PlacedTasks, 1)
	assert.Equal(t, "near", res.PlacedTasks[0].SysHints.Placement.Host)
}

func TestCostAwareLeavesUnfittingTaskUnplaced(t *testing.T) {
	a := agent("a1", 1)
	t1 := task("t1", 4)

	p := &CostAware{}
	res := p.Schedule([]*types.Task{t1}, nil, []*types.Agent{a})

	assert.Empty(t, res.PlacedTasks)
	require.Len(t, res.UnplacedTasks, 1)
}
