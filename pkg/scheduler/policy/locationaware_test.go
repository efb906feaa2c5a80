package policy

import (
	"context"
	"testing"

	"github.com/cuemby/pivot/pkg/backend"
	"github.com/cuemby/pivot/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegistry struct {
	objects []backend.DataObject
	regions map[string]string
}

func (f *fakeRegistry) DataObjects(ctx context.Context, filenames []string) ([]backend.DataObject, error) {
	return f.objects, nil
}

func (f *fakeRegistry) ResourceRegions(ctx context.Context, resourceNames []string) (map[string]string, error) {
	return f.regions, nil
}

func TestLocationAwarePicksRegionWithMostReplicaBytes(t *testing.T) {
	reg := &fakeRegistry{
		objects: []backend.DataObject{
			{Path: "a", Size: 100, Replicas: []string{"host-east"}},
			{Path: "b", Size: 10, Replicas: []string{"host-west"}},
		},
		regions: map[string]string{"host-east": "us-east", "host-west": "us-west"},
	}

	east := agent("east-1", 4)
	east.Placement.Region = "us-east"
	west := agent("west-1", 4)
	west.Placement.Region = "us-west"

	t1 := task("t1", 1)
	t1.Env = map[string]string{"INPUT_OBJECTS": "a,b"}

	p := &LocationAware{Registry: reg}
	res := p.Schedule([]*types.Task{t1}, nil, []*types.Agent{west, east})

	require.Len(t, res.PlacedTasks, 1)
	assert.Equal(t, "us-east", res.PlacedTasks[0].SysHints.Placement.Region)
}

func TestLocationAwareFallsBackToFirstFitWithNoRegistry(t *testing.T) {
	agents := []*types.Agent{agent("a1", 4)}
	t1 := task("t1", 1)

	p := &LocationAware{}
	res := p.Schedule([]*types.Task{t1}, nil, agents)

	require.Len(t, res.PlacedTasks, 1)
	assert.Equal(t, "a1", res.PlacedTasks[0].SysHints.Placement.Host)
}

func TestLocationAwareScaleFallsBackToSharedPrefixRegion(t *testing.T) {
	reg := &fakeRegistry{
		objects: []backend.DataObject{{Path: "a", Size: 100, Replicas: []string{"host-far"}}},
		regions: map[string]string{"host-far": "ap-south"},
	}

	near := agent("near-1", 4)
	near.Placement.Region = "ap-north"
	far := agent("far-1", 0)
	far.Placement.Region = "ap-south"

	t1 := task("t1", 1)
	t1.Env = map[string]string{"INPUT_OBJECTS": "a"}

	p := &LocationAware{Registry: reg, Scale: true}
	res := p.Schedule([]*types.Task{t1}, nil, []*types.Agent{near, far})

	require.Len(t, res.PlacedTasks, 1)
	assert.Equal(t, "near-1", res.PlacedTasks[0].SysHints.Placement.Host)
}
