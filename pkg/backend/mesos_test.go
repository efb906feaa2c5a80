package backend

import (
	"testing"

	"github.com/cuemby/pivot/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestParsePortRanges(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []types.PortRange
	}{
		{"single range", "[31000-32000]", []types.PortRange{{Begin: 31000, End: 32000}}},
		{"multiple ranges", "[31000-31999, 32500-32600]", []types.PortRange{
			{Begin: 31000, End: 31999}, {Begin: 32500, End: 32600},
		}},
		{"empty", "", nil},
		{"malformed entry skipped", "[abc-def, 100-200]", []types.PortRange{{Begin: 100, End: 200}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parsePortRanges(tt.in)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTaskStateFromWire(t *testing.T) {
	assert.Equal(t, types.TaskRunning, TaskStateFromWire("TASK_RUNNING"))
	assert.Equal(t, types.TaskFinished, TaskStateFromWire("task_finished"))
	assert.Equal(t, types.TaskUnknown, TaskStateFromWire("bogus"))
}
