package backend

import (
	"context"
	"strconv"
	"strings"

	"github.com/cuemby/pivot/pkg/types"
)

// MesosBackend reads agent inventory from the cluster master, the source
// of truth for the cluster snapshot poller (pkg/cluster).
type MesosBackend struct {
	client   *Client
	endpoint string
}

func NewMesosBackend(baseURL, endpoint string) *MesosBackend {
	return &MesosBackend{client: NewClient("mesos", baseURL), endpoint: endpoint}
}

// Agents fetches the current slave list and converts it to PIVOT's Agent
// snapshot type.
func (b *MesosBackend) Agents(ctx context.Context) ([]*types.Agent, error) {
	var out wireSlavesResponse
	if err := b.client.Do(ctx, "GET", b.endpoint+"/slaves", nil, &out); err != nil {
		return nil, err
	}

	agents := make([]*types.Agent, 0, len(out.Slaves))
	for _, s := range out.Slaves {
		agents = append(agents, &types.Agent{
			ID:       s.ID,
			Hostname: s.Hostname,
			FQDN:     s.Hostname,
			Total: types.Resources{
				CPUs: s.Resources.CPUs, Mem: s.Resources.Mem, Disk: s.Resources.Disk, GPU: s.Resources.GPUs,
			},
			Used: types.Resources{
				CPUs: s.UsedResources.CPUs, Mem: s.UsedResources.Mem, Disk: s.UsedResources.Disk, GPU: s.UsedResources.GPUs,
			},
			Offered: types.Resources{
				CPUs: s.OfferedResources.CPUs, Mem: s.OfferedResources.Mem, Disk: s.OfferedResources.Disk, GPU: s.OfferedResources.GPUs,
			},
			AdvertisedPorts: parsePortRanges(s.Resources.Ports),
		})
	}
	return agents, nil
}

// Task fetches the current state and placement of a single mesos-level task
// by id, as used by reconciliation once a backend has assigned a task id.
func (b *MesosBackend) Task(ctx context.Context, taskID string) (*wireMesosTask, error) {
	var out wireTasksResponse
	path := "/tasks?task_id=" + taskID
	if err := b.client.Do(ctx, "GET", path, nil, &out); err != nil {
		return nil, err
	}
	if len(out.Tasks) == 0 {
		return nil, nil
	}
	return &out.Tasks[len(out.Tasks)-1], nil
}

// parsePortRanges parses the mesos range-set syntax "[31000-32000,32500-32600]"
// into PortRange values.
func parsePortRanges(s string) []types.PortRange {
	s = strings.Trim(strings.TrimSpace(s), "[]")
	if s == "" {
		return nil
	}
	var ranges []types.PortRange
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		bounds := strings.SplitN(part, "-", 2)
		if len(bounds) != 2 {
			continue
		}
		begin, err1 := strconv.Atoi(strings.TrimSpace(bounds[0]))
		end, err2 := strconv.Atoi(strings.TrimSpace(bounds[1]))
		if err1 != nil || err2 != nil {
			continue
		}
		ranges = append(ranges, types.PortRange{Begin: begin, End: end})
	}
	return ranges
}
