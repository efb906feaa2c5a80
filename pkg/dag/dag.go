// Package dag implements the per-appliance container dependency graph:
// parent/child maps, cycle rejection, and the "free" (dependency-satisfied)
// frontier the scheduler starts from.
package dag

import (
	"sync"

	"github.com/cuemby/pivot/pkg/corerr"
	"github.com/cuemby/pivot/pkg/types"
	"github.com/samber/lo"
)

// ContainerDAG is the transient per-appliance dependency view. It is never
// persisted: on restart it is rebuilt from the stored container records.
type ContainerDAG struct {
	mu         sync.Mutex
	containers map[string]*types.Container
	parentMap  map[string]map[string]bool
	childMap   map[string]map[string]bool
}

// Build constructs a ContainerDAG from an appliance's container set. It
// rejects (422, via corerr.Invalid) a dependency that refers to an id not
// present in the appliance, and rejects any cycle.
func Build(containers []*types.Container) (*ContainerDAG, error) {
	d := &ContainerDAG{
		containers: make(map[string]*types.Container, len(containers)),
		parentMap:  make(map[string]map[string]bool, len(containers)),
		childMap:   make(map[string]map[string]bool, len(containers)),
	}

	for _, c := range containers {
		d.containers[c.ID] = c
		if d.parentMap[c.ID] == nil {
			d.parentMap[c.ID] = make(map[string]bool)
		}
		if d.childMap[c.ID] == nil {
			d.childMap[c.ID] = make(map[string]bool)
		}
	}

	// Edges are accumulated within each container's own iteration so a
	// container's full dependency set lands in parentMap before the next
	// container is processed; accumulating outside the loop would leave
	// later containers with a partial parent set.
	for _, c := range containers {
		for _, depID := range c.Dependencies {
			if _, ok := d.containers[depID]; !ok {
				return nil, corerr.Invalid("container %q depends on unknown container %q", c.ID, depID)
			}
			d.parentMap[c.ID][depID] = true
			d.childMap[depID][c.ID] = true
		}
	}

	if cyc := d.findCycle(); cyc {
		return nil, corerr.Invalid("container dependency graph has a cycle")
	}

	return d, nil
}

// findCycle uses Kahn's algorithm to detect whether the graph is acyclic,
// not just pairwise mutual-parent checks, which miss longer cycles.
func (d *ContainerDAG) findCycle() bool {
	inDegree := make(map[string]int, len(d.containers))
	for id := range d.containers {
		inDegree[id] = len(d.parentMap[id])
	}

	var queue []string
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}

	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for child := range d.childMap[id] {
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	return visited != len(d.containers)
}

// GetFree returns the containers whose parent set is empty: the initial
// dependency-satisfied frontier.
func (d *ContainerDAG) GetFree() []*types.Container {
	d.mu.Lock()
	defer d.mu.Unlock()

	var free []*types.Container
	for id, c := range d.containers {
		if len(d.parentMap[id]) == 0 {
			free = append(free, c)
		}
	}
	return free
}

// Parents returns the parent container ids of id.
func (d *ContainerDAG) Parents(id string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return lo.Keys(d.parentMap[id])
}

// Children returns the child container ids of id.
func (d *ContainerDAG) Children(id string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return lo.Keys(d.childMap[id])
}

// UpdateContainer stores the newest version of a container's state.
func (d *ContainerDAG) UpdateContainer(c *types.Container) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.containers[c.ID] = c
}

// RemoveContainer drops a node and removes its incoming edges from its
// children, so a child that only depended on the removed node becomes free.
func (d *ContainerDAG) RemoveContainer(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for child := range d.childMap[id] {
		delete(d.parentMap[child], id)
	}
	delete(d.childMap, id)
	delete(d.parentMap, id)
	delete(d.containers, id)
}

// Containers returns every container currently tracked by the DAG.
func (d *ContainerDAG) Containers() []*types.Container {
	d.mu.Lock()
	defer d.mu.Unlock()
	return lo.Values(d.containers)
}
