// Package ensemble materializes the task-level expansion of a container
// DAG for one appliance: the scheduler's working view of which tasks are
// currently being watched and which are ready to dispatch on the next tick.
package ensemble

import (
	"sync"
	"time"

	"github.com/cuemby/pivot/pkg/corerr"
	"github.com/cuemby/pivot/pkg/dag"
	"github.com/cuemby/pivot/pkg/types"
	"github.com/samber/lo"
)

// TaskEnsemble holds the live task graph for one appliance.
type TaskEnsemble struct {
	mu sync.Mutex

	tasks       map[string]*types.Task
	parentMap   map[string]map[string]bool // task id -> predecessor task ids
	childMap    map[string]map[string]bool // task id -> successor task ids
	containerOf map[string]*types.Container

	frontier map[string]bool // currentTasks() working set
}

// Build expands a container DAG into per-task edges: for every container C
// with dependency list D, it adds an edge from every task of every d in D
// to every task of C. It rejects (422) if the resulting graph is not
// acyclic.
func Build(d *dag.ContainerDAG) (*TaskEnsemble, error) {
	e := &TaskEnsemble{
		tasks:       make(map[string]*types.Task),
		parentMap:   make(map[string]map[string]bool),
		childMap:    make(map[string]map[string]bool),
		containerOf: make(map[string]*types.Container),
		frontier:    make(map[string]bool),
	}

	containers := d.Containers()
	for _, c := range containers {
		for _, id := range types.SeqIDs(c) {
			e.containerOf[id] = c
			e.tasks[id] = &types.Task{
				ID:          id,
				ContainerID: c.ID,
				ApplianceID: c.ApplianceID,
				SeqNo:       seqOf(id, c.ID),
				State:       types.TaskSubmitted,
				SysHints:    c.SysHints,
				Resources:   c.Resources,
			}
			e.parentMap[id] = make(map[string]bool)
			e.childMap[id] = make(map[string]bool)
		}
	}

	for _, c := range containers {
		myTasks := types.SeqIDs(c)
		for _, depID := range d.Parents(c.ID) {
			depContainer := e.containerOfID(depID)
			if depContainer == nil {
				continue
			}
			depTasks := types.SeqIDs(depContainer)
			for _, dt := range depTasks {
				for _, mt := range myTasks {
					e.parentMap[mt][dt] = true
					e.childMap[dt][mt] = true
				}
			}
		}
	}

	for id, t := range e.tasks {
		t.Dependencies = lo.Keys(e.parentMap[id])
	}

	if e.hasCycle() {
		return nil, corerr.Invalid("task ensemble has a cycle")
	}

	for id := range e.tasks {
		if len(e.parentMap[id]) == 0 {
			e.frontier[id] = true
		}
	}

	return e, nil
}

func (e *TaskEnsemble) containerOfID(containerID string) *types.Container {
	for _, c := range e.containerOf {
		if c.ID == containerID {
			return c
		}
	}
	return nil
}

func seqOf(taskID, containerID string) int {
	suffix := taskID[len(containerID)+1:]
	n := 0
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}

func (e *TaskEnsemble) hasCycle() bool {
	inDegree := make(map[string]int, len(e.tasks))
	for id := range e.tasks {
		inDegree[id] = len(e.parentMap[id])
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
		for child := range e.childMap[id] {
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}
	return visited != len(e.tasks)
}

// Sources returns tasks with no predecessors: the initial frontier.
func (e *TaskEnsemble) Sources() []*types.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []*types.Task
	for id, t := range e.tasks {
		if len(e.parentMap[id]) == 0 {
			out = append(out, t)
		}
	}
	return out
}

// Sinks returns tasks with no successors.
func (e *TaskEnsemble) Sinks() []*types.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []*types.Task
	for id, t := range e.tasks {
		if len(e.childMap[id]) == 0 {
			out = append(out, t)
		}
	}
	return out
}

// Finished reports whether every sink has reached its satisfied state:
// FINISHED for job tasks, RUNNING for service tasks.
func (e *TaskEnsemble) Finished() bool {
	for _, t := range e.Sinks() {
		c := e.ContainerOf(t.ID)
		if c == nil {
			return false
		}
		if !satisfied(c, t.State) {
			return false
		}
	}
	return true
}

func satisfied(c *types.Container, s types.TaskState) bool {
	if c.Kind == types.KindJob {
		return s == types.TaskFinished
	}
	return s == types.TaskRunning
}

// ContainerOf returns the container that owns the task with the given id.
func (e *TaskEnsemble) ContainerOf(taskID string) *types.Container {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.containerOf[taskID]
}

// CurrentTasks returns the live frontier the scheduler is watching.
func (e *TaskEnsemble) CurrentTasks() []*types.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []*types.Task
	for id := range e.frontier {
		out = append(out, e.tasks[id])
	}
	return out
}

// Task returns the task with the given id, or nil.
func (e *TaskEnsemble) Task(id string) *types.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tasks[id]
}

// UpdateTask stores the reconciled state for a task already tracked by the
// ensemble.
func (e *TaskEnsemble) UpdateTask(t *types.Task) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tasks[t.ID] = t
}

// unsatisfiedPredecessors returns the count of t's predecessors not yet in
// their satisfied state.
func (e *TaskEnsemble) unsatisfiedPredecessors(taskID string) int {
	n := 0
	for pred := range e.parentMap[taskID] {
		pt := e.tasks[pred]
		pc := e.containerOf[pred]
		if pt == nil || pc == nil || !satisfied(pc, pt.State) {
			n++
		}
	}
	return n
}

// ReadyTasks computes the next tick's launch set from the current frontier
// and advances the frontier in place for tasks that progress past their
// satisfied state.
func (e *TaskEnsemble) ReadyTasks(now time.Time) []*types.Task {
	e.mu.Lock()
	defer e.mu.Unlock()

	var ready []*types.Task
	advance := make(map[string]bool)

	for id := range e.frontier {
		t := e.tasks[id]
		c := e.containerOf[id]
		if t == nil || c == nil {
			continue
		}

		switch {
		case t.State == types.TaskStaging || t.State == types.TaskStarting:
			// dispatched, waiting on the backend: not ready

		case c.Kind == types.KindJob && t.State == types.TaskRunning:
			// still running, not ready

		case t.State == types.TaskSubmitted && t.LaunchTime.IsZero():
			// never dispatched: ready immediately
			ready = append(ready, t)

		case t.State == types.TaskSubmitted && now.Sub(t.LaunchTime) > types.MaxLaunchDelay:
			// stuck past the launch window: eligible for relaunch
			ready = append(ready, t)

		case t.State == types.TaskSubmitted:
			// recently dispatched, still within the launch window: wait

		case satisfied(c, t.State):
			advance[id] = true

		default:
			// failures, lost, error, unknown, etc: reset and re-queue
			t.State = types.TaskSubmitted
			t.MesosTaskID = ""
			t.LaunchTime = time.Time{}
			ready = append(ready, t)
		}
	}

	for id := range advance {
		delete(e.frontier, id)
		for child := range e.childMap[id] {
			if e.unsatisfiedPredecessors(child) == 0 {
				if !e.frontier[child] {
					e.frontier[child] = true
					ready = append(ready, e.tasks[child])
				}
			}
		}
	}

	return ready
}
