// Package types holds the PIVOT domain model: appliances, containers,
// tasks, persistent volumes, agents, and the scheduling value types that
// flow between the dependency DAG, the task ensemble, and the two
// scheduler loops.
package types

import "time"

// Resources is the (cpus, mem, disk, gpu) demand or capacity tuple used by
// containers, tasks, and agents alike.
type Resources struct {
	CPUs float64
	Mem  float64 // MB
	Disk float64 // MB
	GPU  float64
}

// ContainerKind discriminates the two container variants. Container itself
// stays a single struct (tagged union) rather than a Service/Job class
// hierarchy: common fields live at the top level, variant-only fields live
// in *ServiceSpec / *JobSpec.
type ContainerKind string

const (
	KindService ContainerKind = "SERVICE"
	KindJob     ContainerKind = "JOB"
)

// NetworkMode is the container's network attachment mode.
type NetworkMode string

const (
	NetworkHost      NetworkMode = "HOST"
	NetworkBridge    NetworkMode = "BRIDGE"
	NetworkContainer NetworkMode = "CONTAINER"
)

// PortDef declares a port a container wants exposed.
type PortDef struct {
	Name          string
	ContainerPort int
	Protocol      string // "tcp" or "udp"
}

// VolumeMount attaches a persistent volume to a container path.
type VolumeMount struct {
	Src      string // persistent volume id
	Dst      string
	ReadOnly bool
}

// Endpoint is a reachable (host, port) pair populated by reconciliation.
type Endpoint struct {
	Host          string
	HostPort      int
	ContainerPort int
	Protocol      string
	Name          string
}

// Placement describes where a task runs, or where scheduling should
// prefer it to run. Any subset of fields may be empty.
type Placement struct {
	Cloud  string
	Region string
	Zone   string
	Host   string
}

// Empty reports whether every field of the placement is unset.
func (p Placement) Empty() bool {
	return p.Cloud == "" && p.Region == "" && p.Zone == "" && p.Host == ""
}

// ScheduleHints is a (placement, preemptible) constraint. User hints come
// from the appliance author; system hints are stamped by the scheduler.
type ScheduleHints struct {
	Placement   Placement
	Preemptible bool
}

// HealthCheckType is the health-check probe kind.
type HealthCheckType string

const (
	HealthCheckHTTP HealthCheckType = "http"
	HealthCheckTCP  HealthCheckType = "tcp"
	HealthCheckExec HealthCheckType = "exec"
)

// HealthCheck describes a service's health probe.
type HealthCheck struct {
	Type     HealthCheckType
	Endpoint string
	Command  []string
	Interval time.Duration
	Timeout  time.Duration
	Retries  int
}

// ServiceSpec holds the fields only meaningful for SERVICE containers.
type ServiceSpec struct {
	MinimumCapacity float64 // in [0,1]
	HealthCheck     *HealthCheck
	Labels          map[string]string
}

// JobSpec holds the fields only meaningful for JOB containers.
type JobSpec struct {
	Retries   int
	Repeats   int
	StartTime time.Time
	Interval  time.Duration
}

// Container is a declarative spec for one or more Tasks within an
// Appliance. Kind discriminates SERVICE vs JOB; Service/Job carry the
// variant-only fields and are nil for the other kind.
type Container struct {
	ID          string
	ApplianceID string
	Kind        ContainerKind

	Image     string
	Resources Resources
	Instances int

	Cmd  []string // mutually exclusive with Args
	Args []string
	Env  map[string]string

	Mounts      []VolumeMount
	NetworkMode NetworkMode
	Ports       []PortDef
	Endpoints   []Endpoint // read-only, populated by reconciliation

	IsPrivileged   bool
	ForcePullImage bool

	// VolumeType is copied from the owning appliance's DataPersistence at
	// creation time, so backend request builders can translate Mounts into
	// driver-specific parameters without a separate appliance lookup.
	VolumeType string

	Dependencies []string // peer container ids within the same appliance

	UserHints ScheduleHints
	SysHints  ScheduleHints

	Service *ServiceSpec
	Job     *JobSpec

	Tasks []*Task

	// State is the aggregate state for SERVICE containers, derived by
	// ServiceTaskManager.Reconcile from the per-task states and the
	// service's minimum capacity. JOB containers track state per-task only
	// and leave this at its zero value.
	State TaskState
}

// Equal implements Container equality as (id, appliance).
func (c *Container) Equal(other *Container) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.ID == other.ID && c.ApplianceID == other.ApplianceID
}

// TaskState follows the lattice SUBMITTED -> STAGING -> STARTING -> RUNNING
// -> {terminal or error states}.
type TaskState string

const (
	TaskSubmitted   TaskState = "SUBMITTED"
	TaskStaging     TaskState = "STAGING"
	TaskStarting    TaskState = "STARTING"
	TaskRunning     TaskState = "RUNNING"
	TaskFinished    TaskState = "FINISHED"
	TaskFailed      TaskState = "FAILED"
	TaskKilled      TaskState = "KILLED"
	TaskKilling     TaskState = "KILLING"
	TaskLost        TaskState = "LOST"
	TaskError       TaskState = "ERROR"
	TaskDropped     TaskState = "DROPPED"
	TaskUnreachable TaskState = "UNREACHABLE"
	TaskUnknown     TaskState = "UNKNOWN"
	TaskGone        TaskState = "GONE"
	// TaskPending is an internal service-level state produced by container
	// state aggregation; it is never a Task's own TaskState but the
	// aggregate state of a multi-instance service.
	TaskPending TaskState = "PENDING"
)

// MaxLaunchDelay is the threshold after which a task stuck in SUBMITTED
// becomes eligible for relaunch.
const MaxLaunchDelay = 60 * time.Second

// IsTerminalForJob reports whether state ends a job task's lifecycle.
func IsTerminalForJob(s TaskState) bool {
	return s == TaskFinished
}

// Task is a runtime instance of a Container.
type Task struct {
	ID          string // <containerId>-<seqno>
	ContainerID string
	ApplianceID string
	SeqNo       int

	MesosTaskID string
	State       TaskState
	LaunchTime  time.Time
	Placement   Placement
	Endpoints   []Endpoint

	// Dependencies are the peer task ids this task must wait on: the
	// container-dependency DAG cross-produced with peer container instances.
	Dependencies []string

	// Resources is copied from the owning container at ensemble build time
	// so placement policies can score agents without a container lookup.
	Resources Resources

	// Env carries per-task values computed by the global scheduler (e.g.
	// DATA_SRC_CLOUD/REGION/ZONE/HOST derived from predecessor placements)
	// that augment, rather than replace, the owning container's own Env.
	Env map[string]string

	SysHints ScheduleHints
}

// VolumeScope discriminates appliance-local volumes from cluster-wide ones.
type VolumeScope string

const (
	ScopeLocal  VolumeScope = "LOCAL"
	ScopeGlobal VolumeScope = "GLOBAL"
)

// VolumeState is the PersistentVolume lifecycle state.
type VolumeState string

const (
	VolumeCreated  VolumeState = "CREATED"
	VolumeInactive VolumeState = "INACTIVE"
	VolumeActive   VolumeState = "ACTIVE"
)

// PersistentVolume is a named, typed chunk of storage. LOCAL volumes belong
// to a single appliance; GLOBAL volumes are shared and reference-counted
// via UsedBy.
type PersistentVolume struct {
	ID    string
	Type  string // e.g. "cephfs"
	Scope VolumeScope
	State VolumeState

	// ApplianceID is set for LOCAL volumes (the owning appliance); empty for
	// GLOBAL volumes, which instead track referencing appliances in UsedBy.
	ApplianceID string
	UsedBy      map[string]bool

	SchedHints ScheduleHints
	Placement  Placement
}

// DataPersistence is an appliance's declared set of persistent volumes plus
// the volume driver they share.
type DataPersistence struct {
	Volumes    []*PersistentVolume
	VolumeType string
}

// Appliance is a user-submitted bundle of containers, their dependencies,
// and any declared persistent volumes.
type Appliance struct {
	ID              string
	Containers      []*Container
	DataPersistence *DataPersistence
	CreatedAt       time.Time
}

// ContainerByID returns the container with the given id, or nil.
func (a *Appliance) ContainerByID(id string) *Container {
	for _, c := range a.Containers {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// PortRange is an inclusive [Begin, End] range of ports advertised or
// consumed on an Agent.
type PortRange struct {
	Begin int
	End   int
}

// Agent is a cluster compute node snapshot, as produced by the cluster
// poller from the mesos master's /master/slaves response.
type Agent struct {
	ID          string
	Hostname    string
	FQDN        string
	PublicIP    string
	Placement   Placement
	Preemptible bool

	Total    Resources
	Used     Resources
	Offered  Resources
	Reserved Resources

	AdvertisedPorts []PortRange
	UsedPorts       []PortRange
}

// Available returns total minus used, offered, and reserved resources,
// floored at zero per dimension.
func (a *Agent) Available() Resources {
	sub := func(total, x, y, z float64) float64 {
		v := total - x - y - z
		if v < 0 {
			return 0
		}
		return v
	}
	return Resources{
		CPUs: sub(a.Total.CPUs, a.Used.CPUs, a.Offered.CPUs, a.Reserved.CPUs),
		Mem:  sub(a.Total.Mem, a.Used.Mem, a.Offered.Mem, a.Reserved.Mem),
		Disk: sub(a.Total.Disk, a.Used.Disk, a.Offered.Disk, a.Reserved.Disk),
		GPU:  sub(a.Total.GPU, a.Used.GPU, a.Offered.GPU, a.Reserved.GPU),
	}
}

// Fits reports whether the agent's available resources cover demand in
// every dimension.
func (a *Agent) Fits(demand Resources) bool {
	avail := a.Available()
	return avail.CPUs >= demand.CPUs && avail.Mem >= demand.Mem &&
		avail.Disk >= demand.Disk && avail.GPU >= demand.GPU
}

// AvailablePorts computes the free port ranges by subtracting UsedPorts
// from AdvertisedPorts.
func (a *Agent) AvailablePorts() []PortRange {
	return SubtractRanges(a.AdvertisedPorts, a.UsedPorts)
}

// SubtractRanges removes every interval in used from every interval in
// advertised, returning the remaining sub-ranges in ascending order. A used
// range that fully contains an advertised range removes it entirely.
func SubtractRanges(advertised, used []PortRange) []PortRange {
	var remaining []PortRange
	for _, adv := range advertised {
		pieces := []PortRange{adv}
		for _, u := range used {
			var next []PortRange
			for _, p := range pieces {
				if u.End < p.Begin || u.Begin > p.End {
					next = append(next, p)
					continue
				}
				if u.Begin > p.Begin {
					next = append(next, PortRange{Begin: p.Begin, End: u.Begin - 1})
				}
				if u.End < p.End {
					next = append(next, PortRange{Begin: u.End + 1, End: p.End})
				}
			}
			pieces = next
		}
		remaining = append(remaining, pieces...)
	}
	return remaining
}

// SchedulePlan is a per-tick output: tasks ready to dispatch and volumes
// ready to provision, plus whether the producing ensemble has finished.
type SchedulePlan struct {
	ApplianceID string
	Tasks       []*Task
	Volumes     []*PersistentVolume
	Done        bool
}
