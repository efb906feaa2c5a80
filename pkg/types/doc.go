/*
Package types defines PIVOT's domain model: the declarative objects an
appliance author submits (Appliance, Container, PersistentVolume) and the
runtime objects the scheduler and reconciler produce from them (Task,
Agent, Endpoint, Placement, SchedulePlan).

# Core types

Appliance owns an ordered set of Containers plus an optional
DataPersistence (declared PersistentVolumes and a shared volume driver).
Container is a single tagged-union struct: Kind selects SERVICE or JOB,
and the variant-only fields live in Service/Job. A Container with
Instances = n produces n Tasks, numbered 0..n-1, with id
"<containerID>-<seqNo>".

Task carries the backend-assigned MesosTaskID and State once dispatched.
State follows the lattice documented on TaskState: SUBMITTED -> STAGING ->
STARTING -> RUNNING -> a terminal or error state. FINISHED is terminal
only for job tasks; RUNNING is the service steady state.

PersistentVolume is either LOCAL (owned by one appliance, tracked via
ApplianceID) or GLOBAL (shared across appliances, reference-counted via
UsedBy). Agent is a point-in-time compute-node snapshot produced by the
cluster poller; Available/Fits/AvailablePorts implement the
total-minus-used-minus-offered-minus-reserved resource arithmetic and the
advertised-minus-used port-range subtraction the scheduler relies on.

This package has no dependency on storage, backend adapters, or the
scheduler: it is pure data plus the small amount of arithmetic (resource
subtraction, port-range subtraction) that every consumer needs identically.
*/
package types
