// Package reconciler runs a cross-appliance watchdog for tasks that never
// progress past SUBMITTED. Per-task, per-backend reconciliation (pulling
// live state and writing it back onto the task) happens inline in each
// appliance's own scheduler tick (pkg/scheduler); this package covers the
// case that per-task reconciliation does not: a task the backend has
// simply stopped reporting on entirely.
package reconciler
