// Package manager wraps each of the two execution backends plus the
// cluster master behind a small CRUD surface scoped to one resource kind:
// service tasks, job tasks, general (mesos-level) task state, and
// persistent volumes. Schedulers call through these managers instead of
// talking to pkg/backend directly so that dispatch, state writes, and
// logging stay in one place per resource kind.
package manager
