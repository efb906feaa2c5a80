// Package lifecycle orchestrates appliance creation and deletion: the one
// place that touches validation, volume provisioning, storage, and the
// scheduler registry together. Everything else in PIVOT either builds an
// ensemble from an already-persisted appliance (pkg/scheduler) or serves
// reads off the store (pkg/api); this package is where an appliance starts
// and stops existing.
package lifecycle
