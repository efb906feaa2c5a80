/*
Package metrics defines and registers PIVOT's Prometheus metrics:
appliance/task/volume/agent gauges, scheduler and reconciler latency
histograms, and backend request counters. Handler exposes them for
scraping; Timer times an operation against a histogram.

A health subsystem (HealthChecker, HealthHandler/ReadyHandler/
LivenessHandler) tracks per-component up/down state independent of the
Prometheus registry, for use by orchestrator liveness/readiness probes.
*/
package metrics
