package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AppliancesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pivot_appliances_total",
			Help: "Total number of appliances known to the control plane",
		},
	)

	TasksTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pivot_tasks_total",
			Help: "Total number of tasks by state",
		},
		[]string{"state"},
	)

	VolumesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pivot_volumes_total",
			Help: "Total number of persistent volumes by scope",
		},
		[]string{"scope"},
	)

	AgentsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pivot_agents_total",
			Help: "Total number of agents in the last cluster snapshot",
		},
	)

	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pivot_api_requests_total",
			Help: "Total number of API requests by method and status",
		},
		[]string{"method", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pivot_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	ApplianceSchedulingLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pivot_appliance_scheduling_latency_seconds",
			Help:    "Time taken for one per-appliance scheduler tick",
			Buckets: prometheus.DefBuckets,
		},
	)

	GlobalSchedulingLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pivot_global_scheduling_latency_seconds",
			Help:    "Time taken for one global scheduler tick",
			Buckets: prometheus.DefBuckets,
		},
	)

	TasksScheduled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pivot_tasks_scheduled_total",
			Help: "Total number of tasks dispatched to a backend",
		},
	)

	TasksFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pivot_tasks_failed_total",
			Help: "Total number of tasks observed in a terminal failure state",
		},
	)

	ApplianceCreateDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pivot_appliance_create_duration_seconds",
			Help:    "Time taken to validate and persist a new appliance",
			Buckets: prometheus.DefBuckets,
		},
	)

	ApplianceDeleteDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pivot_appliance_delete_duration_seconds",
			Help:    "Time taken to tear down an appliance's containers and volumes",
			Buckets: prometheus.DefBuckets,
		},
	)

	ApplianceRollbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pivot_appliance_rollbacks_total",
			Help: "Total number of appliance creations that rolled back",
		},
	)

	ReconciliationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pivot_reconciliation_duration_seconds",
			Help:    "Time taken for a reconciliation cycle",
			Buckets: prometheus.DefBuckets,
		},
	)

	ReconciliationCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pivot_reconciliation_cycles_total",
			Help: "Total number of reconciliation cycles completed",
		},
	)

	ClusterSnapshotDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pivot_cluster_snapshot_duration_seconds",
			Help:    "Time taken to refresh the cluster agent snapshot",
			Buckets: prometheus.DefBuckets,
		},
	)

	BackendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pivot_backend_requests_total",
			Help: "Total number of requests issued to an upstream backend",
		},
		[]string{"backend", "status"},
	)

	BackendRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pivot_backend_retries_total",
			Help: "Total number of retried backend requests",
		},
		[]string{"backend"},
	)
)

func init() {
	prometheus.MustRegister(
		AppliancesTotal,
		TasksTotal,
		VolumesTotal,
		AgentsTotal,
		APIRequestsTotal,
		APIRequestDuration,
		ApplianceSchedulingLatency,
		GlobalSchedulingLatency,
		TasksScheduled,
		TasksFailed,
		ApplianceCreateDuration,
		ApplianceDeleteDuration,
		ApplianceRollbacksTotal,
		ReconciliationDuration,
		ReconciliationCyclesTotal,
		ClusterSnapshotDuration,
		BackendRequestsTotal,
		BackendRetriesTotal,
	)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations against a histogram.
type Timer struct {
	start time.Time
}

func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
