package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the engine.
type Metrics struct {
	// Document operation metrics
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	OperationErrors   *prometheus.CounterVec

	// Gate evaluation metrics
	GateDecisionsTotal *prometheus.CounterVec
	AdminOverridesTotal *prometheus.CounterVec

	// Group cache metrics
	GroupCacheHitsTotal   prometheus.Counter
	GroupCacheMissesTotal prometheus.Counter

	// Storage metrics
	StorageOperationsTotal   *prometheus.CounterVec
	StorageOperationDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewMetrics creates and registers all engine metrics on the given registry.
// A nil registry gets a fresh one, keeping tests isolated from each other.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	m := &Metrics{
		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docflow_operations_total",
				Help: "Total document operations by type, operation and outcome",
			},
			[]string{"doc_type", "operation", "outcome"},
		),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docflow_operation_duration_seconds",
				Help:    "Document operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"doc_type", "operation"},
		),
		OperationErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docflow_operation_errors_total",
				Help: "Document operation failures by error kind",
			},
			[]string{"doc_type", "operation", "kind"},
		),
		GateDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docflow_gate_decisions_total",
				Help: "Gate evaluations by lifecycle phase and decision",
			},
			[]string{"phase", "decision"},
		),
		AdminOverridesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docflow_admin_overrides_total",
				Help: "Admin overrides of invalid state or transition checks",
			},
			[]string{"doc_type", "kind"},
		),
		GroupCacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docflow_group_cache_hits_total",
			Help: "Group registry cache hits",
		}),
		GroupCacheMissesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docflow_group_cache_misses_total",
			Help: "Group registry cache misses",
		}),
		StorageOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docflow_storage_operations_total",
				Help: "Storage collaborator calls by collection and operation",
			},
			[]string{"collection", "operation"},
		),
		StorageOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docflow_storage_operation_duration_seconds",
				Help:    "Storage collaborator call duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"collection", "operation"},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.OperationsTotal,
		m.OperationDuration,
		m.OperationErrors,
		m.GateDecisionsTotal,
		m.AdminOverridesTotal,
		m.GroupCacheHitsTotal,
		m.GroupCacheMissesTotal,
		m.StorageOperationsTotal,
		m.StorageOperationDuration,
	)
	return m
}

// ObserveOperation records one completed orchestrator operation.
func (m *Metrics) ObserveOperation(docType, operation, outcome string, start time.Time) {
	m.OperationsTotal.WithLabelValues(docType, operation, outcome).Inc()
	m.OperationDuration.WithLabelValues(docType, operation).Observe(time.Since(start).Seconds())
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
