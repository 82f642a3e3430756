// Package metrics provides Prometheus metrics for the Aurum scoring service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the scoring service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Scoring
	scoresGenerated    prometheus.Counter
	scoresDuplicate    prometheus.Counter
	scoringLatency     prometheus.Histogram
	scoreTotals        prometheus.Histogram
	eligibilityChecks  *prometheus.CounterVec
	historyPruned      prometheus.Counter
	historyDiscarded   prometheus.Counter
	entitlementsOK     prometheus.Counter
	entitlementInvalid *prometheus.CounterVec

	// Storage
	storageOps          *prometheus.CounterVec
	storageErrors       *prometheus.CounterVec
	storageLatency      *prometheus.HistogramVec
	storageBreakerState *prometheus.GaugeVec

	// Sweeper
	sweepRuns      prometheus.Counter
	sweepScanned   prometheus.Counter
	sweepDeleted   *prometheus.CounterVec
	sweepDuration  prometheus.Histogram
	sweepLastUnix  prometheus.Gauge
	sweepTruncated prometheus.Counter
	sweepFailures  prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "aurum",
		subsystem:        "scoring",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		enabled:          true,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.scoresGenerated = m.counter("scores_generated_total", "Total number of scores generated and stored")
	m.scoresDuplicate = m.counter("scores_duplicate_total", "Total number of scoring attempts rejected because the session was already scored")
	m.scoringLatency = m.histogram("scoring_latency_milliseconds", "Histogram of score generation latency in milliseconds", m.histogramBuckets)
	m.scoreTotals = m.histogram("score_total_value", "Distribution of published total scores", prometheus.LinearBuckets(55, 5, 9))
	m.eligibilityChecks = m.counterVec("eligibility_checks_total", "Eligibility checks by outcome (available, already_scored, unknown)", "outcome")
	m.historyPruned = m.counter("history_pruned_entries_total", "Expired entries pruned from score histories on read")
	m.historyDiscarded = m.counter("history_discarded_total", "Malformed score histories discarded")
	m.entitlementsOK = m.counter("entitlements_calculated_total", "Entitlement scores calculated successfully")
	m.entitlementInvalid = m.counterVec("entitlement_validation_errors_total", "Entitlement validation failures by field", "field")

	m.storageOps = m.counterVec("storage_operations_total", "Blob store operations by operation name", "op")
	m.storageErrors = m.counterVec("storage_errors_total", "Blob store errors by operation name", "op")
	m.storageLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "storage_latency_milliseconds",
		Help:        "Blob store operation latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"op"})
	m.storageBreakerState = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "storage_breaker_state",
		Help:        "Circuit breaker state per breaker (0=closed, 1=half-open, 2=open)",
		ConstLabels: m.constLabels,
	}, []string{"name"})

	m.sweepRuns = m.counter("sweep_runs_total", "Expiry sweep runs")
	m.sweepScanned = m.counter("sweep_scanned_keys_total", "Keys scanned by the expiry sweeper")
	m.sweepDeleted = m.counterVec("sweep_deleted_keys_total", "Keys deleted by the expiry sweeper by reason (expired, malformed)", "reason")
	m.sweepDuration = m.histogram("sweep_duration_milliseconds", "Expiry sweep duration in milliseconds", prometheus.ExponentialBuckets(1, 4, 10))
	m.sweepLastUnix = m.gauge("sweep_last_run_unix", "Unix timestamp of the last completed sweep")
	m.sweepTruncated = m.counter("sweep_truncated_total", "Sweeps stopped early by their time budget or cancellation")
	m.sweepFailures = m.counter("sweep_failures_total", "Sweeps aborted by a storage error")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})
	m.errorRateByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordScoreGenerated records a stored score and its published total.
func RecordScoreGenerated(total int, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.scoresGenerated.Inc()
	globalManager.scoreTotals.Observe(float64(total))
	globalManager.scoringLatency.Observe(latencyMs)
}

// RecordScoreDuplicate increments the already-scored counter.
func RecordScoreDuplicate() {
	if !globalManager.enabled {
		return
	}
	globalManager.scoresDuplicate.Inc()
}

// RecordEligibility records the outcome of an eligibility check.
func RecordEligibility(outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.eligibilityChecks.WithLabelValues(outcome).Inc()
}

// RecordHistoryPruned records expired entries pruned from a history.
func RecordHistoryPruned(n int) {
	if !globalManager.enabled || n <= 0 {
		return
	}
	globalManager.historyPruned.Add(float64(n))
}

// RecordHistoryDiscarded records a malformed history that was dropped.
func RecordHistoryDiscarded() {
	if !globalManager.enabled {
		return
	}
	globalManager.historyDiscarded.Inc()
}

// RecordEntitlementCalculated increments the successful entitlement counter.
func RecordEntitlementCalculated() {
	if !globalManager.enabled {
		return
	}
	globalManager.entitlementsOK.Inc()
}

// RecordEntitlementInvalid records a validation failure for field.
func RecordEntitlementInvalid(field string) {
	if !globalManager.enabled {
		return
	}
	globalManager.entitlementInvalid.WithLabelValues(field).Inc()
}

// RecordStorageOp records a blob store operation and its latency.
func RecordStorageOp(op string, latencyMs float64, failed bool) {
	if !globalManager.enabled {
		return
	}
	globalManager.storageOps.WithLabelValues(op).Inc()
	globalManager.storageLatency.WithLabelValues(op).Observe(latencyMs)
	if failed {
		globalManager.storageErrors.WithLabelValues(op).Inc()
	}
}

// UpdateBreakerState sets the numeric state of the named circuit breaker.
func UpdateBreakerState(name string, state int) {
	if !globalManager.enabled {
		return
	}
	globalManager.storageBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordSweep records a completed sweep.
func RecordSweep(scanned, expired, malformed int, durationMs float64, truncated bool, finishedUnix int64) {
	if !globalManager.enabled {
		return
	}
	globalManager.sweepRuns.Inc()
	globalManager.sweepScanned.Add(float64(scanned))
	globalManager.sweepDeleted.WithLabelValues("expired").Add(float64(expired))
	globalManager.sweepDeleted.WithLabelValues("malformed").Add(float64(malformed))
	globalManager.sweepDuration.Observe(durationMs)
	globalManager.sweepLastUnix.Set(float64(finishedUnix))
	if truncated {
		globalManager.sweepTruncated.Inc()
	}
}

// RecordSweepFailure increments the aborted sweep counter.
func RecordSweepFailure() {
	if !globalManager.enabled {
		return
	}
	globalManager.sweepFailures.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByType records errors by type and severity.
func RecordErrorByType(errorType, severity string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records errors by HTTP endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage updates the system memory usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount updates the goroutine count gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// Configure replaces the global manager with one built from opts on a fresh
// registry. Call it once at startup, before anything records.
func Configure(opts ...Option) {
	registry := prometheus.NewRegistry()
	globalManager = NewManager(append(opts, WithPrometheusRegistry(registry))...)
	customRegistry = registry
}

// GetRegistry returns the custom Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
