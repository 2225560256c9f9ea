// Package metrics provides Prometheus metrics for the sentiscan service.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Label values shared by callers.
const (
	ResultHit       = "hit"
	ResultMiss      = "miss"
	ResultMemoryHit = "memory_hit"
	ResultDiskHit   = "disk_hit"
	OutcomeOK       = "ok"
	OutcomeError    = "error"
)

// Manager manages all Prometheus metrics for the sentiscan service.
type Manager struct {
	namespace       string
	enabled         atomic.Bool
	refreshInterval time.Duration
	registry        prometheus.Registerer
	gatherer        *prometheus.Registry

	// Snapshot store
	snapshotRequests     *prometheus.CounterVec
	snapshotFetchLatency prometheus.Histogram
	fetchErrors          prometheus.Counter
	quarantinedReviews   *prometheus.CounterVec
	storedSnapshots      prometheus.Gauge

	// Summary cache and LLM collaborator
	summaryRequests *prometheus.CounterVec
	llmCalls        *prometheus.CounterVec
	llmLatency      prometheus.Histogram

	// Analysis and comparison
	analysisLatency prometheus.Histogram
	comparisons     *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec
	errorLatency        *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// The manager every package-level recorder writes to.
var global atomic.Pointer[Manager] //nolint:gochecknoglobals // intentional global for singleton metrics manager

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	Init()
}

// Init replaces the global manager with one built from opts on a fresh
// registry, which GetRegistry then exposes. Call it once at startup, before
// anything is served.
func Init(opts ...Option) *Manager {
	reg := prometheus.NewRegistry()
	all := append(append([]Option(nil), opts...), WithPrometheusRegistry(reg))
	m := NewManager(all...)
	m.gatherer = reg
	global.Store(m)
	return m
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:       "sentiscan",
		refreshInterval: defaultRefreshInterval,
		registry:        prometheus.DefaultRegisterer,
	}
	m.enabled.Store(true)

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// Enabled reports whether the manager records anything.
func (m *Manager) Enabled() bool { return m.enabled.Load() }

// RefreshInterval is the period of the process gauge updater.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

// active returns the global manager, or nil while recording is disabled.
func active() *Manager {
	if m := global.Load(); m.enabled.Load() {
		return m
	}
	return nil
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	latencyBuckets := []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000}

	m.snapshotRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "snapshot_requests_total",
		Help:      "Snapshot lookups by result (hit = served from store, miss = fetched)",
	}, []string{"result"})

	m.snapshotFetchLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "snapshot_fetch_latency_milliseconds",
		Help:      "Latency of calls to the review scraping collaborator",
		Buckets:   latencyBuckets,
	})

	m.fetchErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "fetch_errors_total",
		Help:      "Failed calls to the review scraping collaborator",
	})

	m.quarantinedReviews = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "quarantined_reviews_total",
		Help:      "Raw review records rejected at the collaborator boundary",
	}, []string{"reason"})

	m.storedSnapshots = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "stored_snapshots",
		Help:      "Number of snapshots currently persisted",
	})

	m.summaryRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "summary_requests_total",
		Help:      "Summary cache lookups by result",
	}, []string{"result"})

	m.llmCalls = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "llm_calls_total",
		Help:      "Calls to the LLM collaborator by provider and outcome",
	}, []string{"provider", "outcome"})

	m.llmLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "llm_latency_milliseconds",
		Help:      "Latency of calls to the LLM collaborator",
		Buckets:   latencyBuckets,
	})

	m.analysisLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "analysis_latency_milliseconds",
		Help:      "Time spent scoring and aggregating one review set",
		Buckets:   prometheus.DefBuckets,
	})

	m.comparisons = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "comparisons_total",
		Help:      "Period comparisons by outcome",
	}, []string{"outcome"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   latencyBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "errors_by_type_total",
		Help:      "Errors by type and severity",
	}, []string{"error_type", "severity"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "errors_by_endpoint_total",
		Help:      "Errors by endpoint, method and type",
	}, []string{"endpoint", "method", "error_type"})

	m.errorLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "error_latency_milliseconds",
		Help:      "Latency of operations that ended in an error",
		Buckets:   latencyBuckets,
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "system_memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "system_gc_pause_time_milliseconds",
		Help:      "GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// Snapshot store.

// RecordSnapshotHit counts a snapshot served from the store.
func RecordSnapshotHit() {
	if m := active(); m != nil {
		m.snapshotRequests.WithLabelValues(ResultHit).Inc()
	}
}

// RecordSnapshotMiss counts a snapshot that had to be fetched.
func RecordSnapshotMiss() {
	if m := active(); m != nil {
		m.snapshotRequests.WithLabelValues(ResultMiss).Inc()
	}
}

// RecordFetchLatency records the scraping collaborator latency.
func RecordFetchLatency(latencyMs float64) {
	if m := active(); m != nil {
		m.snapshotFetchLatency.Observe(latencyMs)
	}
}

// RecordFetchError counts a failed scraping call.
func RecordFetchError() {
	if m := active(); m != nil {
		m.fetchErrors.Inc()
	}
}

// RecordQuarantinedReview counts a raw record dropped at the boundary.
func RecordQuarantinedReview(reason string) {
	if m := active(); m != nil {
		m.quarantinedReviews.WithLabelValues(reason).Inc()
	}
}

// UpdateStoredSnapshots sets the number of persisted snapshots.
func UpdateStoredSnapshots(count int) {
	if m := active(); m != nil {
		m.storedSnapshots.Set(float64(count))
	}
}

// Summary cache and LLM.

// RecordSummaryLookup counts a summary lookup by result
// (ResultMemoryHit, ResultDiskHit or ResultMiss).
func RecordSummaryLookup(result string) {
	if m := active(); m != nil {
		m.summaryRequests.WithLabelValues(result).Inc()
	}
}

// RecordLLMCall counts a call to the LLM collaborator and its latency.
func RecordLLMCall(provider, outcome string, latencyMs float64) {
	m := active()
	if m == nil {
		return
	}
	m.llmCalls.WithLabelValues(provider, outcome).Inc()
	m.llmLatency.Observe(latencyMs)
}

// Analysis and comparison.

// RecordAnalysisLatency records how long one analysis run took.
func RecordAnalysisLatency(latencyMs float64) {
	if m := active(); m != nil {
		m.analysisLatency.Observe(latencyMs)
	}
}

// RecordComparison counts a comparison by outcome.
func RecordComparison(outcome string) {
	if m := active(); m != nil {
		m.comparisons.WithLabelValues(outcome).Inc()
	}
}

// HTTP.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if m := active(); m != nil {
		m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if m := active(); m != nil {
		m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	if m := active(); m != nil {
		m.errorRateByType.WithLabelValues(errorType, severity).Inc()
	}
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if m := active(); m != nil {
		m.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	if m := active(); m != nil {
		m.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
	}
}

// System.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if m := active(); m != nil {
		m.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	if m := active(); m != nil {
		m.systemGoroutineCount.Set(float64(count))
	}
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	if m := active(); m != nil {
		m.systemGCPauseTime.Observe(pauseMs)
	}
}

// GetRegistry returns the registry the global manager records into.
func GetRegistry() *prometheus.Registry {
	return global.Load().gatherer
}

// Enabled reports whether the global manager records anything.
func Enabled() bool {
	return global.Load().Enabled()
}

// RefreshInterval returns the global manager's gauge refresh period.
func RefreshInterval() time.Duration {
	return global.Load().RefreshInterval()
}

// SetEnabled toggles recording on the global manager.
func SetEnabled(enabled bool) {
	global.Load().enabled.Store(enabled)
}
