// Package metrics provides Prometheus metrics for the handicapping service.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Race outcomes.
const (
	OutcomeReported = "reported"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
)

// Manager owns the Prometheus collectors of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Analysis
	racesAnalyzed *prometheus.CounterVec
	contenders    prometheus.Histogram
	stageLatency  *prometheus.HistogramVec
	adjustments   *prometheus.CounterVec
	paceScenarios *prometheus.CounterVec

	// Jobs, queue and workers
	jobsDuplicate      prometheus.Counter
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter
	workerCount        prometheus.Gauge
	workerLatency      prometheus.Histogram
	workerErrors       prometheus.Counter

	// Report store
	reportsStored prometheus.Gauge
	storeLatency  *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRaceResponses   *prometheus.CounterVec

	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "handicap",
		subsystem:        "analysis",
		histogramBuckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.racesAnalyzed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "races_total",
		Help:      "Races analyzed by outcome (reported, skipped, failed)",
	}, []string{"outcome"})

	m.contenders = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "contenders_per_race",
		Help:      "Contenders kept by the filter per race",
		Buckets:   []float64{1, 2, 3, 4, 5, 6, 8, 10, 12, 14},
	})

	m.stageLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stage_latency_milliseconds",
		Help:      "Latency of each analysis stage in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"stage"})

	m.adjustments = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "adjustments_total",
		Help:      "Situational signals by disposition",
	}, []string{"disposition"})

	m.paceScenarios = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pace_scenarios_total",
		Help:      "Projected pace scenarios",
	}, []string{"scenario"})

	m.jobsDuplicate = m.counter("jobs_duplicate_total", "Race jobs acknowledged as duplicates")
	m.queueSize = m.gauge("queue_size", "Race jobs waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum race jobs the queue holds")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Race jobs enqueued")
	m.queueDequeued = m.counter("queue_dequeued_total", "Race jobs dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Race jobs rejected by the queue")
	m.workerCount = m.gauge("worker_count", "Running analysis workers")
	m.workerErrors = m.counter("worker_errors_total", "Race jobs a worker failed to finish")
	m.reportsStored = m.gauge("reports_stored", "Reports held by the report store")

	m.workerLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_job_latency_milliseconds",
		Help:      "Time a worker spends on one race job in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.storeLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_latency_milliseconds",
		Help:      "Report store operation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"op"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRaceResponses = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_race_responses_total",
		Help:      "Race endpoint responses by outcome (accepted, duplicate, reported, skipped or an error code)",
	}, []string{"endpoint", "outcome"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_total",
		Help:      "Errors by component and type",
	}, []string{"component", "error_type"})
}

// RecordRace counts a finished race under its outcome.
func RecordRace(outcome string) error {
	switch outcome {
	case OutcomeReported, OutcomeSkipped, OutcomeFailed:
		globalManager.racesAnalyzed.WithLabelValues(outcome).Inc()
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOutcome, outcome)
	}
}

// ObserveContenders records the contender count of a race.
func ObserveContenders(n int) { globalManager.contenders.Observe(float64(n)) }

// RecordStageLatency records a stage's latency in milliseconds.
func RecordStageLatency(stage string, latencyMs float64) {
	globalManager.stageLatency.WithLabelValues(stage).Observe(latencyMs)
}

// RecordAdjustments adds n signals of the disposition.
func RecordAdjustments(disposition string, n int) {
	globalManager.adjustments.WithLabelValues(disposition).Add(float64(n))
}

// RecordPaceScenario counts a projected pace scenario.
func RecordPaceScenario(scenario string) {
	globalManager.paceScenarios.WithLabelValues(scenario).Inc()
}

// RecordJobDuplicate counts a duplicate race job.
func RecordJobDuplicate() { globalManager.jobsDuplicate.Inc() }

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueEnqueue counts an enqueued job.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueDequeue counts a dequeued job.
func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

// RecordQueueEnqueueError counts a rejected job.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// UpdateWorkerCount sets the number of running workers.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// RecordWorkerLatency records the time spent on one job in milliseconds.
func RecordWorkerLatency(latencyMs float64) { globalManager.workerLatency.Observe(latencyMs) }

// RecordWorkerError counts a failed job.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// UpdateReportsStored sets the number of stored reports.
func UpdateReportsStored(count int) { globalManager.reportsStored.Set(float64(count)) }

// RecordStoreLatency records a store operation's latency in milliseconds.
func RecordStoreLatency(op string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordRaceResponse counts a race endpoint response under its outcome.
func RecordRaceResponse(endpoint, outcome string) {
	globalManager.httpRaceResponses.WithLabelValues(endpoint, outcome).Inc()
}

// RecordError counts an error by component and type.
func RecordError(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the registry holding the global metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
