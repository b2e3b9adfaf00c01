// Package metrics provides Prometheus metrics for the zanshin scoring service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "zanshin"

// registry is the custom registry served from /healthz. Keeping our own
// registry avoids the default Go/process collectors polluting the scrape.
var registry = prometheus.NewRegistry()

// Latency buckets in milliseconds shared by all histograms.
var latencyBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000}

var (
	// Scoring pipeline.
	pointsRecorded = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "points_recorded_total",
		Help: "Points accepted and persisted by bout saves.",
	})
	pointsSkipped = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "points_skipped_total",
		Help: "Candidate point rows silently dropped during screening.",
	}, []string{"reason"})
	outcomeRecomputes = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "outcome_recomputes_total",
		Help: "Bout outcome computations by resulting win type.",
	}, []string{"win_type"})
	outcomeWrites = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "outcome_writes_total",
		Help: "Bout outcome updates persisted (changed outcomes only).",
	})

	// Stream aggregator.
	counterIncrements = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "daily_counter_increments_total",
		Help: "Daily counter increments applied, by counter kind.",
	}, []string{"kind"})
	counterErrors = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "daily_counter_errors_total",
		Help: "Failed counter updates, by component.",
	}, []string{"component"})
	rebuildRuns = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "rebuild_runs_total",
		Help: "Batch counter rebuilds executed.",
	})
	rebuildDuration = promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Name: "rebuild_duration_ms",
		Help:    "Batch rebuild wall time in milliseconds.",
		Buckets: latencyBuckets,
	})

	// Queue.
	queueSize = promauto.With(registry).NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "queue_size",
		Help: "Current number of queued point events.",
	})
	queueCapacity = promauto.With(registry).NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "queue_capacity",
		Help: "Configured point event queue capacity.",
	})
	queueEnqueues = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "queue_enqueues_total",
		Help: "Point events enqueued for asynchronous aggregation.",
	})
	queueEnqueueErrors = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "queue_enqueue_errors_total",
		Help: "Enqueue failures, by reason.",
	}, []string{"reason"})
	queueDequeues = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "queue_dequeues_total",
		Help: "Point events handed to workers.",
	})
	eventDuplicates = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "event_duplicates_total",
		Help: "Point events dropped by the idempotency guard.",
	})

	// Workers.
	workerCount = promauto.With(registry).NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "worker_count",
		Help: "Number of aggregation workers.",
	})
	workerLatency = promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Name: "worker_processing_ms",
		Help:    "Per-event worker processing time in milliseconds.",
		Buckets: latencyBuckets,
	})
	workerErrors = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "worker_errors_total",
		Help: "Point events whose counter updates failed at least once.",
	})

	// Read path.
	statsQueryLatency = promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Name: "stats_query_ms",
		Help:    "Player statistics query time in milliseconds, fetch included.",
		Buckets: latencyBuckets,
	})

	// Summarizer.
	summaryRequests = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "summary_requests_total",
		Help: "AI summary requests issued.",
	})
	summaryErrors = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "summary_errors_total",
		Help: "AI summary requests that failed.",
	})
	summaryLatency = promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Name: "summary_latency_ms",
		Help:    "AI summary round-trip time in milliseconds.",
		Buckets: latencyBuckets,
	})

	// HTTP.
	httpRequests = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "http_requests_total",
		Help: "HTTP requests by endpoint, method and status.",
	}, []string{"endpoint", "method", "status"})
	httpRequestDuration = promauto.With(registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Name: "http_request_duration_ms",
		Help:    "HTTP request duration in milliseconds.",
		Buckets: latencyBuckets,
	}, []string{"endpoint", "method", "status"})
)

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry { return registry }

// RecordPointRecorded increments the accepted point counter.
func RecordPointRecorded() {
	pointsRecorded.Inc()
}

// RecordPointSkipped increments the skipped point counter for a reason.
func RecordPointSkipped(reason string) {
	pointsSkipped.WithLabelValues(reason).Inc()
}

// RecordOutcomeRecompute increments the recompute counter for a win type.
func RecordOutcomeRecompute(winType string) {
	outcomeRecomputes.WithLabelValues(winType).Inc()
}

// RecordOutcomeWrite increments the persisted outcome counter.
func RecordOutcomeWrite() {
	outcomeWrites.Inc()
}

// RecordCounterIncrement increments the daily counter update counter.
func RecordCounterIncrement(kind string) {
	counterIncrements.WithLabelValues(kind).Inc()
}

// RecordCounterError increments the counter failure counter for a component.
func RecordCounterError(component string) {
	counterErrors.WithLabelValues(component).Inc()
}

// RecordRebuildRun increments the batch rebuild counter.
func RecordRebuildRun() {
	rebuildRuns.Inc()
}

// RecordRebuildDuration records batch rebuild wall time in milliseconds.
func RecordRebuildDuration(latencyMs float64) {
	rebuildDuration.Observe(latencyMs)
}

// UpdateQueueSize sets the current queue size gauge.
func UpdateQueueSize(size int) {
	queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the configured queue capacity gauge.
func UpdateQueueCapacity(capacity int) {
	queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	queueEnqueues.Inc()
}

// RecordQueueEnqueueError increments the enqueue failure counter for a reason.
func RecordQueueEnqueueError(reason string) {
	queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	queueDequeues.Inc()
}

// RecordEventDuplicate increments the duplicate event counter.
func RecordEventDuplicate() {
	eventDuplicates.Inc()
}

// UpdateWorkerCount sets the active worker gauge.
func UpdateWorkerCount(count int) {
	workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records per-event worker time in milliseconds.
func RecordWorkerProcessingLatency(latencyMs float64) {
	workerLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker failure counter.
func RecordWorkerError() {
	workerErrors.Inc()
}

// RecordStatsQueryLatency records stats query time in milliseconds.
func RecordStatsQueryLatency(latencyMs float64) {
	statsQueryLatency.Observe(latencyMs)
}

// RecordSummaryRequest increments the AI summary request counter.
func RecordSummaryRequest() {
	summaryRequests.Inc()
}

// RecordSummaryError increments the AI summary failure counter.
func RecordSummaryError() {
	summaryErrors.Inc()
}

// RecordSummaryLatency records AI summary round-trip time in milliseconds.
func RecordSummaryLatency(latencyMs float64) {
	summaryLatency.Observe(latencyMs)
}

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, status string) {
	httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, status string, latencyMs float64) {
	httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(latencyMs)
}
