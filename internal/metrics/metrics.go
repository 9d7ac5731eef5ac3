// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the recommendation serving path, the
// offline model builder, the vector store, the response cache, and the
// circuit breakers guarding every external call on the serving path.

var (
	// Recommendation Serving Metrics
	RecommendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_requests_total",
			Help: "Total number of recommendation requests",
		},
		[]string{"strategy", "outcome"}, // outcome: "ok", "fallback", "error"
	)

	RecommendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommend_request_duration_seconds",
			Help:    "Duration of recommendation requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"strategy"},
	)

	RecommendActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recommend_active_requests",
			Help: "Current number of in-flight recommendation requests",
		},
	)

	RecommendItemsBySource = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_items_by_source_total",
			Help: "Total number of returned items by provenance source",
		},
		[]string{"source"}, // "content", "content_social", "social", "fallback"
	)

	RecommendFallbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_fallback_total",
			Help: "Total number of requests that diverted to the fallback path",
		},
		[]string{"reason"}, // "vectorstore_unavailable", "no_candidates", "breaker_open"
	)

	RecommendRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Model Builder Metrics
	BuilderRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "builder_run_duration_seconds",
			Help:    "Duration of model builder runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		},
	)

	BuilderRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "builder_runs_total",
			Help: "Total number of model builder runs",
		},
		[]string{"outcome"}, // "published", "aborted_min_events", "aborted_min_users", "error"
	)

	BuilderEventsEmbedded = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "builder_events_embedded",
			Help:    "Number of future events embedded per build run",
			Buckets: []float64{10, 50, 100, 500, 1000, 5000, 10000, 50000},
		},
	)

	BuilderUsersEmbedded = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "builder_users_embedded",
			Help:    "Number of active users embedded per build run",
			Buckets: []float64{10, 50, 100, 500, 1000, 5000, 10000, 50000},
		},
	)

	BuilderDiversityScore = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "builder_mean_pairwise_diversity",
			Help: "Mean pairwise cosine diversity of the most recent embedding batch",
		},
	)

	BuilderLastSuccessTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "builder_last_success_timestamp",
			Help: "Unix timestamp of the last successfully published model version",
		},
	)

	// Vector Store Metrics
	VectorStoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vectorstore_operation_duration_seconds",
			Help:    "Duration of vector store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "collection"}, // operation: "read", "write", "search"
	)

	VectorStoreOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vectorstore_operation_errors_total",
			Help: "Total number of vector store operation errors",
		},
		[]string{"operation", "collection"},
	)

	VectorStoreSearchCandidates = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vectorstore_search_candidates",
			Help:    "Number of candidates returned by a vector store search",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		},
		[]string{"collection"},
	)

	// Response Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache_type"},
	)

	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_invalidations_total",
			Help: "Total number of cache invalidation operations (e.g. a model version swap)",
		},
		[]string{"cache_type"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through a circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Model Version Bus Metrics
	VersionBusPublishedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "versionbus_published_total",
			Help: "Total number of model version announcements published",
		},
	)

	VersionBusReceivedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "versionbus_received_total",
			Help: "Total number of model version announcements received",
		},
	)

	VersionBusPublishErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "versionbus_publish_errors_total",
			Help: "Total number of failed model version announcement publishes",
		},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordRecommendRequest records a completed recommendation request.
func RecordRecommendRequest(strategy, outcome string, duration time.Duration) {
	RecommendRequestsTotal.WithLabelValues(strategy, outcome).Inc()
	RecommendRequestDuration.WithLabelValues(strategy).Observe(duration.Seconds())
}

// TrackActiveRecommendRequest tracks in-flight recommendation requests.
func TrackActiveRecommendRequest(inc bool) {
	if inc {
		RecommendActiveRequests.Inc()
	} else {
		RecommendActiveRequests.Dec()
	}
}

// RecordRecommendItems tallies returned items by provenance source.
func RecordRecommendItems(sources map[string]int) {
	for source, count := range sources {
		RecommendItemsBySource.WithLabelValues(source).Add(float64(count))
	}
}

// RecordRecommendFallback records a request that diverted to the fallback path.
func RecordRecommendFallback(reason string) {
	RecommendFallbackTotal.WithLabelValues(reason).Inc()
}

// RecordBuilderRun records a completed model builder run.
func RecordBuilderRun(outcome string, duration time.Duration) {
	BuilderRunsTotal.WithLabelValues(outcome).Inc()
	BuilderRunDuration.Observe(duration.Seconds())
	if outcome == "published" {
		BuilderLastSuccessTimestamp.Set(float64(time.Now().Unix()))
	}
}

// RecordBuilderBatch records the size and quality of a completed embedding batch.
func RecordBuilderBatch(eventsEmbedded, usersEmbedded int, diversity float64) {
	BuilderEventsEmbedded.Observe(float64(eventsEmbedded))
	BuilderUsersEmbedded.Observe(float64(usersEmbedded))
	BuilderDiversityScore.Set(diversity)
}

// RecordVectorStoreOperation records a vector store read, write, or search.
func RecordVectorStoreOperation(operation, collection string, duration time.Duration, err error) {
	VectorStoreOperationDuration.WithLabelValues(operation, collection).Observe(duration.Seconds())
	if err != nil {
		VectorStoreOperationErrors.WithLabelValues(operation, collection).Inc()
	}
}

// RecordVectorStoreSearch records the candidate count of a completed search.
func RecordVectorStoreSearch(collection string, candidates int) {
	VectorStoreSearchCandidates.WithLabelValues(collection).Observe(float64(candidates))
}

// RecordCacheHit records a cache hit.
func RecordCacheHit(cacheType string) {
	CacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a cache miss.
func RecordCacheMiss(cacheType string) {
	CacheMisses.WithLabelValues(cacheType).Inc()
}

// RecordCacheInvalidation records a cache invalidation sweep (e.g. triggered by versionbus).
func RecordCacheInvalidation(cacheType string) {
	CacheInvalidations.WithLabelValues(cacheType).Inc()
}

// circuitBreakerStateValue maps gobreaker's named states to the gauge's numeric encoding.
func circuitBreakerStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}

// RecordCircuitBreakerRequest records the outcome of a single guarded call.
func RecordCircuitBreakerRequest(name, result string) {
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}

// RecordCircuitBreakerTransition records a state transition and updates the state gauge.
func RecordCircuitBreakerTransition(name, fromState, toState string) {
	CircuitBreakerTransitions.WithLabelValues(name, fromState, toState).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(circuitBreakerStateValue(toState))
}

// RecordVersionBusPublish records an outgoing model version announcement.
func RecordVersionBusPublish(err error) {
	if err != nil {
		VersionBusPublishErrors.Inc()
		return
	}
	VersionBusPublishedTotal.Inc()
}

// RecordVersionBusReceived records an incoming model version announcement.
func RecordVersionBusReceived() {
	VersionBusReceivedTotal.Inc()
}
