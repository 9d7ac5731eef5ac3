// eventreco - personalized event recommendation engine
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package metrics provides Prometheus metrics collection and export for observability.

This package implements application instrumentation using the Prometheus client
library, exposing metrics for the recommendation serving path, the offline model
builder, the vector store, the response cache, and the circuit breakers that
guard every external call the serving path makes.

# Overview

The package provides metrics for:
  - Recommendation request latency, throughput, and fallback rate
  - Returned item provenance (content similarity vs. social boost vs. fallback)
  - Model builder run duration, batch sizes, and embedding diversity
  - Vector store read/write/search latency and errors
  - Response cache hit/miss rates and invalidations
  - Circuit breaker state transitions
  - Model version bus publish/receive counts

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8080/metrics

# Available Metrics

Recommendation Serving:
  - recommend_requests_total: Total requests (counter)
    Labels: strategy, outcome (ok, fallback, error)
  - recommend_request_duration_seconds: Request latency (histogram)
    Labels: strategy
  - recommend_active_requests: In-flight requests (gauge)
  - recommend_items_by_source_total: Returned items by provenance (counter)
    Labels: source (content, content_social, social, fallback)
  - recommend_fallback_total: Requests that diverted to fallback (counter)
    Labels: reason

Model Builder:
  - builder_run_duration_seconds: Build run duration (histogram)
  - builder_runs_total: Build runs by outcome (counter)
  - builder_events_embedded / builder_users_embedded: Batch sizes (histograms)
  - builder_mean_pairwise_diversity: Most recent batch's diversity score (gauge)
  - builder_last_success_timestamp: Unix timestamp of last published version (gauge)

Vector Store:
  - vectorstore_operation_duration_seconds: Read/write/search latency (histogram)
    Labels: operation, collection
  - vectorstore_operation_errors_total: Failed operations (counter)
  - vectorstore_search_candidates: Candidates returned per search (histogram)

Response Cache:
  - cache_hits_total / cache_misses_total: Hit and miss counts (counters)
    Labels: cache_type
  - cache_invalidations_total: Invalidation sweeps, e.g. on a model version swap (counter)

Circuit Breaker Metrics:
  - circuit_breaker_state: Current state (gauge)
    Labels: name
    Values: 0=closed, 1=half-open, 2=open
  - circuit_breaker_requests_total: Outcomes through the breaker (counter)
    Labels: name, result
  - circuit_breaker_state_transitions_total: State changes (counter)
    Labels: name, from_state, to_state

Model Version Bus:
  - versionbus_published_total / versionbus_received_total: Announcement counts (counters)
  - versionbus_publish_errors_total: Failed publishes (counter)

# Usage Example

Basic setup in main.go:

	import (
	    "github.com/mfolsom1/eventreco/internal/metrics"
	    "github.com/prometheus/client_golang/prometheus/promhttp"
	)

	func main() {
	    http.Handle("/metrics", promhttp.Handler())

	    start := time.Now()
	    resp, err := engine.Recommend(ctx, req)
	    metrics.RecordRecommendRequest(req.Strategy, outcome(err), time.Since(start))
	}

# Prometheus Configuration

Example prometheus.yml configuration:

	scrape_configs:
	  - job_name: 'eventreco'
	    static_configs:
	      - targets: ['localhost:8080']
	    metrics_path: '/metrics'
	    scrape_interval: 15s

Example PromQL queries:

	# p95 recommendation latency
	histogram_quantile(0.95, rate(recommend_request_duration_seconds_bucket[5m]))

	# fallback rate
	sum(rate(recommend_fallback_total[5m])) / sum(rate(recommend_requests_total[5m]))

	# cache hit rate
	sum(rate(cache_hits_total[5m])) / (sum(rate(cache_hits_total[5m])) + sum(rate(cache_misses_total[5m])))

# Thread Safety

All metric recording functions are thread-safe and designed for concurrent use
from multiple goroutines. The Prometheus client library handles synchronization
internally.

# Cardinality Management

To prevent high cardinality issues, strategy and outcome labels are drawn from
small closed sets (three strategies, a handful of outcomes), and collection/
cache_type labels are drawn from the fixed set of named collections and caches
this repository defines — never from user- or event-supplied values.

# See Also

  - internal/api, internal/recommend: the recommend_* request, latency,
    items-by-source and fallback collectors are registered here, but neither
    package records to them
  - internal/modelbuilder: emits the builder_* metrics on each run
  - https://prometheus.io/docs/practices/naming/: Metric naming conventions
*/
package metrics
