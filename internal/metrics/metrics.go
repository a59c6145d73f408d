package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Cache hit/miss counters
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gql_cache_hits_total",
			Help: "Total number of cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gql_cache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gql_cache_entries",
			Help: "Current number of cache entries",
		},
	)

	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gql_cache_errors_total",
			Help: "Total number of cache encode/decode/store errors",
		},
		[]string{"kind"},
	)

	// Rate limit gauges, refreshed from server-reported snapshots
	RateLimitLimit = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gql_rate_limit_total",
			Help: "Total quota per window as reported by the server",
		},
		[]string{"category"},
	)

	RateLimitRemaining = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gql_rate_limit_remaining",
			Help: "Remaining quota as reported by the server",
		},
		[]string{"category"},
	)

	// Batch scheduler counters
	BatchFlushes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gql_batch_flushes_total",
			Help: "Total number of batch flushes",
		},
		[]string{"reason"}, // "size" or "timer"
	)

	BatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gql_batch_size",
			Help:    "Number of operations per flushed batch",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		},
	)

	// Transport counters and latency
	GraphQLRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gql_requests_total",
			Help: "Total number of GraphQL requests by outcome",
		},
		[]string{"status"}, // "success", "graphql_error", "transport_error"
	)

	GraphQLRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gql_request_duration_seconds",
			Help:    "Duration of GraphQL network requests",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// RecordCacheHit records a cache hit
func RecordCacheHit() {
	CacheHits.Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss() {
	CacheMisses.Inc()
}

// RecordCacheError records a cache error of the given kind
func RecordCacheError(kind string) {
	CacheErrors.WithLabelValues(kind).Inc()
}

// UpdateCacheEntries updates the cache entry count gauge
func UpdateCacheEntries(count int) {
	CacheEntries.Set(float64(count))
}

// UpdateRateLimit updates the per-category quota gauges
func UpdateRateLimit(category string, limit, remaining int) {
	RateLimitLimit.WithLabelValues(category).Set(float64(limit))
	RateLimitRemaining.WithLabelValues(category).Set(float64(remaining))
}

// RecordBatchFlush records a flushed batch with its trigger reason and size
func RecordBatchFlush(reason string, size int) {
	BatchFlushes.WithLabelValues(reason).Inc()
	BatchSize.Observe(float64(size))
}

// RecordGraphQLRequest records one transport round-trip by outcome
func RecordGraphQLRequest(status string) {
	GraphQLRequests.WithLabelValues(status).Inc()
}

// TimeGraphQLRequest returns a timer function for measuring request duration
func TimeGraphQLRequest() func() {
	timer := prometheus.NewTimer(GraphQLRequestDuration)
	return func() {
		timer.ObserveDuration()
	}
}
