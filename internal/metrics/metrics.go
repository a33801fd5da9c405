package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamRequestsTotal tracks outbound API calls by upstream and endpoint.
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_api_requests_total",
			Help: "Total number of upstream API requests made (by api, endpoint, and status).",
		},
		[]string{"api", "endpoint", "status"},
	)

	// UpstreamRequestDuration measures the duration of outbound API calls.
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_api_request_duration_seconds",
			Help:    "Duration of upstream API requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms → ~16s
		},
		[]string{"api", "endpoint"},
	)

	// CacheOpsTotal tracks Redis cache lookups by logical cache and result.
	CacheOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_ops_total",
			Help: "Cache lookup outcomes (hit, miss, error) by logical cache name.",
		},
		[]string{"cache", "result"},
	)

	// ClassificationsTotal counts venue classification decisions.
	ClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venue_classifications_total",
			Help: "Venue classification decisions by verdict (cex or dex).",
		},
		[]string{"verdict"},
	)

	// NATSPublishErrors tracks NATS publish failures by subject.
	NATSPublishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nats_publish_errors_total",
			Help: "Number of NATS publish failures by subject.",
		},
		[]string{"subject"},
	)
)

// IncUpstreamRequest increments the upstream API request counter.
func IncUpstreamRequest(api, endpoint, status string) {
	UpstreamRequestsTotal.WithLabelValues(api, endpoint, status).Inc()
}

// IncCacheOp records a cache lookup outcome ("hit", "miss", or "error").
func IncCacheOp(cache, result string) {
	CacheOpsTotal.WithLabelValues(cache, result).Inc()
}

// IncClassification records a classification verdict ("cex" or "dex").
func IncClassification(centralized bool) {
	verdict := "dex"
	if centralized {
		verdict = "cex"
	}
	ClassificationsTotal.WithLabelValues(verdict).Inc()
}

// ObserveDuration records elapsed time since start into a HistogramVec or SummaryVec.
func ObserveDuration(v any, start time.Time, labels ...string) {
	duration := time.Since(start).Seconds()
	switch metric := v.(type) {
	case *prometheus.HistogramVec:
		metric.WithLabelValues(labels...).Observe(duration)
	case *prometheus.SummaryVec:
		metric.WithLabelValues(labels...).Observe(duration)
	}
}

// IncNATSPublishError increments the NATS publish error counter for the given subject.
func IncNATSPublishError(subject string) {
	NATSPublishErrors.WithLabelValues(subject).Inc()
}
