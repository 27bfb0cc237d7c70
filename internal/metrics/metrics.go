package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sidemark"

var (
	// CacheLookups counts cache reads by cache name and result (hit|miss).
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Cache reads by cache and result.",
		},
		[]string{"cache", "result"},
	)

	CacheSwept = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_swept_total",
			Help:      "Expired entries removed by the sweeper.",
		},
		[]string{"cache"},
	)

	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Upstream API calls by API and outcome (ok|http_error|transport_error|decode_error).",
		},
		[]string{"api", "outcome"},
	)

	StarBatches = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "star_batches_total",
			Help:      "Star count batches fetched.",
		},
	)

	Triggers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "triggers_total",
			Help:      "Fetch sequences started, by stream.",
		},
		[]string{"stream"},
	)

	StaleSuppressed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_suppressed_total",
			Help:      "Messages not emitted because a newer request superseded them.",
		},
		[]string{"stream"},
	)

	HubDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hub_dropped_total",
			Help:      "Messages dropped because a subscriber buffer was full.",
		},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Trigger requests rejected by the per-IP rate limit.",
		},
	)

	HubSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hub_subscribers",
			Help:      "Connected event stream subscribers.",
		},
	)
)

// CacheResult maps a lookup outcome to its label value.
func CacheResult(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}
