package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reelfeed_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// FeedCacheHits counts feed cache hits and misses by outcome.
	FeedCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reelfeed_feed_cache_requests_total",
		Help: "Feed cache lookups by outcome (hit, miss, expired)",
	}, []string{"outcome"})

	// FollowCacheHits counts follow-graph cache lookups by tier and outcome.
	FollowCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reelfeed_follow_cache_requests_total",
		Help: "Follow-graph cache lookups by tier and outcome",
	}, []string{"tier", "outcome"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reelfeed_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// WebSocketConnectionsTotal is the gauge of active WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reelfeed_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketEventsTotal counts WebSocket events by type.
	WebSocketEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reelfeed_websocket_events_total",
		Help: "Total WebSocket events by type",
	}, []string{"event_type"})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reelfeed_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})

	// MediaBytesStreamed counts bytes served by the media endpoint by response class.
	MediaBytesStreamed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reelfeed_media_bytes_streamed_total",
		Help: "Bytes streamed by the media endpoint, by response class (full, partial)",
	}, []string{"class"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
