package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "microblog_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "microblog_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// TimelineQueries counts timeline compositions served.
	TimelineQueries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "microblog_timeline_queries_total",
		Help: "Total number of timeline feed compositions",
	})

	// FollowEdgeChanges counts follow-graph mutations by action.
	FollowEdgeChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "microblog_follow_edge_changes_total",
		Help: "Total number of follow graph mutations by action",
	}, []string{"action"})

	// NotificationStreamConnections is the gauge of active notification stream connections.
	NotificationStreamConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "microblog_notification_stream_connections",
		Help: "Number of active WebSocket notification stream connections",
	})

	// ExportTasksTotal counts export task outcomes.
	ExportTasksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "microblog_export_tasks_total",
		Help: "Total number of export tasks by outcome",
	}, []string{"outcome"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
