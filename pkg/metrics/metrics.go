// Package metrics registers the Prometheus collectors for the engagement
// engine and serves them on a dedicated port.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Toggles counts ledger toggle outcomes by kind (follow, like) and
	// result (on, off, conflict, error).
	Toggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cliply_toggles_total",
		Help: "Relationship ledger toggle operations by kind and result.",
	}, []string{"kind", "result"})

	// NotificationsCreated counts fan-out records by kind.
	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cliply_notifications_created_total",
		Help: "Notification records created by kind.",
	}, []string{"kind"})

	// DriftRepairs counts counters reset by the reconciliation sweep.
	DriftRepairs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cliply_counter_drift_repairs_total",
		Help: "Aggregate counters self-healed from ledger fact counts.",
	}, []string{"counter"})

	// FeedDuration observes feed assembly latency by variant.
	FeedDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cliply_feed_request_duration_seconds",
		Help:    "Feed assembly latency by feed variant.",
		Buckets: prometheus.DefBuckets,
	}, []string{"variant"})

	// RetentionPurged counts records removed by retention sweeps.
	RetentionPurged = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cliply_retention_purged_total",
		Help: "Records removed by retention sweeps, by record type.",
	}, []string{"record"})
)

// Serve exposes /metrics on addr. Blocks until the server stops.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
