package metrics

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ItemsClaimed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postpilot_items_claimed_total",
		Help: "Scheduled items claimed for execution.",
	})

	ItemsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postpilot_items_completed_total",
		Help: "Scheduled items finalized, by terminal status.",
	}, []string{"status"})

	PlatformPosts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postpilot_platform_posts_total",
		Help: "Platform publish attempts, by platform and result.",
	}, []string{"platform", "result"})

	AnalyticsSyncs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postpilot_analytics_syncs_total",
		Help: "Analytics sync attempts per platform, by outcome.",
	}, []string{"platform", "outcome"})

	AnalyticsRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postpilot_analytics_retries_total",
		Help: "Analytics fetch retries after transient failures.",
	})

	DispatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "postpilot_dispatch_duration_seconds",
		Help:    "Wall time spent fanning out one scheduled item.",
		Buckets: prometheus.DefBuckets,
	})
)

// Serve exposes /metrics on its own listener so the scrape endpoint
// stays off the public API port. Blocks until the listener fails.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	slog.Info("metrics listener starting", slog.String("addr", addr))
	return http.ListenAndServe(addr, mux)
}
