// Package metrics provides Prometheus metrics for the deck tracker backend.
// Scrape these at /metrics for dashboards and alerting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deck_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deck_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Valuation metrics
	ValuationFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "deck_valuation_fallbacks_total",
			Help: "Sessions resolved with live computation because the summary cache was absent or incomplete",
		},
	)

	SnapshotCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "deck_snapshot_cache_hits_total",
			Help: "Price snapshot loads served from the in-memory cache",
		},
	)

	SnapshotCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "deck_snapshot_cache_misses_total",
			Help: "Price snapshot loads that went to the database",
		},
	)

	// Price ingestion metrics
	SnapshotFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deck_snapshot_fetches_total",
			Help: "Snapshot ingestion attempts by outcome",
		},
		[]string{"outcome"},
	)

	SnapshotFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "deck_snapshot_fetch_duration_seconds",
			Help:    "Time taken to fetch and persist one price snapshot",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	SummariesWrittenTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "deck_summaries_written_total",
			Help: "Summary rows materialized at session close",
		},
	)
)
