package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidvault_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vidvault_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vidvault_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidvault_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vidvault_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vidvault_db_connections_open",
			Help: "Number of open database connections",
		},
	)
)

// Ingest pipeline metrics
var (
	IngestUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidvault_ingest_uploads_total",
			Help: "Total number of upload pipeline runs by outcome",
		},
		[]string{"status"},
	)

	IngestStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vidvault_ingest_stage_duration_seconds",
			Help:    "Duration of each ingest pipeline stage in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"stage"},
	)

	IngestBytesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vidvault_ingest_bytes_received_total",
			Help: "Total number of upload payload bytes written to disk",
		},
	)
)

// Thumbnail metrics
var (
	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidvault_thumbnail_generations_total",
			Help: "Total number of thumbnail generation attempts by outcome",
		},
		[]string{"status"},
	)

	PreviewCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vidvault_preview_cache_requests_total",
			Help: "Preview cache lookups by result",
		},
		[]string{"result"}, // "hit", "miss", "error"
	)
)
