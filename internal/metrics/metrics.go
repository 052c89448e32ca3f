package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_stream_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_stream_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_stream_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_stream_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_stream_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_stream_db_connections_open",
			Help: "Number of open database connections",
		},
	)
)

// Pagination metrics
var (
	PagesServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_stream_pages_served_total",
			Help: "Pages served by fetch direction (next or prev)",
		},
		[]string{"direction"},
	)

	LocateTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_stream_locate_total",
			Help: "Deep-link locate queries by outcome (hit or miss)",
		},
		[]string{"outcome"},
	)

	EmptySliceRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_stream_empty_slice_retries_total",
			Help: "Window loads that advanced past an empty-after-dedup slice",
		},
	)

	WindowEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_stream_window_evictions_total",
			Help: "Pages evicted from cached windows by edge (head or tail)",
		},
		[]string{"edge"},
	)

	DedupDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_stream_dedup_dropped_total",
			Help: "Items dropped because their key was already in the window",
		},
	)
)

// Collection gauges (refreshed by Collector)
var (
	PhotosTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_stream_photos_total",
			Help: "Number of indexed photo records",
		},
	)

	ProjectsTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photo_stream_projects_total",
			Help: "Number of projects by state (active or archived)",
		},
		[]string{"state"},
	)

	TagsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_stream_tags_total",
			Help: "Number of distinct tags",
		},
	)
)
