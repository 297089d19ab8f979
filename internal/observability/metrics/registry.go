package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics track HTTP request patterns and performance
var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestSize measures HTTP request body size in bytes
	HTTPRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_size_bytes",
			Help:    "HTTP request size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// HTTPResponseSize measures HTTP response body size in bytes
	HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// ActiveConnections tracks the number of in-flight HTTP requests
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)
)

// Business metrics track application-specific operations
var (
	// AvatarVerdictsTotal counts avatar URL checks by outcome and reason.
	// reason is "accepted" for admitted URLs.
	AvatarVerdictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "avatar_verdicts_total",
			Help: "Total number of avatar URL validations by result and reason",
		},
		[]string{"result", "reason"},
	)

	// AvatarProbeDuration measures the full pipeline latency, probe included.
	AvatarProbeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "avatar_validation_duration_seconds",
			Help:    "Avatar URL validation duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	// TestimonialsSubmittedTotal counts testimonial submissions by outcome.
	TestimonialsSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "testimonials_submitted_total",
			Help: "Total number of testimonial submissions by status",
		},
		[]string{"status"},
	)

	// SubscriptionsExpiredTotal counts subscriptions moved to expired by the worker.
	SubscriptionsExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_expired_total",
			Help: "Total number of subscriptions marked expired",
		},
	)

	// UsersTotal tracks the last observed user count.
	UsersTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "users_total",
			Help: "Total number of users in the database",
		},
	)

	// NewsletterFeedItems tracks the number of items in the last parsed feed.
	NewsletterFeedItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "newsletter_feed_items",
			Help: "Number of items in the last parsed newsletter feed",
		},
	)

	// FeedFetchDuration measures newsletter feed fetch latency.
	FeedFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "newsletter_feed_fetch_duration_seconds",
			Help:    "Newsletter feed fetch duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	// ContentFetchAttemptsTotal counts readability fallback fetches by status
	ContentFetchAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_fetch_attempts_total",
			Help: "Total number of newsletter content fetch attempts",
		},
		[]string{"status"},
	)

	// ContentFetchDuration measures readability fetch latency
	ContentFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "content_fetch_duration_seconds",
			Help:    "Newsletter content fetch duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		},
	)
)

// Cache metrics
var (
	// CacheRequestsTotal counts cache lookups by cache name and result (hit, miss, error).
	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_requests_total",
			Help: "Total number of cache lookups by result",
		},
		[]string{"cache", "result"},
	)
)

// Database metrics
var (
	// DBQueryDuration measures database query duration
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
		[]string{"operation"},
	)

	// DBConnectionsOpen tracks open connections in the pool
	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_open",
			Help: "Number of open database connections",
		},
	)

	// DBConnectionsInUse tracks connections currently in use
	DBConnectionsInUse = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_in_use",
			Help: "Number of database connections in use",
		},
	)

	// DBConnectionsIdle tracks idle database connections
	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)

// Access control metrics
var (
	// AuthFailuresTotal counts rejected bearer tokens by reason
	// (missing_header, invalid_token).
	AuthFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_failures_total",
			Help: "Total number of rejected authentication attempts by reason",
		},
		[]string{"reason"},
	)

	// RateLimitRejectionsTotal counts requests refused by a rate limiter.
	RateLimitRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_rejections_total",
			Help: "Total number of requests rejected by rate limiting",
		},
		[]string{"limiter"},
	)
)

// Worker metrics
var (
	// WorkerRunsTotal counts scheduled worker runs by task and status.
	WorkerRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_runs_total",
			Help: "Total number of scheduled worker task runs",
		},
		[]string{"task", "status"},
	)

	// WorkerRunDuration measures scheduled task duration.
	WorkerRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "worker_run_duration_seconds",
			Help:    "Scheduled worker task duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"task"},
	)
)
