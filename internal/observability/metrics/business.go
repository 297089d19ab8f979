package metrics

import (
	"database/sql"
	"time"
)

// RecordAvatarVerdict records the outcome of an avatar URL validation.
func RecordAvatarVerdict(reason string, accepted bool, duration time.Duration) {
	result := "rejected"
	if accepted {
		result = "accepted"
		reason = "accepted"
	}
	AvatarVerdictsTotal.WithLabelValues(result, reason).Inc()
	AvatarProbeDuration.Observe(duration.Seconds())
}

// RecordTestimonialSubmitted records a testimonial submission.
// status is one of: "created", "rejected", "forbidden", "error".
func RecordTestimonialSubmitted(status string) {
	TestimonialsSubmittedTotal.WithLabelValues(status).Inc()
}

// RecordSubscriptionsExpired adds n to the expired subscriptions counter.
func RecordSubscriptionsExpired(n int64) {
	if n > 0 {
		SubscriptionsExpiredTotal.Add(float64(n))
	}
}

// UpdateUsersTotal updates the user count gauge.
func UpdateUsersTotal(count int64) {
	UsersTotal.Set(float64(count))
}

// RecordCacheLookup records a cache hit, miss or error for the named cache.
func RecordCacheLookup(cache, result string) {
	CacheRequestsTotal.WithLabelValues(cache, result).Inc()
}

// RecordFeedFetch records a newsletter feed fetch and its item count.
func RecordFeedFetch(duration time.Duration, items int) {
	FeedFetchDuration.Observe(duration.Seconds())
	NewsletterFeedItems.Set(float64(items))
}

// RecordContentFetch records a readability fallback fetch.
// status is one of: "success", "failure", "skipped".
func RecordContentFetch(status string, duration time.Duration) {
	ContentFetchAttemptsTotal.WithLabelValues(status).Inc()
	if status != "skipped" {
		ContentFetchDuration.Observe(duration.Seconds())
	}
}

// RecordDBQuery records the duration of a database operation.
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBConnectionStats copies pool statistics into the connection gauges.
func UpdateDBConnectionStats(stats sql.DBStats) {
	DBConnectionsOpen.Set(float64(stats.OpenConnections))
	DBConnectionsInUse.Set(float64(stats.InUse))
	DBConnectionsIdle.Set(float64(stats.Idle))
}

// RecordAuthFailure records a rejected request on an authenticated route.
func RecordAuthFailure(reason string) {
	AuthFailuresTotal.WithLabelValues(reason).Inc()
}

// RecordRateLimited records a request refused by the named limiter.
func RecordRateLimited(limiter string) {
	RateLimitRejectionsTotal.WithLabelValues(limiter).Inc()
}

// RecordWorkerRun records one scheduled task run.
func RecordWorkerRun(task string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	WorkerRunsTotal.WithLabelValues(task, status).Inc()
	WorkerRunDuration.WithLabelValues(task).Observe(duration.Seconds())
}
