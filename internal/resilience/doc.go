// Package resilience holds the fault-tolerance helpers shared by the API
// and the worker.
//
//   - circuitbreaker: gobreaker wrappers for the newsletter feed, article
//     pages and the database
//   - retry: exponential backoff with jitter, plus transient-error
//     classification for HTTP and Postgres failures
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.FeedFetchConfig())
//	items, err := circuitbreaker.Run(cb, func() ([]entity.Newsletter, error) {
//	    return retry.Do(ctx, retry.FeedFetchConfig(), func() ([]entity.Newsletter, error) {
//	        return fetch(ctx)
//	    })
//	})
package resilience
