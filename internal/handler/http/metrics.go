package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"opensox-api/internal/handler/http/responsewriter"
	"opensox-api/internal/handler/http/route"
	"opensox-api/internal/observability/metrics"
)

// MetricsMiddleware records request count, latency and sizes labelled by
// the matched route pattern, which keeps label cardinality bounded. It must
// sit directly outside route.Capture.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.ActiveConnections.Inc()
		defer metrics.ActiveConnections.Dec()

		rw := responsewriter.Wrap(w)
		start := time.Now()
		next.ServeHTTP(rw, r)
		duration := time.Since(start).Seconds()

		path := route.Label(r)
		status := strconv.Itoa(rw.StatusCode())
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
		if r.ContentLength > 0 {
			metrics.HTTPRequestSize.WithLabelValues(r.Method, path).Observe(float64(r.ContentLength))
		}
		metrics.HTTPResponseSize.WithLabelValues(r.Method, path).Observe(float64(rw.BytesWritten()))
	})
}

// MetricsHandler serves the Prometheus exposition format.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
