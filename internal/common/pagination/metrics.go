package pagination

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts paginated list requests.
	// Labels: resource, status, page_range (1-10, 11-50, 51-100, 100+)
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagination_requests_total",
			Help: "Total number of paginated list requests",
		},
		[]string{"resource", "status", "page_range"},
	)

	// ErrorsTotal counts rejected pagination parameters.
	// Labels: resource, type (validation, upstream)
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagination_errors_total",
			Help: "Total number of pagination errors",
		},
		[]string{"resource", "type"},
	)
)

// RecordRequest counts one list request for resource.
func RecordRequest(resource string, statusCode int, page int) {
	RequestsTotal.WithLabelValues(resource, strconv.Itoa(statusCode), pageRangeBucket(page)).Inc()
}

// RecordError counts one error of errorType for resource.
func RecordError(resource, errorType string) {
	ErrorsTotal.WithLabelValues(resource, errorType).Inc()
}

func pageRangeBucket(page int) string {
	switch {
	case page <= 10:
		return "1-10"
	case page <= 50:
		return "11-50"
	case page <= 100:
		return "51-100"
	default:
		return "100+"
	}
}
