package pagination

import (
	"fmt"
	"net/http"
	"strconv"
)

// Params are the page and limit of one request.
type Params struct {
	Page  int
	Limit int
}

// ParseQueryParams reads ?page and ?limit from r, applying cfg defaults for
// absent values. Non-numeric or out-of-range values are errors.
func ParseQueryParams(r *http.Request, cfg Config) (Params, error) {
	params := Params{
		Page:  cfg.DefaultPage,
		Limit: cfg.DefaultLimit,
	}

	q := r.URL.Query()
	if pageStr := q.Get("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil || page < 1 {
			return params, fmt.Errorf("invalid query parameter: page must be a positive integer")
		}
		params.Page = page
	}

	if limitStr := q.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > cfg.MaxLimit {
			return params, fmt.Errorf("invalid query parameter: limit must be between 1 and %d", cfg.MaxLimit)
		}
		params.Limit = limit
	}

	return params, nil
}
