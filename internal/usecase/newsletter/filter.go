package newsletter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"opensox-api/internal/domain/entity"
)

const (
	SortNewest = "newest"
	SortOldest = "oldest"
)

// Filter selects and orders newsletters for List.
type Filter struct {
	// Query is matched case-insensitively against title, description and
	// excerpt. Empty matches everything.
	Query string
	// Month is an English month name ("march", "March"). Empty or "all"
	// disables the filter.
	Month string
	// Sort is SortNewest (default) or SortOldest.
	Sort string

	Page  int
	Limit int
}

// parseMonth returns 0 for no month filter.
func parseMonth(s string) (time.Month, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return 0, nil
	}
	for m := time.January; m <= time.December; m++ {
		if strings.EqualFold(m.String(), s) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown month %q", ErrInvalidFilter, s)
}

func normalizeSort(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", SortNewest:
		return SortNewest, nil
	case SortOldest:
		return SortOldest, nil
	default:
		return "", fmt.Errorf("%w: sort must be %q or %q", ErrInvalidFilter, SortNewest, SortOldest)
	}
}

// apply returns the items matching f in the requested order. items is not
// modified.
func apply(items []entity.Newsletter, f Filter) ([]entity.Newsletter, error) {
	month, err := parseMonth(f.Month)
	if err != nil {
		return nil, err
	}
	order, err := normalizeSort(f.Sort)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))

	out := make([]entity.Newsletter, 0, len(items))
	for _, n := range items {
		if month != 0 && n.Date.Month() != month {
			continue
		}
		if q != "" && !matches(n, q) {
			continue
		}
		out = append(out, n)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if order == SortOldest {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func matches(n entity.Newsletter, q string) bool {
	return strings.Contains(strings.ToLower(n.Title), q) ||
		strings.Contains(strings.ToLower(n.Description), q) ||
		strings.Contains(strings.ToLower(n.Excerpt), q)
}
