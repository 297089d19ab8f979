package pagination_test

import (
	"testing"

	"opensox-api/internal/common/pagination"
)

func TestCalculateOffset(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		page  int
		limit int
		want  int
	}{
		{name: "first page", page: 1, limit: 5, want: 0},
		{name: "second page", page: 2, limit: 5, want: 5},
		{name: "page 10 with limit 50", page: 10, limit: 50, want: 450},
		{name: "zero page", page: 0, limit: 5, want: 0},
		{name: "zero limit", page: 3, limit: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := pagination.CalculateOffset(tt.page, tt.limit); got != tt.want {
				t.Errorf("CalculateOffset(%d, %d) = %d, want %d", tt.page, tt.limit, got, tt.want)
			}
		})
	}
}

func TestCalculateTotalPages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		total int64
		limit int
		want  int
	}{
		{name: "empty", total: 0, limit: 5, want: 1},
		{name: "less than one page", total: 3, limit: 5, want: 1},
		{name: "exactly one page", total: 5, limit: 5, want: 1},
		{name: "one over", total: 6, limit: 5, want: 2},
		{name: "many", total: 101, limit: 20, want: 6},
		{name: "invalid limit", total: 10, limit: 0, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := pagination.CalculateTotalPages(tt.total, tt.limit); got != tt.want {
				t.Errorf("CalculateTotalPages(%d, %d) = %d, want %d", tt.total, tt.limit, got, tt.want)
			}
		})
	}
}
