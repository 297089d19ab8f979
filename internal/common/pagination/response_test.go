package pagination_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"opensox-api/internal/common/pagination"
)

func TestSlice(t *testing.T) {
	t.Parallel()

	items := []int{1, 2, 3, 4, 5, 6, 7}

	tests := []struct {
		name   string
		params pagination.Params
		want   pagination.Response[int]
	}{
		{
			name:   "first page",
			params: pagination.Params{Page: 1, Limit: 5},
			want: pagination.Response[int]{
				Data:       []int{1, 2, 3, 4, 5},
				Pagination: pagination.Metadata{Total: 7, Page: 1, Limit: 5, TotalPages: 2, HasNext: true},
			},
		},
		{
			name:   "last partial page",
			params: pagination.Params{Page: 2, Limit: 5},
			want: pagination.Response[int]{
				Data:       []int{6, 7},
				Pagination: pagination.Metadata{Total: 7, Page: 2, Limit: 5, TotalPages: 2, HasPrev: true},
			},
		},
		{
			name:   "past the end",
			params: pagination.Params{Page: 9, Limit: 5},
			want: pagination.Response[int]{
				Data:       []int{},
				Pagination: pagination.Metadata{Total: 7, Page: 9, Limit: 5, TotalPages: 2, HasPrev: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := pagination.Slice(items, tt.params)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Slice() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNewResponse_NilData(t *testing.T) {
	t.Parallel()

	resp := pagination.NewResponse[string](nil, pagination.Metadata{})
	if resp.Data == nil {
		t.Error("NewResponse(nil) Data should be an empty slice")
	}
}
