package pagination

// Response is the generic list envelope.
//
//	resp := pagination.NewResponse(items, pagination.NewMetadata(params, total))
type Response[T any] struct {
	Data       []T      `json:"data"`
	Pagination Metadata `json:"pagination"`
}

// NewResponse wraps data and metadata. A nil data slice is encoded as [].
func NewResponse[T any](data []T, metadata Metadata) Response[T] {
	if data == nil {
		data = []T{}
	}
	return Response[T]{
		Data:       data,
		Pagination: metadata,
	}
}

// Slice returns the page of items selected by params together with its
// metadata. Pages past the end yield an empty slice.
func Slice[T any](items []T, params Params) Response[T] {
	total := int64(len(items))
	start := CalculateOffset(params.Page, params.Limit)
	if start > len(items) {
		start = len(items)
	}
	end := start + params.Limit
	if end > len(items) {
		end = len(items)
	}
	return NewResponse(items[start:end], NewMetadata(params, total))
}
