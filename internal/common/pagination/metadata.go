package pagination

// Metadata is the pagination block of a list response.
type Metadata struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

// NewMetadata builds the metadata for params over total items.
func NewMetadata(params Params, total int64) Metadata {
	pages := CalculateTotalPages(total, params.Limit)
	return Metadata{
		Total:      total,
		Page:       params.Page,
		Limit:      params.Limit,
		TotalPages: pages,
		HasNext:    params.Page < pages,
		HasPrev:    params.Page > 1,
	}
}
