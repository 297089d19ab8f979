package pagination

// CalculateOffset returns the zero-based index of the first item on page.
// Pages are 1-based.
func CalculateOffset(page, limit int) int {
	if page < 1 || limit < 1 {
		return 0
	}
	return (page - 1) * limit
}

// CalculateTotalPages returns ceil(total/limit), and 1 for an empty list.
func CalculateTotalPages(total int64, limit int) int {
	if total <= 0 || limit < 1 {
		return 1
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
