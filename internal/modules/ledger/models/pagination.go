package models

// Page size bounds for list screens
const (
	DefaultPageSize = 10
	MinPageSize     = 5
	MaxPageSize     = 15
)

// NormalizePage clamps page to >= 1 and pageSize to [MinPageSize, MaxPageSize].
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case pageSize <= 0:
		pageSize = DefaultPageSize
	case pageSize < MinPageSize:
		pageSize = MinPageSize
	case pageSize > MaxPageSize:
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// ListResponse represents a paginated list response
type ListResponse[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewListResponse builds a ListResponse and computes the page count.
func NewListResponse[T any](items []T, total int64, page, pageSize int) *ListResponse[T] {
	if items == nil {
		items = []T{}
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &ListResponse[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
