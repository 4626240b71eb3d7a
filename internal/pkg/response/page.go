package response

// PageResponse wraps every list endpoint. Items is never null in JSON.
type PageResponse[T any] struct {
	Items    []T `json:"items"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
}

func NewPageResponse[T any](items []T, page, pageSize, total int) PageResponse[T] {
	if items == nil {
		items = []T{}
	}
	return PageResponse[T]{Items: items, Page: page, PageSize: pageSize, Total: total}
}

// NewListResponse wraps a complete, unpaginated result as a single page.
func NewListResponse[T any](items []T) PageResponse[T] {
	return NewPageResponse(items, 1, len(items), len(items))
}
