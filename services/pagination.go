package services

// Page is one page of a listing; Page numbers start at 1.
type Page[T any] struct {
	Items      []T  `json:"items"`
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
	Total      int  `json:"total"`
}

const defaultPageSize = 10

// ClampPage normalises a requested page against total items. Pages below 1
// become 1 and pages past the end become the last page.
func ClampPage(page, pageSize, total int) (int, int) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	return page, totalPages
}

func NewPage[T any](items []T, page, pageSize, total int) Page[T] {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	page, totalPages := ClampPage(page, pageSize, total)
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
		Total:      total,
	}
}
