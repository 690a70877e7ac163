package util

import "strconv"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	MaxPage         = 100000
)

func clampPage(page int) int {
	if page < 1 {
		return 1
	}
	if page > MaxPage {
		return MaxPage
	}
	return page
}

func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

// Calculate turns a 1-based page and a page size into offset and limit.
func Calculate(page, size int) (offset, limit int) {
	page = clampPage(page)
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return (page - 1) * size, size
}

// Meta is the paging block returned next to a page of results.
func Meta(page, limit int, total int64) map[string]any {
	page = clampPage(page)
	offset := (page - 1) * limit
	return map[string]any{
		"page":        page,
		"size":        limit,
		"total":       total,
		"total_pages": (total + int64(limit) - 1) / int64(limit),
		"has_prev":    page > 1,
		"has_next":    int64(offset+limit) < total,
	}
}
