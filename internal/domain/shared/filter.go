package shared

import "strings"

// Page size bounds applied by Filter.Normalized.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Filter carries the paging, ordering and free-text search of a list query.
// OrderBy is client input; repositories must whitelist it before use.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
}

// Normalized returns f with the page at least 1, the page size within
// 1..MaxPageSize and the direction folded to "asc" or "desc".
func (f Filter) Normalized() Filter {
	f.Page = max(f.Page, 1)
	switch {
	case f.PageSize < 1:
		f.PageSize = DefaultPageSize
	case f.PageSize > MaxPageSize:
		f.PageSize = MaxPageSize
	}
	if strings.EqualFold(strings.TrimSpace(f.OrderDir), "asc") {
		f.OrderDir = "asc"
	} else {
		f.OrderDir = "desc"
	}
	f.Search = strings.TrimSpace(f.Search)
	return f
}

// Offset is the number of rows before the first row of the page.
func (f Filter) Offset() int {
	n := f.Normalized()
	return (n.Page - 1) * n.PageSize
}

// PageCount is the number of pages needed for total rows; zero when the
// page size is not positive.
func PageCount(total int64, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	size := int64(pageSize)
	return int((total + size - 1) / size)
}
