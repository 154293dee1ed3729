package persistence

import (
	"strings"

	"gorm.io/gorm/clause"
)

// SortColumns is a whitelist of columns a list endpoint may order by.
// Client input never reaches SQL unless it names a listed column.
type SortColumns struct {
	allowed  map[string]struct{}
	fallback string
	// tiebreak follows the requested column so pages stay stable when many
	// rows share a due date or amount
	tiebreak string
}

// NewSortColumns builds a whitelist. fallback is used for empty or unknown
// input and is always allowed; id is appended as the final tiebreaker.
func NewSortColumns(fallback string, columns ...string) SortColumns {
	s := SortColumns{
		allowed:  make(map[string]struct{}, len(columns)+1),
		fallback: fallback,
		tiebreak: "id",
	}
	s.allowed[fallback] = struct{}{}
	for _, c := range columns {
		s.allowed[c] = struct{}{}
	}
	return s
}

// Column returns field when it is whitelisted and the fallback otherwise.
// Matching is exact: "DUE_DATE" or "due_date desc" are rejected.
func (s SortColumns) Column(field string) string {
	field = strings.TrimSpace(field)
	if _, ok := s.allowed[field]; ok {
		return field
	}
	return s.fallback
}

// OrderBy resolves field and direction into an ORDER BY clause. The
// direction defaults to descending.
func (s SortColumns) OrderBy(field, dir string) clause.OrderBy {
	col := s.Column(field)
	desc := !IsAscending(dir)
	cols := []clause.OrderByColumn{{Column: clause.Column{Name: col}, Desc: desc}}
	if col != s.fallback {
		cols = append(cols, clause.OrderByColumn{Column: clause.Column{Name: s.fallback}, Desc: true})
	}
	if col != s.tiebreak && s.fallback != s.tiebreak {
		cols = append(cols, clause.OrderByColumn{Column: clause.Column{Name: s.tiebreak}, Desc: desc})
	}
	return clause.OrderBy{Columns: cols}
}

// IsAscending reports whether dir asks for ascending order. Anything other
// than "asc" in any case is descending.
func IsAscending(dir string) bool {
	return strings.EqualFold(strings.TrimSpace(dir), "asc")
}

// DocumentSort lists the orderable monetary document columns.
var DocumentSort = NewSortColumns("created_at",
	"id",
	"updated_at",
	"document_number",
	"counterparty_name",
	"issue_date",
	"due_date",
	"settlement_date",
	"original_amount",
	"balance",
	"status",
	"installment_seq",
)
