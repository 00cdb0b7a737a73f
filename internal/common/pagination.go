package common

import (
	"net/http"
	"strconv"
)

// Pagination is the metadata block returned alongside list data.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
}

// MaxPerPage caps the page size on quote, project, and RFQ listings.
const MaxPerPage = 100

// ParsePagination reads ?page= and ?per_page= (with ?limit= accepted as an
// alias) from the request. Out-of-range values fall back to page 1 and the
// caller's default size; sizes above MaxPerPage are clamped.
func ParsePagination(r *http.Request, defaultPerPage int) (page, perPage int) {
	page = 1
	perPage = defaultPerPage
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	size := r.URL.Query().Get("per_page")
	if size == "" {
		size = r.URL.Query().Get("limit")
	}
	if l, err := strconv.Atoi(size); err == nil && l > 0 {
		perPage = l
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return
}

// AtoiDefault parses value as an integer, falling back to def when the value
// is empty, unparsable, or negative.
func AtoiDefault(value string, def int) int {
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}
