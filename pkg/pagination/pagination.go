package pagination

import (
	"net/http"
	"strconv"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// Params holds 1-based pagination parameters read from a query string.
type Params struct {
	Page    int
	PerPage int
}

// Offset returns the zero-based index of the first item on the page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// FromRequest reads ?page= and ?per_page= from r. Missing or invalid values
// fall back to page 1 and 20 items; per_page is capped at 100.
func FromRequest(r *http.Request) Params {
	p := Params{Page: 1, PerPage: defaultPerPage}
	q := r.URL.Query()

	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("per_page")); err == nil && v > 0 {
		if v > maxPerPage {
			v = maxPerPage
		}
		p.PerPage = v
	}

	return p
}
