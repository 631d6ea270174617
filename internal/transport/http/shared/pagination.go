package shared

import (
	"net/http"
	"strconv"
)

const (
	HeaderTotalCount = "X-Total-Count"
	HeaderHasMore    = "X-Has-More"
)

// Page is a limit/offset window read from the limit and offset query params.
type Page struct {
	Limit  int
	Offset int
}

// ParsePage ignores malformed or negative values and caps limit at maxLimit.
func ParsePage(r *http.Request, defaultLimit, maxLimit int) Page {
	page := Page{Limit: defaultLimit}
	q := r.URL.Query()
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		page.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v >= 0 {
		page.Offset = v
	}
	if maxLimit > 0 && page.Limit > maxLimit {
		page.Limit = maxLimit
	}
	return page
}

func (p Page) HasMore(total int) bool {
	return p.Offset+p.Limit < total
}

// WriteHeaders reports the listing size. A negative total means it is unknown
// and no headers are written.
func (p Page) WriteHeaders(w http.ResponseWriter, total int) {
	if total < 0 {
		return
	}
	w.Header().Set(HeaderTotalCount, strconv.Itoa(total))
	w.Header().Set(HeaderHasMore, strconv.FormatBool(p.HasMore(total)))
}

// Window returns the slice of items covered by p.
func Window[T any](items []T, p Page) []T {
	if p.Offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if p.Limit > 0 && p.Offset+p.Limit < end {
		end = p.Offset + p.Limit
	}
	return items[p.Offset:end]
}
