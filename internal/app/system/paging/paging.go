// internal/app/system/paging/paging.go
package paging

import (
	"math"
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// Page-number pagination defaults for the JSON API.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	// MaxPage keeps (Page-1)*Limit within an int for any allowed Limit.
	MaxPage = math.MaxInt / MaxLimit
)

// Params is a normalized page/limit pair. Page is 1-based.
type Params struct {
	Page  int
	Limit int
}

// New normalizes page and limit: non-positive values take the defaults,
// limit is capped at MaxLimit and page at MaxPage.
func New(page, limit int) Params {
	if page < 1 {
		page = DefaultPage
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Params{Page: page, Limit: limit}
}

// Parse reads ?page= and ?limit= from the request. Missing or malformed
// values fall back to the defaults.
func Parse(r *http.Request) Params {
	return New(atoi(query.Get(r, "page")), atoi(query.Get(r, "limit")))
}

func atoi(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// Skip is the number of documents before this page, for Find().SetSkip.
func (p Params) Skip() int64 { return int64((p.Page - 1) * p.Limit) }

// Limit64 is Limit as int64, for Find().SetLimit.
func (p Params) Limit64() int64 { return int64(p.Limit) }

// Window returns the [lo, hi) bounds of this page within a list of n items.
// Pages past the end yield lo == hi, an empty window.
func (p Params) Window(n int) (lo, hi int) {
	if p.Limit <= 0 || p.Page-1 > n/p.Limit {
		return n, n
	}
	lo = (p.Page - 1) * p.Limit
	if lo > n {
		lo = n
	}
	hi = lo + p.Limit
	if hi > n {
		hi = n
	}
	return lo, hi
}
