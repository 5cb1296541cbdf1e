package resolver

import "github.com/bastiangx/fqwb/pkg/config"

// Page is one screen of candidates.
type Page struct {
	Index int      `msgpack:"index"`
	Total int      `msgpack:"total"`
	Items []string `msgpack:"items"`
}

// HasNext reports whether a later page exists.
func (p Page) HasNext() bool { return p.Index+1 < p.Total }

// HasPrev reports whether an earlier page exists.
func (p Page) HasPrev() bool { return p.Index > 0 }

// Paginate slices cands into pages of size and returns page n, clamped to
// the valid range. Total is at least 1 so an empty list still has one
// empty page.
func Paginate(cands []string, size, n int) Page {
	if size <= 0 {
		size = config.DefaultPageSize
	}
	total := (len(cands) + size - 1) / size
	if total == 0 {
		total = 1
	}
	if n < 0 {
		n = 0
	}
	if n >= total {
		n = total - 1
	}

	start := n * size
	end := min(start+size, len(cands))
	items := make([]string, 0, end-start)
	if start < end {
		items = append(items, cands[start:end]...)
	}
	return Page{Index: n, Total: total, Items: items}
}
