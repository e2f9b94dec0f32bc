package domain

import "strings"

// SortDirection of a restricted value fetch
type SortDirection int

const (
	SortNone SortDirection = iota
	SortAsc
	SortDesc
)

// RequestOptions restricts a property value fetch. A nil *RequestOptions
// means an unrestricted fetch.
type RequestOptions struct {
	Limit   int
	Offset  int
	Sort    SortDirection
	Natural bool // numeric-aware comparison of text
}

// ParseOrder reads an order parameter. Unrecognized strings yield SortNone.
func ParseOrder(order string) (dir SortDirection, natural bool) {
	order = strings.ToLower(strings.TrimSpace(order))
	if rest, ok := strings.CutPrefix(order, "n-"); ok {
		natural = true
		order = rest
	}
	switch order {
	case "asc", "ascending":
		return SortAsc, natural
	case "desc", "descending", "reverse":
		return SortDesc, natural
	default:
		return SortNone, natural
	}
}

// BuildRequestOptions derives fetch options from a column's parameters.
// It returns nil when neither a limit nor a recognized order is set.
func BuildRequestOptions(limit, offset int, order string) *RequestOptions {
	dir, natural := ParseOrder(order)
	if limit <= 0 && dir == SortNone {
		return nil
	}
	opts := &RequestOptions{Offset: offset, Sort: dir}
	if limit > 0 {
		opts.Limit = limit
	}
	if dir != SortNone {
		opts.Natural = natural
	}
	return opts
}

// RequestOptionsFor builds the fetch options of a column
func RequestOptionsFor(p *PrintRequest) *RequestOptions {
	return BuildRequestOptions(p.Limit(), p.Offset(), p.Order())
}
