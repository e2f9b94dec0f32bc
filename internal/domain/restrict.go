package domain

import (
	"cmp"
	"slices"
	"strings"
	"unicode"
)

// CompareValues orders two values. Numbers compare numerically, text and
// records by their serialized form, entities by canonical id, booleans
// false before true. Values of different kinds order by kind.
func CompareValues(a, b Value, natural bool) int {
	if a.Kind != b.Kind {
		return cmp.Compare(a.Kind, b.Kind)
	}
	switch a.Kind {
	case KindScalar:
		return cmp.Compare(a.Number, b.Number)
	case KindBoolean:
		switch {
		case a.Bool == b.Bool:
			return 0
		case !a.Bool:
			return -1
		default:
			return 1
		}
	}
	if natural {
		return NaturalCompare(a.String(), b.String())
	}
	return strings.Compare(a.String(), b.String())
}

// NaturalCompare compares strings treating runs of digits as numbers,
// so "item9" sorts before "item10".
func NaturalCompare(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	i, j := 0, 0
	for i < len(ra) && j < len(rb) {
		if unicode.IsDigit(ra[i]) && unicode.IsDigit(rb[j]) {
			si := i
			for i < len(ra) && unicode.IsDigit(ra[i]) {
				i++
			}
			sj := j
			for j < len(rb) && unicode.IsDigit(rb[j]) {
				j++
			}
			na := strings.TrimLeft(string(ra[si:i]), "0")
			nb := strings.TrimLeft(string(rb[sj:j]), "0")
			if c := cmp.Compare(len(na), len(nb)); c != 0 {
				return c
			}
			if c := strings.Compare(na, nb); c != 0 {
				return c
			}
			continue
		}
		if c := cmp.Compare(unicode.ToLower(ra[i]), unicode.ToLower(rb[j])); c != 0 {
			return c
		}
		i++
		j++
	}
	return cmp.Compare(len(ra)-i, len(rb)-j)
}

// SortValues sorts values in place according to opts. It is a no-op for
// nil options or SortNone.
func SortValues(values []Value, opts *RequestOptions) {
	if opts == nil || opts.Sort == SortNone {
		return
	}
	slices.SortStableFunc(values, func(a, b Value) int {
		c := CompareValues(a, b, opts.Natural)
		if opts.Sort == SortDesc {
			return -c
		}
		return c
	})
}

// SliceValues applies offset and limit
func SliceValues(values []Value, opts *RequestOptions) []Value {
	if opts == nil {
		return values
	}
	if opts.Offset > 0 {
		if opts.Offset >= len(values) {
			return nil
		}
		values = values[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(values) {
		values = values[:opts.Limit]
	}
	return values
}

// ApplyRestrictions sorts, then slices, a copy of values
func ApplyRestrictions(values []Value, opts *RequestOptions) []Value {
	if opts == nil || len(values) == 0 {
		return values
	}
	out := slices.Clone(values)
	SortValues(out, opts)
	return SliceValues(out, opts)
}

func sortByKey[T any](items []T, key func(T) string) {
	slices.SortFunc(items, func(a, b T) int {
		return strings.Compare(key(a), key(b))
	})
}
