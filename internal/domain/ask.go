package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// askTokenPattern matches a [[...]] selector or a top-level OR
var askTokenPattern = regexp.MustCompile(`\[\[([^\[\]]*)\]\]|\bOR\b`)

// ParseCondition reads a condition in wiki ask syntax, e.g.
//
//	[[Category:City]] [[Located in::France]] [[Has population::>100000]]
//
// Adjacent selectors form a conjunction, OR separates disjuncts, and
// "||" lists alternatives inside one selector. Value prefixes select the
// comparator: ">" at least, "<" at most, "!" not equal, "~" wildcard
// match and "+" any value.
func ParseCondition(text string) (Condition, error) {
	var groups [][]Condition
	var current []Condition
	last := 0

	for _, loc := range askTokenPattern.FindAllStringSubmatchIndex(text, -1) {
		if gap := strings.TrimSpace(text[last:loc[0]]); gap != "" {
			return nil, fmt.Errorf("unexpected text %q", gap)
		}
		last = loc[1]

		if loc[2] < 0 {
			if len(current) == 0 {
				return nil, fmt.Errorf("OR without a preceding selector")
			}
			groups = append(groups, current)
			current = nil
			continue
		}

		cond, err := parseSelector(text[loc[2]:loc[3]])
		if err != nil {
			return nil, err
		}
		current = append(current, cond)
	}
	if gap := strings.TrimSpace(text[last:]); gap != "" {
		return nil, fmt.Errorf("unexpected text %q", gap)
	}
	if len(current) == 0 {
		if len(groups) > 0 {
			return nil, fmt.Errorf("OR without a following selector")
		}
		return nil, fmt.Errorf("empty condition")
	}
	groups = append(groups, current)

	disjuncts := make([]Condition, len(groups))
	for i, g := range groups {
		disjuncts[i] = conjoin(g)
	}
	if len(disjuncts) == 1 {
		return disjuncts[0], nil
	}
	return Disjunction{Items: disjuncts}, nil
}

func conjoin(items []Condition) Condition {
	if len(items) == 1 {
		return items[0]
	}
	return Conjunction{Items: items}
}

func disjoin(items []Condition) Condition {
	if len(items) == 1 {
		return items[0]
	}
	return Disjunction{Items: items}
}

func parseSelector(body string) (Condition, error) {
	if property, values, ok := strings.Cut(body, "::"); ok {
		property = NormalizeTitle(property)
		if property == "" {
			return nil, fmt.Errorf("selector %q has no property", body)
		}
		var alts []Condition
		for _, v := range strings.Split(values, "||") {
			alts = append(alts, parsePropertyValue(property, v))
		}
		return disjoin(alts), nil
	}

	if prefix, names, ok := strings.Cut(body, ":"); ok {
		if ns, known := ParseNamespace(prefix); known && ns == NSCategory {
			var alts []Condition
			for _, name := range strings.Split(names, "||") {
				if NormalizeTitle(name) == "" {
					return nil, fmt.Errorf("selector %q has an empty category", body)
				}
				alts = append(alts, CategoryCondition{Category: NormalizeTitle(name)})
			}
			return disjoin(alts), nil
		}
	}

	return nil, fmt.Errorf("unsupported selector %q", body)
}

func parsePropertyValue(property, raw string) PropertyCondition {
	v := strings.TrimSpace(raw)
	cond := PropertyCondition{Property: property, Comparator: CmpEqual}

	switch {
	case v == "+" || v == "":
		return cond
	case strings.HasPrefix(v, ">"):
		cond.Comparator, v = CmpGreaterEq, strings.TrimPrefix(v[1:], "=")
	case strings.HasPrefix(v, "<"):
		cond.Comparator, v = CmpLessEq, strings.TrimPrefix(v[1:], "=")
	case strings.HasPrefix(v, "!"):
		cond.Comparator, v = CmpNotEqual, v[1:]
	case strings.HasPrefix(v, "~"):
		cond.Comparator, v = CmpLike, v[1:]
	}
	cond.Value = strings.TrimSpace(v)
	return cond
}

// ParseSort pairs comma-separated sort properties with their orders.
// Missing orders default to ascending; an empty property sorts by title.
func ParseSort(sort, order string) []SortKey {
	props := splitList(sort)
	orders := splitList(order)
	if len(props) == 0 && len(orders) > 0 {
		props = []string{""}
	}

	keys := make([]SortKey, len(props))
	for i, p := range props {
		asc := true
		if i < len(orders) {
			dir, _ := ParseOrder(orders[i])
			asc = dir != SortDesc
		}
		keys[i] = SortKey{Property: NormalizeTitle(p), Ascending: asc}
	}
	return keys
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
