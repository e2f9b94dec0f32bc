package resolver

import (
	"regexp"
	"slices"
	"strings"
	"unicode"

	aho "github.com/anknown/ahocorasick"
)

const (
	highlightOpen  = "<mark>"
	highlightClose = "</mark>"
)

var (
	// [[SMW::on]] / [[SMW::off]] toggles left in stored text
	markerToggle = regexp.MustCompile(`\[\[SMW::(?:on|off)\]\]`)
	// [[Property::Value|Caption]] or [[Property::Value]]
	inlineAnnotation = regexp.MustCompile(`\[\[[^\[\]|:]+::([^\[\]|]*)(?:\|([^\[\]]*))?\]\]`)
)

// StripAnnotations removes annotation markup from text, keeping the
// caption (or value) an inline annotation would display
func StripAnnotations(text string) string {
	if !strings.Contains(text, "[[") {
		return text
	}
	text = markerToggle.ReplaceAllString(text, "")
	return inlineAnnotation.ReplaceAllStringFunc(text, func(m string) string {
		sub := inlineAnnotation.FindStringSubmatch(m)
		if sub[2] != "" {
			return sub[2]
		}
		return sub[1]
	})
}

// Highlighter marks occurrences of search tokens in text, ignoring case
type Highlighter struct {
	machine *aho.Machine
}

// NewHighlighter builds a matcher over tokens. It returns nil when there
// is nothing to highlight.
func NewHighlighter(tokens []string) (*Highlighter, error) {
	seen := make(map[string]struct{})
	var keys [][]rune
	for _, tok := range tokens {
		tok = lowerRunes(strings.TrimSpace(tok))
		if tok == "" {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		keys = append(keys, []rune(tok))
	}
	if len(keys) == 0 {
		return nil, nil
	}

	m := new(aho.Machine)
	if err := m.Build(keys); err != nil {
		return nil, err
	}
	return &Highlighter{machine: m}, nil
}

// Highlight wraps every token occurrence in text. Overlapping matches
// prefer the earliest, then the longest token.
func (h *Highlighter) Highlight(text string) string {
	if h == nil || text == "" {
		return text
	}
	orig := []rune(text)
	lower := []rune(lowerRunes(text))

	terms := h.machine.MultiPatternSearch(lower, false)
	if len(terms) == 0 {
		return text
	}

	type span struct{ start, end int }
	spans := make([]span, 0, len(terms))
	for _, t := range terms {
		if start := matchStart(lower, t.Pos, t.Word); start >= 0 {
			spans = append(spans, span{start, start + len(t.Word)})
		}
	}
	slices.SortFunc(spans, func(a, b span) int {
		if a.start != b.start {
			return a.start - b.start
		}
		return b.end - a.end
	})

	var sb strings.Builder
	pos := 0
	for _, sp := range spans {
		if sp.start < pos {
			continue
		}
		sb.WriteString(string(orig[pos:sp.start]))
		sb.WriteString(highlightOpen)
		sb.WriteString(string(orig[sp.start:sp.end]))
		sb.WriteString(highlightClose)
		pos = sp.end
	}
	sb.WriteString(string(orig[pos:]))
	return sb.String()
}

// matchStart returns the rune index where word, reported by the machine
// at pos, begins in text. pos is the first rune of the match; a position
// at the last rune is accepted too.
func matchStart(text []rune, pos int, word []rune) int {
	n := len(word)
	for _, start := range []int{pos, pos - n + 1} {
		if start >= 0 && start+n <= len(text) && slices.Equal(text[start:start+n], word) {
			return start
		}
	}
	return -1
}

// lowerRunes lower-cases rune by rune so indexes stay aligned with the
// original text
func lowerRunes(s string) string {
	return strings.Map(unicode.ToLower, s)
}
