package domain

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Namespace represents the wiki namespace a subject lives in
type Namespace int

const (
	NSMain     Namespace = 0
	NSCategory Namespace = 14
	NSProperty Namespace = 102
)

func (ns Namespace) String() string {
	switch ns {
	case NSCategory:
		return "Category"
	case NSProperty:
		return "Property"
	default:
		return ""
	}
}

// ParseNamespace maps a namespace prefix to its Namespace.
// The second return value is false for unknown prefixes.
func ParseNamespace(prefix string) (Namespace, bool) {
	switch strings.ToLower(strings.TrimSpace(prefix)) {
	case "category":
		return NSCategory, true
	case "property":
		return NSProperty, true
	case "":
		return NSMain, true
	default:
		return NSMain, false
	}
}

// EntityID is the canonical, comparable reference to a wiki subject:
// a page in a namespace, optionally narrowed to a named subobject.
type EntityID struct {
	Namespace Namespace
	Title     string
	Subobject string
}

// NewEntityID builds an EntityID with a normalized title
func NewEntityID(ns Namespace, title, subobject string) EntityID {
	return EntityID{
		Namespace: ns,
		Title:     NormalizeTitle(title),
		Subobject: strings.TrimSpace(subobject),
	}
}

// Page is shorthand for a main-namespace subject
func Page(title string) EntityID {
	return NewEntityID(NSMain, title, "")
}

// CategoryPage is shorthand for a category subject
func CategoryPage(title string) EntityID {
	return NewEntityID(NSCategory, title, "")
}

// NormalizeTitle trims, turns underscores into spaces, collapses runs of
// whitespace and upper-cases the first letter.
func NormalizeTitle(title string) string {
	title = strings.Join(strings.Fields(strings.ReplaceAll(title, "_", " ")), " ")
	if title == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(title)
	return string(unicode.ToUpper(r)) + title[size:]
}

// IsZero reports whether the id has no title
func (e EntityID) IsZero() bool {
	return e.Title == ""
}

// String returns the canonical form, e.g. "Category:Town" or "Paris#census".
func (e EntityID) String() string {
	if e.IsZero() {
		return ""
	}
	var sb strings.Builder
	if prefix := e.Namespace.String(); prefix != "" {
		sb.WriteString(prefix)
		sb.WriteByte(':')
	}
	sb.WriteString(e.Title)
	if e.Subobject != "" {
		sb.WriteByte('#')
		sb.WriteString(e.Subobject)
	}
	return sb.String()
}

// Hash is the key used wherever an entity anchors cached state
func (e EntityID) Hash() string {
	return e.String()
}

// BasePage returns the id without its subobject
func (e EntityID) BasePage() EntityID {
	return EntityID{Namespace: e.Namespace, Title: e.Title}
}

// MarshalText implements encoding.TextMarshaler
func (e EntityID) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (e *EntityID) UnmarshalText(text []byte) error {
	id, err := ParseEntityID(string(text))
	if err != nil {
		return err
	}
	*e = id
	return nil
}

// ParseEntityID parses the canonical string form produced by String
func ParseEntityID(s string) (EntityID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return EntityID{}, fmt.Errorf("empty entity id")
	}

	var subobject string
	if i := strings.IndexByte(s, '#'); i >= 0 {
		subobject = s[i+1:]
		s = s[:i]
	}

	ns := NSMain
	if i := strings.IndexByte(s, ':'); i > 0 {
		if parsed, ok := ParseNamespace(s[:i]); ok {
			ns = parsed
			s = s[i+1:]
		}
	}

	id := NewEntityID(ns, s, subobject)
	if id.IsZero() {
		return EntityID{}, fmt.Errorf("invalid entity id: %q", s)
	}
	return id, nil
}

// MustParseEntityID is ParseEntityID for literals known to be valid
func MustParseEntityID(s string) EntityID {
	id, err := ParseEntityID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// SortEntities sorts ids by their canonical string
func SortEntities(ids []EntityID) {
	sortByKey(ids, EntityID.String)
}
