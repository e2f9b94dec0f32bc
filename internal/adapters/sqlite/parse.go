package sqlite

import (
	"path/filepath"
	"regexp"
	"strings"

	"semcache/internal/domain"
)

var (
	// [[Property::Value]] or [[Property::Value|caption]]
	annotationPattern = regexp.MustCompile(`\[\[([^\[\]|:#][^\[\]|]*?)::([^\[\]|]*)(?:\|[^\[\]]*)?\]\]`)

	// [[Category:Name]] or [[Category:Name|sortkey]]
	categoryPattern = regexp.MustCompile(`(?i)\[\[\s*category\s*:\s*([^\[\]|]+)(?:\|[^\[\]]*)?\]\]`)

	// {{#subobject:name|Property=Value|...}}
	subobjectPattern = regexp.MustCompile(`\{\{#subobject:([^|}]*)((?:\|[^}]*)?)\}\}`)
)

const (
	hasTypeProperty   = "Has type"
	hasFieldsProperty = "Has fields"
)

// parsedPage is everything extracted from one page file
type parsedPage struct {
	subject    domain.EntityID
	subjects   []domain.EntityID // page first, then subobjects
	triples    []domain.Triple
	categories map[domain.EntityID][]string
	decl       *domain.PropertyDecl
}

// entityForPath maps a wiki-relative file path to the subject it describes.
// Top-level Category/ and Property/ directories select the namespace.
func entityForPath(relPath string) (domain.EntityID, bool) {
	if !strings.EqualFold(filepath.Ext(relPath), ".md") {
		return domain.EntityID{}, false
	}
	name := filepath.ToSlash(strings.TrimSuffix(relPath, filepath.Ext(relPath)))

	ns := domain.NSMain
	if dir, rest, ok := strings.Cut(name, "/"); ok {
		if parsed, known := domain.ParseNamespace(dir); known && parsed != domain.NSMain {
			ns, name = parsed, rest
		}
	}

	title := domain.NormalizeTitle(name)
	if title == "" {
		return domain.EntityID{}, false
	}
	return domain.NewEntityID(ns, title, ""), true
}

// parsePage extracts annotations, categories, subobjects and, for
// Property pages, the declared type.
func parsePage(subject domain.EntityID, content string) *parsedPage {
	page := &parsedPage{
		subject:    subject,
		subjects:   []domain.EntityID{subject},
		categories: make(map[domain.EntityID][]string),
	}

	body := subobjectPattern.ReplaceAllStringFunc(content, func(block string) string {
		m := subobjectPattern.FindStringSubmatch(block)
		page.addSubobject(strings.TrimSpace(m[1]), m[2])
		return ""
	})

	for _, m := range annotationPattern.FindAllStringSubmatch(body, -1) {
		page.addTriple(subject, m[1], m[2])
	}
	for _, m := range categoryPattern.FindAllStringSubmatch(body, -1) {
		page.addCategory(subject, m[1])
	}

	if subject.Namespace == domain.NSProperty {
		page.decl = declFromTriples(subject.Title, page.triples)
	}
	return page
}

func (p *parsedPage) addSubobject(name, params string) {
	if name == "" {
		name = "_" + shortHash(params)
	}
	sub := domain.NewEntityID(p.subject.Namespace, p.subject.Title, name)
	p.subjects = append(p.subjects, sub)

	for _, part := range strings.Split(params, "|") {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if strings.EqualFold(key, "@category") {
			for _, c := range strings.Split(value, ",") {
				p.addCategory(sub, c)
			}
			continue
		}
		p.addTriple(sub, key, value)
	}
}

func (p *parsedPage) addTriple(subject domain.EntityID, property, raw string) {
	property = domain.NormalizeTitle(property)
	raw = strings.TrimSpace(raw)
	if property == "" || raw == "" {
		return
	}
	p.triples = append(p.triples, domain.Triple{Subject: subject, Property: property, Raw: raw})
}

func (p *parsedPage) addCategory(subject domain.EntityID, name string) {
	name = domain.NormalizeTitle(name)
	if name == "" {
		return
	}
	for _, existing := range p.categories[subject] {
		if existing == name {
			return
		}
	}
	p.categories[subject] = append(p.categories[subject], name)
}

// declFromTriples reads [[Has type::...]] and [[Has fields::A;B]]
func declFromTriples(property string, triples []domain.Triple) *domain.PropertyDecl {
	var decl *domain.PropertyDecl
	var fields []domain.ValueKind

	for _, t := range triples {
		switch t.Property {
		case hasTypeProperty:
			decl = &domain.PropertyDecl{Property: property, Kind: domain.ParseValueKind(t.Raw)}
		case hasFieldsProperty:
			for _, f := range strings.Split(t.Raw, ";") {
				fields = append(fields, domain.ParseValueKind(f))
			}
		}
	}
	if decl == nil && len(fields) > 0 {
		decl = &domain.PropertyDecl{Property: property, Kind: domain.KindRecord}
	}
	if decl != nil {
		decl.Fields = fields
	}
	return decl
}

// shortHash names anonymous subobjects after their content
func shortHash(s string) string {
	return hashWikiPath(s)[:8]
}

// parseFieldKinds reads the stored ";"-joined field list
func parseFieldKinds(s string) []domain.ValueKind {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ";")
	kinds := make([]domain.ValueKind, len(parts))
	for i, p := range parts {
		kinds[i] = domain.ParseValueKind(p)
	}
	return kinds
}
