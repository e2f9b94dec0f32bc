package domain

import (
	"slices"
	"strings"
)

// PrintMode says what a result column projects
type PrintMode int

const (
	PrintThis               PrintMode = iota // the row subject itself
	PrintCategories                          // direct category memberships
	PrintCategoryMembership                  // boolean: member of one category
	PrintProperty                            // values of one property
	PrintPropertyChain                       // values at the end of P1.P2...Pn
)

func (m PrintMode) String() string {
	switch m {
	case PrintCategories:
		return "categories"
	case PrintCategoryMembership:
		return "category-membership"
	case PrintProperty:
		return "property"
	case PrintPropertyChain:
		return "property-chain"
	default:
		return "this"
	}
}

// PrintRequest describes one output column of a query, independent of
// any result row. It is immutable once built.
type PrintRequest struct {
	mode        PrintMode
	label       string
	chain       []string
	category    EntityID
	valueType   ValueKind
	limit       int
	offset      int
	order       string
	index       int
	hasIndex    bool
	lang        string
	format      string
	preserveRaw bool
}

// PrintOption configures a PrintRequest at construction
type PrintOption func(*PrintRequest)

// WithColumnLimit caps the number of values shown; 0 means no cap
func WithColumnLimit(n int) PrintOption {
	return func(p *PrintRequest) { p.limit = n }
}

// WithColumnOffset skips leading values
func WithColumnOffset(n int) PrintOption {
	return func(p *PrintRequest) { p.offset = n }
}

// WithOrder sets the order parameter (asc, desc, n-asc, ...)
func WithOrder(order string) PrintOption {
	return func(p *PrintRequest) { p.order = order }
}

// WithIndex selects one record field (0-based)
func WithIndex(i int) PrintOption {
	return func(p *PrintRequest) {
		p.index = i
		p.hasIndex = i >= 0
	}
}

// WithLang selects the language-tagged text of a record
func WithLang(lang string) PrintOption {
	return func(p *PrintRequest) { p.lang = strings.ToLower(strings.TrimSpace(lang)) }
}

// WithOutputFormat sets the output format. Formats ending in "-raw" or
// "-ia" preserve annotations in text values.
func WithOutputFormat(format string) PrintOption {
	return func(p *PrintRequest) {
		p.format = format
		if strings.HasSuffix(format, "-raw") || strings.HasSuffix(format, "-ia") {
			p.preserveRaw = true
		}
	}
}

// WithPreserveRaw skips text sanitation for the column
func WithPreserveRaw() PrintOption {
	return func(p *PrintRequest) { p.preserveRaw = true }
}

func newPrintRequest(mode PrintMode, label string, opts []PrintOption) *PrintRequest {
	p := &PrintRequest{mode: mode, label: label, index: -1}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewThisPrint projects the row subject
func NewThisPrint(label string, opts ...PrintOption) *PrintRequest {
	p := newPrintRequest(PrintThis, label, opts)
	p.valueType = KindEntityRef
	return p
}

// NewCategoriesPrint projects the row subject's categories
func NewCategoriesPrint(label string, opts ...PrintOption) *PrintRequest {
	p := newPrintRequest(PrintCategories, label, opts)
	p.valueType = KindEntityRef
	return p
}

// NewMembershipPrint projects whether the row subject is in category
func NewMembershipPrint(label string, category EntityID, opts ...PrintOption) *PrintRequest {
	p := newPrintRequest(PrintCategoryMembership, label, opts)
	p.category = category
	p.valueType = KindBoolean
	return p
}

// NewPropertyPrint projects the values of one property
func NewPropertyPrint(label, property string, valueType ValueKind, opts ...PrintOption) *PrintRequest {
	p := newPrintRequest(PrintProperty, label, opts)
	if prop := NormalizeTitle(property); prop != "" {
		p.chain = []string{prop}
	}
	p.valueType = valueType
	return p
}

// NewChainPrint projects the values reached by following a property
// chain; valueType is the type of the last property
func NewChainPrint(label string, chain []string, valueType ValueKind, opts ...PrintOption) *PrintRequest {
	p := newPrintRequest(PrintPropertyChain, label, opts)
	for _, prop := range chain {
		prop = NormalizeTitle(prop)
		if prop == "" {
			p.chain = nil
			break
		}
		p.chain = append(p.chain, prop)
	}
	if len(p.chain) == 1 {
		p.mode = PrintProperty
	}
	p.valueType = valueType
	return p
}

func (p *PrintRequest) Mode() PrintMode         { return p.mode }
func (p *PrintRequest) IsMode(m PrintMode) bool { return p.mode == m }
func (p *PrintRequest) Label() string           { return p.label }
func (p *PrintRequest) Chain() []string         { return slices.Clone(p.chain) }
func (p *PrintRequest) Category() EntityID      { return p.category }
func (p *PrintRequest) ValueType() ValueKind    { return p.valueType }
func (p *PrintRequest) Limit() int              { return p.limit }
func (p *PrintRequest) Offset() int             { return p.offset }
func (p *PrintRequest) Order() string           { return p.order }
func (p *PrintRequest) Index() (int, bool)      { return p.index, p.hasIndex }
func (p *PrintRequest) Lang() string            { return p.lang }
func (p *PrintRequest) OutputFormat() string    { return p.format }
func (p *PrintRequest) PreserveRaw() bool       { return p.preserveRaw }

// Property returns the last property of the column's chain
func (p *PrintRequest) Property() string {
	if len(p.chain) == 0 {
		return ""
	}
	return p.chain[len(p.chain)-1]
}

// IsValid reports whether the column refers to something resolvable
func (p *PrintRequest) IsValid() bool {
	switch p.mode {
	case PrintThis, PrintCategories:
		return true
	case PrintCategoryMembership:
		return !p.category.IsZero()
	default:
		return len(p.chain) > 0
	}
}

// ExpandsRecord reports whether values are decomposed into one record
// field (by index or language) before display
func (p *PrintRequest) ExpandsRecord() bool {
	return p.valueType == KindRecord && (p.hasIndex || p.lang != "")
}

// Title returns the header shown for the column
func (p *PrintRequest) Title() string {
	if p.label != "" {
		return p.label
	}
	switch p.mode {
	case PrintThis:
		return ""
	case PrintCategories:
		return "Categories"
	case PrintCategoryMembership:
		return p.category.Title
	default:
		return strings.Join(p.chain, ".")
	}
}
