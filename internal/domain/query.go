package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Condition is a node of a query condition tree. Fingerprint must be
// stable for equivalent trees; it is the basis of the query identity.
type Condition interface {
	Fingerprint() string
}

// Comparator is the operator of a property condition
type Comparator int

const (
	CmpEqual Comparator = iota
	CmpNotEqual
	CmpLessEq
	CmpGreaterEq
	CmpLike // "*" wildcards
)

func (c Comparator) String() string {
	switch c {
	case CmpNotEqual:
		return "!"
	case CmpLessEq:
		return "<"
	case CmpGreaterEq:
		return ">"
	case CmpLike:
		return "~"
	default:
		return ""
	}
}

// CategoryCondition matches subjects that are members of a category
type CategoryCondition struct {
	Category string
}

func (c CategoryCondition) Fingerprint() string {
	return "[[Category:" + NormalizeTitle(c.Category) + "]]"
}

// PropertyCondition matches subjects having the property. An empty Value
// matches any value.
type PropertyCondition struct {
	Property   string
	Comparator Comparator
	Value      string
}

func (c PropertyCondition) Fingerprint() string {
	if c.Value == "" {
		return "[[" + NormalizeTitle(c.Property) + "::+]]"
	}
	return "[[" + NormalizeTitle(c.Property) + "::" + c.Comparator.String() + strings.TrimSpace(c.Value) + "]]"
}

// Conjunction matches subjects matching every item
type Conjunction struct {
	Items []Condition
}

func (c Conjunction) Fingerprint() string {
	return "and(" + joinFingerprints(c.Items) + ")"
}

// Disjunction matches subjects matching at least one item
type Disjunction struct {
	Items []Condition
}

func (c Disjunction) Fingerprint() string {
	return "or(" + joinFingerprints(c.Items) + ")"
}

// joinFingerprints orders children so that operand order does not change
// the identity of a conjunction or disjunction
func joinFingerprints(items []Condition) string {
	fps := make([]string, 0, len(items))
	for _, item := range items {
		if item != nil {
			fps = append(fps, item.Fingerprint())
		}
	}
	slices.Sort(fps)
	return strings.Join(fps, ",")
}

// SortKey orders query results. An empty Property sorts by subject title.
type SortKey struct {
	Property  string
	Ascending bool
}

func (s SortKey) String() string {
	dir := "desc"
	if s.Ascending {
		dir = "asc"
	}
	return NormalizeTitle(s.Property) + ":" + dir
}

// Processing contexts a query may be issued from
const (
	ContextAPI     = "API"
	ContextSpecial = "special"
	ContextCLI     = "cli"
	ContextHTTP    = "http"
	ContextMCP     = "mcp"
	ContextTUI     = "tui"
)

// Query is an immutable structured query
type Query struct {
	condition     Condition
	limit         int
	offset        int
	sort          []SortKey
	contextEntity EntityID
	noCache       bool
	processing    string
	columns       []*PrintRequest
}

// QueryOption configures a Query at construction
type QueryOption func(*Query)

// WithLimit sets the maximum number of results
func WithLimit(n int) QueryOption {
	return func(q *Query) { q.limit = n }
}

// WithOffset sets the number of leading results to skip
func WithOffset(n int) QueryOption {
	return func(q *Query) { q.offset = n }
}

// WithSort appends sort keys
func WithSort(keys ...SortKey) QueryOption {
	return func(q *Query) { q.sort = append(q.sort, keys...) }
}

// WithContextEntity records the page the query is embedded in
func WithContextEntity(id EntityID) QueryOption {
	return func(q *Query) { q.contextEntity = id }
}

// WithNoCache bypasses the result cache
func WithNoCache() QueryOption {
	return func(q *Query) { q.noCache = true }
}

// WithProcessingContext tags where the query was issued from
func WithProcessingContext(tag string) QueryOption {
	return func(q *Query) { q.processing = tag }
}

// WithColumns sets the requested output columns
func WithColumns(columns ...*PrintRequest) QueryOption {
	return func(q *Query) { q.columns = append(q.columns, columns...) }
}

// DefaultLimit is the page size of a query built without WithLimit
const DefaultLimit = 50

// NewQuery creates a query
func NewQuery(cond Condition, opts ...QueryOption) *Query {
	q := &Query{condition: cond, limit: DefaultLimit}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (q *Query) Condition() Condition      { return q.condition }
func (q *Query) Limit() int                { return q.limit }
func (q *Query) Offset() int               { return q.offset }
func (q *Query) Sort() []SortKey           { return slices.Clone(q.sort) }
func (q *Query) ContextEntity() EntityID   { return q.contextEntity }
func (q *Query) IsEmbedded() bool          { return !q.contextEntity.IsZero() }
func (q *Query) NoCache() bool             { return q.noCache }
func (q *Query) ProcessingContext() string { return q.processing }
func (q *Query) Columns() []*PrintRequest  { return slices.Clone(q.columns) }

// Identity is the stable fingerprint of the condition and the parameters
// that change which subjects are returned, scoped to the embedding page.
// Columns and the processing context only affect presentation and are
// excluded.
func (q *Query) Identity() string {
	var sb strings.Builder
	if q.condition != nil {
		sb.WriteString(q.condition.Fingerprint())
	}
	fmt.Fprintf(&sb, "|ctx=%s|limit=%d|offset=%d|sort=", q.contextEntity.Hash(), q.limit, q.offset)
	for i, s := range q.sort {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(s.String())
	}
	return sb.String()
}

// QueryResult is the ordered list of matching subjects plus a pull cursor
type QueryResult struct {
	entities  []EntityID
	count     int
	further   bool
	fromCache bool
	cursor    int
}

// NewQueryResult creates a result over entities
func NewQueryResult(entities []EntityID, count int, hasFurther bool) *QueryResult {
	return &QueryResult{
		entities: slices.Clone(entities),
		count:    count,
		further:  hasFurther,
	}
}

// Clone returns a copy with its own cursor and the given provenance
func (r *QueryResult) Clone(fromCache bool) *QueryResult {
	return &QueryResult{
		entities:  slices.Clone(r.entities),
		count:     r.count,
		further:   r.further,
		fromCache: fromCache,
	}
}

// Next returns the next subject and advances the cursor
func (r *QueryResult) Next() (EntityID, bool) {
	if r.cursor >= len(r.entities) {
		return EntityID{}, false
	}
	id := r.entities[r.cursor]
	r.cursor++
	return id, true
}

// Reset rewinds the cursor
func (r *QueryResult) Reset() {
	r.cursor = 0
}

// Entities returns a copy of the result subjects
func (r *QueryResult) Entities() []EntityID {
	return slices.Clone(r.entities)
}

func (r *QueryResult) Len() int                { return len(r.entities) }
func (r *QueryResult) Count() int              { return r.count }
func (r *QueryResult) HasFurtherResults() bool { return r.further }
func (r *QueryResult) FromCache() bool         { return r.fromCache }
