package sqlite

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"semcache/internal/domain"
	"semcache/internal/ports"
)

// Engine evaluates query conditions with SQL over the index tables
type Engine struct {
	store  *DataStore
	logger *zap.Logger
}

var _ ports.QueryEngine = (*Engine)(nil)

// NewEngine creates an Engine over an opened index
func NewEngine(idx *Index, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: NewDataStore(idx, logger), logger: logger}
}

// Evaluate returns the page of subjects matching q together with the
// total match count
func (e *Engine) Evaluate(ctx context.Context, q *domain.Query) (*domain.QueryResult, error) {
	if q == nil || q.Condition() == nil {
		return nil, fmt.Errorf("evaluate: empty query")
	}

	where, args, err := e.compile(ctx, q.Condition())
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}

	var count int
	if err := e.store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM entities e WHERE `+where, args...).Scan(&count); err != nil {
		return nil, fmt.Errorf("evaluate count: %w", err)
	}

	limit := max(q.Limit(), 0)
	if limit == 0 {
		return domain.NewQueryResult(nil, count, count > q.Offset()), nil
	}

	order, orderArgs, err := e.orderBy(ctx, q.Sort())
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}

	stmt := `SELECT e.subject FROM entities e WHERE ` + where + ` ORDER BY ` + order + ` LIMIT ? OFFSET ?`
	all := append(append(append([]any{}, args...), orderArgs...), limit+1, max(q.Offset(), 0))

	rows, err := e.store.db.QueryContext(ctx, stmt, all...)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	defer rows.Close()

	var ids []domain.EntityID
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		id, err := domain.ParseEntityID(s)
		if err != nil {
			e.logger.Warn("skipping malformed subject", zap.String("subject", s))
			continue
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	further := len(ids) > limit
	if further {
		ids = ids[:limit]
	}

	e.logger.Debug("query evaluated",
		zap.String("condition", q.Condition().Fingerprint()),
		zap.Int("count", count),
		zap.Int("returned", len(ids)))

	return domain.NewQueryResult(ids, count, further), nil
}

// compile turns a condition tree into a WHERE fragment over entities e
func (e *Engine) compile(ctx context.Context, cond domain.Condition) (string, []any, error) {
	switch c := cond.(type) {
	case domain.CategoryCondition:
		return `e.subject IN (SELECT subject FROM categories WHERE category = ?)`,
			[]any{domain.NormalizeTitle(c.Category)}, nil

	case domain.PropertyCondition:
		return e.compileProperty(ctx, c)

	case domain.Conjunction:
		return e.compileGroup(ctx, c.Items, " AND ", "1=1")

	case domain.Disjunction:
		return e.compileGroup(ctx, c.Items, " OR ", "0=1")

	default:
		return "", nil, fmt.Errorf("unsupported condition %T", cond)
	}
}

func (e *Engine) compileGroup(ctx context.Context, items []domain.Condition, sep, empty string) (string, []any, error) {
	var parts []string
	var args []any
	for _, item := range items {
		if item == nil {
			continue
		}
		frag, a, err := e.compile(ctx, item)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, "("+frag+")")
		args = append(args, a...)
	}
	if len(parts) == 0 {
		return empty, nil, nil
	}
	return strings.Join(parts, sep), args, nil
}

func (e *Engine) compileProperty(ctx context.Context, c domain.PropertyCondition) (string, []any, error) {
	property := domain.NormalizeTitle(c.Property)
	if property == "" {
		return "", nil, fmt.Errorf("property condition without property")
	}

	value := strings.TrimSpace(c.Value)
	if value == "" {
		return `e.subject IN (SELECT subject FROM triples WHERE property = ?)`, []any{property}, nil
	}

	kind, _, err := e.store.declaration(ctx, property)
	if err != nil {
		return "", nil, err
	}

	column := "value"
	var operand any = value
	switch kind {
	case domain.KindScalar:
		n, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", ""), 64)
		if err != nil {
			return "", nil, fmt.Errorf("invalid number %q for %s", value, property)
		}
		column, operand = numericColumn("value"), n
	case domain.KindEntityRef:
		if c.Comparator != domain.CmpLike {
			column, operand = "page_value", canonicalPage(value)
		}
	}

	var op, suffix string
	switch c.Comparator {
	case domain.CmpEqual:
		op = "="
	case domain.CmpNotEqual:
		op = "!="
	case domain.CmpLessEq:
		op = "<="
	case domain.CmpGreaterEq:
		op = ">="
	case domain.CmpLike:
		op, suffix = "LIKE", ` ESCAPE '\'`
		operand = likePattern(value)
	default:
		return "", nil, fmt.Errorf("unsupported comparator %d", c.Comparator)
	}

	return `e.subject IN (SELECT subject FROM triples WHERE property = ? AND ` + column + ` ` + op + ` ?` + suffix + `)`,
		[]any{property, operand}, nil
}

// orderBy builds the ORDER BY clause; the subject title breaks ties
func (e *Engine) orderBy(ctx context.Context, keys []domain.SortKey) (string, []any, error) {
	var parts []string
	var args []any

	for _, k := range keys {
		dir := "DESC"
		if k.Ascending {
			dir = "ASC"
		}

		property := domain.NormalizeTitle(k.Property)
		if property == "" {
			parts = append(parts, "e.title "+dir)
			continue
		}

		kind, _, err := e.store.declaration(ctx, property)
		if err != nil {
			return "", nil, err
		}
		column := "t.value"
		if kind == domain.KindScalar {
			column = numericColumn("t.value")
		}
		parts = append(parts,
			`(SELECT MIN(`+column+`) FROM triples t WHERE t.subject = e.subject AND t.property = ?) `+dir)
		args = append(args, property)
	}

	parts = append(parts, "e.title ASC", "e.namespace ASC", "e.subobject ASC")
	return strings.Join(parts, ", "), args, nil
}

func numericColumn(col string) string {
	return "CAST(REPLACE(" + col + ", ',', '') AS REAL)"
}

// likePattern maps "*" wildcards to SQL LIKE
func likePattern(v string) string {
	r := strings.NewReplacer("%", `\%`, "_", `\_`, "*", "%")
	return r.Replace(v)
}
