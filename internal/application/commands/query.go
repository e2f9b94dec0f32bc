package commands

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"semcache/internal/application"
	"semcache/internal/application/facets"
	"semcache/internal/application/querycache"
	"semcache/internal/application/resolver"
	"semcache/internal/application/unitofwork"
	"semcache/internal/domain"
	"semcache/internal/ports"
)

// MaxLimit bounds the page size a caller may request
const MaxLimit = 5000

// QueryRequest describes one ask query and how to present its rows
type QueryRequest struct {
	Conditions string   // ask syntax, e.g. "[[Category:City]] [[Located in::France]]"
	Printouts  []string // column specs, see ParsePrintout
	Limit      int
	Offset     int
	Sort       string // comma-separated properties
	Order      string // comma-separated asc/desc, paired with Sort
	Context    string // embedding page; empty for a standalone query
	NoCache    bool
	Source     string // processing context, e.g. domain.ContextCLI

	Facets    bool
	Journal   bool
	Highlight []string
}

// Row is one result subject with the resolved values of each column
type Row struct {
	Entity domain.EntityID  `json:"entity"`
	Cells  [][]domain.Value `json:"cells"`
}

// QueryResult is the outcome of a QueryCommand
type QueryResult struct {
	Columns      []string             `json:"columns"`
	Rows         []Row                `json:"rows"`
	Count        int                  `json:"count"`
	HasFurther   bool                 `json:"hasFurther"`
	FromCache    bool                 `json:"fromCache"`
	Facets       domain.FacetCountMap `json:"facets,omitempty"`
	Dependencies []domain.EntityID    `json:"dependencies,omitempty"`
	UnitOfWork   string               `json:"unitOfWork"`
}

// QueryCommand runs a query through the result cache and resolves its
// columns. The whole command is one unit of work: results computed by it
// are persisted when it commits.
type QueryCommand struct {
	cache  *querycache.Cache
	store  ports.DataStore
	logger *zap.Logger
	QueryRequest
}

// NewQueryCommand creates a new QueryCommand
func NewQueryCommand(cache *querycache.Cache, store ports.DataStore, logger *zap.Logger, req QueryRequest) *QueryCommand {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryCommand{
		cache:        cache,
		store:        store,
		logger:       logger,
		QueryRequest: req,
	}
}

// Validate checks the request without touching any store
func (c *QueryCommand) Validate() error {
	if err := application.ValidateRequired("conditions", c.Conditions); err != nil {
		return err
	}
	if err := application.ValidateRange("limit", c.Limit, 0, MaxLimit); err != nil {
		return err
	}
	if c.Offset < 0 {
		return &application.ValidationError{Field: "offset", Message: "offset must not be negative"}
	}
	if strings.TrimSpace(c.Context) != "" {
		if _, err := domain.ParseEntityID(c.Context); err != nil {
			return &application.ValidationError{Field: "contextEntity", Message: err.Error()}
		}
	}
	return nil
}

// BuildQuery parses the request into a query and its columns
func (c *QueryCommand) BuildQuery(ctx context.Context) (*domain.Query, []*domain.PrintRequest, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}

	cond, err := domain.ParseCondition(c.Conditions)
	if err != nil {
		return nil, nil, &application.ValidationError{Field: "conditions", Message: err.Error()}
	}

	columns := make([]*domain.PrintRequest, 0, len(c.Printouts))
	for _, spec := range c.Printouts {
		p, err := ParsePrintout(ctx, c.store, spec)
		if err != nil {
			return nil, nil, err
		}
		columns = append(columns, p)
	}

	opts := []domain.QueryOption{
		domain.WithLimit(c.Limit),
		domain.WithOffset(c.Offset),
		domain.WithSort(domain.ParseSort(c.Sort, c.Order)...),
		domain.WithColumns(columns...),
		domain.WithProcessingContext(c.Source),
	}
	if strings.TrimSpace(c.Context) != "" {
		opts = append(opts, domain.WithContextEntity(domain.MustParseEntityID(c.Context)))
	}
	if c.NoCache {
		opts = append(opts, domain.WithNoCache())
	}

	return domain.NewQuery(cond, opts...), columns, nil
}

// Execute runs the query command
func (c *QueryCommand) Execute(ctx context.Context) (*QueryResult, error) {
	q, columns, err := c.BuildQuery(ctx)
	if err != nil {
		return nil, err
	}

	uow := unitofwork.New(c.logger)
	req := c.cache.Begin(uow)
	defer req.End()

	res, err := req.GetResult(ctx, q)
	if err != nil {
		c.rollback(uow)
		return nil, fmt.Errorf("failed to run query: %w", err)
	}

	out := &QueryResult{
		Count:      res.Count(),
		HasFurther: res.HasFurtherResults(),
		FromCache:  res.FromCache(),
		UnitOfWork: uow.ID(),
	}
	for _, col := range columns {
		out.Columns = append(out.Columns, col.Title())
	}

	rcOpts := []resolver.ContextOption{resolver.WithLogger(c.logger)}
	if len(c.Highlight) > 0 {
		rcOpts = append(rcOpts, resolver.WithHighlight(c.Highlight...))
	}
	var journal *resolver.DependencyJournal
	if c.Journal {
		journal = resolver.NewDependencyJournal()
		rcOpts = append(rcOpts, resolver.WithJournal(journal))
	}
	r := resolver.New(c.store, resolver.NewContext(rcOpts...))

	for id, ok := res.Next(); ok; id, ok = res.Next() {
		row := Row{Entity: id, Cells: make([][]domain.Value, len(columns))}
		for i, field := range r.Row(id, columns) {
			values, err := field.Content(ctx)
			if err != nil {
				c.rollback(uow)
				return nil, fmt.Errorf("failed to resolve %s of %s: %w", columns[i].Title(), id, err)
			}
			row.Cells[i] = values
		}
		out.Rows = append(out.Rows, row)
	}

	if c.Facets {
		counts, err := facets.NewFilterMap(c.store, res).Counts(ctx)
		if err != nil {
			c.rollback(uow)
			return nil, fmt.Errorf("failed to count facets: %w", err)
		}
		out.Facets = counts
	}
	if journal != nil {
		out.Dependencies = journal.Entities()
	}

	if err := uow.Commit(ctx); err != nil {
		return nil, err
	}

	c.logger.Debug("query executed",
		zap.String("unit_of_work", out.UnitOfWork),
		zap.Int("rows", len(out.Rows)),
		zap.Bool("from_cache", out.FromCache))

	return out, nil
}

// rollback discards the results scheduled for persistence by a failed run
func (c *QueryCommand) rollback(uow *unitofwork.UnitOfWork) {
	if err := uow.Rollback(); err != nil {
		c.logger.Warn("rollback failed", zap.String("uow", uow.ID()), zap.Error(err))
	}
}
