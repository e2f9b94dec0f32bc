// Package resolver materializes the display values of query result rows,
// one lazily resolved field per (row, column) pair.
package resolver

import (
	"context"

	"semcache/internal/domain"
	"semcache/internal/ports"
)

type fieldKey struct {
	entity domain.EntityID
	column *domain.PrintRequest
}

// Resolver resolves the fields of one result-set traversal
type Resolver struct {
	store   ports.DataStore
	fetcher *Fetcher
	rc      *Context
	fields  map[fieldKey]*Field
}

// New creates a Resolver. A nil rc uses a fresh Context.
func New(store ports.DataStore, rc *Context) *Resolver {
	if rc == nil {
		rc = NewContext()
	}
	return &Resolver{
		store:   store,
		fetcher: NewFetcher(store, rc),
		rc:      rc,
		fields:  make(map[fieldKey]*Field),
	}
}

// Field returns the field for (entity, column), creating it unresolved on
// first request. The same pair always yields the same Field.
func (r *Resolver) Field(entity domain.EntityID, column *domain.PrintRequest) *Field {
	k := fieldKey{entity: entity, column: column}
	if f, ok := r.fields[k]; ok {
		return f
	}
	f := &Field{resolver: r, entity: entity, column: column}
	r.fields[k] = f
	return f
}

// Row returns one field per column for entity
func (r *Resolver) Row(entity domain.EntityID, columns []*domain.PrintRequest) []*Field {
	row := make([]*Field, len(columns))
	for i, col := range columns {
		row[i] = r.Field(entity, col)
	}
	return row
}

// Resolve returns the values of column for entity. An unresolvable column
// yields an empty list and no error.
func (r *Resolver) Resolve(ctx context.Context, entity domain.EntityID, column *domain.PrintRequest) ([]domain.Value, error) {
	return r.Field(entity, column).Content(ctx)
}

func (r *Resolver) resolve(ctx context.Context, entity domain.EntityID, column *domain.PrintRequest) ([]domain.Value, error) {
	if column == nil || !column.IsValid() {
		return nil, nil
	}

	switch column.Mode() {
	case domain.PrintThis:
		return []domain.Value{domain.EntityValue(entity)}, nil

	case domain.PrintCategories:
		cats, err := r.categories(ctx, entity)
		if err != nil {
			return nil, err
		}
		// the limit truncates even a plain category listing
		if limit := column.Limit(); limit > 0 && limit < len(cats) {
			cats = cats[:limit]
		}
		values := make([]domain.Value, len(cats))
		for i, c := range cats {
			values[i] = domain.EntityValue(c)
		}
		return values, nil

	case domain.PrintCategoryMembership:
		cats, err := r.categories(ctx, entity)
		if err != nil {
			return nil, err
		}
		member := false
		for _, c := range cats {
			if c.Hash() == column.Category().Hash() {
				member = true
				break
			}
		}
		return []domain.Value{domain.BoolValue(member)}, nil

	default:
		frontier := []domain.EntityID{entity}
		if chain := column.Chain(); len(chain) > 1 {
			var err error
			frontier, err = r.walkChain(ctx, entity, chain)
			if err != nil || len(frontier) == 0 {
				return nil, err
			}
		}
		return r.fetchProperty(ctx, frontier, column)
	}
}

// categories returns the direct categories of entity, reusing the most
// recent fetch when it was for the same entity
func (r *Resolver) categories(ctx context.Context, entity domain.EntityID) ([]domain.EntityID, error) {
	if cats, ok := r.rc.cachedCategories(entity); ok {
		return cats, nil
	}
	cats, err := r.fetcher.Categories(ctx, entity)
	if err != nil {
		return nil, err
	}
	r.rc.rememberCategories(entity, cats)
	return cats, nil
}
