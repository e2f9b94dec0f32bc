package resolver

import (
	"context"
	"fmt"

	"semcache/internal/domain"
	"semcache/internal/ports"
)

// Fetcher retrieves raw values for a set of entities and sanitizes text
type Fetcher struct {
	store ports.DataStore
	rc    *Context
}

// NewFetcher creates a new Fetcher
func NewFetcher(store ports.DataStore, rc *Context) *Fetcher {
	return &Fetcher{store: store, rc: rc}
}

// Values fetches property for every entity in frontier and concatenates
// the results in frontier order. Duplicates across entities are kept.
func (f *Fetcher) Values(ctx context.Context, frontier []domain.EntityID, property string, opts *domain.RequestOptions, preserveRaw bool) ([]domain.Value, error) {
	var out []domain.Value
	for _, entity := range frontier {
		f.rc.recordLookup(entity, property)
		values, err := f.store.PropertyValues(ctx, entity, property, opts)
		if err != nil {
			return nil, fmt.Errorf("fetch %s of %s: %w", property, entity, err)
		}
		out = append(out, values...)
	}
	if !preserveRaw {
		for i := range out {
			out[i] = f.sanitize(out[i])
		}
	}
	return out, nil
}

// Entities fetches property for every entity in frontier and returns the
// distinct entity-typed values, in first-seen order
func (f *Fetcher) Entities(ctx context.Context, frontier []domain.EntityID, property string) ([]domain.EntityID, error) {
	seen := make(map[domain.EntityID]struct{})
	var next []domain.EntityID
	for _, entity := range frontier {
		f.rc.recordLookup(entity, property)
		values, err := f.store.PropertyValues(ctx, entity, property, nil)
		if err != nil {
			return nil, fmt.Errorf("fetch %s of %s: %w", property, entity, err)
		}
		for _, v := range values {
			if !v.IsEntity() {
				continue
			}
			if _, ok := seen[v.Entity]; ok {
				continue
			}
			seen[v.Entity] = struct{}{}
			next = append(next, v.Entity)
		}
	}
	return next, nil
}

// Categories fetches the direct categories of entity
func (f *Fetcher) Categories(ctx context.Context, entity domain.EntityID) ([]domain.EntityID, error) {
	f.rc.recordCategories(entity)
	cats, err := f.store.DirectCategories(ctx, entity)
	if err != nil {
		return nil, fmt.Errorf("fetch categories of %s: %w", entity, err)
	}
	return cats, nil
}

func (f *Fetcher) sanitize(v domain.Value) domain.Value {
	switch v.Kind {
	case domain.KindText:
		v.Text = f.rc.highlighter.Highlight(StripAnnotations(v.Text))
	case domain.KindRecord:
		fields := make([]domain.Value, len(v.Fields))
		for i, field := range v.Fields {
			fields[i] = f.sanitize(field)
		}
		v.Fields = fields
	}
	return v
}
