package resolver

import (
	"context"

	"semcache/internal/domain"
)

type fieldState int

const (
	stateUnresolved fieldState = iota
	stateResolving
	stateResolved
)

// Field is the lazily resolved content of one (row, column) pair
type Field struct {
	resolver *Resolver
	entity   domain.EntityID
	column   *domain.PrintRequest

	state  fieldState
	values []domain.Value
	err    error
	cursor int
}

func (f *Field) Entity() domain.EntityID      { return f.entity }
func (f *Field) Column() *domain.PrintRequest { return f.column }

// Resolved reports whether the content has been computed
func (f *Field) Resolved() bool {
	return f.state == stateResolved
}

// Content returns the field values, resolving them on first access
func (f *Field) Content(ctx context.Context) ([]domain.Value, error) {
	switch f.state {
	case stateResolved:
		return f.values, f.err
	case stateResolving:
		// re-entrant access while resolving sees no values
		return nil, nil
	}

	f.state = stateResolving
	f.values, f.err = f.resolver.resolve(ctx, f.entity, f.column)
	f.state = stateResolved
	return f.values, f.err
}

// Next returns the next value of the field
func (f *Field) Next(ctx context.Context) (domain.Value, bool, error) {
	values, err := f.Content(ctx)
	if err != nil {
		return domain.Value{}, false, err
	}
	if f.cursor >= len(values) {
		return domain.Value{}, false, nil
	}
	v := values[f.cursor]
	f.cursor++
	return v, true, nil
}

// Reset rewinds Next without resolving again
func (f *Field) Reset() {
	f.cursor = 0
}
