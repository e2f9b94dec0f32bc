package ports

import (
	"context"

	"semcache/internal/domain"
)

// DataStore provides property and category lookups for result rows
type DataStore interface {
	// PropertyValues returns the values of property on entity. A nil
	// opts requests every value, unsorted.
	PropertyValues(ctx context.Context, entity domain.EntityID, property string, opts *domain.RequestOptions) ([]domain.Value, error)

	// BulkPreload loads the labels of every entity in one round trip
	BulkPreload(ctx context.Context, entities []domain.EntityID) (domain.FieldList, error)

	DirectCategories(ctx context.Context, entity domain.EntityID) ([]domain.EntityID, error)

	// PropertyType returns the declared type of property; ok is false
	// for undeclared properties
	PropertyType(ctx context.Context, property string) (kind domain.ValueKind, ok bool, err error)
}
