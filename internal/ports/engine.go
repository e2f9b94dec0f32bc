package ports

import (
	"context"

	"semcache/internal/domain"
)

// QueryEngine evaluates a query condition against the physical store.
// It may itself be a remote or federated source.
type QueryEngine interface {
	Evaluate(ctx context.Context, q *domain.Query) (*domain.QueryResult, error)
}
