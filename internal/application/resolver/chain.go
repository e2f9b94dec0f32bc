package resolver

import (
	"context"

	"go.uber.org/zap"

	"semcache/internal/domain"
)

// walkChain follows every property of chain except the last, starting at
// entity. It returns the final frontier, or nil when the chain breaks:
// an intermediate property that is not entity-typed, or a hop that
// reaches no entity.
func (r *Resolver) walkChain(ctx context.Context, entity domain.EntityID, chain []string) ([]domain.EntityID, error) {
	frontier := []domain.EntityID{entity}
	for _, prop := range chain[:len(chain)-1] {
		kind, declared, err := r.store.PropertyType(ctx, prop)
		if err != nil {
			return nil, err
		}
		if declared && kind != domain.KindEntityRef {
			r.rc.logger.Debug("chain stops at non-entity property", zap.String("property", prop))
			return nil, nil
		}

		frontier, err = r.fetcher.Entities(ctx, frontier, prop)
		if err != nil {
			return nil, err
		}
		if len(frontier) == 0 {
			return nil, nil
		}
	}
	return frontier, nil
}
