package commands

import (
	"context"
	"fmt"

	"semcache/internal/application"
	"semcache/internal/application/querycache"
	"semcache/internal/domain"
)

// Reasons recorded with an invalidation
const (
	ReasonManual = "manual"
	ReasonSync   = "sync"
	ReasonPurge  = "purge"
)

// InvalidateResult contains the result of an invalidation
type InvalidateResult struct {
	Entities []domain.EntityID `json:"entities"`
	Message  string            `json:"message"`
}

// InvalidateCommand drops every cached result embedded in the given
// subjects
type InvalidateCommand struct {
	cache    *querycache.Cache
	Entities []string
	Reason   string
}

// NewInvalidateCommand creates a new InvalidateCommand
func NewInvalidateCommand(cache *querycache.Cache, entities []string, reason string) *InvalidateCommand {
	return &InvalidateCommand{
		cache:    cache,
		Entities: entities,
		Reason:   reason,
	}
}

// Validate checks if the invalidation is valid
func (c *InvalidateCommand) Validate() error {
	_, err := application.ParseEntities("entities", c.Entities)
	return err
}

// Execute runs the invalidate command
func (c *InvalidateCommand) Execute(ctx context.Context) (*InvalidateResult, error) {
	ids, err := application.ParseEntities("entities", c.Entities)
	if err != nil {
		return nil, err
	}

	reason := c.Reason
	if reason == "" {
		reason = ReasonManual
	}

	if err := c.cache.Invalidate(ctx, ids, reason); err != nil {
		return nil, fmt.Errorf("failed to invalidate: %w", err)
	}

	return &InvalidateResult{
		Entities: ids,
		Message:  fmt.Sprintf("Invalidated cached results of %d subject(s)", len(ids)),
	}, nil
}
