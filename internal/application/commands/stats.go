package commands

import (
	"context"

	"semcache/internal/application/querycache"
)

// StatsCommand reports the cache statistics
type StatsCommand struct {
	cache *querycache.Cache
}

// NewStatsCommand creates a new StatsCommand
func NewStatsCommand(cache *querycache.Cache) *StatsCommand {
	return &StatsCommand{cache: cache}
}

// Execute returns a snapshot of the statistics
func (c *StatsCommand) Execute(ctx context.Context) (querycache.StatsSnapshot, error) {
	return c.cache.Stats(), nil
}
