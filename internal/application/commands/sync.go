package commands

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"semcache/internal/application/querycache"
	"semcache/internal/domain"
	"semcache/internal/ports"
)

// SyncResult contains the result of a sync
type SyncResult struct {
	Stats       *domain.SyncStats `json:"stats"`
	Full        bool              `json:"full"`
	Invalidated int               `json:"invalidated"`
	Message     string            `json:"message"`
}

// SyncCommand re-reads the wiki into the index and purges cached results
// embedded in every page whose data changed
type SyncCommand struct {
	index  ports.PageIndex
	cache  *querycache.Cache
	logger *zap.Logger
	Full   bool
}

// NewSyncCommand creates a new SyncCommand
func NewSyncCommand(index ports.PageIndex, cache *querycache.Cache, logger *zap.Logger, full bool) *SyncCommand {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncCommand{
		index:  index,
		cache:  cache,
		logger: logger,
		Full:   full,
	}
}

// Execute runs the sync command
func (c *SyncCommand) Execute(ctx context.Context) (*SyncResult, error) {
	full := c.Full || c.index.NeedsFullRebuild()

	var stats *domain.SyncStats
	var err error
	if full {
		stats, err = c.index.SyncFull()
	} else {
		stats, err = c.index.SyncIncremental()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to sync index: %w", err)
	}

	result := &SyncResult{Stats: stats, Full: full}
	if len(stats.Changed) > 0 && c.cache != nil {
		if err := c.cache.Invalidate(ctx, stats.Changed, ReasonSync); err != nil {
			// the index is current even when the purge fails
			c.logger.Warn("purge after sync failed", zap.Error(err))
		} else {
			result.Invalidated = len(stats.Changed)
		}
	}

	result.Message = fmt.Sprintf("Synced %d added, %d updated, %d deleted page(s); purged %d subject(s)",
		stats.PagesAdded, stats.PagesUpdated, stats.PagesDeleted, result.Invalidated)
	return result, nil
}
