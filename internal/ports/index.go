package ports

import "semcache/internal/domain"

// PageIndex maintains the triple store built from a directory of wiki
// pages.
type PageIndex interface {
	// Lifecycle
	Open(wikiPath string) error
	Close() error

	// Sync operations
	NeedsFullRebuild() bool
	SyncIncremental() (*domain.SyncStats, error)
	SyncFull() (*domain.SyncStats, error)

	// Page queries
	GetPage(path string) (*domain.PageNode, error)
	PagePath(entity domain.EntityID) (string, error)
}
