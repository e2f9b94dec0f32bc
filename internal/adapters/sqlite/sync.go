package sqlite

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"semcache/internal/domain"
)

// SyncFull performs a complete rebuild of the index
func (idx *Index) SyncFull() (*domain.SyncStats, error) {
	start := time.Now()
	stats := &domain.SyncStats{}

	tx, err := idx.beginTx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Every previously indexed subject is a candidate for purging
	previous, err := idx.allSubjects()
	if err != nil {
		return nil, err
	}
	if err := tx.Clear(); err != nil {
		return nil, err
	}

	changed := newChangeSet(previous...)
	err = idx.walk(func(relPath string, info os.FileInfo) error {
		stats.FilesScanned++
		added, err := idx.indexPage(tx, relPath, info, changed)
		if err != nil {
			idx.logger.Warn("skipping page", zap.String("path", relPath), zap.Error(err))
			return nil
		}
		stats.PagesAdded++
		stats.TriplesAdded += added
		return nil
	})
	if err != nil {
		return stats, err
	}

	if err := idx.finishSync(tx); err != nil {
		return stats, err
	}

	stats.Changed = changed.list()
	stats.Duration = time.Since(start)
	return stats, nil
}

// SyncIncremental updates only files that changed since last sync
func (idx *Index) SyncIncremental() (*domain.SyncStats, error) {
	start := time.Now()
	stats := &domain.SyncStats{}

	// Get last sync time
	var lastSyncUnix int64
	idx.db.QueryRow(`SELECT value FROM meta WHERE key = 'last_sync_time'`).Scan(&lastSyncUnix)

	// Track existing paths to detect deletions
	existingPaths := make(map[string]bool)
	rows, err := idx.db.Query(`SELECT path FROM pages`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var path string
		rows.Scan(&path)
		existingPaths[path] = true
	}
	rows.Close()

	tx, err := idx.beginTx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	changed := newChangeSet()
	seenPaths := make(map[string]bool)

	err = idx.walk(func(relPath string, info os.FileInfo) error {
		seenPaths[relPath] = true
		stats.FilesScanned++

		// Check if file is new or modified
		if info.ModTime().Unix() <= lastSyncUnix && existingPaths[relPath] {
			return nil
		}

		if existingPaths[relPath] {
			if err := idx.dropPage(tx, relPath, changed); err != nil {
				return err
			}
		}

		added, err := idx.indexPage(tx, relPath, info, changed)
		if err != nil {
			idx.logger.Warn("skipping page", zap.String("path", relPath), zap.Error(err))
			return nil
		}
		if existingPaths[relPath] {
			stats.PagesUpdated++
		} else {
			stats.PagesAdded++
		}
		stats.TriplesAdded += added
		return nil
	})
	if err != nil {
		return stats, err
	}

	// Delete pages that no longer exist
	for path := range existingPaths {
		if !seenPaths[path] {
			if err := idx.dropPage(tx, path, changed); err != nil {
				return stats, err
			}
			stats.PagesDeleted++
		}
	}

	if err := idx.finishSync(tx); err != nil {
		return stats, err
	}

	stats.Changed = changed.list()
	stats.Duration = time.Since(start)
	return stats, nil
}

// walk visits every markdown file below the wiki root, skipping hidden
// directories
func (idx *Index) walk(fn func(relPath string, info os.FileInfo) error) error {
	return filepath.Walk(idx.wikiPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if info.IsDir() {
			if path != idx.wikiPath && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(info.Name()), ".md") {
			return nil
		}
		relPath, _ := filepath.Rel(idx.wikiPath, path)
		return fn(relPath, info)
	})
}

// indexPage parses one file and writes its rows, returning the number of
// triples added
func (idx *Index) indexPage(tx *indexTx, relPath string, info os.FileInfo, changed *changeSet) (int, error) {
	subject, ok := entityForPath(relPath)
	if !ok {
		return 0, fmt.Errorf("no subject for %s", relPath)
	}

	content, err := os.ReadFile(filepath.Join(idx.wikiPath, relPath))
	if err != nil {
		return 0, err
	}
	page := parsePage(subject, string(content))

	if err := tx.UpsertPage(&domain.PageNode{Path: relPath, Entity: subject, Mtime: info.ModTime().Unix()}); err != nil {
		return 0, err
	}
	for _, s := range page.subjects {
		if err := tx.UpsertEntity(s, relPath); err != nil {
			return 0, err
		}
		changed.add(s)
	}
	for i, t := range page.triples {
		if err := tx.InsertTriple(t, i, relPath); err != nil {
			return 0, err
		}
	}
	for s, cats := range page.categories {
		for i, c := range cats {
			if err := tx.InsertCategory(s, c, i, relPath); err != nil {
				return 0, err
			}
		}
	}
	if page.decl != nil {
		if err := tx.UpsertProperty(*page.decl, relPath); err != nil {
			return 0, err
		}
	}
	return len(page.triples), nil
}

// dropPage removes a page's rows and records its subjects as changed
func (idx *Index) dropPage(tx *indexTx, relPath string, changed *changeSet) error {
	subjects, err := tx.SubjectsOf(relPath)
	if err != nil {
		return err
	}
	changed.add(subjects...)
	return tx.DeleteSource(relPath)
}

func (idx *Index) finishSync(tx *indexTx) error {
	if err := idx.updateMeta(tx.tx); err != nil {
		return err
	}
	if _, err := tx.tx.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES ('last_sync_time', ?)`,
		time.Now().Unix()); err != nil {
		return err
	}
	return tx.Commit()
}

// allSubjects lists every indexed subject
func (idx *Index) allSubjects() ([]domain.EntityID, error) {
	rows, err := idx.db.Query(`SELECT subject FROM entities`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []domain.EntityID
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		if id, err := domain.ParseEntityID(s); err == nil {
			ids = append(ids, id)
		}
	}
	return ids, rows.Err()
}

// changeSet collects subjects touched by a sync, in first-seen order
type changeSet struct {
	seen map[domain.EntityID]bool
	ids  []domain.EntityID
}

func newChangeSet(ids ...domain.EntityID) *changeSet {
	c := &changeSet{seen: make(map[domain.EntityID]bool)}
	c.add(ids...)
	return c
}

func (c *changeSet) add(ids ...domain.EntityID) {
	for _, id := range ids {
		if !c.seen[id] {
			c.seen[id] = true
			c.ids = append(c.ids, id)
		}
	}
}

func (c *changeSet) list() []domain.EntityID {
	return c.ids
}
