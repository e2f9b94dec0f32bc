package sqlite

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"semcache/internal/domain"
	"semcache/internal/ports"
)

const schemaVersion = "3"

// Index implements ports.PageIndex using SQLite. The same database backs
// the DataStore and QueryEngine adapters.
type Index struct {
	db       *sql.DB
	wikiPath string
	dbPath   string
	logger   *zap.Logger
}

// Ensure Index implements PageIndex
var _ ports.PageIndex = (*Index)(nil)

// IndexOption configures an Index
type IndexOption func(*Index)

// WithDatabasePath stores the index at path instead of the per-wiki file
// under $XDG_DATA_HOME/semcache
func WithDatabasePath(path string) IndexOption {
	return func(idx *Index) { idx.dbPath = path }
}

// NewIndex creates a new SQLite index
func NewIndex(logger *zap.Logger, opts ...IndexOption) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}
	idx := &Index{logger: logger}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Open initializes the index for the given wiki path
func (idx *Index) Open(wikiPath string) error {
	// Expand ~ in path
	if len(wikiPath) > 0 && wikiPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		wikiPath = filepath.Join(home, wikiPath[1:])
	}

	idx.wikiPath = wikiPath
	if idx.dbPath == "" {
		idx.dbPath = databasePath(wikiPath)
	}

	if err := os.MkdirAll(filepath.Dir(idx.dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	db, err := sql.Open("sqlite3", idx.dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	idx.db = db

	_, err = db.Exec(`
		PRAGMA synchronous = NORMAL;
		PRAGMA cache_size = -64000;
		PRAGMA temp_store = MEMORY;

		CREATE TABLE IF NOT EXISTS pages (
			path TEXT PRIMARY KEY,
			subject TEXT NOT NULL,
			mtime INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS entities (
			subject TEXT PRIMARY KEY,
			namespace INTEGER NOT NULL,
			title TEXT NOT NULL,
			subobject TEXT NOT NULL DEFAULT '',
			source_path TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS triples (
			subject TEXT NOT NULL,
			property TEXT NOT NULL,
			value TEXT NOT NULL,
			page_value TEXT NOT NULL,
			seq INTEGER NOT NULL,
			source_path TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS categories (
			subject TEXT NOT NULL,
			category TEXT NOT NULL,
			seq INTEGER NOT NULL,
			source_path TEXT NOT NULL,
			PRIMARY KEY (subject, category)
		);
		CREATE TABLE IF NOT EXISTS properties (
			name TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			fields TEXT NOT NULL DEFAULT '',
			source_path TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_triples_subject ON triples(subject, property);
		CREATE INDEX IF NOT EXISTS idx_triples_property ON triples(property, page_value);
		CREATE INDEX IF NOT EXISTS idx_triples_source ON triples(source_path);
		CREATE INDEX IF NOT EXISTS idx_categories_category ON categories(category);
		CREATE INDEX IF NOT EXISTS idx_entities_source ON entities(source_path);
	`)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to setup database: %w", err)
	}

	if idx.NeedsFullRebuild() {
		idx.logger.Info("index needs a full rebuild", zap.String("db", idx.dbPath))
	}
	return nil
}

// Close closes the database connection
func (idx *Index) Close() error {
	if idx.db != nil {
		return idx.db.Close()
	}
	return nil
}

// DB exposes the connection to the store and engine adapters
func (idx *Index) DB() *sql.DB {
	return idx.db
}

// WikiPath returns the expanded path of the indexed wiki
func (idx *Index) WikiPath() string {
	return idx.wikiPath
}

// NeedsFullRebuild returns true if the index should be fully rebuilt
func (idx *Index) NeedsFullRebuild() bool {
	var version, wikiHash string

	idx.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&version)
	idx.db.QueryRow("SELECT value FROM meta WHERE key = 'wiki_path_hash'").Scan(&wikiHash)

	return version != schemaVersion || wikiHash != hashWikiPath(idx.wikiPath)
}

// databasePath returns the path for the SQLite database
func databasePath(wikiPath string) string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "semcache", hashWikiPath(wikiPath)+".db")
}

// hashWikiPath returns a short hash of the wiki path
func hashWikiPath(wikiPath string) string {
	h := sha256.Sum256([]byte(wikiPath))
	return hex.EncodeToString(h[:8])
}

// updateMeta records the schema version and wiki path hash
func (idx *Index) updateMeta(tx *sql.Tx) error {
	_, err := tx.Exec(`
		INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?);
		INSERT OR REPLACE INTO meta (key, value) VALUES ('wiki_path_hash', ?);
	`, schemaVersion, hashWikiPath(idx.wikiPath))
	return err
}

// GetPage retrieves a page by path
func (idx *Index) GetPage(path string) (*domain.PageNode, error) {
	var node domain.PageNode
	var subject string

	err := idx.db.QueryRow(`
		SELECT path, subject, mtime FROM pages WHERE path = ?
	`, path).Scan(&node.Path, &subject, &node.Mtime)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	node.Entity, err = domain.ParseEntityID(subject)
	if err != nil {
		return nil, err
	}
	return &node, nil
}

// PagePath returns the absolute path of the file describing entity
func (idx *Index) PagePath(entity domain.EntityID) (string, error) {
	var rel string
	err := idx.db.QueryRow(`SELECT path FROM pages WHERE subject = ?`, entity.BasePage().String()).Scan(&rel)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("no page for %s", entity)
	}
	if err != nil {
		return "", err
	}
	return filepath.Join(idx.wikiPath, rel), nil
}

// beginTx starts a new transaction
func (idx *Index) beginTx() (*indexTx, error) {
	tx, err := idx.db.Begin()
	if err != nil {
		return nil, err
	}
	return &indexTx{tx: tx}, nil
}
