package sqlite

import (
	"database/sql"
	"strings"

	"semcache/internal/domain"
)

// indexTx groups the writes of one sync run
type indexTx struct {
	tx *sql.Tx
}

// UpsertPage records a page file and its subject
func (t *indexTx) UpsertPage(node *domain.PageNode) error {
	_, err := t.tx.Exec(`
		INSERT OR REPLACE INTO pages (path, subject, mtime) VALUES (?, ?, ?)
	`, node.Path, node.Entity.String(), node.Mtime)
	return err
}

// UpsertEntity records a subject described by sourcePath
func (t *indexTx) UpsertEntity(id domain.EntityID, sourcePath string) error {
	_, err := t.tx.Exec(`
		INSERT OR REPLACE INTO entities (subject, namespace, title, subobject, source_path)
		VALUES (?, ?, ?, ?, ?)
	`, id.String(), int(id.Namespace), id.Title, id.Subobject, sourcePath)
	return err
}

// InsertTriple adds one annotation. page_value holds the canonical form
// of the value read as a page reference, so that "france" matches France.
func (t *indexTx) InsertTriple(tr domain.Triple, seq int, sourcePath string) error {
	_, err := t.tx.Exec(`
		INSERT INTO triples (subject, property, value, page_value, seq, source_path) VALUES (?, ?, ?, ?, ?, ?)
	`, tr.Subject.String(), tr.Property, tr.Raw, canonicalPage(tr.Raw), seq, sourcePath)
	return err
}

func canonicalPage(raw string) string {
	id, err := domain.ParseEntityID(raw)
	if err != nil {
		return raw
	}
	return id.String()
}

// InsertCategory adds one category membership
func (t *indexTx) InsertCategory(subject domain.EntityID, category string, seq int, sourcePath string) error {
	_, err := t.tx.Exec(`
		INSERT OR IGNORE INTO categories (subject, category, seq, source_path) VALUES (?, ?, ?, ?)
	`, subject.String(), category, seq, sourcePath)
	return err
}

// UpsertProperty records a property type declaration
func (t *indexTx) UpsertProperty(decl domain.PropertyDecl, sourcePath string) error {
	fields := make([]string, len(decl.Fields))
	for i, k := range decl.Fields {
		fields[i] = k.String()
	}
	_, err := t.tx.Exec(`
		INSERT OR REPLACE INTO properties (name, kind, fields, source_path) VALUES (?, ?, ?, ?)
	`, decl.Property, decl.Kind.String(), strings.Join(fields, ";"), sourcePath)
	return err
}

// SubjectsOf returns every subject described by sourcePath
func (t *indexTx) SubjectsOf(sourcePath string) ([]domain.EntityID, error) {
	rows, err := t.tx.Query(`SELECT subject FROM entities WHERE source_path = ?`, sourcePath)
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

// DeleteSource removes everything extracted from sourcePath
func (t *indexTx) DeleteSource(sourcePath string) error {
	_, err := t.tx.Exec(`
		DELETE FROM pages WHERE path = ?;
		DELETE FROM entities WHERE source_path = ?;
		DELETE FROM triples WHERE source_path = ?;
		DELETE FROM categories WHERE source_path = ?;
		DELETE FROM properties WHERE source_path = ?;
	`, sourcePath, sourcePath, sourcePath, sourcePath, sourcePath)
	return err
}

// Clear removes all indexed data
func (t *indexTx) Clear() error {
	_, err := t.tx.Exec(`
		DELETE FROM pages;
		DELETE FROM entities;
		DELETE FROM triples;
		DELETE FROM categories;
		DELETE FROM properties;
	`)
	return err
}

// Commit commits the transaction
func (t *indexTx) Commit() error {
	return t.tx.Commit()
}

// Rollback aborts the transaction
func (t *indexTx) Rollback() error {
	return t.tx.Rollback()
}
