package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"semcache/internal/domain"
	"semcache/internal/ports"
)

// preloadChunk bounds the number of bound parameters per statement
const preloadChunk = 500

// DataStore answers property and category lookups from the index
type DataStore struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ ports.DataStore = (*DataStore)(nil)

// NewDataStore creates a DataStore over an opened index
func NewDataStore(idx *Index, logger *zap.Logger) *DataStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DataStore{db: idx.DB(), logger: logger}
}

// PropertyValues returns the values of property on entity, parsed with the
// property's declared type. Undeclared properties hold page references.
func (s *DataStore) PropertyValues(ctx context.Context, entity domain.EntityID, property string, opts *domain.RequestOptions) ([]domain.Value, error) {
	property = domain.NormalizeTitle(property)

	kind, fields, err := s.declaration(ctx, property)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT value FROM triples WHERE subject = ? AND property = ? ORDER BY seq
	`, entity.String(), property)
	if err != nil {
		return nil, fmt.Errorf("query values of %s on %s: %w", property, entity, err)
	}
	defer rows.Close()

	var values []domain.Value
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		v, err := domain.ParseValue(kind, raw, fields)
		if err != nil {
			s.logger.Debug("value does not match declared type",
				zap.String("property", property),
				zap.String("raw", raw),
				zap.Error(err))
			v = domain.TextValue(raw)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return domain.ApplyRestrictions(values, opts), nil
}

// BulkPreload loads property keys and categories of every entity
func (s *DataStore) BulkPreload(ctx context.Context, entities []domain.EntityID) (domain.FieldList, error) {
	fields := make(domain.FieldList, len(entities))
	for _, e := range entities {
		fields[e] = domain.EntityFields{}
	}

	subjects := make([]string, 0, len(fields))
	for e := range fields {
		subjects = append(subjects, e.String())
	}

	for start := 0; start < len(subjects); start += preloadChunk {
		chunk := subjects[start:min(start+preloadChunk, len(subjects))]
		if err := s.preloadChunk(ctx, chunk, fields); err != nil {
			return nil, err
		}
	}
	return fields, nil
}

func (s *DataStore) preloadChunk(ctx context.Context, subjects []string, fields domain.FieldList) error {
	in, args := placeholders(subjects)

	err := s.scanPairs(ctx, `
		SELECT subject, property FROM triples WHERE subject IN (`+in+`)
		GROUP BY subject, property ORDER BY subject, MIN(seq)
	`, args, func(id domain.EntityID, label string) {
		f := fields[id]
		f.Properties = append(f.Properties, label)
		fields[id] = f
	})
	if err != nil {
		return fmt.Errorf("preload properties: %w", err)
	}

	err = s.scanPairs(ctx, `
		SELECT subject, category FROM categories WHERE subject IN (`+in+`) ORDER BY subject, seq
	`, args, func(id domain.EntityID, label string) {
		f := fields[id]
		f.Categories = append(f.Categories, label)
		fields[id] = f
	})
	if err != nil {
		return fmt.Errorf("preload categories: %w", err)
	}
	return nil
}

func (s *DataStore) scanPairs(ctx context.Context, query string, args []any, fn func(domain.EntityID, string)) error {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var subject, label string
		if err := rows.Scan(&subject, &label); err != nil {
			return err
		}
		id, err := domain.ParseEntityID(subject)
		if err != nil {
			continue
		}
		fn(id, label)
	}
	return rows.Err()
}

// DirectCategories returns the categories entity is directly assigned to
func (s *DataStore) DirectCategories(ctx context.Context, entity domain.EntityID) ([]domain.EntityID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category FROM categories WHERE subject = ? ORDER BY seq
	`, entity.String())
	if err != nil {
		return nil, fmt.Errorf("query categories of %s: %w", entity, err)
	}
	defer rows.Close()

	var cats []domain.EntityID
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cats = append(cats, domain.CategoryPage(name))
	}
	return cats, rows.Err()
}

// PropertyType returns the declared type of property
func (s *DataStore) PropertyType(ctx context.Context, property string) (domain.ValueKind, bool, error) {
	var kind string
	err := s.db.QueryRowContext(ctx, `
		SELECT kind FROM properties WHERE name = ?
	`, domain.NormalizeTitle(property)).Scan(&kind)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.KindUnknown, false, nil
	}
	if err != nil {
		return domain.KindUnknown, false, err
	}
	return domain.ParseValueKind(kind), true, nil
}

// declaration returns the kind and record fields used to parse values of
// property
func (s *DataStore) declaration(ctx context.Context, property string) (domain.ValueKind, []domain.ValueKind, error) {
	var kind, fields string
	err := s.db.QueryRowContext(ctx, `
		SELECT kind, fields FROM properties WHERE name = ?
	`, property).Scan(&kind, &fields)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.KindEntityRef, nil, nil
	}
	if err != nil {
		return domain.KindUnknown, nil, err
	}
	return domain.ParseValueKind(kind), parseFieldKinds(fields), nil
}

func placeholders(values []string) (string, []any) {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return strings.TrimSuffix(strings.Repeat("?,", len(values)), ","), args
}
