// Package facets summarizes a result set into per-label counts for
// faceted navigation.
package facets

import (
	"context"
	"fmt"
	"sort"

	"github.com/RoaringBitmap/roaring"

	"semcache/internal/domain"
	"semcache/internal/ports"
)

// FilterMap computes the facet counts of one result set. The counts are
// derived from a single bulk preload and memoized.
type FilterMap struct {
	store    ports.DataStore
	entities []domain.EntityID

	computed bool
	counts   domain.FacetCountMap
	err      error
}

// NewFilterMap creates a FilterMap over the entities of result
func NewFilterMap(store ports.DataStore, result *domain.QueryResult) *FilterMap {
	var entities []domain.EntityID
	if result != nil {
		entities = result.Entities()
	}
	return &FilterMap{store: store, entities: entities}
}

// Counts returns, per facet type, how many result entities carry each
// label
func (m *FilterMap) Counts(ctx context.Context) (domain.FacetCountMap, error) {
	if m.computed {
		return m.counts, m.err
	}
	m.computed = true
	m.counts, m.err = m.compute(ctx)
	return m.counts, m.err
}

func (m *FilterMap) compute(ctx context.Context) (domain.FacetCountMap, error) {
	counts := domain.FacetCountMap{}
	if len(m.entities) == 0 {
		return counts, nil
	}

	fields, err := m.store.BulkPreload(ctx, m.entities)
	if err != nil {
		return nil, fmt.Errorf("preload facets: %w", err)
	}

	// rows are numbered per distinct entity so repeated rows count once
	rows := make(map[domain.EntityID]uint32, len(m.entities))
	props := make(map[string]*roaring.Bitmap)
	cats := make(map[string]*roaring.Bitmap)
	for _, id := range m.entities {
		if _, seen := rows[id]; seen {
			continue
		}
		row := uint32(len(rows))
		rows[id] = row

		f, ok := fields[id]
		if !ok {
			continue
		}
		for _, p := range f.Properties {
			addTo(props, p, row)
		}
		for _, c := range f.Categories {
			addTo(cats, c, row)
		}
	}

	counts[domain.FacetProperties] = cardinalities(props)
	counts[domain.FacetCategories] = cardinalities(cats)
	return counts, nil
}

func addTo(sets map[string]*roaring.Bitmap, label string, row uint32) {
	bm, ok := sets[label]
	if !ok {
		bm = roaring.New()
		sets[label] = bm
	}
	bm.Add(row)
}

func cardinalities(sets map[string]*roaring.Bitmap) map[string]int {
	out := make(map[string]int, len(sets))
	for label, bm := range sets {
		out[label] = int(bm.GetCardinality())
	}
	return out
}

// Entry is one label and its count
type Entry struct {
	Label string
	Count int
}

// Sorted returns the labels of one facet by descending count, then label
func Sorted(counts map[string]int) []Entry {
	entries := make([]Entry, 0, len(counts))
	for label, n := range counts {
		entries = append(entries, Entry{Label: label, Count: n})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Label < entries[j].Label
	})
	return entries
}
