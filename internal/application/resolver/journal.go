package resolver

import (
	"slices"
	"sync"

	"semcache/internal/domain"
)

// Journal observes the data store lookups made while resolving fields
type Journal interface {
	RecordLookup(entity domain.EntityID, property string)
	RecordCategories(entity domain.EntityID)
}

// categoriesKey is the pseudo property recorded for category lookups
const categoriesKey = "_INST"

// DependencyJournal accumulates the (entity, property) pairs a result
// display depends on
type DependencyJournal struct {
	mu      sync.Mutex
	entries map[domain.EntityID]map[string]struct{}
}

var _ Journal = (*DependencyJournal)(nil)

func NewDependencyJournal() *DependencyJournal {
	return &DependencyJournal{entries: make(map[domain.EntityID]map[string]struct{})}
}

func (j *DependencyJournal) RecordLookup(entity domain.EntityID, property string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	props, ok := j.entries[entity]
	if !ok {
		props = make(map[string]struct{})
		j.entries[entity] = props
	}
	props[property] = struct{}{}
}

func (j *DependencyJournal) RecordCategories(entity domain.EntityID) {
	j.RecordLookup(entity, categoriesKey)
}

// Entities returns the recorded entities in canonical order
func (j *DependencyJournal) Entities() []domain.EntityID {
	j.mu.Lock()
	defer j.mu.Unlock()
	ids := make([]domain.EntityID, 0, len(j.entries))
	for id := range j.entries {
		ids = append(ids, id)
	}
	domain.SortEntities(ids)
	return ids
}

// Properties returns the properties looked up on entity, sorted
func (j *DependencyJournal) Properties(entity domain.EntityID) []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	props := make([]string, 0, len(j.entries[entity]))
	for p := range j.entries[entity] {
		props = append(props, p)
	}
	slices.Sort(props)
	return props
}

// Len returns the number of recorded (entity, property) pairs
func (j *DependencyJournal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	n := 0
	for _, props := range j.entries {
		n += len(props)
	}
	return n
}
