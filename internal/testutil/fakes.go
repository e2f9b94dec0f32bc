// Package testutil holds in-memory fakes of the ports that record how
// they were called.
package testutil

import (
	"context"
	"errors"
	"slices"
	"sync"

	"semcache/internal/domain"
	"semcache/internal/ports"
)

var ErrInjected = errors.New("injected failure")

// Engine is a QueryEngine returning a fixed entity list
type Engine struct {
	mu       sync.Mutex
	Entities []domain.EntityID
	Err      error
	calls    int
}

var _ ports.QueryEngine = (*Engine)(nil)

// NewEngine creates an engine answering every query with entities
func NewEngine(entities ...domain.EntityID) *Engine {
	return &Engine{Entities: entities}
}

func (e *Engine) Evaluate(_ context.Context, q *domain.Query) (*domain.QueryResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.Err != nil {
		return nil, e.Err
	}
	ids := e.Entities
	total := len(ids)
	further := false
	if off := q.Offset(); off > 0 {
		ids = ids[min(off, len(ids)):]
	}
	if lim := q.Limit(); lim > 0 && lim < len(ids) {
		ids = ids[:lim]
		further = true
	}
	return domain.NewQueryResult(ids, total, further), nil
}

// Calls returns how often Evaluate ran
func (e *Engine) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// BlobStore is an in-memory BlobStore counting its calls
type BlobStore struct {
	mu          sync.Mutex
	data        map[string]ports.Container
	Unavailable bool
	FailReads   bool
	FailSaves   bool

	Reads, Saves, Deletes, ExistsCalls int
}

var _ ports.BlobStore = (*BlobStore)(nil)

func NewBlobStore() *BlobStore {
	return &BlobStore{data: make(map[string]ports.Container)}
}

func (s *BlobStore) Read(_ context.Context, key string) (*ports.Container, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Reads++
	if s.FailReads {
		return nil, ErrInjected
	}
	c, ok := s.data[key]
	if !ok {
		return &ports.Container{Key: key}, nil
	}
	return clone(c), nil
}

func (s *BlobStore) Save(_ context.Context, c *ports.Container) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Saves++
	if s.FailSaves {
		return ErrInjected
	}
	s.data[c.Key] = *clone(*c)
	return nil
}

func (s *BlobStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Deletes++
	delete(s.data, key)
	return nil
}

func (s *BlobStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ExistsCalls++
	_, ok := s.data[key]
	return ok, nil
}

func (s *BlobStore) CanUse() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.Unavailable
}

// Get returns the stored container without counting a read
func (s *BlobStore) Get(key string) (ports.Container, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.data[key]
	return c, ok
}

// Len returns the number of stored containers
func (s *BlobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

func clone(c ports.Container) *ports.Container {
	c.Results = slices.Clone(c.Results)
	c.Linked = slices.Clone(c.Linked)
	return &c
}

// Lookup records one PropertyValues call
type Lookup struct {
	Entity   domain.EntityID
	Property string
	Options  *domain.RequestOptions
}

// DataStore is an in-memory DataStore recording its calls
type DataStore struct {
	mu         sync.Mutex
	values     map[domain.EntityID]map[string][]domain.Value
	categories map[domain.EntityID][]domain.EntityID
	types      map[string]domain.ValueKind
	fields     map[domain.EntityID]domain.EntityFields

	Lookups        []Lookup
	CategoryCalls  int
	PreloadCalls   int
	PreloadedTotal int
}

var _ ports.DataStore = (*DataStore)(nil)

func NewDataStore() *DataStore {
	return &DataStore{
		values:     make(map[domain.EntityID]map[string][]domain.Value),
		categories: make(map[domain.EntityID][]domain.EntityID),
		types:      make(map[string]domain.ValueKind),
		fields:     make(map[domain.EntityID]domain.EntityFields),
	}
}

// Set stores the values of property on entity
func (s *DataStore) Set(entity domain.EntityID, property string, values ...domain.Value) *DataStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	property = domain.NormalizeTitle(property)
	if s.values[entity] == nil {
		s.values[entity] = make(map[string][]domain.Value)
	}
	s.values[entity][property] = values
	f := s.fields[entity]
	if !slices.Contains(f.Properties, property) {
		f.Properties = append(f.Properties, property)
	}
	s.fields[entity] = f
	return s
}

// SetCategories stores the direct categories of entity
func (s *DataStore) SetCategories(entity domain.EntityID, categories ...domain.EntityID) *DataStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[entity] = categories
	f := s.fields[entity]
	f.Categories = nil
	for _, c := range categories {
		f.Categories = append(f.Categories, c.Title)
	}
	s.fields[entity] = f
	return s
}

// Declare sets the type of property
func (s *DataStore) Declare(property string, kind domain.ValueKind) *DataStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.types[domain.NormalizeTitle(property)] = kind
	return s
}

func (s *DataStore) PropertyValues(_ context.Context, entity domain.EntityID, property string, opts *domain.RequestOptions) ([]domain.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Lookups = append(s.Lookups, Lookup{Entity: entity, Property: property, Options: opts})
	values := slices.Clone(s.values[entity][domain.NormalizeTitle(property)])
	return domain.ApplyRestrictions(values, opts), nil
}

func (s *DataStore) BulkPreload(_ context.Context, entities []domain.EntityID) (domain.FieldList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PreloadCalls++
	s.PreloadedTotal += len(entities)
	out := make(domain.FieldList, len(entities))
	for _, id := range entities {
		if f, ok := s.fields[id]; ok {
			out[id] = f
		}
	}
	return out, nil
}

func (s *DataStore) DirectCategories(_ context.Context, entity domain.EntityID) ([]domain.EntityID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CategoryCalls++
	return slices.Clone(s.categories[entity]), nil
}

func (s *DataStore) PropertyType(_ context.Context, property string) (domain.ValueKind, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.types[domain.NormalizeTitle(property)]
	return k, ok, nil
}

// LookupCount returns how many PropertyValues calls were made
func (s *DataStore) LookupCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Lookups)
}

// Hook is a CommitHook that queues callbacks until Commit
type Hook struct {
	queue []func(context.Context)
}

var _ ports.CommitHook = (*Hook)(nil)

func (h *Hook) OnCommit(fn func(context.Context)) {
	h.queue = append(h.queue, fn)
}

// Commit runs and clears the queued callbacks
func (h *Hook) Commit(ctx context.Context) {
	q := h.queue
	h.queue = nil
	for _, fn := range q {
		fn(ctx)
	}
}

// Pending returns the number of queued callbacks
func (h *Hook) Pending() int {
	return len(h.queue)
}

// Index is a PageIndex whose syncs report a fixed change set
type Index struct {
	Rebuild bool
	Changed []domain.EntityID
	Err     error

	FullSyncs        int
	IncrementalSyncs int
}

var _ ports.PageIndex = (*Index)(nil)

func (i *Index) Open(string) error      { return nil }
func (i *Index) Close() error           { return nil }
func (i *Index) NeedsFullRebuild() bool { return i.Rebuild }

func (i *Index) SyncFull() (*domain.SyncStats, error) {
	i.FullSyncs++
	return i.sync()
}

func (i *Index) SyncIncremental() (*domain.SyncStats, error) {
	i.IncrementalSyncs++
	return i.sync()
}

func (i *Index) sync() (*domain.SyncStats, error) {
	if i.Err != nil {
		return nil, i.Err
	}
	return &domain.SyncStats{PagesUpdated: len(i.Changed), Changed: slices.Clone(i.Changed)}, nil
}

func (i *Index) GetPage(string) (*domain.PageNode, error) { return nil, nil }

func (i *Index) PagePath(entity domain.EntityID) (string, error) {
	return entity.Title + ".md", nil
}
