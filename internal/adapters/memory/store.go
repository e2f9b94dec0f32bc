// Package memory provides an in-process BlobStore with LRU eviction and
// per-container TTL. Containers holding linked keys are never evicted:
// they are the only route to invalidating the results they list.
package memory

import (
	"container/list"
	"context"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"semcache/internal/ports"
)

// Store is a bounded in-memory BlobStore. It is safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	items    map[string]*item
	lruList  *list.List
	maxItems int
	now      func() time.Time

	evictions int64
	logger    *zap.Logger
}

// item represents a single stored container
type item struct {
	container  ports.Container
	expiry     time.Time // zero means no expiry
	lruElement *list.Element
}

// Ensure Store implements BlobStore
var _ ports.BlobStore = (*Store)(nil)

// NewStore creates a store holding at most maxItems containers
func NewStore(maxItems int, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxItems <= 0 {
		maxItems = 10000
	}
	return &Store{
		items:    make(map[string]*item),
		lruList:  list.New(),
		maxItems: maxItems,
		now:      time.Now,
		logger:   logger,
	}
}

// Read returns the container for key, or an empty one
func (s *Store) Read(_ context.Context, key string) (*ports.Container, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.live(key)
	if !ok {
		return &ports.Container{Key: key}, nil
	}
	s.lruList.MoveToFront(it.lruElement)
	return copyContainer(it.container), nil
}

// Save stores c, replacing any previous container with the same key
func (s *Store) Save(_ context.Context, c *ports.Container) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.items[c.Key]; ok {
		s.remove(existing)
	}
	for len(s.items) >= s.maxItems {
		victim := s.evictable()
		if victim == nil {
			break
		}
		s.remove(victim)
		s.evictions++
	}

	it := &item{container: *copyContainer(*c)}
	if c.TTL > 0 {
		it.expiry = s.now().Add(c.TTL)
	}
	it.lruElement = s.lruList.PushFront(it)
	s.items[c.Key] = it
	return nil
}

// Delete removes the container for key
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if it, ok := s.items[key]; ok {
		s.remove(it)
	}
	return nil
}

// Exists reports whether an unexpired container is stored for key
func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.live(key)
	return ok, nil
}

// CanUse always reports true
func (s *Store) CanUse() bool {
	return true
}

// Len returns the number of stored containers, expired ones included
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Evictions returns how many containers were dropped to respect the bound
func (s *Store) Evictions() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evictions
}

// live returns the item for key unless it expired (must be called with lock held)
func (s *Store) live(key string) (*item, bool) {
	it, ok := s.items[key]
	if !ok {
		return nil, false
	}
	if !it.expiry.IsZero() && s.now().After(it.expiry) {
		s.remove(it)
		s.logger.Debug("container expired", zap.String("key", key))
		return nil, false
	}
	return it, true
}

// evictable returns the least recently used container without linked
// keys, or nil when every container is pinned (must be called with lock held)
func (s *Store) evictable() *item {
	for el := s.lruList.Back(); el != nil; el = el.Prev() {
		if it := el.Value.(*item); len(it.container.Linked) == 0 {
			return it
		}
	}
	return nil
}

// remove drops an item (must be called with lock held)
func (s *Store) remove(it *item) {
	if it.lruElement != nil {
		s.lruList.Remove(it.lruElement)
	}
	delete(s.items, it.container.Key)
}

func copyContainer(c ports.Container) *ports.Container {
	c.Results = slices.Clone(c.Results)
	c.Linked = slices.Clone(c.Linked)
	return &c
}
