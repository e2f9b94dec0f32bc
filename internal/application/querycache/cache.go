// Package querycache answers structured queries through a two level
// cache: a transient per-request map of computed results and a durable,
// versioned blob store written after the request commits.
package querycache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"semcache/internal/application"
	"semcache/internal/domain"
	"semcache/internal/ports"
)

// Options configures a Cache
type Options struct {
	Enabled bool
	// NonEmbeddedTTL bounds the lifetime of results of queries without a
	// context entity. A non-positive TTL disables caching of such queries.
	NonEmbeddedTTL time.Duration
	// Modifier is mixed into every key; changing it invalidates all entries
	Modifier string
}

// Cache is the query result cache shared by all requests of a process
type Cache struct {
	engine ports.QueryEngine
	store  ports.BlobStore
	opts   Options
	logger *zap.Logger
	stats  *Stats
	tracer trace.Tracer

	mu       sync.Mutex
	requests map[*Request]struct{}

	// entity keys whose durable purge failed, retried once the store is back
	pendingMu sync.Mutex
	pending   map[string]struct{}

	// serialize read-modify-write of anchor containers
	anchors [32]sync.Mutex
}

// New creates a new Cache
func New(engine ports.QueryEngine, store ports.BlobStore, opts Options, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		engine:   engine,
		store:    store,
		opts:     opts,
		logger:   logger.Named("querycache"),
		stats:    NewStats(),
		tracer:   otel.Tracer("semcache.querycache"),
		requests: make(map[*Request]struct{}),
		pending:  make(map[string]struct{}),
	}
}

// Begin opens a request scope. Results computed within it are persisted
// through hook once the caller's unit of work commits. A nil hook
// persists immediately.
func (c *Cache) Begin(hook ports.CommitHook) *Request {
	r := &Request{
		cache:     c,
		hook:      hook,
		transient: make(map[string]*entry),
	}
	c.mu.Lock()
	c.requests[r] = struct{}{}
	c.mu.Unlock()
	return r
}

// Stats returns the current statistics
func (c *Cache) Stats() StatsSnapshot {
	return c.stats.Snapshot()
}

// Statistics exposes the accumulator, e.g. to register its collectors
func (c *Cache) Statistics() *Stats {
	return c.stats
}

// Invalidate drops every cached result computed while embedded in one of
// entities, in all live requests and in the durable store.
func (c *Cache) Invalidate(ctx context.Context, entities []domain.EntityID, reason string) error {
	ctx, span := c.tracer.Start(ctx, "querycache.Invalidate",
		trace.WithAttributes(
			attribute.Int("entities", len(entities)),
			attribute.String("reason", reason),
		))
	defer span.End()

	var firstErr error
	if err := c.retryPending(ctx); err != nil {
		firstErr = err
	}
	for _, id := range entities {
		if id.IsZero() {
			continue
		}
		key := EntityKey(id, c.opts.Modifier)
		dropped := c.dropTransient(key, id)

		if err := c.deleteDurable(ctx, key); err != nil {
			c.deferPurge(key)
			c.logger.Warn("durable invalidation failed",
				zap.Stringer("entity", id),
				zap.String("reason", reason),
				zap.Error(err),
			)
			if firstErr == nil {
				firstErr = err
			}
		}

		c.stats.deleted(reason)
		c.logger.Debug("invalidated",
			zap.Stringer("entity", id),
			zap.String("reason", reason),
			zap.Int("transient", dropped),
		)
	}
	if firstErr != nil {
		span.RecordError(firstErr)
	}
	return firstErr
}

// dropTransient removes, from every live request, the entry keyed by the
// entity itself and every entry embedded in the entity
func (c *Cache) dropTransient(key string, id domain.EntityID) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := 0
	for r := range c.requests {
		dropped += r.drop(func(k string, e *entry) bool {
			return k == key || e.context == id
		})
	}
	return dropped
}

// deleteDurable removes every query key linked from the entity's
// container, then the container itself
func (c *Cache) deleteDurable(ctx context.Context, key string) error {
	if c.store == nil {
		return nil
	}
	if !c.store.CanUse() {
		return fmt.Errorf("delete %s: %w", key, application.ErrStoreUnavailable)
	}

	lock := c.anchorLock(key)
	lock.Lock()
	defer lock.Unlock()

	container, err := c.store.Read(ctx, key)
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	for _, linked := range container.Linked {
		if err := c.store.Delete(ctx, linked); err != nil {
			return fmt.Errorf("delete %s: %w", linked, err)
		}
	}
	if err := c.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (c *Cache) deferPurge(key string) {
	c.pendingMu.Lock()
	c.pending[key] = struct{}{}
	c.pendingMu.Unlock()
}

// retryPending replays durable purges that failed earlier. Keys stay
// pending until their purge succeeds.
func (c *Cache) retryPending(ctx context.Context) error {
	c.pendingMu.Lock()
	keys := make([]string, 0, len(c.pending))
	for k := range c.pending {
		keys = append(keys, k)
	}
	c.pendingMu.Unlock()
	if len(keys) == 0 || c.store == nil || !c.store.CanUse() {
		return nil
	}

	var firstErr error
	for _, key := range keys {
		if err := c.deleteDurable(ctx, key); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		c.pendingMu.Lock()
		delete(c.pending, key)
		c.pendingMu.Unlock()
		c.logger.Debug("replayed deferred purge", zap.String("key", key))
	}
	return firstErr
}

// Pending returns the number of entities whose durable purge awaits a retry
func (c *Cache) Pending() int {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	return len(c.pending)
}

func (c *Cache) anchorLock(key string) *sync.Mutex {
	return &c.anchors[xxhash.Sum64String(key)%uint64(len(c.anchors))]
}

// noCacheReason classifies why q must bypass the cache; "" means it is
// cacheable
func (c *Cache) noCacheReason(q *domain.Query) string {
	switch {
	case !c.opts.Enabled:
		return NoCacheByDisabled
	case q.Limit() < 1:
		return NoCacheByLimit
	case q.NoCache():
		return NoCacheByOption
	case !q.IsEmbedded() && c.opts.NonEmbeddedTTL <= 0:
		return NoCacheByMisc
	case c.store == nil || !c.store.CanUse():
		return NoCacheByMisc
	default:
		return ""
	}
}

func (c *Cache) evaluate(ctx context.Context, q *domain.Query) (*domain.QueryResult, error) {
	if c.engine == nil {
		return nil, fmt.Errorf("get result: %w", application.ErrEngineNotConfigured)
	}
	res, err := c.engine.Evaluate(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("evaluate query: %w", err)
	}
	return res, nil
}

func (c *Cache) unregister(r *Request) {
	c.mu.Lock()
	delete(c.requests, r)
	c.mu.Unlock()
}
