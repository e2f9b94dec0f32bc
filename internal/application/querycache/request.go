package querycache

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"semcache/internal/domain"
	"semcache/internal/ports"
)

// entry is a computed result not yet known to be durably persisted
type entry struct {
	result  *domain.QueryResult
	context domain.EntityID
}

// Request is the cache scope of one logical transaction. Its transient
// entries answer repeated lookups before the deferred durable write.
type Request struct {
	cache *Cache
	hook  ports.CommitHook

	mu        sync.Mutex
	transient map[string]*entry
	ended     bool
}

// GetResult returns the result of q, from cache when possible
func (r *Request) GetResult(ctx context.Context, q *domain.Query) (*domain.QueryResult, error) {
	c := r.cache
	if c.engine == nil {
		return c.evaluate(ctx, q)
	}

	if reason := c.noCacheReason(q); reason != "" {
		c.stats.noCache(reason)
		return c.evaluate(ctx, q)
	}

	key := QueryKey(q, c.opts.Modifier)
	ctx, span := c.tracer.Start(ctx, "querycache.GetResult",
		trace.WithAttributes(
			attribute.String("key", key),
			attribute.Bool("embedded", q.IsEmbedded()),
		))
	defer span.End()

	if e := r.lookup(key); e != nil {
		c.stats.transientHit(q.IsEmbedded())
		span.AddEvent("transient_hit")
		return e.result.Clone(true), nil
	}

	if err := c.retryPending(ctx); err != nil {
		// a purge still outstanding may cover this key
		c.logger.Warn("deferred purge failed", zap.Error(err))
		span.RecordError(err)
		c.stats.noCache(NoCacheByMisc)
		return c.evaluate(ctx, q)
	}

	container, err := c.store.Read(ctx, key)
	if err != nil {
		// degrade to pass-through; nothing is cached for this lookup
		c.logger.Warn("durable read failed", zap.String("key", key), zap.Error(err))
		span.RecordError(err)
		c.stats.noCache(NoCacheByMisc)
		return c.evaluate(ctx, q)
	}
	if container.HasResults() {
		c.stats.durableHit(q.IsEmbedded(), q.ProcessingContext())
		span.AddEvent("durable_hit")
		return r.fromContainer(container), nil
	}

	start := time.Now()
	res, err := c.evaluate(ctx, q)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	c.stats.miss(time.Since(start))
	span.AddEvent("miss")

	e := &entry{result: res.Clone(false), context: q.ContextEntity()}
	r.store(key, e)
	r.schedule(key, e)

	return res, nil
}

// End clears the transient entries. It must run when the transaction
// finishes, including on error paths.
func (r *Request) End() {
	r.mu.Lock()
	r.transient = make(map[string]*entry)
	r.ended = true
	r.mu.Unlock()
	r.cache.unregister(r)
}

// Transient returns the number of results awaiting durable persistence
func (r *Request) Transient() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.transient)
}

func (r *Request) lookup(key string) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transient[key]
}

func (r *Request) store(key string, e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.ended {
		r.transient[key] = e
	}
}

// current reports whether e is still the live entry for key
func (r *Request) current(key string, e *entry) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transient[key] == e
}

// release removes e once it is durably persisted
func (r *Request) release(key string, e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.transient[key] == e {
		delete(r.transient, key)
	}
}

func (r *Request) drop(match func(key string, e *entry) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for k, e := range r.transient {
		if match(k, e) {
			delete(r.transient, k)
			n++
		}
	}
	return n
}

// schedule enqueues persistence of e after the unit of work commits
func (r *Request) schedule(key string, e *entry) {
	task := func(ctx context.Context) {
		r.cache.persist(ctx, r, key, e)
	}
	if r.hook == nil {
		task(context.Background())
		return
	}
	r.hook.OnCommit(task)
}

func (r *Request) fromContainer(container *ports.Container) *domain.QueryResult {
	ids := make([]domain.EntityID, 0, len(container.Results))
	for _, s := range container.Results {
		id, err := domain.ParseEntityID(s)
		if err != nil {
			r.cache.logger.Warn("skipping unreadable cached entity",
				zap.String("key", container.Key), zap.String("entity", s))
			continue
		}
		ids = append(ids, id)
	}
	return domain.NewQueryResult(ids, container.Count, container.Continue).Clone(true)
}
