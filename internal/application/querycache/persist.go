package querycache

import (
	"context"

	"go.uber.org/zap"

	"semcache/internal/application"
	"semcache/internal/ports"
)

// persist writes a computed result to the durable store. It runs after
// the request's unit of work committed. A result whose transient entry
// was invalidated in the meantime is not written.
func (c *Cache) persist(ctx context.Context, r *Request, key string, e *entry) {
	if !r.current(key, e) {
		c.logger.Debug("skipping persistence of dropped result", zap.String("key", key))
		return
	}
	if !c.store.CanUse() {
		c.logger.Warn("skipping persistence", zap.String("key", key), zap.Error(application.ErrStoreUnavailable))
		return
	}

	ids := e.result.Entities()
	container := &ports.Container{
		Key:      key,
		Results:  make([]string, len(ids)),
		Continue: e.result.HasFurtherResults(),
		Count:    e.result.Count(),
	}
	for i, id := range ids {
		container.Results[i] = id.String()
	}

	if e.context.IsZero() {
		container.TTL = c.opts.NonEmbeddedTTL
	} else if err := c.link(ctx, e, key); err != nil {
		c.logger.Warn("persist failed", zap.Error(&application.PersistError{Key: key, Reason: err}))
		return
	}

	if err := c.store.Save(ctx, container); err != nil {
		c.logger.Warn("persist failed", zap.Error(&application.PersistError{Key: key, Reason: err}))
		return
	}
	r.release(key, e)

	c.logger.Debug("persisted query result",
		zap.String("key", key),
		zap.Int("entities", len(ids)),
		zap.Stringer("context", e.context),
	)
}

// link appends key to the context entity's list of dependent queries.
// The link is written before the result so a stored result is always
// reachable from its context.
func (c *Cache) link(ctx context.Context, e *entry, key string) error {
	anchorKey := EntityKey(e.context, c.opts.Modifier)
	lock := c.anchorLock(anchorKey)
	lock.Lock()
	defer lock.Unlock()

	anchor, err := c.store.Read(ctx, anchorKey)
	if err != nil {
		return err
	}
	anchor.Key = anchorKey
	anchor.TTL = 0
	anchor.AppendLinked(key)
	return c.store.Save(ctx, anchor)
}
