package ports

import (
	"context"
	"time"
)

// Container is a durable cache record. Results holds canonical entity
// strings; Linked is the append-only list of dependent cache keys used
// for cascading invalidation.
type Container struct {
	Key      string
	Results  []string
	Continue bool
	Count    int
	Linked   []string
	TTL      time.Duration // zero means no expiry
}

// HasResults reports whether the container carries a populated result list
func (c *Container) HasResults() bool {
	return c != nil && len(c.Results) > 0
}

// AppendLinked adds key to the linked list unless already present
func (c *Container) AppendLinked(key string) {
	for _, k := range c.Linked {
		if k == key {
			return
		}
	}
	c.Linked = append(c.Linked, key)
}

// BlobStore is the durable, cross-request key/value store of cache
// containers. Reading a missing key returns an empty container.
type BlobStore interface {
	Read(ctx context.Context, key string) (*Container, error)
	Save(ctx context.Context, c *Container) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)

	// CanUse reports whether the store is currently available
	CanUse() bool
}
