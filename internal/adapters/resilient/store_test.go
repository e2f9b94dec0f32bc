package resilient

import (
	"context"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semcache/internal/ports"
	"semcache/internal/testutil"
)

func TestStore_PassesThrough(t *testing.T) {
	inner := testutil.NewBlobStore()
	s := Wrap(inner, DefaultConfig("test"), nil)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, &ports.Container{Key: "k", Results: []string{"Paris"}}))
	c, err := s.Read(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []string{"Paris"}, c.Results)

	ok, err := s.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, s.Delete(ctx, "k"))
	assert.True(t, s.CanUse())
}

func TestStore_OpensAfterFailures(t *testing.T) {
	inner := testutil.NewBlobStore()
	inner.FailReads = true
	cfg := DefaultConfig("test")
	cfg.MinRequests = 2
	cfg.FailureThreshold = 0.5
	cfg.Timeout = time.Hour
	s := Wrap(inner, cfg, nil)
	ctx := context.Background()

	for range 2 {
		_, err := s.Read(ctx, "k")
		assert.ErrorIs(t, err, testutil.ErrInjected)
	}

	assert.Equal(t, gobreaker.StateOpen, s.State())
	assert.False(t, s.CanUse())

	_, err := s.Read(ctx, "k")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, inner.Reads, "open breaker must not reach the store")
}

func TestStore_ReflectsInnerAvailability(t *testing.T) {
	inner := testutil.NewBlobStore()
	inner.Unavailable = true
	assert.False(t, Wrap(inner, DefaultConfig("test"), nil).CanUse())
}
