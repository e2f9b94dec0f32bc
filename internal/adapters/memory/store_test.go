package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semcache/internal/ports"
)

func TestStore_ReadMissingIsEmpty(t *testing.T) {
	s := NewStore(10, nil)
	c, err := s.Read(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "k", c.Key)
	assert.False(t, c.HasResults())
}

func TestStore_SaveReadDelete(t *testing.T) {
	s := NewStore(10, nil)
	ctx := context.Background()

	in := &ports.Container{Key: "k", Results: []string{"Paris"}, Count: 1, Continue: true}
	require.NoError(t, s.Save(ctx, in))
	in.Results[0] = "mutated"

	out, err := s.Read(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []string{"Paris"}, out.Results)
	assert.True(t, out.Continue)

	ok, err := s.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Delete(ctx, "k"))
	ok, _ = s.Exists(ctx, "k")
	assert.False(t, ok)
}

func TestStore_TTL(t *testing.T) {
	s := NewStore(10, nil)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, &ports.Container{Key: "short", Results: []string{"a"}, TTL: time.Minute}))
	require.NoError(t, s.Save(ctx, &ports.Container{Key: "forever", Results: []string{"b"}}))

	now = now.Add(2 * time.Minute)

	c, err := s.Read(ctx, "short")
	require.NoError(t, err)
	assert.False(t, c.HasResults())

	c, err = s.Read(ctx, "forever")
	require.NoError(t, err)
	assert.True(t, c.HasResults())
}

func TestStore_EvictsLeastRecentlyUsed(t *testing.T) {
	s := NewStore(2, nil)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, &ports.Container{Key: "a", Results: []string{"1"}}))
	require.NoError(t, s.Save(ctx, &ports.Container{Key: "b", Results: []string{"2"}}))
	_, _ = s.Read(ctx, "a")
	require.NoError(t, s.Save(ctx, &ports.Container{Key: "c", Results: []string{"3"}}))

	ok, _ := s.Exists(ctx, "b")
	assert.False(t, ok)
	ok, _ = s.Exists(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, int64(1), s.Evictions())
}

func TestStore_NeverEvictsLinkedContainers(t *testing.T) {
	s := NewStore(2, nil)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, &ports.Container{Key: "anchor", Linked: []string{"q1"}}))
	require.NoError(t, s.Save(ctx, &ports.Container{Key: "q1", Results: []string{"Paris"}}))
	_, _ = s.Read(ctx, "q1")
	require.NoError(t, s.Save(ctx, &ports.Container{Key: "q2", Results: []string{"Lyon"}}))
	require.NoError(t, s.Save(ctx, &ports.Container{Key: "q3", Results: []string{"Nice"}}))

	anchor, err := s.Read(ctx, "anchor")
	require.NoError(t, err)
	assert.Equal(t, []string{"q1"}, anchor.Linked)
	assert.Equal(t, int64(2), s.Evictions())

	t.Run("only pinned containers left", func(t *testing.T) {
		s := NewStore(1, nil)
		require.NoError(t, s.Save(ctx, &ports.Container{Key: "a", Linked: []string{"x"}}))
		require.NoError(t, s.Save(ctx, &ports.Container{Key: "b", Linked: []string{"y"}}))
		assert.Equal(t, 2, s.Len())
		assert.Zero(t, s.Evictions())
	})
}
