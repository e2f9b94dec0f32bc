package unitofwork

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCommit_RunsInOrder(t *testing.T) {
	u := New(zap.NewNop())
	var order []int

	u.OnCommit(func(context.Context) { order = append(order, 1) })
	u.OnCommit(func(context.Context) {
		order = append(order, 2)
		u.OnCommit(func(context.Context) { order = append(order, 3) })
	})

	assert.Equal(t, 2, u.Pending())
	assert.Empty(t, order, "callbacks must not run before commit")

	require.NoError(t, u.Commit(context.Background()))
	assert.Equal(t, []int{1, 2, 3}, order)
	assert.ErrorIs(t, u.Commit(context.Background()), ErrNotActive)
}

func TestCommit_PanicDoesNotStopOthers(t *testing.T) {
	u := New(nil)
	ran := false
	u.OnCommit(func(context.Context) { panic("boom") })
	u.OnCommit(func(context.Context) { ran = true })

	require.NoError(t, u.Commit(context.Background()))
	assert.True(t, ran)
}

func TestRollback_DiscardsCallbacks(t *testing.T) {
	u := New(nil)
	ran := false
	u.OnCommit(func(context.Context) { ran = true })

	require.NoError(t, u.Rollback())
	assert.ErrorIs(t, u.Commit(context.Background()), ErrNotActive)
	assert.False(t, ran)

	u.OnCommit(func(context.Context) { ran = true })
	assert.Zero(t, u.Pending())
	assert.NotEmpty(t, u.ID())
}
