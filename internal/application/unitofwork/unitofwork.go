// Package unitofwork provides the commit boundary of one logical request.
// Work registered with OnCommit runs only after the primary work of the
// request has finished and Commit is called.
package unitofwork

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"semcache/internal/ports"
)

var (
	ErrNotActive = errors.New("unit of work is not active")
)

// UnitOfWork collects post-commit callbacks for one request
type UnitOfWork struct {
	id     string
	logger *zap.Logger

	mu       sync.Mutex
	pending  []func(ctx context.Context)
	finished bool
}

// Ensure UnitOfWork implements CommitHook
var _ ports.CommitHook = (*UnitOfWork)(nil)

// New creates a new unit of work
func New(logger *zap.Logger) *UnitOfWork {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewString()
	return &UnitOfWork{
		id:     id,
		logger: logger.With(zap.String("unit_of_work", id)),
	}
}

// ID returns the unit's correlation id
func (u *UnitOfWork) ID() string {
	return u.id
}

// OnCommit registers fn to run after Commit. Callbacks registered after
// the unit finished are dropped.
func (u *UnitOfWork) OnCommit(fn func(ctx context.Context)) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.finished {
		u.logger.Warn("callback registered after unit of work finished")
		return
	}
	u.pending = append(u.pending, fn)
}

// Pending returns the number of callbacks waiting for Commit
func (u *UnitOfWork) Pending() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.pending)
}

// Commit runs the registered callbacks in registration order. Callbacks
// registered while committing run in the same pass.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	u.mu.Lock()
	if u.finished {
		u.mu.Unlock()
		return ErrNotActive
	}
	u.mu.Unlock()

	ran := 0
	for {
		u.mu.Lock()
		if len(u.pending) == 0 {
			u.finished = true
			u.mu.Unlock()
			break
		}
		fn := u.pending[0]
		u.pending = u.pending[1:]
		u.mu.Unlock()

		u.run(ctx, fn)
		ran++
	}

	u.logger.Debug("unit of work committed", zap.Int("callbacks", ran))
	return nil
}

// Rollback discards the registered callbacks
func (u *UnitOfWork) Rollback() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.finished {
		return ErrNotActive
	}
	u.logger.Debug("unit of work rolled back", zap.Int("discarded", len(u.pending)))
	u.pending = nil
	u.finished = true
	return nil
}

// run executes one callback, logging a panic instead of propagating it
// so the remaining callbacks still run
func (u *UnitOfWork) run(ctx context.Context, fn func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			u.logger.Error("post-commit callback panicked", zap.Any("panic", r))
		}
	}()
	fn(ctx)
}
