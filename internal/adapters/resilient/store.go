// Package resilient guards a BlobStore with a circuit breaker. While the
// breaker is open the store reports itself unusable and the query cache
// degrades to pass-through.
package resilient

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"semcache/internal/ports"
)

// Config holds configuration for the circuit breaker
type Config struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// FailureThreshold is the failure ratio that trips the breaker once
	// MinRequests requests were seen
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultConfig returns a default configuration for the circuit breaker
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          15 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// Store wraps a BlobStore with a circuit breaker
type Store struct {
	inner  ports.BlobStore
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

// Ensure Store implements BlobStore
var _ ports.BlobStore = (*Store)(nil)

// Wrap guards inner with a breaker configured by cfg
func Wrap(inner ports.BlobStore, cfg Config, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{inner: inner, logger: logger}
	s.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("blob store circuit breaker changed state",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		},
	})
	return s
}

func (s *Store) Read(ctx context.Context, key string) (*ports.Container, error) {
	v, err := s.cb.Execute(func() (interface{}, error) {
		return s.inner.Read(ctx, key)
	})
	if err != nil {
		return nil, err
	}
	return v.(*ports.Container), nil
}

func (s *Store) Save(ctx context.Context, c *ports.Container) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.inner.Save(ctx, c)
	})
	return err
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.inner.Delete(ctx, key)
	})
	return err
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	v, err := s.cb.Execute(func() (interface{}, error) {
		return s.inner.Exists(ctx, key)
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// CanUse is false while the breaker is open or the inner store is down
func (s *Store) CanUse() bool {
	return s.cb.State() != gobreaker.StateOpen && s.inner.CanUse()
}

// State returns the breaker state, for diagnostics
func (s *Store) State() gobreaker.State {
	return s.cb.State()
}
