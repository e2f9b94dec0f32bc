// Package di assembles the adapters and services a semcache process runs
// with.
package di

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"semcache/internal/adapters/badgerstore"
	"semcache/internal/adapters/memory"
	"semcache/internal/adapters/resilient"
	"semcache/internal/adapters/sqlite"
	"semcache/internal/application/querycache"
	"semcache/internal/config"
	"semcache/internal/ports"
)

// Container holds the wired dependencies of one process
type Container struct {
	Config   *config.Config
	Logger   *zap.Logger
	Index    *sqlite.Index
	Data     *sqlite.DataStore
	Engine   *sqlite.Engine
	Blobs    *resilient.Store
	Cache    *querycache.Cache
	Registry *prometheus.Registry

	closers []func() error
}

// New opens every dependency described by cfg. The caller must Close the
// container.
func New(cfg *config.Config) (*Container, error) {
	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, err
	}
	c := &Container{Config: cfg, Logger: logger}

	c.Index, err = ProvideIndex(cfg, logger)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, c.Index.Close)

	c.Data = sqlite.NewDataStore(c.Index, logger.Named("datastore"))
	c.Engine = sqlite.NewEngine(c.Index, logger.Named("engine"))

	inner, closeStore, err := ProvideBlobStore(cfg, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	if closeStore != nil {
		c.closers = append(c.closers, closeStore)
	}
	c.Blobs = ProvideResilientStore(cfg, inner, logger)

	c.Registry = prometheus.NewRegistry()
	c.Cache, err = ProvideCache(cfg, c.Engine, c.Blobs, c.Registry, logger)
	if err != nil {
		c.Close()
		return nil, err
	}

	logger.Info("container ready",
		zap.String("wiki", cfg.Wiki.Path),
		zap.String("backend", cfg.Cache.Backend),
		zap.Bool("cache_enabled", cfg.Cache.Enabled))
	return c, nil
}

// Close releases resources in reverse order of acquisition
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	c.Logger.Sync()
	return errors.Join(errs...)
}

// ProvideLogger creates the process logger
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	return config.NewLogger(cfg.Log)
}

// ProvideIndex opens the SQLite index of the wiki
func ProvideIndex(cfg *config.Config, logger *zap.Logger) (*sqlite.Index, error) {
	var opts []sqlite.IndexOption
	if cfg.Wiki.DBPath != "" {
		opts = append(opts, sqlite.WithDatabasePath(cfg.Wiki.DBPath))
	}
	idx := sqlite.NewIndex(logger.Named("index"), opts...)
	if err := idx.Open(cfg.Wiki.Path); err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	return idx, nil
}

// ProvideBlobStore creates the durable store selected by the cache
// backend. The returned close function may be nil.
func ProvideBlobStore(cfg *config.Config, logger *zap.Logger) (ports.BlobStore, func() error, error) {
	switch cfg.Cache.Backend {
	case config.BackendBadger:
		store, err := badgerstore.Open(badgerstore.Config{
			Path:   cfg.Cache.BadgerPath,
			Logger: logger.Named("badger"),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open badger store: %w", err)
		}
		return store, store.Close, nil
	default:
		return memory.NewStore(cfg.Cache.MaxItems, logger.Named("memory")), nil, nil
	}
}

// ProvideResilientStore guards the durable store with a circuit breaker
func ProvideResilientStore(cfg *config.Config, inner ports.BlobStore, logger *zap.Logger) *resilient.Store {
	b := cfg.Cache.Breaker
	return resilient.Wrap(inner, resilient.Config{
		Name:             "blobstore-" + cfg.Cache.Backend,
		MaxRequests:      b.MaxRequests,
		Interval:         b.Interval,
		Timeout:          b.Timeout,
		FailureThreshold: b.FailureThreshold,
		MinRequests:      b.MinRequests,
	}, logger.Named("breaker"))
}

// ProvideCache creates the query result cache and registers its metrics
func ProvideCache(cfg *config.Config, engine ports.QueryEngine, store ports.BlobStore, reg prometheus.Registerer, logger *zap.Logger) (*querycache.Cache, error) {
	cache := querycache.New(engine, store, querycache.Options{
		Enabled:        cfg.Cache.Enabled,
		NonEmbeddedTTL: cfg.Cache.NonEmbeddedTTL,
		Modifier:       cfg.Cache.Modifier,
	}, logger)
	if reg != nil {
		if err := cache.Statistics().Register(reg); err != nil {
			return nil, fmt.Errorf("failed to register cache metrics: %w", err)
		}
	}
	return cache, nil
}
