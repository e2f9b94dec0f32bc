// Package badgerstore provides a durable BlobStore on top of BadgerDB. Badger's
// native entry TTL implements container expiry.
package badgerstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"semcache/internal/ports"
)

// Config configures the store
type Config struct {
	Path       string
	InMemory   bool
	SyncWrites bool
	Logger     *zap.Logger
}

// Store implements ports.BlobStore on a badger database
type Store struct {
	db     *badger.DB
	logger *zap.Logger
}

// Ensure Store implements BlobStore
var _ ports.BlobStore = (*Store)(nil)

// Open opens (or creates) the database described by cfg
func Open(cfg Config) (*Store, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Path == "" && !cfg.InMemory {
		return nil, errors.New("badger store needs a path or in-memory mode")
	}

	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil
	opts.SyncWrites = cfg.SyncWrites

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store: %w", err)
	}
	return &Store{db: db, logger: cfg.Logger}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Read returns the container for key, or an empty one
func (s *Store) Read(_ context.Context, key string) (*ports.Container, error) {
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		it, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		raw, err = it.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return &ports.Container{Key: key}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	c, err := decodeContainer(raw)
	if err != nil {
		// an unreadable entry is treated as absent
		s.logger.Warn("discarding corrupt container", zap.String("key", key), zap.Error(err))
		return &ports.Container{Key: key}, nil
	}
	c.Key = key
	return c, nil
}

// Save writes c, applying its TTL
func (s *Store) Save(_ context.Context, c *ports.Container) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(c.Key), encodeContainer(c))
		if c.TTL > 0 {
			e = e.WithTTL(c.TTL)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("save %s: %w", c.Key, err)
	}
	return nil
}

// Delete removes key
func (s *Store) Delete(_ context.Context, key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Exists reports whether an unexpired entry is stored for key
func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", key, err)
	}
	return true, nil
}

// CanUse reports whether the database is open
func (s *Store) CanUse() bool {
	return !s.db.IsClosed()
}
