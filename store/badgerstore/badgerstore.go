// Package badgerstore persists the translation cache snapshot in an embedded
// BadgerDB database, for single-node deployments without Redis.
package badgerstore

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/orbitsmeet/livetl/cache"
)

// Store is a BadgerDB-backed cache.Store.
type Store struct {
	db *badger.DB
}

// Config holds configuration for BadgerDB.
type Config struct {
	DataDir  string // Directory for data storage
	InMemory bool   // Keep everything in memory; DataDir is ignored
}

// New opens (or creates) a BadgerDB database.
func New(cfg Config) (*Store, error) {
	var opts badger.Options
	switch {
	case cfg.InMemory:
		opts = badger.DefaultOptions("").WithInMemory(true)
	case cfg.DataDir != "":
		opts = badger.DefaultOptions(cfg.DataDir)
	default:
		return nil, errors.New("badgerstore: DataDir is required")
	}
	opts = opts.WithLogger(nil) // badger's own logging is too chatty

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	return &Store{db: db}, nil
}

// Load implements cache.Store.
func (s *Store) Load(key string) ([]byte, bool, error) {
	var blob []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		blob, err = item.ValueCopy(nil)
		return err
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return blob, true, nil
}

// Save implements cache.Store.
func (s *Store) Save(key string, blob []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), blob)
	})
}

// Remove implements cache.Store.
func (s *Store) Remove(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// Close releases all BadgerDB resources.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RunGC reclaims value log space left behind by overwritten snapshots.
// Every cache mutation rewrites the snapshot, so call this periodically.
func (s *Store) RunGC(discardRatio float64) error {
	err := s.db.RunValueLogGC(discardRatio)
	if errors.Is(err, badger.ErrNoRewrite) {
		return nil
	}
	return err
}

var _ cache.Store = (*Store)(nil)
