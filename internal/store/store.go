// Package store persists the library document: source selection, per-item
// play history, and the visitor set. Backed by BadgerDB with synchronous
// writes so every mutation is immediately durable.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// Store wraps a Badger database instance.
//
// Read-modify-write sequences (play count increments, progress max, visitor
// adds) are serialized through mu so concurrent requests never lose updates.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
	mu     sync.Mutex
}

// New opens (or creates) the store at the given directory.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil      // Badger's own logging is noisy; slog covers us
	opts.SyncWrites = true // every mutation must survive a crash

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	if logger != nil {
		logger.Info("library store opened", "path", path)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close gracefully closes the database.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("closing library store")
	}
	return s.db.Close()
}

// get reads a single key into dst via decode. Returns found=false when the
// key does not exist.
func (s *Store) get(ctx context.Context, key string, decode func([]byte) error) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	found := true
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err == badger.ErrKeyNotFound {
			found = false
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(decode)
	})
	return found && err == nil, err
}

// set writes a single key.
func (s *Store) set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

// delete removes a single key; missing keys are not an error.
func (s *Store) delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}
