// Package store persists the durable triage state: decision records,
// processed markers, and (optionally) the skip set. Everything else the
// engine tracks is session-scoped and lives in memory.
package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"

	domainerrors "github.com/listenupapp/listenup-triage/internal/errors"
)

// Key prefixes. One keyspace, three buckets.
const (
	decisionPrefix  = "decision:"
	processedPrefix = "processed:"
	skipPrefix      = "skip:"
)

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// New creates a new Store instance at the given database path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Decisions are user intent; never lose one to a crash
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	if logger != nil {
		logger.Info("triage database opened", "path", path)
	}

	return &Store{db: db, logger: logger}, nil
}

// NewInMemory creates a Store backed by an in-memory Badger instance.
// Used by tests and by callers that want a throwaway session.
func NewInMemory(logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory badger db: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("closing triage database")
	}
	return s.db.Close()
}

// Helper methods for database operations.

// get retrieves a value by key. Returns the domain not-found error so callers
// can errors.Is against it without importing badger.
func (s *Store) get(key string, dest any) error {
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dest)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domainerrors.NotFoundf("key %s not found", key)
	}
	return err
}

// set stores a value by key.
func (s *Store) set(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// delete removes a key from the database. Idempotent.
func (s *Store) delete(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// exists checks if a key exists.
func (s *Store) exists(key string) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		return err
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// listPrefix iterates all values under a prefix, unmarshaling each into a
// fresh T and appending to the returned slice. Keys come back in byte order,
// which for our buckets means ordered by book ID / group key.
func listPrefix[T any](ctx context.Context, s *Store, prefix string) ([]*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []*T
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		opts.PrefetchValues = true

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var entity T
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entity)
			})
			if err != nil {
				return fmt.Errorf("unmarshal %s: %w", it.Item().Key(), err)
			}
			out = append(out, &entity)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// keySuffix strips the bucket prefix off a raw key.
func keySuffix(key, prefix string) string {
	return strings.TrimPrefix(key, prefix)
}
