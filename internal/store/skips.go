package store

import (
	"context"

	"github.com/dgraph-io/badger/v4"
)

// The skip set is session-scoped by default and lives in the engine. These
// methods back the optional persist-skips mode, where the set survives
// restarts. Values are empty; the key is the whole fact.

// AddSkip records an id (book, author, or series) as skipped.
func (s *Store) AddSkip(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(skipPrefix+id), nil)
	})
}

// RemoveSkip un-skips an id. Idempotent.
func (s *Store) RemoveSkip(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.delete(skipPrefix + id)
}

// ListSkips returns every skipped id.
func (s *Store) ListSkips(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(skipPrefix)
		opts.PrefetchValues = false // keys only

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(skipPrefix)); it.ValidForPrefix([]byte(skipPrefix)); it.Next() {
			ids = append(ids, keySuffix(string(it.Item().Key()), skipPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ClearSkips drops the whole persisted skip set.
func (s *Store) ClearSkips(ctx context.Context) error {
	ids, err := s.ListSkips(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := s.RemoveSkip(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
