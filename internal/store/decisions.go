package store

import (
	"context"
	"fmt"

	"github.com/listenupapp/listenup-triage/internal/domain"
)

// PutDecision upserts a decision record. The record is keyed by book ID, so
// writing twice for the same book overwrites rather than duplicates - the
// at-most-one-record-per-book invariant holds by construction.
func (s *Store) PutDecision(ctx context.Context, rec *domain.DecisionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.set(decisionPrefix+rec.BookID, rec)
}

// GetDecision retrieves the decision record for a book.
// Returns errors.ErrNotFound if the book has no record.
func (s *Store) GetDecision(ctx context.Context, bookID string) (*domain.DecisionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rec domain.DecisionRecord
	if err := s.get(decisionPrefix+bookID, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// HasDecision checks whether a record exists without deserializing it.
func (s *Store) HasDecision(ctx context.Context, bookID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.exists(decisionPrefix + bookID)
}

// DeleteDecision removes a book's decision record (un-classifies it).
// Idempotent: deleting a missing record is not an error.
func (s *Store) DeleteDecision(ctx context.Context, bookID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.delete(decisionPrefix + bookID)
}

// ListDecisions returns every decision record, ordered by book ID.
func (s *Store) ListDecisions(ctx context.Context) ([]*domain.DecisionRecord, error) {
	return listPrefix[domain.DecisionRecord](ctx, s, decisionPrefix)
}

// SetSyncState updates only the sync state of an existing record.
// The sync engine calls this from its worker goroutines; badger's transaction
// gives us the read-modify-write atomically.
func (s *Store) SetSyncState(ctx context.Context, bookID string, state domain.SyncState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rec, err := s.GetDecision(ctx, bookID)
	if err != nil {
		// The record may have been undone while the sync job was in flight.
		// That is not a failure; the job's outcome just no longer matters.
		return nil
	}

	rec.SyncState = state
	if err := s.PutDecision(ctx, rec); err != nil {
		return fmt.Errorf("persist sync state: %w", err)
	}
	return nil
}
