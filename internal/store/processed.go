package store

import (
	"context"

	"github.com/listenupapp/listenup-triage/internal/domain"
)

// PutProcessed upserts a processed marker, keyed by group name.
// At most one marker exists per group.
func (s *Store) PutProcessed(ctx context.Context, marker *domain.ProcessedMarker) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.set(processedPrefix+marker.GroupKey, marker)
}

// GetProcessed retrieves the marker for a group.
// Returns errors.ErrNotFound if the group has never been processed.
func (s *Store) GetProcessed(ctx context.Context, groupKey string) (*domain.ProcessedMarker, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var marker domain.ProcessedMarker
	if err := s.get(processedPrefix+groupKey, &marker); err != nil {
		return nil, err
	}
	return &marker, nil
}

// DeleteProcessed removes a group's marker. Idempotent.
func (s *Store) DeleteProcessed(ctx context.Context, groupKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.delete(processedPrefix + groupKey)
}

// ListProcessed returns every processed marker, ordered by group key.
func (s *Store) ListProcessed(ctx context.Context) ([]*domain.ProcessedMarker, error) {
	return listPrefix[domain.ProcessedMarker](ctx, s, processedPrefix)
}
