// Package catalog defines the read-only boundary to the library index that
// supplies books, authors, and series to the triage engine.
package catalog

import (
	"context"

	"github.com/listenupapp/listenup-triage/internal/domain"
)

// AuthorGroup is one author and every catalog book attributed to them.
type AuthorGroup struct {
	Name  string         `json:"name"`
	Books []*domain.Book `json:"books"`
}

// SeriesGroup is one series and its member books.
type SeriesGroup struct {
	Name  string         `json:"name"`
	Books []*domain.Book `json:"books"`
}

// Index is the catalog collaborator consumed by the queue builder.
// Implementations must present a consistent view for the duration of one
// queue build; the engine holds a Snapshot to get that for free.
type Index interface {
	ListAllBooks(ctx context.Context) ([]*domain.Book, error)
	ListAllAuthors(ctx context.Context) ([]AuthorGroup, error)
	ListAllSeries(ctx context.Context) ([]SeriesGroup, error)
	ResolveBook(ctx context.Context, id string) (*domain.Book, error)
}
