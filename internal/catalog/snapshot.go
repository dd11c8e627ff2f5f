package catalog

import (
	"context"
	"sort"

	"github.com/listenupapp/listenup-triage/internal/domain"
	"github.com/listenupapp/listenup-triage/internal/errors"
)

// Snapshot is an immutable in-memory catalog index. Once built it never
// changes, which gives every queue build the consistent view the Index
// contract demands.
type Snapshot struct {
	books    []*domain.Book
	byID     map[string]*domain.Book
	byAuthor map[string][]*domain.Book
	bySeries map[string][]*domain.Book
}

// NewSnapshot builds a snapshot from the given books. The slice is copied;
// callers may reuse theirs. Group order is alphabetical and stable.
func NewSnapshot(books []*domain.Book) *Snapshot {
	s := &Snapshot{
		books:    make([]*domain.Book, len(books)),
		byID:     make(map[string]*domain.Book, len(books)),
		byAuthor: make(map[string][]*domain.Book),
		bySeries: make(map[string][]*domain.Book),
	}
	copy(s.books, books)

	for _, b := range s.books {
		s.byID[b.ID] = b
		if b.Author != "" {
			s.byAuthor[b.Author] = append(s.byAuthor[b.Author], b)
		}
		if b.HasSeries() {
			s.bySeries[b.Series] = append(s.bySeries[b.Series], b)
		}
	}

	return s
}

// ListAllBooks returns every book in the snapshot.
func (s *Snapshot) ListAllBooks(_ context.Context) ([]*domain.Book, error) {
	return s.books, nil
}

// ListAllAuthors returns author groups in alphabetical order.
func (s *Snapshot) ListAllAuthors(_ context.Context) ([]AuthorGroup, error) {
	names := make([]string, 0, len(s.byAuthor))
	for name := range s.byAuthor {
		names = append(names, name)
	}
	sort.Strings(names)

	groups := make([]AuthorGroup, 0, len(names))
	for _, name := range names {
		groups = append(groups, AuthorGroup{Name: name, Books: s.byAuthor[name]})
	}
	return groups, nil
}

// ListAllSeries returns series groups in alphabetical order.
func (s *Snapshot) ListAllSeries(_ context.Context) ([]SeriesGroup, error) {
	names := make([]string, 0, len(s.bySeries))
	for name := range s.bySeries {
		names = append(names, name)
	}
	sort.Strings(names)

	groups := make([]SeriesGroup, 0, len(names))
	for _, name := range names {
		groups = append(groups, SeriesGroup{Name: name, Books: s.bySeries[name]})
	}
	return groups, nil
}

// ResolveBook looks up a single book by ID.
// Returns errors.ErrNotFound for ids the snapshot does not know.
func (s *Snapshot) ResolveBook(_ context.Context, id string) (*domain.Book, error) {
	b, ok := s.byID[id]
	if !ok {
		return nil, errors.NotFoundf("book %s not in catalog", id)
	}
	return b, nil
}

// Books returns every book. Context-free twin of ListAllBooks for callers
// inside the engine that hold the snapshot directly.
func (s *Snapshot) Books() []*domain.Book {
	return s.books
}

// Authors returns author groups in alphabetical order, context-free.
func (s *Snapshot) Authors() []AuthorGroup {
	groups, _ := s.ListAllAuthors(context.Background())
	return groups
}

// Series returns series groups in alphabetical order, context-free.
func (s *Snapshot) Series() []SeriesGroup {
	groups, _ := s.ListAllSeries(context.Background())
	return groups
}

// Resolve is the lock-free lookup used on hot paths (affinity, queue builds).
// Returns nil for unknown ids rather than an error.
func (s *Snapshot) Resolve(id string) *domain.Book {
	return s.byID[id]
}

// BooksByAuthor returns the author's books, or nil for an unknown author.
func (s *Snapshot) BooksByAuthor(name string) []*domain.Book {
	return s.byAuthor[name]
}

// BooksBySeries returns the series' books, or nil for an unknown series.
func (s *Snapshot) BooksBySeries(name string) []*domain.Book {
	return s.bySeries[name]
}

// SeriesOfAuthor returns the distinct series names among an author's books,
// alphabetical. Books without a series are not represented here.
func (s *Snapshot) SeriesOfAuthor(name string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, b := range s.byAuthor[name] {
		if b.HasSeries() && !seen[b.Series] {
			seen[b.Series] = true
			out = append(out, b.Series)
		}
	}
	sort.Strings(out)
	return out
}
