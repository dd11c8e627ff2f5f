package triage

import (
	"fmt"
	"sort"

	"github.com/listenupapp/listenup-triage/internal/catalog"
	"github.com/listenupapp/listenup-triage/internal/domain"
)

// StandaloneTitle labels the synthetic group holding an author's books that
// belong to no series.
const StandaloneTitle = "Other books"

// CoverResolver supplies cover art URLs for book cards.
// Implementations return "" on any failure; a missing cover never breaks a
// queue build.
type CoverResolver interface {
	CoverURLFor(bookID string) string
}

// Builder produces the ordered card queue for a view level. Builds are pure
// reads over the snapshot and state; cards are recomputed whenever an
// exclusion set changes and are never persisted.
type Builder struct {
	snapshot *catalog.Snapshot
	state    *State
	scorer   *Scorer
	covers   CoverResolver // optional
}

// NewBuilder creates a queue builder.
func NewBuilder(snapshot *catalog.Snapshot, state *State, scorer *Scorer, covers CoverResolver) *Builder {
	return &Builder{
		snapshot: snapshot,
		state:    state,
		scorer:   scorer,
		covers:   covers,
	}
}

// Build produces the queue for the given position. An empty result is the
// defined "section complete" terminal state, not an error.
func (b *Builder) Build(level domain.ViewLevel, tab domain.Tab, nav domain.NavContext) []domain.Card {
	switch level {
	case domain.LevelTop:
		switch tab {
		case domain.TabAuthors:
			return b.buildAuthorGroups()
		case domain.TabSeries:
			return b.buildSeriesGroups()
		default:
			return b.buildTopBooks()
		}
	case domain.LevelAuthorSeries:
		return b.buildAuthorSeries(nav.AuthorKey)
	case domain.LevelAuthorBooks:
		return b.buildAuthorBooks(nav.AuthorKey)
	case domain.LevelSeriesBooks:
		return b.buildSeriesBooks(nav.SeriesKey)
	default:
		return nil
	}
}

// buildTopBooks lists every remaining book, hottest affinity first.
func (b *Builder) buildTopBooks() []domain.Card {
	books := b.remaining(b.snapshot.Books())

	// Precompute combined scores; scoring inside the comparator would walk
	// the marked set O(n log n) times.
	scores := make(map[string]int, len(books))
	for _, bk := range books {
		scores[bk.ID] = b.scorer.CombinedScore(bk.ID)
	}

	sort.SliceStable(books, func(i, j int) bool {
		si, sj := scores[books[i].ID], scores[books[j].ID]
		if si != sj {
			return si > sj
		}
		return books[i].Title < books[j].Title
	})

	cards := make([]domain.Card, 0, len(books))
	for _, bk := range books {
		cards = append(cards, b.bookCard(bk))
	}
	return cards
}

// buildAuthorGroups lists authors with at least one remaining book.
// Processed authors sink to the back regardless of affinity.
func (b *Builder) buildAuthorGroups() []domain.Card {
	groups := b.snapshot.Authors()

	cards := make([]domain.Card, 0, len(groups))
	for _, g := range groups {
		if b.state.Skips.Has(SkipAuthorKey(g.Name)) {
			continue
		}
		members := b.remaining(g.Books)
		if len(members) == 0 {
			continue // fully triaged; omit rather than error
		}
		cards = append(cards, domain.Card{
			Kind:      domain.CardAuthorGroup,
			ID:        g.Name,
			Title:     g.Name,
			Count:     len(members),
			MemberIDs: bookIDs(members),
		})
	}

	b.sortGroups(cards)
	return cards
}

// buildSeriesGroups is the series twin of buildAuthorGroups.
func (b *Builder) buildSeriesGroups() []domain.Card {
	groups := b.snapshot.Series()

	cards := make([]domain.Card, 0, len(groups))
	for _, g := range groups {
		if b.state.Skips.Has(SkipSeriesKey(g.Name)) {
			continue
		}
		members := b.remaining(g.Books)
		if len(members) == 0 {
			continue
		}
		cards = append(cards, domain.Card{
			Kind:      domain.CardSeriesGroup,
			ID:        g.Name,
			Title:     g.Name,
			Count:     len(members),
			MemberIDs: bookIDs(sortBySequence(members)),
		})
	}

	b.sortGroups(cards)
	return cards
}

// sortGroups orders group cards: unprocessed first, then affinity
// descending, then remaining member count descending. The input arrives
// alphabetical from the snapshot, so the stable sort leaves name order as
// the final tie-break.
func (b *Builder) sortGroups(cards []domain.Card) {
	scores := make(map[string]int, len(cards))
	for _, c := range cards {
		scores[c.ID] = b.scorer.Score(c.ID)
	}

	sort.SliceStable(cards, func(i, j int) bool {
		pi, pj := b.state.IsProcessed(cards[i].ID), b.state.IsProcessed(cards[j].ID)
		if pi != pj {
			return !pi
		}
		if scores[cards[i].ID] != scores[cards[j].ID] {
			return scores[cards[i].ID] > scores[cards[j].ID]
		}
		return cards[i].Count > cards[j].Count
	})
}

// buildAuthorSeries lists one author's series as group cards, plus the
// synthetic standalone group for their series-less books, if non-empty.
func (b *Builder) buildAuthorSeries(authorKey string) []domain.Card {
	var cards []domain.Card

	for _, name := range b.snapshot.SeriesOfAuthor(authorKey) {
		if b.state.Skips.Has(SkipSeriesKey(name)) {
			continue
		}
		var members []*domain.Book
		for _, bk := range b.snapshot.BooksByAuthor(authorKey) {
			if bk.Series == name {
				members = append(members, bk)
			}
		}
		members = b.remaining(members)
		if len(members) == 0 {
			continue
		}
		cards = append(cards, domain.Card{
			Kind:      domain.CardSeriesGroup,
			ID:        name,
			Title:     name,
			Subtitle:  authorKey,
			Count:     len(members),
			MemberIDs: bookIDs(sortBySequence(members)),
		})
	}

	var standalone []*domain.Book
	for _, bk := range b.snapshot.BooksByAuthor(authorKey) {
		if !bk.HasSeries() {
			standalone = append(standalone, bk)
		}
	}
	standalone = b.remaining(standalone)
	if len(standalone) > 0 && !b.state.Skips.Has(SkipStandaloneKey(authorKey)) {
		sort.SliceStable(standalone, func(i, j int) bool {
			return standalone[i].Title < standalone[j].Title
		})
		cards = append(cards, domain.Card{
			Kind:      domain.CardAuthorGroup,
			ID:        authorKey,
			Title:     StandaloneTitle,
			Subtitle:  authorKey,
			Count:     len(standalone),
			MemberIDs: bookIDs(standalone),
		})
	}

	return cards
}

// buildAuthorBooks lists an author's series-less books, alphabetical.
// For an author with no series at all this is their whole shelf.
func (b *Builder) buildAuthorBooks(authorKey string) []domain.Card {
	var books []*domain.Book
	for _, bk := range b.snapshot.BooksByAuthor(authorKey) {
		if !bk.HasSeries() {
			books = append(books, bk)
		}
	}
	books = b.remaining(books)

	sort.SliceStable(books, func(i, j int) bool {
		return books[i].Title < books[j].Title
	})

	cards := make([]domain.Card, 0, len(books))
	for _, bk := range books {
		cards = append(cards, b.bookCard(bk))
	}
	return cards
}

// buildSeriesBooks lists a series' remaining books in sequence order.
func (b *Builder) buildSeriesBooks(seriesKey string) []domain.Card {
	books := sortBySequence(b.remaining(b.snapshot.BooksBySeries(seriesKey)))

	cards := make([]domain.Card, 0, len(books))
	for _, bk := range books {
		cards = append(cards, b.bookCard(bk))
	}
	return cards
}

// remaining filters out marked and skipped books.
func (b *Builder) remaining(books []*domain.Book) []*domain.Book {
	out := make([]*domain.Book, 0, len(books))
	for _, bk := range books {
		if b.state.IsMarked(bk.ID) || b.state.Skips.Has(SkipBookKey(bk.ID)) {
			continue
		}
		out = append(out, bk)
	}
	return out
}

// bookCard projects a book into a queue card.
func (b *Builder) bookCard(bk *domain.Book) domain.Card {
	subtitle := bk.Author
	if bk.HasSeries() {
		if bk.HasSequence() {
			subtitle = fmt.Sprintf("%s · %s #%g", bk.Author, bk.Series, *bk.Sequence)
		} else {
			subtitle = fmt.Sprintf("%s · %s", bk.Author, bk.Series)
		}
	}

	card := domain.Card{
		Kind:     domain.CardBook,
		ID:       bk.ID,
		Title:    bk.Title,
		Subtitle: subtitle,
	}
	if b.covers != nil {
		card.CoverURL = b.covers.CoverURLFor(bk.ID)
	}
	return card
}

// sortBySequence orders books by series sequence number; books without one
// sort last, stable by title. Returns its argument, sorted in place.
func sortBySequence(books []*domain.Book) []*domain.Book {
	sort.SliceStable(books, func(i, j int) bool {
		bi, bj := books[i], books[j]
		switch {
		case bi.HasSequence() && bj.HasSequence():
			if *bi.Sequence != *bj.Sequence {
				return *bi.Sequence < *bj.Sequence
			}
			return bi.Title < bj.Title
		case bi.HasSequence():
			return true
		case bj.HasSequence():
			return false
		default:
			return bi.Title < bj.Title
		}
	})
	return books
}

// bookIDs projects books to their IDs, preserving order.
func bookIDs(books []*domain.Book) []string {
	ids := make([]string, 0, len(books))
	for _, bk := range books {
		ids = append(ids, bk.ID)
	}
	return ids
}
