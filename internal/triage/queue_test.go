package triage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/listenup-triage/internal/catalog"
	"github.com/listenupapp/listenup-triage/internal/domain"
	"github.com/listenupapp/listenup-triage/internal/triage"
)

func newBuilder(state *triage.State) *triage.Builder {
	snapshot := catalog.NewSnapshot(testLibrary())
	return triage.NewBuilder(snapshot, state, triage.NewScorer(snapshot, state), nil)
}

func mark(state *triage.State, bookIDs ...string) {
	for _, id := range bookIDs {
		state.Marked[id] = domain.NewDecisionRecord(id, domain.OriginSingle)
	}
}

func TestTopBooksAlphabeticalWithoutAffinity(t *testing.T) {
	b := newBuilder(triage.NewState())

	cards := b.Build(domain.LevelTop, domain.TabBooks, domain.NavContext{})
	require.Len(t, cards, len(testLibrary()))
	assert.Equal(t, "Elantris", cards[0].Title)
	for i := 1; i < len(cards); i++ {
		assert.LessOrEqual(t, cards[i-1].Title, cards[i].Title)
	}
}

func TestTopBooksAffinityOrdering(t *testing.T) {
	state := triage.NewState()
	// Two Mistborn books finished: the rest of the series should outrank
	// everything, other Sanderson books should outrank other authors.
	mark(state, "bk_mist1", "bk_mist2")
	b := newBuilder(state)

	cards := b.Build(domain.LevelTop, domain.TabBooks, domain.NavContext{})
	ids := cardIDs(cards)

	// Marked books are out of the queue entirely.
	assert.NotContains(t, ids, "bk_mist1")
	assert.NotContains(t, ids, "bk_mist2")

	// The remaining Mistborn book scores author 2 + series 2 and leads.
	assert.Equal(t, "bk_mist3", ids[0])

	// Sanderson's other books (author affinity 2) come before Rothfuss and
	// Le Guin (affinity 0).
	rank := make(map[string]int, len(ids))
	for i, id := range ids {
		rank[id] = i
	}
	for _, sanderson := range []string{"bk_way", "bk_wor", "bk_elantris"} {
		for _, other := range []string{"bk_notw", "bk_wmf", "bk_disp"} {
			assert.Less(t, rank[sanderson], rank[other],
				"%s should outrank %s", sanderson, other)
		}
	}
}

func TestAuthorGroupsOrderAndCounts(t *testing.T) {
	b := newBuilder(triage.NewState())

	cards := b.Build(domain.LevelTop, domain.TabAuthors, domain.NavContext{})
	require.Len(t, cards, 3)

	// Affinity all zero: remaining-count descending decides.
	assert.Equal(t, "Brandon Sanderson", cards[0].ID)
	assert.Equal(t, 6, cards[0].Count)
	assert.Equal(t, "Patrick Rothfuss", cards[1].ID)
	assert.Equal(t, "Ursula K. Le Guin", cards[2].ID)
	for _, c := range cards {
		assert.Equal(t, domain.CardAuthorGroup, c.Kind)
		assert.Len(t, c.MemberIDs, c.Count)
	}
}

func TestProcessedGroupsSinkToBack(t *testing.T) {
	state := triage.NewState()
	// Sanderson was bulk-processed but one book later reappeared unmarked.
	state.Processed["Brandon Sanderson"] = domain.NewProcessedMarker("Brandon Sanderson")
	mark(state, "bk_mist1", "bk_mist2", "bk_mist3", "bk_way", "bk_wor")
	b := newBuilder(state)

	cards := b.Build(domain.LevelTop, domain.TabAuthors, domain.NavContext{})
	require.Len(t, cards, 3)

	// Despite the highest affinity in the library, the processed author
	// sits behind the untouched ones.
	assert.Equal(t, "Brandon Sanderson", cards[2].ID)
	assert.Equal(t, 1, cards[2].Count) // only Elantris remains
}

func TestFullyTriagedGroupOmitted(t *testing.T) {
	state := triage.NewState()
	mark(state, "bk_notw", "bk_wmf")
	b := newBuilder(state)

	cards := b.Build(domain.LevelTop, domain.TabAuthors, domain.NavContext{})
	assert.NotContains(t, cardIDs(cards), "Patrick Rothfuss")
}

func TestSkippedGroupOmitted(t *testing.T) {
	state := triage.NewState()
	state.Skips.Add(triage.SkipAuthorKey("Brandon Sanderson"))
	b := newBuilder(state)

	cards := b.Build(domain.LevelTop, domain.TabAuthors, domain.NavContext{})
	assert.NotContains(t, cardIDs(cards), "Brandon Sanderson")
}

func TestSeriesGroupMembersInSequenceOrder(t *testing.T) {
	b := newBuilder(triage.NewState())

	cards := b.Build(domain.LevelTop, domain.TabSeries, domain.NavContext{})
	var mistborn domain.Card
	for _, c := range cards {
		if c.ID == "Mistborn" {
			mistborn = c
		}
	}
	assert.Equal(t, []string{"bk_mist1", "bk_mist2", "bk_mist3"}, mistborn.MemberIDs)
}

func TestAuthorSeriesLevelIncludesStandaloneGroup(t *testing.T) {
	b := newBuilder(triage.NewState())

	cards := b.Build(domain.LevelAuthorSeries, domain.TabBooks,
		domain.NavContext{AuthorKey: "Brandon Sanderson"})
	require.Len(t, cards, 3)

	assert.Equal(t, "Mistborn", cards[0].ID)
	assert.Equal(t, "The Stormlight Archive", cards[1].ID)

	other := cards[2]
	assert.Equal(t, triage.StandaloneTitle, other.Title)
	assert.Equal(t, domain.CardAuthorGroup, other.Kind)
	assert.Equal(t, []string{"bk_elantris"}, other.MemberIDs)
}

func TestAuthorSeriesLevelOmitsEmptyStandaloneGroup(t *testing.T) {
	state := triage.NewState()
	mark(state, "bk_elantris")
	b := newBuilder(state)

	cards := b.Build(domain.LevelAuthorSeries, domain.TabBooks,
		domain.NavContext{AuthorKey: "Brandon Sanderson"})
	for _, c := range cards {
		assert.NotEqual(t, triage.StandaloneTitle, c.Title)
	}
}

func TestSeriesBooksLevelOrdering(t *testing.T) {
	state := triage.NewState()
	mark(state, "bk_mist2")
	b := newBuilder(state)

	cards := b.Build(domain.LevelSeriesBooks, domain.TabBooks,
		domain.NavContext{SeriesKey: "Mistborn"})
	assert.Equal(t, []string{"bk_mist1", "bk_mist3"}, cardIDs(cards))
}

func TestAuthorBooksLevelListsOnlySerieslessBooks(t *testing.T) {
	b := newBuilder(triage.NewState())

	cards := b.Build(domain.LevelAuthorBooks, domain.TabBooks,
		domain.NavContext{AuthorKey: "Brandon Sanderson"})
	assert.Equal(t, []string{"bk_elantris"}, cardIDs(cards))
}

func TestEmptyQueueIsSectionComplete(t *testing.T) {
	state := triage.NewState()
	mark(state, "bk_mist1", "bk_mist2", "bk_mist3")
	b := newBuilder(state)

	cards := b.Build(domain.LevelSeriesBooks, domain.TabBooks,
		domain.NavContext{SeriesKey: "Mistborn"})
	assert.Empty(t, cards)
}

func TestBookCardSubtitle(t *testing.T) {
	b := newBuilder(triage.NewState())

	cards := b.Build(domain.LevelSeriesBooks, domain.TabBooks,
		domain.NavContext{SeriesKey: "Mistborn"})
	require.NotEmpty(t, cards)
	assert.Equal(t, "Brandon Sanderson · Mistborn #1", cards[0].Subtitle)

	cards = b.Build(domain.LevelAuthorBooks, domain.TabBooks,
		domain.NavContext{AuthorKey: "Ursula K. Le Guin"})
	require.NotEmpty(t, cards)
	assert.Equal(t, "Ursula K. Le Guin", cards[0].Subtitle)
}
