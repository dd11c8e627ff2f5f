package triage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/listenupapp/listenup-triage/internal/catalog"
	"github.com/listenupapp/listenup-triage/internal/domain"
	"github.com/listenupapp/listenup-triage/internal/triage"
)

func newScorer(state *triage.State) *triage.Scorer {
	return triage.NewScorer(catalog.NewSnapshot(testLibrary()), state)
}

func TestScoreCountsAuthorAndSeriesMatches(t *testing.T) {
	state := triage.NewState()
	mark(state, "bk_mist1", "bk_way", "bk_elantris")
	sc := newScorer(state)

	assert.Equal(t, 3, sc.Score("Brandon Sanderson"))
	assert.Equal(t, 1, sc.Score("Mistborn"))
	assert.Equal(t, 1, sc.Score("The Stormlight Archive"))
	assert.Equal(t, 0, sc.Score("Patrick Rothfuss"))
}

func TestScoreUnknownKeyIsZero(t *testing.T) {
	state := triage.NewState()
	mark(state, "bk_mist1")
	sc := newScorer(state)

	assert.Equal(t, 0, sc.Score("Robert Jordan"))
	assert.Equal(t, 0, sc.Score(""))
}

func TestScoreIgnoresUnresolvableRecords(t *testing.T) {
	state := triage.NewState()
	mark(state, "bk_mist1")
	// A record for a book the catalog no longer knows cannot be attributed.
	state.Marked["bk_ghost"] = domain.NewDecisionRecord("bk_ghost", domain.OriginSingle)
	sc := newScorer(state)

	assert.Equal(t, 1, sc.Score("Brandon Sanderson"))
}

func TestScoreReflectsUndoImmediately(t *testing.T) {
	state := triage.NewState()
	mark(state, "bk_mist1", "bk_mist2")
	sc := newScorer(state)

	assert.Equal(t, 2, sc.Score("Mistborn"))
	delete(state.Marked, "bk_mist2")
	assert.Equal(t, 1, sc.Score("Mistborn"))
}

func TestCombinedScoreSumsAuthorAndSeries(t *testing.T) {
	state := triage.NewState()
	mark(state, "bk_mist1", "bk_mist2")
	sc := newScorer(state)

	// Author affinity 2 plus series affinity 2.
	assert.Equal(t, 4, sc.CombinedScore("bk_mist3"))
	// Standalone book: author affinity only.
	assert.Equal(t, 2, sc.CombinedScore("bk_elantris"))
	// Unknown book scores zero rather than erroring.
	assert.Equal(t, 0, sc.CombinedScore("bk_ghost"))
}
