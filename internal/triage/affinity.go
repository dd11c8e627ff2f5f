package triage

import (
	"github.com/listenupapp/listenup-triage/internal/catalog"
)

// Scorer derives a preference weight for an author or series from the books
// already marked finished. The score is recomputed from the live record set
// on every query - nothing is cached, so undoing a mark is reflected
// immediately and the score never drifts below the count of valid records.
type Scorer struct {
	snapshot *catalog.Snapshot
	state    *State
}

// NewScorer creates a scorer over the given catalog snapshot and state.
func NewScorer(snapshot *catalog.Snapshot, state *State) *Scorer {
	return &Scorer{snapshot: snapshot, state: state}
}

// Score returns the number of marked books attributable to the group:
// books whose author or series matches the key. Always >= 0; unknown keys
// score 0.
func (sc *Scorer) Score(groupKey string) int {
	if groupKey == "" {
		return 0
	}

	n := 0
	for bookID := range sc.state.Marked {
		b := sc.snapshot.Resolve(bookID)
		if b == nil {
			// Record outlived its catalog entry; it still counts as a
			// decision but cannot be attributed to any group.
			continue
		}
		if b.Author == groupKey || b.Series == groupKey {
			n++
		}
	}
	return n
}

// CombinedScore returns author affinity plus series affinity for one book,
// the ordering weight used by the top-level book queue.
func (sc *Scorer) CombinedScore(bookID string) int {
	b := sc.snapshot.Resolve(bookID)
	if b == nil {
		return 0
	}
	score := sc.Score(b.Author)
	if b.HasSeries() {
		score += sc.Score(b.Series)
	}
	return score
}
