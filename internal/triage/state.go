// Package triage implements the finished-book triage engine: the queue of
// classify/skip/defer decisions, the drill-down navigator, the undo stack,
// and the durable decision state behind them.
package triage

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/listenupapp/listenup-triage/internal/domain"
	"github.com/listenupapp/listenup-triage/internal/store"
)

// Skip keys are namespaced so books, authors, and series share one set
// without colliding. "book:b-123", "author:Brandon Sanderson", "series:Mistborn".
const (
	skipBookNS   = "book:"
	skipAuthorNS = "author:"
	skipSeriesNS = "series:"
)

// SkipBookKey returns the skip-set key for a book ID.
func SkipBookKey(id string) string { return skipBookNS + id }

// SkipAuthorKey returns the skip-set key for an author name.
func SkipAuthorKey(name string) string { return skipAuthorNS + name }

// SkipSeriesKey returns the skip-set key for a series name.
func SkipSeriesKey(name string) string { return skipSeriesNS + name }

// SkipStandaloneKey returns the skip-set key for an author's synthetic
// standalone group. Distinct from the author key: skipping "Other books"
// hides that group, not the author.
func SkipStandaloneKey(authorKey string) string {
	return skipAuthorNS + authorKey + ":standalone"
}

// SkipSet tracks explicitly skipped books, authors, and series.
// Skipped entities leave the queue until the set is reset; this is the only
// exclusion that is reversible without touching decision records.
type SkipSet struct {
	keys map[string]bool
}

// NewSkipSet creates an empty skip set.
func NewSkipSet() *SkipSet {
	return &SkipSet{keys: make(map[string]bool)}
}

// Add records a namespaced key as skipped.
func (s *SkipSet) Add(key string) {
	s.keys[key] = true
}

// Remove un-skips a key. No-op if absent.
func (s *SkipSet) Remove(key string) {
	delete(s.keys, key)
}

// Has reports whether a key is skipped.
func (s *SkipSet) Has(key string) bool {
	return s.keys[key]
}

// Len returns the number of skipped keys.
func (s *SkipSet) Len() int {
	return len(s.keys)
}

// Keys returns all skipped keys, sorted.
func (s *SkipSet) Keys() []string {
	out := make([]string, 0, len(s.keys))
	for k := range s.keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Reset empties the set.
func (s *SkipSet) Reset() {
	s.keys = make(map[string]bool)
}

// State is the engine's in-memory mirror of triage state. Decision records
// and processed markers write through to the store; the maps here are what
// queue builds and affinity scoring read, so no store round-trip sits on the
// hot path. Local state is the source of truth - sync state trails behind.
type State struct {
	Marked    map[string]*domain.DecisionRecord  // keyed by book ID
	Processed map[string]*domain.ProcessedMarker // keyed by group name
	Skips     *SkipSet
}

// NewState creates an empty state.
func NewState() *State {
	return &State{
		Marked:    make(map[string]*domain.DecisionRecord),
		Processed: make(map[string]*domain.ProcessedMarker),
		Skips:     NewSkipSet(),
	}
}

// LoadState reads durable state from the store. The skip set is loaded only
// when persistSkips is on; otherwise every session starts with a clean one.
func LoadState(ctx context.Context, s *store.Store, persistSkips bool) (*State, error) {
	state := NewState()

	decisions, err := s.ListDecisions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load decisions: %w", err)
	}
	for _, rec := range decisions {
		state.Marked[rec.BookID] = rec
	}

	markers, err := s.ListProcessed(ctx)
	if err != nil {
		return nil, fmt.Errorf("load processed markers: %w", err)
	}
	for _, m := range markers {
		state.Processed[m.GroupKey] = m
	}

	if persistSkips {
		skips, err := s.ListSkips(ctx)
		if err != nil {
			return nil, fmt.Errorf("load skips: %w", err)
		}
		for _, key := range skips {
			if !strings.Contains(key, ":") {
				// Legacy un-namespaced entries are treated as book skips.
				key = SkipBookKey(key)
			}
			state.Skips.Add(key)
		}
	}

	return state, nil
}

// IsMarked reports whether a book has a decision record.
func (st *State) IsMarked(bookID string) bool {
	_, ok := st.Marked[bookID]
	return ok
}

// IsProcessed reports whether a group carries a processed marker.
func (st *State) IsProcessed(groupKey string) bool {
	_, ok := st.Processed[groupKey]
	return ok
}
