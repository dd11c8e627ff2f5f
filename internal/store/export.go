package store

import (
	"context"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"fmt"
	"sort"

	"github.com/listenupapp/listenup-triage/internal/domain"
)

// Serialization contract: the map-shaped collections (decisions, processed
// markers) are written as ordered [key, value] pair lists, never as native
// JSON objects. Pair lists survive storage round-trips with their order
// intact and keep the export diffable.

// DecisionPair is one [bookID, record] element of the export.
type DecisionPair struct {
	Key    string
	Record *domain.DecisionRecord
}

// MarshalJSON encodes the pair as a two-element array.
func (p DecisionPair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{p.Key, p.Record})
}

// UnmarshalJSON decodes a two-element array back into the pair.
func (p *DecisionPair) UnmarshalJSON(data []byte) error {
	var raw [2]jsontext.Value
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decision pair is not a 2-element array: %w", err)
	}
	if err := json.Unmarshal(raw[0], &p.Key); err != nil {
		return fmt.Errorf("decision pair key: %w", err)
	}
	p.Record = &domain.DecisionRecord{}
	if err := json.Unmarshal(raw[1], p.Record); err != nil {
		return fmt.Errorf("decision pair record: %w", err)
	}
	return nil
}

// MarkerPair is one [groupKey, marker] element of the export.
type MarkerPair struct {
	Key    string
	Marker *domain.ProcessedMarker
}

// MarshalJSON encodes the pair as a two-element array.
func (p MarkerPair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{p.Key, p.Marker})
}

// UnmarshalJSON decodes a two-element array back into the pair.
func (p *MarkerPair) UnmarshalJSON(data []byte) error {
	var raw [2]jsontext.Value
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("marker pair is not a 2-element array: %w", err)
	}
	if err := json.Unmarshal(raw[0], &p.Key); err != nil {
		return fmt.Errorf("marker pair key: %w", err)
	}
	p.Marker = &domain.ProcessedMarker{}
	if err := json.Unmarshal(raw[1], p.Marker); err != nil {
		return fmt.Errorf("marker pair marker: %w", err)
	}
	return nil
}

// State is the portable snapshot of all durable triage state.
type State struct {
	Decisions []DecisionPair `json:"decisions"`
	Processed []MarkerPair   `json:"processed"`
	Skips     []string       `json:"skips,omitempty"`
}

// Export captures the full durable state as ordered pair lists, sorted by key.
func (s *Store) Export(ctx context.Context) (*State, error) {
	decisions, err := s.ListDecisions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	markers, err := s.ListProcessed(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processed markers: %w", err)
	}
	skips, err := s.ListSkips(ctx)
	if err != nil {
		return nil, fmt.Errorf("list skips: %w", err)
	}

	state := &State{
		Decisions: make([]DecisionPair, 0, len(decisions)),
		Processed: make([]MarkerPair, 0, len(markers)),
		Skips:     skips,
	}
	for _, rec := range decisions {
		state.Decisions = append(state.Decisions, DecisionPair{Key: rec.BookID, Record: rec})
	}
	for _, m := range markers {
		state.Processed = append(state.Processed, MarkerPair{Key: m.GroupKey, Marker: m})
	}

	// listPrefix already yields byte order, but sorting here keeps the
	// contract independent of the backing store.
	sort.Slice(state.Decisions, func(i, j int) bool { return state.Decisions[i].Key < state.Decisions[j].Key })
	sort.Slice(state.Processed, func(i, j int) bool { return state.Processed[i].Key < state.Processed[j].Key })
	sort.Strings(state.Skips)

	return state, nil
}

// Import loads a previously exported state. Entries referencing books the
// catalog no longer resolves are imported anyway - the association is by
// identifier, not by object reference, and the book may come back.
func (s *Store) Import(ctx context.Context, state *State) error {
	for _, pair := range state.Decisions {
		if pair.Record == nil {
			continue
		}
		if err := s.PutDecision(ctx, pair.Record); err != nil {
			return fmt.Errorf("import decision %s: %w", pair.Key, err)
		}
	}
	for _, pair := range state.Processed {
		if pair.Marker == nil {
			continue
		}
		if err := s.PutProcessed(ctx, pair.Marker); err != nil {
			return fmt.Errorf("import marker %s: %w", pair.Key, err)
		}
	}
	for _, id := range state.Skips {
		if err := s.AddSkip(ctx, id); err != nil {
			return fmt.Errorf("import skip %s: %w", id, err)
		}
	}

	if s.logger != nil {
		s.logger.Info("triage state imported",
			"decisions", len(state.Decisions),
			"processed", len(state.Processed),
			"skips", len(state.Skips),
		)
	}
	return nil
}
