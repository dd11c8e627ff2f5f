package store_test

import (
	"context"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/listenup-triage/internal/domain"
	"github.com/listenupapp/listenup-triage/internal/store"
)

func TestExportOrderedByKey(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"bk_c", "bk_a", "bk_b"} {
		require.NoError(t, s.PutDecision(ctx, domain.NewDecisionRecord(id, domain.OriginSingle)))
	}
	require.NoError(t, s.PutProcessed(ctx, domain.NewProcessedMarker("Mistborn")))
	require.NoError(t, s.PutProcessed(ctx, domain.NewProcessedMarker("Elantris")))

	state, err := s.Export(ctx)
	require.NoError(t, err)

	assert.Equal(t, "bk_a", state.Decisions[0].Key)
	assert.Equal(t, "bk_b", state.Decisions[1].Key)
	assert.Equal(t, "bk_c", state.Decisions[2].Key)
	assert.Equal(t, "Elantris", state.Processed[0].Key)
	assert.Equal(t, "Mistborn", state.Processed[1].Key)
}

func TestExportSerializesAsPairLists(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutDecision(ctx, domain.NewDecisionRecord("bk_1", domain.OriginSingle)))
	require.NoError(t, s.PutProcessed(ctx, domain.NewProcessedMarker("Mistborn")))

	state, err := s.Export(ctx)
	require.NoError(t, err)

	data, err := json.Marshal(state)
	require.NoError(t, err)

	// Map-shaped collections go over the wire as [key, value] arrays, not
	// JSON objects keyed by ID.
	var wire struct {
		Decisions [][2]jsontext.Value `json:"decisions"`
		Processed [][2]jsontext.Value `json:"processed"`
	}
	require.NoError(t, json.Unmarshal(data, &wire))
	require.Len(t, wire.Decisions, 1)

	var key string
	require.NoError(t, json.Unmarshal(wire.Decisions[0][0], &key))
	assert.Equal(t, "bk_1", key)

	var rec domain.DecisionRecord
	require.NoError(t, json.Unmarshal(wire.Decisions[0][1], &rec))
	assert.Equal(t, "bk_1", rec.BookID)
}

func TestImportRestoresExportedState(t *testing.T) {
	src := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, src.PutDecision(ctx, domain.NewDecisionRecord("bk_1", domain.OriginBulkSeries)))
	require.NoError(t, src.PutProcessed(ctx, domain.NewProcessedMarker("Mistborn")))
	require.NoError(t, src.AddSkip(ctx, "author:Patrick Rothfuss"))

	exported, err := src.Export(ctx)
	require.NoError(t, err)

	// Round-trip through the wire format, as a real transfer would.
	data, err := json.Marshal(exported)
	require.NoError(t, err)
	var carried store.State
	require.NoError(t, json.Unmarshal(data, &carried))

	dst := setupTestStore(t)
	require.NoError(t, dst.Import(ctx, &carried))

	rec, err := dst.GetDecision(ctx, "bk_1")
	require.NoError(t, err)
	assert.Equal(t, domain.OriginBulkSeries, rec.Origin)

	marker, err := dst.GetProcessed(ctx, "Mistborn")
	require.NoError(t, err)
	assert.Equal(t, "Mistborn", marker.GroupKey)

	skips, err := dst.ListSkips(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"author:Patrick Rothfuss"}, skips)
}

func TestImportKeepsEntriesForUnknownBooks(t *testing.T) {
	// The store does not consult a catalog: a record for an ID nothing
	// resolves imports cleanly and survives a re-export.
	s := setupTestStore(t)
	ctx := context.Background()

	state := &store.State{
		Decisions: []store.DecisionPair{
			{Key: "bk_ghost", Record: domain.NewDecisionRecord("bk_ghost", domain.OriginSingle)},
		},
	}
	require.NoError(t, s.Import(ctx, state))

	out, err := s.Export(ctx)
	require.NoError(t, err)
	require.Len(t, out.Decisions, 1)
	assert.Equal(t, "bk_ghost", out.Decisions[0].Key)
}

func TestExportEmptyStore(t *testing.T) {
	s := setupTestStore(t)

	state, err := s.Export(context.Background())
	require.NoError(t, err)
	assert.Empty(t, state.Decisions)
	assert.Empty(t, state.Processed)
	assert.Empty(t, state.Skips)
}
