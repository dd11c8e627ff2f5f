package triage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/listenup-triage/internal/domain"
	"github.com/listenupapp/listenup-triage/internal/triage"
)

func TestNavigatorStartsAtTop(t *testing.T) {
	n := triage.NewNavigator()
	assert.Equal(t, domain.LevelTop, n.Level())
	assert.Empty(t, n.Breadcrumbs())
}

func TestDrillIntoAuthorWithSeries(t *testing.T) {
	n := triage.NewNavigator()

	require.True(t, n.DrillIntoAuthor("Brandon Sanderson", "Brandon Sanderson", true))
	assert.Equal(t, domain.LevelAuthorSeries, n.Level())
	assert.Equal(t, "Brandon Sanderson", n.Context().AuthorKey)
	assert.Equal(t, []string{"Brandon Sanderson"}, n.Breadcrumbs())
}

func TestDrillIntoAuthorWithoutSeries(t *testing.T) {
	n := triage.NewNavigator()

	require.True(t, n.DrillIntoAuthor("Ursula K. Le Guin", "Ursula K. Le Guin", false))
	assert.Equal(t, domain.LevelAuthorBooks, n.Level())
}

func TestDrillIntoSeriesKeepsAuthorContext(t *testing.T) {
	n := triage.NewNavigator()
	require.True(t, n.DrillIntoAuthor("Brandon Sanderson", "Brandon Sanderson", true))
	require.True(t, n.DrillIntoSeries("Mistborn", "Mistborn"))

	assert.Equal(t, domain.LevelSeriesBooks, n.Level())
	assert.Equal(t, "Brandon Sanderson", n.Context().AuthorKey)
	assert.Equal(t, "Mistborn", n.Context().SeriesKey)
	assert.Equal(t, []string{"Brandon Sanderson", "Mistborn"}, n.Breadcrumbs())
}

func TestDrillIntoSeriesFromTop(t *testing.T) {
	n := triage.NewNavigator()
	require.True(t, n.DrillIntoSeries("Mistborn", "Mistborn"))

	assert.Equal(t, domain.LevelSeriesBooks, n.Level())
	assert.Empty(t, n.Context().AuthorKey)
}

func TestDrillIntoStandaloneOnlyFromAuthorSeries(t *testing.T) {
	n := triage.NewNavigator()
	assert.False(t, n.DrillIntoStandalone("Other books"))

	require.True(t, n.DrillIntoAuthor("Brandon Sanderson", "Brandon Sanderson", true))
	require.True(t, n.DrillIntoStandalone("Other books"))
	assert.Equal(t, domain.LevelAuthorBooks, n.Level())
	assert.Equal(t, []string{"Brandon Sanderson", "Other books"}, n.Breadcrumbs())
}

func TestInvalidDrillsAreNoOps(t *testing.T) {
	n := triage.NewNavigator()
	require.True(t, n.DrillIntoSeries("Mistborn", "Mistborn"))

	// No further descent from a book listing.
	assert.False(t, n.DrillIntoAuthor("Brandon Sanderson", "Brandon Sanderson", true))
	assert.False(t, n.DrillIntoSeries("The Stormlight Archive", "The Stormlight Archive"))
	assert.Equal(t, domain.LevelSeriesBooks, n.Level())
}

func TestBackPopsOneLevel(t *testing.T) {
	n := triage.NewNavigator()
	require.True(t, n.DrillIntoAuthor("Brandon Sanderson", "Brandon Sanderson", true))
	require.True(t, n.DrillIntoSeries("Mistborn", "Mistborn"))

	require.True(t, n.Back())
	assert.Equal(t, domain.LevelAuthorSeries, n.Level())
	assert.Empty(t, n.Context().SeriesKey)

	require.True(t, n.Back())
	assert.Equal(t, domain.LevelTop, n.Level())

	assert.False(t, n.Back())
	assert.Equal(t, domain.LevelTop, n.Level())
}

func TestRestoreRebuildsIntermediateFrames(t *testing.T) {
	n := triage.NewNavigator()
	require.True(t, n.DrillIntoAuthor("Brandon Sanderson", "Brandon Sanderson", true))
	require.True(t, n.DrillIntoSeries("Mistborn", "Mistborn"))
	snap := n.Snapshot()

	fresh := triage.NewNavigator()
	fresh.Restore(snap)

	assert.Equal(t, snap, fresh.Snapshot())

	// The rebuilt stack pops through the same intermediate position.
	require.True(t, fresh.Back())
	assert.Equal(t, domain.LevelAuthorSeries, fresh.Level())
	assert.Equal(t, "Brandon Sanderson", fresh.Context().AuthorKey)
}

func TestRestoreTopLevelSnapshot(t *testing.T) {
	n := triage.NewNavigator()
	require.True(t, n.DrillIntoSeries("Mistborn", "Mistborn"))

	n.Restore(domain.NavSnapshot{Level: domain.LevelTop})
	assert.Equal(t, domain.LevelTop, n.Level())
	assert.False(t, n.Back())
}
