package triage_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/listenupapp/listenup-triage/internal/catalog"
	"github.com/listenupapp/listenup-triage/internal/domain"
	"github.com/listenupapp/listenup-triage/internal/store"
	"github.com/listenupapp/listenup-triage/internal/triage"
)

func seq(n float64) *float64 { return &n }

// testLibrary is the fixture catalog shared by the engine and queue tests:
// one prolific series author, one two-book series author, one standalone-only
// author.
func testLibrary() []*domain.Book {
	return []*domain.Book{
		{ID: "bk_mist1", Title: "The Final Empire", Author: "Brandon Sanderson", Series: "Mistborn", Sequence: seq(1)},
		{ID: "bk_mist2", Title: "The Well of Ascension", Author: "Brandon Sanderson", Series: "Mistborn", Sequence: seq(2)},
		{ID: "bk_mist3", Title: "The Hero of Ages", Author: "Brandon Sanderson", Series: "Mistborn", Sequence: seq(3)},
		{ID: "bk_way", Title: "The Way of Kings", Author: "Brandon Sanderson", Series: "The Stormlight Archive", Sequence: seq(1)},
		{ID: "bk_wor", Title: "Words of Radiance", Author: "Brandon Sanderson", Series: "The Stormlight Archive", Sequence: seq(2)},
		{ID: "bk_elantris", Title: "Elantris", Author: "Brandon Sanderson"},
		{ID: "bk_notw", Title: "The Name of the Wind", Author: "Patrick Rothfuss", Series: "The Kingkiller Chronicle", Sequence: seq(1)},
		{ID: "bk_wmf", Title: "The Wise Man's Fear", Author: "Patrick Rothfuss", Series: "The Kingkiller Chronicle", Sequence: seq(2)},
		{ID: "bk_disp", Title: "The Dispossessed", Author: "Ursula K. Le Guin"},
	}
}

type syncCall struct {
	bookID   string
	finished bool
}

// fakeSync records enqueues instead of calling a server.
type fakeSync struct {
	mu    sync.Mutex
	calls []syncCall
}

func (f *fakeSync) Enqueue(bookID string, finished bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, syncCall{bookID: bookID, finished: finished})
}

func (f *fakeSync) FlushAll(context.Context) error { return nil }

func (f *fakeSync) callsFor(bookID string) []syncCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []syncCall
	for _, c := range f.calls {
		if c.bookID == bookID {
			out = append(out, c)
		}
	}
	return out
}

// fakeLater records deferred books.
type fakeLater struct {
	mu    sync.Mutex
	books []string
	err   error
}

func (f *fakeLater) Enqueue(book *domain.Book) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.books = append(f.books, book.ID)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEnv struct {
	engine *triage.Engine
	store  *store.Store
	sync   *fakeSync
	later  *fakeLater
}

func newTestEngine(t *testing.T, opts ...func(*triage.Options)) *testEnv {
	t.Helper()

	st, err := store.NewInMemory(nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	fs := &fakeSync{}
	fl := &fakeLater{}

	options := triage.Options{
		Snapshot: catalog.NewSnapshot(testLibrary()),
		Store:    st,
		Sync:     fs,
		Later:    fl,
		Logger:   discardLogger(),
	}
	for _, o := range opts {
		o(&options)
	}

	engine := triage.NewEngine(options)
	_, err = engine.StartSession(context.Background())
	require.NoError(t, err)

	return &testEnv{engine: engine, store: st, sync: fs, later: fl}
}

// classifyHead applies a classify decision to the current queue head and
// returns the card it acted on.
func classifyHead(t *testing.T, e *triage.Engine) domain.Card {
	t.Helper()
	queue := e.Queue()
	require.NotEmpty(t, queue)
	head := queue[0]
	require.NoError(t, e.Apply(context.Background(), domain.Decision{
		Kind: domain.DecisionClassify,
		Card: head,
	}))
	return head
}

func cardIDs(cards []domain.Card) []string {
	ids := make([]string, 0, len(cards))
	for _, c := range cards {
		ids = append(ids, c.ID)
	}
	return ids
}
