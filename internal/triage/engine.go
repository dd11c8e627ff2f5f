package triage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/listenupapp/listenup-triage/internal/catalog"
	"github.com/listenupapp/listenup-triage/internal/domain"
	"github.com/listenupapp/listenup-triage/internal/id"
	"github.com/listenupapp/listenup-triage/internal/store"
)

// Sync is the background propagator for finished-state changes. Enqueue is
// fire-and-forget; the engine never waits on it. FlushAll is called on
// session end and retries anything that failed.
type Sync interface {
	Enqueue(bookID string, finished bool)
	FlushAll(ctx context.Context) error
}

// LaterQueue receives books the user defers instead of classifying.
// It lives outside this engine; only the defer path touches it.
type LaterQueue interface {
	Enqueue(book *domain.Book) error
}

// Options configures an Engine.
type Options struct {
	Snapshot *catalog.Snapshot
	Store    *store.Store
	Sync     Sync
	Later    LaterQueue    // optional; defer becomes skip-only without it
	Covers   CoverResolver // optional
	Logger   *slog.Logger

	// UndoTTL expires undo entries; zero keeps unlimited session history.
	UndoTTL time.Duration
	// PersistSkips loads and saves the skip set across sessions.
	PersistSkips bool
}

// Engine is the decision processor and the single owner of triage state.
// All local mutations run under one mutex, giving the one-decision-at-a-time
// model; the only concurrency is the sync engine's jobs, which re-enter only
// through RecordSyncOutcome.
type Engine struct {
	mu sync.Mutex

	snapshot *catalog.Snapshot
	store    *store.Store
	state    *State
	scorer   *Scorer
	builder  *Builder
	nav      *Navigator
	undo     *UndoStack
	sync     Sync
	later    LaterQueue
	logger   *slog.Logger

	persistSkips bool

	session *Session
	tab     domain.Tab
}

// Session is the bookkeeping for one triage sitting.
type Session struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Decisions int       `json:"decisions"` // decisions applied this session
}

// NewEngine creates an engine. Call Load (or StartSession) before serving it.
func NewEngine(opts Options) *Engine {
	state := NewState()
	scorer := NewScorer(opts.Snapshot, state)

	return &Engine{
		snapshot:     opts.Snapshot,
		store:        opts.Store,
		state:        state,
		scorer:       scorer,
		builder:      NewBuilder(opts.Snapshot, state, scorer, opts.Covers),
		nav:          NewNavigator(),
		undo:         NewUndoStack(opts.UndoTTL),
		sync:         opts.Sync,
		later:        opts.Later,
		logger:       opts.Logger,
		persistSkips: opts.PersistSkips,
		tab:          domain.TabBooks,
	}
}

// Load pulls durable state into the engine without opening a session, so
// queues built before the first StartSession still exclude previously marked
// and processed entities.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reload(ctx)
}

// reload refreshes the state mirror and rewires the scorer and builder onto
// it. Must be called with the lock held.
func (e *Engine) reload(ctx context.Context) error {
	state, err := LoadState(ctx, e.store, e.persistSkips)
	if err != nil {
		return fmt.Errorf("load triage state: %w", err)
	}
	e.state = state
	e.scorer = NewScorer(e.snapshot, state)
	e.builder = NewBuilder(e.snapshot, state, e.scorer, e.builder.covers)
	return nil
}

// StartSession loads durable state and resets session-scoped state
// (navigator, undo stack, and - unless persisted - the skip set).
func (e *Engine) StartSession(ctx context.Context) (*Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.reload(ctx); err != nil {
		return nil, err
	}
	e.nav = NewNavigator()
	e.undo.Reset()
	e.tab = domain.TabBooks

	sessionID, err := id.Generate("sess")
	if err != nil {
		return nil, fmt.Errorf("generate session ID: %w", err)
	}
	e.session = &Session{ID: sessionID, StartedAt: time.Now()}

	e.logger.Info("triage session started",
		"session_id", sessionID,
		"marked", len(e.state.Marked),
		"processed", len(e.state.Processed),
		"skipped", e.state.Skips.Len(),
	)

	return e.session, nil
}

// EndSession flushes pending sync work and persists the skip set if
// configured. The engine stays usable; a new StartSession begins a new
// sitting.
func (e *Engine) EndSession(ctx context.Context) error {
	e.mu.Lock()
	session := e.session
	skips := e.state.Skips.Keys()
	e.mu.Unlock()

	// Flush outside the lock: sync jobs call back into the engine to record
	// outcomes, and local decisions must never wait on the network.
	if err := e.sync.FlushAll(ctx); err != nil {
		e.logger.Warn("flush on session end left failures behind", "error", err)
	}

	if e.persistSkips {
		if err := e.store.ClearSkips(ctx); err != nil {
			return fmt.Errorf("clear persisted skips: %w", err)
		}
		for _, key := range skips {
			if err := e.store.AddSkip(ctx, key); err != nil {
				return fmt.Errorf("persist skip %s: %w", key, err)
			}
		}
	}

	if session != nil {
		e.logger.Info("triage session ended",
			"session_id", session.ID,
			"decisions", session.Decisions,
			"duration", time.Since(session.StartedAt).Round(time.Second).String(),
		)
	}
	return nil
}

// Flush pushes all pending and failed sync work now, without ending the
// session.
func (e *Engine) Flush(ctx context.Context) error {
	return e.sync.FlushAll(ctx)
}

// SetTab switches the top-level grouping tab.
func (e *Engine) SetTab(tab domain.Tab) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if tab.IsValid() {
		e.tab = tab
	}
}

// Queue returns the current card queue. Empty means the section is complete.
func (e *Engine) Queue() []domain.Card {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buildQueue()
}

// buildQueue must be called with the lock held.
func (e *Engine) buildQueue() []domain.Card {
	return e.builder.Build(e.nav.Level(), e.tab, e.nav.Context())
}

// Position reports where the user currently stands.
func (e *Engine) Position() domain.NavSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nav.Snapshot()
}

// Back pops one drill-down level. Returns false at top.
func (e *Engine) Back() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nav.Back()
}

// RecordSyncOutcome is called by sync jobs when a remote push settles.
// It updates the in-memory record and the store; records undone while the
// job was in flight are ignored.
func (e *Engine) RecordSyncOutcome(ctx context.Context, bookID string, state domain.SyncState) {
	e.mu.Lock()
	if rec, ok := e.state.Marked[bookID]; ok {
		rec.SyncState = state
	}
	e.mu.Unlock()

	if err := e.store.SetSyncState(ctx, bookID, state); err != nil {
		e.logger.Warn("persist sync state", "book_id", bookID, "error", err)
	}
}

// Stats are the aggregate counters surfaced to the client. Sync failures
// appear only here, as a count - they never interrupt the triage flow.
type Stats struct {
	SessionID      string    `json:"session_id,omitempty"`
	StartedAt      time.Time `json:"started_at,omitzero"`
	Decisions      int       `json:"decisions"`
	Marked         int       `json:"marked"`     // records whose book still resolves
	Unresolved     int       `json:"unresolved"` // records pointing at vanished books
	Skipped        int       `json:"skipped"`
	Processed      int       `json:"processed"`
	PendingSync    int       `json:"pending_sync"`
	FailedSync     int       `json:"failed_sync"`
	Synced         int       `json:"synced"`
	UndoDepth      int       `json:"undo_depth"`
	QueueRemaining int       `json:"queue_remaining"`
}

// Stats computes the current counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	stats := Stats{
		Skipped:   e.state.Skips.Len(),
		Processed: len(e.state.Processed),
		UndoDepth: e.undo.Len(),
	}
	if e.session != nil {
		stats.SessionID = e.session.ID
		stats.StartedAt = e.session.StartedAt
		stats.Decisions = e.session.Decisions
	}

	for bookID, rec := range e.state.Marked {
		if e.snapshot.Resolve(bookID) == nil {
			// Kept, but excluded from user-facing counts until the catalog
			// resolves the book again.
			stats.Unresolved++
			continue
		}
		stats.Marked++
		switch rec.SyncState {
		case domain.SyncPending:
			stats.PendingSync++
		case domain.SyncFailed:
			stats.FailedSync++
		case domain.SyncSynced:
			stats.Synced++
		}
	}

	stats.QueueRemaining = len(e.buildQueue())
	return stats
}

// Score exposes affinity for a group key. Mostly for the API surface and tests.
func (e *Engine) Score(groupKey string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scorer.Score(groupKey)
}
