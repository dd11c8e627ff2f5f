// Package syncer propagates finished-state decisions to the remote library
// in the background. Local triage never waits on it: jobs are fire-and-forget,
// failures are recorded and retried on flush, and the newest desired state
// for a book always wins over anything still in flight.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/listenupapp/listenup-triage/internal/domain"
)

// Sink is the remote side of the sync engine.
type Sink interface {
	MarkFinished(ctx context.Context, bookID string) error
	MarkNotStarted(ctx context.Context, bookID string) error
}

// OutcomeRecorder receives the settled result of each push. Implemented by
// the triage engine; it tolerates books whose records have since been undone.
type OutcomeRecorder interface {
	RecordSyncOutcome(ctx context.Context, bookID string, state domain.SyncState)
}

// Syncer runs remote pushes with bounded concurrency. One book has at most
// one push in flight; a newer Enqueue for the same book supersedes the
// in-flight one rather than racing it.
type Syncer struct {
	sink     Sink
	recorder OutcomeRecorder
	logger   *slog.Logger

	sem     chan struct{}
	timeout time.Duration

	mu       sync.Mutex
	inflight map[string]bool // bookID -> desired finished state being pushed
	dirty    map[string]bool // superseding state arrived mid-flight
	failed   map[string]bool // bookID -> desired state that last failed
	wg       sync.WaitGroup

	baseCtx context.Context
	cancel  context.CancelFunc
}

// New creates a syncer. The outcome recorder is attached separately via
// SetRecorder: the triage engine both feeds this syncer and receives its
// outcomes, so one of the two references has to bind late. maxConcurrent
// bounds simultaneous remote calls; values below 1 are clamped to 1.
func New(sink Sink, maxConcurrent int, timeout time.Duration, logger *slog.Logger) *Syncer {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Syncer{
		sink:     sink,
		logger:   logger,
		sem:      make(chan struct{}, maxConcurrent),
		timeout:  timeout,
		inflight: make(map[string]bool),
		dirty:    make(map[string]bool),
		failed:   make(map[string]bool),
		baseCtx:  ctx,
		cancel:   cancel,
	}
}

// SetRecorder attaches the outcome recorder. Must be called before the
// first Enqueue.
func (s *Syncer) SetRecorder(r OutcomeRecorder) {
	s.recorder = r
}

// Enqueue schedules a push of the desired finished state for a book and
// returns immediately. If a push for the book is already in flight the new
// state is parked and runs when the current one settles; duplicate states
// collapse.
func (s *Syncer) Enqueue(bookID string, finished bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A stale failure for this book is obsolete the moment a new state is
	// scheduled.
	delete(s.failed, bookID)

	if current, busy := s.inflight[bookID]; busy {
		if current == finished {
			delete(s.dirty, bookID) // the in-flight push already carries this state
			return
		}
		s.dirty[bookID] = finished
		return
	}

	s.inflight[bookID] = finished
	s.wg.Add(1)
	go s.run(bookID, finished)
}

// run executes one push and then drains any state that superseded it.
func (s *Syncer) run(bookID string, finished bool) {
	defer s.wg.Done()

	s.sem <- struct{}{}
	err := s.push(bookID, finished)
	<-s.sem

	s.mu.Lock()
	if next, ok := s.dirty[bookID]; ok {
		// Superseded mid-flight; the outcome of the old state is irrelevant.
		delete(s.dirty, bookID)
		s.inflight[bookID] = next
		s.wg.Add(1)
		s.mu.Unlock()
		go s.run(bookID, next)
		return
	}
	delete(s.inflight, bookID)
	if err != nil {
		s.failed[bookID] = finished
	}
	s.mu.Unlock()

	s.settle(bookID, finished, err)
}

// push performs the remote call under the per-job timeout.
func (s *Syncer) push(bookID string, finished bool) error {
	ctx, cancel := context.WithTimeout(s.baseCtx, s.timeout)
	defer cancel()

	if finished {
		return s.sink.MarkFinished(ctx, bookID)
	}
	return s.sink.MarkNotStarted(ctx, bookID)
}

// settle reports the outcome. Only pushes of the finished state touch the
// decision record's sync state; a not-started push has no record to stamp.
func (s *Syncer) settle(bookID string, finished bool, err error) {
	if err != nil {
		s.logger.Warn("remote sync failed",
			"book_id", bookID, "finished", finished, "error", err)
		if finished && s.recorder != nil {
			s.recorder.RecordSyncOutcome(s.baseCtx, bookID, domain.SyncFailed)
		}
		return
	}
	s.logger.Debug("remote sync ok", "book_id", bookID, "finished", finished)
	if finished && s.recorder != nil {
		s.recorder.RecordSyncOutcome(s.baseCtx, bookID, domain.SyncSynced)
	}
}

// Pending reports how many pushes are in flight or parked.
func (s *Syncer) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inflight) + len(s.dirty)
}

// Failed returns the book IDs whose last push failed.
func (s *Syncer) Failed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.failed))
	for id := range s.failed {
		ids = append(ids, id)
	}
	return ids
}

// FlushAll waits for everything in flight, then retries every failed push
// once, concurrently. Remaining failures come back as a single error; they
// stay recorded for the next flush.
func (s *Syncer) FlushAll(ctx context.Context) error {
	// Fast path: nothing in flight or parked means the failed map is final
	// and there is nothing to wait on.
	if s.Pending() > 0 {
		done := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	} else {
		s.wg.Wait()
	}

	s.mu.Lock()
	retries := make(map[string]bool, len(s.failed))
	for id, finished := range s.failed {
		retries[id] = finished
	}
	s.mu.Unlock()

	if len(retries) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cap(s.sem))
	var (
		mu        sync.Mutex
		remaining int
	)
	for id, finished := range retries {
		g.Go(func() error {
			var err error
			if finished {
				err = s.sink.MarkFinished(gctx, id)
			} else {
				err = s.sink.MarkNotStarted(gctx, id)
			}
			s.mu.Lock()
			if err == nil {
				delete(s.failed, id)
			}
			s.mu.Unlock()
			s.settle(id, finished, err)
			if err != nil {
				mu.Lock()
				remaining++
				mu.Unlock()
			}
			return nil // keep retrying the rest even when one fails
		})
	}
	_ = g.Wait()

	if remaining > 0 {
		return fmt.Errorf("%d sync push(es) still failing after retry", remaining)
	}
	return nil
}

// Close stops issuing new remote calls and waits for in-flight ones.
func (s *Syncer) Close() error {
	s.cancel()
	s.wg.Wait()
	return nil
}
