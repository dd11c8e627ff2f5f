package triage

import (
	"context"
	"fmt"
	"time"

	"github.com/listenupapp/listenup-triage/internal/domain"
	domainerrors "github.com/listenupapp/listenup-triage/internal/errors"
)

// Apply processes one decision against the card at the head of the current
// queue. The card the caller saw is re-validated against a fresh build; a
// stale card (queue changed underneath, e.g. a racing undo) is rejected so
// the client re-fetches, never silently applied to the wrong thing.
func (e *Engine) Apply(ctx context.Context, decision domain.Decision) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !decision.Kind.IsValid() {
		return domainerrors.Validationf("unknown decision kind %q", decision.Kind)
	}

	queue := e.buildQueue()
	if len(queue) == 0 {
		return domainerrors.StaleCard("queue is empty")
	}
	head := queue[0]
	if head.Kind != decision.Card.Kind || head.ID != decision.Card.ID {
		return domainerrors.StaleCard(
			fmt.Sprintf("expected %s %q at head, queue has %s %q",
				decision.Card.Kind, decision.Card.ID, head.Kind, head.ID))
	}

	switch decision.Kind {
	case domain.DecisionClassify:
		return e.classify(ctx, head)
	case domain.DecisionSkip:
		return e.skip(ctx, head)
	case domain.DecisionDefer:
		return e.deferToLater(head)
	}
	return nil
}

// classify is the affirmative path. Book cards become pending decision
// records; group cards become a drill-down instead of a mutation.
func (e *Engine) classify(ctx context.Context, card domain.Card) error {
	if card.Kind.IsGroup() {
		return e.drill(ctx, card)
	}

	book := e.snapshot.Resolve(card.ID)
	if book == nil {
		return domainerrors.NotFoundf("book %s not in catalog", card.ID)
	}

	rec := domain.NewDecisionRecord(book.ID, domain.OriginSingle)
	if err := e.store.PutDecision(ctx, rec); err != nil {
		return fmt.Errorf("persist decision for %s: %w", book.ID, err)
	}
	e.state.Marked[book.ID] = rec

	e.undo.Push(domain.UndoEntry{
		Kind:        domain.UndoMark,
		AffectedIDs: []string{book.ID},
		Label:       fmt.Sprintf("Marked %q finished", book.Title),
		CreatedAt:   time.Now(),
		NavBefore:   e.nav.Snapshot(),
	})
	e.countDecision()

	// Remote propagation is fire-and-forget; the queue advances immediately.
	e.sync.Enqueue(book.ID, true)

	e.logger.Debug("book classified finished", "book_id", book.ID, "title", book.Title)
	return nil
}

// skip removes the card from this pass without recording a judgement.
// Group skips hide the whole group, not its members individually, and stamp
// the group processed so it sinks if the skip set is ever reset.
func (e *Engine) skip(ctx context.Context, card domain.Card) error {
	standalone := card.Kind == domain.CardAuthorGroup && card.Title == StandaloneTitle

	var key string
	switch {
	case card.Kind == domain.CardBook:
		key = SkipBookKey(card.ID)
	case standalone:
		// The synthetic group gets its own key; the author stays visible.
		key = SkipStandaloneKey(card.ID)
	case card.Kind == domain.CardAuthorGroup:
		key = SkipAuthorKey(card.ID)
	case card.Kind == domain.CardSeriesGroup:
		key = SkipSeriesKey(card.ID)
	}

	if card.Kind.IsGroup() && !standalone {
		if err := e.markProcessed(ctx, card.GroupKey()); err != nil {
			return err
		}
	}

	e.state.Skips.Add(key)
	e.undo.Push(domain.UndoEntry{
		Kind:        domain.UndoSkip,
		AffectedIDs: []string{key},
		Label:       fmt.Sprintf("Skipped %q", card.Title),
		CreatedAt:   time.Now(),
		NavBefore:   e.nav.Snapshot(),
	})
	e.countDecision()
	return nil
}

// deferToLater routes a book to the external later queue, then skips it so
// it leaves this pass. Groups cannot be deferred.
func (e *Engine) deferToLater(card domain.Card) error {
	if card.Kind.IsGroup() {
		return domainerrors.Validation("only book cards can be deferred")
	}

	book := e.snapshot.Resolve(card.ID)
	if book == nil {
		return domainerrors.NotFoundf("book %s not in catalog", card.ID)
	}

	if e.later != nil {
		if err := e.later.Enqueue(book); err != nil {
			// Deferral is best-effort; log and fall through to the skip so
			// the queue still advances.
			e.logger.Warn("later queue enqueue failed", "book_id", book.ID, "error", err)
		}
	}

	key := SkipBookKey(book.ID)
	e.state.Skips.Add(key)
	e.undo.Push(domain.UndoEntry{
		Kind:        domain.UndoSkip,
		AffectedIDs: []string{key},
		Label:       fmt.Sprintf("Deferred %q", book.Title),
		CreatedAt:   time.Now(),
		NavBefore:   e.nav.Snapshot(),
	})
	e.countDecision()
	return nil
}

// drill descends into a group card. The group gets a processed marker so it
// sinks in future top-level orderings, and the move is recorded on the undo
// stack so the previous position is restorable.
func (e *Engine) drill(ctx context.Context, card domain.Card) error {
	before := e.nav.Snapshot()

	standalone := card.Kind == domain.CardAuthorGroup && card.Title == StandaloneTitle

	var moved bool
	switch {
	case standalone:
		moved = e.nav.DrillIntoStandalone(card.Title)
	case card.Kind == domain.CardAuthorGroup:
		hasSeries := len(e.snapshot.SeriesOfAuthor(card.ID)) > 0
		moved = e.nav.DrillIntoAuthor(card.ID, card.Title, hasSeries)
	case card.Kind == domain.CardSeriesGroup:
		moved = e.nav.DrillIntoSeries(card.ID, card.Title)
	default:
		return domainerrors.Validationf("cannot drill into %s card", card.Kind)
	}
	if !moved {
		return domainerrors.Conflict(
			fmt.Sprintf("cannot drill into %s from level %s", card.Kind, before.Level))
	}

	// The synthetic standalone group has no top-level ordering to sink in.
	if !standalone {
		if err := e.markProcessed(ctx, card.GroupKey()); err != nil {
			return err
		}
	}

	e.undo.Push(domain.UndoEntry{
		Kind:      domain.UndoNavigate,
		Label:     fmt.Sprintf("Opened %q", card.Title),
		CreatedAt: time.Now(),
		NavBefore: before,
	})
	return nil
}

// MarkAllInGroup bulk-classifies every remaining member of a group card in
// one step. Already-marked members are untouched, which keeps the operation
// idempotent; the single undo entry covers only the books this call marked.
func (e *Engine) MarkAllInGroup(ctx context.Context, card domain.Card) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !card.Kind.IsGroup() {
		return 0, domainerrors.Validation("bulk classify needs a group card")
	}

	origin := domain.OriginBulkAuthor
	if card.Kind == domain.CardSeriesGroup {
		origin = domain.OriginBulkSeries
	}

	var marked []string
	for _, bookID := range card.MemberIDs {
		if e.state.IsMarked(bookID) {
			continue
		}
		if e.snapshot.Resolve(bookID) == nil {
			continue // member vanished from the catalog since the card was built
		}
		rec := domain.NewDecisionRecord(bookID, origin)
		if err := e.store.PutDecision(ctx, rec); err != nil {
			return len(marked), fmt.Errorf("persist decision for %s: %w", bookID, err)
		}
		e.state.Marked[bookID] = rec
		marked = append(marked, bookID)
	}

	if err := e.markProcessed(ctx, card.GroupKey()); err != nil {
		return len(marked), err
	}

	if len(marked) > 0 {
		e.undo.Push(domain.UndoEntry{
			Kind:        domain.UndoBulkMark,
			AffectedIDs: marked,
			GroupKey:    card.GroupKey(),
			Label:       fmt.Sprintf("Marked all of %q finished (%d)", card.Title, len(marked)),
			CreatedAt:   time.Now(),
			NavBefore:   e.nav.Snapshot(),
		})
	}
	e.countDecision()

	for _, bookID := range marked {
		e.sync.Enqueue(bookID, true)
	}

	e.logger.Info("group bulk classified",
		"group", card.GroupKey(), "kind", card.Kind, "marked", len(marked))
	return len(marked), nil
}

// Unmark reverses a classification outside the undo flow, e.g. from the
// stats screen. It produces its own undo entry so the unmark itself is
// reversible.
func (e *Engine) Unmark(ctx context.Context, bookID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.state.Marked[bookID]; !ok {
		return domainerrors.NotFoundf("book %s is not marked finished", bookID)
	}

	if err := e.store.DeleteDecision(ctx, bookID); err != nil {
		return fmt.Errorf("delete decision for %s: %w", bookID, err)
	}
	delete(e.state.Marked, bookID)

	label := fmt.Sprintf("Unmarked %s", bookID)
	if book := e.snapshot.Resolve(bookID); book != nil {
		label = fmt.Sprintf("Unmarked %q", book.Title)
	}
	e.undo.Push(domain.UndoEntry{
		Kind:        domain.UndoUnmark,
		AffectedIDs: []string{bookID},
		Label:       label,
		CreatedAt:   time.Now(),
		NavBefore:   e.nav.Snapshot(),
	})

	e.sync.Enqueue(bookID, false)
	return nil
}

// Undo reverses the most recent reversible action. Returns the reversed
// entry, or a not-found error when the stack is empty or the top entry has
// expired.
func (e *Engine) Undo(ctx context.Context) (*domain.UndoEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.undo.Pop()
	if !ok {
		return nil, domainerrors.NotFound("nothing to undo")
	}

	switch entry.Kind {
	case domain.UndoMark, domain.UndoBulkMark:
		for _, bookID := range entry.AffectedIDs {
			if err := e.store.DeleteDecision(ctx, bookID); err != nil {
				return nil, fmt.Errorf("undo decision for %s: %w", bookID, err)
			}
			delete(e.state.Marked, bookID)
			e.sync.Enqueue(bookID, false)
		}
		if entry.Kind == domain.UndoBulkMark && entry.GroupKey != "" {
			// The bulk mark also stamped the group processed; lift that too.
			if err := e.store.DeleteProcessed(ctx, entry.GroupKey); err != nil {
				e.logger.Warn("remove processed marker", "group", entry.GroupKey, "error", err)
			} else {
				delete(e.state.Processed, entry.GroupKey)
			}
		}

	case domain.UndoUnmark:
		for _, bookID := range entry.AffectedIDs {
			// Fresh pending record: the original sync state is history.
			rec := domain.NewDecisionRecord(bookID, domain.OriginSingle)
			if err := e.store.PutDecision(ctx, rec); err != nil {
				return nil, fmt.Errorf("undo unmark for %s: %w", bookID, err)
			}
			e.state.Marked[bookID] = rec
			e.sync.Enqueue(bookID, true)
		}

	case domain.UndoSkip:
		for _, key := range entry.AffectedIDs {
			e.state.Skips.Remove(key)
		}

	case domain.UndoNavigate:
		// Nothing durable to reverse; the position restore below is the whole effect.

	default:
		return nil, domainerrors.Internalf("unhandled undo kind %q", entry.Kind)
	}

	e.nav.Restore(entry.NavBefore)
	e.logger.Debug("undone", "kind", entry.Kind, "label", entry.Label)
	return &entry, nil
}

// markProcessed stamps a group processed, durably and in the state mirror.
// Re-stamping an already-processed group just refreshes the timestamp.
func (e *Engine) markProcessed(ctx context.Context, groupKey string) error {
	marker := domain.NewProcessedMarker(groupKey)
	if err := e.store.PutProcessed(ctx, marker); err != nil {
		return fmt.Errorf("persist processed marker for %s: %w", groupKey, err)
	}
	e.state.Processed[groupKey] = marker
	return nil
}

// countDecision bumps the session counter, if a session is open.
func (e *Engine) countDecision() {
	if e.session != nil {
		e.session.Decisions++
	}
}
