package triage

import (
	"time"

	"github.com/listenupapp/listenup-triage/internal/domain"
)

// UndoStack is the append-only log of reversible effects, newest on top.
// By default it keeps unlimited session history. With a ttl configured, only
// an unexpired top entry can be popped; reversal semantics per entry kind
// are unchanged either way. The reversal itself lives in the engine - the
// stack just owns ordering and expiry.
type UndoStack struct {
	entries []domain.UndoEntry
	ttl     time.Duration
}

// NewUndoStack creates an undo stack. ttl of zero means entries never expire.
func NewUndoStack(ttl time.Duration) *UndoStack {
	return &UndoStack{ttl: ttl}
}

// Push appends an entry.
func (u *UndoStack) Push(entry domain.UndoEntry) {
	u.entries = append(u.entries, entry)
}

// Pop removes and returns the most recent entry.
// Returns false if the stack is empty or the top entry has expired; an
// expired entry stays put, it just can no longer be reversed.
func (u *UndoStack) Pop() (domain.UndoEntry, bool) {
	if len(u.entries) == 0 {
		return domain.UndoEntry{}, false
	}

	top := u.entries[len(u.entries)-1]
	if top.Expired(u.ttl) {
		return domain.UndoEntry{}, false
	}

	u.entries = u.entries[:len(u.entries)-1]
	return top, true
}

// Peek returns the most recent entry without removing it.
func (u *UndoStack) Peek() (domain.UndoEntry, bool) {
	if len(u.entries) == 0 {
		return domain.UndoEntry{}, false
	}
	return u.entries[len(u.entries)-1], true
}

// Len returns the number of entries on the stack.
func (u *UndoStack) Len() int {
	return len(u.entries)
}

// Reset drops all entries. Called on session start.
func (u *UndoStack) Reset() {
	u.entries = nil
}
