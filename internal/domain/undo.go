package domain

import "time"

// UndoKind discriminates what effect an undo entry reverses.
// New undo-able actions extend this variant; each kind gets exactly one
// reversal handler in the engine's dispatch switch.
type UndoKind string

const (
	UndoMark     UndoKind = "mark"      // reverse: delete the decision records
	UndoUnmark   UndoKind = "unmark"    // reverse: re-insert records, re-sync
	UndoBulkMark UndoKind = "bulk-mark" // reverse: delete all records in the batch
	UndoSkip     UndoKind = "skip"      // reverse: remove the ids from the skip set
	UndoNavigate UndoKind = "navigate"  // reverse: restore the prior nav position
)

// UndoEntry is one reversible effect on the LIFO undo stack. Heterogeneous
// effects share this shape; AffectedIDs and NavBefore are interpreted per kind.
type UndoEntry struct {
	Kind        UndoKind    `json:"kind"`
	AffectedIDs []string    `json:"affected_ids,omitempty"`
	GroupKey    string      `json:"group_key,omitempty"` // bulk marks only
	Label       string      `json:"label"`
	CreatedAt   time.Time   `json:"created_at"`
	NavBefore   NavSnapshot `json:"nav_before"`
}

// Expired reports whether the entry has outlived the given time-to-live.
// A zero ttl means entries never expire.
func (e *UndoEntry) Expired(ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return time.Since(e.CreatedAt) > ttl
}
