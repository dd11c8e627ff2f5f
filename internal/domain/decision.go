package domain

import "time"

// DecisionKind is what the user chose to do with the card in front of them.
type DecisionKind string

const (
	DecisionClassify DecisionKind = "classify" // mark finished, or drill into a group
	DecisionSkip     DecisionKind = "skip"     // leave the queue until reset
	DecisionDefer    DecisionKind = "defer"    // route to the later queue (books only)
)

// IsValid checks if the kind is a recognized value.
func (k DecisionKind) IsValid() bool {
	switch k {
	case DecisionClassify, DecisionSkip, DecisionDefer:
		return true
	default:
		return false
	}
}

// Decision pairs a user choice with the card it was made against. The
// processor re-validates the card against the live queue head before acting.
type Decision struct {
	Kind DecisionKind `json:"kind"`
	Card Card         `json:"card"`
}

// DecisionOrigin records how a book ended up marked finished.
type DecisionOrigin string

const (
	OriginSingle     DecisionOrigin = "single"
	OriginBulkAuthor DecisionOrigin = "bulk-author"
	OriginBulkSeries DecisionOrigin = "bulk-series"
)

// IsValid checks if the origin is a recognized value.
func (o DecisionOrigin) IsValid() bool {
	switch o {
	case OriginSingle, OriginBulkAuthor, OriginBulkSeries:
		return true
	default:
		return false
	}
}

// SyncState tracks how far a decision has propagated to the server.
// Purely informational - it never gates queue membership.
type SyncState string

const (
	SyncPending SyncState = "pending"
	SyncSynced  SyncState = "synced"
	SyncFailed  SyncState = "failed"
)

// DecisionRecord is the durable fact that a book was classified as finished.
// At most one record exists per book; removing the record un-classifies it.
// Local records are the source of truth - the server is eventually informed.
type DecisionRecord struct {
	BookID    string         `json:"book_id"`
	DecidedAt time.Time      `json:"decided_at"`
	Origin    DecisionOrigin `json:"origin"`
	SyncState SyncState      `json:"sync_state"`
}

// NewDecisionRecord creates a pending record for a freshly classified book.
func NewDecisionRecord(bookID string, origin DecisionOrigin) *DecisionRecord {
	return &DecisionRecord{
		BookID:    bookID,
		DecidedAt: time.Now(),
		Origin:    origin,
		SyncState: SyncPending,
	}
}

// ProcessedMarker is a re-ranking hint for an author or series the user has
// drilled into or skipped. It deprioritizes the group in future orderings but
// never excludes it - the group can always resurface.
type ProcessedMarker struct {
	GroupKey    string    `json:"group_key"`
	ProcessedAt time.Time `json:"processed_at"`
}

// NewProcessedMarker creates a marker for the given group, stamped now.
func NewProcessedMarker(groupKey string) *ProcessedMarker {
	return &ProcessedMarker{GroupKey: groupKey, ProcessedAt: time.Now()}
}
