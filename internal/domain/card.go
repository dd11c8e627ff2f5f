package domain

// CardKind discriminates what a queue card stands for.
type CardKind string

const (
	CardBook        CardKind = "book"
	CardAuthorGroup CardKind = "author-group"
	CardSeriesGroup CardKind = "series-group"
)

// IsGroup reports whether the card represents an author or series group.
func (k CardKind) IsGroup() bool {
	return k == CardAuthorGroup || k == CardSeriesGroup
}

// Card is one unit of the triage queue: a single book, or a drillable group.
// Cards are projections - built on demand, never persisted.
type Card struct {
	Kind      CardKind `json:"kind"`
	ID        string   `json:"id"` // book ID, or the group's author/series name
	Title     string   `json:"title"`
	Subtitle  string   `json:"subtitle,omitempty"`
	Count     int      `json:"count,omitempty"`      // remaining unmarked members, groups only
	MemberIDs []string `json:"member_ids,omitempty"` // groups only
	CoverURL  string   `json:"cover_url,omitempty"`
}

// GroupKey returns the key used for affinity scoring and processed markers.
// For book cards this is empty; books are keyed by ID, not by group.
func (c *Card) GroupKey() string {
	if c.Kind.IsGroup() {
		return c.ID
	}
	return ""
}
