package domain

// ViewLevel identifies where the user is in the drill-down hierarchy.
// Exactly one level is active at a time; transitions happen only through
// the navigator.
type ViewLevel string

const (
	LevelTop          ViewLevel = "top"
	LevelAuthorSeries ViewLevel = "author-series" // an author's series listed as groups
	LevelAuthorBooks  ViewLevel = "author-books"  // an author with no series, books directly
	LevelSeriesBooks  ViewLevel = "series-books"  // one series' books
)

// Tab selects the grouping of the top-level queue.
type Tab string

const (
	TabBooks   Tab = "books"
	TabAuthors Tab = "authors"
	TabSeries  Tab = "series"
)

// IsValid checks if the tab is a recognized value.
func (t Tab) IsValid() bool {
	switch t {
	case TabBooks, TabAuthors, TabSeries:
		return true
	default:
		return false
	}
}

// NavContext carries the active grouping identifiers for a drill-down level.
// AuthorKey is set below top; SeriesKey only at the series-books level.
type NavContext struct {
	AuthorKey string `json:"author_key,omitempty"`
	SeriesKey string `json:"series_key,omitempty"`
}

// NavSnapshot captures the full navigator position so an undo can restore it.
type NavSnapshot struct {
	Level       ViewLevel  `json:"level"`
	Context     NavContext `json:"context"`
	Breadcrumbs []string   `json:"breadcrumbs"`
}
