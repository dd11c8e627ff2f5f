// Package domain contains the core entities for the ListenUp finished-book triage engine.
package domain

// Book is a read-only catalog entry. The catalog index owns these; the triage
// engine never mutates them, it only decides what to do with them.
type Book struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Series   string   `json:"series,omitempty"`
	Sequence *float64 `json:"sequence,omitempty"` // nil means "not part of a numbered run"
	Duration int64    `json:"duration"`           // total length in milliseconds
	Genres   []string `json:"genres,omitempty"`
}

// HasSeries reports whether the book belongs to a named series.
func (b *Book) HasSeries() bool {
	return b.Series != ""
}

// HasSequence reports whether the book carries a series sequence number.
func (b *Book) HasSequence() bool {
	return b.Sequence != nil
}
