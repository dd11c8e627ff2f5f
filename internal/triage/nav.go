package triage

import (
	"github.com/listenupapp/listenup-triage/internal/domain"
)

// navFrame is one position in the drill-down hierarchy.
type navFrame struct {
	level domain.ViewLevel
	ctx   domain.NavContext
	title string // breadcrumb label; empty for the top frame
}

// Navigator is the view-level state machine. It holds an explicit frame
// stack: every forward drill pushes, every Back pops, and the frame below
// the top is always the exact position Back returns to. Undo-as-navigation
// falls out of restoring a snapshot.
type Navigator struct {
	frames []navFrame
}

// NewNavigator creates a navigator at the top level.
func NewNavigator() *Navigator {
	return &Navigator{
		frames: []navFrame{{level: domain.LevelTop}},
	}
}

func (n *Navigator) current() navFrame {
	return n.frames[len(n.frames)-1]
}

// Level returns the active view level.
func (n *Navigator) Level() domain.ViewLevel {
	return n.current().level
}

// Context returns the active grouping identifiers.
func (n *Navigator) Context() domain.NavContext {
	return n.current().ctx
}

// Breadcrumbs returns the trail of drill-down titles, outermost first.
// Empty at the top level.
func (n *Navigator) Breadcrumbs() []string {
	crumbs := make([]string, 0, len(n.frames)-1)
	for _, f := range n.frames[1:] {
		crumbs = append(crumbs, f.title)
	}
	return crumbs
}

// Snapshot captures the current position for an undo entry.
func (n *Navigator) Snapshot() domain.NavSnapshot {
	return domain.NavSnapshot{
		Level:       n.Level(),
		Context:     n.Context(),
		Breadcrumbs: n.Breadcrumbs(),
	}
}

// Restore rebuilds the frame stack from a snapshot. Intermediate frames are
// reconstructed from the snapshot's context and breadcrumbs: the only way to
// stand at series-books with two crumbs is through author-series.
func (n *Navigator) Restore(snap domain.NavSnapshot) {
	frames := []navFrame{{level: domain.LevelTop}}

	switch snap.Level {
	case domain.LevelTop:
		// Nothing to rebuild.
	case domain.LevelAuthorSeries, domain.LevelAuthorBooks:
		title := ""
		if len(snap.Breadcrumbs) > 0 {
			title = snap.Breadcrumbs[0]
		}
		frames = append(frames, navFrame{
			level: snap.Level,
			ctx:   domain.NavContext{AuthorKey: snap.Context.AuthorKey},
			title: title,
		})
	case domain.LevelSeriesBooks:
		if snap.Context.AuthorKey != "" && len(snap.Breadcrumbs) == 2 {
			frames = append(frames, navFrame{
				level: domain.LevelAuthorSeries,
				ctx:   domain.NavContext{AuthorKey: snap.Context.AuthorKey},
				title: snap.Breadcrumbs[0],
			})
		}
		title := ""
		if len(snap.Breadcrumbs) > 0 {
			title = snap.Breadcrumbs[len(snap.Breadcrumbs)-1]
		}
		frames = append(frames, navFrame{level: domain.LevelSeriesBooks, ctx: snap.Context, title: title})
	}

	n.frames = frames
}

// DrillIntoAuthor descends from top into an author group. Authors with at
// least one series land on their series listing; authors without go straight
// to their books. Only valid from top; anywhere else it is a no-op.
func (n *Navigator) DrillIntoAuthor(authorKey, title string, hasSeries bool) bool {
	if n.Level() != domain.LevelTop {
		return false
	}

	level := domain.LevelAuthorBooks
	if hasSeries {
		level = domain.LevelAuthorSeries
	}
	n.frames = append(n.frames, navFrame{
		level: level,
		ctx:   domain.NavContext{AuthorKey: authorKey},
		title: title,
	})
	return true
}

// DrillIntoSeries descends into a series, from top or from an author's
// series listing. Context accumulates: the author key, if any, is kept.
func (n *Navigator) DrillIntoSeries(seriesKey, title string) bool {
	cur := n.current()
	if cur.level != domain.LevelTop && cur.level != domain.LevelAuthorSeries {
		return false
	}

	n.frames = append(n.frames, navFrame{
		level: domain.LevelSeriesBooks,
		ctx:   domain.NavContext{AuthorKey: cur.ctx.AuthorKey, SeriesKey: seriesKey},
		title: title,
	})
	return true
}

// DrillIntoStandalone descends from an author's series listing into the
// synthetic "other books" group: the author's books outside any series.
func (n *Navigator) DrillIntoStandalone(title string) bool {
	cur := n.current()
	if cur.level != domain.LevelAuthorSeries {
		return false
	}

	n.frames = append(n.frames, navFrame{
		level: domain.LevelAuthorBooks,
		ctx:   domain.NavContext{AuthorKey: cur.ctx.AuthorKey},
		title: title,
	})
	return true
}

// Back pops one level. Popping past top has no effect and returns false.
func (n *Navigator) Back() bool {
	if len(n.frames) <= 1 {
		return false
	}
	n.frames = n.frames[:len(n.frames)-1]
	return true
}
