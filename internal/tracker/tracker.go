// Package tracker detects cell-level changes between consecutive snapshots and
// keeps a rolling per-cell change history.
package tracker

import (
	"fmt"
	"sort"
	"time"

	"github.com/klytics/countboard/internal/groups"
)

// DefaultWindow is how long change history is retained.
const DefaultWindow = 24 * time.Hour

// Coord addresses one cell: group, row within the group, column within the row.
// It is only meaningful while row and column counts stay stable.
type Coord struct {
	Group string `json:"group"`
	Row   int    `json:"row"`
	Col   int    `json:"col"`
}

func (c Coord) String() string {
	return fmt.Sprintf("%s[%d,%d]", c.Group, c.Row, c.Col)
}

// Change is one recorded value change.
type Change struct {
	At    time.Time    `json:"at"`
	Value groups.Value `json:"value"`
}

// ChangeSet is the set of cells that changed in the most recent comparison.
type ChangeSet map[Coord]struct{}

// Has reports whether c changed.
func (s ChangeSet) Has(c Coord) bool {
	_, ok := s[c]
	return ok
}

// Len returns the number of changed cells.
func (s ChangeSet) Len() int { return len(s) }

// Sorted returns the changed cells ordered by group, row, column.
func (s ChangeSet) Sorted() []Coord {
	out := make([]Coord, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Group != b.Group {
			return a.Group < b.Group
		}
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		return a.Col < b.Col
	})
	return out
}

// Tracker holds the previous snapshot and the change history. It is not safe
// for concurrent use; the poll loop is its only caller.
type Tracker struct {
	Window time.Duration

	previous *groups.Snapshot
	history  map[Coord][]Change
}

// New creates a Tracker. A non-positive window falls back to DefaultWindow.
func New(window time.Duration) *Tracker {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Tracker{
		Window:  window,
		history: make(map[Coord][]Change),
	}
}

// Track compares next against the previous snapshot, records history for
// every changed cell and makes next the new previous snapshot.
func (t *Tracker) Track(next *groups.Snapshot, now time.Time) ChangeSet {
	t.Prune(now)

	changed := make(ChangeSet)
	if t.previous != nil && next != nil {
		for _, g := range next.Groups {
			old, ok := t.previous.Get(g.Name)
			if !ok {
				continue
			}
			t.diffGroup(g, old, now, changed)
		}
	}

	t.previous = next
	return changed
}

func (t *Tracker) diffGroup(cur, old *groups.Group, now time.Time, changed ChangeSet) {
	rows := min(len(cur.Rows), len(old.Rows))
	for i := 0; i < rows; i++ {
		newCells, oldCells := cur.Rows[i].Cells, old.Rows[i].Cells
		cols := min(len(newCells), len(oldCells))
		for j := 0; j < cols; j++ {
			if newCells[j] == oldCells[j] {
				continue
			}
			c := Coord{Group: cur.Name, Row: i, Col: j}
			changed[c] = struct{}{}
			t.history[c] = append(t.history[c], Change{At: now, Value: newCells[j]})
		}
	}
}

// Prune drops history entries that are at least Window old and forgets cells
// with no history left.
func (t *Tracker) Prune(now time.Time) {
	for c, changes := range t.history {
		kept := changes[:0]
		for _, ch := range changes {
			if now.Sub(ch.At) < t.Window {
				kept = append(kept, ch)
			}
		}
		if len(kept) == 0 {
			delete(t.history, c)
			continue
		}
		t.history[c] = kept
	}
}

// History returns a copy of the recorded changes for c, oldest first.
func (t *Tracker) History(c Coord) []Change {
	return append([]Change(nil), t.history[c]...)
}

// HistoryLen returns the number of cells with retained history.
func (t *Tracker) HistoryLen() int { return len(t.history) }

// Previous returns the retained snapshot, or nil before the first Track.
func (t *Tracker) Previous() *groups.Snapshot { return t.previous }
