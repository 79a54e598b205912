// Package dynamics computes the "daily dynamics" view: how far each group's
// totals have moved since the process first saw them, and the share of each
// category in a group's totals.
package dynamics

import (
	"github.com/klytics/countboard/internal/groups"
)

// Delta is the movement of one group's totals since its baseline.
type Delta struct {
	Group  string    `json:"group" yaml:"group"`
	Values []float64 `json:"values" yaml:"values"`
}

// Baseline remembers the first totals row seen for every group. Entries are
// never replaced, so deltas run from process start.
type Baseline struct {
	categories int
	initial    map[string][]groups.Value
}

// NewBaseline creates an empty baseline for the given number of categories.
func NewBaseline(categories int) *Baseline {
	return &Baseline{
		categories: categories,
		initial:    make(map[string][]groups.Value),
	}
}

// Observe records baselines for groups seen for the first time and returns the
// deltas for every group in snap that has a totals row.
func (b *Baseline) Observe(snap *groups.Snapshot) []Delta {
	if snap == nil {
		return nil
	}

	var deltas []Delta
	for _, g := range snap.Groups {
		totals, ok := g.Totals()
		if !ok {
			continue
		}
		current := counters(totals)
		initial, seen := b.initial[g.Name]
		if !seen {
			initial = append([]groups.Value(nil), current...)
			b.initial[g.Name] = initial
		}

		d := Delta{Group: g.Name, Values: make([]float64, b.categories)}
		for i := 0; i < b.categories && i < len(current) && i < len(initial); i++ {
			cur, ok1 := current[i].Float()
			ini, ok2 := initial[i].Float()
			if ok1 && ok2 {
				d.Values[i] = cur - ini
			}
		}
		deltas = append(deltas, d)
	}
	return deltas
}

// Initial returns the stored baseline counters for a group.
func (b *Baseline) Initial(group string) ([]groups.Value, bool) {
	v, ok := b.initial[group]
	if !ok {
		return nil, false
	}
	return append([]groups.Value(nil), v...), true
}

// Len returns the number of groups with a baseline.
func (b *Baseline) Len() int { return len(b.initial) }

// counters strips the totals label from a totals row.
func counters(r groups.Row) []groups.Value {
	if len(r.Cells) == 0 {
		return nil
	}
	return r.Cells[1:]
}
