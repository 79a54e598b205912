package dynamics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klytics/countboard/internal/groups"
)

func totalsGroup(name string, vals ...groups.Value) *groups.Group {
	cells := append([]groups.Value{groups.Text("ИТОГО")}, vals...)
	return &groups.Group{
		Name: name,
		Rows: []groups.Row{
			{Cells: []groups.Value{groups.Text("01.10"), groups.Number(1)}},
			{Cells: cells, Totals: true},
		},
	}
}

func nums(ns ...float64) []groups.Value {
	out := make([]groups.Value, len(ns))
	for i, n := range ns {
		out[i] = groups.Number(n)
	}
	return out
}

func snap(gs ...*groups.Group) *groups.Snapshot {
	s := groups.NewSnapshot()
	for _, g := range gs {
		s.Put(g)
	}
	return s
}

func TestFirstObservationYieldsZeroDeltas(t *testing.T) {
	b := NewBaseline(6)
	deltas := b.Observe(snap(totalsGroup("A", nums(4, 4, 3, 1, 2, 8)...)))

	require.Len(t, deltas, 1)
	assert.Equal(t, Delta{Group: "A", Values: []float64{0, 0, 0, 0, 0, 0}}, deltas[0])

	initial, ok := b.Initial("A")
	require.True(t, ok)
	assert.Equal(t, nums(4, 4, 3, 1, 2, 8), initial)
}

func TestDeltasAgainstLifetimeBaseline(t *testing.T) {
	b := NewBaseline(6)
	b.Observe(snap(totalsGroup("A", nums(4, 4, 3, 1, 2, 8)...)))
	b.Observe(snap(totalsGroup("A", nums(5, 4, 3, 1, 2, 8)...)))
	deltas := b.Observe(snap(totalsGroup("A", nums(7, 4, 1, 1, 2, 10)...)))

	require.Len(t, deltas, 1)
	assert.Equal(t, []float64{3, 0, -2, 0, 0, 2}, deltas[0].Values)

	initial, _ := b.Initial("A")
	assert.Equal(t, nums(4, 4, 3, 1, 2, 8), initial, "baseline is never replaced")
}

func TestDeltaWithEmptyCellsIsZero(t *testing.T) {
	b := NewBaseline(3)
	b.Observe(snap(totalsGroup("A", groups.Empty(), groups.Number(1), groups.Number(1))))
	deltas := b.Observe(snap(totalsGroup("A", groups.Number(5), groups.Empty(), groups.Number(4))))

	assert.Equal(t, []float64{0, 0, 3}, deltas[0].Values)
}

func TestShortTotalsRowIsPadded(t *testing.T) {
	b := NewBaseline(6)
	deltas := b.Observe(snap(totalsGroup("A", nums(1, 2)...)))
	assert.Len(t, deltas[0].Values, 6)
}

func TestGroupsWithoutTotalsAreSkipped(t *testing.T) {
	b := NewBaseline(6)
	g := &groups.Group{Name: "NoTotals", Rows: []groups.Row{{Cells: nums(1, 2)}}}
	deltas := b.Observe(snap(g, totalsGroup("B", nums(1, 1, 1, 1, 1, 1)...)))

	require.Len(t, deltas, 1)
	assert.Equal(t, "B", deltas[0].Group)
	assert.Equal(t, 1, b.Len())
}

func TestLateGroupGetsOwnBaseline(t *testing.T) {
	b := NewBaseline(1)
	b.Observe(snap(totalsGroup("A", nums(1)...)))
	deltas := b.Observe(snap(totalsGroup("A", nums(2)...), totalsGroup("B", nums(10)...)))

	require.Len(t, deltas, 2)
	assert.Equal(t, []float64{1}, deltas[0].Values)
	assert.Equal(t, []float64{0}, deltas[1].Values)
}

func TestObserveNil(t *testing.T) {
	assert.Nil(t, NewBaseline(6).Observe(nil))
}
