package dynamics

import "github.com/klytics/countboard/internal/groups"

// Share is one category's percentage of a group's totals.
type Share struct {
	Category string  `json:"category"`
	Value    float64 `json:"value"`
	Percent  float64 `json:"percent"`
}

// Shares splits the group's totals row into per-category percentages. It
// returns false when the group has no totals row or its counters sum to zero,
// in which case no proportion chart should be drawn.
func Shares(g *groups.Group, categories []string) ([]Share, bool) {
	totals, ok := g.Totals()
	if !ok {
		return nil, false
	}
	values := counters(totals)

	shares := make([]Share, len(categories))
	var sum float64
	for i, name := range categories {
		shares[i].Category = name
		if i < len(values) {
			n, _ := values[i].Float()
			shares[i].Value = n
			sum += n
		}
	}
	if sum == 0 {
		return nil, false
	}
	for i := range shares {
		shares[i].Percent = shares[i].Value / sum * 100
	}
	return shares, true
}
