package dashboard

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/klytics/countboard/internal/dynamics"
)

// palette colours categories in order. Hex without the leading '#'.
var palette = []string{"1f77b4", "ff7f0e", "2ca02c", "d62728", "9467bd", "8c564b", "e377c2", "7f7f7f"}

func categoryColor(i int) string {
	return palette[i%len(palette)]
}

// LegendItem labels one chart colour.
type LegendItem struct {
	Label string
	Color string
}

func legend(categories []string) []LegendItem {
	items := make([]LegendItem, len(categories))
	for i, c := range categories {
		items[i] = LegendItem{Label: c, Color: "#" + categoryColor(i)}
	}
	return items
}

func sliceStyle(i int) chart.Style {
	c := drawing.ColorFromHex(categoryColor(i))
	return chart.Style{
		FillColor:   c,
		StrokeColor: drawing.ColorWhite,
		StrokeWidth: 1,
		FontSize:    10,
		FontColor:   drawing.ColorWhite,
	}
}

// pieSVG draws the proportion chart of one group. Zero slices are left out.
func pieSVG(shares []dynamics.Share, size int) (template.HTML, error) {
	var values []chart.Value
	for i, s := range shares {
		if s.Value == 0 {
			continue
		}
		values = append(values, chart.Value{
			Value: s.Value,
			Label: fmt.Sprintf("%.0f%%", s.Percent),
			Style: sliceStyle(i),
		})
	}
	if len(values) == 0 {
		return "", fmt.Errorf("no non-zero shares")
	}

	pie := chart.PieChart{
		Width:  size,
		Height: size,
		Values: values,
	}

	var buf bytes.Buffer
	if err := pie.Render(chart.SVG, &buf); err != nil {
		return "", fmt.Errorf("could not render pie chart: %w", err)
	}
	return template.HTML(buf.String()), nil
}

const (
	barWidth   = 14
	barSpacing = 4
)

// barSVG draws one bar per category per group, groups side by side. Only the
// first bar of each group carries the group label.
func barSVG(deltas []dynamics.Delta, categories int, height int) (template.HTML, error) {
	var bars []chart.Value
	lo, hi := 0.0, 0.0
	for _, d := range deltas {
		for i := 0; i < categories && i < len(d.Values); i++ {
			v := d.Values[i]
			lo, hi = min(lo, v), max(hi, v)
			label := ""
			if i == 0 {
				label = d.Group
			}
			bars = append(bars, chart.Value{Value: v, Label: label, Style: sliceStyle(i)})
		}
	}
	if len(bars) == 0 {
		return "", fmt.Errorf("no deltas")
	}
	if lo == hi {
		hi = lo + 1
	}

	bc := chart.BarChart{
		Height:       height,
		Width:        max(600, len(bars)*(barWidth+barSpacing)+120),
		BarWidth:     barWidth,
		BarSpacing:   barSpacing,
		UseBaseValue: true,
		BaseValue:    0,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := bc.Render(chart.SVG, &buf); err != nil {
		return "", fmt.Errorf("could not render bar chart: %w", err)
	}
	return template.HTML(buf.String()), nil
}
