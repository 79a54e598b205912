// Package dashboard renders the latest poll cycle as an auto-refreshing HTML
// page with charts, and serves it together with a small JSON API.
package dashboard

import (
	"fmt"
	"html/template"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/klytics/countboard/internal/dynamics"
	"github.com/klytics/countboard/internal/groups"
	"github.com/klytics/countboard/internal/poller"
	"github.com/klytics/countboard/internal/tracker"
	"github.com/klytics/countboard/internal/watch"
)

// Options controls page layout.
type Options struct {
	Title      string
	Columns    int
	Refresh    time.Duration
	Window     time.Duration
	Categories []string
	PieSize    int
	BarHeight  int
	// Logger receives chart failures. Nil discards them.
	Logger *log.Logger
	// WatchEvents lists recent workbook file events for /api/status.
	WatchEvents func() []watch.Event
}

// Page is the data behind the HTML template.
type Page struct {
	Title    string
	Refresh  int
	Updated  string
	Error    string
	Columns  int
	Rows     [][]GroupView
	Legend   []LegendItem
	Dynamics *DynamicsView
}

// HeaderCell is a header label spanning one or more columns.
type HeaderCell struct {
	Label string
	Span  int
}

// CellView is one rendered table cell.
type CellView struct {
	Text    string
	Changed bool
	Title   string
}

// GroupView is one group's table and proportion chart.
type GroupView struct {
	Name      string
	Header    []HeaderCell
	Subheader []string
	Rows      [][]CellView
	Shares    []dynamics.Share
	Chart     template.HTML
}

// DynamicsView is the delta table and its bar chart.
type DynamicsView struct {
	Categories []string
	Rows       []DeltaRow
	Chart      template.HTML
}

// DeltaRow is one group's line of the delta table.
type DeltaRow struct {
	Group  string
	Values []string
}

func (o Options) withDefaults() Options {
	if o.Title == "" {
		o.Title = "countboard"
	}
	if o.Columns <= 0 {
		o.Columns = 4
	}
	if o.Refresh <= 0 {
		o.Refresh = poller.DefaultInterval
	}
	if o.Window <= 0 {
		o.Window = tracker.DefaultWindow
	}
	if o.PieSize <= 0 {
		o.PieSize = 320
	}
	if o.BarHeight <= 0 {
		o.BarHeight = 400
	}
	return o
}

// BuildPage turns a cycle into template data. A nil or failed cycle yields a
// page with only the error banner.
func BuildPage(c *poller.Cycle, opts Options) Page {
	opts = opts.withDefaults()

	page := Page{
		Title:   opts.Title,
		Refresh: max(1, int(opts.Refresh.Round(time.Second)/time.Second)),
		Columns: opts.Columns,
		Legend:  legend(opts.Categories),
	}

	switch {
	case c == nil:
		page.Error = "Нет данных для отображения: данные ещё не загружены."
		return page
	case c.Err != nil:
		page.Error = fmt.Sprintf("Нет данных для отображения: %v", c.Err)
		page.Updated = c.Time.Format("15:04:05")
		return page
	}
	page.Updated = c.Time.Format("15:04:05")

	var views []GroupView
	for _, g := range c.Snapshot.Groups {
		views = append(views, buildGroup(g, c, opts))
	}
	for i := 0; i < len(views); i += opts.Columns {
		page.Rows = append(page.Rows, views[i:min(i+opts.Columns, len(views))])
	}

	if len(c.Deltas) > 0 {
		page.Dynamics = buildDynamics(c.Deltas, opts)
	}

	return page
}

func buildGroup(g *groups.Group, c *poller.Cycle, opts Options) GroupView {
	view := GroupView{
		Name:      g.Name,
		Header:    mergeHeader(g.Header),
		Subheader: g.Subheader,
	}

	for i, row := range g.Rows {
		cells := make([]CellView, len(row.Cells))
		for j, v := range row.Cells {
			cells[j].Text = v.String()
			coord := tracker.Coord{Group: g.Name, Row: i, Col: j}
			if c.Changed.Has(coord) {
				cells[j].Changed = true
				cells[j].Title = changeTitle(c.History[coord], opts.Window)
			}
		}
		view.Rows = append(view.Rows, cells)
	}

	if shares, ok := dynamics.Shares(g, opts.Categories); ok {
		view.Shares = shares
		svg, err := pieSVG(shares, opts.PieSize)
		if err != nil {
			logf(opts.Logger, "Group %s: %v", g.Name, err)
		} else {
			view.Chart = svg
		}
	}

	return view
}

func buildDynamics(deltas []dynamics.Delta, opts Options) *DynamicsView {
	view := &DynamicsView{Categories: opts.Categories}
	for _, d := range deltas {
		row := DeltaRow{Group: d.Group}
		for _, v := range d.Values {
			row.Values = append(row.Values, strconv.FormatFloat(v, 'f', -1, 64))
		}
		view.Rows = append(view.Rows, row)
	}

	svg, err := barSVG(deltas, len(opts.Categories), opts.BarHeight)
	if err != nil {
		logf(opts.Logger, "Dynamics: %v", err)
	} else {
		view.Chart = svg
	}
	return view
}

// mergeHeader collapses empty labels into the span of the label before them.
func mergeHeader(header []string) []HeaderCell {
	var cells []HeaderCell
	for i, h := range header {
		if h == "" && i > 0 {
			cells[len(cells)-1].Span++
			continue
		}
		cells = append(cells, HeaderCell{Label: h, Span: 1})
	}
	return cells
}

func changeTitle(history []tracker.Change, window time.Duration) string {
	if len(history) == 0 {
		return ""
	}
	last := history[len(history)-1]
	return fmt.Sprintf("изменено %d раз за %s, последнее в %s",
		len(history), shortDuration(window), last.At.Format("15:04:05"))
}

// shortDuration prints 24h0m0s as 24h and 1h30m0s as 1h30m.
func shortDuration(d time.Duration) string {
	s := d.String()
	if strings.HasSuffix(s, "m0s") {
		s = strings.TrimSuffix(s, "0s")
	}
	if strings.HasSuffix(s, "h0m") {
		s = strings.TrimSuffix(s, "0m")
	}
	return s
}

func logf(l *log.Logger, format string, args ...any) {
	if l != nil {
		l.Printf(format, args...)
	}
}
