// Package diff provides the "countboard diff" command for comparing two
// versions of the report workbook.
package diff

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/countboard/internal/config"
	"github.com/klytics/countboard/internal/dynamics"
	"github.com/klytics/countboard/internal/formats/xlsx"
	"github.com/klytics/countboard/internal/groups"
	"github.com/klytics/countboard/internal/output"
	"github.com/klytics/countboard/internal/poller"
	"github.com/klytics/countboard/internal/tracker"
)

// CellChange is one cell that differs between the two workbooks.
type CellChange struct {
	tracker.Coord
	Old string `json:"old"`
	New string `json:"new"`
}

// Result is the comparison of two report workbooks.
type Result struct {
	Original string           `json:"original"`
	Revised  string           `json:"revised"`
	Changes  []CellChange     `json:"changes"`
	Added    []string         `json:"added,omitempty"`
	Removed  []string         `json:"removed,omitempty"`
	Deltas   []dynamics.Delta `json:"deltas"`
	Layout   groups.Layout    `json:"-"`
}

// Stats returns a one-line summary.
func (r *Result) Stats() string {
	return fmt.Sprintf("%d cell(s) changed, %d group(s) added, %d group(s) removed",
		len(r.Changes), len(r.Added), len(r.Removed))
}

// NewCommand returns the diff command.
func NewCommand() *cobra.Command {
	var stats bool

	cmd := &cobra.Command{
		Use:   "diff <original.xlsx> <revised.xlsx>",
		Short: "Compare two versions of the report workbook",
		Long: `Parses both workbooks into groups and shows the cells that changed and how
each group's totals moved, the same way the dashboard would between two polls.

Examples:
  countboard diff monday.xlsx tuesday.xlsx
  countboard diff monday.xlsx tuesday.xlsx --stats`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")

			cfg, err := config.Current()
			if err != nil {
				return err
			}
			layout := groups.DefaultLayout()
			if cfg.Layout != "" {
				if layout, err = groups.LoadLayout(cfg.Layout); err != nil {
					return err
				}
			}

			result, err := Compare(cmd.Context(), args[0], args[1], cfg.Sheet, layout)
			if err != nil {
				return err
			}

			if jsonFlag {
				return output.PrintJSON("diff", result)
			}
			if stats {
				fmt.Println(result.Stats())
				return nil
			}
			printColoredDiff(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&stats, "stats", false, "Show only change counts")
	return cmd
}

// Compare reads and parses both workbooks and diffs them.
func Compare(ctx context.Context, original, revised, sheet string, layout groups.Layout) (*Result, error) {
	before, err := read(ctx, original, sheet, layout)
	if err != nil {
		return nil, err
	}
	after, err := read(ctx, revised, sheet, layout)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	tr := tracker.New(0)
	tr.Track(before, now)
	changed := tr.Track(after, now)

	baseline := dynamics.NewBaseline(len(layout.Categories))
	baseline.Observe(before)

	result := &Result{
		Original: original,
		Revised:  revised,
		Deltas:   baseline.Observe(after),
		Layout:   layout,
	}
	for _, c := range changed.Sorted() {
		result.Changes = append(result.Changes, CellChange{
			Coord: c,
			Old:   cellAt(before, c),
			New:   cellAt(after, c),
		})
	}
	for _, name := range after.Names() {
		if _, ok := before.Get(name); !ok {
			result.Added = append(result.Added, name)
		}
	}
	for _, name := range before.Names() {
		if _, ok := after.Get(name); !ok {
			result.Removed = append(result.Removed, name)
		}
	}
	return result, nil
}

func read(ctx context.Context, location, sheet string, layout groups.Layout) (*groups.Snapshot, error) {
	rows, err := (&xlsx.Source{Location: location, Sheet: sheet}).Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", poller.ErrNoData, err)
	}
	snap, err := groups.Parse(rows, layout)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", location, err)
	}
	if snap.Len() == 0 {
		return nil, fmt.Errorf("%w: no groups found in %s", poller.ErrNoData, location)
	}
	return snap, nil
}

func cellAt(snap *groups.Snapshot, c tracker.Coord) string {
	g, ok := snap.Get(c.Group)
	if !ok || c.Row >= len(g.Rows) || c.Col >= len(g.Rows[c.Row].Cells) {
		return ""
	}
	return g.Rows[c.Row].Cells[c.Col].String()
}

func printColoredDiff(r *Result) {
	dim := color.New(color.FgHiBlack)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	cyan := color.New(color.FgCyan)

	red.Printf("--- %s\n", r.Original)
	green.Printf("+++ %s\n", r.Revised)

	group := ""
	for _, c := range r.Changes {
		if c.Group != group {
			group = c.Group
			fmt.Println()
			cyan.Printf("@@ %s @@\n", group)
		}
		fmt.Printf("  [%d,%d] ", c.Row, c.Col)
		red.Printf("%s", orDash(c.Old))
		dim.Print(" -> ")
		green.Printf("%s\n", orDash(c.New))
	}

	for _, name := range r.Added {
		green.Printf("+ group %s\n", name)
	}
	for _, name := range r.Removed {
		red.Printf("- group %s\n", name)
	}

	if len(r.Deltas) > 0 {
		fmt.Println()
		cyan.Println("Totals movement:")
		for _, d := range r.Deltas {
			var parts []string
			for i, v := range d.Values {
				if v != 0 && i < len(r.Layout.Categories) {
					parts = append(parts, fmt.Sprintf("%s %+g", r.Layout.Categories[i], v))
				}
			}
			if len(parts) == 0 {
				dim.Printf("  %s: no movement\n", d.Group)
				continue
			}
			fmt.Printf("  %s: %s\n", d.Group, strings.Join(parts, ", "))
		}
	}

	fmt.Printf("\n%s\n", r.Stats())
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
