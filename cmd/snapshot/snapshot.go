// Package snapshot provides the "countboard snapshot" command: one read of the
// workbook printed as tables, JSON or YAML.
package snapshot

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/countboard/internal/config"
	"github.com/klytics/countboard/internal/dashboard"
	"github.com/klytics/countboard/internal/dynamics"
	"github.com/klytics/countboard/internal/groups"
	"github.com/klytics/countboard/internal/output"
	"github.com/klytics/countboard/internal/poller"
	"github.com/klytics/countboard/internal/progress"
)

// NewCommand creates the "snapshot" command.
func NewCommand() *cobra.Command {
	var (
		yamlOut bool
		group   string
		pager   bool
	)

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Read the workbook once and print its groups",
		Long: `Read the workbook once, parse it into groups and print every group's
table with its category shares. Exits non-zero when the workbook cannot be
read, holds no groups or has a malformed group header.

Example:
  countboard snapshot --workbook report.xlsx
  countboard snapshot --group Alpha
  countboard snapshot --json | jq '.data.groups[].name'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")

			cfg, err := config.Current()
			if err != nil {
				return err
			}
			p, err := poller.FromConfig(cfg, nil)
			if err != nil {
				return err
			}

			spin := progress.NewSpinner("Reading "+cfg.Workbook, jsonFlag || yamlOut)
			spin.Start()
			c := p.Cycle(cmd.Context())
			if c.Err != nil {
				spin.Stop("", false)
				return c.Err
			}
			spin.Stop("", true)
			categories := p.Config.Layout.Categories

			if group != "" {
				g, ok := c.Snapshot.Get(group)
				if !ok {
					return fmt.Errorf("no group %q in workbook (have: %s)", group, strings.Join(c.Snapshot.Names(), ", "))
				}
				snap := groups.NewSnapshot()
				snap.Put(g)
				c.Snapshot = snap

				var deltas []dynamics.Delta
				for _, d := range c.Deltas {
					if d.Group == group {
						deltas = append(deltas, d)
					}
				}
				c.Deltas = deltas
			}

			view := dashboard.NewSnapshotView(c, categories)
			switch {
			case jsonFlag:
				return output.PrintJSON("snapshot", view)
			case yamlOut:
				return output.NewWriter(output.FormatYAML).WriteValue(view)
			}

			text := render(c.Snapshot, categories)
			if pager && output.ShouldPage(text, 40) {
				return output.Page(text)
			}
			return output.NewWriter(output.FormatText).WriteText(text)
		},
	}

	cmd.Flags().BoolVar(&yamlOut, "yaml", false, "Output as YAML")
	cmd.Flags().StringVar(&group, "group", "", "Print only the named group")
	cmd.Flags().BoolVar(&pager, "pager", false, "Page long output through $PAGER")

	return cmd
}

func render(snap *groups.Snapshot, categories []string) string {
	headerStyle := color.New(color.Bold, color.FgCyan)
	totalsStyle := color.New(color.Bold)
	dim := color.New(color.FgHiBlack)

	var out bytes.Buffer
	for _, g := range snap.Groups {
		headerStyle.Fprintf(&out, "%s\n", g.Name)

		var table bytes.Buffer
		w := tabwriter.NewWriter(&table, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  "+strings.Join(g.Header, "\t"))
		fmt.Fprintln(w, "  "+strings.Join(g.Subheader, "\t"))
		for _, row := range g.Rows {
			cells := make([]string, len(row.Cells))
			for i, v := range row.Cells {
				cells[i] = v.String()
			}
			fmt.Fprintln(w, "  "+strings.Join(cells, "\t"))
		}
		w.Flush()

		lines := strings.Split(strings.TrimRight(table.String(), "\n"), "\n")
		for i, line := range lines {
			switch {
			case i < 2:
				dim.Fprintln(&out, line)
			case g.Rows[i-2].Totals:
				totalsStyle.Fprintln(&out, line)
			default:
				fmt.Fprintln(&out, line)
			}
		}

		if shares, ok := dynamics.Shares(g, categories); ok {
			var parts []string
			for _, s := range shares {
				parts = append(parts, fmt.Sprintf("%s %.1f%%", s.Category, s.Percent))
			}
			dim.Fprintf(&out, "  Shares: %s\n", strings.Join(parts, ", "))
		}
		fmt.Fprintln(&out)
	}
	return out.String()
}
