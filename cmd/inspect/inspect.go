// Package inspect provides the "countboard inspect" interactive REPL command.
package inspect

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/klytics/countboard/internal/config"
	"github.com/klytics/countboard/internal/poller"
	"github.com/klytics/countboard/internal/progress"
	"github.com/klytics/countboard/internal/shell"
)

// NewCommand creates the "inspect" command.
func NewCommand() *cobra.Command {
	var evalCmd string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Explore the workbook interactively",
		Long: `Start an interactive REPL over a live poller. Each 'reload' reads the
workbook again, so changes and their history build up the same way they do
on the dashboard.

Example:
  countboard inspect
  countboard inspect --eval groups`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Current()
			if err != nil {
				return err
			}
			p, err := poller.FromConfig(cfg, nil)
			if err != nil {
				return err
			}

			session := shell.NewSession(p, p.Config.Layout.Categories)
			spin := progress.NewSpinner("Reading "+cfg.Workbook, evalCmd != "")
			spin.Start()
			if c := p.Cycle(cmd.Context()); c.Err != nil {
				spin.Stop(fmt.Sprintf("Initial read failed: %v", c.Err), false)
			} else {
				spin.Stop(fmt.Sprintf("Read %d group(s)", len(c.Snapshot.Groups)), true)
			}

			if evalCmd != "" {
				out, err := session.Eval(cmd.Context(), evalCmd)
				if err != nil {
					return err
				}
				fmt.Print(out)
				return nil
			}
			return session.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&evalCmd, "eval", "", "Run a single command and exit")
	return cmd
}
