// Package cmd contains all CLI commands for the countboard binary.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/klytics/countboard/cmd/completion"
	cmdconfig "github.com/klytics/countboard/cmd/config"
	"github.com/klytics/countboard/cmd/diff"
	"github.com/klytics/countboard/cmd/doctor"
	"github.com/klytics/countboard/cmd/inspect"
	"github.com/klytics/countboard/cmd/serve"
	"github.com/klytics/countboard/cmd/snapshot"
	"github.com/klytics/countboard/cmd/status"
	"github.com/klytics/countboard/cmd/version"
	"github.com/klytics/countboard/internal/config"
	"github.com/klytics/countboard/internal/groups"
	"github.com/klytics/countboard/internal/output"
	"github.com/klytics/countboard/internal/poller"
)

var (
	configFile string
	envFile    string
	jsonOutput bool
	verbose    bool
	noColor    bool
)

// NewRootCommand creates and returns the root cobra command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "countboard",
		Short: "Live dashboard for grouped spreadsheet counters",
		Long: `countboard: live statistics from a shared report workbook.

Polls an .xlsx report on an interval, splits it into groups, highlights the
cells that changed since the last read and serves the result as an
auto-refreshing web dashboard with proportion and daily-dynamics charts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if noColor {
				color.NoColor = true
			}
			if _, err := config.Load(config.Options{ConfigFile: configFile, EnvFile: envFile}); err != nil {
				return err
			}
			if cmd.Flags().Changed("verbose") {
				viper.Set("verbose", verbose)
			}
			return nil
		},
	}

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default ~/.countboard/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load environment from this file (default ./.env if present)")
	rootCmd.PersistentFlags().String("workbook", "", "Workbook path or http(s) URL")
	rootCmd.PersistentFlags().String("sheet", "", "Worksheet name (default: the active sheet)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as machine-readable JSON")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable ANSI color output")

	viper.BindPFlag("workbook", rootCmd.PersistentFlags().Lookup("workbook"))
	viper.BindPFlag("sheet", rootCmd.PersistentFlags().Lookup("sheet"))

	// Register subcommands
	rootCmd.AddCommand(serve.NewCommand())
	rootCmd.AddCommand(snapshot.NewCommand())
	rootCmd.AddCommand(inspect.NewCommand())
	rootCmd.AddCommand(diff.NewCommand())
	rootCmd.AddCommand(status.NewCommand())
	rootCmd.AddCommand(status.NewStopCommand())
	rootCmd.AddCommand(cmdconfig.NewCommand())
	rootCmd.AddCommand(doctor.NewCommand())
	rootCmd.AddCommand(version.NewCommand())
	rootCmd.AddCommand(completion.NewCommand(rootCmd))

	return rootCmd
}

// Execute runs the root command and handles any returned errors.
func Execute() {
	rootCmd := NewRootCommand()
	cmd, err := rootCmd.ExecuteC()
	if err == nil {
		return
	}

	code := ExitCode(err)
	if jsonOutput {
		output.PrintJSONError(cmd.Name(), err, code)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
	os.Exit(code)
}

// ExitCode maps an error to the process exit status. Problems with the
// workbook itself are system errors; everything else is the caller's.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return output.ExitOK
	case errors.Is(err, poller.ErrNoData), errors.Is(err, groups.ErrMalformedHeader):
		return output.ExitSystemError
	default:
		return output.ExitUserError
	}
}
