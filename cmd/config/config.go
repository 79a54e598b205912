// Package config provides CLI commands for configuration management.
package config

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/countboard/internal/config"
	"github.com/klytics/countboard/internal/output"
)

// NewCommand returns the config command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage countboard configuration",
		Long: `Interactive setup, view, and modify countboard settings.

Settings live in ~/.countboard/config.yaml. Environment variables
(COUNTBOARD_WORKBOOK, COUNTBOARD_INTERVAL, ...) and flags override them.`,
	}

	cmd.AddCommand(
		newInitCommand(),
		newShowCommand(),
		newSetCommand(),
		newGetCommand(),
		newResetCommand(),
		newPathCommand(),
		newValidateCommand(),
		newEnvCommand(),
	)
	return cmd
}

func newInitCommand() *cobra.Command {
	var noInteractive bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactive setup wizard",
		RunE: func(cmd *cobra.Command, args []string) error {
			if noInteractive {
				return config.WizardNonInteractive()
			}
			return config.Wizard(cmd.InOrStdin())
		},
	}
	cmd.Flags().BoolVar(&noInteractive, "no-interactive", false, "Write defaults without prompting")
	return cmd
}

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if jsonFlag(cmd) {
				cfg, err := config.Current()
				if err != nil {
					return err
				}
				return output.PrintJSON("config show", cfg)
			}
			fmt.Fprint(cmd.OutOrStdout(), config.ShowConfig())
			return nil
		},
	}
}

func newSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "set <key> <value>",
		Short:     "Set a configuration value",
		Args:      cobra.ExactArgs(2),
		ValidArgs: config.Keys,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Set(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", args[0], config.Get(args[0]))
			return nil
		},
	}
}

func newGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "get <key>",
		Short:     "Get a configuration value",
		Args:      cobra.ExactArgs(1),
		ValidArgs: config.Keys,
		RunE: func(cmd *cobra.Command, args []string) error {
			val := config.Get(args[0])
			if val == "" {
				val = "(not set)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], val)
			return nil
		},
	}
}

func newResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete the config file and fall back to defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ResetConfig(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration reset to defaults")
			return nil
		},
	}
}

func newPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.ConfigPath())
		},
	}
}

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the workbook, layout and timings",
		RunE: func(cmd *cobra.Command, args []string) error {
			issues := config.Validate()

			if jsonFlag(cmd) {
				if err := output.PrintJSON("config validate", issues); err != nil {
					return err
				}
			} else {
				printIssues(cmd.OutOrStdout(), issues)
			}

			if config.HasErrors(issues) {
				return fmt.Errorf("configuration is invalid")
			}
			return nil
		},
	}
}

func printIssues(w io.Writer, issues []config.ConfigIssue) {
	styles := map[string]*color.Color{
		"error":   color.New(color.FgRed),
		"warning": color.New(color.FgYellow),
		"info":    color.New(color.FgGreen),
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, issue := range issues {
		style, ok := styles[issue.Severity]
		if !ok {
			style = color.New()
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", style.Sprint(issue.Severity), issue.Key, issue.Message)
		if issue.Fix != "" {
			fmt.Fprintf(tw, "  \t\tfix: %s\n", strings.ReplaceAll(issue.Fix, "\n", "\n  \t\t"))
		}
	}
	tw.Flush()

	for _, issue := range issues {
		if issue.Severity == "error" || issue.Severity == "warning" {
			return
		}
	}
	color.New(color.FgGreen).Fprintln(w, "Configuration is valid")
}

func newEnvCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Export configuration as environment variables",
		RunE: func(cmd *cobra.Command, args []string) error {
			env := config.ToEnv()
			if jsonFlag(cmd) {
				return output.PrintJSON("config env", env)
			}

			keys := make([]string, 0, len(env))
			for k := range env {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			w := cmd.OutOrStdout()
			for _, k := range keys {
				fmt.Fprintf(w, "export %s=%q\n", k, env[k])
			}
			if len(keys) > 0 {
				fmt.Fprintln(w, "# Add these to your ~/.zshrc or ~/.bashrc")
			}
			return nil
		},
	}
}

func jsonFlag(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}
