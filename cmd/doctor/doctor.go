// Package doctor provides the "countboard doctor" command for checking that a
// dashboard can start.
package doctor

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/countboard/internal/config"
	"github.com/klytics/countboard/internal/groups"
	"github.com/klytics/countboard/internal/output"
	"github.com/klytics/countboard/internal/poller"
)

// Check represents a single health check result.
type Check struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Message string `json:"message"`
}

// NewCommand creates the "doctor" command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, workbook and listen address",
		Long:  "Run diagnostic checks to verify countboard is configured and the workbook parses.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Current()
			if err != nil {
				return err
			}
			checks := runChecks(cmd.Context(), cfg)

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return output.PrintJSON("doctor", checks)
			}

			green := color.New(color.FgGreen).SprintFunc()
			yellow := color.New(color.FgYellow).SprintFunc()
			red := color.New(color.FgRed).SprintFunc()

			fmt.Println("countboard doctor")
			fmt.Println("=================")
			fmt.Println()

			okCount, warnCount, errCount := 0, 0, 0
			for _, c := range checks {
				var icon string
				switch c.Status {
				case "ok":
					icon = green("✓")
					okCount++
				case "warning":
					icon = yellow("!")
					warnCount++
				case "error":
					icon = red("✗")
					errCount++
				}
				fmt.Printf("  %s %s: %s\n", icon, c.Name, c.Message)
			}

			fmt.Println()
			fmt.Printf("  %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

			if errCount > 0 {
				return fmt.Errorf("%d check(s) failed", errCount)
			}
			return nil
		},
	}
}

func runChecks(ctx context.Context, cfg *config.Config) []Check {
	var checks []Check

	checks = append(checks, Check{
		Name:    "Go Runtime",
		Status:  "ok",
		Message: fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH),
	})

	configFile := config.ConfigPath()
	if _, err := os.Stat(configFile); err == nil {
		checks = append(checks, Check{Name: "Config File", Status: "ok", Message: configFile})
	} else {
		checks = append(checks, Check{
			Name:    "Config File",
			Status:  "warning",
			Message: fmt.Sprintf("%s not found, run 'countboard config init'", filepath.Base(configFile)),
		})
	}

	checks = append(checks, checkLayout(cfg))
	checks = append(checks, checkWorkbook(ctx, cfg))
	checks = append(checks, checkListen(cfg.Listen))

	return checks
}

func checkLayout(cfg *config.Config) Check {
	if cfg.Layout == "" {
		return Check{Name: "Layout", Status: "ok", Message: "built-in report layout"}
	}
	l, err := groups.LoadLayout(cfg.Layout)
	if err != nil {
		return Check{Name: "Layout", Status: "error", Message: err.Error()}
	}
	return Check{
		Name:    "Layout",
		Status:  "ok",
		Message: fmt.Sprintf("%s (%d columns, categories: %s)", cfg.Layout, len(l.Header), strings.Join(l.Categories, ", ")),
	}
}

func checkWorkbook(ctx context.Context, cfg *config.Config) Check {
	if cfg.Workbook == "" {
		return Check{Name: "Workbook", Status: "error", Message: "not set, export COUNTBOARD_WORKBOOK or pass --workbook"}
	}

	p, err := poller.FromConfig(cfg, nil)
	if err != nil {
		return Check{Name: "Workbook", Status: "error", Message: err.Error()}
	}
	p.Logger.SetOutput(io.Discard)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	c := p.Cycle(ctx)
	if c.Err != nil {
		return Check{Name: "Workbook", Status: "error", Message: c.Err.Error()}
	}
	return Check{
		Name:    "Workbook",
		Status:  "ok",
		Message: fmt.Sprintf("%s: %d group(s) in %s", cfg.Workbook, len(c.Snapshot.Groups), c.Duration.Round(time.Millisecond)),
	}
}

func checkListen(addr string) Check {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return Check{
			Name:    "Listen Address",
			Status:  "warning",
			Message: fmt.Sprintf("%s unavailable (%v); is a dashboard already running?", addr, err),
		}
	}
	ln.Close()
	return Check{Name: "Listen Address", Status: "ok", Message: addr + " is free"}
}
