// Package status provides the "countboard status" and "countboard stop"
// commands for a running dashboard.
package status

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/countboard/internal/dashboard"
	"github.com/klytics/countboard/internal/output"
	"github.com/klytics/countboard/internal/poller"
	"github.com/klytics/countboard/internal/watch"
)

// Report is what "status" prints.
type Report struct {
	Running bool           `json:"running"`
	PID     int            `json:"pid,omitempty"`
	Run     *watch.RunInfo `json:"run,omitempty"`
	Poller  *poller.Status `json:"poller,omitempty"`
	Watch   []watch.Event  `json:"watch,omitempty"`
}

// NewCommand creates the "status" command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a dashboard is running and how its polls are going",
		RunE: func(cmd *cobra.Command, args []string) error {
			stateDir := watch.DefaultStateDir()
			report := Report{}

			pid, err := watch.ReadPIDFile(stateDir)
			if err == nil && processAlive(pid) {
				report.Running = true
				report.PID = pid
			} else if err == nil {
				watch.RemovePIDFile(stateDir)
			}

			if report.Running {
				report.Run, _ = watch.LoadRunInfo(stateDir)
				if report.Run != nil {
					if st, err := fetchStatus(report.Run.Listen); err == nil {
						report.Poller = &st.Status
						report.Watch = st.Watch
					}
				}
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return output.PrintJSON("status", report)
			}

			if !report.Running {
				fmt.Println("Dashboard is not running")
				return nil
			}

			color.New(color.FgGreen).Printf("Dashboard is running (PID %d)\n", report.PID)
			if run := report.Run; run != nil {
				fmt.Printf("  Workbook:  %s\n", run.Workbook)
				fmt.Printf("  Listen:    %s\n", run.Listen)
				fmt.Printf("  Interval:  %s\n", run.Interval)
				fmt.Printf("  Watching:  %v\n", run.Watching)
				fmt.Printf("  Started:   %s\n", run.StartedAt.Local().Format(time.DateTime))
			}
			if st := report.Poller; st != nil {
				fmt.Printf("  Cycles:    %d (%d failed)\n", st.Cycles, st.Failures)
				if !st.LastSuccess.IsZero() {
					fmt.Printf("  Last good: %s\n", st.LastSuccess.Local().Format(time.DateTime))
				}
				if n := len(st.Journal); n > 0 && st.Journal[n-1].Error != "" {
					color.New(color.FgRed).Printf("  Last error: %s\n", st.Journal[n-1].Error)
				}
			}
			if n := len(report.Watch); n > 0 {
				ev := report.Watch[n-1]
				fmt.Printf("  Last edit: %s (%s)\n", ev.Time.Local().Format(time.DateTime), ev.Operation)
			}
			return nil
		},
	}
}

// NewStopCommand creates the "stop" command.
func NewStopCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			stateDir := watch.DefaultStateDir()
			pid, err := watch.ReadPIDFile(stateDir)
			if err != nil {
				return fmt.Errorf("no dashboard running (PID file not found)")
			}

			process, err := os.FindProcess(pid)
			if err != nil {
				return fmt.Errorf("could not find process %d: %w", pid, err)
			}

			if err := process.Signal(syscall.SIGTERM); err != nil {
				watch.RemovePIDFile(stateDir)
				return fmt.Errorf("could not stop dashboard (PID %d): %w", pid, err)
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return output.PrintJSON("stop", map[string]any{
					"stopped": true,
					"pid":     pid,
				})
			}

			fmt.Printf("Stopped dashboard (PID %d)\n", pid)
			return nil
		},
	}
}

func processAlive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal 0 only checks that the process exists
	return process.Signal(syscall.Signal(0)) == nil
}

func fetchStatus(listen string) (*dashboard.StatusView, error) {
	addr := listen
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + addr + "/api/status")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status endpoint returned HTTP %d", resp.StatusCode)
	}

	var st dashboard.StatusView
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return nil, fmt.Errorf("invalid status response: %w", err)
	}
	return &st, nil
}
