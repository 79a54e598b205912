// Package serve provides the "countboard serve" command: the poll loop and the
// web dashboard.
package serve

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/klytics/countboard/internal/config"
	"github.com/klytics/countboard/internal/dashboard"
	"github.com/klytics/countboard/internal/formats/xlsx"
	"github.com/klytics/countboard/internal/poller"
	"github.com/klytics/countboard/internal/watch"
)

// NewCommand creates the "serve" command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Poll the workbook and serve the live dashboard",
		Long: `Reload the workbook every interval, track cell changes and serve the
dashboard over HTTP until interrupted.

Example:
  countboard serve --workbook /srv/share/report.xlsx
  countboard serve --listen :9000 --interval 30s --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			issues := config.Validate()
			if config.HasErrors(issues) {
				var msgs []string
				for _, issue := range issues {
					if issue.Severity == "error" {
						msgs = append(msgs, issue.Message)
					}
				}
				return fmt.Errorf("invalid configuration: %s (run 'countboard config validate')", strings.Join(msgs, "; "))
			}

			cfg, err := config.Current()
			if err != nil {
				return err
			}
			return run(cmd, cfg)
		},
	}

	cmd.Flags().String("listen", config.DefaultListen, "HTTP listen address")
	cmd.Flags().Duration("interval", config.DefaultInterval, "Pause between workbook reloads")
	cmd.Flags().Bool("watch", false, "Reload early when the workbook file changes")
	cmd.Flags().Int("columns", config.DefaultColumns, "Group tables per dashboard row")
	viper.BindPFlag("listen", cmd.Flags().Lookup("listen"))
	viper.BindPFlag("interval", cmd.Flags().Lookup("interval"))
	viper.BindPFlag("watch", cmd.Flags().Lookup("watch"))
	viper.BindPFlag("columns", cmd.Flags().Lookup("columns"))

	return cmd
}

func run(cmd *cobra.Command, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var watcher *watch.Watcher
	var trigger <-chan struct{}
	if cfg.Watch && !xlsx.IsURL(cfg.Workbook) {
		w, err := watch.New(watch.Config{Path: cfg.Workbook, Debounce: cfg.DebounceMs})
		if err != nil {
			return err
		}
		watcher = w
		trigger = w.Triggers()
	}

	p, err := poller.FromConfig(cfg, trigger)
	if err != nil {
		return err
	}

	srv, err := dashboard.NewServer(p, dashboard.Options{
		Title:       cfg.Title,
		Columns:     cfg.Columns,
		Refresh:     cfg.Interval,
		Window:      cfg.HistoryWindow,
		Categories:  p.Config.Layout.Categories,
		WatchEvents: watchEvents(watcher),
	}, cfg.Verbose)
	if err != nil {
		return err
	}

	stateDir := watch.DefaultStateDir()
	if err := watch.WritePIDFile(stateDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not write PID file: %v\n", err)
	}
	defer watch.RemovePIDFile(stateDir)

	info := watch.RunInfo{
		Workbook:  cfg.Workbook,
		Listen:    cfg.Listen,
		Interval:  p.Config.Interval.String(),
		Watching:  watcher != nil,
		StartedAt: time.Now().UTC(),
	}
	if err := watch.SaveRunInfo(stateDir, info); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not write run info: %v\n", err)
	}

	color.New(color.Bold, color.FgCyan).Printf("countboard serving %s\n", cfg.Workbook)
	fmt.Printf("  Dashboard: http://%s/\n", displayAddr(cfg.Listen))
	fmt.Printf("  Interval:  %s\n", p.Config.Interval)
	if watcher != nil {
		fmt.Println("  Watching:  yes")
	}
	fmt.Println("Press Ctrl+C to stop")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.Run(ctx) })
	g.Go(func() error { return srv.ListenAndServe(ctx, cfg.Listen) })
	if watcher != nil {
		g.Go(func() error { return watcher.Start(ctx) })
	}

	err = g.Wait()
	fmt.Println("\nStopped.")
	return err
}

func displayAddr(listen string) string {
	if strings.HasPrefix(listen, ":") {
		return "localhost" + listen
	}
	return listen
}

func watchEvents(w *watch.Watcher) func() []watch.Event {
	if w == nil {
		return nil
	}
	return w.GetEvents
}
