package dashboard

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/klytics/countboard/internal/dynamics"
	"github.com/klytics/countboard/internal/groups"
	"github.com/klytics/countboard/internal/poller"
	"github.com/klytics/countboard/internal/tracker"
	"github.com/klytics/countboard/internal/watch"
)

//go:embed templates/*.html
var templateFiles embed.FS

// CycleSource is what the server reads from. *poller.Poller implements it.
type CycleSource interface {
	Latest() *poller.Cycle
	Status() poller.Status
}

// Server serves the dashboard page and the JSON API.
type Server struct {
	Options Options
	Logger  *log.Logger

	source CycleSource
	router *chi.Mux
	page   *template.Template
}

// NewServer builds the router. Request logging is enabled when verbose is set.
func NewServer(source CycleSource, opts Options, verbose bool) (*Server, error) {
	page, err := template.ParseFS(templateFiles, "templates/page.html")
	if err != nil {
		return nil, fmt.Errorf("could not parse page template: %w", err)
	}

	s := &Server{
		Options: opts,
		Logger:  log.New(os.Stderr, "[http] ", log.LstdFlags),
		source:  source,
		router:  chi.NewRouter(),
		page:    page,
	}
	if s.Options.Logger == nil {
		s.Options.Logger = s.Logger
	}

	s.router.Use(middleware.RequestID)
	if verbose {
		s.router.Use(middleware.Logger)
	}
	s.router.Use(middleware.Recoverer)

	s.router.Get("/", s.handleIndex)
	s.router.Get("/api/snapshot", s.handleSnapshot)
	s.router.Get("/api/status", s.handleStatus)
	s.router.Get("/healthz", s.handleHealth)

	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Printf("Dashboard listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("could not serve on %s: %w", addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not shut down dashboard: %w", err)
		}
		return nil
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page := BuildPage(s.source.Latest(), s.Options)

	var buf bytes.Buffer
	if err := s.page.Execute(&buf, page); err != nil {
		s.Logger.Printf("Template error: %v", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// SnapshotView is the JSON form of the latest cycle.
type SnapshotView struct {
	OK      bool                        `json:"ok" yaml:"ok"`
	Seq     int                         `json:"seq" yaml:"seq"`
	Time    time.Time                   `json:"time" yaml:"time"`
	Error   string                      `json:"error,omitempty" yaml:"error,omitempty"`
	Groups  []*groups.Group             `json:"groups,omitempty" yaml:"groups,omitempty"`
	Changed []tracker.Coord             `json:"changed,omitempty" yaml:"changed,omitempty"`
	Deltas  []dynamics.Delta            `json:"deltas,omitempty" yaml:"deltas,omitempty"`
	Shares  map[string][]dynamics.Share `json:"shares,omitempty" yaml:"shares,omitempty"`
}

// NewSnapshotView converts a cycle for the JSON API and --json output.
func NewSnapshotView(c *poller.Cycle, categories []string) SnapshotView {
	if c == nil {
		return SnapshotView{Error: poller.ErrNoData.Error()}
	}
	view := SnapshotView{Seq: c.Seq, Time: c.Time}
	if c.Err != nil {
		view.Error = c.Err.Error()
		return view
	}

	view.OK = true
	view.Groups = c.Snapshot.Groups
	view.Changed = c.Changed.Sorted()
	view.Deltas = c.Deltas
	view.Shares = make(map[string][]dynamics.Share)
	for _, g := range c.Snapshot.Groups {
		if shares, ok := dynamics.Shares(g, categories); ok {
			view.Shares[g.Name] = shares
		}
	}
	return view
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	view := NewSnapshotView(s.source.Latest(), s.Options.Categories)
	status := http.StatusOK
	if !view.OK {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, view)
}

// StatusView is the /api/status payload: poller counters plus the file
// events seen by the workbook watcher, when one runs.
type StatusView struct {
	poller.Status
	Watch []watch.Event `json:"watch,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	view := StatusView{Status: s.source.Status()}
	if s.Options.WatchEvents != nil {
		view.Watch = s.Options.WatchEvents()
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	c := s.source.Latest()
	if !c.OK() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "seq": c.Seq})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}
