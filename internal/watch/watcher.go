// Package watch notices writes to the report workbook so the poller can reload
// it before the next scheduled cycle.
package watch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Config holds the watcher configuration.
type Config struct {
	Path     string `json:"path"`
	Debounce int    `json:"debounceMs"` // Milliseconds to wait before signalling
}

// Event represents a file event that was detected.
type Event struct {
	Time      time.Time `json:"time"`
	Path      string    `json:"path"`
	Operation string    `json:"operation"`
}

// Watcher monitors the workbook's directory and signals on changes to the
// workbook itself. Editors usually save through a temp file and a rename, so
// watching the file alone would lose track of it.
type Watcher struct {
	Config Config
	Logger *log.Logger

	mu       sync.Mutex
	events   []Event
	watcher  *fsnotify.Watcher
	dir      string
	base     string
	timer    *time.Timer
	triggers chan struct{}
}

// maxEvents bounds the retained event log.
const maxEvents = 100

// New creates a new Watcher for the given file.
func New(config Config) (*Watcher, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("no file to watch")
	}
	abs, err := filepath.Abs(config.Path)
	if err != nil {
		return nil, fmt.Errorf("could not resolve %s: %w", config.Path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not create file watcher: %w", err)
	}

	if config.Debounce <= 0 {
		config.Debounce = 500
	}

	return &Watcher{
		Config:   config,
		Logger:   log.New(os.Stderr, "[watch] ", log.LstdFlags),
		watcher:  fsw,
		dir:      filepath.Dir(abs),
		base:     filepath.Base(abs),
		triggers: make(chan struct{}, 1),
	}, nil
}

// Triggers delivers one value per debounced burst of changes. Pending
// triggers coalesce.
func (w *Watcher) Triggers() <-chan struct{} {
	return w.triggers
}

// Start begins watching. It blocks until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.dir); err != nil {
		w.watcher.Close()
		return fmt.Errorf("could not watch %s: %w", w.dir, err)
	}

	w.Logger.Printf("Watching %s", filepath.Join(w.dir, w.base))

	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return w.watcher.Close()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.Logger.Printf("Error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return
	}
	if !w.matches(event.Name) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.events = append(w.events, Event{Time: time.Now(), Path: event.Name, Operation: event.Op.String()})
	if len(w.events) > maxEvents {
		w.events = w.events[len(w.events)-maxEvents:]
	}

	// Debounce: Excel writes a file in several steps.
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(time.Duration(w.Config.Debounce)*time.Millisecond, w.fire)
}

func (w *Watcher) fire() {
	select {
	case w.triggers <- struct{}{}:
	default:
	}
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *Watcher) matches(path string) bool {
	base := filepath.Base(path)
	// Skip Office lock files
	if strings.HasPrefix(base, "~$") || strings.HasPrefix(base, ".~") {
		return false
	}
	return base == w.base
}

// GetEvents returns the recorded events, oldest first.
func (w *Watcher) GetEvents() []Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	events := make([]Event, len(w.events))
	copy(events, w.events)
	return events
}
