package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestNewWatcher(t *testing.T) {
	w, err := New(Config{
		Path:     filepath.Join(t.TempDir(), "report.xlsx"),
		Debounce: 100,
	})
	if err != nil {
		t.Fatal(err)
	}
	if w == nil {
		t.Fatal("expected non-nil watcher")
	}
	w.watcher.Close()
}

func TestNewWatcherRequiresPath(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestMatches(t *testing.T) {
	dir := t.TempDir()
	w, _ := New(Config{Path: filepath.Join(dir, "report.xlsx")})
	defer w.watcher.Close()

	if !w.matches(filepath.Join(dir, "report.xlsx")) {
		t.Error("should match the workbook")
	}
	if w.matches(filepath.Join(dir, "other.xlsx")) {
		t.Error("should not match other files")
	}
	if w.matches(filepath.Join(dir, "~$report.xlsx")) {
		t.Error("should not match lock files")
	}
}

func TestWatcherTriggersOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.xlsx")
	os.WriteFile(path, []byte("v1"), 0644)

	w, err := New(Config{Path: path, Debounce: 50})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go w.Start(ctx)

	// Give the watcher time to start
	time.Sleep(100 * time.Millisecond)

	os.WriteFile(path, []byte("v2"), 0644)

	select {
	case <-w.Triggers():
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for trigger")
	}

	events := w.GetEvents()
	if len(events) == 0 {
		t.Fatal("expected recorded events")
	}
	last := events[len(events)-1]
	if filepath.Base(last.Path) != "report.xlsx" {
		t.Errorf("unexpected event path %q", last.Path)
	}
	if last.Operation == "" || last.Time.IsZero() {
		t.Errorf("incomplete event %+v", last)
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()

	w, err := New(Config{Path: filepath.Join(dir, "report.xlsx"), Debounce: 50})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go w.Start(ctx)
	time.Sleep(100 * time.Millisecond)

	os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("test"), 0644)

	select {
	case <-w.Triggers():
		t.Error("unexpected trigger for unrelated file")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestEventLogIsBounded(t *testing.T) {
	dir := t.TempDir()
	w, err := New(Config{Path: filepath.Join(dir, "report.xlsx"), Debounce: 10})
	if err != nil {
		t.Fatal(err)
	}
	defer w.watcher.Close()
	defer w.stopTimer()

	for i := 0; i < maxEvents+5; i++ {
		w.handleEvent(fsnotify.Event{Name: filepath.Join(dir, "report.xlsx"), Op: fsnotify.Write})
	}
	w.handleEvent(fsnotify.Event{Name: filepath.Join(dir, "report.xlsx"), Op: fsnotify.Chmod})
	w.handleEvent(fsnotify.Event{Name: filepath.Join(dir, "other.xlsx"), Op: fsnotify.Write})

	if n := len(w.GetEvents()); n != maxEvents {
		t.Errorf("expected %d events, got %d", maxEvents, n)
	}
}

func TestDefaultDebounce(t *testing.T) {
	w, _ := New(Config{Path: "report.xlsx", Debounce: 0})
	defer w.watcher.Close()

	if w.Config.Debounce != 500 {
		t.Errorf("expected default debounce 500, got %d", w.Config.Debounce)
	}
}

func TestPIDFile(t *testing.T) {
	dir := t.TempDir()

	if err := WritePIDFile(dir); err != nil {
		t.Fatal(err)
	}

	pid, err := ReadPIDFile(dir)
	if err != nil {
		t.Fatal(err)
	}
	if pid != os.Getpid() {
		t.Errorf("expected PID %d, got %d", os.Getpid(), pid)
	}

	if err := RemovePIDFile(dir); err != nil {
		t.Fatal(err)
	}

	_, err = ReadPIDFile(dir)
	if err == nil {
		t.Error("expected error after removing PID file")
	}
}

func TestSaveAndLoadRunInfo(t *testing.T) {
	dir := t.TempDir()

	info := RunInfo{
		Workbook:  "/data/report.xlsx",
		Listen:    ":8501",
		Interval:  "10s",
		Watching:  true,
		StartedAt: time.Now().UTC().Truncate(time.Second),
	}

	if err := SaveRunInfo(dir, info); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadRunInfo(dir)
	if err != nil {
		t.Fatal(err)
	}

	if loaded.Workbook != info.Workbook {
		t.Errorf("workbook mismatch: %q", loaded.Workbook)
	}
	if !loaded.Watching {
		t.Error("expected watching=true")
	}
	if !loaded.StartedAt.Equal(info.StartedAt) {
		t.Errorf("startedAt mismatch: %v", loaded.StartedAt)
	}
}

func TestLoadRunInfoMissing(t *testing.T) {
	if _, err := LoadRunInfo(t.TempDir()); err == nil {
		t.Error("expected error for missing run info")
	}
}
