package progress

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
)

func TestNewSpinnerDisabledByEnv(t *testing.T) {
	t.Setenv("COUNTBOARD_NO_PROGRESS", "1")
	s := NewSpinner("test", false)
	if s.Enabled {
		t.Error("expected spinner to be disabled with COUNTBOARD_NO_PROGRESS=1")
	}
}

func TestNewSpinnerQuiet(t *testing.T) {
	s := NewSpinner("test", true)
	if s.Enabled {
		t.Error("expected quiet spinner to be disabled")
	}
}

func TestSpinnerDisabledDoesNotWrite(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner("reading", true)
	s.Out = &buf

	s.Start()
	s.Stop("done", true)

	if buf.Len() != 0 {
		t.Errorf("disabled spinner should not write, wrote %q", buf.String())
	}
}

func TestSpinnerStartStop(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	s := &Spinner{Label: "reading report.xlsx", Enabled: true, Out: &buf, stopped: true}

	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Stop("read 3 groups", true)

	out := buf.String()
	if !strings.Contains(out, "reading report.xlsx") {
		t.Errorf("expected spinner frames, got %q", out)
	}
	if !strings.HasSuffix(out, "✓ read 3 groups\n") {
		t.Errorf("expected success line, got %q", out)
	}

	// A second Stop is a no-op.
	s.Stop("again", false)
	if strings.Contains(buf.String(), "again") {
		t.Error("second Stop should not write")
	}
}

func TestSpinnerStopFailure(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	s := &Spinner{Label: "reading", Enabled: true, Out: &buf, stopped: true}

	s.Start()
	s.Stop("no data", false)

	if !strings.HasSuffix(buf.String(), "✗ no data\n") {
		t.Errorf("expected failure line, got %q", buf.String())
	}
}

func TestSpinnerUpdate(t *testing.T) {
	s := NewSpinner("initial", true)
	s.Update("updated")
	if s.Label != "updated" {
		t.Errorf("expected label 'updated', got %q", s.Label)
	}
}
