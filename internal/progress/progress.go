// Package progress provides a terminal spinner for workbook reads.
// All output goes to stderr to avoid polluting stdout/pipes.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

var frames = []rune{'⠋', '⠙', '⠹', '⠸', '⠼', '⠴', '⠦', '⠧', '⠇', '⠏'}

// Spinner shows a spinner for operations where total is unknown, such as
// downloading or parsing a workbook.
type Spinner struct {
	Label   string
	Enabled bool
	Out     io.Writer

	mu      sync.Mutex
	done    chan struct{}
	stopped bool
	frame   int
}

// NewSpinner creates a spinner on stderr. It is disabled when stderr is not
// a TTY, when quiet is set (for --json output) or when
// COUNTBOARD_NO_PROGRESS=1.
func NewSpinner(label string, quiet bool) *Spinner {
	return &Spinner{
		Label:   label,
		Enabled: !quiet && shouldEnable(),
		Out:     os.Stderr,
		done:    make(chan struct{}),
		stopped: true,
	}
}

// Start begins the spinner animation.
func (s *Spinner) Start() {
	if !s.Enabled {
		return
	}

	s.mu.Lock()
	s.stopped = false
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

func (s *Spinner) tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	fmt.Fprintf(s.Out, "\r\033[K%c %s", frames[s.frame%len(frames)], s.Label)
	s.frame++
}

// Update changes the spinner label while it's running.
func (s *Spinner) Update(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Label = label
}

// Stop stops the spinner and prints result, marked as a success or a
// failure. An empty result only clears the line.
func (s *Spinner) Stop(result string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.stopped = true
	close(s.done)

	if !s.Enabled {
		return
	}
	fmt.Fprint(s.Out, "\r\033[K")
	if result == "" {
		return
	}
	if ok {
		fmt.Fprintf(s.Out, "%s %s\n", color.GreenString("✓"), result)
	} else {
		fmt.Fprintf(s.Out, "%s %s\n", color.RedString("✗"), result)
	}
}

func shouldEnable() bool {
	if os.Getenv("COUNTBOARD_NO_PROGRESS") == "1" {
		return false
	}
	return isTTY()
}

func isTTY() bool {
	stat, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}
