// Package poller runs the reload cycle: read the workbook, parse it, diff it
// against the previous read, update the lifetime baseline and publish the
// result for readers.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/klytics/countboard/internal/dynamics"
	"github.com/klytics/countboard/internal/groups"
	"github.com/klytics/countboard/internal/tracker"
)

// ErrNoData is returned when the workbook could not be read or holds no groups.
var ErrNoData = errors.New("no data")

// DefaultInterval is the pause between cycles when none is configured.
const DefaultInterval = 10 * time.Second

// journalSize is how many cycle outcomes Status reports.
const journalSize = 50

// RowSource yields the raw rows of the worksheet being monitored.
type RowSource interface {
	Rows(ctx context.Context) ([][]string, error)
}

// Config configures a Poller.
type Config struct {
	Layout        groups.Layout
	Interval      time.Duration
	HistoryWindow time.Duration
	// Trigger requests an early cycle, e.g. from a file watcher. May be nil.
	Trigger <-chan struct{}
}

// Cycle is the published result of one reload. It is never modified after
// publication.
type Cycle struct {
	Seq      int                                `json:"seq"`
	Time     time.Time                          `json:"time"`
	Duration time.Duration                      `json:"duration"`
	Snapshot *groups.Snapshot                   `json:"-"`
	Changed  tracker.ChangeSet                  `json:"-"`
	History  map[tracker.Coord][]tracker.Change `json:"-"`
	Deltas   []dynamics.Delta                   `json:"deltas,omitempty"`
	Err      error                              `json:"-"`
}

// OK reports whether the cycle produced data.
func (c *Cycle) OK() bool {
	return c != nil && c.Err == nil && c.Snapshot != nil
}

// Entry is one line of the cycle journal.
type Entry struct {
	Seq      int       `json:"seq"`
	Time     time.Time `json:"time"`
	Duration string    `json:"duration"`
	Groups   int       `json:"groups"`
	Changed  int       `json:"changed"`
	Error    string    `json:"error,omitempty"`
}

// Status summarises the poller for the status endpoint.
type Status struct {
	Started      time.Time `json:"started"`
	Interval     string    `json:"interval"`
	Cycles       int       `json:"cycles"`
	Failures     int       `json:"failures"`
	LastSuccess  time.Time `json:"lastSuccess,omitempty"`
	TrackedCells int       `json:"trackedCells"`
	Baselines    int       `json:"baselines"`
	Journal      []Entry   `json:"journal"`
}

// Poller owns the tracker and baseline for one monitored workbook.
type Poller struct {
	Config Config
	Logger *log.Logger

	source   RowSource
	tracker  *tracker.Tracker
	baseline *dynamics.Baseline
	now      func() time.Time

	// cycleMu serialises cycles and tracker reads.
	cycleMu sync.Mutex
	seq     int

	mu           sync.RWMutex
	started      time.Time
	latest       *Cycle
	journal      []Entry
	failures     int
	lastSuccess  time.Time
	trackedCells int
	baselines    int
}

// New creates a Poller reading from source.
func New(source RowSource, config Config) *Poller {
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	return &Poller{
		Config:   config,
		Logger:   log.New(os.Stderr, "[poll] ", log.LstdFlags),
		source:   source,
		tracker:  tracker.New(config.HistoryWindow),
		baseline: dynamics.NewBaseline(len(config.Layout.Categories)),
		now:      time.Now,
		started:  time.Now(),
	}
}

// Run cycles until ctx is cancelled, pausing Interval between cycles or less
// when a trigger arrives.
func (p *Poller) Run(ctx context.Context) error {
	p.Logger.Printf("Polling every %s", p.Config.Interval)

	for {
		c := p.Cycle(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if c.Err != nil {
			p.Logger.Printf("Cycle %d failed: %v", c.Seq, c.Err)
		} else if c.Changed.Len() > 0 {
			p.Logger.Printf("Cycle %d: %d cell(s) changed", c.Seq, c.Changed.Len())
		}

		timer := time.NewTimer(p.Config.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		case <-p.Config.Trigger:
			timer.Stop()
			p.Logger.Printf("Workbook changed, reloading")
		}
	}
}

// Cycle performs one reload and publishes its result. On failure the tracker
// and baseline keep their previous state.
func (p *Poller) Cycle(ctx context.Context) *Cycle {
	p.cycleMu.Lock()
	defer p.cycleMu.Unlock()

	p.seq++
	start := p.now()
	c := &Cycle{Seq: p.seq, Time: start}

	snap, err := p.load(ctx)
	if err != nil {
		c.Err = err
	} else {
		c.Snapshot = snap
		c.Changed = p.tracker.Track(snap, start)
		c.Deltas = p.baseline.Observe(snap)
		c.History = make(map[tracker.Coord][]tracker.Change, len(c.Changed))
		for coord := range c.Changed {
			c.History[coord] = p.tracker.History(coord)
		}
	}
	c.Duration = p.now().Sub(start)

	p.publish(c)
	return c
}

func (p *Poller) load(ctx context.Context) (*groups.Snapshot, error) {
	rows, err := p.source.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoData, err)
	}
	snap, err := groups.Parse(rows, p.Config.Layout)
	if err != nil {
		return nil, err
	}
	if snap.Len() == 0 {
		return nil, fmt.Errorf("%w: no groups found in %d rows", ErrNoData, len(rows))
	}
	return snap, nil
}

func (p *Poller) publish(c *Cycle) {
	entry := Entry{
		Seq:      c.Seq,
		Time:     c.Time,
		Duration: c.Duration.String(),
	}
	if c.Err != nil {
		entry.Error = c.Err.Error()
	} else {
		entry.Groups = c.Snapshot.Len()
		entry.Changed = c.Changed.Len()
	}

	tracked := p.tracker.HistoryLen()
	baselines := p.baseline.Len()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.latest = c
	p.journal = append(p.journal, entry)
	if len(p.journal) > journalSize {
		p.journal = p.journal[len(p.journal)-journalSize:]
	}
	if c.Err != nil {
		p.failures++
	} else {
		p.lastSuccess = c.Time
	}
	p.trackedCells = tracked
	p.baselines = baselines
}

// Latest returns the most recently published cycle, or nil before the first.
func (p *Poller) Latest() *Cycle {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest
}

// Status returns counters and the recent cycle journal, newest last.
func (p *Poller) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()

	journal := make([]Entry, len(p.journal))
	copy(journal, p.journal)

	return Status{
		Started:      p.started,
		Interval:     p.Config.Interval.String(),
		Cycles:       p.seqLocked(),
		Failures:     p.failures,
		LastSuccess:  p.lastSuccess,
		TrackedCells: p.trackedCells,
		Baselines:    p.baselines,
		Journal:      journal,
	}
}

func (p *Poller) seqLocked() int {
	if p.latest == nil {
		return 0
	}
	return p.latest.Seq
}

// History returns the retained changes for one cell.
func (p *Poller) History(c tracker.Coord) []tracker.Change {
	p.cycleMu.Lock()
	defer p.cycleMu.Unlock()
	return p.tracker.History(c)
}

// Initial returns the baseline counters recorded for a group.
func (p *Poller) Initial(group string) ([]groups.Value, bool) {
	p.cycleMu.Lock()
	defer p.cycleMu.Unlock()
	return p.baseline.Initial(group)
}
