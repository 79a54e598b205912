// Package shell provides the interactive countboard inspector REPL.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/chzyer/readline"

	"github.com/klytics/countboard/internal/poller"
	"github.com/klytics/countboard/internal/tracker"
)

// Engine is the poller the session inspects. *poller.Poller implements it.
type Engine interface {
	Latest() *poller.Cycle
	Cycle(ctx context.Context) *poller.Cycle
	History(c tracker.Coord) []tracker.Change
}

// Session manages an interactive inspector session.
type Session struct {
	Engine         Engine
	Categories     []string
	CommandHistory []string
	HistoryFile    string
	StartTime      time.Time

	// KnownCommands is the list of commands for completion.
	KnownCommands []string
}

// NewSession creates a new interactive session over engine.
func NewSession(engine Engine, categories []string) *Session {
	home, _ := os.UserHomeDir()
	histFile := filepath.Join(home, ".countboard", "inspect_history")

	// Ensure parent dir exists
	os.MkdirAll(filepath.Dir(histFile), 0755)

	return &Session{
		Engine:      engine,
		Categories:  categories,
		HistoryFile: histFile,
		StartTime:   time.Now(),
		KnownCommands: []string{
			"groups", "show", "reload", "changes", "history", "dynamics",
			"help", "exit", "quit",
		},
	}
}

// Run starts the REPL loop. Blocks until 'exit' or Ctrl+D.
func (s *Session) Run(ctx context.Context) error {
	completer := readline.NewPrefixCompleter(s.buildCompleter()...)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "countboard> ",
		HistoryFile:     s.HistoryFile,
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	fmt.Println("countboard inspector")
	fmt.Println("Type 'help' for commands, 'exit' to quit.")
	fmt.Println()

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or interrupt
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		s.CommandHistory = append(s.CommandHistory, line)

		if line == "exit" || line == "quit" {
			fmt.Printf("\nSession ended. %d commands run in %s.\n",
				len(s.CommandHistory)-1, formatDuration(time.Since(s.StartTime)))
			return nil
		}

		output, err := s.Eval(ctx, line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			continue
		}
		if output != "" {
			fmt.Print(output)
			if !strings.HasSuffix(output, "\n") {
				fmt.Println()
			}
		}
	}

	return nil
}

// Eval runs a single command line and returns its output.
func (s *Session) Eval(ctx context.Context, line string) (string, error) {
	args := strings.Fields(line)
	if len(args) == 0 {
		return "", nil
	}

	switch args[0] {
	case "help":
		return helpText, nil
	case "reload":
		return s.reload(ctx)
	case "groups":
		return s.groups()
	case "show":
		if len(args) != 2 {
			return "", fmt.Errorf("usage: show <group>")
		}
		return s.show(args[1])
	case "changes":
		return s.changes()
	case "history":
		if len(args) != 4 {
			return "", fmt.Errorf("usage: history <group> <row> <col>")
		}
		return s.history(args[1:])
	case "dynamics":
		return s.dynamics()
	default:
		return "", fmt.Errorf("unknown command %q (type 'help')", args[0])
	}
}

const helpText = `Commands:
  groups                       list groups in the latest reload
  show <group>                 print a group's table (* marks changed cells)
  reload                       read the workbook again now
  changes                      list cells changed by the latest reload
  history <group> <row> <col>  list retained changes of one cell
  dynamics                     print totals movement since the session started
  help                         show this help
  exit                         exit the inspector
`

// latest returns the last successful cycle.
func (s *Session) latest() (*poller.Cycle, error) {
	c := s.Engine.Latest()
	if c == nil {
		return nil, errors.New("nothing loaded yet (try 'reload')")
	}
	if c.Err != nil {
		return nil, fmt.Errorf("last reload failed: %w", c.Err)
	}
	return c, nil
}

func (s *Session) reload(ctx context.Context) (string, error) {
	c := s.Engine.Cycle(ctx)
	if c.Err != nil {
		return "", fmt.Errorf("reload %d failed: %w", c.Seq, c.Err)
	}
	return fmt.Sprintf("Reload %d: %d group(s), %d changed cell(s) in %s\n",
		c.Seq, c.Snapshot.Len(), c.Changed.Len(), c.Duration.Round(time.Millisecond)), nil
}

func (s *Session) groups() (string, error) {
	c, err := s.latest()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GROUP\tROWS\tTOTALS")
	for _, g := range c.Snapshot.Groups {
		_, hasTotals := g.Totals()
		fmt.Fprintf(w, "%s\t%d\t%v\n", g.Name, len(g.Rows), hasTotals)
	}
	w.Flush()
	return buf.String(), nil
}

func (s *Session) show(name string) (string, error) {
	c, err := s.latest()
	if err != nil {
		return "", err
	}
	g, ok := c.Snapshot.Get(name)
	if !ok {
		return "", fmt.Errorf("no group %q", name)
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, strings.Join(g.Header, "\t")+"\t")
	fmt.Fprintln(w, strings.Join(g.Subheader, "\t")+"\t")
	for i, row := range g.Rows {
		cells := make([]string, len(row.Cells))
		for j, v := range row.Cells {
			cells[j] = v.String()
			if c.Changed.Has(tracker.Coord{Group: g.Name, Row: i, Col: j}) {
				cells[j] += "*"
			}
		}
		fmt.Fprintln(w, strings.Join(cells, "\t")+"\t")
	}
	w.Flush()
	return buf.String(), nil
}

func (s *Session) changes() (string, error) {
	c, err := s.latest()
	if err != nil {
		return "", err
	}
	if c.Changed.Len() == 0 {
		return "No changes in the latest reload.\n", nil
	}

	var sb strings.Builder
	for _, coord := range c.Changed.Sorted() {
		value := ""
		if g, ok := c.Snapshot.Get(coord.Group); ok {
			value = g.Rows[coord.Row].Cells[coord.Col].String()
		}
		sb.WriteString(fmt.Sprintf("  %s = %s\n", coord, value))
	}
	return sb.String(), nil
}

func (s *Session) history(args []string) (string, error) {
	row, err := strconv.Atoi(args[1])
	if err != nil {
		return "", fmt.Errorf("invalid row %q", args[1])
	}
	col, err := strconv.Atoi(args[2])
	if err != nil {
		return "", fmt.Errorf("invalid column %q", args[2])
	}

	coord := tracker.Coord{Group: args[0], Row: row, Col: col}
	changes := s.Engine.History(coord)
	if len(changes) == 0 {
		return fmt.Sprintf("No retained changes for %s.\n", coord), nil
	}

	var sb strings.Builder
	for _, ch := range changes {
		sb.WriteString(fmt.Sprintf("  %s  %s\n", ch.At.Format("2006-01-02 15:04:05"), ch.Value))
	}
	return sb.String(), nil
}

func (s *Session) dynamics() (string, error) {
	c, err := s.latest()
	if err != nil {
		return "", err
	}
	if len(c.Deltas) == 0 {
		return "No groups with totals rows.\n", nil
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GROUP\t"+strings.Join(s.Categories, "\t"))
	for _, d := range c.Deltas {
		values := make([]string, len(d.Values))
		for i, v := range d.Values {
			values[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		fmt.Fprintln(w, d.Group+"\t"+strings.Join(values, "\t"))
	}
	w.Flush()
	return buf.String(), nil
}

// Complete returns tab-completion candidates for the given input.
func (s *Session) Complete(input string) []string {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return s.KnownCommands
	}

	// Complete the command itself
	if len(parts) == 1 && !strings.HasSuffix(input, " ") {
		var matches []string
		for _, cmd := range s.KnownCommands {
			if strings.HasPrefix(cmd, parts[0]) {
				matches = append(matches, cmd)
			}
		}
		sort.Strings(matches)
		return matches
	}

	// Group names for show/history
	if parts[0] != "show" && parts[0] != "history" {
		return nil
	}
	prefix := ""
	if len(parts) == 2 && !strings.HasSuffix(input, " ") {
		prefix = parts[1]
	} else if len(parts) > 1 {
		return nil
	}
	var matches []string
	for _, name := range s.groupNames() {
		if strings.HasPrefix(name, prefix) {
			matches = append(matches, name)
		}
	}
	return matches
}

func (s *Session) groupNames() []string {
	c := s.Engine.Latest()
	if !c.OK() {
		return nil
	}
	return c.Snapshot.Names()
}

func (s *Session) buildCompleter() []readline.PrefixCompleterInterface {
	groupItems := func(line string) []string { return s.groupNames() }

	var items []readline.PrefixCompleterInterface
	for _, cmd := range s.KnownCommands {
		if cmd == "show" || cmd == "history" {
			items = append(items, readline.PcItem(cmd, readline.PcItemDynamic(groupItems)))
			continue
		}
		items = append(items, readline.PcItem(cmd))
	}
	return items
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", m, s)
}
