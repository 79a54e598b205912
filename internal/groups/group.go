// Package groups turns the flat row stream of the report worksheet into named
// groups of counters.
package groups

// Row is one data row of a group. A totals row carries the layout's totals
// label as its first cell.
type Row struct {
	Cells  []Value `json:"cells" yaml:"cells"`
	Totals bool    `json:"totals,omitempty" yaml:"totals,omitempty"`
}

// Group is a named section of the report.
type Group struct {
	Name      string   `json:"name" yaml:"name"`
	Header    []string `json:"header" yaml:"header"`
	Subheader []string `json:"subheader" yaml:"subheader"`
	Rows      []Row    `json:"rows" yaml:"rows"`
}

// Totals returns the group's first totals row.
func (g *Group) Totals() (Row, bool) {
	for _, r := range g.Rows {
		if r.Totals {
			return r, true
		}
	}
	return Row{}, false
}

// Snapshot is the full parsed state of every group at one poll.
type Snapshot struct {
	Groups []*Group `json:"groups" yaml:"groups"`

	index map[string]int
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{index: make(map[string]int)}
}

// Put adds g to the snapshot. A group with the same name is replaced in place.
func (s *Snapshot) Put(g *Group) {
	if s.index == nil {
		s.reindex()
	}
	if i, ok := s.index[g.Name]; ok {
		s.Groups[i] = g
		return
	}
	s.index[g.Name] = len(s.Groups)
	s.Groups = append(s.Groups, g)
}

// Get returns the named group.
func (s *Snapshot) Get(name string) (*Group, bool) {
	if s == nil {
		return nil, false
	}
	if s.index == nil {
		s.reindex()
	}
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.Groups[i], true
}

// Len returns the number of groups.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Groups)
}

// Names returns group names in report order.
func (s *Snapshot) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, len(s.Groups))
	for i, g := range s.Groups {
		names[i] = g.Name
	}
	return names
}

func (s *Snapshot) reindex() {
	s.index = make(map[string]int, len(s.Groups))
	for i, g := range s.Groups {
		s.index[g.Name] = i
	}
}
