package groups

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedHeader is returned for a group marker row whose text does not
// carry a group name.
var ErrMalformedHeader = errors.New("malformed group header")

// ParseError locates a row the parser could not accept.
type ParseError struct {
	Row  int // 1-based worksheet row
	Cell string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("row %d: %v: %q", e.Row, e.Err, e.Cell)
}

func (e *ParseError) Unwrap() error { return e.Err }

// RowKind is the outcome of classifying one worksheet row.
type RowKind int

const (
	// RowData is an ordinary counter row.
	RowData RowKind = iota
	// RowGroupHeader opens a new group.
	RowGroupHeader
	// RowTotals is a totals row for the open group.
	RowTotals
)

func (k RowKind) String() string {
	switch k {
	case RowGroupHeader:
		return "group-header"
	case RowTotals:
		return "totals"
	default:
		return "data"
	}
}

// RowClass is a classified row. Name is set for group headers only.
type RowClass struct {
	Kind RowKind
	Name string
}

const quoteChars = "\"'«»“”„"

// groupNameToken is the position of the group name in a group marker cell:
// `Итого за группировку "Name" ...`.
const groupNameToken = 3

// Classify decides what a row is from its first cell.
func Classify(cells []string, layout Layout) (RowClass, error) {
	if len(cells) == 0 {
		return RowClass{Kind: RowData}, nil
	}
	first := cells[0]
	lower := strings.ToLower(first)

	switch {
	case strings.Contains(lower, strings.ToLower(layout.GroupMarker)):
		tokens := strings.Fields(first)
		if len(tokens) <= groupNameToken {
			return RowClass{}, ErrMalformedHeader
		}
		name := strings.Trim(tokens[groupNameToken], quoteChars)
		if name == "" {
			return RowClass{}, ErrMalformedHeader
		}
		return RowClass{Kind: RowGroupHeader, Name: name}, nil
	case strings.Contains(lower, strings.ToLower(layout.TotalsMarker)):
		return RowClass{Kind: RowTotals}, nil
	default:
		return RowClass{Kind: RowData}, nil
	}
}

// Parse groups worksheet rows into a Snapshot. The first row is the sheet
// title and is skipped. Rows seen before the first group header are dropped.
func Parse(rows [][]string, layout Layout) (*Snapshot, error) {
	snap := NewSnapshot()
	var current *Group

	for i, cells := range rows {
		if i == 0 {
			continue
		}
		class, err := Classify(cells, layout)
		if err != nil {
			return nil, &ParseError{Row: i + 1, Cell: cells[0], Err: err}
		}

		switch class.Kind {
		case RowGroupHeader:
			current = &Group{
				Name:      class.Name,
				Header:    append([]string(nil), layout.Header...),
				Subheader: append([]string(nil), layout.Subheader...),
			}
			snap.Put(current)
		case RowTotals:
			if current == nil {
				continue
			}
			row := Row{Totals: true, Cells: []Value{Text(layout.TotalsLabel)}}
			if len(cells) > 2 {
				row.Cells = append(row.Cells, ParseValues(cells[2:])...)
			}
			current.Rows = append(current.Rows, row)
		default:
			if current == nil {
				continue
			}
			var values []Value
			if len(cells) > 1 {
				values = ParseValues(cells[1:])
			}
			current.Rows = append(current.Rows, Row{Cells: values})
		}
	}

	return snap, nil
}
