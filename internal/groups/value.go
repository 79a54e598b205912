package groups

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Kind identifies what a cell holds.
type Kind uint8

const (
	// KindEmpty is a blank cell.
	KindEmpty Kind = iota
	// KindNumber is a numeric cell.
	KindNumber
	// KindText is any other non-blank cell.
	KindText
)

// Value is a single cell. Values compare with ==, so an empty cell and a zero
// are different values.
type Value struct {
	Kind Kind
	Num  float64
	Text string
}

// Empty returns a blank cell value.
func Empty() Value { return Value{} }

// Number returns a numeric cell value.
func Number(n float64) Value { return Value{Kind: KindNumber, Num: n} }

// Text returns a text cell value.
func Text(s string) Value { return Value{Kind: KindText, Text: s} }

// ParseValue converts a raw cell string into a Value. Only finite numbers
// become Number; "NaN" and "Inf" stay text so that a value always equals
// itself.
func ParseValue(raw string) Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Empty()
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
		return Number(n)
	}
	return Text(raw)
}

// ParseValues converts a slice of raw cell strings.
func ParseValues(raw []string) []Value {
	out := make([]Value, len(raw))
	for i, s := range raw {
		out[i] = ParseValue(s)
	}
	return out
}

// IsEmpty reports whether the cell is blank.
func (v Value) IsEmpty() bool { return v.Kind == KindEmpty }

// Float returns the numeric value, or 0 and false for blank and text cells.
func (v Value) Float() (float64, bool) {
	if v.Kind != KindNumber {
		return 0, false
	}
	return v.Num, true
}

// String renders the value the way the dashboard shows it.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindText:
		return v.Text
	default:
		return ""
	}
}

func (v Value) export() any {
	switch v.Kind {
	case KindNumber:
		return v.Num
	case KindText:
		return v.Text
	default:
		return nil
	}
}

// MarshalJSON encodes the value as null, a number or a string.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.export())
}

// MarshalYAML encodes the value as null, a number or a string.
func (v Value) MarshalYAML() (any, error) {
	return v.export(), nil
}
