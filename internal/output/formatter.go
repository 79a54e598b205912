// Package output provides formatting utilities for CLI output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format represents an output format.
type Format int

const (
	// FormatText is human-readable output.
	FormatText Format = iota
	// FormatJSON is JSON output.
	FormatJSON
	// FormatYAML is YAML output.
	FormatYAML
)

// ParseFormat maps a flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return FormatText, fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
	}
}

// Writer handles formatted output to a destination.
type Writer struct {
	dest   io.Writer
	format Format
}

// NewWriter creates a new output writer with the given format.
func NewWriter(format Format) *Writer {
	return NewWriterTo(os.Stdout, format)
}

// NewWriterTo creates an output writer for dest.
func NewWriterTo(dest io.Writer, format Format) *Writer {
	return &Writer{
		dest:   dest,
		format: format,
	}
}

// Format returns the writer's format.
func (w *Writer) Format() Format {
	return w.format
}

// WriteValue encodes v in the writer's structured format. Text writers fall
// back to JSON.
func (w *Writer) WriteValue(v any) error {
	if w.format == FormatYAML {
		return w.WriteYAML(v)
	}
	return w.WriteJSON(v)
}

// WriteJSON encodes a value as pretty-printed JSON.
func (w *Writer) WriteJSON(v any) error {
	enc := json.NewEncoder(w.dest)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteYAML encodes a value as YAML.
func (w *Writer) WriteYAML(v any) error {
	enc := yaml.NewEncoder(w.dest)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("could not encode YAML: %w", err)
	}
	return enc.Close()
}

// WriteText writes plain text.
func (w *Writer) WriteText(s string) error {
	_, err := fmt.Fprint(w.dest, s)
	return err
}

// WriteLn writes a line of text.
func (w *Writer) WriteLn(s string) error {
	_, err := fmt.Fprintln(w.dest, s)
	return err
}

// WriteError writes an error message to stderr.
func WriteError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
