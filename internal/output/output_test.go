package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatText},
		{"text", FormatText},
		{"JSON", FormatJSON},
		{"yml", FormatYAML},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if err != nil {
			t.Fatalf("ParseFormat(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestWriteValue(t *testing.T) {
	data := map[string]any{"group": "Alpha", "rows": 3}

	var buf bytes.Buffer
	if err := NewWriterTo(&buf, FormatYAML).WriteValue(data); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "group: Alpha") {
		t.Errorf("unexpected YAML: %q", buf.String())
	}

	buf.Reset()
	if err := NewWriterTo(&buf, FormatJSON).WriteValue(data); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"group": "Alpha"`) {
		t.Errorf("unexpected JSON: %q", buf.String())
	}
}

func TestShouldPageNotTerminal(t *testing.T) {
	// go test runs with stdout redirected.
	if ShouldPage(strings.Repeat("line\n", 500), 10) {
		t.Error("should not page when stdout is not a terminal")
	}
}
