package groups

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Layout describes the fixed column template of every group and the marker
// phrases that delimit groups in the report.
type Layout struct {
	Header       []string `yaml:"header" json:"header"`
	Subheader    []string `yaml:"subheader" json:"subheader"`
	Categories   []string `yaml:"categories" json:"categories"`
	GroupMarker  string   `yaml:"group_marker" json:"groupMarker"`
	TotalsMarker string   `yaml:"totals_marker" json:"totalsMarker"`
	TotalsLabel  string   `yaml:"totals_label" json:"totalsLabel"`
}

// DefaultLayout is the layout of the repair-shop report: a label column and six
// counters.
func DefaultLayout() Layout {
	return Layout{
		Header:    []string{"Полученных", "", "", "Отремонтированных НСУ", "Отремонтировано DJI", "Сданные видео", "Сданные стикеры"},
		Subheader: []string{"", "День", "Ночь", "", "", "", ""},
		Categories: []string{
			"Полученных (День)",
			"Полученных (Ночь)",
			"Отремонтированных НСУ",
			"Отремонтировано DJI",
			"Сданные видео",
			"Сданные стикеры",
		},
		GroupMarker:  "итого за группировку",
		TotalsMarker: "итого",
		TotalsLabel:  "ИТОГО",
	}
}

// LoadLayout reads a YAML layout file. Fields missing from the file keep their
// default values.
func LoadLayout(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Layout{}, fmt.Errorf("layout file not found: %s (check that the path is correct)", path)
		}
		return Layout{}, fmt.Errorf("could not read layout file %s: %w", path, err)
	}
	return ParseLayout(data)
}

// ParseLayout parses a layout from YAML bytes and validates it.
func ParseLayout(data []byte) (Layout, error) {
	l := DefaultLayout()
	if err := yaml.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("invalid layout YAML: %w", err)
	}
	if err := l.Validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// Validate checks that header, subheader and categories line up.
func (l Layout) Validate() error {
	if len(l.Categories) == 0 {
		return fmt.Errorf("layout has no categories")
	}
	if len(l.Header) != len(l.Categories)+1 {
		return fmt.Errorf("layout header has %d columns, want %d (label + %d categories)",
			len(l.Header), len(l.Categories)+1, len(l.Categories))
	}
	if len(l.Subheader) != len(l.Header) {
		return fmt.Errorf("layout subheader has %d columns, want %d", len(l.Subheader), len(l.Header))
	}
	if l.GroupMarker == "" || l.TotalsMarker == "" {
		return fmt.Errorf("layout markers must not be empty")
	}
	if l.TotalsLabel == "" {
		return fmt.Errorf("layout totals label must not be empty")
	}
	return nil
}
