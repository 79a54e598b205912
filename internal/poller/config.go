package poller

import (
	"fmt"

	"github.com/klytics/countboard/internal/config"
	"github.com/klytics/countboard/internal/formats/xlsx"
	"github.com/klytics/countboard/internal/groups"
)

// FromConfig builds a Poller reading cfg.Workbook with cfg's layout and
// timings. trigger may be nil.
func FromConfig(cfg *config.Config, trigger <-chan struct{}) (*Poller, error) {
	if cfg.Workbook == "" {
		return nil, fmt.Errorf("workbook location is not set; export COUNTBOARD_WORKBOOK or pass --workbook")
	}

	layout := groups.DefaultLayout()
	if cfg.Layout != "" {
		l, err := groups.LoadLayout(cfg.Layout)
		if err != nil {
			return nil, err
		}
		layout = l
	}

	source := &xlsx.Source{Location: cfg.Workbook, Sheet: cfg.Sheet}
	return New(source, Config{
		Layout:        layout,
		Interval:      cfg.Interval,
		HistoryWindow: cfg.HistoryWindow,
		Trigger:       trigger,
	}), nil
}
