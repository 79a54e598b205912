package diff

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/klytics/countboard/internal/formats/xlsx"
	"github.com/klytics/countboard/internal/groups"
	"github.com/klytics/countboard/internal/poller"
)

func writeReport(t *testing.T, name string, rows [][]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := xlsx.WriteFile(&xlsx.Workbook{Sheets: []xlsx.Sheet{{Name: "Отчёт", Rows: rows}}}, path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCompare(t *testing.T) {
	before := writeReport(t, "before.xlsx", [][]string{
		{"Отчёт", "", "", "", "", "", "", ""},
		{`Итого за группировку "Alpha"`, "", "", "", "", "", "", ""},
		{"1", "01.10", "3", "4", "1", "0", "2", "5"},
		{"Итого", "", "3", "4", "1", "0", "2", "5"},
		{`Итого за группировку "Beta"`, "", "", "", "", "", "", ""},
		{"1", "01.10", "1", "1", "1", "1", "1", "1"},
	})
	after := writeReport(t, "after.xlsx", [][]string{
		{"Отчёт", "", "", "", "", "", "", ""},
		{`Итого за группировку "Alpha"`, "", "", "", "", "", "", ""},
		{"1", "01.10", "5", "4", "1", "0", "2", "5"},
		{"Итого", "", "5", "4", "1", "0", "2", "5"},
		{`Итого за группировку "Gamma"`, "", "", "", "", "", "", ""},
		{"1", "01.10", "1", "1", "1", "1", "1", "1"},
	})

	r, err := Compare(context.Background(), before, after, "", groups.DefaultLayout())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(r.Changes) != 2 {
		t.Fatalf("expected 2 changed cells, got %+v", r.Changes)
	}
	first := r.Changes[0]
	if first.Group != "Alpha" || first.Row != 0 || first.Col != 1 || first.Old != "3" || first.New != "5" {
		t.Errorf("unexpected first change: %+v", first)
	}
	if len(r.Added) != 1 || r.Added[0] != "Gamma" {
		t.Errorf("expected Gamma added, got %v", r.Added)
	}
	if len(r.Removed) != 1 || r.Removed[0] != "Beta" {
		t.Errorf("expected Beta removed, got %v", r.Removed)
	}
	if len(r.Deltas) != 1 || r.Deltas[0].Group != "Alpha" || r.Deltas[0].Values[0] != 2 {
		t.Errorf("unexpected deltas: %+v", r.Deltas)
	}
	if got := r.Stats(); got != "2 cell(s) changed, 1 group(s) added, 1 group(s) removed" {
		t.Errorf("Stats() = %q", got)
	}
}

var oneGroup = [][]string{
	{"Отчёт", "", "", "", "", "", "", ""},
	{`Итого за группировку "Alpha"`, "", "", "", "", "", "", ""},
	{"1", "01.10", "3", "4", "1", "0", "2", "5"},
}

func TestCompareMissingFile(t *testing.T) {
	before := writeReport(t, "before.xlsx", oneGroup)
	_, err := Compare(context.Background(), before, filepath.Join(t.TempDir(), "nope.xlsx"), "", groups.DefaultLayout())
	if err == nil {
		t.Fatal("expected error for missing workbook")
	}
	if !errors.Is(err, poller.ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestCompareWorkbookWithoutGroups(t *testing.T) {
	before := writeReport(t, "before.xlsx", oneGroup)
	empty := writeReport(t, "empty.xlsx", [][]string{{"Отчёт"}})

	for _, pair := range [][2]string{{before, empty}, {empty, before}} {
		_, err := Compare(context.Background(), pair[0], pair[1], "", groups.DefaultLayout())
		if !errors.Is(err, poller.ErrNoData) {
			t.Errorf("Compare(%s, %s): expected ErrNoData, got %v", filepath.Base(pair[0]), filepath.Base(pair[1]), err)
		}
	}
}
