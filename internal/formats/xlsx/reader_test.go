package xlsx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func reportWorkbook() *Workbook {
	return &Workbook{
		Sheets: []Sheet{
			{
				Name: "Notes",
				Rows: [][]string{{"not the report"}},
			},
			{
				Name: "Report",
				Rows: [][]string{
					{"Отчёт"},
					{`Итого за группировку "Alpha" x y`},
					{"1", "01.10", "3", "4", "1", "0", "2", "5"},
					{},
					{"Итого", "", "3", "4", "1", "0", "2", "5"},
				},
			},
		},
		ActiveIndex: 1,
	}
}

func writeReport(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.xlsx")
	if err := WriteFile(reportWorkbook(), path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func TestWriteAndRead(t *testing.T) {
	path := writeReport(t)

	// Verify file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatal("WriteFile did not create the file")
	}

	wb, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	if len(wb.Sheets) != 2 {
		t.Fatalf("expected 2 sheets, got %d", len(wb.Sheets))
	}

	sheet := wb.Active()
	if sheet.Name != "Report" {
		t.Errorf("expected active sheet 'Report', got %q", sheet.Name)
	}
	if len(sheet.Rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(sheet.Rows))
	}
	if sheet.Rows[2][2] != "3" {
		t.Errorf("expected raw number '3', got %q", sheet.Rows[2][2])
	}
}

func TestRowsArePadded(t *testing.T) {
	wb, err := ReadFile(writeReport(t))
	if err != nil {
		t.Fatal(err)
	}

	for i, row := range wb.Active().Rows {
		if len(row) != 8 {
			t.Errorf("row %d has %d cells, want 8", i, len(row))
		}
	}
	blank := wb.Active().Rows[3]
	for _, c := range blank {
		if c != "" {
			t.Errorf("blank row has value %q", c)
		}
	}
}

func TestGetSheet(t *testing.T) {
	wb := &Workbook{
		Sheets: []Sheet{
			{Name: "One"},
			{Name: "Two"},
		},
	}

	s, err := wb.GetSheet("Two")
	if err != nil {
		t.Fatalf("GetSheet failed: %v", err)
	}
	if s.Name != "Two" {
		t.Errorf("expected 'Two', got %q", s.Name)
	}

	_, err = wb.GetSheet("Missing")
	if err == nil {
		t.Error("expected error for missing sheet")
	}
}

func TestActiveOutOfRange(t *testing.T) {
	wb := &Workbook{Sheets: []Sheet{{Name: "Only"}}, ActiveIndex: 5}
	if wb.Active().Name != "Only" {
		t.Errorf("expected fallback to first sheet")
	}
}

func TestReadFileNotFound(t *testing.T) {
	_, err := ReadFile("/nonexistent/file.xlsx")
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSourceRowsFromPath(t *testing.T) {
	src := &Source{Location: writeReport(t)}
	rows, err := src.Rows(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if rows[1][0] != `Итого за группировку "Alpha" x y` {
		t.Errorf("unexpected group row: %q", rows[1][0])
	}

	src.Sheet = "Notes"
	rows, err = src.Rows(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if rows[0][0] != "not the report" {
		t.Errorf("named sheet not selected: %q", rows[0][0])
	}

	src.Sheet = "Missing"
	if _, err := src.Rows(context.Background()); err == nil {
		t.Error("expected error for missing sheet")
	}
}

func TestSourceRowsFromURL(t *testing.T) {
	data, err := os.ReadFile(writeReport(t))
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/report.xlsx" {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	defer srv.Close()

	src := &Source{Location: srv.URL + "/report.xlsx"}
	if !src.IsRemote() {
		t.Fatal("expected remote source")
	}
	rows, err := src.Rows(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 5 {
		t.Errorf("expected 5 rows, got %d", len(rows))
	}

	src.Location = srv.URL + "/missing.xlsx"
	if _, err := src.Rows(context.Background()); err == nil {
		t.Error("expected error for 404")
	}
}

func TestSourceRejectsOversizedDownload(t *testing.T) {
	data, err := os.ReadFile(writeReport(t))
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer srv.Close()

	src := &Source{Location: srv.URL + "/report.xlsx", MaxBytes: int64(len(data)) - 1}
	_, err = src.Rows(context.Background())
	if err == nil {
		t.Fatal("expected error for oversized workbook")
	}
	if !strings.Contains(err.Error(), "is larger than") {
		t.Errorf("expected size error, got %v", err)
	}

	src.MaxBytes = int64(len(data))
	if _, err := src.Rows(context.Background()); err != nil {
		t.Errorf("workbook at the limit should load: %v", err)
	}
}

func TestSizeLabel(t *testing.T) {
	if got := sizeLabel(maxDownload); got != "64 MiB" {
		t.Errorf("sizeLabel(maxDownload) = %q", got)
	}
	if got := sizeLabel(10); got != "10 bytes" {
		t.Errorf("sizeLabel(10) = %q", got)
	}
}

func TestSourceEmptyLocation(t *testing.T) {
	if _, err := (&Source{}).Rows(context.Background()); err == nil {
		t.Error("expected error for empty location")
	}
}

func TestIsURL(t *testing.T) {
	if !IsURL("HTTPS://example.com/a.xlsx") {
		t.Error("https should be a URL")
	}
	if IsURL("/data/report.xlsx") {
		t.Error("path should not be a URL")
	}
}
