// Package xlsx reads report workbooks (.xlsx) from disk or over HTTP.
package xlsx

import (
	"bytes"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"
)

// Sheet represents a single worksheet's data. Every row is padded to the
// width of the widest row.
type Sheet struct {
	Name string     `json:"name"`
	Rows [][]string `json:"rows"`
}

// Workbook represents a parsed Excel file with all its sheets.
type Workbook struct {
	Sheets []Sheet `json:"sheets"`
	// ActiveIndex is the index in Sheets of the sheet that was active when the
	// workbook was saved.
	ActiveIndex int `json:"activeIndex"`
}

// ReadFile reads an .xlsx file and returns its structured data.
func ReadFile(path string) (*Workbook, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("file not found: %s (check that the path is correct)", path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %s as .xlsx: %w", path, err)
	}
	defer f.Close()

	return readWorkbook(f)
}

// ReadBytes reads an .xlsx file from a byte slice and returns its structured data.
func ReadBytes(data []byte) (*Workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("could not read Excel data: %w", err)
	}
	defer f.Close()

	return readWorkbook(f)
}

func readWorkbook(f *excelize.File) (*Workbook, error) {
	wb := &Workbook{}
	active := f.GetSheetName(f.GetActiveSheetIndex())

	for _, name := range f.GetSheetList() {
		// Raw values keep numbers unformatted ("1250" rather than "1,250").
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("could not read sheet %q: %w", name, err)
		}

		if name == active {
			wb.ActiveIndex = len(wb.Sheets)
		}
		wb.Sheets = append(wb.Sheets, Sheet{
			Name: name,
			Rows: padRows(rows),
		})
	}

	if len(wb.Sheets) == 0 {
		return nil, fmt.Errorf("workbook has no worksheets")
	}
	return wb, nil
}

// padRows extends every row to the widest row's length. excelize trims
// trailing blank cells and returns blank rows as empty slices.
func padRows(rows [][]string) [][]string {
	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}
	for i, r := range rows {
		if len(r) < width {
			padded := make([]string, width)
			copy(padded, r)
			rows[i] = padded
		}
	}
	return rows
}

// GetSheet returns a specific sheet by name. Returns an error if the sheet is not found.
func (wb *Workbook) GetSheet(name string) (*Sheet, error) {
	for i := range wb.Sheets {
		if wb.Sheets[i].Name == name {
			return &wb.Sheets[i], nil
		}
	}

	available := make([]string, len(wb.Sheets))
	for i, s := range wb.Sheets {
		available[i] = s.Name
	}
	return nil, fmt.Errorf("sheet %q not found (available sheets: %v)", name, available)
}

// Active returns the sheet that was active when the workbook was saved.
func (wb *Workbook) Active() *Sheet {
	if wb.ActiveIndex < 0 || wb.ActiveIndex >= len(wb.Sheets) {
		return &wb.Sheets[0]
	}
	return &wb.Sheets[wb.ActiveIndex]
}
