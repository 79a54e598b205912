//go:build ignore

// This program generates the sample report workbook used for manual testing:
//
//	go run testdata/generate_fixtures.go
//	countboard serve --workbook testdata/sample.xlsx
package main

import (
	"fmt"
	"os"

	"github.com/klytics/countboard/internal/formats/xlsx"
)

func main() {
	if err := generateReport(); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating sample.xlsx: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Test fixtures generated successfully.")
}

func generateReport() error {
	rows := [][]string{
		{"Отчёт по группировкам", "", "", "", "", "", "", ""},
		{"№", "Дата", "Полученных", "", "Обработанных", "", "Выданных", ""},
	}

	for _, g := range []struct {
		name string
		days [][]string
	}{
		{"Северный", [][]string{{"01.10", "12", "140", "10", "131", "9", "120"}, {"02.10", "7", "147", "11", "142", "6", "126"}}},
		{"Южный", [][]string{{"01.10", "5", "61", "4", "58", "3", "51"}}},
		{"«Центральный»", [][]string{{"01.10", "20", "310", "18", "296", "15", "280"}, {"02.10", "0", "310", "2", "298", "4", "284"}}},
	} {
		rows = append(rows, []string{fmt.Sprintf("Итого за группировку \"%s\"", g.name), "", "", "", "", "", "", ""})
		sum := make([]int, 6)
		for i, d := range g.days {
			rows = append(rows, append([]string{fmt.Sprint(i + 1)}, d...))
			for j := range sum {
				var n int
				fmt.Sscan(d[j+1], &n)
				sum[j] += n
			}
		}
		totals := []string{"Итого", ""}
		for _, n := range sum {
			totals = append(totals, fmt.Sprint(n))
		}
		rows = append(rows, totals)
	}

	wb := &xlsx.Workbook{Sheets: []xlsx.Sheet{{Name: "Отчёт", Rows: rows}}}
	return xlsx.WriteFile(wb, "testdata/sample.xlsx")
}
