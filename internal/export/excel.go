package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// WriteWorkbook writes every view table plus the summary report into a
// single Excel workbook, one sheet per view and one Summary sheet.
func WriteWorkbook(path string, tables []Table, report *SummaryReport) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetDocProps(&excelize.DocProperties{
		Title:       "Trips Pipeline Report",
		Subject:     "Trip Data Analysis",
		Creator:     "trips-platform",
		Description: fmt.Sprintf("Analytical views for run %s", report.RunID),
		Created:     report.GeneratedAt.Format(time.RFC3339),
	})

	for _, table := range tables {
		if err := writeTableSheet(f, table); err != nil {
			return err
		}
	}

	if err := writeSummarySheet(f, report); err != nil {
		return err
	}

	f.DeleteSheet("Sheet1")

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	return nil
}

func writeTableSheet(f *excelize.File, table Table) error {
	sheetName := sheetTitle(table.Name)
	if _, err := f.NewSheet(sheetName); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheetName, err)
	}

	for i, column := range table.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, column)
	}

	for rowIdx, row := range table.Rows {
		for colIdx, value := range row {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	return nil
}

func writeSummarySheet(f *excelize.File, report *SummaryReport) error {
	sheetName := "Summary"
	if _, err := f.NewSheet(sheetName); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheetName, err)
	}

	pairs := []struct {
		label string
		value any
	}{
		{"Run ID", report.RunID},
		{"Generated At", report.GeneratedAt.Format(time.RFC3339)},
		{"Source Fingerprint", report.SourceFingerprint},
		{"Total Trips", report.OverallStats.TotalTrips},
		{"Total Revenue", report.OverallStats.TotalRevenue},
		{"Avg Distance", report.OverallStats.AvgDistance},
		{"Avg Duration (min)", report.OverallStats.AvgDurationMinutes},
	}

	for i, pair := range pairs {
		labelCell, _ := excelize.CoordinatesToCellName(1, i+1)
		valueCell, _ := excelize.CoordinatesToCellName(2, i+1)
		f.SetCellValue(sheetName, labelCell, pair.label)
		f.SetCellValue(sheetName, valueCell, pair.value)
	}

	headerRow := len(pairs) + 2
	for i, header := range []string{"Payment Type", "Trips", "Percentage"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		f.SetCellValue(sheetName, cell, header)
	}
	for i, share := range report.PaymentDistribution {
		row := headerRow + 1 + i
		nameCell, _ := excelize.CoordinatesToCellName(1, row)
		countCell, _ := excelize.CoordinatesToCellName(2, row)
		pctCell, _ := excelize.CoordinatesToCellName(3, row)
		f.SetCellValue(sheetName, nameCell, share.PaymentName)
		f.SetCellValue(sheetName, countCell, share.TripCount)
		f.SetCellValue(sheetName, pctCell, share.Percentage)
	}

	return nil
}

// sheetTitle turns a view name like vw_hourly_fares into Hourly Fares
func sheetTitle(viewName string) string {
	name := strings.TrimPrefix(viewName, "vw_")
	words := strings.Split(name, "_")
	for i, word := range words {
		if word != "" {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}
