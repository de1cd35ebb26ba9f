// Package export renders computed analytical views into run artifacts:
// one CSV and one JSON statistics file per view, a JSON summary report,
// and optionally a single Excel workbook and an object store upload.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"trips-platform/internal/models"
)

// Table is a view result in column-major-agnostic tabular form, ready
// to be rendered into any artifact format. Cells hold typed values;
// formatting happens per artifact.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// HourlyFaresTable converts the hourly fares view into a Table
func HourlyFaresTable(name string, rows []models.HourlyFareRow) Table {
	t := Table{
		Name:    name,
		Columns: []string{"pickup_hour", "avg_fare", "num_trips", "avg_tip", "avg_total"},
		Rows:    make([][]any, len(rows)),
	}
	for i, r := range rows {
		t.Rows[i] = []any{r.PickupHour, r.AvgFare, r.NumTrips, r.AvgTip, r.AvgTotal}
	}
	return t
}

// PopularLocationsTable converts the popular locations view into a Table
func PopularLocationsTable(name string, rows []models.PopularLocationRow) Table {
	t := Table{
		Name: name,
		Columns: []string{
			"pickup_latitude", "pickup_longitude", "num_pickups",
			"avg_fare", "avg_distance", "avg_duration_seconds",
		},
		Rows: make([][]any, len(rows)),
	}
	for i, r := range rows {
		t.Rows[i] = []any{
			r.PickupLatitude, r.PickupLongitude, r.NumPickups,
			r.AvgFare, r.AvgDistance, r.AvgDurationSeconds,
		}
	}
	return t
}

// PaymentAnalysisTable converts the payment analysis view into a Table
func PaymentAnalysisTable(name string, rows []models.PaymentAnalysisRow) Table {
	t := Table{
		Name: name,
		Columns: []string{
			"payment_name", "num_trips", "avg_fare", "avg_tip", "avg_total", "avg_distance",
		},
		Rows: make([][]any, len(rows)),
	}
	for i, r := range rows {
		t.Rows[i] = []any{r.PaymentName, r.NumTrips, r.AvgFare, r.AvgTip, r.AvgTotal, r.AvgDistance}
	}
	return t
}

// DailyStatsTable converts the daily stats view into a Table
func DailyStatsTable(name string, rows []models.DailyStatsRow) Table {
	t := Table{
		Name: name,
		Columns: []string{
			"pickup_year", "pickup_month", "pickup_day", "num_trips",
			"avg_fare", "total_revenue", "avg_distance", "avg_duration_seconds",
		},
		Rows: make([][]any, len(rows)),
	}
	for i, r := range rows {
		t.Rows[i] = []any{
			r.PickupYear, r.PickupMonth, r.PickupDay, r.NumTrips,
			r.AvgFare, r.TotalRevenue, r.AvgDistance, r.AvgDurationSeconds,
		}
	}
	return t
}

// WriteCSV writes the table as a CSV file with a header row
func WriteCSV(path string, table Table) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write(table.Columns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	record := make([]string, len(table.Columns))
	for _, row := range table.Rows {
		for i, cell := range row {
			record[i] = formatCell(cell)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}

	return nil
}

// ReadCSV reads a CSV artifact back into a string-valued Table
func ReadCSV(path string) (Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("failed to open csv file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("failed to read csv file: %w", err)
	}
	if len(records) == 0 {
		return Table{}, fmt.Errorf("csv file %s has no header", path)
	}

	table := Table{
		Columns: records[0],
		Rows:    make([][]any, len(records)-1),
	}
	for i, record := range records[1:] {
		row := make([]any, len(record))
		for j, cell := range record {
			row[j] = cell
		}
		table.Rows[i] = row
	}

	return table, nil
}

// formatCell renders one cell for CSV output. Floats use the shortest
// representation that round-trips, so artifacts carry full precision.
func formatCell(cell any) string {
	switch v := cell.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
