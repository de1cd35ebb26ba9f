package export

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// ColumnStats summarizes one numeric column of a view
type ColumnStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

// TableStats is the JSON statistics artifact written next to each view
// CSV. Null counts cover every column; min/max/mean/median cover the
// numeric ones.
type TableStats struct {
	RowCount       int                    `json:"row_count"`
	Columns        []string               `json:"columns"`
	NullCounts     map[string]int         `json:"null_counts"`
	NumericColumns map[string]ColumnStats `json:"numeric_columns"`
}

// ComputeStats derives the statistics artifact for a table
func ComputeStats(table Table) *TableStats {
	stats := &TableStats{
		RowCount:       len(table.Rows),
		Columns:        table.Columns,
		NullCounts:     make(map[string]int, len(table.Columns)),
		NumericColumns: make(map[string]ColumnStats),
	}

	for i, column := range table.Columns {
		nulls := 0
		var values []float64

		for _, row := range table.Rows {
			if i >= len(row) || row[i] == nil {
				nulls++
				continue
			}
			if v, ok := numericValue(row[i]); ok {
				values = append(values, v)
			}
		}

		stats.NullCounts[column] = nulls
		if len(values) > 0 {
			stats.NumericColumns[column] = columnStats(values)
		}
	}

	return stats
}

// WriteStats writes the statistics artifact for a table as JSON
func WriteStats(path string, table Table) error {
	stats := ComputeStats(table)

	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write stats file: %w", err)
	}

	return nil
}

func columnStats(values []float64) ColumnStats {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}

	return ColumnStats{
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Mean:   sum / float64(len(sorted)),
		Median: median(sorted),
	}
}

// median expects a sorted slice
func median(sorted []float64) float64 {
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func numericValue(cell any) (float64, bool) {
	switch v := cell.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
