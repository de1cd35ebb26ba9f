package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStats(t *testing.T) {
	table := Table{
		Name:    "vw_payment_analysis",
		Columns: []string{"payment_name", "num_trips", "avg_fare"},
		Rows: [][]any{
			{"Cash", int64(1), 15.5},
			{"Credit Card", int64(2), 13.5},
			{"Dispute", int64(4), 9.0},
		},
	}

	stats := ComputeStats(table)

	assert.Equal(t, 3, stats.RowCount)
	assert.Equal(t, table.Columns, stats.Columns)
	assert.Equal(t, 0, stats.NullCounts["payment_name"])
	assert.Equal(t, 0, stats.NullCounts["avg_fare"])

	// Text columns get null counts only
	_, ok := stats.NumericColumns["payment_name"]
	assert.False(t, ok)

	trips := stats.NumericColumns["num_trips"]
	assert.Equal(t, 1.0, trips.Min)
	assert.Equal(t, 4.0, trips.Max)
	assert.InDelta(t, 7.0/3, trips.Mean, 1e-9)
	assert.Equal(t, 2.0, trips.Median)

	fares := stats.NumericColumns["avg_fare"]
	assert.Equal(t, 9.0, fares.Min)
	assert.Equal(t, 15.5, fares.Max)
	assert.Equal(t, 13.5, fares.Median)
}

func TestComputeStats_EvenCountMedian(t *testing.T) {
	table := Table{
		Columns: []string{"value"},
		Rows:    [][]any{{4.0}, {1.0}, {3.0}, {2.0}},
	}

	stats := ComputeStats(table)

	col := stats.NumericColumns["value"]
	assert.Equal(t, 1.0, col.Min)
	assert.Equal(t, 4.0, col.Max)
	assert.Equal(t, 2.5, col.Mean)
	assert.Equal(t, 2.5, col.Median)
}

func TestComputeStats_NullsAndShortRows(t *testing.T) {
	table := Table{
		Columns: []string{"a", "b"},
		Rows: [][]any{
			{1.0, 2.0},
			{nil, 3.0},
			{4.0}, // missing trailing cell counts as null
		},
	}

	stats := ComputeStats(table)

	assert.Equal(t, 3, stats.RowCount)
	assert.Equal(t, 1, stats.NullCounts["a"])
	assert.Equal(t, 1, stats.NullCounts["b"])

	a := stats.NumericColumns["a"]
	assert.Equal(t, 1.0, a.Min)
	assert.Equal(t, 4.0, a.Max)
	assert.Equal(t, 2.5, a.Mean)
}

func TestComputeStats_EmptyTable(t *testing.T) {
	table := Table{
		Columns: []string{"a"},
	}

	stats := ComputeStats(table)

	assert.Equal(t, 0, stats.RowCount)
	assert.Equal(t, 0, stats.NullCounts["a"])
	assert.Empty(t, stats.NumericColumns)
}

func TestWriteStats_RoundTrip(t *testing.T) {
	table := Table{
		Name:    "vw_hourly_fares",
		Columns: []string{"pickup_hour", "avg_fare"},
		Rows: [][]any{
			{8, 13.5},
			{9, 15.5},
		},
	}

	path := filepath.Join(t.TempDir(), "vw_hourly_fares_stats.json")
	require.NoError(t, WriteStats(path, table))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got TableStats
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, 2, got.RowCount)
	assert.Equal(t, table.Columns, got.Columns)
	assert.Equal(t, 8.0, got.NumericColumns["pickup_hour"].Min)
	assert.Equal(t, 9.0, got.NumericColumns["pickup_hour"].Max)
	assert.Equal(t, 14.5, got.NumericColumns["avg_fare"].Mean)
}
