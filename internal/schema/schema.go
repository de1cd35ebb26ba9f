// Package schema declares the fixed dimensional schema of the trips
// warehouse: the required raw input columns, the column set of every
// staging, dimension and fact table, and the foreign-key references the
// consistency checks enforce. All stages consume table shapes from here
// instead of carrying their own column literals.
package schema

import (
	"fmt"
	"sort"
	"strings"
)

// ColumnType is the logical type of a warehouse column. The warehouse
// layer maps it to a concrete SQL type per backend.
type ColumnType int

const (
	TypeInteger ColumnType = iota
	TypeReal
	TypeText
	TypeTimestamp
)

// Column describes a single warehouse column. Null handling is not
// declared here: tables are rebuilt from derived rows on every run and
// the consistency checks enforce required columns after materialization.
type Column struct {
	Name string
	Type ColumnType
}

// TableSpec describes one warehouse table. KeyColumn, when set, is the
// surrogate key and receives an index after every load. IndexColumns
// lists additional columns to index (fact foreign keys).
type TableSpec struct {
	Name         string
	KeyColumn    string
	IndexColumns []string
	Columns      []Column
}

// ColumnNames returns the declared column names in order
func (t TableSpec) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Reference links a fact foreign-key column to the dimension table and
// key column it must resolve against.
type Reference struct {
	Column    string
	Table     string
	KeyColumn string
}

// RequiredRawColumns is the column set a raw input file must provide.
// A file missing any of these aborts the pipeline before transformation.
var RequiredRawColumns = []string{
	"pickup_datetime",
	"dropoff_datetime",
	"pickup_latitude",
	"pickup_longitude",
	"dropoff_latitude",
	"dropoff_longitude",
	"passenger_count",
	"trip_distance",
	"payment_type",
	"fare_amount",
	"tip_amount",
	"total_amount",
}

// StagingTrips holds the raw batch exactly as ingested
var StagingTrips = TableSpec{
	Name: "staging_trips",
	Columns: []Column{
		{Name: "pickup_datetime", Type: TypeTimestamp},
		{Name: "dropoff_datetime", Type: TypeTimestamp},
		{Name: "pickup_latitude", Type: TypeReal},
		{Name: "pickup_longitude", Type: TypeReal},
		{Name: "dropoff_latitude", Type: TypeReal},
		{Name: "dropoff_longitude", Type: TypeReal},
		{Name: "passenger_count", Type: TypeInteger},
		{Name: "trip_distance", Type: TypeReal},
		{Name: "payment_type", Type: TypeInteger},
		{Name: "fare_amount", Type: TypeReal},
		{Name: "tip_amount", Type: TypeReal},
		{Name: "total_amount", Type: TypeReal},
	},
}

// DimDatetime carries one row per raw record: the surrogate key is the
// 1-based record position, so fact resolution joins by row identity and
// duplicate timestamps can never fan out.
var DimDatetime = TableSpec{
	Name:      "dim_datetime",
	KeyColumn: "datetime_id",
	Columns: []Column{
		{Name: "datetime_id", Type: TypeInteger},
		{Name: "pickup_datetime", Type: TypeTimestamp},
		{Name: "pickup_hour", Type: TypeInteger},
		{Name: "pickup_day", Type: TypeInteger},
		{Name: "pickup_month", Type: TypeInteger},
		{Name: "pickup_year", Type: TypeInteger},
		{Name: "pickup_weekday", Type: TypeInteger},
		{Name: "dropoff_datetime", Type: TypeTimestamp},
		{Name: "dropoff_hour", Type: TypeInteger},
		{Name: "dropoff_day", Type: TypeInteger},
		{Name: "dropoff_month", Type: TypeInteger},
		{Name: "dropoff_year", Type: TypeInteger},
		{Name: "dropoff_weekday", Type: TypeInteger},
	},
}

// DimLocation is deduplicated by the exact coordinate tuple
var DimLocation = TableSpec{
	Name:      "dim_location",
	KeyColumn: "location_id",
	Columns: []Column{
		{Name: "location_id", Type: TypeInteger},
		{Name: "pickup_latitude", Type: TypeReal},
		{Name: "pickup_longitude", Type: TypeReal},
		{Name: "dropoff_latitude", Type: TypeReal},
		{Name: "dropoff_longitude", Type: TypeReal},
		{Name: "pickup_location_name", Type: TypeText},
		{Name: "dropoff_location_name", Type: TypeText},
	},
}

// DimPayment is deduplicated by payment type code
var DimPayment = TableSpec{
	Name:      "dim_payment",
	KeyColumn: "payment_id",
	Columns: []Column{
		{Name: "payment_id", Type: TypeInteger},
		{Name: "payment_type", Type: TypeInteger},
		{Name: "payment_name", Type: TypeText},
		{Name: "payment_description", Type: TypeText},
	},
}

// DimPassenger is deduplicated by passenger count value
var DimPassenger = TableSpec{
	Name:      "dim_passenger",
	KeyColumn: "passenger_id",
	Columns: []Column{
		{Name: "passenger_id", Type: TypeInteger},
		{Name: "passenger_count", Type: TypeInteger},
	},
}

// FactTrips links the four dimensions and carries the trip measures
var FactTrips = TableSpec{
	Name:         "fact_trips",
	KeyColumn:    "trip_id",
	IndexColumns: []string{"datetime_id", "location_id", "payment_id", "passenger_id"},
	Columns: []Column{
		{Name: "trip_id", Type: TypeInteger},
		{Name: "datetime_id", Type: TypeInteger},
		{Name: "location_id", Type: TypeInteger},
		{Name: "payment_id", Type: TypeInteger},
		{Name: "passenger_id", Type: TypeInteger},
		{Name: "trip_distance", Type: TypeReal},
		{Name: "trip_duration_seconds", Type: TypeInteger},
		{Name: "fare_amount", Type: TypeReal},
		{Name: "tip_amount", Type: TypeReal},
		{Name: "total_amount", Type: TypeReal},
	},
}

// FactReferences lists the foreign keys the referential check verifies
var FactReferences = []Reference{
	{Column: "datetime_id", Table: DimDatetime.Name, KeyColumn: "datetime_id"},
	{Column: "location_id", Table: DimLocation.Name, KeyColumn: "location_id"},
	{Column: "payment_id", Table: DimPayment.Name, KeyColumn: "payment_id"},
	{Column: "passenger_id", Table: DimPassenger.Name, KeyColumn: "passenger_id"},
}

// NonNegativeMeasures are the fact measures the value-domain check
// requires to be >= 0.
var NonNegativeMeasures = []string{
	"trip_distance",
	"trip_duration_seconds",
	"fare_amount",
}

// RequiredFactColumns are fact columns that must never be null
var RequiredFactColumns = []string{
	"datetime_id",
	"location_id",
	"payment_id",
	"passenger_id",
	"trip_distance",
	"trip_duration_seconds",
	"fare_amount",
	"tip_amount",
	"total_amount",
}

// Tables returns every warehouse table in load order
func Tables() []TableSpec {
	return []TableSpec{
		StagingTrips,
		DimDatetime,
		DimLocation,
		DimPayment,
		DimPassenger,
		FactTrips,
	}
}

// ValidateColumns checks a raw input header against RequiredRawColumns.
// Extra columns are ignored; any missing required column is fatal.
func ValidateColumns(found []string) error {
	present := make(map[string]bool, len(found))
	for _, name := range found {
		present[strings.TrimSpace(name)] = true
	}

	var missing []string
	for _, name := range RequiredRawColumns {
		if !present[name] {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return &MissingColumnsError{Missing: missing}
	}

	return nil
}

// MissingColumnsError reports required raw input columns absent from the
// ingested file. It aborts the pipeline before any transformation.
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("raw input is missing required columns: %s", strings.Join(e.Missing, ", "))
}

// IsTransient returns false as schema errors are permanent
func (e *MissingColumnsError) IsTransient() bool {
	return false
}
