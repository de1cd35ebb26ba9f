package models

import (
	"time"
)

// TimestampLayout is the wire format for trip timestamps, both in raw
// input files and in warehouse timestamp columns.
const TimestampLayout = "2006-01-02 15:04:05"

// RawTripRecord represents a single ingested trip row. It is immutable
// once read and is the source of truth for all downstream derivation.
type RawTripRecord struct {
	PickupDatetime   time.Time
	DropoffDatetime  time.Time
	PickupLatitude   float64
	PickupLongitude  float64
	DropoffLatitude  float64
	DropoffLongitude float64
	PassengerCount   int
	TripDistance     float64
	PaymentType      int
	FareAmount       float64
	TipAmount        float64
	TotalAmount      float64
}

// DurationSeconds returns dropoff minus pickup in whole seconds. The
// fact measure and the datetime dimension both derive from the same
// timestamp pair, so there is a single place this subtraction happens.
func (r RawTripRecord) DurationSeconds() int64 {
	return r.DropoffDatetime.Unix() - r.PickupDatetime.Unix()
}

// ParseTimestamp parses a trip timestamp, accepting the canonical layout
// with an RFC3339 fallback for exports from other tools.
func ParseTimestamp(value string) (time.Time, error) {
	if t, err := time.Parse(TimestampLayout, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, &ValidationError{
			Field:   "timestamp",
			Value:   value,
			Message: "invalid timestamp format, expected YYYY-MM-DD HH:MM:SS",
		}
	}
	return t, nil
}

// FormatTimestamp renders a timestamp in the canonical layout
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// DatetimeDimensionRow decomposes the pickup and dropoff timestamps of
// one raw record. There is exactly one row per record: DatetimeID is the
// 1-based record position, so the fact table joins it by row identity.
// Weekday follows the Monday=0 .. Sunday=6 convention.
type DatetimeDimensionRow struct {
	DatetimeID      int64     `json:"datetime_id" db:"datetime_id"`
	PickupDatetime  time.Time `json:"pickup_datetime" db:"pickup_datetime"`
	PickupHour      int       `json:"pickup_hour" db:"pickup_hour"`
	PickupDay       int       `json:"pickup_day" db:"pickup_day"`
	PickupMonth     int       `json:"pickup_month" db:"pickup_month"`
	PickupYear      int       `json:"pickup_year" db:"pickup_year"`
	PickupWeekday   int       `json:"pickup_weekday" db:"pickup_weekday"`
	DropoffDatetime time.Time `json:"dropoff_datetime" db:"dropoff_datetime"`
	DropoffHour     int       `json:"dropoff_hour" db:"dropoff_hour"`
	DropoffDay      int       `json:"dropoff_day" db:"dropoff_day"`
	DropoffMonth    int       `json:"dropoff_month" db:"dropoff_month"`
	DropoffYear     int       `json:"dropoff_year" db:"dropoff_year"`
	DropoffWeekday  int       `json:"dropoff_weekday" db:"dropoff_weekday"`
}

// LocationDimensionRow holds one distinct coordinate tuple. Location
// names carry the configured region label; per-coordinate geocoding is
// out of scope.
type LocationDimensionRow struct {
	LocationID          int64   `json:"location_id" db:"location_id"`
	PickupLatitude      float64 `json:"pickup_latitude" db:"pickup_latitude"`
	PickupLongitude     float64 `json:"pickup_longitude" db:"pickup_longitude"`
	DropoffLatitude     float64 `json:"dropoff_latitude" db:"dropoff_latitude"`
	DropoffLongitude    float64 `json:"dropoff_longitude" db:"dropoff_longitude"`
	PickupLocationName  string  `json:"pickup_location_name" db:"pickup_location_name"`
	DropoffLocationName string  `json:"dropoff_location_name" db:"dropoff_location_name"`
}

// PaymentDimensionRow holds one distinct payment type code with its
// resolved name and description.
type PaymentDimensionRow struct {
	PaymentID          int64  `json:"payment_id" db:"payment_id"`
	PaymentType        int    `json:"payment_type" db:"payment_type"`
	PaymentName        string `json:"payment_name" db:"payment_name"`
	PaymentDescription string `json:"payment_description" db:"payment_description"`
}

// PassengerDimensionRow holds one distinct passenger count value
type PassengerDimensionRow struct {
	PassengerID    int64 `json:"passenger_id" db:"passenger_id"`
	PassengerCount int   `json:"passenger_count" db:"passenger_count"`
}

// FactTripRow links one raw record to the four dimensions and carries
// the trip measures.
type FactTripRow struct {
	TripID              int64   `json:"trip_id" db:"trip_id"`
	DatetimeID          int64   `json:"datetime_id" db:"datetime_id"`
	LocationID          int64   `json:"location_id" db:"location_id"`
	PaymentID           int64   `json:"payment_id" db:"payment_id"`
	PassengerID         int64   `json:"passenger_id" db:"passenger_id"`
	TripDistance        float64 `json:"trip_distance" db:"trip_distance"`
	TripDurationSeconds int64   `json:"trip_duration_seconds" db:"trip_duration_seconds"`
	FareAmount          float64 `json:"fare_amount" db:"fare_amount"`
	TipAmount           float64 `json:"tip_amount" db:"tip_amount"`
	TotalAmount         float64 `json:"total_amount" db:"total_amount"`
}

var paymentNames = map[int]string{
	1: "Credit Card",
	2: "Cash",
	3: "No Charge",
	4: "Dispute",
}

var paymentDescriptions = map[int]string{
	1: "Payment by credit card",
	2: "Cash payment",
	3: "Free ride",
	4: "Disputed charge",
}

// PaymentTypeName resolves a payment type code to its display name.
// Unknown codes resolve to "Unknown" rather than failing.
func PaymentTypeName(code int) string {
	if name, ok := paymentNames[code]; ok {
		return name
	}
	return "Unknown"
}

// PaymentTypeDescription resolves a payment type code to its description
func PaymentTypeDescription(code int) string {
	if desc, ok := paymentDescriptions[code]; ok {
		return desc
	}
	return "Unknown payment type"
}
