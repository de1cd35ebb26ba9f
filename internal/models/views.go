package models

// Analytical view rows. Each view is recomputed from the current fact
// and dimension state on demand; none of these are persisted as source
// of truth.

// HourlyFareRow aggregates fares by pickup hour
type HourlyFareRow struct {
	PickupHour int     `json:"pickup_hour" db:"pickup_hour"`
	AvgFare    float64 `json:"avg_fare" db:"avg_fare"`
	NumTrips   int64   `json:"num_trips" db:"num_trips"`
	AvgTip     float64 `json:"avg_tip" db:"avg_tip"`
	AvgTotal   float64 `json:"avg_total" db:"avg_total"`
}

// PopularLocationRow aggregates trips by pickup coordinate pair
type PopularLocationRow struct {
	PickupLatitude     float64 `json:"pickup_latitude" db:"pickup_latitude"`
	PickupLongitude    float64 `json:"pickup_longitude" db:"pickup_longitude"`
	NumPickups         int64   `json:"num_pickups" db:"num_pickups"`
	AvgFare            float64 `json:"avg_fare" db:"avg_fare"`
	AvgDistance        float64 `json:"avg_distance" db:"avg_distance"`
	AvgDurationSeconds float64 `json:"avg_duration_seconds" db:"avg_duration_seconds"`
}

// PaymentAnalysisRow aggregates trips by payment name
type PaymentAnalysisRow struct {
	PaymentName string  `json:"payment_name" db:"payment_name"`
	NumTrips    int64   `json:"num_trips" db:"num_trips"`
	AvgFare     float64 `json:"avg_fare" db:"avg_fare"`
	AvgTip      float64 `json:"avg_tip" db:"avg_tip"`
	AvgTotal    float64 `json:"avg_total" db:"avg_total"`
	AvgDistance float64 `json:"avg_distance" db:"avg_distance"`
}

// DailyStatsRow aggregates trips by pickup calendar day
type DailyStatsRow struct {
	PickupYear         int     `json:"pickup_year" db:"pickup_year"`
	PickupMonth        int     `json:"pickup_month" db:"pickup_month"`
	PickupDay          int     `json:"pickup_day" db:"pickup_day"`
	NumTrips           int64   `json:"num_trips" db:"num_trips"`
	AvgFare            float64 `json:"avg_fare" db:"avg_fare"`
	TotalRevenue       float64 `json:"total_revenue" db:"total_revenue"`
	AvgDistance        float64 `json:"avg_distance" db:"avg_distance"`
	AvgDurationSeconds float64 `json:"avg_duration_seconds" db:"avg_duration_seconds"`
}

// TripSummary is the overall run summary. Currency, distance and
// duration fields are rounded to 2 decimal places.
type TripSummary struct {
	TotalTrips         int64   `json:"total_trips"`
	TotalRevenue       float64 `json:"total_revenue"`
	AvgDistance        float64 `json:"avg_distance"`
	AvgDurationMinutes float64 `json:"avg_duration_minutes"`
}

// PaymentShare is one payment type's share of all trips, with the
// percentage rounded to 2 decimal places.
type PaymentShare struct {
	PaymentName string  `json:"payment_name"`
	TripCount   int64   `json:"trip_count"`
	Percentage  float64 `json:"percentage"`
}
