// Package transform derives the star schema from a raw trip batch as
// pure functions over in-memory rows. Key assignment order and
// deduplication semantics live here, outside the storage engine, so
// they are explicit and testable.
package transform

import (
	"time"

	"trips-platform/internal/models"
)

// locationKey is the natural key of dim_location: the exact coordinate
// tuple of a trip. Equality is exact float equality on purpose; raw
// values are never recomputed, so identical inputs stay identical.
type locationKey struct {
	pickupLat   float64
	pickupLong  float64
	dropoffLat  float64
	dropoffLong float64
}

// DimensionSet holds the four dimension tables built from one raw batch
// together with the natural-key lookup indexes the fact resolver joins
// against.
type DimensionSet struct {
	Datetime  []models.DatetimeDimensionRow
	Location  []models.LocationDimensionRow
	Payment   []models.PaymentDimensionRow
	Passenger []models.PassengerDimensionRow

	locationIndex  map[locationKey]int64
	paymentIndex   map[int]int64
	passengerIndex map[int]int64
}

// BuildDimensions projects the four dimension tables out of a raw batch.
// Surrogate keys are assigned sequentially in first-seen order, so a
// fixed input order yields identical tables on every rebuild. An empty
// batch produces empty tables, not an error.
//
// The datetime dimension is not deduplicated: it carries one row per raw
// record with the 1-based record position as its key. Deduplicating by
// timestamp value would force the fact resolver into a value-equality
// join that fans out on duplicate timestamps.
func BuildDimensions(records []models.RawTripRecord, regionLabel string) *DimensionSet {
	dims := &DimensionSet{
		Datetime:       make([]models.DatetimeDimensionRow, 0, len(records)),
		Location:       make([]models.LocationDimensionRow, 0),
		Payment:        make([]models.PaymentDimensionRow, 0),
		Passenger:      make([]models.PassengerDimensionRow, 0),
		locationIndex:  make(map[locationKey]int64),
		paymentIndex:   make(map[int]int64),
		passengerIndex: make(map[int]int64),
	}

	for i, rec := range records {
		dims.Datetime = append(dims.Datetime, datetimeRow(int64(i+1), rec))

		lk := locationKeyOf(rec)
		if _, seen := dims.locationIndex[lk]; !seen {
			id := int64(len(dims.Location) + 1)
			dims.locationIndex[lk] = id
			dims.Location = append(dims.Location, models.LocationDimensionRow{
				LocationID:          id,
				PickupLatitude:      rec.PickupLatitude,
				PickupLongitude:     rec.PickupLongitude,
				DropoffLatitude:     rec.DropoffLatitude,
				DropoffLongitude:    rec.DropoffLongitude,
				PickupLocationName:  regionLabel,
				DropoffLocationName: regionLabel,
			})
		}

		if _, seen := dims.paymentIndex[rec.PaymentType]; !seen {
			id := int64(len(dims.Payment) + 1)
			dims.paymentIndex[rec.PaymentType] = id
			dims.Payment = append(dims.Payment, models.PaymentDimensionRow{
				PaymentID:          id,
				PaymentType:        rec.PaymentType,
				PaymentName:        models.PaymentTypeName(rec.PaymentType),
				PaymentDescription: models.PaymentTypeDescription(rec.PaymentType),
			})
		}

		if _, seen := dims.passengerIndex[rec.PassengerCount]; !seen {
			id := int64(len(dims.Passenger) + 1)
			dims.passengerIndex[rec.PassengerCount] = id
			dims.Passenger = append(dims.Passenger, models.PassengerDimensionRow{
				PassengerID:    id,
				PassengerCount: rec.PassengerCount,
			})
		}
	}

	return dims
}

// DatetimeKeyFor returns the datetime surrogate key for the record at
// the given 0-based batch position. Row identity makes this a total,
// exact 1:1 mapping.
func (d *DimensionSet) DatetimeKeyFor(position int) int64 {
	return int64(position + 1)
}

// LocationKeyFor resolves a record's coordinate tuple to its surrogate key
func (d *DimensionSet) LocationKeyFor(rec models.RawTripRecord) (int64, bool) {
	id, ok := d.locationIndex[locationKeyOf(rec)]
	return id, ok
}

// PaymentKeyFor resolves a payment type code to its surrogate key
func (d *DimensionSet) PaymentKeyFor(code int) (int64, bool) {
	id, ok := d.paymentIndex[code]
	return id, ok
}

// PassengerKeyFor resolves a passenger count to its surrogate key
func (d *DimensionSet) PassengerKeyFor(count int) (int64, bool) {
	id, ok := d.passengerIndex[count]
	return id, ok
}

func locationKeyOf(rec models.RawTripRecord) locationKey {
	return locationKey{
		pickupLat:   rec.PickupLatitude,
		pickupLong:  rec.PickupLongitude,
		dropoffLat:  rec.DropoffLatitude,
		dropoffLong: rec.DropoffLongitude,
	}
}

func datetimeRow(id int64, rec models.RawTripRecord) models.DatetimeDimensionRow {
	return models.DatetimeDimensionRow{
		DatetimeID:      id,
		PickupDatetime:  rec.PickupDatetime,
		PickupHour:      rec.PickupDatetime.Hour(),
		PickupDay:       rec.PickupDatetime.Day(),
		PickupMonth:     int(rec.PickupDatetime.Month()),
		PickupYear:      rec.PickupDatetime.Year(),
		PickupWeekday:   weekdayIndex(rec.PickupDatetime),
		DropoffDatetime: rec.DropoffDatetime,
		DropoffHour:     rec.DropoffDatetime.Hour(),
		DropoffDay:      rec.DropoffDatetime.Day(),
		DropoffMonth:    int(rec.DropoffDatetime.Month()),
		DropoffYear:     rec.DropoffDatetime.Year(),
		DropoffWeekday:  weekdayIndex(rec.DropoffDatetime),
	}
}

// weekdayIndex maps time.Weekday (Sunday=0) to the Monday=0 convention
func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
