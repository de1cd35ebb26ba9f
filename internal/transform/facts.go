package transform

import (
	"fmt"

	"trips-platform/internal/models"
)

// UnresolvedKeyError reports a raw record whose natural key has no entry
// in a dimension lookup index. The run aborts instead of silently
// dropping the record.
type UnresolvedKeyError struct {
	Dimension string
	Key       string
	Position  int
}

func (e *UnresolvedKeyError) Error() string {
	return fmt.Sprintf("record %d: no %s entry for natural key %s", e.Position, e.Dimension, e.Key)
}

// IsTransient returns false as unresolved keys are permanent
func (e *UnresolvedKeyError) IsTransient() bool {
	return false
}

// ResolveFacts assembles one fact row per raw record by resolving its
// natural keys against the dimension lookup indexes. Trip keys are
// assigned sequentially in input order. The datetime key is the record
// position itself, so duplicate timestamps across records can never
// fan out into multiple dimension rows.
//
// When the dimensions were built from the same batch every lookup must
// hit; a miss means the batch and dimensions are out of step and yields
// an UnresolvedKeyError rather than a silently shorter fact table.
func ResolveFacts(records []models.RawTripRecord, dims *DimensionSet) ([]models.FactTripRow, error) {
	facts := make([]models.FactTripRow, 0, len(records))

	for i, rec := range records {
		locationID, ok := dims.LocationKeyFor(rec)
		if !ok {
			return nil, &UnresolvedKeyError{
				Dimension: "dim_location",
				Key: fmt.Sprintf("(%v,%v,%v,%v)",
					rec.PickupLatitude, rec.PickupLongitude,
					rec.DropoffLatitude, rec.DropoffLongitude),
				Position: i,
			}
		}

		paymentID, ok := dims.PaymentKeyFor(rec.PaymentType)
		if !ok {
			return nil, &UnresolvedKeyError{
				Dimension: "dim_payment",
				Key:       fmt.Sprintf("%d", rec.PaymentType),
				Position:  i,
			}
		}

		passengerID, ok := dims.PassengerKeyFor(rec.PassengerCount)
		if !ok {
			return nil, &UnresolvedKeyError{
				Dimension: "dim_passenger",
				Key:       fmt.Sprintf("%d", rec.PassengerCount),
				Position:  i,
			}
		}

		facts = append(facts, models.FactTripRow{
			TripID:              int64(i + 1),
			DatetimeID:          dims.DatetimeKeyFor(i),
			LocationID:          locationID,
			PaymentID:           paymentID,
			PassengerID:         passengerID,
			TripDistance:        rec.TripDistance,
			TripDurationSeconds: rec.DurationSeconds(),
			FareAmount:          rec.FareAmount,
			TipAmount:           rec.TipAmount,
			TotalAmount:         rec.TotalAmount,
		})
	}

	return facts, nil
}
