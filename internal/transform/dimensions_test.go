package transform

import (
	"reflect"
	"testing"
	"time"

	"trips-platform/internal/models"
)

func tripRecord(pickup, dropoff time.Time, lat, long float64, passengers, payment int) models.RawTripRecord {
	return models.RawTripRecord{
		PickupDatetime:   pickup,
		DropoffDatetime:  dropoff,
		PickupLatitude:   lat,
		PickupLongitude:  long,
		DropoffLatitude:  lat + 0.01,
		DropoffLongitude: long + 0.01,
		PassengerCount:   passengers,
		TripDistance:     2.5,
		PaymentType:      payment,
		FareAmount:       10.0,
		TipAmount:        1.5,
		TotalAmount:      11.5,
	}
}

// TestBuildDimensions_IdenticalLocations covers the core dedup
// behavior: three records sharing one coordinate tuple produce a single
// location row that all of them resolve to.
func TestBuildDimensions_IdenticalLocations(t *testing.T) {
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	records := []models.RawTripRecord{
		tripRecord(base, base.Add(10*time.Minute), 40.7128, -74.0060, 1, 1),
		tripRecord(base.Add(time.Hour), base.Add(70*time.Minute), 40.7128, -74.0060, 2, 2),
		tripRecord(base.Add(2*time.Hour), base.Add(130*time.Minute), 40.7128, -74.0060, 3, 1),
	}

	dims := BuildDimensions(records, "NYC Area")

	if len(dims.Location) != 1 {
		t.Fatalf("Location rows = %d, want 1", len(dims.Location))
	}
	if dims.Location[0].LocationID != 1 {
		t.Errorf("LocationID = %d, want 1", dims.Location[0].LocationID)
	}

	for i, rec := range records {
		id, ok := dims.LocationKeyFor(rec)
		if !ok {
			t.Fatalf("record %d did not resolve to a location", i)
		}
		if id != 1 {
			t.Errorf("record %d location key = %d, want 1", i, id)
		}
	}

	// Datetime is never deduplicated: one row per record
	if len(dims.Datetime) != 3 {
		t.Errorf("Datetime rows = %d, want 3", len(dims.Datetime))
	}
}

func TestBuildDimensions_FirstSeenKeyOrder(t *testing.T) {
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	records := []models.RawTripRecord{
		tripRecord(base, base.Add(time.Minute), 40.70, -74.00, 2, 2),
		tripRecord(base, base.Add(time.Minute), 40.71, -74.01, 1, 1),
		tripRecord(base, base.Add(time.Minute), 40.70, -74.00, 2, 2),
		tripRecord(base, base.Add(time.Minute), 40.72, -74.02, 3, 1),
	}

	dims := BuildDimensions(records, "NYC Area")

	if len(dims.Location) != 3 {
		t.Fatalf("Location rows = %d, want 3", len(dims.Location))
	}
	wantLats := []float64{40.70, 40.71, 40.72}
	for i, row := range dims.Location {
		if row.LocationID != int64(i+1) {
			t.Errorf("Location[%d].LocationID = %d, want %d", i, row.LocationID, i+1)
		}
		if row.PickupLatitude != wantLats[i] {
			t.Errorf("Location[%d].PickupLatitude = %v, want %v", i, row.PickupLatitude, wantLats[i])
		}
	}

	// Payment codes 2 then 1, in first-seen order
	if len(dims.Payment) != 2 {
		t.Fatalf("Payment rows = %d, want 2", len(dims.Payment))
	}
	if dims.Payment[0].PaymentType != 2 || dims.Payment[0].PaymentID != 1 {
		t.Errorf("Payment[0] = {type %d, id %d}, want {type 2, id 1}", dims.Payment[0].PaymentType, dims.Payment[0].PaymentID)
	}
	if dims.Payment[1].PaymentType != 1 || dims.Payment[1].PaymentID != 2 {
		t.Errorf("Payment[1] = {type %d, id %d}, want {type 1, id 2}", dims.Payment[1].PaymentType, dims.Payment[1].PaymentID)
	}

	// Passenger counts 2, 1, 3 in first-seen order
	wantCounts := []int{2, 1, 3}
	if len(dims.Passenger) != len(wantCounts) {
		t.Fatalf("Passenger rows = %d, want %d", len(dims.Passenger), len(wantCounts))
	}
	for i, row := range dims.Passenger {
		if row.PassengerCount != wantCounts[i] {
			t.Errorf("Passenger[%d].PassengerCount = %d, want %d", i, row.PassengerCount, wantCounts[i])
		}
	}
}

// TestBuildDimensions_Idempotent builds the same batch twice and
// expects byte-identical dimension tables, keys included.
func TestBuildDimensions_Idempotent(t *testing.T) {
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	records := []models.RawTripRecord{
		tripRecord(base, base.Add(time.Minute), 40.70, -74.00, 1, 1),
		tripRecord(base.Add(time.Hour), base.Add(61*time.Minute), 40.71, -74.01, 2, 2),
		tripRecord(base.Add(2*time.Hour), base.Add(121*time.Minute), 40.70, -74.00, 1, 4),
	}

	first := BuildDimensions(records, "NYC Area")
	second := BuildDimensions(records, "NYC Area")

	if !reflect.DeepEqual(first.Datetime, second.Datetime) {
		t.Error("Datetime tables differ between rebuilds")
	}
	if !reflect.DeepEqual(first.Location, second.Location) {
		t.Error("Location tables differ between rebuilds")
	}
	if !reflect.DeepEqual(first.Payment, second.Payment) {
		t.Error("Payment tables differ between rebuilds")
	}
	if !reflect.DeepEqual(first.Passenger, second.Passenger) {
		t.Error("Passenger tables differ between rebuilds")
	}
}

func TestBuildDimensions_EmptyBatch(t *testing.T) {
	dims := BuildDimensions(nil, "NYC Area")

	if len(dims.Datetime) != 0 {
		t.Errorf("Datetime rows = %d, want 0", len(dims.Datetime))
	}
	if len(dims.Location) != 0 {
		t.Errorf("Location rows = %d, want 0", len(dims.Location))
	}
	if len(dims.Payment) != 0 {
		t.Errorf("Payment rows = %d, want 0", len(dims.Payment))
	}
	if len(dims.Passenger) != 0 {
		t.Errorf("Passenger rows = %d, want 0", len(dims.Passenger))
	}
}

func TestBuildDimensions_DatetimeDecomposition(t *testing.T) {
	pickup := time.Date(2024, 7, 19, 23, 45, 10, 0, time.UTC)
	dropoff := time.Date(2024, 7, 20, 0, 5, 10, 0, time.UTC)

	dims := BuildDimensions([]models.RawTripRecord{
		tripRecord(pickup, dropoff, 40.70, -74.00, 1, 1),
	}, "NYC Area")

	if len(dims.Datetime) != 1 {
		t.Fatalf("Datetime rows = %d, want 1", len(dims.Datetime))
	}
	row := dims.Datetime[0]

	if row.DatetimeID != 1 {
		t.Errorf("DatetimeID = %d, want 1", row.DatetimeID)
	}
	if row.PickupHour != 23 || row.PickupDay != 19 || row.PickupMonth != 7 || row.PickupYear != 2024 {
		t.Errorf("pickup decomposition = %d/%d/%d %d, want 2024/7/19 23",
			row.PickupYear, row.PickupMonth, row.PickupDay, row.PickupHour)
	}
	// 2024-07-19 is a Friday: weekday 4 under the Monday=0 convention
	if row.PickupWeekday != 4 {
		t.Errorf("PickupWeekday = %d, want 4", row.PickupWeekday)
	}
	if row.DropoffHour != 0 || row.DropoffDay != 20 {
		t.Errorf("dropoff decomposition = day %d hour %d, want day 20 hour 0", row.DropoffDay, row.DropoffHour)
	}
	// 2024-07-20 is a Saturday
	if row.DropoffWeekday != 5 {
		t.Errorf("DropoffWeekday = %d, want 5", row.DropoffWeekday)
	}
}

// TestWeekdayIndex pins the Monday=0 convention for a full week
func TestWeekdayIndex(t *testing.T) {
	tests := []struct {
		date string
		want int
	}{
		{"2024-03-04", 0}, // Monday
		{"2024-03-05", 1},
		{"2024-03-06", 2},
		{"2024-03-07", 3},
		{"2024-03-08", 4},
		{"2024-03-09", 5},
		{"2024-03-10", 6}, // Sunday
	}

	for _, tt := range tests {
		day, err := time.Parse("2006-01-02", tt.date)
		if err != nil {
			t.Fatalf("bad test date %s: %v", tt.date, err)
		}
		if got := weekdayIndex(day); got != tt.want {
			t.Errorf("weekdayIndex(%s) = %d, want %d", tt.date, got, tt.want)
		}
	}
}

func TestBuildDimensions_RegionLabel(t *testing.T) {
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	dims := BuildDimensions([]models.RawTripRecord{
		tripRecord(base, base.Add(time.Minute), 40.70, -74.00, 1, 1),
	}, "Test Region")

	if dims.Location[0].PickupLocationName != "Test Region" {
		t.Errorf("PickupLocationName = %q, want %q", dims.Location[0].PickupLocationName, "Test Region")
	}
	if dims.Location[0].DropoffLocationName != "Test Region" {
		t.Errorf("DropoffLocationName = %q, want %q", dims.Location[0].DropoffLocationName, "Test Region")
	}
}

func TestBuildDimensions_UnknownPaymentCode(t *testing.T) {
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	dims := BuildDimensions([]models.RawTripRecord{
		tripRecord(base, base.Add(time.Minute), 40.70, -74.00, 1, 99),
	}, "NYC Area")

	if len(dims.Payment) != 1 {
		t.Fatalf("Payment rows = %d, want 1", len(dims.Payment))
	}
	if dims.Payment[0].PaymentName != "Unknown" {
		t.Errorf("PaymentName = %q, want %q", dims.Payment[0].PaymentName, "Unknown")
	}
	if dims.Payment[0].PaymentType != 99 {
		t.Errorf("PaymentType = %d, want 99", dims.Payment[0].PaymentType)
	}
}
