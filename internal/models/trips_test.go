package models

import (
	"strings"
	"testing"
	"time"
)

// TestPaymentTypeName verifies the code to name mapping for every code
// the pipeline can encounter, including unknown ones.
func TestPaymentTypeName(t *testing.T) {
	tests := []struct {
		code     int
		wantName string
		wantDesc string
	}{
		{0, "Unknown", "Unknown payment type"},
		{1, "Credit Card", "Payment by credit card"},
		{2, "Cash", "Cash payment"},
		{3, "No Charge", "Free ride"},
		{4, "Dispute", "Disputed charge"},
		{5, "Unknown", "Unknown payment type"},
		{-1, "Unknown", "Unknown payment type"},
	}

	for _, tt := range tests {
		if got := PaymentTypeName(tt.code); got != tt.wantName {
			t.Errorf("PaymentTypeName(%d) = %q, want %q", tt.code, got, tt.wantName)
		}
		if got := PaymentTypeDescription(tt.code); got != tt.wantDesc {
			t.Errorf("PaymentTypeDescription(%d) = %q, want %q", tt.code, got, tt.wantDesc)
		}
	}
}

func TestRawTripRecord_DurationSeconds(t *testing.T) {
	tests := []struct {
		name    string
		pickup  time.Time
		dropoff time.Time
		want    int64
	}{
		{
			name:    "fifteen minute trip",
			pickup:  time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
			dropoff: time.Date(2024, 3, 1, 8, 15, 0, 0, time.UTC),
			want:    900,
		},
		{
			name:    "zero duration",
			pickup:  time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
			dropoff: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
			want:    0,
		},
		{
			name:    "dropoff before pickup is negative",
			pickup:  time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC),
			dropoff: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
			want:    -1800,
		},
		{
			name:    "crosses midnight",
			pickup:  time.Date(2024, 3, 1, 23, 50, 0, 0, time.UTC),
			dropoff: time.Date(2024, 3, 2, 0, 10, 0, 0, time.UTC),
			want:    1200,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := RawTripRecord{
				PickupDatetime:  tt.pickup,
				DropoffDatetime: tt.dropoff,
			}
			if got := rec.DurationSeconds(); got != tt.want {
				t.Errorf("DurationSeconds() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
		want    time.Time
	}{
		{
			name:  "canonical layout",
			value: "2024-03-01 08:15:30",
			want:  time.Date(2024, 3, 1, 8, 15, 30, 0, time.UTC),
		},
		{
			name:  "rfc3339 fallback",
			value: "2024-03-01T08:15:30Z",
			want:  time.Date(2024, 3, 1, 8, 15, 30, 0, time.UTC),
		},
		{
			name:    "date only",
			value:   "2024-03-01",
			wantErr: true,
		},
		{
			name:    "empty string",
			value:   "",
			wantErr: true,
		},
		{
			name:    "garbage",
			value:   "not a timestamp",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.value)

			if (err != nil) != tt.wantErr {
				t.Errorf("ParseTimestamp(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
				return
			}
			if tt.wantErr {
				if _, ok := err.(*ValidationError); !ok {
					t.Errorf("ParseTimestamp(%q) error type = %T, want *ValidationError", tt.value, err)
				}
				return
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestFormatTimestamp_RoundTrip(t *testing.T) {
	orig := time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)

	parsed, err := ParseTimestamp(FormatTimestamp(orig))
	if err != nil {
		t.Fatalf("ParseTimestamp() error = %v", err)
	}
	if !parsed.Equal(orig) {
		t.Errorf("round trip = %v, want %v", parsed, orig)
	}
}

func TestOrphanedReferenceError(t *testing.T) {
	err := &OrphanedReferenceError{
		Table:  "dim_payment",
		Column: "payment_id",
		Count:  3,
	}

	if !strings.Contains(err.Error(), "dim_payment.payment_id") {
		t.Errorf("Error() = %q, should name the failing reference", err.Error())
	}
	if !strings.Contains(err.Error(), "3") {
		t.Errorf("Error() = %q, should carry the orphan count", err.Error())
	}
	if err.IsTransient() {
		t.Error("OrphanedReferenceError should not be transient")
	}
}

func TestDomainViolationError(t *testing.T) {
	err := &DomainViolationError{Field: "fare_amount", Count: 2}

	if !strings.Contains(err.Error(), "fare_amount") {
		t.Errorf("Error() = %q, should name the offending field", err.Error())
	}
	if err.IsTransient() {
		t.Error("DomainViolationError should not be transient")
	}
}

func TestNullFieldError(t *testing.T) {
	err := &NullFieldError{Fields: []string{"datetime_id", "fare_amount"}}

	if !strings.Contains(err.Error(), "datetime_id, fare_amount") {
		t.Errorf("Error() = %q, should list all offending columns", err.Error())
	}
	if err.IsTransient() {
		t.Error("NullFieldError should not be transient")
	}
}
