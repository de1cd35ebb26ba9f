package services

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"trips-platform/internal/models"
	"trips-platform/internal/warehouse"
	"trips-platform/pkg/database"
	"trips-platform/pkg/logging"
	"trips-platform/pkg/metrics"
)

// testHarness wires the service dependencies over an in-memory warehouse
type testHarness struct {
	engine  warehouse.Engine
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	logger := logging.NewStructuredLogger("services-test", "test", logging.ErrorLevel)
	logger.SetOutput(io.Discard)

	collector := metrics.NewCollector("services_test")

	db, err := database.New(&database.Config{
		Driver: database.DriverSQLite,
		Path:   ":memory:",
	}, logger, collector)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &testHarness{
		engine:  warehouse.NewEngine(db, logger, collector),
		logger:  logger,
		metrics: collector,
	}
}

// seedStarSchema builds and publishes the full star schema for a batch
func seedStarSchema(t *testing.T, h *testHarness, records []models.RawTripRecord) {
	t.Helper()

	svc := NewTransformService(h.engine, h.logger, h.metrics, "NYC Area")
	_, err := svc.BuildStarSchema(context.Background(), records)
	require.NoError(t, err)
}

func testTrip(pickup time.Time, durationMinutes int, lat, long float64, passengers, payment int, distance, fare, tip, total float64) models.RawTripRecord {
	return models.RawTripRecord{
		PickupDatetime:   pickup,
		DropoffDatetime:  pickup.Add(time.Duration(durationMinutes) * time.Minute),
		PickupLatitude:   lat,
		PickupLongitude:  long,
		DropoffLatitude:  lat + 0.05,
		DropoffLongitude: long + 0.05,
		PassengerCount:   passengers,
		TripDistance:     distance,
		PaymentType:      payment,
		FareAmount:       fare,
		TipAmount:        tip,
		TotalAmount:      total,
	}
}
