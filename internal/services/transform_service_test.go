package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trips-platform/internal/models"
	"trips-platform/internal/schema"
)

func TestBuildStarSchema(t *testing.T) {
	h := newTestHarness(t)
	svc := NewTransformService(h.engine, h.logger, h.metrics, "NYC Area")
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	records := []models.RawTripRecord{
		testTrip(base, 15, 40.7128, -74.0060, 1, 1, 2.5, 12.50, 2.00, 14.50),
		testTrip(base.Add(time.Hour), 20, 40.7128, -74.0060, 2, 2, 3.1, 15.00, 0.00, 15.00),
		testTrip(base.Add(2*time.Hour), 10, 40.7500, -73.9900, 1, 1, 1.2, 6.50, 1.00, 7.50),
	}

	result, err := svc.BuildStarSchema(ctx, records)
	require.NoError(t, err)

	assert.Equal(t, 3, result.DatetimeRows)
	assert.Equal(t, 2, result.LocationRows)
	assert.Equal(t, 2, result.PaymentRows)
	assert.Equal(t, 2, result.PassengerRows)
	assert.Equal(t, 3, result.FactRows)

	// Published tables match the in-memory counts
	for _, tc := range []struct {
		table string
		want  int64
	}{
		{schema.DimDatetime.Name, 3},
		{schema.DimLocation.Name, 2},
		{schema.DimPayment.Name, 2},
		{schema.DimPassenger.Name, 2},
		{schema.FactTrips.Name, 3},
	} {
		count, err := h.engine.TableRowCount(ctx, tc.table)
		require.NoError(t, err)
		assert.Equal(t, tc.want, count, "table %s", tc.table)
	}

	// Payment rows carry resolved names
	var names []string
	require.NoError(t, h.engine.Select(ctx, "test_select", &names,
		"SELECT payment_name FROM dim_payment ORDER BY payment_id"))
	assert.Equal(t, []string{"Credit Card", "Cash"}, names)
}

func TestBuildStarSchema_RebuildIsStable(t *testing.T) {
	h := newTestHarness(t)
	svc := NewTransformService(h.engine, h.logger, h.metrics, "NYC Area")
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	records := []models.RawTripRecord{
		testTrip(base, 15, 40.7128, -74.0060, 1, 1, 2.5, 12.50, 2.00, 14.50),
		testTrip(base.Add(time.Hour), 20, 40.7500, -73.9900, 2, 2, 3.1, 15.00, 0.00, 15.00),
	}

	first, err := svc.BuildStarSchema(ctx, records)
	require.NoError(t, err)

	second, err := svc.BuildStarSchema(ctx, records)
	require.NoError(t, err)

	assert.Equal(t, first.DatetimeRows, second.DatetimeRows)
	assert.Equal(t, first.LocationRows, second.LocationRows)
	assert.Equal(t, first.PaymentRows, second.PaymentRows)
	assert.Equal(t, first.PassengerRows, second.PassengerRows)
	assert.Equal(t, first.FactRows, second.FactRows)

	// Tables were replaced, not appended to
	count, err := h.engine.TableRowCount(ctx, schema.FactTrips.Name)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestBuildStarSchema_EmptyBatch(t *testing.T) {
	h := newTestHarness(t)
	svc := NewTransformService(h.engine, h.logger, h.metrics, "NYC Area")
	ctx := context.Background()

	result, err := svc.BuildStarSchema(ctx, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, result.FactRows)

	for _, spec := range schema.Tables() {
		if spec.Name == schema.StagingTrips.Name {
			continue
		}
		count, err := h.engine.TableRowCount(ctx, spec.Name)
		require.NoError(t, err)
		assert.Equal(t, int64(0), count, "table %s", spec.Name)
	}
}

func TestBuildStarSchema_FactKeysResolveInWarehouse(t *testing.T) {
	h := newTestHarness(t)
	svc := NewTransformService(h.engine, h.logger, h.metrics, "NYC Area")
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	records := []models.RawTripRecord{
		testTrip(base, 15, 40.7128, -74.0060, 1, 1, 2.5, 12.50, 2.00, 14.50),
		testTrip(base, 15, 40.7128, -74.0060, 1, 1, 2.5, 12.50, 2.00, 14.50),
		testTrip(base.Add(time.Hour), 20, 40.7500, -73.9900, 3, 4, 3.1, 15.00, 0.00, 15.00),
	}

	_, err := svc.BuildStarSchema(ctx, records)
	require.NoError(t, err)

	for _, ref := range schema.FactReferences {
		orphans, err := h.engine.OrphanCount(ctx, schema.FactTrips.Name, ref.Column, ref.Table, ref.KeyColumn)
		require.NoError(t, err)
		assert.Equal(t, int64(0), orphans, "reference %s", ref.Column)
	}
}
