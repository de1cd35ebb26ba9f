package services

import (
	"context"
	"fmt"
	"time"

	"trips-platform/internal/models"
	"trips-platform/internal/schema"
	"trips-platform/internal/transform"
	"trips-platform/internal/warehouse"
	"trips-platform/pkg/logging"
	"trips-platform/pkg/metrics"
)

// TransformService derives the star schema from the accepted raw batch
// and publishes it to the warehouse. Derivation is entirely in memory;
// the warehouse only ever receives finished tables.
type TransformService struct {
	engine      warehouse.Engine
	logger      *logging.StructuredLogger
	metrics     *metrics.Collector
	regionLabel string
}

// TransformResult contains the row counts of one star schema build
type TransformResult struct {
	DatetimeRows  int
	LocationRows  int
	PaymentRows   int
	PassengerRows int
	FactRows      int
	Duration      time.Duration
}

// NewTransformService creates a new transformation service
func NewTransformService(engine warehouse.Engine, logger *logging.StructuredLogger, metricsCollector *metrics.Collector, regionLabel string) *TransformService {
	return &TransformService{
		engine:      engine,
		logger:      logger,
		metrics:     metricsCollector,
		regionLabel: regionLabel,
	}
}

// BuildStarSchema builds the four dimension tables and the fact table
// from the raw batch and replaces the warehouse content with them.
// Dimensions are published before facts so the fact table never
// references dimension rows that are not yet visible.
func (s *TransformService) BuildStarSchema(ctx context.Context, records []models.RawTripRecord) (*TransformResult, error) {
	startTime := time.Now()

	s.logger.Info(ctx, "[TRANSFORM_START] Starting star schema build", logging.Fields{
		"record_count": len(records),
		"stage":        "INITIALIZATION",
	})

	dims := transform.BuildDimensions(records, s.regionLabel)

	if err := s.engine.ReplaceTable(ctx, schema.DimDatetime, datetimeTableRows(dims.Datetime)); err != nil {
		return nil, fmt.Errorf("failed to load dim_datetime: %w", err)
	}
	if err := s.engine.ReplaceTable(ctx, schema.DimLocation, locationTableRows(dims.Location)); err != nil {
		return nil, fmt.Errorf("failed to load dim_location: %w", err)
	}
	if err := s.engine.ReplaceTable(ctx, schema.DimPayment, paymentTableRows(dims.Payment)); err != nil {
		return nil, fmt.Errorf("failed to load dim_payment: %w", err)
	}
	if err := s.engine.ReplaceTable(ctx, schema.DimPassenger, passengerTableRows(dims.Passenger)); err != nil {
		return nil, fmt.Errorf("failed to load dim_passenger: %w", err)
	}

	s.logger.Info(ctx, "[TRANSFORM_DIMENSIONS] Dimension tables published", logging.Fields{
		"datetime_rows":  len(dims.Datetime),
		"location_rows":  len(dims.Location),
		"payment_rows":   len(dims.Payment),
		"passenger_rows": len(dims.Passenger),
		"stage":          "DIMENSIONS",
	})

	facts, err := transform.ResolveFacts(records, dims)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve fact rows: %w", err)
	}

	if err := s.engine.ReplaceTable(ctx, schema.FactTrips, factTableRows(facts)); err != nil {
		return nil, fmt.Errorf("failed to load fact_trips: %w", err)
	}

	result := &TransformResult{
		DatetimeRows:  len(dims.Datetime),
		LocationRows:  len(dims.Location),
		PaymentRows:   len(dims.Payment),
		PassengerRows: len(dims.Passenger),
		FactRows:      len(facts),
		Duration:      time.Since(startTime),
	}

	s.metrics.DimensionRows.WithLabelValues(schema.DimDatetime.Name).Set(float64(result.DatetimeRows))
	s.metrics.DimensionRows.WithLabelValues(schema.DimLocation.Name).Set(float64(result.LocationRows))
	s.metrics.DimensionRows.WithLabelValues(schema.DimPayment.Name).Set(float64(result.PaymentRows))
	s.metrics.DimensionRows.WithLabelValues(schema.DimPassenger.Name).Set(float64(result.PassengerRows))
	s.metrics.FactRows.Set(float64(result.FactRows))

	s.logger.Info(ctx, "[TRANSFORM_COMPLETE] Star schema build completed", logging.Fields{
		"fact_rows":        result.FactRows,
		"duration_seconds": result.Duration.Seconds(),
		"stage":            "COMPLETE",
	})

	return result, nil
}

func datetimeTableRows(rows []models.DatetimeDimensionRow) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = []any{
			r.DatetimeID,
			models.FormatTimestamp(r.PickupDatetime),
			r.PickupHour,
			r.PickupDay,
			r.PickupMonth,
			r.PickupYear,
			r.PickupWeekday,
			models.FormatTimestamp(r.DropoffDatetime),
			r.DropoffHour,
			r.DropoffDay,
			r.DropoffMonth,
			r.DropoffYear,
			r.DropoffWeekday,
		}
	}
	return out
}

func locationTableRows(rows []models.LocationDimensionRow) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = []any{
			r.LocationID,
			r.PickupLatitude,
			r.PickupLongitude,
			r.DropoffLatitude,
			r.DropoffLongitude,
			r.PickupLocationName,
			r.DropoffLocationName,
		}
	}
	return out
}

func paymentTableRows(rows []models.PaymentDimensionRow) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = []any{
			r.PaymentID,
			r.PaymentType,
			r.PaymentName,
			r.PaymentDescription,
		}
	}
	return out
}

func passengerTableRows(rows []models.PassengerDimensionRow) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = []any{
			r.PassengerID,
			r.PassengerCount,
		}
	}
	return out
}

func factTableRows(rows []models.FactTripRow) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = []any{
			r.TripID,
			r.DatetimeID,
			r.LocationID,
			r.PaymentID,
			r.PassengerID,
			r.TripDistance,
			r.TripDurationSeconds,
			r.FareAmount,
			r.TipAmount,
			r.TotalAmount,
		}
	}
	return out
}
