package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"trips-platform/internal/models"
	"trips-platform/internal/warehouse"
	"trips-platform/pkg/logging"
	"trips-platform/pkg/metrics"
)

// Analytical view names. Export artifacts are named after these.
const (
	ViewHourlyFares      = "vw_hourly_fares"
	ViewPopularLocations = "vw_popular_locations"
	ViewPaymentAnalysis  = "vw_payment_analysis"
	ViewDailyStats       = "vw_daily_stats"
)

// AnalyticsService computes the analytical views over the published
// star schema. Every view is recomputed from current table state on
// each call; nothing is cached between runs. Result orderings are fully
// specified, including tie-breaks, so repeated runs produce identical
// artifacts.
type AnalyticsService struct {
	engine  warehouse.Engine
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(engine warehouse.Engine, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *AnalyticsService {
	return &AnalyticsService{
		engine:  engine,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// HourlyFares aggregates fares by pickup hour, ascending
func (s *AnalyticsService) HourlyFares(ctx context.Context) ([]models.HourlyFareRow, error) {
	defer s.observeView(ViewHourlyFares, time.Now())

	query := `
		SELECT
			d.pickup_hour AS pickup_hour,
			AVG(f.fare_amount) AS avg_fare,
			COUNT(*) AS num_trips,
			AVG(f.tip_amount) AS avg_tip,
			AVG(f.total_amount) AS avg_total
		FROM fact_trips f
		JOIN dim_datetime d ON f.datetime_id = d.datetime_id
		GROUP BY d.pickup_hour
		ORDER BY d.pickup_hour
	`

	rows := make([]models.HourlyFareRow, 0)
	if err := s.engine.Select(ctx, ViewHourlyFares, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to compute %s: %w", ViewHourlyFares, err)
	}
	return rows, nil
}

// PopularLocations aggregates trips by pickup coordinate pair, most
// picked-up first. Coordinate ascending breaks count ties.
func (s *AnalyticsService) PopularLocations(ctx context.Context) ([]models.PopularLocationRow, error) {
	defer s.observeView(ViewPopularLocations, time.Now())

	query := `
		SELECT
			l.pickup_latitude AS pickup_latitude,
			l.pickup_longitude AS pickup_longitude,
			COUNT(*) AS num_pickups,
			AVG(f.fare_amount) AS avg_fare,
			AVG(f.trip_distance) AS avg_distance,
			AVG(f.trip_duration_seconds) AS avg_duration_seconds
		FROM fact_trips f
		JOIN dim_location l ON f.location_id = l.location_id
		GROUP BY l.pickup_latitude, l.pickup_longitude
		ORDER BY num_pickups DESC, l.pickup_latitude, l.pickup_longitude
	`

	rows := make([]models.PopularLocationRow, 0)
	if err := s.engine.Select(ctx, ViewPopularLocations, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to compute %s: %w", ViewPopularLocations, err)
	}
	return rows, nil
}

// PaymentAnalysis aggregates trips by payment name, alphabetical
func (s *AnalyticsService) PaymentAnalysis(ctx context.Context) ([]models.PaymentAnalysisRow, error) {
	defer s.observeView(ViewPaymentAnalysis, time.Now())

	query := `
		SELECT
			p.payment_name AS payment_name,
			COUNT(*) AS num_trips,
			AVG(f.fare_amount) AS avg_fare,
			AVG(f.tip_amount) AS avg_tip,
			AVG(f.total_amount) AS avg_total,
			AVG(f.trip_distance) AS avg_distance
		FROM fact_trips f
		JOIN dim_payment p ON f.payment_id = p.payment_id
		GROUP BY p.payment_name
		ORDER BY p.payment_name
	`

	rows := make([]models.PaymentAnalysisRow, 0)
	if err := s.engine.Select(ctx, ViewPaymentAnalysis, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to compute %s: %w", ViewPaymentAnalysis, err)
	}
	return rows, nil
}

// DailyStats aggregates trips by pickup calendar day, chronological
func (s *AnalyticsService) DailyStats(ctx context.Context) ([]models.DailyStatsRow, error) {
	defer s.observeView(ViewDailyStats, time.Now())

	query := `
		SELECT
			d.pickup_year AS pickup_year,
			d.pickup_month AS pickup_month,
			d.pickup_day AS pickup_day,
			COUNT(*) AS num_trips,
			AVG(f.fare_amount) AS avg_fare,
			SUM(f.total_amount) AS total_revenue,
			AVG(f.trip_distance) AS avg_distance,
			AVG(f.trip_duration_seconds) AS avg_duration_seconds
		FROM fact_trips f
		JOIN dim_datetime d ON f.datetime_id = d.datetime_id
		GROUP BY d.pickup_year, d.pickup_month, d.pickup_day
		ORDER BY d.pickup_year, d.pickup_month, d.pickup_day
	`

	rows := make([]models.DailyStatsRow, 0)
	if err := s.engine.Select(ctx, ViewDailyStats, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to compute %s: %w", ViewDailyStats, err)
	}
	return rows, nil
}

// Summary computes the overall run summary. An empty fact table yields
// an all-zero summary, not an error.
func (s *AnalyticsService) Summary(ctx context.Context) (*models.TripSummary, error) {
	defer s.observeView("summary", time.Now())

	query := `
		SELECT
			COUNT(*) AS total_trips,
			SUM(f.total_amount) AS total_revenue,
			AVG(f.trip_distance) AS avg_distance,
			AVG(f.trip_duration_seconds) AS avg_duration_seconds
		FROM fact_trips f
	`

	var result struct {
		TotalTrips         int64    `db:"total_trips"`
		TotalRevenue       *float64 `db:"total_revenue"`
		AvgDistance        *float64 `db:"avg_distance"`
		AvgDurationSeconds *float64 `db:"avg_duration_seconds"`
	}

	if err := s.engine.Get(ctx, "summary", &result, query); err != nil {
		return nil, fmt.Errorf("failed to compute summary: %w", err)
	}

	summary := &models.TripSummary{
		TotalTrips: result.TotalTrips,
	}
	if result.TotalRevenue != nil {
		summary.TotalRevenue = round2(*result.TotalRevenue)
	}
	if result.AvgDistance != nil {
		summary.AvgDistance = round2(*result.AvgDistance)
	}
	if result.AvgDurationSeconds != nil {
		summary.AvgDurationMinutes = round2(*result.AvgDurationSeconds / 60)
	}

	return summary, nil
}

// PaymentDistribution computes each payment type's share of all trips,
// largest share first. Name ascending breaks count ties. Percentages
// are computed here rather than in SQL so rounding is uniform across
// backends.
func (s *AnalyticsService) PaymentDistribution(ctx context.Context) ([]models.PaymentShare, error) {
	defer s.observeView("payment_distribution", time.Now())

	query := `
		SELECT
			p.payment_name AS payment_name,
			COUNT(*) AS trip_count
		FROM fact_trips f
		JOIN dim_payment p ON f.payment_id = p.payment_id
		GROUP BY p.payment_name
		ORDER BY trip_count DESC, p.payment_name
	`

	var counts []struct {
		PaymentName string `db:"payment_name"`
		TripCount   int64  `db:"trip_count"`
	}
	if err := s.engine.Select(ctx, "payment_distribution", &counts, query); err != nil {
		return nil, fmt.Errorf("failed to compute payment distribution: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c.TripCount
	}

	shares := make([]models.PaymentShare, len(counts))
	for i, c := range counts {
		share := models.PaymentShare{
			PaymentName: c.PaymentName,
			TripCount:   c.TripCount,
		}
		if total > 0 {
			share.Percentage = round2(float64(c.TripCount) * 100 / float64(total))
		}
		shares[i] = share
	}

	return shares, nil
}

func (s *AnalyticsService) observeView(view string, start time.Time) {
	s.metrics.ViewComputeDuration.WithLabelValues(view).Observe(time.Since(start).Seconds())
}

// round2 rounds to 2 decimal places, half away from zero
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
