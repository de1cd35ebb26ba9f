package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/zeebo/xxh3"

	"trips-platform/internal/models"
	"trips-platform/internal/schema"
	"trips-platform/internal/warehouse"
	"trips-platform/pkg/logging"
	"trips-platform/pkg/metrics"
)

// IngestionService reads the raw trips batch, validates its header
// against the required column set and loads the accepted rows into the
// staging table.
type IngestionService struct {
	engine  warehouse.Engine
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// IngestionResult contains ingestion statistics for one batch
type IngestionResult struct {
	InputPath    string
	TotalRows    int
	AcceptedRows int
	RejectedRows int
	Fingerprint  string
	Duration     time.Duration

	// Records holds the accepted batch in file order; the transformation
	// stage derives every downstream table from this slice.
	Records []models.RawTripRecord
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(engine warehouse.Engine, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *IngestionService {
	return &IngestionService{
		engine:  engine,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// IngestFile ingests a single raw trips CSV file. A header missing
// required columns aborts the run; individual malformed rows are
// counted, logged and skipped.
func (s *IngestionService) IngestFile(ctx context.Context, filePath string) (*IngestionResult, error) {
	startTime := time.Now()

	s.logger.Info(ctx, "[INGEST_START] Starting raw batch ingestion", logging.Fields{
		"file_path": filePath,
		"stage":     "INITIALIZATION",
	})

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	// Hash the raw bytes while the CSV reader consumes them so the run
	// report can name the exact input it was produced from.
	hasher := xxh3.New()
	reader := csv.NewReader(io.TeeReader(file, hasher))

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read input header: %w", err)
	}

	if err := schema.ValidateColumns(header); err != nil {
		return nil, err
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}

	s.logger.Info(ctx, "[INGEST_HEADER] Input header validated", logging.Fields{
		"file_path":    filePath,
		"column_count": len(header),
		"stage":        "HEADER_VALIDATION",
	})

	result := &IngestionResult{
		InputPath: filePath,
		Records:   make([]models.RawTripRecord, 0, 1024),
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				result.TotalRows++
				result.RejectedRows++
				s.metrics.RecordIngestionError("csv_error")
				s.logger.Warn(ctx, "[INGEST_ROW_REJECTED] Malformed CSV row skipped", logging.Fields{
					"file_path": filePath,
					"line":      parseErr.Line,
				})
				continue
			}
			return nil, fmt.Errorf("failed to read input file: %w", err)
		}

		result.TotalRows++

		record, err := s.parseRecord(row, columns)
		if err != nil {
			result.RejectedRows++
			s.metrics.RecordIngestionError("parse_error")
			s.logger.Warn(ctx, "[INGEST_ROW_REJECTED] Unparseable row skipped", logging.Fields{
				"file_path": filePath,
				"row":       result.TotalRows,
				"reason":    err.Error(),
			})
			continue
		}

		result.Records = append(result.Records, record)
		result.AcceptedRows++
	}

	result.Fingerprint = fmt.Sprintf("%016x", hasher.Sum64())

	if err := s.engine.ReplaceTable(ctx, schema.StagingTrips, stagingRows(result.Records)); err != nil {
		return nil, fmt.Errorf("failed to load staging table: %w", err)
	}

	result.Duration = time.Since(startTime)
	s.metrics.IngestionRecordsTotal.Add(float64(result.AcceptedRows))
	s.metrics.IngestionDuration.Observe(result.Duration.Seconds())

	s.logger.Info(ctx, "[INGEST_COMPLETE] Raw batch ingestion completed", logging.Fields{
		"file_path":        filePath,
		"total_rows":       result.TotalRows,
		"accepted_rows":    result.AcceptedRows,
		"rejected_rows":    result.RejectedRows,
		"fingerprint":      result.Fingerprint,
		"duration_seconds": result.Duration.Seconds(),
		"stage":            "COMPLETE",
	})

	return result, nil
}

// parseRecord converts one CSV row into a raw trip record
func (s *IngestionService) parseRecord(row []string, columns map[string]int) (models.RawTripRecord, error) {
	var record models.RawTripRecord
	var err error

	if record.PickupDatetime, err = timeField(row, columns, "pickup_datetime"); err != nil {
		return record, err
	}
	if record.DropoffDatetime, err = timeField(row, columns, "dropoff_datetime"); err != nil {
		return record, err
	}
	if record.PickupLatitude, err = floatField(row, columns, "pickup_latitude"); err != nil {
		return record, err
	}
	if record.PickupLongitude, err = floatField(row, columns, "pickup_longitude"); err != nil {
		return record, err
	}
	if record.DropoffLatitude, err = floatField(row, columns, "dropoff_latitude"); err != nil {
		return record, err
	}
	if record.DropoffLongitude, err = floatField(row, columns, "dropoff_longitude"); err != nil {
		return record, err
	}
	if record.PassengerCount, err = intField(row, columns, "passenger_count"); err != nil {
		return record, err
	}
	if record.TripDistance, err = floatField(row, columns, "trip_distance"); err != nil {
		return record, err
	}
	if record.PaymentType, err = intField(row, columns, "payment_type"); err != nil {
		return record, err
	}
	if record.FareAmount, err = floatField(row, columns, "fare_amount"); err != nil {
		return record, err
	}
	if record.TipAmount, err = floatField(row, columns, "tip_amount"); err != nil {
		return record, err
	}
	if record.TotalAmount, err = floatField(row, columns, "total_amount"); err != nil {
		return record, err
	}

	return record, nil
}

func rawField(row []string, columns map[string]int, name string) (string, error) {
	idx, ok := columns[name]
	if !ok || idx >= len(row) {
		return "", fmt.Errorf("missing value for column %s", name)
	}
	return strings.TrimSpace(row[idx]), nil
}

func timeField(row []string, columns map[string]int, name string) (time.Time, error) {
	value, err := rawField(row, columns, name)
	if err != nil {
		return time.Time{}, err
	}
	t, err := models.ParseTimestamp(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", name, err)
	}
	return t, nil
}

func floatField(row []string, columns map[string]int, name string) (float64, error) {
	value, err := rawField(row, columns, name)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return f, nil
}

func intField(row []string, columns map[string]int, name string) (int, error) {
	value, err := rawField(row, columns, name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return n, nil
}

// stagingRows marshals accepted records into staging table rows in the
// declared column order.
func stagingRows(records []models.RawTripRecord) [][]any {
	rows := make([][]any, len(records))
	for i, rec := range records {
		rows[i] = []any{
			models.FormatTimestamp(rec.PickupDatetime),
			models.FormatTimestamp(rec.DropoffDatetime),
			rec.PickupLatitude,
			rec.PickupLongitude,
			rec.DropoffLatitude,
			rec.DropoffLongitude,
			rec.PassengerCount,
			rec.TripDistance,
			rec.PaymentType,
			rec.FareAmount,
			rec.TipAmount,
			rec.TotalAmount,
		}
	}
	return rows
}
