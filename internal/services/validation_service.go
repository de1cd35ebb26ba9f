package services

import (
	"context"
	"time"

	"trips-platform/internal/models"
	"trips-platform/internal/schema"
	"trips-platform/internal/warehouse"
	"trips-platform/pkg/logging"
	"trips-platform/pkg/metrics"
)

// ValidationService runs the post-build consistency checks against the
// materialized star schema. Checks run in a fixed order: referential
// integrity first, then value domains, then required columns. The first
// failing check aborts the run.
type ValidationService struct {
	engine  warehouse.Engine
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewValidationService creates a new validation service
func NewValidationService(engine warehouse.Engine, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *ValidationService {
	return &ValidationService{
		engine:  engine,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// ValidateStarSchema verifies the published fact table against the
// dimensions. It queries the warehouse state rather than the in-memory
// rows, so it catches load faults as well as derivation faults.
func (s *ValidationService) ValidateStarSchema(ctx context.Context) error {
	startTime := time.Now()

	s.logger.Info(ctx, "[VALIDATE_START] Starting consistency checks", logging.Fields{
		"stage": "INITIALIZATION",
	})

	for _, ref := range schema.FactReferences {
		count, err := s.engine.OrphanCount(ctx, schema.FactTrips.Name, ref.Column, ref.Table, ref.KeyColumn)
		if err != nil {
			return err
		}
		if count > 0 {
			s.metrics.RecordValidationFailure("referential")
			s.logger.Error(ctx, "[VALIDATE_REFERENTIAL] Orphaned fact references found", logging.Fields{
				"table":  ref.Table,
				"column": ref.Column,
				"count":  count,
			}, nil)
			return &models.OrphanedReferenceError{
				Table:  ref.Table,
				Column: ref.Column,
				Count:  count,
			}
		}
	}

	for _, field := range schema.NonNegativeMeasures {
		count, err := s.engine.CountWhere(ctx, schema.FactTrips.Name, field+" < 0")
		if err != nil {
			return err
		}
		if count > 0 {
			s.metrics.RecordValidationFailure("value_domain")
			s.logger.Error(ctx, "[VALIDATE_DOMAIN] Negative measure values found", logging.Fields{
				"field": field,
				"count": count,
			}, nil)
			return &models.DomainViolationError{
				Field: field,
				Count: count,
			}
		}
	}

	var nullFields []string
	for _, field := range schema.RequiredFactColumns {
		count, err := s.engine.CountWhere(ctx, schema.FactTrips.Name, field+" IS NULL")
		if err != nil {
			return err
		}
		if count > 0 {
			nullFields = append(nullFields, field)
		}
	}
	if len(nullFields) > 0 {
		s.metrics.RecordValidationFailure("null_check")
		s.logger.Error(ctx, "[VALIDATE_NULLS] Null values in required columns", logging.Fields{
			"fields": nullFields,
		}, nil)
		return &models.NullFieldError{Fields: nullFields}
	}

	s.logger.Info(ctx, "[VALIDATE_COMPLETE] All consistency checks passed", logging.Fields{
		"referential_checks": len(schema.FactReferences),
		"domain_checks":      len(schema.NonNegativeMeasures),
		"null_checks":        len(schema.RequiredFactColumns),
		"duration_seconds":   time.Since(startTime).Seconds(),
		"stage":              "COMPLETE",
	})

	return nil
}
