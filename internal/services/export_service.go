package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"trips-platform/internal/export"
	"trips-platform/pkg/logging"
	"trips-platform/pkg/metrics"
)

const (
	contentTypeCSV   = "text/csv"
	contentTypeJSON  = "application/json"
	contentTypeExcel = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ExportService renders the analytical views into run artifacts. View
// computation is fatal on failure; writing an individual artifact is
// not, a failed artifact is logged, counted and skipped so one bad
// file cannot sink an otherwise finished run.
type ExportService struct {
	analytics *AnalyticsService
	logger    *logging.StructuredLogger
	metrics   *metrics.Collector
	outputDir string
	excelFile string
	store     *export.ObjectStore
}

// ExportResult lists the artifacts written and the views whose
// artifacts failed.
type ExportResult struct {
	Artifacts   []string
	FailedViews []string
	Duration    time.Duration
}

// NewExportService creates a new export service. excelFile may be empty
// to skip the workbook; store may be nil to skip the upload.
func NewExportService(analytics *AnalyticsService, logger *logging.StructuredLogger, metricsCollector *metrics.Collector, outputDir, excelFile string, store *export.ObjectStore) *ExportService {
	return &ExportService{
		analytics: analytics,
		logger:    logger,
		metrics:   metricsCollector,
		outputDir: outputDir,
		excelFile: excelFile,
		store:     store,
	}
}

// ExportAll computes every analytical view and writes the full artifact
// set into the output directory.
func (s *ExportService) ExportAll(ctx context.Context, runID, fingerprint string) (*ExportResult, error) {
	startTime := time.Now()

	s.logger.Info(ctx, "[EXPORT_START] Starting artifact export", logging.Fields{
		"output_dir": s.outputDir,
		"stage":      "INITIALIZATION",
	})

	hourly, err := s.analytics.HourlyFares(ctx)
	if err != nil {
		return nil, err
	}
	popular, err := s.analytics.PopularLocations(ctx)
	if err != nil {
		return nil, err
	}
	payments, err := s.analytics.PaymentAnalysis(ctx)
	if err != nil {
		return nil, err
	}
	daily, err := s.analytics.DailyStats(ctx)
	if err != nil {
		return nil, err
	}
	summary, err := s.analytics.Summary(ctx)
	if err != nil {
		return nil, err
	}
	distribution, err := s.analytics.PaymentDistribution(ctx)
	if err != nil {
		return nil, err
	}

	tables := []export.Table{
		export.HourlyFaresTable(ViewHourlyFares, hourly),
		export.PopularLocationsTable(ViewPopularLocations, popular),
		export.PaymentAnalysisTable(ViewPaymentAnalysis, payments),
		export.DailyStatsTable(ViewDailyStats, daily),
	}

	report := &export.SummaryReport{
		RunID:               runID,
		GeneratedAt:         time.Now().UTC(),
		SourceFingerprint:   fingerprint,
		OverallStats:        *summary,
		PaymentDistribution: distribution,
	}

	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &ExportResult{}
	var mu sync.Mutex

	recordArtifact := func(path string) {
		mu.Lock()
		result.Artifacts = append(result.Artifacts, path)
		mu.Unlock()
	}
	recordFailure := func(view string, err error) {
		mu.Lock()
		result.FailedViews = append(result.FailedViews, view)
		mu.Unlock()
		s.metrics.RecordExport(view, "failed")
		s.logger.Error(ctx, "[EXPORT_VIEW_ERROR] View export failed", logging.Fields{
			"view": view,
		}, err)
	}

	// Artifact writes are independent disk I/O, so they fan out; a
	// failure is recorded and tolerated rather than returned.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, table := range tables {
		table := table // per-iteration copy; required under the go 1.21 loopvar rules
		g.Go(func() error {
			csvPath := filepath.Join(s.outputDir, table.Name+".csv")
			if err := export.WriteCSV(csvPath, table); err != nil {
				recordFailure(table.Name, err)
				return nil
			}
			recordArtifact(csvPath)

			statsPath := filepath.Join(s.outputDir, table.Name+"_stats.json")
			if err := export.WriteStats(statsPath, table); err != nil {
				recordFailure(table.Name, err)
				return nil
			}
			recordArtifact(statsPath)

			s.metrics.RecordExport(table.Name, "ok")
			s.logger.Debug(gctx, "[EXPORT_VIEW] View exported", logging.Fields{
				"view":      table.Name,
				"row_count": len(table.Rows),
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	reportPath := filepath.Join(s.outputDir, "summary_report.json")
	if err := export.WriteSummaryReport(reportPath, report); err != nil {
		recordFailure("summary_report", err)
	} else {
		recordArtifact(reportPath)
		s.metrics.RecordExport("summary_report", "ok")
	}

	if s.excelFile != "" {
		excelPath := filepath.Join(s.outputDir, s.excelFile)
		if err := export.WriteWorkbook(excelPath, tables, report); err != nil {
			recordFailure("workbook", err)
		} else {
			recordArtifact(excelPath)
			s.metrics.RecordExport("workbook", "ok")
		}
	}

	if s.store != nil {
		s.uploadArtifacts(ctx, runID, result)
	}

	result.Duration = time.Since(startTime)

	s.logger.Info(ctx, "[EXPORT_COMPLETE] Artifact export completed", logging.Fields{
		"artifact_count":   len(result.Artifacts),
		"failed_views":     result.FailedViews,
		"duration_seconds": result.Duration.Seconds(),
		"stage":            "COMPLETE",
	})

	return result, nil
}

// uploadArtifacts pushes the written artifacts to the object store
// under a per-run prefix. Upload failures follow the same tolerance as
// artifact writes.
func (s *ExportService) uploadArtifacts(ctx context.Context, runID string, result *ExportResult) {
	if err := s.store.EnsureBucket(ctx); err != nil {
		s.logger.Error(ctx, "[EXPORT_UPLOAD_ERROR] Artifact bucket unavailable", logging.Fields{
			"run_id": runID,
		}, err)
		return
	}

	for _, path := range result.Artifacts {
		key := runID + "/" + filepath.Base(path)
		if err := s.store.UploadFile(ctx, path, key, artifactContentType(path)); err != nil {
			s.logger.Error(ctx, "[EXPORT_UPLOAD_ERROR] Artifact upload failed", logging.Fields{
				"key": key,
			}, err)
		}
	}
}

func artifactContentType(path string) string {
	switch filepath.Ext(path) {
	case ".csv":
		return contentTypeCSV
	case ".json":
		return contentTypeJSON
	case ".xlsx":
		return contentTypeExcel
	default:
		return "application/octet-stream"
	}
}
