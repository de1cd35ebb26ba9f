package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"trips-platform/internal/config"
	"trips-platform/internal/export"
	"trips-platform/internal/services"
	"trips-platform/internal/warehouse"
	"trips-platform/pkg/database"
	"trips-platform/pkg/logging"
	"trips-platform/pkg/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := logging.NewStructuredLogger(cfg.App.Name, cfg.App.Version, logging.ParseLevel(cfg.Logging.Level))

	runID := uuid.NewString()
	ctx := context.WithValue(context.Background(), "run_id", runID)

	startTime := time.Now()
	logger.Info(ctx, "[PIPELINE_START] Starting trips pipeline run", logging.Fields{
		"version":    cfg.App.Version,
		"input_path": cfg.Pipeline.InputPath,
		"output_dir": cfg.Pipeline.OutputDir,
		"driver":     cfg.Warehouse.Driver,
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("trips_pipeline")

	pushMetrics := func() {
		if cfg.Metrics.PushgatewayURL == "" {
			return
		}
		if err := metricsCollector.Push(cfg.Metrics.PushgatewayURL, cfg.Metrics.Job); err != nil {
			logger.Warn(ctx, "[METRICS_PUSH] Failed to push metrics", logging.Fields{
				"gateway": cfg.Metrics.PushgatewayURL,
				"error":   err.Error(),
			})
		}
	}

	// Initialize warehouse
	dbConfig := &database.Config{
		Driver:          cfg.Warehouse.Driver,
		Path:            cfg.Warehouse.Path,
		Host:            cfg.Warehouse.Host,
		Port:            cfg.Warehouse.Port,
		User:            cfg.Warehouse.User,
		Password:        cfg.Warehouse.Password,
		Database:        cfg.Warehouse.Database,
		SSLMode:         cfg.Warehouse.SSLMode,
		MaxOpenConns:    cfg.Warehouse.MaxOpenConns,
		MaxIdleConns:    cfg.Warehouse.MaxIdleConns,
		ConnMaxLifetime: cfg.Warehouse.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Warehouse.ConnMaxIdleTime,
	}

	db, err := database.New(dbConfig, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[PIPELINE_ERROR] Failed to connect to warehouse", logging.Fields{}, err)
	}
	defer db.Close()

	engine := warehouse.NewEngine(db, logger, metricsCollector)

	// Initialize object store upload when configured
	var store *export.ObjectStore
	if cfg.Export.ObjectStore.Endpoint != "" {
		store, err = export.NewObjectStore(cfg.Export.ObjectStore, logger)
		if err != nil {
			logger.Fatal(ctx, "[PIPELINE_ERROR] Failed to initialize object store", logging.Fields{
				"endpoint": cfg.Export.ObjectStore.Endpoint,
			}, err)
		}
	}

	excelFile := ""
	if cfg.Export.Excel {
		excelFile = cfg.Export.ExcelFile
	}

	// Initialize services
	ingestionService := services.NewIngestionService(engine, logger, metricsCollector)
	transformService := services.NewTransformService(engine, logger, metricsCollector, cfg.Pipeline.RegionLabel)
	validationService := services.NewValidationService(engine, logger, metricsCollector)
	analyticsService := services.NewAnalyticsService(engine, logger, metricsCollector)
	exportService := services.NewExportService(analyticsService, logger, metricsCollector, cfg.Pipeline.OutputDir, excelFile, store)

	// All stage errors are fatal to the run; metrics are pushed before exit
	fail := func(stage string, err error) {
		metricsCollector.RecordRun("failed")
		pushMetrics()
		logger.Error(ctx, "[PIPELINE_ERROR] Pipeline run failed", logging.Fields{
			"stage": stage,
		}, err)
		db.Close()
		fmt.Fprintf(os.Stderr, "Pipeline failed during %s: %v\n", stage, err)
		os.Exit(1)
	}

	observeStage := func(stage string, start time.Time) {
		metricsCollector.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}

	// Stage 1: ingest the raw batch
	stageStart := time.Now()
	ingestResult, err := ingestionService.IngestFile(ctx, cfg.Pipeline.InputPath)
	if err != nil {
		fail("ingest", err)
	}
	observeStage("ingest", stageStart)

	// Stage 2: build the star schema
	stageStart = time.Now()
	transformResult, err := transformService.BuildStarSchema(ctx, ingestResult.Records)
	if err != nil {
		fail("transform", err)
	}
	observeStage("transform", stageStart)

	// Stage 3: consistency checks
	stageStart = time.Now()
	if err := validationService.ValidateStarSchema(ctx); err != nil {
		fail("validate", err)
	}
	observeStage("validate", stageStart)

	// Stage 4: compute views and write artifacts
	stageStart = time.Now()
	exportResult, err := exportService.ExportAll(ctx, runID, ingestResult.Fingerprint)
	if err != nil {
		fail("export", err)
	}
	observeStage("export", stageStart)

	totalDuration := time.Since(startTime)
	metricsCollector.RecordRun("success")
	pushMetrics()

	// Print results
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("PIPELINE COMPLETE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Run ID:          %s\n", runID)
	fmt.Printf("Input:           %s (xxh3 %s)\n", ingestResult.InputPath, ingestResult.Fingerprint)
	fmt.Printf("Rows Read:       %d\n", ingestResult.TotalRows)
	fmt.Printf("Rows Accepted:   %d\n", ingestResult.AcceptedRows)
	fmt.Printf("Rows Rejected:   %d\n", ingestResult.RejectedRows)
	fmt.Printf("Fact Rows:       %d\n", transformResult.FactRows)
	fmt.Printf("Dimension Rows:  datetime=%d location=%d payment=%d passenger=%d\n",
		transformResult.DatetimeRows,
		transformResult.LocationRows,
		transformResult.PaymentRows,
		transformResult.PassengerRows,
	)
	fmt.Printf("Artifacts:       %d written to %s\n", len(exportResult.Artifacts), cfg.Pipeline.OutputDir)
	if len(exportResult.FailedViews) > 0 {
		fmt.Printf("Failed Exports:  %s\n", strings.Join(exportResult.FailedViews, ", "))
	}
	fmt.Printf("Duration:        %v\n", totalDuration)

	logger.Info(ctx, "[PIPELINE_COMPLETE] Pipeline run completed", logging.Fields{
		"accepted_rows":    ingestResult.AcceptedRows,
		"rejected_rows":    ingestResult.RejectedRows,
		"fact_rows":        transformResult.FactRows,
		"artifact_count":   len(exportResult.Artifacts),
		"failed_exports":   len(exportResult.FailedViews),
		"duration_seconds": totalDuration.Seconds(),
	})
}
