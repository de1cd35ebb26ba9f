package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"trips-platform/internal/models"
)

// SummaryReport is the run-level JSON artifact: what was processed,
// from which input, and the overall and per-payment figures.
type SummaryReport struct {
	RunID               string                `json:"run_id"`
	GeneratedAt         time.Time             `json:"generated_at"`
	SourceFingerprint   string                `json:"source_fingerprint"`
	OverallStats        models.TripSummary    `json:"overall_stats"`
	PaymentDistribution []models.PaymentShare `json:"payment_distribution"`
}

// WriteSummaryReport writes the summary report as indented JSON
func WriteSummaryReport(path string, report *SummaryReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary report: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write summary report: %w", err)
	}

	return nil
}
