// Package reporting generates training run reports.
package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"token-risk-lab/internal/training"
)

// ReportFileName is the markdown report written next to the model documents.
const ReportFileName = "TRAINING_REPORT.md"

// Report holds everything rendered into the training report.
type Report struct {
	GeneratedAt time.Time

	Samples   int
	Positives int
	Negatives int

	AUCROC              float64
	CVMean              float64
	CVStd               float64
	PrecisionAt90Recall float64
	Gate                training.GateStatus

	Confusion    training.ConfusionMatrix
	ClassReports [2]training.ClassReport
	TopFeatures  []training.FeatureWeight

	ModelVersion int64
}

// FromResult builds a Report from a completed training run.
func FromResult(r *training.Result, version int64) *Report {
	return &Report{
		GeneratedAt:         time.Now().UTC(),
		Samples:             r.Samples,
		Positives:           r.Positives,
		Negatives:           r.Negatives,
		AUCROC:              r.AUCROC,
		CVMean:              r.CVMean,
		CVStd:               r.CVStd,
		PrecisionAt90Recall: r.PrecisionAt90Recall,
		Gate:                r.Gate,
		Confusion:           r.Confusion,
		ClassReports:        r.ClassReports,
		TopFeatures:         r.TopFeatures,
		ModelVersion:        version,
	}
}

// WriteReport renders the report to Markdown and writes it into dir.
func WriteReport(r *Report, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	path := filepath.Join(dir, ReportFileName)
	if err := os.WriteFile(path, []byte(RenderMarkdown(r)), 0644); err != nil {
		return fmt.Errorf("write training report: %w", err)
	}
	return nil
}
