package training

import (
	"fmt"
	"io"
	"log"
	"sort"
	"time"

	"token-risk-lab/internal/dataset"
	"token-risk-lab/internal/domain"
	"token-risk-lab/internal/model"
)

// Quality gate thresholds. The gate is advisory: a weak model is exported
// anyway, the operator is only informed.
const (
	GateWarnBelowAUC    = 0.75
	GateConfirmAboveAUC = 0.85
)

// GateStatus is the advisory quality-gate outcome.
type GateStatus string

const (
	GateWarn    GateStatus = "warn"    // AUC below recommended threshold
	GateNeutral GateStatus = "neutral" // between thresholds, no message
	GateConfirm GateStatus = "confirm" // meets performance requirements
)

// QualityGate classifies the test AUC. Kept separate from structural artifact
// validation: the gate is advisory, validation is hard-fail.
func QualityGate(auc float64) GateStatus {
	switch {
	case auc < GateWarnBelowAUC:
		return GateWarn
	case auc >= GateConfirmAboveAUC:
		return GateConfirm
	default:
		return GateNeutral
	}
}

// Config controls a training run.
type Config struct {
	TestFraction float64
	Seed         int64
	CVFolds      int
	C            float64
	MaxIter      int
	Logger       *log.Logger
}

// DefaultConfig returns the standard training configuration.
func DefaultConfig() Config {
	return Config{
		TestFraction: 0.2,
		Seed:         dataset.DefaultSeed,
		CVFolds:      5,
		C:            DefaultC,
		MaxIter:      DefaultMaxIter,
	}
}

// FeatureWeight pairs a feature name with its importance for ranked output.
type FeatureWeight struct {
	Name   string
	Weight float64
}

// Result is everything a training run produces: the exportable artifact and
// the diagnostics printed by the CLI.
type Result struct {
	Artifact *model.Artifact

	Samples   int
	Positives int
	Negatives int

	AUCROC              float64
	CVMean              float64
	CVStd               float64
	PrecisionAt90Recall float64
	Gate                GateStatus

	Confusion    ConfusionMatrix
	ClassReports [2]ClassReport

	// FeatureImportance is |standardized coefficient| per feature, the
	// scale-invariant effect size per standard deviation of input.
	FeatureImportance map[string]float64
	// TopFeatures is FeatureImportance ranked descending.
	TopFeatures []FeatureWeight
}

// Run executes the full training pipeline: stratified split, fit, evaluation,
// advisory quality gate, and artifact construction. It never writes partial
// output: any failure aborts before an artifact exists.
func Run(examples []domain.LabeledExample, cfg Config) (*Result, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if cfg.TestFraction == 0 {
		cfg.TestFraction = 0.2
	}
	if cfg.CVFolds == 0 {
		cfg.CVFolds = 5
	}
	if cfg.C == 0 {
		cfg.C = DefaultC
	}
	if cfg.MaxIter == 0 {
		cfg.MaxIter = DefaultMaxIter
	}

	neg, pos := dataset.CountLabels(examples)
	if neg == 0 || pos == 0 {
		return nil, fmt.Errorf("dataset must contain both classes: %d rug pulls, %d legitimate", pos, neg)
	}
	logger.Printf("Loaded %d samples (%d rug pulls, %d legitimate)", len(examples), pos, neg)

	train, test, err := dataset.StratifiedSplit(examples, cfg.TestFraction, cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("split dataset: %w", err)
	}

	fit, err := Fit(train, cfg.C, cfg.MaxIter)
	if err != nil {
		return nil, fmt.Errorf("fit model: %w", err)
	}

	labels, scores := scoreExamples(fit, test)
	auc, err := AUCROC(labels, scores)
	if err != nil {
		return nil, fmt.Errorf("evaluate model: %w", err)
	}

	cvMean, cvStd, err := CrossValidateAUC(train, cfg.CVFolds, cfg.Seed, cfg.C, cfg.MaxIter)
	if err != nil {
		return nil, fmt.Errorf("cross-validate: %w", err)
	}

	p90 := PrecisionAt90Recall(labels, scores)
	cm := Confusion(labels, scores, model.ExportThreshold)

	// Importance ranks on standardized coefficients so feature scale
	// cannot mask a strong separator.
	importance := make(map[string]float64, len(fit.StdWeights))
	for name, w := range fit.StdWeights {
		if w < 0 {
			w = -w
		}
		importance[name] = w
	}

	result := &Result{
		Samples:             len(examples),
		Positives:           pos,
		Negatives:           neg,
		AUCROC:              auc,
		CVMean:              cvMean,
		CVStd:               cvStd,
		PrecisionAt90Recall: p90,
		Gate:                QualityGate(auc),
		Confusion:           cm,
		ClassReports:        cm.Report(),
		FeatureImportance:   importance,
		TopFeatures:         rankFeatures(importance),
	}

	switch result.Gate {
	case GateWarn:
		logger.Printf("WARNING: model AUC-ROC %.4f is below recommended threshold of %.2f", auc, GateWarnBelowAUC)
	case GateConfirm:
		logger.Printf("Model meets performance requirements (AUC %.4f >= %.2f)", auc, GateConfirmAboveAUC)
	}

	result.Artifact = buildArtifact(fit, result)
	return result, nil
}

// buildArtifact scales coefficients for the 0-100 display convention and
// packages them with the metrics document.
func buildArtifact(fit *FitResult, r *Result) *model.Artifact {
	scaled := make(map[string]float64, len(fit.Weights))
	for name, w := range fit.Weights {
		scaled[name] = w * model.ScoreScale
	}

	now := time.Now().UTC()
	return &model.Artifact{
		Weights:   scaled,
		Intercept: fit.Intercept * model.ScoreScale,
		Threshold: model.ExportThreshold,
		TrainedAt: now,
		Metrics: &model.Metrics{
			AUCROC:              r.AUCROC,
			CVMean:              r.CVMean,
			CVStd:               r.CVStd,
			PrecisionAt90Recall: r.PrecisionAt90Recall,
			TrainingDate:        now.Format(time.RFC3339),
			FeatureImportance:   r.FeatureImportance,
		},
	}
}

// rankFeatures sorts features by importance descending, name ascending on ties.
func rankFeatures(importance map[string]float64) []FeatureWeight {
	out := make([]FeatureWeight, 0, len(importance))
	for name, w := range importance {
		out = append(out, FeatureWeight{Name: name, Weight: w})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Name < out[j].Name
	})
	return out
}
