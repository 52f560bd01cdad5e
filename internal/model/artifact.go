// Package model defines the serialized model artifact: the weight vector,
// intercept and decision threshold produced by training, plus the
// informational metrics document that travels alongside it.
package model

import (
	"fmt"
	"math"
	"strings"
	"time"

	"token-risk-lab/internal/schema"
)

// Document file names as written by the training exporter.
const (
	WeightsFileName = "model_weights.json"
	MetricsFileName = "model_metrics.json"
)

// ScoreScale is the fixed factor applied to weights and intercept at export
// time so the raw linear score lands approximately in a 0-100 range. The
// scoring engine divides the raw score by the same factor before the sigmoid.
const ScoreScale = 100.0

// ExportThreshold is the decision threshold written at export time.
// Fixed at 0.5 regardless of the operating point found during evaluation:
// the probability itself is the tunable signal, the threshold only splits
// it into the two risk classes.
const ExportThreshold = 0.5

// Artifact is an immutable trained model. Created by the training pipeline
// or loaded from a weights document; never mutated after creation. A new
// training run produces a new artifact with a higher version.
type Artifact struct {
	Weights   map[string]float64
	Intercept float64
	Threshold float64

	// Version is a monotonic identifier assigned when the artifact is
	// published to a registry or installed into a scoring engine.
	Version int64

	// Metrics is informational and never consumed by the scoring path.
	// Nil when the artifact was loaded from a weights document alone.
	Metrics *Metrics

	TrainedAt time.Time
}

// Metrics is the evaluation metadata exported as a separate document so the
// runtime can load the weights document without parsing it.
type Metrics struct {
	AUCROC              float64            `json:"auc_roc"`
	CVMean              float64            `json:"cv_mean"`
	CVStd               float64            `json:"cv_std"`
	PrecisionAt90Recall float64            `json:"precision_at_90_recall"`
	TrainingDate        string             `json:"training_date"`
	FeatureImportance   map[string]float64 `json:"feature_importance"`
}

// ArtifactError reports a malformed or inconsistent serialized model.
// A failed load or reload never touches the active engine state.
type ArtifactError struct {
	Reason string
}

func (e *ArtifactError) Error() string {
	return "invalid model artifact: " + e.Reason
}

func artifactErrorf(format string, args ...any) *ArtifactError {
	return &ArtifactError{Reason: fmt.Sprintf(format, args...)}
}

// Validate checks the artifact against the feature schema:
// weight keys must match the schema exactly, all values must be finite,
// and the threshold must lie in [0, 1]. Returns *ArtifactError on failure.
func (a *Artifact) Validate() error {
	if a == nil {
		return artifactErrorf("artifact is nil")
	}
	if a.Weights == nil {
		return artifactErrorf("weights document has no weights mapping")
	}

	missing, extra := schema.ValidateWeightKeys(a.Weights)
	if len(missing) > 0 {
		return artifactErrorf("weights missing schema features: %s", strings.Join(missing, ", "))
	}
	if len(extra) > 0 {
		return artifactErrorf("weights contain unknown features: %s", strings.Join(extra, ", "))
	}

	for name, w := range a.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return artifactErrorf("weight %q is not finite", name)
		}
	}
	if math.IsNaN(a.Intercept) || math.IsInf(a.Intercept, 0) {
		return artifactErrorf("intercept is not finite")
	}
	if math.IsNaN(a.Threshold) || a.Threshold < 0 || a.Threshold > 1 {
		return artifactErrorf("threshold %v outside [0,1]", a.Threshold)
	}
	return nil
}

// Clone returns a deep copy of the artifact.
func (a *Artifact) Clone() *Artifact {
	if a == nil {
		return nil
	}
	out := *a
	out.Weights = make(map[string]float64, len(a.Weights))
	for k, v := range a.Weights {
		out.Weights[k] = v
	}
	if a.Metrics != nil {
		m := *a.Metrics
		if a.Metrics.FeatureImportance != nil {
			m.FeatureImportance = make(map[string]float64, len(a.Metrics.FeatureImportance))
			for k, v := range a.Metrics.FeatureImportance {
				m.FeatureImportance[k] = v
			}
		}
		out.Metrics = &m
	}
	return &out
}
