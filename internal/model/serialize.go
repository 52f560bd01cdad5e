package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WeightsDoc is the on-disk weights document. It is the only document the
// scoring engine strictly requires.
type WeightsDoc struct {
	Weights   map[string]float64 `json:"weights"`
	Intercept float64            `json:"intercept"`
	Threshold float64            `json:"threshold"`
}

// EncodeWeightsDoc serializes the artifact's scoring-relevant fields.
func EncodeWeightsDoc(a *Artifact) ([]byte, error) {
	doc := WeightsDoc{
		Weights:   a.Weights,
		Intercept: a.Intercept,
		Threshold: a.Threshold,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode weights document: %w", err)
	}
	return data, nil
}

// DecodeWeightsDoc parses and validates a weights document, returning a
// validated artifact. Returns *ArtifactError if the document is malformed
// or fails schema validation.
func DecodeWeightsDoc(data []byte) (*Artifact, error) {
	var doc WeightsDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, artifactErrorf("malformed weights document: %v", err)
	}

	a := &Artifact{
		Weights:   doc.Weights,
		Intercept: doc.Intercept,
		Threshold: doc.Threshold,
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// EncodeMetricsDoc serializes the metrics document.
func EncodeMetricsDoc(m *Metrics) ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode metrics document: %w", err)
	}
	return data, nil
}

// DecodeMetricsDoc parses a metrics document. The metrics document is
// informational only, so no schema validation is applied beyond JSON shape.
func DecodeMetricsDoc(data []byte) (*Metrics, error) {
	var m Metrics
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("malformed metrics document: %w", err)
	}
	return &m, nil
}

// LoadWeightsFile reads and validates a weights document from disk.
func LoadWeightsFile(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read weights file: %w", err)
	}
	return DecodeWeightsDoc(data)
}

// WriteDocuments writes the weights and metrics documents under dir using
// the canonical file names. The metrics document is skipped if the artifact
// carries no metrics.
func WriteDocuments(a *Artifact, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	weightsData, err := EncodeWeightsDoc(a)
	if err != nil {
		return err
	}
	weightsPath := filepath.Join(dir, WeightsFileName)
	if err := os.WriteFile(weightsPath, weightsData, 0644); err != nil {
		return fmt.Errorf("write weights document: %w", err)
	}

	if a.Metrics == nil {
		return nil
	}
	metricsData, err := EncodeMetricsDoc(a.Metrics)
	if err != nil {
		return err
	}
	metricsPath := filepath.Join(dir, MetricsFileName)
	if err := os.WriteFile(metricsPath, metricsData, 0644); err != nil {
		return fmt.Errorf("write metrics document: %w", err)
	}
	return nil
}
