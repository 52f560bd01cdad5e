package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"token-risk-lab/internal/schema"
)

func TestWeightsDoc_RoundTrip(t *testing.T) {
	a := validArtifact()

	data, err := EncodeWeightsDoc(a)
	require.NoError(t, err)

	decoded, err := DecodeWeightsDoc(data)
	require.NoError(t, err)
	require.Equal(t, a.Weights, decoded.Weights)
	require.Equal(t, a.Intercept, decoded.Intercept)
	require.Equal(t, a.Threshold, decoded.Threshold)
}

func TestDecodeWeightsDoc_MalformedJSON(t *testing.T) {
	_, err := DecodeWeightsDoc([]byte("{not json"))
	requireArtifactError(t, err)
}

func TestDecodeWeightsDoc_InvalidSchema(t *testing.T) {
	// Structurally valid JSON missing the weights mapping.
	_, err := DecodeWeightsDoc([]byte(`{"intercept": 1.0, "threshold": 0.5}`))
	requireArtifactError(t, err)
}

func TestWriteDocuments_BothFiles(t *testing.T) {
	dir := t.TempDir()
	a := validArtifact()
	a.Metrics = &Metrics{AUCROC: 0.91, TrainingDate: "2026-08-31T00:00:00Z"}

	require.NoError(t, WriteDocuments(a, dir))

	loaded, err := LoadWeightsFile(filepath.Join(dir, WeightsFileName))
	require.NoError(t, err)
	require.Equal(t, a.Weights, loaded.Weights)

	metricsData, err := os.ReadFile(filepath.Join(dir, MetricsFileName))
	require.NoError(t, err)
	m, err := DecodeMetricsDoc(metricsData)
	require.NoError(t, err)
	require.Equal(t, 0.91, m.AUCROC)
}

func TestWriteDocuments_NoMetrics(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteDocuments(validArtifact(), dir))

	_, err := os.Stat(filepath.Join(dir, MetricsFileName))
	require.True(t, os.IsNotExist(err))
}

func TestLoadWeightsFile_NotFound(t *testing.T) {
	_, err := LoadWeightsFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestDecodeWeightsDoc_JSONFieldNames(t *testing.T) {
	data, err := EncodeWeightsDoc(validArtifact())
	require.NoError(t, err)

	s := string(data)
	require.Contains(t, s, `"weights"`)
	require.Contains(t, s, `"intercept"`)
	require.Contains(t, s, `"threshold"`)
	require.Contains(t, s, schema.GiniCoefficient)
}
