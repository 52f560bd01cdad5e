package model

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"token-risk-lab/internal/schema"
)

// validArtifact builds an artifact with one weight per schema feature.
func validArtifact() *Artifact {
	weights := make(map[string]float64, schema.FeatureCount())
	for i, name := range schema.FeatureNames() {
		weights[name] = float64(i) * 0.1
	}
	return &Artifact{
		Weights:   weights,
		Intercept: -1.5,
		Threshold: ExportThreshold,
	}
}

func TestArtifact_Validate(t *testing.T) {
	require.NoError(t, validArtifact().Validate())
}

func TestArtifact_Validate_NilAndEmpty(t *testing.T) {
	var nilArtifact *Artifact
	requireArtifactError(t, nilArtifact.Validate())

	requireArtifactError(t, (&Artifact{}).Validate())
}

func TestArtifact_Validate_MissingFeature(t *testing.T) {
	a := validArtifact()
	delete(a.Weights, schema.LiquidityUSD)

	err := a.Validate()
	requireArtifactError(t, err)
	require.Contains(t, err.Error(), schema.LiquidityUSD)
}

func TestArtifact_Validate_UnknownFeature(t *testing.T) {
	a := validArtifact()
	a.Weights["market_cap"] = 1.0

	err := a.Validate()
	requireArtifactError(t, err)
	require.Contains(t, err.Error(), "market_cap")
}

func TestArtifact_Validate_NonFiniteValues(t *testing.T) {
	a := validArtifact()
	a.Weights[schema.Volume24h] = math.NaN()
	requireArtifactError(t, a.Validate())

	a = validArtifact()
	a.Intercept = math.Inf(1)
	requireArtifactError(t, a.Validate())
}

func TestArtifact_Validate_ThresholdRange(t *testing.T) {
	a := validArtifact()
	a.Threshold = 1.5
	requireArtifactError(t, a.Validate())

	a.Threshold = -0.1
	requireArtifactError(t, a.Validate())

	a.Threshold = 0
	require.NoError(t, a.Validate())
	a.Threshold = 1
	require.NoError(t, a.Validate())
}

func TestArtifact_Clone_Independent(t *testing.T) {
	a := validArtifact()
	a.Metrics = &Metrics{
		AUCROC:            0.9,
		FeatureImportance: map[string]float64{schema.TotalHolders: 0.4},
	}

	clone := a.Clone()
	clone.Weights[schema.GiniCoefficient] = 99
	clone.Metrics.FeatureImportance[schema.TotalHolders] = 99

	require.NotEqual(t, 99.0, a.Weights[schema.GiniCoefficient])
	require.NotEqual(t, 99.0, a.Metrics.FeatureImportance[schema.TotalHolders])
}

func requireArtifactError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var artErr *ArtifactError
	require.True(t, errors.As(err, &artErr), "expected *ArtifactError, got %T", err)
}
