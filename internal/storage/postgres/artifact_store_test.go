package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-risk-lab/internal/model"
	"token-risk-lab/internal/schema"
	"token-risk-lab/internal/storage"
)

// newArtifact builds a valid artifact with the given intercept.
func newArtifact(intercept float64) *model.Artifact {
	weights := make(map[string]float64, schema.FeatureCount())
	for i, name := range schema.FeatureNames() {
		weights[name] = float64(i) * 0.25
	}
	return &model.Artifact{
		Weights:   weights,
		Intercept: intercept,
		Threshold: 0.5,
		TrainedAt: time.Now().UTC().Truncate(time.Microsecond),
		Metrics: &model.Metrics{
			AUCROC:       0.91,
			CVMean:       0.89,
			CVStd:        0.02,
			TrainingDate: "2026-08-31T00:00:00Z",
		},
	}
}

func TestArtifactStore_PublishAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewArtifactStore(pool)
	ctx := context.Background()

	v1, err := store.Publish(ctx, newArtifact(-1.5))
	require.NoError(t, err)
	assert.Equal(t, int64(1), v1)

	v2, err := store.Publish(ctx, newArtifact(2.5))
	require.NoError(t, err)
	assert.Equal(t, int64(2), v2)

	latest, err := store.GetLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), latest.Version)
	assert.Equal(t, 2.5, latest.Intercept)
	require.NotNil(t, latest.Metrics)
	assert.Equal(t, 0.91, latest.Metrics.AUCROC)

	first, err := store.GetByVersion(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, -1.5, first.Intercept)
	assert.Len(t, first.Weights, schema.FeatureCount())
}

func TestArtifactStore_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewArtifactStore(pool)
	ctx := context.Background()

	_, err := store.GetLatest(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.GetByVersion(ctx, 42)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestArtifactStore_PublishInvalid(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewArtifactStore(pool)
	ctx := context.Background()

	_, err := store.Publish(ctx, nil)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	bad := newArtifact(0)
	delete(bad.Weights, schema.Audited)
	_, err = store.Publish(ctx, bad)
	assert.Error(t, err)
}

func TestArtifactStore_List(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewArtifactStore(pool)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Publish(ctx, newArtifact(float64(i)))
		require.NoError(t, err)
	}

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, a := range list {
		assert.Equal(t, int64(i+1), a.Version)
		assert.Equal(t, float64(i), a.Intercept)
	}
}

func TestArtifactStore_NoMetrics(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewArtifactStore(pool)
	ctx := context.Background()

	a := newArtifact(1)
	a.Metrics = nil
	_, err := store.Publish(ctx, a)
	require.NoError(t, err)

	got, err := store.GetLatest(ctx)
	require.NoError(t, err)
	assert.Nil(t, got.Metrics)
}
