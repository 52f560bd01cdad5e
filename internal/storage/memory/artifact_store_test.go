package memory

import (
	"context"
	"errors"
	"testing"

	"token-risk-lab/internal/model"
	"token-risk-lab/internal/schema"
	"token-risk-lab/internal/storage"
)

// newArtifact builds a valid artifact with the given intercept.
func newArtifact(intercept float64) *model.Artifact {
	weights := make(map[string]float64, schema.FeatureCount())
	for _, name := range schema.FeatureNames() {
		weights[name] = 0.1
	}
	return &model.Artifact{
		Weights:   weights,
		Intercept: intercept,
		Threshold: 0.5,
	}
}

func TestArtifactStore_PublishAndGetLatest(t *testing.T) {
	store := NewArtifactStore()
	ctx := context.Background()

	v1, err := store.Publish(ctx, newArtifact(1))
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if v1 != 1 {
		t.Errorf("first version: got %d, want 1", v1)
	}

	v2, err := store.Publish(ctx, newArtifact(2))
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if v2 != 2 {
		t.Errorf("second version: got %d, want 2", v2)
	}

	latest, err := store.GetLatest(ctx)
	if err != nil {
		t.Fatalf("GetLatest failed: %v", err)
	}
	if latest.Version != 2 {
		t.Errorf("latest version: got %d, want 2", latest.Version)
	}
	if latest.Intercept != 2 {
		t.Errorf("latest intercept: got %v, want 2", latest.Intercept)
	}
}

func TestArtifactStore_GetByVersion(t *testing.T) {
	store := NewArtifactStore()
	ctx := context.Background()

	if _, err := store.Publish(ctx, newArtifact(1)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if _, err := store.Publish(ctx, newArtifact(2)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	a, err := store.GetByVersion(ctx, 1)
	if err != nil {
		t.Fatalf("GetByVersion failed: %v", err)
	}
	if a.Intercept != 1 {
		t.Errorf("intercept: got %v, want 1", a.Intercept)
	}

	if _, err := store.GetByVersion(ctx, 99); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.GetByVersion(ctx, 0); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for version 0, got %v", err)
	}
}

func TestArtifactStore_GetLatestEmpty(t *testing.T) {
	store := NewArtifactStore()

	_, err := store.GetLatest(context.Background())
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestArtifactStore_PublishInvalid(t *testing.T) {
	store := NewArtifactStore()
	ctx := context.Background()

	if _, err := store.Publish(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for nil artifact, got %v", err)
	}

	bad := newArtifact(1)
	delete(bad.Weights, schema.Verified)
	if _, err := store.Publish(ctx, bad); err == nil {
		t.Error("expected validation error for incomplete weights")
	}
}

func TestArtifactStore_List(t *testing.T) {
	store := NewArtifactStore()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		if _, err := store.Publish(ctx, newArtifact(float64(i))); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("list length: got %d, want 3", len(list))
	}
	for i, a := range list {
		if a.Version != int64(i+1) {
			t.Errorf("list[%d].Version: got %d, want %d", i, a.Version, i+1)
		}
	}
}

func TestArtifactStore_StoresCopy(t *testing.T) {
	store := NewArtifactStore()
	ctx := context.Background()

	a := newArtifact(1)
	if _, err := store.Publish(ctx, a); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	// Mutating the input after publish must not affect the stored artifact.
	a.Weights[schema.GiniCoefficient] = 99

	got, err := store.GetLatest(ctx)
	if err != nil {
		t.Fatalf("GetLatest failed: %v", err)
	}
	if got.Weights[schema.GiniCoefficient] == 99 {
		t.Error("stored artifact shares memory with caller input")
	}
}
