package memory

import (
	"context"
	"sync"

	"token-risk-lab/internal/model"
	"token-risk-lab/internal/storage"
)

// ArtifactStore is an in-memory implementation of storage.ArtifactStore.
type ArtifactStore struct {
	mu        sync.RWMutex
	artifacts []*model.Artifact // ordered by version ASC
}

// NewArtifactStore creates a new in-memory artifact store.
func NewArtifactStore() *ArtifactStore {
	return &ArtifactStore{}
}

// Compile-time interface check.
var _ storage.ArtifactStore = (*ArtifactStore)(nil)

// Publish stores a new artifact and returns its assigned version.
func (s *ArtifactStore) Publish(_ context.Context, a *model.Artifact) (int64, error) {
	if a == nil {
		return 0, storage.ErrInvalidInput
	}
	if err := a.Validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a copy to prevent external mutation
	stored := a.Clone()
	stored.Version = int64(len(s.artifacts)) + 1
	s.artifacts = append(s.artifacts, stored)
	return stored.Version, nil
}

// GetLatest retrieves the highest-version artifact.
func (s *ArtifactStore) GetLatest(_ context.Context) (*model.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.artifacts) == 0 {
		return nil, storage.ErrNotFound
	}
	return s.artifacts[len(s.artifacts)-1].Clone(), nil
}

// GetByVersion retrieves one artifact. Returns ErrNotFound if not exists.
func (s *ArtifactStore) GetByVersion(_ context.Context, version int64) (*model.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if version < 1 || version > int64(len(s.artifacts)) {
		return nil, storage.ErrNotFound
	}
	return s.artifacts[version-1].Clone(), nil
}

// List retrieves all artifacts ordered by version ASC.
func (s *ArtifactStore) List(_ context.Context) ([]*model.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Artifact, len(s.artifacts))
	for i, a := range s.artifacts {
		out[i] = a.Clone()
	}
	return out, nil
}
