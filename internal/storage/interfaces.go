package storage

import (
	"context"

	"token-risk-lab/internal/domain"
	"token-risk-lab/internal/model"
)

// ArtifactStore is the append-only registry of published model artifacts.
// Each publish assigns the next monotonic version; old versions are never
// mutated, which is what makes engine rollback safe.
type ArtifactStore interface {
	// Publish stores a new artifact and returns its assigned version.
	Publish(ctx context.Context, a *model.Artifact) (int64, error)

	// GetLatest retrieves the highest-version artifact.
	// Returns ErrNotFound when the registry is empty.
	GetLatest(ctx context.Context) (*model.Artifact, error)

	// GetByVersion retrieves one artifact. Returns ErrNotFound if not exists.
	GetByVersion(ctx context.Context, version int64) (*model.Artifact, error)

	// List retrieves all artifacts ordered by version ASC.
	List(ctx context.Context) ([]*model.Artifact, error)
}

// ExampleStore provides access to labeled training examples, as an
// alternative dataset source to CSV files.
type ExampleStore interface {
	// InsertBulk adds labeled examples. Fails the entire batch on error.
	InsertBulk(ctx context.Context, examples []domain.LabeledExample) error

	// GetAll retrieves every labeled example.
	GetAll(ctx context.Context) ([]domain.LabeledExample, error)

	// Count returns the number of stored examples.
	Count(ctx context.Context) (int64, error)
}
