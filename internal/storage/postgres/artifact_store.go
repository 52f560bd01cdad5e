package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"token-risk-lab/internal/model"
	"token-risk-lab/internal/storage"
)

// ArtifactStore implements storage.ArtifactStore using PostgreSQL.
// The model_artifacts table is append-only; the version column is an
// identity sequence, which gives publishes their monotonic identifiers.
type ArtifactStore struct {
	pool *Pool
}

// NewArtifactStore creates a new ArtifactStore.
func NewArtifactStore(pool *Pool) *ArtifactStore {
	return &ArtifactStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ArtifactStore = (*ArtifactStore)(nil)

// Publish stores a new artifact and returns its assigned version.
func (s *ArtifactStore) Publish(ctx context.Context, a *model.Artifact) (int64, error) {
	if a == nil {
		return 0, storage.ErrInvalidInput
	}
	if err := a.Validate(); err != nil {
		return 0, err
	}

	weightsJSON, err := json.Marshal(a.Weights)
	if err != nil {
		return 0, fmt.Errorf("marshal weights: %w", err)
	}

	var metricsJSON []byte
	if a.Metrics != nil {
		metricsJSON, err = json.Marshal(a.Metrics)
		if err != nil {
			return 0, fmt.Errorf("marshal metrics: %w", err)
		}
	}

	trainedAt := a.TrainedAt
	if trainedAt.IsZero() {
		trainedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO model_artifacts (weights, intercept, threshold, metrics, trained_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING version
	`

	var version int64
	err = s.pool.QueryRow(ctx, query,
		weightsJSON,
		a.Intercept,
		a.Threshold,
		metricsJSON,
		trainedAt,
	).Scan(&version)
	if err != nil {
		if isDuplicateKeyError(err) {
			return 0, storage.ErrDuplicateKey
		}
		return 0, fmt.Errorf("publish artifact: %w", err)
	}
	return version, nil
}

// GetLatest retrieves the highest-version artifact.
func (s *ArtifactStore) GetLatest(ctx context.Context) (*model.Artifact, error) {
	query := `
		SELECT version, weights, intercept, threshold, metrics, trained_at
		FROM model_artifacts
		ORDER BY version DESC
		LIMIT 1
	`

	a, err := scanArtifact(s.pool.QueryRow(ctx, query))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest artifact: %w", err)
	}
	return a, nil
}

// GetByVersion retrieves one artifact. Returns ErrNotFound if not exists.
func (s *ArtifactStore) GetByVersion(ctx context.Context, version int64) (*model.Artifact, error) {
	query := `
		SELECT version, weights, intercept, threshold, metrics, trained_at
		FROM model_artifacts
		WHERE version = $1
	`

	a, err := scanArtifact(s.pool.QueryRow(ctx, query, version))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get artifact by version: %w", err)
	}
	return a, nil
}

// List retrieves all artifacts ordered by version ASC.
func (s *ArtifactStore) List(ctx context.Context) ([]*model.Artifact, error) {
	query := `
		SELECT version, weights, intercept, threshold, metrics, trained_at
		FROM model_artifacts
		ORDER BY version ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []*model.Artifact
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan artifact row: %w", err)
		}
		artifacts = append(artifacts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artifact rows: %w", err)
	}
	return artifacts, nil
}

// scanArtifact scans a single row into a model.Artifact.
func scanArtifact(row pgx.Row) (*model.Artifact, error) {
	var (
		a           model.Artifact
		weightsJSON []byte
		metricsJSON []byte
	)

	err := row.Scan(
		&a.Version,
		&weightsJSON,
		&a.Intercept,
		&a.Threshold,
		&metricsJSON,
		&a.TrainedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(weightsJSON, &a.Weights); err != nil {
		return nil, fmt.Errorf("unmarshal weights: %w", err)
	}
	if len(metricsJSON) > 0 {
		var m model.Metrics
		if err := json.Unmarshal(metricsJSON, &m); err != nil {
			return nil, fmt.Errorf("unmarshal metrics: %w", err)
		}
		a.Metrics = &m
	}
	return &a, nil
}
