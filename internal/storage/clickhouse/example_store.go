package clickhouse

import (
	"context"
	"fmt"
	"strings"

	"token-risk-lab/internal/domain"
	"token-risk-lab/internal/schema"
	"token-risk-lab/internal/storage"
)

// ExampleStore implements storage.ExampleStore using ClickHouse.
// Labeled historical tokens are analytics-grade data: bulk-inserted once,
// read in full at training time.
type ExampleStore struct {
	conn *Conn
}

// NewExampleStore creates a new ExampleStore.
func NewExampleStore(conn *Conn) *ExampleStore {
	return &ExampleStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ExampleStore = (*ExampleStore)(nil)

// InsertBulk adds labeled examples. Fails the entire batch on error.
func (s *ExampleStore) InsertBulk(ctx context.Context, examples []domain.LabeledExample) error {
	if len(examples) == 0 {
		return nil
	}
	for _, ex := range examples {
		if ex.Features == nil {
			return storage.ErrInvalidInput
		}
	}

	names := schema.FeatureNames()
	columns := append(append([]string{}, names...), schema.LabelColumn)
	query := fmt.Sprintf("INSERT INTO labeled_examples (%s)", strings.Join(columns, ", "))

	batch, err := s.conn.PrepareBatch(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, ex := range examples {
		values := make([]any, 0, len(names)+1)
		for _, name := range names {
			values = append(values, ex.Features[name])
		}
		values = append(values, uint8(ex.IsRugPull))
		if err := batch.Append(values...); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetAll retrieves every labeled example, ordered by insertion time.
func (s *ExampleStore) GetAll(ctx context.Context) ([]domain.LabeledExample, error) {
	names := schema.FeatureNames()
	columns := append(append([]string{}, names...), schema.LabelColumn)
	query := fmt.Sprintf(
		"SELECT %s FROM labeled_examples ORDER BY inserted_at ASC",
		strings.Join(columns, ", "),
	)

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query labeled examples: %w", err)
	}
	defer rows.Close()

	var examples []domain.LabeledExample
	for rows.Next() {
		values := make([]float64, len(names))
		dest := make([]any, 0, len(names)+1)
		for i := range values {
			dest = append(dest, &values[i])
		}
		var label uint8
		dest = append(dest, &label)

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan example row: %w", err)
		}

		fv := make(domain.FeatureVector, len(names))
		for i, name := range names {
			fv[name] = values[i]
		}
		examples = append(examples, domain.LabeledExample{
			Features:  fv,
			IsRugPull: int(label),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate example rows: %w", err)
	}
	return examples, nil
}

// Count returns the number of stored examples.
func (s *ExampleStore) Count(ctx context.Context) (int64, error) {
	var count uint64
	row := s.conn.QueryRow(ctx, "SELECT count() FROM labeled_examples")
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count labeled examples: %w", err)
	}
	return int64(count), nil
}
