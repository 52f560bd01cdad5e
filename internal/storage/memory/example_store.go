package memory

import (
	"context"
	"sync"

	"token-risk-lab/internal/domain"
	"token-risk-lab/internal/storage"
)

// ExampleStore is an in-memory implementation of storage.ExampleStore.
type ExampleStore struct {
	mu       sync.RWMutex
	examples []domain.LabeledExample
}

// NewExampleStore creates a new in-memory example store.
func NewExampleStore() *ExampleStore {
	return &ExampleStore{}
}

// Compile-time interface check.
var _ storage.ExampleStore = (*ExampleStore)(nil)

// InsertBulk adds labeled examples.
func (s *ExampleStore) InsertBulk(_ context.Context, examples []domain.LabeledExample) error {
	for _, ex := range examples {
		if ex.Features == nil {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ex := range examples {
		// Store copies to prevent external mutation
		s.examples = append(s.examples, domain.LabeledExample{
			Features:  ex.Features.Clone(),
			IsRugPull: ex.IsRugPull,
		})
	}
	return nil
}

// GetAll retrieves every labeled example.
func (s *ExampleStore) GetAll(_ context.Context) ([]domain.LabeledExample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.LabeledExample, len(s.examples))
	for i, ex := range s.examples {
		out[i] = domain.LabeledExample{
			Features:  ex.Features.Clone(),
			IsRugPull: ex.IsRugPull,
		}
	}
	return out, nil
}

// Count returns the number of stored examples.
func (s *ExampleStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.examples)), nil
}
