package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/forestml/pkg/domain"
)

// Store implements ports.MetadataStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.ModelMetadata
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.ModelMetadata),
	}
}

func clone(m *domain.ModelMetadata) *domain.ModelMetadata {
	c := *m
	c.ModelInputs = append([]byte(nil), m.ModelInputs...)
	c.ModelOutputs = append([]byte(nil), m.ModelOutputs...)
	return &c
}

// Save persists the metadata in memory.
func (s *Store) Save(ctx context.Context, meta *domain.ModelMetadata) error {
	// Copy to ensure isolation, similar to serialization
	copied := clone(meta)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[meta.ModelKey] = copied
	return nil
}

// Load retrieves the metadata from memory.
func (s *Store) Load(ctx context.Context, modelKey string) (*domain.ModelMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, ok := s.data[modelKey]
	if !ok {
		return nil, domain.ErrModelNotFound
	}

	// Copy on read so callers can't mutate store state through the pointer
	return clone(meta), nil
}

// Delete removes the metadata.
func (s *Store) Delete(ctx context.Context, modelKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, modelKey)
	return nil
}

// List returns every stored record ordered by model key.
func (s *Store) List(ctx context.Context) ([]*domain.ModelMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	models := make([]*domain.ModelMetadata, 0, len(s.data))
	for _, meta := range s.data {
		models = append(models, clone(meta))
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ModelKey < models[j].ModelKey })
	return models, nil
}
