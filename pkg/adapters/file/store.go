package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/forestml/pkg/domain"
)

// Store implements ports.MetadataStore using the local filesystem.
// It stores one JSON document per model in a configured directory.
type Store struct {
	BasePath string
}

// NewStore creates a new Store with the given base path.
// If basePath is empty, it defaults to ".forestml/models".
func NewStore(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".forestml", "models")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(modelKey string) (string, error) {
	if modelKey == "" {
		return "", fmt.Errorf("model key cannot be empty")
	}
	if strings.ContainsAny(modelKey, `/\`) || modelKey == "." || modelKey == ".." {
		return "", fmt.Errorf("model key %q cannot be used as a file name", modelKey)
	}
	return filepath.Join(s.BasePath, modelKey+".json"), nil
}

// Save persists the metadata to a JSON file.
func (s *Store) Save(ctx context.Context, meta *domain.ModelMetadata) error {
	path, err := s.path(meta.ModelKey)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure model directory: %w", err)
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	// Write then rename so readers never see a partial document.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write model file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to write model file: %w", err)
	}
	return nil
}

// Load retrieves the metadata from its JSON file.
func (s *Store) Load(ctx context.Context, modelKey string) (*domain.ModelMetadata, error) {
	path, err := s.path(modelKey)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrModelNotFound
		}
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}

	var meta domain.ModelMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata of %q: %w", modelKey, err)
	}
	return &meta, nil
}

// Delete removes the model file.
func (s *Store) Delete(ctx context.Context, modelKey string) error {
	path, err := s.path(modelKey)
	if err != nil {
		return err
	}

	err = os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete model file: %w", err)
	}
	return nil
}

// List returns the metadata of every stored model, ordered by key.
func (s *Store) List(ctx context.Context) ([]*domain.ModelMetadata, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []*domain.ModelMetadata{}, nil
		}
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	var keys []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			keys = append(keys, strings.TrimSuffix(entry.Name(), ".json"))
		}
	}
	sort.Strings(keys)

	models := make([]*domain.ModelMetadata, 0, len(keys))
	for _, key := range keys {
		meta, err := s.Load(ctx, key)
		if err != nil {
			return nil, err
		}
		models = append(models, meta)
	}
	return models, nil
}
