package ports

import (
	"context"

	"github.com/aretw0/forestml/pkg/domain"
)

// MetadataStore defines the interface for persisting model metadata.
type MetadataStore interface {
	// Save persists the metadata under its model key, replacing any previous record.
	Save(ctx context.Context, meta *domain.ModelMetadata) error

	// Load retrieves the metadata for a model key.
	// Returns domain.ErrModelNotFound if the model does not exist.
	Load(ctx context.Context, modelKey string) (*domain.ModelMetadata, error)

	// List returns the metadata of every registered model.
	List(ctx context.Context) ([]*domain.ModelMetadata, error)

	// Delete removes the metadata for a model key.
	Delete(ctx context.Context, modelKey string) error
}
