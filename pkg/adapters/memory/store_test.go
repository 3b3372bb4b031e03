package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/forestml/pkg/adapters/memory"
	"github.com/aretw0/forestml/pkg/domain"
	"github.com/aretw0/forestml/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunMetadataStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	meta := &domain.ModelMetadata{ModelKey: "m1", ModelType: "classification", ModelInputs: []byte(`["A"]`)}
	require.NoError(t, store.Save(ctx, meta))

	meta.ModelType = "changed"
	meta.ModelInputs[1] = 'X'

	loaded, err := store.Load(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "classification", loaded.ModelType)
	assert.Equal(t, `["A"]`, string(loaded.ModelInputs))
}
