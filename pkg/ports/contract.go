package ports

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aretw0/forestml/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunMetadataStoreContract runs a suite of tests to verify that a MetadataStore implementation
// adheres to the defined interface contract.
func RunMetadataStoreContract(t *testing.T, store MetadataStore) {
	ctx := context.Background()
	modelKey := "tree-contract-" + time.Now().Format("20060102150405")

	newMeta := func(key string) *domain.ModelMetadata {
		return &domain.ModelMetadata{
			ModelKey:       key,
			ModelType:      domain.OutputClassification,
			ModelAlgorithm: domain.AlgorithmDecisionTree,
			ModelInputs:    json.RawMessage(`["CLAGE","YOJ"]`),
			ModelOutputs:   json.RawMessage(`{"BAD":"int"}`),
			AddCommand:     "ML.FOREST.ADD " + key + " 0 . LEAF 1 ",
			RunExample:     "ML.FOREST.RUN " + key + " CLAGE:12,YOJ:15, CLASSIFICATION",
			CreationTime:   1700000000.5,
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		meta := newMeta(modelKey)

		err := store.Save(ctx, meta)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, modelKey)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, meta.ModelKey, loaded.ModelKey)
		assert.Equal(t, meta.ModelType, loaded.ModelType)
		assert.Equal(t, meta.ModelAlgorithm, loaded.ModelAlgorithm)
		assert.Equal(t, meta.AddCommand, loaded.AddCommand, "add command must survive byte for byte")
		assert.Equal(t, meta.RunExample, loaded.RunExample)
		assert.JSONEq(t, string(meta.ModelInputs), string(loaded.ModelInputs))
		assert.JSONEq(t, string(meta.ModelOutputs), string(loaded.ModelOutputs))
		assert.InDelta(t, meta.CreationTime, loaded.CreationTime, 1e-3)
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		meta := newMeta(modelKey)
		meta.ModelType = domain.OutputRegression
		require.NoError(t, store.Save(ctx, meta))

		loaded, err := store.Load(ctx, modelKey)
		require.NoError(t, err)
		assert.Equal(t, domain.OutputRegression, loaded.ModelType)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+modelKey)
		assert.ErrorIs(t, err, domain.ErrModelNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, newMeta(modelKey))
		require.NoError(t, err)

		err = store.Delete(ctx, modelKey)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, modelKey)
		assert.ErrorIs(t, err, domain.ErrModelNotFound, "Load after Delete should return ErrModelNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := modelKey + "-1"
		id2 := modelKey + "-2"
		_ = store.Save(ctx, newMeta(id1))
		_ = store.Save(ctx, newMeta(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		models, err := store.List(ctx)
		require.NoError(t, err)
		keys := make([]string, 0, len(models))
		for _, m := range models {
			keys = append(keys, m.ModelKey)
		}
		assert.Contains(t, keys, id1)
		assert.Contains(t, keys, id2)
	})
}
