package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/forestml/pkg/adapters/memory"
	"github.com/aretw0/forestml/pkg/domain"
	"github.com/aretw0/forestml/pkg/observability"
	"github.com/aretw0/forestml/pkg/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func forestMeta() *domain.ModelMetadata {
	return &domain.ModelMetadata{
		ModelKey:       "forest-1",
		ModelType:      "classification",
		ModelAlgorithm: domain.AlgorithmRandomForest,
		AddCommand: "ML.FOREST.ADD forest-1 0 . NUMERIC A 1.0 .l LEAF 0 .r LEAF 1 \n" +
			"ML.FOREST.ADD forest-1 1 . LEAF 1 \n",
	}
}

func TestPublisher_Publish(t *testing.T) {
	f := newFixture()
	locker := &recordingLocker{}
	pub := service.NewPublisher(f.engine, f.store,
		service.WithClock(stepClock(epoch, 0)),
		service.WithLocker(locker),
	)
	ctx := context.Background()

	stored, err := pub.Publish(ctx, forestMeta())
	require.NoError(t, err)
	assert.Equal(t, 2, f.engine.Trees("forest-1"))
	assert.InDelta(t, float64(epoch.Unix()), stored.CreationTime, 1e-6)

	loaded, err := pub.Describe(ctx, "forest-1")
	require.NoError(t, err)
	assert.Equal(t, stored.AddCommand, loaded.AddCommand)
	assert.Equal(t, stored.CreationTime, loaded.CreationTime)

	assert.Equal(t, []string{"forest-1"}, locker.locked)
	assert.Equal(t, []string{"forest-1"}, locker.unlocked)
}

func TestPublisher_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.ModelMetadata)
		want   error
	}{
		{"missing key", func(m *domain.ModelMetadata) { m.ModelKey = "" }, domain.ErrInvalidMetadata},
		{"key with spaces", func(m *domain.ModelMetadata) { m.ModelKey = "forest 1" }, domain.ErrInvalidMetadata},
		{"missing add command", func(m *domain.ModelMetadata) { m.AddCommand = "" }, domain.ErrInvalidMetadata},
		{"blank add command", func(m *domain.ModelMetadata) { m.AddCommand = "\n \n" }, domain.ErrInvalidMetadata},
		{"foreign key", func(m *domain.ModelMetadata) {
			m.AddCommand = "ML.FOREST.ADD forest-2 0 . LEAF 1 "
		}, domain.ErrInvalidMetadata},
		{"repeated tree", func(m *domain.ModelMetadata) {
			m.AddCommand = "ML.FOREST.ADD forest-1 0 . LEAF 1 \nML.FOREST.ADD forest-1 0 . LEAF 0 "
		}, domain.ErrInvalidMetadata},
		{"malformed tree", func(m *domain.ModelMetadata) {
			m.AddCommand = "ML.FOREST.ADD forest-1 0 . NUMERIC A 1.0 .l LEAF 0 "
		}, domain.ErrInvalidCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			pub := service.NewPublisher(f.engine, f.store)
			meta := forestMeta()
			tt.mutate(meta)

			_, err := pub.Publish(context.Background(), meta)
			assert.ErrorIs(t, err, tt.want)

			models, err := f.store.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, models, "nothing is stored")
		})
	}
}

func TestPublisher_EngineFailure(t *testing.T) {
	f := newFixture()
	reg := prometheus.NewRegistry()
	pub := service.NewPublisher(failingEngine{}, f.store, service.WithMetrics(observability.NewMetrics(reg)))

	_, err := pub.Publish(context.Background(), forestMeta())
	assert.ErrorIs(t, err, domain.ErrEngine)

	_, err = f.store.Load(context.Background(), "forest-1")
	assert.ErrorIs(t, err, domain.ErrModelNotFound, "metadata is only stored after the engine accepted every tree")

	count, err := testutil.GatherAndCount(reg, "forestml_publish_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPublisher_LockFailure(t *testing.T) {
	f := newFixture()
	pub := service.NewPublisher(f.engine, f.store, service.WithLocker(&recordingLocker{err: errors.New("redis down")}))

	_, err := pub.Publish(context.Background(), forestMeta())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "distributed lock")
	assert.Equal(t, 0, f.engine.Trees("forest-1"))
}

func TestPublisher_PublishModel(t *testing.T) {
	f := newFixture()
	pub := service.NewPublisher(f.engine, f.store, service.WithEncoder(fixedKey("fixed")))

	meta, err := pub.PublishModel(context.Background(), debtModel())
	require.NoError(t, err)

	assert.Equal(t, "tree-fixed", meta.ModelKey)
	assert.Equal(t, "classification", meta.ModelType)
	assert.Equal(t, "ML.FOREST.ADD tree-fixed 0 . NUMERIC DEBTINC 45.0 .l LEAF 0 .r LEAF 1 ", meta.AddCommand)
	assert.Equal(t, "ML.FOREST.RUN tree-fixed DEBTINC:0, CLASSIFICATION", meta.RunExample)
	assert.JSONEq(t, `["DEBTINC"]`, string(meta.ModelInputs))
	assert.JSONEq(t, `["BAD"]`, string(meta.ModelOutputs))
	assert.Equal(t, 1, f.engine.Trees("tree-fixed"))
}

func TestPublisher_PublishModelCodecError(t *testing.T) {
	f := newFixture()
	pub := service.NewPublisher(f.engine, f.store)

	model := debtModel()
	model.Algorithm = "GradientBoosting"
	_, err := pub.PublishModel(context.Background(), model)
	assert.ErrorIs(t, err, domain.ErrUnsupportedAlgorithm)

	model = debtModel()
	model.FeatureNames = []string{"DELINQ"}
	_, err = pub.PublishModel(context.Background(), model)
	assert.ErrorIs(t, err, domain.ErrIndexOutOfRange)
}

func TestPublisher_List(t *testing.T) {
	f := newFixture()
	pub := service.NewPublisher(f.engine, f.store)
	ctx := context.Background()

	_, err := pub.Publish(ctx, forestMeta())
	require.NoError(t, err)
	single := &domain.ModelMetadata{
		ModelKey:       "tree-1",
		ModelType:      "regression",
		ModelAlgorithm: domain.AlgorithmDecisionTree,
		AddCommand:     "ML.FOREST.ADD tree-1 0 . LEAF 3.5 ",
	}
	_, err = pub.Publish(ctx, single)
	require.NoError(t, err)

	models, err := pub.List(ctx)
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "forest-1", models[0].ModelKey)
	assert.Equal(t, "tree-1", models[1].ModelKey)
}

func TestPublisher_Restore(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := service.NewPublisher(f.engine, f.store).Publish(ctx, forestMeta())
	require.NoError(t, err)

	broken := &domain.ModelMetadata{
		ModelKey:       "tree-broken",
		ModelType:      "classification",
		ModelAlgorithm: domain.AlgorithmDecisionTree,
		AddCommand:     "ML.FOREST.ADD tree-broken 0 . NUMERIC A 1.0 ",
	}
	require.NoError(t, f.store.Save(ctx, broken))

	// A fresh engine, as after a restart.
	fresh := memory.NewEngine()
	n, err := service.NewPublisher(fresh, f.store).Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, fresh.Trees("forest-1"))
	assert.Equal(t, 0, fresh.Trees("tree-broken"))
}
