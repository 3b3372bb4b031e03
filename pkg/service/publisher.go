package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/forestml/pkg/codec"
	"github.com/aretw0/forestml/pkg/domain"
	"github.com/aretw0/forestml/pkg/observability"
	"github.com/aretw0/forestml/pkg/ports"
)

// Publisher registers models with the engine and stores their metadata.
type Publisher struct {
	engine  ports.Engine
	store   ports.MetadataStore
	locks   *keyLocks
	encoder *codec.Encoder
	metrics *observability.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewPublisher creates a Publisher on the given engine and store.
func NewPublisher(engine ports.Engine, store ports.MetadataStore, opts ...Option) *Publisher {
	s := newSettings(opts)
	return &Publisher{
		engine:  engine,
		store:   store,
		locks:   newKeyLocks(s.locker, s.lockTTL, s.logger),
		encoder: s.encoder,
		metrics: s.metrics,
		logger:  s.logger,
		now:     s.now,
	}
}

// Publish validates meta, sends its add lines to the engine in order and
// stores the metadata with a fresh creation time. A model already stored
// under the same key is overwritten.
func (p *Publisher) Publish(ctx context.Context, meta *domain.ModelMetadata) (*domain.ModelMetadata, error) {
	lines, err := p.check(meta)
	if err != nil {
		p.metrics.ObservePublish(meta.ModelAlgorithm, observability.StatusError, 0)
		return nil, err
	}

	stored := *meta
	err = p.locks.withLock(ctx, meta.ModelKey, func(ctx context.Context) error {
		for i, line := range lines {
			if _, err := p.engine.Execute(ctx, line); err != nil {
				return fmt.Errorf("%w: tree %d of %q: %w", domain.ErrEngine, i, meta.ModelKey, err)
			}
		}
		stored.CreationTime = unixSeconds(p.now())
		if err := p.store.Save(ctx, &stored); err != nil {
			return fmt.Errorf("failed to store metadata: %w", err)
		}
		return nil
	})
	if err != nil {
		p.metrics.ObservePublish(meta.ModelAlgorithm, observability.StatusError, 0)
		p.logger.Error("Publish failed", "model_key", meta.ModelKey, "err", err)
		return nil, err
	}

	p.metrics.ObservePublish(meta.ModelAlgorithm, observability.StatusOK, len(lines))
	p.logger.Info("Model published",
		"model_key", meta.ModelKey,
		"algorithm", meta.ModelAlgorithm,
		"trees", len(lines),
	)
	return &stored, nil
}

// check validates the metadata and parses every add line before anything
// reaches the engine.
func (p *Publisher) check(meta *domain.ModelMetadata) ([]string, error) {
	if err := meta.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidMetadata, err)
	}

	lines := meta.AddLines()
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: no add commands", domain.ErrInvalidMetadata)
	}
	seen := make(map[int]bool, len(lines))
	for i, line := range lines {
		cmd, err := codec.ParseAdd(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i, err)
		}
		if cmd.Key != meta.ModelKey {
			return nil, fmt.Errorf("%w: line %d adds to %q, not %q", domain.ErrInvalidMetadata, i, cmd.Key, meta.ModelKey)
		}
		if seen[cmd.Index] {
			return nil, fmt.Errorf("%w: line %d repeats tree %d", domain.ErrInvalidMetadata, i, cmd.Index)
		}
		seen[cmd.Index] = true
	}
	return lines, nil
}

// Encode encodes a model without publishing it.
func (p *Publisher) Encode(model *domain.Model) (*codec.Forest, error) {
	return p.encoder.EncodeModel(model)
}

// PublishModel encodes model under a generated key and publishes it.
// The stored inputs are the features the trees split on, and the run example
// scores zeros for each of them.
func (p *Publisher) PublishModel(ctx context.Context, model *domain.Model) (*domain.ModelMetadata, error) {
	forest, err := p.Encode(model)
	if err != nil {
		p.metrics.ObservePublish(model.Algorithm, observability.StatusError, 0)
		return nil, err
	}

	meta, err := Metadata(model, forest)
	if err != nil {
		return nil, err
	}
	return p.Publish(ctx, meta)
}

// Metadata builds the metadata record for an encoded model.
func Metadata(model *domain.Model, forest *codec.Forest) (*domain.ModelMetadata, error) {
	used := forest.Used.Sorted()
	inputs, err := json.Marshal(used)
	if err != nil {
		return nil, err
	}

	meta := &domain.ModelMetadata{
		ModelKey:       forest.Key,
		ModelType:      model.OutputType(),
		ModelAlgorithm: model.Algorithm,
		ModelInputs:    inputs,
		AddCommand:     forest.Script(),
	}
	if len(model.Outputs) > 0 {
		if meta.ModelOutputs, err = json.Marshal(model.Outputs); err != nil {
			return nil, err
		}
	}

	example := make(domain.FeatureValues, 0, len(used))
	for _, name := range used {
		example = append(example, domain.FeatureValue{Name: name, Value: 0})
	}
	meta.RunExample = codec.EncodeRun(forest.Key, example, meta.ModelType)
	return meta, nil
}

// Describe returns the stored metadata of a model.
func (p *Publisher) Describe(ctx context.Context, modelKey string) (*domain.ModelMetadata, error) {
	return p.store.Load(ctx, modelKey)
}

// List returns the metadata of every published model.
func (p *Publisher) List(ctx context.Context) ([]*domain.ModelMetadata, error) {
	return p.store.List(ctx)
}

// Restore replays the add commands of every stored model into the engine,
// for engines that keep trees in process memory. It returns the number of
// models restored; models whose commands fail are logged and skipped.
func (p *Publisher) Restore(ctx context.Context) (int, error) {
	models, err := p.store.List(ctx)
	if err != nil {
		return 0, err
	}

	restored := 0
	for _, meta := range models {
		err := p.locks.withLock(ctx, meta.ModelKey, func(ctx context.Context) error {
			for _, line := range meta.AddLines() {
				if _, err := p.engine.Execute(ctx, line); err != nil {
					return fmt.Errorf("%w: %w", domain.ErrEngine, err)
				}
			}
			return nil
		})
		if err != nil {
			if ctx.Err() != nil {
				return restored, ctx.Err()
			}
			p.logger.Warn("Skipping model on restore", "model_key", meta.ModelKey, "err", err)
			continue
		}
		restored++
	}
	p.logger.Info("Models restored", "count", restored, "stored", len(models))
	return restored, nil
}

// unixSeconds renders t as fractional seconds since the epoch.
func unixSeconds(t time.Time) float64 {
	return float64(t.UnixMicro()) / 1e6
}
