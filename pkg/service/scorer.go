package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/forestml/pkg/codec"
	"github.com/aretw0/forestml/pkg/domain"
	"github.com/aretw0/forestml/pkg/observability"
	"github.com/aretw0/forestml/pkg/ports"
)

// Scorer runs feature values against published models.
type Scorer struct {
	engine  ports.Engine
	store   ports.MetadataStore
	log     ports.ExecutionLog
	metrics *observability.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewScorer creates a Scorer on the given engine and store.
func NewScorer(engine ports.Engine, store ports.MetadataStore, opts ...Option) *Scorer {
	s := newSettings(opts)
	return &Scorer{
		engine:  engine,
		store:   store,
		log:     s.log,
		metrics: s.metrics,
		logger:  s.logger,
		now:     s.now,
	}
}

// Score looks up the model's output type, runs the inputs through the
// engine and records the execution.
func (s *Scorer) Score(ctx context.Context, req domain.ScoreRequest) (*domain.ScoreResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidMetadata, err)
	}

	meta, err := s.store.Load(ctx, req.ModelKey)
	if err != nil {
		if errors.Is(err, domain.ErrModelNotFound) {
			s.metrics.ObserveScore("", observability.StatusNotFound, 0)
			return nil, fmt.Errorf("%w: %s", domain.ErrModelNotFound, req.ModelKey)
		}
		s.metrics.ObserveScore("", observability.StatusError, 0)
		return nil, fmt.Errorf("failed to load model %q: %w", req.ModelKey, err)
	}

	inputs := codec.InputClause(req.ModelInputs)
	command := codec.EncodeRun(req.ModelKey, req.ModelInputs, meta.ModelType)

	start := s.now()
	reply, err := s.engine.Execute(ctx, command)
	end := s.now()
	elapsed := end.Sub(start)
	if err != nil {
		s.metrics.ObserveScore(meta.ModelType, observability.StatusError, elapsed)
		s.logger.Error("Score failed", "model_key", req.ModelKey, "err", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrEngine, err)
	}

	output := replyValue(reply)
	s.metrics.ObserveScore(meta.ModelType, observability.StatusOK, elapsed)

	if s.log != nil {
		exec := domain.Execution{Time: end, Output: output, Inputs: inputs, Duration: elapsed}
		if err := s.log.Append(ctx, req.ModelKey, exec); err != nil {
			s.logger.Warn("Failed to record execution", "model_key", req.ModelKey, "err", err)
		}
	}

	s.logger.Debug("Model scored", "model_key", req.ModelKey, "output", output, "duration", elapsed)
	return &domain.ScoreResult{
		ModelKey:    req.ModelKey,
		InputString: inputs,
		OutputValue: output,
		DurationMS:  elapsed.Milliseconds(),
	}, nil
}

// replyValue turns raw byte replies into strings so they encode as text.
func replyValue(reply any) any {
	if b, ok := reply.([]byte); ok {
		return string(b)
	}
	return reply
}

// Describe returns the stored metadata of a model.
func (s *Scorer) Describe(ctx context.Context, modelKey string) (*domain.ModelMetadata, error) {
	return s.store.Load(ctx, modelKey)
}

// Inputs returns the feature names a model expects.
func (s *Scorer) Inputs(ctx context.Context, modelKey string) (json.RawMessage, error) {
	meta, err := s.store.Load(ctx, modelKey)
	if err != nil {
		return nil, err
	}
	return meta.ModelInputs, nil
}

// Outputs returns the outputs a model produces.
func (s *Scorer) Outputs(ctx context.Context, modelKey string) (json.RawMessage, error) {
	meta, err := s.store.Load(ctx, modelKey)
	if err != nil {
		return nil, err
	}
	return meta.ModelOutputs, nil
}

// Executions returns up to limit recorded executions of a model, newest first.
func (s *Scorer) Executions(ctx context.Context, modelKey string, limit int) ([]string, error) {
	if s.log == nil {
		return []string{}, nil
	}
	return s.log.Recent(ctx, modelKey, limit)
}
