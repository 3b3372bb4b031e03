package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/aretw0/forestml/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Hash fields of a metadata record.
const (
	fieldKey        = "model_key"
	fieldType       = "model_type"
	fieldAlgorithm  = "model_algorithm"
	fieldInputs     = "model_inputs"
	fieldOutputs    = "model_outputs"
	fieldAdd        = "redisml_add_str"
	fieldRunExample = "redisml_run_example"
	fieldCreated    = "creation_time"
)

// Store implements ports.MetadataStore using one Redis hash per model.
type Store struct {
	client *backend.Client
	prefix string
}

type Option func(*Store)

// WithPrefix sets the key prefix for metadata hashes.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "metadata:",
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

func (s *Store) key(modelKey string) string {
	return s.prefix + modelKey
}

// Save replaces the metadata hash of the model.
func (s *Store) Save(ctx context.Context, meta *domain.ModelMetadata) error {
	fields := toHash(meta)

	// Delete + HSET in one transaction so no stale field survives an overwrite.
	_, err := s.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		pipe.Del(ctx, s.key(meta.ModelKey))
		pipe.HSet(ctx, s.key(meta.ModelKey), fields)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the metadata hash of the model.
func (s *Store) Load(ctx context.Context, modelKey string) (*domain.ModelMetadata, error) {
	vals, err := s.client.HGetAll(ctx, s.key(modelKey)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	// HGETALL on a missing key is an empty hash, not an error.
	if len(vals) == 0 {
		return nil, domain.ErrModelNotFound
	}
	return fromHash(vals)
}

// Delete removes the metadata hash of the model.
func (s *Store) Delete(ctx context.Context, modelKey string) error {
	return s.client.Del(ctx, s.key(modelKey)).Err()
}

// List scans every metadata hash under the prefix.
func (s *Store) List(ctx context.Context) ([]*domain.ModelMetadata, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan models: %w", err)
	}
	if len(keys) == 0 {
		return []*domain.ModelMetadata{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*backend.MapStringStringCmd, len(keys))
	for i, k := range keys {
		cmds[i] = pipe.HGetAll(ctx, k)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, backend.Nil) {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	models := make([]*domain.ModelMetadata, 0, len(keys))
	for _, cmd := range cmds {
		vals := cmd.Val()
		// Removed between SCAN and HGETALL.
		if len(vals) == 0 {
			continue
		}
		meta, err := fromHash(vals)
		if err != nil {
			return nil, err
		}
		models = append(models, meta)
	}
	return models, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

func toHash(m *domain.ModelMetadata) map[string]any {
	fields := map[string]any{
		fieldKey:       m.ModelKey,
		fieldType:      m.ModelType,
		fieldAlgorithm: m.ModelAlgorithm,
		fieldAdd:       m.AddCommand,
		fieldCreated:   strconv.FormatFloat(m.CreationTime, 'f', -1, 64),
	}
	if len(m.ModelInputs) > 0 {
		fields[fieldInputs] = string(m.ModelInputs)
	}
	if len(m.ModelOutputs) > 0 {
		fields[fieldOutputs] = string(m.ModelOutputs)
	}
	if m.RunExample != "" {
		fields[fieldRunExample] = m.RunExample
	}
	return fields
}

func fromHash(vals map[string]string) (*domain.ModelMetadata, error) {
	m := &domain.ModelMetadata{
		ModelKey:       vals[fieldKey],
		ModelType:      vals[fieldType],
		ModelAlgorithm: vals[fieldAlgorithm],
		ModelInputs:    rawJSON(vals[fieldInputs]),
		ModelOutputs:   rawJSON(vals[fieldOutputs]),
		AddCommand:     vals[fieldAdd],
		RunExample:     vals[fieldRunExample],
	}
	if v := vals[fieldCreated]; v != "" {
		created, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("model %q: invalid %s %q: %w", m.ModelKey, fieldCreated, v, err)
		}
		m.CreationTime = created
	}
	return m, nil
}

// rawJSON keeps stored JSON as-is and quotes anything else, such as values
// written by older clients that stored plain text.
func rawJSON(v string) json.RawMessage {
	if v == "" {
		return nil
	}
	if json.Valid([]byte(v)) {
		return json.RawMessage(v)
	}
	quoted, _ := json.Marshal(v)
	return quoted
}
