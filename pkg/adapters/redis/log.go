package redis

import (
	"context"
	"fmt"

	"github.com/aretw0/forestml/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// ExecutionLog keeps one Redis list per model, newest execution first.
type ExecutionLog struct {
	client     *backend.Client
	prefix     string
	maxEntries int64
}

type LogOption func(*ExecutionLog)

// WithLogPrefix sets the key prefix for execution lists.
func WithLogPrefix(prefix string) LogOption {
	return func(l *ExecutionLog) {
		l.prefix = prefix
	}
}

// WithMaxEntries caps each list; zero keeps everything.
func WithMaxEntries(n int64) LogOption {
	return func(l *ExecutionLog) {
		l.maxEntries = n
	}
}

// NewExecutionLog creates an execution log on an existing client.
func NewExecutionLog(client *backend.Client, opts ...LogOption) *ExecutionLog {
	l := &ExecutionLog{
		client: client,
		prefix: "modelexecution:",
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append pushes the execution record to the head of the model's list.
func (l *ExecutionLog) Append(ctx context.Context, modelKey string, exec domain.Execution) error {
	key := l.prefix + modelKey
	pipe := l.client.Pipeline()
	pipe.LPush(ctx, key, exec.Record())
	if l.maxEntries > 0 {
		pipe.LTrim(ctx, key, 0, l.maxEntries-1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to log execution: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first. A limit of zero or less
// returns the whole list.
func (l *ExecutionLog) Recent(ctx context.Context, modelKey string, limit int) ([]string, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	records, err := l.client.LRange(ctx, l.prefix+modelKey, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read executions: %w", err)
	}
	return records, nil
}
