package memory

import (
	"context"
	"sync"

	"github.com/aretw0/forestml/pkg/domain"
)

// ExecutionLog implements ports.ExecutionLog in memory, newest record first.
type ExecutionLog struct {
	mu      sync.Mutex
	records map[string][]string
}

// NewExecutionLog creates an empty log.
func NewExecutionLog() *ExecutionLog {
	return &ExecutionLog{records: make(map[string][]string)}
}

// Append records one execution for modelKey.
func (l *ExecutionLog) Append(ctx context.Context, modelKey string, exec domain.Execution) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records[modelKey] = append([]string{exec.Record()}, l.records[modelKey]...)
	return nil
}

// Recent returns up to limit records for modelKey, newest first. A limit <= 0 returns all.
func (l *ExecutionLog) Recent(ctx context.Context, modelKey string, limit int) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	recs := l.records[modelKey]
	if limit > 0 && limit < len(recs) {
		recs = recs[:limit]
	}
	return append([]string(nil), recs...), nil
}
