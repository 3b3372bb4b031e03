package ports

import (
	"context"

	"github.com/aretw0/forestml/pkg/domain"
)

// Engine executes protocol commands against the tree-ensemble scoring engine.
// Implementations own the connection; the codec only produces the command text.
type Engine interface {
	// Execute sends one command line and returns the engine's reply.
	Execute(ctx context.Context, command string) (any, error)
}

// ExecutionLog records scoring calls per model for later analysis.
type ExecutionLog interface {
	Append(ctx context.Context, modelKey string, exec domain.Execution) error
	Recent(ctx context.Context, modelKey string, limit int) ([]string, error)
}
