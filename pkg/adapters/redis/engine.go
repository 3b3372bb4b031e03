package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	backend "github.com/redis/go-redis/v9"
)

// Engine sends ML.FOREST commands to a Redis server running the Redis-ML
// module.
type Engine struct {
	client *backend.Client
}

// NewEngine creates an engine executor on an existing client.
func NewEngine(client *backend.Client) *Engine {
	return &Engine{client: client}
}

// Execute splits command on whitespace and sends the tokens as one Redis
// command. A nil reply is returned as nil without error.
func (e *Engine) Execute(ctx context.Context, command string) (any, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, errors.New("empty command")
	}

	args := make([]any, len(fields))
	for i, f := range fields {
		args[i] = f
	}

	reply, err := e.client.Do(ctx, args...).Result()
	if errors.Is(err, backend.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", fields[0], err)
	}
	return reply, nil
}
