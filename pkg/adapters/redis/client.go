package redis

import (
	"context"
	"fmt"

	backend "github.com/redis/go-redis/v9"
)

// NewClient creates a Redis client for the given address.
func NewClient(address, password string, db int) *backend.Client {
	return backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
}

// NewClientFromURL creates a Redis client from a redis:// or rediss:// URL.
func NewClientFromURL(url string) (*backend.Client, error) {
	opts, err := backend.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return backend.NewClient(opts), nil
}

// Ping verifies the connection before the services start taking traffic.
func Ping(ctx context.Context, client *backend.Client) error {
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("could not connect to redis at %s: %w", client.Options().Addr, err)
	}
	return nil
}
