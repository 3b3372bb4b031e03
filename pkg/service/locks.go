package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/forestml/pkg/ports"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// keyLocks serializes work per model key inside the process and, when a
// distributed locker is set, across processes.
// Entries are reference counted and removed once unused.
type keyLocks struct {
	mu    sync.Mutex
	locks map[string]*lockEntry

	locker ports.DistributedLocker
	ttl    time.Duration
	logger *slog.Logger
}

func newKeyLocks(locker ports.DistributedLocker, ttl time.Duration, logger *slog.Logger) *keyLocks {
	return &keyLocks{
		locks:  make(map[string]*lockEntry),
		locker: locker,
		ttl:    ttl,
		logger: logger,
	}
}

func (k *keyLocks) acquire(key string) *lockEntry {
	k.mu.Lock()
	defer k.mu.Unlock()

	entry, exists := k.locks[key]
	if !exists {
		entry = &lockEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	return entry
}

func (k *keyLocks) release(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	entry, exists := k.locks[key]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(k.locks, key)
	}
}

// size reports the number of live entries.
func (k *keyLocks) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

// withLock runs fn while holding the lock for key.
func (k *keyLocks) withLock(ctx context.Context, key string, fn func(context.Context) error) error {
	entry := k.acquire(key)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		k.release(key)
	}()

	if k.locker != nil {
		unlock, err := k.locker.Lock(ctx, key, k.ttl)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				k.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"model_key", key,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
