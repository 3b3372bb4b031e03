package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/forestml/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyLocks_Serializes(t *testing.T) {
	locks := newKeyLocks(nil, time.Second, logging.NewNop())
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		inside  int
		maxSeen int
		counter int
	)
	var mu sync.Mutex
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := locks.withLock(ctx, "tree-1", func(context.Context) error {
				mu.Lock()
				inside++
				if inside > maxSeen {
					maxSeen = inside
				}
				mu.Unlock()

				counter++

				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, locks.size(), "entries are released once unused")
}

func TestKeyLocks_IndependentKeys(t *testing.T) {
	locks := newKeyLocks(nil, time.Second, logging.NewNop())
	ctx := context.Background()

	err := locks.withLock(ctx, "tree-1", func(ctx context.Context) error {
		// Holding tree-1 does not block tree-2.
		return locks.withLock(ctx, "tree-2", func(context.Context) error {
			assert.Equal(t, 2, locks.size())
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 0, locks.size())
}
