package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/forestml/pkg/adapters/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocker_LockUnlock(t *testing.T) {
	mr, client := setupRedis(t)
	locker := redis.NewLocker(client, "forestml:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "tree-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists("forestml:lock:tree-1"))

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("forestml:lock:tree-1"))
}

func TestLocker_Contention(t *testing.T) {
	_, client := setupRedis(t)
	locker := redis.NewLocker(client, "forestml:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "tree-1", time.Minute)
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(waitCtx, "tree-1", time.Minute)
	assert.ErrorIs(t, err, redis.ErrLockAcquire)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// Other keys are independent.
	unlockOther, err := locker.Lock(ctx, "tree-2", time.Minute)
	require.NoError(t, err)
	require.NoError(t, unlockOther(ctx))

	require.NoError(t, unlock(ctx))
	unlock, err = locker.Lock(ctx, "tree-1", time.Minute)
	require.NoError(t, err)
	require.NoError(t, unlock(ctx))
}

func TestLocker_UnlockKeepsForeignLock(t *testing.T) {
	mr, client := setupRedis(t)
	locker := redis.NewLocker(client, "forestml:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "tree-1", time.Second)
	require.NoError(t, err)

	// The lock expired and somebody else took it.
	mr.FastForward(2 * time.Second)
	require.NoError(t, mr.Set("forestml:lock:tree-1", "someone-else"))

	require.NoError(t, unlock(ctx))
	got, err := mr.Get("forestml:lock:tree-1")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}
