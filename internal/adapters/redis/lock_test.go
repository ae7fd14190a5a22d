package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisadapter "github.com/hearthlabs/hearth/internal/adapters/redis"
)

func TestLocker_AcquireAndRelease(t *testing.T) {
	locker := redisadapter.NewLocker(newTestClient(t), "hearth:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "user-1", 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, unlock(ctx))

	// Released, so a second acquire succeeds promptly.
	unlock, err = locker.Lock(ctx, "user-1", 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, unlock(ctx))
}

func TestLocker_BlocksWhileHeld(t *testing.T) {
	locker := redisadapter.NewLocker(newTestClient(t), "hearth:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "user-1", 5*time.Second)
	require.NoError(t, err)

	// A second acquire on the same key must not succeed while held.
	waitCtx, cancel := context.WithTimeout(ctx, 400*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(waitCtx, "user-1", 5*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock(ctx))
}

func TestLocker_LockExpiresViaTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	locker := redisadapter.NewLocker(client, "hearth:")
	ctx := context.Background()

	_, err := locker.Lock(ctx, "user-1", 1*time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	unlock, err := locker.Lock(ctx, "user-1", 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, unlock(ctx))
}
