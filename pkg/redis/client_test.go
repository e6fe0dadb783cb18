package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestAcquireIsExclusiveAndReleasable(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	release, err := client.Acquire(ctx, "payment", "order-1", time.Minute)
	require.NoError(t, err)

	_, err = client.Acquire(ctx, "payment", "order-1", time.Minute)
	require.True(t, errors.Is(err, ErrLockHeld))

	_, err = client.Acquire(ctx, "payment", "order-2", time.Minute)
	require.NoError(t, err, "locks are scoped per id")

	require.NoError(t, release(ctx))
	_, err = client.Acquire(ctx, "payment", "order-1", time.Minute)
	require.NoError(t, err)
}

func TestReleaseDoesNotDropForeignLock(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	release, err := client.Acquire(ctx, "payment", "order-1", time.Minute)
	require.NoError(t, err)

	// simulate expiry and takeover by another holder
	mock.data[client.LockKey("payment", "order-1")] = "someone-else"
	require.NoError(t, release(ctx))
	require.Equal(t, "someone-else", mock.data[client.LockKey("payment", "order-1")])
}

func TestSetGetDel(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}

	require.NoError(t, client.Set(ctx, "k", "v", time.Minute))
	got, err := client.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v", got)

	require.NoError(t, client.Del(ctx, "k"))
	_, err = client.Get(ctx, "k")
	require.ErrorIs(t, err, redis.Nil)
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	require.Equal(t, "pd:idempotency:scope:id", client.IdempotencyKey("scope", "id"))
	require.Equal(t, "pd:lock:payment:abc", client.LockKey("payment", "abc"))
	require.Equal(t, "pd:idempotency:scope", client.IdempotencyKey("scope", " "))
}

func TestUninitializedClientErrors(t *testing.T) {
	client := &Client{}
	require.Error(t, client.Ping(context.Background()))
	require.NoError(t, client.Close())
}

type mockCmdable struct {
	data map[string]string
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{data: make(map[string]string)}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

// Eval only understands releaseScript.
func (m *mockCmdable) Eval(_ context.Context, _ string, keys []string, args ...any) *redis.Cmd {
	if m.data[keys[0]] == fmt.Sprint(args[0]) {
		delete(m.data, keys[0])
		return redis.NewCmdResult(int64(1), nil)
	}
	return redis.NewCmdResult(int64(0), nil)
}
