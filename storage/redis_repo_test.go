package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/spares-console/storage"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis connects to a local redis, skipping the test when none is running.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available, skipping test: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisRepo(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()
	prefix := "test:" + uuid.NewString() + ":"
	repo := storage.NewRedisRepo(client, prefix)
	t.Cleanup(func() { _ = repo.Delete(context.Background(), storage.KeyToken, storage.KeyUser) })

	_, ok, err := repo.Get(ctx, storage.KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Set(ctx, storage.KeyToken, "tok"))
	v, ok, err := repo.Get(ctx, storage.KeyToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok", v)

	raw, err := client.Get(ctx, prefix+storage.KeyToken).Result()
	require.NoError(t, err)
	assert.Equal(t, "tok", raw)

	require.NoError(t, repo.Delete(ctx, storage.KeyToken))
	_, ok, err = repo.Get(ctx, storage.KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisFactory_KeysBySession(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()
	prefix := "test-" + uuid.NewString()
	factory := storage.RedisFactory(client, prefix)

	repo, err := factory(ctx, "browser-1")
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Clear(context.Background(), repo) })

	require.NoError(t, storage.SaveToken(ctx, repo, "tok"))
	raw, err := client.Get(ctx, prefix+":session:browser-1:"+storage.KeyToken).Result()
	require.NoError(t, err)
	assert.Equal(t, "tok", raw)
}
