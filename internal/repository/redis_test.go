package repository

import (
	"context"
	"testing"
	"time"

	"buddyboard/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLimiter(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := NewRedisClient(config.RedisConfig{Address: s.Addr()})
	defer Close(client)

	repo := NewRedisLimiter(client)
	ctx := context.Background()

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, Ping(ctx, client))
	})

	t.Run("RateLimit", func(t *testing.T) {
		key := "203.0.113.7"
		for i := 0; i < 3; i++ {
			allowed, err := repo.CheckRateLimit(ctx, key, 3, time.Minute)
			require.NoError(t, err)
			assert.True(t, allowed)
		}

		allowed, err := repo.CheckRateLimit(ctx, key, 3, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)

		ttl := s.TTL(rateLimitPrefix + key)
		assert.Equal(t, time.Minute, ttl)

		s.FastForward(time.Minute + time.Second)
		allowed, err = repo.CheckRateLimit(ctx, key, 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("ServerDown", func(t *testing.T) {
		down := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
		defer down.Close()

		_, err := NewRedisLimiter(down).CheckRateLimit(ctx, "k", 1, time.Minute)
		assert.Error(t, err)
		assert.Error(t, Ping(ctx, down))
	})

	t.Run("NilClient", func(t *testing.T) {
		_, err := NewRedisLimiter(nil).CheckRateLimit(ctx, "k", 1, time.Minute)
		assert.Error(t, err)
		assert.Error(t, Ping(ctx, nil))
		assert.NoError(t, Close(nil))
	})
}
