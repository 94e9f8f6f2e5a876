package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minkyc/internal/platform/config"
)

func TestNew_NotConfigured(t *testing.T) {
	client, err := New(context.Background(), config.RedisConfig{})
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Nil(t, client)
}

func TestOptions(t *testing.T) {
	t.Run("invalid url", func(t *testing.T) {
		_, err := Options(config.RedisConfig{URL: "://nope"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse redis URL")
	})

	t.Run("overrides apply on top of the url", func(t *testing.T) {
		opts, err := Options(config.RedisConfig{
			URL:         "redis://cache:6380/2",
			PoolSize:    7,
			DialTimeout: 2 * time.Second,
		})
		require.NoError(t, err)
		assert.Equal(t, "cache:6380", opts.Addr)
		assert.Equal(t, 2, opts.DB)
		assert.Equal(t, 7, opts.PoolSize)
		assert.Equal(t, 2*time.Second, opts.DialTimeout)
	})

	t.Run("zero values keep defaults", func(t *testing.T) {
		opts, err := Options(config.RedisConfig{URL: "redis://cache:6379/0"})
		require.NoError(t, err)
		assert.Zero(t, opts.PoolSize)
	})
}
