package cache

import (
	"context"
	"testing"

	"github.com/erp/backoffice/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// unreachable points at a closed local port
var unreachable = config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}

func TestFactory_Create(t *testing.T) {
	t.Run("redis disabled uses in-memory backends", func(t *testing.T) {
		b, err := NewFactory(config.RedisConfig{}).Create()
		require.NoError(t, err)
		defer b.Close()

		assert.False(t, b.Distributed)
		assert.IsType(t, &InMemoryDisplayNameCache{}, b.DisplayNames)
		assert.IsType(t, &InMemoryLocker{}, b.Locker)
		assert.NoError(t, b.Ping(context.Background()))
	})

	t.Run("unreachable redis falls back with a warning", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		b, err := NewFactory(unreachable, WithLogger(zap.New(core))).Create()
		require.NoError(t, err)
		defer b.Close()

		assert.False(t, b.Distributed)
		assert.Equal(t, 1, logs.Len())
	})

	t.Run("unreachable redis without fallback fails", func(t *testing.T) {
		_, err := NewFactory(unreachable, WithInMemoryFallback(false)).Create()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Redis required but unavailable")
	})
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	client, err := NewRedisClient(unreachable)
	assert.Nil(t, client)
	assert.Error(t, err)
}
