package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/backoffice/internal/domain/finance/acl"
	"github.com/erp/backoffice/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedisClient connects to redis and verifies the connection
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// Backends holds the cache and lock implementations selected from configuration
type Backends struct {
	DisplayNames acl.DisplayNameCache
	Locker       Locker
	Distributed  bool
	closers      []func() error
	ping         func(ctx context.Context) error
}

// Ping checks the redis connection; in-memory backends are always reachable
func (b *Backends) Ping(ctx context.Context) error {
	if b.ping == nil {
		return nil
	}
	return b.ping(ctx)
}

// Close releases the redis client or stops the in-memory cleanup loop
func (b *Backends) Close() error {
	var firstErr error
	for _, c := range b.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Factory creates cache backends based on configuration
type Factory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory backends when Redis is unavailable.
// Default is true (allow fallback)
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a new factory
func NewFactory(cfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns redis-backed backends when redis is enabled and reachable,
// otherwise in-memory ones
func (f *Factory) Create() (*Backends, error) {
	if f.redisConfig.Enabled {
		client, err := NewRedisClient(f.redisConfig)
		if err == nil {
			f.logger.Info("using Redis display-name cache and sweep lock", zap.String("addr", f.redisConfig.Addr()))
			return &Backends{
				DisplayNames: NewRedisDisplayNameCache(client, ""),
				Locker:       NewRedisLocker(client, ""),
				Distributed:  true,
				closers:      []func() error{client.Close},
				ping: func(ctx context.Context) error {
					return client.Ping(ctx).Err()
				},
			}, nil
		}
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("Redis required but unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory cache. "+
			"The overdue sweep lock only coordinates within this process.",
			zap.Error(err),
		)
	}

	names := NewInMemoryDisplayNameCache()
	return &Backends{
		DisplayNames: names,
		Locker:       NewInMemoryLocker(),
		closers:      []func() error{names.Close},
	}, nil
}
