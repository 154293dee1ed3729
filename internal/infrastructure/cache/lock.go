package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotHeld is returned when releasing a lock whose token no longer matches
var ErrLockNotHeld = errors.New("lock not held")

// Locker grants exclusive, expiring leases on a key. A lease that is not
// released expires after its ttl so a crashed holder never blocks the key.
type Locker interface {
	// TryLock returns a release token and true when the lease was acquired
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	// Unlock releases the lease identified by token
	Unlock(ctx context.Context, key, token string) error
}

// RedisLocker implements Locker with SET NX PX and a compare-and-delete script
type RedisLocker struct {
	client    redis.UniversalClient
	keyPrefix string
}

// unlockScript deletes the key only when it still holds the caller's token
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// NewRedisLocker creates a locker on an existing redis client
func NewRedisLocker(client redis.UniversalClient, keyPrefix string) *RedisLocker {
	if keyPrefix == "" {
		keyPrefix = "finance:lock:"
	}
	return &RedisLocker{client: client, keyPrefix: keyPrefix}
}

// TryLock acquires the lease atomically with SETNX
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.keyPrefix+key, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Unlock releases the lease if token still owns it
func (l *RedisLocker) Unlock(ctx context.Context, key, token string) error {
	n, err := unlockScript.Run(ctx, l.client, []string{l.keyPrefix + key}, token).Int64()
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", key, err)
	}
	if n == 0 {
		return ErrLockNotHeld
	}
	return nil
}

type lease struct {
	token     string
	expiresAt time.Time
}

// InMemoryLocker implements Locker within a single process
type InMemoryLocker struct {
	mu     sync.Mutex
	leases map[string]lease
	now    func() time.Time
}

// NewInMemoryLocker creates a new in-process locker
func NewInMemoryLocker() *InMemoryLocker {
	return &InMemoryLocker{leases: make(map[string]lease), now: time.Now}
}

// TryLock acquires the lease when the key is free or its lease expired
func (l *InMemoryLocker) TryLock(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if held, ok := l.leases[key]; ok && now.Before(held.expiresAt) {
		return "", false, nil
	}
	token := uuid.NewString()
	l.leases[key] = lease{token: token, expiresAt: now.Add(ttl)}
	return token, true, nil
}

// Unlock releases the lease if token still owns it
func (l *InMemoryLocker) Unlock(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	held, ok := l.leases[key]
	if !ok || held.token != token {
		return ErrLockNotHeld
	}
	delete(l.leases, key)
	return nil
}

var (
	_ Locker = (*RedisLocker)(nil)
	_ Locker = (*InMemoryLocker)(nil)
)
