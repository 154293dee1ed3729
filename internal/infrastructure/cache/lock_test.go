package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryLocker(t *testing.T) {
	ctx := context.Background()

	t.Run("second holder is refused until release", func(t *testing.T) {
		l := NewInMemoryLocker()

		token, ok, err := l.TryLock(ctx, "overdue-sweep", time.Minute)
		require.NoError(t, err)
		require.True(t, ok)
		assert.NotEmpty(t, token)

		_, ok, err = l.TryLock(ctx, "overdue-sweep", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, l.Unlock(ctx, "overdue-sweep", token))
		_, ok, err = l.TryLock(ctx, "overdue-sweep", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("expired lease can be taken over", func(t *testing.T) {
		l := NewInMemoryLocker()
		now := time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC)
		l.now = func() time.Time { return now }

		first, ok, _ := l.TryLock(ctx, "k", time.Minute)
		require.True(t, ok)

		now = now.Add(61 * time.Second)
		second, ok, _ := l.TryLock(ctx, "k", time.Minute)
		require.True(t, ok)
		assert.NotEqual(t, first, second)

		assert.ErrorIs(t, l.Unlock(ctx, "k", first), ErrLockNotHeld)
		assert.NoError(t, l.Unlock(ctx, "k", second))
	})

	t.Run("unlock of a free key", func(t *testing.T) {
		assert.ErrorIs(t, NewInMemoryLocker().Unlock(ctx, "missing", "token"), ErrLockNotHeld)
	})
}
