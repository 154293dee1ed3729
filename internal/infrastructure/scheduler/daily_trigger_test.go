package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyTriggerConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultDailyTriggerConfig().Validate())

	for name, mutate := range map[string]func(*DailyTriggerConfig){
		"hour":   func(c *DailyTriggerConfig) { c.Hour = 24 },
		"minute": func(c *DailyTriggerConfig) { c.Minute = -1 },
		"poll":   func(c *DailyTriggerConfig) { c.Poll = 0 },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultDailyTriggerConfig()
			mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

// fakeClockTrigger returns a trigger reading its time from *now and a pointer
// to the number of fires.
func fakeClockTrigger(cfg DailyTriggerConfig, now *time.Time) (*DailyTrigger, *int) {
	fired := 0
	tr := NewDailyTrigger(cfg, func(context.Context) { fired++ }, nil)
	tr.clock = func() time.Time { return *now }
	return tr, &fired
}

func TestDailyTrigger_Tick(t *testing.T) {
	saoPaulo, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)
	cfg := DailyTriggerConfig{Hour: 3, Location: saoPaulo, Poll: time.Minute}
	ctx := context.Background()

	t.Run("waits for the local run time", func(t *testing.T) {
		// 05:30 UTC is 02:30 in Sao Paulo
		now := time.Date(2024, 3, 15, 5, 30, 0, 0, time.UTC)
		tr, fired := fakeClockTrigger(cfg, &now)

		assert.False(t, tr.tick(ctx))
		now = now.Add(31 * time.Minute)
		assert.True(t, tr.tick(ctx))
		assert.Equal(t, 1, *fired)
	})

	t.Run("once per date", func(t *testing.T) {
		now := time.Date(2024, 3, 15, 6, 0, 0, 0, time.UTC)
		tr, fired := fakeClockTrigger(cfg, &now)

		assert.True(t, tr.tick(ctx))
		now = now.Add(5 * time.Hour)
		assert.False(t, tr.tick(ctx))
		now = now.Add(24 * time.Hour)
		assert.True(t, tr.tick(ctx))
		assert.Equal(t, 2, *fired)
	})

	t.Run("late start fires the same day", func(t *testing.T) {
		now := time.Date(2024, 3, 15, 20, 0, 0, 0, time.UTC)
		tr, fired := fakeClockTrigger(cfg, &now)
		assert.True(t, tr.tick(ctx))
		assert.Equal(t, 1, *fired)
	})
}

func TestDailyTrigger_NextRun(t *testing.T) {
	now := time.Date(2024, 3, 15, 1, 0, 0, 0, time.UTC)
	tr, _ := fakeClockTrigger(DailyTriggerConfig{Hour: 2}, &now)

	assert.Equal(t, time.Date(2024, 3, 15, 2, 0, 0, 0, time.UTC), tr.NextRun())

	now = now.Add(2 * time.Hour)
	assert.Equal(t, now, tr.NextRun())

	tr.tick(context.Background())
	assert.Equal(t, time.Date(2024, 3, 16, 2, 0, 0, 0, time.UTC), tr.NextRun())
}

func TestDailyTrigger_StartStop(t *testing.T) {
	fired := make(chan struct{}, 1)
	tr := NewDailyTrigger(DailyTriggerConfig{Poll: 10 * time.Millisecond}, func(context.Context) {
		select {
		case fired <- struct{}{}:
		default:
		}
	}, nil)

	require.NoError(t, tr.Start(context.Background()))
	require.NoError(t, tr.Start(context.Background()))

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("trigger did not fire")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, tr.Stop(ctx))
	assert.NoError(t, tr.Stop(ctx))
}
