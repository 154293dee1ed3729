package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/erp/backoffice/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

// DailyTriggerConfig places the daily run on the wall clock of Location.
type DailyTriggerConfig struct {
	Hour     int
	Minute   int
	Location *time.Location

	// Poll is the interval at which the trigger compares the clock with
	// the scheduled time.
	Poll time.Duration
}

// DefaultDailyTriggerConfig fires at 00:05 UTC, polling every minute.
func DefaultDailyTriggerConfig() DailyTriggerConfig {
	return DailyTriggerConfig{Minute: 5, Location: time.UTC, Poll: time.Minute}
}

// Validate checks the hour, minute and poll interval. Failures wrap
// ErrInvalidConfig.
func (c DailyTriggerConfig) Validate() error {
	switch {
	case c.Hour < 0 || c.Hour > 23:
		return fmt.Errorf("%w: hour %d outside 0-23", ErrInvalidConfig, c.Hour)
	case c.Minute < 0 || c.Minute > 59:
		return fmt.Errorf("%w: minute %d outside 0-59", ErrInvalidConfig, c.Minute)
	case c.Poll <= 0:
		return fmt.Errorf("%w: poll interval must be positive", ErrInvalidConfig)
	}
	return nil
}

// DailyTrigger calls fire at most once per business date. A process that
// starts after the scheduled time still fires for that date.
type DailyTrigger struct {
	cfg   DailyTriggerConfig
	fire  func(ctx context.Context)
	clock func() time.Time
	log   *zap.Logger

	mu      sync.Mutex
	stop    context.CancelFunc
	done    chan struct{}
	firedOn valueobject.Date
}

// NewDailyTrigger creates a stopped trigger that calls fire once per date at
// the configured time. A nil Location means UTC and a non-positive Poll means
// one minute.
func NewDailyTrigger(cfg DailyTriggerConfig, fire func(ctx context.Context), log *zap.Logger) *DailyTrigger {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Poll <= 0 {
		cfg.Poll = time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &DailyTrigger{cfg: cfg, fire: fire, clock: time.Now, log: log}
}

// Start launches the polling goroutine. Starting a running trigger is a no-op.
func (t *DailyTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done != nil {
		return nil
	}
	ctx, t.stop = context.WithCancel(ctx)
	t.done = make(chan struct{})
	go t.loop(ctx, t.done)

	t.log.Info("daily trigger started",
		zap.String("at", fmt.Sprintf("%02d:%02d", t.cfg.Hour, t.cfg.Minute)),
		zap.Stringer("location", t.cfg.Location),
		zap.Duration("poll", t.cfg.Poll),
	)
	return nil
}

// Stop cancels the loop and waits for a running fire to return, or for ctx.
func (t *DailyTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	stop, done := t.stop, t.done
	t.stop, t.done = nil, nil
	t.mu.Unlock()
	if done == nil {
		return nil
	}

	stop()
	select {
	case <-done:
		t.log.Info("daily trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *DailyTrigger) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(t.cfg.Poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.tick(ctx)
		}
	}
}

// scheduledOn is the run time of the given local day.
func (t *DailyTrigger) scheduledOn(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, t.cfg.Hour, t.cfg.Minute, 0, 0, t.cfg.Location)
}

// tick fires when today's run time has passed and today has not fired.
func (t *DailyTrigger) tick(ctx context.Context) bool {
	now := t.clock().In(t.cfg.Location)
	today := valueobject.DateOf(now)

	t.mu.Lock()
	if t.firedOn.Equal(today) || now.Before(t.scheduledOn(now)) {
		t.mu.Unlock()
		return false
	}
	t.firedOn = today
	t.mu.Unlock()

	t.log.Info("daily trigger fired", zap.Stringer("date", today))
	t.fire(ctx)
	return true
}

// NextRun reports the next fire time. A run that is due reports now.
func (t *DailyTrigger) NextRun() time.Time {
	now := t.clock().In(t.cfg.Location)
	at := t.scheduledOn(now)

	t.mu.Lock()
	fired := t.firedOn.Equal(valueobject.DateOf(now))
	t.mu.Unlock()

	if fired {
		return at.AddDate(0, 0, 1)
	}
	if now.After(at) {
		return now
	}
	return at
}
