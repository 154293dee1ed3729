package scheduler

import (
	"context"
	"sync"

	financeapp "github.com/erp/backoffice/internal/application/finance"
	"github.com/erp/backoffice/internal/infrastructure/config"
	"github.com/erp/backoffice/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const overdueSweepJobName = "overdue-sweep"

// OverdueSweeper is the application operation run by the scheduler
type OverdueSweeper interface {
	Sweep(ctx context.Context) (*financeapp.SweepResponse, error)
}

// OverdueSweepScheduler runs the overdue sweep once a day. With a locker only
// one replica sweeps per day; the others log the skip.
type OverdueSweepScheduler struct {
	runner  *Runner
	trigger *DailyTrigger
	logger  *zap.Logger

	mu   sync.Mutex
	last *financeapp.SweepResponse
}

// NewOverdueSweepScheduler builds the scheduler from the sweeper configuration.
// locker may be nil when cfg.UseLock is false.
func NewOverdueSweepScheduler(cfg config.SweeperConfig, sweeper OverdueSweeper, locker Locker, logger *zap.Logger) *OverdueSweepScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &OverdueSweepScheduler{logger: logger.With(zap.String("job", overdueSweepJobName))}

	runnerCfg := DefaultRunnerConfig()
	if cfg.Timeout > 0 {
		runnerCfg.JobTimeout = cfg.Timeout
	}
	if cfg.LockTTL > 0 {
		runnerCfg.LockTTL = cfg.LockTTL
	}
	opts := []RunnerOption{WithRunnerLogger(s.logger)}
	if cfg.UseLock && locker != nil {
		opts = append(opts, WithLocker(locker))
	}

	s.runner = NewRunner(overdueSweepJobName, func(ctx context.Context) error {
		resp, err := sweeper.Sweep(ctx)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.last = resp
		s.mu.Unlock()
		return nil
	}, runnerCfg, opts...)

	at := DefaultDailyTriggerConfig()
	at.Hour, at.Minute = cfg.RunHour, 0
	at.Location = cfg.Location()
	s.trigger = NewDailyTrigger(at, s.fire, s.logger)

	return s
}

// Start starts the daily trigger
func (s *OverdueSweepScheduler) Start(ctx context.Context) error {
	return s.trigger.Start(ctx)
}

// Stop stops the trigger, waiting for a sweep in progress
func (s *OverdueSweepScheduler) Stop(ctx context.Context) error {
	return s.trigger.Stop(ctx)
}

// RunOnce sweeps immediately, outside the daily schedule
func (s *OverdueSweepScheduler) RunOnce(ctx context.Context) (*Job, error) {
	return s.runner.Run(ctx)
}

// LastResult returns the result of the last successful sweep, or nil
func (s *OverdueSweepScheduler) LastResult() *financeapp.SweepResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// LastJob returns the last run of the sweep job, or nil
func (s *OverdueSweepScheduler) LastJob() *Job {
	return s.runner.LastJob()
}

func (s *OverdueSweepScheduler) fire(ctx context.Context) {
	var (
		job *Job
		err error
	)
	telemetry.WithProfileLabels(ctx, func(ctx context.Context) {
		job, err = s.runner.Run(ctx)
	}, telemetry.ProfileLabelJob, overdueSweepJobName)
	switch {
	case err == nil:
		s.logger.Info("Scheduled overdue sweep finished", zap.String("job_id", job.ID.String()))
	case IsSkipped(err):
		// another replica swept today
	default:
		s.logger.Error("Scheduled overdue sweep failed", zap.Error(err))
	}
}
