package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobStatus represents the status of a job run
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
	JobStatusSkipped JobStatus = "SKIPPED"
)

// Job is one run of a scheduled task
type Job struct {
	ID          uuid.UUID
	Name        string
	Status      JobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int
	MaxRetries  int
}

// NewJob creates a new job instance
func NewJob(name string, maxRetries int) *Job {
	return &Job{
		ID:         uuid.New(),
		Name:       name,
		Status:     JobStatusPending,
		MaxRetries: maxRetries,
	}
}

// Start marks the job as running
func (j *Job) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete marks the job as successful
func (j *Job) Complete() {
	now := time.Now()
	j.Status = JobStatusSuccess
	j.CompletedAt = &now
}

// Fail marks the job as failed
func (j *Job) Fail(err string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// Skip marks a job that did not run because another instance holds its lock
func (j *Job) Skip() {
	now := time.Now()
	j.Status = JobStatusSkipped
	j.CompletedAt = &now
}

// ShouldRetry returns true if the job should be retried
func (j *Job) ShouldRetry() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// ScheduleRetry records one more attempt
func (j *Job) ScheduleRetry() {
	j.RetryCount++
	j.Status = JobStatusPending
	j.Error = ""
}

// TaskFunc is the work of a job
type TaskFunc func(ctx context.Context) error

// Locker grants a lease so that only one instance runs a job at a time
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Unlock(ctx context.Context, key, token string) error
}

// RunnerConfig holds job execution settings
type RunnerConfig struct {
	JobTimeout    time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	LockTTL       time.Duration
}

// DefaultRunnerConfig returns default runner configuration
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		JobTimeout:    5 * time.Minute,
		RetryAttempts: 2,
		RetryDelay:    30 * time.Second,
		LockTTL:       10 * time.Minute,
	}
}

// Runner executes a named task with a timeout, bounded retries and an
// optional lock. Overlapping runs in the same process are refused.
type Runner struct {
	name   string
	task   TaskFunc
	config RunnerConfig
	locker Locker
	logger *zap.Logger

	mu      sync.Mutex
	running bool
	lastJob *Job
}

// RunnerOption is a functional option for configuring the runner
type RunnerOption func(*Runner)

// WithLocker coordinates runs across instances through locker
func WithLocker(locker Locker) RunnerOption {
	return func(r *Runner) {
		r.locker = locker
	}
}

// WithRunnerLogger sets the runner's logger
func WithRunnerLogger(logger *zap.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a new runner for task
func NewRunner(name string, task TaskFunc, config RunnerConfig, opts ...RunnerOption) *Runner {
	r := &Runner{
		name:   name,
		task:   task,
		config: config,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the task once, retrying failures up to RetryAttempts times
func (r *Runner) Run(ctx context.Context) (*Job, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil, ErrJobAlreadyRunning
	}
	r.running = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	job := NewJob(r.name, r.config.RetryAttempts)
	defer r.remember(job)

	if r.locker != nil {
		token, ok, err := r.locker.TryLock(ctx, r.name, r.config.LockTTL)
		if err != nil {
			job.Fail(err.Error())
			r.logger.Error("Failed to acquire job lock", zap.String("job", r.name), zap.Error(err))
			return job, err
		}
		if !ok {
			job.Skip()
			r.logger.Info("Job skipped, lock held elsewhere", zap.String("job", r.name))
			return job, ErrLockHeld
		}
		defer func() {
			if err := r.locker.Unlock(context.WithoutCancel(ctx), r.name, token); err != nil {
				r.logger.Warn("Failed to release job lock", zap.String("job", r.name), zap.Error(err))
			}
		}()
	}

	for {
		err := r.attempt(ctx, job)
		if err == nil {
			return job, nil
		}
		if !job.ShouldRetry() || ctx.Err() != nil {
			return job, err
		}
		job.ScheduleRetry()
		r.logger.Info("Job scheduled for retry",
			zap.String("job_id", job.ID.String()),
			zap.Int("retry_count", job.RetryCount),
			zap.Int("max_retries", job.MaxRetries),
		)

		select {
		case <-ctx.Done():
			job.Fail(ctx.Err().Error())
			return job, ctx.Err()
		case <-time.After(r.config.RetryDelay):
		}
	}
}

func (r *Runner) attempt(ctx context.Context, job *Job) error {
	job.Start()
	r.logger.Info("Processing job", zap.String("job", r.name), zap.String("job_id", job.ID.String()))

	jobCtx := ctx
	if r.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, r.config.JobTimeout)
		defer cancel()
	}

	err := r.runTask(jobCtx)
	if err != nil {
		job.Fail(err.Error())
		r.logger.Error("Job failed",
			zap.String("job", r.name),
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
		return err
	}

	job.Complete()
	r.logger.Info("Job completed successfully",
		zap.String("job", r.name),
		zap.String("job_id", job.ID.String()),
	)
	return nil
}

// runTask turns a panicking task into a failed attempt
func (r *Runner) runTask(ctx context.Context) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("job %s panicked: %v", r.name, rec)
		}
	}()
	return r.task(ctx)
}

func (r *Runner) remember(job *Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastJob = job
}

// LastJob returns a copy of the most recent run, or nil
func (r *Runner) LastJob() *Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lastJob == nil {
		return nil
	}
	cp := *r.lastJob
	return &cp
}

// IsSkipped reports whether err means another instance ran the job
func IsSkipped(err error) bool {
	return errors.Is(err, ErrLockHeld)
}
