package scheduler

import "errors"

// Sentinel errors of the scheduler. Callers match them with errors.Is;
// they are wrapped with detail where they originate.
var (
	// ErrJobAlreadyRunning rejects a run while the previous one in this
	// process has not returned.
	ErrJobAlreadyRunning = errors.New("scheduler: job already running")

	// ErrLockHeld means another replica owns the distributed job lock. It is
	// an expected outcome, not a failure.
	ErrLockHeld = errors.New("scheduler: job lock held by another instance")

	// ErrInvalidConfig wraps every configuration validation failure.
	ErrInvalidConfig = errors.New("scheduler: invalid configuration")
)
