package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when triggering a job on a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrJobAlreadyRunning is returned when a job is triggered while a run is in flight
	ErrJobAlreadyRunning = errors.New("job is already running")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrUnknownJob is returned for job names the scheduler does not manage
	ErrUnknownJob = errors.New("unknown scheduler job")
)
