package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	appshipping "github.com/oms/backend/internal/application/shipping"
)

// JobName identifies one of the recurring maintenance jobs
type JobName string

const (
	// JobRateShop fetches quotes for orders that have none yet
	JobRateShop JobName = "rate_shop"
	// JobStaleLockSweep releases processing leases whose holders died
	JobStaleLockSweep JobName = "stale_lock_sweep"
	// JobReconcile repairs order state that disagrees with the shipment store
	JobReconcile JobName = "reconcile"
)

// AllJobs lists every job the maintenance scheduler manages
var AllJobs = []JobName{JobRateShop, JobStaleLockSweep, JobReconcile}

// JobStatus represents the outcome of the most recent run of a job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// JobRun records one execution of a maintenance job
type JobRun struct {
	Name        JobName
	Status      JobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// Start marks the run as in progress
func (r *JobRun) Start() {
	now := time.Now()
	r.Status = JobStatusRunning
	r.StartedAt = &now
	r.Error = ""
}

// Complete marks the run as successful
func (r *JobRun) Complete() {
	now := time.Now()
	r.Status = JobStatusSuccess
	r.CompletedAt = &now
}

// Fail marks the run as failed
func (r *JobRun) Fail(err string) {
	now := time.Now()
	r.Status = JobStatusFailed
	r.CompletedAt = &now
	r.Error = err
}

// RateShopRunner runs one rate shopping pass over eligible orders.
// Satisfied by the rate shopper application service.
type RateShopRunner interface {
	RunBatch(ctx context.Context, limit int) (*appshipping.RateShopRunResult, error)
}

// Reconciler runs state repair and lease sweeping passes. Satisfied by
// the reconciliation application service.
type Reconciler interface {
	Reconcile(ctx context.Context, limit int) (*appshipping.ReconcileResult, error)
	SweepStaleLocks(ctx context.Context) (int, error)
}

// MaintenanceSchedulerConfig holds configuration for the maintenance scheduler
type MaintenanceSchedulerConfig struct {
	// Enabled indicates if the scheduler is enabled
	Enabled bool
	// RateShopInterval is how often the rate shopping pass runs
	RateShopInterval time.Duration
	// RateShopBatchSize caps the orders scanned per rate shopping pass
	RateShopBatchSize int
	// StaleLockInterval is how often the stale lease sweep runs
	StaleLockInterval time.Duration
	// ReconcileInterval is how often the reconciliation pass runs
	ReconcileInterval time.Duration
	// ReconcileBatchSize caps the orders scanned per reconciliation pass
	ReconcileBatchSize int
	// JobTimeout is the maximum time a single pass can run
	JobTimeout time.Duration
}

// DefaultMaintenanceSchedulerConfig returns default configuration
func DefaultMaintenanceSchedulerConfig() MaintenanceSchedulerConfig {
	return MaintenanceSchedulerConfig{
		Enabled:            true,
		RateShopInterval:   10 * time.Minute,
		RateShopBatchSize:  100,
		StaleLockInterval:  15 * time.Minute,
		ReconcileInterval:  time.Hour,
		ReconcileBatchSize: 200,
		JobTimeout:         10 * time.Minute,
	}
}

// Validate validates the configuration
func (c *MaintenanceSchedulerConfig) Validate() error {
	if c.RateShopInterval <= 0 || c.StaleLockInterval <= 0 || c.ReconcileInterval <= 0 {
		return ErrInvalidConfig
	}
	if c.RateShopBatchSize <= 0 || c.ReconcileBatchSize <= 0 {
		return ErrInvalidConfig
	}
	if c.JobTimeout <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// MaintenanceScheduler drives the recurring background passes: rate
// shopping, stale lease sweeping and reconciliation. Each job runs on
// its own ticker; a tick that fires while the previous run of the same
// job is still in flight is skipped.
type MaintenanceScheduler struct {
	config     MaintenanceSchedulerConfig
	rateShop   RateShopRunner
	reconciler Reconciler
	logger     *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	runsMu   sync.RWMutex
	lastRuns map[JobName]*JobRun
	inFlight map[JobName]bool
}

// NewMaintenanceScheduler creates a new maintenance scheduler
func NewMaintenanceScheduler(
	config MaintenanceSchedulerConfig,
	rateShop RateShopRunner,
	reconciler Reconciler,
	logger *zap.Logger,
) (*MaintenanceScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	lastRuns := make(map[JobName]*JobRun, len(AllJobs))
	for _, name := range AllJobs {
		lastRuns[name] = &JobRun{Name: name, Status: JobStatusPending}
	}

	return &MaintenanceScheduler{
		config:     config,
		rateShop:   rateShop,
		reconciler: reconciler,
		logger:     logger,
		lastRuns:   lastRuns,
		inFlight:   make(map[JobName]bool, len(AllJobs)),
	}, nil
}

// Start starts the scheduler
func (s *MaintenanceScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(3)
	go s.tickerLoop(ctx, JobRateShop, s.config.RateShopInterval)
	go s.tickerLoop(ctx, JobStaleLockSweep, s.config.StaleLockInterval)
	go s.tickerLoop(ctx, JobReconcile, s.config.ReconcileInterval)

	s.logger.Info("Maintenance scheduler started",
		zap.Duration("rate_shop_interval", s.config.RateShopInterval),
		zap.Duration("stale_lock_interval", s.config.StaleLockInterval),
		zap.Duration("reconcile_interval", s.config.ReconcileInterval),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *MaintenanceScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Maintenance scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Maintenance scheduler stop timed out")
		return ctx.Err()
	}
}

// tickerLoop runs one job on its interval until the context is cancelled
func (s *MaintenanceScheduler) tickerLoop(ctx context.Context, name JobName, interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Debug("Maintenance job loop started",
		zap.String("job", string(name)),
		zap.Duration("interval", interval),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Maintenance job loop stopping", zap.String("job", string(name)))
			return
		case <-ticker.C:
			s.runJob(ctx, name)
		}
	}
}

// TriggerJob runs a named job once, outside its regular interval. The
// run is dispatched on a background context so it survives the HTTP
// request that triggered it.
func (s *MaintenanceScheduler) TriggerJob(name JobName) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.mu.Unlock()

	switch name {
	case JobRateShop, JobStaleLockSweep, JobReconcile:
	default:
		return ErrUnknownJob
	}

	s.runsMu.RLock()
	busy := s.inFlight[name]
	s.runsMu.RUnlock()
	if busy {
		return ErrJobAlreadyRunning
	}

	go s.runJob(context.Background(), name)
	return nil
}

// runJob executes a single pass of the named job
func (s *MaintenanceScheduler) runJob(ctx context.Context, name JobName) {
	if !s.claim(name) {
		s.logger.Debug("Skipping maintenance tick, previous run still in flight",
			zap.String("job", string(name)))
		return
	}
	defer s.release(name)

	run := &JobRun{Name: name}
	run.Start()

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	err := s.execute(jobCtx, name)
	if err != nil {
		run.Fail(err.Error())
		s.logger.Error("Maintenance job failed",
			zap.String("job", string(name)),
			zap.Error(err),
		)
	} else {
		run.Complete()
	}

	s.runsMu.Lock()
	s.lastRuns[name] = run
	s.runsMu.Unlock()
}

// execute dispatches to the job's runner and logs its summary
func (s *MaintenanceScheduler) execute(ctx context.Context, name JobName) error {
	switch name {
	case JobRateShop:
		result, err := s.rateShop.RunBatch(ctx, s.config.RateShopBatchSize)
		if err != nil {
			return err
		}
		s.logger.Info("Rate shopping pass finished",
			zap.Int("scanned", result.Scanned),
			zap.Int("shopped", result.Shopped),
			zap.Int("no_winner", result.NoWinner),
			zap.Int("rejected", result.Rejected),
			zap.Int("transient", result.Transient),
			zap.Bool("short_circuited", result.ShortCircuited),
		)
		return nil

	case JobStaleLockSweep:
		released, err := s.reconciler.SweepStaleLocks(ctx)
		if err != nil {
			return err
		}
		if released > 0 {
			s.logger.Warn("Stale lease sweep released leases", zap.Int("released", released))
		} else {
			s.logger.Debug("Stale lease sweep found nothing to release")
		}
		return nil

	case JobReconcile:
		result, err := s.reconciler.Reconcile(ctx, s.config.ReconcileBatchSize)
		if err != nil {
			return err
		}
		s.logger.Info("Reconciliation pass finished",
			zap.Int("scanned", result.Scanned),
			zap.Int("repaired", result.Repaired),
			zap.Int("dangling_claims", len(result.DanglingClaims)),
		)
		return nil
	}
	return ErrUnknownJob
}

// claim marks a job as in flight, returning false if it already is
func (s *MaintenanceScheduler) claim(name JobName) bool {
	s.runsMu.Lock()
	defer s.runsMu.Unlock()
	if s.inFlight[name] {
		return false
	}
	s.inFlight[name] = true
	return true
}

// release clears a job's in-flight flag
func (s *MaintenanceScheduler) release(name JobName) {
	s.runsMu.Lock()
	defer s.runsMu.Unlock()
	s.inFlight[name] = false
}

// LastRun returns the most recent run record for a job
func (s *MaintenanceScheduler) LastRun(name JobName) *JobRun {
	s.runsMu.RLock()
	defer s.runsMu.RUnlock()
	run, ok := s.lastRuns[name]
	if !ok {
		return nil
	}
	copied := *run
	return &copied
}

// GetStatus returns the current scheduler status for monitoring
func (s *MaintenanceScheduler) GetStatus() map[string]any {
	s.mu.Lock()
	isRunning := s.isRunning
	s.mu.Unlock()

	s.runsMu.RLock()
	defer s.runsMu.RUnlock()

	jobs := make(map[string]any, len(AllJobs))
	for _, name := range AllJobs {
		run := s.lastRuns[name]
		jobs[string(name)] = map[string]any{
			"status":       string(run.Status),
			"started_at":   run.StartedAt,
			"completed_at": run.CompletedAt,
			"error":        run.Error,
			"in_flight":    s.inFlight[name],
		}
	}

	return map[string]any{
		"enabled":    s.config.Enabled,
		"is_running": isRunning,
		"jobs":       jobs,
	}
}
