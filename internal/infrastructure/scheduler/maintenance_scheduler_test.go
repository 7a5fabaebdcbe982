package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appshipping "github.com/oms/backend/internal/application/shipping"
)

type fakeRateShopRunner struct {
	mu     sync.Mutex
	calls  int
	result *appshipping.RateShopRunResult
	err    error
	block  chan struct{}
}

func (f *fakeRateShopRunner) RunBatch(ctx context.Context, limit int) (*appshipping.RateShopRunResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &appshipping.RateShopRunResult{Scanned: limit}, nil
}

func (f *fakeRateShopRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeReconciler struct {
	mu             sync.Mutex
	reconcileCalls int
	sweepCalls     int
	released       int
	err            error
}

func (f *fakeReconciler) Reconcile(ctx context.Context, limit int) (*appshipping.ReconcileResult, error) {
	f.mu.Lock()
	f.reconcileCalls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &appshipping.ReconcileResult{Scanned: limit}, nil
}

func (f *fakeReconciler) SweepStaleLocks(ctx context.Context) (int, error) {
	f.mu.Lock()
	f.sweepCalls++
	f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return f.released, nil
}

func newTestScheduler(t *testing.T, rateShop RateShopRunner, reconciler Reconciler) *MaintenanceScheduler {
	t.Helper()
	cfg := DefaultMaintenanceSchedulerConfig()
	s, err := NewMaintenanceScheduler(cfg, rateShop, reconciler, zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestDefaultMaintenanceSchedulerConfig(t *testing.T) {
	cfg := DefaultMaintenanceSchedulerConfig()

	assert.True(t, cfg.Enabled)
	assert.Equal(t, 10*time.Minute, cfg.RateShopInterval)
	assert.Equal(t, 100, cfg.RateShopBatchSize)
	assert.Equal(t, 15*time.Minute, cfg.StaleLockInterval)
	assert.Equal(t, time.Hour, cfg.ReconcileInterval)
	assert.Equal(t, 200, cfg.ReconcileBatchSize)
	assert.Equal(t, 10*time.Minute, cfg.JobTimeout)
}

func TestMaintenanceSchedulerConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*MaintenanceSchedulerConfig)
		wantErr bool
	}{
		{
			name:    "Defaults are valid",
			modify:  func(c *MaintenanceSchedulerConfig) {},
			wantErr: false,
		},
		{
			name:    "Zero rate shop interval",
			modify:  func(c *MaintenanceSchedulerConfig) { c.RateShopInterval = 0 },
			wantErr: true,
		},
		{
			name:    "Negative reconcile interval",
			modify:  func(c *MaintenanceSchedulerConfig) { c.ReconcileInterval = -time.Minute },
			wantErr: true,
		},
		{
			name:    "Zero batch size",
			modify:  func(c *MaintenanceSchedulerConfig) { c.RateShopBatchSize = 0 },
			wantErr: true,
		},
		{
			name:    "Zero job timeout",
			modify:  func(c *MaintenanceSchedulerConfig) { c.JobTimeout = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultMaintenanceSchedulerConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMaintenanceScheduler_TriggerJob(t *testing.T) {
	t.Run("trigger before start is rejected", func(t *testing.T) {
		s := newTestScheduler(t, &fakeRateShopRunner{}, &fakeReconciler{})
		err := s.TriggerJob(JobRateShop)
		assert.ErrorIs(t, err, ErrSchedulerNotRunning)
	})

	t.Run("unknown job name is rejected", func(t *testing.T) {
		s := newTestScheduler(t, &fakeRateShopRunner{}, &fakeReconciler{})
		require.NoError(t, s.Start(context.Background()))
		defer func() { _ = s.Stop(context.Background()) }()

		err := s.TriggerJob(JobName("defragment"))
		assert.ErrorIs(t, err, ErrUnknownJob)
	})

	t.Run("triggered rate shop pass runs and records success", func(t *testing.T) {
		rateShop := &fakeRateShopRunner{result: &appshipping.RateShopRunResult{Scanned: 5, Shopped: 4}}
		s := newTestScheduler(t, rateShop, &fakeReconciler{})
		require.NoError(t, s.Start(context.Background()))
		defer func() { _ = s.Stop(context.Background()) }()

		require.NoError(t, s.TriggerJob(JobRateShop))

		assert.Eventually(t, func() bool {
			run := s.LastRun(JobRateShop)
			return run != nil && run.Status == JobStatusSuccess
		}, 2*time.Second, 10*time.Millisecond)
		assert.Equal(t, 1, rateShop.callCount())
	})

	t.Run("failed pass is recorded with its error", func(t *testing.T) {
		reconciler := &fakeReconciler{err: errors.New("database down")}
		s := newTestScheduler(t, &fakeRateShopRunner{}, reconciler)
		require.NoError(t, s.Start(context.Background()))
		defer func() { _ = s.Stop(context.Background()) }()

		require.NoError(t, s.TriggerJob(JobReconcile))

		assert.Eventually(t, func() bool {
			run := s.LastRun(JobReconcile)
			return run != nil && run.Status == JobStatusFailed
		}, 2*time.Second, 10*time.Millisecond)
		assert.Equal(t, "database down", s.LastRun(JobReconcile).Error)
	})

	t.Run("overlapping trigger is rejected while a run is in flight", func(t *testing.T) {
		block := make(chan struct{})
		rateShop := &fakeRateShopRunner{block: block}
		s := newTestScheduler(t, rateShop, &fakeReconciler{})
		require.NoError(t, s.Start(context.Background()))
		defer func() { _ = s.Stop(context.Background()) }()

		require.NoError(t, s.TriggerJob(JobRateShop))
		assert.Eventually(t, func() bool {
			return rateShop.callCount() == 1
		}, 2*time.Second, 10*time.Millisecond)

		err := s.TriggerJob(JobRateShop)
		assert.ErrorIs(t, err, ErrJobAlreadyRunning)

		close(block)
		assert.Eventually(t, func() bool {
			run := s.LastRun(JobRateShop)
			return run != nil && run.Status == JobStatusSuccess
		}, 2*time.Second, 10*time.Millisecond)
	})
}

func TestMaintenanceScheduler_TickerRunsJobs(t *testing.T) {
	cfg := DefaultMaintenanceSchedulerConfig()
	cfg.RateShopInterval = 20 * time.Millisecond
	cfg.StaleLockInterval = 20 * time.Millisecond
	cfg.ReconcileInterval = time.Hour

	rateShop := &fakeRateShopRunner{}
	reconciler := &fakeReconciler{released: 2}
	s, err := NewMaintenanceScheduler(cfg, rateShop, reconciler, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop(context.Background()) }()

	assert.Eventually(t, func() bool {
		reconciler.mu.Lock()
		sweeps := reconciler.sweepCalls
		reconciler.mu.Unlock()
		return rateShop.callCount() >= 2 && sweeps >= 2
	}, 3*time.Second, 10*time.Millisecond)
}

func TestMaintenanceScheduler_StartStop(t *testing.T) {
	s := newTestScheduler(t, &fakeRateShopRunner{}, &fakeReconciler{})

	require.NoError(t, s.Start(context.Background()))
	// Second start is a no-op
	require.NoError(t, s.Start(context.Background()))

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))
	// Second stop is a no-op
	require.NoError(t, s.Stop(stopCtx))

	status := s.GetStatus()
	assert.Equal(t, false, status["is_running"])
}
