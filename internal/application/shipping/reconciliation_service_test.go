package shipping

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/oms/backend/internal/domain/batch"
	"github.com/oms/backend/internal/domain/order"
	"github.com/oms/backend/internal/domain/shared"
)

func makeTerminalBatch(t *testing.T, orderIDs []uuid.UUID) *batch.BatchHistory {
	t.Helper()
	b, err := batch.NewBatchHistory(batch.BatchKindManual, "ops@example.com", orderIDs)
	require.NoError(t, err)
	require.NoError(t, b.Start())
	return b
}

func TestReconciliationService_Reconcile(t *testing.T) {
	ctx := context.Background()

	t.Run("stamps the labeled composite on orders hiding an active shipment", func(t *testing.T) {
		stuck := makeShoppableOrder(t, "EB-4001")
		fine := makeShoppableOrder(t, "EB-4002")
		orderRepo := new(MockOrderRepository)
		shipmentRepo := new(MockShipmentRepository)

		orderRepo.On("FindAwaitingShipment", ctx, mock.AnythingOfType("shared.Filter")).
			Return([]order.Order{*stuck, *fine}, nil)
		shipmentRepo.On("CountActiveByOrderIDs", ctx, []uuid.UUID{stuck.ID, fine.ID}).
			Return(map[uuid.UUID]bool{stuck.ID: true}, nil)
		orderRepo.On("SaveWithLock", ctx, mock.AnythingOfType("*order.Order")).
			Run(func(args mock.Arguments) {
				repaired := args.Get(1).(*order.Order)
				assert.Equal(t, stuck.ID, repaired.ID)
				assert.Equal(t, order.StatusShipped, repaired.Status)
				assert.Equal(t, order.PrintingLabeled, repaired.PrintingStatus)
			}).Return(nil).Once()
		orderRepo.On("FindLabeledWithoutShipment", ctx, 200).Return([]order.Order{}, nil)

		svc := NewReconciliationService(orderRepo, shipmentRepo, new(MockBatchRepository),
			new(MockRecoveryRunner), new(MockForceUnlocker), 0)
		result, err := svc.Reconcile(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Repaired)
		assert.Empty(t, result.DanglingClaims)
		orderRepo.AssertExpectations(t)
	})

	t.Run("a lost optimistic write is skipped, not fatal", func(t *testing.T) {
		stuck := makeShoppableOrder(t, "EB-4101")
		orderRepo := new(MockOrderRepository)
		shipmentRepo := new(MockShipmentRepository)

		orderRepo.On("FindAwaitingShipment", ctx, mock.Anything).
			Return([]order.Order{*stuck}, nil)
		shipmentRepo.On("CountActiveByOrderIDs", ctx, mock.Anything).
			Return(map[uuid.UUID]bool{stuck.ID: true}, nil)
		orderRepo.On("SaveWithLock", ctx, mock.Anything).Return(shared.ErrConcurrencyConflict)
		orderRepo.On("FindLabeledWithoutShipment", ctx, 200).Return([]order.Order{}, nil)

		svc := NewReconciliationService(orderRepo, shipmentRepo, new(MockBatchRepository),
			new(MockRecoveryRunner), new(MockForceUnlocker), 0)
		result, err := svc.Reconcile(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, 0, result.Repaired)
	})

	t.Run("label claims without a shipment are reported, never demoted", func(t *testing.T) {
		dangling := makeShoppableOrder(t, "EB-4201")
		orderRepo := new(MockOrderRepository)
		shipmentRepo := new(MockShipmentRepository)

		orderRepo.On("FindAwaitingShipment", ctx, mock.Anything).Return([]order.Order{}, nil)
		shipmentRepo.On("CountActiveByOrderIDs", ctx, mock.Anything).
			Return(map[uuid.UUID]bool{}, nil)
		orderRepo.On("FindLabeledWithoutShipment", ctx, 50).
			Return([]order.Order{*dangling}, nil)

		svc := NewReconciliationService(orderRepo, shipmentRepo, new(MockBatchRepository),
			new(MockRecoveryRunner), new(MockForceUnlocker), 0)
		result, err := svc.Reconcile(ctx, 50)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{dangling.ID}, result.DanglingClaims)
		orderRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})
}

func TestReconciliationService_SweepStaleLocks(t *testing.T) {
	ctx := context.Background()

	t.Run("releases every stale lease and keeps going past errors", func(t *testing.T) {
		a := makeShoppableOrder(t, "EB-5001")
		b := makeShoppableOrder(t, "EB-5002")
		c := makeShoppableOrder(t, "EB-5003")
		orderRepo := new(MockOrderRepository)
		unlocker := new(MockForceUnlocker)

		orderRepo.On("FindLockedLongerThan", ctx, mock.AnythingOfType("time.Time")).
			Run(func(args mock.Arguments) {
				cutoff := args.Get(1).(time.Time)
				assert.WithinDuration(t, time.Now().Add(-45*time.Minute), cutoff, 5*time.Second)
			}).Return([]order.Order{*a, *b, *c}, nil)
		unlocker.On("ForceUnlock", ctx, a.ID).Return(nil)
		unlocker.On("ForceUnlock", ctx, b.ID).Return(assert.AnError)
		unlocker.On("ForceUnlock", ctx, c.ID).Return(nil)

		svc := NewReconciliationService(orderRepo, new(MockShipmentRepository),
			new(MockBatchRepository), new(MockRecoveryRunner), unlocker, 45*time.Minute)
		released, err := svc.SweepStaleLocks(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, released)
		unlocker.AssertExpectations(t)
	})

	t.Run("nothing stale means nothing released", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		unlocker := new(MockForceUnlocker)
		orderRepo.On("FindLockedLongerThan", ctx, mock.Anything).Return([]order.Order{}, nil)

		svc := NewReconciliationService(orderRepo, new(MockShipmentRepository),
			new(MockBatchRepository), new(MockRecoveryRunner), unlocker, 0)
		released, err := svc.SweepStaleLocks(ctx)
		require.NoError(t, err)
		assert.Zero(t, released)
		unlocker.AssertNotCalled(t, "ForceUnlock", mock.Anything, mock.Anything)
	})
}

func TestReconciliationService_RecoverBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("re-runs procurement for missing orders and merges the outcome", func(t *testing.T) {
		lost := uuid.New()
		kept := uuid.New()
		flaky := uuid.New()
		b := makeTerminalBatch(t, []uuid.UUID{lost, kept, flaky})
		b.RecordSuccess(lost)
		b.RecordSuccess(kept)
		b.RecordFailure(flaky, "timeout", true)
		require.NoError(t, b.Complete())

		rec, err := batch.NewBatchHistory(batch.BatchKindRecovery, "reconciler", []uuid.UUID{lost, flaky})
		require.NoError(t, err)
		require.NoError(t, rec.Start())
		rec.RecordSuccess(lost)
		rec.RecordSuccess(flaky)
		require.NoError(t, rec.Complete())

		batchRepo := new(MockBatchRepository)
		shipmentRepo := new(MockShipmentRepository)
		runner := new(MockRecoveryRunner)

		batchRepo.On("FindByID", ctx, b.ID).Return(b, nil)
		shipmentRepo.On("CountActiveByOrderIDs", ctx, b.OrderIDs).
			Return(map[uuid.UUID]bool{kept: true}, nil)
		runner.On("ProcessRecovery", ctx, []uuid.UUID{lost, flaky}, "reconciler", false).Return(rec, nil)
		batchRepo.On("Save", ctx, b).Return(nil)

		svc := NewReconciliationService(new(MockOrderRepository), shipmentRepo, batchRepo,
			runner, new(MockForceUnlocker), 0)
		resp, err := svc.RecoverBatch(ctx, b.ID, "reconciler", false)
		require.NoError(t, err)
		assert.Equal(t, 3, resp.SuccessCount)
		assert.Equal(t, 0, resp.FailedCount)
		assert.Equal(t, string(batch.BatchStatusCompleted), resp.Status)
		batchRepo.AssertExpectations(t)
	})

	t.Run("a batch still processing is refused", func(t *testing.T) {
		b := makeTerminalBatch(t, []uuid.UUID{uuid.New()})
		batchRepo := new(MockBatchRepository)
		batchRepo.On("FindByID", ctx, b.ID).Return(b, nil)

		svc := NewReconciliationService(new(MockOrderRepository), new(MockShipmentRepository),
			batchRepo, new(MockRecoveryRunner), new(MockForceUnlocker), 0)
		_, err := svc.RecoverBatch(ctx, b.ID, "reconciler", false)
		assert.ErrorContains(t, err, "still processing")
	})

	t.Run("a stale processing batch is abandoned and recovered", func(t *testing.T) {
		dead := uuid.New()
		unreached := uuid.New()
		b := makeTerminalBatch(t, []uuid.UUID{dead, unreached})
		b.RecordSuccess(dead)
		started := time.Now().Add(-2 * time.Hour)
		b.StartedAt = &started

		rec, err := batch.NewBatchHistory(batch.BatchKindRecovery, "reconciler", []uuid.UUID{unreached})
		require.NoError(t, err)
		require.NoError(t, rec.Start())
		rec.RecordSuccess(unreached)
		require.NoError(t, rec.Complete())

		batchRepo := new(MockBatchRepository)
		shipmentRepo := new(MockShipmentRepository)
		runner := new(MockRecoveryRunner)

		batchRepo.On("FindByID", ctx, b.ID).Return(b, nil)
		shipmentRepo.On("CountActiveByOrderIDs", ctx, b.OrderIDs).
			Return(map[uuid.UUID]bool{dead: true}, nil)
		runner.On("ProcessRecovery", ctx, []uuid.UUID{unreached}, "reconciler", false).Return(rec, nil)
		batchRepo.On("Save", ctx, b).Return(nil)

		svc := NewReconciliationService(new(MockOrderRepository), shipmentRepo, batchRepo,
			runner, new(MockForceUnlocker), 30*time.Minute)
		resp, err := svc.RecoverBatch(ctx, b.ID, "reconciler", false)
		require.NoError(t, err)
		assert.Equal(t, string(batch.BatchStatusCompleted), resp.Status)
		assert.Equal(t, 2, resp.SuccessCount)
		runner.AssertExpectations(t)
	})

	t.Run("force is passed through to the recovery run", func(t *testing.T) {
		stuck := uuid.New()
		b := makeTerminalBatch(t, []uuid.UUID{stuck})
		b.RecordSuccess(stuck)
		require.NoError(t, b.Complete())

		rec, err := batch.NewBatchHistory(batch.BatchKindRecovery, "reconciler", []uuid.UUID{stuck})
		require.NoError(t, err)
		require.NoError(t, rec.Start())
		rec.RecordSuccess(stuck)
		require.NoError(t, rec.Complete())

		batchRepo := new(MockBatchRepository)
		shipmentRepo := new(MockShipmentRepository)
		runner := new(MockRecoveryRunner)

		batchRepo.On("FindByID", ctx, b.ID).Return(b, nil)
		shipmentRepo.On("CountActiveByOrderIDs", ctx, b.OrderIDs).
			Return(map[uuid.UUID]bool{}, nil)
		runner.On("ProcessRecovery", ctx, []uuid.UUID{stuck}, "reconciler", true).Return(rec, nil)
		batchRepo.On("Save", ctx, b).Return(nil)

		svc := NewReconciliationService(new(MockOrderRepository), shipmentRepo, batchRepo,
			runner, new(MockForceUnlocker), 0)
		_, err = svc.RecoverBatch(ctx, b.ID, "reconciler", true)
		require.NoError(t, err)
		runner.AssertExpectations(t)
	})

	t.Run("nothing missing is a no-op", func(t *testing.T) {
		id := uuid.New()
		b := makeTerminalBatch(t, []uuid.UUID{id})
		b.RecordSuccess(id)
		require.NoError(t, b.Complete())

		batchRepo := new(MockBatchRepository)
		shipmentRepo := new(MockShipmentRepository)
		runner := new(MockRecoveryRunner)
		batchRepo.On("FindByID", ctx, b.ID).Return(b, nil)
		shipmentRepo.On("CountActiveByOrderIDs", ctx, b.OrderIDs).
			Return(map[uuid.UUID]bool{id: true}, nil)

		svc := NewReconciliationService(new(MockOrderRepository), shipmentRepo, batchRepo,
			runner, new(MockForceUnlocker), 0)
		resp, err := svc.RecoverBatch(ctx, b.ID, "reconciler", false)
		require.NoError(t, err)
		assert.Equal(t, 1, resp.SuccessCount)
		runner.AssertNotCalled(t, "ProcessRecovery", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		batchRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}
