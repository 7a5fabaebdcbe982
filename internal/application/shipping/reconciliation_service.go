package shipping

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oms/backend/internal/domain/batch"
	"github.com/oms/backend/internal/domain/order"
	"github.com/oms/backend/internal/domain/shared"
	"github.com/oms/backend/internal/domain/shipping"
	"github.com/oms/backend/internal/infrastructure/logger"
)

// RecoveryRunner re-runs procurement over a set of orders and returns
// the completed recovery batch. Satisfied by ProcurementService.
type RecoveryRunner interface {
	ProcessRecovery(ctx context.Context, orderIDs []uuid.UUID, actor string, force bool) (*batch.BatchHistory, error)
}

// ForceUnlocker releases a processing lease regardless of owner.
// Satisfied by the database locker; reserved for the stale-lock sweep.
type ForceUnlocker interface {
	ForceUnlock(ctx context.Context, orderID uuid.UUID) error
}

// ReconciliationService detects and repairs disagreements between order
// state fields and the shipment store, sweeps stale processing leases
// and schedules recovery runs for batches whose successes have no
// surviving shipment.
type ReconciliationService struct {
	orderRepo    order.Repository
	shipmentRepo shipping.ShipmentRepository
	batchRepo    batch.Repository
	recovery     RecoveryRunner
	forceUnlock  ForceUnlocker
	sweepAge     time.Duration
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(
	orderRepo order.Repository,
	shipmentRepo shipping.ShipmentRepository,
	batchRepo batch.Repository,
	recovery RecoveryRunner,
	forceUnlock ForceUnlocker,
	sweepAge time.Duration,
) *ReconciliationService {
	if sweepAge <= 0 {
		sweepAge = 30 * time.Minute
	}
	return &ReconciliationService{
		orderRepo:    orderRepo,
		shipmentRepo: shipmentRepo,
		batchRepo:    batchRepo,
		recovery:     recovery,
		forceUnlock:  forceUnlock,
		sweepAge:     sweepAge,
	}
}

// Reconcile runs one repair pass over up to limit orders per direction.
// Orders sitting in the awaiting-shipment queue despite an active
// shipment get the labeled composite stamped; orders claiming a label
// with no active shipment are reported as dangling claims for recovery,
// never silently demoted.
func (s *ReconciliationService) Reconcile(ctx context.Context, limit int) (*ReconcileResult, error) {
	if limit <= 0 {
		limit = 200
	}
	result := &ReconcileResult{DanglingClaims: make([]uuid.UUID, 0)}

	awaiting, err := s.orderRepo.FindAwaitingShipment(ctx, shared.Filter{Page: 1, PageSize: limit})
	if err != nil {
		return nil, err
	}
	result.Scanned += len(awaiting)

	ids := make([]uuid.UUID, 0, len(awaiting))
	for i := range awaiting {
		ids = append(ids, awaiting[i].ID)
	}
	hasActive, err := s.shipmentRepo.CountActiveByOrderIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	for i := range awaiting {
		o := &awaiting[i]
		if !hasActive[o.ID] {
			continue
		}
		if o.ClassifyPhase(true) != order.PhaseInconsistent {
			continue
		}

		o.ForceLabeledComposite()
		if err := s.orderRepo.SaveWithLock(ctx, o); err != nil {
			if errors.Is(err, shared.ErrConcurrencyConflict) {
				// Someone else advanced the order mid-repair; the next
				// pass re-evaluates it.
				logger.L(ctx).Info("reconcile repair lost a concurrent update",
					zap.String("order_id", o.ID.String()))
				continue
			}
			return result, err
		}
		result.Repaired++
		logger.L(ctx).Warn("repaired order state to match active shipment",
			zap.String("order_id", o.ID.String()),
			zap.String("order_number", o.OrderNumber))
	}

	dangling, err := s.orderRepo.FindLabeledWithoutShipment(ctx, limit)
	if err != nil {
		return result, err
	}
	result.Scanned += len(dangling)
	for i := range dangling {
		result.DanglingClaims = append(result.DanglingClaims, dangling[i].ID)
	}
	if len(result.DanglingClaims) > 0 {
		logger.L(ctx).Warn("orders claim a label but have no active shipment",
			zap.Int("count", len(result.DanglingClaims)))
	}

	return result, nil
}

// SweepStaleLocks force-releases processing leases older than the sweep
// age. A lease that old means its holder died without unlocking; the
// order becomes claimable again and the next pass re-evaluates it.
func (s *ReconciliationService) SweepStaleLocks(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.sweepAge)
	stale, err := s.orderRepo.FindLockedLongerThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	released := 0
	for i := range stale {
		o := &stale[i]
		if err := s.forceUnlock.ForceUnlock(ctx, o.ID); err != nil {
			logger.L(ctx).Error("failed to release stale lease",
				zap.String("order_id", o.ID.String()),
				zap.Error(err))
			continue
		}
		released++
		logger.L(ctx).Warn("released stale processing lease",
			zap.String("order_id", o.ID.String()),
			zap.String("order_number", o.OrderNumber),
			zap.Timep("queue_started_at", o.QueueStartedAt))
	}
	return released, nil
}

// RecoverBatch re-runs procurement for the batch's successes that have
// no active shipment, its transient failures and any orders a crashed
// worker never reached, then merges the recovery outcomes back into the
// original record. With force set, the recovery run re-drives orders
// stuck in the labeled composite without an active shipment. A batch
// stuck in processing longer than the sweep age is abandoned first; a
// fresh processing batch is refused.
func (s *ReconciliationService) RecoverBatch(ctx context.Context, batchID uuid.UUID, actor string, force bool) (*BatchResponse, error) {
	b, err := s.batchRepo.FindByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if !b.Status.IsTerminal() {
		if !b.IsStale(s.sweepAge) {
			return nil, shared.NewDomainError("BATCH_NOT_TERMINAL", "Batch is still processing; recovery runs only on finished batches")
		}
		if err := b.Abandon(); err != nil {
			return nil, err
		}
		if err := s.batchRepo.Save(ctx, b); err != nil {
			return nil, err
		}
		logger.L(ctx).Warn("abandoned stale processing batch before recovery",
			zap.String("batch_id", b.ID.String()),
			zap.Timep("started_at", b.StartedAt))
	}

	hasActive, err := s.shipmentRepo.CountActiveByOrderIDs(ctx, b.OrderIDs)
	if err != nil {
		return nil, err
	}
	missing := b.MissingOrderIDs(hasActive)
	if len(missing) == 0 {
		resp := ToBatchResponse(b)
		return &resp, nil
	}

	logger.L(ctx).Info("starting batch recovery",
		zap.String("batch_id", b.ID.String()),
		zap.Int("missing", len(missing)),
		zap.Bool("force", force))

	rec, err := s.recovery.ProcessRecovery(ctx, missing, actor, force)
	if err != nil {
		return nil, err
	}
	if err := b.MergeRecovery(rec); err != nil {
		return nil, err
	}
	if err := s.batchRepo.Save(ctx, b); err != nil {
		return nil, err
	}

	resp := ToBatchResponse(b)
	return &resp, nil
}
