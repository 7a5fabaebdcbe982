package shipping

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oms/backend/internal/domain/batch"
	"github.com/oms/backend/internal/domain/order"
	"github.com/oms/backend/internal/domain/shared"
	"github.com/oms/backend/internal/domain/shipping"
	"github.com/oms/backend/internal/infrastructure/config"
	"github.com/oms/backend/internal/infrastructure/logger"
)

// ProcurementService orchestrates label purchases: single orders, manual
// batches and the recovery runs the reconciler schedules. Every purchase
// runs under the order's processing lease so two staff members clicking
// the same order buy at most one label.
type ProcurementService struct {
	orderRepo    order.Repository
	quoteRepo    shipping.QuoteRepository
	shipmentRepo shipping.ShipmentRepository
	batchRepo    batch.Repository
	locker       order.Locker
	gateway      shipping.CarrierGateway
	notifier     shipping.FulfillmentNotifier
	shipper      shipping.ShipperProfile
	cfg          config.ProcurementConfig
}

// NewProcurementService creates a new ProcurementService
func NewProcurementService(
	orderRepo order.Repository,
	quoteRepo shipping.QuoteRepository,
	shipmentRepo shipping.ShipmentRepository,
	batchRepo batch.Repository,
	locker order.Locker,
	gateway shipping.CarrierGateway,
	notifier shipping.FulfillmentNotifier,
	shipper shipping.ShipperProfile,
	cfg config.ProcurementConfig,
) *ProcurementService {
	return &ProcurementService{
		orderRepo:    orderRepo,
		quoteRepo:    quoteRepo,
		shipmentRepo: shipmentRepo,
		batchRepo:    batchRepo,
		locker:       locker,
		gateway:      gateway,
		notifier:     notifier,
		shipper:      shipper,
		cfg:          cfg,
	}
}

// purchaseOptions tune a single purchase attempt
type purchaseOptions struct {
	quoteID *uuid.UUID
	force   bool
}

// Purchase buys a label for one order. With Force set, an existing
// active label is voided at the carrier and replaced; without it, a
// second purchase is rejected.
func (s *ProcurementService) Purchase(ctx context.Context, req PurchaseRequest, actor string) (*ShipmentResponse, error) {
	shipment, err := s.purchaseOne(ctx, req.OrderID, actor, purchaseOptions{
		quoteID: req.QuoteID,
		force:   req.Force,
	})
	if err != nil {
		return nil, err
	}
	resp := ToShipmentResponse(shipment)
	return &resp, nil
}

// RunBatch buys labels for a set of orders under one audit record.
// Batches above the async threshold are dispatched to a background
// worker and returned immediately in the processing state.
func (s *ProcurementService) RunBatch(ctx context.Context, req BatchPurchaseRequest, actor string) (*BatchResponse, error) {
	b, err := batch.NewBatchHistory(batch.BatchKindManual, actor, req.OrderIDs)
	if err != nil {
		return nil, err
	}
	if err := b.Start(); err != nil {
		return nil, err
	}
	if err := s.batchRepo.Save(ctx, b); err != nil {
		return nil, err
	}

	if b.TotalCount > s.cfg.AsyncThreshold {
		logger.L(ctx).Info("dispatching procurement batch to background worker",
			zap.String("batch_id", b.ID.String()),
			zap.Int("orders", b.TotalCount))
		go func() {
			bgCtx := context.Background()
			s.processBatch(bgCtx, b, actor, purchaseOptions{})
		}()
		resp := ToBatchResponse(b)
		return &resp, nil
	}

	s.processBatch(ctx, b, actor, purchaseOptions{})
	resp := ToBatchResponse(b)
	return &resp, nil
}

// ProcessRecovery runs a recovery batch over the given orders on behalf
// of the reconciler and returns the completed recovery record. With
// force set, orders stuck in the labeled composite without an active
// shipment are re-driven instead of skipped. The caller is responsible
// for merging the record into the original batch.
func (s *ProcurementService) ProcessRecovery(ctx context.Context, orderIDs []uuid.UUID, actor string, force bool) (*batch.BatchHistory, error) {
	b, err := batch.NewBatchHistory(batch.BatchKindRecovery, actor, orderIDs)
	if err != nil {
		return nil, err
	}
	if err := b.Start(); err != nil {
		return nil, err
	}
	if err := s.batchRepo.Save(ctx, b); err != nil {
		return nil, err
	}
	s.processBatch(ctx, b, actor, purchaseOptions{force: force})
	return b, nil
}

// processBatch works through every requested order, recording each
// outcome on the batch. Batch-level bookkeeping never aborts the run;
// per-order failures are recorded and the loop continues. The one
// exception is a run of consecutive transient gateway failures: past
// the configured limit the gateway is presumed down and the remaining
// orders are recorded failed-transient without being attempted.
func (s *ProcurementService) processBatch(ctx context.Context, b *batch.BatchHistory, actor string, opts purchaseOptions) {
	failLimit := s.cfg.GatewayFailLimit
	if failLimit <= 0 {
		failLimit = 3
	}
	consecutiveTransient := 0

	for i, orderID := range b.OrderIDs {
		if consecutiveTransient >= failLimit {
			logger.L(ctx).Warn("gateway presumed down, short-circuiting procurement batch",
				zap.String("batch_id", b.ID.String()),
				zap.Int("consecutive_transient", consecutiveTransient),
				zap.Int("remaining", len(b.OrderIDs)-i))
			for _, rest := range b.OrderIDs[i:] {
				b.RecordFailure(rest, "gateway unreachable, purchase not attempted", true)
			}
			break
		}

		_, err := s.purchaseOne(ctx, orderID, actor, opts)
		switch {
		case err == nil:
			b.RecordSuccess(orderID)
			consecutiveTransient = 0
		case errors.Is(err, shared.ErrAlreadyLocked):
			b.RecordSkipped(orderID)
		case isNotEligible(err):
			b.RecordSkipped(orderID)
		case shipping.IsTransient(err):
			b.RecordFailure(orderID, err.Error(), true)
			consecutiveTransient++
		default:
			b.RecordFailure(orderID, err.Error(), false)
			consecutiveTransient = 0
		}
	}

	if err := b.Complete(); err != nil {
		logger.L(ctx).Error("failed to complete procurement batch",
			zap.String("batch_id", b.ID.String()),
			zap.Error(err))
	}
	if err := s.batchRepo.Save(ctx, b); err != nil {
		logger.L(ctx).Error("failed to save procurement batch",
			zap.String("batch_id", b.ID.String()),
			zap.Error(err))
	}

	logger.L(ctx).Info("procurement batch finished",
		zap.String("batch_id", b.ID.String()),
		zap.String("status", string(b.Status)),
		zap.Int("success", b.SuccessCount),
		zap.Int("failed", b.FailedCount),
		zap.Int("skipped", b.SkippedCount))
}

// purchaseOne buys a label for a single order under its processing
// lease. Eligibility is revalidated after the lease is acquired so a
// concurrent cancellation or purchase observed between listing and
// locking cannot slip through.
func (s *ProcurementService) purchaseOne(ctx context.Context, orderID uuid.UUID, actor string, opts purchaseOptions) (*shipping.Shipment, error) {
	lease, err := s.locker.TryLock(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := s.locker.Unlock(ctx, lease); err != nil {
			logger.L(ctx).Warn("failed to release order lease",
				zap.String("order_id", orderID.String()),
				zap.Error(err))
		}
	}()

	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if opts.force {
		if !o.EligibleForForcedPurchase() {
			return nil, errNotEligible(o)
		}
	} else if !o.EligibleForPurchase() {
		return nil, errNotEligible(o)
	}

	hasActive, err := s.shipmentRepo.HasActiveByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if hasActive {
		if !opts.force {
			return nil, shared.NewDomainError("ACTIVE_SHIPMENT_EXISTS",
				"Order already has an active shipment; use force to void and repurchase")
		}
		if err := s.voidActive(ctx, orderID); err != nil {
			return nil, err
		}
	}

	quote, err := s.resolveQuote(ctx, o, opts.quoteID)
	if err != nil {
		return nil, err
	}

	spec := shipping.ShipmentSpec{
		OrderNumber:   o.OrderNumber,
		From:          s.shipper,
		RecipientName: o.RecipientName,
		To:            o.ShipTo,
		Parcel:        o.ShipmentParcel(),
	}
	result, err := s.gateway.PurchaseLabel(ctx, shipping.QuoteRef{
		Carrier:     quote.Carrier,
		ServiceCode: quote.ServiceCode,
		Spec:        spec,
	})
	if err != nil {
		return nil, err
	}

	shipment, err := shipping.NewShipment(o.ID, &quote.ID, s.gateway.Name(), actor, *result)
	if err != nil {
		return nil, err
	}
	shipment.Service = quote.Service

	if err := o.MarkLabeled(); err != nil {
		return nil, err
	}
	if err := s.shipmentRepo.CreateWithOrder(ctx, shipment, o); err != nil {
		return nil, err
	}

	logger.L(ctx).Info("label purchased",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.OrderNumber),
		zap.String("carrier", shipment.Carrier),
		zap.String("tracking_number", shipment.TrackingNumber),
		zap.String("actor", actor))

	s.notifyShipped(o, shipment)
	return shipment, nil
}

// resolveQuote picks the quote to purchase: the caller's explicit choice
// when given, otherwise the order's stamped cheapest
func (s *ProcurementService) resolveQuote(ctx context.Context, o *order.Order, quoteID *uuid.UUID) (*shipping.CarrierQuote, error) {
	if quoteID != nil {
		quote, err := s.quoteRepo.FindByID(ctx, *quoteID)
		if err != nil {
			return nil, err
		}
		if quote.OrderID != o.ID {
			return nil, shared.NewDomainError("QUOTE_MISMATCH", "Quote does not belong to this order")
		}
		return quote, nil
	}

	quote, err := s.quoteRepo.FindCheapestByOrderID(ctx, o.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NO_QUOTE", "Order has no usable quote; run rate shopping first")
		}
		return nil, err
	}
	return quote, nil
}

// voidActive voids the order's active shipment at the carrier and in the
// store. Part of the explicit force-repurchase flow.
func (s *ProcurementService) voidActive(ctx context.Context, orderID uuid.UUID) error {
	active, err := s.shipmentRepo.FindActiveByOrderID(ctx, orderID)
	if err != nil {
		return err
	}

	void, err := s.gateway.VoidLabel(ctx, active.LabelID)
	if err != nil {
		return err
	}
	if !void.Approved {
		return shared.NewDomainError("VOID_DECLINED",
			fmt.Sprintf("Carrier declined to void label %s: %s", active.LabelID, void.Message))
	}

	if err := active.Void(); err != nil {
		return err
	}
	if err := s.shipmentRepo.Save(ctx, active); err != nil {
		return err
	}

	logger.L(ctx).Info("active shipment voided for repurchase",
		zap.String("order_id", orderID.String()),
		zap.String("label_id", active.LabelID))
	return nil
}

// notifyShipped sends the marketplace fulfillment webhook without
// blocking the purchase path. Delivery failures are logged, never
// surfaced: the label is already bought.
func (s *ProcurementService) notifyShipped(o *order.Order, shipment *shipping.Shipment) {
	timeout := s.cfg.NotifyTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	marketplace := o.Marketplace
	notification := shipping.ShipmentNotification{
		OrderNumber:    o.OrderNumber,
		TrackingNumber: shipment.TrackingNumber,
		Carrier:        shipment.Carrier,
		ServiceCode:    shipment.ServiceCode,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := s.notifier.NotifyShipped(ctx, marketplace, notification); err != nil {
			logger.L(ctx).Warn("shipment notification failed",
				zap.String("marketplace", string(marketplace)),
				zap.String("order_number", notification.OrderNumber),
				zap.Error(err))
		}
	}()
}

// VoidShipment voids a shipment's label outside the repurchase flow
func (s *ProcurementService) VoidShipment(ctx context.Context, shipmentID uuid.UUID) (*ShipmentResponse, error) {
	shipment, err := s.shipmentRepo.FindByID(ctx, shipmentID)
	if err != nil {
		return nil, err
	}

	void, err := s.gateway.VoidLabel(ctx, shipment.LabelID)
	if err != nil {
		return nil, err
	}
	if !void.Approved {
		return nil, shared.NewDomainError("VOID_DECLINED",
			fmt.Sprintf("Carrier declined to void label %s: %s", shipment.LabelID, void.Message))
	}

	if err := shipment.Void(); err != nil {
		return nil, err
	}
	if err := s.shipmentRepo.Save(ctx, shipment); err != nil {
		return nil, err
	}

	resp := ToShipmentResponse(shipment)
	return &resp, nil
}

// GetShipmentsByOrder returns all shipments for an order, newest first
func (s *ProcurementService) GetShipmentsByOrder(ctx context.Context, orderID uuid.UUID) ([]ShipmentResponse, error) {
	shipments, err := s.shipmentRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	out := make([]ShipmentResponse, 0, len(shipments))
	for _, sh := range shipments {
		out = append(out, ToShipmentResponse(sh))
	}
	return out, nil
}

// GetBatch returns one batch record
func (s *ProcurementService) GetBatch(ctx context.Context, batchID uuid.UUID) (*BatchResponse, error) {
	b, err := s.batchRepo.FindByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	resp := ToBatchResponse(b)
	return &resp, nil
}

// ListBatches returns batch records matching the filter, newest first
func (s *ProcurementService) ListBatches(ctx context.Context, filter BatchListFilter) ([]BatchResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Filters:  make(map[string]interface{}),
	}
	if filter.Status != nil {
		domainFilter.Filters["status"] = string(*filter.Status)
	}
	if filter.Kind != nil {
		domainFilter.Filters["kind"] = string(*filter.Kind)
	}
	if filter.RequestedBy != "" {
		domainFilter.Filters["requested_by"] = filter.RequestedBy
	}

	batches, err := s.batchRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.batchRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	out := make([]BatchResponse, 0, len(batches))
	for _, b := range batches {
		out = append(out, ToBatchResponse(b))
	}
	return out, total, nil
}

// errNotEligible builds the skip error for an order that fails
// revalidation under the lease
func errNotEligible(o *order.Order) error {
	return shared.NewDomainError("NOT_ELIGIBLE",
		fmt.Sprintf("Order %s is not eligible for label purchase", o.OrderNumber))
}

// isNotEligible reports whether err is the revalidation skip
func isNotEligible(err error) bool {
	var de *shared.DomainError
	return errors.As(err, &de) && de.Code == "NOT_ELIGIBLE"
}
