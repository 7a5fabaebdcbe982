package shipping

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/oms/backend/internal/domain/batch"
	"github.com/oms/backend/internal/domain/order"
	"github.com/oms/backend/internal/domain/shared"
	"github.com/oms/backend/internal/domain/shipping"
)

// MockOrderRepository is a mock implementation of order.Repository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByMarketplaceAndNumber(ctx context.Context, marketplace order.Marketplace, orderNumber string) (*order.Order, error) {
	args := m.Called(ctx, marketplace, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]order.Order, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]order.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindEligibleForRateShopping(ctx context.Context, limit int) ([]order.Order, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindAwaitingShipment(ctx context.Context, filter shared.Filter) ([]order.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindAwaitingPrint(ctx context.Context, filter shared.Filter) ([]order.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindLocked(ctx context.Context) ([]order.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindLockedLongerThan(ctx context.Context, cutoff time.Time) ([]order.Order, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindLabeledWithoutShipment(ctx context.Context, limit int) ([]order.Order, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) Save(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) SaveWithLock(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) CountAwaitingShipment(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) CountAwaitingPrint(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockQuoteRepository is a mock implementation of shipping.QuoteRepository
type MockQuoteRepository struct {
	mock.Mock
}

func (m *MockQuoteRepository) FindByID(ctx context.Context, id uuid.UUID) (*shipping.CarrierQuote, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.CarrierQuote), args.Error(1)
}

func (m *MockQuoteRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]*shipping.CarrierQuote, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*shipping.CarrierQuote), args.Error(1)
}

func (m *MockQuoteRepository) FindCheapestByOrderID(ctx context.Context, orderID uuid.UUID) (*shipping.CarrierQuote, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.CarrierQuote), args.Error(1)
}

func (m *MockQuoteRepository) ExistingTupleKeys(ctx context.Context, orderID uuid.UUID) (map[string]bool, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]bool), args.Error(1)
}

func (m *MockQuoteRepository) SaveQuotesAndStampOrder(ctx context.Context, quotes []*shipping.CarrierQuote, winner *shipping.CarrierQuote, o *order.Order) error {
	args := m.Called(ctx, quotes, winner, o)
	return args.Error(0)
}

// MockShipmentRepository is a mock implementation of shipping.ShipmentRepository
type MockShipmentRepository struct {
	mock.Mock
}

func (m *MockShipmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*shipping.Shipment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.Shipment), args.Error(1)
}

func (m *MockShipmentRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]*shipping.Shipment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*shipping.Shipment), args.Error(1)
}

func (m *MockShipmentRepository) FindActiveByOrderID(ctx context.Context, orderID uuid.UUID) (*shipping.Shipment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.Shipment), args.Error(1)
}

func (m *MockShipmentRepository) HasActiveByOrderID(ctx context.Context, orderID uuid.UUID) (bool, error) {
	args := m.Called(ctx, orderID)
	return args.Bool(0), args.Error(1)
}

func (m *MockShipmentRepository) CountActiveByOrderIDs(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	args := m.Called(ctx, orderIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]bool), args.Error(1)
}

func (m *MockShipmentRepository) CreateWithOrder(ctx context.Context, s *shipping.Shipment, o *order.Order) error {
	args := m.Called(ctx, s, o)
	return args.Error(0)
}

func (m *MockShipmentRepository) Save(ctx context.Context, s *shipping.Shipment) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

// MockBatchRepository is a mock implementation of batch.Repository
type MockBatchRepository struct {
	mock.Mock
}

func (m *MockBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*batch.BatchHistory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*batch.BatchHistory), args.Error(1)
}

func (m *MockBatchRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*batch.BatchHistory, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*batch.BatchHistory), args.Error(1)
}

func (m *MockBatchRepository) FindCompletedSince(ctx context.Context, cutoff time.Time) ([]*batch.BatchHistory, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*batch.BatchHistory), args.Error(1)
}

func (m *MockBatchRepository) Save(ctx context.Context, b *batch.BatchHistory) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBatchRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockLocker is a mock implementation of order.Locker
type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) TryLock(ctx context.Context, orderID uuid.UUID) (*order.Lease, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Lease), args.Error(1)
}

func (m *MockLocker) Unlock(ctx context.Context, lease *order.Lease) error {
	args := m.Called(ctx, lease)
	return args.Error(0)
}

// MockCarrierGateway is a mock implementation of shipping.CarrierGateway
type MockCarrierGateway struct {
	mock.Mock
}

func (m *MockCarrierGateway) Name() string {
	return "mockgw"
}

func (m *MockCarrierGateway) GetRates(ctx context.Context, spec shipping.ShipmentSpec) ([]shipping.QuoteOffer, error) {
	args := m.Called(ctx, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]shipping.QuoteOffer), args.Error(1)
}

func (m *MockCarrierGateway) PurchaseLabel(ctx context.Context, ref shipping.QuoteRef) (*shipping.LabelResult, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.LabelResult), args.Error(1)
}

func (m *MockCarrierGateway) VoidLabel(ctx context.Context, labelID string) (*shipping.VoidResult, error) {
	args := m.Called(ctx, labelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.VoidResult), args.Error(1)
}

// MockNotifier is a mock implementation of shipping.FulfillmentNotifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyShipped(ctx context.Context, marketplace order.Marketplace, n shipping.ShipmentNotification) error {
	args := m.Called(ctx, marketplace, n)
	return args.Error(0)
}

// MockForceUnlocker is a mock implementation of ForceUnlocker
type MockForceUnlocker struct {
	mock.Mock
}

func (m *MockForceUnlocker) ForceUnlock(ctx context.Context, orderID uuid.UUID) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

// MockRecoveryRunner is a mock implementation of RecoveryRunner
type MockRecoveryRunner struct {
	mock.Mock
}

func (m *MockRecoveryRunner) ProcessRecovery(ctx context.Context, orderIDs []uuid.UUID, actor string, force bool) (*batch.BatchHistory, error) {
	args := m.Called(ctx, orderIDs, actor, force)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*batch.BatchHistory), args.Error(1)
}
