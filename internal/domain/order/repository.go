package order

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/oms/backend/internal/domain/shared"
)

// Repository defines the interface for order persistence
type Repository interface {
	// FindByID finds an order by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByMarketplaceAndNumber finds an order by its natural identity
	FindByMarketplaceAndNumber(ctx context.Context, marketplace Marketplace, orderNumber string) (*Order, error)

	// FindByIDs finds the orders for a set of IDs; missing IDs are skipped
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Order, error)

	// FindAll finds orders with filtering and pagination
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, error)

	// FindEligibleForRateShopping finds shippable orders with complete
	// addresses whose rates have not been fetched, up to limit
	FindEligibleForRateShopping(ctx context.Context, limit int) ([]Order, error)

	// FindAwaitingShipment finds shippable orders without a purchased
	// label, the awaiting-shipment queue projection
	FindAwaitingShipment(ctx context.Context, filter shared.Filter) ([]Order, error)

	// FindAwaitingPrint finds orders whose label is purchased but not yet
	// archived, the awaiting-print queue projection
	FindAwaitingPrint(ctx context.Context, filter shared.Filter) ([]Order, error)

	// FindLocked finds orders whose processing flag is held
	FindLocked(ctx context.Context) ([]Order, error)

	// FindLockedLongerThan finds orders whose processing lease started
	// before the cutoff, candidates for the stale-lock sweep
	FindLockedLongerThan(ctx context.Context, cutoff time.Time) ([]Order, error)

	// FindLabeledWithoutShipment finds orders claiming a label with no
	// active shipment row, candidates for reconciliation
	FindLabeledWithoutShipment(ctx context.Context, limit int) ([]Order, error)

	// Save creates or updates an order with its items
	Save(ctx context.Context, o *Order) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, o *Order) error

	// CountAwaitingShipment counts the awaiting-shipment projection
	CountAwaitingShipment(ctx context.Context) (int64, error)

	// CountAwaitingPrint counts the awaiting-print projection
	CountAwaitingPrint(ctx context.Context) (int64, error)

	// Count counts orders matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
