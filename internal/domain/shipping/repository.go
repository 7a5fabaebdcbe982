package shipping

import (
	"context"

	"github.com/google/uuid"

	"github.com/oms/backend/internal/domain/order"
)

// QuoteRepository defines the interface for carrier quote persistence.
// Quote history is append-only; only the is_cheapest flag is ever updated
// after insert.
type QuoteRepository interface {
	// FindByID finds a quote by ID
	FindByID(ctx context.Context, id uuid.UUID) (*CarrierQuote, error)

	// FindByOrderID finds all stored quotes for an order
	FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]*CarrierQuote, error)

	// FindCheapestByOrderID finds the order's current winning quote
	FindCheapestByOrderID(ctx context.Context, orderID uuid.UUID) (*CarrierQuote, error)

	// ExistingTupleKeys returns the dedupe keys of every stored quote for
	// an order
	ExistingTupleKeys(ctx context.Context, orderID uuid.UUID) (map[string]bool, error)

	// SaveQuotesAndStampOrder atomically inserts the new quote rows,
	// clears any prior is_cheapest flag for the order, sets it on winner
	// (when non-nil) and saves the order's default-rate stamp. One
	// transaction so no reader ever observes two winners or a stamped
	// order without its winning row.
	SaveQuotesAndStampOrder(ctx context.Context, quotes []*CarrierQuote, winner *CarrierQuote, o *order.Order) error
}

// ShipmentRepository defines the interface for shipment persistence
type ShipmentRepository interface {
	// FindByID finds a shipment by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Shipment, error)

	// FindByOrderID finds all shipments for an order, newest first
	FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]*Shipment, error)

	// FindActiveByOrderID finds the order's active shipment, or
	// shared.ErrNotFound when none exists
	FindActiveByOrderID(ctx context.Context, orderID uuid.UUID) (*Shipment, error)

	// HasActiveByOrderID reports whether an active shipment exists
	HasActiveByOrderID(ctx context.Context, orderID uuid.UUID) (bool, error)

	// CountActiveByOrderIDs returns per-order active shipment existence
	// for a set of orders in one query
	CountActiveByOrderIDs(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID]bool, error)

	// CreateWithOrder atomically inserts the shipment row and saves the
	// order's labeled state fields in one transaction. A crash never
	// leaves an order shipped without a shipment or vice versa.
	CreateWithOrder(ctx context.Context, s *Shipment, o *order.Order) error

	// Save updates an existing shipment (void flow)
	Save(ctx context.Context, s *Shipment) error
}
