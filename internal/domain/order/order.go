package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oms/backend/internal/domain/shared"
	"github.com/oms/backend/internal/domain/shared/valueobject"
)

// QueueFree and QueueLocked are the two values of the per-order
// processing lock flag. The flag is only ever flipped through the
// lock manager's atomic conditional update, never by loading and
// re-saving the aggregate.
const (
	QueueFree   = 0
	QueueLocked = 1
)

// Order is the aggregate root for a marketplace order as seen by the
// label procurement engine. Identity is (marketplace, order_number);
// rows are created and refreshed by marketplace sync collaborators and
// mutated here only through the rate shopper, the orchestrator and the
// reconciliation repair path.
type Order struct {
	shared.BaseAggregateRoot

	Marketplace        Marketplace
	OrderNumber        string
	MarketplaceOrderID string

	RecipientName string
	ShipTo        valueobject.ShippingAddress

	Status         Status
	RawStatus      string
	PrintingStatus PrintingStatus
	CancelStatus   CancelStatus
	MarkedAsShip   bool

	Queue          int
	QueueStartedAt *time.Time
	LockOwner      *uuid.UUID

	ShippingRateFetched bool
	RateFetchFailed     bool
	DefaultRateID       *uuid.UUID
	DefaultCarrier      string
	DefaultPrice        *decimal.Decimal
	DefaultCurrency     string

	Items []OrderItem

	ShippedAt  *time.Time
	ArchivedAt *time.Time
}

// NewOrder creates a new order from marketplace sync data
func NewOrder(marketplace Marketplace, orderNumber string) (*Order, error) {
	if !marketplace.IsValid() {
		return nil, shared.NewDomainError("INVALID_MARKETPLACE", fmt.Sprintf("Unsupported marketplace: %s", marketplace))
	}
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if len(orderNumber) > 64 {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot exceed 64 characters")
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Marketplace:       marketplace,
		OrderNumber:       orderNumber,
		Status:            StatusUnknown,
		PrintingStatus:    PrintingNone,
		CancelStatus:      CancelNone,
		Queue:             QueueFree,
		Items:             make([]OrderItem, 0),
	}
	return o, nil
}

// ApplyMarketplaceStatus normalizes and applies a marketplace-native
// status string. Raw strings are preserved for audit; the engine only
// ever branches on the normalized value.
func (o *Order) ApplyMarketplaceStatus(raw string) {
	o.RawStatus = raw
	o.Status = NormalizeStatus(raw)
	o.Touch()
}

// SetRecipient sets the recipient name and shipping address
func (o *Order) SetRecipient(name string, addr valueobject.ShippingAddress) {
	o.RecipientName = name
	o.ShipTo = addr
	o.Touch()
}

// SetMarkedAsShip toggles the manual shipping override
func (o *Order) SetMarkedAsShip(marked bool) {
	o.MarkedAsShip = marked
	o.Touch()
}

// ApplyCancelStatus applies the marketplace cancel axis
func (o *Order) ApplyCancelStatus(cs CancelStatus) error {
	if !cs.IsValid() {
		return shared.NewDomainError("INVALID_CANCEL_STATUS", fmt.Sprintf("Invalid cancel status: %s", cs))
	}
	o.CancelStatus = cs
	o.Touch()
	return nil
}

// AddItem adds a line item to the order
func (o *Order) AddItem(sku, title string, quantity int, unitPrice decimal.Decimal) (*OrderItem, error) {
	item, err := NewOrderItem(o.ID, sku, title, quantity, unitPrice)
	if err != nil {
		return nil, err
	}
	o.Items = append(o.Items, *item)
	o.Touch()
	return item, nil
}

// IsShippable returns true if the normalized status (or the manual
// override) permits shipping work and the order is not cancelled
func (o *Order) IsShippable() bool {
	if o.CancelStatus == CancelConfirmed || o.Status == StatusCancelled {
		return false
	}
	return o.Status.IsUnshippedFamily() || o.MarkedAsShip
}

// EligibleForRateShopping returns true if a rate shopping pass should
// pick this order up
func (o *Order) EligibleForRateShopping() bool {
	return o.IsShippable() &&
		o.ShipTo.IsComplete() &&
		!o.ShippingRateFetched &&
		o.PrintingStatus == PrintingNone
}

// EligibleForPurchase returns true if a label may be purchased. The
// active-shipment check is the orchestrator's responsibility since it
// requires the shipment store.
func (o *Order) EligibleForPurchase() bool {
	return o.IsShippable() &&
		o.ShipTo.IsComplete() &&
		o.PrintingStatus == PrintingNone
}

// EligibleForForcedPurchase returns true if a forced repurchase may
// proceed. A forced purchase replaces an existing label, so the labeled
// composite (status shipped, printing status 1) is allowed here where
// EligibleForPurchase rejects it. Cancelled and archived orders stay
// off-limits even under force.
func (o *Order) EligibleForForcedPurchase() bool {
	if o.CancelStatus == CancelConfirmed || o.Status == StatusCancelled {
		return false
	}
	return o.ShipTo.IsComplete() && o.PrintingStatus != PrintingArchived
}

// MarkRateShopped records the winning quote pointer and flags the order
// as rate-fetched. Moves the order from eligible-for-rates to
// rate-shopped.
func (o *Order) MarkRateShopped(rateID uuid.UUID, carrier string, price decimal.Decimal, currency string) error {
	if o.PrintingStatus != PrintingNone {
		return shared.NewDomainError("INVALID_STATE", "Cannot rate-shop an order that already has a label")
	}
	o.DefaultRateID = &rateID
	o.DefaultCarrier = carrier
	o.DefaultPrice = &price
	o.DefaultCurrency = currency
	o.ShippingRateFetched = true
	o.RateFetchFailed = false
	o.Touch()
	o.AddDomainEvent(NewOrderRateShoppedEvent(o, rateID, carrier, price))
	return nil
}

// MarkRateFetchFailed records a terminal rate-fetch rejection. The
// fetched flag is still set so the shopping batch terminates instead of
// retrying a permanently unshippable order.
func (o *Order) MarkRateFetchFailed() {
	o.ShippingRateFetched = true
	o.RateFetchFailed = true
	o.DefaultRateID = nil
	o.DefaultCarrier = ""
	o.DefaultPrice = nil
	o.Touch()
}

// MarkRateShoppedNoWinner completes a shopping pass in which every quote
// fell into an excluded category. The fetched flag is set so the batch
// terminates; no default pointer is stamped.
func (o *Order) MarkRateShoppedNoWinner() {
	o.ShippingRateFetched = true
	o.RateFetchFailed = false
	o.DefaultRateID = nil
	o.DefaultCarrier = ""
	o.DefaultPrice = nil
	o.Touch()
}

// MarkLabeled advances the order to the labeled composite: status
// shipped, printing status 1. Called by the orchestrator atomically with
// shipment creation.
func (o *Order) MarkLabeled() error {
	if o.PrintingStatus == PrintingArchived {
		return shared.NewDomainError("INVALID_STATE", "Cannot label an archived order")
	}
	now := time.Now()
	o.Status = StatusShipped
	o.PrintingStatus = PrintingLabeled
	if o.ShippedAt == nil {
		o.ShippedAt = &now
	}
	o.UpdatedAt = now
	o.AddDomainEvent(NewOrderLabeledEvent(o))
	return nil
}

// Archive moves a labeled order to the printed/archived phase
func (o *Order) Archive() error {
	if o.PrintingStatus != PrintingLabeled {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot archive order with printing status %d", o.PrintingStatus))
	}
	now := time.Now()
	o.PrintingStatus = PrintingArchived
	o.ArchivedAt = &now
	o.UpdatedAt = now
	o.AddDomainEvent(NewOrderArchivedEvent(o))
	return nil
}

// ForceLabeledComposite forces the labeled composite state without
// transition guards. This is the explicit repair path for orders whose
// fields disagree with an existing active shipment; it must never run
// during normal processing.
func (o *Order) ForceLabeledComposite() {
	now := time.Now()
	o.Status = StatusShipped
	if o.PrintingStatus < PrintingLabeled {
		o.PrintingStatus = PrintingLabeled
	}
	if o.ShippedAt == nil {
		o.ShippedAt = &now
	}
	o.UpdatedAt = now
	o.AddDomainEvent(NewOrderStateRepairedEvent(o))
}

// IsLocked returns true if the processing flag is held
func (o *Order) IsLocked() bool {
	return o.Queue == QueueLocked
}

// LockIsStale returns true if the processing flag is held but its lease
// started longer than ttl ago, indicating the holder likely died before
// releasing it
func (o *Order) LockIsStale(ttl time.Duration) bool {
	if o.Queue != QueueLocked || o.QueueStartedAt == nil {
		return false
	}
	return time.Since(*o.QueueStartedAt) > ttl
}

// ShipmentParcel aggregates all item parcels into the effective shipment
// parcel, falling back to a single default parcel when the order carries
// no items.
func (o *Order) ShipmentParcel() valueobject.Parcel {
	if len(o.Items) == 0 {
		return valueobject.EmptyParcel().WithDefaults()
	}
	parcel := o.Items[0].Parcel()
	for _, item := range o.Items[1:] {
		parcel = parcel.Combine(item.Parcel())
	}
	return parcel
}

// ClassifyPhase computes the composite phase for this order given
// whether an active shipment exists. Inconsistent combinations are
// reported as PhaseInconsistent and are handled by the repair path, not
// by normal transitions.
func (o *Order) ClassifyPhase(hasActiveShipment bool) Phase {
	if hasActiveShipment {
		if o.Status != StatusShipped || o.PrintingStatus < PrintingLabeled {
			return PhaseInconsistent
		}
		if o.PrintingStatus == PrintingArchived {
			return PhasePrinted
		}
		return PhaseLabeled
	}

	// No active shipment: a labeled printing status is a dangling claim.
	if o.PrintingStatus >= PrintingLabeled {
		return PhaseInconsistent
	}
	if o.ShippingRateFetched && o.DefaultRateID != nil {
		return PhaseRateShopped
	}
	if o.EligibleForRateShopping() {
		return PhaseEligibleForRates
	}
	return PhaseIneligible
}

// HasDefaultRate returns true if a cheapest-quote pointer is stamped
func (o *Order) HasDefaultRate() bool {
	return o.DefaultRateID != nil
}
