package order

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oms/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeOrder = "Order"

// Event type constants
const (
	EventTypeOrderRateShopped   = "OrderRateShopped"
	EventTypeOrderLabeled       = "OrderLabeled"
	EventTypeOrderArchived      = "OrderArchived"
	EventTypeOrderStateRepaired = "OrderStateRepaired"
)

// OrderRateShoppedEvent is raised when a shopping pass stamps a default rate
type OrderRateShoppedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	Marketplace Marketplace     `json:"marketplace"`
	RateID      uuid.UUID       `json:"rate_id"`
	Carrier     string          `json:"carrier"`
	Price       decimal.Decimal `json:"price"`
}

// NewOrderRateShoppedEvent creates a new OrderRateShoppedEvent
func NewOrderRateShoppedEvent(o *Order, rateID uuid.UUID, carrier string, price decimal.Decimal) *OrderRateShoppedEvent {
	return &OrderRateShoppedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderRateShopped, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		Marketplace:     o.Marketplace,
		RateID:          rateID,
		Carrier:         carrier,
		Price:           price,
	}
}

// EventType returns the event type name
func (e *OrderRateShoppedEvent) EventType() string {
	return EventTypeOrderRateShopped
}

// OrderLabeledEvent is raised when a label purchase advances the order
// to the labeled composite state
type OrderLabeledEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID   `json:"order_id"`
	OrderNumber string      `json:"order_number"`
	Marketplace Marketplace `json:"marketplace"`
}

// NewOrderLabeledEvent creates a new OrderLabeledEvent
func NewOrderLabeledEvent(o *Order) *OrderLabeledEvent {
	return &OrderLabeledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderLabeled, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		Marketplace:     o.Marketplace,
	}
}

// EventType returns the event type name
func (e *OrderLabeledEvent) EventType() string {
	return EventTypeOrderLabeled
}

// OrderArchivedEvent is raised when a labeled order is archived
type OrderArchivedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
}

// NewOrderArchivedEvent creates a new OrderArchivedEvent
func NewOrderArchivedEvent(o *Order) *OrderArchivedEvent {
	return &OrderArchivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderArchived, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
	}
}

// EventType returns the event type name
func (e *OrderArchivedEvent) EventType() string {
	return EventTypeOrderArchived
}

// OrderStateRepairedEvent is raised when the reconciliation repair path
// forces an order back into a consistent composite state
type OrderStateRepairedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
}

// NewOrderStateRepairedEvent creates a new OrderStateRepairedEvent
func NewOrderStateRepairedEvent(o *Order) *OrderStateRepairedEvent {
	return &OrderStateRepairedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStateRepaired, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
	}
}

// EventType returns the event type name
func (e *OrderStateRepairedEvent) EventType() string {
	return EventTypeOrderStateRepaired
}
