package shipping

import (
	"github.com/google/uuid"

	"github.com/oms/backend/internal/domain/shared"
)

const AggregateTypeShipment = "Shipment"

const (
	EventTypeShipmentCreated = "ShipmentCreated"
	EventTypeShipmentVoided  = "ShipmentVoided"
)

// ShipmentCreatedEvent is raised when a label purchase succeeds
type ShipmentCreatedEvent struct {
	shared.BaseDomainEvent
	ShipmentID     uuid.UUID `json:"shipment_id"`
	OrderID        uuid.UUID `json:"order_id"`
	Carrier        string    `json:"carrier"`
	TrackingNumber string    `json:"tracking_number"`
}

// NewShipmentCreatedEvent creates a new ShipmentCreatedEvent
func NewShipmentCreatedEvent(s *Shipment) *ShipmentCreatedEvent {
	return &ShipmentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeShipmentCreated, AggregateTypeShipment, s.ID),
		ShipmentID:      s.ID,
		OrderID:         s.OrderID,
		Carrier:         s.Carrier,
		TrackingNumber:  s.TrackingNumber,
	}
}

// EventType returns the event type name
func (e *ShipmentCreatedEvent) EventType() string {
	return EventTypeShipmentCreated
}

// ShipmentVoidedEvent is raised when a label is voided
type ShipmentVoidedEvent struct {
	shared.BaseDomainEvent
	ShipmentID uuid.UUID `json:"shipment_id"`
	OrderID    uuid.UUID `json:"order_id"`
	LabelID    string    `json:"label_id"`
}

// NewShipmentVoidedEvent creates a new ShipmentVoidedEvent
func NewShipmentVoidedEvent(s *Shipment) *ShipmentVoidedEvent {
	return &ShipmentVoidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeShipmentVoided, AggregateTypeShipment, s.ID),
		ShipmentID:      s.ID,
		OrderID:         s.OrderID,
		LabelID:         s.LabelID,
	}
}

// EventType returns the event type name
func (e *ShipmentVoidedEvent) EventType() string {
	return EventTypeShipmentVoided
}
