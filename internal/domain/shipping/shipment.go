package shipping

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oms/backend/internal/domain/shared"
)

// LabelStatus is the lifecycle of a purchased label
type LabelStatus string

const (
	LabelStatusActive LabelStatus = "active"
	LabelStatusVoided LabelStatus = "voided"
)

// IsValid checks if the label status is valid
func (s LabelStatus) IsValid() bool {
	return s == LabelStatusActive || s == LabelStatusVoided
}

// Shipment records exactly one successful label purchase for an order.
// At most one active shipment may exist per order; a second purchase must
// void the first through the explicit force flow or be rejected.
type Shipment struct {
	shared.BaseAggregateRoot

	OrderID        uuid.UUID
	QuoteID        *uuid.UUID
	Carrier        string
	Service        string
	ServiceCode    string
	LabelID        string
	TrackingNumber string
	LabelURL       string
	LabelStatus    LabelStatus
	LabelSource    string
	Price          decimal.Decimal
	Currency       string
	PurchasedBy    string
	VoidedAt       *time.Time
}

// NewShipment creates an active shipment from a purchase result
func NewShipment(orderID uuid.UUID, quoteID *uuid.UUID, source, purchasedBy string, result LabelResult) (*Shipment, error) {
	if result.LabelID == "" {
		return nil, shared.NewDomainError("INVALID_SHIPMENT", "Label ID cannot be empty")
	}
	if result.TrackingNumber == "" {
		return nil, shared.NewDomainError("INVALID_SHIPMENT", "Tracking number cannot be empty")
	}
	currency := result.Currency
	if currency == "" {
		currency = "USD"
	}

	s := &Shipment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderID:           orderID,
		QuoteID:           quoteID,
		Carrier:           result.Carrier,
		ServiceCode:       result.ServiceCode,
		LabelID:           result.LabelID,
		TrackingNumber:    result.TrackingNumber,
		LabelURL:          result.LabelURL,
		LabelStatus:       LabelStatusActive,
		LabelSource:       source,
		Price:             result.Price,
		Currency:          currency,
		PurchasedBy:       purchasedBy,
	}
	s.AddDomainEvent(NewShipmentCreatedEvent(s))
	return s, nil
}

// IsActive returns true if the label has not been voided
func (s *Shipment) IsActive() bool {
	return s.LabelStatus == LabelStatusActive
}

// Void marks the label as voided. Idempotent errors are surfaced so the
// caller can distinguish a repeat void from a first one.
func (s *Shipment) Void() error {
	if s.LabelStatus == LabelStatusVoided {
		return shared.NewDomainError("ALREADY_VOIDED", "Shipment label is already voided")
	}
	now := time.Now()
	s.LabelStatus = LabelStatusVoided
	s.VoidedAt = &now
	s.UpdatedAt = now
	s.AddDomainEvent(NewShipmentVoidedEvent(s))
	return nil
}
