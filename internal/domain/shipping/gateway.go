package shipping

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/oms/backend/internal/domain/shared/valueobject"
)

// ShipperProfile is the shipper-of-record: the return address printed on
// labels and sent to carriers as the ship-from party.
type ShipperProfile struct {
	Name    string
	Company string
	Phone   string
	Email   string
	Address valueobject.ShippingAddress
}

// FillFrom copies any field missing on the profile from defaults
func (p ShipperProfile) FillFrom(defaults ShipperProfile) ShipperProfile {
	out := p
	if out.Name == "" {
		out.Name = defaults.Name
	}
	if out.Company == "" {
		out.Company = defaults.Company
	}
	if out.Phone == "" {
		out.Phone = defaults.Phone
	}
	if out.Email == "" {
		out.Email = defaults.Email
	}
	if !out.Address.IsComplete() {
		out.Address = defaults.Address
	}
	return out
}

// ShipmentSpec is the carrier-neutral request shape for quoting and
// purchasing: who ships, who receives, and what the package looks like.
type ShipmentSpec struct {
	OrderNumber   string
	From          ShipperProfile
	RecipientName string
	To            valueobject.ShippingAddress
	Parcel        valueobject.Parcel
}

// QuoteOffer is a carrier-provided price/service offer for a shipment
type QuoteOffer struct {
	Carrier      string
	Service      string
	ServiceCode  string
	Price        decimal.Decimal
	Currency     string
	DeliveryDays int
}

// QuoteRef identifies the offer to purchase. RateID carries the carrier
// side's own identifier when the gateway requires one.
type QuoteRef struct {
	RateID      string
	Carrier     string
	ServiceCode string
	Spec        ShipmentSpec
}

// LabelResult is the outcome of a successful label purchase
type LabelResult struct {
	LabelID        string
	TrackingNumber string
	LabelURL       string
	Carrier        string
	ServiceCode    string
	Price          decimal.Decimal
	Currency       string
}

// VoidResult is the outcome of a label void request
type VoidResult struct {
	Approved bool
	Message  string
}

// CarrierGateway abstracts a carrier or rate-aggregator API. Exactly one
// implementation is selected by configuration at startup; callers never
// branch on the concrete type.
type CarrierGateway interface {
	// Name identifies the gateway implementation (for logging and the
	// quote source column)
	Name() string

	// GetRates returns all offers the carrier quotes for the spec
	GetRates(ctx context.Context, spec ShipmentSpec) ([]QuoteOffer, error)

	// PurchaseLabel buys a label for the referenced offer
	PurchaseLabel(ctx context.Context, ref QuoteRef) (*LabelResult, error)

	// VoidLabel voids a previously purchased label
	VoidLabel(ctx context.Context, labelID string) (*VoidResult, error)
}

// GatewayErrorKind partitions gateway failures by how callers react
type GatewayErrorKind string

const (
	// GatewayTransient means timeout or carrier-side outage; retry later,
	// change no state
	GatewayTransient GatewayErrorKind = "transient"
	// GatewayRejected means the carrier declined this request; terminal
	// for the quote or label, recorded with the carrier's reason
	GatewayRejected GatewayErrorKind = "rejected"
)

// GatewayError is the typed failure returned by every gateway call
type GatewayError struct {
	Kind    GatewayErrorKind
	Gateway string
	Message string
	cause   error
}

// Error implements the error interface
func (e *GatewayError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s gateway %s: %s: %v", e.Gateway, e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s gateway %s: %s", e.Gateway, e.Kind, e.Message)
}

// Unwrap returns the underlying cause
func (e *GatewayError) Unwrap() error {
	return e.cause
}

// NewTransientError creates a retryable gateway error
func NewTransientError(gateway, message string, cause error) *GatewayError {
	return &GatewayError{Kind: GatewayTransient, Gateway: gateway, Message: message, cause: cause}
}

// NewRejectedError creates a terminal gateway error
func NewRejectedError(gateway, message string) *GatewayError {
	return &GatewayError{Kind: GatewayRejected, Gateway: gateway, Message: message}
}

// IsTransient reports whether err is a retryable gateway failure
func IsTransient(err error) bool {
	var ge *GatewayError
	return errors.As(err, &ge) && ge.Kind == GatewayTransient
}

// IsRejected reports whether err is a terminal gateway rejection
func IsRejected(err error) bool {
	var ge *GatewayError
	return errors.As(err, &ge) && ge.Kind == GatewayRejected
}
