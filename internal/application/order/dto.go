package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oms/backend/internal/domain/order"
)

// ==================== Intake DTOs ====================

// MarketplaceAddressInput is the recipient address as delivered by a
// marketplace sync. Fields may be blank; completeness is checked before
// shipping work, not at intake.
type MarketplaceAddressInput struct {
	Street1    string `json:"street1"`
	Street2    string `json:"street2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

// MarketplaceItemInput is one line item from a marketplace sync
type MarketplaceItemInput struct {
	SKU       string           `json:"sku"`
	Title     string           `json:"title" binding:"required,min=1,max=500"`
	Quantity  int              `json:"quantity" binding:"required,min=1"`
	UnitPrice decimal.Decimal  `json:"unit_price"`
	WeightOz  *decimal.Decimal `json:"weight_oz"`
	LengthIn  *decimal.Decimal `json:"length_in"`
	WidthIn   *decimal.Decimal `json:"width_in"`
	HeightIn  *decimal.Decimal `json:"height_in"`
}

// UpsertOrderRequest is a marketplace order snapshot to create or
// refresh by natural identity (marketplace, order_number)
type UpsertOrderRequest struct {
	Marketplace        string                   `json:"marketplace" binding:"required"`
	OrderNumber        string                   `json:"order_number" binding:"required,min=1,max=64"`
	MarketplaceOrderID string                   `json:"marketplace_order_id"`
	Status             string                   `json:"status"`
	CancelStatus       string                   `json:"cancel_status"`
	RecipientName      string                   `json:"recipient_name"`
	ShipTo             *MarketplaceAddressInput `json:"ship_to"`
	Items              []MarketplaceItemInput   `json:"items"`
}

// MarkAsShipRequest toggles the manual shipping override
type MarkAsShipRequest struct {
	Marked bool `json:"marked"`
}

// ==================== Query DTOs ====================

// OrderListFilter represents filter options for order lists
type OrderListFilter struct {
	Marketplace string `form:"marketplace"`
	Status      string `form:"status"`
	Search      string `form:"search"`
	Page        int    `form:"page" binding:"min=0"`
	PageSize    int    `form:"page_size" binding:"min=0,max=100"`
	OrderBy     string `form:"order_by"`
	OrderDir    string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// OrderItemResponse represents a line item in API responses
type OrderItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	SKU       string          `json:"sku"`
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	WeightOz  decimal.Decimal `json:"weight_oz"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID                  uuid.UUID           `json:"id"`
	Marketplace         string              `json:"marketplace"`
	OrderNumber         string              `json:"order_number"`
	MarketplaceOrderID  string              `json:"marketplace_order_id,omitempty"`
	RecipientName       string              `json:"recipient_name"`
	ShipToLine          string              `json:"ship_to"`
	AddressComplete     bool                `json:"address_complete"`
	Status              string              `json:"status"`
	RawStatus           string              `json:"raw_status,omitempty"`
	PrintingStatus      int                 `json:"printing_status"`
	CancelStatus        string              `json:"cancel_status"`
	MarkedAsShip        bool                `json:"marked_as_ship"`
	Locked              bool                `json:"locked"`
	ShippingRateFetched bool                `json:"shipping_rate_fetched"`
	RateFetchFailed     bool                `json:"rate_fetch_failed"`
	DefaultRateID       *uuid.UUID          `json:"default_rate_id,omitempty"`
	DefaultCarrier      string              `json:"default_carrier,omitempty"`
	DefaultPrice        *decimal.Decimal    `json:"default_price,omitempty"`
	DefaultCurrency     string              `json:"default_currency,omitempty"`
	Items               []OrderItemResponse `json:"items"`
	ShippedAt           *time.Time          `json:"shipped_at,omitempty"`
	ArchivedAt          *time.Time          `json:"archived_at,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

// ToOrderResponse converts a domain order to a response DTO
func ToOrderResponse(o *order.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemResponse{
			ID:        item.ID,
			SKU:       item.SKU,
			Title:     item.Title,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			WeightOz:  item.WeightOz,
		})
	}
	return OrderResponse{
		ID:                  o.ID,
		Marketplace:         string(o.Marketplace),
		OrderNumber:         o.OrderNumber,
		MarketplaceOrderID:  o.MarketplaceOrderID,
		RecipientName:       o.RecipientName,
		ShipToLine:          o.ShipTo.OneLine(),
		AddressComplete:     o.ShipTo.IsComplete(),
		Status:              string(o.Status),
		RawStatus:           o.RawStatus,
		PrintingStatus:      int(o.PrintingStatus),
		CancelStatus:        string(o.CancelStatus),
		MarkedAsShip:        o.MarkedAsShip,
		Locked:              o.IsLocked(),
		ShippingRateFetched: o.ShippingRateFetched,
		RateFetchFailed:     o.RateFetchFailed,
		DefaultRateID:       o.DefaultRateID,
		DefaultCarrier:      o.DefaultCarrier,
		DefaultPrice:        o.DefaultPrice,
		DefaultCurrency:     o.DefaultCurrency,
		Items:               items,
		ShippedAt:           o.ShippedAt,
		ArchivedAt:          o.ArchivedAt,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
	}
}

// QueueCountsResponse reports the size of both work queues
type QueueCountsResponse struct {
	AwaitingShipment int64 `json:"awaiting_shipment"`
	AwaitingPrint    int64 `json:"awaiting_print"`
}
