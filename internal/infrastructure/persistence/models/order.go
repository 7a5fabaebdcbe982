package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oms/backend/internal/domain/order"
	"github.com/oms/backend/internal/domain/shared/valueobject"
)

// OrderModel is the persistence model for the Order aggregate
type OrderModel struct {
	AggregateModel
	Marketplace        order.Marketplace           `gorm:"type:varchar(20);not null;uniqueIndex:idx_orders_identity,priority:1"`
	OrderNumber        string                      `gorm:"type:varchar(64);not null;uniqueIndex:idx_orders_identity,priority:2"`
	MarketplaceOrderID string                      `gorm:"type:varchar(128);index"`
	RecipientName      string                      `gorm:"type:varchar(200)"`
	ShipTo             valueobject.ShippingAddress `gorm:"type:jsonb"`
	Status             order.Status                `gorm:"type:varchar(32);not null;default:'unknown';index"`
	RawStatus          string                      `gorm:"type:varchar(64)"`
	PrintingStatus     int                         `gorm:"not null;default:0;index"`
	CancelStatus       order.CancelStatus          `gorm:"type:varchar(16);not null;default:'none'"`
	MarkedAsShip       bool                        `gorm:"not null;default:false"`
	Queue              int                         `gorm:"not null;default:0;index"`
	QueueStartedAt     *time.Time
	LockOwner          *uuid.UUID       `gorm:"type:uuid"`
	RateFetched        bool             `gorm:"column:shipping_rate_fetched;not null;default:false;index"`
	RateFetchFailed    bool             `gorm:"not null;default:false"`
	DefaultRateID      *uuid.UUID       `gorm:"type:uuid"`
	DefaultCarrier     string           `gorm:"type:varchar(50)"`
	DefaultPrice       *decimal.Decimal `gorm:"type:decimal(12,2)"`
	DefaultCurrency    string           `gorm:"type:varchar(3)"`
	ShippedAt          *time.Time
	ArchivedAt         *time.Time

	Items []OrderItemModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order aggregate
func (m *OrderModel) ToDomain() *order.Order {
	o := &order.Order{
		Marketplace:         m.Marketplace,
		OrderNumber:         m.OrderNumber,
		MarketplaceOrderID:  m.MarketplaceOrderID,
		RecipientName:       m.RecipientName,
		ShipTo:              m.ShipTo,
		Status:              m.Status,
		RawStatus:           m.RawStatus,
		PrintingStatus:      order.PrintingStatus(m.PrintingStatus),
		CancelStatus:        m.CancelStatus,
		MarkedAsShip:        m.MarkedAsShip,
		Queue:               m.Queue,
		QueueStartedAt:      m.QueueStartedAt,
		LockOwner:           m.LockOwner,
		ShippingRateFetched: m.RateFetched,
		RateFetchFailed:     m.RateFetchFailed,
		DefaultRateID:       m.DefaultRateID,
		DefaultCarrier:      m.DefaultCarrier,
		DefaultPrice:        m.DefaultPrice,
		DefaultCurrency:     m.DefaultCurrency,
		ShippedAt:           m.ShippedAt,
		ArchivedAt:          m.ArchivedAt,
		Items:               make([]order.OrderItem, 0, len(m.Items)),
	}
	m.PopulateAggregateRoot(&o.BaseAggregateRoot)

	for i := range m.Items {
		o.Items = append(o.Items, *m.Items[i].ToDomain())
	}
	return o
}

// FromDomain populates the persistence model from a domain Order aggregate
func (m *OrderModel) FromDomain(o *order.Order) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.Marketplace = o.Marketplace
	m.OrderNumber = o.OrderNumber
	m.MarketplaceOrderID = o.MarketplaceOrderID
	m.RecipientName = o.RecipientName
	m.ShipTo = o.ShipTo
	m.Status = o.Status
	m.RawStatus = o.RawStatus
	m.PrintingStatus = int(o.PrintingStatus)
	m.CancelStatus = o.CancelStatus
	m.MarkedAsShip = o.MarkedAsShip
	m.Queue = o.Queue
	m.QueueStartedAt = o.QueueStartedAt
	m.LockOwner = o.LockOwner
	m.RateFetched = o.ShippingRateFetched
	m.RateFetchFailed = o.RateFetchFailed
	m.DefaultRateID = o.DefaultRateID
	m.DefaultCarrier = o.DefaultCarrier
	m.DefaultPrice = o.DefaultPrice
	m.DefaultCurrency = o.DefaultCurrency
	m.ShippedAt = o.ShippedAt
	m.ArchivedAt = o.ArchivedAt

	m.Items = make([]OrderItemModel, 0, len(o.Items))
	for i := range o.Items {
		var im OrderItemModel
		im.FromDomain(&o.Items[i])
		m.Items = append(m.Items, im)
	}
}

// OrderModelFromDomain creates a new persistence model from a domain Order
func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// OrderItemModel is the persistence model for order line items
type OrderItemModel struct {
	BaseModel
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	SKU       string          `gorm:"type:varchar(100);index"`
	Title     string          `gorm:"type:varchar(500);not null"`
	Quantity  int             `gorm:"not null;default:1"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	WeightOz  decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	LengthIn  decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	WidthIn   decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	HeightIn  decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain OrderItem
func (m *OrderItemModel) ToDomain() *order.OrderItem {
	return &order.OrderItem{
		ID:        m.ID,
		OrderID:   m.OrderID,
		SKU:       m.SKU,
		Title:     m.Title,
		Quantity:  m.Quantity,
		UnitPrice: m.UnitPrice,
		WeightOz:  m.WeightOz,
		LengthIn:  m.LengthIn,
		WidthIn:   m.WidthIn,
		HeightIn:  m.HeightIn,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain OrderItem
func (m *OrderItemModel) FromDomain(item *order.OrderItem) {
	m.ID = item.ID
	m.OrderID = item.OrderID
	m.SKU = item.SKU
	m.Title = item.Title
	m.Quantity = item.Quantity
	m.UnitPrice = item.UnitPrice
	m.WeightOz = item.WeightOz
	m.LengthIn = item.LengthIn
	m.WidthIn = item.WidthIn
	m.HeightIn = item.HeightIn
	m.CreatedAt = item.CreatedAt
	m.UpdatedAt = item.UpdatedAt
}
