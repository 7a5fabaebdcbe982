package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oms/backend/internal/domain/shipping"
)

// CarrierQuoteModel is the persistence model for carrier quote history.
// Rows are append-only; only is_cheapest is updated after insert.
type CarrierQuoteModel struct {
	BaseModel
	OrderID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_rates_order"`
	Carrier      string          `gorm:"type:varchar(50);not null"`
	Service      string          `gorm:"type:varchar(100)"`
	ServiceCode  string          `gorm:"type:varchar(100);not null"`
	Source       string          `gorm:"type:varchar(50);not null"`
	Price        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Currency     string          `gorm:"type:varchar(3);not null;default:'USD'"`
	DeliveryDays int             `gorm:"not null;default:0"`
	IsCheapest   bool            `gorm:"not null;default:false;index:idx_rates_cheapest"`
}

// TableName returns the table name for GORM
func (CarrierQuoteModel) TableName() string {
	return "order_shipping_rates"
}

// ToDomain converts the persistence model to a domain CarrierQuote
func (m *CarrierQuoteModel) ToDomain() *shipping.CarrierQuote {
	return &shipping.CarrierQuote{
		BaseEntity:   m.BaseModel.ToDomain(),
		OrderID:      m.OrderID,
		Carrier:      m.Carrier,
		Service:      m.Service,
		ServiceCode:  m.ServiceCode,
		Source:       m.Source,
		Price:        m.Price,
		Currency:     m.Currency,
		DeliveryDays: m.DeliveryDays,
		IsCheapest:   m.IsCheapest,
	}
}

// FromDomain populates the persistence model from a domain CarrierQuote
func (m *CarrierQuoteModel) FromDomain(q *shipping.CarrierQuote) {
	m.FromDomainBaseEntity(q.BaseEntity)
	m.OrderID = q.OrderID
	m.Carrier = q.Carrier
	m.Service = q.Service
	m.ServiceCode = q.ServiceCode
	m.Source = q.Source
	m.Price = q.Price
	m.Currency = q.Currency
	m.DeliveryDays = q.DeliveryDays
	m.IsCheapest = q.IsCheapest
}

// CarrierQuoteModelFromDomain creates a new persistence model from a domain CarrierQuote
func CarrierQuoteModelFromDomain(q *shipping.CarrierQuote) *CarrierQuoteModel {
	m := &CarrierQuoteModel{}
	m.FromDomain(q)
	return m
}

// ShipmentModel is the persistence model for purchased labels
type ShipmentModel struct {
	AggregateModel
	OrderID        uuid.UUID            `gorm:"type:uuid;not null;index:idx_shipments_order"`
	QuoteID        *uuid.UUID           `gorm:"type:uuid"`
	Carrier        string               `gorm:"type:varchar(50);not null"`
	Service        string               `gorm:"type:varchar(100)"`
	ServiceCode    string               `gorm:"type:varchar(100)"`
	LabelID        string               `gorm:"type:varchar(128);not null;index"`
	TrackingNumber string               `gorm:"type:varchar(128);not null;index"`
	LabelURL       string               `gorm:"type:varchar(1024)"`
	LabelStatus    shipping.LabelStatus `gorm:"type:varchar(16);not null;default:'active';index:idx_shipments_status"`
	LabelSource    string               `gorm:"type:varchar(50)"`
	Price          decimal.Decimal      `gorm:"type:decimal(12,2);not null;default:0"`
	Currency       string               `gorm:"type:varchar(3);not null;default:'USD'"`
	PurchasedBy    string               `gorm:"type:varchar(200)"`
	VoidedAt       *time.Time           ``
}

// TableName returns the table name for GORM
func (ShipmentModel) TableName() string {
	return "shipments"
}

// ToDomain converts the persistence model to a domain Shipment
func (m *ShipmentModel) ToDomain() *shipping.Shipment {
	s := &shipping.Shipment{
		OrderID:        m.OrderID,
		QuoteID:        m.QuoteID,
		Carrier:        m.Carrier,
		Service:        m.Service,
		ServiceCode:    m.ServiceCode,
		LabelID:        m.LabelID,
		TrackingNumber: m.TrackingNumber,
		LabelURL:       m.LabelURL,
		LabelStatus:    m.LabelStatus,
		LabelSource:    m.LabelSource,
		Price:          m.Price,
		Currency:       m.Currency,
		PurchasedBy:    m.PurchasedBy,
		VoidedAt:       m.VoidedAt,
	}
	m.PopulateAggregateRoot(&s.BaseAggregateRoot)
	return s
}

// FromDomain populates the persistence model from a domain Shipment
func (m *ShipmentModel) FromDomain(s *shipping.Shipment) {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.OrderID = s.OrderID
	m.QuoteID = s.QuoteID
	m.Carrier = s.Carrier
	m.Service = s.Service
	m.ServiceCode = s.ServiceCode
	m.LabelID = s.LabelID
	m.TrackingNumber = s.TrackingNumber
	m.LabelURL = s.LabelURL
	m.LabelStatus = s.LabelStatus
	m.LabelSource = s.LabelSource
	m.Price = s.Price
	m.Currency = s.Currency
	m.PurchasedBy = s.PurchasedBy
	m.VoidedAt = s.VoidedAt
}

// ShipmentModelFromDomain creates a new persistence model from a domain Shipment
func ShipmentModelFromDomain(s *shipping.Shipment) *ShipmentModel {
	m := &ShipmentModel{}
	m.FromDomain(s)
	return m
}
