package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oms/backend/internal/domain/shared"
	"github.com/oms/backend/internal/domain/shared/valueobject"
)

// OrderItem is a line item owned by an Order. It carries the per-unit
// weight and dimensions used to derive the shipment parcel.
type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	SKU       string
	Title     string
	Quantity  int
	UnitPrice decimal.Decimal
	WeightOz  decimal.Decimal
	LengthIn  decimal.Decimal
	WidthIn   decimal.Decimal
	HeightIn  decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewOrderItem creates a new order item
func NewOrderItem(orderID uuid.UUID, sku, title string, quantity int, unitPrice decimal.Decimal) (*OrderItem, error) {
	if title == "" {
		return nil, shared.NewDomainError("INVALID_ITEM_TITLE", "Item title cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	now := time.Now()
	return &OrderItem{
		ID:        uuid.New(),
		OrderID:   orderID,
		SKU:       sku,
		Title:     title,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		WeightOz:  decimal.Zero,
		LengthIn:  decimal.Zero,
		WidthIn:   decimal.Zero,
		HeightIn:  decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// SetDimensions sets the per-unit weight and dimensions
func (i *OrderItem) SetDimensions(weightOz, lengthIn, widthIn, heightIn decimal.Decimal) error {
	if weightOz.IsNegative() || lengthIn.IsNegative() || widthIn.IsNegative() || heightIn.IsNegative() {
		return shared.NewDomainError("INVALID_DIMENSIONS", "Dimensions cannot be negative")
	}
	i.WeightOz = weightOz
	i.LengthIn = lengthIn
	i.WidthIn = widthIn
	i.HeightIn = heightIn
	i.UpdatedAt = time.Now()
	return nil
}

// Parcel returns the item's contribution to the shipment parcel, with
// documented fallbacks applied for missing measurements and the weight
// and stack height multiplied by quantity.
func (i *OrderItem) Parcel() valueobject.Parcel {
	unit, err := valueobject.NewParcel(i.WeightOz, i.LengthIn, i.WidthIn, i.HeightIn)
	if err != nil {
		unit = valueobject.EmptyParcel()
	}
	unit = unit.WithDefaults()

	qty := decimal.NewFromInt(int64(i.Quantity))
	scaled, err := valueobject.NewParcel(
		unit.WeightOz().Mul(qty),
		unit.LengthIn(),
		unit.WidthIn(),
		unit.HeightIn().Mul(qty),
	)
	if err != nil {
		return unit
	}
	return scaled
}
