package shipping

import (
	"context"

	"github.com/oms/backend/internal/domain/order"
)

// ShipmentNotification is the fulfillment payload pushed back to the
// owning marketplace after a successful label purchase
type ShipmentNotification struct {
	OrderNumber    string `json:"order_number"`
	TrackingNumber string `json:"tracking_number"`
	Carrier        string `json:"carrier"`
	ServiceCode    string `json:"service_code"`
}

// FulfillmentNotifier pushes tracking data to a marketplace. Delivery is
// fire-and-forget: failures are logged by the caller and never reverse
// the label purchase.
type FulfillmentNotifier interface {
	NotifyShipped(ctx context.Context, marketplace order.Marketplace, n ShipmentNotification) error
}
