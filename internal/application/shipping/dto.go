package shipping

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oms/backend/internal/domain/batch"
	"github.com/oms/backend/internal/domain/shipping"
)

// ==================== Rate Shopping DTOs ====================

// RateShopRunResult summarizes one rate shopping pass
type RateShopRunResult struct {
	Scanned        int  `json:"scanned"`
	Shopped        int  `json:"shopped"`
	NoWinner       int  `json:"no_winner"`
	Rejected       int  `json:"rejected"`
	Skipped        int  `json:"skipped"`
	Transient      int  `json:"transient"`
	ShortCircuited bool `json:"short_circuited"`
}

// QuoteResponse represents a stored carrier quote in API responses
type QuoteResponse struct {
	ID           uuid.UUID       `json:"id"`
	OrderID      uuid.UUID       `json:"order_id"`
	Carrier      string          `json:"carrier"`
	Service      string          `json:"service"`
	ServiceCode  string          `json:"service_code"`
	Source       string          `json:"source"`
	Price        decimal.Decimal `json:"price"`
	Currency     string          `json:"currency"`
	DeliveryDays int             `json:"delivery_days"`
	IsCheapest   bool            `json:"is_cheapest"`
	Excluded     bool            `json:"excluded"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ToQuoteResponse converts a domain quote to a response DTO
func ToQuoteResponse(q *shipping.CarrierQuote) QuoteResponse {
	return QuoteResponse{
		ID:           q.ID,
		OrderID:      q.OrderID,
		Carrier:      q.Carrier,
		Service:      q.Service,
		ServiceCode:  q.ServiceCode,
		Source:       q.Source,
		Price:        q.Price,
		Currency:     q.Currency,
		DeliveryDays: q.DeliveryDays,
		IsCheapest:   q.IsCheapest,
		Excluded:     q.IsExcluded(),
		CreatedAt:    q.CreatedAt,
	}
}

// ==================== Purchase DTOs ====================

// PurchaseRequest represents a single-order label purchase
type PurchaseRequest struct {
	OrderID uuid.UUID  `json:"order_id" binding:"required"`
	QuoteID *uuid.UUID `json:"quote_id"`
	Force   bool       `json:"force"`
}

// BatchPurchaseRequest represents a bulk label purchase
type BatchPurchaseRequest struct {
	OrderIDs []uuid.UUID `json:"order_ids" binding:"required,min=1"`
}

// ShipmentResponse represents a shipment in API responses
type ShipmentResponse struct {
	ID             uuid.UUID       `json:"id"`
	OrderID        uuid.UUID       `json:"order_id"`
	QuoteID        *uuid.UUID      `json:"quote_id,omitempty"`
	Carrier        string          `json:"carrier"`
	Service        string          `json:"service,omitempty"`
	ServiceCode    string          `json:"service_code"`
	LabelID        string          `json:"label_id"`
	TrackingNumber string          `json:"tracking_number"`
	LabelURL       string          `json:"label_url,omitempty"`
	LabelStatus    string          `json:"label_status"`
	LabelSource    string          `json:"label_source"`
	Price          decimal.Decimal `json:"price"`
	Currency       string          `json:"currency"`
	PurchasedBy    string          `json:"purchased_by"`
	VoidedAt       *time.Time      `json:"voided_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ToShipmentResponse converts a domain shipment to a response DTO
func ToShipmentResponse(s *shipping.Shipment) ShipmentResponse {
	return ShipmentResponse{
		ID:             s.ID,
		OrderID:        s.OrderID,
		QuoteID:        s.QuoteID,
		Carrier:        s.Carrier,
		Service:        s.Service,
		ServiceCode:    s.ServiceCode,
		LabelID:        s.LabelID,
		TrackingNumber: s.TrackingNumber,
		LabelURL:       s.LabelURL,
		LabelStatus:    string(s.LabelStatus),
		LabelSource:    s.LabelSource,
		Price:          s.Price,
		Currency:       s.Currency,
		PurchasedBy:    s.PurchasedBy,
		VoidedAt:       s.VoidedAt,
		CreatedAt:      s.CreatedAt,
	}
}

// ==================== Batch DTOs ====================

// RecoverRequest tunes a batch recovery run. Force re-drives orders
// stuck in the labeled composite without an active shipment.
type RecoverRequest struct {
	Force bool `json:"force"`
}

// BatchListFilter represents filter options for the batch history list
type BatchListFilter struct {
	Status      *batch.BatchStatus `form:"status"`
	Kind        *batch.BatchKind   `form:"kind"`
	RequestedBy string             `form:"requested_by"`
	Page        int                `form:"page" binding:"min=0"`
	PageSize    int                `form:"page_size" binding:"min=0,max=100"`
	OrderBy     string             `form:"order_by"`
	OrderDir    string             `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// FailureDetailResponse represents one failed order in a batch
type FailureDetailResponse struct {
	OrderID   uuid.UUID `json:"order_id"`
	Reason    string    `json:"reason"`
	Transient bool      `json:"transient"`
}

// BatchResponse represents a procurement batch in API responses
type BatchResponse struct {
	ID              uuid.UUID               `json:"id"`
	Kind            string                  `json:"kind"`
	RequestedBy     string                  `json:"requested_by"`
	OrderIDs        []uuid.UUID             `json:"order_ids"`
	SuccessOrderIDs []uuid.UUID             `json:"success_order_ids"`
	FailedOrderIDs  []uuid.UUID             `json:"failed_order_ids"`
	SkippedOrderIDs []uuid.UUID             `json:"skipped_order_ids"`
	FailureDetails  []FailureDetailResponse `json:"failure_details"`
	TotalCount      int                     `json:"total_count"`
	SuccessCount    int                     `json:"success_count"`
	FailedCount     int                     `json:"failed_count"`
	SkippedCount    int                     `json:"skipped_count"`
	Status          string                  `json:"status"`
	StartedAt       *time.Time              `json:"started_at,omitempty"`
	CompletedAt     *time.Time              `json:"completed_at,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
}

// ToBatchResponse converts a domain batch to a response DTO
func ToBatchResponse(b *batch.BatchHistory) BatchResponse {
	details := make([]FailureDetailResponse, 0, len(b.FailureDetails))
	for _, d := range b.FailureDetails {
		details = append(details, FailureDetailResponse{
			OrderID:   d.OrderID,
			Reason:    d.Reason,
			Transient: d.Transient,
		})
	}
	return BatchResponse{
		ID:              b.ID,
		Kind:            string(b.Kind),
		RequestedBy:     b.RequestedBy,
		OrderIDs:        b.OrderIDs,
		SuccessOrderIDs: b.SuccessOrderIDs,
		FailedOrderIDs:  b.FailedOrderIDs,
		SkippedOrderIDs: b.SkippedOrderIDs,
		FailureDetails:  details,
		TotalCount:      b.TotalCount,
		SuccessCount:    b.SuccessCount,
		FailedCount:     b.FailedCount,
		SkippedCount:    b.SkippedCount,
		Status:          string(b.Status),
		StartedAt:       b.StartedAt,
		CompletedAt:     b.CompletedAt,
		CreatedAt:       b.CreatedAt,
	}
}

// ==================== Reconciliation DTOs ====================

// ReconcileResult summarizes one reconciliation pass
type ReconcileResult struct {
	Scanned        int         `json:"scanned"`
	Repaired       int         `json:"repaired"`
	DanglingClaims []uuid.UUID `json:"dangling_claims"`
	StaleUnlocked  int         `json:"stale_unlocked"`
}
