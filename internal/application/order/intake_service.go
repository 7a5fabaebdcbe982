package order

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/oms/backend/internal/domain/order"
	"github.com/oms/backend/internal/domain/shared"
	"github.com/oms/backend/internal/domain/shared/valueobject"
	"github.com/oms/backend/internal/infrastructure/logger"
)

// IntakeService ingests marketplace order snapshots. Orders are upserted
// by natural identity (marketplace, order_number): a snapshot for a
// known order refreshes its marketplace-owned fields, an unknown one
// creates the row. Engine-owned fields (printing status, lock flags,
// rate stamps) are never touched by intake.
type IntakeService struct {
	orderRepo order.Repository
}

// NewIntakeService creates a new IntakeService
func NewIntakeService(orderRepo order.Repository) *IntakeService {
	return &IntakeService{orderRepo: orderRepo}
}

// Upsert creates or refreshes an order from a marketplace snapshot
func (s *IntakeService) Upsert(ctx context.Context, req UpsertOrderRequest) (*OrderResponse, error) {
	marketplace := order.Marketplace(req.Marketplace)

	o, err := s.orderRepo.FindByMarketplaceAndNumber(ctx, marketplace, req.OrderNumber)
	created := false
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		o, err = order.NewOrder(marketplace, req.OrderNumber)
		if err != nil {
			return nil, err
		}
		created = true
	}

	if req.MarketplaceOrderID != "" {
		o.MarketplaceOrderID = req.MarketplaceOrderID
	}
	if req.Status != "" {
		o.ApplyMarketplaceStatus(req.Status)
	}
	if req.CancelStatus != "" {
		if err := o.ApplyCancelStatus(order.CancelStatus(req.CancelStatus)); err != nil {
			return nil, err
		}
	}

	if req.ShipTo != nil {
		addr, err := valueobject.NewShippingAddress(
			req.ShipTo.Street1, req.ShipTo.City, req.ShipTo.State,
			req.ShipTo.PostalCode, req.ShipTo.Country,
			valueobject.WithStreet2(req.ShipTo.Street2),
			valueobject.WithPhone(req.ShipTo.Phone),
		)
		if err != nil {
			return nil, err
		}
		o.SetRecipient(req.RecipientName, addr)
	} else if req.RecipientName != "" {
		o.SetRecipient(req.RecipientName, o.ShipTo)
	}

	if len(req.Items) > 0 {
		// The snapshot's item list replaces the stored one; the
		// marketplace owns line items.
		o.Items = o.Items[:0]
		for _, in := range req.Items {
			item, err := o.AddItem(in.SKU, in.Title, in.Quantity, in.UnitPrice)
			if err != nil {
				return nil, err
			}
			if in.WeightOz != nil || in.LengthIn != nil || in.WidthIn != nil || in.HeightIn != nil {
				if err := item.SetDimensions(
					derefOrZero(in.WeightOz), derefOrZero(in.LengthIn),
					derefOrZero(in.WidthIn), derefOrZero(in.HeightIn),
				); err != nil {
					return nil, err
				}
				// AddItem stores a copy; write the dimensions through.
				o.Items[len(o.Items)-1] = *item
			}
		}
	}

	if err := s.orderRepo.Save(ctx, o); err != nil {
		return nil, err
	}

	if created {
		logger.L(ctx).Info("order created from marketplace snapshot",
			zap.String("order_id", o.ID.String()),
			zap.String("marketplace", string(o.Marketplace)),
			zap.String("order_number", o.OrderNumber))
	}

	resp := ToOrderResponse(o)
	return &resp, nil
}

// SetMarkedAsShip toggles the manual shipping override on an order
func (s *IntakeService) SetMarkedAsShip(ctx context.Context, orderID uuid.UUID, marked bool) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	o.SetMarkedAsShip(marked)
	if err := s.orderRepo.Save(ctx, o); err != nil {
		return nil, err
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// Archive moves a labeled order to the printed/archived phase
func (s *IntakeService) Archive(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := o.Archive(); err != nil {
		return nil, err
	}
	if err := s.orderRepo.SaveWithLock(ctx, o); err != nil {
		return nil, err
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// GetByID retrieves one order
func (s *IntakeService) GetByID(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(o)
	return &resp, nil
}

// List retrieves orders with filtering and pagination
func (s *IntakeService) List(ctx context.Context, filter OrderListFilter) ([]OrderResponse, int64, error) {
	domainFilter := buildOrderFilter(filter)

	orders, err := s.orderRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orderRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, ToOrderResponse(&orders[i]))
	}
	return out, total, nil
}

// buildOrderFilter converts list filter options to a domain filter
func buildOrderFilter(filter OrderListFilter) shared.Filter {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	if filter.Marketplace != "" {
		domainFilter.Filters["marketplace"] = filter.Marketplace
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	return domainFilter
}

func derefOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
