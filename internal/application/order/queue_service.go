package order

import (
	"context"

	"github.com/oms/backend/internal/domain/order"
)

// QueueService serves the two staff-facing work queues derived from the
// composite order state: awaiting shipment (shippable, no label) and
// awaiting print (label purchased, not yet archived).
type QueueService struct {
	orderRepo order.Repository
}

// NewQueueService creates a new QueueService
func NewQueueService(orderRepo order.Repository) *QueueService {
	return &QueueService{orderRepo: orderRepo}
}

// AwaitingShipment lists the awaiting-shipment queue
func (s *QueueService) AwaitingShipment(ctx context.Context, filter OrderListFilter) ([]OrderResponse, int64, error) {
	orders, err := s.orderRepo.FindAwaitingShipment(ctx, buildOrderFilter(filter))
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orderRepo.CountAwaitingShipment(ctx)
	if err != nil {
		return nil, 0, err
	}

	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, ToOrderResponse(&orders[i]))
	}
	return out, total, nil
}

// AwaitingPrint lists the awaiting-print queue
func (s *QueueService) AwaitingPrint(ctx context.Context, filter OrderListFilter) ([]OrderResponse, int64, error) {
	orders, err := s.orderRepo.FindAwaitingPrint(ctx, buildOrderFilter(filter))
	if err != nil {
		return nil, 0, err
	}
	total, err := s.orderRepo.CountAwaitingPrint(ctx)
	if err != nil {
		return nil, 0, err
	}

	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, ToOrderResponse(&orders[i]))
	}
	return out, total, nil
}

// Counts reports both queue sizes in one call
func (s *QueueService) Counts(ctx context.Context) (*QueueCountsResponse, error) {
	awaitingShipment, err := s.orderRepo.CountAwaitingShipment(ctx)
	if err != nil {
		return nil, err
	}
	awaitingPrint, err := s.orderRepo.CountAwaitingPrint(ctx)
	if err != nil {
		return nil, err
	}
	return &QueueCountsResponse{
		AwaitingShipment: awaitingShipment,
		AwaitingPrint:    awaitingPrint,
	}, nil
}
