package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oms/backend/internal/domain/order"
	"github.com/oms/backend/internal/domain/shared"
	"github.com/oms/backend/internal/domain/shipping"
	"github.com/oms/backend/internal/infrastructure/persistence/models"
)

// GormShipmentRepository implements shipping.ShipmentRepository using GORM
type GormShipmentRepository struct {
	db *gorm.DB
}

// NewGormShipmentRepository creates a new GormShipmentRepository
func NewGormShipmentRepository(db *gorm.DB) *GormShipmentRepository {
	return &GormShipmentRepository{db: db}
}

// FindByID finds a shipment by ID
func (r *GormShipmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*shipping.Shipment, error) {
	var model models.ShipmentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOrderID finds all shipments for an order, newest first
func (r *GormShipmentRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]*shipping.Shipment, error) {
	var shipmentModels []models.ShipmentModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Find(&shipmentModels).Error; err != nil {
		return nil, err
	}

	shipments := make([]*shipping.Shipment, 0, len(shipmentModels))
	for i := range shipmentModels {
		shipments = append(shipments, shipmentModels[i].ToDomain())
	}
	return shipments, nil
}

// FindActiveByOrderID finds the order's active shipment
func (r *GormShipmentRepository) FindActiveByOrderID(ctx context.Context, orderID uuid.UUID) (*shipping.Shipment, error) {
	var model models.ShipmentModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ? AND label_status = ?", orderID, shipping.LabelStatusActive).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// HasActiveByOrderID reports whether an active shipment exists
func (r *GormShipmentRepository) HasActiveByOrderID(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ShipmentModel{}).
		Where("order_id = ? AND label_status = ?", orderID, shipping.LabelStatusActive).
		Count(&count).Error
	return count > 0, err
}

// CountActiveByOrderIDs returns per-order active shipment existence
func (r *GormShipmentRepository) CountActiveByOrderIDs(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	result := make(map[uuid.UUID]bool, len(orderIDs))
	if len(orderIDs) == 0 {
		return result, nil
	}

	var rows []struct {
		OrderID uuid.UUID
	}
	if err := r.db.WithContext(ctx).Model(&models.ShipmentModel{}).
		Select("order_id").
		Where("order_id IN ? AND label_status = ?", orderIDs, shipping.LabelStatusActive).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		result[row.OrderID] = true
	}
	return result, nil
}

// CreateWithOrder atomically inserts the shipment row and saves the
// order's labeled state fields
func (r *GormShipmentRepository) CreateWithOrder(ctx context.Context, s *shipping.Shipment, o *order.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(models.ShipmentModelFromDomain(s)).Error; err != nil {
			return err
		}

		orderModel := models.OrderModelFromDomain(o)
		return tx.Model(&models.OrderModel{}).
			Where("id = ?", o.ID).
			Updates(map[string]interface{}{
				"status":          orderModel.Status,
				"printing_status": orderModel.PrintingStatus,
				"shipped_at":      orderModel.ShippedAt,
				"updated_at":      orderModel.UpdatedAt,
			}).Error
	})
}

// Save updates an existing shipment
func (r *GormShipmentRepository) Save(ctx context.Context, s *shipping.Shipment) error {
	return r.db.WithContext(ctx).Save(models.ShipmentModelFromDomain(s)).Error
}
