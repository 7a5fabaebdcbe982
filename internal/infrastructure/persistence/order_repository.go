package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oms/backend/internal/domain/order"
	"github.com/oms/backend/internal/domain/shared"
	"github.com/oms/backend/internal/infrastructure/persistence/models"
)

// OrderSortFields contains allowed sort fields for orders
var OrderSortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"marketplace":     true,
	"order_number":    true,
	"status":          true,
	"printing_status": true,
	"shipped_at":      true,
}

// awaitingShipmentWhere is the awaiting-shipment projection predicate:
// shippable, not cancelled, no label yet.
const awaitingShipmentWhere = "(status IN ('unshipped','awaiting_shipment') OR marked_as_ship = ?) " +
	"AND status <> 'cancelled' AND cancel_status <> 'cancelled' AND printing_status = 0"

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order by ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByMarketplaceAndNumber finds an order by its natural identity
func (r *GormOrderRepository) FindByMarketplaceAndNumber(ctx context.Context, marketplace order.Marketplace, orderNumber string) (*order.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("marketplace = ? AND order_number = ?", marketplace, orderNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds the orders for a set of IDs
func (r *GormOrderRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]order.Order, error) {
	if len(ids) == 0 {
		return []order.Order{}, nil
	}
	var orderModels []models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id IN ?", ids).
		Find(&orderModels).Error; err != nil {
		return nil, err
	}
	return toDomainOrders(orderModels), nil
}

// FindAll finds orders with filtering and pagination
func (r *GormOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]order.Order, error) {
	var orderModels []models.OrderModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.OrderModel{}).Preload("Items"), filter)
	if err := query.Find(&orderModels).Error; err != nil {
		return nil, err
	}
	return toDomainOrders(orderModels), nil
}

// FindEligibleForRateShopping finds shippable orders whose rates have not
// been fetched. Address completeness is re-checked in the domain after
// load; the query only filters the cheap predicates.
func (r *GormOrderRepository) FindEligibleForRateShopping(ctx context.Context, limit int) ([]order.Order, error) {
	var orderModels []models.OrderModel
	query := r.db.WithContext(ctx).
		Preload("Items").
		Where(awaitingShipmentWhere, true).
		Where("shipping_rate_fetched = ?", false).
		Where("ship_to IS NOT NULL").
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&orderModels).Error; err != nil {
		return nil, err
	}
	return toDomainOrders(orderModels), nil
}

// FindAwaitingShipment finds the awaiting-shipment queue projection
func (r *GormOrderRepository) FindAwaitingShipment(ctx context.Context, filter shared.Filter) ([]order.Order, error) {
	var orderModels []models.OrderModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.OrderModel{}).
			Preload("Items").
			Where(awaitingShipmentWhere, true),
		filter,
	)
	if err := query.Find(&orderModels).Error; err != nil {
		return nil, err
	}
	return toDomainOrders(orderModels), nil
}

// FindAwaitingPrint finds the awaiting-print queue projection
func (r *GormOrderRepository) FindAwaitingPrint(ctx context.Context, filter shared.Filter) ([]order.Order, error) {
	var orderModels []models.OrderModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.OrderModel{}).
			Preload("Items").
			Where("printing_status = ?", order.PrintingLabeled),
		filter,
	)
	if err := query.Find(&orderModels).Error; err != nil {
		return nil, err
	}
	return toDomainOrders(orderModels), nil
}

// FindLocked finds orders whose processing flag is held
func (r *GormOrderRepository) FindLocked(ctx context.Context) ([]order.Order, error) {
	var orderModels []models.OrderModel
	if err := r.db.WithContext(ctx).
		Where("queue = ?", order.QueueLocked).
		Find(&orderModels).Error; err != nil {
		return nil, err
	}
	return toDomainOrders(orderModels), nil
}

// FindLockedLongerThan finds stale-lock sweep candidates
func (r *GormOrderRepository) FindLockedLongerThan(ctx context.Context, cutoff time.Time) ([]order.Order, error) {
	var orderModels []models.OrderModel
	if err := r.db.WithContext(ctx).
		Where("queue = ? AND queue_started_at < ?", order.QueueLocked, cutoff).
		Find(&orderModels).Error; err != nil {
		return nil, err
	}
	return toDomainOrders(orderModels), nil
}

// FindLabeledWithoutShipment finds orders claiming a label with no active
// shipment row
func (r *GormOrderRepository) FindLabeledWithoutShipment(ctx context.Context, limit int) ([]order.Order, error) {
	var orderModels []models.OrderModel
	query := r.db.WithContext(ctx).
		Where("printing_status >= ?", order.PrintingLabeled).
		Where("NOT EXISTS (SELECT 1 FROM shipments s WHERE s.order_id = orders.id AND s.label_status = 'active')")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&orderModels).Error; err != nil {
		return nil, err
	}
	return toDomainOrders(orderModels), nil
}

// Save creates or updates an order with its items
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order) error {
	model := models.OrderModelFromDomain(o)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := model.Items
		model.Items = nil
		if err := tx.Save(model).Error; err != nil {
			return err
		}

		currentItemIDs := make([]uuid.UUID, len(items))
		for i, item := range items {
			currentItemIDs[i] = item.ID
		}
		if len(currentItemIDs) > 0 {
			if err := tx.Where("order_id = ? AND id NOT IN ?", model.ID, currentItemIDs).
				Delete(&models.OrderItemModel{}).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Where("order_id = ?", model.ID).
				Delete(&models.OrderItemModel{}).Error; err != nil {
				return err
			}
		}
		for i := range items {
			items[i].OrderID = model.ID
			if err := tx.Save(&items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormOrderRepository) SaveWithLock(ctx context.Context, o *order.Order) error {
	currentVersion := o.Version
	o.IncrementVersion()
	o.UpdatedAt = time.Now()
	model := models.OrderModelFromDomain(o)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.OrderModel{}).
			Where("id = ? AND version = ?", model.ID, currentVersion).
			Updates(map[string]interface{}{
				"status":                model.Status,
				"raw_status":            model.RawStatus,
				"printing_status":       model.PrintingStatus,
				"cancel_status":         model.CancelStatus,
				"marked_as_ship":        model.MarkedAsShip,
				"recipient_name":        model.RecipientName,
				"ship_to":               model.ShipTo,
				"shipping_rate_fetched": model.RateFetched,
				"rate_fetch_failed":     model.RateFetchFailed,
				"default_rate_id":       model.DefaultRateID,
				"default_carrier":       model.DefaultCarrier,
				"default_price":         model.DefaultPrice,
				"default_currency":      model.DefaultCurrency,
				"shipped_at":            model.ShippedAt,
				"archived_at":           model.ArchivedAt,
				"version":               model.Version,
				"updated_at":            model.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			o.Version = currentVersion
			return shared.ErrConcurrencyConflict
		}
		return nil
	})
}

// CountAwaitingShipment counts the awaiting-shipment projection
func (r *GormOrderRepository) CountAwaitingShipment(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Where(awaitingShipmentWhere, true).
		Count(&count).Error
	return count, err
}

// CountAwaitingPrint counts the awaiting-print projection
func (r *GormOrderRepository) CountAwaitingPrint(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Where("printing_status = ?", order.PrintingLabeled).
		Count(&count).Error
	return count, err
}

// Count counts orders matching the filter
func (r *GormOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.OrderModel{})
	query = r.applyFilterWheres(query, filter)
	err := query.Count(&count).Error
	return count, err
}

// applyFilter applies filtering, ordering and pagination
func (r *GormOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWheres(query, filter)

	orderBy := ValidateSortField(filter.OrderBy, OrderSortFields, "created_at")
	dir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(orderBy + " " + dir)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}
	return query
}

func (r *GormOrderRepository) applyFilterWheres(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if marketplace, ok := filter.Filters["marketplace"]; ok {
		query = query.Where("marketplace = ?", marketplace)
	}
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("order_number LIKE ? OR recipient_name LIKE ?", like, like)
	}
	return query
}

func toDomainOrders(orderModels []models.OrderModel) []order.Order {
	orders := make([]order.Order, 0, len(orderModels))
	for i := range orderModels {
		orders = append(orders, *orderModels[i].ToDomain())
	}
	return orders
}
