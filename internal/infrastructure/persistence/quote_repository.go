package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oms/backend/internal/domain/order"
	"github.com/oms/backend/internal/domain/shared"
	"github.com/oms/backend/internal/domain/shipping"
	"github.com/oms/backend/internal/infrastructure/persistence/models"
)

// GormQuoteRepository implements shipping.QuoteRepository using GORM
type GormQuoteRepository struct {
	db *gorm.DB
}

// NewGormQuoteRepository creates a new GormQuoteRepository
func NewGormQuoteRepository(db *gorm.DB) *GormQuoteRepository {
	return &GormQuoteRepository{db: db}
}

// FindByID finds a quote by ID
func (r *GormQuoteRepository) FindByID(ctx context.Context, id uuid.UUID) (*shipping.CarrierQuote, error) {
	var model models.CarrierQuoteModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOrderID finds all stored quotes for an order, cheapest first
func (r *GormQuoteRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]*shipping.CarrierQuote, error) {
	var quoteModels []models.CarrierQuoteModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("price ASC, created_at ASC").
		Find(&quoteModels).Error; err != nil {
		return nil, err
	}

	quotes := make([]*shipping.CarrierQuote, 0, len(quoteModels))
	for i := range quoteModels {
		quotes = append(quotes, quoteModels[i].ToDomain())
	}
	return quotes, nil
}

// FindCheapestByOrderID finds the order's current winning quote
func (r *GormQuoteRepository) FindCheapestByOrderID(ctx context.Context, orderID uuid.UUID) (*shipping.CarrierQuote, error) {
	var model models.CarrierQuoteModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ? AND is_cheapest = ?", orderID, true).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistingTupleKeys returns the dedupe keys of every stored quote
func (r *GormQuoteRepository) ExistingTupleKeys(ctx context.Context, orderID uuid.UUID) (map[string]bool, error) {
	var quoteModels []models.CarrierQuoteModel
	if err := r.db.WithContext(ctx).
		Select("carrier", "service_code", "source", "price").
		Where("order_id = ?", orderID).
		Find(&quoteModels).Error; err != nil {
		return nil, err
	}

	keys := make(map[string]bool, len(quoteModels))
	for i := range quoteModels {
		keys[quoteModels[i].ToDomain().TupleKey()] = true
	}
	return keys, nil
}

// SaveQuotesAndStampOrder atomically inserts quote rows, moves the
// is_cheapest flag and saves the order's default-rate stamp. The reset
// runs before the set so no reader ever observes two winners.
func (r *GormQuoteRepository) SaveQuotesAndStampOrder(ctx context.Context, quotes []*shipping.CarrierQuote, winner *shipping.CarrierQuote, o *order.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, q := range quotes {
			if err := tx.Create(models.CarrierQuoteModelFromDomain(q)).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&models.CarrierQuoteModel{}).
			Where("order_id = ? AND is_cheapest = ?", o.ID, true).
			Updates(map[string]interface{}{"is_cheapest": false, "updated_at": time.Now()}).Error; err != nil {
			return err
		}

		if winner != nil {
			result := tx.Model(&models.CarrierQuoteModel{}).
				Where("id = ?", winner.ID).
				Updates(map[string]interface{}{"is_cheapest": true, "updated_at": time.Now()})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return shared.ErrNotFound
			}
			winner.IsCheapest = true
		}

		orderModel := models.OrderModelFromDomain(o)
		return tx.Model(&models.OrderModel{}).
			Where("id = ?", o.ID).
			Updates(map[string]interface{}{
				"shipping_rate_fetched": orderModel.RateFetched,
				"rate_fetch_failed":     orderModel.RateFetchFailed,
				"default_rate_id":       orderModel.DefaultRateID,
				"default_carrier":       orderModel.DefaultCarrier,
				"default_price":         orderModel.DefaultPrice,
				"default_currency":      orderModel.DefaultCurrency,
				"updated_at":            orderModel.UpdatedAt,
			}).Error
	})
}
