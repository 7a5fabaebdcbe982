package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oms/backend/internal/domain/batch"
	"github.com/oms/backend/internal/domain/shared"
	"github.com/oms/backend/internal/infrastructure/persistence/models"
)

// BatchHistorySortFields contains allowed sort fields for batch histories
var BatchHistorySortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"status":        true,
	"total_count":   true,
	"success_count": true,
	"failed_count":  true,
	"started_at":    true,
	"completed_at":  true,
}

// GormBatchHistoryRepository implements batch.Repository using GORM
type GormBatchHistoryRepository struct {
	db *gorm.DB
}

// NewGormBatchHistoryRepository creates a new GormBatchHistoryRepository
func NewGormBatchHistoryRepository(db *gorm.DB) *GormBatchHistoryRepository {
	return &GormBatchHistoryRepository{db: db}
}

// FindByID finds a batch by ID
func (r *GormBatchHistoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*batch.BatchHistory, error) {
	var model models.BatchHistoryModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds batches with filtering, newest first
func (r *GormBatchHistoryRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*batch.BatchHistory, error) {
	query := r.applyFilterWheres(r.db.WithContext(ctx).Model(&models.BatchHistoryModel{}), filter)

	orderBy := ValidateSortField(filter.OrderBy, BatchHistorySortFields, "created_at")
	dir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(orderBy + " " + dir)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var batchModels []models.BatchHistoryModel
	if err := query.Find(&batchModels).Error; err != nil {
		return nil, err
	}

	batches := make([]*batch.BatchHistory, 0, len(batchModels))
	for i := range batchModels {
		batches = append(batches, batchModels[i].ToDomain())
	}
	return batches, nil
}

// FindCompletedSince finds terminal batches completed after the cutoff
func (r *GormBatchHistoryRepository) FindCompletedSince(ctx context.Context, cutoff time.Time) ([]*batch.BatchHistory, error) {
	var batchModels []models.BatchHistoryModel
	if err := r.db.WithContext(ctx).
		Where("status IN ? AND completed_at >= ?",
			[]batch.BatchStatus{batch.BatchStatusCompleted, batch.BatchStatusFailed}, cutoff).
		Order("completed_at DESC").
		Find(&batchModels).Error; err != nil {
		return nil, err
	}

	batches := make([]*batch.BatchHistory, 0, len(batchModels))
	for i := range batchModels {
		batches = append(batches, batchModels[i].ToDomain())
	}
	return batches, nil
}

// Save creates or updates a batch record
func (r *GormBatchHistoryRepository) Save(ctx context.Context, b *batch.BatchHistory) error {
	return r.db.WithContext(ctx).Save(models.BatchHistoryModelFromDomain(b)).Error
}

// Count counts batches matching the filter
func (r *GormBatchHistoryRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWheres(r.db.WithContext(ctx).Model(&models.BatchHistoryModel{}), filter)
	err := query.Count(&count).Error
	return count, err
}

func (r *GormBatchHistoryRepository) applyFilterWheres(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if kind, ok := filter.Filters["kind"]; ok {
		query = query.Where("kind = ?", kind)
	}
	if requestedBy, ok := filter.Filters["requested_by"]; ok {
		query = query.Where("requested_by = ?", requestedBy)
	}
	return query
}
