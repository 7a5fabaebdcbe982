package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oms/backend/internal/domain/order"
	"github.com/oms/backend/internal/domain/shared"
	"github.com/oms/backend/internal/infrastructure/persistence/models"
)

// DBLocker implements order.Locker against the orders table. The claim is
// one conditional UPDATE flipping queue 0 to 1, so two processors can
// never both observe a free order and proceed. A held lease whose
// queue_started_at is older than the TTL is claimable as if free.
type DBLocker struct {
	db  *gorm.DB
	ttl time.Duration
}

// NewDBLocker creates a new database-backed order locker
func NewDBLocker(db *gorm.DB, ttl time.Duration) *DBLocker {
	return &DBLocker{db: db, ttl: ttl}
}

// TryLock attempts to claim the order's processing lease
func (l *DBLocker) TryLock(ctx context.Context, orderID uuid.UUID) (*order.Lease, error) {
	token := uuid.New()
	now := time.Now()
	expiredBefore := now.Add(-l.ttl)

	result := l.db.WithContext(ctx).Model(&models.OrderModel{}).
		Where("id = ? AND (queue = ? OR queue_started_at < ?)", orderID, order.QueueFree, expiredBefore).
		Updates(map[string]interface{}{
			"queue":            order.QueueLocked,
			"queue_started_at": now,
			"lock_owner":       token,
			"updated_at":       now,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		// Either the order is held by a live lease or it does not exist;
		// distinguish so callers can report missing orders properly.
		var count int64
		if err := l.db.WithContext(ctx).Model(&models.OrderModel{}).
			Where("id = ?", orderID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, shared.ErrNotFound
		}
		return nil, shared.ErrAlreadyLocked
	}

	return &order.Lease{
		OrderID:    orderID,
		Token:      token,
		AcquiredAt: now,
		TTL:        l.ttl,
	}, nil
}

// Unlock releases the lease only if the token still owns it. A processor
// that outlived its TTL cannot release a lease a successor now holds.
func (l *DBLocker) Unlock(ctx context.Context, lease *order.Lease) error {
	if lease == nil {
		return nil
	}
	return l.db.WithContext(ctx).Model(&models.OrderModel{}).
		Where("id = ? AND lock_owner = ?", lease.OrderID, lease.Token).
		Updates(map[string]interface{}{
			"queue":            order.QueueFree,
			"queue_started_at": nil,
			"lock_owner":       nil,
			"updated_at":       time.Now(),
		}).Error
}

// ForceUnlock releases a lease regardless of owner. Reserved for the
// stale-lock repair path; never called during normal processing.
func (l *DBLocker) ForceUnlock(ctx context.Context, orderID uuid.UUID) error {
	return l.db.WithContext(ctx).Model(&models.OrderModel{}).
		Where("id = ? AND queue = ?", orderID, order.QueueLocked).
		Updates(map[string]interface{}{
			"queue":            order.QueueFree,
			"queue_started_at": nil,
			"lock_owner":       nil,
			"updated_at":       time.Now(),
		}).Error
}
