package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oms/backend/internal/domain/order"
	"github.com/oms/backend/internal/domain/shared"
	"github.com/oms/backend/internal/infrastructure/persistence/models"
)

func setupLockTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.OrderModel{}, &models.OrderItemModel{}))
	return db
}

func seedOrder(t *testing.T, db *gorm.DB) *order.Order {
	o, err := order.NewOrder(order.MarketplaceEbay, "EB-LOCK-1")
	require.NoError(t, err)
	require.NoError(t, db.Create(models.OrderModelFromDomain(o)).Error)
	return o
}

func TestDBLocker_TryLock(t *testing.T) {
	ctx := context.Background()

	t.Run("claims a free order", func(t *testing.T) {
		db := setupLockTestDB(t)
		o := seedOrder(t, db)
		locker := NewDBLocker(db, 5*time.Minute)

		lease, err := locker.TryLock(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, o.ID, lease.OrderID)
		assert.NotEqual(t, lease.Token.String(), "00000000-0000-0000-0000-000000000000")

		var model models.OrderModel
		require.NoError(t, db.First(&model, "id = ?", o.ID).Error)
		assert.Equal(t, order.QueueLocked, model.Queue)
		require.NotNil(t, model.LockOwner)
		assert.Equal(t, lease.Token, *model.LockOwner)
	})

	t.Run("second claim fails while lease is live", func(t *testing.T) {
		db := setupLockTestDB(t)
		o := seedOrder(t, db)
		locker := NewDBLocker(db, 5*time.Minute)

		_, err := locker.TryLock(ctx, o.ID)
		require.NoError(t, err)

		_, err = locker.TryLock(ctx, o.ID)
		assert.ErrorIs(t, err, shared.ErrAlreadyLocked)
	})

	t.Run("expired lease is claimable", func(t *testing.T) {
		db := setupLockTestDB(t)
		o := seedOrder(t, db)
		locker := NewDBLocker(db, 50*time.Millisecond)

		first, err := locker.TryLock(ctx, o.ID)
		require.NoError(t, err)

		// Age the lease past its TTL without waiting
		stale := time.Now().Add(-time.Minute)
		require.NoError(t, db.Model(&models.OrderModel{}).
			Where("id = ?", o.ID).
			Update("queue_started_at", stale).Error)

		second, err := locker.TryLock(ctx, o.ID)
		require.NoError(t, err)
		assert.NotEqual(t, first.Token, second.Token)
	})

	t.Run("missing order reports not found", func(t *testing.T) {
		db := setupLockTestDB(t)
		locker := NewDBLocker(db, 5*time.Minute)

		o, err := order.NewOrder(order.MarketplaceEbay, "EB-GHOST")
		require.NoError(t, err)

		_, err = locker.TryLock(ctx, o.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestDBLocker_Unlock(t *testing.T) {
	ctx := context.Background()

	t.Run("owner releases the lease", func(t *testing.T) {
		db := setupLockTestDB(t)
		o := seedOrder(t, db)
		locker := NewDBLocker(db, 5*time.Minute)

		lease, err := locker.TryLock(ctx, o.ID)
		require.NoError(t, err)
		require.NoError(t, locker.Unlock(ctx, lease))

		var model models.OrderModel
		require.NoError(t, db.First(&model, "id = ?", o.ID).Error)
		assert.Equal(t, order.QueueFree, model.Queue)
		assert.Nil(t, model.LockOwner)
		assert.Nil(t, model.QueueStartedAt)

		// Order is claimable again
		_, err = locker.TryLock(ctx, o.ID)
		assert.NoError(t, err)
	})

	t.Run("stale token cannot release a successor's lease", func(t *testing.T) {
		db := setupLockTestDB(t)
		o := seedOrder(t, db)
		locker := NewDBLocker(db, 50*time.Millisecond)

		first, err := locker.TryLock(ctx, o.ID)
		require.NoError(t, err)

		stale := time.Now().Add(-time.Minute)
		require.NoError(t, db.Model(&models.OrderModel{}).
			Where("id = ?", o.ID).
			Update("queue_started_at", stale).Error)

		second, err := locker.TryLock(ctx, o.ID)
		require.NoError(t, err)

		// The outlived holder's unlock must be a no-op
		require.NoError(t, locker.Unlock(ctx, first))

		var model models.OrderModel
		require.NoError(t, db.First(&model, "id = ?", o.ID).Error)
		assert.Equal(t, order.QueueLocked, model.Queue)
		require.NotNil(t, model.LockOwner)
		assert.Equal(t, second.Token, *model.LockOwner)
	})

	t.Run("nil lease is a no-op", func(t *testing.T) {
		db := setupLockTestDB(t)
		locker := NewDBLocker(db, 5*time.Minute)
		assert.NoError(t, locker.Unlock(ctx, nil))
	})
}

func TestDBLocker_ForceUnlock(t *testing.T) {
	ctx := context.Background()
	db := setupLockTestDB(t)
	o := seedOrder(t, db)
	locker := NewDBLocker(db, 5*time.Minute)

	_, err := locker.TryLock(ctx, o.ID)
	require.NoError(t, err)

	require.NoError(t, locker.ForceUnlock(ctx, o.ID))

	var model models.OrderModel
	require.NoError(t, db.First(&model, "id = ?", o.ID).Error)
	assert.Equal(t, order.QueueFree, model.Queue)
}
