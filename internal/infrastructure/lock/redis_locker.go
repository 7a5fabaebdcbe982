package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/oms/backend/internal/domain/order"
	"github.com/oms/backend/internal/domain/shared"
)

// releaseScript deletes the lock key only when the stored token matches,
// so an expired holder cannot release a successor's lease.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// RedisLocker implements order.Locker on Redis with SET NX PX. Expiry is
// handled by Redis itself, so crashed workers never strand an order
// beyond the TTL. Meant for deployments where procurement workers do not
// share a database connection pool.
type RedisLocker struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisLocker creates a new Redis-backed order locker
func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		client:    client,
		keyPrefix: "order:lock:",
		ttl:       ttl,
	}
}

func (l *RedisLocker) key(orderID uuid.UUID) string {
	return l.keyPrefix + orderID.String()
}

// TryLock attempts to claim the order's processing lease
func (l *RedisLocker) TryLock(ctx context.Context, orderID uuid.UUID) (*order.Lease, error) {
	token := uuid.New()
	now := time.Now()

	ok, err := l.client.SetNX(ctx, l.key(orderID), token.String(), l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire order lock: %w", err)
	}
	if !ok {
		return nil, shared.ErrAlreadyLocked
	}

	return &order.Lease{
		OrderID:    orderID,
		Token:      token,
		AcquiredAt: now,
		TTL:        l.ttl,
	}, nil
}

// Unlock releases the lease only if the token still owns it
func (l *RedisLocker) Unlock(ctx context.Context, lease *order.Lease) error {
	if lease == nil {
		return nil
	}
	err := releaseScript.Run(ctx, l.client, []string{l.key(lease.OrderID)}, lease.Token.String()).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to release order lock: %w", err)
	}
	return nil
}

// ForceUnlock releases a lease regardless of owner. Reserved for the
// stale lease sweeper.
func (l *RedisLocker) ForceUnlock(ctx context.Context, orderID uuid.UUID) error {
	if err := l.client.Del(ctx, l.key(orderID)).Err(); err != nil {
		return fmt.Errorf("failed to force release order lock: %w", err)
	}
	return nil
}
