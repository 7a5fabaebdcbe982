package order

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Lease is proof of holding an order's processing lock. Only the holder
// of the token may release the lease; a lease older than its TTL may be
// claimed by another processor.
type Lease struct {
	OrderID    uuid.UUID
	Token      uuid.UUID
	AcquiredAt time.Time
	TTL        time.Duration
}

// ExpiresAt returns when the lease stops protecting the order
func (l Lease) ExpiresAt() time.Time {
	return l.AcquiredAt.Add(l.TTL)
}

// Locker serializes label-purchasing work per order across processes.
// TryLock is a single atomic conditional claim, never read-then-write:
// it succeeds when the order is free or its current lease has expired,
// and fails (ErrAlreadyLocked) when another live processor holds it.
// Unlock releases only when the token matches, so a processor that
// outlived its TTL cannot release the lease a successor now holds.
type Locker interface {
	TryLock(ctx context.Context, orderID uuid.UUID) (*Lease, error)
	Unlock(ctx context.Context, lease *Lease) error
}
