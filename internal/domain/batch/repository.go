package batch

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/oms/backend/internal/domain/shared"
)

// Repository defines the interface for batch history persistence
type Repository interface {
	// FindByID finds a batch by ID
	FindByID(ctx context.Context, id uuid.UUID) (*BatchHistory, error)

	// FindAll finds batches with filtering, newest first
	FindAll(ctx context.Context, filter shared.Filter) ([]*BatchHistory, error)

	// FindCompletedSince finds terminal batches completed after the
	// cutoff, the audit window for reconciliation
	FindCompletedSince(ctx context.Context, cutoff time.Time) ([]*BatchHistory, error)

	// Save creates or updates a batch record
	Save(ctx context.Context, b *BatchHistory) error

	// Count counts batches matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
