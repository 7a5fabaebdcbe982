package batch

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oms/backend/internal/domain/shared"
)

// BatchKind distinguishes the trigger of a procurement run
type BatchKind string

const (
	BatchKindManual   BatchKind = "manual"
	BatchKindRecovery BatchKind = "recovery"
)

// IsValid checks if the batch kind is valid
func (k BatchKind) IsValid() bool {
	return k == BatchKindManual || k == BatchKindRecovery
}

// BatchStatus represents the status of a procurement batch
type BatchStatus string

const (
	BatchStatusPending    BatchStatus = "pending"
	BatchStatusProcessing BatchStatus = "processing"
	BatchStatusCompleted  BatchStatus = "completed"
	BatchStatusFailed     BatchStatus = "failed"
)

// IsValid checks if the status is valid
func (s BatchStatus) IsValid() bool {
	switch s {
	case BatchStatusPending, BatchStatusProcessing, BatchStatusCompleted, BatchStatusFailed:
		return true
	}
	return false
}

// IsTerminal returns true if this is a terminal state
func (s BatchStatus) IsTerminal() bool {
	return s == BatchStatusCompleted || s == BatchStatusFailed
}

// FailureDetail records why one order in the batch failed. Transient
// failures are retry candidates for a recovery run; rejected ones are
// terminal until the underlying order data changes.
type FailureDetail struct {
	OrderID   uuid.UUID `json:"order_id"`
	Reason    string    `json:"reason"`
	Transient bool      `json:"transient"`
}

// BatchHistory is the audit record of one procurement run. The requested
// order_ids set is immutable once created; the success and failed sets
// grow as the run progresses and as recovery runs merge their outcomes
// back in.
type BatchHistory struct {
	shared.BaseAggregateRoot

	Kind            BatchKind
	RequestedBy     string
	OrderIDs        []uuid.UUID
	SuccessOrderIDs []uuid.UUID
	FailedOrderIDs  []uuid.UUID
	SkippedOrderIDs []uuid.UUID
	FailureDetails  []FailureDetail
	TotalCount      int
	SuccessCount    int
	FailedCount     int
	SkippedCount    int
	Status          BatchStatus
	StartedAt       *time.Time
	CompletedAt     *time.Time
}

// NewBatchHistory creates a pending batch record for a set of order IDs
func NewBatchHistory(kind BatchKind, requestedBy string, orderIDs []uuid.UUID) (*BatchHistory, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_BATCH_KIND", fmt.Sprintf("Invalid batch kind: %s", kind))
	}
	if requestedBy == "" {
		return nil, shared.NewDomainError("INVALID_ACTOR", "Batch actor cannot be empty")
	}
	if len(orderIDs) == 0 {
		return nil, shared.NewDomainError("EMPTY_BATCH", "Batch must reference at least one order")
	}

	ids := make([]uuid.UUID, 0, len(orderIDs))
	seen := make(map[uuid.UUID]bool, len(orderIDs))
	for _, id := range orderIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	return &BatchHistory{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Kind:              kind,
		RequestedBy:       requestedBy,
		OrderIDs:          ids,
		SuccessOrderIDs:   make([]uuid.UUID, 0),
		FailedOrderIDs:    make([]uuid.UUID, 0),
		SkippedOrderIDs:   make([]uuid.UUID, 0),
		FailureDetails:    make([]FailureDetail, 0),
		TotalCount:        len(ids),
		Status:            BatchStatusPending,
	}, nil
}

// Start marks the batch as processing
func (b *BatchHistory) Start() error {
	if b.Status != BatchStatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot start batch from state: %s", b.Status))
	}
	b.Status = BatchStatusProcessing
	now := time.Now()
	b.StartedAt = &now
	b.UpdatedAt = now
	return nil
}

// RecordSuccess adds an order to the success set. An order previously
// recorded as failed (by an earlier attempt merged into this batch) is
// moved out of the failed set.
func (b *BatchHistory) RecordSuccess(orderID uuid.UUID) {
	if containsID(b.SuccessOrderIDs, orderID) {
		return
	}
	b.SuccessOrderIDs = append(b.SuccessOrderIDs, orderID)
	b.FailedOrderIDs = removeID(b.FailedOrderIDs, orderID)
	b.FailureDetails = removeDetail(b.FailureDetails, orderID)
	b.recount()
}

// RecordFailure adds an order to the failed set with the carrier's reason
func (b *BatchHistory) RecordFailure(orderID uuid.UUID, reason string, transient bool) {
	if containsID(b.SuccessOrderIDs, orderID) {
		return
	}
	if !containsID(b.FailedOrderIDs, orderID) {
		b.FailedOrderIDs = append(b.FailedOrderIDs, orderID)
	}
	b.FailureDetails = removeDetail(b.FailureDetails, orderID)
	b.FailureDetails = append(b.FailureDetails, FailureDetail{
		OrderID:   orderID,
		Reason:    reason,
		Transient: transient,
	})
	b.recount()
}

// RecordSkipped adds an order to the skipped set. Skips are benign: the
// order was locked by another processor or no longer eligible.
func (b *BatchHistory) RecordSkipped(orderID uuid.UUID) {
	if containsID(b.SuccessOrderIDs, orderID) || containsID(b.SkippedOrderIDs, orderID) {
		return
	}
	b.SkippedOrderIDs = append(b.SkippedOrderIDs, orderID)
	b.recount()
}

// Complete marks the batch as finished. A batch with zero successes and
// at least one failure completes as failed.
func (b *BatchHistory) Complete() error {
	if b.Status != BatchStatusProcessing {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot complete batch from state: %s", b.Status))
	}

	status := BatchStatusCompleted
	if b.SuccessCount == 0 && b.FailedCount > 0 {
		status = BatchStatusFailed
	}
	b.Status = status
	now := time.Now()
	b.CompletedAt = &now
	b.UpdatedAt = now
	return nil
}

// IsStale reports whether a processing batch has been running longer
// than age. A batch stuck in processing past this point is assumed to
// belong to a crashed worker.
func (b *BatchHistory) IsStale(age time.Duration) bool {
	if b.Status != BatchStatusProcessing || b.StartedAt == nil {
		return false
	}
	return time.Since(*b.StartedAt) > age
}

// Abandon force-fails a processing batch whose worker died mid-run.
// Orders the worker never reached stay out of every outcome set; they
// surface through MissingOrderIDs for the recovery run.
func (b *BatchHistory) Abandon() error {
	if b.Status != BatchStatusProcessing {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot abandon batch from state: %s", b.Status))
	}
	b.Status = BatchStatusFailed
	now := time.Now()
	b.CompletedAt = &now
	b.UpdatedAt = now
	return nil
}

// MergeRecovery folds a recovery run's outcomes into this original batch
// so there is one auditable trail per user action. Success wins over a
// previously recorded failure; the requested order_ids set never changes.
// Idempotent: merging the same recovery result twice is a no-op.
func (b *BatchHistory) MergeRecovery(recovery *BatchHistory) error {
	if recovery.Kind != BatchKindRecovery {
		return shared.NewDomainError("INVALID_MERGE", "Only recovery batches can be merged")
	}
	for _, id := range recovery.OrderIDs {
		if !containsID(b.OrderIDs, id) {
			return shared.NewDomainError("INVALID_MERGE",
				fmt.Sprintf("Recovery order %s is not part of the original batch", id))
		}
	}

	for _, id := range recovery.SuccessOrderIDs {
		b.RecordSuccess(id)
	}
	for _, d := range recovery.FailureDetails {
		if containsID(b.SuccessOrderIDs, d.OrderID) {
			continue
		}
		b.RecordFailure(d.OrderID, d.Reason, d.Transient)
	}

	// A merged batch with any success is completed even if it originally
	// finished failed.
	if b.Status.IsTerminal() && b.SuccessCount > 0 {
		b.Status = BatchStatusCompleted
	}
	now := time.Now()
	b.UpdatedAt = now
	return nil
}

// MissingOrderIDs returns the candidate set for a recovery run: orders
// this batch reported successful but which the caller found without an
// active shipment, transient failures, and requested orders that were
// never attempted (an abandoned worker's leftovers). Each is included
// only when no active shipment exists for it.
func (b *BatchHistory) MissingOrderIDs(hasActiveShipment map[uuid.UUID]bool) []uuid.UUID {
	out := make([]uuid.UUID, 0)
	for _, id := range b.SuccessOrderIDs {
		if !hasActiveShipment[id] {
			out = append(out, id)
		}
	}
	for _, d := range b.FailureDetails {
		if d.Transient && !hasActiveShipment[d.OrderID] {
			out = append(out, d.OrderID)
		}
	}
	for _, id := range b.OrderIDs {
		if containsID(b.SuccessOrderIDs, id) ||
			containsID(b.FailedOrderIDs, id) ||
			containsID(b.SkippedOrderIDs, id) {
			continue
		}
		if !hasActiveShipment[id] {
			out = append(out, id)
		}
	}
	return out
}

// IsCompleted returns true if the batch completed with at least partial success
func (b *BatchHistory) IsCompleted() bool {
	return b.Status == BatchStatusCompleted
}

// HasFailures returns true if any order failed
func (b *BatchHistory) HasFailures() bool {
	return b.FailedCount > 0
}

// FailureDetailsJSON returns the failure details as a JSON string
func (b *BatchHistory) FailureDetailsJSON() (string, error) {
	if len(b.FailureDetails) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(b.FailureDetails)
	if err != nil {
		return "", fmt.Errorf("failed to marshal failure details: %w", err)
	}
	return string(data), nil
}

// SetFailureDetailsFromJSON parses failure details from a JSON string
func (b *BatchHistory) SetFailureDetailsFromJSON(jsonStr string) error {
	if jsonStr == "" || jsonStr == "[]" {
		b.FailureDetails = make([]FailureDetail, 0)
		return nil
	}
	var details []FailureDetail
	if err := json.Unmarshal([]byte(jsonStr), &details); err != nil {
		return fmt.Errorf("failed to unmarshal failure details: %w", err)
	}
	b.FailureDetails = details
	return nil
}

// Duration returns how long the batch ran
func (b *BatchHistory) Duration() time.Duration {
	if b.StartedAt == nil {
		return 0
	}
	end := time.Now()
	if b.CompletedAt != nil {
		end = *b.CompletedAt
	}
	return end.Sub(*b.StartedAt)
}

func (b *BatchHistory) recount() {
	b.SuccessCount = len(b.SuccessOrderIDs)
	b.FailedCount = len(b.FailedOrderIDs)
	b.SkippedCount = len(b.SkippedOrderIDs)
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func removeDetail(details []FailureDetail, orderID uuid.UUID) []FailureDetail {
	out := details[:0]
	for _, d := range details {
		if d.OrderID != orderID {
			out = append(out, d)
		}
	}
	return out
}
