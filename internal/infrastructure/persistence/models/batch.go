package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/oms/backend/internal/domain/batch"
)

// BatchHistoryModel is the persistence model for procurement batch records.
// ID sets are stored as JSON arrays; the requested set never changes after
// insert.
type BatchHistoryModel struct {
	AggregateModel
	Kind            batch.BatchKind   `gorm:"type:varchar(16);not null;default:'manual'"`
	RequestedBy     string            `gorm:"type:varchar(200);not null"`
	OrderIDs        string            `gorm:"type:jsonb;not null;default:'[]'"`
	SuccessOrderIDs string            `gorm:"type:jsonb;not null;default:'[]'"`
	FailedOrderIDs  string            `gorm:"type:jsonb;not null;default:'[]'"`
	SkippedOrderIDs string            `gorm:"type:jsonb;not null;default:'[]'"`
	FailureDetails  string            `gorm:"type:jsonb;not null;default:'[]'"`
	TotalCount      int               `gorm:"not null;default:0"`
	SuccessCount    int               `gorm:"not null;default:0"`
	FailedCount     int               `gorm:"not null;default:0"`
	SkippedCount    int               `gorm:"not null;default:0"`
	Status          batch.BatchStatus `gorm:"type:varchar(16);not null;default:'pending';index"`
	StartedAt       *time.Time
	CompletedAt     *time.Time `gorm:"index"`
}

// TableName returns the table name for GORM
func (BatchHistoryModel) TableName() string {
	return "bulk_shipping_history"
}

// ToDomain converts the persistence model to a domain BatchHistory
func (m *BatchHistoryModel) ToDomain() *batch.BatchHistory {
	b := &batch.BatchHistory{
		Kind:            m.Kind,
		RequestedBy:     m.RequestedBy,
		OrderIDs:        decodeIDs(m.OrderIDs),
		SuccessOrderIDs: decodeIDs(m.SuccessOrderIDs),
		FailedOrderIDs:  decodeIDs(m.FailedOrderIDs),
		SkippedOrderIDs: decodeIDs(m.SkippedOrderIDs),
		TotalCount:      m.TotalCount,
		SuccessCount:    m.SuccessCount,
		FailedCount:     m.FailedCount,
		SkippedCount:    m.SkippedCount,
		Status:          m.Status,
		StartedAt:       m.StartedAt,
		CompletedAt:     m.CompletedAt,
	}
	m.PopulateAggregateRoot(&b.BaseAggregateRoot)
	_ = b.SetFailureDetailsFromJSON(m.FailureDetails)
	return b
}

// FromDomain populates the persistence model from a domain BatchHistory
func (m *BatchHistoryModel) FromDomain(b *batch.BatchHistory) {
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	m.Kind = b.Kind
	m.RequestedBy = b.RequestedBy
	m.OrderIDs = encodeIDs(b.OrderIDs)
	m.SuccessOrderIDs = encodeIDs(b.SuccessOrderIDs)
	m.FailedOrderIDs = encodeIDs(b.FailedOrderIDs)
	m.SkippedOrderIDs = encodeIDs(b.SkippedOrderIDs)
	m.TotalCount = b.TotalCount
	m.SuccessCount = b.SuccessCount
	m.FailedCount = b.FailedCount
	m.SkippedCount = b.SkippedCount
	m.Status = b.Status
	m.StartedAt = b.StartedAt
	m.CompletedAt = b.CompletedAt

	if detailsJSON, err := b.FailureDetailsJSON(); err == nil {
		m.FailureDetails = detailsJSON
	} else {
		m.FailureDetails = "[]"
	}
}

// BatchHistoryModelFromDomain creates a new persistence model from a domain BatchHistory
func BatchHistoryModelFromDomain(b *batch.BatchHistory) *BatchHistoryModel {
	m := &BatchHistoryModel{}
	m.FromDomain(b)
	return m
}

func encodeIDs(ids []uuid.UUID) string {
	if len(ids) == 0 {
		return "[]"
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeIDs(s string) []uuid.UUID {
	if s == "" || s == "[]" {
		return make([]uuid.UUID, 0)
	}
	var ids []uuid.UUID
	if err := json.Unmarshal([]byte(s), &ids); err != nil {
		return make([]uuid.UUID, 0)
	}
	return ids
}
