package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	procurementapp "github.com/procura/backend/internal/application/procurement"
)

// AuditRecord is the persisted form of one audit trail entry
type AuditRecord struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	Action      string    `gorm:"type:varchar(100);not null;index"`
	AggregateID uuid.UUID `gorm:"type:uuid;not null;index"`
	Reference   string    `gorm:"type:varchar(100)"`
	Detail      []byte    `gorm:"type:jsonb"`
	OccurredAt  time.Time `gorm:"not null;index"`
	CreatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AuditRecord) TableName() string {
	return "audit_records"
}

// GormAuditRecorder persists audit trail entries. Records are append-only;
// nothing in the engine updates or deletes them.
type GormAuditRecorder struct {
	db *gorm.DB
}

// NewGormAuditRecorder creates a new GORM audit recorder
func NewGormAuditRecorder(db *gorm.DB) *GormAuditRecorder {
	return &GormAuditRecorder{db: db}
}

// Record inserts one audit record
func (r *GormAuditRecorder) Record(ctx context.Context, entry procurementapp.AuditEntry) error {
	detail, err := json.Marshal(entry.Detail)
	if err != nil {
		return err
	}

	record := AuditRecord{
		ID:          uuid.New(),
		Action:      entry.Action,
		AggregateID: entry.AggregateID,
		Reference:   entry.Reference,
		Detail:      detail,
		OccurredAt:  entry.OccurredAt,
		CreatedAt:   time.Now(),
	}
	return r.db.WithContext(ctx).Create(&record).Error
}

// FindByAggregate returns the audit trail for one aggregate, oldest first
func (r *GormAuditRecorder) FindByAggregate(ctx context.Context, aggregateID uuid.UUID) ([]AuditRecord, error) {
	var records []AuditRecord
	err := r.db.WithContext(ctx).
		Where("aggregate_id = ?", aggregateID).
		Order("occurred_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
