package procurement

import (
	"time"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/shared"
)

// ParticipantStage represents how far a participant has progressed in a bidding round
type ParticipantStage string

const (
	ParticipantStagePending ParticipantStage = "PENDING"
	ParticipantStageViewed  ParticipantStage = "VIEWED"
	ParticipantStageOffered ParticipantStage = "OFFERED"
)

// IsValid checks if the stage is a valid ParticipantStage
func (s ParticipantStage) IsValid() bool {
	switch s {
	case ParticipantStagePending, ParticipantStageViewed, ParticipantStageOffered:
		return true
	}
	return false
}

// String returns the string representation of ParticipantStage
func (s ParticipantStage) String() string {
	return string(s)
}

// rank orders stages for monotonic advancement
func (s ParticipantStage) rank() int {
	switch s {
	case ParticipantStagePending:
		return 0
	case ParticipantStageViewed:
		return 1
	case ParticipantStageOffered:
		return 2
	}
	return -1
}

// CanAdvanceTo checks if the stage can advance to the target stage.
// Stages only move forward, never back.
func (s ParticipantStage) CanAdvanceTo(target ParticipantStage) bool {
	return target.IsValid() && target.rank() > s.rank()
}

// Participant represents a supplier invited into a specific bidding round.
// Each participant owns at most one offer.
type Participant struct {
	ID           uuid.UUID        `gorm:"type:uuid;primary_key"`
	RfqID        uuid.UUID        `gorm:"type:uuid;not null;index"`
	SupplierID   uuid.UUID        `gorm:"type:uuid;not null"`
	SupplierName string           `gorm:"type:varchar(200);not null"`
	ContactEmail string           `gorm:"type:varchar(200)"`
	Stage        ParticipantStage `gorm:"type:varchar(20);not null;default:'PENDING'"`
	Offer        *Offer           `gorm:"foreignKey:ParticipantID;references:ID"`
	CreatedAt    time.Time        `gorm:"not null"`
	UpdatedAt    time.Time        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Participant) TableName() string {
	return "rfq_participants"
}

// NewParticipant creates a new participant in PENDING stage
func NewParticipant(rfqID, supplierID uuid.UUID, supplierName, contactEmail string) (*Participant, error) {
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier ID cannot be empty")
	}
	if supplierName == "" {
		return nil, shared.NewDomainError("INVALID_SUPPLIER_NAME", "Supplier name cannot be empty")
	}

	now := time.Now()
	return &Participant{
		ID:           uuid.New(),
		RfqID:        rfqID,
		SupplierID:   supplierID,
		SupplierName: supplierName,
		ContactEmail: contactEmail,
		Stage:        ParticipantStagePending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// AdvanceStage moves the participant to the target stage.
// Advancing to a stage at or below the current one is rejected.
func (p *Participant) AdvanceStage(target ParticipantStage) error {
	if !p.Stage.CanAdvanceTo(target) {
		return shared.NewDomainError("INVALID_STAGE_TRANSITION", "Participant stage never regresses").
			WithDetail("participant_id", p.ID.String()).
			WithDetail("current_stage", p.Stage.String()).
			WithDetail("target_stage", target.String())
	}
	p.Stage = target
	p.UpdatedAt = time.Now()
	return nil
}

// HasOffered returns true if the participant has submitted an offer
func (p *Participant) HasOffered() bool {
	return p.Stage == ParticipantStageOffered
}
