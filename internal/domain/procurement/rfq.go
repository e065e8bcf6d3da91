package procurement

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/procura/backend/internal/domain/shared"
	"github.com/procura/backend/internal/domain/shared/valueobject"
)

// RfqStatus represents the status of a bidding round
type RfqStatus string

const (
	RfqStatusDraft     RfqStatus = "DRAFT"
	RfqStatusActive    RfqStatus = "ACTIVE"
	RfqStatusCompleted RfqStatus = "COMPLETED"
	RfqStatusCancelled RfqStatus = "CANCELLED"
)

// IsValid checks if the status is a valid RfqStatus
func (s RfqStatus) IsValid() bool {
	switch s {
	case RfqStatusDraft, RfqStatusActive, RfqStatusCompleted, RfqStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of RfqStatus
func (s RfqStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
// Transitions are one-way; COMPLETED and CANCELLED are terminal.
func (s RfqStatus) CanTransitionTo(target RfqStatus) bool {
	switch s {
	case RfqStatusDraft:
		return target == RfqStatusActive || target == RfqStatusCancelled
	case RfqStatusActive:
		return target == RfqStatusCompleted || target == RfqStatusCancelled
	case RfqStatusCompleted, RfqStatusCancelled:
		return false
	}
	return false
}

// RfqLineItem represents a single requested product or service line with a
// target quantity. Line items are immutable once the round is published.
type RfqLineItem struct {
	ID                uuid.UUID       `gorm:"type:uuid;primary_key"`
	RfqID             uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name              string          `gorm:"type:varchar(200);not null"`
	RequestedQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Unit              string          `gorm:"type:varchar(20);not null"`
	Position          int             `gorm:"not null"`
	CreatedAt         time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (RfqLineItem) TableName() string {
	return "rfq_line_items"
}

// Rfq represents a request-for-quotation aggregate root: a bidding round for
// a set of line items sent to multiple suppliers. It owns the lifecycle state
// machine, the requested line items, and the invited participants with their
// offers.
type Rfq struct {
	shared.BaseAggregateRoot
	Code         string        `gorm:"type:varchar(50);not null;uniqueIndex"`
	Title        string        `gorm:"type:varchar(200);not null"`
	RequestID    *uuid.UUID    `gorm:"type:uuid;index"` // originating purchase request, owned elsewhere
	Status       RfqStatus     `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	Items        []RfqLineItem `gorm:"foreignKey:RfqID;references:ID"`
	Participants []Participant `gorm:"foreignKey:RfqID;references:ID"`
	PublishedAt  *time.Time    `gorm:"index"`
	CompletedAt  *time.Time
	CancelledAt  *time.Time
	CancelReason string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (Rfq) TableName() string {
	return "rfqs"
}

// NewRfq creates a new bidding round in DRAFT status
func NewRfq(code, title string, requestID *uuid.UUID) (*Rfq, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "RFQ code cannot be empty")
	}
	if len(code) > 50 {
		return nil, shared.NewDomainError("INVALID_CODE", "RFQ code cannot exceed 50 characters")
	}
	if title == "" {
		return nil, shared.NewDomainError("INVALID_TITLE", "RFQ title cannot be empty")
	}

	return &Rfq{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Title:             title,
		RequestID:         requestID,
		Status:            RfqStatusDraft,
		Items:             make([]RfqLineItem, 0),
		Participants:      make([]Participant, 0),
	}, nil
}

// AddLineItem adds a requested line item to the round.
// Only allowed in DRAFT status; line items are frozen on publish.
func (r *Rfq) AddLineItem(name, unit string, requestedQuantity decimal.Decimal) (*RfqLineItem, error) {
	if r.Status != RfqStatusDraft {
		return nil, shared.NewDomainError("INVALID_STATE", "Line items cannot change after the round is published")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_LINE_ITEM", "Line item name cannot be empty")
	}
	if unit == "" {
		return nil, shared.NewDomainError("INVALID_UNIT", "Unit cannot be empty")
	}
	if requestedQuantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Requested quantity must be positive")
	}

	item := RfqLineItem{
		ID:                uuid.New(),
		RfqID:             r.ID,
		Name:              name,
		RequestedQuantity: requestedQuantity,
		Unit:              unit,
		Position:          len(r.Items),
		CreatedAt:         time.Now(),
	}
	r.Items = append(r.Items, item)
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	return &r.Items[len(r.Items)-1], nil
}

// AddParticipant invites a supplier into the round.
// Only allowed in DRAFT status; a supplier can be invited once.
func (r *Rfq) AddParticipant(supplierID uuid.UUID, supplierName, contactEmail string) (*Participant, error) {
	if r.Status != RfqStatusDraft {
		return nil, shared.NewDomainError("INVALID_STATE", "Participants cannot change after the round is published")
	}
	for _, p := range r.Participants {
		if p.SupplierID == supplierID {
			return nil, shared.NewDomainError("DUPLICATE_PARTICIPANT", "Supplier is already invited into this round").
				WithDetail("supplier_id", supplierID.String())
		}
	}

	participant, err := NewParticipant(r.ID, supplierID, supplierName, contactEmail)
	if err != nil {
		return nil, err
	}

	r.Participants = append(r.Participants, *participant)
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	return &r.Participants[len(r.Participants)-1], nil
}

// Publish opens the round for bidding, transitioning DRAFT to ACTIVE.
// Requires at least one line item and one participant.
func (r *Rfq) Publish() error {
	if !r.Status.CanTransitionTo(RfqStatusActive) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot publish round in %s status", r.Status))
	}
	if len(r.Items) == 0 {
		return shared.NewDomainError("NO_ITEMS", "Cannot publish a round without line items")
	}
	if len(r.Participants) == 0 {
		return shared.NewDomainError("NO_PARTICIPANTS", "Cannot publish a round without participants")
	}

	now := time.Now()
	r.Status = RfqStatusActive
	r.PublishedAt = &now
	r.UpdatedAt = now
	r.IncrementVersion()

	r.AddDomainEvent(NewRfqPublishedEvent(r))

	return nil
}

// Cancel cancels the round. A completed round can never be cancelled.
func (r *Rfq) Cancel(reason string) error {
	if r.Status == RfqStatusCompleted {
		return shared.ErrAlreadyFinalized
	}
	if !r.Status.CanTransitionTo(RfqStatusCancelled) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel round in %s status", r.Status))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Cancel reason is required")
	}

	now := time.Now()
	r.Status = RfqStatusCancelled
	r.CancelledAt = &now
	r.CancelReason = reason
	r.UpdatedAt = now
	r.IncrementVersion()

	r.AddDomainEvent(NewRfqCancelledEvent(r, reason))

	return nil
}

// MarkCompleted transitions ACTIVE to COMPLETED. Only the order materializer
// calls this, inside its transaction; the persisted flip is additionally
// guarded by a status predicate so concurrent finalizes cannot both commit.
func (r *Rfq) MarkCompleted() error {
	if r.Status == RfqStatusCompleted {
		return shared.ErrAlreadyFinalized
	}
	if !r.Status.CanTransitionTo(RfqStatusCompleted) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot complete round in %s status", r.Status))
	}

	now := time.Now()
	r.Status = RfqStatusCompleted
	r.CompletedAt = &now
	r.UpdatedAt = now
	r.IncrementVersion()

	return nil
}

// RecordView advances a participant from PENDING to VIEWED.
// Already VIEWED or OFFERED participants are left untouched.
func (r *Rfq) RecordView(participantID uuid.UUID) error {
	if r.Status != RfqStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Views are only tracked while the round is active")
	}

	participant := r.Participant(participantID)
	if participant == nil {
		return shared.ErrNotFound.WithDetail("participant_id", participantID.String())
	}
	if participant.Stage != ParticipantStagePending {
		return nil
	}
	return participant.AdvanceStage(ParticipantStageViewed)
}

// SubmitOffer records a participant's priced response. One offer per
// participant; every referenced line item must belong to this round. The
// offer total is computed here from the submitted lines.
func (r *Rfq) SubmitOffer(participantID uuid.UUID, currency valueobject.Currency, lines []OfferLineInput) (*Offer, error) {
	if r.Status != RfqStatusActive {
		return nil, shared.NewDomainError("INVALID_STATE", "Offers can only be submitted while the round is active")
	}

	participant := r.Participant(participantID)
	if participant == nil {
		return nil, shared.ErrNotFound.WithDetail("participant_id", participantID.String())
	}
	if participant.HasOffered() {
		return nil, shared.NewDomainError("ALREADY_OFFERED", "Participant has already submitted an offer").
			WithDetail("participant_id", participantID.String())
	}

	for _, line := range lines {
		if r.LineItem(line.RfqLineItemID) == nil {
			return nil, shared.NewDomainErrorWithDetails("VALIDATION_ERROR",
				"Offer references a line item outside this round",
				map[string]any{"rfq_line_item_id": line.RfqLineItemID.String()})
		}
	}

	offer, err := newOffer(r.ID, participantID, currency, lines)
	if err != nil {
		return nil, err
	}

	if err := participant.AdvanceStage(ParticipantStageOffered); err != nil {
		return nil, err
	}
	participant.Offer = offer
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	r.AddDomainEvent(NewOfferSubmittedEvent(r, participant, offer))

	return offer, nil
}

// LineItem returns a line item by its ID, or nil
func (r *Rfq) LineItem(id uuid.UUID) *RfqLineItem {
	for idx := range r.Items {
		if r.Items[idx].ID == id {
			return &r.Items[idx]
		}
	}
	return nil
}

// Participant returns a participant by its ID, or nil
func (r *Rfq) Participant(id uuid.UUID) *Participant {
	for idx := range r.Participants {
		if r.Participants[idx].ID == id {
			return &r.Participants[idx]
		}
	}
	return nil
}

// OfferByID returns an offer submitted in this round by its ID, or nil
func (r *Rfq) OfferByID(id uuid.UUID) *Offer {
	for idx := range r.Participants {
		if o := r.Participants[idx].Offer; o != nil && o.ID == id {
			return o
		}
	}
	return nil
}

// SubmittedOffers returns all offers submitted in this round, ordered by
// submission time then participant ID for deterministic results
func (r *Rfq) SubmittedOffers() []*Offer {
	offers := make([]*Offer, 0, len(r.Participants))
	for idx := range r.Participants {
		if o := r.Participants[idx].Offer; o != nil {
			offers = append(offers, o)
		}
	}
	sortOffers(offers)
	return offers
}

// ParticipantForOffer returns the participant that owns the given offer, or nil
func (r *Rfq) ParticipantForOffer(offerID uuid.UUID) *Participant {
	for idx := range r.Participants {
		if o := r.Participants[idx].Offer; o != nil && o.ID == offerID {
			return &r.Participants[idx]
		}
	}
	return nil
}

// IsDraft returns true if the round has not been published yet
func (r *Rfq) IsDraft() bool {
	return r.Status == RfqStatusDraft
}

// IsActive returns true if the round is open for bidding
func (r *Rfq) IsActive() bool {
	return r.Status == RfqStatusActive
}

// IsCompleted returns true if the round has been finalized
func (r *Rfq) IsCompleted() bool {
	return r.Status == RfqStatusCompleted
}

// IsCancelled returns true if the round was cancelled
func (r *Rfq) IsCancelled() bool {
	return r.Status == RfqStatusCancelled
}

// IsTerminal returns true if the round is in a terminal state
func (r *Rfq) IsTerminal() bool {
	return r.IsCompleted() || r.IsCancelled()
}
