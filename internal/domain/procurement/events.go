package procurement

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/procura/backend/internal/domain/shared"
	"github.com/procura/backend/internal/domain/shared/valueobject"
)

// Aggregate type constant
const AggregateTypeRfq = "Rfq"

// Event type constants
const (
	EventTypeRfqPublished   = "RfqPublished"
	EventTypeRfqCancelled   = "RfqCancelled"
	EventTypeOfferSubmitted = "OfferSubmitted"
	EventTypeRfqFinalized   = "RfqFinalized"
)

// RfqPublishedEvent is raised when a bidding round opens for offers
type RfqPublishedEvent struct {
	shared.BaseDomainEvent
	RfqID            uuid.UUID `json:"rfq_id"`
	Code             string    `json:"code"`
	Title            string    `json:"title"`
	LineItemCount    int       `json:"line_item_count"`
	ParticipantCount int       `json:"participant_count"`
}

// NewRfqPublishedEvent creates a new RfqPublishedEvent
func NewRfqPublishedEvent(rfq *Rfq) *RfqPublishedEvent {
	return &RfqPublishedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeRfqPublished, AggregateTypeRfq, rfq.ID),
		RfqID:            rfq.ID,
		Code:             rfq.Code,
		Title:            rfq.Title,
		LineItemCount:    len(rfq.Items),
		ParticipantCount: len(rfq.Participants),
	}
}

// EventType returns the event type name
func (e *RfqPublishedEvent) EventType() string {
	return EventTypeRfqPublished
}

// RfqCancelledEvent is raised when a bidding round is cancelled
type RfqCancelledEvent struct {
	shared.BaseDomainEvent
	RfqID  uuid.UUID `json:"rfq_id"`
	Code   string    `json:"code"`
	Reason string    `json:"reason"`
}

// NewRfqCancelledEvent creates a new RfqCancelledEvent
func NewRfqCancelledEvent(rfq *Rfq, reason string) *RfqCancelledEvent {
	return &RfqCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRfqCancelled, AggregateTypeRfq, rfq.ID),
		RfqID:           rfq.ID,
		Code:            rfq.Code,
		Reason:          reason,
	}
}

// EventType returns the event type name
func (e *RfqCancelledEvent) EventType() string {
	return EventTypeRfqCancelled
}

// OfferSubmittedEvent is raised when a participant submits an offer
type OfferSubmittedEvent struct {
	shared.BaseDomainEvent
	RfqID         uuid.UUID            `json:"rfq_id"`
	Code          string               `json:"code"`
	ParticipantID uuid.UUID            `json:"participant_id"`
	SupplierID    uuid.UUID            `json:"supplier_id"`
	SupplierName  string               `json:"supplier_name"`
	OfferID       uuid.UUID            `json:"offer_id"`
	Currency      valueobject.Currency `json:"currency"`
	TotalAmount   decimal.Decimal      `json:"total_amount"`
	LineCount     int                  `json:"line_count"`
}

// NewOfferSubmittedEvent creates a new OfferSubmittedEvent
func NewOfferSubmittedEvent(rfq *Rfq, participant *Participant, offer *Offer) *OfferSubmittedEvent {
	return &OfferSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOfferSubmitted, AggregateTypeRfq, rfq.ID),
		RfqID:           rfq.ID,
		Code:            rfq.Code,
		ParticipantID:   participant.ID,
		SupplierID:      participant.SupplierID,
		SupplierName:    participant.SupplierName,
		OfferID:         offer.ID,
		Currency:        offer.Currency,
		TotalAmount:     offer.TotalAmount,
		LineCount:       len(offer.Items),
	}
}

// EventType returns the event type name
func (e *OfferSubmittedEvent) EventType() string {
	return EventTypeOfferSubmitted
}

// FinalizedOrderInfo describes one order created by a finalize operation
type FinalizedOrderInfo struct {
	OrderID      uuid.UUID       `json:"order_id"`
	OrderNumber  string          `json:"order_number"`
	OfferID      uuid.UUID       `json:"offer_id"`
	SupplierID   uuid.UUID       `json:"supplier_id"`
	SupplierName string          `json:"supplier_name"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	ItemCount    int             `json:"item_count"`
}

// RfqFinalizedEvent is raised after a bidding round has been awarded and its
// orders committed
type RfqFinalizedEvent struct {
	shared.BaseDomainEvent
	RfqID       uuid.UUID            `json:"rfq_id"`
	Code        string               `json:"code"`
	FinalizedBy uuid.UUID            `json:"finalized_by"`
	WonOfferIDs []uuid.UUID          `json:"won_offer_ids"`
	Orders      []FinalizedOrderInfo `json:"orders"`
}

// NewRfqFinalizedEvent creates a new RfqFinalizedEvent
func NewRfqFinalizedEvent(rfq *Rfq, finalizedBy uuid.UUID, wonOfferIDs []uuid.UUID, orders []FinalizedOrderInfo) *RfqFinalizedEvent {
	return &RfqFinalizedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRfqFinalized, AggregateTypeRfq, rfq.ID),
		RfqID:           rfq.ID,
		Code:            rfq.Code,
		FinalizedBy:     finalizedBy,
		WonOfferIDs:     wonOfferIDs,
		Orders:          orders,
	}
}

// EventType returns the event type name
func (e *RfqFinalizedEvent) EventType() string {
	return EventTypeRfqFinalized
}
