package procurement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/procura/backend/internal/domain/procurement"
	"github.com/procura/backend/internal/domain/trade"
)

// ==================== RFQ DTOs ====================

// CreateRfqRequest represents a request to open a new bidding round
type CreateRfqRequest struct {
	Title        string                      `json:"title" binding:"required,min=1,max=200"`
	RequestID    *uuid.UUID                  `json:"request_id"`
	Items        []CreateRfqLineItemInput    `json:"items"`
	Participants []CreateRfqParticipantInput `json:"participants"`
}

// CreateRfqLineItemInput represents a requested line item in the create request
type CreateRfqLineItemInput struct {
	Name              string          `json:"name" binding:"required,min=1,max=200"`
	Unit              string          `json:"unit" binding:"required,min=1,max=20"`
	RequestedQuantity decimal.Decimal `json:"requested_quantity" binding:"required"`
}

// CreateRfqParticipantInput represents a supplier invitation in the create request
type CreateRfqParticipantInput struct {
	SupplierID uuid.UUID `json:"supplier_id" binding:"required"`
}

// AddLineItemRequest represents a request to add a line item to a draft round
type AddLineItemRequest struct {
	Name              string          `json:"name" binding:"required,min=1,max=200"`
	Unit              string          `json:"unit" binding:"required,min=1,max=20"`
	RequestedQuantity decimal.Decimal `json:"requested_quantity" binding:"required"`
}

// AddParticipantRequest represents a request to invite a supplier into a draft round
type AddParticipantRequest struct {
	SupplierID uuid.UUID `json:"supplier_id" binding:"required"`
}

// CancelRfqRequest represents a request to cancel a round
type CancelRfqRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// SubmitOfferRequest represents a participant's priced response
type SubmitOfferRequest struct {
	ParticipantID uuid.UUID              `json:"participant_id" binding:"required"`
	Currency      string                 `json:"currency"`
	Items         []SubmitOfferLineInput `json:"items" binding:"required,min=1"`
}

// SubmitOfferLineInput represents one priced line of an offer submission.
// The amount shown client-side is never accepted; only quantity and unit
// price enter the engine.
type SubmitOfferLineInput struct {
	RfqLineItemID uuid.UUID       `json:"rfq_line_item_id" binding:"required"`
	Quantity      decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice     decimal.Decimal `json:"unit_price" binding:"required"`
	Brand         string          `json:"brand"`
	Note          string          `json:"note"`
}

// ==================== Finalize DTOs ====================

// FinalizeSingleWinnerRequest awards every line item to one offer
type FinalizeSingleWinnerRequest struct {
	OfferID uuid.UUID `json:"offer_id" binding:"required"`
	// FinalizedBy is taken from the authenticated operator, never the body
	FinalizedBy uuid.UUID `json:"-"`
}

// AllocationEntryInput maps one line item to its winning offer
type AllocationEntryInput struct {
	RfqLineItemID uuid.UUID `json:"rfq_line_item_id" binding:"required"`
	OfferID       uuid.UUID `json:"offer_id" binding:"required"`
}

// FinalizeSplitWinnersRequest awards line items across several offers.
// ReferenceByOfferID optionally names the order created for an offer; offers
// without an entry get a generated order number.
type FinalizeSplitWinnersRequest struct {
	Allocation         []AllocationEntryInput `json:"allocation" binding:"required,min=1"`
	ReferenceByOfferID map[uuid.UUID]string   `json:"reference_by_offer_id"`
	// FinalizedBy is taken from the authenticated operator, never the body
	FinalizedBy uuid.UUID `json:"-"`
}

// FinalizeResult reports the orders created by a finalize call
type FinalizeResult struct {
	RfqID   uuid.UUID              `json:"rfq_id"`
	RfqCode string                 `json:"rfq_code"`
	Orders  []FinalizedOrderResult `json:"orders"`
}

// FinalizedOrderResult describes one created order
type FinalizedOrderResult struct {
	OrderID      uuid.UUID       `json:"order_id"`
	OrderNumber  string          `json:"order_number"`
	OfferID      uuid.UUID       `json:"offer_id"`
	SupplierID   uuid.UUID       `json:"supplier_id"`
	SupplierName string          `json:"supplier_name"`
	Currency     string          `json:"currency"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	ItemCount    int             `json:"item_count"`
}

// ==================== Responses ====================

// RfqLineItemResponse represents a line item in API responses
type RfqLineItemResponse struct {
	ID                uuid.UUID       `json:"id"`
	Name              string          `json:"name"`
	RequestedQuantity decimal.Decimal `json:"requested_quantity"`
	Unit              string          `json:"unit"`
	Position          int             `json:"position"`
}

// OfferLineItemResponse represents one priced offer line in API responses
type OfferLineItemResponse struct {
	RfqLineItemID uuid.UUID       `json:"rfq_line_item_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Amount        decimal.Decimal `json:"amount"`
	Brand         string          `json:"brand,omitempty"`
	Note          string          `json:"note,omitempty"`
}

// OfferResponse represents an offer in API responses
type OfferResponse struct {
	ID          uuid.UUID               `json:"id"`
	Currency    string                  `json:"currency"`
	TotalAmount decimal.Decimal         `json:"total_amount"`
	Won         bool                    `json:"won"`
	SubmittedAt time.Time               `json:"submitted_at"`
	Items       []OfferLineItemResponse `json:"items"`
}

// ParticipantResponse represents a participant in API responses
type ParticipantResponse struct {
	ID           uuid.UUID      `json:"id"`
	SupplierID   uuid.UUID      `json:"supplier_id"`
	SupplierName string         `json:"supplier_name"`
	ContactEmail string         `json:"contact_email,omitempty"`
	Stage        string         `json:"stage"`
	Offer        *OfferResponse `json:"offer,omitempty"`
}

// RfqResponse represents a bidding round in API responses
type RfqResponse struct {
	ID           uuid.UUID             `json:"id"`
	Code         string                `json:"code"`
	Title        string                `json:"title"`
	RequestID    *uuid.UUID            `json:"request_id,omitempty"`
	Status       string                `json:"status"`
	Items        []RfqLineItemResponse `json:"items"`
	Participants []ParticipantResponse `json:"participants"`
	PublishedAt  *time.Time            `json:"published_at,omitempty"`
	CompletedAt  *time.Time            `json:"completed_at,omitempty"`
	CancelledAt  *time.Time            `json:"cancelled_at,omitempty"`
	CancelReason string                `json:"cancel_reason,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
	Version      int                   `json:"version"`
}

// RfqListResponse is a paginated list of rounds
type RfqListResponse struct {
	Items      []RfqResponse `json:"items"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int           `json:"total_pages"`
}

// SuggestedAllocationResponse is the default cheapest-first mapping
type SuggestedAllocationResponse struct {
	RfqID      uuid.UUID                 `json:"rfq_id"`
	Entries    []AllocationEntryResponse `json:"entries"`
	Unresolved []uuid.UUID               `json:"unresolved"`
}

// AllocationEntryResponse is one suggested line item award
type AllocationEntryResponse struct {
	RfqLineItemID uuid.UUID `json:"rfq_line_item_id"`
	OfferID       uuid.UUID `json:"offer_id"`
}

// ==================== Mappers ====================

// ToRfqLineItemResponse converts a domain line item to its response
func ToRfqLineItemResponse(item *procurement.RfqLineItem) RfqLineItemResponse {
	return RfqLineItemResponse{
		ID:                item.ID,
		Name:              item.Name,
		RequestedQuantity: item.RequestedQuantity,
		Unit:              item.Unit,
		Position:          item.Position,
	}
}

// ToOfferResponse converts a domain offer to its response
func ToOfferResponse(offer *procurement.Offer) OfferResponse {
	items := make([]OfferLineItemResponse, 0, len(offer.Items))
	for idx := range offer.Items {
		line := &offer.Items[idx]
		items = append(items, OfferLineItemResponse{
			RfqLineItemID: line.RfqLineItemID,
			Quantity:      line.Quantity,
			UnitPrice:     line.UnitPrice,
			Amount:        line.Amount(),
			Brand:         line.Brand,
			Note:          line.Note,
		})
	}
	return OfferResponse{
		ID:          offer.ID,
		Currency:    offer.Currency.String(),
		TotalAmount: offer.TotalAmount,
		Won:         offer.Won,
		SubmittedAt: offer.SubmittedAt,
		Items:       items,
	}
}

// ToParticipantResponse converts a domain participant to its response
func ToParticipantResponse(p *procurement.Participant) ParticipantResponse {
	resp := ParticipantResponse{
		ID:           p.ID,
		SupplierID:   p.SupplierID,
		SupplierName: p.SupplierName,
		ContactEmail: p.ContactEmail,
		Stage:        p.Stage.String(),
	}
	if p.Offer != nil {
		offer := ToOfferResponse(p.Offer)
		resp.Offer = &offer
	}
	return resp
}

// ToRfqResponse converts a domain round to its response
func ToRfqResponse(rfq *procurement.Rfq) RfqResponse {
	items := make([]RfqLineItemResponse, 0, len(rfq.Items))
	for idx := range rfq.Items {
		items = append(items, ToRfqLineItemResponse(&rfq.Items[idx]))
	}
	participants := make([]ParticipantResponse, 0, len(rfq.Participants))
	for idx := range rfq.Participants {
		participants = append(participants, ToParticipantResponse(&rfq.Participants[idx]))
	}
	return RfqResponse{
		ID:           rfq.ID,
		Code:         rfq.Code,
		Title:        rfq.Title,
		RequestID:    rfq.RequestID,
		Status:       rfq.Status.String(),
		Items:        items,
		Participants: participants,
		PublishedAt:  rfq.PublishedAt,
		CompletedAt:  rfq.CompletedAt,
		CancelledAt:  rfq.CancelledAt,
		CancelReason: rfq.CancelReason,
		CreatedAt:    rfq.CreatedAt,
		UpdatedAt:    rfq.UpdatedAt,
		Version:      rfq.Version,
	}
}

// ToSuggestedAllocationResponse converts a suggestion to its response
func ToSuggestedAllocationResponse(rfqID uuid.UUID, s procurement.SuggestedAllocation) SuggestedAllocationResponse {
	entries := make([]AllocationEntryResponse, 0, len(s.Entries))
	for _, e := range s.Entries {
		entries = append(entries, AllocationEntryResponse{RfqLineItemID: e.RfqLineItemID, OfferID: e.OfferID})
	}
	unresolved := s.Unresolved
	if unresolved == nil {
		unresolved = make([]uuid.UUID, 0)
	}
	return SuggestedAllocationResponse{RfqID: rfqID, Entries: entries, Unresolved: unresolved}
}

// ToFinalizedOrderResult converts a created order to its result entry
func ToFinalizedOrderResult(order *trade.PurchaseOrder) FinalizedOrderResult {
	return FinalizedOrderResult{
		OrderID:      order.ID,
		OrderNumber:  order.OrderNumber,
		OfferID:      order.SourceOfferID,
		SupplierID:   order.SupplierID,
		SupplierName: order.SupplierName,
		Currency:     order.Currency.String(),
		TotalAmount:  order.TotalAmount,
		ItemCount:    order.ItemCount(),
	}
}
