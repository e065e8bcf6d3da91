package procurement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/procura/backend/internal/domain/shared"
	"github.com/procura/backend/internal/domain/shared/valueobject"
)

// OfferLineItem represents one priced line of an offer.
// At most one OfferLineItem exists per (offer, RFQ line item) pair.
type OfferLineItem struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	OfferID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_offer_line_pair,priority:1"`
	RfqLineItemID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_offer_line_pair,priority:2"`
	Quantity      decimal.Decimal `gorm:"type:decimal(18,4);not null"` // quantity the supplier is willing to deliver
	UnitPrice     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Brand         string          `gorm:"type:varchar(200)"`
	Note          string          `gorm:"type:varchar(500)"`
	CreatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OfferLineItem) TableName() string {
	return "offer_line_items"
}

// Amount returns quantity x unit price for this line
func (i *OfferLineItem) Amount() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice)
}

// Covers returns true if the quoted quantity covers the requested quantity
func (i *OfferLineItem) Covers(requested decimal.Decimal) bool {
	return i.Quantity.GreaterThanOrEqual(requested)
}

// OfferLineInput carries one priced line of an incoming offer submission
type OfferLineInput struct {
	RfqLineItemID uuid.UUID
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal
	Brand         string
	Note          string
}

// Offer represents one participant's full priced response to a bidding round.
// An offer is immutable after submission; its total is always computed
// server-side from its lines, never taken from the caller.
type Offer struct {
	ID            uuid.UUID            `gorm:"type:uuid;primary_key"`
	ParticipantID uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex"`
	RfqID         uuid.UUID            `gorm:"type:uuid;not null;index"`
	Currency      valueobject.Currency `gorm:"type:varchar(3);not null"`
	TotalAmount   decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	Won           bool                 `gorm:"not null;default:false"`
	SubmittedAt   time.Time            `gorm:"not null;index"`
	Items         []OfferLineItem      `gorm:"foreignKey:OfferID;references:ID"`
}

// TableName returns the table name for GORM
func (Offer) TableName() string {
	return "offers"
}

// newOffer builds a validated offer for a participant. Called through
// Rfq.SubmitOffer, which checks the referenced line items against the round.
func newOffer(rfqID, participantID uuid.UUID, currency valueobject.Currency, lines []OfferLineInput) (*Offer, error) {
	if !currency.IsValid() {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Unsupported currency code").
			WithDetail("currency", string(currency))
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("NO_ITEMS", "Offer must contain at least one priced line item")
	}

	now := time.Now()
	offer := &Offer{
		ID:            uuid.New(),
		ParticipantID: participantID,
		RfqID:         rfqID,
		Currency:      currency,
		Won:           false,
		SubmittedAt:   now,
		Items:         make([]OfferLineItem, 0, len(lines)),
	}

	seen := make(map[uuid.UUID]bool, len(lines))
	total := valueobject.Zero(currency)
	for _, line := range lines {
		if line.RfqLineItemID == uuid.Nil {
			return nil, shared.NewDomainError("INVALID_LINE_ITEM", "Offer line must reference a requested line item")
		}
		if seen[line.RfqLineItemID] {
			return nil, shared.NewDomainError("DUPLICATE_LINE_ITEM", "Line item is priced more than once in the offer").
				WithDetail("rfq_line_item_id", line.RfqLineItemID.String())
		}
		seen[line.RfqLineItemID] = true

		if line.Quantity.LessThanOrEqual(decimal.Zero) {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Quoted quantity must be positive").
				WithDetail("rfq_line_item_id", line.RfqLineItemID.String())
		}
		if line.UnitPrice.IsNegative() {
			return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative").
				WithDetail("rfq_line_item_id", line.RfqLineItemID.String())
		}

		item := OfferLineItem{
			ID:            uuid.New(),
			OfferID:       offer.ID,
			RfqLineItemID: line.RfqLineItemID,
			Quantity:      line.Quantity,
			UnitPrice:     line.UnitPrice,
			Brand:         line.Brand,
			Note:          line.Note,
			CreatedAt:     now,
		}
		lineTotal, err := valueobject.NewMoney(line.UnitPrice, currency)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_CURRENCY", err.Error())
		}
		sum, err := total.Add(lineTotal.Multiply(line.Quantity))
		if err != nil {
			return nil, shared.NewDomainError("CURRENCY_MISMATCH", err.Error())
		}
		total = sum
		offer.Items = append(offer.Items, item)
	}

	offer.TotalAmount = total.Amount()
	return offer, nil
}

// LineFor returns the offer line for a given RFQ line item, or nil if the
// offer does not quote it
func (o *Offer) LineFor(rfqLineItemID uuid.UUID) *OfferLineItem {
	for idx := range o.Items {
		if o.Items[idx].RfqLineItemID == rfqLineItemID {
			return &o.Items[idx]
		}
	}
	return nil
}

// TotalMoney returns the offer total as Money
func (o *Offer) TotalMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(o.TotalAmount, o.Currency)
	return m
}
