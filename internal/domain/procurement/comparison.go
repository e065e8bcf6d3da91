package procurement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/procura/backend/internal/domain/shared"
	"github.com/procura/backend/internal/domain/shared/valueobject"
)

// ComparisonColumn describes one participant of the round in the price matrix.
// Offer fields are nil until the participant has submitted.
type ComparisonColumn struct {
	ParticipantID uuid.UUID            `json:"participant_id"`
	SupplierID    uuid.UUID            `json:"supplier_id"`
	SupplierName  string               `json:"supplier_name"`
	Stage         ParticipantStage     `json:"stage"`
	OfferID       *uuid.UUID           `json:"offer_id,omitempty"`
	Currency      valueobject.Currency `json:"currency,omitempty"`
	TotalAmount   decimal.Decimal      `json:"total_amount"`
	SubmittedAt   *time.Time           `json:"submitted_at,omitempty"`
	Won           bool                 `json:"won"`
}

// ComparisonCell is one (line item, participant) intersection. Quoted is the
// explicit "not quoted" marker; price fields are meaningless when it is false.
type ComparisonCell struct {
	Quoted    bool            `json:"quoted"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Amount    decimal.Decimal `json:"amount"`
	Covers    bool            `json:"covers"`
	Brand     string          `json:"brand,omitempty"`
	Note      string          `json:"note,omitempty"`
}

// ComparisonRow is one requested line item with a cell per column
type ComparisonRow struct {
	RfqLineItemID     uuid.UUID        `json:"rfq_line_item_id"`
	Name              string           `json:"name"`
	RequestedQuantity decimal.Decimal  `json:"requested_quantity"`
	Unit              string           `json:"unit"`
	Cells             []ComparisonCell `json:"cells"`
}

// Comparison is the line item by supplier price matrix shown to the operator,
// together with the cheapest-first suggested allocation. It is a pure read
// model and never mutates the round.
type Comparison struct {
	RfqID     uuid.UUID           `json:"rfq_id"`
	Code      string              `json:"code"`
	Title     string              `json:"title"`
	Status    RfqStatus           `json:"status"`
	Columns   []ComparisonColumn  `json:"columns"`
	Rows      []ComparisonRow     `json:"rows"`
	Suggested SuggestedAllocation `json:"suggested"`
}

// BuildComparison assembles the price matrix for an ACTIVE or COMPLETED
// round. Columns follow offer submission order with participants who have not
// offered appended last; cells within a row align with the columns by index.
func BuildComparison(rfq *Rfq) (*Comparison, error) {
	if rfq.Status != RfqStatusActive && rfq.Status != RfqStatusCompleted {
		return nil, shared.NewDomainError("INVALID_STATE",
			"Comparison is only available for ACTIVE or COMPLETED rounds, current status: "+rfq.Status.String())
	}

	columns := make([]ComparisonColumn, 0, len(rfq.Participants))
	for _, offer := range rfq.SubmittedOffers() {
		p := rfq.ParticipantForOffer(offer.ID)
		if p == nil {
			continue
		}
		offerID := offer.ID
		submittedAt := offer.SubmittedAt
		columns = append(columns, ComparisonColumn{
			ParticipantID: p.ID,
			SupplierID:    p.SupplierID,
			SupplierName:  p.SupplierName,
			Stage:         p.Stage,
			OfferID:       &offerID,
			Currency:      offer.Currency,
			TotalAmount:   offer.TotalAmount,
			SubmittedAt:   &submittedAt,
			Won:           offer.Won,
		})
	}
	for idx := range rfq.Participants {
		p := &rfq.Participants[idx]
		if p.Offer != nil {
			continue
		}
		columns = append(columns, ComparisonColumn{
			ParticipantID: p.ID,
			SupplierID:    p.SupplierID,
			SupplierName:  p.SupplierName,
			Stage:         p.Stage,
		})
	}

	rows := make([]ComparisonRow, 0, len(rfq.Items))
	for _, item := range rfq.Items {
		row := ComparisonRow{
			RfqLineItemID:     item.ID,
			Name:              item.Name,
			RequestedQuantity: item.RequestedQuantity,
			Unit:              item.Unit,
			Cells:             make([]ComparisonCell, 0, len(columns)),
		}
		for _, col := range columns {
			if col.OfferID == nil {
				row.Cells = append(row.Cells, ComparisonCell{})
				continue
			}
			offer := rfq.OfferByID(*col.OfferID)
			line := offer.LineFor(item.ID)
			if line == nil {
				row.Cells = append(row.Cells, ComparisonCell{})
				continue
			}
			row.Cells = append(row.Cells, ComparisonCell{
				Quoted:    true,
				Quantity:  line.Quantity,
				UnitPrice: line.UnitPrice,
				Amount:    line.Amount(),
				Covers:    line.Covers(item.RequestedQuantity),
				Brand:     line.Brand,
				Note:      line.Note,
			})
		}
		rows = append(rows, row)
	}

	return &Comparison{
		RfqID:     rfq.ID,
		Code:      rfq.Code,
		Title:     rfq.Title,
		Status:    rfq.Status,
		Columns:   columns,
		Rows:      rows,
		Suggested: SuggestAllocation(rfq),
	}, nil
}
