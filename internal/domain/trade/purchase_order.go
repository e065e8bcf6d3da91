package trade

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/procura/backend/internal/domain/procurement"
	"github.com/procura/backend/internal/domain/shared"
	"github.com/procura/backend/internal/domain/shared/valueobject"
)

// PurchaseOrderStatus represents the status of a purchase order
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusCreated   PurchaseOrderStatus = "CREATED"
	PurchaseOrderStatusConfirmed PurchaseOrderStatus = "CONFIRMED"
	PurchaseOrderStatusCancelled PurchaseOrderStatus = "CANCELLED"
)

// IsValid checks if the status is a valid PurchaseOrderStatus
func (s PurchaseOrderStatus) IsValid() bool {
	switch s {
	case PurchaseOrderStatusCreated, PurchaseOrderStatusConfirmed, PurchaseOrderStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of PurchaseOrderStatus
func (s PurchaseOrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s PurchaseOrderStatus) CanTransitionTo(target PurchaseOrderStatus) bool {
	switch s {
	case PurchaseOrderStatusCreated:
		return target == PurchaseOrderStatusConfirmed || target == PurchaseOrderStatusCancelled
	case PurchaseOrderStatusConfirmed, PurchaseOrderStatusCancelled:
		return false // Terminal states
	}
	return false
}

// PurchaseOrderItem represents a line item in a purchase order. It snapshots
// the awarded line at commit time, so later edits to the round never change
// what was ordered.
type PurchaseOrderItem struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	RfqLineItemID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name          string          `gorm:"type:varchar(200);not null"`
	Quantity      decimal.Decimal `gorm:"type:decimal(18,4);not null"` // Requested quantity carried over from the round
	Unit          string          `gorm:"type:varchar(20);not null"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(18,4);not null"` // Stored quoted price, never a client echo
	Amount        decimal.Decimal `gorm:"type:decimal(18,4);not null"` // Quantity * UnitPrice
	Brand         string          `gorm:"type:varchar(100)"`
	Remark        string          `gorm:"type:varchar(500)"`
	CreatedAt     time.Time       `gorm:"not null"`
	UpdatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PurchaseOrderItem) TableName() string {
	return "purchase_order_items"
}

// PurchaseOrder represents an order materialized from a finalized bidding
// round. Orders are only ever created through NewPurchaseOrderFromAward.
type PurchaseOrder struct {
	shared.BaseAggregateRoot
	OrderNumber   string               `gorm:"type:varchar(50);not null;uniqueIndex"`
	SupplierID    uuid.UUID            `gorm:"type:uuid;not null;index"`
	SupplierName  string               `gorm:"type:varchar(200);not null"`
	SourceRfqID   uuid.UUID            `gorm:"type:uuid;not null;index"`
	SourceOfferID uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex"`
	Status        PurchaseOrderStatus  `gorm:"type:varchar(20);not null;default:'CREATED'"`
	Currency      valueobject.Currency `gorm:"type:varchar(3);not null"`
	TotalAmount   decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	OrderDate     time.Time            `gorm:"not null"`
	Remark        string               `gorm:"type:varchar(500)"`
	Items         []PurchaseOrderItem  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// NewPurchaseOrderFromAward materializes one order from the awarded offer and
// the line items it won. Quantities come from the round's requested line
// items, prices from the stored offer lines; the total is recomputed here and
// nowhere else.
func NewPurchaseOrderFromAward(orderNumber string, rfq *procurement.Rfq, offerID uuid.UUID, lineItemIDs []uuid.UUID) (*PurchaseOrder, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	offer := rfq.OfferByID(offerID)
	if offer == nil {
		return nil, shared.NewDomainError("OFFER_NOT_FOUND", fmt.Sprintf("Offer %s does not belong to round %s", offerID, rfq.Code))
	}
	participant := rfq.ParticipantForOffer(offerID)
	if participant == nil {
		return nil, shared.NewDomainError("PARTICIPANT_NOT_FOUND", fmt.Sprintf("No participant owns offer %s", offerID))
	}
	if len(lineItemIDs) == 0 {
		return nil, shared.NewDomainError("EMPTY_ORDER", "An order must carry at least one line item")
	}

	order := &PurchaseOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		SupplierID:        participant.SupplierID,
		SupplierName:      participant.SupplierName,
		SourceRfqID:       rfq.ID,
		SourceOfferID:     offer.ID,
		Status:            PurchaseOrderStatusCreated,
		Currency:          offer.Currency,
		TotalAmount:       decimal.Zero,
		OrderDate:         time.Now(),
		Items:             make([]PurchaseOrderItem, 0, len(lineItemIDs)),
	}

	now := time.Now()
	total := valueobject.Zero(offer.Currency)
	for _, lineItemID := range lineItemIDs {
		item := rfq.LineItem(lineItemID)
		if item == nil {
			return nil, shared.NewDomainError("LINE_ITEM_NOT_FOUND", fmt.Sprintf("Line item %s does not belong to round %s", lineItemID, rfq.Code))
		}
		line := offer.LineFor(lineItemID)
		if line == nil {
			return nil, shared.NewDomainError("LINE_NOT_QUOTED", fmt.Sprintf("Offer %s did not quote line item %s", offer.ID, lineItemID))
		}

		unitPrice, err := valueobject.NewMoney(line.UnitPrice, offer.Currency)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_CURRENCY", err.Error())
		}
		lineAmount := unitPrice.Multiply(item.RequestedQuantity)
		sum, err := total.Add(lineAmount)
		if err != nil {
			return nil, shared.NewDomainError("CURRENCY_MISMATCH", err.Error())
		}
		total = sum
		amount := lineAmount.Amount()
		order.Items = append(order.Items, PurchaseOrderItem{
			ID:            uuid.New(),
			OrderID:       order.ID,
			RfqLineItemID: item.ID,
			Name:          item.Name,
			Quantity:      item.RequestedQuantity,
			Unit:          item.Unit,
			UnitPrice:     line.UnitPrice,
			Amount:        amount,
			Brand:         line.Brand,
			Remark:        line.Note,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}
	order.TotalAmount = total.Amount()

	order.AddDomainEvent(NewPurchaseOrderCreatedEvent(order))
	return order, nil
}

// Confirm moves the order to CONFIRMED
func (o *PurchaseOrder) Confirm() error {
	if !o.Status.CanTransitionTo(PurchaseOrderStatusConfirmed) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot confirm order in status %s", o.Status))
	}
	o.Status = PurchaseOrderStatusConfirmed
	o.UpdatedAt = time.Now()
	o.AddDomainEvent(NewPurchaseOrderConfirmedEvent(o))
	return nil
}

// Cancel cancels a not-yet-confirmed order
func (o *PurchaseOrder) Cancel(reason string) error {
	if !o.Status.CanTransitionTo(PurchaseOrderStatusCancelled) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel order in status %s", o.Status))
	}
	o.Status = PurchaseOrderStatusCancelled
	o.Remark = reason
	o.UpdatedAt = time.Now()
	o.AddDomainEvent(NewPurchaseOrderCancelledEvent(o, reason))
	return nil
}

// TotalMoney returns the order total as a money value
func (o *PurchaseOrder) TotalMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(o.TotalAmount, o.Currency)
	return m
}

// ItemCount returns the number of line items on the order
func (o *PurchaseOrder) ItemCount() int {
	return len(o.Items)
}
