package trade

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/procura/backend/internal/domain/shared"
)

// AggregateTypePurchaseOrder is the aggregate type for purchase order events
const AggregateTypePurchaseOrder = "PurchaseOrder"

// Purchase order event types
const (
	EventTypePurchaseOrderCreated   = "PurchaseOrderCreated"
	EventTypePurchaseOrderConfirmed = "PurchaseOrderConfirmed"
	EventTypePurchaseOrderCancelled = "PurchaseOrderCancelled"
)

// PurchaseOrderCreatedEvent is raised when an order is materialized from a
// finalized bidding round
type PurchaseOrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderNumber   string          `json:"order_number"`
	SupplierID    uuid.UUID       `json:"supplier_id"`
	SupplierName  string          `json:"supplier_name"`
	SourceRfqID   uuid.UUID       `json:"source_rfq_id"`
	SourceOfferID uuid.UUID       `json:"source_offer_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Currency      string          `json:"currency"`
	ItemCount     int             `json:"item_count"`
}

// NewPurchaseOrderCreatedEvent creates a new purchase order created event
func NewPurchaseOrderCreatedEvent(order *PurchaseOrder) *PurchaseOrderCreatedEvent {
	return &PurchaseOrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderCreated, AggregateTypePurchaseOrder, order.ID),
		OrderNumber:     order.OrderNumber,
		SupplierID:      order.SupplierID,
		SupplierName:    order.SupplierName,
		SourceRfqID:     order.SourceRfqID,
		SourceOfferID:   order.SourceOfferID,
		TotalAmount:     order.TotalAmount,
		Currency:        order.Currency.String(),
		ItemCount:       len(order.Items),
	}
}

// EventType returns the event type
func (e *PurchaseOrderCreatedEvent) EventType() string {
	return EventTypePurchaseOrderCreated
}

// PurchaseOrderConfirmedEvent is raised when an order is confirmed
type PurchaseOrderConfirmedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string    `json:"order_number"`
	SupplierID  uuid.UUID `json:"supplier_id"`
}

// NewPurchaseOrderConfirmedEvent creates a new purchase order confirmed event
func NewPurchaseOrderConfirmedEvent(order *PurchaseOrder) *PurchaseOrderConfirmedEvent {
	return &PurchaseOrderConfirmedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderConfirmed, AggregateTypePurchaseOrder, order.ID),
		OrderNumber:     order.OrderNumber,
		SupplierID:      order.SupplierID,
	}
}

// EventType returns the event type
func (e *PurchaseOrderConfirmedEvent) EventType() string {
	return EventTypePurchaseOrderConfirmed
}

// PurchaseOrderCancelledEvent is raised when a not-yet-confirmed order is cancelled
type PurchaseOrderCancelledEvent struct {
	shared.BaseDomainEvent
	OrderNumber string    `json:"order_number"`
	SupplierID  uuid.UUID `json:"supplier_id"`
	Reason      string    `json:"reason"`
}

// NewPurchaseOrderCancelledEvent creates a new purchase order cancelled event
func NewPurchaseOrderCancelledEvent(order *PurchaseOrder, reason string) *PurchaseOrderCancelledEvent {
	return &PurchaseOrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderCancelled, AggregateTypePurchaseOrder, order.ID),
		OrderNumber:     order.OrderNumber,
		SupplierID:      order.SupplierID,
		Reason:          reason,
	}
}

// EventType returns the event type
func (e *PurchaseOrderCancelledEvent) EventType() string {
	return EventTypePurchaseOrderCancelled
}
