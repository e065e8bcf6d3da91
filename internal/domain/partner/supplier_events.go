package partner

import (
	"github.com/procura/backend/internal/domain/shared"
)

// AggregateTypeSupplier is the aggregate type for supplier events
const AggregateTypeSupplier = "Supplier"

// Supplier event types
const (
	EventTypeSupplierCreated = "supplier.created"
)

// SupplierCreatedEvent is raised when a supplier is registered
type SupplierCreatedEvent struct {
	shared.BaseDomainEvent
	Code string `json:"code"`
	Name string `json:"name"`
}

// NewSupplierCreatedEvent creates a new supplier created event
func NewSupplierCreatedEvent(supplier *Supplier) *SupplierCreatedEvent {
	return &SupplierCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSupplierCreated, AggregateTypeSupplier, supplier.ID),
		Code:            supplier.Code,
		Name:            supplier.Name,
	}
}

// EventType returns the event type
func (e *SupplierCreatedEvent) EventType() string {
	return EventTypeSupplierCreated
}
