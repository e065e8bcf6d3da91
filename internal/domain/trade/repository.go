package trade

import (
	"context"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/procurement"
	"github.com/procura/backend/internal/domain/shared"
)

// PurchaseOrderRepository defines the interface for purchase order persistence
type PurchaseOrderRepository interface {
	// FindByID finds a purchase order by ID
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)

	// FindByOrderNumber finds a purchase order by order number
	FindByOrderNumber(ctx context.Context, orderNumber string) (*PurchaseOrder, error)

	// FindAll finds all purchase orders with filtering
	FindAll(ctx context.Context, filter shared.Filter) ([]PurchaseOrder, error)

	// FindBySupplier finds purchase orders for a supplier
	FindBySupplier(ctx context.Context, supplierID uuid.UUID, filter shared.Filter) ([]PurchaseOrder, error)

	// FindBySourceRfq finds the orders materialized from a bidding round
	FindBySourceRfq(ctx context.Context, rfqID uuid.UUID) ([]PurchaseOrder, error)

	// Save creates or updates a purchase order
	Save(ctx context.Context, order *PurchaseOrder) error

	// Count counts purchase orders with optional filters
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// ExistsByOrderNumber checks if an order number is already taken
	ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error)

	// GenerateOrderNumbers reserves count sequential unique order numbers in
	// one pass, so a multi-order award never hands out the same number twice
	GenerateOrderNumbers(ctx context.Context, count int) ([]string, error)
}

// AwardRepository commits the outcome of a finalized bidding round. The whole
// award is one transaction: the round's guarded ACTIVE -> COMPLETED flip, the
// won flags on the winning offers, and the inserted orders either all persist
// or none do.
type AwardRepository interface {
	// CommitAward atomically completes the round and persists the given
	// orders. Returns shared.ErrAlreadyFinalized when the round was already
	// COMPLETED by a concurrent call, shared.ErrInvalidState when it is not
	// ACTIVE, and shared.ErrConflict on an order number collision.
	CommitAward(ctx context.Context, rfq *procurement.Rfq, orders []*PurchaseOrder) error
}
