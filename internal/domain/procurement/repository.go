package procurement

import (
	"context"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/shared"
)

// RfqRepository defines the interface for bidding round persistence.
// Implementations load the full aggregate graph (line items, participants and
// their offers) on every Find so state transitions always see the whole round.
type RfqRepository interface {
	// FindByID finds a bidding round by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Rfq, error)

	// FindByCode finds a bidding round by its human-readable code
	FindByCode(ctx context.Context, code string) (*Rfq, error)

	// FindAll finds all bidding rounds with filtering
	FindAll(ctx context.Context, filter shared.Filter) ([]Rfq, error)

	// FindByStatus finds bidding rounds by status
	FindByStatus(ctx context.Context, status RfqStatus, filter shared.Filter) ([]Rfq, error)

	// FindBySupplier finds bidding rounds a supplier participates in
	FindBySupplier(ctx context.Context, supplierID uuid.UUID, filter shared.Filter) ([]Rfq, error)

	// Save creates or updates a bidding round and its children
	Save(ctx context.Context, rfq *Rfq) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, rfq *Rfq) error

	// Count counts bidding rounds with optional filters
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// CountByStatus counts bidding rounds by status
	CountByStatus(ctx context.Context, status RfqStatus) (int64, error)

	// ExistsByCode checks if a round code is already taken
	ExistsByCode(ctx context.Context, code string) (bool, error)

	// GenerateCode generates the next unique round code
	GenerateCode(ctx context.Context) (string, error)
}
