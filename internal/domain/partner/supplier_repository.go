package partner

import (
	"context"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/shared"
)

// SupplierRepository defines the interface for supplier persistence
type SupplierRepository interface {
	// FindByID finds a supplier by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Supplier, error)

	// FindByIDs finds suppliers by a set of IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Supplier, error)

	// FindByCode finds a supplier by code
	FindByCode(ctx context.Context, code string) (*Supplier, error)

	// FindAll finds all suppliers with filtering
	FindAll(ctx context.Context, filter shared.Filter) ([]Supplier, error)

	// FindActive finds all active suppliers
	FindActive(ctx context.Context, filter shared.Filter) ([]Supplier, error)

	// Save creates or updates a supplier
	Save(ctx context.Context, supplier *Supplier) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, supplier *Supplier) error

	// Count counts suppliers with optional filters
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// ExistsByCode checks if a supplier code is already taken
	ExistsByCode(ctx context.Context, code string) (bool, error)
}
