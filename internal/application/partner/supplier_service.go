package partner

import (
	"context"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/partner"
	"github.com/procura/backend/internal/domain/shared"
)

// SupplierService handles the supplier directory
type SupplierService struct {
	supplierRepo   partner.SupplierRepository
	eventPublisher shared.EventPublisher
}

// NewSupplierService creates a new SupplierService
func NewSupplierService(supplierRepo partner.SupplierRepository) *SupplierService {
	return &SupplierService{supplierRepo: supplierRepo}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *SupplierService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create registers a new supplier
func (s *SupplierService) Create(ctx context.Context, req CreateSupplierRequest) (*SupplierResponse, error) {
	exists, err := s.supplierRepo.ExistsByCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.ErrAlreadyExists.WithDetail("code", req.Code)
	}

	supplier, err := partner.NewSupplier(req.Code, req.Name)
	if err != nil {
		return nil, err
	}
	if req.ContactName != "" || req.Phone != "" || req.Email != "" {
		if err := supplier.SetContact(req.ContactName, req.Phone, req.Email); err != nil {
			return nil, err
		}
	}
	if req.TaxID != "" {
		if err := supplier.SetTaxID(req.TaxID); err != nil {
			return nil, err
		}
	}
	if req.Notes != "" {
		supplier.SetNotes(req.Notes)
	}

	events := supplier.GetDomainEvents()
	supplier.ClearDomainEvents()

	if err := s.supplierRepo.Save(ctx, supplier); err != nil {
		return nil, err
	}

	if s.eventPublisher != nil && len(events) > 0 {
		_ = s.eventPublisher.Publish(ctx, events...)
	}

	response := ToSupplierResponse(supplier)
	return &response, nil
}

// GetByID retrieves a supplier by ID
func (s *SupplierService) GetByID(ctx context.Context, id uuid.UUID) (*SupplierResponse, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToSupplierResponse(supplier)
	return &response, nil
}

// List retrieves suppliers with pagination
func (s *SupplierService) List(ctx context.Context, filter shared.Filter, activeOnly bool) (*SupplierListResponse, error) {
	var (
		suppliers []partner.Supplier
		err       error
	)
	if activeOnly {
		suppliers, err = s.supplierRepo.FindActive(ctx, filter)
	} else {
		suppliers, err = s.supplierRepo.FindAll(ctx, filter)
	}
	if err != nil {
		return nil, err
	}

	total, err := s.supplierRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]SupplierResponse, 0, len(suppliers))
	for idx := range suppliers {
		items = append(items, ToSupplierResponse(&suppliers[idx]))
	}

	paginated := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &SupplierListResponse{
		Items:      paginated.Items,
		Total:      paginated.Total,
		Page:       paginated.Page,
		PageSize:   paginated.PageSize,
		TotalPages: paginated.TotalPages,
	}, nil
}

// Update updates a supplier's details
func (s *SupplierService) Update(ctx context.Context, id uuid.UUID, req UpdateSupplierRequest) (*SupplierResponse, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if err := supplier.Update(*req.Name); err != nil {
			return nil, err
		}
	}
	if req.ContactName != nil || req.Phone != nil || req.Email != nil {
		contactName := supplier.ContactName
		phone := supplier.Phone
		email := supplier.Email
		if req.ContactName != nil {
			contactName = *req.ContactName
		}
		if req.Phone != nil {
			phone = *req.Phone
		}
		if req.Email != nil {
			email = *req.Email
		}
		if err := supplier.SetContact(contactName, phone, email); err != nil {
			return nil, err
		}
	}
	if req.TaxID != nil {
		if err := supplier.SetTaxID(*req.TaxID); err != nil {
			return nil, err
		}
	}
	if req.Notes != nil {
		supplier.SetNotes(*req.Notes)
	}

	if err := s.supplierRepo.SaveWithLock(ctx, supplier); err != nil {
		return nil, err
	}

	response := ToSupplierResponse(supplier)
	return &response, nil
}

// Activate re-enables a supplier for new invitations
func (s *SupplierService) Activate(ctx context.Context, id uuid.UUID) (*SupplierResponse, error) {
	return s.setActive(ctx, id, true)
}

// Deactivate blocks a supplier from new invitations
func (s *SupplierService) Deactivate(ctx context.Context, id uuid.UUID) (*SupplierResponse, error) {
	return s.setActive(ctx, id, false)
}

func (s *SupplierService) setActive(ctx context.Context, id uuid.UUID, active bool) (*SupplierResponse, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if active {
		err = supplier.Activate()
	} else {
		err = supplier.Deactivate()
	}
	if err != nil {
		return nil, err
	}

	if err := s.supplierRepo.SaveWithLock(ctx, supplier); err != nil {
		return nil, err
	}

	response := ToSupplierResponse(supplier)
	return &response, nil
}
