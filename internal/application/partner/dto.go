package partner

import (
	"time"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/partner"
)

// CreateSupplierRequest represents a request to register a supplier
type CreateSupplierRequest struct {
	Code        string `json:"code" binding:"required,min=1,max=50"`
	Name        string `json:"name" binding:"required,min=1,max=200"`
	ContactName string `json:"contact_name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	TaxID       string `json:"tax_id"`
	Notes       string `json:"notes"`
}

// UpdateSupplierRequest represents a request to update a supplier
type UpdateSupplierRequest struct {
	Name        *string `json:"name"`
	ContactName *string `json:"contact_name"`
	Phone       *string `json:"phone"`
	Email       *string `json:"email"`
	TaxID       *string `json:"tax_id"`
	Notes       *string `json:"notes"`
}

// SupplierResponse represents a supplier in API responses
type SupplierResponse struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	ContactName string    `json:"contact_name,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Email       string    `json:"email,omitempty"`
	TaxID       string    `json:"tax_id,omitempty"`
	Status      string    `json:"status"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SupplierListResponse is a paginated list of suppliers
type SupplierListResponse struct {
	Items      []SupplierResponse `json:"items"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalPages int                `json:"total_pages"`
}

// ToSupplierResponse converts a domain supplier to its response
func ToSupplierResponse(s *partner.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:          s.ID,
		Code:        s.Code,
		Name:        s.Name,
		ContactName: s.ContactName,
		Phone:       s.Phone,
		Email:       s.Email,
		TaxID:       s.TaxID,
		Status:      string(s.Status),
		Notes:       s.Notes,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}
