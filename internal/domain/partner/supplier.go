package partner

import (
	"strings"
	"time"

	"github.com/procura/backend/internal/domain/shared"
)

// SupplierStatus represents the status of a supplier
type SupplierStatus string

const (
	SupplierStatusActive   SupplierStatus = "active"
	SupplierStatusInactive SupplierStatus = "inactive"
)

// Supplier represents a supplier in the partner context. The bidding engine
// reads it to resolve participant display names and contact channels;
// participants snapshot the name at invitation time.
type Supplier struct {
	shared.BaseAggregateRoot
	Code        string         `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name        string         `gorm:"type:varchar(200);not null"`
	ContactName string         `gorm:"type:varchar(100)"`
	Phone       string         `gorm:"type:varchar(50);index"`
	Email       string         `gorm:"type:varchar(200);index"`
	TaxID       string         `gorm:"type:varchar(50)"`
	Status      SupplierStatus `gorm:"type:varchar(20);not null;default:'active'"`
	Notes       string         `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Supplier) TableName() string {
	return "suppliers"
}

// NewSupplier creates a new supplier with required fields
func NewSupplier(code, name string) (*Supplier, error) {
	if err := validateSupplierCode(code); err != nil {
		return nil, err
	}
	if err := validateSupplierName(name); err != nil {
		return nil, err
	}

	supplier := &Supplier{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Name:              name,
		Status:            SupplierStatusActive,
	}

	supplier.AddDomainEvent(NewSupplierCreatedEvent(supplier))

	return supplier, nil
}

// Update updates the supplier's basic information
func (s *Supplier) Update(name string) error {
	if err := validateSupplierName(name); err != nil {
		return err
	}

	s.Name = name
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	return nil
}

// SetContact sets the supplier's contact information
func (s *Supplier) SetContact(contactName, phone, email string) error {
	if contactName != "" && len(contactName) > 100 {
		return shared.NewDomainError("INVALID_CONTACT_NAME", "Contact name cannot exceed 100 characters")
	}
	if email != "" {
		if err := validateEmail(email); err != nil {
			return err
		}
	}

	s.ContactName = contactName
	s.Phone = phone
	s.Email = email
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	return nil
}

// SetTaxID sets the supplier's tax identification number
func (s *Supplier) SetTaxID(taxID string) error {
	if taxID != "" && len(taxID) > 50 {
		return shared.NewDomainError("INVALID_TAX_ID", "Tax ID cannot exceed 50 characters")
	}

	s.TaxID = taxID
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	return nil
}

// SetNotes sets the supplier's notes
func (s *Supplier) SetNotes(notes string) {
	s.Notes = notes
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
}

// Activate activates the supplier
func (s *Supplier) Activate() error {
	if s.Status == SupplierStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Supplier is already active")
	}

	s.Status = SupplierStatusActive
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	return nil
}

// Deactivate deactivates the supplier. Inactive suppliers cannot be invited
// to new bidding rounds.
func (s *Supplier) Deactivate() error {
	if s.Status == SupplierStatusInactive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Supplier is already inactive")
	}

	s.Status = SupplierStatusInactive
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	return nil
}

// IsActive returns true if the supplier is active
func (s *Supplier) IsActive() bool {
	return s.Status == SupplierStatusActive
}

// Validation functions

func validateSupplierCode(code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_CODE", "Supplier code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError("INVALID_CODE", "Supplier code cannot exceed 50 characters")
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError("INVALID_CODE", "Supplier code can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

func validateSupplierName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Supplier name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Supplier name cannot exceed 200 characters")
	}
	return nil
}

func validateEmail(email string) error {
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || !strings.Contains(email[at:], ".") {
		return shared.NewDomainError("INVALID_EMAIL", "Email format is invalid")
	}
	return nil
}
