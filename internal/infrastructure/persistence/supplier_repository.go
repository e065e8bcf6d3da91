package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/procura/backend/internal/domain/partner"
	"github.com/procura/backend/internal/domain/shared"
)

// GormSupplierRepository implements partner.SupplierRepository using GORM
type GormSupplierRepository struct {
	db *gorm.DB
}

// NewGormSupplierRepository creates a new GORM-based supplier repository
func NewGormSupplierRepository(db *gorm.DB) *GormSupplierRepository {
	return &GormSupplierRepository{db: db}
}

// FindByID finds a supplier by ID
func (r *GormSupplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Supplier, error) {
	var supplier partner.Supplier
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&supplier).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &supplier, nil
}

// FindByIDs finds suppliers by a set of IDs
func (r *GormSupplierRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]partner.Supplier, error) {
	if len(ids) == 0 {
		return []partner.Supplier{}, nil
	}
	var suppliers []partner.Supplier
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&suppliers).Error
	if err != nil {
		return nil, err
	}
	return suppliers, nil
}

// FindByCode finds a supplier by code
func (r *GormSupplierRepository) FindByCode(ctx context.Context, code string) (*partner.Supplier, error) {
	var supplier partner.Supplier
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&supplier).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &supplier, nil
}

// FindAll finds all suppliers with filtering
func (r *GormSupplierRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Supplier, error) {
	var suppliers []partner.Supplier
	query := r.applyFilter(r.db.WithContext(ctx).Model(&partner.Supplier{}), filter)
	if err := query.Find(&suppliers).Error; err != nil {
		return nil, err
	}
	return suppliers, nil
}

// FindActive finds all active suppliers
func (r *GormSupplierRepository) FindActive(ctx context.Context, filter shared.Filter) ([]partner.Supplier, error) {
	var suppliers []partner.Supplier
	query := r.db.WithContext(ctx).Model(&partner.Supplier{}).
		Where("status = ?", partner.SupplierStatusActive)
	query = r.applyFilter(query, filter)
	if err := query.Find(&suppliers).Error; err != nil {
		return nil, err
	}
	return suppliers, nil
}

// Save creates or updates a supplier
func (r *GormSupplierRepository) Save(ctx context.Context, supplier *partner.Supplier) error {
	if err := r.db.WithContext(ctx).Save(supplier).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// SaveWithLock saves a supplier with optimistic locking
func (r *GormSupplierRepository) SaveWithLock(ctx context.Context, supplier *partner.Supplier) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current partner.Supplier
		if err := tx.Select("version").Where("id = ?", supplier.ID).First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		if current.Version != supplier.Version {
			return shared.ErrConcurrencyConflict
		}

		supplier.IncrementVersion()

		result := tx.Model(&partner.Supplier{}).
			Where("id = ? AND version = ?", supplier.ID, current.Version).
			Updates(map[string]interface{}{
				"code":         supplier.Code,
				"name":         supplier.Name,
				"contact_name": supplier.ContactName,
				"phone":        supplier.Phone,
				"email":        supplier.Email,
				"tax_id":       supplier.TaxID,
				"status":       supplier.Status,
				"notes":        supplier.Notes,
				"version":      supplier.Version,
				"updated_at":   supplier.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		return nil
	})
}

// Count counts suppliers with optional filters
func (r *GormSupplierRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&partner.Supplier{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByCode checks if a supplier code is already taken
func (r *GormSupplierRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&partner.Supplier{}).
		Where("code = ?", code).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// applyFilter applies filter options to the query
func (r *GormSupplierRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormSupplierRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("code ILIKE ? OR name ILIKE ? OR contact_name ILIKE ?",
			searchPattern, searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "email":
			query = query.Where("email = ?", value)
		case "phone":
			query = query.Where("phone = ?", value)
		}
	}

	return query
}
