package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/procura/backend/internal/domain/shared"
	"github.com/procura/backend/internal/domain/trade"
)

// GormPurchaseOrderRepository implements trade.PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

// NewGormPurchaseOrderRepository creates a new GORM-based purchase order repository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

// FindByID finds a purchase order by ID
func (r *GormPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.PurchaseOrder, error) {
	var order trade.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByOrderNumber finds a purchase order by order number
func (r *GormPurchaseOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*trade.PurchaseOrder, error) {
	var order trade.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("order_number = ?", orderNumber).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindAll finds all purchase orders with filtering
func (r *GormPurchaseOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]trade.PurchaseOrder, error) {
	var orders []trade.PurchaseOrder
	query := r.applyFilter(
		r.db.WithContext(ctx).Preload("Items").Model(&trade.PurchaseOrder{}),
		filter,
	)
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindBySupplier finds purchase orders for a supplier
func (r *GormPurchaseOrderRepository) FindBySupplier(ctx context.Context, supplierID uuid.UUID, filter shared.Filter) ([]trade.PurchaseOrder, error) {
	var orders []trade.PurchaseOrder
	query := r.db.WithContext(ctx).Preload("Items").Model(&trade.PurchaseOrder{}).
		Where("supplier_id = ?", supplierID)
	query = r.applyFilter(query, filter)
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindBySourceRfq finds the orders materialized from a bidding round
func (r *GormPurchaseOrderRepository) FindBySourceRfq(ctx context.Context, rfqID uuid.UUID) ([]trade.PurchaseOrder, error) {
	var orders []trade.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("source_rfq_id = ?", rfqID).
		Order("order_number ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// Save creates or updates a purchase order and its items
func (r *GormPurchaseOrderRepository) Save(ctx context.Context, order *trade.PurchaseOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(order).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return shared.ErrConflict
			}
			return err
		}

		itemIDs := make([]uuid.UUID, len(order.Items))
		for i, item := range order.Items {
			itemIDs[i] = item.ID
		}
		if len(itemIDs) > 0 {
			if err := tx.Where("order_id = ? AND id NOT IN ?", order.ID, itemIDs).
				Delete(&trade.PurchaseOrderItem{}).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Where("order_id = ?", order.ID).
				Delete(&trade.PurchaseOrderItem{}).Error; err != nil {
				return err
			}
		}
		for i := range order.Items {
			order.Items[i].OrderID = order.ID
			if err := tx.Save(&order.Items[i]).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// Count counts purchase orders with optional filters
func (r *GormPurchaseOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&trade.PurchaseOrder{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByOrderNumber checks if an order number is already taken
func (r *GormPurchaseOrderRepository) ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&trade.PurchaseOrder{}).
		Where("order_number = ?", orderNumber).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GenerateOrderNumbers reserves count sequential unique order numbers.
// Format: PO-YYYY-NNNNN (e.g. PO-2026-00001). One MAX scan seeds the
// sequence; every candidate is still checked against caller-supplied
// references that never went through the generator.
func (r *GormPurchaseOrderRepository) GenerateOrderNumbers(ctx context.Context, count int) ([]string, error) {
	if count <= 0 {
		return nil, nil
	}

	year := time.Now().Year()
	prefix := fmt.Sprintf("PO-%d-", year)

	var lastOrder trade.PurchaseOrder
	err := r.db.WithContext(ctx).
		Model(&trade.PurchaseOrder{}).
		Where("order_number LIKE ?", prefix+"%").
		Order("order_number DESC").
		First(&lastOrder).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var nextNum int64 = 1
	if err == nil && lastOrder.OrderNumber != "" {
		parts := strings.Split(lastOrder.OrderNumber, "-")
		if len(parts) == 3 {
			var num int64
			if _, parseErr := fmt.Sscanf(parts[2], "%d", &num); parseErr == nil {
				nextNum = num + 1
			}
		}
	}

	numbers := make([]string, 0, count)
	for attempts := 0; len(numbers) < count; attempts++ {
		if attempts > count+100 {
			return nil, shared.ErrConflict.WithDetail("order_number", "sequence exhausted")
		}
		candidate := fmt.Sprintf("%s%05d", prefix, nextNum)
		nextNum++

		exists, err := r.ExistsByOrderNumber(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}
		numbers = append(numbers, candidate)
	}

	return numbers, nil
}

// applyFilter applies filter options to the query
func (r *GormPurchaseOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
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
func (r *GormPurchaseOrderRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("order_number ILIKE ? OR supplier_name ILIKE ?",
			searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "supplier_id":
			query = query.Where("supplier_id = ?", value)
		case "source_rfq_id":
			query = query.Where("source_rfq_id = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "start_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("order_date >= ?", t)
			}
		case "end_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("order_date <= ?", t)
			}
		}
	}

	return query
}
