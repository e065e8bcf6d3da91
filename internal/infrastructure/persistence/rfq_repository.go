package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/procura/backend/internal/domain/procurement"
	"github.com/procura/backend/internal/domain/shared"
)

// GormRfqRepository implements procurement.RfqRepository using GORM.
// Every Find loads the whole aggregate graph so state transitions always
// evaluate the round against its full set of line items, participants and
// offers.
type GormRfqRepository struct {
	db *gorm.DB
}

// NewGormRfqRepository creates a new GORM-based bidding round repository
func NewGormRfqRepository(db *gorm.DB) *GormRfqRepository {
	return &GormRfqRepository{db: db}
}

func (r *GormRfqRepository) withGraph(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Participants").
		Preload("Participants.Offer").
		Preload("Participants.Offer.Items")
}

// FindByID finds a bidding round by ID
func (r *GormRfqRepository) FindByID(ctx context.Context, id uuid.UUID) (*procurement.Rfq, error) {
	var rfq procurement.Rfq
	err := r.withGraph(ctx).Where("id = ?", id).First(&rfq).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rfq, nil
}

// FindByCode finds a bidding round by its human-readable code
func (r *GormRfqRepository) FindByCode(ctx context.Context, code string) (*procurement.Rfq, error) {
	var rfq procurement.Rfq
	err := r.withGraph(ctx).Where("code = ?", code).First(&rfq).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rfq, nil
}

// FindAll finds all bidding rounds with filtering
func (r *GormRfqRepository) FindAll(ctx context.Context, filter shared.Filter) ([]procurement.Rfq, error) {
	var rfqs []procurement.Rfq
	query := r.applyFilter(r.withGraph(ctx).Model(&procurement.Rfq{}), filter)
	if err := query.Find(&rfqs).Error; err != nil {
		return nil, err
	}
	return rfqs, nil
}

// FindByStatus finds bidding rounds by status
func (r *GormRfqRepository) FindByStatus(ctx context.Context, status procurement.RfqStatus, filter shared.Filter) ([]procurement.Rfq, error) {
	var rfqs []procurement.Rfq
	query := r.withGraph(ctx).Model(&procurement.Rfq{}).Where("status = ?", status)
	query = r.applyFilter(query, filter)
	if err := query.Find(&rfqs).Error; err != nil {
		return nil, err
	}
	return rfqs, nil
}

// FindBySupplier finds bidding rounds a supplier participates in
func (r *GormRfqRepository) FindBySupplier(ctx context.Context, supplierID uuid.UUID, filter shared.Filter) ([]procurement.Rfq, error) {
	var rfqs []procurement.Rfq
	query := r.withGraph(ctx).Model(&procurement.Rfq{}).
		Where("id IN (?)", r.db.Model(&procurement.Participant{}).
			Select("rfq_id").
			Where("supplier_id = ?", supplierID))
	query = r.applyFilter(query, filter)
	if err := query.Find(&rfqs).Error; err != nil {
		return nil, err
	}
	return rfqs, nil
}

// Save creates or updates a bidding round and its children
func (r *GormRfqRepository) Save(ctx context.Context, rfq *procurement.Rfq) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items", "Participants").Save(rfq).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return shared.ErrAlreadyExists
			}
			return err
		}
		return r.saveChildren(tx, rfq)
	})
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormRfqRepository) SaveWithLock(ctx context.Context, rfq *procurement.Rfq) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var currentVersion int
		err := tx.Model(&procurement.Rfq{}).
			Where("id = ?", rfq.ID).
			Select("version").
			Scan(&currentVersion).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		if currentVersion != rfq.Version {
			return shared.ErrConcurrencyConflict
		}

		rfq.Version++
		rfq.UpdatedAt = time.Now()

		result := tx.Model(&procurement.Rfq{}).
			Where("id = ? AND version = ?", rfq.ID, currentVersion).
			Updates(map[string]interface{}{
				"code":          rfq.Code,
				"title":         rfq.Title,
				"request_id":    rfq.RequestID,
				"status":        rfq.Status,
				"published_at":  rfq.PublishedAt,
				"completed_at":  rfq.CompletedAt,
				"cancelled_at":  rfq.CancelledAt,
				"cancel_reason": rfq.CancelReason,
				"version":       rfq.Version,
				"updated_at":    rfq.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		return r.saveChildren(tx, rfq)
	})
}

// saveChildren reconciles the round's line items, participants and offers
// with what is currently stored: rows missing from the aggregate are deleted,
// the rest are upserted.
func (r *GormRfqRepository) saveChildren(tx *gorm.DB, rfq *procurement.Rfq) error {
	// Line items
	itemIDs := make([]uuid.UUID, len(rfq.Items))
	for i, item := range rfq.Items {
		itemIDs[i] = item.ID
	}
	if len(itemIDs) > 0 {
		if err := tx.Where("rfq_id = ? AND id NOT IN ?", rfq.ID, itemIDs).
			Delete(&procurement.RfqLineItem{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("rfq_id = ?", rfq.ID).
			Delete(&procurement.RfqLineItem{}).Error; err != nil {
			return err
		}
	}
	for i := range rfq.Items {
		rfq.Items[i].RfqID = rfq.ID
		if err := tx.Save(&rfq.Items[i]).Error; err != nil {
			return err
		}
	}

	// Participants
	participantIDs := make([]uuid.UUID, len(rfq.Participants))
	for i, p := range rfq.Participants {
		participantIDs[i] = p.ID
	}
	if len(participantIDs) > 0 {
		if err := tx.Where("rfq_id = ? AND id NOT IN ?", rfq.ID, participantIDs).
			Delete(&procurement.Participant{}).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Where("rfq_id = ?", rfq.ID).
			Delete(&procurement.Participant{}).Error; err != nil {
			return err
		}
	}
	for i := range rfq.Participants {
		rfq.Participants[i].RfqID = rfq.ID
		if err := tx.Omit("Offer").Save(&rfq.Participants[i]).Error; err != nil {
			return err
		}
	}

	// Offers and their lines
	offerIDs := make([]uuid.UUID, 0, len(rfq.Participants))
	for i := range rfq.Participants {
		offer := rfq.Participants[i].Offer
		if offer == nil {
			continue
		}
		offer.ParticipantID = rfq.Participants[i].ID
		offer.RfqID = rfq.ID
		if err := tx.Omit("Items").Save(offer).Error; err != nil {
			return err
		}

		lineIDs := make([]uuid.UUID, len(offer.Items))
		for j, line := range offer.Items {
			lineIDs[j] = line.ID
		}
		if len(lineIDs) > 0 {
			if err := tx.Where("offer_id = ? AND id NOT IN ?", offer.ID, lineIDs).
				Delete(&procurement.OfferLineItem{}).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Where("offer_id = ?", offer.ID).
				Delete(&procurement.OfferLineItem{}).Error; err != nil {
				return err
			}
		}
		for j := range offer.Items {
			offer.Items[j].OfferID = offer.ID
			if err := tx.Save(&offer.Items[j]).Error; err != nil {
				return err
			}
		}

		offerIDs = append(offerIDs, offer.ID)
	}

	// Remove offers that no longer belong to any participant
	var stray []uuid.UUID
	strayQuery := tx.Model(&procurement.Offer{}).Where("rfq_id = ?", rfq.ID)
	if len(offerIDs) > 0 {
		strayQuery = strayQuery.Where("id NOT IN ?", offerIDs)
	}
	if err := strayQuery.Pluck("id", &stray).Error; err != nil {
		return err
	}
	if len(stray) > 0 {
		if err := tx.Where("offer_id IN ?", stray).
			Delete(&procurement.OfferLineItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", stray).
			Delete(&procurement.Offer{}).Error; err != nil {
			return err
		}
	}

	return nil
}

// Count counts bidding rounds with optional filters
func (r *GormRfqRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&procurement.Rfq{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByStatus counts bidding rounds by status
func (r *GormRfqRepository) CountByStatus(ctx context.Context, status procurement.RfqStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&procurement.Rfq{}).
		Where("status = ?", status).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByCode checks if a round code is already taken
func (r *GormRfqRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&procurement.Rfq{}).
		Where("code = ?", code).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GenerateCode generates a unique round code.
// Format: RFQ-YYYY-NNNNN (e.g. RFQ-2026-00001)
func (r *GormRfqRepository) GenerateCode(ctx context.Context) (string, error) {
	year := time.Now().Year()
	prefix := fmt.Sprintf("RFQ-%d-", year)

	var lastRfq procurement.Rfq
	err := r.db.WithContext(ctx).
		Model(&procurement.Rfq{}).
		Where("code LIKE ?", prefix+"%").
		Order("code DESC").
		First(&lastRfq).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var nextNum int64 = 1
	if err == nil && lastRfq.Code != "" {
		parts := strings.Split(lastRfq.Code, "-")
		if len(parts) == 3 {
			var num int64
			if _, parseErr := fmt.Sscanf(parts[2], "%d", &num); parseErr == nil {
				nextNum = num + 1
			}
		}
	}

	code := fmt.Sprintf("%s%05d", prefix, nextNum)

	exists, err := r.ExistsByCode(ctx, code)
	if err != nil {
		return "", err
	}
	if exists {
		for i := 0; i < 100; i++ {
			nextNum++
			code = fmt.Sprintf("%s%05d", prefix, nextNum)
			exists, err = r.ExistsByCode(ctx, code)
			if err != nil {
				return "", err
			}
			if !exists {
				break
			}
		}
	}

	return code, nil
}

// applyFilter applies filter options to the query
func (r *GormRfqRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
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
func (r *GormRfqRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("code ILIKE ? OR title ILIKE ?", searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "statuses":
			if statuses, ok := value.([]string); ok && len(statuses) > 0 {
				query = query.Where("status IN ?", statuses)
			}
		case "request_id":
			query = query.Where("request_id = ?", value)
		case "start_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("created_at >= ?", t)
			}
		case "end_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("created_at <= ?", t)
			}
		}
	}

	return query
}
