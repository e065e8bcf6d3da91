package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/procura/backend/internal/domain/procurement"
	"github.com/procura/backend/internal/domain/shared"
	"github.com/procura/backend/internal/domain/trade"
)

// GormAwardRepository implements trade.AwardRepository using GORM.
// The award is a single transaction: the guarded ACTIVE -> COMPLETED flip on
// the round, the won flags on the winning offers, and the inserted orders
// either all persist or none do.
type GormAwardRepository struct {
	db *gorm.DB
}

// NewGormAwardRepository creates a new GORM-based award repository
func NewGormAwardRepository(db *gorm.DB) *GormAwardRepository {
	return &GormAwardRepository{db: db}
}

// CommitAward atomically completes the round and persists the given orders
func (r *GormAwardRepository) CommitAward(ctx context.Context, rfq *procurement.Rfq, orders []*trade.PurchaseOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The status guard is the concurrency barrier: only one committer can
		// flip the round away from ACTIVE, every later attempt affects zero
		// rows.
		result := tx.Model(&procurement.Rfq{}).
			Where("id = ? AND status = ?", rfq.ID, procurement.RfqStatusActive).
			Updates(map[string]interface{}{
				"status":       rfq.Status,
				"completed_at": rfq.CompletedAt,
				"version":      rfq.Version,
				"updated_at":   rfq.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return r.classifyGuardFailure(tx, rfq)
		}

		for _, offer := range rfq.SubmittedOffers() {
			if err := tx.Model(&procurement.Offer{}).
				Where("id = ?", offer.ID).
				Update("won", offer.Won).Error; err != nil {
				return err
			}
		}

		for _, order := range orders {
			if err := tx.Omit("Items").Create(order).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return shared.ErrConflict
				}
				return err
			}
			for i := range order.Items {
				order.Items[i].OrderID = order.ID
				if err := tx.Create(&order.Items[i]).Error; err != nil {
					if errors.Is(err, gorm.ErrDuplicatedKey) {
						return shared.ErrConflict
					}
					return err
				}
			}
		}

		return nil
	})
}

// classifyGuardFailure explains why the guarded flip affected zero rows
func (r *GormAwardRepository) classifyGuardFailure(tx *gorm.DB, rfq *procurement.Rfq) error {
	var status procurement.RfqStatus
	err := tx.Model(&procurement.Rfq{}).
		Where("id = ?", rfq.ID).
		Select("status").
		Scan(&status).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return shared.ErrNotFound
		}
		return err
	}
	if status == "" {
		return shared.ErrNotFound
	}
	if status == procurement.RfqStatusCompleted {
		return shared.ErrAlreadyFinalized
	}
	return shared.ErrInvalidState
}
