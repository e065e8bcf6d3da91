package procurement

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/procura/backend/internal/domain/procurement"
	"github.com/procura/backend/internal/domain/shared"
)

// ComparisonCache caches assembled comparison matrices keyed by round ID.
// A miss returns (nil, nil); cache failures are soft, the matrix is rebuilt
// from the repository.
type ComparisonCache interface {
	Get(ctx context.Context, rfqID uuid.UUID) (*procurement.Comparison, error)
	Set(ctx context.Context, comparison *procurement.Comparison) error
	Invalidate(ctx context.Context, rfqID uuid.UUID) error
}

// ComparisonService serves the read side of a bidding round: the price
// matrix and the suggested allocation. It never mutates round state.
type ComparisonService struct {
	rfqRepo procurement.RfqRepository
	cache   ComparisonCache
	logger  *zap.Logger
}

// NewComparisonService creates a new ComparisonService
func NewComparisonService(rfqRepo procurement.RfqRepository, logger *zap.Logger) *ComparisonService {
	return &ComparisonService{
		rfqRepo: rfqRepo,
		logger:  logger,
	}
}

// SetCache sets the comparison cache
func (s *ComparisonService) SetCache(cache ComparisonCache) {
	s.cache = cache
}

// GetComparison returns the line item by supplier price matrix for an ACTIVE
// or COMPLETED round
func (s *ComparisonService) GetComparison(ctx context.Context, rfqID uuid.UUID) (*procurement.Comparison, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, rfqID)
		if err != nil {
			s.logger.Warn("comparison cache read failed",
				zap.String("rfq_id", rfqID.String()),
				zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	rfq, err := s.rfqRepo.FindByID(ctx, rfqID)
	if err != nil {
		return nil, err
	}

	comparison, err := procurement.BuildComparison(rfq)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, comparison); err != nil {
			s.logger.Warn("comparison cache write failed",
				zap.String("rfq_id", rfqID.String()),
				zap.Error(err))
		}
	}

	return comparison, nil
}

// SuggestAllocation returns the cheapest-first default mapping for operator
// review. Line items with no covering offer are reported as unresolved.
func (s *ComparisonService) SuggestAllocation(ctx context.Context, rfqID uuid.UUID) (*SuggestedAllocationResponse, error) {
	rfq, err := s.rfqRepo.FindByID(ctx, rfqID)
	if err != nil {
		return nil, err
	}

	if !rfq.IsActive() && !rfq.IsCompleted() {
		return nil, shared.NewDomainError("INVALID_STATE",
			"Suggestions are only available for ACTIVE or COMPLETED rounds, current status: "+rfq.Status.String())
	}

	response := ToSuggestedAllocationResponse(rfq.ID, procurement.SuggestAllocation(rfq))
	return &response, nil
}

// InvalidateCache drops the cached matrix for a round. Called after offer
// submissions and finalize commits.
func (s *ComparisonService) InvalidateCache(ctx context.Context, rfqID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, rfqID); err != nil {
		s.logger.Warn("comparison cache invalidation failed",
			zap.String("rfq_id", rfqID.String()),
			zap.Error(err))
	}
}
