package procurement

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/procura/backend/internal/domain/procurement"
	"github.com/procura/backend/internal/domain/shared"
)

// ==================== GetComparison ====================

func TestComparisonService_GetComparison_CacheMiss(t *testing.T) {
	rfqRepo := new(MockRfqRepository)
	cache := new(MockComparisonCache)
	service := NewComparisonService(rfqRepo, zap.NewNop())
	service.SetCache(cache)

	rfq := buildActiveRound(t, 2)
	submitFullOffer(t, rfq, 0, 100, 50)

	cache.On("Get", mock.Anything, rfq.ID).Return(nil, nil)
	rfqRepo.On("FindByID", mock.Anything, rfq.ID).Return(rfq, nil)
	cache.On("Set", mock.Anything, mock.AnythingOfType("*procurement.Comparison")).Return(nil)

	comparison, err := service.GetComparison(context.Background(), rfq.ID)
	require.NoError(t, err)

	assert.Equal(t, rfq.Code, comparison.Code)
	assert.Len(t, comparison.Columns, 2)
	assert.Len(t, comparison.Rows, 2)
	cache.AssertExpectations(t)
}

func TestComparisonService_GetComparison_CacheHit(t *testing.T) {
	rfqRepo := new(MockRfqRepository)
	cache := new(MockComparisonCache)
	service := NewComparisonService(rfqRepo, zap.NewNop())
	service.SetCache(cache)

	rfq := buildActiveRound(t, 1)
	submitFullOffer(t, rfq, 0, 100, 50)
	cached, err := procurement.BuildComparison(rfq)
	require.NoError(t, err)

	cache.On("Get", mock.Anything, rfq.ID).Return(cached, nil)

	comparison, err := service.GetComparison(context.Background(), rfq.ID)
	require.NoError(t, err)

	assert.Same(t, cached, comparison)
	rfqRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything)
}

// A broken cache degrades to the repository, it never fails the read.
func TestComparisonService_GetComparison_CacheFailureSoft(t *testing.T) {
	rfqRepo := new(MockRfqRepository)
	cache := new(MockComparisonCache)
	service := NewComparisonService(rfqRepo, zap.NewNop())
	service.SetCache(cache)

	rfq := buildActiveRound(t, 1)
	submitFullOffer(t, rfq, 0, 100, 50)

	cache.On("Get", mock.Anything, rfq.ID).Return(nil, errors.New("redis: connection refused"))
	rfqRepo.On("FindByID", mock.Anything, rfq.ID).Return(rfq, nil)
	cache.On("Set", mock.Anything, mock.Anything).Return(errors.New("redis: connection refused"))

	comparison, err := service.GetComparison(context.Background(), rfq.ID)
	require.NoError(t, err)
	assert.Equal(t, rfq.Code, comparison.Code)
}

func TestComparisonService_GetComparison_NoCache(t *testing.T) {
	rfqRepo := new(MockRfqRepository)
	service := NewComparisonService(rfqRepo, zap.NewNop())

	rfq := buildActiveRound(t, 1)
	rfqRepo.On("FindByID", mock.Anything, rfq.ID).Return(rfq, nil)

	comparison, err := service.GetComparison(context.Background(), rfq.ID)
	require.NoError(t, err)
	assert.Len(t, comparison.Columns, 1)
}

func TestComparisonService_GetComparison_DraftRound(t *testing.T) {
	rfqRepo := new(MockRfqRepository)
	service := NewComparisonService(rfqRepo, zap.NewNop())

	rfq, err := procurement.NewRfq("RFQ-2026-00011", "Not yet published", nil)
	require.NoError(t, err)
	rfqRepo.On("FindByID", mock.Anything, rfq.ID).Return(rfq, nil)

	_, err = service.GetComparison(context.Background(), rfq.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

// ==================== SuggestAllocation ====================

func TestComparisonService_SuggestAllocation(t *testing.T) {
	rfqRepo := new(MockRfqRepository)
	service := NewComparisonService(rfqRepo, zap.NewNop())

	rfq := buildActiveRound(t, 2)
	expensive := submitFullOffer(t, rfq, 0, 100, 50)
	cheap := submitFullOffer(t, rfq, 1, 90, 60)

	rfqRepo.On("FindByID", mock.Anything, rfq.ID).Return(rfq, nil)

	resp, err := service.SuggestAllocation(context.Background(), rfq.ID)
	require.NoError(t, err)

	require.Len(t, resp.Entries, 2)
	assert.Equal(t, cheap.ID, resp.Entries[0].OfferID)
	assert.Equal(t, expensive.ID, resp.Entries[1].OfferID)
	assert.Empty(t, resp.Unresolved)
}

func TestComparisonService_SuggestAllocation_Unresolved(t *testing.T) {
	rfqRepo := new(MockRfqRepository)
	service := NewComparisonService(rfqRepo, zap.NewNop())

	rfq := buildActiveRound(t, 1)
	_, err := rfq.SubmitOffer(rfq.Participants[0].ID, "TRY", []procurement.OfferLineInput{
		{RfqLineItemID: rfq.Items[0].ID, Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(100)},
	})
	require.NoError(t, err)

	rfqRepo.On("FindByID", mock.Anything, rfq.ID).Return(rfq, nil)

	resp, err := service.SuggestAllocation(context.Background(), rfq.ID)
	require.NoError(t, err)

	require.Len(t, resp.Entries, 1)
	assert.Equal(t, []uuid.UUID{rfq.Items[1].ID}, resp.Unresolved)
}

func TestComparisonService_SuggestAllocation_CancelledRound(t *testing.T) {
	rfqRepo := new(MockRfqRepository)
	service := NewComparisonService(rfqRepo, zap.NewNop())

	rfq := buildActiveRound(t, 1)
	require.NoError(t, rfq.Cancel("budget cut"))

	rfqRepo.On("FindByID", mock.Anything, rfq.ID).Return(rfq, nil)

	_, err := service.SuggestAllocation(context.Background(), rfq.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}
