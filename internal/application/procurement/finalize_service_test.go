package procurement

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/procura/backend/internal/domain/procurement"
	"github.com/procura/backend/internal/domain/shared"
	"github.com/procura/backend/internal/domain/trade"
)

func newFinalizeService(rfqRepo *MockRfqRepository, orderRepo *MockPurchaseOrderRepository, awardRepo *MockAwardRepository) *FinalizeService {
	return NewFinalizeService(rfqRepo, orderRepo, awardRepo, zap.NewNop())
}

// ==================== FinalizeSingleWinner ====================

func TestFinalizeService_FinalizeSingleWinner(t *testing.T) {
	rfqRepo := new(MockRfqRepository)
	orderRepo := new(MockPurchaseOrderRepository)
	awardRepo := new(MockAwardRepository)
	service := newFinalizeService(rfqRepo, orderRepo, awardRepo)

	rfq := buildActiveRound(t, 2)
	cheap := submitFullOffer(t, rfq, 0, 100, 50)
	submitFullOffer(t, rfq, 1, 90, 60)

	rfqRepo.On("FindByID", mock.Anything, rfq.ID).Return(rfq, nil)
	orderRepo.On("GenerateOrderNumbers", mock.Anything, 1).Return([]string{"PO-2026-00001"}, nil)
	awardRepo.On("CommitAward", mock.Anything, rfq, mock.AnythingOfType("[]*trade.PurchaseOrder")).Return(nil)

	result, err := service.FinalizeSingleWinner(context.Background(), rfq.ID, FinalizeSingleWinnerRequest{OfferID: cheap.ID})
	require.NoError(t, err)

	require.Len(t, result.Orders, 1)
	assert.Equal(t, rfq.Code, result.RfqCode)
	assert.Equal(t, "PO-2026-00001", result.Orders[0].OrderNumber)
	assert.Equal(t, cheap.ID, result.Orders[0].OfferID)
	// 10*100 + 20*50, recomputed from the stored offer lines
	assert.True(t, result.Orders[0].TotalAmount.Equal(decimal.NewFromInt(2000)))

	assert.True(t, rfq.IsCompleted())
	for _, offer := range rfq.SubmittedOffers() {
		assert.Equal(t, offer.ID == cheap.ID, offer.Won)
	}
	awardRepo.AssertExpectations(t)
}

func TestFinalizeService_FinalizeSingleWinner_OfferNotFound(t *testing.T) {
	rfqRepo := new(MockRfqRepository)
	awardRepo := new(MockAwardRepository)
	service := newFinalizeService(rfqRepo, new(MockPurchaseOrderRepository), awardRepo)

	rfq := buildActiveRound(t, 1)
	submitFullOffer(t, rfq, 0, 100, 50)

	rfqRepo.On("FindByID", mock.Anything, rfq.ID).Return(rfq, nil)

	_, err := service.FinalizeSingleWinner(context.Background(), rfq.ID, FinalizeSingleWinnerRequest{OfferID: uuid.New()})
	assert.ErrorIs(t, err, shared.ErrNotFound)
	awardRepo.AssertNotCalled(t, "CommitAward", mock.Anything, mock.Anything, mock.Anything)
}

func TestFinalizeService_FinalizeSingleWinner_PartialOffer(t *testing.T) {
	rfqRepo := new(MockRfqRepository)
	awardRepo := new(MockAwardRepository)
	service := newFinalizeService(rfqRepo, new(MockPurchaseOrderRepository), awardRepo)

	rfq := buildActiveRound(t, 1)
	offer, err := rfq.SubmitOffer(rfq.Participants[0].ID, "TRY", []procurement.OfferLineInput{
		{RfqLineItemID: rfq.Items[0].ID, Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(100)},
	})
	require.NoError(t, err)
	rfq.ClearDomainEvents()

	rfqRepo.On("FindByID", mock.Anything, rfq.ID).Return(rfq, nil)

	_, err = service.FinalizeSingleWinner(context.Background(), rfq.ID, FinalizeSingleWinnerRequest{OfferID: offer.ID})
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "VALIDATION_ERROR", domainErr.Code)
	assert.Equal(t, []string{rfq.Items[1].ID.String()}, domainErr.Details["uncovered_items"])

	// nothing changed and nothing was committed
	assert.True(t, rfq.IsActive())
	awardRepo.AssertNotCalled(t, "CommitAward", mock.Anything, mock.Anything, mock.Anything)
}

func TestFinalizeService_FinalizeSingleWinner_AlreadyCompleted(t *testing.T) {
	rfqRepo := new(MockRfqRepository)
	awardRepo := new(MockAwardRepository)
	service := newFinalizeService(rfqRepo, new(MockPurchaseOrderRepository), awardRepo)

	rfq := buildActiveRound(t, 1)
	offer := submitFullOffer(t, rfq, 0, 100, 50)
	require.NoError(t, rfq.MarkCompleted())

	rfqRepo.On("FindByID", mock.Anything, rfq.ID).Return(rfq, nil)

	_, err := service.FinalizeSingleWinner(context.Background(), rfq.ID, FinalizeSingleWinnerRequest{OfferID: offer.ID})
	assert.ErrorIs(t, err, shared.ErrAlreadyFinalized)
	awardRepo.AssertNotCalled(t, "CommitAward", mock.Anything, mock.Anything, mock.Anything)
}

func TestFinalizeService_FinalizeSingleWinner_DraftRound(t *testing.T) {
	rfqRepo := new(MockRfqRepository)
	service := newFinalizeService(rfqRepo, new(MockPurchaseOrderRepository), new(MockAwardRepository))

	rfq, err := procurement.NewRfq("RFQ-2026-00009", "Still drafting", nil)
	require.NoError(t, err)

	rfqRepo.On("FindByID", mock.Anything, rfq.ID).Return(rfq, nil)

	_, err = service.FinalizeSingleWinner(context.Background(), rfq.ID, FinalizeSingleWinnerRequest{OfferID: uuid.New()})
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

// Two callers race; the loser's transaction sees the status already flipped
// and the guarded update reports it as finalized.
func TestFinalizeService_FinalizeSingleWinner_CommitRace(t *testing.T) {
	rfqRepo := new(MockRfqRepository)
	orderRepo := new(MockPurchaseOrderRepository)
	awardRepo := new(MockAwardRepository)
	service := newFinalizeService(rfqRepo, orderRepo, awardRepo)

	rfq := buildActiveRound(t, 1)
	offer := submitFullOffer(t, rfq, 0, 100, 50)

	rfqRepo.On("FindByID", mock.Anything, rfq.ID).Return(rfq, nil)
	orderRepo.On("GenerateOrderNumbers", mock.Anything, 1).Return([]string{"PO-2026-00001"}, nil)
	awardRepo.On("CommitAward", mock.Anything, rfq, mock.Anything).Return(shared.ErrAlreadyFinalized)

	_, err := service.FinalizeSingleWinner(context.Background(), rfq.ID, FinalizeSingleWinnerRequest{OfferID: offer.ID})
	assert.ErrorIs(t, err, shared.ErrAlreadyFinalized)
}

// ==================== FinalizeSplitWinners ====================

func TestFinalizeService_FinalizeSplitWinners(t *testing.T) {
	rfqRepo := new(MockRfqRepository)
	orderRepo := new(MockPurchaseOrderRepository)
	awardRepo := new(MockAwardRepository)
	service := newFinalizeService(rfqRepo, orderRepo, awardRepo)

	rfq := buildActiveRound(t, 2)
	first := submitFullOffer(t, rfq, 0, 100, 50)
	second := submitFullOffer(t, rfq, 1, 90, 60)

	rfqRepo.On("FindByID", mock.Anything, rfq.ID).Return(rfq, nil)
	orderRepo.On("GenerateOrderNumbers", mock.Anything, 1).Return([]string{"PO-2026-00002"}, nil)

	var committed []*trade.PurchaseOrder
	awardRepo.On("CommitAward", mock.Anything, rfq, mock.Anything).
		Run(func(args mock.Arguments) {
			committed = args.Get(2).([]*trade.PurchaseOrder)
		}).Return(nil)

	result, err := service.FinalizeSplitWinners(context.Background(), rfq.ID, FinalizeSplitWinnersRequest{
		Allocation: []AllocationEntryInput{
			{RfqLineItemID: rfq.Items[0].ID, OfferID: second.ID},
			{RfqLineItemID: rfq.Items[1].ID, OfferID: first.ID},
		},
		ReferenceByOfferID: map[uuid.UUID]string{second.ID: "PO-CUSTOM-7"},
	})
	require.NoError(t, err)

	// one order per distinct winning offer
	require.Len(t, result.Orders, 2)
	require.Len(t, committed, 2)

	byOffer := make(map[uuid.UUID]FinalizedOrderResult)
	for _, order := range result.Orders {
		byOffer[order.OfferID] = order
	}
	assert.Equal(t, "PO-CUSTOM-7", byOffer[second.ID].OrderNumber)
	assert.Equal(t, "PO-2026-00002", byOffer[first.ID].OrderNumber)
	// item 0 at second's 90, item 1 at first's 50
	assert.True(t, byOffer[second.ID].TotalAmount.Equal(decimal.NewFromInt(900)))
	assert.True(t, byOffer[first.ID].TotalAmount.Equal(decimal.NewFromInt(1000)))

	assert.True(t, first.Won)
	assert.True(t, second.Won)
	assert.True(t, rfq.IsCompleted())
	orderRepo.AssertNumberOfCalls(t, "GenerateOrderNumbers", 1)
}

// A split with no explicit references must get a distinct generated number
// per winning offer from a single reservation pass.
func TestFinalizeService_FinalizeSplitWinners_GeneratedReferences(t *testing.T) {
	rfqRepo := new(MockRfqRepository)
	orderRepo := new(MockPurchaseOrderRepository)
	awardRepo := new(MockAwardRepository)
	service := newFinalizeService(rfqRepo, orderRepo, awardRepo)

	rfq := buildActiveRound(t, 2)
	first := submitFullOffer(t, rfq, 0, 100, 50)
	second := submitFullOffer(t, rfq, 1, 90, 60)

	rfqRepo.On("FindByID", mock.Anything, rfq.ID).Return(rfq, nil)
	orderRepo.On("GenerateOrderNumbers", mock.Anything, 2).Return([]string{"PO-2026-00004", "PO-2026-00005"}, nil)
	awardRepo.On("CommitAward", mock.Anything, rfq, mock.Anything).Return(nil)

	result, err := service.FinalizeSplitWinners(context.Background(), rfq.ID, FinalizeSplitWinnersRequest{
		Allocation: []AllocationEntryInput{
			{RfqLineItemID: rfq.Items[0].ID, OfferID: second.ID},
			{RfqLineItemID: rfq.Items[1].ID, OfferID: first.ID},
		},
	})
	require.NoError(t, err)

	require.Len(t, result.Orders, 2)
	assert.NotEqual(t, result.Orders[0].OrderNumber, result.Orders[1].OrderNumber)
	numbers := []string{result.Orders[0].OrderNumber, result.Orders[1].OrderNumber}
	assert.ElementsMatch(t, []string{"PO-2026-00004", "PO-2026-00005"}, numbers)
	orderRepo.AssertNumberOfCalls(t, "GenerateOrderNumbers", 1)
}

// The multiset of (line item, quantity) across all materialized orders must
// equal the round's line items, for single and split awards alike.
func TestFinalizeService_Finalize_ConservesLineItems(t *testing.T) {
	type itemKey struct {
		lineItemID uuid.UUID
		quantity   string
	}
	collect := func(orders []*trade.PurchaseOrder) map[itemKey]int {
		seen := make(map[itemKey]int)
		for _, order := range orders {
			for _, item := range order.Items {
				seen[itemKey{item.RfqLineItemID, item.Quantity.String()}]++
			}
		}
		return seen
	}
	expected := func(rfq *procurement.Rfq) map[itemKey]int {
		want := make(map[itemKey]int)
		for _, item := range rfq.Items {
			want[itemKey{item.ID, item.RequestedQuantity.String()}]++
		}
		return want
	}

	t.Run("single winner", func(t *testing.T) {
		rfqRepo := new(MockRfqRepository)
		orderRepo := new(MockPurchaseOrderRepository)
		awardRepo := new(MockAwardRepository)
		service := newFinalizeService(rfqRepo, orderRepo, awardRepo)

		rfq := buildActiveRound(t, 1)
		offer := submitFullOffer(t, rfq, 0, 100, 50)

		rfqRepo.On("FindByID", mock.Anything, rfq.ID).Return(rfq, nil)
		orderRepo.On("GenerateOrderNumbers", mock.Anything, 1).Return([]string{"PO-2026-00010"}, nil)

		var committed []*trade.PurchaseOrder
		awardRepo.On("CommitAward", mock.Anything, rfq, mock.Anything).
			Run(func(args mock.Arguments) {
				committed = args.Get(2).([]*trade.PurchaseOrder)
			}).Return(nil)

		_, err := service.FinalizeSingleWinner(context.Background(), rfq.ID, FinalizeSingleWinnerRequest{OfferID: offer.ID})
		require.NoError(t, err)
		assert.Equal(t, expected(rfq), collect(committed))
	})

	t.Run("split winners", func(t *testing.T) {
		rfqRepo := new(MockRfqRepository)
		orderRepo := new(MockPurchaseOrderRepository)
		awardRepo := new(MockAwardRepository)
		service := newFinalizeService(rfqRepo, orderRepo, awardRepo)

		rfq := buildActiveRound(t, 2)
		first := submitFullOffer(t, rfq, 0, 100, 50)
		second := submitFullOffer(t, rfq, 1, 90, 60)

		rfqRepo.On("FindByID", mock.Anything, rfq.ID).Return(rfq, nil)
		orderRepo.On("GenerateOrderNumbers", mock.Anything, 2).Return([]string{"PO-2026-00011", "PO-2026-00012"}, nil)

		var committed []*trade.PurchaseOrder
		awardRepo.On("CommitAward", mock.Anything, rfq, mock.Anything).
			Run(func(args mock.Arguments) {
				committed = args.Get(2).([]*trade.PurchaseOrder)
			}).Return(nil)

		_, err := service.FinalizeSplitWinners(context.Background(), rfq.ID, FinalizeSplitWinnersRequest{
			Allocation: []AllocationEntryInput{
				{RfqLineItemID: rfq.Items[0].ID, OfferID: second.ID},
				{RfqLineItemID: rfq.Items[1].ID, OfferID: first.ID},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, expected(rfq), collect(committed))
	})
}

func TestFinalizeService_FinalizeSplitWinners_DuplicateItem(t *testing.T) {
	rfqRepo := new(MockRfqRepository)
	awardRepo := new(MockAwardRepository)
	service := newFinalizeService(rfqRepo, new(MockPurchaseOrderRepository), awardRepo)

	rfq := buildActiveRound(t, 1)
	offer := submitFullOffer(t, rfq, 0, 100, 50)

	rfqRepo.On("FindByID", mock.Anything, rfq.ID).Return(rfq, nil)

	_, err := service.FinalizeSplitWinners(context.Background(), rfq.ID, FinalizeSplitWinnersRequest{
		Allocation: []AllocationEntryInput{
			{RfqLineItemID: rfq.Items[0].ID, OfferID: offer.ID},
			{RfqLineItemID: rfq.Items[0].ID, OfferID: offer.ID},
			{RfqLineItemID: rfq.Items[1].ID, OfferID: offer.ID},
		},
	})
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "VALIDATION_ERROR", domainErr.Code)
	assert.Contains(t, domainErr.Details, "duplicate_items")
	awardRepo.AssertNotCalled(t, "CommitAward", mock.Anything, mock.Anything, mock.Anything)
}

// ==================== afterCommit ====================

func TestFinalizeService_Finalize_PublishesEventsAndDropsCache(t *testing.T) {
	rfqRepo := new(MockRfqRepository)
	orderRepo := new(MockPurchaseOrderRepository)
	awardRepo := new(MockAwardRepository)
	service := newFinalizeService(rfqRepo, orderRepo, awardRepo)

	publisher := new(MockEventPublisher)
	service.SetEventPublisher(publisher)

	cache := new(MockComparisonCache)
	comparisons := NewComparisonService(rfqRepo, zap.NewNop())
	comparisons.SetCache(cache)
	service.SetComparisonService(comparisons)

	rfq := buildActiveRound(t, 1)
	offer := submitFullOffer(t, rfq, 0, 100, 50)

	rfqRepo.On("FindByID", mock.Anything, rfq.ID).Return(rfq, nil)
	orderRepo.On("GenerateOrderNumbers", mock.Anything, 1).Return([]string{"PO-2026-00003"}, nil)
	awardRepo.On("CommitAward", mock.Anything, rfq, mock.Anything).Return(nil)
	cache.On("Invalidate", mock.Anything, rfq.ID).Return(nil)

	var published []shared.DomainEvent
	publisher.On("Publish", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			published = args.Get(1).([]shared.DomainEvent)
		}).Return(nil)

	operatorID := uuid.New()
	_, err := service.FinalizeSingleWinner(context.Background(), rfq.ID, FinalizeSingleWinnerRequest{
		OfferID:     offer.ID,
		FinalizedBy: operatorID,
	})
	require.NoError(t, err)

	cache.AssertExpectations(t)

	// one order created event plus the finalized event, in that order
	require.Len(t, published, 2)
	assert.Equal(t, "PurchaseOrderCreated", published[0].EventType())

	finalized, ok := published[1].(*procurement.RfqFinalizedEvent)
	require.True(t, ok)
	assert.Equal(t, operatorID, finalized.FinalizedBy)
	assert.Equal(t, []uuid.UUID{offer.ID}, finalized.WonOfferIDs)
	require.Len(t, finalized.Orders, 1)
	assert.Equal(t, "PO-2026-00003", finalized.Orders[0].OrderNumber)
}
