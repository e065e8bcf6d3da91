package procurement

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/procura/backend/internal/domain/procurement"
	"github.com/procura/backend/internal/domain/shared"
	"github.com/procura/backend/internal/domain/trade"
	"github.com/procura/backend/internal/infrastructure/telemetry"
)

// FinalizeService is the only component that materializes orders from a
// bidding round. Every finalize call is all-or-nothing: the round's status
// flip, the won flags and the created orders commit in one transaction
// through the award repository.
type FinalizeService struct {
	rfqRepo         procurement.RfqRepository
	orderRepo       trade.PurchaseOrderRepository
	awardRepo       trade.AwardRepository
	comparisons     *ComparisonService
	eventPublisher  shared.EventPublisher
	businessMetrics *telemetry.BusinessMetrics
	logger          *zap.Logger
}

// NewFinalizeService creates a new FinalizeService
func NewFinalizeService(
	rfqRepo procurement.RfqRepository,
	orderRepo trade.PurchaseOrderRepository,
	awardRepo trade.AwardRepository,
	logger *zap.Logger,
) *FinalizeService {
	return &FinalizeService{
		rfqRepo:   rfqRepo,
		orderRepo: orderRepo,
		awardRepo: awardRepo,
		logger:    logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *FinalizeService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetBusinessMetrics sets the business metrics collector
func (s *FinalizeService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// SetComparisonService wires the read side so its cache is dropped on commit
func (s *FinalizeService) SetComparisonService(comparisons *ComparisonService) {
	s.comparisons = comparisons
}

// FinalizeSingleWinner awards every requested line item to one offer and
// creates exactly one order. The offer must cover all line items of the
// round; otherwise the call fails with uncovered_items and nothing changes.
func (s *FinalizeService) FinalizeSingleWinner(ctx context.Context, rfqID uuid.UUID, req FinalizeSingleWinnerRequest) (*FinalizeResult, error) {
	rfq, err := s.loadActiveRound(ctx, rfqID)
	if err != nil {
		return nil, err
	}

	if rfq.OfferByID(req.OfferID) == nil {
		return nil, shared.ErrNotFound.WithDetail("offer_id", req.OfferID.String())
	}

	proposed := make([]procurement.AllocationEntry, 0, len(rfq.Items))
	for _, item := range rfq.Items {
		proposed = append(proposed, procurement.AllocationEntry{
			RfqLineItemID: item.ID,
			OfferID:       req.OfferID,
		})
	}

	allocation, err := procurement.ValidateAllocation(rfq, proposed)
	if err != nil {
		return nil, err
	}

	return s.commit(ctx, rfq, allocation, nil, req.FinalizedBy)
}

// FinalizeSplitWinners awards line items across several offers, creating one
// order per distinct winning offer. References from the request name the
// orders; offers without one get a generated order number. A reference
// collision fails the whole call with Conflict, nothing is renamed silently.
func (s *FinalizeService) FinalizeSplitWinners(ctx context.Context, rfqID uuid.UUID, req FinalizeSplitWinnersRequest) (*FinalizeResult, error) {
	rfq, err := s.loadActiveRound(ctx, rfqID)
	if err != nil {
		return nil, err
	}

	proposed := make([]procurement.AllocationEntry, 0, len(req.Allocation))
	for _, entry := range req.Allocation {
		proposed = append(proposed, procurement.AllocationEntry{
			RfqLineItemID: entry.RfqLineItemID,
			OfferID:       entry.OfferID,
		})
	}

	allocation, err := procurement.ValidateAllocation(rfq, proposed)
	if err != nil {
		return nil, err
	}

	return s.commit(ctx, rfq, allocation, req.ReferenceByOfferID, req.FinalizedBy)
}

// loadActiveRound loads the round and checks it can still be finalized
func (s *FinalizeService) loadActiveRound(ctx context.Context, rfqID uuid.UUID) (*procurement.Rfq, error) {
	rfq, err := s.rfqRepo.FindByID(ctx, rfqID)
	if err != nil {
		return nil, err
	}
	if rfq.IsCompleted() {
		return nil, shared.ErrAlreadyFinalized
	}
	if !rfq.IsActive() {
		return nil, shared.NewDomainError("INVALID_STATE",
			"Only an ACTIVE round can be finalized, current status: "+rfq.Status.String())
	}
	return rfq, nil
}

// commit materializes the validated allocation: builds one order per winning
// offer with recomputed totals, flips the won flags, and hands everything to
// the award repository for the single guarded transaction.
func (s *FinalizeService) commit(ctx context.Context, rfq *procurement.Rfq, allocation *procurement.Allocation, referenceByOffer map[uuid.UUID]string, finalizedBy uuid.UUID) (*FinalizeResult, error) {
	groups := allocation.GroupByOffer()

	// Offers without a caller-supplied reference share one reservation pass,
	// so two orders of the same award can never collide on order number.
	missing := 0
	for _, group := range groups {
		if referenceByOffer[group.OfferID] == "" {
			missing++
		}
	}
	var generated []string
	if missing > 0 {
		var err error
		generated, err = s.orderRepo.GenerateOrderNumbers(ctx, missing)
		if err != nil {
			return nil, err
		}
	}

	orders := make([]*trade.PurchaseOrder, 0, len(groups))
	for _, group := range groups {
		reference := referenceByOffer[group.OfferID]
		if reference == "" {
			reference = generated[0]
			generated = generated[1:]
		}

		order, err := trade.NewPurchaseOrderFromAward(reference, rfq, group.OfferID, group.LineItemIDs)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	for _, group := range groups {
		rfq.OfferByID(group.OfferID).Won = true
	}
	if err := rfq.MarkCompleted(); err != nil {
		return nil, err
	}

	if err := s.awardRepo.CommitAward(ctx, rfq, orders); err != nil {
		return nil, err
	}

	s.afterCommit(ctx, rfq, orders, finalizedBy)

	result := &FinalizeResult{
		RfqID:   rfq.ID,
		RfqCode: rfq.Code,
		Orders:  make([]FinalizedOrderResult, 0, len(orders)),
	}
	for _, order := range orders {
		result.Orders = append(result.Orders, ToFinalizedOrderResult(order))
	}
	return result, nil
}

// afterCommit publishes events, records metrics and drops the cached matrix.
// All of it is best-effort; the award has already committed.
func (s *FinalizeService) afterCommit(ctx context.Context, rfq *procurement.Rfq, orders []*trade.PurchaseOrder, finalizedBy uuid.UUID) {
	if s.comparisons != nil {
		s.comparisons.InvalidateCache(ctx, rfq.ID)
	}

	if s.eventPublisher != nil {
		events := make([]shared.DomainEvent, 0, len(orders)+1)
		for _, order := range orders {
			events = append(events, order.GetDomainEvents()...)
			order.ClearDomainEvents()
		}

		orderInfos := make([]procurement.FinalizedOrderInfo, 0, len(orders))
		wonOfferIDs := make([]uuid.UUID, 0, len(orders))
		for _, order := range orders {
			wonOfferIDs = append(wonOfferIDs, order.SourceOfferID)
			orderInfos = append(orderInfos, procurement.FinalizedOrderInfo{
				OrderID:      order.ID,
				OrderNumber:  order.OrderNumber,
				OfferID:      order.SourceOfferID,
				SupplierID:   order.SupplierID,
				SupplierName: order.SupplierName,
				TotalAmount:  order.TotalAmount,
				ItemCount:    order.ItemCount(),
			})
		}
		events = append(events, procurement.NewRfqFinalizedEvent(rfq, finalizedBy, wonOfferIDs, orderInfos))

		if err := s.eventPublisher.Publish(ctx, events...); err != nil {
			s.logger.Warn("finalize event publication failed",
				zap.String("rfq_id", rfq.ID.String()),
				zap.Error(err))
		}
	}

	if s.businessMetrics != nil {
		for _, order := range orders {
			s.businessMetrics.RecordOrderCreated(ctx, order.TotalAmount)
		}
		s.businessMetrics.RecordRfqFinalized(ctx, len(orders))
	}
}
