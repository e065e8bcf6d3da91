package procurement

import (
	"context"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/partner"
	"github.com/procura/backend/internal/domain/procurement"
	"github.com/procura/backend/internal/domain/shared"
	"github.com/procura/backend/internal/domain/shared/valueobject"
	"github.com/procura/backend/internal/infrastructure/telemetry"
)

// RfqService handles bidding round lifecycle operations
type RfqService struct {
	rfqRepo         procurement.RfqRepository
	supplierRepo    partner.SupplierRepository
	comparisons     *ComparisonService
	eventPublisher  shared.EventPublisher
	businessMetrics *telemetry.BusinessMetrics
}

// NewRfqService creates a new RfqService
func NewRfqService(rfqRepo procurement.RfqRepository, supplierRepo partner.SupplierRepository) *RfqService {
	return &RfqService{
		rfqRepo:      rfqRepo,
		supplierRepo: supplierRepo,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *RfqService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetBusinessMetrics sets the business metrics collector
func (s *RfqService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// SetComparisonService wires the read side so its cache is dropped when a new
// offer changes the matrix
func (s *RfqService) SetComparisonService(comparisons *ComparisonService) {
	s.comparisons = comparisons
}

// Create opens a new bidding round in DRAFT status. Line items and supplier
// invitations may be supplied inline; supplier names are resolved from the
// directory and snapshotted onto the participants.
func (s *RfqService) Create(ctx context.Context, req CreateRfqRequest) (*RfqResponse, error) {
	code, err := s.rfqRepo.GenerateCode(ctx)
	if err != nil {
		return nil, err
	}

	rfq, err := procurement.NewRfq(code, req.Title, req.RequestID)
	if err != nil {
		return nil, err
	}

	for _, item := range req.Items {
		if _, err := rfq.AddLineItem(item.Name, item.Unit, item.RequestedQuantity); err != nil {
			return nil, err
		}
	}

	for _, p := range req.Participants {
		if err := s.invite(ctx, rfq, p.SupplierID); err != nil {
			return nil, err
		}
	}

	if err := s.rfqRepo.Save(ctx, rfq); err != nil {
		return nil, err
	}

	response := ToRfqResponse(rfq)
	return &response, nil
}

// invite resolves a supplier and adds it to the round as a participant
func (s *RfqService) invite(ctx context.Context, rfq *procurement.Rfq, supplierID uuid.UUID) error {
	supplier, err := s.supplierRepo.FindByID(ctx, supplierID)
	if err != nil {
		return err
	}
	if !supplier.IsActive() {
		return shared.NewDomainError("SUPPLIER_INACTIVE", "Inactive suppliers cannot be invited").
			WithDetail("supplier_id", supplierID.String())
	}
	_, err = rfq.AddParticipant(supplier.ID, supplier.Name, supplier.Email)
	return err
}

// GetByID retrieves a bidding round by ID
func (s *RfqService) GetByID(ctx context.Context, rfqID uuid.UUID) (*RfqResponse, error) {
	rfq, err := s.rfqRepo.FindByID(ctx, rfqID)
	if err != nil {
		return nil, err
	}
	response := ToRfqResponse(rfq)
	return &response, nil
}

// List retrieves bidding rounds with pagination, optionally filtered by status
func (s *RfqService) List(ctx context.Context, filter shared.Filter, status *procurement.RfqStatus) (*RfqListResponse, error) {
	var (
		rfqs []procurement.Rfq
		err  error
	)
	if status != nil {
		rfqs, err = s.rfqRepo.FindByStatus(ctx, *status, filter)
	} else {
		rfqs, err = s.rfqRepo.FindAll(ctx, filter)
	}
	if err != nil {
		return nil, err
	}

	var total int64
	if status != nil {
		total, err = s.rfqRepo.CountByStatus(ctx, *status)
	} else {
		total, err = s.rfqRepo.Count(ctx, filter)
	}
	if err != nil {
		return nil, err
	}

	items := make([]RfqResponse, 0, len(rfqs))
	for idx := range rfqs {
		items = append(items, ToRfqResponse(&rfqs[idx]))
	}

	paginated := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &RfqListResponse{
		Items:      paginated.Items,
		Total:      paginated.Total,
		Page:       paginated.Page,
		PageSize:   paginated.PageSize,
		TotalPages: paginated.TotalPages,
	}, nil
}

// AddLineItem adds a requested line item to a draft round
func (s *RfqService) AddLineItem(ctx context.Context, rfqID uuid.UUID, req AddLineItemRequest) (*RfqResponse, error) {
	rfq, err := s.rfqRepo.FindByID(ctx, rfqID)
	if err != nil {
		return nil, err
	}

	if _, err := rfq.AddLineItem(req.Name, req.Unit, req.RequestedQuantity); err != nil {
		return nil, err
	}

	if err := s.rfqRepo.SaveWithLock(ctx, rfq); err != nil {
		return nil, err
	}

	response := ToRfqResponse(rfq)
	return &response, nil
}

// AddParticipant invites a supplier into a draft round
func (s *RfqService) AddParticipant(ctx context.Context, rfqID uuid.UUID, req AddParticipantRequest) (*RfqResponse, error) {
	rfq, err := s.rfqRepo.FindByID(ctx, rfqID)
	if err != nil {
		return nil, err
	}

	if err := s.invite(ctx, rfq, req.SupplierID); err != nil {
		return nil, err
	}

	if err := s.rfqRepo.SaveWithLock(ctx, rfq); err != nil {
		return nil, err
	}

	response := ToRfqResponse(rfq)
	return &response, nil
}

// Publish opens a draft round for bidding
func (s *RfqService) Publish(ctx context.Context, rfqID uuid.UUID) (*RfqResponse, error) {
	rfq, err := s.rfqRepo.FindByID(ctx, rfqID)
	if err != nil {
		return nil, err
	}

	if err := rfq.Publish(); err != nil {
		return nil, err
	}

	events := rfq.GetDomainEvents()
	rfq.ClearDomainEvents()

	if err := s.rfqRepo.SaveWithLock(ctx, rfq); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, events)
	if s.businessMetrics != nil {
		s.businessMetrics.RecordRfqPublished(ctx)
	}

	response := ToRfqResponse(rfq)
	return &response, nil
}

// Cancel cancels a round that has not been completed
func (s *RfqService) Cancel(ctx context.Context, rfqID uuid.UUID, req CancelRfqRequest) (*RfqResponse, error) {
	rfq, err := s.rfqRepo.FindByID(ctx, rfqID)
	if err != nil {
		return nil, err
	}

	if err := rfq.Cancel(req.Reason); err != nil {
		return nil, err
	}

	events := rfq.GetDomainEvents()
	rfq.ClearDomainEvents()

	if err := s.rfqRepo.SaveWithLock(ctx, rfq); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, events)

	response := ToRfqResponse(rfq)
	return &response, nil
}

// RecordView marks that a participant has opened the round
func (s *RfqService) RecordView(ctx context.Context, rfqID, participantID uuid.UUID) error {
	rfq, err := s.rfqRepo.FindByID(ctx, rfqID)
	if err != nil {
		return err
	}

	if err := rfq.RecordView(participantID); err != nil {
		return err
	}

	return s.rfqRepo.SaveWithLock(ctx, rfq)
}

// SubmitOffer records a participant's priced response. The offer total is
// recomputed from the submitted lines; any client-side total is discarded.
func (s *RfqService) SubmitOffer(ctx context.Context, rfqID uuid.UUID, req SubmitOfferRequest) (*OfferResponse, error) {
	rfq, err := s.rfqRepo.FindByID(ctx, rfqID)
	if err != nil {
		return nil, err
	}

	currency := valueobject.Currency(req.Currency)
	if req.Currency == "" {
		currency = valueobject.DefaultCurrency
	}

	lines := make([]procurement.OfferLineInput, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, procurement.OfferLineInput{
			RfqLineItemID: item.RfqLineItemID,
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			Brand:         item.Brand,
			Note:          item.Note,
		})
	}

	offer, err := rfq.SubmitOffer(req.ParticipantID, currency, lines)
	if err != nil {
		return nil, err
	}

	events := rfq.GetDomainEvents()
	rfq.ClearDomainEvents()

	if err := s.rfqRepo.SaveWithLock(ctx, rfq); err != nil {
		return nil, err
	}

	if s.comparisons != nil {
		s.comparisons.InvalidateCache(ctx, rfq.ID)
	}
	s.publishEvents(ctx, events)
	if s.businessMetrics != nil {
		s.businessMetrics.RecordOfferSubmitted(ctx)
	}

	response := ToOfferResponse(offer)
	return &response, nil
}

// publishEvents publishes domain events after a successful save. Delivery is
// best-effort; a failing subscriber never undoes the state change.
func (s *RfqService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}
