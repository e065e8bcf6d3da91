package trade

import (
	"context"

	"github.com/google/uuid"

	"github.com/procura/backend/internal/domain/shared"
	"github.com/procura/backend/internal/domain/trade"
)

// PurchaseOrderService serves reads and lifecycle operations on materialized
// orders. Creation is not here: orders only come into existence through the
// finalize path.
type PurchaseOrderService struct {
	orderRepo      trade.PurchaseOrderRepository
	eventPublisher shared.EventPublisher
}

// NewPurchaseOrderService creates a new PurchaseOrderService
func NewPurchaseOrderService(orderRepo trade.PurchaseOrderRepository) *PurchaseOrderService {
	return &PurchaseOrderService{orderRepo: orderRepo}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *PurchaseOrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// GetByID retrieves a purchase order by ID
func (s *PurchaseOrderService) GetByID(ctx context.Context, orderID uuid.UUID) (*PurchaseOrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// GetByOrderNumber retrieves a purchase order by its order number
func (s *PurchaseOrderService) GetByOrderNumber(ctx context.Context, orderNumber string) (*PurchaseOrderResponse, error) {
	order, err := s.orderRepo.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// List retrieves purchase orders with pagination, optionally scoped to a supplier
func (s *PurchaseOrderService) List(ctx context.Context, filter shared.Filter, supplierID *uuid.UUID) (*PurchaseOrderListResponse, error) {
	var (
		orders []trade.PurchaseOrder
		err    error
	)
	if supplierID != nil {
		if filter.Filters == nil {
			filter.Filters = make(map[string]interface{})
		}
		filter.Filters["supplier_id"] = *supplierID
		orders, err = s.orderRepo.FindBySupplier(ctx, *supplierID, filter)
	} else {
		orders, err = s.orderRepo.FindAll(ctx, filter)
	}
	if err != nil {
		return nil, err
	}

	total, err := s.orderRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]PurchaseOrderResponse, 0, len(orders))
	for idx := range orders {
		items = append(items, ToPurchaseOrderResponse(&orders[idx]))
	}

	paginated := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &PurchaseOrderListResponse{
		Items:      paginated.Items,
		Total:      paginated.Total,
		Page:       paginated.Page,
		PageSize:   paginated.PageSize,
		TotalPages: paginated.TotalPages,
	}, nil
}

// ListBySourceRfq retrieves the orders materialized from one bidding round
func (s *PurchaseOrderService) ListBySourceRfq(ctx context.Context, rfqID uuid.UUID) ([]PurchaseOrderResponse, error) {
	orders, err := s.orderRepo.FindBySourceRfq(ctx, rfqID)
	if err != nil {
		return nil, err
	}
	items := make([]PurchaseOrderResponse, 0, len(orders))
	for idx := range orders {
		items = append(items, ToPurchaseOrderResponse(&orders[idx]))
	}
	return items, nil
}

// Confirm moves an order to CONFIRMED
func (s *PurchaseOrderService) Confirm(ctx context.Context, orderID uuid.UUID) (*PurchaseOrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.Confirm(); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, order.GetDomainEvents())
	order.ClearDomainEvents()

	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// Cancel cancels a not-yet-confirmed order
func (s *PurchaseOrderService) Cancel(ctx context.Context, orderID uuid.UUID, req CancelPurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.Cancel(req.Reason); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, order.GetDomainEvents())
	order.ClearDomainEvents()

	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// publishEvents publishes domain events best-effort
func (s *PurchaseOrderService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil {
		return
	}
	for _, event := range events {
		_ = s.eventPublisher.Publish(ctx, event)
	}
}
