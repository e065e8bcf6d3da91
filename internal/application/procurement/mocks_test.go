package procurement

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/procura/backend/internal/domain/partner"
	"github.com/procura/backend/internal/domain/procurement"
	"github.com/procura/backend/internal/domain/shared"
	"github.com/procura/backend/internal/domain/trade"
)

// MockRfqRepository is a mock implementation of procurement.RfqRepository
type MockRfqRepository struct {
	mock.Mock
}

func (m *MockRfqRepository) FindByID(ctx context.Context, id uuid.UUID) (*procurement.Rfq, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*procurement.Rfq), args.Error(1)
}

func (m *MockRfqRepository) FindByCode(ctx context.Context, code string) (*procurement.Rfq, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*procurement.Rfq), args.Error(1)
}

func (m *MockRfqRepository) FindAll(ctx context.Context, filter shared.Filter) ([]procurement.Rfq, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]procurement.Rfq), args.Error(1)
}

func (m *MockRfqRepository) FindByStatus(ctx context.Context, status procurement.RfqStatus, filter shared.Filter) ([]procurement.Rfq, error) {
	args := m.Called(ctx, status, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]procurement.Rfq), args.Error(1)
}

func (m *MockRfqRepository) FindBySupplier(ctx context.Context, supplierID uuid.UUID, filter shared.Filter) ([]procurement.Rfq, error) {
	args := m.Called(ctx, supplierID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]procurement.Rfq), args.Error(1)
}

func (m *MockRfqRepository) Save(ctx context.Context, rfq *procurement.Rfq) error {
	args := m.Called(ctx, rfq)
	return args.Error(0)
}

func (m *MockRfqRepository) SaveWithLock(ctx context.Context, rfq *procurement.Rfq) error {
	args := m.Called(ctx, rfq)
	return args.Error(0)
}

func (m *MockRfqRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRfqRepository) CountByStatus(ctx context.Context, status procurement.RfqStatus) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRfqRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockRfqRepository) GenerateCode(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockSupplierRepository is a mock implementation of partner.SupplierRepository
type MockSupplierRepository struct {
	mock.Mock
}

func (m *MockSupplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Supplier, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Supplier), args.Error(1)
}

func (m *MockSupplierRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]partner.Supplier, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]partner.Supplier), args.Error(1)
}

func (m *MockSupplierRepository) FindByCode(ctx context.Context, code string) (*partner.Supplier, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Supplier), args.Error(1)
}

func (m *MockSupplierRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Supplier, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]partner.Supplier), args.Error(1)
}

func (m *MockSupplierRepository) FindActive(ctx context.Context, filter shared.Filter) ([]partner.Supplier, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]partner.Supplier), args.Error(1)
}

func (m *MockSupplierRepository) Save(ctx context.Context, supplier *partner.Supplier) error {
	args := m.Called(ctx, supplier)
	return args.Error(0)
}

func (m *MockSupplierRepository) SaveWithLock(ctx context.Context, supplier *partner.Supplier) error {
	args := m.Called(ctx, supplier)
	return args.Error(0)
}

func (m *MockSupplierRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSupplierRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

// MockPurchaseOrderRepository is a mock implementation of trade.PurchaseOrderRepository
type MockPurchaseOrderRepository struct {
	mock.Mock
}

func (m *MockPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.PurchaseOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*trade.PurchaseOrder, error) {
	args := m.Called(ctx, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]trade.PurchaseOrder, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]trade.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) FindBySupplier(ctx context.Context, supplierID uuid.UUID, filter shared.Filter) ([]trade.PurchaseOrder, error) {
	args := m.Called(ctx, supplierID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]trade.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) FindBySourceRfq(ctx context.Context, rfqID uuid.UUID) ([]trade.PurchaseOrder, error) {
	args := m.Called(ctx, rfqID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]trade.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) Save(ctx context.Context, order *trade.PurchaseOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockPurchaseOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPurchaseOrderRepository) ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error) {
	args := m.Called(ctx, orderNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MockPurchaseOrderRepository) GenerateOrderNumbers(ctx context.Context, count int) ([]string, error) {
	args := m.Called(ctx, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockAwardRepository is a mock implementation of trade.AwardRepository
type MockAwardRepository struct {
	mock.Mock
}

func (m *MockAwardRepository) CommitAward(ctx context.Context, rfq *procurement.Rfq, orders []*trade.PurchaseOrder) error {
	args := m.Called(ctx, rfq, orders)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// MockComparisonCache is a mock implementation of ComparisonCache
type MockComparisonCache struct {
	mock.Mock
}

func (m *MockComparisonCache) Get(ctx context.Context, rfqID uuid.UUID) (*procurement.Comparison, error) {
	args := m.Called(ctx, rfqID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*procurement.Comparison), args.Error(1)
}

func (m *MockComparisonCache) Set(ctx context.Context, comparison *procurement.Comparison) error {
	args := m.Called(ctx, comparison)
	return args.Error(0)
}

func (m *MockComparisonCache) Invalidate(ctx context.Context, rfqID uuid.UUID) error {
	args := m.Called(ctx, rfqID)
	return args.Error(0)
}

// MockNotificationDispatcher is a mock implementation of NotificationDispatcher
type MockNotificationDispatcher struct {
	mock.Mock
}

func (m *MockNotificationDispatcher) Dispatch(ctx context.Context, notification Notification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

// MockAuditRecorder is a mock implementation of AuditRecorder
type MockAuditRecorder struct {
	mock.Mock
}

func (m *MockAuditRecorder) Record(ctx context.Context, entry AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}
