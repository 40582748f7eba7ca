package services

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"pricing-service/internal/locks"
	"pricing-service/internal/models"
	"pricing-service/internal/repository"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// MockPricingRepository is a mock implementation of PricingRepositoryInterface
type MockPricingRepository struct {
	mock.Mock
}

var _ repository.PricingRepositoryInterface = (*MockPricingRepository)(nil)

func (m *MockPricingRepository) ListTenantIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockPricingRepository) ListProducts(ctx context.Context, tenantID string) ([]models.Product, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockPricingRepository) GetProduct(ctx context.Context, tenantID string, productID uuid.UUID) (*models.Product, error) {
	args := m.Called(ctx, tenantID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockPricingRepository) GetPricingRecord(ctx context.Context, tenantID string, productID uuid.UUID) (*models.PricingRecord, error) {
	args := m.Called(ctx, tenantID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PricingRecord), args.Error(1)
}

func (m *MockPricingRepository) GetPriceHistory(ctx context.Context, tenantID string, productID uuid.UUID) ([]models.PriceHistoryEntry, error) {
	args := m.Called(ctx, tenantID, productID)
	return args.Get(0).([]models.PriceHistoryEntry), args.Error(1)
}

func (m *MockPricingRepository) ApplyPriceChange(ctx context.Context, change repository.PriceChange) error {
	args := m.Called(ctx, change)
	return args.Error(0)
}

func (m *MockPricingRepository) InitializeProduct(ctx context.Context, in repository.InitializeInput) (bool, error) {
	args := m.Called(ctx, in)
	return args.Bool(0), args.Error(1)
}

func (m *MockPricingRepository) BackfillBasePrices(ctx context.Context, tenantID string) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPricingRepository) ListPricingSummaries(ctx context.Context, tenantID string) ([]models.PricingSummaryRow, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]models.PricingSummaryRow), args.Error(1)
}

// MockStockRepository is a mock implementation of StockRepositoryInterface
type MockStockRepository struct {
	mock.Mock
}

var _ repository.StockRepositoryInterface = (*MockStockRepository)(nil)

func (m *MockStockRepository) ListProducts(ctx context.Context, tenantID, location string) ([]models.Product, error) {
	args := m.Called(ctx, tenantID, location)
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockStockRepository) GetProduct(ctx context.Context, tenantID string, productID uuid.UUID) (*models.Product, error) {
	args := m.Called(ctx, tenantID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockStockRepository) CreateSupplier(ctx context.Context, supplier *models.Supplier) error {
	args := m.Called(ctx, supplier)
	return args.Error(0)
}

func (m *MockStockRepository) BulkCreateSuppliers(ctx context.Context, tenantID string, suppliers []*models.Supplier, skipDuplicates bool) (*repository.BulkCreateSupplierResult, error) {
	args := m.Called(ctx, tenantID, suppliers, skipDuplicates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.BulkCreateSupplierResult), args.Error(1)
}

func (m *MockStockRepository) ListSuppliers(ctx context.Context, tenantID, location string) ([]models.Supplier, error) {
	args := m.Called(ctx, tenantID, location)
	return args.Get(0).([]models.Supplier), args.Error(1)
}

func (m *MockStockRepository) GetSupplier(ctx context.Context, tenantID string, supplierID uuid.UUID) (*models.Supplier, error) {
	args := m.Called(ctx, tenantID, supplierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Supplier), args.Error(1)
}

func (m *MockStockRepository) FindMostReliableSupplier(ctx context.Context, tenantID, location string) (*models.Supplier, error) {
	args := m.Called(ctx, tenantID, location)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Supplier), args.Error(1)
}

func (m *MockStockRepository) ListAlerts(ctx context.Context, tenantID string, filter repository.AlertFilter) ([]models.StockAlert, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]models.StockAlert), args.Error(1)
}

func (m *MockStockRepository) ListProductAlerts(ctx context.Context, tenantID string, productID uuid.UUID, location string) ([]models.StockAlert, error) {
	args := m.Called(ctx, tenantID, productID, location)
	return args.Get(0).([]models.StockAlert), args.Error(1)
}

func (m *MockStockRepository) CreateAlert(ctx context.Context, alert *models.StockAlert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

func (m *MockStockRepository) ReactivateAlert(ctx context.Context, alert *models.StockAlert, currentStock int) error {
	args := m.Called(ctx, alert, currentStock)
	return args.Error(0)
}

func (m *MockStockRepository) ResolveAlerts(ctx context.Context, tenantID string, productID uuid.UUID, location string, alertType models.AlertType, at time.Time) (int64, error) {
	args := m.Called(ctx, tenantID, productID, location, alertType, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStockRepository) SaveAutoOrderRule(ctx context.Context, rule *models.StockAlert) error {
	args := m.Called(ctx, rule)
	if args.Error(0) == nil && rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockStockRepository) CountOrdersSince(ctx context.Context, tenantID string, productID uuid.UUID, since time.Time) (int64, error) {
	args := m.Called(ctx, tenantID, productID, since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStockRepository) CreateOrder(ctx context.Context, order *models.StockOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockStockRepository) CreateOrderIfNoneOpen(ctx context.Context, order *models.StockOrder) (bool, error) {
	args := m.Called(ctx, order)
	return args.Bool(0), args.Error(1)
}

func (m *MockStockRepository) GetOrder(ctx context.Context, tenantID string, orderID uuid.UUID) (*models.StockOrder, error) {
	args := m.Called(ctx, tenantID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StockOrder), args.Error(1)
}

func (m *MockStockRepository) TransitionOrder(ctx context.Context, tenantID string, orderID uuid.UUID, to models.OrderStatus, at time.Time) (*repository.TransitionResult, error) {
	args := m.Called(ctx, tenantID, orderID, to, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.TransitionResult), args.Error(1)
}

// MockLocker is a mock implementation of locks.Locker
type MockLocker struct {
	mock.Mock
}

var _ locks.Locker = (*MockLocker)(nil)

func (m *MockLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	args := m.Called(ctx, key, ttl)
	if args.Error(1) != nil {
		return nil, args.Error(1)
	}
	return func() { m.MethodCalled("Release", key) }, nil
}

// MockPublisher records published events
type MockPublisher struct {
	mock.Mock
}

var (
	_ PriceEventPublisher = (*MockPublisher)(nil)
	_ StockEventPublisher = (*MockPublisher)(nil)
)

func (m *MockPublisher) PublishPriceChanged(ctx context.Context, tenantID string, product *models.Product, oldPrice, newPrice decimal.Decimal, reason string) error {
	args := m.Called(ctx, tenantID, product, oldPrice, newPrice, reason)
	return args.Error(0)
}

func (m *MockPublisher) PublishLowStockAlert(ctx context.Context, tenantID string, product *models.Product, threshold int, location string) error {
	args := m.Called(ctx, tenantID, product, threshold, location)
	return args.Error(0)
}

func (m *MockPublisher) PublishStockDelivered(ctx context.Context, tenantID string, order *models.StockOrder, previousStock, currentStock int) error {
	args := m.Called(ctx, tenantID, order, previousStock, currentStock)
	return args.Error(0)
}

type MockStatusCache struct {
	mock.Mock
}

var _ StatusCache = (*MockStatusCache)(nil)

func (m *MockStatusCache) InvalidateStatus(ctx context.Context, tenantID string) {
	m.Called(ctx, tenantID)
}
