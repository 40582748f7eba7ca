package handlers

import (
	"context"

	"github.com/Tesseract-Nexus/go-shared/cache"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"pricing-service/internal/models"
	"pricing-service/internal/repository"
)

const testTenant = "tenant-1"

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("tenant_id", testTenant)
		c.Next()
	})
	return router
}

// MockPricingService is a mock implementation of PricingService
type MockPricingService struct {
	mock.Mock
}

var _ PricingService = (*MockPricingService)(nil)

func (m *MockPricingService) RunBatchUpdate(ctx context.Context, tenantID string) (*models.BatchUpdateResult, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BatchUpdateResult), args.Error(1)
}

func (m *MockPricingService) Initialize(ctx context.Context, tenantID string) (*models.InitializeResult, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InitializeResult), args.Error(1)
}

func (m *MockPricingService) SetBasePrices(ctx context.Context, tenantID string) (*models.InitializeResult, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InitializeResult), args.Error(1)
}

func (m *MockPricingService) GetPriceHistory(ctx context.Context, tenantID string, productID uuid.UUID) (*models.PriceHistoryResponse, error) {
	args := m.Called(ctx, tenantID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PriceHistoryResponse), args.Error(1)
}

func (m *MockPricingService) GetBulkDiscounts(ctx context.Context, tenantID string, productID uuid.UUID) (*models.BulkDiscountResponse, error) {
	args := m.Called(ctx, tenantID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BulkDiscountResponse), args.Error(1)
}

func (m *MockPricingService) GetStatus(ctx context.Context, tenantID string) (*models.PricingStatus, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PricingStatus), args.Error(1)
}

func (m *MockPricingService) TestPriceCalculation(req models.TestPriceCalculationRequest) (*models.TestPriceCalculationResponse, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TestPriceCalculationResponse), args.Error(1)
}

// MockStockService is a mock implementation of StockService
type MockStockService struct {
	mock.Mock
}

var (
	_ StockService     = (*MockStockService)(nil)
	_ SupplierImporter = (*MockStockService)(nil)
)

func (m *MockStockService) GetStockStatus(ctx context.Context, tenantID, location string) ([]models.ProductStockStatus, error) {
	args := m.Called(ctx, tenantID, location)
	return args.Get(0).([]models.ProductStockStatus), args.Error(1)
}

func (m *MockStockService) ListAlerts(ctx context.Context, tenantID, location, status string) ([]models.StockAlert, error) {
	args := m.Called(ctx, tenantID, location, status)
	return args.Get(0).([]models.StockAlert), args.Error(1)
}

func (m *MockStockService) GetDemandLevel(ctx context.Context, tenantID string, productID uuid.UUID) (models.DemandLevel, error) {
	args := m.Called(ctx, tenantID, productID)
	return args.Get(0).(models.DemandLevel), args.Error(1)
}

func (m *MockStockService) CreateOrder(ctx context.Context, tenantID string, productID uuid.UUID, req models.CreateStockOrderRequest) (*models.StockOrder, error) {
	args := m.Called(ctx, tenantID, productID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StockOrder), args.Error(1)
}

func (m *MockStockService) EnableAutoOrder(ctx context.Context, tenantID string, productID uuid.UUID, location string) (*models.AutoOrderResult, error) {
	args := m.Called(ctx, tenantID, productID, location)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AutoOrderResult), args.Error(1)
}

func (m *MockStockService) UpdateOrderStatus(ctx context.Context, tenantID string, orderID uuid.UUID, status string) (*models.StockOrder, error) {
	args := m.Called(ctx, tenantID, orderID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StockOrder), args.Error(1)
}

func (m *MockStockService) CreateSupplier(ctx context.Context, supplier *models.Supplier) error {
	args := m.Called(ctx, supplier)
	return args.Error(0)
}

func (m *MockStockService) ListSuppliers(ctx context.Context, tenantID, location string) ([]models.Supplier, error) {
	args := m.Called(ctx, tenantID, location)
	return args.Get(0).([]models.Supplier), args.Error(1)
}

func (m *MockStockService) ImportSuppliers(ctx context.Context, tenantID string, suppliers []*models.Supplier, skipDuplicates bool) (*repository.BulkCreateSupplierResult, error) {
	args := m.Called(ctx, tenantID, suppliers, skipDuplicates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.BulkCreateSupplierResult), args.Error(1)
}

// MockHealthChecker is a mock implementation of HealthChecker
type MockHealthChecker struct {
	mock.Mock
}

func (m *MockHealthChecker) DBHealth(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockHealthChecker) RedisHealth(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockHealthChecker) CacheStats() *cache.CacheStats {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*cache.CacheStats)
}

type staticEvents bool

func (s staticEvents) IsConnected() bool { return bool(s) }
