package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pricing-service/internal/models"
	"pricing-service/internal/repository"
)

func newStockRouter(svc *MockStockService) http.Handler {
	h := NewStockHandler(svc, false)
	router := setupTestRouter()
	g := router.Group("/api/stock")
	g.GET("/status", h.GetStockStatus)
	g.GET("/alerts", h.ListAlerts)
	g.GET("/demand/:productId", h.GetDemandLevel)
	g.POST("/order/:productId", h.CreateOrder)
	g.POST("/auto-order/:productId", h.EnableAutoOrder)
	g.PUT("/update-order/:orderId", h.UpdateOrderStatus)
	g.POST("/suppliers", h.CreateSupplier)
	g.GET("/suppliers", h.ListSuppliers)
	return router
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestGetStockStatus(t *testing.T) {
	svc := new(MockStockService)
	svc.On("GetStockStatus", mock.Anything, testTenant, "north").Return([]models.ProductStockStatus{
		{CurrentStock: 5, Threshold: 30, DemandLevel: models.DemandLevelHigh},
	}, nil)

	w := httptest.NewRecorder()
	newStockRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stock/status?location=north", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Success bool                        `json:"success"`
		Count   int                         `json:"count"`
		Data    []models.ProductStockStatus `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, models.DemandLevelHigh, resp.Data[0].DemandLevel)
}

func TestListAlerts_PassesFilters(t *testing.T) {
	svc := new(MockStockService)
	svc.On("ListAlerts", mock.Anything, testTenant, "", "all").Return([]models.StockAlert{}, nil)

	w := httptest.NewRecorder()
	newStockRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stock/alerts?status=all", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":[],"count":0}`, w.Body.String())
	svc.AssertExpectations(t)
}

func TestGetDemandLevel(t *testing.T) {
	svc := new(MockStockService)
	id := uuid.New()
	svc.On("GetDemandLevel", mock.Anything, testTenant, id).Return(models.DemandLevelMedium, nil)

	w := httptest.NewRecorder()
	newStockRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stock/demand/"+id.String(), nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"demandLevel":"Medium"`)
}

func TestGetDemandLevel_UnknownProduct(t *testing.T) {
	svc := new(MockStockService)
	id := uuid.New()
	svc.On("GetDemandLevel", mock.Anything, testTenant, id).
		Return(models.DemandLevelUnknown, fmt.Errorf("product %s: %w", id, repository.ErrNotFound))

	w := httptest.NewRecorder()
	newStockRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stock/demand/"+id.String(), nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, w).Error.Code)
}

func TestCreateOrder(t *testing.T) {
	productID := uuid.New()
	supplierID := uuid.New()

	tests := []struct {
		name       string
		body       string
		setup      func(svc *MockStockService)
		wantStatus int
		wantCode   string
	}{
		{
			name: "created",
			body: fmt.Sprintf(`{"supplierId":%q,"quantity":4}`, supplierID),
			setup: func(svc *MockStockService) {
				svc.On("CreateOrder", mock.Anything, testTenant, productID, models.CreateStockOrderRequest{SupplierID: supplierID.String(), Quantity: 4}).
					Return(&models.StockOrder{ID: uuid.New(), ProductID: productID, SupplierID: supplierID, Quantity: 4, Status: models.OrderStatusPending, TotalAmount: decimal.NewFromInt(10)}, nil)
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "zero quantity",
			body:       fmt.Sprintf(`{"supplierId":%q,"quantity":0}`, supplierID),
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "supplier id not a uuid",
			body:       `{"supplierId":"abc","quantity":2}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name: "unknown supplier",
			body: fmt.Sprintf(`{"supplierId":%q,"quantity":2}`, supplierID),
			setup: func(svc *MockStockService) {
				svc.On("CreateOrder", mock.Anything, testTenant, productID, mock.Anything).
					Return(nil, fmt.Errorf("supplier %s: %w", supplierID, repository.ErrNotFound))
			},
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockStockService)
			if tt.setup != nil {
				tt.setup(svc)
			}

			w := httptest.NewRecorder()
			newStockRouter(svc).ServeHTTP(w, jsonRequest(http.MethodPost, "/api/stock/order/"+productID.String(), tt.body))

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, w).Error.Code)
			} else {
				assert.Contains(t, w.Body.String(), "Stock order created successfully")
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestEnableAutoOrder_RequiresLocation(t *testing.T) {
	svc := new(MockStockService)

	w := httptest.NewRecorder()
	newStockRouter(svc).ServeHTTP(w, jsonRequest(http.MethodPost, "/api/stock/auto-order/"+uuid.NewString(), `{}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "EnableAutoOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEnableAutoOrder(t *testing.T) {
	svc := new(MockStockService)
	id := uuid.New()
	svc.On("EnableAutoOrder", mock.Anything, testTenant, id, "north").Return(&models.AutoOrderResult{
		Alert:    models.StockAlert{ProductID: id, AutoOrderEnabled: true},
		Supplier: models.Supplier{Name: "Green Valley Farms"},
	}, nil)

	w := httptest.NewRecorder()
	newStockRouter(svc).ServeHTTP(w, jsonRequest(http.MethodPost, "/api/stock/auto-order/"+id.String(), `{"location":"north"}`))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Auto-order enabled")
	assert.Contains(t, w.Body.String(), `"autoOrderEnabled":true`)
}

func TestUpdateOrderStatus(t *testing.T) {
	orderID := uuid.New()

	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{name: "delivered", body: `{"status":"delivered"}`, wantStatus: http.StatusOK},
		{name: "completed alias", body: `{"status":"completed"}`, wantStatus: http.StatusOK},
		{name: "unknown status", body: `{"status":"shipped"}`, wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_ERROR"},
		{
			name:       "invalid transition",
			body:       `{"status":"approved"}`,
			serviceErr: fmt.Errorf("order %s is delivered: %w", orderID, repository.ErrInvalidTransition),
			wantStatus: http.StatusConflict,
			wantCode:   "INVALID_TRANSITION",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockStockService)
			if tt.serviceErr != nil {
				svc.On("UpdateOrderStatus", mock.Anything, testTenant, orderID, mock.Anything).Return(nil, tt.serviceErr)
			} else {
				svc.On("UpdateOrderStatus", mock.Anything, testTenant, orderID, mock.Anything).
					Return(&models.StockOrder{ID: orderID, Status: models.OrderStatusDelivered}, nil)
			}

			w := httptest.NewRecorder()
			newStockRouter(svc).ServeHTTP(w, jsonRequest(http.MethodPut, "/api/stock/update-order/"+orderID.String(), tt.body))

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, w).Error.Code)
			}
		})
	}
}

func TestUpdateOrderStatus_InvalidID(t *testing.T) {
	svc := new(MockStockService)

	w := httptest.NewRecorder()
	newStockRouter(svc).ServeHTTP(w, jsonRequest(http.MethodPut, "/api/stock/update-order/42", `{"status":"approved"}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "INVALID_ID", resp.Error.Code)
	assert.Equal(t, "Invalid order ID", resp.Error.Message)
}

func TestCreateSupplier(t *testing.T) {
	svc := new(MockStockService)
	svc.On("CreateSupplier", mock.Anything, mock.MatchedBy(func(s *models.Supplier) bool {
		return s.TenantID == testTenant && s.Name == "Green Valley Farms" && s.Status == models.SupplierStatusActive
	})).Return(nil)

	w := httptest.NewRecorder()
	newStockRouter(svc).ServeHTTP(w, jsonRequest(http.MethodPost, "/api/stock/suppliers", `{"name":"Green Valley Farms","location":"north","reliability":0.9}`))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "Supplier created successfully")
	svc.AssertExpectations(t)
}

func TestCreateSupplier_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing location", `{"name":"Green Valley Farms"}`},
		{"reliability out of range", `{"name":"A","location":"north","reliability":1.5}`},
		{"bad email", `{"name":"A","location":"north","email":"not-an-email"}`},
		{"bad status", `{"name":"A","location":"north","status":"PAUSED"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockStockService)

			w := httptest.NewRecorder()
			newStockRouter(svc).ServeHTTP(w, jsonRequest(http.MethodPost, "/api/stock/suppliers", tt.body))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			svc.AssertNotCalled(t, "CreateSupplier", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateSupplier_Duplicate(t *testing.T) {
	svc := new(MockStockService)
	svc.On("CreateSupplier", mock.Anything, mock.Anything).Return(fmt.Errorf("supplier: %w", repository.ErrDuplicate))

	w := httptest.NewRecorder()
	newStockRouter(svc).ServeHTTP(w, jsonRequest(http.MethodPost, "/api/stock/suppliers", `{"name":"A","location":"north"}`))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DUPLICATE", decodeError(t, w).Error.Code)
}

func TestListSuppliers(t *testing.T) {
	svc := new(MockStockService)
	svc.On("ListSuppliers", mock.Anything, testTenant, "north").Return([]models.Supplier{{Name: "A"}, {Name: "B"}}, nil)

	w := httptest.NewRecorder()
	newStockRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stock/suppliers?location=north", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":2`)
}
