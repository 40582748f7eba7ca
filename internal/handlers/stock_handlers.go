package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pricing-service/internal/middleware"
	"pricing-service/internal/models"
	"pricing-service/internal/repository"
)

// StockService is the stock engine surface used by the stock routes
type StockService interface {
	GetStockStatus(ctx context.Context, tenantID, location string) ([]models.ProductStockStatus, error)
	ListAlerts(ctx context.Context, tenantID, location, status string) ([]models.StockAlert, error)
	GetDemandLevel(ctx context.Context, tenantID string, productID uuid.UUID) (models.DemandLevel, error)
	CreateOrder(ctx context.Context, tenantID string, productID uuid.UUID, req models.CreateStockOrderRequest) (*models.StockOrder, error)
	EnableAutoOrder(ctx context.Context, tenantID string, productID uuid.UUID, location string) (*models.AutoOrderResult, error)
	UpdateOrderStatus(ctx context.Context, tenantID string, orderID uuid.UUID, status string) (*models.StockOrder, error)
	CreateSupplier(ctx context.Context, supplier *models.Supplier) error
	ListSuppliers(ctx context.Context, tenantID, location string) ([]models.Supplier, error)
	ImportSuppliers(ctx context.Context, tenantID string, suppliers []*models.Supplier, skipDuplicates bool) (*repository.BulkCreateSupplierResult, error)
}

type StockHandler struct {
	service      StockService
	exposeErrors bool
}

func NewStockHandler(service StockService, exposeErrors bool) *StockHandler {
	return &StockHandler{
		service:      service,
		exposeErrors: exposeErrors,
	}
}

// GetStockStatus evaluates stock at a location, raising and resolving alerts
// @Summary Get stock status
// @Tags stock
// @Produce json
// @Param location query string false "Location filter"
// @Success 200 {object} models.ListResponse{data=[]models.ProductStockStatus}
// @Failure 500 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /stock/status [get]
func (h *StockHandler) GetStockStatus(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	statuses, err := h.service.GetStockStatus(c.Request.Context(), tenantID, c.Query("location"))
	if err != nil {
		respondError(c, err, "Failed to evaluate stock status", h.exposeErrors)
		return
	}

	c.JSON(http.StatusOK, models.ListResponse{
		Success: true,
		Data:    statuses,
		Count:   len(statuses),
	})
}

// ListAlerts lists stock alerts
// @Summary List stock alerts
// @Tags stock
// @Produce json
// @Param location query string false "Location filter"
// @Param status query string false "active (default), resolved or all"
// @Success 200 {object} models.ListResponse{data=[]models.StockAlert}
// @Failure 500 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /stock/alerts [get]
func (h *StockHandler) ListAlerts(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	alerts, err := h.service.ListAlerts(c.Request.Context(), tenantID, c.Query("location"), c.Query("status"))
	if err != nil {
		respondError(c, err, "Failed to retrieve alerts", h.exposeErrors)
		return
	}

	c.JSON(http.StatusOK, models.ListResponse{
		Success: true,
		Data:    alerts,
		Count:   len(alerts),
	})
}

// GetDemandLevel classifies demand for a product
// @Summary Get demand level
// @Tags stock
// @Produce json
// @Param productId path string true "Product ID"
// @Success 200 {object} models.SuccessResponse{data=models.DemandLevelResponse}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /stock/demand/{productId} [get]
func (h *StockHandler) GetDemandLevel(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		invalidID(c, "product")
		return
	}

	level, err := h.service.GetDemandLevel(c.Request.Context(), tenantID, productID)
	if err != nil {
		respondError(c, err, "Failed to calculate demand level", h.exposeErrors)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data: models.DemandLevelResponse{
			ProductID:   productID,
			DemandLevel: level,
		},
	})
}

// CreateOrder places a manual stock order
// @Summary Create stock order
// @Tags stock
// @Accept json
// @Produce json
// @Param productId path string true "Product ID"
// @Param request body models.CreateStockOrderRequest true "Order"
// @Success 201 {object} models.SuccessResponse{data=models.StockOrder}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /stock/order/{productId} [post]
func (h *StockHandler) CreateOrder(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		invalidID(c, "product")
		return
	}

	var req models.CreateStockOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}

	order, err := h.service.CreateOrder(c.Request.Context(), tenantID, productID, req)
	if err != nil {
		respondError(c, err, "Failed to create stock order", h.exposeErrors)
		return
	}

	msg := "Stock order created successfully"
	c.JSON(http.StatusCreated, models.SuccessResponse{
		Success: true,
		Data:    order,
		Message: &msg,
	})
}

// EnableAutoOrder attaches an auto-reorder rule to a product
// @Summary Enable auto-order
// @Tags stock
// @Accept json
// @Produce json
// @Param productId path string true "Product ID"
// @Param request body models.EnableAutoOrderRequest true "Location"
// @Success 200 {object} models.SuccessResponse{data=models.AutoOrderResult}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /stock/auto-order/{productId} [post]
func (h *StockHandler) EnableAutoOrder(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		invalidID(c, "product")
		return
	}

	var req models.EnableAutoOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}

	result, err := h.service.EnableAutoOrder(c.Request.Context(), tenantID, productID, req.Location)
	if err != nil {
		respondError(c, err, "Failed to enable auto-order", h.exposeErrors)
		return
	}

	msg := "Auto-order enabled"
	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    result,
		Message: &msg,
	})
}

// UpdateOrderStatus moves a stock order through its workflow
// @Summary Update stock order status
// @Tags stock
// @Accept json
// @Produce json
// @Param orderId path string true "Order ID"
// @Param request body models.UpdateOrderStatusRequest true "Status"
// @Success 200 {object} models.SuccessResponse{data=models.StockOrder}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /stock/update-order/{orderId} [put]
func (h *StockHandler) UpdateOrderStatus(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	orderID, err := uuid.Parse(c.Param("orderId"))
	if err != nil {
		invalidID(c, "order")
		return
	}

	var req models.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}

	order, err := h.service.UpdateOrderStatus(c.Request.Context(), tenantID, orderID, req.Status)
	if err != nil {
		respondError(c, err, "Failed to update stock order", h.exposeErrors)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    order,
	})
}

// CreateSupplier registers a supplier for a location
// @Summary Create supplier
// @Tags suppliers
// @Accept json
// @Produce json
// @Param request body models.CreateSupplierRequest true "Supplier"
// @Success 201 {object} models.SuccessResponse{data=models.Supplier}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /stock/suppliers [post]
func (h *StockHandler) CreateSupplier(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	var req models.CreateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}

	supplier := &models.Supplier{
		TenantID:    tenantID,
		Name:        req.Name,
		Location:    req.Location,
		Email:       req.Email,
		Phone:       req.Phone,
		Reliability: req.Reliability,
		Status:      models.SupplierStatusActive,
	}
	if req.Status != nil {
		supplier.Status = *req.Status
	}

	if err := h.service.CreateSupplier(c.Request.Context(), supplier); err != nil {
		respondError(c, err, "Failed to create supplier", h.exposeErrors)
		return
	}

	msg := "Supplier created successfully"
	c.JSON(http.StatusCreated, models.SuccessResponse{
		Success: true,
		Data:    supplier,
		Message: &msg,
	})
}

// ListSuppliers lists suppliers, most reliable first
// @Summary List suppliers
// @Tags suppliers
// @Produce json
// @Param location query string false "Location filter"
// @Success 200 {object} models.ListResponse{data=[]models.Supplier}
// @Security BearerAuth
// @Router /stock/suppliers [get]
func (h *StockHandler) ListSuppliers(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	suppliers, err := h.service.ListSuppliers(c.Request.Context(), tenantID, c.Query("location"))
	if err != nil {
		respondError(c, err, "Failed to retrieve suppliers", h.exposeErrors)
		return
	}

	c.JSON(http.StatusOK, models.ListResponse{
		Success: true,
		Data:    suppliers,
		Count:   len(suppliers),
	})
}
