package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pricing-service/internal/middleware"
	"pricing-service/internal/models"
)

// PricingService is the orchestrator surface used by the pricing routes
type PricingService interface {
	RunBatchUpdate(ctx context.Context, tenantID string) (*models.BatchUpdateResult, error)
	Initialize(ctx context.Context, tenantID string) (*models.InitializeResult, error)
	SetBasePrices(ctx context.Context, tenantID string) (*models.InitializeResult, error)
	GetPriceHistory(ctx context.Context, tenantID string, productID uuid.UUID) (*models.PriceHistoryResponse, error)
	GetBulkDiscounts(ctx context.Context, tenantID string, productID uuid.UUID) (*models.BulkDiscountResponse, error)
	GetStatus(ctx context.Context, tenantID string) (*models.PricingStatus, error)
	TestPriceCalculation(req models.TestPriceCalculationRequest) (*models.TestPriceCalculationResponse, error)
}

type PricingHandler struct {
	service      PricingService
	exposeErrors bool
}

// NewPricingHandler creates a pricing handler. exposeErrors adds error details to 500 responses.
func NewPricingHandler(service PricingService, exposeErrors bool) *PricingHandler {
	return &PricingHandler{
		service:      service,
		exposeErrors: exposeErrors,
	}
}

// UpdatePrices runs the dynamic pricing batch for the tenant
// @Summary Run dynamic pricing
// @Description Evaluate every product and apply new prices. Per-product failures are reported in updates.
// @Tags dynamic-pricing
// @Produce json
// @Success 200 {object} models.SuccessResponse{data=models.BatchUpdateResult}
// @Failure 429 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /dynamic-pricing/update-prices [post]
func (h *PricingHandler) UpdatePrices(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	result, err := h.service.RunBatchUpdate(c.Request.Context(), tenantID)
	if err != nil {
		respondError(c, err, "Failed to run dynamic pricing", h.exposeErrors)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    result,
		Message: &result.Message,
	})
}

// Initialize seeds base prices and pricing records
// @Summary Initialize dynamic pricing
// @Tags dynamic-pricing
// @Produce json
// @Success 200 {object} models.SuccessResponse{data=models.InitializeResult}
// @Failure 500 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /dynamic-pricing/initialize [post]
func (h *PricingHandler) Initialize(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	result, err := h.service.Initialize(c.Request.Context(), tenantID)
	if err != nil {
		respondError(c, err, "Failed to initialize dynamic pricing", h.exposeErrors)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    result,
		Message: &result.Message,
	})
}

// SetBasePrices backfills missing base prices
// @Summary Set missing base prices
// @Tags dynamic-pricing
// @Produce json
// @Success 200 {object} models.SuccessResponse{data=models.InitializeResult}
// @Failure 500 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /dynamic-pricing/set-base-prices [post]
func (h *PricingHandler) SetBasePrices(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	result, err := h.service.SetBasePrices(c.Request.Context(), tenantID)
	if err != nil {
		respondError(c, err, "Failed to set base prices", h.exposeErrors)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    result,
		Message: &result.Message,
	})
}

// GetPriceHistory returns a product's price history
// @Summary Get price history
// @Tags dynamic-pricing
// @Produce json
// @Param productId path string true "Product ID"
// @Success 200 {object} models.SuccessResponse{data=models.PriceHistoryResponse}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /dynamic-pricing/price-history/{productId} [get]
func (h *PricingHandler) GetPriceHistory(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		invalidID(c, "product")
		return
	}

	history, err := h.service.GetPriceHistory(c.Request.Context(), tenantID, productID)
	if err != nil {
		respondError(c, err, "Failed to retrieve price history", h.exposeErrors)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    history,
	})
}

// GetBulkDiscounts returns volume discount tiers for a product
// @Summary Get bulk discounts
// @Tags dynamic-pricing
// @Produce json
// @Param productId path string true "Product ID"
// @Success 200 {object} models.SuccessResponse{data=models.BulkDiscountResponse}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /dynamic-pricing/bulk-discounts/{productId} [get]
func (h *PricingHandler) GetBulkDiscounts(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		invalidID(c, "product")
		return
	}

	discounts, err := h.service.GetBulkDiscounts(c.Request.Context(), tenantID, productID)
	if err != nil {
		respondError(c, err, "Failed to retrieve bulk discounts", h.exposeErrors)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    discounts,
	})
}

// GetStatus summarizes current versus original prices
// @Summary Get dynamic pricing status
// @Tags dynamic-pricing
// @Produce json
// @Success 200 {object} models.SuccessResponse{data=models.PricingStatus}
// @Failure 500 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /dynamic-pricing/status [get]
func (h *PricingHandler) GetStatus(c *gin.Context) {
	tenantID := middleware.GetTenantID(c)

	status, err := h.service.GetStatus(c.Request.Context(), tenantID)
	if err != nil {
		respondError(c, err, "Failed to retrieve pricing status", h.exposeErrors)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    status,
	})
}

// TestPriceCalculation evaluates the policy for a hypothetical product
// @Summary Test price calculation
// @Tags dynamic-pricing
// @Accept json
// @Produce json
// @Param request body models.TestPriceCalculationRequest true "Evaluation input"
// @Success 200 {object} models.SuccessResponse{data=models.TestPriceCalculationResponse}
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /dynamic-pricing/test-price-calculation [post]
func (h *PricingHandler) TestPriceCalculation(c *gin.Context) {
	var req models.TestPriceCalculationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}

	result, err := h.service.TestPriceCalculation(req)
	if err != nil {
		respondError(c, err, "Failed to calculate price", h.exposeErrors)
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    result,
	})
}
