package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"pricing-service/internal/models"
	"pricing-service/internal/repository"
)

// DemandWindow is the trailing period of stock orders used to classify demand
const DemandWindow = 30 * 24 * time.Hour

var (
	ErrInvalidStatus = errors.New("invalid order status")
	ErrNoSupplier    = errors.New("no active supplier for location")
)

// StockEventPublisher is notified of low stock and deliveries
type StockEventPublisher interface {
	PublishLowStockAlert(ctx context.Context, tenantID string, product *models.Product, threshold int, location string) error
	PublishStockDelivered(ctx context.Context, tenantID string, order *models.StockOrder, previousStock, currentStock int) error
}

// StatusCache holds the cached pricing status, which embeds stock levels
type StatusCache interface {
	InvalidateStatus(ctx context.Context, tenantID string)
}

// StockService raises stock alerts, classifies demand and runs the stock order workflow
type StockService struct {
	repo        repository.StockRepositoryInterface
	publisher   StockEventPublisher
	statusCache StatusCache
	logger      *logrus.Entry
	now         func() time.Time
}

// NewStockService creates a new StockService. publisher and statusCache may be nil.
func NewStockService(repo repository.StockRepositoryInterface, publisher StockEventPublisher, statusCache StatusCache, logger *logrus.Logger) *StockService {
	return &StockService{
		repo:        repo,
		publisher:   publisher,
		statusCache: statusCache,
		logger:      logger.WithField("component", "stock-service"),
		now:         time.Now,
	}
}

// CalculateDemandLevel classifies demand from the product's stock orders in the
// trailing 30 days. Errors are logged and reported as Unknown.
func (s *StockService) CalculateDemandLevel(ctx context.Context, tenantID string, productID uuid.UUID) models.DemandLevel {
	count, err := s.repo.CountOrdersSince(ctx, tenantID, productID, s.now().Add(-DemandWindow))
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"tenantId":  tenantID,
			"productId": productID,
		}).WithError(err).Warn("Failed to count stock orders")
		return models.DemandLevelUnknown
	}
	switch {
	case count >= 5:
		return models.DemandLevelHigh
	case count >= 3:
		return models.DemandLevelMedium
	default:
		return models.DemandLevelLow
	}
}

// GetDemandLevel classifies demand for a product that must exist
func (s *StockService) GetDemandLevel(ctx context.Context, tenantID string, productID uuid.UUID) (models.DemandLevel, error) {
	if _, err := s.repo.GetProduct(ctx, tenantID, productID); err != nil {
		return models.DemandLevelUnknown, fmt.Errorf("product %s: %w", productID, err)
	}
	return s.CalculateDemandLevel(ctx, tenantID, productID), nil
}

// GetStockStatus evaluates every product at a location. Missing alerts are raised,
// recovered ones resolved, and auto-order rules at or below threshold place an order.
// A product that cannot be evaluated carries the error on its own row.
func (s *StockService) GetStockStatus(ctx context.Context, tenantID, location string) ([]models.ProductStockStatus, error) {
	products, err := s.repo.ListProducts(ctx, tenantID, location)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	statuses := make([]models.ProductStockStatus, 0, len(products))
	for i := range products {
		product := &products[i]
		status, err := s.evaluateProduct(ctx, tenantID, location, product)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"tenantId":  tenantID,
				"productId": product.ID,
			}).WithError(err).Error("Failed to evaluate stock status")
			status = &models.ProductStockStatus{
				Product:      *product,
				CurrentStock: product.CountInStock,
				Threshold:    product.LowStockThreshold(),
				DemandLevel:  models.DemandLevelUnknown,
				Alerts:       []models.StockAlert{},
				Error:        err.Error(),
			}
		}
		statuses = append(statuses, *status)
	}
	return statuses, nil
}

func (s *StockService) evaluateProduct(ctx context.Context, tenantID, location string, product *models.Product) (*models.ProductStockStatus, error) {
	loc := location
	if loc == "" {
		loc = product.Location
	}
	now := s.now()

	alerts, err := s.repo.ListProductAlerts(ctx, tenantID, product.ID, loc)
	if err != nil {
		return nil, fmt.Errorf("failed to load alerts for product %s: %w", product.ID, err)
	}

	var rule, activeLow, activeDemand *models.StockAlert
	for i := range alerts {
		a := &alerts[i]
		if a.AutoOrderEnabled && rule == nil {
			rule = a
		}
		if a.Status != models.AlertStatusActive {
			continue
		}
		switch a.Type {
		case models.AlertTypeLowStock:
			if activeLow == nil {
				activeLow = a
			}
		case models.AlertTypeHighDemand:
			if activeDemand == nil {
				activeDemand = a
			}
		}
	}

	threshold := product.LowStockThreshold()
	if rule != nil && rule.Threshold > 0 {
		threshold = rule.Threshold
	}
	demand := s.CalculateDemandLevel(ctx, tenantID, product.ID)
	low := product.CountInStock <= threshold

	switch {
	case low && activeLow == nil:
		if rule != nil {
			if err := s.repo.ReactivateAlert(ctx, rule, product.CountInStock); err != nil {
				return nil, fmt.Errorf("failed to reactivate alert: %w", err)
			}
		} else if err := s.repo.CreateAlert(ctx, &models.StockAlert{
			TenantID:     tenantID,
			ProductID:    product.ID,
			Location:     loc,
			Type:         models.AlertTypeLowStock,
			Status:       models.AlertStatusActive,
			Threshold:    threshold,
			CurrentStock: product.CountInStock,
			Message:      fmt.Sprintf("%s is low on stock: %d units left (threshold %d)", product.Name, product.CountInStock, threshold),
		}); err != nil {
			return nil, fmt.Errorf("failed to create low stock alert: %w", err)
		}
		if s.publisher != nil {
			_ = s.publisher.PublishLowStockAlert(ctx, tenantID, product, threshold, loc)
		}
	case !low && activeLow != nil:
		if _, err := s.repo.ResolveAlerts(ctx, tenantID, product.ID, loc, models.AlertTypeLowStock, now); err != nil {
			return nil, fmt.Errorf("failed to resolve low stock alerts: %w", err)
		}
	}

	switch {
	case demand == models.DemandLevelHigh && activeDemand == nil:
		if err := s.repo.CreateAlert(ctx, &models.StockAlert{
			TenantID:     tenantID,
			ProductID:    product.ID,
			Location:     loc,
			Type:         models.AlertTypeHighDemand,
			Status:       models.AlertStatusActive,
			Threshold:    threshold,
			CurrentStock: product.CountInStock,
			Message:      fmt.Sprintf("%s is in high demand", product.Name),
		}); err != nil {
			return nil, fmt.Errorf("failed to create high demand alert: %w", err)
		}
	case activeDemand != nil && (demand == models.DemandLevelLow || demand == models.DemandLevelMedium):
		if _, err := s.repo.ResolveAlerts(ctx, tenantID, product.ID, loc, models.AlertTypeHighDemand, now); err != nil {
			return nil, fmt.Errorf("failed to resolve high demand alerts: %w", err)
		}
	}

	status := &models.ProductStockStatus{
		Product:      *product,
		CurrentStock: product.CountInStock,
		Threshold:    threshold,
		DemandLevel:  demand,
	}

	if low && rule != nil && rule.SupplierID != nil {
		order := s.newOrder(tenantID, product, *rule.SupplierID, loc, product.ReorderQuantity(), true)
		created, err := s.repo.CreateOrderIfNoneOpen(ctx, order)
		if err != nil {
			return nil, fmt.Errorf("failed to place auto order: %w", err)
		}
		if created {
			s.logger.WithFields(logrus.Fields{
				"tenantId":  tenantID,
				"productId": product.ID,
				"orderId":   order.ID,
				"quantity":  order.Quantity,
			}).Info("Auto stock order placed")
			status.AutoOrder = order
		}
	}

	current, err := s.repo.ListProductAlerts(ctx, tenantID, product.ID, loc)
	if err != nil {
		return nil, fmt.Errorf("failed to load alerts for product %s: %w", product.ID, err)
	}
	status.Alerts = activeOnly(current)
	return status, nil
}

func activeOnly(alerts []models.StockAlert) []models.StockAlert {
	out := make([]models.StockAlert, 0, len(alerts))
	for _, a := range alerts {
		if a.Status == models.AlertStatusActive {
			out = append(out, a)
		}
	}
	return out
}

func (s *StockService) newOrder(tenantID string, product *models.Product, supplierID uuid.UUID, location string, quantity int, auto bool) *models.StockOrder {
	return &models.StockOrder{
		ID:            uuid.New(),
		TenantID:      tenantID,
		ProductID:     product.ID,
		SupplierID:    supplierID,
		Location:      location,
		Quantity:      quantity,
		Status:        models.OrderStatusPending,
		AutoOrdered:   auto,
		TotalAmount:   product.Price.Mul(decimal.NewFromInt(int64(quantity))),
		PaymentStatus: models.PaymentStatusPending,
		OrderDate:     s.now(),
	}
}

// ListAlerts returns alerts for a location. Status defaults to active.
func (s *StockService) ListAlerts(ctx context.Context, tenantID, location, status string) ([]models.StockAlert, error) {
	filter := repository.AlertFilter{Location: location, Status: models.AlertStatusActive}
	switch models.AlertStatus(status) {
	case models.AlertStatusResolved:
		filter.Status = models.AlertStatusResolved
	case "all":
		filter.Status = ""
	}
	alerts, err := s.repo.ListAlerts(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	return alerts, nil
}

// CreateOrder places a manual stock order in pending
func (s *StockService) CreateOrder(ctx context.Context, tenantID string, productID uuid.UUID, req models.CreateStockOrderRequest) (*models.StockOrder, error) {
	product, err := s.repo.GetProduct(ctx, tenantID, productID)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", productID, err)
	}
	supplierID, err := uuid.Parse(req.SupplierID)
	if err != nil {
		return nil, fmt.Errorf("supplier %s: %w", req.SupplierID, repository.ErrNotFound)
	}
	supplier, err := s.repo.GetSupplier(ctx, tenantID, supplierID)
	if err != nil {
		return nil, fmt.Errorf("supplier %s: %w", supplierID, err)
	}

	location := req.Location
	if location == "" {
		location = product.Location
	}
	order := s.newOrder(tenantID, product, supplier.ID, location, req.Quantity, false)
	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create stock order: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"tenantId":   tenantID,
		"productId":  productID,
		"supplierId": supplier.ID,
		"orderId":    order.ID,
	}).Info("Stock order created")
	return order, nil
}

// EnableAutoOrder attaches an auto-reorder rule to a product using the most reliable
// supplier at the location. When stock is already at or below threshold an order is placed at once.
func (s *StockService) EnableAutoOrder(ctx context.Context, tenantID string, productID uuid.UUID, location string) (*models.AutoOrderResult, error) {
	product, err := s.repo.GetProduct(ctx, tenantID, productID)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", productID, err)
	}
	supplier, err := s.repo.FindMostReliableSupplier(ctx, tenantID, location)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w %q: %w", ErrNoSupplier, location, repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select supplier: %w", err)
	}

	threshold := product.LowStockThreshold()
	low := product.CountInStock <= threshold
	rule := &models.StockAlert{
		TenantID:         tenantID,
		ProductID:        product.ID,
		Location:         location,
		Type:             models.AlertTypeLowStock,
		Status:           models.AlertStatusResolved,
		Threshold:        threshold,
		CurrentStock:     product.CountInStock,
		AutoOrderEnabled: true,
		SupplierID:       &supplier.ID,
		Message:          fmt.Sprintf("Auto-order enabled for %s with %s below %d units", product.Name, supplier.Name, threshold+1),
	}
	if low {
		rule.Status = models.AlertStatusActive
	} else {
		resolvedAt := s.now()
		rule.ResolvedAt = &resolvedAt
	}
	if err := s.repo.SaveAutoOrderRule(ctx, rule); err != nil {
		return nil, fmt.Errorf("failed to save auto-order rule: %w", err)
	}

	result := &models.AutoOrderResult{Alert: *rule, Supplier: *supplier}
	if low {
		order := s.newOrder(tenantID, product, supplier.ID, location, product.ReorderQuantity(), true)
		created, err := s.repo.CreateOrderIfNoneOpen(ctx, order)
		if err != nil {
			return nil, fmt.Errorf("failed to place auto order: %w", err)
		}
		if created {
			result.Order = order
		}
	}

	s.logger.WithFields(logrus.Fields{
		"tenantId":   tenantID,
		"productId":  productID,
		"supplierId": supplier.ID,
		"threshold":  threshold,
	}).Info("Auto-order enabled")
	return result, nil
}

// UpdateOrderStatus moves a stock order through pending, approved, delivered or rejected.
// Delivering twice increments stock only once.
func (s *StockService) UpdateOrderStatus(ctx context.Context, tenantID string, orderID uuid.UUID, status string) (*models.StockOrder, error) {
	to, ok := models.ParseOrderStatus(status)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	res, err := s.repo.TransitionOrder(ctx, tenantID, orderID, to, s.now())
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", orderID, err)
	}

	log := s.logger.WithFields(logrus.Fields{
		"tenantId": tenantID,
		"orderId":  orderID,
		"status":   to,
	})
	if !res.Applied {
		log.Debug("Stock order already in requested status")
		return &res.Order, nil
	}
	log.Info("Stock order status updated")

	if to != models.OrderStatusDelivered {
		return &res.Order, nil
	}
	if s.statusCache != nil {
		s.statusCache.InvalidateStatus(ctx, tenantID)
	}
	if s.publisher != nil {
		_ = s.publisher.PublishStockDelivered(ctx, tenantID, &res.Order, res.PreviousStock, res.CurrentStock)
	}
	return &res.Order, nil
}

// CreateSupplier registers a supplier
func (s *StockService) CreateSupplier(ctx context.Context, supplier *models.Supplier) error {
	if err := s.repo.CreateSupplier(ctx, supplier); err != nil {
		return fmt.Errorf("failed to create supplier: %w", err)
	}
	return nil
}

// ImportSuppliers bulk-creates suppliers for a tenant
func (s *StockService) ImportSuppliers(ctx context.Context, tenantID string, suppliers []*models.Supplier, skipDuplicates bool) (*repository.BulkCreateSupplierResult, error) {
	result, err := s.repo.BulkCreateSuppliers(ctx, tenantID, suppliers, skipDuplicates)
	if err != nil && (result == nil || result.Success == 0) {
		return result, fmt.Errorf("failed to import suppliers: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"tenantId": tenantID,
		"created":  result.Success,
		"skipped":  result.Skipped,
		"failed":   result.Failed,
	}).Info("Suppliers imported")
	return result, nil
}

// ListSuppliers returns the suppliers of a location, most reliable first
func (s *StockService) ListSuppliers(ctx context.Context, tenantID, location string) ([]models.Supplier, error) {
	suppliers, err := s.repo.ListSuppliers(ctx, tenantID, location)
	if err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}
	return suppliers, nil
}
