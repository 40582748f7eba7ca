package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pricing-service/internal/models"
)

// StockRepositoryInterface is the persistence contract of the stock alert engine
type StockRepositoryInterface interface {
	ListProducts(ctx context.Context, tenantID, location string) ([]models.Product, error)
	GetProduct(ctx context.Context, tenantID string, productID uuid.UUID) (*models.Product, error)

	CreateSupplier(ctx context.Context, supplier *models.Supplier) error
	BulkCreateSuppliers(ctx context.Context, tenantID string, suppliers []*models.Supplier, skipDuplicates bool) (*BulkCreateSupplierResult, error)
	ListSuppliers(ctx context.Context, tenantID, location string) ([]models.Supplier, error)
	GetSupplier(ctx context.Context, tenantID string, supplierID uuid.UUID) (*models.Supplier, error)
	FindMostReliableSupplier(ctx context.Context, tenantID, location string) (*models.Supplier, error)

	ListAlerts(ctx context.Context, tenantID string, filter AlertFilter) ([]models.StockAlert, error)
	ListProductAlerts(ctx context.Context, tenantID string, productID uuid.UUID, location string) ([]models.StockAlert, error)
	CreateAlert(ctx context.Context, alert *models.StockAlert) error
	ReactivateAlert(ctx context.Context, alert *models.StockAlert, currentStock int) error
	ResolveAlerts(ctx context.Context, tenantID string, productID uuid.UUID, location string, alertType models.AlertType, at time.Time) (int64, error)
	SaveAutoOrderRule(ctx context.Context, rule *models.StockAlert) error

	CountOrdersSince(ctx context.Context, tenantID string, productID uuid.UUID, since time.Time) (int64, error)
	CreateOrder(ctx context.Context, order *models.StockOrder) error
	CreateOrderIfNoneOpen(ctx context.Context, order *models.StockOrder) (bool, error)
	GetOrder(ctx context.Context, tenantID string, orderID uuid.UUID) (*models.StockOrder, error)
	TransitionOrder(ctx context.Context, tenantID string, orderID uuid.UUID, to models.OrderStatus, at time.Time) (*TransitionResult, error)
}

// AlertFilter narrows ListAlerts. Empty fields match everything.
type AlertFilter struct {
	Location string
	Status   models.AlertStatus
	Type     models.AlertType
}

// TransitionResult describes the outcome of TransitionOrder.
// Applied is false when the order already was in the requested status.
type TransitionResult struct {
	Order         models.StockOrder
	Applied       bool
	PreviousStock int
	CurrentStock  int
	AlertsClosed  int64
}

// BulkCreateError reports why one element of a bulk create was rejected
type BulkCreateError struct {
	Index   int
	Code    string
	Message string
}

// BulkCreateSupplierResult represents the result of a bulk supplier create
type BulkCreateSupplierResult struct {
	Created []*models.Supplier
	Errors  []BulkCreateError
	Skipped int
	Total   int
	Success int
	Failed  int
}

type StockRepository struct {
	db *gorm.DB
}

func NewStockRepository(db *gorm.DB) *StockRepository {
	return &StockRepository{db: db}
}

// ListProducts returns the products stocked at a location, or all products when location is empty
func (r *StockRepository) ListProducts(ctx context.Context, tenantID, location string) ([]models.Product, error) {
	var products []models.Product
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if location != "" {
		query = query.Where("location = ?", location)
	}
	err := query.Order("name ASC").Find(&products).Error
	return products, err
}

func (r *StockRepository) GetProduct(ctx context.Context, tenantID string, productID uuid.UUID) (*models.Product, error) {
	return findProduct(r.db.WithContext(ctx), tenantID, productID)
}

// ========== Suppliers ==========

func (r *StockRepository) CreateSupplier(ctx context.Context, supplier *models.Supplier) error {
	if supplier.Status == "" {
		supplier.Status = models.SupplierStatusActive
	}
	err := r.db.WithContext(ctx).Create(supplier).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("supplier %q at %q: %w", supplier.Name, supplier.Location, ErrDuplicate)
	}
	return err
}

func (r *StockRepository) ListSuppliers(ctx context.Context, tenantID, location string) ([]models.Supplier, error) {
	var suppliers []models.Supplier
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if location != "" {
		query = query.Where("location = ?", location)
	}
	err := query.Order("reliability DESC, name ASC").Find(&suppliers).Error
	return suppliers, err
}

func (r *StockRepository) GetSupplier(ctx context.Context, tenantID string, supplierID uuid.UUID) (*models.Supplier, error) {
	var supplier models.Supplier
	err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, supplierID).First(&supplier).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &supplier, nil
}

// BulkCreateSuppliers creates multiple suppliers in a transaction.
// SECURITY: All suppliers are assigned the provided tenantID
func (r *StockRepository) BulkCreateSuppliers(ctx context.Context, tenantID string, suppliers []*models.Supplier, skipDuplicates bool) (*BulkCreateSupplierResult, error) {
	result := &BulkCreateSupplierResult{
		Created: make([]*models.Supplier, 0, len(suppliers)),
		Errors:  make([]BulkCreateError, 0),
		Total:   len(suppliers),
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, supplier := range suppliers {
			supplier.TenantID = tenantID
			if supplier.Status == "" {
				supplier.Status = models.SupplierStatusActive
			}

			// Names are unique per location within a tenant
			var existingCount int64
			if err := tx.Model(&models.Supplier{}).
				Where("tenant_id = ? AND location = ? AND name = ?", tenantID, supplier.Location, supplier.Name).
				Count(&existingCount).Error; err != nil {
				result.Errors = append(result.Errors, BulkCreateError{
					Index:   i,
					Code:    "DB_ERROR",
					Message: "Failed to check for duplicate supplier",
				})
				continue
			}

			if existingCount > 0 {
				if skipDuplicates {
					result.Skipped++
					continue
				}
				result.Errors = append(result.Errors, BulkCreateError{
					Index:   i,
					Code:    "DUPLICATE_SUPPLIER",
					Message: fmt.Sprintf("Supplier '%s' already exists at location '%s'", supplier.Name, supplier.Location),
				})
				continue
			}

			// Savepoint per row
			if err := tx.Transaction(func(row *gorm.DB) error { return row.Create(supplier).Error }); err != nil {
				result.Errors = append(result.Errors, BulkCreateError{
					Index:   i,
					Code:    "CREATE_FAILED",
					Message: err.Error(),
				})
				continue
			}

			result.Created = append(result.Created, supplier)
		}

		result.Success = len(result.Created)
		result.Failed = len(result.Errors)

		// If all failed, rollback
		if result.Success == 0 && result.Failed > 0 {
			return fmt.Errorf("all suppliers failed to create")
		}
		return nil
	})

	if err != nil && result.Success == 0 {
		return result, err
	}
	return result, nil
}

// FindMostReliableSupplier picks the active supplier with the highest reliability at a location
func (r *StockRepository) FindMostReliableSupplier(ctx context.Context, tenantID, location string) (*models.Supplier, error) {
	var supplier models.Supplier
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND location = ? AND status = ?", tenantID, location, models.SupplierStatusActive).
		Order("reliability DESC, name ASC").
		First(&supplier).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &supplier, nil
}

// ========== Alerts ==========

func (r *StockRepository) ListAlerts(ctx context.Context, tenantID string, filter AlertFilter) ([]models.StockAlert, error) {
	alerts := []models.StockAlert{}
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if filter.Location != "" {
		query = query.Where("location = ?", filter.Location)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	err := query.Order("created_at DESC").Find(&alerts).Error
	return alerts, err
}

// ListProductAlerts returns the active alerts and auto-order rules of a product at a location, newest first
func (r *StockRepository) ListProductAlerts(ctx context.Context, tenantID string, productID uuid.UUID, location string) ([]models.StockAlert, error) {
	alerts := []models.StockAlert{}
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND product_id = ? AND location = ?", tenantID, productID, location).
		Where("status = ? OR auto_order_enabled = ?", models.AlertStatusActive, true).
		Order("created_at DESC").
		Find(&alerts).Error
	return alerts, err
}

func (r *StockRepository) CreateAlert(ctx context.Context, alert *models.StockAlert) error {
	if alert.Status == "" {
		alert.Status = models.AlertStatusActive
	}
	return r.db.WithContext(ctx).Create(alert).Error
}

// ReactivateAlert flips a resolved auto-order rule back to active
func (r *StockRepository) ReactivateAlert(ctx context.Context, alert *models.StockAlert, currentStock int) error {
	updates := map[string]interface{}{
		"status":        models.AlertStatusActive,
		"current_stock": currentStock,
		"resolved_at":   nil,
		"updated_at":    time.Now(),
	}
	if err := r.db.WithContext(ctx).Model(alert).Updates(updates).Error; err != nil {
		return err
	}
	alert.Status = models.AlertStatusActive
	alert.CurrentStock = currentStock
	alert.ResolvedAt = nil
	return nil
}

// ResolveAlerts resolves every active alert of the given type for a product at a location
func (r *StockRepository) ResolveAlerts(ctx context.Context, tenantID string, productID uuid.UUID, location string, alertType models.AlertType, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.StockAlert{}).
		Where("tenant_id = ? AND product_id = ? AND location = ? AND type = ? AND status = ?",
			tenantID, productID, location, alertType, models.AlertStatusActive).
		Updates(map[string]interface{}{
			"status":      models.AlertStatusResolved,
			"resolved_at": at,
			"updated_at":  at,
		})
	return result.RowsAffected, result.Error
}

// SaveAutoOrderRule upserts the low_stock alert carrying a product's auto-order rule.
// An existing active alert or earlier rule for the product and location is reused.
func (r *StockRepository) SaveAutoOrderRule(ctx context.Context, rule *models.StockAlert) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.StockAlert
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tenant_id = ? AND product_id = ? AND location = ? AND type = ?",
				rule.TenantID, rule.ProductID, rule.Location, models.AlertTypeLowStock).
			Where("status = ? OR auto_order_enabled = ?", models.AlertStatusActive, true).
			Order("auto_order_enabled DESC, created_at DESC").
			First(&existing).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			rule.Type = models.AlertTypeLowStock
			rule.AutoOrderEnabled = true
			if rule.Status == "" {
				rule.Status = models.AlertStatusActive
			}
			return tx.Create(rule).Error
		}
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"threshold":          rule.Threshold,
			"current_stock":      rule.CurrentStock,
			"auto_order_enabled": true,
			"supplier_id":        rule.SupplierID,
			"message":            rule.Message,
			"status":             rule.Status,
			"updated_at":         time.Now(),
		}
		if rule.Status == models.AlertStatusActive {
			updates["resolved_at"] = nil
		} else {
			updates["resolved_at"] = rule.ResolvedAt
		}
		if err := tx.Model(&existing).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(rule, "id = ?", existing.ID).Error
	})
}

// ========== Orders ==========

func (r *StockRepository) CountOrdersSince(ctx context.Context, tenantID string, productID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.StockOrder{}).
		Where("tenant_id = ? AND product_id = ? AND order_date >= ?", tenantID, productID, since).
		Count(&count).Error
	return count, err
}

func (r *StockRepository) CreateOrder(ctx context.Context, order *models.StockOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// CreateOrderIfNoneOpen places the order unless the product already has a pending
// or approved order at the location. The product row is locked for the check.
func (r *StockRepository) CreateOrderIfNoneOpen(ctx context.Context, order *models.StockOrder) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tenant_id = ? AND id = ?", order.TenantID, order.ProductID).
			First(&product).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var open int64
		if err := tx.Model(&models.StockOrder{}).
			Where("tenant_id = ? AND product_id = ? AND location = ? AND status IN ?",
				order.TenantID, order.ProductID, order.Location,
				[]models.OrderStatus{models.OrderStatusPending, models.OrderStatusApproved}).
			Count(&open).Error; err != nil {
			return err
		}
		if open > 0 {
			return nil
		}

		if err := tx.Create(order).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

func (r *StockRepository) GetOrder(ctx context.Context, tenantID string, orderID uuid.UUID) (*models.StockOrder, error) {
	var order models.StockOrder
	err := r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, orderID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// TransitionOrder moves an order to a new status with a status-guarded update.
// Delivery increments the product's stock by the order quantity in the same
// transaction and resolves active low_stock alerts whose threshold is now exceeded.
// Repeating the current status is a no-op.
func (r *StockRepository) TransitionOrder(ctx context.Context, tenantID string, orderID uuid.UUID, to models.OrderStatus, at time.Time) (*TransitionResult, error) {
	var res TransitionResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":     to,
			"updated_at": at,
		}
		if to == models.OrderStatusDelivered {
			updates["delivered_at"] = at
		}

		result := tx.Model(&models.StockOrder{}).
			Where("tenant_id = ? AND id = ? AND status IN ?", tenantID, orderID, models.TransitionSources(to)).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}

		if err := tx.Where("tenant_id = ? AND id = ?", tenantID, orderID).First(&res.Order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if result.RowsAffected == 0 {
			if res.Order.Status == to {
				return nil
			}
			return ErrInvalidTransition
		}
		res.Applied = true

		if to != models.OrderStatusDelivered {
			return nil
		}

		stock := tx.Model(&models.Product{}).
			Where("tenant_id = ? AND id = ?", tenantID, res.Order.ProductID).
			Updates(map[string]interface{}{
				"count_in_stock": gorm.Expr("count_in_stock + ?", res.Order.Quantity),
				"updated_at":     at,
			})
		if stock.Error != nil {
			return stock.Error
		}
		if stock.RowsAffected == 0 {
			return ErrNotFound
		}

		var product models.Product
		if err := tx.Select("id", "count_in_stock").
			Where("tenant_id = ? AND id = ?", tenantID, res.Order.ProductID).
			First(&product).Error; err != nil {
			return err
		}
		res.CurrentStock = product.CountInStock
		res.PreviousStock = product.CountInStock - res.Order.Quantity

		closed := tx.Model(&models.StockAlert{}).
			Where("tenant_id = ? AND product_id = ? AND type = ? AND status = ? AND threshold < ?",
				tenantID, res.Order.ProductID, models.AlertTypeLowStock, models.AlertStatusActive, product.CountInStock).
			Updates(map[string]interface{}{
				"status":        models.AlertStatusResolved,
				"current_stock": product.CountInStock,
				"resolved_at":   at,
				"updated_at":    at,
			})
		if closed.Error != nil {
			return closed.Error
		}
		res.AlertsClosed = closed.RowsAffected
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}
