package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SupplierStatus represents the status of a supplier
type SupplierStatus string

const (
	SupplierStatusActive   SupplierStatus = "ACTIVE"
	SupplierStatusInactive SupplierStatus = "INACTIVE"
)

// Supplier is a vendor that replenishes stock for a location
type Supplier struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID    string         `json:"tenantId" gorm:"type:varchar(255);not null;index;uniqueIndex:idx_supplier_tenant_location_name"`
	Name        string         `json:"name" gorm:"type:varchar(255);not null;uniqueIndex:idx_supplier_tenant_location_name"`
	Email       *string        `json:"email,omitempty" gorm:"type:varchar(255)"`
	Phone       *string        `json:"phone,omitempty" gorm:"type:varchar(50)"`
	Location    string         `json:"location" gorm:"type:varchar(255);not null;index;uniqueIndex:idx_supplier_tenant_location_name"`
	Reliability float64        `json:"reliability" gorm:"type:decimal(3,2);not null;default:0"`
	Status      SupplierStatus `json:"status" gorm:"type:varchar(20);not null;default:'ACTIVE'"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Supplier) TableName() string {
	return "suppliers"
}

// CreateSupplierRequest registers a supplier for a location
type CreateSupplierRequest struct {
	Name        string          `json:"name" binding:"required"`
	Location    string          `json:"location" binding:"required"`
	Email       *string         `json:"email" binding:"omitempty,email"`
	Phone       *string         `json:"phone"`
	Reliability float64         `json:"reliability" binding:"gte=0,lte=1"`
	Status      *SupplierStatus `json:"status" binding:"omitempty,oneof=ACTIVE INACTIVE"`
}

// AlertType represents the kind of stock alert
type AlertType string

const (
	AlertTypeLowStock   AlertType = "low_stock"
	AlertTypeHighDemand AlertType = "high_demand"
)

// AlertStatus represents the status of an alert
type AlertStatus string

const (
	AlertStatusActive   AlertStatus = "active"
	AlertStatusResolved AlertStatus = "resolved"
)

// StockAlert is raised when a product's stock crosses its threshold or demand is High.
// A low_stock alert with AutoOrderEnabled doubles as the product's auto-reorder rule
// and is re-activated instead of duplicated when stock falls again.
type StockAlert struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID  string    `json:"tenantId" gorm:"type:varchar(255);not null;index:idx_stock_alerts_lookup"`
	ProductID uuid.UUID `json:"productId" gorm:"type:uuid;not null;index:idx_stock_alerts_lookup"`
	Location  string    `json:"location" gorm:"type:varchar(255);not null;index:idx_stock_alerts_lookup"`

	Type         AlertType   `json:"type" gorm:"type:varchar(50);not null;index"`
	Status       AlertStatus `json:"status" gorm:"type:varchar(20);not null;default:'active';index"`
	Threshold    int         `json:"threshold" gorm:"not null;default:0"`
	CurrentStock int         `json:"currentStock" gorm:"not null;default:0"`
	Message      string      `json:"message" gorm:"type:text"`

	AutoOrderEnabled bool       `json:"autoOrderEnabled" gorm:"not null;default:false"`
	SupplierID       *uuid.UUID `json:"supplierId,omitempty" gorm:"type:uuid"`

	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func (StockAlert) TableName() string {
	return "stock_alerts"
}

// DemandLevel classifies recent reorder frequency of a product
type DemandLevel string

const (
	DemandLevelLow     DemandLevel = "Low"
	DemandLevelMedium  DemandLevel = "Medium"
	DemandLevelHigh    DemandLevel = "High"
	DemandLevelUnknown DemandLevel = "Unknown"
)

// OrderStatus is the lifecycle state of a stock order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusApproved  OrderStatus = "approved"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusRejected  OrderStatus = "rejected"
)

// orderTransitions maps each target status to the statuses it may be reached from
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusApproved:  {OrderStatusPending},
	OrderStatusDelivered: {OrderStatusPending, OrderStatusApproved},
	OrderStatusRejected:  {OrderStatusPending, OrderStatusApproved},
}

// ParseOrderStatus normalizes a requested status. "completed" is accepted as delivered.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return OrderStatusPending, true
	case "approved":
		return OrderStatusApproved, true
	case "delivered", "completed":
		return OrderStatusDelivered, true
	case "rejected":
		return OrderStatusRejected, true
	}
	return "", false
}

// TransitionSources returns the statuses from which to may be entered
func TransitionSources(to OrderStatus) []OrderStatus {
	return orderTransitions[to]
}

// CanTransition reports whether an order may move from one status to another
func CanTransition(from, to OrderStatus) bool {
	for _, s := range orderTransitions[to] {
		if s == from {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusRejected
}

// PaymentStatus of a stock order
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// StockOrder is a replenishment request placed with a supplier
type StockOrder struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID   string    `json:"tenantId" gorm:"type:varchar(255);not null;index:idx_stock_orders_product"`
	ProductID  uuid.UUID `json:"productId" gorm:"type:uuid;not null;index:idx_stock_orders_product"`
	SupplierID uuid.UUID `json:"supplierId" gorm:"type:uuid;not null;index"`
	Location   string    `json:"location" gorm:"type:varchar(255);not null"`

	Quantity      int             `json:"quantity" gorm:"not null"`
	Status        OrderStatus     `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	AutoOrdered   bool            `json:"autoOrdered" gorm:"not null;default:false"`
	TotalAmount   decimal.Decimal `json:"totalAmount" gorm:"type:decimal(12,2);not null;default:0"`
	PaymentStatus PaymentStatus   `json:"paymentStatus" gorm:"type:varchar(20);not null;default:'pending'"`

	OrderDate   time.Time  `json:"orderDate" gorm:"not null;index:idx_stock_orders_product"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (StockOrder) TableName() string {
	return "stock_orders"
}

// ProductStockStatus is one row of the stock status report
type ProductStockStatus struct {
	Product      Product      `json:"product"`
	CurrentStock int          `json:"currentStock"`
	Threshold    int          `json:"threshold"`
	DemandLevel  DemandLevel  `json:"demandLevel"`
	Alerts       []StockAlert `json:"alerts"`
	AutoOrder    *StockOrder  `json:"autoOrder,omitempty"`
	Error        string       `json:"error,omitempty"`
}

// CreateStockOrderRequest is the body of a manual reorder
type CreateStockOrderRequest struct {
	SupplierID string `json:"supplierId" binding:"required,uuid"`
	Quantity   int    `json:"quantity" binding:"required,gt=0"`
	Location   string `json:"location"`
}

// EnableAutoOrderRequest is the body of the auto-order endpoint
type EnableAutoOrderRequest struct {
	Location string `json:"location" binding:"required"`
}

// UpdateOrderStatusRequest is the body of update-order
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending approved delivered completed rejected"`
}

// AutoOrderResult is returned when an auto-order rule is enabled
type AutoOrderResult struct {
	Alert    StockAlert  `json:"alert"`
	Supplier Supplier    `json:"supplier"`
	Order    *StockOrder `json:"order,omitempty"`
}

// DemandLevelResponse reports a product's demand classification
type DemandLevelResponse struct {
	ProductID   uuid.UUID   `json:"productId"`
	DemandLevel DemandLevel `json:"demandLevel"`
}
