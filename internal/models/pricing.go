package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PricingRecord holds the last evaluated pricing state of a product.
// There is exactly one record per (tenant, product).
type PricingRecord struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID  string    `json:"tenantId" gorm:"type:varchar(255);not null;uniqueIndex:idx_pricing_tenant_product"`
	ProductID uuid.UUID `json:"productId" gorm:"type:uuid;not null;uniqueIndex:idx_pricing_tenant_product"`

	OriginalPrice decimal.Decimal `json:"originalPrice" gorm:"type:decimal(12,2);not null"`
	CurrentPrice  decimal.Decimal `json:"currentPrice" gorm:"type:decimal(12,2);not null"`
	StockLevel    int             `json:"stockLevel" gorm:"not null;default:0"`
	DemandScore   float64         `json:"demandScore" gorm:"type:decimal(5,4);not null;default:0"`
	LastUpdated   time.Time       `json:"lastUpdated" gorm:"not null"`

	PriceHistory []PriceHistoryEntry `json:"priceHistory,omitempty" gorm:"foreignKey:PricingRecordID"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (PricingRecord) TableName() string {
	return "pricing_records"
}

// PriceHistoryEntry is one append-only row of a product's price log.
// Sequence gives insertion order.
type PriceHistoryEntry struct {
	Sequence        uint64          `json:"-" gorm:"primaryKey;autoIncrement"`
	TenantID        string          `json:"-" gorm:"type:varchar(255);not null;index"`
	PricingRecordID uuid.UUID       `json:"-" gorm:"type:uuid;not null;index"`
	ProductID       uuid.UUID       `json:"productId" gorm:"type:uuid;not null;index"`
	Price           decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Date            time.Time       `json:"date" gorm:"not null"`
	Reason          string          `json:"reason" gorm:"type:text;not null"`
}

func (PriceHistoryEntry) TableName() string {
	return "price_history_entries"
}

// UpdateStatus is the outcome of one product in a batch run
type UpdateStatus string

const (
	UpdateStatusUpdated UpdateStatus = "updated"
	UpdateStatusSkipped UpdateStatus = "skipped"
	UpdateStatusFailed  UpdateStatus = "failed"
)

// ProductUpdate is the per-product report entry of a batch run
type ProductUpdate struct {
	ProductID   uuid.UUID        `json:"productId"`
	ProductName string           `json:"productName"`
	Status      UpdateStatus     `json:"status"`
	Message     string           `json:"message"`
	OldPrice    *decimal.Decimal `json:"oldPrice,omitempty"`
	NewPrice    *decimal.Decimal `json:"newPrice,omitempty"`
	Discount    *int             `json:"discount,omitempty"`
	DemandScore *float64         `json:"demandScore,omitempty"`
}

// BatchUpdateResult is returned by update-prices
type BatchUpdateResult struct {
	Message string          `json:"message"`
	Updates []ProductUpdate `json:"updates"`
}

// InitializeResult is returned by initialize and set-base-prices
type InitializeResult struct {
	Message         string          `json:"message"`
	ProductsScanned int             `json:"productsScanned"`
	ProductsUpdated int64           `json:"productsUpdated"`
	RecordsCreated  int             `json:"recordsCreated"`
	ProductsFailed  int             `json:"productsFailed"`
	Failures        []ProductUpdate `json:"failures,omitempty"`
}

// PriceHistoryResponse wraps the history of one product
type PriceHistoryResponse struct {
	ProductID    uuid.UUID           `json:"productId"`
	ProductName  string              `json:"productName"`
	PriceHistory []PriceHistoryEntry `json:"priceHistory"`
}

// BulkDiscountTier is one row of the volume discount table
type BulkDiscountTier struct {
	MinQuantity     int             `json:"minQuantity"`
	DiscountPercent int             `json:"discountPercent"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
}

// BulkDiscountResponse lists the tiers available for a product
type BulkDiscountResponse struct {
	ProductID    uuid.UUID          `json:"productId"`
	ProductName  string             `json:"productName"`
	CurrentPrice decimal.Decimal    `json:"currentPrice"`
	CountInStock int                `json:"countInStock"`
	Tiers        []BulkDiscountTier `json:"tiers"`
}

// PricingSummaryRow joins a pricing record with its product
type PricingSummaryRow struct {
	ProductID     uuid.UUID       `json:"productId"`
	ProductName   string          `json:"productName"`
	Price         decimal.Decimal `json:"price"`
	CountInStock  int             `json:"countInStock"`
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	CurrentPrice  decimal.Decimal `json:"currentPrice"`
	DemandScore   float64         `json:"demandScore"`
	LastUpdated   time.Time       `json:"lastUpdated"`
	ChangePercent float64         `json:"changePercent" gorm:"-"`
}

// PricingStatus is the aggregate returned by the status endpoint
type PricingStatus struct {
	TotalProducts        int                 `json:"totalProducts"`
	Increases            int                 `json:"increases"`
	Decreases            int                 `json:"decreases"`
	NoChange             int                 `json:"noChange"`
	AverageChangePercent float64             `json:"averageChangePercent"`
	Products             []PricingSummaryRow `json:"products"`
}

// TestPriceCalculationRequest exercises the evaluator for one hypothetical input
type TestPriceCalculationRequest struct {
	BasePrice   *decimal.Decimal `json:"basePrice" binding:"required"`
	StockLevel  *int             `json:"stockLevel" binding:"required,gte=0"`
	DemandScore *float64         `json:"demandScore" binding:"required,gte=0,lte=1"`
	LastUpdated *time.Time       `json:"lastUpdated,omitempty"`
}

// TestPriceCalculationResponse reports every intermediate value of the evaluation
type TestPriceCalculationResponse struct {
	BasePrice  decimal.Decimal `json:"basePrice"`
	Multiplier decimal.Decimal `json:"multiplier"`
	RawPrice   decimal.Decimal `json:"rawPrice"`
	MinPrice   decimal.Decimal `json:"minPrice"`
	MaxPrice   decimal.Decimal `json:"maxPrice"`
	Changed    bool            `json:"changed"`
	NewPrice   decimal.Decimal `json:"newPrice"`
	Discount   int             `json:"discount"`
	SkipReason string          `json:"skipReason,omitempty"`
}
