package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultMaxStock is the shelf capacity assumed when a product has none configured
const DefaultMaxStock = 100

// Product is the catalog's sellable item as seen by pricing and stock management.
// BasePrice is the ceiling price: automated pricing never moves Price above it
// or below BasePrice*(1-MaxDecrease).
type Product struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID string    `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	Name     string    `json:"name" gorm:"type:varchar(255);not null"`
	SKU      string    `json:"sku" gorm:"type:varchar(100);index"`
	Location string    `json:"location" gorm:"type:varchar(255);index"`

	// Pricing
	BasePrice decimal.NullDecimal `json:"basePrice" gorm:"type:decimal(12,2)"`
	Price     decimal.Decimal     `json:"price" gorm:"type:decimal(12,2);not null;default:0"`
	OldPrice  decimal.NullDecimal `json:"oldPrice" gorm:"type:decimal(12,2)"`
	Discount  int                 `json:"discount" gorm:"not null;default:0"`

	// Stock
	CountInStock int `json:"countInStock" gorm:"not null;default:0"`
	MaxStock     int `json:"maxStock" gorm:"not null;default:100"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Product) TableName() string {
	return "products"
}

// HasBasePrice reports whether a usable ceiling price is set
func (p *Product) HasBasePrice() bool {
	return p.BasePrice.Valid && p.BasePrice.Decimal.IsPositive()
}

// Capacity returns MaxStock, falling back to DefaultMaxStock when unset
func (p *Product) Capacity() int {
	if p.MaxStock <= 0 {
		return DefaultMaxStock
	}
	return p.MaxStock
}

// LowStockThreshold is ceil(30% of capacity)
func (p *Product) LowStockThreshold() int {
	return (3*p.Capacity() + 9) / 10
}

// ReorderQuantity is the amount needed to refill the product to capacity
func (p *Product) ReorderQuantity() int {
	qty := p.Capacity() - p.CountInStock
	if qty < 1 {
		return 1
	}
	return qty
}
