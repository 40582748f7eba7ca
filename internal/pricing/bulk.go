package pricing

import (
	"github.com/shopspring/decimal"

	"pricing-service/internal/models"
)

type volumeTier struct {
	minQuantity int
	percent     int
}

var volumeTiers = []volumeTier{
	{minQuantity: 5, percent: 5},
	{minQuantity: 10, percent: 10},
	{minQuantity: 20, percent: 15},
}

// BulkDiscountTiers builds the volume discount table for a product.
// More than 50 units in stock unlocks all three tiers, more than 20 the first two.
func BulkDiscountTiers(stock int, price decimal.Decimal) []models.BulkDiscountTier {
	var n int
	switch {
	case stock > 50:
		n = 3
	case stock > 20:
		n = 2
	default:
		return []models.BulkDiscountTier{}
	}

	hundred := decimal.NewFromInt(100)
	tiers := make([]models.BulkDiscountTier, 0, n)
	for _, t := range volumeTiers[:n] {
		factor := hundred.Sub(decimal.NewFromInt(int64(t.percent))).Div(hundred)
		tiers = append(tiers, models.BulkDiscountTier{
			MinQuantity:     t.minQuantity,
			DiscountPercent: t.percent,
			UnitPrice:       price.Mul(factor).Round(2),
		})
	}
	return tiers
}
