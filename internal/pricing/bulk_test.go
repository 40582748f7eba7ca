package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkDiscountTiers(t *testing.T) {
	tests := []struct {
		stock int
		tiers int
	}{
		{stock: 0, tiers: 0},
		{stock: 20, tiers: 0},
		{stock: 21, tiers: 2},
		{stock: 50, tiers: 2},
		{stock: 51, tiers: 3},
		{stock: 500, tiers: 3},
	}
	for _, tt := range tests {
		tiers := BulkDiscountTiers(tt.stock, dec("10"))
		assert.Len(t, tiers, tt.tiers, "stock=%d", tt.stock)
	}
}

func TestBulkDiscountTiers_UnitPrices(t *testing.T) {
	tiers := BulkDiscountTiers(80, dec("19.99"))
	require.Len(t, tiers, 3)

	assert.Equal(t, 5, tiers[0].MinQuantity)
	assert.Equal(t, 5, tiers[0].DiscountPercent)
	assert.True(t, tiers[0].UnitPrice.Equal(dec("18.99")), "got %s", tiers[0].UnitPrice)

	assert.Equal(t, 10, tiers[1].MinQuantity)
	assert.True(t, tiers[1].UnitPrice.Equal(dec("17.99")), "got %s", tiers[1].UnitPrice)

	assert.Equal(t, 20, tiers[2].MinQuantity)
	assert.Equal(t, 15, tiers[2].DiscountPercent)
	assert.True(t, tiers[2].UnitPrice.Equal(dec("16.99")), "got %s", tiers[2].UnitPrice)
}

func TestBulkDiscountTiers_EmptyIsNotNil(t *testing.T) {
	tiers := BulkDiscountTiers(3, dec("1"))
	assert.NotNil(t, tiers)
	assert.Empty(t, tiers)
}
