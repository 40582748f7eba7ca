// Package pricing holds the dynamic pricing rules. Everything here is free of I/O.
package pricing

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidInput is returned when an evaluation input cannot produce a price
var ErrInvalidInput = errors.New("invalid pricing input")

// Skip reasons reported when Evaluate returns no change
const (
	SkipTimeGate            = "time_gate"
	SkipInsignificantChange = "insignificant_change"
)

// StockTier discounts products holding more than Above units
type StockTier struct {
	Above      int
	Multiplier decimal.Decimal
}

// DemandTier discounts products whose demand score is below Below
type DemandTier struct {
	Below      float64
	Multiplier decimal.Decimal
}

// Policy configures the price evaluator.
// StockTiers must be ordered by descending Above and DemandTiers by ascending Below;
// the first matching tier of each list applies.
type Policy struct {
	MinUpdateInterval time.Duration
	MaxDecrease       decimal.Decimal
	MinRelativeChange decimal.Decimal
	StockTiers        []StockTier
	DemandTiers       []DemandTier
}

// DefaultPolicy returns the production pricing rules
func DefaultPolicy() Policy {
	return Policy{
		MinUpdateInterval: time.Hour,
		MaxDecrease:       decimal.RequireFromString("0.25"),
		MinRelativeChange: decimal.RequireFromString("0.01"),
		StockTiers: []StockTier{
			{Above: 100, Multiplier: decimal.RequireFromString("0.85")},
			{Above: 50, Multiplier: decimal.RequireFromString("0.90")},
			{Above: 20, Multiplier: decimal.RequireFromString("0.95")},
		},
		DemandTiers: []DemandTier{
			{Below: 0.3, Multiplier: decimal.RequireFromString("0.90")},
			{Below: 0.6, Multiplier: decimal.RequireFromString("0.95")},
		},
	}
}

// Input is a single product's pricing state
type Input struct {
	BasePrice   decimal.Decimal
	StockLevel  int
	DemandScore float64
	LastUpdated *time.Time
}

// Decision is the evaluator's verdict. When Changed is false NewPrice equals the
// base price and SkipReason says why nothing should be written.
type Decision struct {
	Changed    bool
	NewPrice   decimal.Decimal
	RawPrice   decimal.Decimal
	Multiplier decimal.Decimal
	MinPrice   decimal.Decimal
	MaxPrice   decimal.Decimal
	SkipReason string
}

// Evaluate maps a product's pricing state to a new price or no change
func (p Policy) Evaluate(in Input, now time.Time) (Decision, error) {
	if err := validate(in); err != nil {
		return Decision{}, err
	}

	base := in.BasePrice
	d := Decision{
		NewPrice:   base,
		RawPrice:   base,
		Multiplier: decimal.NewFromInt(1),
		MaxPrice:   base,
		// Prices are stored in cents, so the floor rounds up to stay in bounds
		MinPrice: base.Mul(decimal.NewFromInt(1).Sub(p.MaxDecrease)).RoundCeil(2),
	}

	if in.LastUpdated != nil && now.Sub(*in.LastUpdated) < p.MinUpdateInterval {
		d.SkipReason = SkipTimeGate
		return d, nil
	}

	d.Multiplier = p.multiplier(in.StockLevel, in.DemandScore)
	d.RawPrice = base.Mul(d.Multiplier).Round(0)

	price := d.RawPrice
	if price.LessThan(d.MinPrice) {
		price = d.MinPrice
	}
	if price.GreaterThan(d.MaxPrice) {
		price = d.MaxPrice
	}

	if price.Sub(base).Abs().Div(base).LessThan(p.MinRelativeChange) {
		d.SkipReason = SkipInsignificantChange
		return d, nil
	}

	if price.GreaterThan(base) {
		price = base
	}

	d.Changed = true
	d.NewPrice = price
	return d, nil
}

func (p Policy) multiplier(stock int, demand float64) decimal.Decimal {
	m := decimal.NewFromInt(1)
	for _, t := range p.StockTiers {
		if stock > t.Above {
			m = m.Mul(t.Multiplier)
			break
		}
	}
	for _, t := range p.DemandTiers {
		if demand < t.Below {
			m = m.Mul(t.Multiplier)
			break
		}
	}
	return m
}

func validate(in Input) error {
	if !in.BasePrice.IsPositive() {
		return fmt.Errorf("%w: base price must be greater than zero", ErrInvalidInput)
	}
	if in.StockLevel < 0 {
		return fmt.Errorf("%w: stock level must not be negative", ErrInvalidInput)
	}
	if math.IsNaN(in.DemandScore) || in.DemandScore < 0 || in.DemandScore > 1 {
		return fmt.Errorf("%w: demand score must be within [0,1]", ErrInvalidInput)
	}
	return nil
}

// Discount returns round((base-price)/base*100), never negative
func Discount(base, price decimal.Decimal) int {
	if !base.IsPositive() {
		return 0
	}
	pct := base.Sub(price).Div(base).Mul(decimal.NewFromInt(100)).Round(0)
	if pct.IsNegative() {
		return 0
	}
	return int(pct.IntPart())
}

// AdjustmentReason is the history entry text for an automated change
func AdjustmentReason(stock int, demand float64) string {
	return fmt.Sprintf("Automatic adjustment based on stock(%d) and demand(%.2f)", stock, demand)
}
