package tax

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// PercentageCalculator applies a flat percentage rate to the subtotal.
// This is the production calculator; the rate comes from configuration
// (e.g. 0.09 for a 9% goods and services tax).
type PercentageCalculator struct {
	rate decimal.Decimal
}

// NewPercentageCalculator creates a percentage-based tax calculator.
// The rate must be in [0, 1).
func NewPercentageCalculator(rate decimal.Decimal) (*PercentageCalculator, error) {
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("tax: rate must be in [0, 1), got %s", rate)
	}
	return &PercentageCalculator{rate: rate}, nil
}

// CalculateTax computes subtotal * rate, rounded to cents.
func (c *PercentageCalculator) CalculateTax(_ context.Context, subtotal decimal.Decimal) (decimal.Decimal, error) {
	if subtotal.IsNegative() {
		return decimal.Zero, fmt.Errorf("tax: subtotal must not be negative, got %s", subtotal)
	}
	return subtotal.Mul(c.rate).Round(2), nil
}

// Rate returns the configured rate.
func (c *PercentageCalculator) Rate() decimal.Decimal {
	return c.rate
}
