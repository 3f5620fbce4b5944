package tax

import (
	"context"

	"github.com/shopspring/decimal"
)

// NoTaxCalculator returns zero tax for all subtotals.
// Used for deployments where tax is handled outside the storefront.
type NoTaxCalculator struct{}

// NewNoTaxCalculator creates a no-tax calculator.
func NewNoTaxCalculator() *NoTaxCalculator {
	return &NoTaxCalculator{}
}

// CalculateTax always returns zero.
func (c *NoTaxCalculator) CalculateTax(_ context.Context, _ decimal.Decimal) (decimal.Decimal, error) {
	return decimal.Zero, nil
}
