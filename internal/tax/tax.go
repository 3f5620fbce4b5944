package tax

import (
	"context"

	"github.com/shopspring/decimal"
)

// Calculator computes the tax owed on a cart subtotal.
// Implementations: PercentageCalculator, NoTaxCalculator.
type Calculator interface {
	// CalculateTax returns the tax amount for the given subtotal, rounded
	// to two decimal places.
	CalculateTax(ctx context.Context, subtotal decimal.Decimal) (decimal.Decimal, error)
}
