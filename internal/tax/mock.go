package tax

import (
	"context"

	"github.com/shopspring/decimal"
)

// MockCalculator lets tests control the tax amount or force an error.
type MockCalculator struct {
	CalculateTaxFunc func(ctx context.Context, subtotal decimal.Decimal) (decimal.Decimal, error)
}

func (m *MockCalculator) CalculateTax(ctx context.Context, subtotal decimal.Decimal) (decimal.Decimal, error) {
	if m.CalculateTaxFunc != nil {
		return m.CalculateTaxFunc(ctx, subtotal)
	}
	return decimal.Zero, nil
}

var _ Calculator = (*MockCalculator)(nil)
