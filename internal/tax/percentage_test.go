package tax_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lherbier/vetiver/internal/tax"
)

func TestNewPercentageCalculator(t *testing.T) {
	tests := []struct {
		name    string
		rate    string
		wantErr bool
	}{
		{name: "standard gst rate", rate: "0.09"},
		{name: "zero rate", rate: "0"},
		{name: "high but valid rate", rate: "0.25"},
		{name: "negative rate", rate: "-0.05", wantErr: true},
		{name: "rate of one", rate: "1", wantErr: true},
		{name: "rate above one", rate: "1.5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc, err := tax.NewPercentageCalculator(decimal.RequireFromString(tt.rate))
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, calc)
				return
			}
			require.NoError(t, err)
			assert.True(t, calc.Rate().Equal(decimal.RequireFromString(tt.rate)))
		})
	}
}

func TestPercentageCalculator_CalculateTax(t *testing.T) {
	tests := []struct {
		name     string
		rate     string
		subtotal string
		want     string
	}{
		{name: "two items at ten dollars", rate: "0.09", subtotal: "20.00", want: "1.80"},
		{name: "rounds half up to cents", rate: "0.09", subtotal: "10.99", want: "0.99"},
		{name: "rounds down to cents", rate: "0.09", subtotal: "10.01", want: "0.90"},
		{name: "single perfume bottle", rate: "0.09", subtotal: "89.00", want: "8.01"},
		{name: "zero subtotal", rate: "0.09", subtotal: "0", want: "0"},
		{name: "zero rate", rate: "0", subtotal: "50.00", want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc, err := tax.NewPercentageCalculator(decimal.RequireFromString(tt.rate))
			require.NoError(t, err)

			got, err := calc.CalculateTax(context.Background(), decimal.RequireFromString(tt.subtotal))
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"got %s, want %s", got, tt.want)
		})
	}
}

func TestPercentageCalculator_NegativeSubtotal(t *testing.T) {
	calc, err := tax.NewPercentageCalculator(decimal.RequireFromString("0.09"))
	require.NoError(t, err)

	_, err = calc.CalculateTax(context.Background(), decimal.RequireFromString("-1.00"))
	assert.Error(t, err)
}
