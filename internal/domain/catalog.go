package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// VariantPricing is the catalog's answer for one purchasable variant: the
// authoritative unit price plus the display fields that get snapshotted onto
// payment session metadata and, later, order line items.
type VariantPricing struct {
	VariantID   string
	ProductID   string
	ProductName string
	VariantName string
	ImageURL    string
	UnitPrice   decimal.Decimal
}

// CatalogStore provides read access to the product catalog.
type CatalogStore interface {
	// VariantPricing resolves pricing for a batch of variant ids in a single
	// query. Ids that do not exist are simply absent from the result; callers
	// decide whether that is an error.
	VariantPricing(ctx context.Context, variantIDs []string) ([]VariantPricing, error)
}
