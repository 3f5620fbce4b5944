package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lherbier/vetiver/internal/billing"
	"github.com/lherbier/vetiver/internal/domain"
	"github.com/lherbier/vetiver/internal/tax"
)

// checkoutService implements domain.CheckoutService. Client-submitted carts
// carry only variant ids and quantities; every amount is resolved from the
// catalog and recomputed here before the gateway sees it.
type checkoutService struct {
	catalog  domain.CatalogStore
	billing  billing.Provider
	tax      tax.Calculator
	currency string
	logger   *slog.Logger
}

// NewCheckoutService creates the checkout service. Currency is the ISO 4217
// lowercase code all sessions are priced in.
func NewCheckoutService(catalog domain.CatalogStore, billingProvider billing.Provider, taxCalculator tax.Calculator, currency string, logger *slog.Logger) domain.CheckoutService {
	return &checkoutService{
		catalog:  catalog,
		billing:  billingProvider,
		tax:      taxCalculator,
		currency: currency,
		logger:   logger,
	}
}

// CreatePaymentSession prices the cart against the catalog, opens a payment
// intent for the computed total, and embeds the priced snapshot in the
// intent's metadata for the settlement path.
func (s *checkoutService) CreatePaymentSession(ctx context.Context, req domain.CreatePaymentSessionRequest) (*domain.PaymentSession, error) {
	const op = "checkout.create_payment_session"

	if len(req.Lines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	variantIDs := make([]string, 0, len(req.Lines))
	for _, line := range req.Lines {
		if line.Quantity < 1 {
			return nil, domain.Invalid(op, fmt.Sprintf("quantity for variant %s must be at least 1", line.VariantID))
		}
		variantIDs = append(variantIDs, line.VariantID)
	}

	pricing, err := s.catalog.VariantPricing(ctx, variantIDs)
	if err != nil {
		return nil, err
	}
	byVariant := make(map[string]domain.VariantPricing, len(pricing))
	for _, p := range pricing {
		byVariant[p.VariantID] = p
	}

	breakdown, snapshot, err := s.priceCart(ctx, req.Lines, byVariant)
	if err != nil {
		return nil, err
	}

	metadata, err := domain.EncodeCartMetadata(*snapshot, req.UserID)
	if err != nil {
		return nil, err
	}

	intent, err := s.billing.CreatePaymentIntent(ctx, billing.CreatePaymentIntentParams{
		AmountCents:    breakdown.TotalCents(),
		Currency:       breakdown.Currency,
		Description:    "Vetiver order",
		Metadata:       metadata,
		IdempotencyKey: uuid.NewString(),
	})
	if err != nil {
		return nil, domain.PaymentFailed(err, op, "failed to open a payment session")
	}

	s.logger.InfoContext(ctx, "payment session created",
		slog.String("payment_intent_id", intent.ID),
		slog.String("subtotal", breakdown.Subtotal.String()),
		slog.String("total", breakdown.Total.String()),
		slog.Int("lines", len(snapshot.Lines)),
	)

	return &domain.PaymentSession{
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		Breakdown:       *breakdown,
	}, nil
}

// priceCart computes the breakdown and the snapshot recorded on the intent.
// Every line must resolve against current catalog pricing.
func (s *checkoutService) priceCart(ctx context.Context, lines []domain.CartLineRequest, byVariant map[string]domain.VariantPricing) (*domain.PriceBreakdown, *domain.CartSnapshot, error) {
	const op = "checkout.price_cart"

	subtotal := decimal.Zero
	snapshot := &domain.CartSnapshot{Lines: make([]domain.SnapshotLine, 0, len(lines))}

	for _, line := range lines {
		p, ok := byVariant[line.VariantID]
		if !ok {
			return nil, nil, domain.Invalid(op, fmt.Sprintf("variant %s is not available for purchase", line.VariantID))
		}

		subtotal = subtotal.Add(p.UnitPrice.Mul(decimal.NewFromInt32(line.Quantity)))
		snapshot.Lines = append(snapshot.Lines, domain.SnapshotLine{
			VariantID:   p.VariantID,
			ProductID:   p.ProductID,
			ProductName: p.ProductName,
			VariantName: p.VariantName,
			ImageURL:    p.ImageURL,
			Quantity:    line.Quantity,
			UnitPrice:   p.UnitPrice,
		})
	}

	taxAmount, err := s.tax.CalculateTax(ctx, subtotal)
	if err != nil {
		return nil, nil, domain.Internal(err, op, "failed to calculate tax")
	}

	total := subtotal.Add(taxAmount)
	if !total.IsPositive() {
		return nil, nil, domain.Invalid(op, "order total must be greater than zero")
	}

	return &domain.PriceBreakdown{
		Subtotal:  subtotal,
		TaxAmount: taxAmount,
		Total:     total,
		Currency:  s.currency,
	}, snapshot, nil
}
