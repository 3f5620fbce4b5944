package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/lherbier/vetiver/internal/billing"
	"github.com/lherbier/vetiver/internal/domain"
	"github.com/lherbier/vetiver/internal/jobs"
)

// orderService implements domain.OrderService. Orders are materialized
// exclusively from the gateway's view of a payment intent; the webhook body
// is never trusted and the catalog is never consulted at settlement time.
type orderService struct {
	billing billing.Provider
	orders  domain.OrderStore
	jobs    domain.JobStore
	logger  *slog.Logger
}

// NewOrderService creates the order service. The job store is optional; when
// nil no confirmation emails are enqueued.
func NewOrderService(billingProvider billing.Provider, orders domain.OrderStore, jobStore domain.JobStore, logger *slog.Logger) domain.OrderService {
	return &orderService{
		billing: billingProvider,
		orders:  orders,
		jobs:    jobStore,
		logger:  logger,
	}
}

// CreateOrderFromPaymentIntent materializes an order from a succeeded payment
// intent. The line items come from the cart snapshot recorded on the intent
// at checkout time, so later catalog edits never change what was bought.
// Idempotent: a payment intent that already produced an order returns that
// order.
func (s *orderService) CreateOrderFromPaymentIntent(ctx context.Context, paymentIntentID string) (*domain.Order, error) {
	const op = "order.create_from_payment_intent"

	intent, err := s.billing.GetPaymentIntent(ctx, paymentIntentID)
	if err != nil {
		if errors.Is(err, billing.ErrPaymentIntentNotFound) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, domain.Internal(err, op, "failed to load payment intent")
	}
	if intent.Status != billing.PaymentIntentStatusSucceeded {
		return nil, domain.ErrPaymentNotSucceeded
	}

	snapshot, err := domain.DecodeCartMetadata(intent.Metadata)
	if err != nil {
		return nil, err
	}

	var userID *string
	if id := domain.MetadataUserID(intent.Metadata); id != domain.GuestUserID {
		userID = &id
	}

	subtotal := decimal.Zero
	items := make([]domain.CreateOrderItemParams, len(snapshot.Lines))
	for i, line := range snapshot.Lines {
		subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt32(line.Quantity)))
		items[i] = domain.CreateOrderItemParams{
			ProductID:   line.ProductID,
			VariantID:   line.VariantID,
			ProductName: line.ProductName,
			VariantName: line.VariantName,
			ImageURL:    line.ImageURL,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
		}
	}

	// The charged amount is gateway truth; tax is the difference between it
	// and the snapshot subtotal.
	total := decimal.NewFromInt(intent.AmountCents).Div(decimal.NewFromInt(100))
	taxAmount := total.Sub(subtotal)

	order, err := s.orders.CreateOrder(ctx, domain.CreateOrderParams{
		OrderNumber:     domain.OrderNumberFromPaymentIntent(intent.ID),
		PaymentIntentID: intent.ID,
		UserID:          userID,
		Subtotal:        subtotal,
		TaxAmount:       taxAmount,
		Total:           total,
		Currency:        intent.Currency,
		Items:           items,
	})
	if err != nil {
		if errors.Is(err, domain.ErrPaymentAlreadyProcessed) {
			existing, lookupErr := s.orders.OrderByPaymentIntentID(ctx, intent.ID)
			if lookupErr != nil {
				return nil, domain.Internal(lookupErr, op, "failed to load already-processed order")
			}
			s.logger.InfoContext(ctx, "payment intent already materialized",
				slog.String("payment_intent_id", intent.ID),
				slog.String("order_number", existing.OrderNumber),
			)
			return existing, nil
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "order materialized",
		slog.String("payment_intent_id", intent.ID),
		slog.String("order_number", order.OrderNumber),
		slog.String("total", order.Total.String()),
	)

	if s.jobs != nil && intent.ReceiptEmail != "" {
		if err := jobs.EnqueueOrderConfirmation(ctx, s.jobs, order, intent.ReceiptEmail); err != nil {
			// The order is already committed; a lost email must not fail settlement.
			s.logger.ErrorContext(ctx, "failed to enqueue order confirmation email",
				slog.String("order_number", order.OrderNumber),
				slog.String("error", err.Error()),
			)
		}
	}

	return order, nil
}

// ConfirmPayment reports what the gateway knows about a payment intent,
// joined with the materialized order when settlement has caught up. A
// succeeded payment with no order yet reads as "processing".
func (s *orderService) ConfirmPayment(ctx context.Context, paymentIntentID string) (*domain.PaymentConfirmation, error) {
	const op = "order.confirm_payment"

	intent, err := s.billing.GetPaymentIntent(ctx, paymentIntentID)
	if err != nil {
		if errors.Is(err, billing.ErrPaymentIntentNotFound) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, domain.Internal(err, op, "failed to load payment intent")
	}

	confirmation := &domain.PaymentConfirmation{
		PaymentIntentID: intent.ID,
		Status:          intent.Status,
		AmountCents:     intent.AmountCents,
		Currency:        intent.Currency,
	}

	if intent.Status != billing.PaymentIntentStatusSucceeded {
		return confirmation, nil
	}

	order, err := s.orders.OrderByPaymentIntentID(ctx, intent.ID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			confirmation.OrderStatus = domain.OrderStatusProcessing
			return confirmation, nil
		}
		return nil, domain.Internal(err, op, "failed to load order")
	}

	confirmation.OrderNumber = order.OrderNumber
	confirmation.OrderStatus = domain.OrderStatusConfirmed
	return confirmation, nil
}

// OrdersByUser lists a user's orders newest-first.
func (s *orderService) OrdersByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	if userID == "" {
		return nil, domain.Invalid("order.by_user", "user id is required")
	}
	return s.orders.OrdersByUser(ctx, userID)
}
