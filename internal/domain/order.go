package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order-related domain errors.
var (
	ErrOrderNotFound           = &Error{Code: ENOTFOUND, Message: "Order not found"}
	ErrPaymentNotFound         = &Error{Code: ENOTFOUND, Message: "Payment not found"}
	ErrPaymentNotSucceeded     = &Error{Code: EPAYMENT, Message: "Payment has not succeeded"}
	ErrPaymentAlreadyProcessed = &Error{Code: ECONFLICT, Message: "Payment intent already processed"}
)

// Order statuses reported by the confirmation query. An order is
// "processing" from the moment payment succeeds until the settlement
// listener has materialized it, then "confirmed".
const (
	OrderStatusProcessing = "processing"
	OrderStatusConfirmed  = "confirmed"
)

// PaymentStatusPaid is the payment status recorded on materialized orders.
const PaymentStatusPaid = "paid"

// Order is a materialized purchase, created exclusively by the settlement
// listener from a succeeded payment intent.
type Order struct {
	ID              uuid.UUID
	OrderNumber     string
	PaymentIntentID string
	UserID          *string // nil for guest purchases
	Subtotal        decimal.Decimal
	TaxAmount       decimal.Decimal
	Total           decimal.Decimal
	Currency        string
	PaymentStatus   string
	CreatedAt       time.Time
	Items           []OrderLineItem
}

// OrderLineItem is a snapshot of one purchased variant. Product and variant
// ids are plain strings so the row survives catalog deletions.
type OrderLineItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   string
	VariantID   string
	ProductName string
	VariantName string
	ImageURL    string
	Quantity    int32
	UnitPrice   decimal.Decimal
}

// CreateOrderParams carries everything needed to materialize an order in one
// transaction.
type CreateOrderParams struct {
	OrderNumber     string
	PaymentIntentID string
	UserID          *string
	Subtotal        decimal.Decimal
	TaxAmount       decimal.Decimal
	Total           decimal.Decimal
	Currency        string
	Items           []CreateOrderItemParams
}

// CreateOrderItemParams is one line item of a new order.
type CreateOrderItemParams struct {
	ProductID   string
	VariantID   string
	ProductName string
	VariantName string
	ImageURL    string
	Quantity    int32
	UnitPrice   decimal.Decimal
}

// OrderStore persists and reads orders.
type OrderStore interface {
	// CreateOrder inserts an order with its line items atomically.
	// A duplicate payment intent id returns ErrPaymentAlreadyProcessed;
	// the uniqueness constraint lives in the database, not in a pre-check.
	CreateOrder(ctx context.Context, params CreateOrderParams) (*Order, error)

	// OrderByPaymentIntentID loads an order with its items, or ErrOrderNotFound.
	OrderByPaymentIntentID(ctx context.Context, paymentIntentID string) (*Order, error)

	// OrdersByUser lists a user's orders newest-first with items.
	OrdersByUser(ctx context.Context, userID string) ([]Order, error)
}

// PaymentConfirmation is the confirmation query's answer: gateway truth about
// the payment plus, once settled, the materialized order.
type PaymentConfirmation struct {
	PaymentIntentID string
	Status          string
	AmountCents     int64
	Currency        string
	OrderNumber     string
	OrderStatus     string
}

// OrderService provides order materialization and confirmation lookups.
type OrderService interface {
	// CreateOrderFromPaymentIntent materializes an order from a succeeded
	// payment intent. Idempotent by payment intent id.
	CreateOrderFromPaymentIntent(ctx context.Context, paymentIntentID string) (*Order, error)

	// ConfirmPayment reports gateway payment status and, when available,
	// the materialized order for a payment intent id.
	ConfirmPayment(ctx context.Context, paymentIntentID string) (*PaymentConfirmation, error)

	// OrdersByUser lists a user's orders newest-first.
	OrdersByUser(ctx context.Context, userID string) ([]Order, error)
}

// OrderNumberFromPaymentIntent derives the customer-facing order number from
// a payment intent id. Deterministic so gateway retries produce the same
// number.
func OrderNumberFromPaymentIntent(paymentIntentID string) string {
	suffix := paymentIntentID
	if len(suffix) > 8 {
		suffix = suffix[len(suffix)-8:]
	}
	return fmt.Sprintf("SCENT-%s", strings.ToUpper(suffix))
}
