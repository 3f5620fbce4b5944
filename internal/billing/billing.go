package billing

import (
	"context"
	"time"
)

// Provider defines the interface to the payment gateway.
// The Stripe implementation is the only production provider; the mock
// implementation backs service and handler tests.
type Provider interface {
	// CreatePaymentIntent opens a payment session for a priced cart.
	// Returns the intent with the client_secret the frontend confirms against.
	CreatePaymentIntent(ctx context.Context, params CreatePaymentIntentParams) (*PaymentIntent, error)

	// GetPaymentIntent retrieves an existing payment intent. The settlement
	// path uses this to re-check status and metadata with the gateway rather
	// than trusting the webhook body.
	GetPaymentIntent(ctx context.Context, paymentIntentID string) (*PaymentIntent, error)

	// VerifyWebhookSignature verifies that a webhook payload was signed by
	// the gateway. Returns ErrInvalidWebhookSignature on any mismatch.
	VerifyWebhookSignature(payload []byte, signature string) error
}

// Payment intent statuses the service layer cares about.
const (
	PaymentIntentStatusSucceeded = "succeeded"
	PaymentIntentStatusCanceled  = "canceled"
)

// CreatePaymentIntentParams contains parameters for creating a payment intent.
type CreatePaymentIntentParams struct {
	// AmountCents is the amount in the smallest currency unit.
	AmountCents int64

	// Currency code (ISO 4217 lowercase), e.g. "sgd".
	Currency string

	// Description appears on the customer's statement and in the dashboard.
	Description string

	// ReceiptEmail, when set, is where the gateway sends the receipt.
	ReceiptEmail string

	// Metadata carries the cart snapshot and purchaser id. See
	// domain.EncodeCartMetadata for the layout.
	Metadata map[string]string

	// IdempotencyKey prevents duplicate intents on request retries.
	IdempotencyKey string
}

// PaymentIntent is the provider-neutral view of a gateway payment intent.
type PaymentIntent struct {
	// ID is the gateway payment intent id (pi_...).
	ID string

	// ClientSecret is used by the frontend to confirm payment.
	ClientSecret string

	// AmountCents is the amount in the smallest currency unit.
	AmountCents int64

	// Currency code.
	Currency string

	// Status: requires_payment_method, processing, succeeded, canceled, ...
	Status string

	// Metadata passed at creation.
	Metadata map[string]string

	// ReceiptEmail is where the gateway sends receipts, when known.
	ReceiptEmail string

	// CreatedAt is when the intent was created at the gateway.
	CreatedAt time.Time

	// LastPaymentError holds details of the most recent failed attempt.
	LastPaymentError *PaymentError
}

// PaymentError contains details about a failed payment attempt.
type PaymentError struct {
	Code        string // gateway error code
	Message     string // human-readable message
	DeclineCode string // card decline reason, if applicable
}
