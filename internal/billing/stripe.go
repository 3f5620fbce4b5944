package billing

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeProvider implements Provider against the Stripe API.
// It holds its own API client rather than mutating the SDK's package-level
// key, so providers with different keys can coexist in one process.
type StripeProvider struct {
	client *client.API
	config StripeConfig
	logger *slog.Logger
}

// NewStripeProvider creates a Stripe-backed billing provider.
func NewStripeProvider(config StripeConfig, logger *slog.Logger) (*StripeProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	timeout := config.TimeoutSeconds
	if timeout == 0 {
		timeout = 30
	}

	sc := &client.API{}
	sc.Init(config.APIKey, stripe.NewBackends(&http.Client{
		Timeout: time.Duration(timeout) * time.Second,
	}))

	if config.IsTestMode() {
		logger.Info("stripe provider initialized in test mode")
	}

	return &StripeProvider{
		client: sc,
		config: config,
		logger: logger,
	}, nil
}

// CreatePaymentIntent opens a payment intent with automatic payment methods.
func (p *StripeProvider) CreatePaymentIntent(ctx context.Context, params CreatePaymentIntentParams) (*PaymentIntent, error) {
	sp := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(params.AmountCents),
		Currency: stripe.String(params.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	sp.Context = ctx

	if params.Description != "" {
		sp.Description = stripe.String(params.Description)
	}
	if params.ReceiptEmail != "" {
		sp.ReceiptEmail = stripe.String(params.ReceiptEmail)
	}
	if params.IdempotencyKey != "" {
		sp.SetIdempotencyKey(params.IdempotencyKey)
	}
	for k, v := range params.Metadata {
		sp.AddMetadata(k, v)
	}

	pi, err := p.client.PaymentIntents.New(sp)
	if err != nil {
		return nil, wrapStripeError(err)
	}

	p.logger.Info("payment intent created",
		"payment_intent_id", pi.ID,
		"amount_cents", pi.Amount,
		"currency", pi.Currency,
	)

	return paymentIntentFromStripe(pi), nil
}

// GetPaymentIntent retrieves a payment intent by id.
func (p *StripeProvider) GetPaymentIntent(ctx context.Context, paymentIntentID string) (*PaymentIntent, error) {
	sp := &stripe.PaymentIntentParams{}
	sp.Context = ctx

	pi, err := p.client.PaymentIntents.Get(paymentIntentID, sp)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing {
			return nil, ErrPaymentIntentNotFound
		}
		return nil, wrapStripeError(err)
	}

	return paymentIntentFromStripe(pi), nil
}

// VerifyWebhookSignature verifies the Stripe-Signature header against the
// configured signing secret.
func (p *StripeProvider) VerifyWebhookSignature(payload []byte, signature string) error {
	if _, err := webhook.ConstructEvent(payload, signature, p.config.WebhookSecret); err != nil {
		return ErrInvalidWebhookSignature
	}
	return nil
}

// paymentIntentFromStripe converts the SDK type to the provider-neutral type.
func paymentIntentFromStripe(pi *stripe.PaymentIntent) *PaymentIntent {
	out := &PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		AmountCents:  pi.Amount,
		Currency:     string(pi.Currency),
		Status:       string(pi.Status),
		Metadata:     pi.Metadata,
		ReceiptEmail: pi.ReceiptEmail,
		CreatedAt:    time.Unix(pi.Created, 0),
	}

	if pi.LastPaymentError != nil {
		out.LastPaymentError = &PaymentError{
			Code:        string(pi.LastPaymentError.Code),
			Message:     pi.LastPaymentError.Msg,
			DeclineCode: string(pi.LastPaymentError.DeclineCode),
		}
	}

	return out
}

// wrapStripeError converts SDK errors to StripeError, mapping the codes
// callers branch on to sentinel errors.
func wrapStripeError(err error) error {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return &StripeError{
			Message:       err.Error(),
			OriginalError: err,
		}
	}

	if stripeErr.Code == stripe.ErrorCodeAmountTooSmall {
		return ErrAmountTooSmall
	}

	return &StripeError{
		Message:       stripeErr.Msg,
		Code:          string(stripeErr.Code),
		DeclineCode:   string(stripeErr.DeclineCode),
		RequestID:     stripeErr.RequestID,
		OriginalError: err,
	}
}
