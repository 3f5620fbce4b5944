package webhook

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v82"

	"github.com/lherbier/vetiver/internal/billing"
	"github.com/lherbier/vetiver/internal/domain"
	"github.com/lherbier/vetiver/internal/handler"
	"github.com/lherbier/vetiver/internal/middleware"
	"github.com/lherbier/vetiver/internal/telemetry"
)

// StripeHandler handles Stripe webhook events. Only payment_intent.succeeded
// materializes an order; every other event is acknowledged and logged.
type StripeHandler struct {
	provider     billing.Provider
	orderService domain.OrderService
}

// NewStripeHandler creates a new Stripe webhook handler.
func NewStripeHandler(provider billing.Provider, orderService domain.OrderService) *StripeHandler {
	return &StripeHandler{
		provider:     provider,
		orderService: orderService,
	}
}

// HandleWebhook processes incoming Stripe webhook events.
//
// Stripe CLI testing:
//
//	stripe listen --forward-to localhost:8080/webhooks/stripe
//	stripe trigger payment_intent.succeeded
//
// The response code drives Stripe's retry behavior: a non-2xx on a transient
// failure makes Stripe redeliver, which is how settlement survives database
// outages. Permanent failures (bad metadata) are acknowledged with 200 so
// Stripe doesn't retry what can never succeed.
func (h *StripeHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	logger := middleware.GetLogger(r.Context())

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		handler.ErrorResponse(w, r, domain.Errorf(domain.EINVALID, "", "Error reading request body"))
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	if signature == "" {
		handler.ErrorResponse(w, r, domain.Errorf(domain.EINVALID, "", "Missing signature"))
		return
	}

	if err := h.provider.VerifyWebhookSignature(payload, signature); err != nil {
		logger.Warn("webhook signature verification failed", "error", err)
		handler.ErrorResponse(w, r, domain.Errorf(domain.EUNAUTHORIZED, "", "Invalid signature"))
		return
	}

	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		handler.ErrorResponse(w, r, domain.Errorf(domain.EINVALID, "", "Invalid JSON"))
		return
	}

	logger.Info("webhook event received", "event_type", event.Type, "event_id", event.ID)

	if telemetry.Business != nil {
		telemetry.Business.WebhookReceived.WithLabelValues(string(event.Type)).Inc()
	}
	defer func() {
		if telemetry.Business != nil {
			telemetry.Business.WebhookLatency.WithLabelValues(string(event.Type)).Observe(time.Since(startTime).Seconds())
		}
	}()

	switch event.Type {
	case "payment_intent.succeeded":
		if !h.handlePaymentIntentSucceeded(w, r, event) {
			return
		}

	case "payment_intent.payment_failed":
		h.handlePaymentIntentFailed(r, event)

	case "payment_intent.canceled":
		h.handlePaymentIntentCanceled(r, event)

	case "payment_intent.created":
		// No action needed - just for monitoring
		logger.Debug("payment intent created", "event_id", event.ID)

	default:
		logger.Info("unhandled event type", "event_type", event.Type)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"received": true}`))
}

// handlePaymentIntentSucceeded materializes an order from a succeeded
// payment. Returns false when it has already written an error response,
// which tells Stripe to redeliver the event.
func (h *StripeHandler) handlePaymentIntentSucceeded(w http.ResponseWriter, r *http.Request, event stripe.Event) bool {
	logger := middleware.GetLogger(r.Context())

	var paymentIntent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &paymentIntent); err != nil {
		logger.Error("failed to parse payment intent from webhook", "error", err, "event_id", event.ID)
		handler.ErrorResponse(w, r, domain.Errorf(domain.EINVALID, "", "Malformed payment intent payload"))
		return false
	}

	logger.Info("payment succeeded",
		"payment_intent_id", paymentIntent.ID,
		"amount", paymentIntent.Amount,
		"currency", paymentIntent.Currency,
	)

	// The event body identifies the intent; everything else (status, amount,
	// metadata) is re-fetched from the gateway inside the service.
	order, err := h.orderService.CreateOrderFromPaymentIntent(r.Context(), paymentIntent.ID)
	if err != nil {
		if domain.IsCode(err, domain.EINVALID) {
			// Snapshot can never be repaired by a retry. Acknowledge and alert.
			logger.Error("order materialization permanently failed",
				"payment_intent_id", paymentIntent.ID,
				"error", err,
			)
			if telemetry.Business != nil {
				telemetry.Business.WebhookFailed.WithLabelValues("payment_intent.succeeded", "bad_snapshot").Inc()
			}
			telemetry.CaptureError(err, map[string]interface{}{
				"payment_intent_id": paymentIntent.ID,
				"amount":            paymentIntent.Amount,
			})
			return true
		}

		logger.Error("failed to create order from payment",
			"payment_intent_id", paymentIntent.ID,
			"error", err,
		)
		if telemetry.Business != nil {
			telemetry.Business.WebhookFailed.WithLabelValues("payment_intent.succeeded", "order_creation_failed").Inc()
		}
		telemetry.CaptureError(err, map[string]interface{}{
			"payment_intent_id": paymentIntent.ID,
			"amount":            paymentIntent.Amount,
		})
		handler.ErrorResponse(w, r, err)
		return false
	}

	if telemetry.Business != nil {
		total, _ := order.Total.Float64()
		telemetry.Business.OrdersCreated.WithLabelValues(order.Currency).Inc()
		telemetry.Business.OrderValue.WithLabelValues(order.Currency).Observe(total)
		telemetry.Business.RevenueCollected.WithLabelValues(order.Currency).Add(total)
		telemetry.Business.WebhookProcessed.WithLabelValues("payment_intent.succeeded").Inc()
	}

	logger.Info("order created from webhook",
		"order_number", order.OrderNumber,
		"payment_intent_id", paymentIntent.ID,
		"total", order.Total.String(),
		"currency", order.Currency,
	)
	return true
}

// handlePaymentIntentFailed records failed payment events. Nothing is
// persisted; the customer can simply retry checkout.
func (h *StripeHandler) handlePaymentIntentFailed(r *http.Request, event stripe.Event) {
	logger := middleware.GetLogger(r.Context())

	var paymentIntent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &paymentIntent); err != nil {
		logger.Error("failed to parse payment intent from webhook", "error", err, "event_id", event.ID)
		return
	}

	failureReason := "unknown"
	if paymentIntent.LastPaymentError != nil {
		failureReason = string(paymentIntent.LastPaymentError.Code)
	}

	logger.Info("payment failed",
		"payment_intent_id", paymentIntent.ID,
		"reason", failureReason,
	)

	if telemetry.Business != nil {
		telemetry.Business.PaymentFailed.WithLabelValues(failureReason).Inc()
		telemetry.Business.WebhookProcessed.WithLabelValues("payment_intent.payment_failed").Inc()
	}
}

// handlePaymentIntentCanceled records canceled payment events.
func (h *StripeHandler) handlePaymentIntentCanceled(r *http.Request, event stripe.Event) {
	logger := middleware.GetLogger(r.Context())

	var paymentIntent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &paymentIntent); err != nil {
		logger.Error("failed to parse payment intent from webhook", "error", err, "event_id", event.ID)
		return
	}

	logger.Info("payment intent canceled", "payment_intent_id", paymentIntent.ID)

	if telemetry.Business != nil {
		telemetry.Business.WebhookProcessed.WithLabelValues("payment_intent.canceled").Inc()
	}
}
