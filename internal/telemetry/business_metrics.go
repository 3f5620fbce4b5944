package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus collectors for checkout and settlement
// events. Counters use the payment intent lifecycle as their spine: sessions
// opened, webhooks received, orders materialized, revenue collected.
type BusinessMetrics struct {
	// Checkout
	PaymentSessionsCreated *prometheus.CounterVec
	PaymentSessionFailed   *prometheus.CounterVec
	CartValue              *prometheus.HistogramVec

	// Settlement
	WebhookReceived  *prometheus.CounterVec
	WebhookProcessed *prometheus.CounterVec
	WebhookFailed    *prometheus.CounterVec
	WebhookLatency   *prometheus.HistogramVec

	// Orders
	OrdersCreated    *prometheus.CounterVec
	OrderValue       *prometheus.HistogramVec
	RevenueCollected *prometheus.CounterVec
	PaymentFailed    *prometheus.CounterVec

	// Confirmation emails
	ConfirmationEmailsSent   prometheus.Counter
	ConfirmationEmailsFailed prometheus.Counter
}

// Business is the global business metrics instance, nil until
// InitBusinessMetrics runs. Callers nil-check before recording.
var Business *BusinessMetrics

// InitBusinessMetrics creates and registers business metrics collectors.
func InitBusinessMetrics(namespace string) *BusinessMetrics {
	if namespace == "" {
		namespace = "vetiver"
	}

	Business = &BusinessMetrics{
		PaymentSessionsCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payment_sessions_created_total",
				Help:      "Payment sessions opened with the gateway",
			},
			[]string{"currency"},
		),
		PaymentSessionFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payment_sessions_failed_total",
				Help:      "Payment session attempts rejected before reaching the gateway or refused by it",
			},
			[]string{"reason"},
		),
		CartValue: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "cart_value",
				Help:      "Priced cart totals in major currency units",
				Buckets:   []float64{10, 25, 50, 100, 200, 500, 1000},
			},
			[]string{"currency"},
		),
		WebhookReceived: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhooks_received_total",
				Help:      "Webhook events received from the payment gateway",
			},
			[]string{"event_type"},
		),
		WebhookProcessed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhooks_processed_total",
				Help:      "Webhook events processed successfully",
			},
			[]string{"event_type"},
		),
		WebhookFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhooks_failed_total",
				Help:      "Webhook events that failed processing",
			},
			[]string{"event_type", "reason"},
		),
		WebhookLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "webhook_processing_seconds",
				Help:      "Webhook processing duration in seconds",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"event_type"},
		),
		OrdersCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "orders_created_total",
				Help:      "Orders materialized from succeeded payments",
			},
			[]string{"currency"},
		),
		OrderValue: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "order_value",
				Help:      "Materialized order totals in major currency units",
				Buckets:   []float64{10, 25, 50, 100, 200, 500, 1000},
			},
			[]string{"currency"},
		),
		RevenueCollected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "revenue_collected_total",
				Help:      "Total revenue collected in major currency units",
			},
			[]string{"currency"},
		),
		PaymentFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payments_failed_total",
				Help:      "Failed payment attempts reported by the gateway",
			},
			[]string{"reason"},
		),
		ConfirmationEmailsSent: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "confirmation_emails_sent_total",
				Help:      "Order confirmation emails sent",
			},
		),
		ConfirmationEmailsFailed: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "confirmation_emails_failed_total",
				Help:      "Order confirmation emails that failed to send",
			},
		),
	}

	return Business
}
