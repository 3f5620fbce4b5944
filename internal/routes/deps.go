package routes

import (
	"net/http"

	"github.com/lherbier/vetiver/internal/handler/api"
)

// APIDeps contains dependencies for the storefront-facing API routes
type APIDeps struct {
	// Checkout
	CheckoutHandler *api.CheckoutHandler

	// Payment confirmation
	PaymentsHandler *api.PaymentsHandler

	// Order history
	OrdersHandler *api.OrdersHandler
}

// WebhookDeps contains dependencies for webhook routes
type WebhookDeps struct {
	StripeHandler http.HandlerFunc
}
