package routes

import (
	"github.com/lherbier/vetiver/internal/router"
)

// RegisterAPIRoutes registers the storefront-facing JSON API.
//
// None of these routes require authentication: the checkout endpoint prices
// whatever cart it is handed, and payment status lookups are keyed by the
// unguessable payment intent id.
func RegisterAPIRoutes(r *router.Router, deps APIDeps, middleware ...router.Middleware) {
	// Opening a session creates a gateway intent, so it gets the strictest
	// rate limit the caller wants to attach.
	r.Post("/api/checkout/payment-session", deps.CheckoutHandler.CreatePaymentSession, middleware...)

	r.Get("/api/payments/{id}/status", deps.PaymentsHandler.Status)
	r.Get("/api/accounts/{userID}/orders", deps.OrdersHandler.ListByUser)
}
