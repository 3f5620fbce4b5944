package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/lherbier/vetiver/internal/domain"
	"github.com/lherbier/vetiver/internal/handler"
)

// PaymentsHandler exposes the payment confirmation endpoint. The lookup is
// unauthenticated: a payment intent id is an unguessable capability the
// client received when it opened the session.
type PaymentsHandler struct {
	orderService domain.OrderService
	logger       *slog.Logger
}

// NewPaymentsHandler creates a new payments API handler.
func NewPaymentsHandler(orderService domain.OrderService, logger *slog.Logger) *PaymentsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PaymentsHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// paymentStatusResponse is the wire shape of a confirmation lookup.
type paymentStatusResponse struct {
	PaymentIntentID string `json:"payment_intent_id"`
	Status          string `json:"status"`
	AmountCents     int64  `json:"amount_cents"`
	Currency        string `json:"currency"`
	OrderNumber     string `json:"order_number,omitempty"`
	OrderStatus     string `json:"order_status,omitempty"`
}

// Status handles GET /api/payments/{id}/status
func (h *PaymentsHandler) Status(w http.ResponseWriter, r *http.Request) {
	paymentIntentID := strings.TrimSpace(r.PathValue("id"))
	if paymentIntentID == "" {
		handler.ErrorResponse(w, r, domain.Errorf(domain.EINVALID, "", "Payment intent id is required"))
		return
	}

	confirmation, err := h.orderService.ConfirmPayment(r.Context(), paymentIntentID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.RespondJSON(w, http.StatusOK, paymentStatusResponse{
		PaymentIntentID: confirmation.PaymentIntentID,
		Status:          confirmation.Status,
		AmountCents:     confirmation.AmountCents,
		Currency:        confirmation.Currency,
		OrderNumber:     confirmation.OrderNumber,
		OrderStatus:     confirmation.OrderStatus,
	})
}
