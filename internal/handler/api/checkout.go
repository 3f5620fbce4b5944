package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/lherbier/vetiver/internal/domain"
	"github.com/lherbier/vetiver/internal/handler"
	"github.com/lherbier/vetiver/internal/telemetry"
)

// CheckoutHandler exposes the payment session endpoint. Clients submit
// variant ids and quantities only; the response carries the authoritative
// server-side pricing and the gateway client secret.
type CheckoutHandler struct {
	checkoutService domain.CheckoutService
	validate        *validator.Validate
	logger          *slog.Logger
}

// NewCheckoutHandler creates a new checkout API handler.
func NewCheckoutHandler(checkoutService domain.CheckoutService, logger *slog.Logger) *CheckoutHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CheckoutHandler{
		checkoutService: checkoutService,
		validate:        validator.New(),
		logger:          logger,
	}
}

// createPaymentSessionRequest is the wire shape of a checkout request.
type createPaymentSessionRequest struct {
	Lines  []domain.CartLineRequest `json:"lines" validate:"required,min=1,dive"`
	UserID string                   `json:"user_id"`
}

// paymentSessionResponse is the wire shape of a created payment session.
type paymentSessionResponse struct {
	PaymentIntentID string `json:"payment_intent_id"`
	ClientSecret    string `json:"client_secret"`
	Subtotal        string `json:"subtotal"`
	TaxAmount       string `json:"tax_amount"`
	Total           string `json:"total"`
	Currency        string `json:"currency"`
}

// CreatePaymentSession handles POST /api/checkout/payment-session
func (h *CheckoutHandler) CreatePaymentSession(w http.ResponseWriter, r *http.Request) {
	var req createPaymentSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handler.ErrorResponse(w, r, domain.Errorf(domain.EINVALID, "", "Invalid JSON body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			handler.ValidationErrorResponse(w, r, err)
			return
		}
		handler.InternalErrorResponse(w, r, err)
		return
	}

	session, err := h.checkoutService.CreatePaymentSession(r.Context(), domain.CreatePaymentSessionRequest{
		Lines:  req.Lines,
		UserID: req.UserID,
	})
	if err != nil {
		if telemetry.Business != nil {
			telemetry.Business.PaymentSessionFailed.WithLabelValues(domain.ErrorCode(err)).Inc()
		}
		handler.ErrorResponse(w, r, err)
		return
	}

	if telemetry.Business != nil {
		total, _ := session.Breakdown.Total.Float64()
		telemetry.Business.PaymentSessionsCreated.WithLabelValues(session.Breakdown.Currency).Inc()
		telemetry.Business.CartValue.WithLabelValues(session.Breakdown.Currency).Observe(total)
	}

	handler.RespondJSON(w, http.StatusCreated, paymentSessionResponse{
		PaymentIntentID: session.PaymentIntentID,
		ClientSecret:    session.ClientSecret,
		Subtotal:        session.Breakdown.Subtotal.StringFixed(2),
		TaxAmount:       session.Breakdown.TaxAmount.StringFixed(2),
		Total:           session.Breakdown.Total.StringFixed(2),
		Currency:        session.Breakdown.Currency,
	})
}
