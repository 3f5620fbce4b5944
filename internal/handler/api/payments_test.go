package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lherbier/vetiver/internal/domain"
)

// mockOrderService implements domain.OrderService for testing
type mockOrderService struct {
	confirmPaymentFunc func(ctx context.Context, paymentIntentID string) (*domain.PaymentConfirmation, error)
	ordersByUserFunc   func(ctx context.Context, userID string) ([]domain.Order, error)
}

func (m *mockOrderService) CreateOrderFromPaymentIntent(ctx context.Context, paymentIntentID string) (*domain.Order, error) {
	return nil, errors.New("not implemented")
}

func (m *mockOrderService) ConfirmPayment(ctx context.Context, paymentIntentID string) (*domain.PaymentConfirmation, error) {
	if m.confirmPaymentFunc != nil {
		return m.confirmPaymentFunc(ctx, paymentIntentID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockOrderService) OrdersByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	if m.ordersByUserFunc != nil {
		return m.ordersByUserFunc(ctx, userID)
	}
	return nil, errors.New("not implemented")
}

func getPaymentStatus(t *testing.T, h *PaymentsHandler, paymentIntentID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/payments/placeholder/status", nil)
	req.Header.Set("Accept", "application/json")
	req.SetPathValue("id", paymentIntentID)
	rr := httptest.NewRecorder()
	h.Status(rr, req)
	return rr
}

func TestPaymentsHandler_Status_Confirmed(t *testing.T) {
	service := &mockOrderService{
		confirmPaymentFunc: func(ctx context.Context, paymentIntentID string) (*domain.PaymentConfirmation, error) {
			return &domain.PaymentConfirmation{
				PaymentIntentID: paymentIntentID,
				Status:          "succeeded",
				AmountCents:     2180,
				Currency:        "sgd",
				OrderNumber:     "SCENT-12345678",
				OrderStatus:     domain.OrderStatusConfirmed,
			}, nil
		},
	}
	h := NewPaymentsHandler(service, nil)

	rr := getPaymentStatus(t, h, "pi_test_12345678")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body %q)", rr.Code, rr.Body.String())
	}

	var resp struct {
		PaymentIntentID string `json:"payment_intent_id"`
		Status          string `json:"status"`
		AmountCents     int64  `json:"amount_cents"`
		Currency        string `json:"currency"`
		OrderNumber     string `json:"order_number"`
		OrderStatus     string `json:"order_status"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.PaymentIntentID != "pi_test_12345678" {
		t.Errorf("unexpected payment_intent_id %q", resp.PaymentIntentID)
	}
	if resp.Status != "succeeded" || resp.AmountCents != 2180 || resp.Currency != "sgd" {
		t.Errorf("unexpected payment fields: %+v", resp)
	}
	if resp.OrderNumber != "SCENT-12345678" || resp.OrderStatus != domain.OrderStatusConfirmed {
		t.Errorf("unexpected order fields: %+v", resp)
	}
}

func TestPaymentsHandler_Status_Processing(t *testing.T) {
	// Payment has succeeded but the settlement listener has not materialized
	// the order yet. The client polls until order_status flips to confirmed.
	service := &mockOrderService{
		confirmPaymentFunc: func(ctx context.Context, paymentIntentID string) (*domain.PaymentConfirmation, error) {
			return &domain.PaymentConfirmation{
				PaymentIntentID: paymentIntentID,
				Status:          "succeeded",
				AmountCents:     2180,
				Currency:        "sgd",
				OrderStatus:     domain.OrderStatusProcessing,
			}, nil
		},
	}
	h := NewPaymentsHandler(service, nil)

	rr := getPaymentStatus(t, h, "pi_test_12345678")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp["order_status"] != domain.OrderStatusProcessing {
		t.Errorf("expected order_status processing, got %v", resp["order_status"])
	}
	if _, present := resp["order_number"]; present {
		t.Error("order_number should be omitted while processing")
	}
}

func TestPaymentsHandler_Status_Errors(t *testing.T) {
	tests := []struct {
		name           string
		paymentID      string
		serviceErr     error
		expectedStatus int
	}{
		{
			name:           "unknown_intent",
			paymentID:      "pi_unknown",
			serviceErr:     domain.ErrPaymentNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "gateway_unavailable",
			paymentID:      "pi_test_123",
			serviceErr:     domain.Internal(errors.New("timeout"), "order.confirm", "failed to look up payment"),
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:           "blank_id",
			paymentID:      "  ",
			serviceErr:     nil,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &mockOrderService{
				confirmPaymentFunc: func(ctx context.Context, paymentIntentID string) (*domain.PaymentConfirmation, error) {
					return nil, tt.serviceErr
				},
			}
			h := NewPaymentsHandler(service, nil)

			rr := getPaymentStatus(t, h, tt.paymentID)

			if rr.Code != tt.expectedStatus {
				t.Errorf("expected %d, got %d (body %q)", tt.expectedStatus, rr.Code, rr.Body.String())
			}
		})
	}
}

// orderFixture builds a materialized order for listing tests.
func orderFixture(userID string, number string) domain.Order {
	uid := userID
	return domain.Order{
		ID:              uuid.New(),
		OrderNumber:     number,
		PaymentIntentID: "pi_" + number,
		UserID:          &uid,
		Subtotal:        decimal.RequireFromString("89.00"),
		TaxAmount:       decimal.RequireFromString("8.01"),
		Total:           decimal.RequireFromString("97.01"),
		Currency:        "sgd",
		PaymentStatus:   domain.PaymentStatusPaid,
		Items: []domain.OrderLineItem{
			{
				ProductID:   "cm4santal01",
				VariantID:   "cm4santal01v50",
				ProductName: "Santal",
				VariantName: "50ml",
				Quantity:    1,
				UnitPrice:   decimal.RequireFromString("89.00"),
			},
		},
	}
}
