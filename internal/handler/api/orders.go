package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lherbier/vetiver/internal/domain"
	"github.com/lherbier/vetiver/internal/handler"
)

// OrdersHandler exposes order history lookups. User identity arrives as an
// opaque id in the path; authentication happens upstream at the gateway.
type OrdersHandler struct {
	orderService domain.OrderService
	logger       *slog.Logger
}

// NewOrdersHandler creates a new orders API handler.
func NewOrdersHandler(orderService domain.OrderService, logger *slog.Logger) *OrdersHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrdersHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// orderResponse is the wire shape of one order in a history listing.
type orderResponse struct {
	ID            string              `json:"id"`
	OrderNumber   string              `json:"order_number"`
	Subtotal      string              `json:"subtotal"`
	TaxAmount     string              `json:"tax_amount"`
	Total         string              `json:"total"`
	Currency      string              `json:"currency"`
	PaymentStatus string              `json:"payment_status"`
	CreatedAt     time.Time           `json:"created_at"`
	Items         []orderItemResponse `json:"items"`
}

// orderItemResponse is one line item in an order listing.
type orderItemResponse struct {
	ProductID   string `json:"product_id"`
	VariantID   string `json:"variant_id"`
	ProductName string `json:"product_name"`
	VariantName string `json:"variant_name"`
	ImageURL    string `json:"image_url,omitempty"`
	Quantity    int32  `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
}

// ListByUser handles GET /api/accounts/{userID}/orders
func (h *OrdersHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.PathValue("userID"))
	if userID == "" {
		handler.ErrorResponse(w, r, domain.Errorf(domain.EINVALID, "", "User id is required"))
		return
	}

	orders, err := h.orderService.OrdersByUser(r.Context(), userID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	out := make([]orderResponse, len(orders))
	for i, order := range orders {
		items := make([]orderItemResponse, len(order.Items))
		for j, item := range order.Items {
			items[j] = orderItemResponse{
				ProductID:   item.ProductID,
				VariantID:   item.VariantID,
				ProductName: item.ProductName,
				VariantName: item.VariantName,
				ImageURL:    item.ImageURL,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice.StringFixed(2),
			}
		}
		out[i] = orderResponse{
			ID:            order.ID.String(),
			OrderNumber:   order.OrderNumber,
			Subtotal:      order.Subtotal.StringFixed(2),
			TaxAmount:     order.TaxAmount.StringFixed(2),
			Total:         order.Total.StringFixed(2),
			Currency:      order.Currency,
			PaymentStatus: order.PaymentStatus,
			CreatedAt:     order.CreatedAt,
			Items:         items,
		}
	}

	handler.RespondJSON(w, http.StatusOK, map[string]interface{}{"orders": out})
}
