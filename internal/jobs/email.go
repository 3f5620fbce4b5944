package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lherbier/vetiver/internal/domain"
	"github.com/lherbier/vetiver/internal/email"
)

// Job type constants for email jobs
const (
	JobTypeOrderConfirmation = "email:order_confirmation"
)

// OrderConfirmationPayload represents the payload for an order confirmation
// email job. Everything the email shows is captured here so the job never
// re-reads the order.
type OrderConfirmationPayload struct {
	OrderID     uuid.UUID               `json:"order_id"`
	Email       string                  `json:"email"`
	OrderNumber string                  `json:"order_number"`
	OrderDate   time.Time               `json:"order_date"`
	Subtotal    string                  `json:"subtotal"`
	TaxAmount   string                  `json:"tax_amount"`
	Total       string                  `json:"total"`
	Currency    string                  `json:"currency"`
	Items       []OrderConfirmationItem `json:"items"`
}

// OrderConfirmationItem is one purchased line in the confirmation payload.
type OrderConfirmationItem struct {
	ProductName string `json:"product_name"`
	VariantName string `json:"variant_name"`
	Quantity    int32  `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
}

// EnqueueOrderConfirmation enqueues an order confirmation email for a
// freshly materialized order.
func EnqueueOrderConfirmation(ctx context.Context, store domain.JobStore, order *domain.Order, recipient string) error {
	payload := OrderConfirmationPayload{
		OrderID:     order.ID,
		Email:       recipient,
		OrderNumber: order.OrderNumber,
		OrderDate:   order.CreatedAt,
		Subtotal:    order.Subtotal.StringFixed(2),
		TaxAmount:   order.TaxAmount.StringFixed(2),
		Total:       order.Total.StringFixed(2),
		Currency:    email.FormatCurrency(order.Currency),
		Items:       make([]OrderConfirmationItem, len(order.Items)),
	}
	for i, item := range order.Items {
		payload.Items[i] = OrderConfirmationItem{
			ProductName: item.ProductName,
			VariantName: item.VariantName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.StringFixed(2),
		}
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	_, err = store.EnqueueJob(ctx, domain.EnqueueJobParams{
		JobType:        JobTypeOrderConfirmation,
		Payload:        payloadJSON,
		MaxRetries:     3,
		TimeoutSeconds: 60,
	})
	return err
}

// ProcessEmailJob renders and sends the email described by an email job.
func ProcessEmailJob(ctx context.Context, job *domain.Job, sender email.Sender) error {
	switch job.JobType {
	case JobTypeOrderConfirmation:
		return processOrderConfirmation(ctx, job, sender)
	default:
		return fmt.Errorf("unknown email job type: %s", job.JobType)
	}
}

func processOrderConfirmation(ctx context.Context, job *domain.Job, sender email.Sender) error {
	var payload OrderConfirmationPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal order confirmation payload: %w", err)
	}

	msg, err := email.RenderOrderConfirmation(email.OrderConfirmationData{
		Email:       payload.Email,
		OrderNumber: payload.OrderNumber,
		OrderDate:   payload.OrderDate,
		Subtotal:    payload.Subtotal,
		Tax:         payload.TaxAmount,
		Total:       payload.Total,
		Currency:    payload.Currency,
		Items:       confirmationItems(payload.Items),
	})
	if err != nil {
		return err
	}

	if _, err := sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send order confirmation for %s: %w", payload.OrderNumber, err)
	}
	return nil
}

func confirmationItems(items []OrderConfirmationItem) []email.OrderItemData {
	out := make([]email.OrderItemData, len(items))
	for i, item := range items {
		out[i] = email.OrderItemData{
			ProductName: item.ProductName,
			VariantName: item.VariantName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		}
	}
	return out
}

// IsEmailJob checks if a job type is an email job.
func IsEmailJob(jobType string) bool {
	return jobType == JobTypeOrderConfirmation
}
