package email

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	"text/template"
	"time"
)

// OrderConfirmationData holds everything the order confirmation email shows.
// Amounts are preformatted strings so the template never does money math.
type OrderConfirmationData struct {
	Email       string
	OrderNumber string
	OrderDate   time.Time
	Items       []OrderItemData
	Subtotal    string
	Tax         string
	Total       string
	Currency    string
}

// OrderItemData is one purchased line in the confirmation email.
type OrderItemData struct {
	ProductName string
	VariantName string
	Quantity    int32
	UnitPrice   string
}

const orderConfirmationText = `Thank you for your order!

Order number: {{.OrderNumber}}
Placed: {{.OrderDate.Format "2 Jan 2006"}}

{{range .Items}}  {{.Quantity}} x {{.ProductName}} ({{.VariantName}}) - {{$.Currency}} {{.UnitPrice}}
{{end}}
Subtotal: {{.Currency}} {{.Subtotal}}
Tax:      {{.Currency}} {{.Tax}}
Total:    {{.Currency}} {{.Total}}

We'll let you know as soon as your order ships.
`

const orderConfirmationHTML = `<html>
<body style="font-family: sans-serif; color: #222;">
  <h2>Thank you for your order!</h2>
  <p>Order <strong>{{.OrderNumber}}</strong>, placed {{.OrderDate.Format "2 Jan 2006"}}.</p>
  <table cellpadding="6" cellspacing="0">
    {{range .Items}}
    <tr>
      <td>{{.Quantity}} &times;</td>
      <td>{{.ProductName}} ({{.VariantName}})</td>
      <td align="right">{{$.Currency}} {{.UnitPrice}}</td>
    </tr>
    {{end}}
    <tr><td></td><td>Subtotal</td><td align="right">{{.Currency}} {{.Subtotal}}</td></tr>
    <tr><td></td><td>Tax</td><td align="right">{{.Currency}} {{.Tax}}</td></tr>
    <tr><td></td><td><strong>Total</strong></td><td align="right"><strong>{{.Currency}} {{.Total}}</strong></td></tr>
  </table>
  <p>We'll let you know as soon as your order ships.</p>
</body>
</html>
`

var (
	orderConfirmationTextTmpl = template.Must(template.New("order_confirmation_text").Parse(orderConfirmationText))
	orderConfirmationHTMLTmpl = htmltemplate.Must(htmltemplate.New("order_confirmation_html").Parse(orderConfirmationHTML))
)

// RenderOrderConfirmation builds the order confirmation email.
func RenderOrderConfirmation(data OrderConfirmationData) (*Email, error) {
	var text bytes.Buffer
	if err := orderConfirmationTextTmpl.Execute(&text, data); err != nil {
		return nil, fmt.Errorf("rendering order confirmation text: %w", err)
	}

	var html bytes.Buffer
	if err := orderConfirmationHTMLTmpl.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("rendering order confirmation html: %w", err)
	}

	return &Email{
		To:       []string{data.Email},
		Subject:  "Order Confirmation - " + data.OrderNumber,
		TextBody: text.String(),
		HTMLBody: html.String(),
	}, nil
}

// FormatCurrency uppercases an ISO 4217 code for display.
func FormatCurrency(code string) string {
	return strings.ToUpper(code)
}
