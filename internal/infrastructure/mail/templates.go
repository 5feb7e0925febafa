package mail

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/shopspring/decimal"
)

// OrderSummary carries the order fields the notification emails render.
type OrderSummary struct {
	OrderID       string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Address       string
	Items         []ItemLine
	Total         decimal.Decimal
	PaymentOption string
	ReceiptURL    string
}

type ItemLine struct {
	ProductID int64
	Quantity  int64
	Price     decimal.Decimal
}

var customerTmpl = template.Must(template.New("customer").Parse(`
<h2>Thank you for your order, {{.CustomerName}}!</h2>
<p>We received your order <strong>{{.OrderID}}</strong> and it is now being processed.</p>
<table border="1" cellpadding="6" cellspacing="0">
  <tr><th>Product</th><th>Quantity</th><th>Price</th></tr>
  {{range .Items}}<tr><td>#{{.ProductID}}</td><td>{{.Quantity}}</td><td>{{.Price}}</td></tr>
  {{end}}
</table>
<p>Total: <strong>{{.Total}}</strong> ({{.PaymentOption}} payment)</p>
{{if .ReceiptURL}}<p>Your payment receipt: <a href="{{.ReceiptURL}}">view receipt</a></p>{{end}}
<p>We will contact you once your order ships.</p>
`))

var adminTmpl = template.Must(template.New("admin").Parse(`
<h2>New order {{.OrderID}}</h2>
<p>
  Customer: {{.CustomerName}} &lt;{{.CustomerEmail}}&gt;<br>
  {{if .CustomerPhone}}Phone: {{.CustomerPhone}}<br>{{end}}
  {{if .Address}}Address: {{.Address}}<br>{{end}}
  Payment: {{.PaymentOption}}
</p>
<table border="1" cellpadding="6" cellspacing="0">
  <tr><th>Product</th><th>Quantity</th><th>Price</th></tr>
  {{range .Items}}<tr><td>#{{.ProductID}}</td><td>{{.Quantity}}</td><td>{{.Price}}</td></tr>
  {{end}}
</table>
<p>Total: <strong>{{.Total}}</strong></p>
{{if .ReceiptURL}}<p>Receipt: <a href="{{.ReceiptURL}}">{{.ReceiptURL}}</a></p>{{end}}
`))

// CustomerMessage renders the confirmation email for the buyer.
func CustomerMessage(from string, s OrderSummary) (Message, error) {
	var body bytes.Buffer
	if err := customerTmpl.Execute(&body, s); err != nil {
		return Message{}, err
	}
	return Message{
		From:    from,
		To:      s.CustomerEmail,
		Subject: fmt.Sprintf("Order Confirmation - %s", s.OrderID),
		HTML:    body.String(),
	}, nil
}

// AdminMessage renders the new-order notification for the store admin.
func AdminMessage(from, to string, s OrderSummary) (Message, error) {
	var body bytes.Buffer
	if err := adminTmpl.Execute(&body, s); err != nil {
		return Message{}, err
	}
	return Message{
		From:    from,
		To:      to,
		Subject: fmt.Sprintf("New Order Received - %s", s.OrderID),
		HTML:    body.String(),
	}, nil
}
