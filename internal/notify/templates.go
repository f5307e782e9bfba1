package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/pkg/money"
)

// StatusUpdate is the payload of the shipped/delivered notification.
type StatusUpdate struct {
	CustomerEmail  string             `json:"customerEmail"`
	CustomerName   string             `json:"customerName"`
	OrderID        string             `json:"orderId"`
	Status         models.OrderStatus `json:"status"`
	Items          []models.OrderItem `json:"items"`
	TrackingNumber string             `json:"trackingNumber,omitempty"`
}

func NewStatusUpdate(o *models.Order) StatusUpdate {
	su := StatusUpdate{
		CustomerEmail: o.CustomerEmail,
		CustomerName:  o.CustomerName,
		OrderID:       o.ID.String(),
		Status:        o.Status,
		Items:         o.Items,
	}
	if o.TrackingNumber != nil {
		su.TrackingNumber = *o.TrackingNumber
	}
	return su
}

var funcs = template.FuncMap{
	"money": money.Format,
}

var confirmationTmpl = template.Must(template.New("confirmation").Funcs(funcs).Parse(`<!doctype html>
<html><body style="font-family:sans-serif">
<h1>Thank you for your order{{if .Order.CustomerName}}, {{.Order.CustomerName}}{{end}}!</h1>
<p>Order <strong>{{.Order.ID}}</strong> is confirmed.</p>
<table cellpadding="6">
<tr><th align="left">Item</th><th>Qty</th><th align="right">Price</th><th align="right">Amount</th></tr>
{{- range .Order.Items}}
<tr><td>{{.Name}}</td><td align="center">{{.Quantity}}</td><td align="right">{{money .UnitPrice $.Order.Currency}}</td><td align="right">{{money .Amount $.Order.Currency}}</td></tr>
{{- end}}
<tr><td colspan="3" align="right">Subtotal</td><td align="right">{{money .Order.Subtotal .Order.Currency}}</td></tr>
<tr><td colspan="3" align="right">Shipping</td><td align="right">{{money .Order.Shipping .Order.Currency}}</td></tr>
<tr><td colspan="3" align="right"><strong>Total</strong></td><td align="right"><strong>{{money .Order.Total .Order.Currency}}</strong></td></tr>
</table>
{{- with .Order.ShippingAddress}}
<h3>Shipping to</h3>
<p>{{if .Name}}{{.Name}}<br>{{end}}{{.Line1}}<br>{{if .Line2}}{{.Line2}}<br>{{end}}{{.City}}{{if .State}}, {{.State}}{{end}} {{.PostalCode}}<br>{{.Country}}</p>
{{- end}}
<p>{{.Store}}</p>
</body></html>`))

var statusTmpl = template.Must(template.New("status").Funcs(funcs).Parse(`<!doctype html>
<html><body style="font-family:sans-serif">
<h1>Your order is {{.Update.Status}}</h1>
<p>Hi {{if .Update.CustomerName}}{{.Update.CustomerName}}{{else}}there{{end}}, order <strong>{{.Update.OrderID}}</strong> has been {{.Update.Status}}.</p>
{{- if .Update.TrackingNumber}}
<p>Tracking number: <strong>{{.Update.TrackingNumber}}</strong></p>
{{- end}}
<ul>
{{- range .Update.Items}}
<li>{{.Quantity}} &times; {{.Name}}</li>
{{- end}}
</ul>
<p>{{.Store}}</p>
</body></html>`))

// OrderConfirmation renders the email sent once per settled order.
func OrderConfirmation(o *models.Order, store string) (Email, error) {
	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, map[string]any{"Order": o, "Store": store}); err != nil {
		return Email{}, fmt.Errorf("render confirmation: %w", err)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Order %s is confirmed.\n\n", o.ID)
	for _, it := range o.Items {
		fmt.Fprintf(&text, "%d x %s  %s\n", it.Quantity, it.Name, money.Format(it.Amount, o.Currency))
	}
	fmt.Fprintf(&text, "\nSubtotal: %s\nShipping: %s\nTotal: %s\n",
		money.Format(o.Subtotal, o.Currency),
		money.Format(o.Shipping, o.Currency),
		money.Format(o.Total, o.Currency))

	return Email{
		To:      o.CustomerEmail,
		Subject: fmt.Sprintf("%s order confirmation #%s", store, shortID(o.ID.String())),
		HTML:    buf.String(),
		Text:    text.String(),
	}, nil
}

func StatusEmail(su StatusUpdate, store string) (Email, error) {
	var buf bytes.Buffer
	if err := statusTmpl.Execute(&buf, map[string]any{"Update": su, "Store": store}); err != nil {
		return Email{}, fmt.Errorf("render status update: %w", err)
	}

	text := fmt.Sprintf("Order %s has been %s.\n", su.OrderID, su.Status)
	if su.TrackingNumber != "" {
		text += "Tracking number: " + su.TrackingNumber + "\n"
	}

	return Email{
		To:      su.CustomerEmail,
		Subject: fmt.Sprintf("Your %s order #%s is %s", store, shortID(su.OrderID), su.Status),
		HTML:    buf.String(),
		Text:    text,
	}, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return strings.ToUpper(id[:8])
	}
	return strings.ToUpper(id)
}
