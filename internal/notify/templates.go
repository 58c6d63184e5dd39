package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"rentstore/internal/models"
)

const dateLayout = "02.01.2006"

var orderHTML = template.Must(template.New("order").Parse(`<h2>Order {{.OrderNumber}} received</h2>
<p>Thank you for your order. We will contact you to confirm delivery.</p>
<table border="1" cellpadding="4" cellspacing="0">
<tr><th>Item</th><th>Period</th><th>Qty</th><th>Amount</th></tr>
{{range .Lines}}<tr><td>{{.Name}}</td><td>{{.Period}}</td><td>{{.Quantity}}</td><td>{{.Amount}}</td></tr>
{{end}}</table>
<p>Subtotal: {{.Subtotal}}</p>
{{if .Discount}}<p>Discount ({{.Code}}): -{{.Discount}}</p>{{end}}
<p><b>Total: {{.Total}}</b></p>
{{if .Address}}<p>Delivery address: {{.Address}}</p>{{end}}`))

var resetHTML = template.Must(template.New("reset").Parse(`<p>Your password reset code is <b>{{.Code}}</b>.</p>
<p>It expires in {{.Minutes}} minutes. If you did not ask for it, ignore this message.</p>`))

type orderLine struct {
	Name     string
	Period   string
	Quantity int
	Amount   string
}

type orderView struct {
	OrderNumber string
	Lines       []orderLine
	Subtotal    string
	Code        string
	Discount    string
	Total       string
	Address     string
}

// ItemPeriod renders an item's rental window, or "-" for undated lines.
func ItemPeriod(it models.OrderItem) string {
	if it.StartDate == nil || it.EndDate == nil {
		return "-"
	}
	return fmt.Sprintf("%s - %s (%d d)", it.StartDate.Format(dateLayout), it.EndDate.Format(dateLayout), it.Days)
}

// OrderConfirmation renders the confirmation sent after checkout. Channel and Destination are
// left for the caller.
func OrderConfirmation(order *models.Order) (Message, error) {
	view := orderView{
		OrderNumber: order.OrderNumber,
		Subtotal:    order.Subtotal.StringFixed(2),
		Total:       order.Total.StringFixed(2),
		Address:     order.DeliveryAddress,
	}
	if order.DiscountAmount.IsPositive() {
		view.Code = order.DiscountCode
		view.Discount = order.DiscountAmount.StringFixed(2)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Order %s received.\n", order.OrderNumber)
	for _, it := range order.Items {
		line := orderLine{
			Name:     it.ProductName,
			Period:   ItemPeriod(it),
			Quantity: it.Quantity,
			Amount:   it.TotalPrice.StringFixed(2),
		}
		view.Lines = append(view.Lines, line)
		fmt.Fprintf(&text, "- %s x%d, %s: %s\n", line.Name, line.Quantity, line.Period, line.Amount)
	}
	fmt.Fprintf(&text, "Subtotal: %s\n", view.Subtotal)
	if view.Discount != "" {
		fmt.Fprintf(&text, "Discount (%s): -%s\n", view.Code, view.Discount)
	}
	fmt.Fprintf(&text, "Total: %s", view.Total)

	var html bytes.Buffer
	if err := orderHTML.Execute(&html, view); err != nil {
		return Message{}, fmt.Errorf("render order confirmation: %w", err)
	}

	return Message{
		Subject: "Order " + order.OrderNumber + " confirmation",
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}

// ResetCode renders the password reset message.
func ResetCode(code string, ttl time.Duration) (Message, error) {
	minutes := int(ttl.Minutes())
	var html bytes.Buffer
	err := resetHTML.Execute(&html, struct {
		Code    string
		Minutes int
	}{code, minutes})
	if err != nil {
		return Message{}, fmt.Errorf("render reset code: %w", err)
	}
	return Message{
		Subject: "Password reset code",
		Text:    fmt.Sprintf("Your password reset code: %s. It expires in %d minutes.", code, minutes),
		HTML:    html.String(),
	}, nil
}
