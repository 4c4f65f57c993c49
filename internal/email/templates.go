package email

import (
	"fmt"
	"html"
	"strings"

	"github.com/example/brownie-shop/internal/domain/order"
	"github.com/example/brownie-shop/internal/money"
)

const layout = `<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: linear-gradient(135deg, #5d3a1a 0%%, #a0522d 100%%); padding: 30px; border-radius: 10px 10px 0 0;">
		<h1 style="color: white; margin: 0; font-size: 24px;">%s</h1>
	</div>

	<div style="background: #fff; padding: 30px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">
		%s

		<hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">

		<p style="font-size: 12px; color: #999; margin-bottom: 0;">
			This email was sent automatically. If you have any questions, reply to this message and our team will help.
		</p>
	</div>
</body>
</html>`

func page(title, content string) string {
	return fmt.Sprintf(layout, html.EscapeString(title), content)
}

func greeting(name string) string {
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf(`<p style="margin-top: 0;">Hi %s,</p>`, html.EscapeString(name))
}

func orderNumber(orderID string) string {
	return fmt.Sprintf(`<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
			<p style="margin: 0; font-size: 14px; color: #666;">Order number</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold; font-family: monospace;">%s</p>
		</div>`, html.EscapeString(orderID))
}

// BuildOrderConfirmationBody builds the HTML body for order confirmation email
func BuildOrderConfirmationBody(e order.OrderPlaced) (string, error) {
	var itemsHTML strings.Builder
	for _, item := range e.Items {
		name := item.Name
		if name == "" {
			name = item.ProductID
		}
		price, err := money.ParsePrice(item.Price)
		if err != nil {
			return "", fmt.Errorf("item %s: %w", item.ProductID, err)
		}
		fmt.Fprintf(&itemsHTML,
			`<tr>
				<td style="padding: 12px; border-bottom: 1px solid #eee;">%s</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: center;">%d</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">%s</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">%s</td>
			</tr>`,
			html.EscapeString(name),
			item.Quantity,
			price,
			price*money.Amount(item.Quantity),
		)
	}

	content := greeting(e.Name) + `
		<p>Thank you for your order! We are baking it fresh.</p>
		` + orderNumber(e.OrderID) + fmt.Sprintf(`
		<h2 style="font-size: 18px; border-bottom: 2px solid #a0522d; padding-bottom: 10px;">Your order</h2>

		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background: #f8f9fa;">
					<th style="padding: 12px; text-align: left; font-weight: 600;">Item</th>
					<th style="padding: 12px; text-align: center; font-weight: 600;">Qty</th>
					<th style="padding: 12px; text-align: right; font-weight: 600;">Price</th>
					<th style="padding: 12px; text-align: right; font-weight: 600;">Subtotal</th>
				</tr>
			</thead>
			<tbody>
				%s
			</tbody>
		</table>

		<div style="text-align: right; padding: 20px; background: #f8f9fa; border-radius: 5px;">
			<span style="font-size: 14px; color: #666;">Total (incl. tax)</span>
			<span style="font-size: 24px; font-weight: bold; color: #a0522d; margin-left: 10px;">%s</span>
		</div>
		<p style="font-size: 14px; color: #666;">Payment: %s</p>`, itemsHTML.String(), e.Total, paymentLabel(e.PaymentMethod))

	return page("Thank you for your order", content), nil
}

var statusMessages = map[order.Status]string{
	order.StatusConfirmed: "Your order has been confirmed.",
	order.StatusPreparing: "Our bakers are preparing your order.",
	order.StatusShipped:   "Your order is on its way.",
	order.StatusDelivered: "Your order has been delivered. Enjoy!",
	order.StatusCancelled: "Your order has been cancelled. Any payment made will be refunded.",
}

// BuildStatusUpdateBody builds the HTML body for an order status change.
func BuildStatusUpdateBody(e order.OrderStatusChanged) string {
	message, ok := statusMessages[e.To]
	if !ok {
		message = fmt.Sprintf("Your order is now %s.", e.To)
	}
	content := greeting(e.Name) + fmt.Sprintf(`
		<p>%s</p>
		`, html.EscapeString(message)) + orderNumber(e.OrderID)
	return page("Order update", content)
}

func paymentLabel(m order.PaymentMethod) string {
	switch m {
	case order.PaymentCard:
		return "Card"
	case order.PaymentUPI:
		return "UPI"
	case order.PaymentCOD:
		return "Cash on delivery"
	}
	return string(m)
}
