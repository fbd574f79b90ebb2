// Package notify emails the shop when a new order arrives.
package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/wneessen/go-mail"

	"flower_shop/internal/config"
	"flower_shop/internal/models"
)

type Sender interface {
	DialAndSendWithContext(ctx context.Context, msgs ...*mail.Msg) error
}

type ProductLookup interface {
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
}

type Mailer struct {
	sender   Sender
	from     string
	to       string
	products ProductLookup
}

func NewMailer(sender Sender, from, to string, products ProductLookup) *Mailer {
	return &Mailer{sender: sender, from: from, to: to, products: products}
}

// NewSMTPMailer returns nil when SMTP or the shop address is not configured.
func NewSMTPMailer(cfg *config.Config, products ProductLookup) (*Mailer, error) {
	if cfg.SMTPHost == "" || cfg.ShopNotifyEmail == "" {
		return nil, nil
	}

	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.SMTPUsername != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
			mail.WithUsername(cfg.SMTPUsername),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}
	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return NewMailer(client, cfg.MailFrom, cfg.ShopNotifyEmail, products), nil
}

func (m *Mailer) NotifyOrder(ctx context.Context, order *models.Order) error {
	if m == nil {
		return errors.New("mailer not configured")
	}
	msg, err := m.orderMessage(ctx, order)
	if err != nil {
		return err
	}
	return m.sender.DialAndSendWithContext(ctx, msg)
}

func (m *Mailer) orderMessage(ctx context.Context, order *models.Order) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, err
	}
	if err := msg.To(m.to); err != nil {
		return nil, err
	}
	msg.Subject(fmt.Sprintf("New order #%d from %s", order.ID, order.CustomerName))
	msg.SetBodyString(mail.TypeTextHTML, m.orderHTML(ctx, order))
	return msg, nil
}

func (m *Mailer) orderHTML(ctx context.Context, order *models.Order) string {
	var rows strings.Builder
	for _, item := range order.Items {
		name := fmt.Sprintf("Product #%d", item.ProductID)
		if m.products != nil {
			if p, err := m.products.GetProduct(ctx, item.ProductID); err == nil {
				name = p.Name
			}
		}
		fmt.Fprintf(&rows, "<tr><td>%s</td><td>%d</td><td>%s</td><td>%s</td></tr>",
			html.EscapeString(name), item.Quantity,
			item.PriceAtPurchase.StringFixed(2), item.Subtotal().StringFixed(2))
	}

	return fmt.Sprintf(`<h2>Order #%d</h2>
<p><b>%s</b><br>%s<br>%s</p>
<table border="1" cellpadding="6" style="border-collapse:collapse">
<tr><th>Product</th><th>Qty</th><th>Price</th><th>Subtotal</th></tr>
%s
</table>
<p><b>Total: %s</b></p>`,
		order.ID,
		html.EscapeString(order.CustomerName),
		html.EscapeString(order.CustomerPhone),
		html.EscapeString(order.CustomerAddress),
		rows.String(),
		order.TotalPrice.StringFixed(2),
	)
}
