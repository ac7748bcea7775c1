package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/fadhlanhapp/rentlot-backend/gateway"
	"github.com/fadhlanhapp/rentlot-backend/models"
)

// Notifier is told when a payment link becomes available. Delivery is best
// effort; callers log failures and carry on.
type Notifier interface {
	PaymentLinkCreated(ctx context.Context, payment *models.PaymentRecord, link *gateway.Link) error
}

// PaymentLinkNotice is the message published for a new payment link
type PaymentLinkNotice struct {
	PaymentID     string    `json:"paymentId"`
	ReceiptNumber string    `json:"receiptNumber"`
	TenantID      string    `json:"tenantId"`
	PropertyID    string    `json:"propertyId"`
	Amount        string    `json:"amount"`
	Currency      string    `json:"currency"`
	DueDate       time.Time `json:"dueDate"`
	LinkID        string    `json:"linkId"`
	URL           string    `json:"url"`
}

// NATSNotifier publishes notices to a NATS subject for the mail/notification workers
type NATSNotifier struct {
	conn    *nats.Conn
	subject string
}

// NewNATSNotifier connects to NATS
func NewNATSNotifier(url, subject string) (*NATSNotifier, error) {
	conn, err := nats.Connect(url,
		nats.Name("rentlot-billing"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("[Notifier] NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("[Notifier] NATS reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	slog.Info("[Notifier] Connected to NATS", "url", url, "subject", subject)
	return &NATSNotifier{conn: conn, subject: subject}, nil
}

// PaymentLinkCreated publishes a PaymentLinkNotice
func (n *NATSNotifier) PaymentLinkCreated(ctx context.Context, payment *models.PaymentRecord, link *gateway.Link) error {
	data, err := json.Marshal(PaymentLinkNotice{
		PaymentID:     payment.ID,
		ReceiptNumber: payment.ReceiptNumber,
		TenantID:      payment.TenantID,
		PropertyID:    payment.PropertyID,
		Amount:        payment.TotalAmount.StringFixed(2),
		Currency:      payment.Currency,
		DueDate:       payment.DueDate,
		LinkID:        link.ID,
		URL:           link.URL,
	})
	if err != nil {
		return fmt.Errorf("failed to encode notice for payment %s: %w", payment.ID, err)
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return fmt.Errorf("failed to publish notice for payment %s: %w", payment.ID, err)
	}
	return nil
}

// Close flushes pending messages and closes the connection
func (n *NATSNotifier) Close() {
	if err := n.conn.Drain(); err != nil {
		slog.Warn("[Notifier] NATS drain failed", "error", err)
	}
}

// NoopNotifier drops every notice. Used when NATS is not configured.
type NoopNotifier struct{}

func (NoopNotifier) PaymentLinkCreated(context.Context, *models.PaymentRecord, *gateway.Link) error {
	return nil
}
