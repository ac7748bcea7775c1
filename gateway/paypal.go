package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/plutov/paypal/v4"

	"github.com/fadhlanhapp/rentlot-backend/config"
	"github.com/fadhlanhapp/rentlot-backend/utils"
)

const maxDescriptionLength = 127

// PayPal is one PayPal REST account used as a hosted payment-link provider.
// A link is a CAPTURE-intent order; its approve URL is the payable link.
type PayPal struct {
	name      string
	client    *paypal.Client
	webhookID string
	returnURL string
	cancelURL string
}

// PayPalOptions configures a PayPal account
type PayPalOptions struct {
	Name         string
	ClientID     string
	ClientSecret string
	WebhookID    string
	Mode         string
	ReturnURL    string
	CancelURL    string
	// APIBase overrides the sandbox/live endpoint selected from Mode
	APIBase string
}

// NewPayPal creates a PayPal account client
func NewPayPal(opts PayPalOptions) (*PayPal, error) {
	apiBase := opts.APIBase
	if apiBase == "" {
		apiBase = paypal.APIBaseSandBox
		if opts.Mode == "live" {
			apiBase = paypal.APIBaseLive
		}
	}

	client, err := paypal.NewClient(opts.ClientID, opts.ClientSecret, apiBase)
	if err != nil {
		return nil, fmt.Errorf("failed to create paypal client %s: %w", opts.Name, err)
	}
	// outbound calls show up as external segments on the request's transaction
	client.SetHTTPClient(&http.Client{Transport: newrelic.NewRoundTripper(http.DefaultTransport)})

	slog.Info("[PayPal] Account initialized", "account", opts.Name, "apiBase", apiBase)
	return &PayPal{
		name:      opts.Name,
		client:    client,
		webhookID: opts.WebhookID,
		returnURL: opts.ReturnURL,
		cancelURL: opts.CancelURL,
	}, nil
}

// NewPayPalFromConfig builds the default account and one account per entry of the accounts file
func NewPayPalFromConfig(cfg config.PayPalConfig, accounts []config.PayPalAccount) (*Router, error) {
	var fallback Account
	if cfg.Enabled() {
		pp, err := NewPayPal(PayPalOptions{
			Name:         "default",
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			WebhookID:    cfg.WebhookID,
			Mode:         cfg.Mode,
			ReturnURL:    cfg.ReturnURL,
			CancelURL:    cfg.CancelURL,
		})
		if err != nil {
			return nil, err
		}
		fallback = pp
	}

	router := NewRouter(fallback)
	for _, acct := range accounts {
		pp, err := NewPayPal(PayPalOptions{
			Name:         acct.Name,
			ClientID:     acct.ClientID,
			ClientSecret: acct.ClientSecret,
			WebhookID:    acct.WebhookID,
			Mode:         cfg.Mode,
			ReturnURL:    cfg.ReturnURL,
			CancelURL:    cfg.CancelURL,
		})
		if err != nil {
			return nil, err
		}
		router.Register(pp, acct.PropertyIDs...)
	}
	return router, nil
}

// Name returns the account name used in webhook routing
func (p *PayPal) Name() string {
	return p.name
}

// CreateLink creates a CAPTURE order carrying the payment record id as
// reference_id and custom_id. custom_id comes back on capture webhooks.
func (p *PayPal) CreateLink(ctx context.Context, req LinkRequest) (*Link, error) {
	recordID := req.RecordID()
	if recordID == "" {
		return nil, fmt.Errorf("link request is missing %s metadata", MetadataRecordID)
	}

	units := []paypal.PurchaseUnitRequest{
		{
			ReferenceID: recordID,
			CustomID:    recordID,
			Description: truncate(req.Description, maxDescriptionLength),
			Amount: &paypal.PurchaseUnitAmount{
				Currency: strings.ToUpper(req.Currency),
				Value:    utils.FormatMinorUnits(req.AmountMinor),
			},
		},
	}
	appCtx := &paypal.ApplicationContext{
		ReturnURL: withRecordID(p.returnURL, recordID),
		CancelURL: withRecordID(p.cancelURL, recordID),
	}

	order, err := p.client.CreateOrder(ctx, "CAPTURE", units, nil, appCtx)
	if err != nil {
		return nil, fmt.Errorf("paypal create order for payment %s: %w", recordID, err)
	}

	link := orderLink(order)
	if link.URL == "" {
		return nil, fmt.Errorf("paypal order %s for payment %s has no approve link", order.ID, recordID)
	}
	slog.Info("[PayPal] Order created", "account", p.name, "orderID", order.ID, "paymentID", recordID)
	return link, nil
}

// RetrieveLink reads an order back for status and URL redisplay
func (p *PayPal) RetrieveLink(ctx context.Context, linkID string) (*Link, error) {
	order, err := p.client.GetOrder(ctx, linkID)
	if err != nil {
		return nil, fmt.Errorf("paypal get order %s: %w", linkID, err)
	}
	return orderLink(order), nil
}

func orderLink(order *paypal.Order) *Link {
	link := &Link{ID: order.ID, Status: linkStatus(order.Status)}
	for _, l := range order.Links {
		if l.Rel == "approve" || l.Rel == "payer-action" {
			link.URL = l.Href
			break
		}
	}
	return link
}

func linkStatus(orderStatus string) LinkStatus {
	switch orderStatus {
	case "APPROVED":
		return LinkApproved
	case "COMPLETED":
		return LinkCompleted
	case "VOIDED":
		return LinkVoided
	default:
		return LinkOpen
	}
}

func withRecordID(base, recordID string) string {
	if base == "" {
		return ""
	}
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set("payment", recordID)
	u.RawQuery = q.Encode()
	return u.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
