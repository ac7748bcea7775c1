package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/plutov/paypal/v4"
	"github.com/spf13/cast"

	"github.com/fadhlanhapp/rentlot-backend/models"
	"github.com/fadhlanhapp/rentlot-backend/utils"
)

// PayPal webhook event types this adapter understands
const (
	EventCaptureCompleted = "PAYMENT.CAPTURE.COMPLETED"
	EventCaptureDenied    = "PAYMENT.CAPTURE.DENIED"
	EventCaptureDeclined  = "PAYMENT.CAPTURE.DECLINED"
	EventOrderApproved    = "CHECKOUT.ORDER.APPROVED"
	EventOrderVoided      = "CHECKOUT.ORDER.VOIDED"
)

const paymentMethodPayPal = "paypal"

type webhookEnvelope struct {
	ID         string                 `json:"id"`
	EventType  string                 `json:"event_type"`
	CreateTime string                 `json:"create_time"`
	Resource   map[string]interface{} `json:"resource"`
}

// ParseEvent verifies the PayPal signature headers (when a webhook id is
// configured) and maps the event. An approved order is captured here and
// reported as ErrEventIgnored; the capture webhook that follows settles it.
func (p *PayPal) ParseEvent(ctx context.Context, r *http.Request) (*models.GatewayEvent, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read webhook body: %w", err)
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	if p.webhookID != "" {
		resp, err := p.client.VerifyWebhookSignature(ctx, r, p.webhookID)
		if err != nil {
			return nil, fmt.Errorf("paypal verify webhook signature: %w", err)
		}
		if resp.VerificationStatus != "SUCCESS" {
			return nil, ErrInvalidSignature
		}
	}

	event, err := ParsePayPalEvent(body)
	if err != nil {
		return nil, err
	}

	if event.EventType == EventOrderApproved {
		return nil, p.captureApproved(ctx, event)
	}
	return event, nil
}

func (p *PayPal) captureApproved(ctx context.Context, event *models.GatewayEvent) error {
	_, err := p.client.CaptureOrder(ctx, event.LinkID, paypal.CaptureOrderRequest{})
	if err != nil {
		if isAlreadyCaptured(err) {
			slog.Info("[PayPal] Order already captured", "account", p.name, "orderID", event.LinkID)
			return ErrEventIgnored
		}
		return fmt.Errorf("paypal capture order %s for payment %s: %w", event.LinkID, event.RecordID, err)
	}
	slog.Info("[PayPal] Approved order captured", "account", p.name, "orderID", event.LinkID, "paymentID", event.RecordID)
	return ErrEventIgnored
}

func isAlreadyCaptured(err error) bool {
	var errResp *paypal.ErrorResponse
	if !errors.As(err, &errResp) {
		return false
	}
	for _, d := range errResp.Details {
		if d.Issue == "ORDER_ALREADY_CAPTURED" {
			return true
		}
	}
	return false
}

// ParsePayPalEvent maps a raw PayPal webhook body onto a GatewayEvent.
// A missing payment record id is not an error here: the event is returned
// with an empty RecordID so reconciliation can flag it.
func ParsePayPalEvent(body []byte) (*models.GatewayEvent, error) {
	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if env.ID == "" || env.EventType == "" {
		return nil, fmt.Errorf("%w: missing id or event_type", ErrMalformedEvent)
	}

	event := &models.GatewayEvent{
		EventID:    env.ID,
		EventType:  env.EventType,
		OccurredAt: parseTime(env.CreateTime),
		Raw:        json.RawMessage(body),
	}
	res := env.Resource

	switch env.EventType {
	case EventCaptureCompleted, EventCaptureDenied, EventCaptureDeclined:
		event.Outcome = models.OutcomeFailed
		if env.EventType == EventCaptureCompleted {
			event.Outcome = models.OutcomeSucceeded
		}
		event.RecordID = cast.ToString(res["custom_id"])
		event.TransactionID = cast.ToString(res["id"])
		event.PaymentMethod = paymentMethodPayPal
		if t := parseTime(cast.ToString(res["create_time"])); !t.IsZero() {
			event.OccurredAt = t
		}
		related := cast.ToStringMap(cast.ToStringMap(res["supplementary_data"])["related_ids"])
		event.LinkID = cast.ToString(related["order_id"])

		amount := cast.ToStringMap(res["amount"])
		event.Currency = cast.ToString(amount["currency_code"])
		if value := cast.ToString(amount["value"]); value != "" {
			minor, err := utils.ParseMinorUnits(value)
			if err != nil {
				return nil, fmt.Errorf("%w: amount %q: %v", ErrMalformedEvent, value, err)
			}
			event.AmountMinor = minor
		}

	case EventOrderApproved, EventOrderVoided:
		if env.EventType == EventOrderVoided {
			event.Outcome = models.OutcomeCancelled
		}
		event.LinkID = cast.ToString(res["id"])
		units := cast.ToSlice(res["purchase_units"])
		if len(units) > 0 {
			unit := cast.ToStringMap(units[0])
			event.RecordID = cast.ToString(unit["custom_id"])
			if event.RecordID == "" {
				event.RecordID = cast.ToString(unit["reference_id"])
			}
		}

	default:
		return nil, ErrEventIgnored
	}

	return event, nil
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
