package gateway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fadhlanhapp/rentlot-backend/models"
)

const captureCompleted = `{
	"id": "WH-58D329510W468432D-8HN650336L201105X",
	"event_type": "PAYMENT.CAPTURE.COMPLETED",
	"create_time": "2026-10-03T12:00:05Z",
	"resource": {
		"id": "42311647XV020574X",
		"status": "COMPLETED",
		"custom_id": "pay-1",
		"create_time": "2026-10-03T12:00:00Z",
		"amount": {"currency_code": "USD", "value": "980.00"},
		"supplementary_data": {"related_ids": {"order_id": "ORDER-1"}}
	}
}`

func TestParsePayPalEvent_CaptureCompleted(t *testing.T) {
	event, err := ParsePayPalEvent([]byte(captureCompleted))
	require.NoError(t, err)

	assert.Equal(t, "WH-58D329510W468432D-8HN650336L201105X", event.EventID)
	assert.Equal(t, models.OutcomeSucceeded, event.Outcome)
	assert.Equal(t, "pay-1", event.RecordID)
	assert.Equal(t, int64(98000), event.AmountMinor)
	assert.Equal(t, "USD", event.Currency)
	assert.Equal(t, "42311647XV020574X", event.TransactionID)
	assert.Equal(t, "ORDER-1", event.LinkID)
	assert.Equal(t, "paypal", event.PaymentMethod)
	assert.True(t, event.OccurredAt.Equal(time.Date(2026, 10, 3, 12, 0, 0, 0, time.UTC)))
}

func TestParsePayPalEvent_Outcomes(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		outcome  models.EventOutcome
		recordID string
	}{
		{
			name:     "capture denied",
			body:     `{"id":"WH-2","event_type":"PAYMENT.CAPTURE.DENIED","resource":{"id":"CAP-2","custom_id":"pay-2","amount":{"currency_code":"USD","value":"10.00"}}}`,
			outcome:  models.OutcomeFailed,
			recordID: "pay-2",
		},
		{
			name:     "order voided falls back to reference id",
			body:     `{"id":"WH-3","event_type":"CHECKOUT.ORDER.VOIDED","resource":{"id":"ORDER-3","purchase_units":[{"reference_id":"pay-3"}]}}`,
			outcome:  models.OutcomeCancelled,
			recordID: "pay-3",
		},
		{
			name:     "capture without custom id",
			body:     `{"id":"WH-4","event_type":"PAYMENT.CAPTURE.COMPLETED","resource":{"id":"CAP-4","amount":{"currency_code":"USD","value":"5.00"}}}`,
			outcome:  models.OutcomeSucceeded,
			recordID: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := ParsePayPalEvent([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.outcome, event.Outcome)
			assert.Equal(t, tt.recordID, event.RecordID)
		})
	}
}

func TestParsePayPalEvent_OrderApprovedCarriesOrder(t *testing.T) {
	event, err := ParsePayPalEvent([]byte(`{"id":"WH-5","event_type":"CHECKOUT.ORDER.APPROVED","resource":{"id":"ORDER-5","purchase_units":[{"custom_id":"pay-5"}]}}`))
	require.NoError(t, err)
	assert.Equal(t, "ORDER-5", event.LinkID)
	assert.Equal(t, "pay-5", event.RecordID)
}

func TestParsePayPalEvent_Errors(t *testing.T) {
	_, err := ParsePayPalEvent([]byte(`not json`))
	assert.ErrorIs(t, err, ErrMalformedEvent)

	_, err = ParsePayPalEvent([]byte(`{"event_type":"PAYMENT.CAPTURE.COMPLETED"}`))
	assert.ErrorIs(t, err, ErrMalformedEvent)

	_, err = ParsePayPalEvent([]byte(`{"id":"WH-6","event_type":"PAYMENT.CAPTURE.COMPLETED","resource":{"custom_id":"pay-6","amount":{"value":"abc"}}}`))
	assert.ErrorIs(t, err, ErrMalformedEvent)

	_, err = ParsePayPalEvent([]byte(`{"id":"WH-7","event_type":"BILLING.SUBSCRIPTION.CREATED","resource":{}}`))
	assert.ErrorIs(t, err, ErrEventIgnored)
}
