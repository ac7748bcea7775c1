package models

import (
	"encoding/json"
	"time"
)

// EventOutcome is the normalized result carried by a gateway event
type EventOutcome string

const (
	OutcomeSucceeded EventOutcome = "SUCCEEDED"
	OutcomeFailed    EventOutcome = "FAILED"
	OutcomeCancelled EventOutcome = "CANCELLED"
)

// TargetStatus is the terminal payment status an outcome settles to
func (o EventOutcome) TargetStatus() PaymentStatus {
	if o == OutcomeSucceeded {
		return StatusPaid
	}
	return StatusCancelled
}

// GatewayEvent is a vendor webhook reduced to what reconciliation needs
type GatewayEvent struct {
	EventID       string          `json:"eventId"`
	EventType     string          `json:"eventType"`
	RecordID      string          `json:"recordId"`
	Outcome       EventOutcome    `json:"outcome"`
	AmountMinor   int64           `json:"amountMinor"`
	Currency      string          `json:"currency"`
	OccurredAt    time.Time       `json:"occurredAt"`
	TransactionID string          `json:"transactionId,omitempty"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
	LinkID        string          `json:"linkId,omitempty"`
	Raw           json.RawMessage `json:"-"`
}

// ReconcileResultKind says what reconciliation did with an event
type ReconcileResultKind string

const (
	ReconcileApplied   ReconcileResultKind = "APPLIED"
	ReconcileDuplicate ReconcileResultKind = "DUPLICATE"
	ReconcileFlagged   ReconcileResultKind = "FLAGGED"
	ReconcileIgnored   ReconcileResultKind = "IGNORED"
)

// AnomalyReason explains why an event was flagged for manual review
type AnomalyReason string

const (
	AnomalyMalformed AnomalyReason = "MALFORMED"
	AnomalyUnmatched AnomalyReason = "UNMATCHED"
	AnomalyConflict  AnomalyReason = "CONFLICT"
)

// ReconcileResult is returned for every processed event
type ReconcileResult struct {
	EventID  string              `json:"eventId"`
	RecordID string              `json:"recordId,omitempty"`
	Result   ReconcileResultKind `json:"result"`
	Reason   AnomalyReason       `json:"reason,omitempty"`
	Payment  *PaymentRecord      `json:"payment,omitempty"`
}

// WebhookAnomaly is a flagged event kept for manual review
type WebhookAnomaly struct {
	ID         string        `json:"id" gorm:"primaryKey;size:36"`
	EventID    string        `json:"eventId" gorm:"size:100;not null;index"`
	EventType  string        `json:"eventType" gorm:"size:100;not null"`
	RecordID   string        `json:"recordId" gorm:"size:100;not null;default:''"`
	Reason     AnomalyReason `json:"reason" gorm:"size:20;not null"`
	Detail     string        `json:"detail" gorm:"size:500;not null;default:''"`
	Payload    string        `json:"payload" gorm:"type:text"`
	CreatedAt  time.Time     `json:"createdAt"`
	ReviewedAt *time.Time    `json:"reviewedAt,omitempty"`
}

func (WebhookAnomaly) TableName() string {
	return "webhook_anomalies"
}
