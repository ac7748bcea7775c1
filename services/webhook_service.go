package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fadhlanhapp/rentlot-backend/models"
	"github.com/fadhlanhapp/rentlot-backend/repository"
	"github.com/fadhlanhapp/rentlot-backend/utils"
)

const webhookActor = "gateway-webhook"

// WebhookService reconciles gateway events into payment records exactly once.
// Events that cannot be applied are flagged, never retried.
type WebhookService struct {
	store     PaymentStore
	anomalies AnomalyStore
	now       func() time.Time
}

// NewWebhookService creates a new webhook service
func NewWebhookService(store PaymentStore, anomalies AnomalyStore) *WebhookService {
	return &WebhookService{
		store:     store,
		anomalies: anomalies,
		now:       time.Now,
	}
}

// Reconcile applies event to the record it references. The write is one
// conditional update, so concurrent deliveries of the same event converge:
// one applies, the rest find the record already in the target status.
// A non-nil error means the store failed and the event should be redelivered.
func (s *WebhookService) Reconcile(ctx context.Context, event *models.GatewayEvent) (*models.ReconcileResult, error) {
	if event.RecordID == "" {
		return s.flag(ctx, event, models.AnomalyMalformed, "event carries no payment record id")
	}

	var target models.PaymentStatus
	switch event.Outcome {
	case models.OutcomeSucceeded, models.OutcomeFailed, models.OutcomeCancelled:
		target = event.Outcome.TargetStatus()
	default:
		return s.flag(ctx, event, models.AnomalyMalformed, fmt.Sprintf("unknown outcome %q", event.Outcome))
	}

	now := s.now()
	change := models.StatusChange{
		From:      models.OpenStatuses,
		To:        target,
		UpdatedBy: models.SystemActor(webhookActor).String(),
		At:        now,
	}
	if event.Outcome == models.OutcomeSucceeded {
		paid := event.OccurredAt
		if paid.IsZero() {
			paid = now
		}
		change.PaidDate = &paid
		change.PaymentMethod = event.PaymentMethod
		change.TransactionID = event.TransactionID
		if event.AmountMinor > 0 {
			total := utils.FromMinorUnits(event.AmountMinor)
			change.TotalAmount = &total
		}
	}

	payment, applied, err := s.store.TransitionStatus(ctx, event.RecordID, change)
	if err != nil {
		return nil, fmt.Errorf("reconcile event %s for payment %s: %w", event.EventID, event.RecordID, err)
	}
	if applied {
		webhookEvents.WithLabelValues(string(models.ReconcileApplied)).Inc()
		slog.Info("[WebhookService] Event applied",
			"eventID", event.EventID, "paymentID", payment.ID, "status", payment.Status,
			"total", payment.TotalAmount.StringFixed(2))
		return &models.ReconcileResult{
			EventID:  event.EventID,
			RecordID: event.RecordID,
			Result:   models.ReconcileApplied,
			Payment:  payment,
		}, nil
	}

	current, err := s.store.GetPayment(ctx, event.RecordID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.flag(ctx, event, models.AnomalyUnmatched, "no payment record with this id")
		}
		return nil, fmt.Errorf("reconcile event %s for payment %s: %w", event.EventID, event.RecordID, err)
	}
	if current.Status == target {
		webhookEvents.WithLabelValues(string(models.ReconcileDuplicate)).Inc()
		slog.Info("[WebhookService] Duplicate event ignored", "eventID", event.EventID, "paymentID", current.ID, "status", current.Status)
		return &models.ReconcileResult{
			EventID:  event.EventID,
			RecordID: event.RecordID,
			Result:   models.ReconcileDuplicate,
			Payment:  current,
		}, nil
	}
	return s.flag(ctx, event, models.AnomalyConflict,
		fmt.Sprintf("payment is %s, event requests %s", current.Status, target))
}

// FlagMalformed records a webhook body that could not be decoded at all
func (s *WebhookService) FlagMalformed(ctx context.Context, payload []byte, cause error) *models.ReconcileResult {
	result, _ := s.flag(ctx, &models.GatewayEvent{Raw: payload}, models.AnomalyMalformed, cause.Error())
	return result
}

// flag logs and persists an anomaly. It never fails: a store error is logged
// and the event is still acknowledged.
func (s *WebhookService) flag(ctx context.Context, event *models.GatewayEvent, reason models.AnomalyReason, detail string) (*models.ReconcileResult, error) {
	webhookEvents.WithLabelValues(string(models.ReconcileFlagged)).Inc()
	slog.Warn("[WebhookService] Event flagged for review",
		"eventID", event.EventID, "eventType", event.EventType, "paymentID", event.RecordID,
		"reason", reason, "detail", detail)

	anomaly := &models.WebhookAnomaly{
		ID:        utils.GenerateID(),
		EventID:   event.EventID,
		EventType: event.EventType,
		RecordID:  event.RecordID,
		Reason:    reason,
		Detail:    detail,
		Payload:   string(event.Raw),
		CreatedAt: s.now(),
	}
	if err := s.anomalies.RecordAnomaly(ctx, anomaly); err != nil {
		slog.Error("[WebhookService] Failed to persist anomaly", "eventID", event.EventID, "reason", reason, "error", err)
	}

	return &models.ReconcileResult{
		EventID:  event.EventID,
		RecordID: event.RecordID,
		Result:   models.ReconcileFlagged,
		Reason:   reason,
	}, nil
}

// RecordIgnored counts a valid event that needed no reconciliation
func (s *WebhookService) RecordIgnored(eventType string) *models.ReconcileResult {
	webhookEvents.WithLabelValues(string(models.ReconcileIgnored)).Inc()
	slog.Debug("[WebhookService] Event ignored", "eventType", eventType)
	return &models.ReconcileResult{Result: models.ReconcileIgnored}
}

// ListAnomalies returns flagged events for manual review
func (s *WebhookService) ListAnomalies(ctx context.Context, limit int, unreviewedOnly bool) ([]models.WebhookAnomaly, error) {
	anomalies, err := s.anomalies.ListAnomalies(ctx, limit, unreviewedOnly)
	if err != nil {
		return nil, utils.NewInternalError(utils.ErrFailedToRetrieve, err)
	}
	return anomalies, nil
}
