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

const receiptAttempts = 5

// PaymentService enforces the payment record lifecycle on top of a PaymentStore
type PaymentService struct {
	store PaymentStore
	now   func() time.Time
}

// NewPaymentService creates a new payment service
func NewPaymentService(store PaymentStore) *PaymentService {
	return &PaymentService{
		store: store,
		now:   time.Now,
	}
}

// CreatePayment validates and stores a new PENDING record. The receipt number,
// billing month and total are always assigned here, whatever the caller set.
func (s *PaymentService) CreatePayment(ctx context.Context, p *models.PaymentRecord, actor models.Actor) (*models.PaymentRecord, error) {
	if err := validatePayment(p); err != nil {
		return nil, err
	}

	now := s.now()
	if p.ID == "" {
		p.ID = utils.GenerateID()
	}
	p.Status = models.StatusPending
	p.BillingMonth = utils.FirstOfMonth(p.DueDate)
	p.CreatedBy = actor.String()
	p.UpdatedBy = actor.String()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.PaidDate = nil
	p.RecomputeTotal()

	if p.Type == models.PaymentRent {
		taken, err := s.rentMonthTaken(ctx, p.TenantID, p.BillingMonth)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, duplicateBillingError(p.BillingMonth)
		}
	}

	for attempt := 1; ; attempt++ {
		p.ReceiptNumber = utils.GenerateReceiptNumber(now)
		err := s.store.CreatePayment(ctx, p)
		if err == nil {
			break
		}
		switch {
		case errors.Is(err, repository.ErrDuplicateReceipt) && attempt < receiptAttempts:
			slog.Warn("[PaymentService] Receipt number collision, regenerating", "paymentID", p.ID, "attempt", attempt)
			continue
		case errors.Is(err, repository.ErrDuplicateReceipt):
			return nil, utils.NewConflictError("Could not allocate a unique receipt number")
		case errors.Is(err, repository.ErrDuplicateRentMonth):
			return nil, duplicateBillingError(p.BillingMonth)
		default:
			return nil, utils.NewInternalError(utils.ErrFailedToStore, err)
		}
	}

	paymentsCreated.WithLabelValues(string(p.Type)).Inc()
	slog.Info("[PaymentService] Payment created",
		"paymentID", p.ID, "receipt", p.ReceiptNumber, "tenantID", p.TenantID,
		"type", p.Type, "total", p.TotalAmount.StringFixed(2), "actor", actor.String())
	return p, nil
}

func (s *PaymentService) rentMonthTaken(ctx context.Context, tenantID string, month time.Time) (bool, error) {
	existing, err := s.store.ListPayments(ctx, models.PaymentFilter{TenantID: tenantID, Type: models.PaymentRent})
	if err != nil {
		return false, utils.NewInternalError(utils.ErrFailedToRetrieve, err)
	}
	for _, p := range existing {
		if p.Status.CountsAsBilled() && utils.SameMonth(p.BillingMonth, month) {
			return true, nil
		}
	}
	return false, nil
}

func duplicateBillingError(month time.Time) *utils.AppError {
	err := utils.NewConflictError(utils.ErrDuplicateBilling)
	err.Details = "Billing month: " + utils.FormatMonth(month)
	return err
}

func validatePayment(p *models.PaymentRecord) error {
	checks := []error{
		utils.ValidateRequired(p.TenantID, "tenantId"),
		utils.ValidateRequired(p.PropertyID, "propertyId"),
		utils.ValidateOneOf(p.Type, "type", models.PaymentTypes...),
		utils.ValidateNonNegative(p.Amount, "amount"),
		utils.ValidateNonNegative(p.LateFeeAmount, "lateFeeAmount"),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	if p.Amount.Add(p.LateFeeAmount).IsZero() {
		return utils.NewValidationError("amount plus lateFeeAmount must be greater than 0")
	}
	if p.DueDate.IsZero() {
		return utils.NewValidationError("dueDate is required")
	}
	return nil
}

// GetPayment retrieves a payment by ID
func (s *PaymentService) GetPayment(ctx context.Context, id string) (*models.PaymentRecord, error) {
	p, err := s.store.GetPayment(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, utils.NewNotFoundError(utils.ErrPaymentNotFound)
		}
		return nil, utils.NewInternalError(utils.ErrFailedToRetrieve, err)
	}
	return p, nil
}

// GetPaymentView retrieves a payment with its derived overdue fields
func (s *PaymentService) GetPaymentView(ctx context.Context, id string) (*models.PaymentView, error) {
	p, err := s.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	view := p.View(s.now())
	return &view, nil
}

// ListPayments lists payments matching filter
func (s *PaymentService) ListPayments(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentRecord, error) {
	payments, err := s.store.ListPayments(ctx, filter)
	if err != nil {
		return nil, utils.NewInternalError(utils.ErrFailedToRetrieve, err)
	}
	return payments, nil
}

// CancelPayment moves an open payment to CANCELLED. Cancelling a cancelled payment is a no-op.
func (s *PaymentService) CancelPayment(ctx context.Context, id string, actor models.Actor) (*models.PaymentRecord, error) {
	return s.transition(ctx, id, models.StatusChange{
		From:      models.OpenStatuses,
		To:        models.StatusCancelled,
		UpdatedBy: actor.String(),
		At:        s.now(),
	})
}

// RefundPayment moves a PAID payment to REFUNDED. Refunding a refunded payment is a no-op.
func (s *PaymentService) RefundPayment(ctx context.Context, id string, actor models.Actor) (*models.PaymentRecord, error) {
	return s.transition(ctx, id, models.StatusChange{
		From:      []models.PaymentStatus{models.StatusPaid},
		To:        models.StatusRefunded,
		UpdatedBy: actor.String(),
		At:        s.now(),
	})
}

func (s *PaymentService) transition(ctx context.Context, id string, change models.StatusChange) (*models.PaymentRecord, error) {
	p, applied, err := s.store.TransitionStatus(ctx, id, change)
	if err != nil {
		return nil, utils.NewInternalError(utils.ErrFailedToStore, err)
	}
	if applied {
		slog.Info("[PaymentService] Payment status changed", "paymentID", id, "status", change.To, "actor", change.UpdatedBy)
		return p, nil
	}

	current, err := s.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == change.To {
		return current, nil
	}
	return nil, utils.NewConflictError(fmt.Sprintf("Payment is %s and cannot become %s", current.Status, change.To))
}

// SweepOverdue materializes OVERDUE on PENDING records already past due.
// The stored status only mirrors the derived overdue rule for filtering.
func (s *PaymentService) SweepOverdue(ctx context.Context, actor models.Actor) (int64, error) {
	n, err := s.store.MarkOverdue(ctx, s.now(), actor.String())
	if err != nil {
		return 0, utils.NewInternalError(utils.ErrFailedToStore, err)
	}
	slog.Info("[PaymentService] Overdue sweep finished", "marked", n, "actor", actor.String())
	return n, nil
}
