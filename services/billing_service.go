package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fadhlanhapp/rentlot-backend/gateway"
	"github.com/fadhlanhapp/rentlot-backend/models"
	"github.com/fadhlanhapp/rentlot-backend/repository"
	"github.com/fadhlanhapp/rentlot-backend/utils"
)

// BillingOptions configures a BillingService
type BillingOptions struct {
	Currency       string
	GatewayTimeout time.Duration
}

// BillingService turns rent statements into payment records and hosted payment links
type BillingService struct {
	leases     LeaseStore
	payments   *PaymentService
	gateways   GatewayRouter
	notifier   Notifier
	calculator *RentScheduleCalculator
	currency   string
	timeout    time.Duration
	now        func() time.Time
}

// NewBillingService creates a new billing service
func NewBillingService(leases LeaseStore, payments *PaymentService, gateways GatewayRouter, notifier Notifier, opts BillingOptions) *BillingService {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	if opts.GatewayTimeout <= 0 {
		opts.GatewayTimeout = 15 * time.Second
	}
	if opts.Currency == "" {
		opts.Currency = "USD"
	}
	return &BillingService{
		leases:     leases,
		payments:   payments,
		gateways:   gateways,
		notifier:   notifier,
		calculator: NewRentScheduleCalculator(),
		currency:   strings.ToUpper(opts.Currency),
		timeout:    opts.GatewayTimeout,
		now:        time.Now,
	}
}

func (s *BillingService) getLease(ctx context.Context, leaseID string) (*models.Lease, error) {
	lease, err := s.leases.GetLease(ctx, leaseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, utils.NewNotFoundError(utils.ErrLeaseNotFound)
		}
		return nil, utils.NewInternalError(utils.ErrFailedToRetrieve, err)
	}
	return lease, nil
}

// GetRentStatement reports what the tenant currently owes on a lease. It never writes.
func (s *BillingService) GetRentStatement(ctx context.Context, leaseID string) (*models.RentStatement, error) {
	lease, err := s.getLease(ctx, leaseID)
	if err != nil {
		return nil, err
	}
	return s.statement(ctx, lease)
}

func (s *BillingService) statement(ctx context.Context, lease *models.Lease) (*models.RentStatement, error) {
	// the duplicate-billing key is per tenant, so history is too
	history, err := s.payments.ListPayments(ctx, models.PaymentFilter{
		TenantID: lease.TenantID,
		Type:     models.PaymentRent,
	})
	if err != nil {
		return nil, err
	}

	stmt, err := s.calculator.Calculate(lease, history, s.now())
	if err != nil {
		if errors.Is(err, ErrLeaseNotBillable) {
			appErr := utils.NewConflictError(utils.ErrLeaseNotBillable)
			appErr.Details = err.Error()
			return nil, appErr
		}
		return nil, utils.NewInternalError("Failed to calculate rent", err)
	}
	return stmt, nil
}

// PayNow bills the lease's next obligation, or reuses the open record the
// statement points at, and returns a hosted link for it.
func (s *BillingService) PayNow(ctx context.Context, leaseID string, actor models.Actor) (*models.PaymentLinkResult, error) {
	lease, err := s.getLease(ctx, leaseID)
	if err != nil {
		return nil, err
	}
	stmt, err := s.statement(ctx, lease)
	if err != nil {
		return nil, err
	}

	var payment *models.PaymentRecord
	switch {
	case stmt.Action.CreatesObligation():
		payment, err = s.payments.CreatePayment(ctx, &models.PaymentRecord{
			TenantID:    lease.TenantID,
			LeaseID:     lease.ID,
			PropertyID:  lease.PropertyID,
			SpotID:      lease.SpotID,
			Amount:      stmt.Amount,
			Currency:    s.currency,
			Type:        models.PaymentRent,
			DueDate:     *stmt.DueDate,
			Description: stmt.Description,
		}, actor)
	case stmt.ExistingPaymentID != "":
		payment, err = s.payments.GetPayment(ctx, stmt.ExistingPaymentID)
	default:
		appErr := utils.NewConflictError(stmt.Warning)
		appErr.Details = "Covered months: " + strings.Join(stmt.CoveredMonths, ", ")
		return nil, appErr
	}
	if err != nil {
		return nil, err
	}

	result, err := s.linkFor(ctx, payment, actor)
	if err != nil {
		return nil, err
	}
	result.Statement = stmt
	return result, nil
}

// CreatePaymentLink creates a link for an open record that has none, or
// returns the existing one. Used to retry after a failed gateway call.
func (s *BillingService) CreatePaymentLink(ctx context.Context, paymentID string, actor models.Actor) (*models.PaymentLinkResult, error) {
	payment, err := s.payments.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	return s.linkFor(ctx, payment, actor)
}

func (s *BillingService) linkFor(ctx context.Context, payment *models.PaymentRecord, actor models.Actor) (*models.PaymentLinkResult, error) {
	if !payment.Status.IsOpen() {
		return nil, utils.NewConflictError(fmt.Sprintf("%s: payment %s is %s", utils.ErrPaymentNotPending, payment.ID, payment.Status))
	}
	if payment.PaymentLinkID != "" {
		return &models.PaymentLinkResult{
			Payment: payment.View(s.now()),
			LinkID:  payment.PaymentLinkID,
			URL:     payment.PaymentLinkURL,
			Reused:  true,
		}, nil
	}

	link, err := s.createLink(ctx, payment)
	if err != nil {
		return nil, err
	}

	if err := s.payments.store.AttachLink(ctx, payment.ID, link.ID, link.URL, actor.String()); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, utils.NewConflictError(fmt.Sprintf("%s: payment %s changed while the link was created", utils.ErrPaymentNotPending, payment.ID))
		}
		return nil, utils.NewInternalError(utils.ErrFailedToStore, fmt.Errorf("attach link %s to payment %s: %w", link.ID, payment.ID, err))
	}
	payment.PaymentLinkID = link.ID
	payment.PaymentLinkURL = link.URL
	paymentLinksCreated.Inc()

	if err := s.notifier.PaymentLinkCreated(ctx, payment, link); err != nil {
		slog.Warn("[BillingService] Payment link notification failed", "paymentID", payment.ID, "error", err)
	}

	return &models.PaymentLinkResult{
		Payment:   payment.View(s.now()),
		LinkID:    link.ID,
		URL:       link.URL,
		LinkState: string(link.Status),
	}, nil
}

// createLink calls the gateway under a deadline. A failure or timeout leaves
// the record PENDING without a link, ready for another attempt.
func (s *BillingService) createLink(ctx context.Context, payment *models.PaymentRecord) (*gateway.Link, error) {
	gw, err := s.gateways.ForProperty(payment.PropertyID)
	if err != nil {
		paymentLinkFailures.WithLabelValues("no_account").Inc()
		return nil, utils.NewGatewayError("No payment gateway account for this property", err)
	}

	gctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	link, err := gw.CreateLink(gctx, gateway.LinkRequest{
		AmountMinor: utils.ToMinorUnits(payment.TotalAmount),
		Currency:    payment.Currency,
		Description: fmt.Sprintf("%s (%s)", payment.Description, payment.ReceiptNumber),
		Metadata: map[string]string{
			gateway.MetadataRecordID: payment.ID,
			"receipt_number":         payment.ReceiptNumber,
			"tenant_id":              payment.TenantID,
		},
	})
	if err != nil {
		slog.Error("[BillingService] Payment link creation failed", "paymentID", payment.ID, "error", err)
		if errors.Is(err, context.DeadlineExceeded) {
			paymentLinkFailures.WithLabelValues("timeout").Inc()
			return nil, utils.NewGatewayTimeoutError(
				fmt.Sprintf("Payment gateway timed out; payment %s is still pending, retry the link", payment.ID), err)
		}
		paymentLinkFailures.WithLabelValues("error").Inc()
		return nil, utils.NewGatewayError(
			fmt.Sprintf("Payment gateway failed; payment %s is still pending, retry the link", payment.ID), err)
	}
	return link, nil
}

// GetPaymentLink reads the current state of a payment's link from the gateway
func (s *BillingService) GetPaymentLink(ctx context.Context, paymentID string) (*models.PaymentLinkResult, error) {
	payment, err := s.payments.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.PaymentLinkID == "" {
		return nil, utils.NewNotFoundError("Payment link")
	}

	gw, err := s.gateways.ForProperty(payment.PropertyID)
	if err != nil {
		return nil, utils.NewGatewayError("No payment gateway account for this property", err)
	}
	gctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	link, err := gw.RetrieveLink(gctx, payment.PaymentLinkID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, utils.NewGatewayTimeoutError("Payment gateway timed out", err)
		}
		return nil, utils.NewGatewayError("Failed to retrieve payment link", err)
	}

	url := link.URL
	if url == "" {
		url = payment.PaymentLinkURL
	}
	return &models.PaymentLinkResult{
		Payment:   payment.View(s.now()),
		LinkID:    link.ID,
		URL:       url,
		LinkState: string(link.Status),
		Reused:    true,
	}, nil
}

// CreateCharge bills a one-off charge (deposit, late fee, utility...) against an active lease.
// RENT only comes from the schedule so the one-month-ahead ceiling holds.
func (s *BillingService) CreateCharge(ctx context.Context, req *models.CreateChargeRequest, actor models.Actor) (*models.PaymentRecord, error) {
	if req.Type == models.PaymentRent {
		return nil, utils.NewValidationError(utils.ErrRentNotACharge)
	}
	lease, err := s.getLease(ctx, req.LeaseID)
	if err != nil {
		return nil, err
	}
	if lease.IsDeleted() || lease.StatusAt(s.now()) != models.LeaseActive {
		return nil, utils.NewConflictError(utils.ErrLeaseNotBillable)
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = fmt.Sprintf("%s charge for %s", req.Type, utils.FormatMonth(req.DueDate))
	}

	// req.TotalAmount is ignored; CreatePayment recomputes the total
	return s.payments.CreatePayment(ctx, &models.PaymentRecord{
		TenantID:      lease.TenantID,
		LeaseID:       lease.ID,
		PropertyID:    lease.PropertyID,
		SpotID:        lease.SpotID,
		Amount:        req.Amount,
		LateFeeAmount: req.LateFeeAmount,
		Currency:      s.currency,
		Type:          req.Type,
		DueDate:       req.DueDate,
		Description:   description,
	}, actor)
}
