package services

import (
	"context"
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/fadhlanhapp/rentlot-backend/models"
	"github.com/fadhlanhapp/rentlot-backend/utils"
)

const maxRecentPayments = 50

// AuditService produces read-only payment summaries
type AuditService struct {
	store       PaymentStore
	recentLimit int
	now         func() time.Time
}

// NewAuditService creates a new audit service. recentLimit is the default
// length of the recent-payments list.
func NewAuditService(store PaymentStore, recentLimit int) *AuditService {
	if recentLimit <= 0 {
		recentLimit = 5
	}
	return &AuditService{
		store:       store,
		recentLimit: recentLimit,
		now:         time.Now,
	}
}

// TenantSummary summarizes every payment of a tenant
func (s *AuditService) TenantSummary(ctx context.Context, tenantID string, recent int) (*models.PaymentSummary, error) {
	return s.summary(ctx, models.PaymentFilter{TenantID: tenantID}, recent)
}

// PropertySummary summarizes every payment collected for a property
func (s *AuditService) PropertySummary(ctx context.Context, propertyID string, recent int) (*models.PaymentSummary, error) {
	return s.summary(ctx, models.PaymentFilter{PropertyID: propertyID}, recent)
}

func (s *AuditService) summary(ctx context.Context, filter models.PaymentFilter, recent int) (*models.PaymentSummary, error) {
	records, err := s.store.ListPayments(ctx, filter)
	if err != nil {
		return nil, utils.NewInternalError(utils.ErrFailedToRetrieve, err)
	}
	if recent <= 0 {
		recent = s.recentLimit
	}
	summary := SummarizePayments(records, s.now(), recent)
	summary.TenantID = filter.TenantID
	summary.PropertyID = filter.PropertyID
	return &summary, nil
}

// SummarizePayments aggregates records at now. An empty history yields a zeroed summary.
func SummarizePayments(records []models.PaymentRecord, now time.Time, recent int) models.PaymentSummary {
	if recent > maxRecentPayments {
		recent = maxRecentPayments
	}

	paid := lo.Filter(records, func(p models.PaymentRecord, _ int) bool { return p.Status == models.StatusPaid })
	open := lo.Filter(records, func(p models.PaymentRecord, _ int) bool { return p.Status.IsOpen() })
	overdue, pending := lo.FilterReject(open, func(p models.PaymentRecord, _ int) bool { return isOverdueAt(&p, now) })
	counts := lo.CountValuesBy(records, func(p models.PaymentRecord) models.PaymentStatus { return p.Status })

	summary := models.PaymentSummary{
		TotalPaid:          sumTotals(paid),
		TotalDue:           sumTotals(open),
		TotalOverdueAmount: sumTotals(overdue),
		PaidCount:          len(paid),
		PendingCount:       len(pending),
		OverdueCount:       len(overdue),
		CancelledCount:     counts[models.StatusCancelled],
		RefundedCount:      counts[models.StatusRefunded],
		TotalCount:         len(records),
		RecentPayments:     []models.PaymentView{},
	}
	if summary.TotalCount > 0 {
		summary.SuccessRate = float64(summary.PaidCount) / float64(summary.TotalCount)
	}

	sort.SliceStable(paid, func(i, j int) bool { return paidAt(paid[i]).After(paidAt(paid[j])) })
	for _, p := range lo.Slice(paid, 0, recent) {
		summary.RecentPayments = append(summary.RecentPayments, p.View(now))
	}
	return summary
}

func sumTotals(records []models.PaymentRecord) decimal.Decimal {
	return utils.SumAmounts(lo.Map(records, func(p models.PaymentRecord, _ int) decimal.Decimal {
		return p.TotalAmount
	})...)
}

func paidAt(p models.PaymentRecord) time.Time {
	if p.PaidDate != nil {
		return *p.PaidDate
	}
	return p.UpdatedAt
}

// LeasePaymentStatus aggregates RENT records into one status for a lease:
// any overdue record wins, then all-paid, then a paid/pending mix is PARTIAL.
// Everything else, including no records, is PENDING.
func LeasePaymentStatus(records []models.PaymentRecord, now time.Time) models.LeasePaymentStatus {
	rents := lo.Filter(records, func(p models.PaymentRecord, _ int) bool {
		return p.Type == models.PaymentRent && p.Status.CountsAsBilled()
	})
	if len(rents) == 0 {
		return models.LeasePaymentPending
	}
	if lo.SomeBy(rents, func(p models.PaymentRecord) bool { return isOverdueAt(&p, now) }) {
		return models.LeasePaymentOverdue
	}
	paid := lo.CountBy(rents, func(p models.PaymentRecord) bool { return p.Status == models.StatusPaid })
	switch {
	case paid == len(rents):
		return models.LeasePaymentPaid
	case paid > 0:
		return models.LeasePaymentPartial
	}
	return models.LeasePaymentPending
}
