package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/fadhlanhapp/rentlot-backend/models"
	"github.com/fadhlanhapp/rentlot-backend/utils"
)

// ErrLeaseNotBillable is returned when a new obligation would be created on a
// lease that is not ACTIVE. Existing open records are still reported.
var ErrLeaseNotBillable = errors.New("lease is not active and cannot be billed")

// RentScheduleCalculator decides what a tenant owes on a lease. It has no
// dependencies and never touches storage.
type RentScheduleCalculator struct{}

// NewRentScheduleCalculator creates a new calculator
func NewRentScheduleCalculator() *RentScheduleCalculator {
	return &RentScheduleCalculator{}
}

// ProRateFirstMonth returns the rent for the month the lease starts in.
// A lease starting on day d of a D-day month pays round(rent*(D-d+1)/D),
// rounded half-up to whole currency units. Day 1 pays full rent.
func ProRateFirstMonth(rent decimal.Decimal, start time.Time) (decimal.Decimal, bool) {
	day := start.Day()
	if day == 1 {
		return rent, false
	}
	days := utils.DaysInMonth(start)
	remaining := decimal.NewFromInt(int64(days - day + 1))
	return utils.RoundWhole(rent.Mul(remaining).Div(decimal.NewFromInt(int64(days)))), true
}

// OverdueTotal sums the totals of RENT records overdue at now, skipping excludeID
func OverdueTotal(history []models.PaymentRecord, now time.Time, excludeID string) (decimal.Decimal, int) {
	overdue := lo.Filter(history, func(p models.PaymentRecord, _ int) bool {
		return p.ID != excludeID && p.Type == models.PaymentRent && isOverdueAt(&p, now)
	})
	amounts := lo.Map(overdue, func(p models.PaymentRecord, _ int) decimal.Decimal {
		return p.TotalAmount
	})
	return utils.SumAmounts(amounts...), len(overdue)
}

// isOverdueAt treats a materialized OVERDUE status the same as the derived rule
func isOverdueAt(p *models.PaymentRecord, now time.Time) bool {
	return p.Status == models.StatusOverdue || p.IsOutstandingOverdue(now)
}

// Calculate evaluates the lease against its payment history at now.
func (c *RentScheduleCalculator) Calculate(lease *models.Lease, history []models.PaymentRecord, now time.Time) (*models.RentStatement, error) {
	rents := lo.Filter(history, func(p models.PaymentRecord, _ int) bool {
		return p.Type == models.PaymentRent && p.Status.CountsAsBilled() && p.DeletedAt == nil
	})
	billable := !lease.IsDeleted() && lease.StatusAt(now) == models.LeaseActive

	currentMonth := utils.FirstOfMonth(now)
	nextMonth := utils.AddMonths(currentMonth, 1)
	stmt := &models.RentStatement{
		LeaseID:      lease.ID,
		TenantID:     lease.TenantID,
		CurrentMonth: currentMonth,
		NextMonth:    nextMonth,
	}

	if len(rents) == 0 {
		if !billable {
			return nil, fmt.Errorf("lease %s is %s: %w", lease.ID, lease.StatusAt(now), ErrLeaseNotBillable)
		}
		c.firstPayment(stmt, lease)
		stmt.TotalDue = stmt.Amount
		return stmt, nil
	}

	var current, next *models.PaymentRecord
	for i := range rents {
		due := rents[i].DueDate.In(now.Location())
		switch {
		case current == nil && utils.SameMonth(due, currentMonth):
			current = &rents[i]
		case next == nil && utils.SameMonth(due, nextMonth):
			next = &rents[i]
		}
	}

	switch {
	case current == nil:
		if !billable {
			return nil, fmt.Errorf("lease %s is %s: %w", lease.ID, lease.StatusAt(now), ErrLeaseNotBillable)
		}
		if !lease.CoversMonth(currentMonth) {
			return nil, fmt.Errorf("lease %s ends before %s: %w", lease.ID, utils.FormatMonth(currentMonth), ErrLeaseNotBillable)
		}
		stmt.Action = models.ActionCurrentMonthDue
		c.fullRent(stmt, lease, currentMonth)

	case current.Status.IsOpen():
		stmt.Amount = current.TotalAmount
		stmt.DueDate = timePtr(current.DueDate)
		stmt.Description = current.Description
		stmt.ExistingPaymentID = current.ID
		stmt.Action = models.ActionCurrentMonthPending
		if isOverdueAt(current, now) {
			stmt.Action = models.ActionCurrentMonthOverdue
			stmt.DaysOverdue = current.DaysOverdue(now)
		}

	case next == nil:
		if !billable {
			return nil, fmt.Errorf("lease %s is %s: %w", lease.ID, lease.StatusAt(now), ErrLeaseNotBillable)
		}
		if !lease.CoversMonth(nextMonth) {
			return nil, fmt.Errorf("lease %s ends before %s: %w", lease.ID, utils.FormatMonth(nextMonth), ErrLeaseNotBillable)
		}
		stmt.Action = models.ActionCanPayNextMonth
		c.fullRent(stmt, lease, nextMonth)

	default:
		stmt.Action = models.ActionPaymentLimitReached
		stmt.Amount = decimal.Zero
		stmt.CoveredMonths = []string{utils.FormatMonth(currentMonth), utils.FormatMonth(nextMonth)}
		stmt.Warning = fmt.Sprintf(
			"Rent is already covered for %s and %s. Payments can be made at most one month ahead.",
			stmt.CoveredMonths[0], stmt.CoveredMonths[1])
		if next.Status.IsOpen() {
			stmt.ExistingPaymentID = next.ID
			stmt.DueDate = timePtr(next.DueDate)
		}
	}

	stmt.OverdueAmount, stmt.OverdueCount = OverdueTotal(rents, now, stmt.ExistingPaymentID)
	stmt.TotalDue = stmt.Amount.Add(stmt.OverdueAmount)
	return stmt, nil
}

func (c *RentScheduleCalculator) firstPayment(stmt *models.RentStatement, lease *models.Lease) {
	rent, prorated := ProRateFirstMonth(lease.RentAmount, lease.StartDate)

	stmt.Action = models.ActionFirstPayment
	stmt.IsFirstPayment = true
	stmt.DepositAmount = lease.DepositAmount
	stmt.Amount = rent.Add(lease.DepositAmount)
	stmt.DueDate = timePtr(lease.StartDate)

	month := utils.FormatMonth(lease.StartDate)
	if prorated {
		stmt.ProRatedRent = &rent
		days := utils.DaysInMonth(lease.StartDate)
		stmt.Description = fmt.Sprintf("First payment: rent for %s pro-rated %d/%d days, plus deposit",
			month, days-lease.StartDate.Day()+1, days)
		return
	}
	stmt.Description = fmt.Sprintf("First payment: rent for %s plus deposit", month)
}

func (c *RentScheduleCalculator) fullRent(stmt *models.RentStatement, lease *models.Lease, month time.Time) {
	stmt.Amount = lease.RentAmount
	stmt.DueDate = timePtr(month)
	stmt.Description = "Rent for " + utils.FormatMonth(month)
}

func timePtr(t time.Time) *time.Time {
	return &t
}
