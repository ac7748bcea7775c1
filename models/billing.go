package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillingAction is the outcome of evaluating a lease's rent schedule
type BillingAction string

const (
	ActionFirstPayment        BillingAction = "FIRST_PAYMENT"
	ActionCurrentMonthDue     BillingAction = "CURRENT_MONTH_DUE"
	ActionCurrentMonthPending BillingAction = "CURRENT_MONTH_PENDING"
	ActionCurrentMonthOverdue BillingAction = "CURRENT_MONTH_OVERDUE"
	ActionCanPayNextMonth     BillingAction = "CAN_PAY_NEXT_MONTH"
	ActionPaymentLimitReached BillingAction = "PAYMENT_LIMIT_REACHED"
)

// CreatesObligation reports whether the action bills a month that has no record yet
func (a BillingAction) CreatesObligation() bool {
	switch a {
	case ActionFirstPayment, ActionCurrentMonthDue, ActionCanPayNextMonth:
		return true
	}
	return false
}

// RentStatement is what a tenant owes on a lease right now
type RentStatement struct {
	LeaseID           string           `json:"leaseId"`
	TenantID          string           `json:"tenantId"`
	Action            BillingAction    `json:"action"`
	Amount            decimal.Decimal  `json:"amount"`
	DueDate           *time.Time       `json:"dueDate,omitempty"`
	Description       string           `json:"description,omitempty"`
	ExistingPaymentID string           `json:"existingPaymentId,omitempty"`
	DaysOverdue       int              `json:"daysOverdue,omitempty"`
	IsFirstPayment    bool             `json:"isFirstPayment"`
	ProRatedRent      *decimal.Decimal `json:"proRatedRent,omitempty"`
	DepositAmount     decimal.Decimal  `json:"depositAmount"`
	OverdueAmount     decimal.Decimal  `json:"overdueAmount"`
	OverdueCount      int              `json:"overdueCount"`
	TotalDue          decimal.Decimal  `json:"totalDue"`
	CurrentMonth      time.Time        `json:"currentMonth"`
	NextMonth         time.Time        `json:"nextMonth"`
	CoveredMonths     []string         `json:"coveredMonths,omitempty"`
	Warning           string           `json:"warning,omitempty"`
}

// PaymentLinkResult is returned to a caller that asked to pay
type PaymentLinkResult struct {
	Payment   PaymentView    `json:"payment"`
	Statement *RentStatement `json:"statement,omitempty"`
	LinkID    string         `json:"linkId"`
	URL       string         `json:"url"`
	LinkState string         `json:"linkStatus,omitempty"`
	Reused    bool           `json:"reused"`
}

// LeasePaymentStatus aggregates a tenant's RENT records on a lease
type LeasePaymentStatus string

const (
	LeasePaymentPending LeasePaymentStatus = "PENDING"
	LeasePaymentOverdue LeasePaymentStatus = "OVERDUE"
	LeasePaymentPartial LeasePaymentStatus = "PARTIAL"
	LeasePaymentPaid    LeasePaymentStatus = "PAID"
)

// LeaseView is a lease with its derived status and payment aggregate
type LeaseView struct {
	Lease
	PaymentStatus LeasePaymentStatus `json:"paymentStatus"`
}
