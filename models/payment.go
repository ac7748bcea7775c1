package models

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentType classifies what a payment record bills for
type PaymentType string

const (
	PaymentRent        PaymentType = "RENT"
	PaymentDeposit     PaymentType = "DEPOSIT"
	PaymentLateFee     PaymentType = "LATE_FEE"
	PaymentUtility     PaymentType = "UTILITY"
	PaymentMaintenance PaymentType = "MAINTENANCE"
	PaymentOther       PaymentType = "OTHER"
)

// PaymentTypes lists every accepted payment type
var PaymentTypes = []PaymentType{
	PaymentRent, PaymentDeposit, PaymentLateFee, PaymentUtility, PaymentMaintenance, PaymentOther,
}

// PaymentStatus is the settlement state of a payment record
type PaymentStatus string

const (
	StatusPending   PaymentStatus = "PENDING"
	StatusPaid      PaymentStatus = "PAID"
	StatusOverdue   PaymentStatus = "OVERDUE"
	StatusCancelled PaymentStatus = "CANCELLED"
	StatusRefunded  PaymentStatus = "REFUNDED"
)

// OpenStatuses are the statuses a record can still be settled or cancelled from.
// OVERDUE is only ever a materialized copy of the derived overdue rule.
var OpenStatuses = []PaymentStatus{StatusPending, StatusOverdue}

var transitions = map[PaymentStatus][]PaymentStatus{
	StatusPending: {StatusPaid, StatusCancelled, StatusOverdue},
	StatusOverdue: {StatusPaid, StatusCancelled},
	StatusPaid:    {StatusRefunded},
}

// CanTransition reports whether a record may move from one status to another
func CanTransition(from, to PaymentStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsOpen reports whether the status still allows settlement
func (s PaymentStatus) IsOpen() bool {
	return s == StatusPending || s == StatusOverdue
}

// CountsAsBilled reports whether a record in this status occupies its billing month
func (s PaymentStatus) CountsAsBilled() bool {
	return s != StatusCancelled && s != StatusRefunded
}

// PaymentRecord is one billable obligation and its settlement state
type PaymentRecord struct {
	ID             string          `json:"id" db:"id" gorm:"primaryKey;size:36"`
	ReceiptNumber  string          `json:"receiptNumber" db:"receipt_number" gorm:"size:40;not null;uniqueIndex:idx_payments_receipt_number"`
	TenantID       string          `json:"tenantId" db:"tenant_id" gorm:"size:36;not null;index;uniqueIndex:idx_payments_rent_month,where:type = 'RENT' AND status <> 'CANCELLED' AND status <> 'REFUNDED' AND deleted_at IS NULL"`
	LeaseID        string          `json:"leaseId,omitempty" db:"lease_id" gorm:"size:36;not null;default:'';index"`
	PropertyID     string          `json:"propertyId" db:"property_id" gorm:"size:36;not null;index"`
	SpotID         string          `json:"spotId" db:"spot_id" gorm:"size:36;not null"`
	Amount         decimal.Decimal `json:"amount" db:"amount" gorm:"type:numeric(12,2);not null"`
	LateFeeAmount  decimal.Decimal `json:"lateFeeAmount" db:"late_fee_amount" gorm:"type:numeric(12,2);not null;default:0"`
	TotalAmount    decimal.Decimal `json:"totalAmount" db:"total_amount" gorm:"type:numeric(12,2);not null"`
	Currency       string          `json:"currency" db:"currency" gorm:"size:3;not null;default:'USD'"`
	Type           PaymentType     `json:"type" db:"type" gorm:"size:20;not null"`
	Status         PaymentStatus   `json:"status" db:"status" gorm:"size:20;not null;index"`
	DueDate        time.Time       `json:"dueDate" db:"due_date" gorm:"not null;index"`
	BillingMonth   time.Time       `json:"billingMonth" db:"billing_month" gorm:"type:date;not null;uniqueIndex:idx_payments_rent_month"`
	PaidDate       *time.Time      `json:"paidDate,omitempty" db:"paid_date"`
	PaymentMethod  string          `json:"paymentMethod,omitempty" db:"payment_method" gorm:"size:50;not null;default:''"`
	TransactionID  string          `json:"transactionId,omitempty" db:"transaction_id" gorm:"size:100;not null;default:''"`
	PaymentLinkID  string          `json:"paymentLinkId,omitempty" db:"payment_link_id" gorm:"size:100;not null;default:'';index"`
	PaymentLinkURL string          `json:"paymentLinkUrl,omitempty" db:"payment_link_url" gorm:"size:500;not null;default:''"`
	Description    string          `json:"description" db:"description" gorm:"size:500;not null;default:''"`
	CreatedBy      string          `json:"createdBy" db:"created_by" gorm:"size:80;not null"`
	UpdatedBy      string          `json:"updatedBy" db:"updated_by" gorm:"size:80;not null"`
	CreatedAt      time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time       `json:"updatedAt" db:"updated_at"`
	DeletedAt      *time.Time      `json:"-" db:"deleted_at" gorm:"index"`
}

func (PaymentRecord) TableName() string {
	return "payments"
}

// RecomputeTotal sets TotalAmount from Amount and LateFeeAmount.
// Every write path calls it; a caller-supplied total is never kept.
func (p *PaymentRecord) RecomputeTotal() {
	p.TotalAmount = p.Amount.Add(p.LateFeeAmount)
}

// IsOverdue is true iff the record is not PAID and now is past the due date
func (p *PaymentRecord) IsOverdue(now time.Time) bool {
	return p.Status != StatusPaid && now.After(p.DueDate)
}

// IsOutstandingOverdue is IsOverdue restricted to records that are still owed
func (p *PaymentRecord) IsOutstandingOverdue(now time.Time) bool {
	return p.Status.IsOpen() && p.IsOverdue(now)
}

// DaysOverdue counts started days past the due date, 0 when not overdue
func (p *PaymentRecord) DaysOverdue(now time.Time) int {
	if !p.IsOverdue(now) {
		return 0
	}
	return int(math.Ceil(now.Sub(p.DueDate).Hours() / 24))
}

// EffectiveStatus folds the derived overdue rule into the stored status
func (p *PaymentRecord) EffectiveStatus(now time.Time) PaymentStatus {
	if p.Status == StatusPending && p.IsOverdue(now) {
		return StatusOverdue
	}
	return p.Status
}

// PaymentView is the read model returned to clients, with derived fields evaluated at read time
type PaymentView struct {
	PaymentRecord
	IsOverdue   bool `json:"isOverdue"`
	DaysOverdue int  `json:"daysOverdue"`
}

// View evaluates derived fields against now
func (p PaymentRecord) View(now time.Time) PaymentView {
	return PaymentView{
		PaymentRecord: p,
		IsOverdue:     p.IsOverdue(now),
		DaysOverdue:   p.DaysOverdue(now),
	}
}

// PaymentFilter narrows payment listings. Zero values mean "any".
type PaymentFilter struct {
	TenantID   string
	PropertyID string
	LeaseID    string
	Type       PaymentType
	Statuses   []PaymentStatus
}

// StatusChange describes a conditional status transition.
// It applies only while the record's current status is one of From.
type StatusChange struct {
	From          []PaymentStatus
	To            PaymentStatus
	PaidDate      *time.Time
	PaymentMethod string
	TransactionID string
	TotalAmount   *decimal.Decimal
	UpdatedBy     string
	At            time.Time
}
