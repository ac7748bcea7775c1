package models

import "github.com/shopspring/decimal"

// PaymentSummary aggregates a tenant's or property's payment history
type PaymentSummary struct {
	TenantID           string          `json:"tenantId,omitempty"`
	PropertyID         string          `json:"propertyId,omitempty"`
	TotalPaid          decimal.Decimal `json:"totalPaid"`
	TotalDue           decimal.Decimal `json:"totalDue"`
	TotalOverdueAmount decimal.Decimal `json:"totalOverdueAmount"`
	PaidCount          int             `json:"paidCount"`
	PendingCount       int             `json:"pendingCount"`
	OverdueCount       int             `json:"overdueCount"`
	CancelledCount     int             `json:"cancelledCount"`
	RefundedCount      int             `json:"refundedCount"`
	TotalCount         int             `json:"totalCount"`
	SuccessRate        float64         `json:"successRate"`
	RecentPayments     []PaymentView   `json:"recentPayments"`
}
