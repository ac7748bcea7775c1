package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateLeaseRequest request model
type CreateLeaseRequest struct {
	TenantID      string          `json:"tenantId" binding:"required"`
	SpotID        string          `json:"spotId" binding:"required"`
	PropertyID    string          `json:"propertyId" binding:"required"`
	LeaseType     LeaseType       `json:"leaseType" binding:"required"`
	StartDate     time.Time       `json:"startDate" binding:"required"`
	EndDate       *time.Time      `json:"endDate"`
	RentAmount    decimal.Decimal `json:"rentAmount"`
	DepositAmount decimal.Decimal `json:"depositAmount"`
	OccupantCount int             `json:"occupantCount"`
}

// CreateChargeRequest request model for non-rent charges created by an administrator
type CreateChargeRequest struct {
	LeaseID       string          `json:"leaseId" binding:"required"`
	Type          PaymentType     `json:"type" binding:"required"`
	Amount        decimal.Decimal `json:"amount"`
	LateFeeAmount decimal.Decimal `json:"lateFeeAmount"`
	// TotalAmount is accepted for compatibility and ignored; the total is always recomputed.
	TotalAmount *decimal.Decimal `json:"totalAmount,omitempty"`
	DueDate     time.Time        `json:"dueDate" binding:"required"`
	Description string           `json:"description"`
}

// SummaryQuery query parameters for summary endpoints
type SummaryQuery struct {
	Recent int `form:"recent"`
}
