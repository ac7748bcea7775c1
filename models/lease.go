package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LeaseType is the contractual cadence of a lease
type LeaseType string

const (
	LeaseMonthly   LeaseType = "MONTHLY"
	LeaseFixedTerm LeaseType = "FIXED_TERM"
)

// LeaseStatus is derived from the lease dates unless the lease was cancelled
type LeaseStatus string

const (
	LeasePending   LeaseStatus = "PENDING"
	LeaseActive    LeaseStatus = "ACTIVE"
	LeaseExpired   LeaseStatus = "EXPIRED"
	LeaseCancelled LeaseStatus = "CANCELLED"
)

// Lease binds a tenant to a spot on a property with a rent cadence
type Lease struct {
	ID            string          `json:"id" gorm:"primaryKey;size:36"`
	TenantID      string          `json:"tenantId" gorm:"size:36;not null;index"`
	SpotID        string          `json:"spotId" gorm:"size:36;not null;index"`
	PropertyID    string          `json:"propertyId" gorm:"size:36;not null;index"`
	Type          LeaseType       `json:"leaseType" gorm:"size:20;not null"`
	StartDate     time.Time       `json:"startDate" gorm:"not null"`
	EndDate       *time.Time      `json:"endDate,omitempty"`
	RentAmount    decimal.Decimal `json:"rentAmount" gorm:"type:numeric(12,2);not null"`
	DepositAmount decimal.Decimal `json:"depositAmount" gorm:"type:numeric(12,2);not null;default:0"`
	OccupantCount int             `json:"occupantCount" gorm:"not null;default:1"`
	CancelledAt   *time.Time      `json:"cancelledAt,omitempty"`
	CreatedBy     string          `json:"createdBy" gorm:"size:64;not null"`
	UpdatedBy     string          `json:"updatedBy" gorm:"size:64;not null"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	DeletedAt     gorm.DeletedAt  `json:"-" gorm:"index"`

	// Status is filled at read time from StatusAt and never persisted.
	Status LeaseStatus `json:"status" gorm:"-"`
}

func (Lease) TableName() string {
	return "leases"
}

// DeriveLeaseStatus computes a lease status from its dates.
// The end date is inclusive: a lease ending on the 31st is active all that day.
func DeriveLeaseStatus(start time.Time, end *time.Time, cancelled bool, now time.Time) LeaseStatus {
	if cancelled {
		return LeaseCancelled
	}
	if now.Before(start) {
		return LeasePending
	}
	if end != nil && now.After(end.AddDate(0, 0, 1).Add(-time.Nanosecond)) {
		return LeaseExpired
	}
	return LeaseActive
}

// StatusAt returns the lease status at the given time
func (l *Lease) StatusAt(now time.Time) LeaseStatus {
	return DeriveLeaseStatus(l.StartDate, l.EndDate, l.CancelledAt != nil, now)
}

// IsDeleted reports whether the lease was soft-deleted
func (l *Lease) IsDeleted() bool {
	return l.DeletedAt.Valid
}

// Validate checks the lease terms before the lease is persisted
func (l *Lease) Validate() error {
	switch {
	case l.TenantID == "":
		return fmt.Errorf("tenantId is required")
	case l.SpotID == "":
		return fmt.Errorf("spotId is required")
	case l.PropertyID == "":
		return fmt.Errorf("propertyId is required")
	case l.StartDate.IsZero():
		return fmt.Errorf("startDate is required")
	case l.RentAmount.IsNegative():
		return fmt.Errorf("rentAmount cannot be negative")
	case l.DepositAmount.IsNegative():
		return fmt.Errorf("depositAmount cannot be negative")
	case l.OccupantCount < 1:
		return fmt.Errorf("occupantCount must be at least 1")
	}

	switch l.Type {
	case LeaseFixedTerm:
		if l.EndDate == nil {
			return fmt.Errorf("FIXED_TERM lease requires an endDate")
		}
		if l.EndDate.Before(l.StartDate) {
			return fmt.Errorf("endDate must not be before startDate")
		}
	case LeaseMonthly:
		if l.EndDate != nil {
			return fmt.Errorf("MONTHLY lease must not have an endDate")
		}
	default:
		return fmt.Errorf("leaseType must be MONTHLY or FIXED_TERM")
	}
	return nil
}

// CoversMonth reports whether the lease is still running on the first day of month
func (l *Lease) CoversMonth(month time.Time) bool {
	return l.EndDate == nil || !l.EndDate.Before(month)
}

// Overlaps reports whether two leases share at least one day
func (l *Lease) Overlaps(other *Lease) bool {
	if l.EndDate != nil && other.StartDate.After(*l.EndDate) {
		return false
	}
	if other.EndDate != nil && l.StartDate.After(*other.EndDate) {
		return false
	}
	return true
}
