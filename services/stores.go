package services

import (
	"context"
	"time"

	"github.com/fadhlanhapp/rentlot-backend/gateway"
	"github.com/fadhlanhapp/rentlot-backend/models"
	"github.com/fadhlanhapp/rentlot-backend/repository"
)

// PaymentStore persists payment records. Every mutation is a single
// conditional write keyed by record id.
type PaymentStore interface {
	CreatePayment(ctx context.Context, p *models.PaymentRecord) error
	GetPayment(ctx context.Context, id string) (*models.PaymentRecord, error)
	ListPayments(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentRecord, error)
	AttachLink(ctx context.Context, id, linkID, url, updatedBy string) error
	TransitionStatus(ctx context.Context, id string, change models.StatusChange) (*models.PaymentRecord, bool, error)
	MarkOverdue(ctx context.Context, asOf time.Time, updatedBy string) (int64, error)
}

// LeaseStore is the lease directory the billing core reads from
type LeaseStore interface {
	// CreateLease inserts lease only if check accepts the spot's live leases.
	// Check and insert are atomic with respect to other creates on the spot.
	CreateLease(ctx context.Context, lease *models.Lease, check repository.SpotCheck) error
	GetLease(ctx context.Context, id string) (*models.Lease, error)
	DeleteLease(ctx context.Context, id string) error
}

// AnomalyStore keeps webhook events flagged for manual review
type AnomalyStore interface {
	RecordAnomaly(ctx context.Context, anomaly *models.WebhookAnomaly) error
	ListAnomalies(ctx context.Context, limit int, unreviewedOnly bool) ([]models.WebhookAnomaly, error)
}

// GatewayRouter resolves the payment gateway account for a property
type GatewayRouter interface {
	ForProperty(propertyID string) (gateway.Gateway, error)
}
