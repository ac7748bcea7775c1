package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fadhlanhapp/rentlot-backend/models"
)

// GormPaymentRepository persists payments through gorm. It backs the sqlite
// mode; Postgres deployments use PaymentRepository. Writes are serialized by
// a process-local mutex because sqlite allows one writer at a time.
type GormPaymentRepository struct {
	db *gorm.DB
	mu sync.Mutex
}

// NewGormPaymentRepository creates a payment repository on a migrated gorm session
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

func (r *GormPaymentRepository) live(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.PaymentRecord{}).Where("deleted_at IS NULL")
}

// translateSQLiteError maps sqlite unique-constraint failures to repository sentinels.
// sqlite names the violated columns, not the index.
func translateSQLiteError(err error) error {
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return err
	}
	switch {
	case strings.Contains(msg, "payments.receipt_number"):
		return ErrDuplicateReceipt
	case strings.Contains(msg, "payments.billing_month"):
		return ErrDuplicateRentMonth
	}
	return err
}

// CreatePayment inserts a new payment record with its total recomputed
func (r *GormPaymentRepository) CreatePayment(ctx context.Context, p *models.PaymentRecord) error {
	p.RecomputeTotal()

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to insert payment %s: %w", p.ID, translateSQLiteError(err))
	}
	return nil
}

// GetPayment retrieves a non-deleted payment by its ID
func (r *GormPaymentRepository) GetPayment(ctx context.Context, id string) (*models.PaymentRecord, error) {
	var p models.PaymentRecord
	if err := r.live(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get payment %s: %w", id, err)
	}
	return &p, nil
}

// ListPayments retrieves non-deleted payments matching the filter, ordered by due date
func (r *GormPaymentRepository) ListPayments(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentRecord, error) {
	q := r.live(ctx)
	if filter.TenantID != "" {
		q = q.Where("tenant_id = ?", filter.TenantID)
	}
	if filter.PropertyID != "" {
		q = q.Where("property_id = ?", filter.PropertyID)
	}
	if filter.LeaseID != "" {
		q = q.Where("lease_id = ?", filter.LeaseID)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", filter.Statuses)
	}

	var payments []models.PaymentRecord
	if err := q.Order("due_date ASC, created_at ASC").Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

// AttachLink stores the gateway link on a record that is still open
func (r *GormPaymentRepository) AttachLink(ctx context.Context, id, linkID, url, updatedBy string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := r.live(ctx).
		Where("id = ? AND status IN ?", id, models.OpenStatuses).
		Updates(map[string]interface{}{
			"payment_link_id":  linkID,
			"payment_link_url": url,
			"updated_by":       updatedBy,
			"updated_at":       time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to attach link to payment %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

// TransitionStatus applies change as a conditional update keyed by id and
// the allowed source statuses. applied=false means the record is missing or
// no longer in one of change.From.
func (r *GormPaymentRepository) TransitionStatus(ctx context.Context, id string, change models.StatusChange) (*models.PaymentRecord, bool, error) {
	at := change.At
	if at.IsZero() {
		at = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var out *models.PaymentRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.PaymentRecord
		err := tx.Where("id = ? AND status IN ? AND deleted_at IS NULL", id, change.From).First(&current).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if !models.CanTransition(current.Status, change.To) {
			return nil
		}

		updates := map[string]interface{}{
			"status":     change.To,
			"updated_by": change.UpdatedBy,
			"updated_at": at,
		}
		if change.PaidDate != nil {
			updates["paid_date"] = *change.PaidDate
		}
		if change.PaymentMethod != "" {
			updates["payment_method"] = change.PaymentMethod
		}
		if change.TransactionID != "" {
			updates["transaction_id"] = change.TransactionID
		}
		if change.TotalAmount != nil {
			total := *change.TotalAmount
			if total.GreaterThanOrEqual(current.LateFeeAmount) {
				updates["amount"] = total.Sub(current.LateFeeAmount)
			} else {
				updates["amount"] = total
				updates["late_fee_amount"] = decimal.Zero
			}
			updates["total_amount"] = total
		}

		res := tx.Model(&models.PaymentRecord{}).
			Where("id = ? AND status = ?", id, current.Status).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		var updated models.PaymentRecord
		if err := tx.Where("id = ?", id).First(&updated).Error; err != nil {
			return err
		}
		out = &updated
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to transition payment %s to %s: %w", id, change.To, err)
	}
	return out, out != nil, nil
}

// MarkOverdue flips PENDING records due before asOf to OVERDUE
func (r *GormPaymentRepository) MarkOverdue(ctx context.Context, asOf time.Time, updatedBy string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := r.live(ctx).
		Where("status = ? AND due_date < ?", models.StatusPending, asOf.UTC()).
		Updates(map[string]interface{}{
			"status":     models.StatusOverdue,
			"updated_by": updatedBy,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to mark overdue payments: %w", res.Error)
	}
	return res.RowsAffected, nil
}
