package repository

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fadhlanhapp/rentlot-backend/models"
)

// MemoryPaymentRepository keeps payments in process memory. It enforces the
// same uniqueness and conditional-update rules as the Postgres repository and
// backs the memory mode and service tests.
type MemoryPaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*models.PaymentRecord
}

// NewMemoryPaymentRepository creates an empty in-memory payment repository
func NewMemoryPaymentRepository() *MemoryPaymentRepository {
	return &MemoryPaymentRepository{payments: make(map[string]*models.PaymentRecord)}
}

func rentMonthTaken(p, other *models.PaymentRecord) bool {
	return other.Type == models.PaymentRent && p.Type == models.PaymentRent &&
		other.TenantID == p.TenantID &&
		other.BillingMonth.Year() == p.BillingMonth.Year() &&
		other.BillingMonth.Month() == p.BillingMonth.Month() &&
		other.Status.CountsAsBilled() && other.DeletedAt == nil
}

// CreatePayment stores a copy of p
func (r *MemoryPaymentRepository) CreatePayment(ctx context.Context, p *models.PaymentRecord) error {
	p.RecomputeTotal()

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, other := range r.payments {
		if other.ReceiptNumber == p.ReceiptNumber {
			return ErrDuplicateReceipt
		}
		if p.Status.CountsAsBilled() && rentMonthTaken(p, other) {
			return ErrDuplicateRentMonth
		}
	}
	stored := *p
	r.payments[p.ID] = &stored
	return nil
}

// GetPayment returns a copy of the payment with the given ID
func (r *MemoryPaymentRepository) GetPayment(ctx context.Context, id string) (*models.PaymentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.payments[id]
	if !ok || p.DeletedAt != nil {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// ListPayments returns copies of payments matching the filter, ordered by due date
func (r *MemoryPaymentRepository) ListPayments(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.PaymentRecord
	for _, p := range r.payments {
		if p.DeletedAt != nil {
			continue
		}
		if filter.TenantID != "" && p.TenantID != filter.TenantID {
			continue
		}
		if filter.PropertyID != "" && p.PropertyID != filter.PropertyID {
			continue
		}
		if filter.LeaseID != "" && p.LeaseID != filter.LeaseID {
			continue
		}
		if filter.Type != "" && p.Type != filter.Type {
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, p.Status) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].DueDate.Before(out[j].DueDate)
	})
	return out, nil
}

// AttachLink stores the gateway link on a record that is still open
func (r *MemoryPaymentRepository) AttachLink(ctx context.Context, id, linkID, url, updatedBy string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.payments[id]
	if !ok || p.DeletedAt != nil || !p.Status.IsOpen() {
		return ErrStatusConflict
	}
	p.PaymentLinkID = linkID
	p.PaymentLinkURL = url
	p.UpdatedBy = updatedBy
	p.UpdatedAt = time.Now()
	return nil
}

// TransitionStatus applies change atomically under the repository lock
func (r *MemoryPaymentRepository) TransitionStatus(ctx context.Context, id string, change models.StatusChange) (*models.PaymentRecord, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.payments[id]
	if !ok || p.DeletedAt != nil || !slices.Contains(change.From, p.Status) || !models.CanTransition(p.Status, change.To) {
		return nil, false, nil
	}

	p.Status = change.To
	if change.PaidDate != nil {
		paid := *change.PaidDate
		p.PaidDate = &paid
	}
	if change.PaymentMethod != "" {
		p.PaymentMethod = change.PaymentMethod
	}
	if change.TransactionID != "" {
		p.TransactionID = change.TransactionID
	}
	if change.TotalAmount != nil {
		total := *change.TotalAmount
		if total.GreaterThanOrEqual(p.LateFeeAmount) {
			p.Amount = total.Sub(p.LateFeeAmount)
		} else {
			p.Amount = total
			p.LateFeeAmount = decimal.Zero
		}
		p.TotalAmount = total
	}
	p.UpdatedBy = change.UpdatedBy
	p.UpdatedAt = change.At
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}

	cp := *p
	return &cp, true, nil
}

// MarkOverdue flips PENDING records due before asOf to OVERDUE
func (r *MemoryPaymentRepository) MarkOverdue(ctx context.Context, asOf time.Time, updatedBy string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, p := range r.payments {
		if p.DeletedAt == nil && p.Status == models.StatusPending && p.DueDate.Before(asOf) {
			p.Status = models.StatusOverdue
			p.UpdatedBy = updatedBy
			p.UpdatedAt = time.Now()
			n++
		}
	}
	return n, nil
}
