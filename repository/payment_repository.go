package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/fadhlanhapp/rentlot-backend/models"
)

// ErrStatusConflict is returned when a conditional write found the record in a status it may not leave
var ErrStatusConflict = errors.New("payment status does not allow this change")

const paymentColumns = `id, receipt_number, tenant_id, lease_id, property_id, spot_id,
	amount, late_fee_amount, total_amount, currency, type, status, due_date, billing_month,
	paid_date, payment_method, transaction_id, payment_link_id, payment_link_url,
	description, created_by, updated_by, created_at, updated_at, deleted_at`

// PaymentRepository handles payment data operations on Postgres
type PaymentRepository struct {
	db *sql.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (*models.PaymentRecord, error) {
	var p models.PaymentRecord
	err := row.Scan(
		&p.ID, &p.ReceiptNumber, &p.TenantID, &p.LeaseID, &p.PropertyID, &p.SpotID,
		&p.Amount, &p.LateFeeAmount, &p.TotalAmount, &p.Currency, &p.Type, &p.Status,
		&p.DueDate, &p.BillingMonth, &p.PaidDate, &p.PaymentMethod, &p.TransactionID,
		&p.PaymentLinkID, &p.PaymentLinkURL, &p.Description, &p.CreatedBy, &p.UpdatedBy,
		&p.CreatedAt, &p.UpdatedAt, &p.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePayment inserts a new payment record. The total is recomputed here
// so no caller can persist a total that disagrees with amount + late fee.
func (r *PaymentRepository) CreatePayment(ctx context.Context, p *models.PaymentRecord) error {
	p.RecomputeTotal()
	query := `
		INSERT INTO payments (id, receipt_number, tenant_id, lease_id, property_id, spot_id,
			amount, late_fee_amount, total_amount, currency, type, status, due_date, billing_month,
			payment_method, transaction_id, payment_link_id, payment_link_url, description,
			created_by, updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23)
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.ReceiptNumber, p.TenantID, p.LeaseID, p.PropertyID, p.SpotID,
		p.Amount, p.LateFeeAmount, p.TotalAmount, p.Currency, p.Type, p.Status, p.DueDate, p.BillingMonth,
		p.PaymentMethod, p.TransactionID, p.PaymentLinkID, p.PaymentLinkURL, p.Description,
		p.CreatedBy, p.UpdatedBy, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment %s: %w", p.ID, translatePQError(err))
	}
	return nil
}

// GetPayment retrieves a non-deleted payment by its ID
func (r *PaymentRepository) GetPayment(ctx context.Context, id string) (*models.PaymentRecord, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1 AND deleted_at IS NULL`
	p, err := scanPayment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get payment %s: %w", id, err)
	}
	return p, nil
}

// ListPayments retrieves non-deleted payments matching the filter, ordered by due date
func (r *PaymentRepository) ListPayments(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentRecord, error) {
	conditions := []string{"deleted_at IS NULL"}
	var args []interface{}
	add := func(clause string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	if filter.TenantID != "" {
		add("tenant_id = $%d", filter.TenantID)
	}
	if filter.PropertyID != "" {
		add("property_id = $%d", filter.PropertyID)
	}
	if filter.LeaseID != "" {
		add("lease_id = $%d", filter.LeaseID)
	}
	if filter.Type != "" {
		add("type = $%d", filter.Type)
	}
	if len(filter.Statuses) > 0 {
		add("status = ANY($%d)", pq.Array(statusStrings(filter.Statuses)))
	}

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE ` +
		strings.Join(conditions, " AND ") + ` ORDER BY due_date ASC, created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []models.PaymentRecord
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

// AttachLink stores the gateway link on a record that is still open
func (r *PaymentRepository) AttachLink(ctx context.Context, id, linkID, url, updatedBy string) error {
	query := `
		UPDATE payments
		SET payment_link_id = $2, payment_link_url = $3, updated_by = $4, updated_at = NOW()
		WHERE id = $1 AND status = ANY($5) AND deleted_at IS NULL
	`
	res, err := r.db.ExecContext(ctx, query, id, linkID, url, updatedBy, pq.Array(statusStrings(models.OpenStatuses)))
	if err != nil {
		return fmt.Errorf("failed to attach link to payment %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to attach link to payment %s: %w", id, err)
	}
	if n == 0 {
		return ErrStatusConflict
	}
	return nil
}

// TransitionStatus applies change as one conditional UPDATE keyed by id.
// It reports applied=false, without error, when the record is missing or its
// status is not in change.From; the caller decides what that means.
func (r *PaymentRepository) TransitionStatus(ctx context.Context, id string, change models.StatusChange) (*models.PaymentRecord, bool, error) {
	var total interface{}
	if change.TotalAmount != nil {
		total = *change.TotalAmount
	}
	at := change.At
	if at.IsZero() {
		at = time.Now()
	}

	query := `
		UPDATE payments SET
			status = $2,
			paid_date = COALESCE($3, paid_date),
			payment_method = CASE WHEN $4 = '' THEN payment_method ELSE $4 END,
			transaction_id = CASE WHEN $5 = '' THEN transaction_id ELSE $5 END,
			amount = CASE
				WHEN $6::numeric IS NULL THEN amount
				WHEN $6::numeric >= late_fee_amount THEN $6::numeric - late_fee_amount
				ELSE $6::numeric END,
			late_fee_amount = CASE
				WHEN $6::numeric IS NULL OR $6::numeric >= late_fee_amount THEN late_fee_amount
				ELSE 0 END,
			total_amount = COALESCE($6::numeric, total_amount),
			updated_by = $7,
			updated_at = $8
		WHERE id = $1 AND status = ANY($9) AND deleted_at IS NULL
		RETURNING ` + paymentColumns

	p, err := scanPayment(r.db.QueryRowContext(ctx, query,
		id, change.To, change.PaidDate, change.PaymentMethod, change.TransactionID,
		total, change.UpdatedBy, at, pq.Array(statusStrings(change.From)),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to transition payment %s to %s: %w", id, change.To, err)
	}
	return p, true, nil
}

// MarkOverdue materializes the derived overdue rule for PENDING records due before asOf
func (r *PaymentRepository) MarkOverdue(ctx context.Context, asOf time.Time, updatedBy string) (int64, error) {
	query := `
		UPDATE payments SET status = $1, updated_by = $2, updated_at = NOW()
		WHERE status = $3 AND due_date < $4 AND deleted_at IS NULL
	`
	res, err := r.db.ExecContext(ctx, query, models.StatusOverdue, updatedBy, models.StatusPending, asOf)
	if err != nil {
		return 0, fmt.Errorf("failed to mark overdue payments: %w", err)
	}
	return res.RowsAffected()
}

func statusStrings(statuses []models.PaymentStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
