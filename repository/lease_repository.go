package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/fadhlanhapp/rentlot-backend/models"
)

// LeaseRepository handles lease data operations through gorm
type LeaseRepository struct {
	db *gorm.DB
	mu sync.Mutex
}

// NewLeaseRepository creates a new lease repository
func NewLeaseRepository(db *gorm.DB) *LeaseRepository {
	return &LeaseRepository{db: db}
}

// SpotCheck inspects the live leases on a spot before a new one is inserted.
// A non-nil error aborts the insert and is returned unchanged.
type SpotCheck func(existing []models.Lease) error

// CreateLease runs check against the spot's live leases and inserts lease in
// the same transaction. Concurrent creates for one spot are serialized: on
// Postgres by a transaction-scoped advisory lock keyed by the spot, elsewhere
// by a process-local mutex.
func (r *LeaseRepository) CreateLease(ctx context.Context, lease *models.Lease, check SpotCheck) error {
	postgres := r.db.Dialector.Name() == "postgres"
	if !postgres {
		r.mu.Lock()
		defer r.mu.Unlock()
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if postgres {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "lease-spot:"+lease.SpotID).Error; err != nil {
				return fmt.Errorf("failed to lock spot %s: %w", lease.SpotID, err)
			}
		}
		existing, err := listLeasesForSpot(tx, lease.SpotID)
		if err != nil {
			return err
		}
		if check != nil {
			if err := check(existing); err != nil {
				return err
			}
		}
		if err := tx.Create(lease).Error; err != nil {
			return fmt.Errorf("failed to insert lease %s: %w", lease.ID, err)
		}
		return nil
	})
}

// GetLease retrieves a lease by ID. Soft-deleted leases are returned too so
// billing can refuse them explicitly instead of reporting them missing.
func (r *LeaseRepository) GetLease(ctx context.Context, id string) (*models.Lease, error) {
	var lease models.Lease
	err := r.db.WithContext(ctx).Unscoped().Where("id = ?", id).First(&lease).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get lease %s: %w", id, err)
	}
	return &lease, nil
}

// listLeasesForSpot retrieves the live leases on a spot, oldest first
func listLeasesForSpot(db *gorm.DB, spotID string) ([]models.Lease, error) {
	var leases []models.Lease
	err := db.Where("spot_id = ? AND cancelled_at IS NULL", spotID).
		Order("start_date ASC").
		Find(&leases).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list leases for spot %s: %w", spotID, err)
	}
	return leases, nil
}

// DeleteLease soft-deletes a lease
func (r *LeaseRepository) DeleteLease(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Lease{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete lease %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
