package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fadhlanhapp/rentlot-backend/models"
	"github.com/fadhlanhapp/rentlot-backend/repository"
	"github.com/fadhlanhapp/rentlot-backend/utils"
)

// LeaseService creates and reads leases for the billing core
type LeaseService struct {
	leases   LeaseStore
	payments PaymentStore
	now      func() time.Time
}

// NewLeaseService creates a new lease service
func NewLeaseService(leases LeaseStore, payments PaymentStore) *LeaseService {
	return &LeaseService{
		leases:   leases,
		payments: payments,
		now:      time.Now,
	}
}

// CreateLease validates the lease terms, then checks spot availability inside
// the store's create so two requests for one spot cannot both pass.
func (s *LeaseService) CreateLease(ctx context.Context, req *models.CreateLeaseRequest, actor models.Actor) (*models.Lease, error) {
	occupants := req.OccupantCount
	if occupants == 0 {
		occupants = 1
	}
	now := s.now()
	lease := &models.Lease{
		ID:            utils.GenerateID(),
		TenantID:      utils.NormalizeID(req.TenantID),
		SpotID:        utils.NormalizeID(req.SpotID),
		PropertyID:    utils.NormalizeID(req.PropertyID),
		Type:          req.LeaseType,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		RentAmount:    req.RentAmount,
		DepositAmount: req.DepositAmount,
		OccupantCount: occupants,
		CreatedBy:     actor.String(),
		UpdatedBy:     actor.String(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := lease.Validate(); err != nil {
		return nil, utils.NewValidationError(err.Error())
	}

	err := s.leases.CreateLease(ctx, lease, func(existing []models.Lease) error {
		for i := range existing {
			other := &existing[i]
			if other.PropertyID != lease.PropertyID {
				return utils.NewValidationError("spot " + lease.SpotID + " belongs to another property")
			}
			if other.StatusAt(now) != models.LeaseExpired && lease.Overlaps(other) {
				appErr := utils.NewConflictError("Spot already has an active lease for these dates")
				appErr.Details = "Conflicting lease: " + other.ID
				return appErr
			}
		}
		return nil
	})
	if err != nil {
		var appErr *utils.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, utils.NewInternalError(utils.ErrFailedToStore, err)
	}
	lease.Status = lease.StatusAt(now)
	slog.Info("[LeaseService] Lease created", "leaseID", lease.ID, "spotID", lease.SpotID, "tenantID", lease.TenantID, "actor", actor.String())
	return lease, nil
}

// GetLease returns a lease with its derived status and payment aggregate
func (s *LeaseService) GetLease(ctx context.Context, id string) (*models.LeaseView, error) {
	lease, err := s.leases.GetLease(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, utils.NewNotFoundError(utils.ErrLeaseNotFound)
		}
		return nil, utils.NewInternalError(utils.ErrFailedToRetrieve, err)
	}
	if lease.IsDeleted() {
		return nil, utils.NewNotFoundError(utils.ErrLeaseNotFound)
	}

	records, err := s.payments.ListPayments(ctx, models.PaymentFilter{LeaseID: lease.ID, Type: models.PaymentRent})
	if err != nil {
		return nil, utils.NewInternalError(utils.ErrFailedToRetrieve, err)
	}

	now := s.now()
	lease.Status = lease.StatusAt(now)
	return &models.LeaseView{
		Lease:         *lease,
		PaymentStatus: LeasePaymentStatus(records, now),
	}, nil
}

// DeleteLease soft-deletes a lease. Its payment records stay, and billing
// keeps reporting open ones but creates no new obligations.
func (s *LeaseService) DeleteLease(ctx context.Context, id string, actor models.Actor) error {
	err := s.leases.DeleteLease(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return utils.NewNotFoundError(utils.ErrLeaseNotFound)
		}
		return utils.NewInternalError(utils.ErrFailedToStore, err)
	}
	slog.Info("[LeaseService] Lease deleted", "leaseID", id, "actor", actor.String())
	return nil
}
