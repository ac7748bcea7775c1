package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fadhlanhapp/rentlot-backend/models"
	"github.com/fadhlanhapp/rentlot-backend/repository"
	"github.com/fadhlanhapp/rentlot-backend/utils"
)

func newTestLeaseService(leases ...*models.Lease) (*LeaseService, *repository.MemoryPaymentRepository) {
	store := repository.NewMemoryPaymentRepository()
	svc := NewLeaseService(newFakeLeaseStore(leases...), store)
	svc.now = fixedClock(testNow)
	return svc, store
}

func leaseRequest(start time.Time) *models.CreateLeaseRequest {
	return &models.CreateLeaseRequest{
		TenantID:      "tenant-2",
		SpotID:        "spot-1",
		PropertyID:    "prop-1",
		LeaseType:     models.LeaseMonthly,
		StartDate:     start,
		RentAmount:    decimal.NewFromInt(1000),
		DepositAmount: decimal.NewFromInt(500),
	}
}

func TestLeaseService_CreateLease(t *testing.T) {
	svc, _ := newTestLeaseService()

	lease, err := svc.CreateLease(context.Background(), leaseRequest(day(2026, time.October, 1)), admin)
	require.NoError(t, err)

	assert.NotEmpty(t, lease.ID)
	assert.Equal(t, 1, lease.OccupantCount)
	assert.Equal(t, models.LeaseActive, lease.Status)
	assert.Equal(t, "admin:admin-1", lease.CreatedBy)
}

func TestLeaseService_CreateLease_Validation(t *testing.T) {
	svc, _ := newTestLeaseService()

	fixedNoEnd := leaseRequest(day(2026, time.October, 1))
	fixedNoEnd.LeaseType = models.LeaseFixedTerm

	negative := leaseRequest(day(2026, time.October, 1))
	negative.RentAmount = decimal.NewFromInt(-1)

	end := day(2026, time.September, 1)
	monthlyWithEnd := leaseRequest(day(2026, time.October, 1))
	monthlyWithEnd.EndDate = &end

	for name, req := range map[string]*models.CreateLeaseRequest{
		"fixed term without end": fixedNoEnd,
		"negative rent":          negative,
		"monthly with end":       monthlyWithEnd,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateLease(context.Background(), req, admin)
			assert.True(t, utils.IsKind(err, utils.KindValidation), "got %v", err)
		})
	}
}

func TestLeaseService_CreateLease_OverlapConflict(t *testing.T) {
	existing := testLease(day(2026, time.September, 1), 1000, 0)
	svc, _ := newTestLeaseService(existing)

	_, err := svc.CreateLease(context.Background(), leaseRequest(day(2027, time.January, 1)), admin)
	require.Error(t, err)
	assert.True(t, utils.IsKind(err, utils.KindConflict))

	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Details, existing.ID)
}

func TestLeaseService_CreateLease_ConcurrentRequestsForOneSpot(t *testing.T) {
	svc, _ := newTestLeaseService()

	var wg sync.WaitGroup
	errs := make([]error, 20)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateLease(context.Background(), leaseRequest(day(2026, time.October, 1)), admin)
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.True(t, utils.IsKind(err, utils.KindConflict), "got %v", err)
	}
	assert.Equal(t, 1, created)
}

func TestLeaseService_DeleteLease(t *testing.T) {
	lease := testLease(day(2026, time.September, 1), 1000, 0)
	svc, _ := newTestLeaseService(lease)
	ctx := context.Background()

	require.NoError(t, svc.DeleteLease(ctx, lease.ID, admin))

	_, err := svc.GetLease(ctx, lease.ID)
	assert.True(t, utils.IsKind(err, utils.KindNotFound))

	err = svc.DeleteLease(ctx, lease.ID, admin)
	assert.True(t, utils.IsKind(err, utils.KindNotFound))

	// the spot is free again
	_, err = svc.CreateLease(ctx, leaseRequest(day(2026, time.October, 1)), admin)
	assert.NoError(t, err)
}

func TestLeaseService_CreateLease_ExpiredLeaseDoesNotBlock(t *testing.T) {
	end := day(2026, time.June, 30)
	expired := testLease(day(2026, time.January, 1), 1000, 0)
	expired.Type = models.LeaseFixedTerm
	expired.EndDate = &end
	svc, _ := newTestLeaseService(expired)

	_, err := svc.CreateLease(context.Background(), leaseRequest(day(2026, time.October, 1)), admin)
	assert.NoError(t, err)
}

func TestLeaseService_CreateLease_SpotOnAnotherProperty(t *testing.T) {
	existing := testLease(day(2026, time.January, 1), 1000, 0)
	existing.PropertyID = "prop-9"
	end := day(2026, time.March, 31)
	existing.Type = models.LeaseFixedTerm
	existing.EndDate = &end
	svc, _ := newTestLeaseService(existing)

	_, err := svc.CreateLease(context.Background(), leaseRequest(day(2026, time.October, 1)), admin)
	assert.True(t, utils.IsKind(err, utils.KindValidation))
}

func TestLeaseService_GetLease(t *testing.T) {
	lease := testLease(day(2026, time.September, 1), 1000, 0)
	svc, store := newTestLeaseService(lease)
	ctx := context.Background()

	paid := rentPayment("p1", day(2026, time.September, 1), models.StatusPaid, 1000)
	paid.ReceiptNumber = "RCP-1"
	require.NoError(t, store.CreatePayment(ctx, &paid))
	open := rentPayment("p2", day(2026, time.November, 1), models.StatusPending, 1000)
	open.ReceiptNumber = "RCP-2"
	require.NoError(t, store.CreatePayment(ctx, &open))

	view, err := svc.GetLease(ctx, lease.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LeaseActive, view.Status)
	assert.Equal(t, models.LeasePaymentPartial, view.PaymentStatus)
}

func TestLeaseService_GetLease_NotFound(t *testing.T) {
	deleted := testLease(day(2026, time.September, 1), 1000, 0)
	deleted.DeletedAt = gorm.DeletedAt{Time: testNow, Valid: true}
	svc, _ := newTestLeaseService(deleted)

	_, err := svc.GetLease(context.Background(), "missing")
	assert.True(t, utils.IsKind(err, utils.KindNotFound))

	_, err = svc.GetLease(context.Background(), deleted.ID)
	assert.True(t, utils.IsKind(err, utils.KindNotFound))
}
