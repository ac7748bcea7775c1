package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fadhlanhapp/rentlot-backend/models"
)

func TestExcelService_ExportTenantStatement(t *testing.T) {
	payments, store := newTestPaymentService()
	ctx := context.Background()
	_, err := payments.CreatePayment(ctx, newCharge(models.PaymentRent, day(2026, time.October, 1), 1000, 50), admin)
	require.NoError(t, err)
	_, err = payments.CreatePayment(ctx, newCharge(models.PaymentUtility, day(2026, time.November, 1), 80, 0), admin)
	require.NoError(t, err)

	audit := NewAuditService(store, 5)
	audit.now = fixedClock(testNow)
	svc := NewExcelService(payments, audit)
	svc.now = fixedClock(testNow)

	f, filename, err := svc.ExportTenantStatement(ctx, "tenant-1")
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, "Statement_tenant-1_2026-10-17.xlsx", filename)
	assert.ElementsMatch(t, []string{"Summary", "Payments"}, f.GetSheetList())

	rows, err := f.GetRows("Payments")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Receipt", rows[0][0])
	assert.Equal(t, "RENT", rows[1][1])
	assert.Equal(t, "OVERDUE", rows[1][4])
	assert.Equal(t, "17", rows[1][9])
	assert.Equal(t, "UTILITY", rows[2][1])

	tenant, err := f.GetCellValue("Summary", "B1")
	require.NoError(t, err)
	assert.Equal(t, "tenant-1", tenant)
}
