package services

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/fadhlanhapp/rentlot-backend/models"
	"github.com/fadhlanhapp/rentlot-backend/utils"
)

// ExcelService handles Excel export functionality
type ExcelService struct {
	payments *PaymentService
	audit    *AuditService
	now      func() time.Time
}

// NewExcelService creates a new Excel service
func NewExcelService(payments *PaymentService, audit *AuditService) *ExcelService {
	return &ExcelService{
		payments: payments,
		audit:    audit,
		now:      time.Now,
	}
}

// ExportTenantStatement generates a workbook with a tenant's payment summary and history
func (s *ExcelService) ExportTenantStatement(ctx context.Context, tenantID string) (*excelize.File, string, error) {
	summary, err := s.audit.TenantSummary(ctx, tenantID, maxRecentPayments)
	if err != nil {
		return nil, "", err
	}
	payments, err := s.payments.ListPayments(ctx, models.PaymentFilter{TenantID: tenantID})
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	now := s.now()

	if err := s.createSummarySheet(f, tenantID, summary, now); err != nil {
		return nil, "", fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := s.createPaymentSheet(f, payments, now); err != nil {
		return nil, "", fmt.Errorf("failed to create payment sheet: %w", err)
	}

	// Delete the default sheet if it exists
	f.DeleteSheet("Sheet1")

	filename := fmt.Sprintf("Statement_%s_%s.xlsx", utils.CleanFileName(tenantID), now.Format("2006-01-02"))
	return f, filename, nil
}

func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"E6F3FF"}, Pattern: 1},
	})
}

// createSummarySheet creates Sheet 1: Summary
func (s *ExcelService) createSummarySheet(f *excelize.File, tenantID string, summary *models.PaymentSummary, now time.Time) error {
	sheetName := "Summary"
	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}
	sheetIndex, _ := f.GetSheetIndex(sheetName)
	f.SetActiveSheet(sheetIndex)

	style, err := headerStyle(f)
	if err != nil {
		return err
	}

	rows := [][]interface{}{
		{"Tenant", tenantID},
		{"Generated", now.Format("2006-01-02 15:04")},
		{"Total Paid", summary.TotalPaid.InexactFloat64()},
		{"Total Due", summary.TotalDue.InexactFloat64()},
		{"Overdue Amount", summary.TotalOverdueAmount.InexactFloat64()},
		{"Paid", summary.PaidCount},
		{"Pending", summary.PendingCount},
		{"Overdue", summary.OverdueCount},
		{"Cancelled", summary.CancelledCount},
		{"Refunded", summary.RefundedCount},
		{"Success Rate", summary.SuccessRate},
	}
	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+1)
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return err
		}
	}
	f.SetCellStyle(sheetName, "A1", fmt.Sprintf("A%d", len(rows)), style)

	percent, _ := f.NewStyle(&excelize.Style{NumFmt: 10})
	cell := fmt.Sprintf("B%d", len(rows))
	f.SetCellStyle(sheetName, cell, cell, percent)

	f.SetColWidth(sheetName, "A", "A", 18)
	f.SetColWidth(sheetName, "B", "B", 40)
	return nil
}

// createPaymentSheet creates Sheet 2: Payments
func (s *ExcelService) createPaymentSheet(f *excelize.File, payments []models.PaymentRecord, now time.Time) error {
	sheetName := "Payments"
	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}

	headers := []string{"Receipt", "Type", "Description", "Due Date", "Status", "Amount", "Late Fee", "Total", "Paid Date", "Days Overdue"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}
	style, err := headerStyle(f)
	if err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	f.SetCellStyle(sheetName, "A1", last, style)

	for i, p := range payments {
		row := i + 2
		paid, daysOverdue := "", 0
		if p.Status.IsOpen() {
			daysOverdue = p.DaysOverdue(now)
		}
		if p.PaidDate != nil {
			paid = p.PaidDate.Format("2006-01-02")
		}
		values := []interface{}{
			p.ReceiptNumber,
			string(p.Type),
			p.Description,
			p.DueDate.Format("2006-01-02"),
			string(p.EffectiveStatus(now)),
			p.Amount.InexactFloat64(),
			p.LateFeeAmount.InexactFloat64(),
			p.TotalAmount.InexactFloat64(),
			paid,
			daysOverdue,
		}
		if err := f.SetSheetRow(sheetName, fmt.Sprintf("A%d", row), &values); err != nil {
			return err
		}
	}

	f.SetColWidth(sheetName, "A", "A", 28)
	f.SetColWidth(sheetName, "B", "B", 12)
	f.SetColWidth(sheetName, "C", "C", 40)
	f.SetColWidth(sheetName, "D", "J", 14)
	return nil
}
