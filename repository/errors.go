package repository

import (
	"errors"

	"github.com/lib/pq"
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrDuplicateRentMonth = errors.New("rent already billed for this month")
	ErrDuplicateReceipt   = errors.New("receipt number already in use")
)

const (
	uniqueViolation    = "23505"
	receiptNumberIndex = "idx_payments_receipt_number"
	rentMonthIndex     = "idx_payments_rent_month"
)

// translatePQError maps unique-index violations to repository sentinels
func translatePQError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return err
	}
	switch pqErr.Constraint {
	case receiptNumberIndex:
		return ErrDuplicateReceipt
	case rentMonthIndex:
		return ErrDuplicateRentMonth
	}
	return err
}
