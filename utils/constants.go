package utils

const (
	// ID and code generation
	ReceiptCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	ReceiptPrefix  = "RCP"
	ReceiptSuffix  = 6

	// HTTP status messages
	ErrInvalidRequest    = "Invalid request"
	ErrLeaseNotFound     = "Lease"
	ErrPaymentNotFound   = "Payment"
	ErrFailedToStore     = "Failed to store data"
	ErrFailedToRetrieve  = "Failed to retrieve data"
	ErrMissingActor      = "Missing actor identity"
	ErrAdminOnly         = "This action requires an administrator"
	ErrLeaseNotBillable  = "Lease is not active and cannot be billed"
	ErrDuplicateBilling  = "A rent payment already exists for this month"
	ErrPaymentNotPending = "Payment is not pending"
	ErrRentNotACharge    = "Rent is billed from the lease schedule and cannot be created as a charge"

	// Precision for monetary calculations
	MinorUnitsPerMajor = 100
)
