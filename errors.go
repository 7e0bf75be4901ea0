package renthouse

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios. Every failing operation
// wraps one of these, with the offending identifier in the message, and
// leaves ledger state untouched.
var (
	// General errors
	ErrNotFound     = errors.New("renthouse: not found")
	ErrInvalidInput = errors.New("renthouse: invalid input")
	ErrNotOwner     = errors.New("renthouse: caller is not the property owner")

	// Property errors
	ErrPropertyNotFound  = errors.New("renthouse: property not found")
	ErrPropertyNotActive = errors.New("renthouse: property is not active")
	ErrInvalidPrice      = errors.New("renthouse: invalid nightly price")

	// Booking errors
	ErrBookingNotFound     = errors.New("renthouse: booking not found")
	ErrInvalidDateRange    = errors.New("renthouse: checkout date must be after checkin date")
	ErrInsufficientPayment = errors.New("renthouse: payment below the required total")
	ErrExcessPayment       = errors.New("renthouse: payment above the required total")
	ErrDateRangeConflict   = errors.New("renthouse: property already booked for the selected dates")

	// Escrow errors
	ErrNothingToWithdraw = errors.New("renthouse: no unsettled bookings to withdraw")
	ErrTransferFailed    = errors.New("renthouse: fund transfer failed")

	// Store errors
	ErrStoreClosed       = errors.New("renthouse: store is closed")
	ErrTransactionFailed = errors.New("renthouse: transaction failed")
	ErrMigrationFailed   = errors.New("renthouse: migration failed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("renthouse: validation failed for %s: %s", e.Field, e.Message)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrPropertyNotFound) ||
		errors.Is(err, ErrBookingNotFound)
}

// IsAccessDenied returns true if the error is an ownership/identity error.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrNotOwner)
}

// IsRejectedBooking returns true if the error is one of the terminal
// booking rejections (bad dates, bad payment, or a date conflict).
func IsRejectedBooking(err error) bool {
	return errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrInsufficientPayment) ||
		errors.Is(err, ErrExcessPayment) ||
		errors.Is(err, ErrDateRangeConflict) ||
		errors.Is(err, ErrPropertyNotActive)
}
