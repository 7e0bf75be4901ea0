package audithook

// Action constants for audit events.
const (
	// Property actions
	ActionPropertyListed      = "property.listed"
	ActionPropertyDeactivated = "property.deactivated"

	// Booking actions
	ActionBookingCreated  = "booking.created"
	ActionBookingRejected = "booking.rejected"

	// Escrow actions
	ActionWithdrawalCompleted = "withdrawal.completed"
	ActionTransferFailed      = "transfer.failed"
)

// Resource constants for audit events.
const (
	ResourceProperty   = "property"
	ResourceBooking    = "booking"
	ResourceWithdrawal = "withdrawal"
)

// Category constants for audit events.
const (
	CategoryRegistry = "registry"
	CategoryBooking  = "booking"
	CategoryEscrow   = "escrow"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
