// Package renthouse provides an embeddable rental-booking ledger for Go applications.
//
// RentHouse is designed as a library, not a service. Import it directly into
// your Go application and drive it through one façade. It provides:
//
//   - A property registry with owner-only lifecycle control
//   - A booking ledger with half-open date-range conflict detection
//   - Escrow accounting with batched, receipt-backed withdrawals
//   - Pluggable storage (memory, SQLite, Postgres, MongoDB)
//   - Pluggable payout rails via escrow.Transferer
//   - Lifecycle hooks for audit trails, metrics, and event publishing
//
// # Quick Start
//
// Create a RentHouse instance with your preferred store:
//
//	import (
//	    renthouse "github.com/IbrahimGhasia/Decentralized-Renting-House-Backend"
//	    "github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/store/postgres"
//	)
//
//	// Initialize store
//	store, err := postgres.New(ctx, databaseURL)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Create the ledger
//	rh := renthouse.New(store)
//
//	// Start it (runs migrations, initializes plugins)
//	if err := rh.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer rh.Stop()
//
// # Core Concepts
//
// Owners list properties with a nightly price:
//
//	propID, err := rh.ListProperty(ctx, "alice", "Beach House", "Sea view", renthouse.USD(4500))
//
// Renters book a half-open date range [checkin, checkout) against exact
// payment of pricePerNight * nights:
//
//	bookingID, err := rh.BookProperty(ctx, "bob", propID, 100, 110, renthouse.USD(45000))
//
// Payments accumulate in escrow per property until the owner withdraws
// them, oldest bookings first:
//
//	total, err := rh.Withdraw(ctx, "alice", propID, 10)
//
// # Semantics
//
// Booking dates are opaque ordered integers; two stays conflict exactly
// when their half-open ranges overlap. Payment must equal the computed
// total: both underpayment and overpayment are rejected. Withdrawals mark
// bookings settled before transferring funds, so a failed or retried
// payout can never pay the same booking twice.
//
// All monetary calculations use integer arithmetic to avoid floating-point
// precision issues. The Money type represents amounts in the smallest
// currency unit (cents for USD, paise for INR, etc).
//
// # Identifiers
//
// Properties and bookings use sequential int64 identifiers assigned by
// the store, starting at 1, with no gaps or reuse. Withdrawal receipts
// use TypeIDs for globally unique, K-sortable identifiers:
//
//	rcpt_01h2xcejqtf2nbrexx3vqjhp41  // Receipt ID
package renthouse
