// Package plugin provides an extensible hook system for RentHouse.
// Plugins can hook into ledger lifecycle events to extend functionality.
//
// Hook payloads are passed as interface{} so that this package does not
// depend on the domain packages; implementations assert to the concrete
// types (*property.Property, *booking.Booking, *escrow.Receipt) they
// care about.
package plugin

import (
	"context"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the ledger starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the ledger is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Property lifecycle hooks
// ──────────────────────────────────────────────────

// OnPropertyListed is called when a new property is listed.
type OnPropertyListed interface {
	Plugin
	OnPropertyListed(ctx context.Context, prop interface{}) error
}

// OnPropertyDeactivated is called when an owner deactivates a property.
type OnPropertyDeactivated interface {
	Plugin
	OnPropertyDeactivated(ctx context.Context, propertyID int64) error
}

// ──────────────────────────────────────────────────
// Booking lifecycle hooks
// ──────────────────────────────────────────────────

// OnBookingCreated is called when a booking is accepted and stored.
type OnBookingCreated interface {
	Plugin
	OnBookingCreated(ctx context.Context, bkg interface{}) error
}

// OnBookingRejected is called when a booking attempt fails one of the
// terminal checks (inactive property, bad dates, bad payment, conflict).
type OnBookingRejected interface {
	Plugin
	OnBookingRejected(ctx context.Context, propertyID int64, reason error) error
}

// ──────────────────────────────────────────────────
// Escrow lifecycle hooks
// ──────────────────────────────────────────────────

// OnWithdrawalCompleted is called after a withdrawal settles bookings and
// the funds have been transferred to the owner.
type OnWithdrawalCompleted interface {
	Plugin
	OnWithdrawalCompleted(ctx context.Context, receipt interface{}) error
}

// OnTransferFailed is called when the external payout fails after the
// source bookings were already marked settled.
type OnTransferFailed interface {
	Plugin
	OnTransferFailed(ctx context.Context, propertyID int64, recipient string, err error) error
}

// ──────────────────────────────────────────────────
// Payout providers
// ──────────────────────────────────────────────────

// PayoutProviderPlugin provides a payout rail implementation.
type PayoutProviderPlugin interface {
	Plugin
	Transferer() interface{} // Returns escrow.Transferer
}
