package store

import (
	"context"

	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/booking"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/escrow"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/property"
)

// Store is the unified storage interface for all RentHouse records.
// Instead of embedding the per-entity sub-interfaces, all methods are
// declared explicitly to avoid naming conflicts.
//
// Sequential identifier counters (property ids and booking ids, both
// starting at 1) are owned by the store and mutated only inside
// CreateProperty/CreateBooking, under the store's own mutual-exclusion
// boundary. UnsettledBookings and BookingsForProperty return records in
// ascending id order.
type Store interface {
	// Property methods
	CreateProperty(ctx context.Context, p *property.Property) (int64, error)
	GetProperty(ctx context.Context, propertyID int64) (*property.Property, error)
	ListProperties(ctx context.Context, opts property.ListOpts) ([]*property.Property, error)
	DeactivateProperty(ctx context.Context, propertyID int64) error
	PropertyCount(ctx context.Context) (int64, error)

	// Booking methods
	CreateBooking(ctx context.Context, b *booking.Booking) (int64, error)
	GetBooking(ctx context.Context, bookingID int64) (*booking.Booking, error)
	BookingsForProperty(ctx context.Context, propertyID int64) ([]*booking.Booking, error)
	UnsettledBookings(ctx context.Context, propertyID int64) ([]*booking.Booking, error)
	MarkSettled(ctx context.Context, bookingIDs []int64) error
	BookingCount(ctx context.Context) (int64, error)

	// Receipt methods
	CreateReceipt(ctx context.Context, r *escrow.Receipt) error
	ReceiptsForProperty(ctx context.Context, propertyID int64) ([]*escrow.Receipt, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
