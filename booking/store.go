package booking

import (
	"context"
)

// Store is the narrow persistence view for bookings. Create assigns the
// next ledger-wide sequential identifier (starting at 1) and returns it.
// ForProperty and Unsettled return bookings in ascending id order; the
// withdrawal path depends on that ordering.
type Store interface {
	Create(ctx context.Context, b *Booking) (int64, error)
	Get(ctx context.Context, bookingID int64) (*Booking, error)
	ForProperty(ctx context.Context, propertyID int64) ([]*Booking, error)
	Unsettled(ctx context.Context, propertyID int64) ([]*Booking, error)
	MarkSettled(ctx context.Context, bookingIDs []int64) error
	Count(ctx context.Context) (int64, error)
}
