package booking

import (
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/types"
)

// Booking is a reserved date range on a property, paid for by a renter.
// IDs are assigned sequentially by the store, starting at 1, and are
// unique across the whole ledger (not per property). Settled is the only
// mutable field and flips one way (false -> true) when the property owner
// withdraws the escrowed funds.
type Booking struct {
	types.Entity
	ID           int64       `json:"id"`
	PropertyID   int64       `json:"property_id"`
	Renter       string      `json:"renter"`
	CheckinDate  int64       `json:"checkin_date"`
	CheckoutDate int64       `json:"checkout_date"`
	AmountPaid   types.Money `json:"amount_paid"`
	Settled      bool        `json:"settled"`
}

// Stay returns the booking's date range.
func (b *Booking) Stay() DateRange {
	return DateRange{Checkin: b.CheckinDate, Checkout: b.CheckoutDate}
}

// Nights returns the length of the stay.
func (b *Booking) Nights() int64 {
	return b.CheckoutDate - b.CheckinDate
}

// DateRange is a half-open interval of day offsets [Checkin, Checkout).
// Checkout day is not occupied, so back-to-back stays don't conflict.
type DateRange struct {
	Checkin  int64 `json:"checkin"`
	Checkout int64 `json:"checkout"`
}

// Valid reports whether the range covers at least one night.
func (r DateRange) Valid() bool {
	return r.Checkout > r.Checkin
}

// Nights returns the number of nights in the range.
func (r DateRange) Nights() int64 {
	return r.Checkout - r.Checkin
}

// Overlaps reports whether two half-open ranges share at least one night:
// [a,b) and [c,d) overlap iff a < d && c < b.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.Checkin < other.Checkout && other.Checkin < r.Checkout
}

// FindConflict returns the first booking whose stay overlaps the given
// range, or nil if none does. The linear scan is the reference conflict
// check; store backends may answer the same question with an indexed
// query without changing observable behavior.
func FindConflict(bookings []*Booking, stay DateRange) *Booking {
	for _, b := range bookings {
		if b.Stay().Overlaps(stay) {
			return b
		}
	}
	return nil
}
