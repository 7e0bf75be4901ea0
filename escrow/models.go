package escrow

import (
	"context"

	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/id"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/types"
)

// Receipt is the durable record of one completed withdrawal: which
// bookings were settled, how much moved, and to whom. Receipts are the
// audit trail callers reconcile against if an external transfer later
// turns out to have failed downstream.
type Receipt struct {
	types.Entity
	ID         id.ReceiptID `json:"id"`
	PropertyID int64        `json:"property_id"`
	Recipient  string       `json:"recipient"`
	Amount     types.Money  `json:"amount"`
	BookingIDs []int64      `json:"booking_ids"`
}

// NewReceipt creates a receipt for a completed withdrawal.
func NewReceipt(propertyID int64, recipient string, amount types.Money, bookingIDs []int64) *Receipt {
	return &Receipt{
		Entity:     types.NewEntity(),
		ID:         id.NewReceiptID(),
		PropertyID: propertyID,
		Recipient:  recipient,
		Amount:     amount,
		BookingIDs: bookingIDs,
	}
}

// Store is the narrow persistence view for receipts.
type Store interface {
	Create(ctx context.Context, r *Receipt) error
	ForProperty(ctx context.Context, propertyID int64) ([]*Receipt, error)
}
