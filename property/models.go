package property

import (
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/types"
)

// Property is a listed rentable unit. The ID is assigned sequentially by
// the store, starting at 1. Owner is immutable after creation; Active is
// the only mutable field and flips one way (true -> false).
type Property struct {
	types.Entity
	ID            int64       `json:"id"`
	Owner         string      `json:"owner"`
	Name          string      `json:"name"`
	Description   string      `json:"description"`
	PricePerNight types.Money `json:"price_per_night"`
	Active        bool        `json:"active"`
}

// OwnedBy reports whether caller is the property's owner.
func (p *Property) OwnedBy(caller string) bool {
	return p.Owner == caller
}

// TotalPrice returns the price of a stay of the given number of nights.
func (p *Property) TotalPrice(nights int64) types.Money {
	return p.PricePerNight.Multiply(nights)
}
