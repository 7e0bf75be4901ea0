package escrow

import (
	"context"
	"sync"

	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/types"
)

// Transferer moves funds out of escrow to a recipient. This is the one
// boundary where the engine touches an external system; implementations
// bridge to a payment rail at wiring time. The ledger marks bookings
// settled before calling Transfer, so a failed or retried transfer can
// never double-pay from escrow.
type Transferer interface {
	Transfer(ctx context.Context, recipient string, amount types.Money) error
}

// TransferFunc is an adapter to use a plain function as a Transferer.
type TransferFunc func(ctx context.Context, recipient string, amount types.Money) error

// Transfer implements Transferer.
func (f TransferFunc) Transfer(ctx context.Context, recipient string, amount types.Money) error {
	return f(ctx, recipient, amount)
}

// MemoryBank is an in-process account book implementing Transferer.
// It is the default payout target, which keeps the engine fully usable
// in tests and demos without any external payment rail.
type MemoryBank struct {
	mu       sync.Mutex
	balances map[string]types.Money
}

// NewMemoryBank creates an empty in-process account book.
func NewMemoryBank() *MemoryBank {
	return &MemoryBank{balances: make(map[string]types.Money)}
}

// Transfer credits the recipient's balance.
func (b *MemoryBank) Transfer(_ context.Context, recipient string, amount types.Money) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if cur, ok := b.balances[recipient]; ok {
		b.balances[recipient] = cur.Add(amount)
		return nil
	}
	b.balances[recipient] = amount
	return nil
}

// Balance returns the accumulated balance for an account. The second
// return value is false if the account has never received a transfer.
func (b *MemoryBank) Balance(account string) (types.Money, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	m, ok := b.balances[account]
	return m, ok
}
