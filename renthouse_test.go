package renthouse_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	renthouse "github.com/IbrahimGhasia/Decentralized-Renting-House-Backend"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/escrow"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/store/memory"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/types"
)

func newEngine(t *testing.T, opts ...renthouse.Option) *renthouse.RentHouse {
	t.Helper()

	rh := renthouse.New(memory.New(), opts...)
	if err := rh.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() {
		if err := rh.Stop(); err != nil {
			t.Errorf("Stop: %v", err)
		}
	})
	return rh
}

func listTestProperty(t *testing.T, rh *renthouse.RentHouse, owner string) int64 {
	t.Helper()

	propID, err := rh.ListProperty(context.Background(), owner, "Sea View Flat", "2BHK near the beach", types.USD(4500))
	if err != nil {
		t.Fatalf("ListProperty: %v", err)
	}
	return propID
}

// ==================== Property registry ====================

func TestListProperty(t *testing.T) {
	ctx := context.Background()
	rh := newEngine(t)

	propID := listTestProperty(t, rh, "alice")
	if propID != 1 {
		t.Errorf("first property id: got %d, want 1", propID)
	}

	p, err := rh.GetProperty(ctx, propID)
	if err != nil {
		t.Fatalf("GetProperty: %v", err)
	}
	if p.Owner != "alice" || !p.Active {
		t.Errorf("unexpected property: %+v", p)
	}
	if !p.PricePerNight.Equal(types.USD(4500)) {
		t.Errorf("price: got %v, want $45.00", p.PricePerNight)
	}
}

func TestListPropertyValidation(t *testing.T) {
	ctx := context.Background()
	rh := newEngine(t)

	if _, err := rh.ListProperty(ctx, "", "x", "", types.USD(100)); err == nil {
		t.Error("expected error for empty owner")
	}
	if _, err := rh.ListProperty(ctx, "alice", "x", "", types.USD(-1)); !errors.Is(err, renthouse.ErrInvalidPrice) {
		t.Errorf("negative price: got %v, want ErrInvalidPrice", err)
	}
	// A free listing is allowed.
	if _, err := rh.ListProperty(ctx, "alice", "x", "", types.USD(0)); err != nil {
		t.Errorf("zero price: got %v, want nil", err)
	}
}

func TestDeactivateProperty(t *testing.T) {
	ctx := context.Background()
	rh := newEngine(t)
	propID := listTestProperty(t, rh, "alice")

	if err := rh.DeactivateProperty(ctx, "mallory", propID); !errors.Is(err, renthouse.ErrNotOwner) {
		t.Errorf("non-owner deactivate: got %v, want ErrNotOwner", err)
	}

	if err := rh.DeactivateProperty(ctx, "alice", propID); err != nil {
		t.Fatalf("DeactivateProperty: %v", err)
	}

	// Repeating is a no-op, not an error.
	if err := rh.DeactivateProperty(ctx, "alice", propID); err != nil {
		t.Errorf("repeat deactivate: got %v, want nil", err)
	}

	p, _ := rh.GetProperty(ctx, propID)
	if p.Active {
		t.Error("property still active after deactivation")
	}

	// New bookings are blocked.
	_, err := rh.BookProperty(ctx, "bob", propID, 100, 110, types.USD(45000))
	if !errors.Is(err, renthouse.ErrPropertyNotActive) {
		t.Errorf("booking inactive property: got %v, want ErrPropertyNotActive", err)
	}
}

func TestDeactivateUnknownProperty(t *testing.T) {
	rh := newEngine(t)
	err := rh.DeactivateProperty(context.Background(), "alice", 42)
	if !errors.Is(err, renthouse.ErrPropertyNotFound) {
		t.Errorf("got %v, want ErrPropertyNotFound", err)
	}
}

// ==================== Booking ledger ====================

func TestBookProperty(t *testing.T) {
	ctx := context.Background()
	rh := newEngine(t)
	propID := listTestProperty(t, rh, "alice")

	// 10 nights at $45.00 = $450.00.
	bookingID, err := rh.BookProperty(ctx, "bob", propID, 100, 110, types.USD(45000))
	if err != nil {
		t.Fatalf("BookProperty: %v", err)
	}
	if bookingID != 1 {
		t.Errorf("first booking id: got %d, want 1", bookingID)
	}

	b, err := rh.GetBooking(ctx, bookingID)
	if err != nil {
		t.Fatalf("GetBooking: %v", err)
	}
	if b.Renter != "bob" || b.Settled {
		t.Errorf("unexpected booking: %+v", b)
	}
	if !b.AmountPaid.Equal(types.USD(45000)) {
		t.Errorf("amount paid: got %v, want $450.00", b.AmountPaid)
	}
}

func TestBookPropertyPaymentExactness(t *testing.T) {
	ctx := context.Background()
	rh := newEngine(t)
	propID := listTestProperty(t, rh, "alice")

	tests := []struct {
		name    string
		payment types.Money
		wantErr error
	}{
		{"one cent short", types.USD(44999), renthouse.ErrInsufficientPayment},
		{"one cent over", types.USD(45001), renthouse.ErrExcessPayment},
		{"zero", types.USD(0), renthouse.ErrInsufficientPayment},
		{"wrong currency", types.INR(45000), renthouse.ErrInsufficientPayment},
		{"exact", types.USD(45000), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rh.BookProperty(ctx, "bob", propID, 100, 110, tt.payment)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("got %v, want success", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBookPropertyDateValidation(t *testing.T) {
	ctx := context.Background()
	rh := newEngine(t)
	propID := listTestProperty(t, rh, "alice")

	for _, r := range [][2]int64{{110, 100}, {100, 100}} {
		_, err := rh.BookProperty(ctx, "bob", propID, r[0], r[1], types.USD(45000))
		if !errors.Is(err, renthouse.ErrInvalidDateRange) {
			t.Errorf("[%d,%d): got %v, want ErrInvalidDateRange", r[0], r[1], err)
		}
	}
}

func TestBookPropertyConflicts(t *testing.T) {
	ctx := context.Background()
	rh := newEngine(t)
	propID := listTestProperty(t, rh, "alice")

	if _, err := rh.BookProperty(ctx, "bob", propID, 100, 110, types.USD(45000)); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	// Any overlap with [100,110) is rejected.
	_, err := rh.BookProperty(ctx, "carol", propID, 105, 115, types.USD(45000))
	if !errors.Is(err, renthouse.ErrDateRangeConflict) {
		t.Errorf("overlapping stay: got %v, want ErrDateRangeConflict", err)
	}

	// Back-to-back is fine: checkout day is not occupied.
	if _, err := rh.BookProperty(ctx, "carol", propID, 110, 115, types.USD(22500)); err != nil {
		t.Errorf("back-to-back stay: got %v, want success", err)
	}

	// The same dates on a different property don't conflict.
	other := listTestProperty(t, rh, "dave")
	if _, err := rh.BookProperty(ctx, "carol", other, 100, 110, types.USD(45000)); err != nil {
		t.Errorf("same dates, other property: got %v, want success", err)
	}
}

func TestBookingIDsGloballySequential(t *testing.T) {
	ctx := context.Background()
	rh := newEngine(t)
	prop1 := listTestProperty(t, rh, "alice")
	prop2 := listTestProperty(t, rh, "dave")

	id1, _ := rh.BookProperty(ctx, "bob", prop1, 100, 101, types.USD(4500))
	id2, _ := rh.BookProperty(ctx, "bob", prop2, 100, 101, types.USD(4500))
	id3, _ := rh.BookProperty(ctx, "bob", prop1, 101, 102, types.USD(4500))

	if id1 != 1 || id2 != 2 || id3 != 3 {
		t.Errorf("booking ids: got %d,%d,%d, want 1,2,3", id1, id2, id3)
	}

	count, err := rh.BookingCount(ctx)
	if err != nil {
		t.Fatalf("BookingCount: %v", err)
	}
	if count != 3 {
		t.Errorf("BookingCount: got %d, want 3", count)
	}
}

// ==================== Escrow engine ====================

func TestEscrowBalanceAccumulates(t *testing.T) {
	ctx := context.Background()
	rh := newEngine(t)
	propID := listTestProperty(t, rh, "alice")

	balance, err := rh.EscrowBalance(ctx, propID)
	if err != nil {
		t.Fatalf("EscrowBalance: %v", err)
	}
	if !balance.IsZero() {
		t.Errorf("initial balance: got %v, want zero", balance)
	}

	rhMustBook(t, rh, "bob", propID, 100, 110)   // $450.00
	rhMustBook(t, rh, "carol", propID, 110, 115) // $225.00

	balance, _ = rh.EscrowBalance(ctx, propID)
	if !balance.Equal(types.USD(67500)) {
		t.Errorf("balance: got %v, want $675.00", balance)
	}
}

func TestWithdraw(t *testing.T) {
	ctx := context.Background()
	bank := escrow.NewMemoryBank()
	rh := newEngine(t, renthouse.WithTransferer(bank))
	propID := listTestProperty(t, rh, "alice")

	rhMustBook(t, rh, "bob", propID, 100, 110)
	rhMustBook(t, rh, "carol", propID, 110, 115)

	total, err := rh.Withdraw(ctx, "alice", propID, 10)
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if !total.Equal(types.USD(67500)) {
		t.Errorf("withdrawn: got %v, want $675.00", total)
	}

	// Funds arrived at the owner's account.
	got, ok := bank.Balance("alice")
	if !ok || !got.Equal(types.USD(67500)) {
		t.Errorf("bank balance: got %v (present=%v), want $675.00", got, ok)
	}

	// Escrow is drained and bookings settled.
	balance, _ := rh.EscrowBalance(ctx, propID)
	if !balance.IsZero() {
		t.Errorf("post-withdraw balance: got %v, want zero", balance)
	}
	unsettled, _ := rh.UnsettledBookings(ctx, propID)
	if len(unsettled) != 0 {
		t.Errorf("unsettled bookings remain: %d", len(unsettled))
	}

	// A receipt records the withdrawal.
	receipts, err := rh.Receipts(ctx, propID)
	if err != nil {
		t.Fatalf("Receipts: %v", err)
	}
	if len(receipts) != 1 {
		t.Fatalf("got %d receipts, want 1", len(receipts))
	}
	r := receipts[0]
	if r.Recipient != "alice" || !r.Amount.Equal(types.USD(67500)) || len(r.BookingIDs) != 2 {
		t.Errorf("unexpected receipt: %+v", r)
	}
}

func TestWithdrawBatchIsCapped(t *testing.T) {
	ctx := context.Background()
	rh := newEngine(t)
	propID := listTestProperty(t, rh, "alice")

	rhMustBook(t, rh, "bob", propID, 100, 110)   // booking 1, $450.00
	rhMustBook(t, rh, "carol", propID, 110, 115) // booking 2, $225.00
	rhMustBook(t, rh, "dave", propID, 115, 117)  // booking 3, $90.00

	// Only the oldest booking settles.
	total, err := rh.Withdraw(ctx, "alice", propID, 1)
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if !total.Equal(types.USD(45000)) {
		t.Errorf("withdrawn: got %v, want $450.00", total)
	}

	unsettled, _ := rh.UnsettledBookings(ctx, propID)
	if len(unsettled) != 2 || unsettled[0].ID != 2 {
		t.Errorf("unsettled after partial withdraw: %+v", unsettled)
	}

	// Asking for more than remains is not an error.
	total, err = rh.Withdraw(ctx, "alice", propID, 100)
	if err != nil {
		t.Fatalf("Withdraw remainder: %v", err)
	}
	if !total.Equal(types.USD(31500)) {
		t.Errorf("remainder: got %v, want $315.00", total)
	}
}

func TestWithdrawErrors(t *testing.T) {
	ctx := context.Background()
	rh := newEngine(t)
	propID := listTestProperty(t, rh, "alice")

	if _, err := rh.Withdraw(ctx, "alice", propID, 0); !errors.Is(err, renthouse.ErrInvalidInput) {
		t.Errorf("count 0: got %v, want ErrInvalidInput", err)
	}
	if _, err := rh.Withdraw(ctx, "mallory", propID, 1); !errors.Is(err, renthouse.ErrNotOwner) {
		t.Errorf("non-owner: got %v, want ErrNotOwner", err)
	}
	if _, err := rh.Withdraw(ctx, "alice", propID, 1); !errors.Is(err, renthouse.ErrNothingToWithdraw) {
		t.Errorf("empty escrow: got %v, want ErrNothingToWithdraw", err)
	}
	if _, err := rh.Withdraw(ctx, "alice", 42, 1); !errors.Is(err, renthouse.ErrPropertyNotFound) {
		t.Errorf("unknown property: got %v, want ErrPropertyNotFound", err)
	}
}

func TestWithdrawSettlesBeforeTransfer(t *testing.T) {
	ctx := context.Background()

	failingBank := escrow.TransferFunc(func(_ context.Context, _ string, _ types.Money) error {
		return errors.New("rail unavailable")
	})
	rh := newEngine(t, renthouse.WithTransferer(failingBank))
	propID := listTestProperty(t, rh, "alice")
	rhMustBook(t, rh, "bob", propID, 100, 110)

	_, err := rh.Withdraw(ctx, "alice", propID, 10)
	if !errors.Is(err, renthouse.ErrTransferFailed) {
		t.Fatalf("got %v, want ErrTransferFailed", err)
	}

	// Bookings stay settled: a retried transfer must never double-pay.
	unsettled, _ := rh.UnsettledBookings(ctx, propID)
	if len(unsettled) != 0 {
		t.Errorf("bookings reverted to unsettled: %d", len(unsettled))
	}
	balance, _ := rh.EscrowBalance(ctx, propID)
	if !balance.IsZero() {
		t.Errorf("escrow balance after failed transfer: got %v, want zero", balance)
	}

	// A second withdraw finds nothing left.
	if _, err := rh.Withdraw(ctx, "alice", propID, 10); !errors.Is(err, renthouse.ErrNothingToWithdraw) {
		t.Errorf("retry: got %v, want ErrNothingToWithdraw", err)
	}
}

// ==================== Plugins ====================

type capturePlugin struct {
	mu          sync.Mutex
	created     int
	rejected    int
	withdrawals int
}

func (p *capturePlugin) Name() string { return "capture" }

func (p *capturePlugin) OnBookingCreated(_ context.Context, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created++
	return nil
}

func (p *capturePlugin) OnBookingRejected(_ context.Context, _ int64, _ error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rejected++
	return nil
}

func (p *capturePlugin) OnWithdrawalCompleted(_ context.Context, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.withdrawals++
	return nil
}

func TestPluginLifecycleEvents(t *testing.T) {
	ctx := context.Background()
	events := &capturePlugin{}
	rh := newEngine(t, renthouse.WithPlugin(events))
	propID := listTestProperty(t, rh, "alice")

	rhMustBook(t, rh, "bob", propID, 100, 110)
	if _, err := rh.BookProperty(ctx, "carol", propID, 105, 115, types.USD(45000)); err == nil {
		t.Fatal("expected conflict")
	}
	if _, err := rh.Withdraw(ctx, "alice", propID, 10); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}

	events.mu.Lock()
	defer events.mu.Unlock()
	if events.created != 1 || events.rejected != 1 || events.withdrawals != 1 {
		t.Errorf("events: created=%d rejected=%d withdrawals=%d, want 1 each",
			events.created, events.rejected, events.withdrawals)
	}
}

// ==================== Concurrency ====================

func TestConcurrentBookingsOnlyOneWins(t *testing.T) {
	ctx := context.Background()
	rh := newEngine(t)
	propID := listTestProperty(t, rh, "alice")

	const attempts = 16
	var wg sync.WaitGroup
	errCh := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := rh.BookProperty(ctx, "bob", propID, 100, 110, types.USD(45000))
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)

	var wins, conflicts int
	for err := range errCh {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, renthouse.ErrDateRangeConflict):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 || conflicts != attempts-1 {
		t.Errorf("wins=%d conflicts=%d, want 1 and %d", wins, conflicts, attempts-1)
	}
}

func rhMustBook(t *testing.T, rh *renthouse.RentHouse, renter string, propID, checkin, checkout int64) int64 {
	t.Helper()

	bookingID, err := rh.BookProperty(context.Background(), renter, propID, checkin, checkout,
		types.USD(4500*(checkout-checkin)))
	if err != nil {
		t.Fatalf("BookProperty(%s, [%d,%d)): %v", renter, checkin, checkout, err)
	}
	return bookingID
}
