package renthouse

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/booking"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/escrow"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/plugin"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/property"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/store"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/types"
)

// RentHouse is the rental-booking ledger engine. It composes the property
// registry, the booking ledger and the escrow accounting behind one
// transactional façade over a pluggable store.
//
// Every mutating operation against a property (book, deactivate, withdraw)
// runs its whole read-then-write sequence under that property's lock, so
// no two of them can interleave. Identifier allocation is owned by the
// store and happens inside CreateProperty/CreateBooking.
type RentHouse struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger
	bank    escrow.Transferer

	locks propertyLocks
}

// New creates a new RentHouse instance. Without options, funds withdraw
// into an in-process escrow.MemoryBank.
func New(s store.Store, opts ...Option) *RentHouse {
	rh := &RentHouse{
		store:   s,
		plugins: plugin.NewRegistry(),
		logger:  slog.Default(),
		bank:    escrow.NewMemoryBank(),
	}

	for _, opt := range opts {
		opt(rh)
	}

	return rh
}

// Option configures a RentHouse instance.
type Option func(*RentHouse)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(rh *RentHouse) {
		rh.logger = logger
		rh.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(rh *RentHouse) {
		_ = rh.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithTransferer sets the payout rail used by Withdraw.
func WithTransferer(t escrow.Transferer) Option {
	return func(rh *RentHouse) {
		rh.bank = t
	}
}

// Start migrates the store and initializes plugins.
func (rh *RentHouse) Start(ctx context.Context) error {
	if err := rh.store.Migrate(ctx); err != nil {
		return err
	}

	// A payout provider plugin overrides the default bank.
	for _, p := range rh.plugins.PayoutProviders() {
		if t, ok := p.Transferer().(escrow.Transferer); ok {
			rh.bank = t
		}
	}

	rh.plugins.EmitInit(ctx, rh)

	rh.logger.Info("renthouse ledger started")

	return nil
}

// Stop shuts down the ledger.
func (rh *RentHouse) Stop() error {
	rh.plugins.EmitShutdown(context.Background())
	return rh.store.Close()
}

// ──────────────────────────────────────────────────
// Property registry
// ──────────────────────────────────────────────────

// ListProperty stores a new active property owned by owner and returns
// its sequentially assigned id. A zero nightly price is permitted (a free
// listing); a negative one is not.
func (rh *RentHouse) ListProperty(ctx context.Context, owner, name, description string, pricePerNight types.Money) (int64, error) {
	if owner == "" {
		return 0, ValidationError{Field: "owner", Message: "must not be empty"}
	}
	if pricePerNight.IsNegative() {
		return 0, fmt.Errorf("price %s: %w", pricePerNight, ErrInvalidPrice)
	}

	p := &property.Property{
		Entity:        types.NewEntity(),
		Owner:         owner,
		Name:          name,
		Description:   description,
		PricePerNight: pricePerNight,
		Active:        true,
	}

	propID, err := rh.store.CreateProperty(ctx, p)
	if err != nil {
		return 0, err
	}
	p.ID = propID

	rh.plugins.EmitPropertyListed(ctx, p)

	rh.logger.Info("property listed",
		"property_id", propID,
		"owner", owner,
		"price_per_night", pricePerNight.String(),
	)

	return propID, nil
}

// DeactivateProperty sets the property's active flag to false, which
// blocks new bookings; existing bookings are unaffected. Only the owner
// may deactivate. Deactivating an already inactive property is a no-op,
// not an error, so retried calls stay commutative. Reactivation is not
// supported: the flag flips one way.
func (rh *RentHouse) DeactivateProperty(ctx context.Context, caller string, propertyID int64) error {
	unlock := rh.locks.lock(propertyID)
	defer unlock()

	p, err := rh.store.GetProperty(ctx, propertyID)
	if err != nil {
		return err
	}
	if !p.OwnedBy(caller) {
		return fmt.Errorf("property %d: %w", propertyID, ErrNotOwner)
	}
	if !p.Active {
		return nil
	}

	if err := rh.store.DeactivateProperty(ctx, propertyID); err != nil {
		return err
	}

	rh.plugins.EmitPropertyDeactivated(ctx, propertyID)

	rh.logger.Info("property deactivated", "property_id", propertyID)

	return nil
}

// GetProperty retrieves a property by id.
func (rh *RentHouse) GetProperty(ctx context.Context, propertyID int64) (*property.Property, error) {
	return rh.store.GetProperty(ctx, propertyID)
}

// ListProperties retrieves properties matching the filter options.
func (rh *RentHouse) ListProperties(ctx context.Context, opts property.ListOpts) ([]*property.Property, error) {
	return rh.store.ListProperties(ctx, opts)
}

// PropertyCount returns the number of properties ever listed, which is
// also the highest assigned property id.
func (rh *RentHouse) PropertyCount(ctx context.Context) (int64, error) {
	return rh.store.PropertyCount(ctx)
}

// ──────────────────────────────────────────────────
// Booking ledger
// ──────────────────────────────────────────────────

// BookProperty reserves the half-open date range [checkin, checkout) on
// the property for caller, against exact payment of
// pricePerNight * (checkout - checkin). Underpayment fails with
// ErrInsufficientPayment; overpayment is rejected outright with
// ErrExcessPayment rather than tracked as credit. The conflict check and
// the insert run atomically under the property's lock, so two racing
// bookings for overlapping dates can never both succeed.
func (rh *RentHouse) BookProperty(ctx context.Context, caller string, propertyID, checkin, checkout int64, amountSent types.Money) (int64, error) {
	if caller == "" {
		return 0, ValidationError{Field: "caller", Message: "must not be empty"}
	}

	unlock := rh.locks.lock(propertyID)
	defer unlock()

	bookingID, err := rh.book(ctx, caller, propertyID, checkin, checkout, amountSent)
	if err != nil {
		rh.plugins.EmitBookingRejected(ctx, propertyID, err)
		return 0, err
	}
	return bookingID, nil
}

func (rh *RentHouse) book(ctx context.Context, caller string, propertyID, checkin, checkout int64, amountSent types.Money) (int64, error) {
	p, err := rh.store.GetProperty(ctx, propertyID)
	if err != nil {
		return 0, err
	}
	if !p.Active {
		return 0, fmt.Errorf("property %d: %w", propertyID, ErrPropertyNotActive)
	}

	stay := booking.DateRange{Checkin: checkin, Checkout: checkout}
	if !stay.Valid() {
		return 0, fmt.Errorf("[%d, %d): %w", checkin, checkout, ErrInvalidDateRange)
	}

	required := p.TotalPrice(stay.Nights())
	if !amountSent.SameCurrency(required) || amountSent.LessThan(required) {
		return 0, fmt.Errorf("sent %s, required %s: %w", amountSent, required, ErrInsufficientPayment)
	}
	if amountSent.GreaterThan(required) {
		return 0, fmt.Errorf("sent %s, required %s: %w", amountSent, required, ErrExcessPayment)
	}

	existing, err := rh.store.BookingsForProperty(ctx, propertyID)
	if err != nil {
		return 0, err
	}
	if conflict := booking.FindConflict(existing, stay); conflict != nil {
		return 0, fmt.Errorf("property %d, booking %d: %w", propertyID, conflict.ID, ErrDateRangeConflict)
	}

	b := &booking.Booking{
		Entity:       types.NewEntity(),
		PropertyID:   propertyID,
		Renter:       caller,
		CheckinDate:  checkin,
		CheckoutDate: checkout,
		AmountPaid:   required,
		Settled:      false,
	}

	bookingID, err := rh.store.CreateBooking(ctx, b)
	if err != nil {
		return 0, err
	}
	b.ID = bookingID

	rh.plugins.EmitBookingCreated(ctx, b)

	rh.logger.Info("property booked",
		"booking_id", bookingID,
		"property_id", propertyID,
		"renter", caller,
		"checkin", checkin,
		"checkout", checkout,
		"amount_paid", required.String(),
	)

	return bookingID, nil
}

// GetBooking retrieves a booking by id.
func (rh *RentHouse) GetBooking(ctx context.Context, bookingID int64) (*booking.Booking, error) {
	return rh.store.GetBooking(ctx, bookingID)
}

// UnsettledBookings returns the property's unsettled bookings in
// ascending id order.
func (rh *RentHouse) UnsettledBookings(ctx context.Context, propertyID int64) ([]*booking.Booking, error) {
	if _, err := rh.store.GetProperty(ctx, propertyID); err != nil {
		return nil, err
	}
	return rh.store.UnsettledBookings(ctx, propertyID)
}

// BookingCount returns the number of bookings ever made, which is also
// the highest assigned booking id.
func (rh *RentHouse) BookingCount(ctx context.Context) (int64, error) {
	return rh.store.BookingCount(ctx)
}

// ──────────────────────────────────────────────────
// Escrow engine
// ──────────────────────────────────────────────────

// EscrowBalance returns the amount currently withdrawable by the
// property's owner: the sum of AmountPaid over its unsettled bookings.
// The balance is derived, never stored independently.
func (rh *RentHouse) EscrowBalance(ctx context.Context, propertyID int64) (types.Money, error) {
	p, err := rh.store.GetProperty(ctx, propertyID)
	if err != nil {
		return types.Money{}, err
	}

	unsettled, err := rh.store.UnsettledBookings(ctx, propertyID)
	if err != nil {
		return types.Money{}, err
	}

	total := types.Zero(p.PricePerNight.Currency)
	for _, b := range unsettled {
		total = total.Add(b.AmountPaid)
	}
	return total, nil
}

// Withdraw settles up to count of the property's oldest unsettled
// bookings (ascending id order) and transfers their summed payments to
// the owner. Fewer than count unsettled bookings is not an error: the
// batch size only bounds per-call work. With nothing unsettled it fails
// with ErrNothingToWithdraw.
//
// Bookings are marked settled BEFORE the external transfer is attempted.
// If the transfer then fails, they stay settled and the error surfaces
// wrapped in ErrTransferFailed; a retried transfer must never double-pay
// out of escrow. Callers needing exactly-once payout reconcile on top
// using the persisted receipts.
func (rh *RentHouse) Withdraw(ctx context.Context, caller string, propertyID int64, count int) (types.Money, error) {
	if count <= 0 {
		return types.Money{}, fmt.Errorf("count %d: %w", count, ErrInvalidInput)
	}

	unlock := rh.locks.lock(propertyID)
	defer unlock()

	p, err := rh.store.GetProperty(ctx, propertyID)
	if err != nil {
		return types.Money{}, err
	}
	if !p.OwnedBy(caller) {
		return types.Money{}, fmt.Errorf("property %d: %w", propertyID, ErrNotOwner)
	}

	unsettled, err := rh.store.UnsettledBookings(ctx, propertyID)
	if err != nil {
		return types.Money{}, err
	}
	if count < len(unsettled) {
		unsettled = unsettled[:count]
	}

	total := types.Zero(p.PricePerNight.Currency)
	bookingIDs := make([]int64, 0, len(unsettled))
	for _, b := range unsettled {
		total = total.Add(b.AmountPaid)
		bookingIDs = append(bookingIDs, b.ID)
	}
	if total.IsZero() {
		return types.Money{}, fmt.Errorf("property %d: %w", propertyID, ErrNothingToWithdraw)
	}

	// Settle first. See the doc comment: the transfer below may fail or
	// be retried, and settled bookings are what prevents double-payout.
	if err := rh.store.MarkSettled(ctx, bookingIDs); err != nil {
		return types.Money{}, err
	}

	if err := rh.bank.Transfer(ctx, p.Owner, total); err != nil {
		rh.plugins.EmitTransferFailed(ctx, propertyID, p.Owner, err)
		rh.logger.Error("payout failed after settling bookings",
			"property_id", propertyID,
			"recipient", p.Owner,
			"amount", total.String(),
			"booking_ids", bookingIDs,
			"error", err,
		)
		return types.Money{}, fmt.Errorf("property %d: %v: %w", propertyID, err, ErrTransferFailed)
	}

	receipt := escrow.NewReceipt(propertyID, p.Owner, total, bookingIDs)
	if err := rh.store.CreateReceipt(ctx, receipt); err != nil {
		// Funds already moved; losing the receipt is log-worthy but must
		// not fail the withdrawal.
		rh.logger.Warn("failed to persist withdrawal receipt",
			"receipt_id", receipt.ID.String(),
			"property_id", propertyID,
			"error", err,
		)
	}

	rh.plugins.EmitWithdrawalCompleted(ctx, receipt)

	rh.logger.Info("withdrawal completed",
		"receipt_id", receipt.ID.String(),
		"property_id", propertyID,
		"recipient", p.Owner,
		"amount", total.String(),
		"bookings_settled", len(bookingIDs),
	)

	return total, nil
}

// Receipts returns the property's withdrawal receipts.
func (rh *RentHouse) Receipts(ctx context.Context, propertyID int64) ([]*escrow.Receipt, error) {
	if _, err := rh.store.GetProperty(ctx, propertyID); err != nil {
		return nil, err
	}
	return rh.store.ReceiptsForProperty(ctx, propertyID)
}

// ──────────────────────────────────────────────────
// Per-property locking
// ──────────────────────────────────────────────────

// propertyLocks serializes mutating operations per property. Locks are
// created on first use and kept for the process lifetime; the property
// set is append-only so there is nothing to evict.
type propertyLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func (pl *propertyLocks) lock(propertyID int64) (unlock func()) {
	pl.mu.Lock()
	if pl.locks == nil {
		pl.locks = make(map[int64]*sync.Mutex)
	}
	l, ok := pl.locks[propertyID]
	if !ok {
		l = &sync.Mutex{}
		pl.locks[propertyID] = l
	}
	pl.mu.Unlock()

	l.Lock()
	return l.Unlock
}
