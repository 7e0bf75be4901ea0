package memory

import (
	"context"
	"errors"
	"testing"

	renthouse "github.com/IbrahimGhasia/Decentralized-Renting-House-Backend"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/booking"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/escrow"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/property"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/types"
)

func newProperty(owner string) *property.Property {
	return &property.Property{
		Entity:        types.NewEntity(),
		Owner:         owner,
		Name:          "Test Flat",
		PricePerNight: types.USD(4500),
		Active:        true,
	}
}

func newBooking(propertyID, checkin, checkout int64) *booking.Booking {
	return &booking.Booking{
		Entity:       types.NewEntity(),
		PropertyID:   propertyID,
		Renter:       "bob",
		CheckinDate:  checkin,
		CheckoutDate: checkout,
		AmountPaid:   types.USD(4500 * (checkout - checkin)),
	}
}

func TestSequentialPropertyIDs(t *testing.T) {
	ctx := context.Background()
	s := New()

	for want := int64(1); want <= 3; want++ {
		got, err := s.CreateProperty(ctx, newProperty("alice"))
		if err != nil {
			t.Fatalf("CreateProperty: %v", err)
		}
		if got != want {
			t.Errorf("property id: got %d, want %d", got, want)
		}
	}

	count, err := s.PropertyCount(ctx)
	if err != nil {
		t.Fatalf("PropertyCount: %v", err)
	}
	if count != 3 {
		t.Errorf("PropertyCount: got %d, want 3", count)
	}
}

func TestGetPropertyNotFound(t *testing.T) {
	s := New()
	if _, err := s.GetProperty(context.Background(), 42); !errors.Is(err, renthouse.ErrPropertyNotFound) {
		t.Errorf("expected ErrPropertyNotFound, got %v", err)
	}
}

func TestGetPropertyReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := New()

	propID, _ := s.CreateProperty(ctx, newProperty("alice"))

	p1, _ := s.GetProperty(ctx, propID)
	p1.Active = false

	p2, err := s.GetProperty(ctx, propID)
	if err != nil {
		t.Fatalf("GetProperty: %v", err)
	}
	if !p2.Active {
		t.Error("mutating a returned property leaked into the store")
	}
}

func TestListProperties(t *testing.T) {
	ctx := context.Background()
	s := New()

	id1, _ := s.CreateProperty(ctx, newProperty("alice"))
	id2, _ := s.CreateProperty(ctx, newProperty("bob"))
	id3, _ := s.CreateProperty(ctx, newProperty("alice"))
	if err := s.DeactivateProperty(ctx, id3); err != nil {
		t.Fatalf("DeactivateProperty: %v", err)
	}

	tests := []struct {
		name    string
		opts    property.ListOpts
		wantIDs []int64
	}{
		{"all", property.ListOpts{}, []int64{id1, id2, id3}},
		{"by owner", property.ListOpts{Owner: "alice"}, []int64{id1, id3}},
		{"active only", property.ListOpts{ActiveOnly: true}, []int64{id1, id2}},
		{"owner and active", property.ListOpts{Owner: "alice", ActiveOnly: true}, []int64{id1}},
		{"limit", property.ListOpts{Limit: 2}, []int64{id1, id2}},
		{"offset", property.ListOpts{Offset: 1, Limit: 2}, []int64{id2, id3}},
		{"offset past end", property.ListOpts{Offset: 10}, []int64{}},
		{"negative offset", property.ListOpts{Offset: -1}, []int64{id1, id2, id3}},
		{"negative limit", property.ListOpts{Limit: -1}, []int64{id1, id2, id3}},
		{"negative offset and limit", property.ListOpts{Offset: -3, Limit: -3}, []int64{id1, id2, id3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			props, err := s.ListProperties(ctx, tt.opts)
			if err != nil {
				t.Fatalf("ListProperties: %v", err)
			}
			if len(props) != len(tt.wantIDs) {
				t.Fatalf("got %d properties, want %d", len(props), len(tt.wantIDs))
			}
			for i, p := range props {
				if p.ID != tt.wantIDs[i] {
					t.Errorf("position %d: got id %d, want %d", i, p.ID, tt.wantIDs[i])
				}
			}
		})
	}
}

func TestCreateBookingRequiresProperty(t *testing.T) {
	s := New()
	_, err := s.CreateBooking(context.Background(), newBooking(99, 10, 20))
	if !errors.Is(err, renthouse.ErrPropertyNotFound) {
		t.Errorf("expected ErrPropertyNotFound, got %v", err)
	}
}

func TestBookingsAscendingOrder(t *testing.T) {
	ctx := context.Background()
	s := New()

	propID, _ := s.CreateProperty(ctx, newProperty("alice"))
	for i := int64(0); i < 3; i++ {
		if _, err := s.CreateBooking(ctx, newBooking(propID, i*10, i*10+5)); err != nil {
			t.Fatalf("CreateBooking: %v", err)
		}
	}

	bookings, err := s.BookingsForProperty(ctx, propID)
	if err != nil {
		t.Fatalf("BookingsForProperty: %v", err)
	}
	if len(bookings) != 3 {
		t.Fatalf("got %d bookings, want 3", len(bookings))
	}
	for i, b := range bookings {
		if b.ID != int64(i+1) {
			t.Errorf("position %d: got id %d, want %d", i, b.ID, i+1)
		}
	}
}

func TestMarkSettled(t *testing.T) {
	ctx := context.Background()
	s := New()

	propID, _ := s.CreateProperty(ctx, newProperty("alice"))
	id1, _ := s.CreateBooking(ctx, newBooking(propID, 10, 20))
	id2, _ := s.CreateBooking(ctx, newBooking(propID, 20, 30))

	if err := s.MarkSettled(ctx, []int64{id1}); err != nil {
		t.Fatalf("MarkSettled: %v", err)
	}

	unsettled, err := s.UnsettledBookings(ctx, propID)
	if err != nil {
		t.Fatalf("UnsettledBookings: %v", err)
	}
	if len(unsettled) != 1 || unsettled[0].ID != id2 {
		t.Errorf("unsettled: got %v, want only booking %d", unsettled, id2)
	}

	b, _ := s.GetBooking(ctx, id1)
	if !b.Settled {
		t.Error("booking 1 should be settled")
	}
}

func TestMarkSettledUnknownBooking(t *testing.T) {
	ctx := context.Background()
	s := New()

	propID, _ := s.CreateProperty(ctx, newProperty("alice"))
	id1, _ := s.CreateBooking(ctx, newBooking(propID, 10, 20))

	err := s.MarkSettled(ctx, []int64{id1, 999})
	if !errors.Is(err, renthouse.ErrBookingNotFound) {
		t.Fatalf("expected ErrBookingNotFound, got %v", err)
	}

	// The batch must not apply partially.
	b, _ := s.GetBooking(ctx, id1)
	if b.Settled {
		t.Error("failed batch settled booking 1")
	}
}

func TestReceipts(t *testing.T) {
	ctx := context.Background()
	s := New()

	propID, _ := s.CreateProperty(ctx, newProperty("alice"))

	r := escrow.NewReceipt(propID, "alice", types.USD(45000), []int64{1, 2})
	if err := s.CreateReceipt(ctx, r); err != nil {
		t.Fatalf("CreateReceipt: %v", err)
	}

	receipts, err := s.ReceiptsForProperty(ctx, propID)
	if err != nil {
		t.Fatalf("ReceiptsForProperty: %v", err)
	}
	if len(receipts) != 1 {
		t.Fatalf("got %d receipts, want 1", len(receipts))
	}
	if receipts[0].ID.String() != r.ID.String() {
		t.Errorf("receipt id: got %s, want %s", receipts[0].ID, r.ID)
	}
	if !receipts[0].Amount.Equal(types.USD(45000)) {
		t.Errorf("receipt amount: got %v", receipts[0].Amount)
	}
}

func TestClosedStore(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := s.CreateProperty(ctx, newProperty("alice")); !errors.Is(err, renthouse.ErrStoreClosed) {
		t.Errorf("CreateProperty after close: got %v, want ErrStoreClosed", err)
	}
	if err := s.Ping(ctx); !errors.Is(err, renthouse.ErrStoreClosed) {
		t.Errorf("Ping after close: got %v, want ErrStoreClosed", err)
	}
}
