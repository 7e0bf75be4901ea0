// Package memory provides an in-memory store, suitable for tests and
// single-process embedding. All records live behind one RWMutex; the
// sequential id counters are advanced under the write lock, so ids are
// gap-free even under concurrent creates.
package memory

import (
	"context"
	"sort"
	"sync"

	renthouse "github.com/IbrahimGhasia/Decentralized-Renting-House-Backend"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/booking"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/escrow"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/property"
	rhstore "github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/store"
)

var _ rhstore.Store = (*Store)(nil)

type Store struct {
	mu sync.RWMutex

	// Property storage
	properties   map[int64]*property.Property
	nextProperty int64

	// Booking storage
	bookings    map[int64]*booking.Booking
	nextBooking int64

	// Receipt storage, per property
	receipts map[int64][]*escrow.Receipt

	closed bool
}

func New() *Store {
	return &Store{
		properties:   make(map[int64]*property.Property),
		nextProperty: 1,
		bookings:     make(map[int64]*booking.Booking),
		nextBooking:  1,
		receipts:     make(map[int64][]*escrow.Receipt),
	}
}

// Property Store implementation

func (s *Store) CreateProperty(_ context.Context, p *property.Property) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, renthouse.ErrStoreClosed
	}

	id := s.nextProperty
	s.nextProperty++

	stored := *p
	stored.ID = id
	s.properties[id] = &stored

	return id, nil
}

func (s *Store) GetProperty(_ context.Context, propertyID int64) (*property.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.properties[propertyID]
	if !ok {
		return nil, renthouse.ErrPropertyNotFound
	}

	// Copy out so callers cannot mutate ledger state behind the lock.
	clone := *p
	return &clone, nil
}

func (s *Store) ListProperties(_ context.Context, opts property.ListOpts) ([]*property.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*property.Property, 0)
	for _, p := range s.properties {
		if opts.Owner != "" && p.Owner != opts.Owner {
			continue
		}
		if opts.ActiveOnly && !p.Active {
			continue
		}
		clone := *p
		result = append(result, &clone)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	// Apply limit/offset. Zero or negative values mean unset.
	start := opts.Offset
	if start < 0 {
		start = 0
	}
	if start > len(result) {
		start = len(result)
	}
	end := start + opts.Limit
	if opts.Limit <= 0 || end > len(result) {
		end = len(result)
	}

	return result[start:end], nil
}

func (s *Store) DeactivateProperty(_ context.Context, propertyID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.properties[propertyID]
	if !ok {
		return renthouse.ErrPropertyNotFound
	}
	p.Active = false
	p.Touch()
	return nil
}

func (s *Store) PropertyCount(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextProperty - 1, nil
}

// Booking Store implementation

func (s *Store) CreateBooking(_ context.Context, b *booking.Booking) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, renthouse.ErrStoreClosed
	}
	if _, ok := s.properties[b.PropertyID]; !ok {
		return 0, renthouse.ErrPropertyNotFound
	}

	id := s.nextBooking
	s.nextBooking++

	stored := *b
	stored.ID = id
	s.bookings[id] = &stored

	return id, nil
}

func (s *Store) GetBooking(_ context.Context, bookingID int64) (*booking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookings[bookingID]
	if !ok {
		return nil, renthouse.ErrBookingNotFound
	}

	clone := *b
	return &clone, nil
}

func (s *Store) BookingsForProperty(_ context.Context, propertyID int64) ([]*booking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bookingsWhere(propertyID, false), nil
}

func (s *Store) UnsettledBookings(_ context.Context, propertyID int64) ([]*booking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bookingsWhere(propertyID, true), nil
}

// bookingsWhere collects the property's bookings in ascending id order.
// Callers hold at least the read lock.
func (s *Store) bookingsWhere(propertyID int64, unsettledOnly bool) []*booking.Booking {
	result := make([]*booking.Booking, 0)
	for _, b := range s.bookings {
		if b.PropertyID != propertyID {
			continue
		}
		if unsettledOnly && b.Settled {
			continue
		}
		clone := *b
		result = append(result, &clone)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (s *Store) MarkSettled(_ context.Context, bookingIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range bookingIDs {
		if _, ok := s.bookings[id]; !ok {
			return renthouse.ErrBookingNotFound
		}
	}
	for _, id := range bookingIDs {
		s.bookings[id].Settled = true
		s.bookings[id].Touch()
	}
	return nil
}

func (s *Store) BookingCount(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextBooking - 1, nil
}

// Receipt Store implementation

func (s *Store) CreateReceipt(_ context.Context, r *escrow.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return renthouse.ErrStoreClosed
	}

	stored := *r
	s.receipts[r.PropertyID] = append(s.receipts[r.PropertyID], &stored)
	return nil
}

func (s *Store) ReceiptsForProperty(_ context.Context, propertyID int64) ([]*escrow.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*escrow.Receipt, 0, len(s.receipts[propertyID]))
	for _, r := range s.receipts[propertyID] {
		clone := *r
		result = append(result, &clone)
	}
	return result, nil
}

// Core methods

func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return renthouse.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
