// Package postgres implements store.Store on PostgreSQL via pgx.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	renthouse "github.com/IbrahimGhasia/Decentralized-Renting-House-Backend"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/booking"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/escrow"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/id"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/property"
	rhstore "github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/store"
)

// compile-time interface check
var _ rhstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to the database at databaseURL and returns the store.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("renthouse/postgres: connect: %w", err)
	}
	return &Store{pool: pool}, nil
}

// NewWithPool wraps an existing connection pool.
func NewWithPool(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Pool returns the underlying connection pool for direct access.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// Migrate creates the required tables and indexes, recording applied
// versions so it can run on every start.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS renthouse_migrations (
    version    TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`); err != nil {
		return fmt.Errorf("renthouse/postgres: %v: %w", err, renthouse.ErrMigrationFailed)
	}

	for _, m := range migrations {
		var exists int
		err := s.pool.QueryRow(ctx,
			`SELECT COUNT(1) FROM renthouse_migrations WHERE version = $1`, m.Version,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("renthouse/postgres: %v: %w", err, renthouse.ErrMigrationFailed)
		}
		if exists > 0 {
			continue
		}

		if _, err := s.pool.Exec(ctx, m.Up); err != nil {
			return fmt.Errorf("renthouse/postgres: %s: %v: %w", m.Name, err, renthouse.ErrMigrationFailed)
		}
		if _, err := s.pool.Exec(ctx,
			`INSERT INTO renthouse_migrations (version, name) VALUES ($1, $2)`, m.Version, m.Name,
		); err != nil {
			return fmt.Errorf("renthouse/postgres: %s: %v: %w", m.Name, err, renthouse.ErrMigrationFailed)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// ==================== Property Store ====================

func (s *Store) CreateProperty(ctx context.Context, p *property.Property) (int64, error) {
	var propID int64
	err := s.pool.QueryRow(ctx, `
INSERT INTO renthouse_properties (owner_id, name, description, price_amount, price_currency, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id`,
		p.Owner, p.Name, p.Description,
		p.PricePerNight.Amount, p.PricePerNight.Currency,
		p.Active, p.CreatedAt, p.UpdatedAt,
	).Scan(&propID)
	if err != nil {
		return 0, err
	}
	return propID, nil
}

func (s *Store) GetProperty(ctx context.Context, propertyID int64) (*property.Property, error) {
	row := s.pool.QueryRow(ctx, `
SELECT id, owner_id, name, description, price_amount, price_currency, active, created_at, updated_at
FROM renthouse_properties WHERE id = $1`, propertyID)

	p, err := scanProperty(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, renthouse.ErrPropertyNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *Store) ListProperties(ctx context.Context, opts property.ListOpts) ([]*property.Property, error) {
	query := `
SELECT id, owner_id, name, description, price_amount, price_currency, active, created_at, updated_at
FROM renthouse_properties WHERE 1=1`
	args := make([]any, 0, 4)

	if opts.Owner != "" {
		args = append(args, opts.Owner)
		query += fmt.Sprintf(` AND owner_id = $%d`, len(args))
	}
	if opts.ActiveOnly {
		query += ` AND active`
	}
	query += ` ORDER BY id ASC`
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*property.Property, 0)
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (s *Store) DeactivateProperty(ctx context.Context, propertyID int64) error {
	tag, err := s.pool.Exec(ctx, `
UPDATE renthouse_properties SET active = FALSE, updated_at = $1 WHERE id = $2`,
		time.Now().UTC(), propertyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return renthouse.ErrPropertyNotFound
	}
	return nil
}

func (s *Store) PropertyCount(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(id), 0) FROM renthouse_properties`,
	).Scan(&count)
	return count, err
}

// ==================== Booking Store ====================

func (s *Store) CreateBooking(ctx context.Context, b *booking.Booking) (int64, error) {
	var bookingID int64
	err := s.pool.QueryRow(ctx, `
INSERT INTO renthouse_bookings (property_id, renter, checkin_date, checkout_date, amount_paid, amount_currency, settled, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id`,
		b.PropertyID, b.Renter, b.CheckinDate, b.CheckoutDate,
		b.AmountPaid.Amount, b.AmountPaid.Currency,
		b.Settled, b.CreatedAt, b.UpdatedAt,
	).Scan(&bookingID)
	if err != nil {
		// The FK on property_id rejects bookings for unknown properties.
		if isForeignKeyViolation(err) {
			return 0, renthouse.ErrPropertyNotFound
		}
		return 0, err
	}
	return bookingID, nil
}

func (s *Store) GetBooking(ctx context.Context, bookingID int64) (*booking.Booking, error) {
	row := s.pool.QueryRow(ctx, `
SELECT id, property_id, renter, checkin_date, checkout_date, amount_paid, amount_currency, settled, created_at, updated_at
FROM renthouse_bookings WHERE id = $1`, bookingID)

	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, renthouse.ErrBookingNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *Store) BookingsForProperty(ctx context.Context, propertyID int64) ([]*booking.Booking, error) {
	return s.queryBookings(ctx, `
SELECT id, property_id, renter, checkin_date, checkout_date, amount_paid, amount_currency, settled, created_at, updated_at
FROM renthouse_bookings WHERE property_id = $1 ORDER BY id ASC`, propertyID)
}

func (s *Store) UnsettledBookings(ctx context.Context, propertyID int64) ([]*booking.Booking, error) {
	return s.queryBookings(ctx, `
SELECT id, property_id, renter, checkin_date, checkout_date, amount_paid, amount_currency, settled, created_at, updated_at
FROM renthouse_bookings WHERE property_id = $1 AND NOT settled ORDER BY id ASC`, propertyID)
}

func (s *Store) queryBookings(ctx context.Context, query string, args ...any) ([]*booking.Booking, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*booking.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

func (s *Store) MarkSettled(ctx context.Context, bookingIDs []int64) error {
	if len(bookingIDs) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("renthouse/postgres: %v: %w", err, renthouse.ErrTransactionFailed)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
UPDATE renthouse_bookings SET settled = TRUE, updated_at = $1 WHERE id = ANY($2)`,
		time.Now().UTC(), bookingIDs)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != int64(len(bookingIDs)) {
		return renthouse.ErrBookingNotFound
	}
	return tx.Commit(ctx)
}

func (s *Store) BookingCount(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(id), 0) FROM renthouse_bookings`,
	).Scan(&count)
	return count, err
}

// ==================== Receipt Store ====================

func (s *Store) CreateReceipt(ctx context.Context, r *escrow.Receipt) error {
	bookingIDs, err := json.Marshal(r.BookingIDs)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
INSERT INTO renthouse_receipts (id, property_id, recipient, amount, amount_currency, booking_ids, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		r.ID.String(), r.PropertyID, r.Recipient,
		r.Amount.Amount, r.Amount.Currency,
		bookingIDs, r.CreatedAt, r.UpdatedAt,
	)
	return err
}

func (s *Store) ReceiptsForProperty(ctx context.Context, propertyID int64) ([]*escrow.Receipt, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, property_id, recipient, amount, amount_currency, booking_ids, created_at, updated_at
FROM renthouse_receipts WHERE property_id = $1 ORDER BY created_at ASC`, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*escrow.Receipt, 0)
	for rows.Next() {
		r, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// ==================== Row scanning ====================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProperty(row rowScanner) (*property.Property, error) {
	var p property.Property
	err := row.Scan(
		&p.ID, &p.Owner, &p.Name, &p.Description,
		&p.PricePerNight.Amount, &p.PricePerNight.Currency,
		&p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanBooking(row rowScanner) (*booking.Booking, error) {
	var b booking.Booking
	err := row.Scan(
		&b.ID, &b.PropertyID, &b.Renter,
		&b.CheckinDate, &b.CheckoutDate,
		&b.AmountPaid.Amount, &b.AmountPaid.Currency,
		&b.Settled, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func scanReceipt(row rowScanner) (*escrow.Receipt, error) {
	var (
		r           escrow.Receipt
		rawID       string
		rawBookings []byte
	)
	err := row.Scan(
		&rawID, &r.PropertyID, &r.Recipient,
		&r.Amount.Amount, &r.Amount.Currency,
		&rawBookings, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rid, err := id.ParseWithPrefix(rawID, id.PrefixReceipt)
	if err != nil {
		return nil, err
	}
	r.ID = rid

	if err := json.Unmarshal(rawBookings, &r.BookingIDs); err != nil {
		return nil, err
	}
	return &r, nil
}

// isForeignKeyViolation reports whether err is a Postgres 23503 error.
func isForeignKeyViolation(err error) bool {
	var pgErr interface{ SQLState() string }
	return errors.As(err, &pgErr) && pgErr.SQLState() == "23503"
}
