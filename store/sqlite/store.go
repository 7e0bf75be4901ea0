// Package sqlite implements store.Store on SQLite via the pure-Go
// modernc.org/sqlite driver, so no cgo is required.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	renthouse "github.com/IbrahimGhasia/Decentralized-Renting-House-Backend"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/booking"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/escrow"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/id"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/property"
	rhstore "github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/store"
)

// compile-time interface check
var _ rhstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at path. Use ":memory:" for
// an ephemeral database. Foreign keys and the WAL journal are enabled.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("renthouse/sqlite: open %s: %w", path, err)
	}

	// modernc's driver is not safe for concurrent writes over multiple
	// connections; serialize at the pool level.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode = WAL; PRAGMA foreign_keys = ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("renthouse/sqlite: set pragmas: %w", err)
	}

	return &Store{db: db}, nil
}

// DB returns the underlying database handle for direct access.
func (s *Store) DB() *sql.DB { return s.db }

// Migrate creates the required tables and indexes, recording applied
// versions so it can run on every start.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS renthouse_migrations (
    version    TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    applied_at TEXT NOT NULL DEFAULT (datetime('now'))
);`); err != nil {
		return fmt.Errorf("renthouse/sqlite: %v: %w", err, renthouse.ErrMigrationFailed)
	}

	for _, m := range migrations {
		var exists int
		err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM renthouse_migrations WHERE version = ?`, m.Version,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("renthouse/sqlite: %v: %w", err, renthouse.ErrMigrationFailed)
		}
		if exists > 0 {
			continue
		}

		if _, err := s.db.ExecContext(ctx, m.Up); err != nil {
			return fmt.Errorf("renthouse/sqlite: %s: %v: %w", m.Name, err, renthouse.ErrMigrationFailed)
		}
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO renthouse_migrations (version, name) VALUES (?, ?)`, m.Version, m.Name,
		); err != nil {
			return fmt.Errorf("renthouse/sqlite: %s: %v: %w", m.Name, err, renthouse.ErrMigrationFailed)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Property Store ====================

func (s *Store) CreateProperty(ctx context.Context, p *property.Property) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
INSERT INTO renthouse_properties (owner, name, description, price_amount, price_currency, active, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Owner, p.Name, p.Description,
		p.PricePerNight.Amount, p.PricePerNight.Currency,
		boolToInt(p.Active),
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) GetProperty(ctx context.Context, propertyID int64) (*property.Property, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, owner, name, description, price_amount, price_currency, active, created_at, updated_at
FROM renthouse_properties WHERE id = ?`, propertyID)

	p, err := scanProperty(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, renthouse.ErrPropertyNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *Store) ListProperties(ctx context.Context, opts property.ListOpts) ([]*property.Property, error) {
	query := `
SELECT id, owner, name, description, price_amount, price_currency, active, created_at, updated_at
FROM renthouse_properties WHERE 1=1`
	args := make([]any, 0, 4)

	if opts.Owner != "" {
		query += ` AND owner = ?`
		args = append(args, opts.Owner)
	}
	if opts.ActiveOnly {
		query += ` AND active = 1`
	}
	query += ` ORDER BY id ASC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}
	if opts.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
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
	res, err := s.db.ExecContext(ctx, `
UPDATE renthouse_properties SET active = 0, updated_at = ? WHERE id = ?`,
		formatTime(time.Now().UTC()), propertyID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return renthouse.ErrPropertyNotFound
	}
	return nil
}

func (s *Store) PropertyCount(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(id), 0) FROM renthouse_properties`,
	).Scan(&count)
	return count, err
}

// ==================== Booking Store ====================

func (s *Store) CreateBooking(ctx context.Context, b *booking.Booking) (int64, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM renthouse_properties WHERE id = ?`, b.PropertyID,
	).Scan(&exists)
	if err != nil {
		return 0, err
	}
	if exists == 0 {
		return 0, renthouse.ErrPropertyNotFound
	}

	res, err := s.db.ExecContext(ctx, `
INSERT INTO renthouse_bookings (property_id, renter, checkin_date, checkout_date, amount_paid, amount_currency, settled, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.PropertyID, b.Renter, b.CheckinDate, b.CheckoutDate,
		b.AmountPaid.Amount, b.AmountPaid.Currency,
		boolToInt(b.Settled),
		formatTime(b.CreatedAt), formatTime(b.UpdatedAt),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) GetBooking(ctx context.Context, bookingID int64) (*booking.Booking, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, property_id, renter, checkin_date, checkout_date, amount_paid, amount_currency, settled, created_at, updated_at
FROM renthouse_bookings WHERE id = ?`, bookingID)

	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, renthouse.ErrBookingNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *Store) BookingsForProperty(ctx context.Context, propertyID int64) ([]*booking.Booking, error) {
	return s.queryBookings(ctx, `
SELECT id, property_id, renter, checkin_date, checkout_date, amount_paid, amount_currency, settled, created_at, updated_at
FROM renthouse_bookings WHERE property_id = ? ORDER BY id ASC`, propertyID)
}

func (s *Store) UnsettledBookings(ctx context.Context, propertyID int64) ([]*booking.Booking, error) {
	return s.queryBookings(ctx, `
SELECT id, property_id, renter, checkin_date, checkout_date, amount_paid, amount_currency, settled, created_at, updated_at
FROM renthouse_bookings WHERE property_id = ? AND settled = 0 ORDER BY id ASC`, propertyID)
}

func (s *Store) queryBookings(ctx context.Context, query string, args ...any) ([]*booking.Booking, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
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

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("renthouse/sqlite: %v: %w", err, renthouse.ErrTransactionFailed)
	}
	defer tx.Rollback()

	now := formatTime(time.Now().UTC())
	for _, bid := range bookingIDs {
		res, err := tx.ExecContext(ctx,
			`UPDATE renthouse_bookings SET settled = 1, updated_at = ? WHERE id = ?`, now, bid)
		if err != nil {
			return err
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return renthouse.ErrBookingNotFound
		}
	}
	return tx.Commit()
}

func (s *Store) BookingCount(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
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

	_, err = s.db.ExecContext(ctx, `
INSERT INTO renthouse_receipts (id, property_id, recipient, amount, amount_currency, booking_ids, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID.String(), r.PropertyID, r.Recipient,
		r.Amount.Amount, r.Amount.Currency,
		string(bookingIDs),
		formatTime(r.CreatedAt), formatTime(r.UpdatedAt),
	)
	return err
}

func (s *Store) ReceiptsForProperty(ctx context.Context, propertyID int64) ([]*escrow.Receipt, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, property_id, recipient, amount, amount_currency, booking_ids, created_at, updated_at
FROM renthouse_receipts WHERE property_id = ? ORDER BY created_at ASC`, propertyID)
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
	var (
		p                    property.Property
		active               int
		createdAt, updatedAt string
	)
	err := row.Scan(
		&p.ID, &p.Owner, &p.Name, &p.Description,
		&p.PricePerNight.Amount, &p.PricePerNight.Currency,
		&active, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Active = active != 0
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

func scanBooking(row rowScanner) (*booking.Booking, error) {
	var (
		b                    booking.Booking
		settled              int
		createdAt, updatedAt string
	)
	err := row.Scan(
		&b.ID, &b.PropertyID, &b.Renter,
		&b.CheckinDate, &b.CheckoutDate,
		&b.AmountPaid.Amount, &b.AmountPaid.Currency,
		&settled, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Settled = settled != 0
	b.CreatedAt = parseTime(createdAt)
	b.UpdatedAt = parseTime(updatedAt)
	return &b, nil
}

func scanReceipt(row rowScanner) (*escrow.Receipt, error) {
	var (
		r                    escrow.Receipt
		rawID, rawBookings   string
		createdAt, updatedAt string
	)
	err := row.Scan(
		&rawID, &r.PropertyID, &r.Recipient,
		&r.Amount.Amount, &r.Amount.Currency,
		&rawBookings, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	rid, err := id.ParseWithPrefix(rawID, id.PrefixReceipt)
	if err != nil {
		return nil, err
	}
	r.ID = rid

	if err := json.Unmarshal([]byte(rawBookings), &r.BookingIDs); err != nil {
		return nil, err
	}
	r.CreatedAt = parseTime(createdAt)
	r.UpdatedAt = parseTime(updatedAt)
	return &r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
