package sqlite

// migration is one versioned schema step. Applied versions are recorded
// in renthouse_migrations so Migrate is safe to run on every start.
type migration struct {
	Name    string
	Version string
	Up      string
}

var migrations = []migration{
	{
		Name:    "create_renthouse_properties",
		Version: "20240601000001",
		Up: `
CREATE TABLE IF NOT EXISTS renthouse_properties (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    owner           TEXT NOT NULL DEFAULT '',
    name            TEXT NOT NULL DEFAULT '',
    description     TEXT NOT NULL DEFAULT '',
    price_amount    INTEGER NOT NULL DEFAULT 0,
    price_currency  TEXT NOT NULL DEFAULT 'USD',
    active          INTEGER NOT NULL DEFAULT 1,
    created_at      TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at      TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_renthouse_properties_owner ON renthouse_properties (owner);
CREATE INDEX IF NOT EXISTS idx_renthouse_properties_active ON renthouse_properties (active);
`,
	},
	{
		Name:    "create_renthouse_bookings",
		Version: "20240601000002",
		Up: `
CREATE TABLE IF NOT EXISTS renthouse_bookings (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    property_id     INTEGER NOT NULL,
    renter          TEXT NOT NULL DEFAULT '',
    checkin_date    INTEGER NOT NULL,
    checkout_date   INTEGER NOT NULL,
    amount_paid     INTEGER NOT NULL DEFAULT 0,
    amount_currency TEXT NOT NULL DEFAULT 'USD',
    settled         INTEGER NOT NULL DEFAULT 0,
    created_at      TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at      TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_renthouse_bookings_property ON renthouse_bookings (property_id, id);
CREATE INDEX IF NOT EXISTS idx_renthouse_bookings_unsettled ON renthouse_bookings (property_id, settled, id);
`,
	},
	{
		Name:    "create_renthouse_receipts",
		Version: "20240601000003",
		Up: `
CREATE TABLE IF NOT EXISTS renthouse_receipts (
    id              TEXT PRIMARY KEY,
    property_id     INTEGER NOT NULL,
    recipient       TEXT NOT NULL DEFAULT '',
    amount          INTEGER NOT NULL DEFAULT 0,
    amount_currency TEXT NOT NULL DEFAULT 'USD',
    booking_ids     TEXT NOT NULL DEFAULT '[]',
    created_at      TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at      TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_renthouse_receipts_property ON renthouse_receipts (property_id, created_at);
`,
	},
}
