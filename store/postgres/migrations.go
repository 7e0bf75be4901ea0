package postgres

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
    id              BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    owner_id        TEXT NOT NULL DEFAULT '',
    name            TEXT NOT NULL DEFAULT '',
    description     TEXT NOT NULL DEFAULT '',
    price_amount    BIGINT NOT NULL DEFAULT 0,
    price_currency  TEXT NOT NULL DEFAULT 'USD',
    active          BOOLEAN NOT NULL DEFAULT TRUE,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_renthouse_properties_owner ON renthouse_properties (owner_id);
CREATE INDEX IF NOT EXISTS idx_renthouse_properties_active ON renthouse_properties (active);
`,
	},
	{
		Name:    "create_renthouse_bookings",
		Version: "20240601000002",
		Up: `
CREATE TABLE IF NOT EXISTS renthouse_bookings (
    id              BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    property_id     BIGINT NOT NULL REFERENCES renthouse_properties (id),
    renter          TEXT NOT NULL DEFAULT '',
    checkin_date    BIGINT NOT NULL,
    checkout_date   BIGINT NOT NULL,
    amount_paid     BIGINT NOT NULL DEFAULT 0,
    amount_currency TEXT NOT NULL DEFAULT 'USD',
    settled         BOOLEAN NOT NULL DEFAULT FALSE,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_renthouse_bookings_property ON renthouse_bookings (property_id, id);
CREATE INDEX IF NOT EXISTS idx_renthouse_bookings_unsettled ON renthouse_bookings (property_id, id) WHERE NOT settled;
`,
	},
	{
		Name:    "create_renthouse_receipts",
		Version: "20240601000003",
		Up: `
CREATE TABLE IF NOT EXISTS renthouse_receipts (
    id              TEXT PRIMARY KEY,
    property_id     BIGINT NOT NULL REFERENCES renthouse_properties (id),
    recipient       TEXT NOT NULL DEFAULT '',
    amount          BIGINT NOT NULL DEFAULT 0,
    amount_currency TEXT NOT NULL DEFAULT 'USD',
    booking_ids     JSONB NOT NULL DEFAULT '[]',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_renthouse_receipts_property ON renthouse_receipts (property_id, created_at);
`,
	},
}
