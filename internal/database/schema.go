package database

// The CHECK on available_tickets is the last line of defence against oversell;
// the inventory guard's conditional UPDATE never relies on it.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	full_name     TEXT NOT NULL,
	role          TEXT NOT NULL DEFAULT 'attendee',
	phone_number  TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS categories (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL UNIQUE,
	icon        TEXT NOT NULL DEFAULT '',
	event_count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS events (
	id                TEXT PRIMARY KEY,
	organizer_id      TEXT NOT NULL,
	title             TEXT NOT NULL,
	description       TEXT NOT NULL DEFAULT '',
	image_url         TEXT NOT NULL DEFAULT '',
	location          TEXT NOT NULL,
	start_date        TIMESTAMPTZ NOT NULL,
	end_date          TIMESTAMPTZ NOT NULL,
	category          TEXT NOT NULL,
	total_tickets     INTEGER NOT NULL CHECK (total_tickets > 0),
	available_tickets INTEGER NOT NULL,
	ticket_price      NUMERIC(10, 2) NOT NULL CHECK (ticket_price >= 0),
	is_featured       BOOLEAN NOT NULL DEFAULT false,
	status            TEXT NOT NULL DEFAULT 'active',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	CHECK (available_tickets >= 0 AND available_tickets <= total_tickets)
);

CREATE INDEX IF NOT EXISTS events_organizer_idx ON events (organizer_id);
CREATE INDEX IF NOT EXISTS events_category_idx ON events (category);

CREATE TABLE IF NOT EXISTS tickets (
	id            TEXT PRIMARY KEY,
	event_id      TEXT NOT NULL,
	user_id       TEXT NOT NULL,
	quantity      INTEGER NOT NULL CHECK (quantity >= 1),
	total_amount  NUMERIC(10, 2) NOT NULL,
	purchase_date TIMESTAMPTZ NOT NULL DEFAULT now(),
	status        TEXT NOT NULL DEFAULT 'valid'
);

CREATE INDEX IF NOT EXISTS tickets_event_idx ON tickets (event_id);
CREATE INDEX IF NOT EXISTS tickets_user_idx ON tickets (user_id);

CREATE TABLE IF NOT EXISTS payments (
	id                  TEXT PRIMARY KEY,
	user_id             TEXT NOT NULL,
	ticket_id           TEXT,
	booking_id          TEXT NOT NULL DEFAULT '',
	provider_order_id   TEXT NOT NULL,
	provider_payment_id TEXT NOT NULL DEFAULT '',
	amount              NUMERIC(10, 2) NOT NULL,
	currency            TEXT NOT NULL DEFAULT 'INR',
	status              TEXT NOT NULL,
	payment_date        TIMESTAMPTZ NOT NULL DEFAULT now()
);

ALTER TABLE payments ADD COLUMN IF NOT EXISTS booking_id TEXT NOT NULL DEFAULT '';

CREATE UNIQUE INDEX IF NOT EXISTS payments_order_idx ON payments (provider_order_id);
CREATE INDEX IF NOT EXISTS payments_user_idx ON payments (user_id);
`
