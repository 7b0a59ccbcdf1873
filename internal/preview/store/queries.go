package store

const cardColumns = `id, slug, full_name, title, company, location, photo_url, layout,
	ballot_number, party, office, region, election_year, slogan`

const (
	queryCardBySlug = `SELECT ` + cardColumns + `
	FROM cards
	WHERE slug = $1 AND is_published = TRUE
	LIMIT 1`

	queryCardByID = `SELECT ` + cardColumns + `
	FROM cards
	WHERE id = $1 AND is_published = TRUE
	LIMIT 1`

	queryCardIDByDomain = `SELECT card_id
	FROM custom_domains
	WHERE domain = $1
	LIMIT 1`

	queryEngagementCount = `SELECT COUNT(*)
	FROM card_signals
	WHERE card_id = $1`
)

// SQLiteSchema creates the read model used by local development and the
// end-to-end tests. Production runs against the managed Postgres schema.
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS cards (
	id            TEXT PRIMARY KEY,
	slug          TEXT NOT NULL UNIQUE,
	full_name     TEXT,
	title         TEXT,
	company       TEXT,
	location      TEXT,
	photo_url     TEXT,
	layout        TEXT,
	ballot_number TEXT,
	party         TEXT,
	office        TEXT,
	region        TEXT,
	election_year TEXT,
	slogan        TEXT,
	is_published  BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS custom_domains (
	domain  TEXT PRIMARY KEY,
	card_id TEXT NOT NULL REFERENCES cards(id)
);

CREATE TABLE IF NOT EXISTS card_signals (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	card_id    TEXT NOT NULL REFERENCES cards(id),
	created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_card_signals_card_id ON card_signals(card_id);
`
