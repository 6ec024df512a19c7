package sqlite

import "database/sql"

const schemaVersion = 1

const schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS market_prices (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    commodity      TEXT NOT NULL,
    mandi_name     TEXT NOT NULL DEFAULT '',
    mandi_district TEXT NOT NULL DEFAULT '',
    mandi_state    TEXT NOT NULL DEFAULT '',
    modal_price    REAL NOT NULL,
    min_price      REAL NOT NULL DEFAULT 0,
    max_price      REAL NOT NULL DEFAULT 0,
    price_unit     TEXT NOT NULL DEFAULT 'quintal',
    price_date     DATE NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_prices_commodity ON market_prices(commodity);
CREATE INDEX IF NOT EXISTS idx_prices_date ON market_prices(price_date DESC);

CREATE TABLE IF NOT EXISTS govt_schemes (
    id                   INTEGER PRIMARY KEY AUTOINCREMENT,
    scheme_name          TEXT NOT NULL,
    ministry             TEXT NOT NULL DEFAULT '',
    description          TEXT NOT NULL DEFAULT '',
    benefits             TEXT NOT NULL DEFAULT '',
    eligibility_criteria TEXT NOT NULL DEFAULT '',
    application_url      TEXT NOT NULL DEFAULT '',
    valid_until          TEXT NOT NULL DEFAULT '',
    is_active            INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_schemes_active ON govt_schemes(is_active);
`

func runMigrations(db *sql.DB) error {
	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return err
	}

	// Check current version
	var current int
	row := db.QueryRow("SELECT version FROM schema_version LIMIT 1")
	if err := row.Scan(&current); err != nil {
		// Table doesn't exist or is empty — run initial schema
		current = 0
	}

	if current >= schemaVersion {
		return nil
	}

	if current < 1 {
		if _, err := db.Exec(schemaV1); err != nil {
			return err
		}
	}

	// Upsert schema version
	_, err := db.Exec(`
		DELETE FROM schema_version;
		INSERT INTO schema_version (version) VALUES (?)`, schemaVersion)
	return err
}
