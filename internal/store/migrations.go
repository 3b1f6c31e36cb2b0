package store

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS measurements (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    day TEXT NOT NULL,
    year INTEGER NOT NULL,
    outlet TEXT NOT NULL,
    topic TEXT NOT NULL,
    tone REAL,
    volume REAL,
    UNIQUE (day, outlet, topic)
);

CREATE TABLE IF NOT EXISTS topic_shares (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    day TEXT NOT NULL,
    year INTEGER NOT NULL,
    outlet TEXT NOT NULL,
    topic TEXT NOT NULL,
    volume REAL NOT NULL,
    share REAL NOT NULL,
    UNIQUE (day, outlet, topic)
);

CREATE TABLE IF NOT EXISTS imports (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    imported_at TEXT NOT NULL,
    tone_file TEXT NOT NULL,
    tone_checksum TEXT NOT NULL,
    share_file TEXT NOT NULL,
    share_checksum TEXT NOT NULL,
    measurements INTEGER NOT NULL DEFAULT 0,
    shares INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_measurements_year ON measurements(year);
CREATE INDEX IF NOT EXISTS idx_measurements_outlet_topic ON measurements(outlet, topic, day);
CREATE INDEX IF NOT EXISTS idx_topic_shares_outlet ON topic_shares(outlet, day);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
