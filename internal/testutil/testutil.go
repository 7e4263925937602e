// Package testutil provides shared test helpers. Tests run against a
// throwaway SQLite database with the same table shapes as the production
// schema; the repositories only use portable SQL, so behavior matches the
// MySQL deployment.
package testutil

import (
	"database/sql"
	"os"
	"testing"

	_ "modernc.org/sqlite"
)

// schema mirrors internal/database/migrations for the SQLite dialect used in
// tests. Timestamps are stored as "2006-01-02 15:04:05" UTC strings by the
// repositories, so plain TEXT columns are enough.
const schema = `
CREATE TABLE users (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    username      TEXT NOT NULL,
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'user',
    created_at    TEXT NOT NULL,
    updated_at    TEXT NOT NULL
);

CREATE TABLE shows (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    name            TEXT NOT NULL,
    starts_at       TEXT NOT NULL,
    capacity        INTEGER NOT NULL,
    seats_available INTEGER NOT NULL,
    created_at      TEXT NOT NULL,
    updated_at      TEXT NOT NULL
);

CREATE TABLE reservations (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    show_id        INTEGER NOT NULL,
    user_id        INTEGER NOT NULL,
    seats_reserved INTEGER NOT NULL,
    created_at     TEXT NOT NULL
);

CREATE TABLE refresh_tokens (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id    INTEGER NOT NULL,
    token_hash TEXT NOT NULL UNIQUE,
    expires_at TEXT NOT NULL,
    revoked_at TEXT NULL,
    created_at TEXT NOT NULL
);
`

// TestDB creates a temporary test database with the schema applied.
// Returns the database and a cleanup function that should be deferred.
func TestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "ticketbooth-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		_ = os.Remove(dbPath)
		t.Fatalf("open sqlite: %v", err)
	}
	// A single connection sidesteps SQLITE_BUSY in transactional tests.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		_ = os.Remove(dbPath)
		t.Fatalf("apply schema: %v", err)
	}

	return db, func() {
		_ = db.Close()
		_ = os.Remove(dbPath)
	}
}
