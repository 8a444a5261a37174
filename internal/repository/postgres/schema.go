package postgres

import (
	"database/sql"
	"fmt"
)

// EnsureSchema creates all tables the service needs. Safe to call on every
// startup, all statements are IF NOT EXISTS.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS polls (
    id TEXT PRIMARY KEY,
    creator_id TEXT NOT NULL,
    title TEXT NOT NULL,
    choice_mode TEXT NOT NULL CHECK (choice_mode IN ('single', 'multiple')),
    status TEXT NOT NULL CHECK (status IN ('open', 'closed')),
    closes_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL,
    version BIGINT NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS options (
    id TEXT PRIMARY KEY,
    poll_id TEXT NOT NULL REFERENCES polls(id) ON DELETE CASCADE,
    label TEXT NOT NULL,
    position INT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_options_poll_id ON options(poll_id);

CREATE TABLE IF NOT EXISTS ballots (
    poll_id TEXT NOT NULL REFERENCES polls(id) ON DELETE CASCADE,
    voter_id TEXT NOT NULL,
    cast_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (poll_id, voter_id)
);

CREATE TABLE IF NOT EXISTS ballot_choices (
    poll_id TEXT NOT NULL,
    voter_id TEXT NOT NULL,
    option_id TEXT NOT NULL REFERENCES options(id) ON DELETE CASCADE,
    PRIMARY KEY (poll_id, voter_id, option_id),
    FOREIGN KEY (poll_id, voter_id) REFERENCES ballots(poll_id, voter_id) ON DELETE CASCADE
);
`
