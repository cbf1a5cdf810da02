// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// The schema sticks to types both SQLite and PostgreSQL accept. Timestamps are
// RFC 3339 text written by FormatTime, result payloads are JSON text.
const schema = `
-- Polls
CREATE TABLE IF NOT EXISTS poll (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    creator_name TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'open', 'closed')),
    results_visibility TEXT NOT NULL DEFAULT 'live' CHECK (results_visibility IN ('live', 'sealed')),
    anonymous BOOLEAN NOT NULL DEFAULT FALSE,
    share_slug TEXT UNIQUE,
    closed_at TEXT,
    final_snapshot_id TEXT,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_poll_share_slug ON poll(share_slug);
CREATE INDEX IF NOT EXISTS idx_poll_status ON poll(status);

-- Questions
CREATE TABLE IF NOT EXISTS question (
    id TEXT NOT NULL,
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    text TEXT NOT NULL,
    type TEXT NOT NULL,
    required BOOLEAN NOT NULL DEFAULT FALSE,
    rating_max INTEGER NOT NULL DEFAULT 0,
    follow_up_trigger TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (poll_id, id)
);

CREATE INDEX IF NOT EXISTS idx_question_poll_id ON question(poll_id, position);

-- Options
CREATE TABLE IF NOT EXISTS option (
    id TEXT NOT NULL,
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    question_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    text TEXT NOT NULL,
    color TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (poll_id, question_id, id)
);

CREATE INDEX IF NOT EXISTS idx_option_question ON option(poll_id, question_id, position);

-- Responses
CREATE TABLE IF NOT EXISTS response (
    id TEXT PRIMARY KEY,
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    question_id TEXT NOT NULL,
    voter TEXT NOT NULL DEFAULT '',
    response_data TEXT NOT NULL,
    submitted_at TEXT NOT NULL,
    is_anonymous BOOLEAN NOT NULL DEFAULT FALSE,
    ip_hash TEXT
);

CREATE INDEX IF NOT EXISTS idx_response_poll_id ON response(poll_id, submitted_at);

-- Result Snapshots
CREATE TABLE IF NOT EXISTS result_snapshot (
    id TEXT PRIMARY KEY,
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    computed_at TEXT NOT NULL,
    payload TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_result_snapshot_poll_id ON result_snapshot(poll_id);
`
