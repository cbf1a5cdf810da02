// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates the schema.

# Connecting

Open picks the driver from the configured database type (modernc.org/sqlite
for "sqlite", lib/pq for "postgres") and pings with exponential backoff:

	conn, err := db.Open(ctx, cfg)

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - poll: Poll metadata, lifecycle state, visibility
  - question: Ordered questions per poll
  - option: Ordered options per question
  - response: One row per answered question
  - result_snapshot: Frozen results written on close

# Relationships

	poll 1──* question 1──* option
	poll 1──* response
	poll 1──* result_snapshot

Queries use $N placeholders, which both drivers accept.

# Timestamps

Timestamps are stored as fixed width RFC 3339 text. Use FormatTime when
writing and ParseTime or ParseNullTime when reading.
*/
package db
