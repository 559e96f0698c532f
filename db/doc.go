// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database connection and schema creation.

# Opening

Open selects the driver from config and verifies the connection:

	conn, err := db.Open(cfg)

Supported types are "sqlite" (modernc.org/sqlite, the default) and
"postgres" (lib/pq). SQLite connections are capped at one open connection
so concurrent write transactions queue instead of failing.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

The schema includes:

  - season: Season metadata and lifecycle state
  - candidate: Roster entries with vote aggregates
  - week: Voting weeks with state, marks, and snapshot pointer
  - week_nominee: Nominee set per week, ordered by nomination time
  - voter: Voter profiles and share bonus state
  - vote: Immutable vote ledger (only is_valid ever changes)
  - result_snapshot: Frozen week standings

# Relationships

	season 1──* candidate
	season 1──* week
	week *──* candidate (via week_nominee)
	voter 1──* vote
	week 1──* vote
	week 1──* result_snapshot

All foreign keys use ON DELETE CASCADE.

# Indexes

Performance indexes on:

  - season.is_active
  - candidate.season_id, candidate.status
  - week.season_id, week.status, week.(season_id, week_number) (unique)
  - vote.(voter_id, vote_date) — the daily budget recount
  - vote.(week_id, candidate_id) — results tallies

The SQL sticks to the dialect both drivers accept: $1 placeholders,
CURRENT_TIMESTAMP, and TRUE/FALSE boolean literals.
*/
package db
