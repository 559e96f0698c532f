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

const schema = `
-- Seasons
CREATE TABLE IF NOT EXISTS season (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    year INTEGER NOT NULL,
    start_date TIMESTAMP,
    end_date TIMESTAMP,
    status TEXT NOT NULL DEFAULT 'scheduled' CHECK (status IN ('scheduled', 'active', 'completed')),
    is_active BOOLEAN NOT NULL DEFAULT FALSE,
    default_daily_points INTEGER NOT NULL DEFAULT 60,
    voting_cutoff_time TEXT,
    voting_days TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_season_is_active ON season(is_active);

-- Candidates
CREATE TABLE IF NOT EXISTS candidate (
    id TEXT PRIMARY KEY,
    season_id TEXT NOT NULL REFERENCES season(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    bio TEXT,
    image_url TEXT,
    status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'eliminated', 'winner', 'suspended')),
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    eliminated_week INTEGER,
    eliminated_at TIMESTAMP,
    elimination_reason TEXT,
    total_votes INTEGER NOT NULL DEFAULT 0,
    weekly_votes INTEGER NOT NULL DEFAULT 0,
    times_nominated INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_candidate_season_id ON candidate(season_id);
CREATE INDEX IF NOT EXISTS idx_candidate_status ON candidate(status);

-- Weeks
CREATE TABLE IF NOT EXISTS week (
    id TEXT PRIMARY KEY,
    season_id TEXT NOT NULL REFERENCES season(id) ON DELETE CASCADE,
    week_number INTEGER NOT NULL,
    start_date TIMESTAMP,
    end_date TIMESTAMP,
    voting_start_date TIMESTAMP,
    voting_end_date TIMESTAMP,
    status TEXT NOT NULL DEFAULT 'scheduled' CHECK (status IN ('scheduled', 'active', 'voting', 'completed', 'cancelled')),
    is_voting_active BOOLEAN NOT NULL DEFAULT FALSE,
    eliminated_candidate_id TEXT,
    eliminated_at TIMESTAMP,
    saved_candidate_id TEXT,
    saved_at TIMESTAMP,
    final_snapshot_id TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (season_id, week_number)
);

CREATE INDEX IF NOT EXISTS idx_week_season_id ON week(season_id);
CREATE INDEX IF NOT EXISTS idx_week_status ON week(status);

-- Nominees (ordered by nomination time within a week)
CREATE TABLE IF NOT EXISTS week_nominee (
    week_id TEXT NOT NULL REFERENCES week(id) ON DELETE CASCADE,
    candidate_id TEXT NOT NULL REFERENCES candidate(id) ON DELETE CASCADE,
    nominated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (week_id, candidate_id)
);

CREATE INDEX IF NOT EXISTS idx_week_nominee_week_id ON week_nominee(week_id);

-- Voters
CREATE TABLE IF NOT EXISTS voter (
    id TEXT PRIMARY KEY,
    display_name TEXT,
    default_daily_points INTEGER NOT NULL DEFAULT 60,
    last_share_bonus TIMESTAMP,
    total_votes INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    last_seen_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Votes (immutable fact table; only is_valid ever changes)
CREATE TABLE IF NOT EXISTS vote (
    id TEXT PRIMARY KEY,
    voter_id TEXT NOT NULL REFERENCES voter(id) ON DELETE CASCADE,
    candidate_id TEXT NOT NULL REFERENCES candidate(id) ON DELETE CASCADE,
    season_id TEXT NOT NULL,
    week_id TEXT NOT NULL REFERENCES week(id) ON DELETE CASCADE,
    week_number INTEGER NOT NULL,
    points INTEGER NOT NULL CHECK (points > 0),
    vote_date TIMESTAMP NOT NULL,
    is_valid BOOLEAN NOT NULL DEFAULT TRUE,
    ip_hash TEXT,
    user_agent TEXT
);

CREATE INDEX IF NOT EXISTS idx_vote_voter_date ON vote(voter_id, vote_date);
CREATE INDEX IF NOT EXISTS idx_vote_week_candidate ON vote(week_id, candidate_id);

-- Result Snapshots (frozen week standings)
CREATE TABLE IF NOT EXISTS result_snapshot (
    id TEXT PRIMARY KEY,
    week_id TEXT NOT NULL REFERENCES week(id) ON DELETE CASCADE,
    computed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    payload JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_result_snapshot_week_id ON result_snapshot(week_id);
`
