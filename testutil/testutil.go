// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/danielhkuo/house-points/auth"
	"github.com/danielhkuo/house-points/cliparse"
	appdb "github.com/danielhkuo/house-points/db"
	"github.com/danielhkuo/house-points/models"
)

// SetupTestDB creates a fresh SQLite database in the test's temp dir with
// the full schema. Each test gets its own file, cleaned up automatically.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "house_points_test.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// SQLite allows one writer; a single connection avoids lock errors
	db.SetMaxOpenConns(1)

	if err := appdb.CreateSchema(db); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return db
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:             3319,
		DatabaseURL:      "test.db",
		DatabaseType:     "sqlite",
		AdminKeySalt:     "test-admin-salt",
		ShareBonusPoints: 60,
	}
}

// CreateTestSeason creates a season and returns its ID and admin key.
// status should be "scheduled", "active", or "completed"; an active season
// is also marked is_active.
func CreateTestSeason(t *testing.T, db *sql.DB, cfg cliparse.Config, status string) (seasonID, adminKey string) {
	t.Helper()

	seasonID, _ = auth.GenerateID(16)
	adminKey = auth.GenerateAdminKey(seasonID, cfg.AdminKeySalt)

	isActive := status == models.SeasonActive

	_, err := db.Exec(`
		INSERT INTO season (id, name, year, status, is_active, default_daily_points, created_at)
		VALUES ($1, 'Test Season', 2026, $2, $3, 60, $4)
	`, seasonID, status, isActive, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test season: %v", err)
	}

	return seasonID, adminKey
}

// CreateTestCandidate adds an active candidate to a season and returns its ID
func CreateTestCandidate(t *testing.T, db *sql.DB, seasonID, name string) string {
	t.Helper()

	candidateID, _ := auth.GenerateID(12)
	_, err := db.Exec(`
		INSERT INTO candidate (id, season_id, name, status, is_active, created_at)
		VALUES ($1, $2, $3, 'active', TRUE, $4)
	`, candidateID, seasonID, name, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test candidate: %v", err)
	}

	return candidateID
}

// CreateTestWeek creates a week and returns its ID.
// status should be "scheduled", "voting", "completed", or "cancelled"; a
// voting week is opened with a voting window ending an hour from now.
func CreateTestWeek(t *testing.T, db *sql.DB, seasonID string, weekNumber int, status string) string {
	t.Helper()

	weekID, _ := auth.GenerateID(16)
	isVotingActive := status == models.WeekVoting

	var votingStart, votingEnd *time.Time
	if status == models.WeekVoting || status == models.WeekCompleted {
		start := time.Now().Add(-time.Hour)
		end := time.Now().Add(time.Hour)
		votingStart, votingEnd = &start, &end
	}

	_, err := db.Exec(`
		INSERT INTO week (id, season_id, week_number, voting_start_date, voting_end_date,
		                  status, is_voting_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, weekID, seasonID, weekNumber, votingStart, votingEnd, status, isVotingActive, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test week: %v", err)
	}

	return weekID
}

// AddTestNominee nominates a candidate for a week
func AddTestNominee(t *testing.T, db *sql.DB, weekID, candidateID string) {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO week_nominee (week_id, candidate_id, nominated_at)
		VALUES ($1, $2, $3)
	`, weekID, candidateID, time.Now())
	if err != nil {
		t.Fatalf("Failed to add test nominee: %v", err)
	}

	_, err = db.Exec(`
		UPDATE candidate SET times_nominated = times_nominated + 1 WHERE id = $1
	`, candidateID)
	if err != nil {
		t.Fatalf("Failed to bump nomination count: %v", err)
	}
}

// CreateTestVoter inserts a voter row with the given ID
func CreateTestVoter(t *testing.T, db *sql.DB, voterID string) {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO voter (id, default_daily_points, total_votes, created_at, last_seen_at)
		VALUES ($1, 60, 0, $2, $2)
	`, voterID, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test voter: %v", err)
	}
}

// SubmitTestVote records a vote row directly, bypassing the handler, and
// keeps the candidate and voter aggregates in step with it
func SubmitTestVote(t *testing.T, db *sql.DB, voterID, candidateID, seasonID, weekID string, weekNumber, points int, at time.Time) string {
	t.Helper()

	voteID, _ := auth.GenerateID(16)
	_, err := db.Exec(`
		INSERT INTO vote (id, voter_id, candidate_id, season_id, week_id, week_number,
		                  points, vote_date, is_valid)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE)
	`, voteID, voterID, candidateID, seasonID, weekID, weekNumber, points, at)
	if err != nil {
		t.Fatalf("Failed to create test vote: %v", err)
	}

	_, err = db.Exec(`
		UPDATE candidate SET total_votes = total_votes + $1, weekly_votes = weekly_votes + $1 WHERE id = $2
	`, points, candidateID)
	if err != nil {
		t.Fatalf("Failed to update candidate totals: %v", err)
	}

	_, err = db.Exec(`
		UPDATE voter SET total_votes = total_votes + $1 WHERE id = $2
	`, points, voterID)
	if err != nil {
		t.Fatalf("Failed to update voter totals: %v", err)
	}

	return voteID
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
