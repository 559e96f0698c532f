// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/danielhkuo/house-points/auth"
	"github.com/danielhkuo/house-points/middleware"
	"github.com/danielhkuo/house-points/models"
)

// dbtx is the subset of *sql.DB and *sql.Tx the engine queries run against.
// Passing the transaction where atomicity matters is what keeps the budget
// re-check and the aggregate updates inside one isolation boundary.
type dbtx interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// weekRecord is a scanned week row with its raw nullable columns.
type weekRecord struct {
	ID                    string
	SeasonID              string
	WeekNumber            int
	StartDate             sql.NullTime
	EndDate               sql.NullTime
	VotingStartDate       sql.NullTime
	VotingEndDate         sql.NullTime
	Status                string
	IsVotingActive        bool
	EliminatedCandidateID sql.NullString
	EliminatedAt          sql.NullTime
	SavedCandidateID      sql.NullString
	SavedAt               sql.NullTime
	FinalSnapshotID       sql.NullString
	CreatedAt             time.Time
}

// loadWeek fetches one week row. Status is normalized so callers never see
// the legacy 'active' value.
func loadWeek(q dbtx, weekID string) (weekRecord, error) {
	var wk weekRecord
	err := q.QueryRow(`
		SELECT id, season_id, week_number, start_date, end_date,
		       voting_start_date, voting_end_date, status, is_voting_active,
		       eliminated_candidate_id, eliminated_at, saved_candidate_id, saved_at,
		       final_snapshot_id, created_at
		FROM week
		WHERE id = $1
	`, weekID).Scan(
		&wk.ID, &wk.SeasonID, &wk.WeekNumber, &wk.StartDate, &wk.EndDate,
		&wk.VotingStartDate, &wk.VotingEndDate, &wk.Status, &wk.IsVotingActive,
		&wk.EliminatedCandidateID, &wk.EliminatedAt, &wk.SavedCandidateID, &wk.SavedAt,
		&wk.FinalSnapshotID, &wk.CreatedAt,
	)
	if err != nil {
		return weekRecord{}, err
	}

	wk.Status = models.NormalizeWeekStatus(wk.Status)
	return wk, nil
}

// acceptingVotes reports whether the week can take vote submissions now
func (wk weekRecord) acceptingVotes(now time.Time) bool {
	if wk.Status != models.WeekVoting || !wk.IsVotingActive {
		return false
	}
	if wk.VotingEndDate.Valid && !wk.VotingEndDate.Time.After(now) {
		return false
	}
	return true
}

// marks builds the eliminated/saved result marks from the week's pointers
func (wk weekRecord) marks() (eliminated, saved *models.ResultMark) {
	if wk.EliminatedCandidateID.Valid {
		eliminated = &models.ResultMark{
			CandidateID: wk.EliminatedCandidateID.String,
			At:          wk.EliminatedAt.Time,
		}
	}
	if wk.SavedCandidateID.Valid {
		saved = &models.ResultMark{
			CandidateID: wk.SavedCandidateID.String,
			At:          wk.SavedAt.Time,
		}
	}
	return eliminated, saved
}

// loadNominees returns the week's nominees in nomination order
func loadNominees(q dbtx, weekID string) ([]models.Nominee, error) {
	rows, err := q.Query(`
		SELECT n.candidate_id, c.name, n.nominated_at
		FROM week_nominee n
		JOIN candidate c ON n.candidate_id = c.id
		WHERE n.week_id = $1
		ORDER BY n.nominated_at, n.candidate_id
	`, weekID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	nominees := []models.Nominee{}
	for rows.Next() {
		var nom models.Nominee
		if err := rows.Scan(&nom.CandidateID, &nom.Name, &nom.NominatedAt); err != nil {
			return nil, err
		}
		nominees = append(nominees, nom)
	}

	return nominees, rows.Err()
}

// weekJSON assembles the full week representation returned by admin actions
func weekJSON(q dbtx, wk weekRecord) (models.Week, error) {
	nominees, err := loadNominees(q, wk.ID)
	if err != nil {
		return models.Week{}, err
	}

	var results models.WeekResults
	if wk.FinalSnapshotID.Valid {
		results, err = loadFrozenResults(q, wk.FinalSnapshotID.String)
	} else {
		results, err = ComputeWeekResults(q, wk.ID)
	}
	if err != nil {
		return models.Week{}, err
	}
	results.Eliminated, results.Saved = wk.marks()

	return models.Week{
		ID:              wk.ID,
		SeasonID:        wk.SeasonID,
		WeekNumber:      wk.WeekNumber,
		StartDate:       timePtr(wk.StartDate),
		EndDate:         timePtr(wk.EndDate),
		VotingStartDate: timePtr(wk.VotingStartDate),
		VotingEndDate:   timePtr(wk.VotingEndDate),
		Status:          wk.Status,
		IsVotingActive:  wk.IsVotingActive,
		Nominees:        nominees,
		Results:         &results,
		CreatedAt:       wk.CreatedAt,
	}, nil
}

func scanSeason(row *sql.Row) (models.Season, error) {
	var s models.Season
	var startDate, endDate sql.NullTime
	var cutoff, days sql.NullString
	err := row.Scan(
		&s.ID, &s.Name, &s.Year, &startDate, &endDate, &s.Status, &s.IsActive,
		&s.DefaultDailyPoints, &cutoff, &days, &s.CreatedAt,
	)
	if err != nil {
		return models.Season{}, err
	}

	s.StartDate = timePtr(startDate)
	s.EndDate = timePtr(endDate)
	s.VotingCutoffTime = strPtr(cutoff)
	s.VotingDays = strPtr(days)
	return s, nil
}

const seasonColumns = `id, name, year, start_date, end_date, status, is_active,
       default_daily_points, voting_cutoff_time, voting_days, created_at`

// loadSeason fetches one season row
func loadSeason(q dbtx, seasonID string) (models.Season, error) {
	return scanSeason(q.QueryRow(`
		SELECT `+seasonColumns+`
		FROM season
		WHERE id = $1
	`, seasonID))
}

// activeSeason fetches the single active season, sql.ErrNoRows if none
func activeSeason(q dbtx) (models.Season, error) {
	return scanSeason(q.QueryRow(`
		SELECT ` + seasonColumns + `
		FROM season
		WHERE is_active = TRUE
	`))
}

// adminOK validates the X-Admin-Key header against the season's key.
// Writes the 401 response itself when the key is missing or wrong.
func adminOK(w http.ResponseWriter, r *http.Request, seasonID, salt string) bool {
	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(seasonID, adminKey, salt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, models.KindUnauthorized, "Invalid admin key")
		return false
	}
	return true
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
