// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/house-points/cliparse"
	"github.com/danielhkuo/house-points/middleware"
	"github.com/danielhkuo/house-points/models"
)

type ResultsHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewResultsHandler(db *sql.DB, cfg cliparse.Config) *ResultsHandler {
	return &ResultsHandler{db: db, cfg: cfg}
}

// ComputeWeekResults tallies the week's valid votes restricted to its
// nominee set: total, rounded percentages, and the winner. The winner is
// the highest-voting nominee; ties go to the earlier nomination.
func ComputeWeekResults(q dbtx, weekID string) (models.WeekResults, error) {
	nominees, err := loadNominees(q, weekID)
	if err != nil {
		return models.WeekResults{}, fmt.Errorf("failed to load nominees: %w", err)
	}

	voteTotals, err := nomineeVoteTotals(q, weekID)
	if err != nil {
		return models.WeekResults{}, fmt.Errorf("failed to tally votes: %w", err)
	}

	results := models.WeekResults{
		Standings:  []models.CandidateStanding{},
		ComputedAt: time.Now(),
	}

	for _, nom := range nominees {
		results.TotalVotes += voteTotals[nom.CandidateID]
	}

	var winnerID string
	var winnerVotes int
	for _, nom := range nominees {
		votes := voteTotals[nom.CandidateID]

		percentage := 0
		if results.TotalVotes > 0 {
			percentage = int(math.Round(float64(votes) / float64(results.TotalVotes) * 100))
		}

		results.Standings = append(results.Standings, models.CandidateStanding{
			CandidateID: nom.CandidateID,
			Name:        nom.Name,
			Votes:       votes,
			Percentage:  percentage,
		})

		// Strictly greater keeps the first nominee ahead on ties
		if votes > winnerVotes {
			winnerID = nom.CandidateID
			winnerVotes = votes
		}
	}

	if results.TotalVotes > 0 && winnerID != "" {
		results.WinnerID = &winnerID
	}

	return results, nil
}

// nomineeVoteTotals sums valid vote points per candidate for a week
func nomineeVoteTotals(q dbtx, weekID string) (map[string]int, error) {
	rows, err := q.Query(`
		SELECT candidate_id, COALESCE(SUM(points), 0)
		FROM vote
		WHERE week_id = $1 AND is_valid = TRUE
		GROUP BY candidate_id
	`, weekID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make(map[string]int)
	for rows.Next() {
		var candidateID string
		var points int
		if err := rows.Scan(&candidateID, &points); err != nil {
			return nil, err
		}
		totals[candidateID] = points
	}

	return totals, rows.Err()
}

// freezeWeekResults computes the week's results and persists them as an
// immutable snapshot, stamping the week with the snapshot ID. Runs inside
// the close transaction so the frozen tally matches the committed votes.
func freezeWeekResults(tx dbtx, weekID string) (models.WeekResults, error) {
	results, err := ComputeWeekResults(tx, weekID)
	if err != nil {
		return models.WeekResults{}, err
	}
	results.Final = true

	payload, err := json.Marshal(results)
	if err != nil {
		return models.WeekResults{}, fmt.Errorf("failed to marshal results: %w", err)
	}

	snapshotID := uuid.NewString()
	_, err = tx.Exec(`
		INSERT INTO result_snapshot (id, week_id, computed_at, payload)
		VALUES ($1, $2, $3, $4)
	`, snapshotID, weekID, results.ComputedAt, string(payload))
	if err != nil {
		return models.WeekResults{}, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	_, err = tx.Exec(`
		UPDATE week SET final_snapshot_id = $1 WHERE id = $2
	`, snapshotID, weekID)
	if err != nil {
		return models.WeekResults{}, fmt.Errorf("failed to stamp week snapshot: %w", err)
	}

	return results, nil
}

// loadFrozenResults reads a frozen results snapshot back
func loadFrozenResults(q dbtx, snapshotID string) (models.WeekResults, error) {
	var payload []byte
	err := q.QueryRow(`
		SELECT payload FROM result_snapshot WHERE id = $1
	`, snapshotID).Scan(&payload)
	if err != nil {
		return models.WeekResults{}, fmt.Errorf("failed to query snapshot: %w", err)
	}

	var results models.WeekResults
	if err := json.Unmarshal(payload, &results); err != nil {
		return models.WeekResults{}, fmt.Errorf("failed to parse snapshot payload: %w", err)
	}
	results.Final = true

	return results, nil
}

// GetWeekResults handles GET /weeks/{id}/results
// Completed weeks return the frozen snapshot; open weeks recompute live.
func (h *ResultsHandler) GetWeekResults(w http.ResponseWriter, r *http.Request) {
	weekID := r.PathValue("id")
	if weekID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.KindBadRequest, "week_id is required")
		return
	}

	wk, err := loadWeek(h.db, weekID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, models.KindNotFound, "Week not found")
		return
	}
	if err != nil {
		slog.Error("failed to query week", "error", err)
		middleware.StorageError(w)
		return
	}

	var results models.WeekResults
	if wk.FinalSnapshotID.Valid {
		results, err = loadFrozenResults(h.db, wk.FinalSnapshotID.String)
	} else {
		results, err = ComputeWeekResults(h.db, weekID)
	}
	if err != nil {
		slog.Error("failed to build week results", "error", err, "week_id", weekID)
		middleware.StorageError(w)
		return
	}
	results.Eliminated, results.Saved = wk.marks()

	middleware.JSONResponse(w, http.StatusOK, results)
}
