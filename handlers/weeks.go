// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/house-points/auth"
	"github.com/danielhkuo/house-points/cliparse"
	"github.com/danielhkuo/house-points/middleware"
	"github.com/danielhkuo/house-points/models"
)

type WeekHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewWeekHandler(db *sql.DB, cfg cliparse.Config) *WeekHandler {
	return &WeekHandler{db: db, cfg: cfg}
}

// CreateWeek handles POST /seasons/{id}/weeks
// Week numbers are computed as max+1 per season, never user-supplied.
func (h *WeekHandler) CreateWeek(w http.ResponseWriter, r *http.Request) {
	seasonID := r.PathValue("id")
	if seasonID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.KindBadRequest, "season_id is required")
		return
	}

	if !adminOK(w, r, seasonID, h.cfg.AdminKeySalt) {
		return
	}

	var req models.CreateWeekRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.KindBadRequest, "Invalid JSON")
		return
	}

	if _, err := loadSeason(h.db, seasonID); err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, models.KindNotFound, "Season not found")
		return
	} else if err != nil {
		slog.Error("failed to query season", "error", err)
		middleware.StorageError(w)
		return
	}

	weekID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate week ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to create week")
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.StorageError(w)
		return
	}
	defer tx.Rollback()

	// Numbering inside the transaction keeps it gap-free per season
	var weekNumber int
	err = tx.QueryRow(`
		SELECT COALESCE(MAX(week_number), 0) + 1 FROM week WHERE season_id = $1
	`, seasonID).Scan(&weekNumber)
	if err != nil {
		slog.Error("failed to compute week number", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to create week")
		return
	}

	_, err = tx.Exec(`
		INSERT INTO week (id, season_id, week_number, start_date, end_date,
		                  voting_start_date, voting_end_date, status, is_voting_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE, $9)
	`, weekID, seasonID, weekNumber, req.StartDate, req.EndDate,
		req.VotingStartDate, req.VotingEndDate, models.WeekScheduled, time.Now())
	if err != nil {
		slog.Error("failed to insert week", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to create week")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to create week")
		return
	}

	slog.Info("week created", "week_id", weekID, "season_id", seasonID, "week_number", weekNumber)

	h.respondWithWeek(w, weekID, http.StatusCreated)
}

// GetWeek handles GET /weeks/{id}
func (h *WeekHandler) GetWeek(w http.ResponseWriter, r *http.Request) {
	weekID := r.PathValue("id")
	if weekID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.KindBadRequest, "week_id is required")
		return
	}

	h.respondWithWeek(w, weekID, http.StatusOK)
}

// StartVoting handles POST /weeks/{id}/start-voting
// A week can only (re)open while its voting end date is still ahead.
func (h *WeekHandler) StartVoting(w http.ResponseWriter, r *http.Request) {
	wk, ok := h.loadWeekAdmin(w, r)
	if !ok {
		return
	}

	// Already open: idempotent
	if wk.Status == models.WeekVoting {
		h.respondWithWeek(w, wk.ID, http.StatusOK)
		return
	}

	if wk.Status != models.WeekScheduled && wk.Status != models.WeekCompleted {
		middleware.ErrorResponse(w, http.StatusConflict, models.KindInvalidStateTransition,
			"Cannot start voting from status "+wk.Status)
		return
	}

	now := time.Now()
	if !wk.VotingEndDate.Valid || !wk.VotingEndDate.Time.After(now) {
		middleware.ErrorResponse(w, http.StatusConflict, models.KindInvalidStateTransition,
			"Voting window has already ended")
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.StorageError(w)
		return
	}
	defer tx.Rollback()

	votingStart := wk.VotingStartDate
	if !votingStart.Valid {
		votingStart = sql.NullTime{Time: now, Valid: true}
	}

	_, err = tx.Exec(`
		UPDATE week
		SET status = $1, is_voting_active = TRUE, voting_start_date = $2
		WHERE id = $3
	`, models.WeekVoting, votingStart, wk.ID)
	if err != nil {
		slog.Error("failed to start voting", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to start voting")
		return
	}

	// A fresh voting week starts everyone's weekly counter over
	_, err = tx.Exec(`
		UPDATE candidate SET weekly_votes = 0 WHERE season_id = $1
	`, wk.SeasonID)
	if err != nil {
		slog.Error("failed to reset weekly votes", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to start voting")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to start voting")
		return
	}

	slog.Info("voting started", "week_id", wk.ID, "week_number", wk.WeekNumber)

	h.respondWithWeek(w, wk.ID, http.StatusOK)
}

// EndVoting handles POST /weeks/{id}/end-voting
// Closing the week freezes the results snapshot in the same transaction.
func (h *WeekHandler) EndVoting(w http.ResponseWriter, r *http.Request) {
	wk, ok := h.loadWeekAdmin(w, r)
	if !ok {
		return
	}

	// Already closed: idempotent
	if wk.Status == models.WeekCompleted {
		h.respondWithWeek(w, wk.ID, http.StatusOK)
		return
	}

	if wk.Status != models.WeekVoting {
		middleware.ErrorResponse(w, http.StatusConflict, models.KindInvalidStateTransition,
			"Cannot end voting from status "+wk.Status)
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.StorageError(w)
		return
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		UPDATE week SET status = $1, is_voting_active = FALSE WHERE id = $2
	`, models.WeekCompleted, wk.ID)
	if err != nil {
		slog.Error("failed to end voting", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to end voting")
		return
	}

	results, err := freezeWeekResults(tx, wk.ID)
	if err != nil {
		slog.Error("failed to freeze results", "error", err, "week_id", wk.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to end voting")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to end voting")
		return
	}

	slog.Info("voting ended", "week_id", wk.ID, "week_number", wk.WeekNumber, "total_votes", results.TotalVotes)

	h.respondWithWeek(w, wk.ID, http.StatusOK)
}

// CancelWeek handles POST /weeks/{id}/cancel
func (h *WeekHandler) CancelWeek(w http.ResponseWriter, r *http.Request) {
	wk, ok := h.loadWeekAdmin(w, r)
	if !ok {
		return
	}

	// Already cancelled: idempotent
	if wk.Status == models.WeekCancelled {
		h.respondWithWeek(w, wk.ID, http.StatusOK)
		return
	}

	if wk.Status != models.WeekScheduled && wk.Status != models.WeekVoting {
		middleware.ErrorResponse(w, http.StatusConflict, models.KindInvalidStateTransition,
			"Cannot cancel a week from status "+wk.Status)
		return
	}

	_, err := h.db.Exec(`
		UPDATE week SET status = $1, is_voting_active = FALSE WHERE id = $2
	`, models.WeekCancelled, wk.ID)
	if err != nil {
		slog.Error("failed to cancel week", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to cancel week")
		return
	}

	slog.Info("week cancelled", "week_id", wk.ID, "week_number", wk.WeekNumber)

	h.respondWithWeek(w, wk.ID, http.StatusOK)
}

// DeleteWeek handles DELETE /weeks/{id}
// Never delete a week mid-vote.
func (h *WeekHandler) DeleteWeek(w http.ResponseWriter, r *http.Request) {
	wk, ok := h.loadWeekAdmin(w, r)
	if !ok {
		return
	}

	if wk.IsVotingActive {
		middleware.ErrorResponse(w, http.StatusConflict, models.KindInvalidStateTransition,
			"Cannot delete a week while voting is active")
		return
	}

	_, err := h.db.Exec(`DELETE FROM week WHERE id = $1`, wk.ID)
	if err != nil {
		slog.Error("failed to delete week", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to delete week")
		return
	}

	slog.Info("week deleted", "week_id", wk.ID, "week_number", wk.WeekNumber)

	w.WriteHeader(http.StatusNoContent)
}

// AddNominee handles POST /weeks/{id}/nominees
// Nomination is idempotent; a candidate appears in the set at most once.
func (h *WeekHandler) AddNominee(w http.ResponseWriter, r *http.Request) {
	wk, ok := h.loadWeekAdmin(w, r)
	if !ok {
		return
	}

	var req models.NominateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.KindBadRequest, "Invalid JSON")
		return
	}
	if req.CandidateID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.KindBadRequest, "candidate_id is required")
		return
	}

	// Candidate must exist and belong to the week's season
	var candidateSeason string
	err := h.db.QueryRow(`
		SELECT season_id FROM candidate WHERE id = $1
	`, req.CandidateID).Scan(&candidateSeason)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, models.KindNotFound, "Candidate not found")
		return
	}
	if err != nil {
		slog.Error("failed to query candidate", "error", err)
		middleware.StorageError(w)
		return
	}
	if candidateSeason != wk.SeasonID {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.KindBadRequest, "Candidate belongs to a different season")
		return
	}

	var exists bool
	err = h.db.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM week_nominee WHERE week_id = $1 AND candidate_id = $2
		)
	`, wk.ID, req.CandidateID).Scan(&exists)
	if err != nil {
		slog.Error("failed to query nominee", "error", err)
		middleware.StorageError(w)
		return
	}

	if exists {
		h.respondWithWeek(w, wk.ID, http.StatusOK)
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.StorageError(w)
		return
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO week_nominee (week_id, candidate_id, nominated_at)
		VALUES ($1, $2, $3)
	`, wk.ID, req.CandidateID, time.Now())
	if err != nil {
		slog.Error("failed to insert nominee", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to add nominee")
		return
	}

	_, err = tx.Exec(`
		UPDATE candidate SET times_nominated = times_nominated + 1 WHERE id = $1
	`, req.CandidateID)
	if err != nil {
		slog.Error("failed to update nomination count", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to add nominee")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to add nominee")
		return
	}

	slog.Info("nominee added", "week_id", wk.ID, "candidate_id", req.CandidateID)

	h.respondWithWeek(w, wk.ID, http.StatusCreated)
}

// RemoveNominee handles DELETE /weeks/{id}/nominees/{candidateId}
// The week's eliminated candidate cannot be denominated while the
// elimination stands.
func (h *WeekHandler) RemoveNominee(w http.ResponseWriter, r *http.Request) {
	wk, ok := h.loadWeekAdmin(w, r)
	if !ok {
		return
	}

	candidateID := r.PathValue("candidateId")
	if candidateID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.KindBadRequest, "candidate_id is required")
		return
	}

	if wk.EliminatedCandidateID.Valid && wk.EliminatedCandidateID.String == candidateID {
		middleware.ErrorResponse(w, http.StatusConflict, models.KindInvalidStateTransition,
			"Candidate is this week's eliminated candidate; remove the elimination first")
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.StorageError(w)
		return
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		DELETE FROM week_nominee WHERE week_id = $1 AND candidate_id = $2
	`, wk.ID, candidateID)
	if err != nil {
		slog.Error("failed to remove nominee", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to remove nominee")
		return
	}

	if removed, _ := res.RowsAffected(); removed > 0 {
		_, err = tx.Exec(`
			UPDATE candidate
			SET times_nominated = CASE WHEN times_nominated > 0 THEN times_nominated - 1 ELSE 0 END
			WHERE id = $1
		`, candidateID)
		if err != nil {
			slog.Error("failed to update nomination count", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to remove nominee")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to remove nominee")
		return
	}

	slog.Info("nominee removed", "week_id", wk.ID, "candidate_id", candidateID)

	h.respondWithWeek(w, wk.ID, http.StatusOK)
}

// InvalidateVotes handles POST /weeks/{id}/invalidate-votes
// Soft-invalidates every valid vote of the week and walks the derived
// candidate and voter counters back in the same transaction.
func (h *WeekHandler) InvalidateVotes(w http.ResponseWriter, r *http.Request) {
	wk, ok := h.loadWeekAdmin(w, r)
	if !ok {
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.StorageError(w)
		return
	}
	defer tx.Rollback()

	// Walk candidate aggregates back
	_, err = tx.Exec(`
		UPDATE candidate
		SET total_votes = total_votes - sub.points,
		    weekly_votes = CASE WHEN weekly_votes > sub.points THEN weekly_votes - sub.points ELSE 0 END
		FROM (
			SELECT candidate_id, SUM(points) AS points
			FROM vote
			WHERE week_id = $1 AND is_valid = TRUE
			GROUP BY candidate_id
		) AS sub
		WHERE candidate.id = sub.candidate_id
	`, wk.ID)
	if err != nil {
		slog.Error("failed to adjust candidate totals", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to invalidate votes")
		return
	}

	// Walk voter lifetime counters back
	_, err = tx.Exec(`
		UPDATE voter
		SET total_votes = total_votes - sub.points
		FROM (
			SELECT voter_id, SUM(points) AS points
			FROM vote
			WHERE week_id = $1 AND is_valid = TRUE
			GROUP BY voter_id
		) AS sub
		WHERE voter.id = sub.voter_id
	`, wk.ID)
	if err != nil {
		slog.Error("failed to adjust voter totals", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to invalidate votes")
		return
	}

	var count, points int
	err = tx.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(points), 0)
		FROM vote
		WHERE week_id = $1 AND is_valid = TRUE
	`, wk.ID).Scan(&count, &points)
	if err != nil {
		slog.Error("failed to count votes", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to invalidate votes")
		return
	}

	_, err = tx.Exec(`
		UPDATE vote SET is_valid = FALSE WHERE week_id = $1 AND is_valid = TRUE
	`, wk.ID)
	if err != nil {
		slog.Error("failed to invalidate votes", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to invalidate votes")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to invalidate votes")
		return
	}

	slog.Info("week votes invalidated", "week_id", wk.ID, "votes", count, "points", points)

	middleware.JSONResponse(w, http.StatusOK, models.InvalidateVotesResponse{
		InvalidatedVotes:  count,
		InvalidatedPoints: points,
	})
}

// loadWeekAdmin loads the week named in the path and validates the
// caller's admin key against its season. Writes the response on failure.
func (h *WeekHandler) loadWeekAdmin(w http.ResponseWriter, r *http.Request) (weekRecord, bool) {
	weekID := r.PathValue("id")
	if weekID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.KindBadRequest, "week_id is required")
		return weekRecord{}, false
	}

	wk, err := loadWeek(h.db, weekID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, models.KindNotFound, "Week not found")
		return weekRecord{}, false
	}
	if err != nil {
		slog.Error("failed to query week", "error", err)
		middleware.StorageError(w)
		return weekRecord{}, false
	}

	if !adminOK(w, r, wk.SeasonID, h.cfg.AdminKeySalt) {
		return weekRecord{}, false
	}

	return wk, true
}

func (h *WeekHandler) respondWithWeek(w http.ResponseWriter, weekID string, status int) {
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

	week, err := weekJSON(h.db, wk)
	if err != nil {
		slog.Error("failed to build week response", "error", err, "week_id", weekID)
		middleware.StorageError(w)
		return
	}

	middleware.JSONResponse(w, status, week)
}
