// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/house-points/auth"
	"github.com/danielhkuo/house-points/cliparse"
	"github.com/danielhkuo/house-points/middleware"
	"github.com/danielhkuo/house-points/models"
)

type VotingHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewVotingHandler(db *sql.DB, cfg cliparse.Config) *VotingHandler {
	return &VotingHandler{db: db, cfg: cfg}
}

// SubmitVotes handles POST /weeks/{id}/votes
//
// The whole batch commits or none of it does: vote rows, candidate
// aggregates, and the voter's lifetime counter move inside one transaction,
// and the daily budget is re-counted inside that transaction so two
// overlapping submissions cannot both pass the check on stale reads.
func (h *VotingHandler) SubmitVotes(w http.ResponseWriter, r *http.Request) {
	weekID := r.PathValue("id")
	if weekID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.KindBadRequest, "week_id is required")
		return
	}

	voter, ok := requireVoter(w, r, h.db)
	if !ok {
		return
	}

	// Parse request
	var req models.SubmitVotesRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.KindBadRequest, "Invalid JSON")
		return
	}

	if len(req.Votes) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.KindBadRequest, "votes cannot be empty")
		return
	}

	batchTotal := 0
	for _, alloc := range req.Votes {
		if alloc.CandidateID == "" {
			middleware.ErrorResponse(w, http.StatusBadRequest, models.KindBadRequest, "candidate_id is required for every vote")
			return
		}
		if alloc.Points <= 0 {
			middleware.ErrorResponse(w, http.StatusBadRequest, models.KindBadRequest, "points must be a positive integer")
			return
		}
		batchTotal += alloc.Points
	}

	// Load the target week
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

	// Votes only count toward the active season
	season, err := activeSeason(h.db)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusConflict, models.KindNoActiveSeason, "No active season")
		return
	}
	if err != nil {
		slog.Error("failed to query active season", "error", err)
		middleware.StorageError(w)
		return
	}

	now := time.Now()
	if wk.SeasonID != season.ID || !wk.acceptingVotes(now) {
		middleware.ErrorResponse(w, http.StatusConflict, models.KindWeekNotAcceptingVotes, "Week is not accepting votes")
		return
	}

	// Every allocation must target a current nominee
	nominees, err := loadNominees(h.db, weekID)
	if err != nil {
		slog.Error("failed to query nominees", "error", err)
		middleware.StorageError(w)
		return
	}
	nominated := make(map[string]bool, len(nominees))
	for _, nom := range nominees {
		nominated[nom.CandidateID] = true
	}
	for _, alloc := range req.Votes {
		if !nominated[alloc.CandidateID] {
			middleware.ErrorResponse(w, http.StatusBadRequest, models.KindCandidateNotNominated,
				"Candidate "+alloc.CandidateID+" is not nominated this week")
			return
		}
	}

	// First budget check, before any write
	budget, err := ComputeBudget(h.db, h.cfg, voter, now)
	if err != nil {
		slog.Error("failed to compute budget", "error", err, "voter_id", voter.ID)
		middleware.StorageError(w)
		return
	}
	if batchTotal > budget.Available {
		insufficientPoints(w, budget.Available)
		return
	}

	// Audit fields, as recorded on every vote row
	ipHash := auth.HashIP(middleware.GetClientIP(r), h.cfg.AdminKeySalt)
	userAgent := r.UserAgent()

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.StorageError(w)
		return
	}
	defer tx.Rollback()

	// Insert one immutable vote row per allocation; repeats for the same
	// candidate accumulate as separate rows, never as updates
	for _, alloc := range req.Votes {
		_, err = tx.Exec(`
			INSERT INTO vote (id, voter_id, candidate_id, season_id, week_id, week_number,
			                  points, vote_date, is_valid, ip_hash, user_agent)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE, $9, $10)
		`, uuid.NewString(), voter.ID, alloc.CandidateID, season.ID, weekID, wk.WeekNumber,
			alloc.Points, now, ipHash, userAgent)
		if err != nil {
			slog.Error("failed to insert vote", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to submit votes")
			return
		}

		_, err = tx.Exec(`
			UPDATE candidate
			SET total_votes = total_votes + $1, weekly_votes = weekly_votes + $1
			WHERE id = $2
		`, alloc.Points, alloc.CandidateID)
		if err != nil {
			slog.Error("failed to update candidate totals", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to submit votes")
			return
		}
	}

	_, err = tx.Exec(`
		UPDATE voter SET total_votes = total_votes + $1 WHERE id = $2
	`, batchTotal, voter.ID)
	if err != nil {
		slog.Error("failed to update voter totals", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to submit votes")
		return
	}

	// Second budget check, inside the transaction's isolation boundary.
	// The sum now includes this batch; overspend means a concurrent
	// submission landed between the first check and ours.
	dailyBudget := budget.Base + budget.ShareBonus
	spent, err := spentPoints(tx, voter.ID, now)
	if err != nil {
		slog.Error("failed to re-check budget", "error", err, "voter_id", voter.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to submit votes")
		return
	}
	if spent > dailyBudget {
		tx.Rollback()
		remaining := dailyBudget - (spent - batchTotal)
		if remaining < 0 {
			remaining = 0
		}
		insufficientPoints(w, remaining)
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to submit votes")
		return
	}

	remaining := dailyBudget - spent
	if remaining < 0 {
		remaining = 0
	}

	slog.Info("votes submitted",
		"voter_id", voter.ID,
		"week_id", weekID,
		"points", batchTotal,
		"remaining", remaining,
	)

	middleware.JSONResponse(w, http.StatusCreated, models.SubmitVotesResponse{
		Success:         true,
		RemainingPoints: remaining,
	})
}

// insufficientPoints writes the budget rejection with the remaining amount
// the client should display
func insufficientPoints(w http.ResponseWriter, remaining int) {
	middleware.JSONResponse(w, http.StatusConflict, models.ErrorResponse{
		Error:           http.StatusText(http.StatusConflict),
		Kind:            models.KindInsufficientPoints,
		Message:         "Not enough points remaining today",
		RemainingPoints: &remaining,
	})
}
