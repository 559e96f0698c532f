// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/house-points/cliparse"
	"github.com/danielhkuo/house-points/middleware"
	"github.com/danielhkuo/house-points/models"
)

type EliminationHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewEliminationHandler(db *sql.DB, cfg cliparse.Config) *EliminationHandler {
	return &EliminationHandler{db: db, cfg: cfg}
}

// EliminateCandidate handles POST /weeks/{id}/eliminate
//
// Each week holds at most one elimination. Eliminating B after A replaces
// the pointer: A is reactivated and B stamped, all in one transaction, so
// the week never shows two eliminated candidates.
func (h *EliminationHandler) EliminateCandidate(w http.ResponseWriter, r *http.Request) {
	wk, ok := h.loadWeekAdmin(w, r)
	if !ok {
		return
	}

	if wk.Status != models.WeekCompleted {
		middleware.ErrorResponse(w, http.StatusConflict, models.KindInvalidStateTransition,
			"Eliminations apply to completed weeks only")
		return
	}

	var req models.EliminateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.KindBadRequest, "Invalid JSON")
		return
	}
	if req.CandidateID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.KindBadRequest, "candidate_id is required")
		return
	}

	if !h.isNominee(w, wk.ID, req.CandidateID) {
		return
	}

	// Already the eliminated candidate: idempotent
	if wk.EliminatedCandidateID.Valid && wk.EliminatedCandidateID.String == req.CandidateID {
		h.respondWithWeek(w, wk.ID)
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.StorageError(w)
		return
	}
	defer tx.Rollback()

	// Replace semantics: undo the previous elimination first
	if wk.EliminatedCandidateID.Valid {
		if err := reactivateCandidate(tx, wk.EliminatedCandidateID.String); err != nil {
			slog.Error("failed to reactivate candidate", "error", err, "candidate_id", wk.EliminatedCandidateID.String)
			middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to eliminate candidate")
			return
		}
	}

	now := time.Now()
	var reason interface{}
	if req.Reason != "" {
		reason = req.Reason
	}
	_, err = tx.Exec(`
		UPDATE candidate
		SET status = $1, is_active = FALSE, eliminated_week = $2, eliminated_at = $3, elimination_reason = $4
		WHERE id = $5
	`, models.CandidateEliminated, wk.WeekNumber, now, reason, req.CandidateID)
	if err != nil {
		slog.Error("failed to eliminate candidate", "error", err, "candidate_id", req.CandidateID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to eliminate candidate")
		return
	}

	_, err = tx.Exec(`
		UPDATE week SET eliminated_candidate_id = $1, eliminated_at = $2 WHERE id = $3
	`, req.CandidateID, now, wk.ID)
	if err != nil {
		slog.Error("failed to stamp week elimination", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to eliminate candidate")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to eliminate candidate")
		return
	}

	slog.Info("candidate eliminated",
		"week_id", wk.ID,
		"week_number", wk.WeekNumber,
		"candidate_id", req.CandidateID,
	)

	h.respondWithWeek(w, wk.ID)
}

// RemoveEliminatedCandidate handles DELETE /weeks/{id}/eliminate
// Undoes the week's elimination and reactivates the candidate. A week with
// no elimination succeeds as a no-op.
func (h *EliminationHandler) RemoveEliminatedCandidate(w http.ResponseWriter, r *http.Request) {
	wk, ok := h.loadWeekAdmin(w, r)
	if !ok {
		return
	}

	if !wk.EliminatedCandidateID.Valid {
		h.respondWithWeek(w, wk.ID)
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.StorageError(w)
		return
	}
	defer tx.Rollback()

	if err := reactivateCandidate(tx, wk.EliminatedCandidateID.String); err != nil {
		slog.Error("failed to reactivate candidate", "error", err, "candidate_id", wk.EliminatedCandidateID.String)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to remove elimination")
		return
	}

	_, err = tx.Exec(`
		UPDATE week SET eliminated_candidate_id = NULL, eliminated_at = NULL WHERE id = $1
	`, wk.ID)
	if err != nil {
		slog.Error("failed to clear week elimination", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to remove elimination")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to remove elimination")
		return
	}

	slog.Info("elimination removed", "week_id", wk.ID, "candidate_id", wk.EliminatedCandidateID.String)

	h.respondWithWeek(w, wk.ID)
}

// SaveCandidate handles POST /weeks/{id}/save
// Marks the week's saved candidate. Like eliminations the pointer holds at
// most one candidate and repeat calls replace it, but a save carries no
// status change on the candidate itself.
func (h *EliminationHandler) SaveCandidate(w http.ResponseWriter, r *http.Request) {
	wk, ok := h.loadWeekAdmin(w, r)
	if !ok {
		return
	}

	var req models.SaveCandidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.KindBadRequest, "Invalid JSON")
		return
	}
	if req.CandidateID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.KindBadRequest, "candidate_id is required")
		return
	}

	if !h.isNominee(w, wk.ID, req.CandidateID) {
		return
	}

	_, err := h.db.Exec(`
		UPDATE week SET saved_candidate_id = $1, saved_at = $2 WHERE id = $3
	`, req.CandidateID, time.Now(), wk.ID)
	if err != nil {
		slog.Error("failed to save candidate", "error", err, "candidate_id", req.CandidateID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to save candidate")
		return
	}

	slog.Info("candidate saved", "week_id", wk.ID, "candidate_id", req.CandidateID)

	h.respondWithWeek(w, wk.ID)
}

// RemoveSavedCandidate handles DELETE /weeks/{id}/save
func (h *EliminationHandler) RemoveSavedCandidate(w http.ResponseWriter, r *http.Request) {
	wk, ok := h.loadWeekAdmin(w, r)
	if !ok {
		return
	}

	_, err := h.db.Exec(`
		UPDATE week SET saved_candidate_id = NULL, saved_at = NULL WHERE id = $1
	`, wk.ID)
	if err != nil {
		slog.Error("failed to remove save", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to remove save")
		return
	}

	slog.Info("save removed", "week_id", wk.ID)

	h.respondWithWeek(w, wk.ID)
}

// reactivateCandidate clears a candidate's elimination stamp
func reactivateCandidate(q dbtx, candidateID string) error {
	_, err := q.Exec(`
		UPDATE candidate
		SET status = $1, is_active = TRUE, eliminated_week = NULL, eliminated_at = NULL, elimination_reason = NULL
		WHERE id = $2
	`, models.CandidateActive, candidateID)
	return err
}

// isNominee checks that the candidate is in the week's nominee set,
// writing the rejection itself when not
func (h *EliminationHandler) isNominee(w http.ResponseWriter, weekID, candidateID string) bool {
	var exists bool
	err := h.db.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM week_nominee WHERE week_id = $1 AND candidate_id = $2
		)
	`, weekID, candidateID).Scan(&exists)
	if err != nil {
		slog.Error("failed to query nominee", "error", err)
		middleware.StorageError(w)
		return false
	}
	if !exists {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.KindCandidateNotNominated,
			"Candidate is not nominated this week")
		return false
	}
	return true
}

func (h *EliminationHandler) loadWeekAdmin(w http.ResponseWriter, r *http.Request) (weekRecord, bool) {
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

func (h *EliminationHandler) respondWithWeek(w http.ResponseWriter, weekID string) {
	wk, err := loadWeek(h.db, weekID)
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

	middleware.JSONResponse(w, http.StatusOK, week)
}
