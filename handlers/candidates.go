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

type CandidateHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewCandidateHandler(db *sql.DB, cfg cliparse.Config) *CandidateHandler {
	return &CandidateHandler{db: db, cfg: cfg}
}

const candidateColumns = `id, season_id, name, bio, image_url, status, is_active,
       eliminated_week, eliminated_at, elimination_reason,
       total_votes, weekly_votes, times_nominated, created_at`

func scanCandidate(scan func(dest ...interface{}) error) (models.Candidate, error) {
	var c models.Candidate
	var bio, imageURL, reason sql.NullString
	var elimWeek sql.NullInt64
	var elimAt sql.NullTime
	err := scan(
		&c.ID, &c.SeasonID, &c.Name, &bio, &imageURL, &c.Status, &c.IsActive,
		&elimWeek, &elimAt, &reason,
		&c.TotalVotes, &c.WeeklyVotes, &c.TimesNominated, &c.CreatedAt,
	)
	if err != nil {
		return models.Candidate{}, err
	}

	c.Bio = strPtr(bio)
	c.ImageURL = strPtr(imageURL)
	c.EliminationNote = strPtr(reason)
	c.EliminatedAt = timePtr(elimAt)
	if elimWeek.Valid {
		wk := int(elimWeek.Int64)
		c.EliminatedWeek = &wk
	}
	if c.TimesNominated > 0 {
		c.AverageVotes = float64(c.TotalVotes) / float64(c.TimesNominated)
	}
	return c, nil
}

// CreateCandidate handles POST /seasons/{id}/candidates
func (h *CandidateHandler) CreateCandidate(w http.ResponseWriter, r *http.Request) {
	seasonID := r.PathValue("id")
	if seasonID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.KindBadRequest, "season_id is required")
		return
	}

	if !adminOK(w, r, seasonID, h.cfg.AdminKeySalt) {
		return
	}

	var req models.CreateCandidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.KindBadRequest, "Invalid JSON")
		return
	}

	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.KindBadRequest, "name is required")
		return
	}

	// Check season exists
	if _, err := loadSeason(h.db, seasonID); err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, models.KindNotFound, "Season not found")
		return
	} else if err != nil {
		slog.Error("failed to query season", "error", err)
		middleware.StorageError(w)
		return
	}

	candidateID, err := auth.GenerateID(12)
	if err != nil {
		slog.Error("failed to generate candidate ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to create candidate")
		return
	}

	_, err = h.db.Exec(`
		INSERT INTO candidate (id, season_id, name, bio, image_url, status, is_active, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, TRUE, $7)
	`, candidateID, seasonID, req.Name, req.Bio, req.ImageURL, models.CandidateActive, time.Now())

	if err != nil {
		slog.Error("failed to insert candidate", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to create candidate")
		return
	}

	slog.Info("candidate created", "candidate_id", candidateID, "season_id", seasonID, "name", req.Name)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateCandidateResponse{
		CandidateID: candidateID,
	})
}

// GetCandidates handles GET /seasons/{id}/candidates
// Position is ranked by lifetime votes across the season
func (h *CandidateHandler) GetCandidates(w http.ResponseWriter, r *http.Request) {
	seasonID := r.PathValue("id")
	if seasonID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.KindBadRequest, "season_id is required")
		return
	}

	rows, err := h.db.Query(`
		SELECT `+candidateColumns+`
		FROM candidate
		WHERE season_id = $1
		ORDER BY total_votes DESC, name
	`, seasonID)
	if err != nil {
		slog.Error("failed to query candidates", "error", err)
		middleware.StorageError(w)
		return
	}
	defer rows.Close()

	candidates := []models.Candidate{}
	for rows.Next() {
		c, err := scanCandidate(rows.Scan)
		if err != nil {
			slog.Error("failed to scan candidate", "error", err)
			middleware.StorageError(w)
			return
		}
		c.Position = len(candidates) + 1
		candidates = append(candidates, c)
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]interface{}{
		"candidates": candidates,
	})
}

// GetCandidate handles GET /candidates/{id}
func (h *CandidateHandler) GetCandidate(w http.ResponseWriter, r *http.Request) {
	candidateID := r.PathValue("id")
	if candidateID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.KindBadRequest, "candidate_id is required")
		return
	}

	row := h.db.QueryRow(`
		SELECT `+candidateColumns+`
		FROM candidate
		WHERE id = $1
	`, candidateID)

	c, err := scanCandidate(row.Scan)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, models.KindNotFound, "Candidate not found")
		return
	}
	if err != nil {
		slog.Error("failed to query candidate", "error", err)
		middleware.StorageError(w)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, c)
}
