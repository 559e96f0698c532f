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

type SeasonHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewSeasonHandler(db *sql.DB, cfg cliparse.Config) *SeasonHandler {
	return &SeasonHandler{db: db, cfg: cfg}
}

// CreateSeason handles POST /seasons
func (h *SeasonHandler) CreateSeason(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSeasonRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.KindBadRequest, "Invalid JSON")
		return
	}

	// Validate input
	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.KindBadRequest, "name is required")
		return
	}
	if req.Year < 2000 || req.Year > 2100 {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.KindBadRequest, "year is out of range")
		return
	}
	if req.DefaultDailyPoints < 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.KindBadRequest, "default_daily_points must not be negative")
		return
	}
	if req.DefaultDailyPoints == 0 {
		req.DefaultDailyPoints = 60
	}

	// Generate season ID
	seasonID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate season ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to create season")
		return
	}

	// Generate admin key
	adminKey := auth.GenerateAdminKey(seasonID, h.cfg.AdminKeySalt)

	// Insert season (always scheduled; activation is a separate admin action)
	_, err = h.db.Exec(`
		INSERT INTO season (id, name, year, start_date, end_date, status, is_active,
		                    default_daily_points, voting_cutoff_time, voting_days, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7, NULLIF($8, ''), NULLIF($9, ''), $10)
	`, seasonID, req.Name, req.Year, req.StartDate, req.EndDate, models.SeasonScheduled,
		req.DefaultDailyPoints, req.VotingCutoffTime, req.VotingDays, time.Now())

	if err != nil {
		slog.Error("failed to insert season", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to create season")
		return
	}

	slog.Info("season created", "season_id", seasonID, "name", req.Name, "year", req.Year)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateSeasonResponse{
		SeasonID: seasonID,
		AdminKey: adminKey,
	})
}

// GetSeasons handles GET /seasons
func (h *SeasonHandler) GetSeasons(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(`
		SELECT ` + seasonColumns + `
		FROM season
		ORDER BY year DESC, created_at DESC
	`)
	if err != nil {
		slog.Error("failed to query seasons", "error", err)
		middleware.StorageError(w)
		return
	}
	defer rows.Close()

	seasons := []models.Season{}
	for rows.Next() {
		var s models.Season
		var startDate, endDate sql.NullTime
		var cutoff, days sql.NullString
		if err := rows.Scan(
			&s.ID, &s.Name, &s.Year, &startDate, &endDate, &s.Status, &s.IsActive,
			&s.DefaultDailyPoints, &cutoff, &days, &s.CreatedAt,
		); err != nil {
			slog.Error("failed to scan season", "error", err)
			middleware.StorageError(w)
			return
		}
		s.StartDate = timePtr(startDate)
		s.EndDate = timePtr(endDate)
		s.VotingCutoffTime = strPtr(cutoff)
		s.VotingDays = strPtr(days)
		seasons = append(seasons, s)
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]interface{}{
		"seasons": seasons,
	})
}

// GetActiveSeason handles GET /seasons/active
// Absence of an active season is not an error on read paths
func (h *SeasonHandler) GetActiveSeason(w http.ResponseWriter, r *http.Request) {
	season, err := activeSeason(h.db)
	if err == sql.ErrNoRows {
		middleware.JSONResponse(w, http.StatusOK, map[string]interface{}{
			"season": nil,
		})
		return
	}
	if err != nil {
		slog.Error("failed to query active season", "error", err)
		middleware.StorageError(w)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]interface{}{
		"season": season,
	})
}

// ActivateSeason handles POST /seasons/{id}/activate
// Exactly one season may be active; activating demotes every other season.
func (h *SeasonHandler) ActivateSeason(w http.ResponseWriter, r *http.Request) {
	seasonID := r.PathValue("id")
	if seasonID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.KindBadRequest, "season_id is required")
		return
	}

	if !adminOK(w, r, seasonID, h.cfg.AdminKeySalt) {
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

	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.StorageError(w)
		return
	}
	defer tx.Rollback()

	// Demote whichever season was active; its run is over
	_, err = tx.Exec(`
		UPDATE season
		SET is_active = FALSE,
		    status = CASE WHEN status = 'active' THEN 'completed' ELSE status END
		WHERE id != $1
	`, seasonID)
	if err != nil {
		slog.Error("failed to demote seasons", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to activate season")
		return
	}

	_, err = tx.Exec(`
		UPDATE season
		SET is_active = TRUE, status = $1
		WHERE id = $2
	`, models.SeasonActive, seasonID)
	if err != nil {
		slog.Error("failed to activate season", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to activate season")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to activate season")
		return
	}

	slog.Info("season activated", "season_id", seasonID)

	season, err := loadSeason(h.db, seasonID)
	if err != nil {
		slog.Error("failed to reload season", "error", err)
		middleware.StorageError(w)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, season)
}

// CompleteSeason handles POST /seasons/{id}/complete
func (h *SeasonHandler) CompleteSeason(w http.ResponseWriter, r *http.Request) {
	seasonID := r.PathValue("id")
	if seasonID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, models.KindBadRequest, "season_id is required")
		return
	}

	if !adminOK(w, r, seasonID, h.cfg.AdminKeySalt) {
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

	_, err := h.db.Exec(`
		UPDATE season
		SET is_active = FALSE, status = $1
		WHERE id = $2
	`, models.SeasonCompleted, seasonID)
	if err != nil {
		slog.Error("failed to complete season", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to complete season")
		return
	}

	slog.Info("season completed", "season_id", seasonID)

	season, err := loadSeason(h.db, seasonID)
	if err != nil {
		slog.Error("failed to reload season", "error", err)
		middleware.StorageError(w)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, season)
}
