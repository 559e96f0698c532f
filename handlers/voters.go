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

type VoterHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewVoterHandler(db *sql.DB, cfg cliparse.Config) *VoterHandler {
	return &VoterHandler{db: db, cfg: cfg}
}

// GetOrCreateVoter looks up or creates the voter record named by the
// X-Voter-ID header. Identity itself comes from the auth layer in front of
// this API; here the header is trusted as-is. Returns sql.ErrNoRows never;
// an empty ID means the header was missing.
func GetOrCreateVoter(q dbtx, r *http.Request) (models.Voter, error) {
	voterID := r.Header.Get("X-Voter-ID")
	if voterID == "" {
		return models.Voter{}, nil
	}

	voter, err := loadVoter(q, voterID)
	if err == nil {
		// Best-effort presence stamp
		_, _ = q.Exec(`UPDATE voter SET last_seen_at = $1 WHERE id = $2`, time.Now(), voterID)
		return voter, nil
	}

	if err != sql.ErrNoRows {
		return models.Voter{}, err
	}

	now := time.Now()
	_, err = q.Exec(`
		INSERT INTO voter (id, default_daily_points, total_votes, created_at, last_seen_at)
		VALUES ($1, 60, 0, $2, $2)
	`, voterID, now)
	if err != nil {
		return models.Voter{}, err
	}

	return loadVoter(q, voterID)
}

func loadVoter(q dbtx, voterID string) (models.Voter, error) {
	var v models.Voter
	var displayName sql.NullString
	var lastBonus sql.NullTime
	err := q.QueryRow(`
		SELECT id, display_name, default_daily_points, last_share_bonus,
		       total_votes, created_at, last_seen_at
		FROM voter
		WHERE id = $1
	`, voterID).Scan(
		&v.ID, &displayName, &v.DefaultDailyPoints, &lastBonus,
		&v.TotalVotes, &v.CreatedAt, &v.LastSeenAt,
	)
	if err != nil {
		return models.Voter{}, err
	}

	v.DisplayName = strPtr(displayName)
	v.LastShareBonus = timePtr(lastBonus)
	return v, nil
}

// requireVoter resolves the calling voter, writing the error response on
// failure. The bool reports whether the caller may proceed.
func requireVoter(w http.ResponseWriter, r *http.Request, q dbtx) (models.Voter, bool) {
	voter, err := GetOrCreateVoter(q, r)
	if err != nil {
		slog.Error("failed to get/create voter", "error", err)
		middleware.StorageError(w)
		return models.Voter{}, false
	}
	if voter.ID == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, models.KindUnauthorized, "X-Voter-ID header required")
		return models.Voter{}, false
	}
	return voter, true
}

// GetMe handles GET /me
// Returns the voter profile plus the current points budget
func (h *VoterHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	voter, ok := requireVoter(w, r, h.db)
	if !ok {
		return
	}

	budget, err := ComputeBudget(h.db, h.cfg, voter, time.Now())
	if err != nil {
		slog.Error("failed to compute budget", "error", err, "voter_id", voter.ID)
		middleware.StorageError(w)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, map[string]interface{}{
		"voter":            voter,
		"available_points": budget.Available,
	})
}

// GetMyPoints handles GET /me/points
func (h *VoterHandler) GetMyPoints(w http.ResponseWriter, r *http.Request) {
	voter, ok := requireVoter(w, r, h.db)
	if !ok {
		return
	}

	budget, err := ComputeBudget(h.db, h.cfg, voter, time.Now())
	if err != nil {
		slog.Error("failed to compute budget", "error", err, "voter_id", voter.ID)
		middleware.StorageError(w)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.PointsResponse{
		AvailablePoints: budget.Available,
		ShareBonus:      budget.ShareBonus > 0,
	})
}

// ShareBonus handles POST /me/share-bonus
// Grants the one-per-calendar-day share bonus; repeat calls the same day
// succeed without granting again.
func (h *VoterHandler) ShareBonus(w http.ResponseWriter, r *http.Request) {
	voter, ok := requireVoter(w, r, h.db)
	if !ok {
		return
	}

	now := time.Now()
	if voter.LastShareBonus == nil || !sameCalendarDay(*voter.LastShareBonus, now) {
		_, err := h.db.Exec(`
			UPDATE voter SET last_share_bonus = $1 WHERE id = $2
		`, now, voter.ID)
		if err != nil {
			slog.Error("failed to grant share bonus", "error", err, "voter_id", voter.ID)
			middleware.ErrorResponse(w, http.StatusInternalServerError, models.KindStorage, "Failed to grant share bonus")
			return
		}
		voter.LastShareBonus = &now
		slog.Info("share bonus granted", "voter_id", voter.ID)
	}

	budget, err := ComputeBudget(h.db, h.cfg, voter, now)
	if err != nil {
		slog.Error("failed to compute budget", "error", err, "voter_id", voter.ID)
		middleware.StorageError(w)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ShareBonusResponse{
		AvailablePoints: budget.Available,
		GrantedAt:       *voter.LastShareBonus,
	})
}
