// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/danielhkuo/house-points/cliparse"
	"github.com/danielhkuo/house-points/models"
)

// BudgetBreakdown is the daily points computation for one voter.
// Spend is always recomputed from the vote ledger; there is no persisted
// running counter to drift out of sync with it.
type BudgetBreakdown struct {
	Base       int
	ShareBonus int
	Spent      int
	Available  int
}

// ComputeBudget calculates the voter's remaining points for the calendar
// day containing asOf. Base comes from the active season; without one it
// falls back to the voter's stored default so read paths keep working.
func ComputeBudget(q dbtx, cfg cliparse.Config, voter models.Voter, asOf time.Time) (BudgetBreakdown, error) {
	var b BudgetBreakdown

	season, err := activeSeason(q)
	switch {
	case err == sql.ErrNoRows:
		b.Base = voter.DefaultDailyPoints
	case err != nil:
		return BudgetBreakdown{}, fmt.Errorf("failed to query active season: %w", err)
	default:
		b.Base = season.DefaultDailyPoints
	}

	if voter.LastShareBonus != nil && sameCalendarDay(*voter.LastShareBonus, asOf) {
		b.ShareBonus = cfg.ShareBonusPoints
	}

	b.Spent, err = spentPoints(q, voter.ID, asOf)
	if err != nil {
		return BudgetBreakdown{}, err
	}

	b.Available = b.Base + b.ShareBonus - b.Spent
	if b.Available < 0 {
		b.Available = 0
	}
	return b, nil
}

// AvailablePoints is the single-number form of ComputeBudget
func AvailablePoints(q dbtx, cfg cliparse.Config, voter models.Voter, asOf time.Time) (int, error) {
	b, err := ComputeBudget(q, cfg, voter, asOf)
	if err != nil {
		return 0, err
	}
	return b.Available, nil
}

// spentPoints sums the valid votes the voter recorded during asOf's
// calendar day, across all seasons and weeks. Spend is a wall-clock daily
// budget, not a per-week one.
func spentPoints(q dbtx, voterID string, asOf time.Time) (int, error) {
	dayStart, dayEnd := calendarDayBounds(asOf)

	var spent int
	err := q.QueryRow(`
		SELECT COALESCE(SUM(points), 0)
		FROM vote
		WHERE voter_id = $1 AND is_valid = TRUE AND vote_date >= $2 AND vote_date < $3
	`, voterID, dayStart, dayEnd).Scan(&spent)
	if err != nil {
		return 0, fmt.Errorf("failed to sum votes: %w", err)
	}

	return spent, nil
}

// calendarDayBounds returns the UTC [start, end) window of asOf's day
func calendarDayBounds(asOf time.Time) (time.Time, time.Time) {
	u := asOf.UTC()
	start := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// sameCalendarDay reports whether a and b fall on the same UTC day
func sameCalendarDay(a, b time.Time) bool {
	au, bu := a.UTC(), b.UTC()
	return au.Year() == bu.Year() && au.Month() == bu.Month() && au.Day() == bu.Day()
}
