// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the House Points API.

# Handler Types

Each handler is a struct with database and config dependencies:

  - SeasonHandler: Season lifecycle (create, activate, complete)
  - CandidateHandler: Candidate roster and standings
  - WeekHandler: Week state machine, nominees, vote invalidation
  - EliminationHandler: Elimination and save marks on completed weeks
  - VotingHandler: Vote batch submission
  - ResultsHandler: Live and frozen week results
  - VoterHandler: Voter profile, points, share bonus

Handlers are created via constructor functions that accept *sql.DB and Config:

	weekHandler := handlers.NewWeekHandler(db, cfg)

# Week Lifecycle

Weeks progress through: scheduled → voting → completed, with cancelled
reachable from scheduled or voting. A completed week can reopen while its
voting window is still ahead.

	POST /seasons/{id}/weeks     → CreateWeek (number assigned max+1)
	POST /weeks/{id}/start-voting → StartVoting
	POST /weeks/{id}/end-voting   → EndVoting (freezes results snapshot)
	POST /weeks/{id}/cancel       → CancelWeek

Admin operations require the X-Admin-Key header for the week's season.

# Voting Flow

Voters identify themselves with the X-Voter-ID header:

	POST /weeks/{id}/votes → SubmitVotes (batch, all-or-nothing)
	GET  /me/points        → GetMyPoints
	POST /me/share-bonus   → ShareBonus

The daily budget is base points (from the active season) plus an optional
share bonus, minus the points already spent that UTC calendar day. Spend is
always recomputed from the vote ledger; SubmitVotes re-counts it inside the
insert transaction and rolls back on overspend.

# Results

ComputeWeekResults tallies valid votes restricted to the week's nominee
set. EndVoting freezes the tally into a result_snapshot row; GetWeekResults
serves the snapshot for completed weeks and recomputes live otherwise.
Elimination and save marks are overlaid from the week row in both cases.
*/
package handlers
