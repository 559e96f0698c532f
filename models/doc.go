// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreateSeasonRequest: name, year, dates, default_daily_points
  - CreateCandidateRequest: name, bio, image_url
  - CreateWeekRequest: date windows (all optional)
  - NominateRequest: candidate_id
  - EliminateRequest: candidate_id, reason
  - SaveCandidateRequest: candidate_id
  - SubmitVotesRequest: votes ([]VoteAllocation)

# Response Types

Types for JSON responses:

  - CreateSeasonResponse: season_id, admin_key
  - CreateCandidateResponse: candidate_id
  - SubmitVotesResponse: success, remaining_points
  - PointsResponse: available_points, share_bonus
  - ShareBonusResponse: available_points, granted_at
  - InvalidateVotesResponse: invalidated_votes, invalidated_points
  - ErrorResponse: error, kind, message, remaining_points

# Domain Types

Internal data structures:

  - Season: season metadata and lifecycle state
  - Candidate: roster entry with vote aggregates
  - Week: voting week with nominees and results
  - WeekResults: tallied standings, winner, marks
  - Vote: immutable vote ledger row
  - Voter: voter profile and bonus state

# Constants

Status values:

	SeasonScheduled / SeasonActive / SeasonCompleted
	WeekScheduled / WeekVoting / WeekCompleted / WeekCancelled
	CandidateActive / CandidateEliminated / CandidateWinner / CandidateSuspended

The legacy week status 'active' is mapped to 'voting' by
NormalizeWeekStatus on every read.

Error kinds (machine-readable, carried in ErrorResponse.Kind):

	NO_ACTIVE_SEASON
	INSUFFICIENT_POINTS
	CANDIDATE_NOT_NOMINATED
	WEEK_NOT_ACCEPTING_VOTES
	INVALID_STATE_TRANSITION
	NOT_FOUND
	BAD_REQUEST
	UNAUTHORIZED
	STORAGE_ERROR
*/
package models
