package models

import "time"

// Season status constants
const (
	SeasonScheduled = "scheduled"
	SeasonActive    = "active"
	SeasonCompleted = "completed"
)

// Week status constants
const (
	WeekScheduled = "scheduled"
	WeekActive    = "active" // legacy alias for voting
	WeekVoting    = "voting"
	WeekCompleted = "completed"
	WeekCancelled = "cancelled"
)

// Candidate status constants
const (
	CandidateActive     = "active"
	CandidateEliminated = "eliminated"
	CandidateWinner     = "winner"
	CandidateSuspended  = "suspended"
)

// Machine-readable error kinds
const (
	KindNoActiveSeason         = "NO_ACTIVE_SEASON"
	KindInsufficientPoints     = "INSUFFICIENT_POINTS"
	KindCandidateNotNominated  = "CANDIDATE_NOT_NOMINATED"
	KindWeekNotAcceptingVotes  = "WEEK_NOT_ACCEPTING_VOTES"
	KindInvalidStateTransition = "INVALID_STATE_TRANSITION"
	KindNotFound               = "NOT_FOUND"
	KindBadRequest             = "BAD_REQUEST"
	KindUnauthorized           = "UNAUTHORIZED"
	KindStorage                = "STORAGE_ERROR"
)

// NormalizeWeekStatus maps the legacy 'active' week status onto its
// canonical equivalent. Rows written before the rename may still carry
// 'active'; new code only ever writes 'voting'.
func NormalizeWeekStatus(status string) string {
	if status == WeekActive {
		return WeekVoting
	}
	return status
}

// Request types

type CreateSeasonRequest struct {
	Name               string     `json:"name"`
	Year               int        `json:"year"`
	StartDate          *time.Time `json:"start_date,omitempty"`
	EndDate            *time.Time `json:"end_date,omitempty"`
	DefaultDailyPoints int        `json:"default_daily_points"`
	VotingCutoffTime   string     `json:"voting_cutoff_time,omitempty"`
	VotingDays         string     `json:"voting_days,omitempty"`
}

type CreateCandidateRequest struct {
	Name     string `json:"name"`
	Bio      string `json:"bio"`
	ImageURL string `json:"image_url"`
}

type CreateWeekRequest struct {
	StartDate       *time.Time `json:"start_date,omitempty"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	VotingStartDate *time.Time `json:"voting_start_date,omitempty"`
	VotingEndDate   *time.Time `json:"voting_end_date,omitempty"`
}

type NominateRequest struct {
	CandidateID string `json:"candidate_id"`
}

type EliminateRequest struct {
	CandidateID string `json:"candidate_id"`
	Reason      string `json:"reason,omitempty"`
}

type SaveCandidateRequest struct {
	CandidateID string `json:"candidate_id"`
}

// candidate_id -> points for one submission
type VoteAllocation struct {
	CandidateID string `json:"candidate_id"`
	Points      int    `json:"points"`
}

type SubmitVotesRequest struct {
	Votes []VoteAllocation `json:"votes"`
}

// Response types

type CreateSeasonResponse struct {
	SeasonID string `json:"season_id"`
	AdminKey string `json:"admin_key"`
}

type CreateCandidateResponse struct {
	CandidateID string `json:"candidate_id"`
}

type SubmitVotesResponse struct {
	Success         bool `json:"success"`
	RemainingPoints int  `json:"remaining_points"`
}

type PointsResponse struct {
	AvailablePoints int  `json:"available_points"`
	ShareBonus      bool `json:"share_bonus"`
}

type ShareBonusResponse struct {
	AvailablePoints int       `json:"available_points"`
	GrantedAt       time.Time `json:"granted_at"`
}

type InvalidateVotesResponse struct {
	InvalidatedVotes  int `json:"invalidated_votes"`
	InvalidatedPoints int `json:"invalidated_points"`
}

// Domain types

type Season struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Year               int        `json:"year"`
	StartDate          *time.Time `json:"start_date,omitempty"`
	EndDate            *time.Time `json:"end_date,omitempty"`
	Status             string     `json:"status"`
	IsActive           bool       `json:"is_active"`
	DefaultDailyPoints int        `json:"default_daily_points"`
	VotingCutoffTime   *string    `json:"voting_cutoff_time,omitempty"`
	VotingDays         *string    `json:"voting_days,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

type Candidate struct {
	ID              string     `json:"id"`
	SeasonID        string     `json:"season_id"`
	Name            string     `json:"name"`
	Bio             *string    `json:"bio,omitempty"`
	ImageURL        *string    `json:"image_url,omitempty"`
	Status          string     `json:"status"`
	IsActive        bool       `json:"is_active"`
	EliminatedWeek  *int       `json:"eliminated_week,omitempty"`
	EliminatedAt    *time.Time `json:"eliminated_at,omitempty"`
	EliminationNote *string    `json:"elimination_reason,omitempty"`
	TotalVotes      int        `json:"total_votes"`
	WeeklyVotes     int        `json:"weekly_votes"`
	TimesNominated  int        `json:"times_nominated"`
	AverageVotes    float64    `json:"average_votes"`
	Position        int        `json:"position"`
	CreatedAt       time.Time  `json:"created_at"`
}

type Nominee struct {
	CandidateID string    `json:"candidate_id"`
	Name        string    `json:"name"`
	NominatedAt time.Time `json:"nominated_at"`
}

type ResultMark struct {
	CandidateID string    `json:"candidate_id"`
	At          time.Time `json:"at"`
}

type CandidateStanding struct {
	CandidateID string `json:"candidate_id"`
	Name        string `json:"name"`
	Votes       int    `json:"votes"`
	Percentage  int    `json:"percentage"`
}

type WeekResults struct {
	TotalVotes int                 `json:"total_votes"`
	Standings  []CandidateStanding `json:"standings"`
	WinnerID   *string             `json:"winner_id,omitempty"`
	Eliminated *ResultMark         `json:"eliminated,omitempty"`
	Saved      *ResultMark         `json:"saved,omitempty"`
	ComputedAt time.Time           `json:"computed_at"`
	Final      bool                `json:"final"`
}

type Week struct {
	ID              string       `json:"id"`
	SeasonID        string       `json:"season_id"`
	WeekNumber      int          `json:"week_number"`
	StartDate       *time.Time   `json:"start_date,omitempty"`
	EndDate         *time.Time   `json:"end_date,omitempty"`
	VotingStartDate *time.Time   `json:"voting_start_date,omitempty"`
	VotingEndDate   *time.Time   `json:"voting_end_date,omitempty"`
	Status          string       `json:"status"`
	IsVotingActive  bool         `json:"is_voting_active"`
	Nominees        []Nominee    `json:"nominees"`
	Results         *WeekResults `json:"results,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}

type Vote struct {
	ID          string    `json:"id"`
	VoterID     string    `json:"-"` // Never expose in JSON
	CandidateID string    `json:"candidate_id"`
	SeasonID    string    `json:"season_id"`
	WeekID      string    `json:"week_id"`
	WeekNumber  int       `json:"week_number"`
	Points      int       `json:"points"`
	VoteDate    time.Time `json:"vote_date"`
	IsValid     bool      `json:"is_valid"`
	IPHash      *string   `json:"-"` // Never expose in JSON
	UserAgent   *string   `json:"-"` // Never expose in JSON
}

type Voter struct {
	ID                 string     `json:"id"`
	DisplayName        *string    `json:"display_name,omitempty"`
	DefaultDailyPoints int        `json:"default_daily_points"`
	LastShareBonus     *time.Time `json:"last_share_bonus,omitempty"`
	TotalVotes         int        `json:"total_votes"`
	CreatedAt          time.Time  `json:"created_at"`
	LastSeenAt         time.Time  `json:"last_seen_at"`
}

// Error response

type ErrorResponse struct {
	Error           string `json:"error"`
	Kind            string `json:"kind,omitempty"`
	Message         string `json:"message,omitempty"`
	RemainingPoints *int   `json:"remaining_points,omitempty"`
}
