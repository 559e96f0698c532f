// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/house-points/cliparse"
	"github.com/danielhkuo/house-points/handlers"
	"github.com/danielhkuo/house-points/middleware"
)

func NewRouter(db *sql.DB, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	seasonHandler := handlers.NewSeasonHandler(db, cfg)
	candidateHandler := handlers.NewCandidateHandler(db, cfg)
	weekHandler := handlers.NewWeekHandler(db, cfg)
	eliminationHandler := handlers.NewEliminationHandler(db, cfg)
	votingHandler := handlers.NewVotingHandler(db, cfg)
	resultsHandler := handlers.NewResultsHandler(db, cfg)
	voterHandler := handlers.NewVoterHandler(db, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Season management (admin operations)
	mux.HandleFunc("POST /seasons", middleware.WithLogging(seasonHandler.CreateSeason))
	mux.HandleFunc("GET /seasons", middleware.WithLogging(seasonHandler.GetSeasons))
	mux.HandleFunc("GET /seasons/active", middleware.WithLogging(seasonHandler.GetActiveSeason))
	mux.HandleFunc("POST /seasons/{id}/activate", middleware.WithLogging(seasonHandler.ActivateSeason))
	mux.HandleFunc("POST /seasons/{id}/complete", middleware.WithLogging(seasonHandler.CompleteSeason))

	// Candidate roster
	mux.HandleFunc("POST /seasons/{id}/candidates", middleware.WithLogging(candidateHandler.CreateCandidate))
	mux.HandleFunc("GET /seasons/{id}/candidates", middleware.WithLogging(candidateHandler.GetCandidates))
	mux.HandleFunc("GET /candidates/{id}", middleware.WithLogging(candidateHandler.GetCandidate))

	// Week lifecycle (admin operations)
	mux.HandleFunc("POST /seasons/{id}/weeks", middleware.WithLogging(weekHandler.CreateWeek))
	mux.HandleFunc("GET /weeks/{id}", middleware.WithLogging(weekHandler.GetWeek))
	mux.HandleFunc("POST /weeks/{id}/start-voting", middleware.WithLogging(weekHandler.StartVoting))
	mux.HandleFunc("POST /weeks/{id}/end-voting", middleware.WithLogging(weekHandler.EndVoting))
	mux.HandleFunc("POST /weeks/{id}/cancel", middleware.WithLogging(weekHandler.CancelWeek))
	mux.HandleFunc("DELETE /weeks/{id}", middleware.WithLogging(weekHandler.DeleteWeek))
	mux.HandleFunc("POST /weeks/{id}/nominees", middleware.WithLogging(weekHandler.AddNominee))
	mux.HandleFunc("DELETE /weeks/{id}/nominees/{candidateId}", middleware.WithLogging(weekHandler.RemoveNominee))
	mux.HandleFunc("POST /weeks/{id}/invalidate-votes", middleware.WithLogging(weekHandler.InvalidateVotes))

	// Elimination and save workflow (admin operations)
	mux.HandleFunc("POST /weeks/{id}/eliminate", middleware.WithLogging(eliminationHandler.EliminateCandidate))
	mux.HandleFunc("DELETE /weeks/{id}/eliminate", middleware.WithLogging(eliminationHandler.RemoveEliminatedCandidate))
	mux.HandleFunc("POST /weeks/{id}/save", middleware.WithLogging(eliminationHandler.SaveCandidate))
	mux.HandleFunc("DELETE /weeks/{id}/save", middleware.WithLogging(eliminationHandler.RemoveSavedCandidate))

	// Voting operations (public)
	mux.HandleFunc("POST /weeks/{id}/votes", middleware.WithLogging(votingHandler.SubmitVotes))
	mux.HandleFunc("GET /weeks/{id}/results", middleware.WithLogging(resultsHandler.GetWeekResults))

	// Voter profile and points
	mux.HandleFunc("GET /me", middleware.WithLogging(voterHandler.GetMe))
	mux.HandleFunc("GET /me/points", middleware.WithLogging(voterHandler.GetMyPoints))
	mux.HandleFunc("POST /me/share-bonus", middleware.WithLogging(voterHandler.ShareBonus))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("house-points API v1"))
	})

	return mux
}
