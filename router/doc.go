// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the House Points API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg)

# Endpoints

Health:

	GET /health

Season management (admin, requires X-Admin-Key):

	POST /seasons                 - Create season (returns admin_key)
	GET  /seasons                 - List seasons
	GET  /seasons/active          - Active season or null
	POST /seasons/{id}/activate   - Promote to the single active season
	POST /seasons/{id}/complete   - Close out a season

Candidates:

	POST /seasons/{id}/candidates - Add candidate (admin)
	GET  /seasons/{id}/candidates - Standings for a season
	GET  /candidates/{id}         - Single candidate

Week lifecycle (admin):

	POST   /seasons/{id}/weeks            - Create week (number = max+1)
	GET    /weeks/{id}                    - Week with nominees and results
	POST   /weeks/{id}/start-voting       - Open the voting window
	POST   /weeks/{id}/end-voting         - Close and freeze results
	POST   /weeks/{id}/cancel             - Cancel a pending/open week
	DELETE /weeks/{id}                    - Delete (never mid-vote)
	POST   /weeks/{id}/nominees           - Nominate a candidate
	DELETE /weeks/{id}/nominees/{candidateId} - Remove a nominee
	POST   /weeks/{id}/invalidate-votes   - Soft-invalidate the week's votes

Elimination and save (admin):

	POST   /weeks/{id}/eliminate - Mark the eliminated candidate
	DELETE /weeks/{id}/eliminate - Undo and reactivate
	POST   /weeks/{id}/save      - Mark the saved candidate
	DELETE /weeks/{id}/save      - Clear the save

Voting (public, requires X-Voter-ID):

	POST /weeks/{id}/votes   - Submit a vote batch
	GET  /weeks/{id}/results - Live or frozen results

Voter profile:

	GET  /me             - Profile plus available points
	GET  /me/points      - Points budget
	POST /me/share-bonus - Claim the daily share bonus

# Handler Initialization

The router creates handler instances with dependency injection:

	seasonHandler := handlers.NewSeasonHandler(db, cfg)
	weekHandler := handlers.NewWeekHandler(db, cfg)
	votingHandler := handlers.NewVotingHandler(db, cfg)

All handlers receive the database connection and configuration.
*/
package router
