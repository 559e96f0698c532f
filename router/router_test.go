// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/house-points/models"
	"github.com/danielhkuo/house-points/testutil"
)

func TestHealthEndpoint(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	mux := NewRouter(db, testutil.GetTestConfig())

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
	if w.Body.String() != "OK" {
		t.Errorf("Expected body 'OK', got '%s'", w.Body.String())
	}
}

func TestRootEndpoint(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	mux := NewRouter(db, testutil.GetTestConfig())

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
	if w.Body.String() != "house-points API v1" {
		t.Errorf("Unexpected root body: '%s'", w.Body.String())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	mux := NewRouter(db, testutil.GetTestConfig())

	tests := []struct {
		method string
		path   string
	}{
		{"DELETE", "/seasons"},
		{"PUT", "/weeks/abc"},
		{"DELETE", "/me"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s: expected 405, got %d", tt.method, tt.path, w.Code)
		}
	}
}

func TestPathParamExtraction(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	mux := NewRouter(db, cfg)

	seasonID, _ := testutil.CreateTestSeason(t, db, cfg, models.SeasonActive)
	candidateID := testutil.CreateTestCandidate(t, db, seasonID, "Alice")

	req := httptest.NewRequest("GET", "/candidates/"+candidateID, nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d - %s", w.Code, w.Body.String())
	}

	var c models.Candidate
	testutil.AssertJSON(t, w, &c)
	if c.ID != candidateID {
		t.Errorf("Expected candidate %s, got %s", candidateID, c.ID)
	}
}

func TestRoutedVoteSubmission(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	cfg := testutil.GetTestConfig()
	mux := NewRouter(db, cfg)

	seasonID, _ := testutil.CreateTestSeason(t, db, cfg, models.SeasonActive)
	weekID := testutil.CreateTestWeek(t, db, seasonID, 1, models.WeekVoting)
	candidateID := testutil.CreateTestCandidate(t, db, seasonID, "Alice")
	testutil.AddTestNominee(t, db, weekID, candidateID)

	req := testutil.MakeRequest("POST", "/weeks/"+weekID+"/votes", models.SubmitVotesRequest{
		Votes: []models.VoteAllocation{{CandidateID: candidateID, Points: 25}},
	}, map[string]string{"X-Voter-ID": "voter-1"})
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.SubmitVotesResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.RemainingPoints != 35 {
		t.Errorf("Expected 35 remaining, got %d", resp.RemainingPoints)
	}
}

func TestUnknownRoute(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	mux := NewRouter(db, testutil.GetTestConfig())

	req := httptest.NewRequest("POST", "/nope", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound && w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 404/405 for unknown route, got %d", w.Code)
	}
}
