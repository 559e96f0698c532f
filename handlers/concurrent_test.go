// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/danielhkuo/house-points/models"
	"github.com/danielhkuo/house-points/testutil"
)

func TestConcurrentVoting_MultipleVoters(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	cfg := getTestConfig()
	handler := NewVotingHandler(db, cfg)

	seasonID, _ := testutil.CreateTestSeason(t, db, cfg, models.SeasonActive)
	weekID := testutil.CreateTestWeek(t, db, seasonID, 1, models.WeekVoting)
	candidateID := testutil.CreateTestCandidate(t, db, seasonID, "Alice")
	testutil.AddTestNominee(t, db, weekID, candidateID)

	const voters = 10
	var wg sync.WaitGroup
	codes := make([]int, voters)

	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			body, _ := json.Marshal(models.SubmitVotesRequest{
				Votes: []models.VoteAllocation{{CandidateID: candidateID, Points: 60}},
			})
			req := httptest.NewRequest("POST", "/weeks/"+weekID+"/votes", bytes.NewReader(body))
			req.SetPathValue("id", weekID)
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-Voter-ID", fmt.Sprintf("voter-%d", n))
			w := httptest.NewRecorder()
			handler.SubmitVotes(w, req)
			codes[n] = w.Code
		}(i)
	}
	wg.Wait()

	// Independent budgets: every voter's full spend lands
	for i, code := range codes {
		if code != http.StatusCreated {
			t.Errorf("Voter %d: expected 201, got %d", i, code)
		}
	}

	var voteCount, totalPoints int
	err := db.QueryRow("SELECT COUNT(*), COALESCE(SUM(points), 0) FROM vote WHERE week_id = $1", weekID).Scan(&voteCount, &totalPoints)
	if err != nil {
		t.Fatalf("Failed to count votes: %v", err)
	}
	if voteCount != voters {
		t.Errorf("Expected %d vote rows, got %d", voters, voteCount)
	}
	if totalPoints != voters*60 {
		t.Errorf("Expected %d total points, got %d", voters*60, totalPoints)
	}

	var candidateTotal int
	if err := db.QueryRow("SELECT total_votes FROM candidate WHERE id = $1", candidateID).Scan(&candidateTotal); err != nil {
		t.Fatalf("Failed to query candidate: %v", err)
	}
	if candidateTotal != voters*60 {
		t.Errorf("Expected candidate total %d, got %d", voters*60, candidateTotal)
	}
}

func TestConcurrentVoting_SingleVoterCannotOverspend(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	cfg := getTestConfig()
	handler := NewVotingHandler(db, cfg)

	seasonID, _ := testutil.CreateTestSeason(t, db, cfg, models.SeasonActive)
	weekID := testutil.CreateTestWeek(t, db, seasonID, 1, models.WeekVoting)
	candidateID := testutil.CreateTestCandidate(t, db, seasonID, "Alice")
	testutil.AddTestNominee(t, db, weekID, candidateID)
	testutil.CreateTestVoter(t, db, "racer")

	// Five overlapping 40-point submissions against a 60-point budget; at
	// most one can land
	const attempts = 5
	var wg sync.WaitGroup
	var mu sync.Mutex
	var successes, rejections int

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			body, _ := json.Marshal(models.SubmitVotesRequest{
				Votes: []models.VoteAllocation{{CandidateID: candidateID, Points: 40}},
			})
			req := httptest.NewRequest("POST", "/weeks/"+weekID+"/votes", bytes.NewReader(body))
			req.SetPathValue("id", weekID)
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-Voter-ID", "racer")
			w := httptest.NewRecorder()
			handler.SubmitVotes(w, req)

			mu.Lock()
			defer mu.Unlock()
			switch w.Code {
			case http.StatusCreated:
				successes++
			case http.StatusConflict:
				rejections++
			default:
				t.Errorf("Unexpected status %d: %s", w.Code, w.Body.String())
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("Expected exactly 1 successful submission, got %d", successes)
	}
	if rejections != attempts-1 {
		t.Errorf("Expected %d rejections, got %d", attempts-1, rejections)
	}

	// The ledger can never exceed the daily budget
	var spent int
	err := db.QueryRow("SELECT COALESCE(SUM(points), 0) FROM vote WHERE voter_id = 'racer' AND is_valid = TRUE").Scan(&spent)
	if err != nil {
		t.Fatalf("Failed to sum votes: %v", err)
	}
	if spent > 60 {
		t.Errorf("Voter overspent the budget: %d points", spent)
	}
	if spent != 40 {
		t.Errorf("Expected exactly 40 points spent, got %d", spent)
	}

	var voterTotal int
	if err := db.QueryRow("SELECT total_votes FROM voter WHERE id = 'racer'").Scan(&voterTotal); err != nil {
		t.Fatalf("Failed to query voter: %v", err)
	}
	if voterTotal != 40 {
		t.Errorf("Expected voter counter 40, got %d", voterTotal)
	}
}
