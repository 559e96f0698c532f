// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/house-points/models"
	"github.com/danielhkuo/house-points/testutil"
)

func TestEliminateCandidate(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	cfg := getTestConfig()
	handler := NewEliminationHandler(db, cfg)

	seasonID, adminKey := testutil.CreateTestSeason(t, db, cfg, models.SeasonActive)
	weekID := testutil.CreateTestWeek(t, db, seasonID, 1, models.WeekCompleted)

	aliceID := testutil.CreateTestCandidate(t, db, seasonID, "Alice")
	bobID := testutil.CreateTestCandidate(t, db, seasonID, "Bob")
	strangerID := testutil.CreateTestCandidate(t, db, seasonID, "Stranger")
	testutil.AddTestNominee(t, db, weekID, aliceID)
	testutil.AddTestNominee(t, db, weekID, bobID)

	eliminate := func(weekID, candidateID, reason string) *httptest.ResponseRecorder {
		body, _ := json.Marshal(models.EliminateRequest{CandidateID: candidateID, Reason: reason})
		req := httptest.NewRequest("POST", "/weeks/"+weekID+"/eliminate", bytes.NewReader(body))
		req.SetPathValue("id", weekID)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Admin-Key", adminKey)
		w := httptest.NewRecorder()
		handler.EliminateCandidate(w, req)
		return w
	}

	candidateState := func(id string) (status string, isActive bool, week *int, note *string) {
		err := db.QueryRow(`
			SELECT status, is_active, eliminated_week, elimination_reason
			FROM candidate WHERE id = $1
		`, id).Scan(&status, &isActive, &week, &note)
		if err != nil {
			t.Fatalf("Failed to query candidate: %v", err)
		}
		return
	}

	// Eliminate Alice with a reason
	if w := eliminate(weekID, aliceID, "lowest votes"); w.Code != http.StatusOK {
		t.Fatalf("Eliminate failed: %d - %s", w.Code, w.Body.String())
	}

	status, isActive, week, note := candidateState(aliceID)
	if status != models.CandidateEliminated || isActive {
		t.Errorf("Expected Alice eliminated and inactive, got status=%s active=%v", status, isActive)
	}
	if week == nil || *week != 1 {
		t.Errorf("Expected eliminated_week 1, got %v", week)
	}
	if note == nil || *note != "lowest votes" {
		t.Errorf("Expected reason 'lowest votes', got %v", note)
	}

	// Same candidate again: idempotent
	if w := eliminate(weekID, aliceID, ""); w.Code != http.StatusOK {
		t.Errorf("Expected idempotent 200, got %d", w.Code)
	}

	// Eliminating Bob replaces the pointer and reactivates Alice
	if w := eliminate(weekID, bobID, ""); w.Code != http.StatusOK {
		t.Fatalf("Replace eliminate failed: %d - %s", w.Code, w.Body.String())
	}

	status, isActive, week, note = candidateState(aliceID)
	if status != models.CandidateActive || !isActive {
		t.Errorf("Expected Alice reactivated, got status=%s active=%v", status, isActive)
	}
	if week != nil || note != nil {
		t.Errorf("Expected Alice's elimination stamp cleared, got week=%v note=%v", week, note)
	}

	status, _, _, note = candidateState(bobID)
	if status != models.CandidateEliminated {
		t.Errorf("Expected Bob eliminated, got status=%s", status)
	}
	if note != nil {
		t.Errorf("Expected no reason for Bob, got %v", note)
	}

	var pointer string
	if err := db.QueryRow("SELECT eliminated_candidate_id FROM week WHERE id = $1", weekID).Scan(&pointer); err != nil {
		t.Fatalf("Failed to query week pointer: %v", err)
	}
	if pointer != bobID {
		t.Errorf("Expected week pointer at Bob, got %s", pointer)
	}

	// Non-nominee cannot be eliminated
	w := eliminate(weekID, strangerID, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for non-nominee, got %d", w.Code)
	}
	var errResp models.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&errResp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if errResp.Kind != models.KindCandidateNotNominated {
		t.Errorf("Expected kind CANDIDATE_NOT_NOMINATED, got '%s'", errResp.Kind)
	}

	// Eliminations apply to completed weeks only
	votingWeekID := testutil.CreateTestWeek(t, db, seasonID, 2, models.WeekVoting)
	testutil.AddTestNominee(t, db, votingWeekID, aliceID)
	if w := eliminate(votingWeekID, aliceID, ""); w.Code != http.StatusConflict {
		t.Errorf("Expected 409 for voting week, got %d", w.Code)
	}
}

func TestRemoveEliminatedCandidate(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	cfg := getTestConfig()
	handler := NewEliminationHandler(db, cfg)

	seasonID, adminKey := testutil.CreateTestSeason(t, db, cfg, models.SeasonActive)
	weekID := testutil.CreateTestWeek(t, db, seasonID, 1, models.WeekCompleted)
	aliceID := testutil.CreateTestCandidate(t, db, seasonID, "Alice")
	testutil.AddTestNominee(t, db, weekID, aliceID)

	removeElimination := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest("DELETE", "/weeks/"+weekID+"/eliminate", nil)
		req.SetPathValue("id", weekID)
		req.Header.Set("X-Admin-Key", adminKey)
		w := httptest.NewRecorder()
		handler.RemoveEliminatedCandidate(w, req)
		return w
	}

	// Nothing to remove yet: succeeds as a no-op
	if w := removeElimination(); w.Code != http.StatusOK {
		t.Fatalf("Expected 200 for no-op removal, got %d - %s", w.Code, w.Body.String())
	}

	// Eliminate, then undo
	body, _ := json.Marshal(models.EliminateRequest{CandidateID: aliceID})
	req := httptest.NewRequest("POST", "/weeks/"+weekID+"/eliminate", bytes.NewReader(body))
	req.SetPathValue("id", weekID)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Admin-Key", adminKey)
	w := httptest.NewRecorder()
	handler.EliminateCandidate(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Eliminate failed: %d - %s", w.Code, w.Body.String())
	}

	if w := removeElimination(); w.Code != http.StatusOK {
		t.Fatalf("Remove elimination failed: %d - %s", w.Code, w.Body.String())
	}

	var status string
	var isActive bool
	if err := db.QueryRow("SELECT status, is_active FROM candidate WHERE id = $1", aliceID).Scan(&status, &isActive); err != nil {
		t.Fatalf("Failed to query candidate: %v", err)
	}
	if status != models.CandidateActive || !isActive {
		t.Errorf("Expected Alice reactivated, got status=%s active=%v", status, isActive)
	}

	var pointerValid bool
	if err := db.QueryRow("SELECT eliminated_candidate_id IS NOT NULL FROM week WHERE id = $1", weekID).Scan(&pointerValid); err != nil {
		t.Fatalf("Failed to query week: %v", err)
	}
	if pointerValid {
		t.Error("Expected week pointer cleared")
	}
}

func TestSaveCandidate(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	cfg := getTestConfig()
	handler := NewEliminationHandler(db, cfg)

	seasonID, adminKey := testutil.CreateTestSeason(t, db, cfg, models.SeasonActive)
	weekID := testutil.CreateTestWeek(t, db, seasonID, 1, models.WeekVoting)

	aliceID := testutil.CreateTestCandidate(t, db, seasonID, "Alice")
	bobID := testutil.CreateTestCandidate(t, db, seasonID, "Bob")
	strangerID := testutil.CreateTestCandidate(t, db, seasonID, "Stranger")
	testutil.AddTestNominee(t, db, weekID, aliceID)
	testutil.AddTestNominee(t, db, weekID, bobID)

	save := func(candidateID string) *httptest.ResponseRecorder {
		body, _ := json.Marshal(models.SaveCandidateRequest{CandidateID: candidateID})
		req := httptest.NewRequest("POST", "/weeks/"+weekID+"/save", bytes.NewReader(body))
		req.SetPathValue("id", weekID)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Admin-Key", adminKey)
		w := httptest.NewRecorder()
		handler.SaveCandidate(w, req)
		return w
	}

	savedPointer := func() *string {
		var p *string
		if err := db.QueryRow("SELECT saved_candidate_id FROM week WHERE id = $1", weekID).Scan(&p); err != nil {
			t.Fatalf("Failed to query week: %v", err)
		}
		return p
	}

	// Saving works on any week state, unlike eliminations
	if w := save(aliceID); w.Code != http.StatusOK {
		t.Fatalf("Save failed: %d - %s", w.Code, w.Body.String())
	}
	if p := savedPointer(); p == nil || *p != aliceID {
		t.Errorf("Expected saved pointer at Alice, got %v", p)
	}

	// A save does not touch the candidate's status
	var status string
	if err := db.QueryRow("SELECT status FROM candidate WHERE id = $1", aliceID).Scan(&status); err != nil {
		t.Fatalf("Failed to query candidate: %v", err)
	}
	if status != models.CandidateActive {
		t.Errorf("Expected Alice still active, got %s", status)
	}

	// Repeat saves replace the pointer
	if w := save(bobID); w.Code != http.StatusOK {
		t.Fatalf("Replace save failed: %d - %s", w.Code, w.Body.String())
	}
	if p := savedPointer(); p == nil || *p != bobID {
		t.Errorf("Expected saved pointer at Bob, got %v", p)
	}

	// Non-nominee cannot be saved
	if w := save(strangerID); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for non-nominee, got %d", w.Code)
	}

	// Undo the save
	req := httptest.NewRequest("DELETE", "/weeks/"+weekID+"/save", nil)
	req.SetPathValue("id", weekID)
	req.Header.Set("X-Admin-Key", adminKey)
	w := httptest.NewRecorder()
	handler.RemoveSavedCandidate(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Remove save failed: %d - %s", w.Code, w.Body.String())
	}
	if p := savedPointer(); p != nil {
		t.Errorf("Expected saved pointer cleared, got %v", p)
	}
}
