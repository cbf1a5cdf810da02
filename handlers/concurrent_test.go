// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/danielhkuo/pollcast/models"
	"github.com/danielhkuo/pollcast/testutil"
)

// TestConcurrentSubmissions verifies that simultaneous submissions from
// different voters are all stored and counted once each
func TestConcurrentSubmissions(t *testing.T) {
	env := newTestEnv(t)
	pollID, _, slug := testutil.CreateTestPoll(t, env.db, env.cfg, models.StatusOpen, testutil.PollOptions{})

	numVoters := 10
	choices := []string{"tacos", "sushi", "pizza"}

	var successCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < numVoters; i++ {
		wg.Add(1)
		go func(voterIdx int) {
			defer wg.Done()

			w := env.submit(t, slug, fmt.Sprintf("voter-%02d", voterIdx), map[string]string{
				"lunch": choices[voterIdx%len(choices)],
				"mood":  fmt.Sprint(voterIdx%5 + 1),
			})
			if w.Code == http.StatusCreated {
				successCount.Add(1)
			}
		}(i)
	}

	wg.Wait()

	if int(successCount.Load()) != numVoters {
		t.Errorf("Expected %d successful submissions, got %d", numVoters, successCount.Load())
	}

	var rowCount int
	if err := env.db.QueryRow("SELECT COUNT(*) FROM response WHERE poll_id = $1", pollID).Scan(&rowCount); err != nil {
		t.Fatalf("Failed to count responses: %v", err)
	}
	if rowCount != numVoters*2 {
		t.Errorf("Expected %d responses in database, got %d", numVoters*2, rowCount)
	}

	w := httptest.NewRecorder()
	env.responses.GetRespondentCount(w, slugRequest("GET", slug, "/respondent-count", nil))
	var count models.RespondentCountResponse
	testutil.AssertJSON(t, w, &count)

	if count.RespondentCount != numVoters {
		t.Errorf("Expected %d respondents, got %d", numVoters, count.RespondentCount)
	}
}

// TestConcurrentAnonymousSubmissions verifies that anonymous submissions made
// at the same moment from many goroutines each keep a distinct timestamp
func TestConcurrentAnonymousSubmissions(t *testing.T) {
	env := newTestEnv(t)
	_, _, slug := testutil.CreateTestPoll(t, env.db, env.cfg, models.StatusOpen, testutil.PollOptions{Anonymous: true})

	numVoters := 8
	var wg sync.WaitGroup
	for i := 0; i < numVoters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			env.submit(t, slug, "", map[string]string{"lunch": "tacos", "nps": "9"})
		}()
	}
	wg.Wait()

	w := httptest.NewRecorder()
	env.responses.GetRespondentCount(w, slugRequest("GET", slug, "/respondent-count", nil))
	var count models.RespondentCountResponse
	testutil.AssertJSON(t, w, &count)

	if count.ResponseCount != numVoters*2 {
		t.Errorf("Expected %d responses, got %d", numVoters*2, count.ResponseCount)
	}
	// Anonymous respondents are keyed by timestamp, so they can only merge.
	if count.RespondentCount < 1 || count.RespondentCount > numVoters {
		t.Errorf("Expected 1..%d respondents, got %d", numVoters, count.RespondentCount)
	}
}

// TestConcurrentPollClose verifies that when several admins close a poll at
// once exactly one close succeeds and exactly one snapshot is written
func TestConcurrentPollClose(t *testing.T) {
	env := newTestEnv(t)
	pollID, adminKey, slug := testutil.CreateTestPoll(t, env.db, env.cfg, models.StatusOpen, testutil.PollOptions{})
	env.submit(t, slug, "alice", map[string]string{"lunch": "sushi"})

	numAttempts := 5
	var successCount, conflictCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < numAttempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			w := httptest.NewRecorder()
			env.polls.ClosePoll(w, adminRequest("POST", pollID, adminKey, "/close"))

			switch w.Code {
			case http.StatusOK:
				successCount.Add(1)
			case http.StatusConflict:
				conflictCount.Add(1)
			}
		}()
	}

	wg.Wait()

	if successCount.Load() != 1 {
		t.Errorf("Expected exactly 1 successful close, got %d", successCount.Load())
	}
	if conflictCount.Load() != int32(numAttempts-1) {
		t.Errorf("Expected %d conflicts, got %d", numAttempts-1, conflictCount.Load())
	}

	var snapshots int
	if err := env.db.QueryRow("SELECT COUNT(*) FROM result_snapshot WHERE poll_id = $1", pollID).Scan(&snapshots); err != nil {
		t.Fatalf("Failed to count snapshots: %v", err)
	}
	if snapshots != 1 {
		t.Errorf("Expected 1 snapshot, got %d", snapshots)
	}
}

// TestConcurrentSubmitAndClose verifies that every submission accepted while a
// poll is closing ends up in the final snapshot and every rejected one does not
func TestConcurrentSubmitAndClose(t *testing.T) {
	env := newTestEnv(t)
	pollID, adminKey, slug := testutil.CreateTestPoll(t, env.db, env.cfg, models.StatusOpen, testutil.PollOptions{})

	numVoters := 12
	var accepted atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < numVoters; i++ {
		wg.Add(1)
		go func(voterIdx int) {
			defer wg.Done()

			w := env.submit(t, slug, fmt.Sprintf("voter-%02d", voterIdx), map[string]string{"lunch": "pizza"})
			switch w.Code {
			case http.StatusCreated:
				accepted.Add(1)
			case http.StatusConflict:
			default:
				t.Errorf("Unexpected status %d: %s", w.Code, w.Body.String())
			}
		}(i)

		if i == numVoters/2 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				w := httptest.NewRecorder()
				env.polls.ClosePoll(w, adminRequest("POST", pollID, adminKey, "/close"))
				if w.Code != http.StatusOK {
					t.Errorf("Close failed: %d - %s", w.Code, w.Body.String())
				}
			}()
		}
	}

	wg.Wait()

	w := httptest.NewRecorder()
	env.results.GetResults(w, slugRequest("GET", slug, "/results", nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.ResultsResponse
	testutil.AssertJSON(t, w, &resp)

	if !resp.Final {
		t.Fatal("Expected final results after close")
	}
	if resp.Result.TotalRespondents != int(accepted.Load()) {
		t.Errorf("Snapshot has %d respondents, %d submissions were accepted",
			resp.Result.TotalRespondents, accepted.Load())
	}
}

// TestConcurrentResultReads verifies that many readers of a live poll agree
// on the aggregate
func TestConcurrentResultReads(t *testing.T) {
	env := newTestEnv(t)
	_, _, slug := testutil.CreateTestPoll(t, env.db, env.cfg, models.StatusOpen, testutil.PollOptions{})

	for i := 0; i < 4; i++ {
		env.submit(t, slug, fmt.Sprintf("voter-%d", i), map[string]string{"lunch": "tacos"})
	}

	numReaders := 20
	var wg sync.WaitGroup
	votes := make([]int, numReaders)

	for i := 0; i < numReaders; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			w := httptest.NewRecorder()
			env.results.GetResults(w, slugRequest("GET", slug, "/results", nil))
			if w.Code != http.StatusOK {
				t.Errorf("Reader %d got status %d", idx, w.Code)
				return
			}

			var resp models.ResultsResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Errorf("Reader %d: %v", idx, err)
				return
			}
			for _, qr := range resp.Result.QuestionResults {
				if qr.QuestionID == "lunch" {
					votes[idx] = qr.TotalVotes
				}
			}
		}(i)
	}

	wg.Wait()

	for i, v := range votes {
		if v != 4 {
			t.Errorf("Reader %d saw %d votes, want 4", i, v)
		}
	}
}

// TestParallelPolls verifies that submissions to different polls stay
// isolated
func TestParallelPolls(t *testing.T) {
	env := newTestEnv(t)

	numPolls := 3
	votersPerPoll := 4
	slugs := make([]string, numPolls)
	for i := range slugs {
		_, _, slugs[i] = testutil.CreateTestPoll(t, env.db, env.cfg, models.StatusOpen, testutil.PollOptions{})
	}

	var wg sync.WaitGroup
	for p, slug := range slugs {
		for v := 0; v < votersPerPoll; v++ {
			wg.Add(1)
			go func(slug string, pollIdx, voterIdx int) {
				defer wg.Done()
				env.submit(t, slug, fmt.Sprintf("p%d-v%d", pollIdx, voterIdx), map[string]string{"lunch": "sushi"})
			}(slug, p, v)
		}
	}
	wg.Wait()

	for _, slug := range slugs {
		w := httptest.NewRecorder()
		env.results.GetResults(w, slugRequest("GET", slug, "/results", nil))

		var resp models.ResultsResponse
		testutil.AssertJSON(t, w, &resp)

		if resp.Result.TotalRespondents != votersPerPoll {
			t.Errorf("Poll %s: expected %d respondents, got %d", slug, votersPerPoll, resp.Result.TotalRespondents)
		}
	}
}
