// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/pollcast/cliparse"
	"github.com/danielhkuo/pollcast/handlers"
	"github.com/danielhkuo/pollcast/models"
	"github.com/danielhkuo/pollcast/realtime"
	"github.com/danielhkuo/pollcast/testutil"
)

func newTestRouter(t *testing.T) (*http.ServeMux, *sql.DB, cliparse.Config) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	live := handlers.NewLiveResults(db, cfg, realtime.NewHub())
	t.Cleanup(live.Close)

	return NewRouter(db, cfg, live), db, cfg
}

func TestHealthEndpoint(t *testing.T) {
	mux, _, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	if w.Body.String() != "OK" {
		t.Errorf("Expected body 'OK', got '%s'", w.Body.String())
	}
}

func TestRootEndpoint(t *testing.T) {
	mux, _, _ := newTestRouter(t)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	expected := "pollcast API v1"
	if w.Body.String() != expected {
		t.Errorf("Expected body '%s', got '%s'", expected, w.Body.String())
	}
}

func TestRouteExistence(t *testing.T) {
	mux, _, _ := newTestRouter(t)

	// 400, 401, 404 are all valid responses depending on handler logic
	testCases := []struct {
		method string
		path   string
	}{
		// Health and root
		{"GET", "/health"},
		{"GET", "/"},

		// Poll management routes
		{"POST", "/polls"},
		{"GET", "/polls/test-id/admin"},
		{"POST", "/polls/test-id/publish"},
		{"POST", "/polls/test-id/close"},
		{"GET", "/polls/test-id/admin/results"},

		// Public routes
		{"GET", "/polls/test-slug"},
		{"POST", "/polls/test-slug/responses"},
		{"GET", "/polls/test-slug/respondent-count"},
		{"GET", "/polls/test-slug/results"},
		{"GET", "/polls/test-slug/export"},
		{"GET", "/polls/test-slug/live"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code == http.StatusMethodNotAllowed {
				t.Errorf("Route %s %s returned 405, expected route handler to exist", tc.method, tc.path)
			}
		})
	}
}

func TestSpecificMethodRouting(t *testing.T) {
	mux, _, _ := newTestRouter(t)

	testCases := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{"POST to health endpoint", "POST", "/health", http.StatusMethodNotAllowed},
		{"DELETE admin view", "DELETE", "/polls/test-id/admin", http.StatusMethodNotAllowed},
		{"PUT results endpoint", "PUT", "/polls/test-slug/results", http.StatusMethodNotAllowed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != tc.expectedStatus {
				t.Errorf("Expected %d for %s %s, got %d", tc.expectedStatus, tc.method, tc.path, w.Code)
			}
		})
	}
}

func TestPathParameterExtraction(t *testing.T) {
	mux, db, cfg := newTestRouter(t)

	pollID, adminKey, slug := testutil.CreateTestPoll(t, db, cfg, models.StatusOpen, testutil.PollOptions{})

	t.Run("poll ID extraction", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/polls/"+pollID+"/admin", nil)
		req.Header.Set("X-Admin-Key", adminKey)
		w := httptest.NewRecorder()

		mux.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected 200 with valid admin key, got %d. Body: %s", w.Code, w.Body.String())
		}
	})

	t.Run("slug extraction", func(t *testing.T) {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest("GET", "/polls/"+slug+"/results", nil))

		if w.Code != http.StatusOK {
			t.Errorf("Expected 200 for live results, got %d. Body: %s", w.Code, w.Body.String())
		}
		if w.Header().Get("X-Request-ID") == "" {
			t.Error("Expected request id header from logging middleware")
		}
	})
}

func TestSubmitThroughRouter(t *testing.T) {
	mux, db, cfg := newTestRouter(t)
	pollID, adminKey, slug := testutil.CreateTestPoll(t, db, cfg, models.StatusOpen, testutil.PollOptions{})

	body := models.SubmitResponseRequest{
		Voter:   "alice",
		Answers: []models.AnswerInput{{QuestionID: "lunch", ResponseData: "tacos"}},
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, testutil.MakeRequest("POST", "/polls/"+slug+"/responses", body, nil))
	testutil.AssertStatus(t, w, http.StatusCreated)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, testutil.MakeRequest("GET", "/polls/"+pollID+"/admin/results", nil, map[string]string{
		"X-Admin-Key": adminKey,
	}))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.ResultsResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Result.TotalRespondents != 1 {
		t.Errorf("Expected 1 respondent, got %d", resp.Result.TotalRespondents)
	}
}
