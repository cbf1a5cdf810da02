// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danielhkuo/pollcast/export"
	"github.com/danielhkuo/pollcast/models"
	"github.com/danielhkuo/pollcast/realtime"
	"github.com/danielhkuo/pollcast/testutil"
	"github.com/gorilla/websocket"
	"github.com/xuri/excelize/v2"
)

func TestGetPoll(t *testing.T) {
	env := newTestEnv(t)
	_, _, slug := testutil.CreateTestPoll(t, env.db, env.cfg, models.StatusOpen, testutil.PollOptions{})

	w := httptest.NewRecorder()
	env.results.GetPoll(w, slugRequest("GET", slug, "", nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var poll models.Poll
	testutil.AssertJSON(t, w, &poll)

	if poll.Title != "Test Poll" {
		t.Errorf("Expected title 'Test Poll', got %s", poll.Title)
	}
	if len(poll.Questions) != len(testutil.DefaultQuestions()) {
		t.Fatalf("Expected %d questions, got %d", len(testutil.DefaultQuestions()), len(poll.Questions))
	}
	if poll.Questions[0].ID != "lunch" || len(poll.Questions[0].Options) != 3 {
		t.Errorf("Unexpected first question %+v", poll.Questions[0])
	}

	w = httptest.NewRecorder()
	env.results.GetPoll(w, slugRequest("GET", "missing", "", nil))
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestGetResults_Live(t *testing.T) {
	env := newTestEnv(t)
	_, _, slug := testutil.CreateTestPoll(t, env.db, env.cfg, models.StatusOpen, testutil.PollOptions{})

	env.submit(t, slug, "alice", map[string]string{"lunch": "tacos", "mood": "4", "nps": "10", "notes": "more salsa"})
	env.submit(t, slug, "bob", map[string]string{"lunch": "tacos", "mood": "2", "nps": "5"})
	env.submit(t, slug, "carol", map[string]string{"lunch": "sushi", "mood": "9"})

	w := httptest.NewRecorder()
	env.results.GetResults(w, slugRequest("GET", slug, "/results", nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.ResultsResponse
	testutil.AssertJSON(t, w, &resp)

	if resp.Final {
		t.Error("Open poll results should not be final")
	}
	if resp.Result.TotalRespondents != 3 {
		t.Errorf("Expected 3 respondents, got %d", resp.Result.TotalRespondents)
	}

	lunch := findQuestion(t, resp.Result, "lunch")
	if lunch.TotalVotes != 3 || optionCount(t, lunch, "tacos") != 2 || optionCount(t, lunch, "pizza") != 0 {
		t.Errorf("Unexpected lunch result %+v", lunch)
	}

	// "9" is out of range but still counts as a vote
	mood := findQuestion(t, resp.Result, "mood")
	if mood.TotalVotes != 3 {
		t.Errorf("Expected 3 mood votes, got %d", mood.TotalVotes)
	}
	if mood.AverageScore == nil || *mood.AverageScore != 3 {
		t.Errorf("Expected average 3, got %v", mood.AverageScore)
	}

	nps := findQuestion(t, resp.Result, "nps")
	if nps.NPSScore == nil || *nps.NPSScore != 0 {
		t.Errorf("Expected NPS 0, got %v", nps.NPSScore)
	}

	notes := findQuestion(t, resp.Result, "notes")
	if len(notes.TextResponses) != 1 || notes.TextResponses[0] != "more salsa" {
		t.Errorf("Unexpected text responses %v", notes.TextResponses)
	}
}

func TestGetResults_Sealed(t *testing.T) {
	env := newTestEnv(t)
	pollID, adminKey, slug := testutil.CreateTestPoll(t, env.db, env.cfg, models.StatusOpen, testutil.PollOptions{
		Visibility: models.VisibilitySealed,
	})
	env.submit(t, slug, "alice", map[string]string{"lunch": "pizza"})

	w := httptest.NewRecorder()
	env.results.GetResults(w, slugRequest("GET", slug, "/results", nil))
	testutil.AssertStatus(t, w, http.StatusForbidden)

	w = httptest.NewRecorder()
	env.results.ExportResults(w, slugRequest("GET", slug, "/export?format=json", nil))
	testutil.AssertStatus(t, w, http.StatusForbidden)

	w = httptest.NewRecorder()
	env.polls.ClosePoll(w, adminRequest("POST", pollID, adminKey, "/close"))
	testutil.AssertStatus(t, w, http.StatusOK)

	w = httptest.NewRecorder()
	env.results.GetResults(w, slugRequest("GET", slug, "/results", nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.ResultsResponse
	testutil.AssertJSON(t, w, &resp)
	if !resp.Final {
		t.Error("Closed poll results should be final")
	}
	if optionCount(t, findQuestion(t, resp.Result, "lunch"), "pizza") != 1 {
		t.Error("Expected the sealed vote in the final results")
	}
}

func TestGetResults_ClosedServesSnapshot(t *testing.T) {
	env := newTestEnv(t)
	pollID, adminKey, slug := testutil.CreateTestPoll(t, env.db, env.cfg, models.StatusOpen, testutil.PollOptions{})
	env.submit(t, slug, "alice", map[string]string{"lunch": "tacos"})

	w := httptest.NewRecorder()
	env.polls.ClosePoll(w, adminRequest("POST", pollID, adminKey, "/close"))
	testutil.AssertStatus(t, w, http.StatusOK)

	var closed models.ClosePollResponse
	testutil.AssertJSON(t, w, &closed)

	// Rows written after closing bypass the handler; the snapshot must not move.
	testutil.AddTestResponse(t, env.db, pollID, "mallory", "lunch", "sushi", time.Now())

	w = httptest.NewRecorder()
	env.results.GetResults(w, slugRequest("GET", slug, "/results", nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.ResultsResponse
	testutil.AssertJSON(t, w, &resp)

	if !resp.Computed.Equal(closed.Snapshot.ComputedAt) {
		t.Errorf("Expected snapshot time %v, got %v", closed.Snapshot.ComputedAt, resp.Computed)
	}
	lunch := findQuestion(t, resp.Result, "lunch")
	if optionCount(t, lunch, "sushi") != 0 || lunch.TotalVotes != 1 {
		t.Errorf("Snapshot changed after close: %+v", lunch)
	}
}

func TestGetResults_CacheInvalidatedBySubmit(t *testing.T) {
	env := newTestEnv(t)
	pollID, _, slug := testutil.CreateTestPoll(t, env.db, env.cfg, models.StatusOpen, testutil.PollOptions{})

	votes := func() int {
		t.Helper()
		w := httptest.NewRecorder()
		env.results.GetResults(w, slugRequest("GET", slug, "/results", nil))
		testutil.AssertStatus(t, w, http.StatusOK)
		var resp models.ResultsResponse
		testutil.AssertJSON(t, w, &resp)
		return findQuestion(t, resp.Result, "lunch").TotalVotes
	}

	if got := votes(); got != 0 {
		t.Fatalf("Expected 0 votes, got %d", got)
	}

	testutil.AddTestResponse(t, env.db, pollID, "alice", "lunch", "tacos", time.Now())
	if got := votes(); got != 0 {
		t.Errorf("Expected cached 0 votes, got %d", got)
	}

	testutil.AssertStatus(t, env.submit(t, slug, "bob", map[string]string{"lunch": "sushi"}), http.StatusCreated)
	if got := votes(); got != 2 {
		t.Errorf("Expected 2 votes after invalidation, got %d", got)
	}
}

func TestExportResults(t *testing.T) {
	env := newTestEnv(t)
	_, _, slug := testutil.CreateTestPoll(t, env.db, env.cfg, models.StatusOpen, testutil.PollOptions{})
	env.submit(t, slug, "alice", map[string]string{"lunch": "tacos", "notes": "hi"})

	tests := []struct {
		name        string
		query       string
		contentType string
		fileName    string
	}{
		{"default csv", "", "text/csv; charset=utf-8", "test-poll-results.csv"},
		{"json", "?format=json", "application/json", "test-poll-results.json"},
		{"xlsx", "?format=XLSX", export.FormatXLSX.ContentType(), "test-poll-results.xlsx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			env.results.ExportResults(w, slugRequest("GET", slug, "/export"+tt.query, nil))
			testutil.AssertStatus(t, w, http.StatusOK)

			if got := w.Header().Get("Content-Type"); got != tt.contentType {
				t.Errorf("Content-Type = %q, want %q", got, tt.contentType)
			}
			if got := w.Header().Get("Content-Disposition"); !strings.Contains(got, tt.fileName) {
				t.Errorf("Content-Disposition = %q, want file %s", got, tt.fileName)
			}
			if w.Body.Len() == 0 {
				t.Error("Expected a non-empty body")
			}
		})
	}

	t.Run("csv rows", func(t *testing.T) {
		w := httptest.NewRecorder()
		env.results.ExportResults(w, slugRequest("GET", slug, "/export?format=csv", nil))

		records, err := csv.NewReader(w.Body).ReadAll()
		if err != nil {
			t.Fatal(err)
		}
		if records[0][0] != "kind" {
			t.Errorf("Expected header row, got %v", records[0])
		}
		var sawText bool
		for _, rec := range records {
			if rec[0] == export.KindText && rec[4] == "hi" {
				sawText = true
			}
		}
		if !sawText {
			t.Error("Expected the open text answer in the export")
		}
	})

	t.Run("json body", func(t *testing.T) {
		w := httptest.NewRecorder()
		env.results.ExportResults(w, slugRequest("GET", slug, "/export?format=json", nil))

		var resp models.ResultsResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.Result.TotalRespondents != 1 {
			t.Errorf("Expected 1 respondent, got %d", resp.Result.TotalRespondents)
		}
	})

	t.Run("xlsx sheets", func(t *testing.T) {
		w := httptest.NewRecorder()
		env.results.ExportResults(w, slugRequest("GET", slug, "/export?format=xlsx", nil))

		f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
		if err != nil {
			t.Fatal(err)
		}
		defer f.Close()

		if idx, _ := f.GetSheetIndex(export.SheetSummary); idx < 0 {
			t.Errorf("Missing %s sheet", export.SheetSummary)
		}
	})

	t.Run("bad format", func(t *testing.T) {
		w := httptest.NewRecorder()
		env.results.ExportResults(w, slugRequest("GET", slug, "/export?format=pdf", nil))
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})

	t.Run("unknown poll", func(t *testing.T) {
		w := httptest.NewRecorder()
		env.results.ExportResults(w, slugRequest("GET", "missing", "/export", nil))
		testutil.AssertStatus(t, w, http.StatusNotFound)
	})
}

// liveMessage mirrors realtime.Message with a typed payload.
type liveMessage[T any] struct {
	Type    string `json:"type"`
	PollID  string `json:"poll_id"`
	Payload T      `json:"payload"`
}

func readLive[T any](t *testing.T, conn *websocket.Conn) liveMessage[T] {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	var msg liveMessage[T]
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	return msg
}

func TestStreamResults(t *testing.T) {
	env := newTestEnv(t)
	pollID, adminKey, slug := testutil.CreateTestPoll(t, env.db, env.cfg, models.StatusOpen, testutil.PollOptions{})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /polls/{slug}/live", env.results.StreamResults)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/polls/" + slug + "/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	initial := readLive[models.PollResult](t, conn)
	if initial.Type != realtime.MsgResults || initial.PollID != pollID {
		t.Fatalf("Unexpected initial message %+v", initial)
	}
	if findQuestion(t, initial.Payload, "lunch").TotalVotes != 0 {
		t.Error("Expected an empty initial result")
	}

	waitForSubscribers(t, env.live.Hub(), pollID, 1)

	testutil.AssertStatus(t, env.submit(t, slug, "alice", map[string]string{"lunch": "pizza"}), http.StatusCreated)

	update := readLive[models.PollResult](t, conn)
	if update.Type != realtime.MsgResults {
		t.Fatalf("Expected results update, got %q", update.Type)
	}
	if optionCount(t, findQuestion(t, update.Payload, "lunch"), "pizza") != 1 {
		t.Error("Expected the new vote in the pushed results")
	}

	w := httptest.NewRecorder()
	env.polls.ClosePoll(w, adminRequest("POST", pollID, adminKey, "/close"))
	testutil.AssertStatus(t, w, http.StatusOK)

	closed := readLive[models.ResultSnapshot](t, conn)
	if closed.Type != realtime.MsgClosed {
		t.Fatalf("Expected closed message, got %q", closed.Type)
	}
	if closed.Payload.Result.TotalRespondents != 1 {
		t.Errorf("Expected 1 respondent in final snapshot, got %d", closed.Payload.Result.TotalRespondents)
	}
}

func TestStreamResults_Rejected(t *testing.T) {
	env := newTestEnv(t)
	_, _, sealed := testutil.CreateTestPoll(t, env.db, env.cfg, models.StatusOpen, testutil.PollOptions{
		Visibility: models.VisibilitySealed,
	})
	_, _, closed := testutil.CreateTestPoll(t, env.db, env.cfg, models.StatusClosed, testutil.PollOptions{})

	tests := []struct {
		name           string
		slug           string
		expectedStatus int
	}{
		{"sealed poll", sealed, http.StatusForbidden},
		{"closed poll", closed, http.StatusConflict},
		{"unknown poll", "missing", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			env.results.StreamResults(w, slugRequest("GET", tt.slug, "/live", nil))
			testutil.AssertStatus(t, w, tt.expectedStatus)
		})
	}
}

func waitForSubscribers(t *testing.T, hub *realtime.Hub, pollID string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Count(pollID) != want {
		if time.Now().After(deadline) {
			t.Fatalf("subscribers = %d, want %d", hub.Count(pollID), want)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
