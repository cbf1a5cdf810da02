// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/pollcast/auth"
	"github.com/danielhkuo/pollcast/cliparse"
	"github.com/danielhkuo/pollcast/db"
	"github.com/danielhkuo/pollcast/models"
)

// SetupTestDB opens a private in-memory SQLite database with the full schema.
// It is closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(context.Background(), cliparse.Config{
		DatabaseType: cliparse.DatabaseSQLite,
		DatabaseURL:  ":memory:",
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:            3318,
		DatabaseURL:     ":memory:",
		DatabaseType:    cliparse.DatabaseSQLite,
		AdminKeySalt:    "test-admin-salt",
		PollSlugSalt:    "test-slug-salt",
		BaseURL:         "https://polls.test",
		ResultsCacheTTL: 30 * time.Second,
	}
}

// DefaultQuestions returns one question of every type.
func DefaultQuestions() []models.Question {
	return []models.Question{
		{
			ID: "lunch", Text: "Where should we eat?", Type: models.TypeSingleChoice, Required: true,
			Options: []models.Option{{ID: "tacos", Text: "Tacos"}, {ID: "sushi", Text: "Sushi"}, {ID: "pizza", Text: "Pizza"}},
		},
		{
			ID: "extras", Text: "Pick sides", Type: models.TypeMultipleChoice,
			Options: []models.Option{{ID: "chips", Text: "Chips"}, {ID: "salad", Text: "Salad"}},
		},
		{ID: "mood", Text: "How hungry?", Type: models.TypeRating, RatingMax: 5},
		{ID: "nps", Text: "Recommend the team lunch?", Type: models.TypeNPS},
		{
			ID: "order", Text: "Rank the days", Type: models.TypeRanking,
			Options: []models.Option{{ID: "mon", Text: "Monday"}, {ID: "fri", Text: "Friday"}},
		},
		{ID: "notes", Text: "Anything else?", Type: models.TypeOpenText},
	}
}

// PollOptions tweaks CreateTestPoll.
type PollOptions struct {
	Visibility string
	Anonymous  bool
	Questions  []models.Question
}

// CreateTestPoll inserts a poll with its questions and returns its ID, admin
// key and share slug. status should be "draft", "open", or "closed"; closed
// polls get an empty snapshot.
func CreateTestPoll(t *testing.T, conn *sql.DB, cfg cliparse.Config, status string, opts PollOptions) (pollID, adminKey, shareSlug string) {
	t.Helper()

	pollID, _ = auth.GenerateID(16)
	adminKey = auth.GenerateAdminKey(pollID, cfg.AdminKeySalt)

	if opts.Visibility == "" {
		opts.Visibility = models.VisibilityLive
	}
	if opts.Questions == nil {
		opts.Questions = DefaultQuestions()
	}

	var slug, closedAt, snapshotID sql.NullString
	if status == models.StatusOpen || status == models.StatusClosed {
		shareSlug = auth.GenerateShareSlug(pollID, cfg.PollSlugSalt)
		slug = sql.NullString{String: shareSlug, Valid: true}
	}
	now := time.Now()
	if status == models.StatusClosed {
		closedAt = sql.NullString{String: db.FormatTime(now), Valid: true}
		snapshotID = sql.NullString{String: auth.NewRecordID(), Valid: true}
	}

	_, err := conn.Exec(`
		INSERT INTO poll (id, title, description, creator_name, status, results_visibility,
		                  anonymous, share_slug, closed_at, final_snapshot_id, created_at)
		VALUES ($1, 'Test Poll', 'A test poll', 'TestUser', $2, $3, $4, $5, $6, $7, $8)
	`, pollID, status, opts.Visibility, opts.Anonymous, slug, closedAt, snapshotID, db.FormatTime(now))
	if err != nil {
		t.Fatalf("Failed to create test poll: %v", err)
	}

	for qi, q := range opts.Questions {
		_, err := conn.Exec(`
			INSERT INTO question (id, poll_id, position, text, type, required, rating_max, follow_up_trigger)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, q.ID, pollID, qi, q.Text, string(q.Type), q.Required, q.RatingMax, q.FollowUpTrigger)
		if err != nil {
			t.Fatalf("Failed to create test question: %v", err)
		}
		for oi, opt := range q.Options {
			_, err := conn.Exec(`
				INSERT INTO option (id, poll_id, question_id, position, text, color)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, opt.ID, pollID, q.ID, oi, opt.Text, opt.Color)
			if err != nil {
				t.Fatalf("Failed to create test option: %v", err)
			}
		}
	}

	if snapshotID.Valid {
		payload, _ := json.Marshal(models.PollResult{PollID: pollID, QuestionResults: []models.QuestionResult{}})
		_, err := conn.Exec(`
			INSERT INTO result_snapshot (id, poll_id, computed_at, payload)
			VALUES ($1, $2, $3, $4)
		`, snapshotID.String, pollID, closedAt.String, string(payload))
		if err != nil {
			t.Fatalf("Failed to create test snapshot: %v", err)
		}
	}

	return pollID, adminKey, shareSlug
}

// AddTestResponse stores one answer directly, bypassing validation, and
// returns its ID.
func AddTestResponse(t *testing.T, conn *sql.DB, pollID, voter, questionID, data string, at time.Time) string {
	t.Helper()

	id := auth.NewRecordID()
	_, err := conn.Exec(`
		INSERT INTO response (id, poll_id, question_id, voter, response_data, submitted_at, is_anonymous)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, pollID, questionID, voter, data, db.FormatTime(at), voter == "")
	if err != nil {
		t.Fatalf("Failed to create test response: %v", err)
	}

	return id
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
