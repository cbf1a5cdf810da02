// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/pollcast/auth"
	"github.com/danielhkuo/pollcast/cliparse"
	"github.com/danielhkuo/pollcast/models"
	"github.com/danielhkuo/pollcast/realtime"
	"github.com/danielhkuo/pollcast/testutil"
)

type testEnv struct {
	db        *sql.DB
	cfg       cliparse.Config
	live      *LiveResults
	polls     *PollHandler
	responses *ResponseHandler
	results   *ResultsHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	live := NewLiveResults(db, cfg, realtime.NewHub())
	t.Cleanup(live.Close)

	return &testEnv{
		db:        db,
		cfg:       cfg,
		live:      live,
		polls:     NewPollHandler(db, cfg, live),
		responses: NewResponseHandler(db, cfg, live),
		results:   NewResultsHandler(db, cfg, live),
	}
}

// adminRequest builds a request for an admin route of pollID.
func adminRequest(method, pollID, adminKey, suffix string) *http.Request {
	req := testutil.MakeRequest(method, "/polls/"+pollID+suffix, nil, map[string]string{
		auth.AdminKeyHeader: adminKey,
	})
	req.SetPathValue("id", pollID)
	return req
}

// slugRequest builds a request for a public route of slug.
func slugRequest(method, slug, suffix string, body interface{}) *http.Request {
	req := testutil.MakeRequest(method, "/polls/"+slug+suffix, body, nil)
	req.SetPathValue("slug", slug)
	return req
}

// submit posts one voter's answers through the handler.
func (e *testEnv) submit(t *testing.T, slug, voter string, answers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := models.SubmitResponseRequest{Voter: voter}
	for _, q := range testutil.DefaultQuestions() {
		if data, ok := answers[q.ID]; ok {
			req.Answers = append(req.Answers, models.AnswerInput{QuestionID: q.ID, ResponseData: data})
		}
	}
	// Answers for questions outside the default set keep their map order.
	for id, data := range answers {
		found := false
		for _, a := range req.Answers {
			if a.QuestionID == id {
				found = true
			}
		}
		if !found {
			req.Answers = append(req.Answers, models.AnswerInput{QuestionID: id, ResponseData: data})
		}
	}

	w := httptest.NewRecorder()
	e.responses.SubmitResponses(w, slugRequest("POST", slug, "/responses", req))
	return w
}

func findQuestion(t *testing.T, result models.PollResult, questionID string) models.QuestionResult {
	t.Helper()
	for _, qr := range result.QuestionResults {
		if qr.QuestionID == questionID {
			return qr
		}
	}
	t.Fatalf("question %s missing from result", questionID)
	return models.QuestionResult{}
}

func optionCount(t *testing.T, qr models.QuestionResult, optionID string) int {
	t.Helper()
	for _, o := range qr.OptionResults {
		if o.OptionID == optionID {
			return o.Count
		}
	}
	t.Fatalf("option %s missing from question %s", optionID, qr.QuestionID)
	return 0
}
