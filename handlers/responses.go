// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/pollcast/auth"
	"github.com/danielhkuo/pollcast/cliparse"
	"github.com/danielhkuo/pollcast/db"
	"github.com/danielhkuo/pollcast/logger"
	"github.com/danielhkuo/pollcast/middleware"
	"github.com/danielhkuo/pollcast/models"
	"github.com/danielhkuo/pollcast/tally"
)

// MaxVoterLength bounds the voter name stored with a response.
const MaxVoterLength = 100

type ResponseHandler struct {
	db   *sql.DB
	cfg  cliparse.Config
	live *LiveResults
}

func NewResponseHandler(db *sql.DB, cfg cliparse.Config, live *LiveResults) *ResponseHandler {
	return &ResponseHandler{db: db, cfg: cfg, live: live}
}

// SubmitResponses handles POST /polls/{slug}/responses
// Stores every answer of one submission with a shared timestamp.
func (h *ResponseHandler) SubmitResponses(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitResponseRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	poll, err := loadPollBySlug(r.Context(), h.db, r.PathValue("slug"))
	if err != nil {
		writeError(w, r, err, "Failed to submit responses")
		return
	}

	if poll.Status != models.StatusOpen {
		middleware.ErrorResponse(w, http.StatusConflict, "Poll is not open for responses")
		return
	}

	responses, err := buildResponses(poll, req, time.Now().UTC())
	if err != nil {
		writeError(w, r, err, "Failed to submit responses")
		return
	}

	ipHash := auth.HashIP(middleware.GetClientIP(r), h.cfg.PollSlugSalt)
	if err := insertResponses(r.Context(), h.db, poll.ID, responses, ipHash); err != nil {
		if errors.Is(err, errNotOpen) {
			middleware.ErrorResponse(w, http.StatusConflict, "Poll is not open for responses")
			return
		}
		writeError(w, r, err, "Failed to submit responses")
		return
	}

	h.live.Publish(r.Context(), poll)

	ids := make([]string, len(responses))
	for i, resp := range responses {
		ids[i] = resp.ID
	}

	logger.New().WithRequest(r).With("poll_id", poll.ID).
		WithField("answers", len(responses)).Info("responses submitted")

	middleware.JSONResponse(w, http.StatusCreated, models.SubmitResponseResponse{
		ResponseIDs: ids,
		SubmittedAt: responses[0].SubmittedAt,
		Message:     "Responses recorded",
	})
}

// buildResponses validates a submission against the poll definition. Answer
// payloads are kept as sent; aggregation skips what it cannot decode.
func buildResponses(poll models.Poll, req models.SubmitResponseRequest, now time.Time) ([]models.Response, error) {
	voter := strings.TrimSpace(req.Voter)
	if poll.Anonymous {
		voter = ""
	} else if voter == "" {
		return nil, invalid("voter is required")
	}
	if len(voter) > MaxVoterLength {
		return nil, invalid(fmt.Sprintf("voter must be at most %d characters", MaxVoterLength))
	}

	if len(req.Answers) == 0 {
		return nil, invalid("at least one answer is required")
	}

	questions := make(map[string]models.Question, len(poll.Questions))
	for _, q := range poll.Questions {
		questions[q.ID] = q
	}

	answered := make(map[string]bool, len(req.Answers))
	responses := make([]models.Response, 0, len(req.Answers))
	for _, a := range req.Answers {
		if _, ok := questions[a.QuestionID]; !ok {
			return nil, invalid(fmt.Sprintf("unknown question %q", a.QuestionID))
		}
		if answered[a.QuestionID] {
			return nil, invalid(fmt.Sprintf("question %q answered more than once", a.QuestionID))
		}
		answered[a.QuestionID] = true

		responses = append(responses, models.Response{
			ID:           auth.NewRecordID(),
			PollID:       poll.ID,
			QuestionID:   a.QuestionID,
			Voter:        voter,
			ResponseData: a.ResponseData,
			SubmittedAt:  now,
			IsAnonymous:  poll.Anonymous,
		})
	}

	for _, q := range poll.Questions {
		if !q.Required {
			continue
		}
		if !answered[q.ID] {
			return nil, invalid(fmt.Sprintf("question %q is required", q.ID))
		}
	}
	for _, resp := range responses {
		q := questions[resp.QuestionID]
		if q.Required && strings.TrimSpace(resp.ResponseData) == "" {
			return nil, invalid(fmt.Sprintf("question %q is required", q.ID))
		}
	}

	return responses, nil
}

// insertResponses stores a submission, rechecking inside the transaction
// that the poll is still open.
func insertResponses(ctx context.Context, conn *sql.DB, pollID string, responses []models.Response, ipHash string) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var status string
	if err := tx.QueryRowContext(ctx, `SELECT status FROM poll WHERE id = $1`, pollID).Scan(&status); err != nil {
		return fmt.Errorf("query poll status: %w", err)
	}
	if status != models.StatusOpen {
		return errNotOpen
	}

	var hash sql.NullString
	if ipHash != "" {
		hash = sql.NullString{String: ipHash, Valid: true}
	}

	for _, resp := range responses {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO response (id, poll_id, question_id, voter, response_data, submitted_at, is_anonymous, ip_hash)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, resp.ID, resp.PollID, resp.QuestionID, resp.Voter, resp.ResponseData,
			db.FormatTime(resp.SubmittedAt), resp.IsAnonymous, hash)
		if err != nil {
			return fmt.Errorf("insert response: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit responses: %w", err)
	}
	return nil
}

// GetRespondentCount handles GET /polls/{slug}/respondent-count
// Visible even while results are sealed.
func (h *ResponseHandler) GetRespondentCount(w http.ResponseWriter, r *http.Request) {
	poll, err := loadPollBySlug(r.Context(), h.db, r.PathValue("slug"))
	if err != nil {
		writeError(w, r, err, "Failed to count respondents")
		return
	}

	responses, err := loadResponses(r.Context(), h.db, poll.ID)
	if err != nil {
		writeError(w, r, err, "Failed to count respondents")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.RespondentCountResponse{
		RespondentCount: tally.CountRespondents(responses),
		ResponseCount:   len(responses),
	})
}
