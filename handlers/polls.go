// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
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
)

type PollHandler struct {
	db   *sql.DB
	cfg  cliparse.Config
	live *LiveResults
}

func NewPollHandler(db *sql.DB, cfg cliparse.Config, live *LiveResults) *PollHandler {
	return &PollHandler{db: db, cfg: cfg, live: live}
}

// CreatePoll handles POST /polls
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	poll, err := buildPoll(req)
	if err != nil {
		writeError(w, r, err, "Failed to create poll")
		return
	}

	poll.ID, err = auth.GenerateID(16)
	if err != nil {
		writeError(w, r, err, "Failed to create poll")
		return
	}
	poll.CreatedAt = time.Now().UTC()

	if err := insertPoll(r.Context(), h.db, poll); err != nil {
		writeError(w, r, err, "Failed to create poll")
		return
	}

	logger.New().WithRequest(r).With("poll_id", poll.ID).
		WithField("questions", len(poll.Questions)).Info("poll created")

	middleware.JSONResponse(w, http.StatusCreated, models.CreatePollResponse{
		PollID:   poll.ID,
		AdminKey: auth.GenerateAdminKey(poll.ID, h.cfg.AdminKeySalt),
	})
}

// buildPoll validates a create request and fills in defaults.
func buildPoll(req models.CreatePollRequest) (models.Poll, error) {
	poll := models.Poll{
		Title:             strings.TrimSpace(req.Title),
		Description:       strings.TrimSpace(req.Description),
		CreatorName:       strings.TrimSpace(req.CreatorName),
		Status:            models.StatusDraft,
		ResultsVisibility: req.ResultsVisibility,
		Anonymous:         req.Anonymous,
		Questions:         []models.Question{},
	}

	if poll.Title == "" {
		return poll, invalid("title is required")
	}
	if poll.CreatorName == "" {
		return poll, invalid("creator_name is required")
	}
	switch poll.ResultsVisibility {
	case "":
		poll.ResultsVisibility = models.VisibilityLive
	case models.VisibilityLive, models.VisibilitySealed:
	default:
		return poll, invalid("results_visibility must be live or sealed")
	}
	if len(req.Questions) == 0 {
		return poll, invalid("at least one question is required")
	}

	seenQuestions := make(map[string]bool)
	for i, in := range req.Questions {
		q, err := buildQuestion(i, in)
		if err != nil {
			return poll, err
		}
		if seenQuestions[q.ID] {
			return poll, invalid(fmt.Sprintf("duplicate question id %q", q.ID))
		}
		seenQuestions[q.ID] = true
		poll.Questions = append(poll.Questions, q)
	}

	return poll, nil
}

func buildQuestion(i int, in models.QuestionInput) (models.Question, error) {
	q := models.Question{
		ID:              strings.TrimSpace(in.ID),
		Text:            strings.TrimSpace(in.Text),
		Type:            in.Type,
		Options:         []models.Option{},
		Required:        in.Required,
		FollowUpTrigger: in.FollowUpTrigger,
	}
	if q.ID == "" {
		q.ID = fmt.Sprintf("q%d", i+1)
	}

	if q.Text == "" {
		return q, invalid(fmt.Sprintf("question %d: text is required", i+1))
	}
	if !q.Type.Valid() {
		return q, invalid(fmt.Sprintf("question %d: unknown type %q", i+1, in.Type))
	}

	if q.Type == models.TypeRating {
		q.RatingMax = in.RatingMax
		if q.RatingMax == 0 {
			q.RatingMax = models.DefaultRatingMax
		}
		if q.RatingMax < models.MinRatingMax || q.RatingMax > models.MaxRatingMax {
			return q, invalid(fmt.Sprintf("question %d: rating_max must be between %d and %d",
				i+1, models.MinRatingMax, models.MaxRatingMax))
		}
	}

	if !q.Type.HasOptions() {
		return q, nil
	}

	if len(in.Options) < 2 {
		return q, invalid(fmt.Sprintf("question %d: at least 2 options are required", i+1))
	}
	seen := make(map[string]bool)
	for j, opt := range in.Options {
		o := models.Option{
			ID:    strings.TrimSpace(opt.ID),
			Text:  strings.TrimSpace(opt.Text),
			Color: strings.TrimSpace(opt.Color),
		}
		if o.ID == "" {
			o.ID = fmt.Sprintf("opt%d", j+1)
		}
		if o.Text == "" {
			return q, invalid(fmt.Sprintf("question %d option %d: text is required", i+1, j+1))
		}
		if seen[o.ID] {
			return q, invalid(fmt.Sprintf("question %d: duplicate option id %q", i+1, o.ID))
		}
		seen[o.ID] = true
		q.Options = append(q.Options, o)
	}

	return q, nil
}

// insertPoll writes the poll, its questions and options in one transaction.
func insertPoll(ctx context.Context, conn *sql.DB, poll models.Poll) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO poll (id, title, description, creator_name, status, results_visibility, anonymous, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, poll.ID, poll.Title, poll.Description, poll.CreatorName, poll.Status,
		poll.ResultsVisibility, poll.Anonymous, db.FormatTime(poll.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert poll: %w", err)
	}

	for qi, q := range poll.Questions {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO question (id, poll_id, position, text, type, required, rating_max, follow_up_trigger)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, q.ID, poll.ID, qi, q.Text, string(q.Type), q.Required, q.RatingMax, q.FollowUpTrigger)
		if err != nil {
			return fmt.Errorf("insert question %s: %w", q.ID, err)
		}

		for oi, opt := range q.Options {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO option (id, poll_id, question_id, position, text, color)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, opt.ID, poll.ID, q.ID, oi, opt.Text, opt.Color)
			if err != nil {
				return fmt.Errorf("insert option %s: %w", opt.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit poll: %w", err)
	}
	return nil
}

// adminPoll authenticates the request and loads the poll named by {id}.
func (h *PollHandler) adminPoll(r *http.Request) (models.Poll, error) {
	pollID := r.PathValue("id")
	if err := auth.RequireAdmin(r, pollID, h.cfg.AdminKeySalt); err != nil {
		return models.Poll{}, err
	}
	return loadPollByID(r.Context(), h.db, pollID)
}

// GetPollAdmin handles GET /polls/{id}/admin
// Returns poll details for admin access using poll ID and admin key
func (h *PollHandler) GetPollAdmin(w http.ResponseWriter, r *http.Request) {
	poll, err := h.adminPoll(r)
	if err != nil {
		writeError(w, r, err, "Failed to load poll")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, poll)
}

// PublishPoll handles POST /polls/{id}/publish
func (h *PollHandler) PublishPoll(w http.ResponseWriter, r *http.Request) {
	poll, err := h.adminPoll(r)
	if err != nil {
		writeError(w, r, err, "Failed to publish poll")
		return
	}

	if poll.Status != models.StatusDraft {
		middleware.ErrorResponse(w, http.StatusConflict, "Poll is not in draft status")
		return
	}

	shareSlug := auth.GenerateShareSlug(poll.ID, h.cfg.PollSlugSalt)

	res, err := h.db.ExecContext(r.Context(), `
		UPDATE poll
		SET status = $1, share_slug = $2
		WHERE id = $3 AND status = $4
	`, models.StatusOpen, shareSlug, poll.ID, models.StatusDraft)
	if err != nil {
		writeError(w, r, err, "Failed to publish poll")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusConflict, "Poll is not in draft status")
		return
	}

	logger.New().WithRequest(r).With("poll_id", poll.ID).
		WithField("share_slug", shareSlug).Info("poll published")

	middleware.JSONResponse(w, http.StatusOK, models.PublishPollResponse{
		ShareSlug: shareSlug,
		ShareURL:  auth.ShareURL(h.cfg.BaseURL, shareSlug),
	})
}

// ClosePoll handles POST /polls/{id}/close
// Aggregates every response and freezes the result in a snapshot.
func (h *PollHandler) ClosePoll(w http.ResponseWriter, r *http.Request) {
	poll, err := h.adminPoll(r)
	if err != nil {
		writeError(w, r, err, "Failed to close poll")
		return
	}

	if poll.Status != models.StatusOpen {
		middleware.ErrorResponse(w, http.StatusConflict, "Poll is not open")
		return
	}

	snapshot, err := h.closeAndSnapshot(r.Context(), poll)
	if errors.Is(err, errNotOpen) {
		middleware.ErrorResponse(w, http.StatusConflict, "Poll is not open")
		return
	}
	if err != nil {
		writeError(w, r, err, "Failed to close poll")
		return
	}

	h.live.PublishClosed(snapshot)

	logger.New().WithRequest(r).With("poll_id", poll.ID).
		WithField("snapshot_id", snapshot.ID).
		WithField("respondents", snapshot.Result.TotalRespondents).Info("poll closed")

	middleware.JSONResponse(w, http.StatusOK, models.ClosePollResponse{
		ClosedAt: snapshot.ComputedAt,
		Snapshot: snapshot,
	})
}

var errNotOpen = errors.New("poll is not open")

// closeAndSnapshot flips the poll to closed and stores the final aggregate in
// the same transaction, so no response lands between the two.
func (h *PollHandler) closeAndSnapshot(ctx context.Context, poll models.Poll) (models.ResultSnapshot, error) {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return models.ResultSnapshot{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	closedAt := time.Now().UTC()
	snapshotID := auth.NewRecordID()

	res, err := tx.ExecContext(ctx, `
		UPDATE poll
		SET status = $1, closed_at = $2, final_snapshot_id = $3
		WHERE id = $4 AND status = $5
	`, models.StatusClosed, db.FormatTime(closedAt), snapshotID, poll.ID, models.StatusOpen)
	if err != nil {
		return models.ResultSnapshot{}, fmt.Errorf("close poll: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ResultSnapshot{}, errNotOpen
	}

	snapshot, err := h.live.Compute(ctx, tx, poll)
	if err != nil {
		return models.ResultSnapshot{}, err
	}
	snapshot.ID = snapshotID
	snapshot.ComputedAt = closedAt

	payload, err := json.Marshal(snapshot.Result)
	if err != nil {
		return models.ResultSnapshot{}, fmt.Errorf("encode snapshot: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO result_snapshot (id, poll_id, computed_at, payload)
		VALUES ($1, $2, $3, $4)
	`, snapshot.ID, poll.ID, db.FormatTime(closedAt), string(payload))
	if err != nil {
		return models.ResultSnapshot{}, fmt.Errorf("insert snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.ResultSnapshot{}, fmt.Errorf("commit close: %w", err)
	}
	return snapshot, nil
}

// GetAdminResults handles GET /polls/{id}/admin/results
// The creator sees results regardless of visibility.
func (h *PollHandler) GetAdminResults(w http.ResponseWriter, r *http.Request) {
	poll, err := h.adminPoll(r)
	if err != nil {
		writeError(w, r, err, "Failed to load results")
		return
	}

	var resp models.ResultsResponse
	if poll.Status == models.StatusClosed {
		resp, err = closedResults(r.Context(), h.db, poll)
	} else {
		resp, err = liveResults(r.Context(), h.live, poll)
	}
	if err != nil {
		writeError(w, r, err, "Failed to load results")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}
