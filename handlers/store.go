// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/danielhkuo/pollcast/db"
	"github.com/danielhkuo/pollcast/models"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

const pollColumns = `
	SELECT id, title, description, creator_name, status, results_visibility,
	       anonymous, share_slug, closed_at, final_snapshot_id, created_at
	FROM poll
`

func loadPollByID(ctx context.Context, q queryer, pollID string) (models.Poll, error) {
	return loadPoll(ctx, q, pollColumns+"WHERE id = $1", pollID)
}

func loadPollBySlug(ctx context.Context, q queryer, slug string) (models.Poll, error) {
	return loadPoll(ctx, q, pollColumns+"WHERE share_slug = $1", slug)
}

// loadPoll reads one poll row and its ordered questions and options.
func loadPoll(ctx context.Context, q queryer, query, arg string) (models.Poll, error) {
	var poll models.Poll
	var shareSlug, closedAt, snapshotID sql.NullString
	var createdAt string

	err := q.QueryRowContext(ctx, query, arg).Scan(
		&poll.ID, &poll.Title, &poll.Description, &poll.CreatorName,
		&poll.Status, &poll.ResultsVisibility, &poll.Anonymous,
		&shareSlug, &closedAt, &snapshotID, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Poll{}, ErrPollNotFound
	}
	if err != nil {
		return models.Poll{}, fmt.Errorf("query poll: %w", err)
	}

	if shareSlug.Valid {
		poll.ShareSlug = &shareSlug.String
	}
	if snapshotID.Valid {
		poll.FinalSnapshotID = &snapshotID.String
	}
	if poll.ClosedAt, err = db.ParseNullTime(closedAt); err != nil {
		return models.Poll{}, err
	}
	if poll.CreatedAt, err = db.ParseTime(createdAt); err != nil {
		return models.Poll{}, err
	}

	poll.Questions, err = loadQuestions(ctx, q, poll.ID)
	if err != nil {
		return models.Poll{}, err
	}

	return poll, nil
}

func loadQuestions(ctx context.Context, q queryer, pollID string) ([]models.Question, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, text, type, required, rating_max, follow_up_trigger
		FROM question
		WHERE poll_id = $1
		ORDER BY position
	`, pollID)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}

	questions := []models.Question{}
	index := make(map[string]int)
	for rows.Next() {
		var qu models.Question
		if err := rows.Scan(&qu.ID, &qu.Text, &qu.Type, &qu.Required, &qu.RatingMax, &qu.FollowUpTrigger); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan question: %w", err)
		}
		qu.Options = []models.Option{}
		index[qu.ID] = len(questions)
		questions = append(questions, qu)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}

	// Options are read after the question cursor is closed; SQLite runs on a
	// single connection.
	rows, err = q.QueryContext(ctx, `
		SELECT question_id, id, text, color
		FROM option
		WHERE poll_id = $1
		ORDER BY question_id, position
	`, pollID)
	if err != nil {
		return nil, fmt.Errorf("query options: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var questionID string
		var opt models.Option
		if err := rows.Scan(&questionID, &opt.ID, &opt.Text, &opt.Color); err != nil {
			return nil, fmt.Errorf("scan option: %w", err)
		}
		if i, ok := index[questionID]; ok {
			questions[i].Options = append(questions[i].Options, opt)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate options: %w", err)
	}

	return questions, nil
}

// loadResponses returns every stored response of a poll in submission order.
func loadResponses(ctx context.Context, q queryer, pollID string) ([]models.Response, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, poll_id, question_id, voter, response_data, submitted_at, is_anonymous
		FROM response
		WHERE poll_id = $1
		ORDER BY submitted_at, id
	`, pollID)
	if err != nil {
		return nil, fmt.Errorf("query responses: %w", err)
	}
	defer rows.Close()

	responses := []models.Response{}
	for rows.Next() {
		var resp models.Response
		var submittedAt string
		if err := rows.Scan(&resp.ID, &resp.PollID, &resp.QuestionID, &resp.Voter,
			&resp.ResponseData, &submittedAt, &resp.IsAnonymous); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		if resp.SubmittedAt, err = db.ParseTime(submittedAt); err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate responses: %w", err)
	}

	return responses, nil
}

func loadSnapshot(ctx context.Context, q queryer, snapshotID string) (models.ResultSnapshot, error) {
	var snapshot models.ResultSnapshot
	var computedAt, payload string

	err := q.QueryRowContext(ctx, `
		SELECT id, poll_id, computed_at, payload
		FROM result_snapshot
		WHERE id = $1
	`, snapshotID).Scan(&snapshot.ID, &snapshot.PollID, &computedAt, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ResultSnapshot{}, ErrSnapshotMissing
	}
	if err != nil {
		return models.ResultSnapshot{}, fmt.Errorf("query snapshot: %w", err)
	}

	if snapshot.ComputedAt, err = db.ParseTime(computedAt); err != nil {
		return models.ResultSnapshot{}, err
	}
	if err := json.Unmarshal([]byte(payload), &snapshot.Result); err != nil {
		return models.ResultSnapshot{}, fmt.Errorf("decode snapshot payload: %w", err)
	}

	return snapshot, nil
}

// finalSnapshot loads the snapshot written when poll was closed.
func finalSnapshot(ctx context.Context, q queryer, poll models.Poll) (models.ResultSnapshot, error) {
	if poll.FinalSnapshotID == nil {
		return models.ResultSnapshot{}, ErrSnapshotMissing
	}
	return loadSnapshot(ctx, q, *poll.FinalSnapshotID)
}
