// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Poll status constants
const (
	StatusDraft  = "draft"
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Results visibility constants
const (
	VisibilityLive   = "live"   // results visible while the poll is open
	VisibilitySealed = "sealed" // results hidden until the poll is closed
)

// QuestionType tags the answer shape of a question.
type QuestionType string

const (
	TypeSingleChoice   QuestionType = "singleChoice"
	TypeMultipleChoice QuestionType = "multipleChoice"
	TypeRating         QuestionType = "rating"
	TypeNPS            QuestionType = "nps"
	TypeRanking        QuestionType = "ranking"
	TypeOpenText       QuestionType = "openText"
)

// Valid reports whether t is one of the known question types.
func (t QuestionType) Valid() bool {
	switch t {
	case TypeSingleChoice, TypeMultipleChoice, TypeRating, TypeNPS, TypeRanking, TypeOpenText:
		return true
	}
	return false
}

// HasOptions reports whether questions of this type carry an option list.
func (t QuestionType) HasOptions() bool {
	return t == TypeSingleChoice || t == TypeMultipleChoice || t == TypeRanking
}

const (
	DefaultRatingMax = 5
	MinRatingMax     = 2
	MaxRatingMax     = 10
)

// Request types

type OptionInput struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Color string `json:"color,omitempty"`
}

type QuestionInput struct {
	ID              string        `json:"id"`
	Text            string        `json:"text"`
	Type            QuestionType  `json:"type"`
	Options         []OptionInput `json:"options,omitempty"`
	Required        bool          `json:"required"`
	FollowUpTrigger string        `json:"follow_up_trigger,omitempty"`
	RatingMax       int           `json:"rating_max,omitempty"`
}

type CreatePollRequest struct {
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	CreatorName       string          `json:"creator_name"`
	ResultsVisibility string          `json:"results_visibility"`
	Anonymous         bool            `json:"anonymous"`
	Questions         []QuestionInput `json:"questions"`
}

type AnswerInput struct {
	QuestionID   string `json:"question_id"`
	ResponseData string `json:"response_data"`
}

// SubmitResponseRequest carries every answer of one voter in one submission.
type SubmitResponseRequest struct {
	Voter   string        `json:"voter"`
	Answers []AnswerInput `json:"answers"`
}

// Response types

type CreatePollResponse struct {
	PollID   string `json:"poll_id"`
	AdminKey string `json:"admin_key"`
}

type PublishPollResponse struct {
	ShareSlug string `json:"share_slug"`
	ShareURL  string `json:"share_url"`
}

type SubmitResponseResponse struct {
	ResponseIDs []string  `json:"response_ids"`
	SubmittedAt time.Time `json:"submitted_at"`
	Message     string    `json:"message"`
}

type ClosePollResponse struct {
	ClosedAt time.Time      `json:"closed_at"`
	Snapshot ResultSnapshot `json:"snapshot"`
}

type RespondentCountResponse struct {
	RespondentCount int `json:"respondent_count"`
	ResponseCount   int `json:"response_count"`
}

// Domain types

type Poll struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	CreatorName       string     `json:"creator_name"`
	Status            string     `json:"status"`
	ResultsVisibility string     `json:"results_visibility"`
	Anonymous         bool       `json:"anonymous"`
	ShareSlug         *string    `json:"share_slug,omitempty"`
	ClosedAt          *time.Time `json:"closed_at,omitempty"`
	FinalSnapshotID   *string    `json:"final_snapshot_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	Questions         []Question `json:"questions"`
}

// Question is one prompt within a poll. Options is empty for rating, NPS
// and open text questions.
type Question struct {
	ID              string       `json:"id"`
	Text            string       `json:"text"`
	Type            QuestionType `json:"type"`
	Options         []Option     `json:"options"`
	Required        bool         `json:"required"`
	FollowUpTrigger string       `json:"follow_up_trigger,omitempty"`
	RatingMax       int          `json:"rating_max,omitempty"`
}

type Option struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Color string `json:"color,omitempty"`
}

// Response is one voter's answer to one question. ResponseData is decoded
// according to the owning question's type.
type Response struct {
	ID           string    `json:"id"`
	PollID       string    `json:"poll_id"`
	QuestionID   string    `json:"question_id"`
	Voter        string    `json:"voter,omitempty"`
	ResponseData string    `json:"response_data"`
	SubmittedAt  time.Time `json:"submitted_at"`
	IsAnonymous  bool      `json:"is_anonymous"`
}

// Result types

type OptionResult struct {
	OptionID    string  `json:"option_id"`
	Text        string  `json:"text"`
	Count       int     `json:"count"`
	Percentage  float64 `json:"percentage"`
	Color       string  `json:"color"`
	AverageRank float64 `json:"average_rank,omitempty"` // ranking only
}

type QuestionResult struct {
	QuestionID    string         `json:"question_id"`
	QuestionText  string         `json:"question_text"`
	Type          QuestionType   `json:"type"`
	OptionResults []OptionResult `json:"option_results"`
	TotalVotes    int            `json:"total_votes"`
	AverageScore  *float64       `json:"average_score,omitempty"` // rating only
	NPSScore      *int           `json:"nps_score,omitempty"`     // nps only
	TextResponses []string       `json:"text_responses"`
}

type PollResult struct {
	PollID           string           `json:"poll_id"`
	QuestionResults  []QuestionResult `json:"question_results"`
	TotalRespondents int              `json:"total_respondents"`
}

type ResultSnapshot struct {
	ID         string     `json:"id"`
	PollID     string     `json:"poll_id"`
	ComputedAt time.Time  `json:"computed_at"`
	Result     PollResult `json:"result"`
}

// ResultsResponse is returned by the public results endpoint.
type ResultsResponse struct {
	Poll     Poll       `json:"poll"`
	Result   PollResult `json:"result"`
	Final    bool       `json:"final"`
	Computed time.Time  `json:"computed_at"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
