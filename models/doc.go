// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreatePollRequest: title, description, creator_name, results_visibility,
    anonymous, questions (each with options)
  - SubmitResponseRequest: voter, answers (question_id, response_data)

# Response Types

  - CreatePollResponse: poll_id, admin_key
  - PublishPollResponse: share_slug, share_url
  - SubmitResponseResponse: response_ids, submitted_at, message
  - ClosePollResponse: closed_at, snapshot
  - RespondentCountResponse: respondent_count, response_count
  - ResultsResponse: poll, result, final, computed_at
  - ErrorResponse: error, message

# Domain Types

  - Poll: poll metadata, lifecycle state and ordered questions
  - Question: typed prompt with ordered options
  - Option: selectable choice with optional color
  - Response: one voter's raw answer to one question

# Result Types

Derived on every aggregation, never stored except inside a snapshot:

  - PollResult: per-question results plus distinct respondent count
  - QuestionResult: option results, total votes, average / NPS score, texts
  - OptionResult: count, percentage and display color
  - ResultSnapshot: immutable result frozen when a poll closes

# Question Types

	TypeSingleChoice   = "singleChoice"   // response_data: option id
	TypeMultipleChoice = "multipleChoice" // response_data: JSON array of option ids
	TypeRating         = "rating"         // response_data: "1".."rating_max"
	TypeNPS            = "nps"            // response_data: "0".."10"
	TypeRanking        = "ranking"        // response_data: JSON array, best first
	TypeOpenText       = "openText"       // response_data: free text

# Constants

Status values:

	StatusDraft  = "draft"
	StatusOpen   = "open"
	StatusClosed = "closed"

Results visibility:

	VisibilityLive   = "live"
	VisibilitySealed = "sealed"
*/
package models
