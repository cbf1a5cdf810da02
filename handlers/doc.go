// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the pollcast API.

# Handler Types

Each handler is a struct with database, config and live results dependencies:

  - PollHandler: Poll lifecycle (create, publish, close) and admin results
  - ResponseHandler: Response submission and respondent counts
  - ResultsHandler: Poll info, results, exports and the live stream

Handlers share one LiveResults so writes invalidate what reads cache:

	live := handlers.NewLiveResults(db, cfg, realtime.NewHub())
	pollHandler := handlers.NewPollHandler(db, cfg, live)

# Poll Lifecycle

Polls progress through three states: draft → open → closed

	POST /polls              → CreatePoll (questions inline, returns admin_key)
	POST /polls/{id}/publish → PublishPoll (generates share_slug)
	POST /polls/{id}/close   → ClosePoll (freezes a result snapshot)

Admin operations require the X-Admin-Key header.

# Responses

One submission carries a voter's answers to any subset of questions. All
rows of a submission share a timestamp, which is how anonymous respondents
are told apart:

	POST /polls/{slug}/responses

Payloads are stored as sent. Validation covers the submission shape (known
questions, required questions, voter name), not the payload format.

# Results

Closed polls always serve their snapshot. Open polls serve a cached aggregate
when results are live and 403 when they are sealed. Admin results ignore
sealing. Exports and the websocket stream follow the public rule.

Errors map to status codes in writeError: validation 400, bad admin key
401, sealed 403, unknown poll 404, lifecycle conflicts 409.
*/
package handlers
