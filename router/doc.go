// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the pollcast API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	live := handlers.NewLiveResults(db, cfg, realtime.NewHub())
	mux := router.NewRouter(db, cfg, live)

# Endpoints

Health:

	GET /health

Poll management (admin, requires X-Admin-Key):

	POST /polls                    - Create poll with questions
	GET  /polls/{id}/admin         - Get poll details
	POST /polls/{id}/publish       - Open for responses
	POST /polls/{id}/close         - Close and freeze results
	GET  /polls/{id}/admin/results - Results regardless of visibility

Responses (public, uses share slug):

	POST /polls/{slug}/responses        - Submit one voter's answers
	GET  /polls/{slug}/respondent-count - Respondent and response counts

Results (public):

	GET /polls/{slug}         - Poll definition
	GET /polls/{slug}/results - Live or final results
	GET /polls/{slug}/export  - CSV, JSON or XLSX download
	GET /polls/{slug}/live    - Websocket result stream

Every API route is wrapped in middleware.WithLogging. The LiveResults value
is shared so a submission invalidates the cache read by the results routes
and reaches websocket subscribers.
*/
package router
