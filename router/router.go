// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/pollcast/cliparse"
	"github.com/danielhkuo/pollcast/handlers"
	"github.com/danielhkuo/pollcast/middleware"
)

func NewRouter(db *sql.DB, cfg cliparse.Config, live *handlers.LiveResults) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	pollHandler := handlers.NewPollHandler(db, cfg, live)
	responseHandler := handlers.NewResponseHandler(db, cfg, live)
	resultsHandler := handlers.NewResultsHandler(db, cfg, live)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Poll management (admin operations)
	mux.HandleFunc("POST /polls", middleware.WithLogging(pollHandler.CreatePoll))
	mux.HandleFunc("GET /polls/{id}/admin", middleware.WithLogging(pollHandler.GetPollAdmin))
	mux.HandleFunc("POST /polls/{id}/publish", middleware.WithLogging(pollHandler.PublishPoll))
	mux.HandleFunc("POST /polls/{id}/close", middleware.WithLogging(pollHandler.ClosePoll))
	mux.HandleFunc("GET /polls/{id}/admin/results", middleware.WithLogging(pollHandler.GetAdminResults))

	// Responses (public)
	mux.HandleFunc("POST /polls/{slug}/responses", middleware.WithLogging(responseHandler.SubmitResponses))
	mux.HandleFunc("GET /polls/{slug}/respondent-count", middleware.WithLogging(responseHandler.GetRespondentCount))

	// Results retrieval (public, honors sealed visibility)
	mux.HandleFunc("GET /polls/{slug}", middleware.WithLogging(resultsHandler.GetPoll))
	mux.HandleFunc("GET /polls/{slug}/results", middleware.WithLogging(resultsHandler.GetResults))
	mux.HandleFunc("GET /polls/{slug}/export", middleware.WithLogging(resultsHandler.ExportResults))
	mux.HandleFunc("GET /polls/{slug}/live", middleware.WithLogging(resultsHandler.StreamResults))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pollcast API v1"))
	})

	return mux
}
