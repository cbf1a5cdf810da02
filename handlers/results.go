// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"

	"github.com/danielhkuo/pollcast/cliparse"
	"github.com/danielhkuo/pollcast/export"
	"github.com/danielhkuo/pollcast/logger"
	"github.com/danielhkuo/pollcast/middleware"
	"github.com/danielhkuo/pollcast/models"
)

type ResultsHandler struct {
	db   *sql.DB
	cfg  cliparse.Config
	live *LiveResults
}

func NewResultsHandler(db *sql.DB, cfg cliparse.Config, live *LiveResults) *ResultsHandler {
	return &ResultsHandler{db: db, cfg: cfg, live: live}
}

func closedResults(ctx context.Context, q queryer, poll models.Poll) (models.ResultsResponse, error) {
	snapshot, err := finalSnapshot(ctx, q, poll)
	if err != nil {
		return models.ResultsResponse{}, err
	}
	return models.ResultsResponse{
		Poll:     poll,
		Result:   snapshot.Result,
		Final:    true,
		Computed: snapshot.ComputedAt,
	}, nil
}

func liveResults(ctx context.Context, live *LiveResults, poll models.Poll) (models.ResultsResponse, error) {
	snapshot, err := live.Get(ctx, poll)
	if err != nil {
		return models.ResultsResponse{}, err
	}
	return models.ResultsResponse{
		Poll:     poll,
		Result:   snapshot.Result,
		Final:    false,
		Computed: snapshot.ComputedAt,
	}, nil
}

// publicResults applies the visibility rule: closed polls serve their final
// snapshot, open live polls a cached aggregate, sealed polls nothing.
func (h *ResultsHandler) publicResults(ctx context.Context, slug string) (models.ResultsResponse, error) {
	poll, err := loadPollBySlug(ctx, h.db, slug)
	if err != nil {
		return models.ResultsResponse{}, err
	}

	switch {
	case poll.Status == models.StatusClosed:
		return closedResults(ctx, h.db, poll)
	case poll.ResultsVisibility == models.VisibilitySealed:
		return models.ResultsResponse{}, ErrResultsSealed
	default:
		return liveResults(ctx, h.live, poll)
	}
}

// GetPoll handles GET /polls/{slug}
// Returns the poll definition without results.
func (h *ResultsHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	poll, err := loadPollBySlug(r.Context(), h.db, r.PathValue("slug"))
	if err != nil {
		writeError(w, r, err, "Failed to load poll")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, poll)
}

// GetResults handles GET /polls/{slug}/results
// Returns 403 while a sealed poll is open
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	resp, err := h.publicResults(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeError(w, r, err, "Failed to load results")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// ExportResults handles GET /polls/{slug}/export?format=csv|json|xlsx
func (h *ResultsHandler) ExportResults(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.publicResults(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeError(w, r, err, "Failed to export results")
		return
	}

	// Render into memory first so a failure can still produce a JSON error.
	var buf bytes.Buffer
	switch format {
	case export.FormatJSON:
		err = export.WriteJSON(&buf, resp)
	case export.FormatXLSX:
		err = export.WriteXLSX(&buf, resp.Poll, resp.Result)
	default:
		err = export.WriteCSV(&buf, resp.Result)
	}
	if err != nil {
		writeError(w, r, err, "Failed to export results")
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(resp.Poll, format)+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logger.New().WithRequest(r).WithError(err).Warn("failed to write export")
	}
}
