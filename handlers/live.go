// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/pollcast/logger"
	"github.com/danielhkuo/pollcast/middleware"
	"github.com/danielhkuo/pollcast/models"
	"github.com/danielhkuo/pollcast/realtime"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Results are public for live polls; CORS already allows any origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamResults handles GET /polls/{slug}/live
// Upgrades to a websocket, sends the current results and then every update
// until the poll closes or the client leaves.
func (h *ResultsHandler) StreamResults(w http.ResponseWriter, r *http.Request) {
	poll, err := loadPollBySlug(r.Context(), h.db, r.PathValue("slug"))
	if err != nil {
		writeError(w, r, err, "Failed to open live results")
		return
	}

	if poll.Status == models.StatusClosed {
		middleware.ErrorResponse(w, http.StatusConflict, "Poll is closed; fetch final results instead")
		return
	}
	if poll.ResultsVisibility == models.VisibilitySealed {
		writeError(w, r, ErrResultsSealed, "")
		return
	}

	log := logger.New().WithRequest(r)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an error response
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	// Subscribed before the first frame is computed, so a vote in between is
	// pushed rather than missed.
	client := realtime.NewClient(conn, h.live.Hub(), poll.ID, log)
	if err := h.live.Subscribe(r.Context(), poll, client); err != nil {
		log.WithError(err).Error("failed to load initial live results")
		client.Close()
		return
	}

	log.With("poll_id", poll.ID).Info("live results subscriber connected")
	client.Run()
}
