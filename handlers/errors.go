// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"net/http"

	"github.com/danielhkuo/pollcast/auth"
	"github.com/danielhkuo/pollcast/logger"
	"github.com/danielhkuo/pollcast/middleware"
)

var (
	ErrPollNotFound     = errors.New("poll not found")
	ErrSnapshotMissing  = errors.New("closed poll has no result snapshot")
	ErrResultsSealed    = errors.New("results are sealed until the poll closes")
	ErrInvalidAdminKey  = auth.ErrInvalidAdminKey
	errValidationFailed = errors.New("validation failed")
)

// validationError carries a client facing message for a 400 response.
type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func (e *validationError) Unwrap() error { return errValidationFailed }

func invalid(msg string) error {
	return &validationError{msg: msg}
}

// writeError maps domain errors to HTTP responses and logs the ones the
// client cannot fix.
func writeError(w http.ResponseWriter, r *http.Request, err error, context string) {
	var vErr *validationError
	switch {
	case errors.As(err, &vErr):
		middleware.ErrorResponse(w, http.StatusBadRequest, vErr.msg)
	case errors.Is(err, ErrPollNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
	case errors.Is(err, auth.ErrMissingAdminKey), errors.Is(err, auth.ErrInvalidAdminKey):
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
	case errors.Is(err, ErrResultsSealed):
		middleware.ErrorResponse(w, http.StatusForbidden, "Results are hidden until poll is closed")
	default:
		logger.New().WithRequest(r).WithError(err).Error(context)
		middleware.ErrorResponse(w, http.StatusInternalServerError, context)
	}
}
