// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package logger

import (
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Logger wraps a logrus entry with request helpers.
type Logger struct {
	*logrus.Entry
}

// base is shared by every Logger; until Configure runs it logs text at info.
var base = logrus.New()

// Configure sets up the shared logger: text output for local development,
// JSON otherwise. Level is one of debug, info, warn, error.
func Configure(environment, level string, out io.Writer) {
	if out == nil {
		out = os.Stdout
	}
	base.SetOutput(out)

	if environment == "" || environment == "local" {
		base.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339Nano,
		})
	} else {
		base.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	}

	base.SetLevel(ParseLevel(level))
}

// ParseLevel maps a level name to a logrus level, defaulting to info.
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// New returns a logger backed by the shared configuration.
func New() *Logger {
	return &Logger{Entry: logrus.NewEntry(base)}
}

// With returns a logger carrying an extra field.
func (l *Logger) With(key string, value interface{}) *Logger {
	return &Logger{Entry: l.Entry.WithField(key, value)}
}

// WithRequest attaches request metadata. The request id is taken from
// X-Request-ID or generated.
func (l *Logger) WithRequest(r *http.Request) *Logger {
	return &Logger{Entry: l.WithFields(logrus.Fields{
		"req_id":    RequestID(r),
		"method":    r.Method,
		"path":      r.URL.Path,
		"remote_ip": r.RemoteAddr,
	})}
}

// WithError standardizes error logging
func (l *Logger) WithError(err error) *logrus.Entry {
	if err == nil {
		return l.Entry
	}
	return l.Entry.WithField("error", err.Error())
}

// RequestID returns the caller supplied request id or a fresh uuid. The
// generated id is stored on the request header so later calls agree.
func RequestID(r *http.Request) string {
	id := r.Header.Get("X-Request-ID")
	if id == "" {
		id = uuid.New().String()
		r.Header.Set("X-Request-ID", id)
	}
	return id
}
