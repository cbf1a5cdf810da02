// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package logger wraps logrus with request-scoped fields. Call Configure once
// at startup; New hands out loggers sharing that configuration.
package logger
