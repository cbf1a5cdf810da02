// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the pollcast API server.

pollcast collects responses to multi-question polls (single and multiple
choice, rating, NPS, ranking and open text) and turns them into per-question
results. Open polls can publish results live, over HTTP and a websocket
stream, or keep them sealed until the poll closes. Closing freezes the
results into a snapshot.

# Starting the Server

The server reads a .env file if present, then environment variables or CLI
flags:

	DATABASE_URL=pollcast.db go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..."

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite path or PostgreSQL connection string
  - ADMIN_KEY_SALT (-admin-salt): Secret for admin key HMAC
  - POLL_SLUG_SALT (-slug-salt): Secret for share slugs and IP hashes

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - BASE_URL (-base-url): Prefix for share URLs (default: http://localhost:3318)
  - RESULTS_CACHE_TTL (-cache-ttl): Live results cache lifetime (default: 30s, 0 disables)
  - LOG_LEVEL (-log-level): debug, info, warn or error
  - ENVIRONMENT: "local" or empty logs text, anything else JSON

# Architecture

  - handlers: HTTP request handlers (polls, responses, results, live stream)
  - tally: Pure result aggregation per question type
  - export: CSV, JSON and XLSX result files
  - realtime: Websocket subscriber hub
  - cache: Generic TTL cache for live results
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: Request, response, domain and result types
  - auth: Admin keys, share slugs and record ids
  - db: Connection, schema and timestamp encoding
  - logger: Structured logging on logrus
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
