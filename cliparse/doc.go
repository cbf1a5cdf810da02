// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: Connection string or sqlite file (required)
  - DatabaseType: sqlite (default) or postgres
  - AdminKeySalt: Secret for admin key HMAC (required)
  - PollSlugSalt: Secret for share slug generation (required)
  - BaseURL: Prefix for share links (default: http://localhost:3318)
  - ResultsCacheTTL: How long live results are cached (default: 30s)
  - LogLevel, Environment: Logger setup

# CLI Flags

	-p            Server port
	-d            Database URL
	-t            Database type
	-base-url     Public base URL
	-admin-salt   Admin key salt
	-slug-salt    Poll slug salt
	-cache-ttl    Live results cache TTL
	-log-level    Log level

# Environment Variables

Flags fall back to environment variables:

	PORT              → -p
	DATABASE_URL      → -d
	DATABASE_TYPE     → -t
	BASE_URL          → -base-url
	ADMIN_KEY_SALT    → -admin-salt
	POLL_SLUG_SALT    → -slug-salt
	RESULTS_CACHE_TTL → -cache-ttl
	LOG_LEVEL         → -log-level
	ENVIRONMENT       (env only; "local" or empty selects text logs)

CLI flags take precedence over environment variables. main loads a .env
file with godotenv before parsing, so local development can keep these in
one place.

# Validation

ParseFlags returns an error if required values are missing or malformed:

  - DATABASE_URL, ADMIN_KEY_SALT and POLL_SLUG_SALT must be provided
  - DATABASE_TYPE must be sqlite or postgres
  - RESULTS_CACHE_TTL must parse as a non-negative duration
*/
package cliparse
