// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/danielhkuo/pollcast/cliparse"
	"github.com/danielhkuo/pollcast/logger"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// MaxPingTime bounds how long Open keeps retrying an unreachable database.
const MaxPingTime = 30 * time.Second

// DriverName maps a configured database type to its database/sql driver.
func DriverName(databaseType string) (string, error) {
	switch databaseType {
	case cliparse.DatabaseSQLite, "":
		return "sqlite", nil
	case cliparse.DatabasePostgres:
		return "postgres", nil
	default:
		return "", fmt.Errorf("unsupported database type %q", databaseType)
	}
}

// Open connects to the configured database and pings it with exponential
// backoff until it answers or MaxPingTime passes.
func Open(ctx context.Context, cfg cliparse.Config) (*sql.DB, error) {
	driver, err := DriverName(cfg.DatabaseType)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(driver, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == "sqlite" {
		// SQLite allows one writer; a single connection also keeps
		// :memory: databases shared across queries.
		conn.SetMaxOpenConns(1)
	}

	log := logger.New().With("driver", driver)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = MaxPingTime
	op := func() error {
		if err := conn.PingContext(ctx); err != nil {
			log.WithError(err).Warn("database not ready, retrying")
			return err
		}
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return conn, nil
}
