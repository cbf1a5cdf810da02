package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/danielhkuo/pollcast/cliparse"
	"github.com/danielhkuo/pollcast/db"
	"github.com/danielhkuo/pollcast/handlers"
	"github.com/danielhkuo/pollcast/logger"
	"github.com/danielhkuo/pollcast/middleware"
	"github.com/danielhkuo/pollcast/realtime"
	"github.com/danielhkuo/pollcast/router"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load .env when present
	_ = godotenv.Load()

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		logger.New().WithError(err).Error("Error parsing flags")
		os.Exit(1)
	}

	logger.Configure(cfg.Environment, cfg.LogLevel, nil)
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect, retrying while the database comes up
	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		log.WithError(err).Error("database connection failed")
		os.Exit(1)
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		log.WithError(err).Error("schema creation failed")
		os.Exit(1)
	}
	log.With("database", cfg.DatabaseType).Info("Database schema ready")

	live := handlers.NewLiveResults(dbConn, cfg, realtime.NewHub())
	defer live.Close()

	// Create router
	mux := router.NewRouter(dbConn, cfg, live)

	server := http.Server{
		Handler:           middleware.CORS(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		// Wait for Ctrl-C signal
		<-ctx.Done()

		// Websocket connections are hijacked, so Shutdown does not wait for them
		live.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("graceful shutdown failed")
			server.Close()
		}
	}()

	// Start server
	log.With("port", cfg.Port).Info("Listening")
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Error("Server closed")
	} else {
		log.Info("Server closed")
	}
}
