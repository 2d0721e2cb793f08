// Package main is the entry point for the tripstitch API server.
// Its sole responsibility is wiring dependencies together and starting the
// server. No business logic belongs here.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/patrickmn/go-cache"
	"github.com/pressly/goose/v3"

	"github.com/pkeller/tripstitch/internal/config"
	"github.com/pkeller/tripstitch/internal/geo"
	"github.com/pkeller/tripstitch/internal/handler"
	"github.com/pkeller/tripstitch/internal/jobs"
	"github.com/pkeller/tripstitch/internal/repo"
	"github.com/pkeller/tripstitch/internal/service"
	"github.com/pkeller/tripstitch/migrations"
)

// enrichMaxRetries bounds retries per enrichment attempt; external lookups
// that fail three times in a row are not coming back soon.
const enrichMaxRetries = 2

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	// log/slog with the JSON handler writes machine-readable output
	// suitable for log aggregators.
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Database ---------------------------------------------------------
	// pgxpool manages a pool of Postgres connections.
	// New() does not open connections immediately — the first query does.
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(context.Background()); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	if err := migrate(cfg.DatabaseURL); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// --- Geo collaborators ------------------------------------------------
	// Geocode and photo answers for the same place text rarely change;
	// one shared TTL cache covers both lookups.
	geoCache := cache.New(cfg.GeoCacheTTL, 10*time.Minute)
	geocoder := geo.NewGeocoder(cfg.GoogleMapsAPIKey, geoCache)
	photos := geo.NewPhotoSearcher(cfg.GoogleMapsAPIKey, geoCache)

	// The timezone finder works from an embedded dataset; no network, but
	// it takes a moment to load.
	zones, err := geo.NewZoneResolver()
	if err != nil {
		slog.Error("failed to load timezone data", "error", err)
		os.Exit(1)
	}

	// --- Repositories and services ----------------------------------------
	trips := repo.NewTripRepo(pool)
	segments := repo.NewSegmentRepo(pool)
	reservations := repo.NewReservationRepo(pool)
	enrichLogs := repo.NewEnrichmentLogRepo(pool)
	imageQueue := repo.NewImageQueueRepo(pool)

	runner := jobs.NewRunner(logger, cfg.EnrichTimeout, enrichMaxRetries)

	enricher := service.NewEnrichmentService(
		reservations, segments, enrichLogs, imageQueue,
		geocoder, zones, photos, runner, logger,
	)
	tripSvc := service.NewTripService(trips, segments)
	reservationSvc := service.NewReservationService(reservations, segments)
	assigner := service.NewAssignmentService(
		trips, segments, reservations, enricher,
		cfg.MatchMinScore, cfg.ClusterMaxGap, logger,
	)

	srv := handler.NewServer(tripSvc, reservationSvc, assigner, enricher, logger)

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Routes(cfg.CORSOrigins),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for an OS signal, stop accepting requests,
	// then drain in-flight requests and queued enrichment jobs.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	if err := runner.Wait(ctx); err != nil {
		slog.Warn("enrichment jobs abandoned", "error", err)
	}
	slog.Info("server stopped")
}

// migrate applies any pending schema migrations. goose drives database/sql,
// so it gets its own short-lived connection rather than the pgx pool.
func migrate(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return err
	}
	results, err := provider.Up(context.Background())
	if err != nil {
		return err
	}
	for _, r := range results {
		slog.Info("applied migration", "source", r.Source.Path)
	}
	return nil
}
