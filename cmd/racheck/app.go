package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	raadapter "github.com/ericfisherdev/raverify/internal/adapter/driven/retroachievements"
	sqliteadapter "github.com/ericfisherdev/raverify/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/raverify/internal/application"
	"github.com/ericfisherdev/raverify/internal/config"
)

// app holds the services a command needs. It owns the database handle.
type app struct {
	cfg     *config.Config
	db      *sqliteadapter.DB
	runner  *application.Runner
	credSvc *application.CredentialService
}

// setupLogging routes slog to w. Without verbose only warnings and errors
// are shown so the result lines stay readable.
func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// openApp loads configuration, opens and migrates the local database and
// wires the application services the same way the server does.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}

	if _, err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		return nil, err
	}

	raClient, err := raadapter.NewClient(cfg.APIBaseURL, cfg.RequestTimeout)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating API client: %w", err)
	}

	rateLimited := application.NewRateLimitedClient(raClient, application.NewBackoffState(cfg.BackoffBase), cfg.MaxAttempts, nil)

	return &app{
		cfg:     cfg,
		db:      db,
		runner:  application.NewRunner(rateLimited, cfg.ItemInterval),
		credSvc: application.NewCredentialService(sqliteadapter.NewCredentialRepo(db, cfg.SecretKey), sqliteadapter.NewPreferenceRepo(db)),
	}, nil
}

// Close releases the database.
func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}
