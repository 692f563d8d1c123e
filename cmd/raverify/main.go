package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	raadapter "github.com/ericfisherdev/raverify/internal/adapter/driven/retroachievements"
	sqliteadapter "github.com/ericfisherdev/raverify/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/raverify/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/raverify/internal/adapter/driving/web"
	"github.com/ericfisherdev/raverify/internal/application"
	"github.com/ericfisherdev/raverify/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on malformed env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"api_base_url", cfg.APIBaseURL,
		"item_interval", cfg.ItemInterval,
		"max_attempts", cfg.MaxAttempts,
		"credential_persistence", cfg.HasSecretKey(),
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	version, err := sqliteadapter.RunMigrations(db.Writer)
	if err != nil {
		return err
	}
	slog.Info("migrations complete", "version", version)

	// 5. Wire adapters.
	credentialStore := sqliteadapter.NewCredentialRepo(db, cfg.SecretKey)
	preferenceStore := sqliteadapter.NewPreferenceRepo(db)
	if !cfg.HasSecretKey() {
		slog.Warn("RAVERIFY_SECRET_KEY not set, web API keys will not be remembered")
	}

	raClient, err := raadapter.NewClient(cfg.APIBaseURL, cfg.RequestTimeout)
	if err != nil {
		return err
	}

	// 6. Create application services.
	rateLimited := application.NewRateLimitedClient(raClient, application.NewBackoffState(cfg.BackoffBase), cfg.MaxAttempts, nil)
	runner := application.NewRunner(rateLimited, cfg.ItemInterval)
	credSvc := application.NewCredentialService(credentialStore, preferenceStore)

	// 7. Create HTTP handlers and register API and GUI routes.
	mux := http.NewServeMux()
	apiHandler := httphandler.NewHandler(runner, credSvc, cfg.PublicURL, cfg.MediaBaseURL, slog.Default())
	httphandler.RegisterAPIRoutes(mux, apiHandler)

	webHandler := webhandler.NewHandler(runner, credSvc, cfg.PublicURL, cfg.MediaBaseURL, cfg.HasSecretKey(), slog.Default())
	webhandler.RegisterRoutes(mux, webHandler)

	// Apply middleware.
	handler := httphandler.ApplyMiddleware(mux, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.ListenAddr, err)
	}
	slog.Info("http server starting", "addr", ln.Addr().String(), "public_url", cfg.PublicURL)

	// 8. Serve until a shutdown signal, then drain in-flight streams for up
	// to 10s before closing what is left.
	if err := serve(ctx, srv, ln, shutdownTimeout); err != nil {
		return err
	}

	slog.Info("shutdown complete")
	return nil
}
