// Package main is the entry point for the OpenJudge auth server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"openjudge/internal/cache"
	"openjudge/internal/config"
	"openjudge/internal/contestaccess"
	"openjudge/internal/credential"
	"openjudge/internal/database"
	"openjudge/internal/handlers"
	"openjudge/internal/mail"
	"openjudge/internal/router"
	"openjudge/internal/session"
	"openjudge/internal/store"
)

func main() {
	// Structured logger — outputs JSON in production, text in development.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Connect to Valkey (Redis-compatible session store).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// Initialize session store backed by Valkey.
	// In non-development environments, mark session cookies as Secure (HTTPS-only).
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)

	// Initialize data stores.
	userStore := store.NewUserStore(db)
	contestStore := store.NewContestStore(db)
	contestData := store.NewContestDataStore(db)

	// Session registry tracks every live session key per account.
	registry := session.NewRegistry(sessionStore, userStore)

	// Mail dispatch: real SMTP when configured, log-only otherwise.
	var dispatcher mail.Dispatcher
	if cfg.SMTPHost != "" {
		dispatcher = mail.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
		slog.Info("smtp dispatch enabled", "host", cfg.SMTPHost)
	} else {
		dispatcher = mail.LogDispatcher{}
		slog.Warn("smtp not configured — reset mails are logged only")
	}

	credentials := credential.NewService(userStore, dispatcher, cfg.SiteName, cfg.SiteBaseURL)
	access := contestaccess.NewController(contestStore)

	// Create handler groups with their dependencies.
	authHandlers := handlers.NewAuth(userStore, sessionStore, registry, credentials)
	accountHandlers := handlers.NewAccount(userStore, credentials)
	credentialHandlers := handlers.NewCredentials(credentials)
	sessionHandlers := handlers.NewSessions(registry)
	contestHandlers := handlers.NewContest(contestStore, access, sessionStore, contestData)

	// Set up the Chi router with all middleware and routes.
	r := router.New(sessionStore, registry, userStore,
		authHandlers, accountHandlers, credentialHandlers, sessionHandlers, contestHandlers)

	// Create the HTTP server with sensible timeouts.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
