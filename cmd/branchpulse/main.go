package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	githubadapter "github.com/branchpulse/branchpulse/internal/adapter/driven/github"
	smtpadapter "github.com/branchpulse/branchpulse/internal/adapter/driven/smtp"
	sqliteadapter "github.com/branchpulse/branchpulse/internal/adapter/driven/sqlite"
	httphandler "github.com/branchpulse/branchpulse/internal/adapter/driving/http"
	webhandler "github.com/branchpulse/branchpulse/internal/adapter/driving/web"
	"github.com/branchpulse/branchpulse/internal/application"
	"github.com/branchpulse/branchpulse/internal/config"
	"github.com/branchpulse/branchpulse/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"stale_days", cfg.StaleDays,
		"page_size", cfg.PageSize,
		"smtp_enabled", cfg.HasSMTP(),
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.DBPath)
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
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire adapters.
	sessionStore := sqliteadapter.NewSessionRepo(db)
	deletionStore := sqliteadapter.NewDeletionRepo(db)
	mailer := smtpadapter.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)

	// 6. Create services. A GitHub client is built per fetch session from
	// the session's token, never at process scope.
	clientFactory := func(token string) driven.GitHubClient {
		return githubadapter.NewClient(token)
	}

	fetchSvc := application.NewFetchService(ctx, clientFactory, sessionStore, cfg.PageSize, cfg.PageDelay)
	cleanupSvc := application.NewCleanupService(fetchSvc, deletionStore)
	notifySvc := application.NewNotifyService(fetchSvc, mailer)

	// 7. Create HTTP handler and register API routes.
	apiHandler := httphandler.NewHandler(fetchSvc, cleanupSvc, notifySvc, sessionStore, cfg.GitHubToken, cfg.StaleDays, slog.Default())
	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, apiHandler)

	// 7.5. Create web handler and register GUI routes.
	webHandler := webhandler.NewHandler(fetchSvc, notifySvc, slog.Default())
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

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	// 8. Log startup complete.
	slog.Info("branchpulse started", "listen_addr", cfg.ListenAddr)

	// 9. Wait for shutdown signal. Cancelling ctx also aborts any running
	// background fetch unit.
	<-ctx.Done()
	slog.Info("shutting down")

	// 10. Graceful shutdown with 10s timeout for HTTP server drain.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
