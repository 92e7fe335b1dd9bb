// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/ansuz/internal/api"
	"github.com/starford/ansuz/internal/autosave"
	"github.com/starford/ansuz/internal/kvstore"
	"github.com/starford/ansuz/internal/mailer"
	"github.com/starford/ansuz/internal/mcpserver"
	"github.com/starford/ansuz/internal/notes"
	"github.com/starford/ansuz/internal/quota"
	"github.com/starford/ansuz/internal/sse"
	"github.com/starford/ansuz/internal/websearch"
)

// Run starts the HTTP application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_medium", cfg.Store.Medium),
		slog.String("store_path", cfg.Store.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Open the storage medium, falling back to memory when the
	// configured one is unusable. The app must come up either way; a
	// memory store just means nothing survives the process.
	medium, fileMedium := openMedium(cfg, logger)
	defer medium.Close()

	store := kvstore.New(medium, kvstore.Options{
		Secret: cfg.Store.Secret,
		Logger: logger,
	})
	repo := notes.NewRepository(store, notes.Options{Logger: logger})

	// SSE broker; also the toast sink for the autosave controller.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	ctrl := autosave.NewController(repo, autosave.Options{
		Notifier: broker,
		Logger:   logger,
		Ceiling:  cfg.Notes.CharLimit,
		Debounce: cfg.Notes.Debounce(),
	})

	var mail *mailer.Client
	if cfg.Mail.Enabled() {
		mail = mailer.NewClient(mailer.Options{
			APIKey:  cfg.Mail.APIKey,
			From:    cfg.Mail.From,
			To:      cfg.Mail.To,
			BaseURL: cfg.Mail.BaseURL,
			Logger:  logger,
		})
	}
	var search *websearch.Client
	if cfg.Search.Enabled() {
		search = websearch.NewClient(websearch.Options{
			APIKey:  cfg.Search.APIKey,
			BaseURL: cfg.Search.BaseURL,
			Quota:   quota.NewDailyCounter(cfg.Search.DailyLimit, nil),
			Logger:  logger,
		})
	}
	mailQuota := quota.NewDailyCounter(cfg.Mail.DailyLimit, nil)

	// Build API handler and router.
	h := api.NewHandler(repo, ctrl, broker, mail, search, mailQuota)
	apiRouter := api.NewRouter(h, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the store directory for external changes (file medium only).
	if fileMedium != nil {
		g.Go(func() error {
			err := kvstore.Watch(gCtx, fileMedium, logger, func(kind, key string) {
				broker.Publish(sse.Event{Type: "storage." + kind, Data: map[string]string{"key": key}})
			})
			if err != nil {
				logger.Warn("store watcher unavailable", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		// Flush whatever the editor still had in flight.
		if err := ctrl.Close(); err != nil {
			logger.Error("autosave flush error", slog.String("error", err.Error()))
		}
		repo.Persist()

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP starts the MCP stdio server over the same notes engine.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	// Stdout carries the MCP protocol; logs go to stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	medium, _ := openMedium(cfg, logger)
	defer medium.Close()

	store := kvstore.New(medium, kvstore.Options{Secret: cfg.Store.Secret, Logger: logger})
	repo := notes.NewRepository(store, notes.Options{Logger: logger})
	ctrl := autosave.NewController(repo, autosave.Options{
		Logger:   logger,
		Ceiling:  cfg.Notes.CharLimit,
		Debounce: cfg.Notes.Debounce(),
	})
	defer ctrl.Close()

	logger.Info("Starting MCP server on stdio", slog.String("store_medium", cfg.Store.Medium))
	return mcpserver.New(repo, ctrl).ServeStdio()
}

// openMedium opens the configured storage medium. Any failure degrades
// to the in-memory medium; the second return is non-nil only for the
// file medium, which supports watching.
func openMedium(cfg *Config, logger *slog.Logger) (kvstore.Medium, *kvstore.FileMedium) {
	switch cfg.Store.Medium {
	case StoreMediumFile:
		if err := os.MkdirAll(cfg.Store.Path, 0o755); err != nil {
			logger.Warn("store directory unavailable, using memory",
				slog.String("path", cfg.Store.Path), slog.String("error", err.Error()))
			return kvstore.NewMemMedium(), nil
		}
		fm, err := kvstore.NewFileMedium(cfg.Store.Path)
		if err != nil {
			logger.Warn("file store unavailable, using memory",
				slog.String("path", cfg.Store.Path), slog.String("error", err.Error()))
			return kvstore.NewMemMedium(), nil
		}
		return fm, fm
	case StoreMediumSQLite:
		sm, err := kvstore.OpenSQLite(cfg.Store.Path)
		if err != nil {
			logger.Warn("sqlite store unavailable, using memory",
				slog.String("path", cfg.Store.Path), slog.String("error", err.Error()))
			return kvstore.NewMemMedium(), nil
		}
		return sm, nil
	default:
		return kvstore.NewMemMedium(), nil
	}
}
