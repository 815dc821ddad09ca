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

	chatadapter "github.com/ericfisherdev/repowatch/internal/adapter/driven/chat"
	githubadapter "github.com/ericfisherdev/repowatch/internal/adapter/driven/github"
	sqliteadapter "github.com/ericfisherdev/repowatch/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/repowatch/internal/adapter/driving/http"
	webhookadapter "github.com/ericfisherdev/repowatch/internal/adapter/driving/webhook"
	"github.com/ericfisherdev/repowatch/internal/application"
	"github.com/ericfisherdev/repowatch/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on missing required env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"mode", cfg.Mode,
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"poll_interval", cfg.PollInterval,
		"case_fold", cfg.CaseFold,
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

	// 5. Wire driven adapters.
	registryStore := sqliteadapter.NewRegistryRepo(db)
	ghClient := githubadapter.NewClient(cfg.GitHubToken)
	if cfg.GitHubToken == "" {
		slog.Warn("no github token configured, unauthenticated API calls are limited to 60 per hour")
	}
	sender := chatadapter.NewSender(cfg.ChatBridgeURL)

	// 6. Build the application core and restore the watch table.
	registry := application.NewRegistry(registryStore, ghClient, cfg.CaseFold, slog.Default())
	if err := registry.Load(ctx); err != nil {
		return err
	}
	notifier := application.NewNotifier(registry, sender, slog.Default())

	// 7. Start exactly one event source.
	var webhookHandler *webhookadapter.Handler
	var cancelDispatch context.CancelFunc
	var extraRoutes []func(*http.ServeMux)
	var reconcilerDone chan struct{}

	switch cfg.Mode {
	case config.ModeWebhook:
		dispatcher := application.NewDispatcher(notifier, slog.Default())
		// Detached dispatch tasks drain at shutdown instead of dying with
		// the signal context; cancelDispatch is the grace-period backstop.
		var dispatchCtx context.Context
		dispatchCtx, cancelDispatch = context.WithCancel(context.WithoutCancel(ctx))
		defer cancelDispatch()
		webhookHandler = webhookadapter.NewHandler(dispatchCtx, cfg.WebhookSecret, dispatcher, slog.Default())
		extraRoutes = append(extraRoutes, func(mux *http.ServeMux) {
			webhookHandler.Register(mux, cfg.WebhookPath)
		})
		slog.Info("webhook receiver enabled", "path", cfg.WebhookPath)
	case config.ModePoll:
		reconciler := application.NewReconciler(ghClient, registry, notifier, cfg.PollInterval, cfg.PageSize, slog.Default())
		registry.SetWatermarkHooks(reconciler.Seed, reconciler.Clear)
		for _, repoKey := range registry.WatchedRepos() {
			reconciler.Seed(repoKey)
		}
		reconcilerDone = make(chan struct{})
		go func() {
			reconciler.Start(ctx)
			close(reconcilerDone)
		}()
	}

	// 8. Admin API server.
	apiHandler := httphandler.NewHandler(registry, ghClient, slog.Default())
	handler := httphandler.NewServeMux(apiHandler, slog.Default(), extraRoutes...)

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

	slog.Info("repowatch started", "mode", cfg.Mode, "listen_addr", cfg.ListenAddr)

	// 9. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 10. Graceful shutdown: stop accepting requests, then drain the event
	// source. Webhook dispatches finish on their own uncancelled context
	// within a grace period; a still-running reconciliation pass is joined
	// before the database closes.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}
	if webhookHandler != nil {
		drained := make(chan struct{})
		go func() {
			webhookHandler.Wait()
			close(drained)
		}()
		select {
		case <-drained:
		case <-time.After(10 * time.Second):
			slog.Warn("webhook dispatch drain exceeded grace period, canceling remaining deliveries")
			cancelDispatch()
			<-drained
		}
	}
	if reconcilerDone != nil {
		<-reconcilerDone
	}

	slog.Info("shutdown complete")
	return nil
}
