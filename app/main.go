package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/lysyi3m/listing-comb/app/api"
	"github.com/lysyi3m/listing-comb/app/cache"
	"github.com/lysyi3m/listing-comb/app/cfg"
	"github.com/lysyi3m/listing-comb/app/database"
	"github.com/lysyi3m/listing-comb/app/extract"
	"github.com/lysyi3m/listing-comb/app/fetch"
	"github.com/lysyi3m/listing-comb/app/scrape"
	"github.com/lysyi3m/listing-comb/app/tasks"
)

func main() {
	appConfig, err := cfg.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if appConfig == nil {
		// Help was shown
		return
	}

	setupLogging(appConfig.Debug)

	if err := run(appConfig); err != nil {
		slog.Error("Listing Comb server failed", "error", err)
		os.Exit(1)
	}
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

func run(appConfig *cfg.Cfg) error {
	slog.Info("Starting Listing Comb server", "version", appConfig.Version)

	if err := os.MkdirAll(filepath.Dir(appConfig.DBPath), 0o755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := database.NewConnection(appConfig.DBPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	version, _, err := database.RunMigrations(db)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("Database ready", "path", appConfig.DBPath, "schema_version", version)

	repo := database.NewPropertyStore(db)

	listingCache, err := newCache(appConfig)
	if err != nil {
		return err
	}
	defer listingCache.Close()

	extractionConfig, err := extract.LoadConfig(appConfig.ExtractionConfig)
	if err != nil {
		return fmt.Errorf("failed to load extraction config: %w", err)
	}
	extractor, err := extract.New(extractionConfig)
	if err != nil {
		return err
	}

	client, err := fetch.NewClient(fetch.Config{
		Endpoint:  appConfig.ProxyURL,
		APIKey:    appConfig.ProxyKey,
		UserAgent: appConfig.UserAgent,
		RateLimit: appConfig.RateLimit,
	})
	if err != nil {
		return fmt.Errorf("failed to create fetch client: %w", err)
	}

	policy := scrape.DefaultPolicy()
	policy.MaxAttempts = appConfig.MaxAttempts
	policy.BaseDelay = appConfig.RetryBaseDelay

	opts := fetch.DefaultOptions()
	opts.Timeout = appConfig.FetchTimeout

	scraper := scrape.New(client, extractor, policy, opts)

	slog.Info("Starting background scheduler", "workers", appConfig.WorkerCount, "refresh_interval", appConfig.RefreshInterval.String(), "scrape_budget", scraper.Budget().String())
	scheduler := tasks.NewScheduler(repo, scraper, listingCache, appConfig.RefreshInterval, appConfig.WorkerCount, scraper.Budget())
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(repo, scraper, listingCache, scheduler, appConfig.BaseUrl, appConfig.Version)
	server := api.NewServer(handler, appConfig.APIAccessKey)

	// Scrapes run inside the request, so the write timeout covers a full retry cycle.
	httpServer := &http.Server{
		Addr:         ":" + appConfig.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: max(10*time.Minute, scraper.Budget()+time.Minute),
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appConfig.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	return nil
}

func newCache(appConfig *cfg.Cfg) (cache.ListingCache, error) {
	if appConfig.RedisAddr == "" {
		slog.Info("Listing cache disabled (REDIS_ADDR not set)")
		return cache.Noop{}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := cache.NewCache(ctx, appConfig.RedisAddr, appConfig.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return c, nil
}
