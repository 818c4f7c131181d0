package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver, for -data-format sqlite

	"beercompass.app/internal/app"
	"beercompass.app/internal/appconf"
	"beercompass.app/internal/bars"
	"beercompass.app/internal/restapi"
	"beercompass.app/internal/settings"
)

// shutdownGrace is how long in-flight requests get to finish once a
// termination signal arrives. Live stream sessions are cut off with the
// server; clients reconnect on their own.
const shutdownGrace = 10 * time.Second

func main() {
	var cfg appconf.Config
	var envFlag, apiKeysFlag, redisURL string

	flag.IntVar(&cfg.Port, "port", 4000, "API server port")
	flag.StringVar(&envFlag, "env", "development", "Environment (development|test|production)")
	flag.StringVar(&apiKeysFlag, "api-keys", "test", "Comma Separated API Keys (test, etc)")
	flag.StringVar(&cfg.DataSource, "data-source", "data/bars_data.json", "Path or URL for the bar dataset")
	flag.StringVar(&cfg.DataFormat, "data-format", "json", "Dataset format (json|csv|sqlite)")
	flag.StringVar(&cfg.SettingsPath, "settings-path", "data/settings.json", "File backing the settings store")
	flag.StringVar(&redisURL, "redis-url", "", "Redis URL for a shared settings store (overrides -settings-path)")
	flag.IntVar(&cfg.RateLimit, "rate-limit", 100, "Requests per second allowed per API key")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "Verbose output")
	flag.Parse()

	cfg.Env = appconf.EnvFlagToEnvironment(envFlag)
	cfg.RedisURL = redisURL
	if apiKeysFlag != "" {
		cfg.ApiKeys = strings.Split(apiKeysFlag, ",")
		for i := range cfg.ApiKeys {
			cfg.ApiKeys[i] = strings.TrimSpace(cfg.ApiKeys[i])
		}
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := run(cfg, logger); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func run(cfg appconf.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	catalog, err := bars.InitCatalog(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize bar catalog: %w", err)
	}
	if err := catalog.Load(ctx); err != nil {
		return fmt.Errorf("failed to load bar dataset: %w", err)
	}
	logger.Info("bar dataset loaded", "bars", catalog.Count(), "source", cfg.DataSource)

	store, err := newSettingsStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	api := restapi.NewRestAPI(&app.Application{
		Config:   cfg,
		Logger:   logger,
		Bars:     catalog,
		Settings: store,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.Handler(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr, "env", cfg.Env.String())
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", "grace", shutdownGrace)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error during shutdown: %w", err)
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	logger.Info("server stopped")
	return nil
}

// newSettingsStore picks the settings backend: Redis when a URL is
// configured, otherwise a local JSON file.
func newSettingsStore(ctx context.Context, cfg appconf.Config, logger *slog.Logger) (settings.Store, error) {
	if cfg.RedisURL != "" {
		store, err := settings.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect settings store: %w", err)
		}
		logger.Info("settings store", "backend", "redis")
		return store, nil
	}

	logger.Info("settings store", "backend", "file", "path", cfg.SettingsPath)
	return settings.NewFileStore(cfg.SettingsPath), nil
}
