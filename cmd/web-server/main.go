// Nearest Aircraft Web Server
// Serves /nearest_plane and the sighting log over HTTP
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
	"syscall"
	"time"

	"github.com/unklstewy/nearest-aircraft/internal/api"
	"github.com/unklstewy/nearest-aircraft/internal/cache"
	"github.com/unklstewy/nearest-aircraft/internal/db"
	"github.com/unklstewy/nearest-aircraft/internal/events"
	"github.com/unklstewy/nearest-aircraft/internal/logging"
	"github.com/unklstewy/nearest-aircraft/internal/service"
	"github.com/unklstewy/nearest-aircraft/internal/sightings"
	"github.com/unklstewy/nearest-aircraft/pkg/config"
)

var (
	configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")
	port       = flag.String("port", "", "HTTP server port (overrides config)")
)

func main() {
	os.Exit(realMain())
}

// realMain returns the process exit code so that deferred cleanup runs
// before os.Exit.
func realMain() int {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger.Logger); err != nil {
		logger.Error("Server failed", slog.Any("error", err))
		return 1
	}
	return 0
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("Starting nearest aircraft server",
		slog.String("feed", cfg.ADSB.BaseURL),
		slog.Float64("min_altitude_ft", cfg.Selection.MinAltitudeFt),
		slog.String("unit", string(cfg.Selection.Unit())))

	snapshots, err := cache.New(cfg.Cache)
	if err != nil {
		return fmt.Errorf("failed to create cache: %w", err)
	}
	defer snapshots.Close()

	var sinks sightings.MultiSink
	if cfg.Sightings.Log {
		sinks = append(sinks, sightings.LogSink{Logger: logger})
	}

	apiOpts := api.Options{
		DefaultRadius:  cfg.Selection.DefaultRadius,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logger,
	}

	if cfg.Database.Enabled {
		database, err := db.ConnectWithRetry(ctx, cfg.Database, 5, 2*time.Second, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()

		if err := database.InitSchema(ctx); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}

		repo := db.NewSightingRepository(database)
		sinks = append(sinks, repo)
		apiOpts.Store = repo
		apiOpts.DatabaseCheck = func(ctx context.Context) error {
			return db.HealthCheck(ctx, database)
		}

		if retention := cfg.Sightings.Retention(); retention > 0 {
			go pruneSightings(ctx, database, retention, logger)
		}
		logger.Info("Sighting store ready", slog.String("host", cfg.Database.Host))
	}

	if cfg.Events.Enabled {
		publisher, err := events.Connect(cfg.Events.NATSURL, cfg.Events.Subject)
		if err != nil {
			return err
		}
		defer publisher.Close()

		sinks = append(sinks, publisher)
		logger.Info("Publishing sightings", slog.String("subject", publisher.Subject()))
	}

	finderOpts := service.Options{
		Source: service.NewFeedClient(cfg.ADSB),
		Engine: service.NewEngine(cfg.Selection),
		Cache:  snapshots,
		Retry:  service.RetryConfig(cfg.ADSB, logger),
		Logger: logger,
	}

	var recorder *sightings.Recorder
	if len(sinks) > 0 {
		recorder = sightings.NewRecorder(sinks, cfg.Sightings.BufferSize, logger)
		finderOpts.Recorder = recorder
		apiOpts.Recorder = recorder
	}

	apiOpts.Finder = service.NewFinder(finderOpts)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewServer(apiOpts),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSeconds) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	if recorder != nil {
		if err := recorder.Close(shutdownCtx); err != nil {
			logger.Warn("Sightings not fully flushed", slog.Any("error", err))
		}
		st := recorder.Stats()
		logger.Info("Sighting recorder stopped",
			slog.Int64("recorded", st.Recorded),
			slog.Int64("dropped", st.Dropped),
			slog.Int64("failed", st.Failed))
	}

	logger.Info("Server stopped")
	return nil
}

// pruneSightings deletes sightings older than retention once an hour.
func pruneSightings(ctx context.Context, database *db.DB, retention time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		n, err := database.CleanupOldData(ctx, retention)
		if err != nil {
			logger.Warn("Failed to prune sightings", slog.Any("error", err))
		} else if n > 0 {
			logger.Info("Pruned sightings", slog.Int64("deleted", n))
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}
