package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/unklstewy/nearest-aircraft/pkg/config"
)

// ConnectWithRetry attempts to connect to the database with exponential
// backoff. This provides resilience when the database starts after the
// service.
//
// Parameters:
//   - cfg: Database configuration
//   - maxRetries: Maximum number of connection attempts (0 = until ctx is done)
//   - initialDelay: Initial wait time between retries
//
// Returns: Connected database or the last error once retries are exhausted
func ConnectWithRetry(ctx context.Context, cfg config.DatabaseConfig, maxRetries int, initialDelay time.Duration, logger *slog.Logger) (*DB, error) {
	delay := initialDelay
	attempt := 0

	for {
		attempt++

		db, err := Connect(ctx, cfg)
		if err == nil {
			if attempt > 1 {
				logger.Info("Database connected", slog.Int("attempt", attempt))
			}
			return db, nil
		}

		// Check if we've exceeded max retries
		if maxRetries > 0 && attempt >= maxRetries {
			return nil, fmt.Errorf("failed to connect after %d attempts: %w", attempt, err)
		}

		logger.Warn("Database connection failed",
			slog.Int("attempt", attempt),
			slog.Duration("retry_in", delay),
			slog.Any("error", err))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		// Exponential backoff with cap at 60 seconds
		delay *= 2
		if delay > 60*time.Second {
			delay = 60 * time.Second
		}
	}
}

// HealthCheck verifies that the database answers a trivial query.
func HealthCheck(ctx context.Context, db *DB) error {
	if db == nil {
		return fmt.Errorf("database not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("health check query failed: %w", err)
	}
	if result != 1 {
		return fmt.Errorf("health check returned unexpected result: %d", result)
	}

	return nil
}
