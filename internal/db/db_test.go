package db

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/unklstewy/nearest-aircraft/pkg/config"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock DB: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return New(sqlDB, config.DefaultConfig().Database), mock
}

// TestConnectionString tests lib/pq connection string construction.
func TestConnectionString(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "db.example.com",
		Port:     5433,
		Username: "testuser",
		Password: "testpass",
		Database: "testdb",
		SSLMode:  "require",
	}

	want := "host=db.example.com port=5433 user=testuser password=testpass dbname=testdb sslmode=require"
	if got := ConnectionString(cfg); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	cfg.Password = ""
	want = "host=db.example.com port=5433 user=testuser dbname=testdb sslmode=require"
	if got := ConnectionString(cfg); got != want {
		t.Errorf("Expected %q without password, got %q", want, got)
	}
}

// TestConnect tests that an unreachable database is reported.
func TestConnect(t *testing.T) {
	cfg := config.DefaultConfig().Database
	cfg.Host = "127.0.0.1"
	cfg.Port = 1

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	db, err := Connect(ctx, cfg)
	if err == nil {
		db.Close()
		t.Fatal("Expected error connecting to a closed port")
	}
	if !strings.Contains(err.Error(), "failed to ping database") {
		t.Errorf("Expected ping error, got: %v", err)
	}
}

// TestConnectWithRetry tests that retries give up after maxRetries.
func TestConnectWithRetry(t *testing.T) {
	cfg := config.DefaultConfig().Database
	cfg.Host = "127.0.0.1"
	cfg.Port = 1

	_, err := ConnectWithRetry(context.Background(), cfg, 2, 10*time.Millisecond, discard)
	if err == nil || !strings.Contains(err.Error(), "after 2 attempts") {
		t.Errorf("Expected retry exhaustion, got: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ConnectWithRetry(ctx, cfg, 0, time.Hour, discard); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context cancellation, got: %v", err)
	}
}

// TestInitSchema tests that the embedded schema is executed.
func TestInitSchema(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS sightings").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := db.InitSchema(context.Background()); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

// TestCleanupOldData tests pruning of old sightings.
func TestCleanupOldData(t *testing.T) {
	t.Run("Deletes and counts", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("DELETE FROM sightings WHERE requested_at").
			WithArgs(sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 3))

		n, err := db.CleanupOldData(context.Background(), 24*time.Hour)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if n != 3 {
			t.Errorf("Expected 3 deleted rows, got %d", n)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unmet expectations: %v", err)
		}
	})

	t.Run("Errors are wrapped", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("DELETE FROM sightings").
			WillReturnError(errors.New("permission denied"))

		_, err := db.CleanupOldData(context.Background(), time.Hour)
		if err == nil || !strings.Contains(err.Error(), "permission denied") {
			t.Errorf("Expected wrapped error, got: %v", err)
		}
	})
}

// TestHealthCheck tests the database health check.
func TestHealthCheck(t *testing.T) {
	if err := HealthCheck(context.Background(), nil); err == nil {
		t.Error("Expected error for nil database")
	}

	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT 1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	if err := HealthCheck(context.Background(), db); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}

	mock.ExpectQuery("SELECT 1").WillReturnError(errors.New("connection refused"))
	if err := HealthCheck(context.Background(), db); err == nil {
		t.Error("Expected error when query fails")
	}
}
