package db

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/unklstewy/nearest-aircraft/internal/sightings"
	"github.com/unklstewy/nearest-aircraft/pkg/config"
	"github.com/unklstewy/nearest-aircraft/pkg/nearest"
)

func TestSightingRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx, "postgres:14-alpine",
		postgres.WithDatabase("nearest"),
		postgres.WithUsername("nearest"),
		postgres.WithPassword("nearest"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("Failed to terminate PostgreSQL container: %v", err)
		}
	}()

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}
	sqlDB, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	db := New(sqlDB, config.DefaultConfig().Database)
	defer db.Close()

	if err := db.InitSchema(ctx); err != nil {
		t.Fatalf("Failed to init schema: %v", err)
	}
	// Schema is idempotent
	if err := db.InitSchema(ctx); err != nil {
		t.Fatalf("Failed to re-run schema: %v", err)
	}
	if err := HealthCheck(ctx, db); err != nil {
		t.Fatalf("Health check failed: %v", err)
	}

	repo := NewSightingRepository(db)

	old := sightings.New(nearest.Observer{Lat: 1, Lon: 2}, 5, nearest.NotFound(""))
	old.RequestedAt = time.Now().UTC().Add(-48 * time.Hour)
	recent := testSighting()
	recent.RequestedAt = time.Now().UTC().Truncate(time.Millisecond)

	for _, s := range []sightings.Sighting{old, recent} {
		if err := repo.Record(ctx, s); err != nil {
			t.Fatalf("Failed to record sighting: %v", err)
		}
	}

	got, err := repo.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Failed to read sightings: %v", err)
	}
	if len(got) != 2 || got[0].ID != recent.ID {
		t.Fatalf("Expected newest sighting first, got %+v", got)
	}
	if got[0].Result.AltitudeFt == nil || *got[0].Result.AltitudeFt != 5000 {
		t.Errorf("Altitude not preserved: %v", got[0].Result.AltitudeFt)
	}
	if got[1].Result.RelativeSpeed != nil {
		t.Errorf("Expected NULL relative speed, got %v", *got[1].Result.RelativeSpeed)
	}

	st, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("Failed to read stats: %v", err)
	}
	if st.Total != 2 || st.Found != 1 || st.NotFound != 1 || st.DistinctAircraft != 1 {
		t.Errorf("Unexpected stats %+v", st)
	}

	n, err := db.CleanupOldData(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("Failed to clean up: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 pruned sighting, got %d", n)
	}
}
