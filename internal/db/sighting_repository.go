package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/unklstewy/nearest-aircraft/internal/sightings"
	"github.com/unklstewy/nearest-aircraft/pkg/coordinates"
)

// SightingRepository stores answered queries.
// It implements sightings.Sink.
type SightingRepository struct {
	db *DB
}

// NewSightingRepository creates a new sighting repository.
func NewSightingRepository(db *DB) *SightingRepository {
	return &SightingRepository{db: db}
}

// Record inserts a sighting.
func (r *SightingRepository) Record(ctx context.Context, s sightings.Sighting) error {
	res := s.Result
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sightings (
			id, requested_at, observer_lat, observer_lon, radius,
			found, hex, flight, description,
			altitude_ft, ground_speed, track,
			distance_km, bearing, direction, relative_speed_kts, message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`,
		s.ID.String(), s.RequestedAt, s.Observer.Lat, s.Observer.Lon, s.Radius,
		res.Found, nullString(res.Hex), res.Flight, res.Desc,
		nullInt(res.AltitudeFt), nullInt(res.GroundSpeed), nullInt(res.Track),
		res.DistanceKm, res.Bearing, res.Ordinal, nullFloat(res.RelativeSpeed), res.Message,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sighting: %w", err)
	}
	return nil
}

// Recent returns the latest sightings, newest first.
func (r *SightingRepository) Recent(ctx context.Context, limit int) ([]sightings.Sighting, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, requested_at, observer_lat, observer_lon, radius,
		       found, hex, flight, description,
		       altitude_ft, ground_speed, track,
		       distance_km, bearing, direction, relative_speed_kts, message
		FROM sightings
		ORDER BY requested_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sightings: %w", err)
	}
	defer rows.Close()

	var out []sightings.Sighting
	for rows.Next() {
		var (
			s              sightings.Sighting
			id             string
			hex            sql.NullString
			alt, gs, track sql.NullInt64
			relativeSpeed  sql.NullFloat64
			requestedAt    time.Time
		)
		err := rows.Scan(
			&id, &requestedAt, &s.Observer.Lat, &s.Observer.Lon, &s.Radius,
			&s.Result.Found, &hex, &s.Result.Flight, &s.Result.Desc,
			&alt, &gs, &track,
			&s.Result.DistanceKm, &s.Result.Bearing, &s.Result.Ordinal, &relativeSpeed, &s.Result.Message,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sighting: %w", err)
		}

		if err := s.ID.UnmarshalText([]byte(id)); err != nil {
			return nil, fmt.Errorf("invalid sighting id %q: %w", id, err)
		}
		s.RequestedAt = requestedAt.UTC()
		s.Result.Hex = hex.String
		s.Result.AltitudeFt = intPtr(alt)
		s.Result.GroundSpeed = intPtr(gs)
		s.Result.Track = intPtr(track)
		// Only kilometers are stored
		s.Result.Distance = s.Result.DistanceKm
		s.Result.Unit = coordinates.Kilometers
		if relativeSpeed.Valid {
			v := relativeSpeed.Float64
			s.Result.RelativeSpeed = &v
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sightings: %w", err)
	}

	return out, nil
}

// Stats summarizes the sighting log.
type Stats struct {
	Total            int64      `json:"total"`
	Found            int64      `json:"found"`
	NotFound         int64      `json:"not_found"`
	DistinctAircraft int64      `json:"distinct_aircraft"`
	LastSighting     *time.Time `json:"last_sighting"`
}

// Stats returns counts over the whole sighting log.
func (r *SightingRepository) Stats(ctx context.Context) (Stats, error) {
	var (
		st   Stats
		last sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE found),
		       COUNT(DISTINCT hex) FILTER (WHERE found),
		       MAX(requested_at)
		FROM sightings
	`).Scan(&st.Total, &st.Found, &st.DistinctAircraft, &last)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to query sighting stats: %w", err)
	}

	st.NotFound = st.Total - st.Found
	if last.Valid {
		t := last.Time.UTC()
		st.LastSighting = &t
	}
	return st, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

var _ sightings.Sink = (*SightingRepository)(nil)
