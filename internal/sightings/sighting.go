// Package sightings records every answered nearest-aircraft query to one or
// more sinks without slowing down the query itself.
package sightings

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/unklstewy/nearest-aircraft/pkg/nearest"
)

// Sighting is one answered query.
type Sighting struct {
	ID          uuid.UUID        `json:"id"`
	RequestedAt time.Time        `json:"requested_at"`
	Observer    nearest.Observer `json:"observer"`
	Radius      float64          `json:"radius"`
	Result      nearest.Result   `json:"result"`
}

// New stamps a result with a fresh ID and the current time.
func New(observer nearest.Observer, radius float64, result nearest.Result) Sighting {
	return Sighting{
		ID:          uuid.New(),
		RequestedAt: time.Now().UTC(),
		Observer:    observer,
		Radius:      radius,
		Result:      result,
	}
}

// Sink stores or forwards sightings.
type Sink interface {
	Record(ctx context.Context, s Sighting) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(ctx context.Context, s Sighting) error

func (f SinkFunc) Record(ctx context.Context, s Sighting) error {
	return f(ctx, s)
}

// MultiSink writes to every sink concurrently and joins their errors. One
// failing sink does not stop the others.
type MultiSink []Sink

func (m MultiSink) Record(ctx context.Context, s Sighting) error {
	errs := make([]error, len(m))
	var g errgroup.Group
	for i, sink := range m {
		g.Go(func() error {
			errs[i] = sink.Record(ctx, s)
			return nil
		})
	}
	g.Wait()
	return errors.Join(errs...)
}

// LogSink writes sightings to a structured logger.
type LogSink struct {
	Logger *slog.Logger
}

func (l LogSink) Record(ctx context.Context, s Sighting) error {
	r := s.Result
	attrs := []any{
		slog.String("id", s.ID.String()),
		slog.Float64("lat", s.Observer.Lat),
		slog.Float64("lon", s.Observer.Lon),
		slog.Float64("radius", s.Radius),
		slog.Bool("found", r.Found),
	}
	if r.Found {
		attrs = append(attrs,
			slog.String("hex", r.Hex),
			slog.String("flight", r.Flight),
			slog.Float64("distance_km", r.DistanceKm),
			slog.Int("bearing", r.Bearing))
		if r.RelativeSpeed != nil {
			attrs = append(attrs, slog.Float64("relative_speed_kts", *r.RelativeSpeed))
		}
	}
	l.Logger.InfoContext(ctx, "Nearest aircraft", attrs...)
	return nil
}
