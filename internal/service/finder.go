// Package service answers nearest-aircraft queries: it fetches a feed
// snapshot (through the cache), runs the selection engine and hands the
// answer to the sighting recorder.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/unklstewy/nearest-aircraft/internal/cache"
	"github.com/unklstewy/nearest-aircraft/internal/sightings"
	"github.com/unklstewy/nearest-aircraft/pkg/adsb"
	"github.com/unklstewy/nearest-aircraft/pkg/nearest"
)

// ErrInvalidQuery is wrapped by every query validation error.
var ErrInvalidQuery = errors.New("invalid query")

// Query is one nearest-aircraft request.
type Query struct {
	Lat    float64
	Lon    float64
	Radius float64
}

// Observer returns the query position.
func (q Query) Observer() nearest.Observer {
	return nearest.Observer{Lat: q.Lat, Lon: q.Lon}
}

// Validate checks that the position is on the globe and the radius is usable.
func (q Query) Validate() error {
	switch {
	case math.IsNaN(q.Lat) || q.Lat < -90 || q.Lat > 90:
		return fmt.Errorf("%w: lat must be between -90 and 90", ErrInvalidQuery)
	case math.IsNaN(q.Lon) || q.Lon < -180 || q.Lon > 180:
		return fmt.Errorf("%w: lon must be between -180 and 180", ErrInvalidQuery)
	case math.IsNaN(q.Radius) || math.IsInf(q.Radius, 0) || q.Radius <= 0:
		return fmt.Errorf("%w: dist must be a positive number", ErrInvalidQuery)
	}
	return nil
}

// UpstreamError reports a failed feed fetch.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("error fetching data from ads-b api: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Recorder accepts answered queries without blocking.
type Recorder interface {
	Record(s sightings.Sighting) bool
}

// Options configure a Finder. Source and Engine are required.
type Options struct {
	Source adsb.DataSource
	Engine *nearest.Engine

	// Cache holds recent snapshots; nil disables caching
	Cache cache.Cache

	// Retry controls upstream retries
	Retry adsb.RetryConfig

	// Recorder receives every answer; nil disables recording
	Recorder Recorder

	Logger *slog.Logger
}

// Finder answers queries. It is safe for concurrent use.
type Finder struct {
	source   adsb.DataSource
	engine   *nearest.Engine
	cache    cache.Cache
	retry    adsb.RetryConfig
	recorder Recorder
	logger   *slog.Logger

	fetches singleflight.Group
	now     func() time.Time
}

// NewFinder creates a Finder.
func NewFinder(opts Options) *Finder {
	f := &Finder{
		source:   opts.Source,
		engine:   opts.Engine,
		cache:    opts.Cache,
		retry:    opts.Retry,
		recorder: opts.Recorder,
		logger:   opts.Logger,
		now:      time.Now,
	}
	if f.cache == nil {
		f.cache = cache.Nop{}
	}
	if f.logger == nil {
		f.logger = slog.New(slog.DiscardHandler)
	}
	if f.retry.Logger == nil {
		f.retry.Logger = f.logger
	}
	return f
}

// Find returns the nearest qualifying aircraft for q.
func (f *Finder) Find(ctx context.Context, q Query) (nearest.Result, error) {
	if err := q.Validate(); err != nil {
		return nearest.Result{}, err
	}

	records, err := f.Snapshot(ctx, q)
	if err != nil {
		return nearest.Result{}, err
	}

	observer := q.Observer()
	res, scan := f.engine.Evaluate(records, observer)
	f.logger.DebugContext(ctx, "Scanned snapshot",
		slog.Int("considered", scan.Considered),
		slog.Any("rejected", scan.Rejected),
		slog.Bool("found", res.Found))

	if f.recorder != nil && !f.recorder.Record(sightings.New(observer, q.Radius, res)) {
		f.logger.WarnContext(ctx, "Sighting dropped", slog.String("hex", res.Hex))
	}

	return res, nil
}

// Snapshot returns the feed records around q, from the cache when a recent
// snapshot exists. Concurrent misses for the same key share one fetch.
func (f *Finder) Snapshot(ctx context.Context, q Query) ([]adsb.Record, error) {
	key := cache.Key(q.Lat, q.Lon, q.Radius)

	snap, ok, err := f.cache.Get(ctx, key)
	if err != nil {
		f.logger.WarnContext(ctx, "Cache read failed", slog.String("key", key), slog.Any("error", err))
	}
	if ok {
		return snap.Records, nil
	}

	// The shared fetch must not die with whichever caller started it
	fetchCtx := context.WithoutCancel(ctx)
	ch := f.fetches.DoChan(key, func() (any, error) {
		records, err := adsb.RetryWithBackoffResult(fetchCtx, f.retry, func() ([]adsb.Record, error) {
			return f.source.GetAircraft(fetchCtx, q.Lat, q.Lon, q.Radius)
		})
		if err != nil {
			return nil, &UpstreamError{Err: err}
		}

		snap := cache.Snapshot{Records: records, FetchedAt: f.now().UTC()}
		if err := f.cache.Set(fetchCtx, key, snap); err != nil {
			f.logger.Warn("Cache write failed", slog.String("key", key), slog.Any("error", err))
		}
		return records, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]adsb.Record), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
