// Package cache keeps recent feed snapshots so that repeated queries for the
// same area within a short window do not hit the upstream feed.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/unklstewy/nearest-aircraft/pkg/adsb"
	"github.com/unklstewy/nearest-aircraft/pkg/config"
)

// Snapshot is one upstream answer.
type Snapshot struct {
	Records   []adsb.Record
	FetchedAt time.Time
}

// Cache stores snapshots by key. A miss is (Snapshot{}, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) (Snapshot, bool, error)
	Set(ctx context.Context, key string, snap Snapshot) error
	Close() error
}

// Key identifies a query area. Positions are rounded to about 10 m so that
// jittery clients share entries.
func Key(lat, lon, radius float64) string {
	return fmt.Sprintf("%.4f:%.4f:%s", lat, lon, strconv.FormatFloat(radius, 'f', -1, 64))
}

// New creates the cache selected by cfg.Backend.
func New(cfg config.CacheConfig) (Cache, error) {
	switch cfg.Backend {
	case config.CacheMemory:
		return NewMemory(cfg.Size, cfg.TTL()), nil
	case config.CacheRedis:
		return NewRedis(RedisOptions{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.KeyPrefix,
			TTL:       cfg.TTL(),
		})
	case config.CacheNone, "":
		return Nop{}, nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) (Snapshot, bool, error) { return Snapshot{}, false, nil }
func (Nop) Set(context.Context, string, Snapshot) error         { return nil }
func (Nop) Close() error                                        { return nil }
