package service

import (
	"log/slog"
	"time"

	"github.com/unklstewy/nearest-aircraft/pkg/adsb"
	"github.com/unklstewy/nearest-aircraft/pkg/config"
	"github.com/unklstewy/nearest-aircraft/pkg/nearest"
)

// NewFeedClient creates the upstream client described by cfg.
func NewFeedClient(cfg config.ADSBConfig) *adsb.Client {
	return adsb.NewClient(adsb.ClientConfig{
		BaseURL:           cfg.BaseURL,
		PathStyle:         adsb.PathStyle(cfg.PathStyle),
		Timeout:           cfg.Timeout(),
		RequestsPerSecond: cfg.RequestsPerSecond,
		MaxRadius:         cfg.MaxRadius,
	})
}

// RetryConfig derives the upstream retry policy from cfg.
func RetryConfig(cfg config.ADSBConfig, logger *slog.Logger) adsb.RetryConfig {
	rc := adsb.DefaultRetryConfig()
	rc.MaxRetries = cfg.MaxRetries
	if cfg.RetryInitialDelayMs > 0 {
		rc.InitialDelay = time.Duration(cfg.RetryInitialDelayMs) * time.Millisecond
	}
	if cfg.RetryMaxDelaySeconds > 0 {
		rc.MaxDelay = time.Duration(cfg.RetryMaxDelaySeconds) * time.Second
	}
	rc.Logger = logger
	return rc
}

// NewEngine creates the selection engine described by cfg.
func NewEngine(cfg config.SelectionConfig) *nearest.Engine {
	return nearest.NewEngine(nearest.Options{
		MinAltitudeFt: cfg.MinAltitudeFt,
		Unit:          cfg.Unit(),
	})
}
