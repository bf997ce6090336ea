// watch shows the aircraft nearest to an observer and refreshes it
// periodically, or follows the sightings a server publishes on NATS.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/unklstewy/nearest-aircraft/internal/cache"
	"github.com/unklstewy/nearest-aircraft/internal/events"
	"github.com/unklstewy/nearest-aircraft/internal/logging"
	"github.com/unklstewy/nearest-aircraft/internal/service"
	"github.com/unklstewy/nearest-aircraft/internal/sightings"
	"github.com/unklstewy/nearest-aircraft/pkg/config"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	lat := flag.Float64("lat", 0, "Observer latitude (default: observer.latitude from config)")
	lon := flag.Float64("lon", 0, "Observer longitude (default: observer.longitude from config)")
	dist := flag.Float64("dist", 0, "Search radius (default: selection.default_radius from config)")
	interval := flag.Duration("interval", 5*time.Second, "Refresh interval")
	natsURL := flag.String("nats", "", "Follow sightings published on this NATS server instead of polling")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "lat":
			cfg.Observer.Latitude = *lat
		case "lon":
			cfg.Observer.Longitude = *lon
		case "dist":
			cfg.Selection.DefaultRadius = *dist
		}
	})

	// The terminal belongs to the UI, so only a log file is useful here
	logger := logging.Discard()
	if cfg.Logging.File != "" {
		l, err := logging.New(cfg.Logging)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
			os.Exit(1)
		}
		defer l.Close()
		logger = l.Logger
	}

	m := model{interval: *interval}

	if *natsURL == "" {
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid options: %v\n", err)
			os.Exit(2)
		}
		source := service.NewFeedClient(cfg.ADSB)
		defer source.Close()

		m.finder = service.NewFinder(service.Options{
			Source: source,
			Engine: service.NewEngine(cfg.Selection),
			Cache:  cache.NewMemory(16, *interval/2),
			Retry:  service.RetryConfig(cfg.ADSB, logger),
			Logger: logger,
		})
		m.query = service.Query{
			Lat:    cfg.Observer.Latitude,
			Lon:    cfg.Observer.Longitude,
			Radius: cfg.Selection.DefaultRadius,
		}
		m.source = fmt.Sprintf("%.4f, %.4f within %g", m.query.Lat, m.query.Lon, m.query.Radius)
	}

	if *natsURL != "" {
		m.source = "following " + cfg.Events.Subject
	}
	p := tea.NewProgram(m, tea.WithAltScreen())

	if *natsURL != "" {
		subject := cfg.Events.Subject
		sub, err := events.Subscribe(*natsURL, subject, func(s sightings.Sighting) {
			p.Send(sightingMsg(s))
		}, func(err error) {
			logger.Warn("Skipping malformed sighting", slog.Any("error", err))
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer sub.Close()
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
