// nearest prints the aircraft closest to a position once and exits.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/unklstewy/nearest-aircraft/internal/logging"
	"github.com/unklstewy/nearest-aircraft/internal/service"
	"github.com/unklstewy/nearest-aircraft/pkg/config"
	"github.com/unklstewy/nearest-aircraft/pkg/nearest"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	lat := flag.Float64("lat", 0, "Observer latitude (default: observer.latitude from config)")
	lon := flag.Float64("lon", 0, "Observer longitude (default: observer.longitude from config)")
	dist := flag.Float64("dist", 0, "Search radius (default: selection.default_radius from config)")
	format := flag.String("format", "text", "Output format: text or json")
	unit := flag.String("unit", "", "Distance unit: km, mi or nm (overrides config)")
	minAlt := flag.Float64("min-alt", -1, "Altitude floor in feet (overrides config)")
	verbose := flag.Bool("v", false, "Log scan details to stderr")
	writeConfig := flag.String("write-config", "", "Write the effective configuration to this path (.yaml or .json) and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Flags only override what was explicitly set
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "lat":
			cfg.Observer.Latitude = *lat
		case "lon":
			cfg.Observer.Longitude = *lon
		case "dist":
			cfg.Selection.DefaultRadius = *dist
		case "unit":
			cfg.Selection.DistanceUnit = *unit
		case "min-alt":
			cfg.Selection.MinAltitudeFt = *minAlt
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid options: %v\n", err)
		os.Exit(2)
	}

	if *writeConfig != "" {
		if err := cfg.Save(*writeConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Wrote configuration to %s\n", *writeConfig)
		return
	}

	f, err := nearest.ParseFormat(*format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	logCfg := cfg.Logging
	logCfg.File = ""
	logCfg.Format = "text"
	logCfg.Level = "warn"
	if *verbose {
		logCfg.Level = "debug"
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	source := service.NewFeedClient(cfg.ADSB)
	defer source.Close()

	finder := service.NewFinder(service.Options{
		Source: source,
		Engine: service.NewEngine(cfg.Selection),
		Retry:  service.RetryConfig(cfg.ADSB, logger.Logger),
		Logger: logger.Logger,
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	res, err := finder.Find(ctx, service.Query{
		Lat:    cfg.Observer.Latitude,
		Lon:    cfg.Observer.Longitude,
		Radius: cfg.Selection.DefaultRadius,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	out, err := res.Render(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Stdout.Write(out)
}
