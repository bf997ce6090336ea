package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/unklstewy/nearest-aircraft/pkg/coordinates"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "NEAREST_"

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config represents the complete application configuration.
// It is read from a JSON or YAML file and then overridden from the
// environment (and a .env file, when present).
type Config struct {
	Server    ServerConfig    `json:"server" yaml:"server"`
	ADSB      ADSBConfig      `json:"adsb" yaml:"adsb"`
	Selection SelectionConfig `json:"selection" yaml:"selection"`
	Observer  ObserverConfig  `json:"observer" yaml:"observer"`
	Cache     CacheConfig     `json:"cache" yaml:"cache"`
	Database  DatabaseConfig  `json:"database" yaml:"database"`
	Events    EventsConfig    `json:"events" yaml:"events"`
	Sightings SightingsConfig `json:"sightings" yaml:"sightings"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	// Port is the HTTP server port (default: 8080)
	Port string `json:"port" yaml:"port"`

	// Host is the server bind address (default: "0.0.0.0")
	Host string `json:"host" yaml:"host"`

	ReadTimeoutSeconds  int `json:"read_timeout_seconds" yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int `json:"write_timeout_seconds" yaml:"write_timeout_seconds"`
	IdleTimeoutSeconds  int `json:"idle_timeout_seconds" yaml:"idle_timeout_seconds"`

	// AllowedOrigins for CORS. Credentials are never allowed.
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, s.Port)
}

// ADSBConfig contains the upstream feed settings.
type ADSBConfig struct {
	// BaseURL is the API base URL (e.g., "https://opendata.adsb.fi/api/v2")
	BaseURL string `json:"base_url" yaml:"base_url"`

	// PathStyle selects the URL layout: "adsbfi" or "airplaneslive"
	PathStyle string `json:"path_style" yaml:"path_style"`

	// TimeoutSeconds bounds a single upstream request
	TimeoutSeconds int `json:"timeout_seconds" yaml:"timeout_seconds"`

	// RequestsPerSecond limits upstream calls; 0 = unlimited
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`

	// MaxRadius caps the search radius sent upstream
	MaxRadius float64 `json:"max_radius" yaml:"max_radius"`

	// MaxRetries is the number of retries after the first failed fetch
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// RetryInitialDelayMs is the first backoff delay
	RetryInitialDelayMs int `json:"retry_initial_delay_ms" yaml:"retry_initial_delay_ms"`

	// RetryMaxDelaySeconds caps the backoff delay
	RetryMaxDelaySeconds int `json:"retry_max_delay_seconds" yaml:"retry_max_delay_seconds"`
}

// Timeout returns the request timeout.
func (a ADSBConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// SelectionConfig controls which aircraft qualify and how results read.
type SelectionConfig struct {
	// MinAltitudeFt is the altitude floor; aircraft must be strictly above it
	MinAltitudeFt float64 `json:"min_altitude_ft" yaml:"min_altitude_ft"`

	// DistanceUnit is "km", "mi" or "nm"
	DistanceUnit string `json:"distance_unit" yaml:"distance_unit"`

	// DefaultRadius is used when a query does not give one
	DefaultRadius float64 `json:"default_radius" yaml:"default_radius"`
}

// Unit returns the parsed distance unit, falling back to kilometers.
func (s SelectionConfig) Unit() coordinates.DistanceUnit {
	u, err := coordinates.ParseDistanceUnit(s.DistanceUnit)
	if err != nil {
		return coordinates.Kilometers
	}
	return u
}

// ObserverConfig is the default observer location for the command line tools.
type ObserverConfig struct {
	// Name is a friendly identifier for this observer location
	Name string `json:"name" yaml:"name"`

	// Latitude in decimal degrees (-90 to +90)
	Latitude float64 `json:"latitude" yaml:"latitude"`

	// Longitude in decimal degrees (-180 to +180)
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// CacheConfig configures the feed snapshot cache.
type CacheConfig struct {
	// Backend is "memory", "redis" or "none"
	Backend string `json:"backend" yaml:"backend"`

	// TTLSeconds is how long a snapshot is reused
	TTLSeconds int `json:"ttl_seconds" yaml:"ttl_seconds"`

	// Size is the maximum number of snapshots kept in memory
	Size int `json:"size" yaml:"size"`

	RedisAddr     string `json:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `json:"redis_password" yaml:"redis_password"`
	RedisDB       int    `json:"redis_db" yaml:"redis_db"`

	// KeyPrefix namespaces redis keys
	KeyPrefix string `json:"key_prefix" yaml:"key_prefix"`
}

// TTL returns the snapshot lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	// Enabled turns on the sightings log
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Driver is the database driver (postgres)
	Driver string `json:"driver" yaml:"driver"`

	// Host is the database server hostname
	Host string `json:"host" yaml:"host"`

	// Port is the database server port
	Port int `json:"port" yaml:"port"`

	// Database is the database name
	Database string `json:"database" yaml:"database"`

	// Username for database authentication
	Username string `json:"username" yaml:"username"`

	// Password for database authentication (should be loaded from environment)
	Password string `json:"password" yaml:"password"`

	// SSLMode for PostgreSQL connections (disable, require, verify-ca, verify-full)
	SSLMode string `json:"ssl_mode" yaml:"ssl_mode"`

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int `json:"max_open_conns" yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int `json:"max_idle_conns" yaml:"max_idle_conns"`
}

// EventsConfig configures sighting events on NATS.
type EventsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	NATSURL string `json:"nats_url" yaml:"nats_url"`
	Subject string `json:"subject" yaml:"subject"`
}

// SightingsConfig configures the asynchronous sighting recorder.
type SightingsConfig struct {
	// BufferSize is the number of sightings queued before new ones are dropped
	BufferSize int `json:"buffer_size" yaml:"buffer_size"`

	// Log writes every sighting to the application log
	Log bool `json:"log" yaml:"log"`

	// RetentionDays prunes stored sightings older than this. 0 keeps everything.
	RetentionDays int `json:"retention_days" yaml:"retention_days"`
}

// Retention returns the sighting retention window, zero when disabled.
func (c SightingsConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

// LoggingConfig configures the application logger.
type LoggingConfig struct {
	// Level is debug, info, warn or error
	Level string `json:"level" yaml:"level"`

	// Format is "json" or "text"
	Format string `json:"format" yaml:"format"`

	// File is a log file path; empty logs to stderr
	File string `json:"file" yaml:"file"`

	MaxSizeMB  int  `json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int  `json:"max_backups" yaml:"max_backups"`
	MaxAgeDays int  `json:"max_age_days" yaml:"max_age_days"`
	Compress   bool `json:"compress" yaml:"compress"`
}

// Load reads configuration from a JSON or YAML file (chosen by extension).
// Values missing from the file keep their defaults. If the file doesn't
// exist, the default configuration is used. Environment overrides are
// applied in both cases, after loading a .env file from the working
// directory when one exists.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := unmarshal(path, data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// A missing .env is not an error
	_ = godotenv.Load()

	if err := cfg.applyEnvironmentOverrides(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to a JSON or YAML file.
func (c *Config) Save(path string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if _, err := coordinates.ParseDistanceUnit(c.Selection.DistanceUnit); err != nil {
		return fmt.Errorf("selection.distance_unit: %w", err)
	}
	if c.Selection.MinAltitudeFt < 0 {
		return fmt.Errorf("selection.min_altitude_ft must be >= 0")
	}
	if c.Selection.DefaultRadius <= 0 {
		return fmt.Errorf("selection.default_radius must be > 0")
	}
	if c.ADSB.BaseURL == "" {
		return fmt.Errorf("adsb.base_url is required")
	}
	switch c.ADSB.PathStyle {
	case "", "adsbfi", "airplaneslive":
	default:
		return fmt.Errorf("adsb.path_style must be adsbfi or airplaneslive, got %q", c.ADSB.PathStyle)
	}
	if c.ADSB.RequestsPerSecond < 0 {
		return fmt.Errorf("adsb.requests_per_second must be >= 0")
	}

	switch c.Cache.Backend {
	case CacheNone, CacheMemory:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache.redis_addr is required when cache.backend is redis")
		}
	default:
		return fmt.Errorf("cache.backend must be memory, redis or none, got %q", c.Cache.Backend)
	}

	if c.Events.Enabled && c.Events.NATSURL == "" {
		return fmt.Errorf("events.nats_url is required when events are enabled")
	}
	if c.Sightings.BufferSize <= 0 {
		return fmt.Errorf("sightings.buffer_size must be > 0")
	}
	if c.Sightings.RetentionDays < 0 {
		return fmt.Errorf("sightings.retention_days must be >= 0")
	}

	return nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:                "8080",
			Host:                "0.0.0.0",
			ReadTimeoutSeconds:  15,
			WriteTimeoutSeconds: 15,
			IdleTimeoutSeconds:  60,
			AllowedOrigins:      []string{"*"},
		},
		ADSB: ADSBConfig{
			BaseURL:              "https://opendata.adsb.fi/api/v2",
			PathStyle:            "adsbfi",
			TimeoutSeconds:       10,
			RequestsPerSecond:    1,
			MaxRadius:            250,
			MaxRetries:           2,
			RetryInitialDelayMs:  500,
			RetryMaxDelaySeconds: 5,
		},
		Selection: SelectionConfig{
			MinAltitudeFt: 100,
			DistanceUnit:  "km",
			DefaultRadius: 5.0,
		},
		Observer: ObserverConfig{
			Name: "Primary Observer",
		},
		Cache: CacheConfig{
			Backend:    CacheMemory,
			TTLSeconds: 5,
			Size:       256,
			RedisAddr:  "localhost:6379",
			KeyPrefix:  "nearest:",
		},
		Database: DatabaseConfig{
			Enabled:      false,
			Driver:       "postgres",
			Host:         "localhost",
			Port:         5432,
			Database:     "nearest",
			Username:     "nearest",
			SSLMode:      "disable",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
		},
		Events: EventsConfig{
			Enabled: false,
			NATSURL: "nats://localhost:4222",
			Subject: "aircraft.nearest",
		},
		Sightings: SightingsConfig{
			BufferSize:    256,
			Log:           true,
			RetentionDays: 30,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
			Compress:   true,
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
// This allows sensitive data like passwords to be kept out of config files.
func (c *Config) applyEnvironmentOverrides() error {
	setString(&c.Server.Port, "PORT")
	setString(&c.Server.Host, "HOST")
	setString(&c.ADSB.BaseURL, "ADSB_BASE_URL")
	setString(&c.ADSB.PathStyle, "ADSB_PATH_STYLE")
	setString(&c.Selection.DistanceUnit, "DISTANCE_UNIT")
	setString(&c.Cache.Backend, "CACHE_BACKEND")
	setString(&c.Cache.RedisAddr, "REDIS_ADDR")
	setString(&c.Cache.RedisPassword, "REDIS_PASSWORD")
	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Events.NATSURL, "NATS_URL")
	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Logging.File, "LOG_FILE")

	if err := setFloat(&c.Selection.MinAltitudeFt, "MIN_ALTITUDE_FT"); err != nil {
		return err
	}
	if err := setFloat(&c.Selection.DefaultRadius, "DEFAULT_RADIUS"); err != nil {
		return err
	}
	if err := setFloat(&c.ADSB.RequestsPerSecond, "ADSB_REQUESTS_PER_SECOND"); err != nil {
		return err
	}
	if err := setBool(&c.Database.Enabled, "DB_ENABLED"); err != nil {
		return err
	}
	if err := setBool(&c.Events.Enabled, "EVENTS_ENABLED"); err != nil {
		return err
	}
	return nil
}

func setString(dst *string, name string) {
	if v := os.Getenv(EnvPrefix + name); v != "" {
		*dst = v
	}
}

func setFloat(dst *float64, name string) error {
	v := os.Getenv(EnvPrefix + name)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", EnvPrefix, name, err)
	}
	*dst = f
	return nil
}

func setBool(dst *bool, name string) error {
	v := os.Getenv(EnvPrefix + name)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", EnvPrefix, name, err)
	}
	*dst = b
	return nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func unmarshal(path string, data []byte, cfg *Config) error {
	if isYAML(path) {
		return yaml.Unmarshal(data, cfg)
	}
	return json.Unmarshal(data, cfg)
}
