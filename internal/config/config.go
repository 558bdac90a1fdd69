package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the travel journal.
// Environment variables are automatically parsed from TRAVELMAP_ prefix
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string      `envconfig:"LOG_LEVEL" default:"info"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"11546"`

	// Durable slot: file | sqlite | memory
	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"file"`
	// Empty means ~/.travelmap (see internal/localstate)
	DataDir    string `envconfig:"DATA_DIR" default:""`
	StorageKey string `envconfig:"STORAGE_KEY" default:"travel-memories"`

	// Geocoder
	GeocoderURL            string `envconfig:"GEOCODER_URL" default:"https://nominatim.openstreetmap.org"`
	GeocoderUserAgent      string `envconfig:"GEOCODER_USER_AGENT" default:"travelmap/1.0"`
	GeocoderTimeoutSeconds int    `envconfig:"GEOCODER_TIMEOUT_SECONDS" default:"10"`
	GeocoderMaxAttempts    int    `envconfig:"GEOCODER_MAX_ATTEMPTS" default:"1"`
	GeocoderCacheSize      int64  `envconfig:"GEOCODER_CACHE_SIZE" default:"1024"`

	// Media
	MaxMediaBytes int64 `envconfig:"MAX_MEDIA_BYTES" default:"26214400"`
	ThumbnailSize int   `envconfig:"THUMBNAIL_SIZE" default:"200"`

	// Map view
	CameraZoom      int `envconfig:"CAMERA_ZOOM" default:"10"`
	MarkerAckMillis int `envconfig:"MARKER_ACK_MILLIS" default:"300"`

	// Attach sample images when a memory is created without uploads.
	DemoPlaceholders bool `envconfig:"DEMO_PLACEHOLDERS" default:"false"`

	HealthIntervalSeconds int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
}

// ResolveDefaults validates the configuration and normalizes derived values.
func (c *Config) ResolveDefaults() error {
	switch c.StorageDriver {
	case "", "auto":
		c.StorageDriver = "file"
	case "file", "sqlite", "memory":
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER: %s", c.StorageDriver)
	}
	if c.StorageKey == "" {
		return fmt.Errorf("STORAGE_KEY must not be empty")
	}
	if c.GeocoderURL == "" {
		return fmt.Errorf("GEOCODER_URL must not be empty")
	}
	if c.GeocoderMaxAttempts < 1 {
		c.GeocoderMaxAttempts = 1
	}
	if c.GeocoderTimeoutSeconds <= 0 {
		c.GeocoderTimeoutSeconds = 10
	}
	if c.MaxMediaBytes <= 0 {
		return fmt.Errorf("MAX_MEDIA_BYTES must be > 0")
	}
	if c.ThumbnailSize <= 0 {
		c.ThumbnailSize = 200
	}
	if c.CameraZoom <= 0 {
		c.CameraZoom = 10
	}
	if c.MarkerAckMillis < 0 {
		c.MarkerAckMillis = 0
	}
	if c.HealthIntervalSeconds <= 0 {
		c.HealthIntervalSeconds = 30
	}
	return nil
}

// New creates a new Config by parsing environment variables
// Environment variables should be prefixed with TRAVELMAP_
// Example: TRAVELMAP_HTTP_PORT, TRAVELMAP_STORAGE_DRIVER
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("TRAVELMAP", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Str("storage_driver", cfg.StorageDriver).
		Str("storage_key", cfg.StorageKey).
		Str("geocoder_url", cfg.GeocoderURL).
		Int("geocoder_max_attempts", cfg.GeocoderMaxAttempts).
		Bool("demo_placeholders", cfg.DemoPlaceholders).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing
func NewForTesting() *Config {
	return &Config{
		Environment:            EnvTesting,
		LogLevel:               "debug",
		HTTPPort:               0,
		StorageDriver:          "memory",
		StorageKey:             "travel-memories",
		GeocoderURL:            "http://127.0.0.1:0",
		GeocoderUserAgent:      "travelmap-test",
		GeocoderTimeoutSeconds: 2,
		GeocoderMaxAttempts:    1,
		GeocoderCacheSize:      0,
		MaxMediaBytes:          1 << 20,
		ThumbnailSize:          32,
		CameraZoom:             10,
		MarkerAckMillis:        0,
		HealthIntervalSeconds:  1,
	}
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// GeocoderTimeout returns the per-request geocoder timeout.
func (c *Config) GeocoderTimeout() time.Duration {
	return time.Duration(c.GeocoderTimeoutSeconds) * time.Second
}

// MarkerAck returns the delay between a marker click and its selection intent.
func (c *Config) MarkerAck() time.Duration {
	return time.Duration(c.MarkerAckMillis) * time.Millisecond
}

// HealthInterval returns the health probe interval.
func (c *Config) HealthInterval() time.Duration {
	return time.Duration(c.HealthIntervalSeconds) * time.Second
}
