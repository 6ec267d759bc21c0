package config

import (
	"fmt"
	"time"

	"github.com/GriffinCanCode/docuseal-embed/internal/docuseal"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	DocuSeal  DocuSealConfig
	Frame     FrameConfig
	Retry     RetryConfig
	Probe     ProbeConfig
	CORS      CORSConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
	Gzip bool   `envconfig:"SERVER_GZIP" default:"true"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// DocuSealConfig describes the DocuSeal deployment forms are embedded from.
type DocuSealConfig struct {
	Host         string   `envconfig:"DOCUSEAL_HOST" default:"https://docuseal.com"`
	AllowedHosts []string `envconfig:"DOCUSEAL_ALLOWED_HOSTS" default:"docuseal.co,docuseal.com"`
	// TargetOrigin restricts outbound messages. Empty means the origin of Host.
	TargetOrigin string `envconfig:"DOCUSEAL_TARGET_ORIGIN"`
	// Presets is an optional YAML or TOML file of named form presets.
	Presets string `envconfig:"DOCUSEAL_PRESETS"`
}

// FrameConfig holds iframe defaults.
type FrameConfig struct {
	Title           string  `envconfig:"FRAME_TITLE" default:"DocuSeal Form"`
	MinHeight       float64 `envconfig:"FRAME_MIN_HEIGHT" default:"400"`
	MaxHeight       float64 `envconfig:"FRAME_MAX_HEIGHT" default:"1200"`
	AllowFullscreen bool    `envconfig:"FRAME_ALLOW_FULLSCREEN" default:"false"`
}

// RetryConfig holds retry defaults for outbound calls.
type RetryConfig struct {
	MaxRetries int           `envconfig:"RETRY_MAX" default:"3"`
	Delay      time.Duration `envconfig:"RETRY_DELAY" default:"1s"`
}

// ProbeConfig holds form reachability probe configuration.
type ProbeConfig struct {
	Enabled           bool          `envconfig:"PROBE_ENABLED" default:"true"`
	Timeout           time.Duration `envconfig:"PROBE_TIMEOUT" default:"10s"`
	RequestsPerSecond float64       `envconfig:"PROBE_RPS" default:"5"`
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	AllowOrigins []string `envconfig:"CORS_ALLOW_ORIGINS" default:"*"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
			Gzip: true,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		DocuSeal: DocuSealConfig{
			Host:         "https://docuseal.com",
			AllowedHosts: []string{"docuseal.co", "docuseal.com"},
		},
		Frame: FrameConfig{
			Title:     docuseal.DefaultFrameTitle,
			MinHeight: docuseal.DefaultMinHeight,
			MaxHeight: docuseal.DefaultMaxHeight,
		},
		Retry: RetryConfig{
			MaxRetries: 3,
			Delay:      time.Second,
		},
		Probe: ProbeConfig{
			Enabled:           true,
			Timeout:           10 * time.Second,
			RequestsPerSecond: 5,
		},
		CORS: CORSConfig{
			AllowOrigins: []string{"*"},
		},
	}
}

// Validate checks values envconfig cannot check on its own.
func (c *Config) Validate() error {
	if _, err := docuseal.OriginOf(c.DocuSeal.Host); err != nil {
		return fmt.Errorf("DOCUSEAL_HOST: %w", err)
	}
	if _, err := c.DocuSeal.Origin(); err != nil {
		return fmt.Errorf("DOCUSEAL_TARGET_ORIGIN: %w", err)
	}
	if c.Frame.MinHeight > c.Frame.MaxHeight {
		return fmt.Errorf("FRAME_MIN_HEIGHT %v exceeds FRAME_MAX_HEIGHT %v", c.Frame.MinHeight, c.Frame.MaxHeight)
	}
	if err := c.Retry.Policy().Validate(); err != nil {
		return fmt.Errorf("retry: %w", err)
	}
	return nil
}

// Origin returns the target origin for outbound messages.
func (d DocuSealConfig) Origin() (string, error) {
	if d.TargetOrigin == "*" {
		return "*", nil
	}
	if d.TargetOrigin != "" {
		return docuseal.OriginOf(d.TargetOrigin)
	}
	return docuseal.OriginOf(d.Host)
}

// Bounds returns the configured height bounds
func (f FrameConfig) Bounds() docuseal.HeightBounds {
	return docuseal.HeightBounds{Min: f.MinHeight, Max: f.MaxHeight}
}

// Policy converts the retry settings into a docuseal.RetryConfig
func (r RetryConfig) Policy() docuseal.RetryConfig {
	return docuseal.RetryConfig{MaxRetries: r.MaxRetries, Delay: r.Delay}
}
