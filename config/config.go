// Package config provides process configuration read from the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds all service configuration.
type Config struct {
	Port        string
	OutputDir   string
	FFmpegPath  string
	VideoConfig string // optional JSON/YAML style file
	GinMode     string
	LogLevel    string
	LogFormat   string
	Replicate   ReplicateConfig
	Retention   RetentionConfig
}

// ReplicateConfig configures the image generation client.
type ReplicateConfig struct {
	Token        string
	BaseURL      string
	Model        string
	PollInterval time.Duration
	Timeout      time.Duration
}

// RetentionConfig controls deletion of old output videos. A zero MaxAge
// keeps outputs forever.
type RetentionConfig struct {
	MaxAge   time.Duration
	Schedule string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var errs []string
	duration := func(key string, fallback time.Duration) time.Duration {
		d, err := getEnvDuration(key, fallback)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return d
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8001"),
		OutputDir:   getEnv("OUTPUT_DIR", "output"),
		FFmpegPath:  getEnv("FFMPEG_PATH", "ffmpeg"),
		VideoConfig: getEnv("VIDEO_CONFIG", ""),
		GinMode:     getEnv("GIN_MODE", "release"),
		LogLevel:    strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:   strings.ToLower(getEnv("LOG_FORMAT", "text")),
		Replicate: ReplicateConfig{
			Token:        strings.TrimSpace(getEnv("REPLICATE_API_TOKEN", "")),
			BaseURL:      getEnv("REPLICATE_BASE_URL", "https://api.replicate.com"),
			Model:        getEnv("REPLICATE_MODEL", "black-forest-labs/flux-schnell"),
			PollInterval: duration("REPLICATE_POLL_INTERVAL", time.Second),
			Timeout:      duration("HTTP_CLIENT_TIMEOUT", 120*time.Second),
		},
		Retention: RetentionConfig{
			MaxAge:   duration("OUTPUT_RETENTION", 0),
			Schedule: getEnv("OUTPUT_SWEEP_SCHEDULE", "@every 1h"),
		},
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("OUTPUT_DIR cannot be empty")
	}
	if c.Retention.MaxAge < 0 {
		return fmt.Errorf("OUTPUT_RETENTION must be >= 0")
	}
	if c.Retention.MaxAge > 0 && c.Retention.Schedule == "" {
		return fmt.Errorf("OUTPUT_SWEEP_SCHEDULE cannot be empty when OUTPUT_RETENTION is set")
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("GIN_MODE must be debug, release or test, got %q", c.GinMode)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// ReplicateConfigured reports whether an API token is present.
func (c *Config) ReplicateConfigured() bool {
	return c.Replicate.Token != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// getEnvDuration accepts Go durations ("90s", "24h") and a bare "0".
func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback, fmt.Errorf("%s: %v", key, err)
	}
	return d, nil
}
