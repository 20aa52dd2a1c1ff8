package config

import (
	"fmt"
	"os"
	"strconv"

	"mark-price-dashboard/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new Config instance from a YAML file, with environment
// overrides applied on top.
func NewConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.applyDefaults()
	config.applyEnvOverrides()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

func (c *Config) applyDefaults() {
	if c.Feed.URL == "" {
		c.Feed.URL = "wss://dstream.binance.com/ws/btcusd_perp"
	}
	if c.Feed.Symbol == "" {
		c.Feed.Symbol = "btcusd_perp"
	}
	if c.Feed.TriggerDigit == "" {
		c.Feed.TriggerDigit = "5"
	}
	if c.Feed.ReconnectBaseDelaySeconds <= 0 {
		c.Feed.ReconnectBaseDelaySeconds = 1
	}
	if c.Feed.ReconnectMaxDelaySeconds <= 0 {
		c.Feed.ReconnectMaxDelaySeconds = 60
	}
	if c.Snapshot.Mode == "" {
		c.Snapshot.Mode = "archive"
	}
	if c.Snapshot.ArchiveName == "" {
		c.Snapshot.ArchiveName = "data.zip"
	}
	if c.Snapshot.FallbackCron == "" {
		c.Snapshot.FallbackCron = "*/15 * * * *"
	}
	if c.Network.RequestTimeout <= 0 {
		c.Network.RequestTimeout = 30
	}
	if c.Network.MaxRetries <= 0 {
		c.Network.MaxRetries = 3
	}
	if c.Network.RetryBaseDelay <= 0 {
		c.Network.RetryBaseDelay = 1
	}
}

// -----------------------------------------------------------------------------

// applyEnvOverrides lets deployment environments repoint the external
// endpoints without editing the YAML file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("FEED_URL"); v != "" {
		c.Feed.URL = v
	}
	if v := os.Getenv("FEED_SYMBOL"); v != "" {
		c.Feed.Symbol = v
	}
	if v := os.Getenv("SNAPSHOT_BASE_URL"); v != "" {
		c.Snapshot.BaseURL = v
	}
	if v := os.Getenv("SNAPSHOT_MODE"); v != "" {
		c.Snapshot.Mode = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}

	if c.Timezone > 12 || c.Timezone < -12 {
		return fmt.Errorf("timezone %d out of range [-12,12]", c.Timezone)
	}

	if c.Feed.URL == "" {
		return fmt.Errorf("feed url cannot be empty")
	}
	if len(c.Feed.TriggerDigit) != 1 || c.Feed.TriggerDigit[0] < '0' || c.Feed.TriggerDigit[0] > '9' {
		return fmt.Errorf("feed trigger digit must be a single digit, got %q", c.Feed.TriggerDigit)
	}

	if c.Snapshot.Mode != "archive" && c.Snapshot.Mode != "files" {
		return fmt.Errorf("unsupported snapshot mode: %s", c.Snapshot.Mode)
	}
	if c.Snapshot.BaseURL == "" {
		return fmt.Errorf("snapshot base url cannot be empty")
	}

	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}
	if c.Network.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}

	return nil
}
