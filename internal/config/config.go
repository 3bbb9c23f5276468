package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	DBPath             string `yaml:"db_path"`
	CatalogPath        string `yaml:"catalog_path,omitempty"` // empty = embedded catalog
	TelemetryEnabled   bool   `yaml:"telemetry_enabled"`
	TelemetryLogPath   string `yaml:"telemetry_log_path"`
	LinkErrorDismissMs int    `yaml:"link_error_dismiss_ms"`
	LogLevel           string `yaml:"log_level"`
}

// Default returns the default configuration.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		DBPath:             filepath.Join(homeDir, ".cardactions", "cardactions.db"),
		CatalogPath:        "",
		TelemetryEnabled:   true,
		TelemetryLogPath:   filepath.Join(homeDir, ".cardactions", "events.jsonl"),
		LinkErrorDismissMs: 4000,
		LogLevel:           "info",
	}
}

// DismissDelay returns the link-error auto-dismiss delay as a duration.
// Non-positive configured values fall back to the default.
func (c *Config) DismissDelay() time.Duration {
	if c.LinkErrorDismissMs <= 0 {
		return time.Duration(Default().LinkErrorDismissMs) * time.Millisecond
	}
	return time.Duration(c.LinkErrorDismissMs) * time.Millisecond
}

// Load reads configuration from file, creating it with defaults if it
// doesn't exist.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		if err := cfg.Save(path); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default() // start with defaults, file overrides
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigPath returns the default config file path.
func GetConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".cardactions", "config.yaml")
}
