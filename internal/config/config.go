// Package config provides configuration management for Glyph.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Version   int             `yaml:"version"`
	Home      string          `yaml:"home"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Providers ProvidersConfig `yaml:"providers"`
	Keystore  KeystoreConfig  `yaml:"keystore"`
	Output    OutputConfig    `yaml:"output"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LedgerConfig defines ledger gateway settings.
type LedgerConfig struct {
	GatewayURL     string      `yaml:"gateway_url"`
	TimeoutSeconds int         `yaml:"timeout_seconds"`
	Retry          RetryConfig `yaml:"retry"`
	Rate           RateConfig  `yaml:"rate"`
}

// RetryConfig defines the submission retry policy.
// Only transport-level failures are retried; rejections never are.
type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
	BaseDelayMS int `yaml:"base_delay_ms"`
	MaxDelayMS  int `yaml:"max_delay_ms"`
}

// RateConfig defines gateway rate limiting.
type RateConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// ProvidersConfig defines signing provider settings.
type ProvidersConfig struct {
	// Default is the provider selected when none is named on the command line.
	Default string `yaml:"default"`
}

// KeystoreConfig defines local keyfile provider settings.
type KeystoreConfig struct {
	Path       string `yaml:"path"`
	MemoryLock bool   `yaml:"memory_lock"`
}

// OutputConfig defines output formatting settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	Verbose       bool   `yaml:"verbose"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Timeout returns the per-call ledger timeout as a duration.
func (c *LedgerConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return DefaultTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// BaseDelay returns the retry base delay as a duration.
func (r *RetryConfig) BaseDelay() time.Duration {
	if r.BaseDelayMS <= 0 {
		return DefaultRetryBaseDelay
	}
	return time.Duration(r.BaseDelayMS) * time.Millisecond
}

// MaxDelay returns the retry delay cap as a duration.
func (r *RetryConfig) MaxDelay() time.Duration {
	if r.MaxDelayMS <= 0 {
		return DefaultRetryMaxDelay
	}
	return time.Duration(r.MaxDelayMS) * time.Millisecond
}

// Load reads configuration from the specified file.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to the specified file.
func Save(cfg *Config, path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Path returns the default config file path.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// DefaultHome returns the default glyph home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".glyph"
	}
	return filepath.Join(home, ".glyph")
}
