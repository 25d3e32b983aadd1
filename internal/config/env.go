package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment variable names.
const (
	EnvHome         = "GLYPH_HOME"
	EnvGatewayURL   = "GLYPH_GATEWAY_URL"
	EnvProvider     = "GLYPH_PROVIDER"
	EnvKeystorePath = "GLYPH_KEYSTORE_PATH"
	EnvOutputFormat = "GLYPH_OUTPUT_FORMAT"
	EnvVerbose      = "GLYPH_VERBOSE"
	EnvLogLevel     = "GLYPH_LOG_LEVEL"
	EnvTimeout      = "GLYPH_TIMEOUT_SECONDS"
)

// ApplyEnvironment applies environment variable overrides to the configuration.
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvHome); v != "" {
		cfg.Home = v
	}

	if v := os.Getenv(EnvGatewayURL); v != "" {
		cfg.Ledger.GatewayURL = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvProvider); v != "" {
		cfg.Providers.Default = strings.ToLower(strings.TrimSpace(v))
	}

	if v := os.Getenv(EnvKeystorePath); v != "" {
		cfg.Keystore.Path = v
	}

	if v := os.Getenv(EnvOutputFormat); v != "" {
		cfg.Output.DefaultFormat = strings.ToLower(v)
	}

	if v := os.Getenv(EnvVerbose); v != "" {
		cfg.Output.Verbose = parseBool(v)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}

	if v := os.Getenv(EnvTimeout); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.Ledger.TimeoutSeconds = secs
		}
	}
}

// parseBool parses a boolean string value.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "1" || s == "true" || s == "yes" || s == "on" {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}
