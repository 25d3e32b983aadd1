package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	t.Parallel()

	cfg := Defaults()
	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, DefaultGatewayURL, cfg.Ledger.GatewayURL)
	assert.Equal(t, DefaultRetryMaxAttempts, cfg.Ledger.Retry.MaxAttempts)
	assert.Equal(t, "keyfile", cfg.Providers.Default)
	assert.Equal(t, "auto", cfg.Output.DefaultFormat)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestLoadSaveRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := Defaults()
	cfg.Ledger.GatewayURL = "https://gateway.example"
	cfg.Ledger.TimeoutSeconds = 10
	cfg.Providers.Default = "phantom-like"

	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://gateway.example", loaded.Ledger.GatewayURL)
	assert.Equal(t, 10, loaded.Ledger.TimeoutSeconds)
	assert.Equal(t, "phantom-like", loaded.Providers.Default)
	// Unset fields keep defaults
	assert.Equal(t, DefaultRetryMaxAttempts, loaded.Ledger.Retry.MaxAttempts)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	partial := "ledger:\n  gateway_url: https://local.gateway\n"
	require.NoError(t, os.WriteFile(path, []byte(partial), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://local.gateway", cfg.Ledger.GatewayURL)
	assert.Equal(t, "keyfile", cfg.Providers.Default)
}

func TestLedgerConfig_Durations(t *testing.T) {
	t.Parallel()

	lc := LedgerConfig{TimeoutSeconds: 5, Retry: RetryConfig{BaseDelayMS: 250, MaxDelayMS: 2000}}
	assert.Equal(t, 5*time.Second, lc.Timeout())
	assert.Equal(t, 250*time.Millisecond, lc.Retry.BaseDelay())
	assert.Equal(t, 2*time.Second, lc.Retry.MaxDelay())

	// Zero values fall back to defaults rather than disabling the bound.
	var zero LedgerConfig
	assert.Equal(t, DefaultTimeout, zero.Timeout())
	assert.Equal(t, DefaultRetryBaseDelay, zero.Retry.BaseDelay())
	assert.Equal(t, DefaultRetryMaxDelay, zero.Retry.MaxDelay())
}

func TestApplyEnvironment(t *testing.T) {
	t.Setenv(EnvGatewayURL, " https://env.gateway ")
	t.Setenv(EnvProvider, "Keyfile")
	t.Setenv(EnvVerbose, "yes")
	t.Setenv(EnvLogLevel, "DEBUG")
	t.Setenv(EnvTimeout, "12")

	cfg := Defaults()
	ApplyEnvironment(cfg)

	assert.Equal(t, "https://env.gateway", cfg.Ledger.GatewayURL)
	assert.Equal(t, "keyfile", cfg.Providers.Default)
	assert.True(t, cfg.Output.Verbose)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 12, cfg.Ledger.TimeoutSeconds)
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"off", LogLevelOff},
		{"none", LogLevelOff},
		{"error", LogLevelError},
		{"DEBUG", LogLevelDebug},
		{" debug ", LogLevelDebug},
		{"garbage", LogLevelError},
		{"", LogLevelError},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, ParseLogLevel(tt.input))
		})
	}
}

func TestLogger_WritesAtLevel(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "glyph.log")

	logger, err := NewLogger(LogLevelError, path)
	require.NoError(t, err)

	logger.Debug("hidden %s", "detail")
	logger.Error("upload failed: %s", "status 400")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path) // #nosec G304 -- test temp path
	require.NoError(t, err)
	assert.Contains(t, string(data), "[ERROR] upload failed: status 400")
	assert.NotContains(t, string(data), "hidden detail")
}

func TestNullLogger_NoPanic(t *testing.T) {
	t.Parallel()

	logger := NullLogger()
	logger.Debug("nothing")
	logger.Error("nothing")
	assert.NoError(t, logger.Close())
}
