package config

import "time"

// DefaultGatewayURL is the default ledger gateway endpoint.
const DefaultGatewayURL = "https://arweave.net"

// Default ledger call settings.
const (
	// DefaultTimeout bounds each gateway call; a hung call surfaces as a
	// transport error instead of blocking the publication flow.
	DefaultTimeout = 30 * time.Second

	// DefaultRetryBaseDelay is the initial delay between submission retries.
	DefaultRetryBaseDelay = 500 * time.Millisecond

	// DefaultRetryMaxDelay caps the exponential backoff.
	DefaultRetryMaxDelay = 4 * time.Second

	// DefaultRetryMaxAttempts is the total attempt budget (1 initial + 3 retries).
	DefaultRetryMaxAttempts = 4
)

// Default gateway rate limiting: 5 requests/second with a burst of 10.
const (
	DefaultRatePerSecond = 5.0
	DefaultRateBurst     = 10
)

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    "~/.glyph",
		Ledger: LedgerConfig{
			GatewayURL:     DefaultGatewayURL,
			TimeoutSeconds: int(DefaultTimeout / time.Second),
			Retry: RetryConfig{
				MaxAttempts: DefaultRetryMaxAttempts,
				BaseDelayMS: int(DefaultRetryBaseDelay / time.Millisecond),
				MaxDelayMS:  int(DefaultRetryMaxDelay / time.Millisecond),
			},
			Rate: RateConfig{
				PerSecond: DefaultRatePerSecond,
				Burst:     DefaultRateBurst,
			},
		},
		Providers: ProvidersConfig{
			Default: "keyfile",
		},
		Keystore: KeystoreConfig{
			Path:       "~/.glyph/keyfile.age",
			MemoryLock: true,
		},
		Output: OutputConfig{
			DefaultFormat: "auto",
			Verbose:       false,
		},
		Logging: LoggingConfig{
			Level: "error",
			File:  "~/.glyph/glyph.log",
		},
	}
}
