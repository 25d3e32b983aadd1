package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/glyphlabs/glyph/internal/cache"
	"github.com/glyphlabs/glyph/internal/config"
	"github.com/glyphlabs/glyph/internal/ledger"
	"github.com/glyphlabs/glyph/internal/output"
	"github.com/glyphlabs/glyph/internal/provider"
	"github.com/glyphlabs/glyph/internal/provider/keyfile"
	"github.com/glyphlabs/glyph/internal/publish"
	"github.com/glyphlabs/glyph/internal/session"
)

// CommandContext holds dependencies for CLI commands. Everything is
// constructed once per invocation and injected so tests can substitute fakes.
type CommandContext struct {
	Config    *config.Config
	Logger    *config.Logger
	Formatter *output.Formatter
	Registry  *provider.Registry
	Session   *session.Manager
	Ledger    *ledger.Client
	Publisher *publish.Publisher
	Tracker   *cache.Tracker
}

// NewCommandContext creates a context with the full dependency graph wired
// from configuration.
func NewCommandContext(
	cfg *config.Config,
	logger *config.Logger,
	formatter *output.Formatter,
) *CommandContext {
	registry := provider.NewRegistry()
	registry.Register(keyfile.New(
		keystorePath(cfg),
		func() (string, error) { return promptPassphrase("Keyfile passphrase: ") },
		&keyfile.Options{Logger: logger},
	))

	client := ledger.NewClient(&ledger.ClientOptions{
		GatewayURL: cfg.Ledger.GatewayURL,
		Timeout:    cfg.Ledger.Timeout(),
		Retry: ledger.RetryConfig{
			MaxAttempts: cfg.Ledger.Retry.MaxAttempts,
			BaseDelay:   cfg.Ledger.Retry.BaseDelay(),
			MaxDelay:    cfg.Ledger.Retry.MaxDelay(),
		},
		RatePerSecond: cfg.Ledger.Rate.PerSecond,
		Burst:         cfg.Ledger.Rate.Burst,
		Logger:        logger,
	})

	tracker, err := cache.NewTracker(client, cache.NewFileStorage(filepath.Join(cfg.Home, "status_cache.json")), 0)
	if err != nil {
		// Fall back to a memory-only tracker; status queries still work.
		tracker, _ = cache.NewTracker(client, nil, 0)
	}

	return &CommandContext{
		Config:    cfg,
		Logger:    logger,
		Formatter: formatter,
		Registry:  registry,
		Session:   session.NewManager(registry, logger),
		Ledger:    client,
		Publisher: publish.NewPublisher(client, &publish.PublisherOptions{Logger: logger}),
		Tracker:   tracker,
	}
}

// Shutdown releases session resources at the end of an invocation.
func (c *CommandContext) Shutdown() {
	if c.Session != nil {
		c.Session.Close()
	}
}

// keystorePath resolves the keyfile location, expanding a leading ~.
func keystorePath(cfg *config.Config) string {
	path := cfg.Keystore.Path
	if path == "" {
		return filepath.Join(cfg.Home, "keyfile.age")
	}
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// cmdContextKey is the context key for the command context.
type cmdContextKeyType struct{}

var cmdContextKey = cmdContextKeyType{} //nolint:gochecknoglobals // context key

// SetCmdContext attaches the command context to the command.
func SetCmdContext(cmd *cobra.Command, cc *CommandContext) {
	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	cmd.SetContext(context.WithValue(base, cmdContextKey, cc))
}

// GetCmdContext retrieves the command context, or nil if none was set.
func GetCmdContext(cmd *cobra.Command) *CommandContext {
	ctx := cmd.Context()
	if ctx == nil {
		return nil
	}
	cc, _ := ctx.Value(cmdContextKey).(*CommandContext)
	return cc
}
