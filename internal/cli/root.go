// Package cli implements the glyph command-line interface.
//
// CLI state lives in package-level variables, as Cobra expects: commands
// register themselves in init, configuration and the dependency graph are
// built in PersistentPreRunE, and PersistentPostRun tears them down.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/glyphlabs/glyph/internal/config"
	"github.com/glyphlabs/glyph/internal/output"
	glypherr "github.com/glyphlabs/glyph/pkg/errors"
)

var (
	// Global flags
	homeDir      string
	outputFormat string
	verbose      bool

	// Global state initialized in PersistentPreRunE
	cfg       *config.Config
	logger    *config.Logger
	formatter *output.Formatter
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "glyph",
	Short: "Publish content to a permanent ledger",
	Long: `Glyph publishes media to a content-addressed, append-only ledger.

It manages wallet sessions against pluggable signing providers, uploads
signed payloads to a ledger gateway, and drives the media/thumbnail/metadata
publication flow.

Example:
  glyph keyfile create
  glyph session connect keyfile
  glyph publish --media art.png --thumbnail thumb.png --title "First Drop"`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := initGlobals(); err != nil {
			return err
		}
		SetCmdContext(cmd, NewCommandContext(cfg, logger, formatter))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, _ []string) {
		if cc := GetCmdContext(cmd); cc != nil {
			cc.Shutdown()
		}
		cleanup()
	},
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		if formatter != nil {
			_ = output.FormatError(os.Stderr, err, formatter.Format())
		} else {
			_ = output.FormatError(os.Stderr, err, output.FormatText)
		}
		return err
	}
	return nil
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	return glypherr.ExitCode(err)
}

// initGlobals loads configuration and builds the logger and formatter.
// Precedence: flags over environment over config file over defaults.
func initGlobals() error {
	home := homeDir
	if home == "" {
		home = os.Getenv(config.EnvHome)
	}
	if home == "" {
		home = config.DefaultHome()
	}

	var err error
	cfg, err = config.Load(config.Path(home))
	if err != nil {
		// No config file yet; run on defaults.
		cfg = config.Defaults()
		cfg.Home = home
	}

	config.ApplyEnvironment(cfg)

	if homeDir != "" {
		cfg.Home = homeDir
	}
	if verbose {
		cfg.Output.Verbose = true
		cfg.Logging.Level = "debug"
	}
	if outputFormat != "" && outputFormat != "auto" {
		cfg.Output.DefaultFormat = outputFormat
	}

	logger, err = config.NewLogger(config.ParseLogLevel(cfg.Logging.Level), cfg.Logging.File)
	if err != nil {
		// An unwritable log file should not take the CLI down.
		logger = config.NullLogger()
	}

	detected := output.DetectFormat(os.Stdout, output.ParseFormat(cfg.Output.DefaultFormat))
	formatter = output.NewFormatter(detected, os.Stdout)

	return nil
}

// cleanup releases resources.
func cleanup() {
	if logger != nil {
		_ = logger.Close()
	}
}

// Config returns the global configuration.
func Config() *config.Config {
	return cfg
}

// Logger returns the global logger.
func Logger() *config.Logger {
	return logger
}

// Formatter returns the global output formatter.
func Formatter() *output.Formatter {
	return formatter
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "glyph data directory (default: ~/.glyph)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "auto", "output format: text, json, auto")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}
