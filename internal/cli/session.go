package cli

import (
	"github.com/spf13/cobra"

	"github.com/glyphlabs/glyph/internal/output"
	"github.com/glyphlabs/glyph/internal/session"
	glypherr "github.com/glyphlabs/glyph/pkg/errors"
)

// sessionCmd is the parent command for wallet session operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage the wallet session",
	Long: `Manage the wallet session against a signing provider.

Connecting establishes the session and reveals the wallet's public address;
disconnecting clears it. Publishing requires a connected session and never
connects on its own.`,
}

// sessionConnectCmd connects to a signing provider.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var sessionConnectCmd = &cobra.Command{
	Use:   "connect [provider]",
	Short: "Select a provider and connect",
	Long: `Select a signing provider and establish a wallet session.

Without an argument, the last connected provider is used, falling back to the
configured default.`,
	Example: `  glyph session connect keyfile`,
	Args:    cobra.MaximumNArgs(1),
	RunE:    runSessionConnect,
}

// sessionDisconnectCmd disconnects the current session.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var sessionDisconnectCmd = &cobra.Command{
	Use:     "disconnect",
	Short:   "Disconnect the wallet session",
	Example: `  glyph session disconnect`,
	RunE:    runSessionDisconnect,
}

// sessionStatusCmd shows the current session state.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var sessionStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show the wallet session state",
	Example: `  glyph session status`,
	RunE:    runSessionStatus,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionConnectCmd)
	sessionCmd.AddCommand(sessionDisconnectCmd)
	sessionCmd.AddCommand(sessionStatusCmd)
}

// resolveProviderName picks the provider to connect: explicit argument, then
// the remembered last provider, then the configured default.
func resolveProviderName(cc *CommandContext, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if last := session.LoadLastProvider(cc.Config.Home); last != "" && cc.Registry.Has(last) {
		return last, nil
	}
	if cc.Config.Providers.Default != "" {
		return cc.Config.Providers.Default, nil
	}
	return "", glypherr.WithSuggestion(
		glypherr.ErrNoProviderSelected,
		"name a provider: glyph session connect <provider>",
	)
}

func runSessionConnect(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)

	name, err := resolveProviderName(cc, args)
	if err != nil {
		return err
	}

	if err := cc.Session.Select(name); err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(cmd, cc.Config.Ledger.Timeout())
	defer cancel()

	identity, err := cc.Session.Connect(ctx)
	if err != nil {
		return err
	}

	if err := session.SaveLastProvider(cc.Config.Home, name); err != nil {
		cc.Logger.Error("session: failed to remember provider: %v", err)
	}

	return cc.Formatter.Print(output.SessionView{
		State:    cc.Session.CurrentState().String(),
		Provider: identity.ProviderName,
		Address:  identity.PublicAddress,
	})
}

func runSessionDisconnect(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)

	ctx, cancel := contextWithTimeout(cmd, cc.Config.Ledger.Timeout())
	defer cancel()

	if err := cc.Session.Disconnect(ctx); err != nil {
		return err
	}

	return output.FormatSuccess(cc.Formatter.Writer(), "Disconnected.", cc.Formatter.Format())
}

func runSessionStatus(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)

	view := output.SessionView{State: cc.Session.CurrentState().String()}
	if identity := cc.Session.CurrentIdentity(); identity != nil {
		view.Provider = identity.ProviderName
		view.Address = identity.PublicAddress
	}

	return cc.Formatter.Print(view)
}
