package cli

import (
	"github.com/spf13/cobra"

	"github.com/glyphlabs/glyph/internal/output"
)

// providersCmd is the parent command for provider operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Manage signing providers",
	Long: `List and inspect the signing providers available for wallet sessions.

A signing provider holds the private key material and approves or rejects
connection and signing requests. Glyph ships with a local keyfile provider;
additional providers register at startup.`,
}

// providersListCmd lists registered providers.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var providersListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List registered signing providers",
	Example: `  glyph providers list`,
	RunE:    runProvidersList,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(providersCmd)
	providersCmd.AddCommand(providersListCmd)
}

func runProvidersList(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)

	view := output.ProviderListView{Selected: cc.Config.Providers.Default}
	for _, d := range cc.Registry.List() {
		view.Providers = append(view.Providers, output.ProviderView{
			Name:        d.Name,
			Description: d.Description,
		})
	}

	return cc.Formatter.Print(view)
}
