package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/glyphlabs/glyph/internal/output"
	glypherr "github.com/glyphlabs/glyph/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
var fetchOutPath string

// fetchCmd retrieves uploaded content by transaction id.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var fetchCmd = &cobra.Command{
	Use:   "fetch <transaction-id>",
	Short: "Fetch uploaded content by transaction id",
	Long: `Fetch previously uploaded content from the ledger.

A transaction that is still pending is reported as not found; the ledger
cannot distinguish "never existed" from "not yet propagated".`,
	Example: `  glyph fetch tx_abc123 --out media.png`,
	Args:    cobra.ExactArgs(1),
	RunE:    runFetch,
}

// statusCmd polls a transaction's confirmation status.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var statusCmd = &cobra.Command{
	Use:   "status <transaction-id>",
	Short: "Show a transaction's confirmation status",
	Long: `Show a transaction's confirmation status.

The call is a single best-effort poll; it never blocks waiting for
confirmation. Terminal statuses are cached locally so repeated queries skip
the gateway.`,
	Example: `  glyph status tx_abc123`,
	Args:    cobra.ExactArgs(1),
	RunE:    runStatus,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(statusCmd)

	fetchCmd.Flags().StringVar(&fetchOutPath, "out", "", "write content to this file instead of stdout")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)

	ctx, cancel := contextWithTimeout(cmd, cc.Config.Ledger.Timeout())
	defer cancel()

	data, err := cc.Ledger.Fetch(ctx, args[0])
	if err != nil {
		return err
	}

	if fetchOutPath != "" {
		if err := os.WriteFile(fetchOutPath, data, 0o600); err != nil {
			return glypherr.Wrap(err, "writing %s", fetchOutPath)
		}
		return output.FormatSuccess(cc.Formatter.Writer(), "Wrote "+fetchOutPath, cc.Formatter.Format())
	}

	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runStatus(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)

	ctx, cancel := contextWithTimeout(cmd, cc.Config.Ledger.Timeout())
	defer cancel()

	status, err := cc.Tracker.Status(ctx, args[0])
	if err != nil {
		return err
	}

	return cc.Formatter.Print(output.StatusView{
		TxID:   args[0],
		Status: string(status),
	})
}
