package cli

import (
	"github.com/spf13/cobra"

	"github.com/glyphlabs/glyph/internal/output"
	"github.com/glyphlabs/glyph/internal/provider/keyfile"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
var keyfileWords int

// keyfileCmd is the parent command for keyfile operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var keyfileCmd = &cobra.Command{
	Use:   "keyfile",
	Short: "Manage the local keyfile",
	Long: `Manage the age-encrypted local keyfile used by the keyfile signing provider.

The keyfile holds a BIP39 mnemonic encrypted with your passphrase. The signing
key is derived on unlock and never written to disk.`,
}

// keyfileCreateCmd generates a new keyfile.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var keyfileCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Generate a new keyfile",
	Long: `Generate a new mnemonic and write the encrypted keyfile.

The mnemonic is printed exactly once. Write it down and store it offline;
anyone holding it controls the wallet, and without it a lost keyfile cannot
be recovered.`,
	Example: `  glyph keyfile create --words 24`,
	RunE:    runKeyfileCreate,
}

// keyfileImportCmd imports an existing mnemonic.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var keyfileImportCmd = &cobra.Command{
	Use:     "import",
	Short:   "Import an existing mnemonic into a new keyfile",
	Example: `  glyph keyfile import`,
	RunE:    runKeyfileImport,
}

// keyfileAddressCmd shows the keyfile's public address.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var keyfileAddressCmd = &cobra.Command{
	Use:     "address",
	Short:   "Show the keyfile's public address",
	Long:    `Show the public address stored in the keyfile. No passphrase is required.`,
	Example: `  glyph keyfile address`,
	RunE:    runKeyfileAddress,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(keyfileCmd)
	keyfileCmd.AddCommand(keyfileCreateCmd)
	keyfileCmd.AddCommand(keyfileImportCmd)
	keyfileCmd.AddCommand(keyfileAddressCmd)

	keyfileCreateCmd.Flags().IntVar(&keyfileWords, "words", keyfile.Words12, "mnemonic word count: 12 or 24")
}

func runKeyfileCreate(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)

	passphrase, err := promptNewPassphrase()
	if err != nil {
		return err
	}

	path := keystorePath(cc.Config)
	mnemonic, address, err := keyfile.Create(path, passphrase, keyfileWords)
	if err != nil {
		return err
	}

	if cc.Formatter.IsJSON() {
		return cc.Formatter.Print(map[string]string{
			"path":     path,
			"address":  address,
			"mnemonic": mnemonic,
		})
	}

	outln(cmd.OutOrStdout(), "Keyfile written to "+path)
	outln(cmd.OutOrStdout(), "Address: "+address)
	outln(cmd.OutOrStdout())
	outln(cmd.OutOrStdout(), "Recovery mnemonic (shown once):")
	outln(cmd.OutOrStdout())
	outln(cmd.OutOrStdout(), "  "+mnemonic)
	outln(cmd.OutOrStdout())
	output.Warn("Anyone holding the mnemonic controls the wallet. Store it offline.")
	return nil
}

func runKeyfileImport(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)

	mnemonic, err := promptPassphrase("Mnemonic: ")
	if err != nil {
		return err
	}

	passphrase, err := promptNewPassphrase()
	if err != nil {
		return err
	}

	path := keystorePath(cc.Config)
	address, err := keyfile.Import(path, passphrase, mnemonic)
	if err != nil {
		return err
	}

	return output.FormatSuccess(cc.Formatter.Writer(), "Imported keyfile for "+address, cc.Formatter.Format())
}

func runKeyfileAddress(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)

	address, err := keyfile.Address(keystorePath(cc.Config))
	if err != nil {
		return err
	}

	return cc.Formatter.Print(address)
}
