package cli

import (
	"runtime"

	"github.com/spf13/cobra"
)

// buildInfo holds build metadata injected via -ldflags at release time.
//
//nolint:gochecknoglobals // populated by the linker
var buildInfo = struct {
	Version string
	Commit  string
	Date    string
}{
	Version: "dev",
}

// versionCmd prints build information.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Show version information",
	Example: `  glyph version`,
	RunE:    runVersion,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)

	info := map[string]string{
		"version":  buildInfo.Version,
		"platform": runtime.GOOS + "/" + runtime.GOARCH,
	}
	if buildInfo.Commit != "" {
		info["commit"] = buildInfo.Commit
	}
	if buildInfo.Date != "" {
		info["date"] = buildInfo.Date
	}

	if cc.Formatter.IsJSON() {
		return cc.Formatter.Print(info)
	}

	outln(cmd.OutOrStdout(), "glyph "+buildInfo.Version+" ("+info["platform"]+")")
	if buildInfo.Commit != "" {
		outln(cmd.OutOrStdout(), "commit: "+buildInfo.Commit)
	}
	return nil
}
