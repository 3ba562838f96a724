package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var debugLevel int

var rootCmd = &cobra.Command{
	Use:   "verita",
	Short: "Run a formal-verification tool against a set of pinned external projects",
	Long: `Verita drives a reference build of the Verus verifier over a configured list
of external projects: each project is cloned at a pinned revision, optionally
prepared, verified target by target, and every target's outcome is written as
a normalized JSON report alongside run metadata.

Verification failures are ordinary result data. The process exits non-zero
only when the run itself cannot be set up (missing tool binaries, unreadable
configuration); per-project outcomes live in the summary and report files.

Examples:
	# Run a configuration against a local Verus build
	verita run --verus-repo ~/src/verus runs/nightly.toml

	# Same, with debug logging and retained checkouts
	verita run --verus-repo ~/src/verus -dd runs/nightly.toml

	# Print build info
	verita version`,
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&debugLevel, "debug", "d",
		"Print debugging output (can be repeated for more detail)")
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
